package startflow

import "errors"

var (
	// Wiring errors. Returned by AfterWiring before any traffic is accepted.
	ErrNoStarter = errors.New("startflow: no process starter configured")
	ErrNoHolder  = errors.New("startflow: no correlation holder configured")
	ErrNoAdvisor = errors.New("startflow: no advisor configured")

	// Container errors.
	ErrDuplicateComponent = errors.New("startflow: component already registered")
	ErrComponentNotFound  = errors.New("startflow: component not found")
	ErrContainerStarted   = errors.New("startflow: container already started")

	// Store errors.
	ErrNoStore      = errors.New("startflow: no store configured")
	ErrStoreClosed  = errors.New("startflow: store closed")
	ErrUnknownStore = errors.New("startflow: unknown store driver")

	// Not found errors.
	ErrWorkflowNotFound = errors.New("startflow: workflow not found")
	ErrRunNotFound      = errors.New("startflow: run not found")

	// Conflict errors.
	ErrRunAlreadyExists = errors.New("startflow: run already exists")

	// State errors.
	ErrInvalidState = errors.New("startflow: invalid state transition")

	// Execution errors.
	ErrHandlerPanic = errors.New("startflow: process handler panicked")

	// Proxy dispatch errors.
	ErrMethodNotFound       = errors.New("startflow: method not exposed by proxy")
	ErrArgCount             = errors.New("startflow: wrong number of arguments")
	ErrArgType              = errors.New("startflow: argument type mismatch")
	ErrUnsupportedSignature = errors.New("startflow: unsupported method signature")
)
