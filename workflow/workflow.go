package workflow

// Definition is a typed process definition. T is the shape the process
// variables are decoded into, so it must accept the JSON object produced
// from the variable map.
type Definition[T any] struct {
	// Name is the process key.
	Name string

	// Version distinguishes revisions of the same key. Zero means 1.
	Version int

	// Handler runs the process.
	Handler func(wf *Workflow, input T) error
}

// NewWorkflow creates a typed process definition at version 1.
func NewWorkflow[T any](name string, handler func(wf *Workflow, input T) error) *Definition[T] {
	return &Definition[T]{
		Name:    name,
		Version: 1,
		Handler: handler,
	}
}

// WithVersion returns a copy of the definition stamped with version v.
func (d *Definition[T]) WithVersion(v int) *Definition[T] {
	cp := *d
	cp.Version = v
	return &cp
}
