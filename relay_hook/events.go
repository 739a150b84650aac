package relayhook

import (
	"context"

	"github.com/xraph/relay"
	"github.com/xraph/relay/catalog"
)

// Lifecycle event types. Each constant maps to one ext lifecycle hook and
// is used as the event.Event.Type when sending via Relay.
const (
	EventObjectProxied         = "startflow.object.proxied"
	EventProcessStarted        = "startflow.process.started"
	EventProcessStartFailed    = "startflow.process.start_failed"
	EventWorkflowStarted       = "startflow.workflow.started"
	EventWorkflowStepCompleted = "startflow.workflow.step_completed"
	EventWorkflowStepFailed    = "startflow.workflow.step_failed"
	EventWorkflowCompleted     = "startflow.workflow.completed"
	EventWorkflowFailed        = "startflow.workflow.failed"
)

const definitionVersion = "2026-01-01"

// AllDefinitions returns webhook definitions for every lifecycle event
// type. Pass these to relay.RegisterEventType to populate the catalog.
func AllDefinitions() []catalog.WebhookDefinition {
	return []catalog.WebhookDefinition{
		// ── Interception events ─────────────────────────
		{
			Name:        EventObjectProxied,
			Description: "Fired when a component is wrapped for process-start interception.",
			Group:       "interception",
			Version:     definitionVersion,
		},
		{
			Name:        EventProcessStarted,
			Description: "Fired when an intercepted method call starts a process.",
			Group:       "interception",
			Version:     definitionVersion,
		},
		{
			Name:        EventProcessStartFailed,
			Description: "Fired when an intercepted method succeeded but its process could not be started.",
			Group:       "interception",
			Version:     definitionVersion,
		},
		// ── Workflow events ─────────────────────────────
		{
			Name:        EventWorkflowStarted,
			Description: "Fired when a process run begins execution.",
			Group:       "workflows",
			Version:     definitionVersion,
		},
		{
			Name:        EventWorkflowStepCompleted,
			Description: "Fired after a process step completes successfully.",
			Group:       "workflows",
			Version:     definitionVersion,
		},
		{
			Name:        EventWorkflowStepFailed,
			Description: "Fired when a process step fails.",
			Group:       "workflows",
			Version:     definitionVersion,
		},
		{
			Name:        EventWorkflowCompleted,
			Description: "Fired when a process run finishes successfully.",
			Group:       "workflows",
			Version:     definitionVersion,
		},
		{
			Name:        EventWorkflowFailed,
			Description: "Fired when a process run fails.",
			Group:       "workflows",
			Version:     definitionVersion,
		},
	}
}

// RegisterAll registers every startflow webhook event type in the Relay
// catalog. Call it once during startup before sending events.
func RegisterAll(ctx context.Context, r *relay.Relay) error {
	for _, def := range AllDefinitions() {
		if _, err := r.RegisterEventType(ctx, def); err != nil {
			return err
		}
	}
	return nil
}
