package audithook

// Audit event actions. Each constant corresponds to one ext lifecycle hook
// and becomes the Action field of the audit event.
const (
	ActionObjectProxied         = "object.proxied"
	ActionProcessStarted        = "process.started"
	ActionProcessStartFailed    = "process.start_failed"
	ActionWorkflowStarted       = "workflow.started"
	ActionWorkflowStepCompleted = "workflow.step_completed"
	ActionWorkflowStepFailed    = "workflow.step_failed"
	ActionWorkflowCompleted     = "workflow.completed"
	ActionWorkflowFailed        = "workflow.failed"
)

// Audit event categories group related actions.
const (
	CategoryProxy    = "startflow.proxy"
	CategoryProcess  = "startflow.process"
	CategoryWorkflow = "startflow.workflow"
)

// Resource types used as the Resource field in audit events.
const (
	ResourceComponent  = "component"
	ResourceInvocation = "invocation"
	ResourceWorkflow   = "workflow_run"
)

// AllActions returns every action this extension can emit.
func AllActions() []string {
	return []string{
		ActionObjectProxied,
		ActionProcessStarted,
		ActionProcessStartFailed,
		ActionWorkflowStarted,
		ActionWorkflowStepCompleted,
		ActionWorkflowStepFailed,
		ActionWorkflowCompleted,
		ActionWorkflowFailed,
	}
}
