// Package audithook is a startflow extension that bridges interception and
// process lifecycle events to an immutable audit trail backend such as
// Chronicle.
//
// Every hook emits a structured audit event through the [Recorder]
// interface. Severity follows the outcome: info for normal operations,
// warning for failed steps, critical for failed starts and failed runs.
//
// # Usage with Chronicle
//
//	audithook.New(audithook.RecorderFunc(func(ctx context.Context, evt *audithook.AuditEvent) error {
//	    return chronicle.Info(ctx, evt.Action, evt.Resource, evt.ResourceID).
//	        Category(evt.Category).
//	        Outcome(evt.Outcome).
//	        Record()
//	}))
//
// # Selective filtering
//
//	audithook.New(recorder,
//	    audithook.WithActions(
//	        audithook.ActionProcessStartFailed,
//	        audithook.ActionWorkflowFailed,
//	    ),
//	)
package audithook
