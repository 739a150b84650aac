// Package ext defines the extension system for startflow.
//
// Extensions are notified of lifecycle events and can react to them by
// recording metrics, emitting webhooks or writing audit logs. Each hook is
// a separate interface so extensions opt in only to the events they care
// about.
//
// # Implementing an Extension
//
//	type MyExtension struct{}
//
//	func (e *MyExtension) Name() string { return "my-extension" }
//
//	func (e *MyExtension) OnProcessStarted(ctx context.Context, s *interceptor.Start, r *workflow.Run) error {
//	    log.Printf("%s.%s started %s as %s", s.Type, s.Method, s.Key, r.ID)
//	    return nil
//	}
//
// # Interception Hooks
//
//   - [ProcessStarted]: a guarded call started its process
//   - [ProcessStartFailed]: the call succeeded but the start failed
//   - [ObjectProxied]: the installer advised a component
//
// # Workflow Lifecycle Hooks
//
//   - [WorkflowStarted]: a run was created
//   - [WorkflowStepCompleted]: a step finished successfully
//   - [WorkflowStepFailed]: a step failed
//   - [WorkflowCompleted]: a run finished successfully
//   - [WorkflowFailed]: a run's handler failed
//
// # Other Hooks
//
//   - [Shutdown]: the runtime is shutting down
//
// The [Registry] fans out each event to every registered extension that
// implements the corresponding hook, in registration order.
package ext
