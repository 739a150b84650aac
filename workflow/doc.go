// Package workflow is the process engine that intercepted methods start.
//
// A process is a named, typed handler registered in a [Registry]. Starting
// it creates a [Run] (the process-instance handle) whose input is the JSON
// encoding of the process variables, then executes the handler
// synchronously. Handlers are built from checkpointed steps, so a run that
// was interrupted can be resumed and skips what already completed.
//
// # Defining a Process
//
//	var OrderFulfilment = workflow.NewWorkflow("orderFulfilment",
//	    func(wf *workflow.Workflow, vars OrderVars) error {
//	        if err := wf.Step("reserve", func(ctx context.Context) error {
//	            return reserve(ctx, vars.CustomerID, vars.Quantity)
//	        }); err != nil {
//	            return err
//	        }
//	        return wf.Step("notify", func(ctx context.Context) error {
//	            return notify(ctx, vars.CustomerID)
//	        })
//	    },
//	)
//
// # Starting by Key
//
// [Runner.StartProcess] is the entry point used by the interception layer:
//
//	run, err := runner.StartProcess(ctx, "orderFulfilment", map[string]any{
//	    "customerId": "C-1",
//	    "qty":        42,
//	})
//
// # State Machine
//
//	running → completed
//	running → failed
//
// A handler failure does not make the start fail: the run is returned in
// the failed state and the error is recorded on it.
package workflow
