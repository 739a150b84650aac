// Package startflow starts workflow-process instances when ordinary Go
// methods complete successfully.
//
// Application types declare which of their methods trigger a process and
// which arguments become process variables. At wiring time an installer
// inspects every component created by the host container and replaces
// eligible ones with a transparent proxy. Calling a guarded method through
// the proxy runs the real method, collects the declared arguments into a
// variable map, starts the process and, when the method is declared to
// return a *workflow.Run and returned nil, hands the started run back to
// the caller.
//
// # Quick Start
//
//	rt, err := startflow.New(startflow.WithStore(memory.New()))
//	eng, err := engine.Build(rt)
//	workflow.RegisterDefinition(eng.WorkflowRegistry(), orderProcess)
//
//	c := container.New()
//	c.AddPostProcessor(eng.Installer())
//	c.Register("orders", &OrderService{})
//	err = c.Start(ctx)
//
//	orders := container.MustResolve[*proxy.Proxy](c, "orders")
//	run, err := proxy.Call[*workflow.Run](ctx, orders, "PlaceOrder", "C-1", 42)
//
// # Declaring Triggers
//
// A type lists its triggering methods by implementing marker.Declarer:
//
//	func (*OrderService) ProcessMethods() []marker.Method {
//	    return []marker.Method{
//	        marker.Trigger("PlaceOrder", "order-process",
//	            marker.Var("customerId", "customer"),
//	            marker.Arg("amount"),
//	        ),
//	    }
//	}
//
// # Architecture
//
// The matcher decides eligibility, the interceptor runs around each guarded
// call, the installer wires proxies and the correlation holder carries the
// started run back through the call. The workflow engine is reached only
// through the interceptor.Starter port, which workflow.Runner implements.
//
// All entity IDs use TypeID: type-prefixed, K-sortable, UUIDv7-based.
package startflow
