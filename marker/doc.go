// Package marker defines the declaration surface application types use to
// request that a method start a workflow process.
//
// Go has no method annotations, so declarations are plain values: a type
// implements [Declarer] and returns one [Method] per guarded method. Each
// Method carries its markers and positional [Param] metadata, since
// parameter names are not available through reflection.
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
// # Meta Markers
//
// A custom marker that implements [Composed] and lists a [StartProcess] in
// its Meta slice triggers the same way as StartProcess itself. Only one
// level of composition is followed.
package marker
