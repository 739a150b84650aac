// Package proxy provides the transparent decorator that stands in for an
// application object once it has been selected for interception.
//
// A [Proxy] holds the wrapped target and an ordered list of [Advisor]s.
// Each call names the method to run; the proxy selects the advisors whose
// [Pointcut] matches that method (per call, not once at wrap time),
// composes their interceptors with [Chain] and finally invokes the real
// method on the target through reflection.
//
//	// tracing → process start → target method
//	p := proxy.New(svc, proxy.Config{}, tracingAdvisor, startAdvisor)
//	run, err := proxy.Call[*workflow.Run](ctx, p, "PlaceOrder", "C-1", 42)
//
// Interceptors are applied right-to-left: the first advisor is the
// outermost wrapper.
//
// # Typed Façades
//
// Callers that want to keep a typed API write a small forwarding type:
//
//	type orders struct{ p *proxy.Proxy }
//
//	func (o orders) PlaceOrder(ctx context.Context, customerID string, amount int) (*workflow.Run, error) {
//	    return proxy.Call[*workflow.Run](ctx, o.p, "PlaceOrder", customerID, amount)
//	}
//
// # Supported Signatures
//
// Target methods may take a leading context.Context (filled from the call's
// context), may be variadic, may return a trailing error, and may return at
// most one other value.
package proxy
