// Package middleware provides advice for proxied calls.
//
// Each constructor returns a [proxy.Interceptor]. Interceptors are usually
// handed to the installer, which applies them to every method of the
// components it proxies, inside the process-start advice:
//
//	inst := installer.New(runner, holder,
//	    installer.WithInterceptors(
//	        middleware.Recover(logger),
//	        middleware.Tracing(),
//	        middleware.Logging(logger),
//	    ),
//	)
//
// The first interceptor is the outermost wrapper.
//
// # Built-in Middleware
//
//   - [Logging]: logs each call's method, duration and outcome
//   - [Recover]: converts panics in the target method into errors
//   - [Timeout]: bounds each call with a deadline
//   - [Tracing]: wraps each call in an OpenTelemetry span
//   - [Metrics]: records per-method duration and outcome counters
//   - [Scope]: supplies a default Forge app/org scope to unscoped calls
package middleware
