// Package observability provides a metrics extension for startflow. The
// MetricsExtension implements lifecycle hooks to count installed proxies,
// processes started by intercepted calls, start failures and run outcomes.
//
// For per-call tracing and metrics, see the middleware package:
// middleware.Tracing() and middleware.Metrics().
package observability
