// Package engine wires the startflow subsystems together and provides
// the application-level entry point.
//
// # Building an Engine
//
//	rt, err := startflow.New(
//	    startflow.WithStore(memory.New()),
//	    startflow.WithLogger(logger),
//	)
//
//	eng, err := engine.Build(rt,
//	    engine.WithExtension(auditExt),
//	    engine.WithOuterInterceptor(middleware.Timeout(5*time.Second, logger)),
//	)
//
// # Registering Processes
//
//	engine.RegisterWorkflow(eng, orderFulfilment)
//
// # Installing Interception
//
//	c := container.New()
//	c.AddPostProcessor(eng.Installer())
//	c.Register("orders", &OrderService{})
//	if err := eng.Start(ctx); err != nil { ... }
//	if err := c.Start(ctx); err != nil { ... }
//
// Every proxied component runs the default advice stack (recover,
// tracing, metrics, logging) followed by [WithInterceptor] advice, all
// inside the process-start advice. [WithOuterInterceptor] advice wraps the
// process-start advice, so the context it derives is the one the started
// process sees.
//
// # Options
//
//   - [WithExtension]: register a lifecycle extension
//   - [WithInterceptor]: add advice to every proxied call
//   - [WithOuterInterceptor]: add advice around the process start
//   - [WithMatcher]: share a matcher with explicit registrations
//   - [WithTracerProvider]: set the OpenTelemetry tracer provider
//   - [WithMeterProvider]: set the OpenTelemetry meter provider
//   - [WithMetricFactory]: set the go-utils metric factory
package engine
