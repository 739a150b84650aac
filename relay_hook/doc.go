// Package relayhook bridges startflow lifecycle events to Relay for webhook
// delivery. Registered as an extension, it emits typed webhook events
// (startflow.process.started, startflow.workflow.failed and so on) at
// every lifecycle point.
//
// Usage:
//
//	r, _ := relay.New(relay.WithStore(store))
//	relayhook.RegisterAll(ctx, r)
//
//	hook := relayhook.New(r)
//	engine.WithExtension(hook)
//
// To restrict which events are emitted:
//
//	hook := relayhook.New(r,
//	    relayhook.WithEvents(
//	        relayhook.EventProcessStarted,
//	        relayhook.EventProcessStartFailed,
//	    ),
//	)
package relayhook
