// Package event provides the in-process notification bus that carries tool
// output and lifecycle notifications to the user interface.
//
// # Topics
//
// Topics use dot-notation:
//
//	process.output
//	tool.started, tool.stopped, tool.failed
//	config.changed
//
// A subscription pattern is either an exact topic, a prefix ending in ".*"
// which matches every topic below that prefix, or "*" which matches
// everything.
//
// # Delivery
//
// Publish calls matching handlers synchronously on the publishing goroutine,
// in subscription order. A panicking handler is recovered and reported as a
// *HandlerError wrapping ErrHandlerPanic; the remaining handlers still run.
//
// # Usage
//
//	bus := event.NewBus()
//	defer bus.Close()
//
//	id, _ := bus.Subscribe("tool.*", func(ev event.Event) {
//	    fmt.Println(ev.Topic, ev.Payload)
//	})
//	defer bus.Unsubscribe(id)
//
//	_ = bus.Publish(event.TopicToolStarted, event.ToolStatus{Tool: "parser"})
package event
