// Package event provides the reactive event hub behind every table.
//
// A Hub keeps one registry per subscription granularity and delivers batches
// of events to listeners synchronously, in a deterministic order, with loop
// detection and replay on subscribe.
//
// # Architecture
//
//	                 Publish(ctx, events)
//	                          │
//	                          ▼
//	            ┌──────────────────────────────┐
//	            │ frame (carried in ctx)       │
//	            │  - pending batches per hub   │
//	            │  - active listener           │
//	            │  - already-run set           │
//	            └──────────────────────────────┘
//	                          │ drain rounds
//	                          ▼
//	  table ─▶ column ─▶ row ─▶ range ─▶ cell     registries, swept in order
//	  each sorted by (Order, registration sequence)
//
// The first Publish on a call stack installs a frame in the context and owns
// draining it. Handlers receive that context; when they write to a table the
// resulting Publish finds the frame, appends its events and returns. After a
// full sweep the outermost call checks for appended events and runs another
// round, so later listeners observe the effect of earlier ones.
//
// # Loop detection
//
// A listener that publishes while it runs is recorded in the frame's
// already-run set. If a later round would invoke it again, dispatch fails
// with a *LoopError (matching ErrListenerLoop) instead. Listeners configured
// WithAllowLoop(true) are exempt and must converge on their own.
//
// # Replay
//
// Subscribe registers the listener, then asks the History callback for the
// current state. Unless WithSkipHistory(true) is set the handler is invoked
// with those events before Subscribe returns. The version History reports
// becomes the listener's high-water mark: events with a version not newer
// than it are dropped, so a replay racing with a concurrent write is not
// delivered twice.
//
// # Concurrency
//
// Any goroutine may publish. One listener never runs concurrently with
// itself; different listeners may. Handlers must pass the context they
// receive to the writes they perform. A write made with an unrelated context
// starts an independent dispatch that may wait on the running listener.
//
// # Errors
//
// Handler errors are wrapped in *HandlerError and abort the dispatch. The
// frame is reset on every exit path.
package event
