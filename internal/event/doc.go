// Package event provides a synchronous pub-sub bus for generation progress.
//
// The documentation driver publishes events as it clusters the repository and
// works through its modules; the CLI and the terminal UI subscribe to them
// without the driver knowing who listens.
//
// # Main Types
//
//   - [Event]: Interface that all events implement, providing EventType() and Timestamp()
//   - [Bus]: Synchronous pub-sub dispatcher, safe for concurrent use
//   - [Handler]: Function type for event handlers (func(Event))
//
// # Event Categories
//
// Clustering:
//   - [ClusteringCompletedEvent]: The planning snapshot is available
//
// Modules:
//   - [ModuleStartedEvent]: A module's document or overview is being generated
//   - [ModuleCompletedEvent]: A module's document was written
//   - [ModuleSkippedEvent]: A module was already documented
//   - [ModuleFailedEvent]: A module failed; the run continues with the next one
//
// Run:
//   - [RunCompletedEvent]: Generation finished, with totals
//
// # Basic Usage
//
//	bus := event.NewBus(logger)
//
//	bus.Subscribe(event.TypeModuleFailed, func(e event.Event) {
//	    failed := e.(event.ModuleFailedEvent)
//	    fmt.Printf("%s failed: %s\n", failed.Module(), failed.Error)
//	})
//
//	bus.SubscribeAll(func(e event.Event) {
//	    log.Printf("event: %s at %v", e.EventType(), e.Timestamp())
//	})
//
// # Event Type Naming Convention
//
// Event types follow the pattern "category.action":
//   - clustering.completed
//   - module.started, module.completed, module.skipped, module.failed
//   - run.completed
package event
