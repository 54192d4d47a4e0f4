package event

import (
	"time"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

// Event types published during a generation run.
const (
	TypeClusteringCompleted = "clustering.completed"
	TypeModuleStarted       = "module.started"
	TypeModuleCompleted     = "module.completed"
	TypeModuleSkipped       = "module.skipped"
	TypeModuleFailed        = "module.failed"
	TypeRunCompleted        = "run.completed"
)

// Event is the interface that all events implement.
type Event interface {
	// EventType returns the "category.action" identifier of the event.
	EventType() string
	// Timestamp returns when the event occurred.
	Timestamp() time.Time
}

// baseEvent provides common fields for all events.
type baseEvent struct {
	eventType string
	timestamp time.Time
}

func (e baseEvent) EventType() string    { return e.eventType }
func (e baseEvent) Timestamp() time.Time { return e.timestamp }

func newBaseEvent(eventType string) baseEvent {
	return baseEvent{
		eventType: eventType,
		timestamp: time.Now(),
	}
}

// moduleEvent carries the module a step works on.
type moduleEvent struct {
	baseEvent
	// Path locates the module in the tree; empty for the repository overview.
	Path []string
	// Name is the document name (<Name>.md).
	Name string
	// Overview is true for parent and repository overview synthesis.
	Overview bool
}

// Module renders the module path for display.
func (e moduleEvent) Module() string {
	return cwerrors.FormatPath(e.Path)
}

// ModulePath returns the module path of the event.
func (e moduleEvent) ModulePath() []string {
	return e.Path
}

func newModuleEvent(eventType string, path []string, name string, overview bool) moduleEvent {
	return moduleEvent{
		baseEvent: newBaseEvent(eventType),
		Path:      append([]string(nil), path...),
		Name:      name,
		Overview:  overview,
	}
}

// -----------------------------------------------------------------------------
// Clustering Events
// -----------------------------------------------------------------------------

// ClusteringCompletedEvent is emitted once the planning snapshot is known,
// whether it was loaded, supplied by the projection, or freshly clustered.
type ClusteringCompletedEvent struct {
	baseEvent
	Modules int    // Number of leaf modules in the snapshot
	Depth   int    // Depth of the snapshot tree
	Source  string // "saved", "projection" or "clustered"
}

// NewClusteringCompletedEvent creates a ClusteringCompletedEvent.
func NewClusteringCompletedEvent(modules, depth int, source string) ClusteringCompletedEvent {
	return ClusteringCompletedEvent{
		baseEvent: newBaseEvent(TypeClusteringCompleted),
		Modules:   modules,
		Depth:     depth,
		Source:    source,
	}
}

// -----------------------------------------------------------------------------
// Module Events
// -----------------------------------------------------------------------------

// ModuleStartedEvent is emitted before a module is documented.
type ModuleStartedEvent struct {
	moduleEvent
}

// NewModuleStartedEvent creates a ModuleStartedEvent.
func NewModuleStartedEvent(path []string, name string, overview bool) ModuleStartedEvent {
	return ModuleStartedEvent{newModuleEvent(TypeModuleStarted, path, name, overview)}
}

// ModuleCompletedEvent is emitted after a module's document was written.
type ModuleCompletedEvent struct {
	moduleEvent
	Duration time.Duration
}

// NewModuleCompletedEvent creates a ModuleCompletedEvent.
func NewModuleCompletedEvent(path []string, name string, overview bool, d time.Duration) ModuleCompletedEvent {
	return ModuleCompletedEvent{
		moduleEvent: newModuleEvent(TypeModuleCompleted, path, name, overview),
		Duration:    d,
	}
}

// ModuleSkippedEvent is emitted when a module's document already existed.
type ModuleSkippedEvent struct {
	moduleEvent
}

// NewModuleSkippedEvent creates a ModuleSkippedEvent.
func NewModuleSkippedEvent(path []string, name string, overview bool) ModuleSkippedEvent {
	return ModuleSkippedEvent{newModuleEvent(TypeModuleSkipped, path, name, overview)}
}

// ModuleFailedEvent is emitted when documenting a module failed.
type ModuleFailedEvent struct {
	moduleEvent
	Error string
}

// NewModuleFailedEvent creates a ModuleFailedEvent.
func NewModuleFailedEvent(path []string, name string, overview bool, err error) ModuleFailedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return ModuleFailedEvent{
		moduleEvent: newModuleEvent(TypeModuleFailed, path, name, overview),
		Error:       msg,
	}
}

// -----------------------------------------------------------------------------
// Run Events
// -----------------------------------------------------------------------------

// RunCompletedEvent is emitted when generation finishes, successfully or not.
type RunCompletedEvent struct {
	baseEvent
	RunID     string
	Generated int
	Skipped   int
	Failed    int
	Calls     int // Text-generation requests made during the run
	Err       string
}

// NewRunCompletedEvent creates a RunCompletedEvent.
func NewRunCompletedEvent(runID string, generated, skipped, failed, calls int, err error) RunCompletedEvent {
	msg := ""
	if err != nil {
		msg = err.Error()
	}
	return RunCompletedEvent{
		baseEvent: newBaseEvent(TypeRunCompleted),
		RunID:     runID,
		Generated: generated,
		Skipped:   skipped,
		Failed:    failed,
		Calls:     calls,
		Err:       msg,
	}
}
