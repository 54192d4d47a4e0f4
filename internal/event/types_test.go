package event

import (
	"errors"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
)

func TestEventTypes(t *testing.T) {
	tests := []struct {
		name  string
		event Event
		want  string
	}{
		{"clustering completed", NewClusteringCompletedEvent(3, 2, "clustered"), TypeClusteringCompleted},
		{"module started", NewModuleStartedEvent([]string{"a"}, "a", false), TypeModuleStarted},
		{"module completed", NewModuleCompletedEvent([]string{"a"}, "a", false, time.Second), TypeModuleCompleted},
		{"module skipped", NewModuleSkippedEvent([]string{"a"}, "a", false), TypeModuleSkipped},
		{"module failed", NewModuleFailedEvent([]string{"a"}, "a", false, errors.New("x")), TypeModuleFailed},
		{"run completed", NewRunCompletedEvent("run", 1, 2, 3, 4, nil), TypeRunCompleted},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.event.EventType(); got != tt.want {
				t.Errorf("EventType() = %q, want %q", got, tt.want)
			}
			if tt.event.Timestamp().IsZero() {
				t.Error("Timestamp() is zero")
			}
		})
	}
}

func TestModuleEvent_CopiesPath(t *testing.T) {
	path := []string{"core", "auth"}
	e := NewModuleSkippedEvent(path, "auth", false)
	path[0] = "changed"

	if diff := cmp.Diff([]string{"core", "auth"}, e.Path); diff != "" {
		t.Errorf("Path mismatch (-want +got):\n%s", diff)
	}
}

func TestModuleEvent_RootOverview(t *testing.T) {
	e := NewModuleCompletedEvent(nil, "overview", true, 0)
	if got := e.Module(); got != "<root>" {
		t.Errorf("Module() = %q, want %q", got, "<root>")
	}
	if !e.Overview {
		t.Error("Overview = false, want true")
	}
}

func TestFailureEvents_CarryErrorText(t *testing.T) {
	failed := NewModuleFailedEvent([]string{"a"}, "a", false, errors.New("boom"))
	if failed.Error != "boom" {
		t.Errorf("Error = %q, want %q", failed.Error, "boom")
	}

	done := NewRunCompletedEvent("run-1", 4, 1, 0, 9, nil)
	if done.Err != "" {
		t.Errorf("Err = %q, want empty", done.Err)
	}
	if done.Calls != 9 {
		t.Errorf("Calls = %d, want 9", done.Calls)
	}
}
