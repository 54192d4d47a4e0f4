package logging

import (
	"bytes"
	"encoding/csv"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"github.com/spf13/afero"
)

const testLogDir = "/docs/.codewiki"

func writeLog(t *testing.T, fs afero.Fs, name, content string) {
	t.Helper()
	if err := afero.WriteFile(fs, filepath.Join(testLogDir, name), []byte(content), 0644); err != nil {
		t.Fatalf("WriteFile(%s) error = %v", name, err)
	}
}

func messages(entries []LogEntry) []string {
	out := make([]string, len(entries))
	for i, e := range entries {
		out[i] = e.Message
	}
	return out
}

func TestReadLogs(t *testing.T) {
	t.Run("parses entries written by the logger", func(t *testing.T) {
		dir := t.TempDir()
		logger, err := NewLogger(dir, LevelDebug)
		if err != nil {
			t.Fatalf("NewLogger() error = %v", err)
		}
		logger.WithRun("run-1").WithModule([]string{"core", "parser"}).WithPhase("clustering").Info("grouped", "groups", 3)
		logger.WithRun("run-1").WithModule([]string{"util"}).WithPhase("generation").Debug("prompt built")
		logger.WithRun("run-1").Error("overview failed", "attempt", 2)
		_ = logger.Close()

		entries, err := AggregateLogs(dir)
		if err != nil {
			t.Fatalf("AggregateLogs() error = %v", err)
		}
		if len(entries) != 3 {
			t.Fatalf("len(entries) = %d, want 3", len(entries))
		}

		first := entries[0]
		if first.Level != LevelInfo {
			t.Errorf("Level = %q, want %q", first.Level, LevelInfo)
		}
		if first.RunID != "run-1" {
			t.Errorf("RunID = %q, want %q", first.RunID, "run-1")
		}
		if first.Module != "core/parser" {
			t.Errorf("Module = %q, want %q", first.Module, "core/parser")
		}
		if first.Phase != "clustering" {
			t.Errorf("Phase = %q, want %q", first.Phase, "clustering")
		}
		if first.Attrs["groups"] != float64(3) {
			t.Errorf("Attrs[groups] = %v, want 3", first.Attrs["groups"])
		}
	})

	t.Run("missing log file", func(t *testing.T) {
		_, err := ReadLogs(afero.NewMemMapFs(), testLogDir)
		if !errors.Is(err, ErrNoLogs) {
			t.Errorf("ReadLogs() error = %v, want ErrNoLogs", err)
		}
	})

	t.Run("empty log file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeLog(t, fs, LogFileName, "")

		entries, err := ReadLogs(fs, testLogDir)
		if err != nil {
			t.Fatalf("ReadLogs() error = %v", err)
		}
		if len(entries) != 0 {
			t.Errorf("len(entries) = %d, want 0", len(entries))
		}
	})

	t.Run("skips lines that are not JSON", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeLog(t, fs, LogFileName, `{"time":"2026-01-01T12:00:00Z","level":"INFO","msg":"valid"}
panic: not a log line
{"time":"2026-01-01T12:00:01Z","level":"ERROR","msg":"also valid"}
`)

		entries, err := ReadLogs(fs, testLogDir)
		if err != nil {
			t.Fatalf("ReadLogs() error = %v", err)
		}
		if diff := cmp.Diff([]string{"valid", "also valid"}, messages(entries)); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("merges rotated backups in time order", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeLog(t, fs, LogFileName+".2", `{"time":"2026-01-01T12:00:00Z","level":"INFO","msg":"oldest"}
`)
		writeLog(t, fs, LogFileName+".1", `{"time":"2026-01-01T12:00:02Z","level":"INFO","msg":"middle"}
{"time":"2026-01-01T12:00:01Z","level":"INFO","msg":"older"}
`)
		writeLog(t, fs, LogFileName, `{"time":"2026-01-01T12:00:03Z","level":"INFO","msg":"newest"}
`)
		// .4 is not consecutive with .2 and is ignored.
		writeLog(t, fs, LogFileName+".4", `{"time":"2026-01-01T11:00:00Z","level":"INFO","msg":"stray"}
`)

		entries, err := ReadLogs(fs, testLogDir)
		if err != nil {
			t.Fatalf("ReadLogs() error = %v", err)
		}
		want := []string{"oldest", "older", "middle", "newest"}
		if diff := cmp.Diff(want, messages(entries)); diff != "" {
			t.Errorf("messages mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("reads backups without a current file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		writeLog(t, fs, LogFileName+".1", `{"time":"2026-01-01T12:00:00Z","level":"WARN","msg":"rotated away"}
`)

		entries, err := ReadLogs(fs, testLogDir)
		if err != nil {
			t.Fatalf("ReadLogs() error = %v", err)
		}
		if len(entries) != 1 || entries[0].Level != LevelWarn {
			t.Errorf("entries = %+v, want one WARN entry", entries)
		}
	})
}

func TestParseLogEntry(t *testing.T) {
	t.Run("lifts standard fields out of attrs", func(t *testing.T) {
		entry, err := ParseLogEntry(`{"time":"2026-03-04T05:06:07.5Z","level":"WARN","msg":"retrying","run_id":"r1","module":"core","phase":"generation","attempt":2}`)
		if err != nil {
			t.Fatalf("ParseLogEntry() error = %v", err)
		}
		want := time.Date(2026, 3, 4, 5, 6, 7, 500_000_000, time.UTC)
		if !entry.Timestamp.Equal(want) {
			t.Errorf("Timestamp = %v, want %v", entry.Timestamp, want)
		}
		if diff := cmp.Diff(map[string]any{"attempt": float64(2)}, entry.Attrs); diff != "" {
			t.Errorf("Attrs mismatch (-want +got):\n%s", diff)
		}
		if entry.Module != "core" || entry.Phase != "generation" || entry.RunID != "r1" {
			t.Errorf("scope = %q/%q/%q, want core/generation/r1", entry.Module, entry.Phase, entry.RunID)
		}
	})

	t.Run("rejects invalid JSON", func(t *testing.T) {
		if _, err := ParseLogEntry("not json"); err == nil {
			t.Error("ParseLogEntry() error = nil, want error")
		}
	})

	t.Run("tolerates a missing timestamp", func(t *testing.T) {
		entry, err := ParseLogEntry(`{"level":"INFO","msg":"no time"}`)
		if err != nil {
			t.Fatalf("ParseLogEntry() error = %v", err)
		}
		if !entry.Timestamp.IsZero() {
			t.Errorf("Timestamp = %v, want zero", entry.Timestamp)
		}
	})
}

func TestFilterLogs(t *testing.T) {
	now := time.Now()
	entries := []LogEntry{
		{Timestamp: now, Level: "DEBUG", Message: "debug msg", Module: "cli", Phase: "clustering", RunID: "run-1"},
		{Timestamp: now.Add(time.Second), Level: "INFO", Message: "info msg", Module: "cli", Phase: "generation", RunID: "run-1"},
		{Timestamp: now.Add(2 * time.Second), Level: "WARN", Message: "warn msg", Module: "storage", Phase: "generation", RunID: "run-1"},
		{Timestamp: now.Add(3 * time.Second), Level: "ERROR", Message: "error msg", Module: "storage", Phase: "overview", RunID: "run-2"},
	}

	t.Run("returns all entries with empty filter", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{})
		if len(filtered) != 4 {
			t.Errorf("expected 4 entries, got %d", len(filtered))
		}
	})

	t.Run("filters by level", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{Level: "WARN"})
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries (WARN and ERROR), got %d", len(filtered))
		}
		for _, e := range filtered {
			if e.Level != "WARN" && e.Level != "ERROR" {
				t.Errorf("unexpected level: %s", e.Level)
			}
		}
	})

	t.Run("filters by level case insensitive", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{Level: "warn"})
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
	})

	t.Run("filters by time range", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{
			StartTime: now.Add(500 * time.Millisecond),
			EndTime:   now.Add(2500 * time.Millisecond),
		})
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
	})

	t.Run("filters by module", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{Module: "storage"})
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
		for _, e := range filtered {
			if e.Module != "storage" {
				t.Errorf("unexpected module: %s", e.Module)
			}
		}
	})

	t.Run("module filter matches nested modules", func(t *testing.T) {
		nested := append(entries, LogEntry{Timestamp: now, Level: "INFO", Message: "nested", Module: "storage/disk"})
		filtered := FilterLogs(nested, LogFilter{Module: "storage"})
		if len(filtered) != 3 {
			t.Errorf("expected 3 entries, got %d", len(filtered))
		}
		filtered = FilterLogs(nested, LogFilter{Module: "stor"})
		if len(filtered) != 0 {
			t.Errorf("expected prefix match on path segments only, got %d", len(filtered))
		}
	})

	t.Run("filters by phase", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{Phase: "generation"})
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
	})

	t.Run("filters by run ID", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{RunID: "run-2"})
		if len(filtered) != 1 {
			t.Errorf("expected 1 entry, got %d", len(filtered))
		}
	})

	t.Run("filters by message contains", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{MessageContains: "msg"})
		if len(filtered) != 4 {
			t.Errorf("expected 4 entries, got %d", len(filtered))
		}

		filtered = FilterLogs(entries, LogFilter{MessageContains: "warn"})
		if len(filtered) != 1 {
			t.Errorf("expected 1 entry, got %d", len(filtered))
		}
	})

	t.Run("combines multiple filters with AND logic", func(t *testing.T) {
		filtered := FilterLogs(entries, LogFilter{
			Level:  "INFO",
			Module: "storage",
		})
		// WARN and ERROR from storage
		if len(filtered) != 2 {
			t.Errorf("expected 2 entries, got %d", len(filtered))
		}
	})
}

func TestExportLogEntries(t *testing.T) {
	ts := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	entries := []LogEntry{
		{Timestamp: ts, Level: "INFO", Message: "module documented", RunID: "run-1", Module: "core/parser", Phase: "generation"},
		{Timestamp: ts.Add(time.Second), Level: "ERROR", Message: "overview failed", Attrs: map[string]any{"attempt": float64(2)}},
	}

	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportLogEntries(&buf, entries, "json"); err != nil {
			t.Fatalf("ExportLogEntries() error = %v", err)
		}
		var got []LogEntry
		if err := json.Unmarshal(buf.Bytes(), &got); err != nil {
			t.Fatalf("output is not JSON: %v", err)
		}
		if diff := cmp.Diff(entries, got); diff != "" {
			t.Errorf("round trip mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("text", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportLogEntries(&buf, entries, "TEXT"); err != nil {
			t.Fatalf("ExportLogEntries() error = %v", err)
		}
		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		want := []string{
			"[2026-01-02 03:04:05.000] INFO - module documented (run=run-1, module=core/parser, phase=generation)",
			`[2026-01-02 03:04:06.000] ERROR - overview failed {"attempt":2}`,
		}
		if diff := cmp.Diff(want, lines); diff != "" {
			t.Errorf("text mismatch (-want +got):\n%s", diff)
		}
	})

	t.Run("csv", func(t *testing.T) {
		var buf bytes.Buffer
		if err := ExportLogEntries(&buf, entries, "csv"); err != nil {
			t.Fatalf("ExportLogEntries() error = %v", err)
		}
		records, err := csv.NewReader(&buf).ReadAll()
		if err != nil {
			t.Fatalf("output is not CSV: %v", err)
		}
		if len(records) != 3 {
			t.Fatalf("len(records) = %d, want 3", len(records))
		}
		if diff := cmp.Diff([]string{"timestamp", "level", "message", "run_id", "module", "phase", "attrs"}, records[0]); diff != "" {
			t.Errorf("header mismatch (-want +got):\n%s", diff)
		}
		if records[1][4] != "core/parser" {
			t.Errorf("module column = %q, want %q", records[1][4], "core/parser")
		}
		if records[2][6] != `{"attempt":2}` {
			t.Errorf("attrs column = %q, want %q", records[2][6], `{"attempt":2}`)
		}
	})

	t.Run("unsupported format", func(t *testing.T) {
		err := ExportLogEntries(&bytes.Buffer{}, entries, "xml")
		if err == nil || !strings.Contains(err.Error(), "unsupported export format") {
			t.Errorf("ExportLogEntries() error = %v, want unsupported format", err)
		}
	})
}
