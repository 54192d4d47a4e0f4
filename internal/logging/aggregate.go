package logging

import (
	"bufio"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/spf13/afero"
)

// LogEntry is one parsed line of debug.log.
type LogEntry struct {
	Timestamp time.Time      `json:"time"`
	Level     string         `json:"level"`
	Message   string         `json:"msg"`
	RunID     string         `json:"run_id,omitempty"`
	Module    string         `json:"module,omitempty"`
	Phase     string         `json:"phase,omitempty"`
	Attrs     map[string]any `json:"attrs,omitempty"`
}

// LogFilter selects log entries. Zero fields do not filter; set fields are
// combined with AND.
type LogFilter struct {
	// Level keeps entries at or above this level (DEBUG < INFO < WARN < ERROR).
	Level string
	// StartTime and EndTime bound the entry timestamp, inclusive.
	StartTime time.Time
	EndTime   time.Time
	// Module keeps entries for this module path or any module nested under
	// it ("core" matches "core/parser").
	Module          string
	Phase           string
	RunID           string
	MessageContains string
}

var levelOrder = map[string]int{
	LevelDebug: 0,
	LevelInfo:  1,
	LevelWarn:  2,
	LevelError: 3,
}

// ErrNoLogs is returned by ReadLogs when the directory holds no log file.
var ErrNoLogs = errors.New("no log file found")

// ReadLogs parses debug.log in logDir together with its rotated backups and
// returns the entries sorted by timestamp. Lines that are not JSON are
// skipped.
func ReadLogs(fs afero.Fs, logDir string) ([]LogEntry, error) {
	current := filepath.Join(logDir, LogFileName)

	var files []string
	for n := 1; ; n++ {
		backup := BackupPath(current, n)
		if ok, _ := afero.Exists(fs, backup); !ok {
			break
		}
		files = append(files, backup)
	}
	if ok, _ := afero.Exists(fs, current); ok {
		files = append(files, current)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("%w in %s", ErrNoLogs, logDir)
	}

	var entries []LogEntry
	for _, path := range files {
		parsed, err := readLogFile(fs, path)
		if err != nil {
			return nil, err
		}
		entries = append(entries, parsed...)
	}

	sort.SliceStable(entries, func(i, j int) bool {
		return entries[i].Timestamp.Before(entries[j].Timestamp)
	})
	return entries, nil
}

// AggregateLogs reads the logs in logDir on the OS filesystem.
func AggregateLogs(logDir string) ([]LogEntry, error) {
	return ReadLogs(afero.NewOsFs(), logDir)
}

func readLogFile(fs afero.Fs, path string) ([]LogEntry, error) {
	file, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	defer func() { _ = file.Close() }()

	var entries []LogEntry
	scanner := bufio.NewScanner(file)
	const maxLine = 1024 * 1024
	scanner.Buffer(make([]byte, 64*1024), maxLine)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		entry, err := ParseLogEntry(line)
		if err != nil {
			continue
		}
		entries = append(entries, entry)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("error reading %s: %w", path, err)
	}
	return entries, nil
}

// standardFields are the keys lifted out of Attrs.
var standardFields = map[string]bool{
	"time":   true,
	"level":  true,
	"msg":    true,
	"run_id": true,
	"module": true,
	"phase":  true,
}

// ParseLogEntry parses a single JSON log line into a LogEntry.
func ParseLogEntry(line string) (LogEntry, error) {
	var raw map[string]any
	if err := json.Unmarshal([]byte(line), &raw); err != nil {
		return LogEntry{}, fmt.Errorf("invalid JSON: %w", err)
	}

	str := func(key string) string {
		s, _ := raw[key].(string)
		return s
	}
	entry := LogEntry{
		Level:   str("level"),
		Message: str("msg"),
		RunID:   str("run_id"),
		Module:  str("module"),
		Phase:   str("phase"),
		Attrs:   make(map[string]any),
	}
	if t, err := time.Parse(time.RFC3339Nano, str("time")); err == nil {
		entry.Timestamp = t
	}
	for k, v := range raw {
		if !standardFields[k] {
			entry.Attrs[k] = v
		}
	}
	return entry, nil
}

// FilterLogs returns the entries matching filter.
func FilterLogs(entries []LogEntry, filter LogFilter) []LogEntry {
	if filter == (LogFilter{}) {
		return entries
	}
	var filtered []LogEntry
	for _, entry := range entries {
		if filter.Matches(entry) {
			filtered = append(filtered, entry)
		}
	}
	return filtered
}

// Matches reports whether entry passes every set criterion of f.
func (f LogFilter) Matches(entry LogEntry) bool {
	if f.Level != "" {
		want, okWant := levelOrder[strings.ToUpper(f.Level)]
		got, okGot := levelOrder[entry.Level]
		if okWant && okGot && got < want {
			return false
		}
	}
	if !f.StartTime.IsZero() && entry.Timestamp.Before(f.StartTime) {
		return false
	}
	if !f.EndTime.IsZero() && entry.Timestamp.After(f.EndTime) {
		return false
	}
	if f.Module != "" && entry.Module != f.Module && !strings.HasPrefix(entry.Module, f.Module+"/") {
		return false
	}
	if f.Phase != "" && entry.Phase != f.Phase {
		return false
	}
	if f.RunID != "" && entry.RunID != f.RunID {
		return false
	}
	if f.MessageContains != "" && !strings.Contains(entry.Message, f.MessageContains) {
		return false
	}
	return true
}

// ExportFormats lists the formats accepted by ExportLogEntries.
func ExportFormats() []string {
	return []string{"json", "text", "csv"}
}

// ExportLogEntries writes entries to w as "json", "text", or "csv".
func ExportLogEntries(w io.Writer, entries []LogEntry, format string) error {
	switch strings.ToLower(format) {
	case "json":
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(entries)
	case "text":
		return exportText(w, entries)
	case "csv":
		return exportCSV(w, entries)
	default:
		return fmt.Errorf("unsupported export format: %s (supported: %s)", format, strings.Join(ExportFormats(), ", "))
	}
}

// exportText writes one line per entry:
// [TIMESTAMP] LEVEL - MESSAGE (run=..., module=..., phase=...) {attrs}
func exportText(w io.Writer, entries []LogEntry) error {
	for _, entry := range entries {
		parts := []string{
			"[" + entry.Timestamp.Format("2006-01-02 15:04:05.000") + "]",
			entry.Level, "-", entry.Message,
		}

		var scope []string
		if entry.RunID != "" {
			scope = append(scope, "run="+entry.RunID)
		}
		if entry.Module != "" {
			scope = append(scope, "module="+entry.Module)
		}
		if entry.Phase != "" {
			scope = append(scope, "phase="+entry.Phase)
		}
		if len(scope) > 0 {
			parts = append(parts, "("+strings.Join(scope, ", ")+")")
		}
		if len(entry.Attrs) > 0 {
			attrs, _ := json.Marshal(entry.Attrs)
			parts = append(parts, string(attrs))
		}

		if _, err := io.WriteString(w, strings.Join(parts, " ")+"\n"); err != nil {
			return fmt.Errorf("failed to write text entry: %w", err)
		}
	}
	return nil
}

func exportCSV(w io.Writer, entries []LogEntry) error {
	writer := csv.NewWriter(w)
	if err := writer.Write([]string{"timestamp", "level", "message", "run_id", "module", "phase", "attrs"}); err != nil {
		return fmt.Errorf("failed to write CSV header: %w", err)
	}
	for _, entry := range entries {
		attrs := ""
		if len(entry.Attrs) > 0 {
			if b, err := json.Marshal(entry.Attrs); err == nil {
				attrs = string(b)
			}
		}
		record := []string{
			entry.Timestamp.Format(time.RFC3339Nano),
			entry.Level,
			entry.Message,
			entry.RunID,
			entry.Module,
			entry.Phase,
			attrs,
		}
		if err := writer.Write(record); err != nil {
			return fmt.Errorf("failed to write CSV record: %w", err)
		}
	}
	writer.Flush()
	return writer.Error()
}
