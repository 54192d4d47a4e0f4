package logging

import (
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/spf13/afero"
)

const testLogPath = "/docs/.codewiki/debug.log"

func readFile(t *testing.T, fs afero.Fs, path string) string {
	t.Helper()
	data, err := afero.ReadFile(fs, path)
	if err != nil {
		t.Fatalf("ReadFile(%s) error = %v", path, err)
	}
	return string(data)
}

func exists(fs afero.Fs, path string) bool {
	ok, _ := afero.Exists(fs, path)
	return ok
}

// line returns a quarter-megabyte log line starting with tag; four of them
// fill a 1 MB file.
func line(tag string) []byte {
	return []byte(tag + strings.Repeat("x", 256*1024-len(tag)-1) + "\n")
}

func TestNewRotatingWriterFs(t *testing.T) {
	t.Run("creates directory and file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rw, err := NewRotatingWriterFs(fs, testLogPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriterFs() error = %v", err)
		}
		defer rw.Close()

		if !exists(fs, testLogPath) {
			t.Errorf("%s not created", testLogPath)
		}
		if rw.Path() != testLogPath {
			t.Errorf("Path() = %q, want %q", rw.Path(), testLogPath)
		}
	})

	t.Run("appends to existing file", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		if err := afero.WriteFile(fs, testLogPath, []byte("earlier\n"), 0644); err != nil {
			t.Fatal(err)
		}
		rw, err := NewRotatingWriterFs(fs, testLogPath, DefaultRotationConfig())
		if err != nil {
			t.Fatalf("NewRotatingWriterFs() error = %v", err)
		}
		if rw.Size() != int64(len("earlier\n")) {
			t.Errorf("Size() = %d, want %d", rw.Size(), len("earlier\n"))
		}
		if _, err := rw.Write([]byte("later\n")); err != nil {
			t.Fatalf("Write() error = %v", err)
		}
		rw.Close()

		if got := readFile(t, fs, testLogPath); got != "earlier\nlater\n" {
			t.Errorf("content = %q, want %q", got, "earlier\nlater\n")
		}
	})
}

func TestRotatingWriter_Rotation(t *testing.T) {
	t.Run("shifts backups and drops the oldest", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rw, err := NewRotatingWriterFs(fs, testLogPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 2})
		if err != nil {
			t.Fatalf("NewRotatingWriterFs() error = %v", err)
		}
		defer rw.Close()

		// Four lines fill the file; each group of four ends up in one file.
		for i := 0; i < 16; i++ {
			if _, err := rw.Write(line(fmt.Sprintf("g%d-", i/4))); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}

		if got := readFile(t, fs, testLogPath); !strings.HasPrefix(got, "g3-") {
			t.Errorf("current file starts with %q, want g3-", got[:3])
		}
		if got := readFile(t, fs, BackupPath(testLogPath, 1)); !strings.HasPrefix(got, "g2-") {
			t.Errorf("backup 1 starts with %q, want g2-", got[:3])
		}
		if got := readFile(t, fs, BackupPath(testLogPath, 2)); !strings.HasPrefix(got, "g1-") {
			t.Errorf("backup 2 starts with %q, want g1-", got[:3])
		}
		if exists(fs, BackupPath(testLogPath, 3)) {
			t.Error("backup 3 exists, want at most 2 backups")
		}
	})

	t.Run("without backups the file is truncated", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rw, err := NewRotatingWriterFs(fs, testLogPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 0})
		if err != nil {
			t.Fatalf("NewRotatingWriterFs() error = %v", err)
		}
		defer rw.Close()

		for i := 0; i < 5; i++ {
			if _, err := rw.Write(line(fmt.Sprintf("l%d-", i))); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}

		if exists(fs, BackupPath(testLogPath, 1)) {
			t.Error("backup written with MaxBackups 0")
		}
		if got := readFile(t, fs, testLogPath); !strings.HasPrefix(got, "l4-") {
			t.Errorf("current file starts with %q, want l4-", got[:3])
		}
	})

	t.Run("zero size disables rotation", func(t *testing.T) {
		fs := afero.NewMemMapFs()
		rw, err := NewRotatingWriterFs(fs, testLogPath, RotationConfig{MaxSizeMB: 0, MaxBackups: 3})
		if err != nil {
			t.Fatalf("NewRotatingWriterFs() error = %v", err)
		}
		defer rw.Close()

		for i := 0; i < 8; i++ {
			if _, err := rw.Write(line("x")); err != nil {
				t.Fatalf("Write() error = %v", err)
			}
		}
		if exists(fs, BackupPath(testLogPath, 1)) {
			t.Error("rotated with MaxSizeMB 0")
		}
		if rw.Size() != int64(8*len(line("x"))) {
			t.Errorf("Size() = %d, want %d", rw.Size(), 8*len(line("x")))
		}
	})
}

func TestRotatingWriter_Concurrency(t *testing.T) {
	fs := afero.NewMemMapFs()
	rw, err := NewRotatingWriterFs(fs, testLogPath, RotationConfig{MaxSizeMB: 1, MaxBackups: 10})
	if err != nil {
		t.Fatalf("NewRotatingWriterFs() error = %v", err)
	}
	defer rw.Close()

	var wg sync.WaitGroup
	for w := 0; w < 4; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < 4; i++ {
				if _, err := rw.Write(line("c")); err != nil {
					t.Errorf("Write() error = %v", err)
				}
			}
		}()
	}
	wg.Wait()

	// 16 lines of a quarter megabyte: the current file and three backups,
	// each holding whole lines only.
	total := 0
	for _, path := range []string{testLogPath, BackupPath(testLogPath, 1), BackupPath(testLogPath, 2), BackupPath(testLogPath, 3)} {
		content := readFile(t, fs, path)
		if len(content)%len(line("c")) != 0 {
			t.Errorf("%s holds a partial line (%d bytes)", path, len(content))
		}
		total += strings.Count(content, "\n")
	}
	if total != 16 {
		t.Errorf("lines across files = %d, want 16", total)
	}
}

func TestRotatingWriter_Close(t *testing.T) {
	fs := afero.NewMemMapFs()
	rw, err := NewRotatingWriterFs(fs, testLogPath, DefaultRotationConfig())
	if err != nil {
		t.Fatalf("NewRotatingWriterFs() error = %v", err)
	}

	if err := rw.Sync(); err != nil {
		t.Errorf("Sync() error = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if err := rw.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := rw.Write([]byte("late\n")); err == nil {
		t.Error("Write() after Close error = nil, want error")
	}
}
