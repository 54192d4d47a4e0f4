package artifact

import (
	"fmt"
	"os"
	"path/filepath"
	"syscall"

	cwerrors "github.com/aniruddha-adhikary/CodeWiki/internal/errors"
)

// LockFileName is created inside the docs directory while a run holds it.
const LockFileName = ".codewiki.lock"

// FileLock provides cross-process mutual exclusion over a docs directory
// using flock(2). Two runs writing the same docs directory would interleave
// artifacts, so generate holds the lock for its whole run.
type FileLock struct {
	path string
	file *os.File
}

// NewFileLock creates a FileLock for dir.
func NewFileLock(dir string) *FileLock {
	return &FileLock{path: filepath.Join(dir, LockFileName)}
}

// TryLock attempts to acquire the lock without blocking.
// Returns true if the lock was acquired, false if another process holds it.
func (fl *FileLock) TryLock() (bool, error) {
	if err := os.MkdirAll(filepath.Dir(fl.path), 0o755); err != nil {
		return false, fmt.Errorf("create lock directory: %w", err)
	}
	f, err := os.OpenFile(fl.path, os.O_CREATE|os.O_RDWR, 0o644)
	if err != nil {
		return false, fmt.Errorf("open lock file: %w", err)
	}

	err = syscall.Flock(int(f.Fd()), syscall.LOCK_EX|syscall.LOCK_NB)
	if err != nil {
		_ = f.Close()
		if err == syscall.EWOULDBLOCK {
			return false, nil
		}
		return false, fmt.Errorf("flock: %w", err)
	}

	fl.file = f
	return true, nil
}

// Unlock releases the lock and closes the lock file.
func (fl *FileLock) Unlock() error {
	if fl.file == nil {
		return nil
	}

	if err := syscall.Flock(int(fl.file.Fd()), syscall.LOCK_UN); err != nil {
		_ = fl.file.Close()
		fl.file = nil
		return fmt.Errorf("funlock: %w", err)
	}

	err := fl.file.Close()
	fl.file = nil
	return err
}

// Lock acquires the docs directory lock or fails with ErrDocsLocked.
func Lock(dir string) (*FileLock, error) {
	fl := NewFileLock(dir)
	ok, err := fl.TryLock()
	if err != nil {
		return nil, cwerrors.NewArtifactError("failed to lock docs directory", err).WithPath(fl.path)
	}
	if !ok {
		return nil, cwerrors.NewArtifactError("docs directory is in use", cwerrors.ErrDocsLocked).WithPath(dir)
	}
	return fl, nil
}
