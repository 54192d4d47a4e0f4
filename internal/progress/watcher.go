package progress

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/aniruddha-adhikary/CodeWiki/internal/artifact"
	"github.com/aniruddha-adhikary/CodeWiki/internal/logging"
)

// DefaultDebounce groups bursts of file events into one snapshot.
const DefaultDebounce = 100 * time.Millisecond

// Watcher emits a new Snapshot whenever documents or module trees in the
// docs directory change.
type Watcher struct {
	store    *artifact.Store
	watcher  *fsnotify.Watcher
	debounce time.Duration
	logger   *logging.Logger
}

// NewWatcher watches the docs directory behind store. The directory must
// exist on the real filesystem.
func NewWatcher(store *artifact.Store, logger *logging.Logger) (*Watcher, error) {
	if logger == nil {
		logger = logging.NopLogger()
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	if err := fsw.Add(store.Dir()); err != nil {
		_ = fsw.Close()
		return nil, err
	}
	return &Watcher{
		store:    store,
		watcher:  fsw,
		debounce: DefaultDebounce,
		logger:   logger,
	}, nil
}

// Run sends the current snapshot, then one per change, until ctx is done.
// It closes out when it returns.
func (w *Watcher) Run(ctx context.Context, out chan<- *Snapshot) error {
	defer close(out)
	defer func() { _ = w.watcher.Close() }()

	w.emit(ctx, out)

	// Debounce: editors and atomic writes produce several events per change.
	timer := time.NewTimer(0)
	<-timer.C
	pending := false

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}
			if !relevant(ev) {
				continue
			}
			pending = true
			timer.Reset(w.debounce)

		case <-timer.C:
			if pending {
				pending = false
				w.emit(ctx, out)
			}

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("docs watcher error", "error", err.Error())
		}
	}
}

func (w *Watcher) emit(ctx context.Context, out chan<- *Snapshot) {
	snap, err := Take(w.store)
	if err != nil {
		w.logger.Debug("no snapshot yet", "error", err.Error())
		return
	}
	select {
	case out <- snap:
	case <-ctx.Done():
	}
}

// relevant reports whether ev touches a document or module tree. Temporary
// files from atomic writes are ignored; their rename is reported as a
// create of the final name.
func relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Rename|fsnotify.Remove) == 0 {
		return false
	}
	name := filepath.Base(ev.Name)
	if strings.HasSuffix(name, ".tmp") {
		return false
	}
	return strings.HasSuffix(name, artifact.DocExt) || strings.HasSuffix(name, ".json")
}
