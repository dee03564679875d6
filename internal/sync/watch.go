// pattern: Imperative Shell

package sync

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"wtforge/internal/logging"
)

// Watcher re-runs a sync callback whenever the template tree changes.
// Events are debounced so an editor save burst triggers one run.
type Watcher struct {
	templateRoot string
	debounce     time.Duration
	logger       *logging.ScopedLogger
	watcher      *fsnotify.Watcher
}

// NewWatcher creates a watcher over templateRoot. A zero debounce
// defaults to 300ms.
func NewWatcher(templateRoot string, debounce time.Duration, logger *logging.ScopedLogger) (*Watcher, error) {
	if debounce <= 0 {
		debounce = 300 * time.Millisecond
	}
	if logger == nil {
		logger = logging.NopLogger()
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}

	return &Watcher{
		templateRoot: templateRoot,
		debounce:     debounce,
		logger:       logger,
		watcher:      fsw,
	}, nil
}

// Start watches the template tree and invokes fn after each debounced
// change burst. It returns when the context is cancelled.
func (w *Watcher) Start(ctx context.Context, fn func()) error {
	defer func() { _ = w.watcher.Close() }()

	// fsnotify does not recurse; register every directory up front and
	// add new ones as they appear.
	err := filepath.WalkDir(w.templateRoot, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return w.watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to watch template tree: %w", err)
	}

	var timer *time.Timer
	var timerC <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return nil
			}

			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = w.watcher.Add(event.Name)
				}
			}

			w.logger.Debug("template change", "path", event.Name, "op", event.Op.String())
			if timer == nil {
				timer = time.NewTimer(w.debounce)
				timerC = timer.C
			} else {
				timer.Reset(w.debounce)
			}

		case <-timerC:
			timer = nil
			timerC = nil
			w.logger.Info("template tree changed, re-running sync")
			fn()

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return nil
			}
			// Transient watch errors are logged, not fatal.
			w.logger.Warn("watch error", "error", err)
		}
	}
}
