package cli

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// defaultDebounce batches the burst of events editors emit for one save.
const defaultDebounce = 100 * time.Millisecond

// planWatcher reports changes to a fixed set of plan files. Directories are
// watched rather than files so that editors replacing a file on save are
// still seen.
type planWatcher struct {
	fs       *fsnotify.Watcher
	logger   *slog.Logger
	debounce time.Duration

	// cleaned absolute path -> path as given on the command line
	files map[string]string
}

func newPlanWatcher(paths []string, logger *slog.Logger) (*planWatcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}
	w := &planWatcher{
		fs:       fsw,
		logger:   logger,
		debounce: defaultDebounce,
		files:    make(map[string]string, len(paths)),
	}

	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fsw.Close()
			return nil, fmt.Errorf("resolve %s: %w", p, err)
		}
		abs = filepath.Clean(abs)
		w.files[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, fmt.Errorf("watch %s: %w", dir, err)
		}
		logger.Debug("watching directory", "path", dir)
	}
	return w, nil
}

// Run calls onChange for each watched file that is written or recreated,
// once per debounce window. It returns nil when ctx is cancelled.
func (w *planWatcher) Run(ctx context.Context, onChange func(file string)) error {
	pending := make(map[string]bool)
	timer := time.NewTimer(w.debounce)
	if !timer.Stop() {
		<-timer.C
	}
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-w.fs.Events:
			if !ok {
				return nil
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			file, watched := w.files[filepath.Clean(event.Name)]
			if !watched {
				continue
			}
			w.logger.Debug("plan changed", "file", file, "op", event.Op.String())
			pending[file] = true
			timer.Reset(w.debounce)

		case <-timer.C:
			for file := range pending {
				onChange(file)
			}
			clear(pending)

		case err, ok := <-w.fs.Errors:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

func (w *planWatcher) Close() error {
	return w.fs.Close()
}
