// Package watch reloads the scoring engine when the weights file
// on disk changes.
package watch

import (
	"context"
	"log"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// ReloadFunc applies a new weights file to the scoring engine.
type ReloadFunc func(path string) error

// Watcher monitors a weights file and triggers reloads on change.
type Watcher struct {
	path     string
	reload   ReloadFunc
	debounce time.Duration
	logger   *log.Logger
}

// NewWatcher creates a watcher for the given weights file path.
func NewWatcher(path string, reload ReloadFunc, logger *log.Logger) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		reload:   reload,
		debounce: 200 * time.Millisecond,
		logger:   logger,
	}
}

// Run watches the file until the context is cancelled. The parent
// directory is watched rather than the file itself: editors and
// atomic-rename writers replace the inode, which silently drops a
// file-level watch.
func (w *Watcher) Run(ctx context.Context) error {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer fw.Close()

	dir := filepath.Dir(w.path)
	if err := fw.Add(dir); err != nil {
		return err
	}
	w.logger.Printf("Watching %s for model updates", w.path)

	var timer *time.Timer
	var timerCh <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-fw.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
				continue
			}
			// Debounce: writers emit several events per save.
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				if !timer.Stop() {
					select {
					case <-timer.C:
					default:
					}
				}
				timer.Reset(w.debounce)
			}
			timerCh = timer.C

		case <-timerCh:
			timerCh = nil
			w.logger.Printf("Weights file changed, reloading model from %s", w.path)
			if err := w.reload(w.path); err != nil {
				w.logger.Printf("Reload from file failed, keeping active model: %v", err)
			}

		case err, ok := <-fw.Errors:
			if !ok {
				return nil
			}
			w.logger.Printf("Watcher error: %v", err)
		}
	}
}
