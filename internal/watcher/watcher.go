// Package watcher reparses a subtitle file whenever it changes on disk.
package watcher

import (
	"context"
	"fmt"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/mgpai22/sublisten/internal/logging"
	"github.com/mgpai22/sublisten/internal/subtitle"
)

const DefaultDebounce = 250 * time.Millisecond

// Handler receives the reparsed track, or the parse error with a nil track.
type Handler func(ctx context.Context, track *subtitle.Track, err error)

type Watcher struct {
	path     string
	handler  Handler
	logger   *logging.Logger
	watcher  *fsnotify.Watcher
	debounce time.Duration
}

// New watches the directory holding path, so editors that replace the file
// instead of writing in place are still seen.
func New(path string, handler Handler, logger *logging.Logger) (*Watcher, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve %s: %w", path, err)
	}
	if logger == nil {
		logger = logging.Nop()
	}

	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("failed to create file watcher: %w", err)
	}
	if err := fw.Add(filepath.Dir(abs)); err != nil {
		fw.Close()
		return nil, fmt.Errorf("failed to watch %s: %w", filepath.Dir(abs), err)
	}

	return &Watcher{
		path:     abs,
		handler:  handler,
		logger:   logger,
		watcher:  fw,
		debounce: DefaultDebounce,
	}, nil
}

// SetDebounce sets how long the file must stay quiet before it is reparsed.
func (w *Watcher) SetDebounce(d time.Duration) {
	w.debounce = d
}

// Start blocks until ctx is done, reparsing after each burst of writes.
func (w *Watcher) Start(ctx context.Context) error {
	w.logger.Debugw("Watching subtitle file", "path", w.path)

	var (
		timer   *time.Timer
		pending <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()

		case event, ok := <-w.watcher.Events:
			if !ok {
				return fmt.Errorf("watcher events channel closed")
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			pending = timer.C

		case <-pending:
			pending = nil
			track, err := subtitle.ParseFile(w.path)
			if err != nil {
				w.logger.Warnw("Reload failed, keeping current track", "path", w.path, "error", err)
				w.handler(ctx, nil, err)
				continue
			}
			w.logger.Infow("Subtitle file reloaded", "path", w.path, "entries", track.Len())
			w.handler(ctx, track, nil)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return fmt.Errorf("watcher errors channel closed")
			}
			w.logger.Errorw("Watcher error", "error", err)
		}
	}
}

func (w *Watcher) Stop() error {
	return w.watcher.Close()
}
