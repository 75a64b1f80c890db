package cli

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/roach88/querytext/internal/ir"
)

// watchDocuments calls render for each watched document whose content
// changed, until ctx is done. Events are coalesced over the debounce
// interval; saves that leave the bytes unchanged are ignored.
// Parent directories are watched, so files replaced on save stay tracked.
func watchDocuments(ctx context.Context, debounce time.Duration, paths []string, logger *slog.Logger, render func(path string)) error {
	if ctx == nil {
		ctx = context.Background()
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer func() { _ = watcher.Close() }()

	w := &docWatcher{
		debounce: debounce,
		files:    make(map[string]string, len(paths)),
		logger:   logger,
		render:   render,
	}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			return err
		}
		w.files[abs] = p
		dirs[filepath.Dir(abs)] = true
	}
	for dir := range dirs {
		if err := watcher.Add(dir); err != nil {
			return fmt.Errorf("failed to watch %s: %w", dir, err)
		}
	}

	w.hashes = make(map[string]string, len(w.files))
	for abs := range w.files {
		w.hashes[abs] = hashFile(abs)
	}

	logger.Info("watching documents", "files", len(w.files), "debounce", debounce)
	return w.loop(ctx, watcher.Events, watcher.Errors)
}

// docWatcher debounces file events for a fixed set of documents.
type docWatcher struct {
	debounce time.Duration
	files    map[string]string // absolute path -> path as given
	hashes   map[string]string // absolute path -> last rendered content hash
	logger   *slog.Logger
	render   func(path string)
}

func (w *docWatcher) loop(ctx context.Context, events <-chan fsnotify.Event, errs <-chan error) error {
	pending := make(map[string]bool)
	var (
		timer *time.Timer
		fire  <-chan time.Time
	)
	defer func() {
		if timer != nil {
			timer.Stop()
		}
	}()

	for {
		select {
		case <-ctx.Done():
			return nil

		case event, ok := <-events:
			if !ok {
				return nil
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			abs, err := filepath.Abs(event.Name)
			if err != nil {
				continue
			}
			if _, watched := w.files[abs]; !watched {
				continue
			}

			pending[abs] = true
			if timer == nil {
				timer = time.NewTimer(w.debounce)
			} else {
				timer.Reset(w.debounce)
			}
			fire = timer.C

		case <-fire:
			fire = nil
			w.flush(pending)
			clear(pending)

		case err, ok := <-errs:
			if !ok {
				return nil
			}
			w.logger.Warn("watcher error", "error", err)
		}
	}
}

// flush renders the pending documents whose content changed, in path order.
func (w *docWatcher) flush(pending map[string]bool) {
	paths := make([]string, 0, len(pending))
	for abs := range pending {
		paths = append(paths, abs)
	}
	slices.Sort(paths)

	for _, abs := range paths {
		hash := hashFile(abs)
		if hash == "" || hash == w.hashes[abs] {
			continue
		}
		w.hashes[abs] = hash
		w.logger.Info("change detected", "file", w.files[abs])
		w.render(w.files[abs])
	}
}

// hashFile returns the document hash of a file, or "" if it cannot be read
// (mid-save).
func hashFile(path string) string {
	data, err := os.ReadFile(path)
	if err != nil {
		return ""
	}
	return ir.DocumentHash(data)
}
