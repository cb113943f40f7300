package loader

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long the watcher waits after the last file event before reloading.
const DefaultDebounce = 250 * time.Millisecond

// ReloadFunc receives the service definitions read after a change.
type ReloadFunc func(ctx context.Context, result *LoadResult)

// Watcher reloads service definitions when files in the services directories change.
type Watcher struct {
	fs       *FS
	debounce time.Duration
	log      *slog.Logger
}

// NewWatcher creates a watcher over the directories of fs.
func NewWatcher(fs *FS) *Watcher {
	return &Watcher{fs: fs, debounce: DefaultDebounce, log: fs.log}
}

// SetDebounce sets the quiet period between the last file event and the reload.
func (w *Watcher) SetDebounce(d time.Duration) {
	if d > 0 {
		w.debounce = d
	}
}

// Run watches until ctx is done. Every burst of file events triggers one Load, whose result is
// passed to onChange. Load failures are logged and watching continues.
func (w *Watcher) Run(ctx context.Context, onChange ReloadFunc) error {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create file watcher: %w", err)
	}
	defer fsw.Close()

	if err := w.sync(fsw); err != nil {
		return err
	}

	timer := time.NewTimer(w.debounce)
	timer.Stop()
	defer timer.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-fsw.Events:
			if !ok {
				return nil
			}
			if ignored(event.Name) {
				continue
			}
			w.log.Debug("file changed", "path", event.Name, "op", event.Op.String())
			if event.Has(fsnotify.Create) {
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					_ = fsw.Add(event.Name)
				}
			}
			timer.Reset(w.debounce)
		case err, ok := <-fsw.Errors:
			if !ok {
				return nil
			}
			w.log.Warn("file watcher error", "error", err)
		case <-timer.C:
			result, err := w.fs.Load()
			if err != nil {
				w.log.Warn("failed to reload services", "error", err)
				continue
			}
			if err := w.sync(fsw); err != nil {
				w.log.Warn("failed to update watched directories", "error", err)
			}
			onChange(ctx, result)
		}
	}
}

// sync watches every services directory and each service directory below it. Adding a path
// that is already watched is a no-op.
func (w *Watcher) sync(fsw *fsnotify.Watcher) error {
	for _, pattern := range w.fs.Directories {
		dirs, err := expand(pattern)
		if err != nil {
			return err
		}
		for _, dir := range dirs {
			if err := fsw.Add(dir); err != nil {
				return fmt.Errorf("failed to watch %s: %w", dir, err)
			}
			entries, err := os.ReadDir(dir)
			if err != nil {
				return fmt.Errorf("failed to scan %s: %w", dir, err)
			}
			for _, entry := range entries {
				if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
					continue
				}
				if err := fsw.Add(filepath.Join(dir, entry.Name())); err != nil {
					return fmt.Errorf("failed to watch %s: %w", entry.Name(), err)
				}
			}
		}
	}
	return nil
}

// ignored reports editor swap and backup files.
func ignored(path string) bool {
	base := filepath.Base(path)
	return strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp")
}
