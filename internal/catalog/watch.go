package catalog

import (
	"context"
	"fmt"
	"log/slog"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce is how long Watch waits for more changes before reloading.
const DefaultDebounce = 500 * time.Millisecond

// Watch reloads the catalogue whenever its file changes, until ctx is done.
// The parent directory is watched so editors that replace the file by rename
// are picked up. onReload, if set, is called after every successful reload.
func (c *Catalog) Watch(ctx context.Context, debounce time.Duration, logger *slog.Logger, onReload func(n int)) error {
	if c.path == "" {
		return nil
	}
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create catalogue watcher: %w", err)
	}
	if err := fsw.Add(filepath.Dir(c.path)); err != nil {
		fsw.Close()
		return fmt.Errorf("watch catalogue dir: %w", err)
	}
	if debounce <= 0 {
		debounce = DefaultDebounce
	}

	go func() {
		defer fsw.Close()
		ticker := time.NewTicker(debounce)
		defer ticker.Stop()
		target := filepath.Clean(c.path)
		pending := false

		for {
			select {
			case <-ctx.Done():
				return
			case ev, ok := <-fsw.Events:
				if !ok {
					return
				}
				if filepath.Clean(ev.Name) == target && (ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename)) {
					pending = true
				}
			case err, ok := <-fsw.Errors:
				if !ok {
					return
				}
				logger.Warn("catalogue watcher error", "error", err)
			case <-ticker.C:
				if !pending {
					continue
				}
				pending = false
				if err := c.Reload(); err != nil {
					logger.Warn("catalogue reload failed, keeping previous sources", "path", c.path, "error", err)
					continue
				}
				n := len(c.Sources())
				logger.Info("catalogue reloaded", "path", c.path, "sources", n)
				if onReload != nil {
					onReload(n)
				}
			}
		}
	}()
	return nil
}
