package config

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/ayusman/nebula/internal/log"
)

// Watch reloads the [tuning] section of the file at path into live whenever
// the file is written. It blocks until ctx is done.
//
// The parent directory is watched rather than the file so that editors that
// save by rename are picked up.
func Watch(ctx context.Context, path string, live *Live) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	defer w.Close()

	abs, err := filepath.Abs(path)
	if err != nil {
		return fmt.Errorf("resolve %s: %w", path, err)
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return fmt.Errorf("watch %s: %w", filepath.Dir(abs), err)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != abs {
				continue
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) {
				continue
			}
			f, err := Load(abs)
			if err != nil {
				log.Warn("config reload failed", "path", abs, "err", err)
				continue
			}
			live.Set(f.Tuning)
			log.Info("config reloaded", "path", abs)
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			log.Warn("config watcher error", "err", err)
		}
	}
}
