package config

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/valetproj/valet/internal/logging"
)

// debounce window for editors that write config files in several events.
const reloadDebounce = 300 * time.Millisecond

// Watch reloads the config whenever the file changes and calls onChange
// with the fresh value. Reload failures keep the previous config and are
// logged. Returns once the watcher is installed.
func Watch(ctx context.Context, path string, onChange func(*Config)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}

	// Watch the directory: editors often replace the file, which drops a
	// watch installed on the file itself.
	dir := filepath.Dir(path)
	if err := watcher.Add(dir); err != nil {
		watcher.Close()
		return err
	}

	go func() {
		defer watcher.Close()
		var timer *time.Timer
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != filepath.Clean(path) {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if timer != nil {
					timer.Stop()
				}
				timer = time.AfterFunc(reloadDebounce, func() {
					cfg, err := Load(path)
					if err != nil {
						logging.Errorf("config", "reload failed, keeping previous: %v", err)
						return
					}
					logging.Infof("config", "reloaded %s", path)
					onChange(cfg)
				})
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logging.Warnf("config", "watch error: %v", err)
			}
		}
	}()
	return nil
}
