package serialport

import (
	"context"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"
)

// WaitForDevice blocks until the device node exists. USB serial adapters
// come and go with the cable; watching the parent directory lets the host
// be started before the adapter is plugged in.
func WaitForDevice(ctx context.Context, device string) error {
	if _, err := os.Stat(device); err == nil {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	dir := filepath.Dir(device)
	if err := watcher.Add(dir); err != nil {
		return err
	}

	// The node may have appeared between the stat and the watch.
	if _, err := os.Stat(device); err == nil {
		return nil
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Name == device && ev.Op.Has(fsnotify.Create) {
				return nil
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		}
	}
}
