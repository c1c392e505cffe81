package watch

import (
	"context"
	"time"

	"github.com/fsnotify/fsnotify"
)

// Settle blocks until path has gone quiet for the given duration, i.e. no
// write or create event was seen for it. A non-positive quiet returns at once.
func Settle(ctx context.Context, path string, quiet time.Duration) error {
	if quiet <= 0 {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := watcher.Add(path); err != nil {
		return err
	}

	timer := time.NewTimer(quiet)
	defer timer.Stop()
	for {
		select {
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if event.Op&fsnotify.Write == fsnotify.Write || event.Op&fsnotify.Create == fsnotify.Create {
				if !timer.Stop() {
					<-timer.C
				}
				timer.Reset(quiet)
			}
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return err
		case <-timer.C:
			return nil
		case <-ctx.Done():
			return ctx.Err()
		}
	}
}
