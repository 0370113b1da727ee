package pattern

import (
	"context"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"

	"go-pattern/debug"
)

// reloadDebounce coalesces the burst of events editors emit on save.
const reloadDebounce = 50 * time.Millisecond

// Watch reloads path whenever it changes and hands each pattern that parses
// to onChange. Files that fail to parse are logged and skipped, so whatever
// is currently playing keeps playing. Blocks until ctx is done.
func Watch(ctx context.Context, path string, onChange func(*Steps)) error {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer w.Close()

	// Watch the directory: many editors replace the file instead of writing it.
	abs, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	if err := w.Add(filepath.Dir(abs)); err != nil {
		return err
	}

	var pending <-chan time.Time
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
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				pending = time.After(reloadDebounce)
			}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			debug.Log("watch", "watcher error: %v", err)
		case <-pending:
			pending = nil
			p, err := Load(abs)
			if err != nil {
				debug.Log("watch", "reload failed, keeping current pattern: %v", err)
				continue
			}
			debug.Log("watch", "reloaded %s (%d tracks)", abs, len(p.Tracks))
			onChange(p)
		}
	}
}
