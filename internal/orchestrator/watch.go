package orchestrator

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/loykin/unitctl/internal/unit"
)

// Watch refreshes after every burst of changes to unit files until ctx is
// done. onChange, when set, receives the result of each refresh.
func (o *Orchestrator) Watch(ctx context.Context, onChange func(n int, err error)) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer func() { _ = watcher.Close() }()
	if err := watcher.Add(o.opts.UnitsDir); err != nil {
		return fmt.Errorf("watch %s: %w", o.opts.UnitsDir, err)
	}
	o.log.Info("watching units dir", "dir", o.opts.UnitsDir)

	// nil until a change is seen; each further change pushes it back
	var fire <-chan time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if !isUnitEvent(ev) {
				continue
			}
			o.log.Debug("unit file changed", "path", ev.Name, "op", ev.Op.String())
			fire = time.After(o.opts.WatchDebounce)

		case <-fire:
			fire = nil
			n, err := o.Refresh(ctx)
			if onChange != nil {
				onChange(n, err)
			}

		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			o.log.Error("watcher error", "error", err)
		}
	}
}

func isUnitEvent(ev fsnotify.Event) bool {
	if !strings.HasSuffix(filepath.Base(ev.Name), unit.FileExt) {
		return false
	}
	return ev.Has(fsnotify.Create) || ev.Has(fsnotify.Write) || ev.Has(fsnotify.Remove) || ev.Has(fsnotify.Rename)
}
