package app

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow coalesces the event bursts editors emit on save.
const debounceWindow = 300 * time.Millisecond

// debouncer coalesces triggers into a single tick on C once the window has
// passed without another trigger. Re-arming stops and drains the timer first,
// so a tick that fired between triggers cannot leak through as a second one.
type debouncer struct {
	window time.Duration
	timer  *time.Timer
}

func newDebouncer(window time.Duration) *debouncer {
	t := time.NewTimer(window)
	if !t.Stop() {
		<-t.C
	}
	return &debouncer{window: window, timer: t}
}

// Trigger arms or re-arms the window.
func (d *debouncer) Trigger() {
	if !d.timer.Stop() {
		select {
		case <-d.timer.C:
		default:
		}
	}
	d.timer.Reset(d.window)
}

// C delivers one tick per settled burst. It never delivers before the first
// Trigger.
func (d *debouncer) C() <-chan time.Time { return d.timer.C }

func (d *debouncer) Stop() { d.timer.Stop() }

// watch runs the plan, then re-runs it whenever the workflow path changes,
// until the context is cancelled. Run failures do not stop the loop; that
// is the point of watch mode.
func (a *App) watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	if err := addWatchTargets(watcher, a.config.WorkflowPath); err != nil {
		return err
	}

	a.logger.Info("👀 Watch mode active.", "path", a.config.WorkflowPath)
	if err := a.runOnce(ctx); err != nil {
		a.logger.Error("Run failed.", "error", err)
	}

	deb := newDebouncer(debounceWindow)
	defer deb.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case ev, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			a.logger.Debug("Change detected.", "file", ev.Name, "op", ev.Op.String())
			deb.Trigger()
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			a.logger.Error("Watcher error.", "error", err)
		case <-deb.C():
			if err := a.reload(ctx); err != nil {
				a.logger.Error("Reload failed, keeping previous workflows.", "error", err)
			}
			if err := a.runOnce(ctx); err != nil {
				a.logger.Error("Run failed.", "error", err)
			}
		}
	}
}

// addWatchTargets registers the path (and, for a directory, its subtree)
// with the watcher.
func addWatchTargets(watcher *fsnotify.Watcher, path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return err
	}
	if !info.IsDir() {
		return watcher.Add(filepath.Dir(path))
	}
	return filepath.WalkDir(path, func(p string, d os.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return watcher.Add(p)
		}
		return nil
	})
}
