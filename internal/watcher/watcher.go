package watcher

import (
	"log/slog"
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"
)

const debounceDelay = 500 * time.Millisecond

// ChangedMsg reports that the watched document settled after a write.
type ChangedMsg struct {
	Path string
}

// Watch returns a command that blocks until path changes and then quiets for
// the debounce delay. The parent directory is watched so editors that replace
// the file on save are still seen. Re-issue the command after each message.
func Watch(path string) tea.Cmd {
	return func() tea.Msg {
		return wait(path, debounceDelay, nil)
	}
}

func wait(path string, delay time.Duration, ready chan<- struct{}) tea.Msg {
	w, err := fsnotify.NewWatcher()
	if err != nil {
		slog.Warn("watcher unavailable", "err", err)
		return nil
	}
	defer w.Close()

	target := filepath.Clean(path)
	if err := w.Add(filepath.Dir(target)); err != nil {
		slog.Warn("watch document", "path", target, "err", err)
		return nil
	}
	if ready != nil {
		close(ready)
	}

	debounce := time.NewTimer(time.Hour)
	debounce.Stop()

	for {
		select {
		case ev, ok := <-w.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(ev.Name) != target {
				continue
			}
			if ev.Has(fsnotify.Write) || ev.Has(fsnotify.Create) || ev.Has(fsnotify.Rename) {
				debounce.Reset(delay)
			}
		case <-debounce.C:
			return ChangedMsg{Path: target}
		case err, ok := <-w.Errors:
			if !ok {
				return nil
			}
			slog.Debug("watcher error", "err", err)
		}
	}
}
