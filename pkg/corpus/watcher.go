package corpus

import (
	"io/fs"
	"os"
	"path/filepath"

	"github.com/fsnotify/fsnotify"

	"github.com/mako10k/mcp-copilot-instructions-sub000/pkg/logger"
)

// watcher invalidates a Corpus's cache on any create/write/remove/rename
// event under its root, added recursively at startup. New subdirectories
// created later are not auto-watched: their creation invalidates the cache,
// so the next Load picks up what they hold at that point, but later edits
// inside them do not invalidate it.
type watcher struct {
	fsw  *fsnotify.Watcher
	done chan struct{}
}

func newWatcher(root string, onChange func()) *watcher {
	if _, err := os.Stat(root); err != nil {
		return nil
	}

	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		logger.WarnCF("corpus", "fsnotify unavailable, falling back to on-demand scanning", map[string]any{
			"error": err.Error(),
		})
		return nil
	}

	if err := addRecursive(fsw, root); err != nil {
		logger.WarnCF("corpus", "failed to watch corpus directory, falling back to on-demand scanning", map[string]any{
			"root": root, "error": err.Error(),
		})
		fsw.Close()
		return nil
	}

	w := &watcher{fsw: fsw, done: make(chan struct{})}
	go w.loop(onChange)
	return w
}

func addRecursive(fsw *fsnotify.Watcher, root string) error {
	return filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return fsw.Add(path)
		}
		return nil
	})
}

func (w *watcher) loop(onChange func()) {
	const mask = fsnotify.Create | fsnotify.Write | fsnotify.Remove | fsnotify.Rename
	for {
		select {
		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if ev.Op&mask != 0 {
				onChange()
			}
		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		case <-w.done:
			return
		}
	}
}

func (w *watcher) close() {
	if w == nil {
		return
	}
	close(w.done)
	w.fsw.Close()
}
