package shell

import (
	"path/filepath"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/fsnotify/fsnotify"

	"github.com/san-kum/atomscene/internal/errs"
)

// settle is how long a burst of writes to a watched file is coalesced
// into one reload.
const settle = 100 * time.Millisecond

// Watcher reports changes to configuration files. It watches the parent
// directories so editors that replace files on save are still seen.
type Watcher struct {
	fw    *fsnotify.Watcher
	files map[string]bool
	paths []string
}

type reloadMsg struct {
	paths []string
}

type watchErrMsg struct {
	err error
}

func Watch(paths []string) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errs.IO("watch", "", err)
	}
	w := &Watcher{fw: fw, files: make(map[string]bool)}
	dirs := make(map[string]bool)
	for _, p := range paths {
		abs, err := filepath.Abs(p)
		if err != nil {
			fw.Close()
			return nil, errs.IO("watch", p, err)
		}
		w.files[abs] = true
		w.paths = append(w.paths, p)
		dir := filepath.Dir(abs)
		if dirs[dir] {
			continue
		}
		if err := fw.Add(dir); err != nil {
			fw.Close()
			return nil, errs.IO("watch", dir, err)
		}
		dirs[dir] = true
	}
	return w, nil
}

func (w *Watcher) Close() error {
	return w.fw.Close()
}

func (w *Watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	abs, err := filepath.Abs(ev.Name)
	return err == nil && w.files[abs]
}

// wait blocks until a watched file changes and settles. It runs off the
// UI goroutine and only posts a message back.
func (w *Watcher) wait() tea.Cmd {
	return func() tea.Msg {
		for {
			select {
			case ev, ok := <-w.fw.Events:
				if !ok {
					return nil
				}
				if !w.relevant(ev) {
					continue
				}
				w.drain()
				return reloadMsg{paths: w.paths}
			case err, ok := <-w.fw.Errors:
				if !ok {
					return nil
				}
				return watchErrMsg{err: err}
			}
		}
	}
}

func (w *Watcher) drain() {
	timer := time.NewTimer(settle)
	defer timer.Stop()
	for {
		select {
		case _, ok := <-w.fw.Events:
			if !ok {
				return
			}
		case <-timer.C:
			return
		}
	}
}
