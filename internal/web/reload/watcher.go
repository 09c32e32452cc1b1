package reload

import (
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"golang.org/x/time/rate"
)

// Debounce is how long the watcher waits after the first change of a burst
// before broadcasting.
const Debounce = 250 * time.Millisecond

// Watcher watches the served root recursively and feeds changes to a broker.
type Watcher struct {
	root    string
	broker  *Broker
	watcher *fsnotify.Watcher
	logs    rate.Sometimes
	done    chan struct{}
}

// NewWatcher creates and starts a file watcher on root and its
// subdirectories. Hidden directories are skipped.
func NewWatcher(root string, broker *Broker) (*Watcher, error) {
	fw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &Watcher{
		root:    root,
		broker:  broker,
		watcher: fw,
		logs:    rate.Sometimes{Interval: time.Second},
		done:    make(chan struct{}),
	}

	if err := w.addTree(root); err != nil {
		_ = fw.Close()
		return nil, err
	}

	go w.loop()
	return w, nil
}

// Close stops the watcher and waits for its loop to exit.
func (w *Watcher) Close() error {
	err := w.watcher.Close()
	<-w.done
	return err
}

func (w *Watcher) addTree(dir string) error {
	return filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		if path != dir && strings.HasPrefix(d.Name(), ".") {
			return filepath.SkipDir
		}
		return w.watcher.Add(path)
	})
}

func (w *Watcher) loop() {
	defer close(w.done)

	timer := time.NewTimer(Debounce)
	timer.Stop()
	dirty := make(map[string]struct{})

	for {
		select {
		case ev, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			if !ev.Has(fsnotify.Write) && !ev.Has(fsnotify.Create) &&
				!ev.Has(fsnotify.Remove) && !ev.Has(fsnotify.Rename) {
				continue
			}
			if ev.Has(fsnotify.Create) {
				w.watchIfDir(ev.Name)
			}
			if len(dirty) == 0 {
				timer.Reset(Debounce)
			}
			dirty[w.rel(ev.Name)] = struct{}{}
		case <-timer.C:
			paths := make([]string, 0, len(dirty))
			for p := range dirty {
				paths = append(paths, p)
			}
			slices.Sort(paths)
			clear(dirty)

			w.logs.Do(func() {
				slog.Info("files changed", "paths", paths)
			})
			w.broker.Broadcast(Change{TS: time.Now().UTC(), Paths: paths})
		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", "err", err)
		}
	}
}

func (w *Watcher) watchIfDir(path string) {
	info, err := os.Stat(path)
	if err != nil || !info.IsDir() {
		return
	}
	if err := w.addTree(path); err != nil {
		slog.Warn("watch new directory", "path", w.rel(path), "err", err)
	}
}

func (w *Watcher) rel(path string) string {
	r, err := filepath.Rel(w.root, path)
	if err != nil {
		return filepath.ToSlash(path)
	}
	return filepath.ToSlash(r)
}
