// Package watch turns file system activity in a working copy into debounced
// refresh signals.
package watch

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"

	"github.com/thiagokokada/gitk-review/internal/debounce"
)

const DefaultDelay = 350 * time.Millisecond

// Watcher calls onChange once a burst of changes below root has settled.
type Watcher struct {
	root     string
	delay    time.Duration
	onChange func()

	mu       sync.Mutex
	watcher  *fsnotify.Watcher
	debounce *debounce.Debouncer
	done     chan struct{}
}

func New(root string, delay time.Duration, onChange func()) *Watcher {
	if delay <= 0 {
		delay = DefaultDelay
	}
	return &Watcher{root: root, delay: delay, onChange: onChange}
}

// Start begins watching. Calling it on a running watcher is a no-op.
func (w *Watcher) Start() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.watcher != nil {
		return nil
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("fsnotify: %w", err)
	}
	paths, err := watchPaths(w.root)
	if err != nil {
		return errors.Join(err, watcher.Close())
	}
	for _, path := range paths {
		slog.Debug("adding path to FS watcher", slog.String("path", path))
		if err := watcher.Add(path); err != nil {
			err := errors.Join(err, watcher.Close())
			return fmt.Errorf("watch %s: %w", path, err)
		}
	}
	debounce.Ensure(&w.debounce, w.delay, w.onChange)
	w.watcher = watcher
	w.done = make(chan struct{})
	go w.loop(watcher, w.done)
	return nil
}

// Close stops watching and drops any pending signal.
func (w *Watcher) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.debounce != nil {
		w.debounce.Stop()
	}
	if w.watcher == nil {
		return nil
	}
	err := w.watcher.Close()
	<-w.done
	w.watcher = nil
	return err
}

func (w *Watcher) loop(fw *fsnotify.Watcher, done chan<- struct{}) {
	defer close(done)
	for {
		select {
		case ev, ok := <-fw.Events:
			if !ok {
				return
			}
			if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if shouldIgnore(w.root, ev.Name) {
				continue
			}
			slog.Debug("fsnotify event",
				slog.String("op", ev.Op.String()),
				slog.String("path", ev.Name),
			)
			if ev.Op&fsnotify.Create != 0 {
				if info, err := os.Stat(ev.Name); err == nil && info.IsDir() {
					if err := fw.Add(ev.Name); err != nil {
						slog.Debug("watch new directory", slog.String("path", ev.Name), slog.Any("error", err))
					}
				}
			}
			w.debounce.Trigger()
		case err, ok := <-fw.Errors:
			if !ok {
				return
			}
			slog.Error("fsnotify error", slog.Any("error", err))
		}
	}
}

// watchPaths lists root's directories plus the git directory itself. The
// contents of .git below its top level are not watched.
func watchPaths(root string) ([]string, error) {
	if root == "" {
		return nil, fmt.Errorf("watch: empty root")
	}
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			return nil
		}
		paths = append(paths, path)
		if d.Name() == ".git" {
			return filepath.SkipDir
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("watch %s: %w", root, err)
	}
	return paths, nil
}

func shouldIgnore(root, name string) bool {
	ext := strings.ToLower(filepath.Ext(name))
	if ext == ".lock" || ext == ".ipc" {
		return true
	}
	rel, err := filepath.Rel(root, name)
	if err != nil {
		return false
	}
	rel = filepath.ToSlash(rel)
	return strings.HasPrefix(rel, ".git/objects/") || strings.HasPrefix(rel, ".git/logs/")
}
