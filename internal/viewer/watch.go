package viewer

import (
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// debounceWindow batches editor write bursts into one reload.
const debounceWindow = 100 * time.Millisecond

// watcher reports debounced change pulses for a set of files. The
// containing directories are watched rather than the files, so
// rename-style saves keep reporting after the editor swaps the inode.
type watcher struct {
	fsw     *fsnotify.Watcher
	targets map[string]struct{}
	changes chan struct{}
	done    chan struct{}
	once    sync.Once
}

func newWatcher(targets ...string) (*watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, err
	}

	w := &watcher{
		fsw:     fsw,
		targets: make(map[string]struct{}, len(targets)),
		changes: make(chan struct{}, 1),
		done:    make(chan struct{}),
	}

	dirs := make(map[string]struct{})
	for _, t := range targets {
		abs, err := filepath.Abs(t)
		if err != nil {
			fsw.Close()
			return nil, err
		}
		w.targets[filepath.Clean(abs)] = struct{}{}
		dirs[filepath.Dir(abs)] = struct{}{}
	}
	for dir := range dirs {
		if err := fsw.Add(dir); err != nil {
			fsw.Close()
			return nil, err
		}
	}

	go w.loop()
	return w, nil
}

// Changes pulses once per debounced batch of writes to any target.
// The channel closes when the watcher does.
func (w *watcher) Changes() <-chan struct{} { return w.changes }

// Close stops watching. Safe to call more than once.
func (w *watcher) Close() {
	w.once.Do(func() {
		close(w.done)
		w.fsw.Close()
	})
}

func (w *watcher) loop() {
	defer close(w.changes)

	var timer *time.Timer
	var fire <-chan time.Time

	for {
		select {
		case <-w.done:
			if timer != nil {
				timer.Stop()
			}
			return

		case ev, ok := <-w.fsw.Events:
			if !ok {
				return
			}
			if !w.relevant(ev) {
				continue
			}
			if timer == nil {
				timer = time.NewTimer(debounceWindow)
				fire = timer.C
				continue
			}
			if !timer.Stop() {
				select {
				case <-fire:
				default:
				}
			}
			timer.Reset(debounceWindow)

		case <-fire:
			timer = nil
			fire = nil
			select {
			case w.changes <- struct{}{}:
			default:
				// A pulse is already pending; one reload covers both.
			}

		case _, ok := <-w.fsw.Errors:
			if !ok {
				return
			}
		}
	}
}

// relevant filters directory noise down to writes on the watched
// files.
func (w *watcher) relevant(ev fsnotify.Event) bool {
	if ev.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
		return false
	}
	_, ok := w.targets[filepath.Clean(ev.Name)]
	return ok
}
