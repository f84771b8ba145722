// Package pathwatch provides file system change notifications.
package pathwatch

import (
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/pkg/errors"
)

// A Watcher keeps track of a set of paths and sends notifications on user-provided
// channels whenever the file or directory at one of them changes in any way, including
// being created or deleted along with one of its parent directories.
// The specific nature of the change is not reported; it is up to the user to determine
// what happened. Notifications are dropped when the channel is full, so a buffered
// channel with room for one value is enough to never miss that a change happened.
//
// Any errors that the Watcher encounters while monitoring the paths are delivered on the
// channel returned by Errors.
type Watcher struct {
	fs      *fsnotify.Watcher
	files   map[string][]chan<- struct{}
	dirs    map[string]bool
	errors  chan error
	control chan func()
}

// NewWatcher starts a new watcher.
// When no longer in use, the user should call Close to release resources associated with it.
func NewWatcher() (*Watcher, error) {
	fsw, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, errors.Wrap(err, "creating fsnotify watcher")
	}
	w := &Watcher{
		fs:      fsw,
		files:   map[string][]chan<- struct{}{},
		dirs:    map[string]bool{},
		errors:  make(chan error, 10),
		control: make(chan func(), 10),
	}
	go w.run()
	return w, nil
}

// Normally we don't want a notification when we add a file, since it's redundant,
// but for testing we need it in order to be able to reliably detect modifications without
// races.
var notifyOnAdd = false

// Add begins sending change notifications for a path on the given channel.
// Multiple calls to Add for the same path, but different channels, are permitted;
// in that case, the notifications will be sent on all of them.
// The path need not exist yet.
func (w *Watcher) Add(path string, ch chan<- struct{}) error {
	path, err := filepath.Abs(path)
	if err != nil {
		return err
	}
	errc := make(chan error, 1)
	w.control <- func() {
		if err := w.watchAncestor(path); err != nil {
			errc <- err
			return
		}
		w.files[path] = append(w.files[path], ch)
		if notifyOnAdd {
			notify(ch)
		}
		errc <- nil
	}
	return <-errc
}

// Errors returns a channel on which the Watcher delivers errors it encounters.
func (w *Watcher) Errors() <-chan error { return w.errors }

// Close stops delivering change notifications for any paths and releases all resources
// associated with the watcher.
func (w *Watcher) Close() { w.control <- nil }

func (w *Watcher) run() {
	for {
		select {
		case ev, ok := <-w.fs.Events:
			if !ok {
				return
			}
			w.handle(ev)
		case err, ok := <-w.fs.Errors:
			if !ok {
				return
			}
			w.sendError(err)
		case f := <-w.control:
			if f == nil {
				w.fs.Close()
				return
			}
			f()
		}
	}
}

func (w *Watcher) handle(ev fsnotify.Event) {
	if ev.Op == fsnotify.Chmod {
		return
	}
	if w.dirs[ev.Name] && ev.Op&(fsnotify.Remove|fsnotify.Rename) != 0 {
		delete(w.dirs, ev.Name)
		w.fs.Remove(ev.Name)
	}
	for path, observers := range w.files {
		if ev.Name == path || isAncestor(ev.Name, path) {
			for _, ob := range observers {
				notify(ob)
			}
		}
		// Directories on the way to the path may have appeared or disappeared.
		if err := w.watchAncestor(path); err != nil {
			w.sendError(err)
		}
	}
}

// watchAncestor watches the closest existing directory containing path.
func (w *Watcher) watchAncestor(path string) error {
	for dir := filepath.Dir(path); ; {
		if w.dirs[dir] {
			return nil
		}
		err := w.fs.Add(dir)
		if err == nil {
			w.dirs[dir] = true
			return nil
		}
		if !errors.Is(err, os.ErrNotExist) {
			return errors.Wrapf(err, "watching directory %s", dir)
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return err
		}
		dir = parent
	}
}

func (w *Watcher) sendError(err error) {
	select {
	case w.errors <- err:
	default:
	}
}

func notify(ch chan<- struct{}) {
	select {
	case ch <- struct{}{}:
	default:
	}
}

func isAncestor(dir, path string) bool {
	return strings.HasPrefix(path, dir) && len(path) > len(dir) && os.IsPathSeparator(path[len(dir)])
}

// Debounce forwards notifications from in to the returned channel once no new ones
// have arrived for delay, so a burst of changes results in a single notification.
// It stops when done is closed or in is closed.
func Debounce(in <-chan struct{}, delay time.Duration, done <-chan struct{}) <-chan struct{} {
	out := make(chan struct{}, 1)
	go func() {
		var timer *time.Timer
		var fire <-chan time.Time
		defer func() {
			if timer != nil {
				timer.Stop()
			}
		}()
		for {
			select {
			case _, ok := <-in:
				if !ok {
					return
				}
				if timer == nil {
					timer = time.NewTimer(delay)
				} else {
					if !timer.Stop() {
						select {
						case <-timer.C:
						default:
						}
					}
					timer.Reset(delay)
				}
				fire = timer.C
			case <-fire:
				fire = nil
				notify(out)
			case <-done:
				return
			}
		}
	}()
	return out
}
