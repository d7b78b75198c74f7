// Package watcher subscribes to filesystem change notifications for a
// single directory and forwards created and modified files, debounced per
// path, to a handler.
package watcher

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/farmergreg/rfsnotify"
	log "github.com/sirupsen/logrus"
	"gopkg.in/fsnotify.v1"
)

// ErrWatchInit is returned when the notification subscription could not
// be established, e.g. the directory was removed after validation.
var ErrWatchInit = errors.New("could not start watching directory")

// Handler receives the absolute path of a created or modified file.
type Handler func(path string)

// Options configures a Watcher.
type Options struct {
	// Recursive also watches nested directories of the target.
	Recursive bool

	// Debounce is the per-path quiet period before the handler fires.
	// Zero disables debouncing and the handler is invoked inline.
	Debounce time.Duration

	// Handler is invoked for each created or modified file.
	Handler Handler
}

// Watcher watches one directory for file creation and modification.
// Only one Watcher should be active at a time; the control loop enforces
// this by stopping the current Watcher before starting a new one.
type Watcher struct {
	dir       string
	rw        *rfsnotify.RWatcher
	handler   Handler
	debouncer *Debouncer
	done      chan struct{}
}

// New subscribes to change notifications for dir and starts the event
// loop. Failures to subscribe wrap ErrWatchInit so callers can return to
// subfolder selection instead of crashing.
func New(dir string, opts Options) (*Watcher, error) {
	if opts.Handler == nil {
		return nil, errors.New("watcher: handler is required")
	}

	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrWatchInit, dir, err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("%w: %s is not a directory", ErrWatchInit, dir)
	}

	rw, err := rfsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrWatchInit, err)
	}

	if opts.Recursive {
		err = rw.AddRecursive(dir)
	} else {
		err = rw.Add(dir)
	}
	if err != nil {
		rw.Close()
		return nil, fmt.Errorf("%w: %s: %v", ErrWatchInit, dir, err)
	}

	w := &Watcher{
		dir:     dir,
		rw:      rw,
		handler: opts.Handler,
		done:    make(chan struct{}),
	}
	if opts.Debounce > 0 {
		w.debouncer = NewDebouncer(opts.Debounce, opts.Handler)
	}

	go w.loop()

	return w, nil
}

// Dir returns the watched directory.
func (w *Watcher) Dir() string { return w.dir }

func (w *Watcher) loop() {
	defer close(w.done)

	for {
		select {
		case event, ok := <-w.rw.Events:
			if !ok {
				return
			}
			if event.Op&(fsnotify.Create|fsnotify.Write) == 0 {
				continue
			}
			// Directory events are ignored; a failed stat is forwarded so
			// the copier can classify the vanished-source race.
			if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
				continue
			}
			w.dispatch(event.Name)
		case err, ok := <-w.rw.Errors:
			if !ok {
				return
			}
			log.Errorf("Watcher error: %v", err)
		}
	}
}

func (w *Watcher) dispatch(path string) {
	if w.debouncer != nil {
		w.debouncer.Trigger(path)
		return
	}
	w.handler(path)
}

// Stop unsubscribes and blocks until the event loop has exited and any
// in-flight handler invocation has finished. After Stop returns, no
// further copies can be triggered by this Watcher.
func (w *Watcher) Stop() {
	if err := w.rw.Close(); err != nil {
		log.Warnf("Error closing watcher: %v", err)
	}
	<-w.done
	if w.debouncer != nil {
		w.debouncer.Stop()
	}
}
