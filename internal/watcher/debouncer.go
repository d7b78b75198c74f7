package watcher

import (
	"sync"
	"time"
)

// Debouncer coalesces rapid events per path into a single callback
// invocation. Each path gets its own timer, so two files changed in the
// same burst both fire; duplicate events for one file fire once.
type Debouncer struct {
	interval time.Duration
	callback func(path string)

	mu      sync.Mutex
	timers  map[string]*time.Timer
	stopped bool
	wg      sync.WaitGroup
}

// NewDebouncer creates a debouncer that waits for interval of quiet on a
// path before firing callback with that path.
func NewDebouncer(interval time.Duration, callback func(path string)) *Debouncer {
	return &Debouncer{
		interval: interval,
		callback: callback,
		timers:   make(map[string]*time.Timer),
	}
}

// Trigger records an event for the given path. If no further events
// arrive for that path within the debounce interval, the callback fires.
func (d *Debouncer) Trigger(path string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}

	if t, ok := d.timers[path]; ok {
		if t.Stop() {
			d.wg.Done()
		}
	}

	d.wg.Add(1)
	d.timers[path] = time.AfterFunc(d.interval, func() {
		defer d.wg.Done()

		d.mu.Lock()
		if d.stopped {
			d.mu.Unlock()
			return
		}
		delete(d.timers, path)
		d.mu.Unlock()

		d.callback(path)
	})
}

// Stop cancels all pending callbacks and waits for any in-flight callback
// to finish. No callback runs after Stop returns.
func (d *Debouncer) Stop() {
	d.mu.Lock()
	d.stopped = true
	for path, t := range d.timers {
		if t.Stop() {
			d.wg.Done()
		}
		delete(d.timers, path)
	}
	d.mu.Unlock()

	d.wg.Wait()
}
