package store

import (
	"sync"
	"time"
)

// changeDebouncer collects names from bursts of filesystem events and flushes
// them once no new event has arrived for the configured delay.
type changeDebouncer struct {
	mu      sync.Mutex
	pending map[string]struct{}
	timer   *time.Timer
	delay   time.Duration
	onFlush func([]string)
	stopped bool
}

func newChangeDebouncer(delay time.Duration, onFlush func([]string)) *changeDebouncer {
	return &changeDebouncer{
		pending: make(map[string]struct{}),
		delay:   delay,
		onFlush: onFlush,
	}
}

// Add queues name and restarts the quiet period.
func (d *changeDebouncer) Add(name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.stopped {
		return
	}
	d.pending[name] = struct{}{}

	if d.timer != nil {
		d.timer.Stop()
	}
	d.timer = time.AfterFunc(d.delay, d.flush)
}

func (d *changeDebouncer) flush() {
	d.mu.Lock()
	if d.stopped || len(d.pending) == 0 {
		d.mu.Unlock()
		return
	}
	names := make([]string, 0, len(d.pending))
	for name := range d.pending {
		names = append(names, name)
	}
	d.pending = make(map[string]struct{})
	d.mu.Unlock()

	d.onFlush(names)
}

// Stop drops pending names and prevents further flushes.
func (d *changeDebouncer) Stop() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopped = true
	if d.timer != nil {
		d.timer.Stop()
	}
	d.pending = make(map[string]struct{})
}
