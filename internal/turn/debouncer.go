// Package turn implements debounced turn-taking: deciding when a speaker has
// paused long enough for the session to answer.
package turn

import (
	"context"
	"sync"
	"time"
)

// Debouncer fires a pause signal once a quiet interval elapses with no
// intervening speech. It moves between three states: idle (no timer), armed
// (timer running since the last speech frame) and fired (signal pending on
// the Fired channel until consumed).
type Debouncer struct {
	quiet time.Duration
	fire  chan struct{}

	mu     sync.Mutex
	gen    uint64
	cancel context.CancelFunc
	done   chan struct{}
	armed  bool
}

// NewDebouncer creates an idle debouncer with the given quiet interval.
func NewDebouncer(quiet time.Duration) *Debouncer {
	return &Debouncer{
		quiet: quiet,
		fire:  make(chan struct{}, 1),
	}
}

// Fired returns the channel signalled when the quiet interval elapses.
// The channel has capacity one; the signal stays pending until consumed.
func (d *Debouncer) Fired() <-chan struct{} { return d.fire }

// Armed reports whether a timer is currently running.
func (d *Debouncer) Armed() bool {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.armed
}

// Arm starts the pause timer, or restarts it if already armed. The previous
// timer goroutine is cancelled and awaited before the new one is scheduled,
// and any unconsumed fire signal is drained, so a stale timer can never
// trigger a dispatch after a newer burst of speech has begun.
func (d *Debouncer) Arm() {
	d.mu.Lock()
	prev := d.stopLocked()

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	d.cancel = cancel
	d.done = done
	d.gen++
	gen := d.gen
	d.armed = true
	d.mu.Unlock()

	if prev != nil {
		<-prev
	}

	go func() {
		defer close(done)
		timer := time.NewTimer(d.quiet)
		defer timer.Stop()

		select {
		case <-timer.C:
			d.mu.Lock()
			if d.gen == gen {
				d.armed = false
				select {
				case d.fire <- struct{}{}:
				default:
				}
			}
			d.mu.Unlock()
		case <-ctx.Done():
		}
	}()
}

// Disarm cancels any running timer and drains any unconsumed fire signal,
// returning the debouncer to idle.
func (d *Debouncer) Disarm() {
	d.mu.Lock()
	prev := d.stopLocked()
	d.mu.Unlock()

	if prev != nil {
		<-prev
	}
}

// stopLocked cancels the current timer generation and returns its done
// channel for the caller to await outside the lock.
func (d *Debouncer) stopLocked() chan struct{} {
	if d.cancel != nil {
		d.cancel()
	}
	prev := d.done
	d.cancel = nil
	d.done = nil
	d.gen++
	d.armed = false

	select {
	case <-d.fire:
	default:
	}
	return prev
}
