package service

import (
	"sync"
	"time"
)

// TimerRegistry tracks cancellable deferred tasks keyed by entity ID.
// Scheduling a key that already has a timer cancels the previous one first,
// so an entity can never have two pending firings. Cancellation is the
// expected path on reschedule or disable, not an error.
type TimerRegistry struct {
	mu     sync.Mutex
	timers map[string]chan struct{}
}

// NewTimerRegistry creates an empty registry
func NewTimerRegistry() *TimerRegistry {
	return &TimerRegistry{timers: make(map[string]chan struct{})}
}

// Schedule runs fn after delay unless the key is cancelled or rescheduled
// first. A delay of zero or less runs fn immediately on the timer goroutine.
func (r *TimerRegistry) Schedule(key string, delay time.Duration, fn func()) {
	r.mu.Lock()
	if prev, ok := r.timers[key]; ok {
		close(prev)
	}
	stop := make(chan struct{})
	r.timers[key] = stop
	r.mu.Unlock()

	go func() {
		if delay > 0 {
			timer := time.NewTimer(delay)
			defer timer.Stop()
			select {
			case <-stop:
				return
			case <-timer.C:
			}
		}

		// Deregister before firing so fn can schedule the same key again
		r.mu.Lock()
		if r.timers[key] == stop {
			delete(r.timers, key)
		}
		r.mu.Unlock()

		select {
		case <-stop:
			return
		default:
		}
		fn()
	}()
}

// Cancel stops the timer for a key, reporting whether one was pending
func (r *TimerRegistry) Cancel(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	stop, ok := r.timers[key]
	if !ok {
		return false
	}
	close(stop)
	delete(r.timers, key)
	return true
}

// CancelAll stops every pending timer
func (r *TimerRegistry) CancelAll() {
	r.mu.Lock()
	defer r.mu.Unlock()
	for key, stop := range r.timers {
		close(stop)
		delete(r.timers, key)
	}
}

// Pending reports whether a timer is registered for the key
func (r *TimerRegistry) Pending(key string) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, ok := r.timers[key]
	return ok
}
