// Package scheduler owns all periodic work: the cancellable task
// abstraction used by the detector and auth poller, and the cron-driven
// CareerOS sync cycle.
package scheduler

import "time"

// Tasks schedules deferred and repeating work. Both methods return a stop
// function; stopping twice is safe. Tests substitute a manual
// implementation to drive time deterministically instead of sleeping.
type Tasks interface {
	// After runs fn once after d.
	After(d time.Duration, fn func()) (cancel func())
	// Every runs fn repeatedly at interval d until stopped.
	Every(d time.Duration, fn func()) (stop func())
}

// Real is the wall-clock Tasks implementation.
type Real struct{}

// After implements Tasks.
func (Real) After(d time.Duration, fn func()) func() {
	t := time.AfterFunc(d, fn)
	return func() { t.Stop() }
}

// Every implements Tasks.
func (Real) Every(d time.Duration, fn func()) func() {
	ticker := time.NewTicker(d)
	done := make(chan struct{})
	go func() {
		for {
			select {
			case <-ticker.C:
				fn()
			case <-done:
				return
			}
		}
	}()

	var stopped bool
	return func() {
		if stopped {
			return
		}
		stopped = true
		ticker.Stop()
		close(done)
	}
}
