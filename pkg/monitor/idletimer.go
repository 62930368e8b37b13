package monitor

import "time"

// IdleTimer is a resettable countdown owned by the monitor loop. It wraps
// time.Timer with the stop/drain dance needed for safe reuse from a single
// goroutine.
type IdleTimer struct {
	timer    *time.Timer
	duration time.Duration
}

// NewIdleTimer creates a started timer.
func NewIdleTimer(d time.Duration) *IdleTimer {
	return &IdleTimer{timer: time.NewTimer(d), duration: d}
}

// C returns the expiry channel.
func (t *IdleTimer) C() <-chan time.Time {
	return t.timer.C
}

// Reset restarts the countdown from the full idle threshold.
func (t *IdleTimer) Reset() {
	t.ResetTo(t.duration)
}

// ResetTo restarts the countdown with a specific duration (the monitor uses
// a shorter poll interval while media is playing).
func (t *IdleTimer) ResetTo(d time.Duration) {
	if !t.timer.Stop() {
		select {
		case <-t.timer.C:
		default:
		}
	}
	t.timer.Reset(d)
}

// Cancel stops the timer without restarting it.
func (t *IdleTimer) Cancel() {
	if !t.timer.Stop() {
		select {
		case <-t.timer.C:
		default:
		}
	}
}
