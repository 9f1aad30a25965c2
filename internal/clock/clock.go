// Package clock abstracts wall time so timers can be driven deterministically in tests.
package clock

import "time"

// Timer is a cancellable pending callback.
type Timer interface {
	// Stop prevents the callback from running. It reports whether the call stopped the timer.
	Stop() bool
}

// Clock supplies the current time and one-shot timers.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, f func()) Timer
}

// Real is backed by the time package.
type Real struct {
	Location *time.Location
}

// New returns a real clock reporting times in loc (local time when nil).
func New(loc *time.Location) Real {
	return Real{Location: loc}
}

func (r Real) Now() time.Time {
	if r.Location != nil {
		return time.Now().In(r.Location)
	}
	return time.Now()
}

func (Real) AfterFunc(d time.Duration, f func()) Timer {
	return time.AfterFunc(d, f)
}
