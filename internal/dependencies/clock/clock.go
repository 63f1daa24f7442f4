package clock

import "time"

// Clock abstracts wall time for token expiry, captcha windows and lobby
// creation timestamps
type Clock interface {
	Now() time.Time
	Since(t time.Time) time.Duration
}

// System reads the system clock in UTC, so stored session timestamps
// compare and serialize the same on every replica
type System struct{}

var _ Clock = System{}

// New returns the system clock
func New() System {
	return System{}
}

func (System) Now() time.Time {
	return time.Now().UTC()
}

func (System) Since(t time.Time) time.Duration {
	return time.Since(t)
}
