package idle

import "time"

// Clock abstracts timer scheduling so the monitor can be driven by a fake
// clock in tests.
type Clock interface {
	Now() time.Time
	AfterFunc(d time.Duration, fn func()) Timer
}

type Timer interface {
	Stop() bool
}

type realClock struct{}

func (realClock) Now() time.Time { return time.Now() }

func (realClock) AfterFunc(d time.Duration, fn func()) Timer {
	return time.AfterFunc(d, fn)
}

// NewRealClock returns a Clock backed by the runtime timers.
func NewRealClock() Clock { return realClock{} }
