package clock

import "time"

// Clock abstracts time.Now so lockout windows, streaks and countdown
// reconciliation are testable without sleeping.
type Clock interface {
	Now() time.Time
}

type systemClock struct{}

func (systemClock) Now() time.Time { return time.Now() }

// System returns the wall clock.
func System() Clock { return systemClock{} }

// Fake is a manually advanced clock for tests.
type Fake struct {
	Current time.Time
}

func NewFake(start time.Time) *Fake {
	return &Fake{Current: start}
}

func (f *Fake) Now() time.Time { return f.Current }

func (f *Fake) Advance(d time.Duration) { f.Current = f.Current.Add(d) }
