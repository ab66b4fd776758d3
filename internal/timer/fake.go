package timer

import (
	"sync"
	"time"
)

// Fake is a deterministic Service for tests: Schedule never starts a real
// timer, it just records the call so the test can fire it explicitly via
// FireNext or FireAll. This lets tests exercise retry/timeout logic without
// sleeping.
type Fake struct {
	mu      sync.Mutex
	pending []*fakeEntry
}

type fakeEntry struct {
	delay     time.Duration
	fn        func()
	cancelled bool
	fired     bool
}

// NewFake returns a Fake timer Service.
func NewFake() *Fake {
	return &Fake{}
}

func (f *Fake) Schedule(d time.Duration, fn func()) Cancel {
	e := &fakeEntry{delay: d, fn: fn}

	f.mu.Lock()
	f.pending = append(f.pending, e)
	f.mu.Unlock()

	return func() {
		f.mu.Lock()
		e.cancelled = true
		f.mu.Unlock()
	}
}

// Pending returns the number of scheduled calls that have neither fired
// nor been cancelled.
func (f *Fake) Pending() int {
	f.mu.Lock()
	defer f.mu.Unlock()

	n := 0
	for _, e := range f.pending {
		if !e.cancelled && !e.fired {
			n++
		}
	}
	return n
}

// FireNext fires the oldest pending, non-cancelled entry and reports
// whether one was found.
func (f *Fake) FireNext() bool {
	f.mu.Lock()
	var target *fakeEntry
	for _, e := range f.pending {
		if !e.cancelled && !e.fired {
			target = e
			break
		}
	}
	f.mu.Unlock()

	if target == nil {
		return false
	}

	f.mu.Lock()
	target.fired = true
	f.mu.Unlock()

	target.fn()
	return true
}

// FireAll fires every pending, non-cancelled entry in registration order.
func (f *Fake) FireAll() {
	for f.FireNext() {
	}
}
