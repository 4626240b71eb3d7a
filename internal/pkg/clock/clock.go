package clock

import (
	"sync"
	"time"
)

// Clock is the single source of "now" for validation and transition rules.
type Clock interface {
	Now() time.Time
}

// Real reads the system wall clock.
type Real struct{}

func (Real) Now() time.Time { return time.Now() }

// Manual is a controllable clock for tests.
type Manual struct {
	mu      sync.Mutex
	current time.Time
}

func NewManual(start time.Time) *Manual {
	return &Manual{current: start}
}

func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.current
}

// Set moves the clock to t.
func (m *Manual) Set(t time.Time) {
	m.mu.Lock()
	m.current = t
	m.mu.Unlock()
}

// Advance moves the clock forward by d and returns the new time.
func (m *Manual) Advance(d time.Duration) time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.current = m.current.Add(d)
	return m.current
}
