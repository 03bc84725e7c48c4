// ABOUTME: Time source abstraction for the sleep timer
// ABOUTME: RealClock wraps time.Ticker; ManualClock lets tests advance seconds by hand
package timer

import (
	"sync"
	"time"
)

// Ticker delivers ticks on C until stopped
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

// Clock creates tickers
type Clock interface {
	NewTicker(d time.Duration) Ticker
}

// RealClock is the wall clock
type RealClock struct{}

// NewTicker wraps time.NewTicker
func (RealClock) NewTicker(d time.Duration) Ticker {
	return &realTicker{t: time.NewTicker(d)}
}

type realTicker struct {
	t *time.Ticker
}

func (r *realTicker) C() <-chan time.Time { return r.t.C }
func (r *realTicker) Stop()               { r.t.Stop() }

// ManualClock hands out tickers that only fire when Advance is called.
// Its channels are unbuffered, so Advance returns only after the receiver
// has taken each tick.
type ManualClock struct {
	mu      sync.Mutex
	now     time.Time
	tickers []*manualTicker
}

// NewManualClock starts at the Unix epoch
func NewManualClock() *ManualClock {
	return &ManualClock{now: time.Unix(0, 0)}
}

// NewTicker returns a ticker driven by Advance
func (m *ManualClock) NewTicker(d time.Duration) Ticker {
	m.mu.Lock()
	defer m.mu.Unlock()

	t := &manualTicker{
		clock:  m,
		period: d,
		next:   m.now.Add(d),
		c:      make(chan time.Time),
		done:   make(chan struct{}),
	}
	m.tickers = append(m.tickers, t)
	return t
}

// Advance moves time forward by d, delivering every tick that falls due.
// Ticks are sent one at a time with the clock unlocked, so a receiver may
// stop or create tickers while handling one.
func (m *ManualClock) Advance(d time.Duration) {
	m.mu.Lock()
	target := m.now.Add(d)
	m.mu.Unlock()

	for {
		t, at := m.nextDue(target)
		if t == nil {
			break
		}
		select {
		case t.c <- at:
		case <-t.done:
		}
	}

	m.mu.Lock()
	m.now = target
	m.mu.Unlock()
}

// Tickers returns the number of live tickers
func (m *ManualClock) Tickers() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tickers)
}

// nextDue pops the earliest tick at or before target
func (m *ManualClock) nextDue(target time.Time) (*manualTicker, time.Time) {
	m.mu.Lock()
	defer m.mu.Unlock()

	var due *manualTicker
	for _, t := range m.tickers {
		if t.next.After(target) {
			continue
		}
		if due == nil || t.next.Before(due.next) {
			due = t
		}
	}
	if due == nil {
		return nil, time.Time{}
	}

	at := due.next
	m.now = at
	due.next = at.Add(due.period)
	return due, at
}

func (m *ManualClock) remove(t *manualTicker) {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i, other := range m.tickers {
		if other == t {
			m.tickers = append(m.tickers[:i], m.tickers[i+1:]...)
			return
		}
	}
}

type manualTicker struct {
	clock  *ManualClock
	period time.Duration
	next   time.Time
	c      chan time.Time
	done   chan struct{}
	once   sync.Once
}

func (t *manualTicker) C() <-chan time.Time { return t.c }

func (t *manualTicker) Stop() {
	t.once.Do(func() {
		t.clock.remove(t)
		close(t.done)
	})
}
