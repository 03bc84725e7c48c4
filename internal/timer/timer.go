// ABOUTME: Sleep timer that stops playback when its countdown reaches zero
// ABOUTME: Counts whole seconds from a 1 Hz ticker supplied by a Clock
package timer

import (
	"errors"
	"fmt"
	"log"
	"time"
)

const (
	MinMinutes     = 5
	MaxMinutes     = 120
	DefaultMinutes = 30
)

// ErrInvalidMinutes is returned for durations outside MinMinutes-MaxMinutes
var ErrInvalidMinutes = errors.New("timer minutes out of range")

// Presets are the durations offered by the controls, in minutes
var Presets = []int{5, 10, 15, 30, 45, 60, 90, 120}

// ValidateMinutes checks that m is an allowed duration
func ValidateMinutes(m int) error {
	if m < MinMinutes || m > MaxMinutes {
		return fmt.Errorf("%w: %d (allowed %d-%d)", ErrInvalidMinutes, m, MinMinutes, MaxMinutes)
	}
	return nil
}

// NextPreset returns the preset after m, wrapping to the first
func NextPreset(m int) int {
	for _, p := range Presets {
		if p > m {
			return p
		}
	}
	return Presets[0]
}

// Timer is a countdown armed in whole minutes. It is not safe for
// concurrent use: the owner's event loop selects on C and calls Tick.
type Timer struct {
	clock     Clock
	onExpire  func()
	minutes   int
	remaining int
	active    bool
	ticker    Ticker
}

// New returns a disarmed timer. onExpire runs once each time the countdown
// reaches zero.
func New(clock Clock, onExpire func()) *Timer {
	if clock == nil {
		clock = RealClock{}
	}
	return &Timer{
		clock:    clock,
		onExpire: onExpire,
		minutes:  DefaultMinutes,
	}
}

// Arm starts a countdown of minutes. Arming an armed timer is a no-op.
func (t *Timer) Arm(minutes int) error {
	if err := ValidateMinutes(minutes); err != nil {
		return err
	}
	if t.active {
		return nil
	}

	t.minutes = minutes
	t.start()
	log.Printf("Sleep timer armed for %d minutes", minutes)
	return nil
}

// SetMinutes changes the configured duration. An armed timer restarts its
// countdown from the new duration.
func (t *Timer) SetMinutes(minutes int) error {
	if err := ValidateMinutes(minutes); err != nil {
		return err
	}
	t.minutes = minutes
	if t.active {
		t.start()
		log.Printf("Sleep timer reset to %d minutes", minutes)
	}
	return nil
}

// Rearm resets an armed countdown to the full configured duration
func (t *Timer) Rearm() {
	if !t.active {
		return
	}
	t.start()
	log.Printf("Sleep timer re-armed for %d minutes", t.minutes)
}

// Disarm cancels the countdown without calling onExpire. Safe when disarmed.
func (t *Timer) Disarm() {
	if !t.active {
		return
	}
	t.stopTicker()
	t.active = false
	t.remaining = 0
	log.Printf("Sleep timer disarmed")
}

// Tick counts down one second. It reports true on the tick that expires the
// timer; ticks while disarmed are ignored.
func (t *Timer) Tick() bool {
	if !t.active {
		return false
	}

	t.remaining--
	if t.remaining > 0 {
		return false
	}

	t.remaining = 0
	t.active = false
	t.stopTicker()
	log.Printf("Sleep timer expired")
	if t.onExpire != nil {
		t.onExpire()
	}
	return true
}

// C returns the tick channel, or nil while disarmed so a select never fires
func (t *Timer) C() <-chan time.Time {
	if !t.active || t.ticker == nil {
		return nil
	}
	return t.ticker.C()
}

// Active reports whether a countdown is running
func (t *Timer) Active() bool { return t.active }

// Remaining returns the seconds left, 0 when disarmed
func (t *Timer) Remaining() int { return t.remaining }

// Minutes returns the configured duration
func (t *Timer) Minutes() int { return t.minutes }

func (t *Timer) start() {
	t.stopTicker()
	t.remaining = t.minutes * 60
	t.active = true
	t.ticker = t.clock.NewTicker(time.Second)
}

func (t *Timer) stopTicker() {
	if t.ticker != nil {
		t.ticker.Stop()
		t.ticker = nil
	}
}
