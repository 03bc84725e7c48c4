// ABOUTME: Tests for the sleep timer
// ABOUTME: Uses the manual clock so no test waits on wall time
package timer

import (
	"errors"
	"testing"
	"time"
)

func TestValidateMinutes(t *testing.T) {
	tests := []struct {
		minutes int
		valid   bool
	}{
		{4, false},
		{5, true},
		{30, true},
		{120, true},
		{121, false},
		{-1, false},
	}

	for _, tt := range tests {
		err := ValidateMinutes(tt.minutes)
		if tt.valid && err != nil {
			t.Errorf("%d: unexpected error %v", tt.minutes, err)
		}
		if !tt.valid && !errors.Is(err, ErrInvalidMinutes) {
			t.Errorf("%d: expected ErrInvalidMinutes, got %v", tt.minutes, err)
		}
	}
}

func TestNextPreset(t *testing.T) {
	tests := []struct {
		current  int
		expected int
	}{
		{5, 10},
		{30, 45},
		{50, 60},
		{120, 5},
	}
	for _, tt := range tests {
		if got := NextPreset(tt.current); got != tt.expected {
			t.Errorf("NextPreset(%d): expected %d, got %d", tt.current, tt.expected, got)
		}
	}
}

func TestFiveMinutesExpiresOnce(t *testing.T) {
	stops := 0
	tm := New(NewManualClock(), func() { stops++ })

	if err := tm.Arm(5); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if tm.Remaining() != 300 {
		t.Fatalf("expected 300 seconds, got %d", tm.Remaining())
	}

	expired := 0
	for i := 0; i < 300; i++ {
		if tm.Tick() {
			expired++
		}
	}
	if expired != 1 || stops != 1 {
		t.Errorf("expected exactly one expiry, got %d (callback %d)", expired, stops)
	}
	if tm.Active() {
		t.Error("expected timer inactive after expiry")
	}

	// Extra ticks after expiry must not fire again
	for i := 0; i < 10; i++ {
		tm.Tick()
	}
	if stops != 1 {
		t.Errorf("expected no further expiries, got %d", stops)
	}
}

func TestExpiryNeedsAllTicks(t *testing.T) {
	fired := false
	tm := New(NewManualClock(), func() { fired = true })
	_ = tm.Arm(5)

	for i := 0; i < 299; i++ {
		tm.Tick()
	}
	if fired {
		t.Fatal("timer fired early")
	}
	if tm.Remaining() != 1 {
		t.Errorf("expected 1 second left, got %d", tm.Remaining())
	}
}

func TestArmWhileArmedIsNoop(t *testing.T) {
	tm := New(NewManualClock(), nil)
	_ = tm.Arm(10)
	tm.Tick()

	if err := tm.Arm(60); err != nil {
		t.Fatalf("Arm failed: %v", err)
	}
	if tm.Minutes() != 10 || tm.Remaining() != 599 {
		t.Errorf("expected untouched countdown, got %d minutes, %d seconds", tm.Minutes(), tm.Remaining())
	}
}

func TestArmRejectsInvalidMinutes(t *testing.T) {
	tm := New(NewManualClock(), nil)
	if err := tm.Arm(3); !errors.Is(err, ErrInvalidMinutes) {
		t.Errorf("expected ErrInvalidMinutes, got %v", err)
	}
	if tm.Active() {
		t.Error("invalid arm must not activate the timer")
	}
}

func TestRearmResetsToFullDuration(t *testing.T) {
	tm := New(NewManualClock(), nil)
	_ = tm.Arm(15)
	for i := 0; i < 100; i++ {
		tm.Tick()
	}

	tm.Rearm()
	if tm.Remaining() != 900 {
		t.Errorf("expected 900 seconds after rearm, got %d", tm.Remaining())
	}

	tm.Disarm()
	tm.Rearm()
	if tm.Active() {
		t.Error("rearm must not arm a disarmed timer")
	}
}

func TestSetMinutes(t *testing.T) {
	tm := New(NewManualClock(), nil)
	if err := tm.SetMinutes(45); err != nil {
		t.Fatal(err)
	}
	if tm.Active() || tm.Minutes() != 45 {
		t.Errorf("expected inactive 45 minute timer, got active=%v minutes=%d", tm.Active(), tm.Minutes())
	}

	_ = tm.Arm(5)
	tm.Tick()
	if err := tm.SetMinutes(10); err != nil {
		t.Fatal(err)
	}
	if tm.Remaining() != 600 {
		t.Errorf("expected countdown restarted at 600, got %d", tm.Remaining())
	}
	if err := tm.SetMinutes(200); !errors.Is(err, ErrInvalidMinutes) {
		t.Errorf("expected ErrInvalidMinutes, got %v", err)
	}
}

func TestDisarm(t *testing.T) {
	clock := NewManualClock()
	fired := false
	tm := New(clock, func() { fired = true })

	tm.Disarm()
	_ = tm.Arm(5)
	if tm.C() == nil {
		t.Fatal("expected a tick channel while armed")
	}
	tm.Disarm()
	tm.Disarm()

	if tm.C() != nil {
		t.Error("expected nil channel while disarmed")
	}
	if clock.Tickers() != 0 {
		t.Errorf("expected ticker stopped, %d live", clock.Tickers())
	}
	if tm.Tick() || fired {
		t.Error("disarmed timer must not fire")
	}
}

func TestManualClockDrivesTimer(t *testing.T) {
	clock := NewManualClock()
	done := make(chan struct{})
	tm := New(clock, func() { close(done) })
	_ = tm.Arm(5)

	c := tm.C()
	go func() {
		for range c {
			if tm.Tick() {
				return
			}
		}
	}()

	clock.Advance(300 * time.Second)

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("timer did not expire after 300 simulated seconds")
	}
}
