// ABOUTME: Tests for the TUI model
// ABOUTME: Covers key to intent mapping, state messages and rendering
package ui

import (
	"errors"
	"strings"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/hush/pkg/hush"
	"github.com/harperreed/hush/pkg/noise"
)

type fakeController struct {
	calls []string
	arg   int
	sound noise.SoundType
	err   error
}

func (f *fakeController) Toggle() error {
	f.calls = append(f.calls, "toggle")
	return f.err
}

func (f *fakeController) SwitchType(t noise.SoundType) error {
	f.calls = append(f.calls, "switch")
	f.sound = t
	return f.err
}

func (f *fakeController) SetVolume(v int) error {
	f.calls = append(f.calls, "volume")
	f.arg = v
	return f.err
}

func (f *fakeController) ArmTimer(minutes int) error {
	f.calls = append(f.calls, "arm")
	f.arg = minutes
	return f.err
}

func (f *fakeController) DisarmTimer() error {
	f.calls = append(f.calls, "disarm")
	return f.err
}

func (f *fakeController) SetTimerMinutes(minutes int) error {
	f.calls = append(f.calls, "minutes")
	f.arg = minutes
	return f.err
}

func runes(s string) tea.KeyMsg {
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func press(t *testing.T, m Model, key tea.KeyMsg) (Model, tea.Msg) {
	t.Helper()
	next, cmd := m.Update(key)
	var msg tea.Msg
	if cmd != nil {
		msg = cmd()
	}
	return next.(Model), msg
}

func TestKeyIntents(t *testing.T) {
	base := hush.PlayerState{Sound: noise.White, Volume: 50, TimerMinutes: 30}
	armed := base
	armed.TimerActive = true

	tests := []struct {
		name  string
		state hush.PlayerState
		key   tea.KeyMsg
		call  string
		arg   int
	}{
		{"space toggles", base, tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}, "toggle", 0},
		{"up raises volume", base, tea.KeyMsg{Type: tea.KeyUp}, "volume", 55},
		{"down lowers volume", base, tea.KeyMsg{Type: tea.KeyDown}, "volume", 45},
		{"t arms timer", base, runes("t"), "arm", 30},
		{"t disarms armed timer", armed, runes("t"), "disarm", 0},
		{"m cycles minutes", base, runes("m"), "minutes", 45},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ctrl := &fakeController{}
			m := NewModel(ctrl, "", tt.state)

			_, msg := press(t, m, tt.key)
			if msg != nil {
				t.Errorf("unexpected message %v", msg)
			}
			if len(ctrl.calls) != 1 || ctrl.calls[0] != tt.call {
				t.Fatalf("expected %s, got %v", tt.call, ctrl.calls)
			}
			if ctrl.arg != tt.arg {
				t.Errorf("expected argument %d, got %d", tt.arg, ctrl.arg)
			}
		})
	}
}

func TestVolumeKeysClamp(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(ctrl, "", hush.PlayerState{Volume: 98})
	press(t, m, tea.KeyMsg{Type: tea.KeyUp})
	if ctrl.arg != 100 {
		t.Errorf("expected 100, got %d", ctrl.arg)
	}

	m = NewModel(ctrl, "", hush.PlayerState{Volume: 3})
	press(t, m, tea.KeyMsg{Type: tea.KeyDown})
	if ctrl.arg != 0 {
		t.Errorf("expected 0, got %d", ctrl.arg)
	}
}

func TestDigitSelectsSound(t *testing.T) {
	ctrl := &fakeController{}
	m := NewModel(ctrl, "", hush.PlayerState{})

	press(t, m, runes("3"))
	if ctrl.sound != noise.Brown {
		t.Errorf("expected brown, got %v", ctrl.sound)
	}

	ctrl.calls = nil
	press(t, m, runes("9"))
	if len(ctrl.calls) != 0 {
		t.Errorf("digit past the last sound should do nothing, got %v", ctrl.calls)
	}
}

func TestIntentErrorIsShown(t *testing.T) {
	ctrl := &fakeController{err: errors.New("timer can only be armed while playing")}
	m := NewModel(ctrl, "", hush.PlayerState{TimerMinutes: 30})

	m, msg := press(t, m, runes("t"))
	if _, ok := msg.(ErrorMsg); !ok {
		t.Fatalf("expected ErrorMsg, got %T", msg)
	}
	next, _ := m.Update(msg)
	m = next.(Model)
	if !strings.Contains(m.View(), "armed while playing") {
		t.Error("expected error in view")
	}

	// A fresh state clears the error
	next, _ = m.Update(StateMsg(hush.PlayerState{Playing: true}))
	m = next.(Model)
	if m.err != "" {
		t.Errorf("expected error cleared, got %q", m.err)
	}
}

func TestQuit(t *testing.T) {
	m := NewModel(nil, "", hush.PlayerState{})
	next, cmd := m.Update(runes("q"))
	if cmd == nil {
		t.Fatal("expected quit command")
	}
	if _, ok := cmd().(tea.QuitMsg); !ok {
		t.Error("expected tea.QuitMsg")
	}
	if !next.(Model).quitting {
		t.Error("expected quitting")
	}
}

func TestNilControllerIgnoresKeys(t *testing.T) {
	m := NewModel(nil, "", hush.PlayerState{})
	_, cmd := m.Update(runes("t"))
	if cmd != nil {
		t.Error("expected no command without a controller")
	}
}

func TestViewShowsState(t *testing.T) {
	m := NewModel(nil, "bedroom", hush.PlayerState{
		Playing:          true,
		Sound:            noise.Ocean,
		Volume:           70,
		TimerActive:      true,
		TimerMinutes:     15,
		RemainingSeconds: 754,
	})

	view := m.View()
	for _, want := range []string{"bedroom", "playing", "ocean", "70%", "12:34", "15 min"} {
		if !strings.Contains(view, want) {
			t.Errorf("expected view to contain %q", want)
		}
	}
}

func TestViewShowsBlockedHint(t *testing.T) {
	m := NewModel(nil, "", hush.PlayerState{AudioBlocked: true})
	if !strings.Contains(m.View(), "blocked") {
		t.Error("expected blocked hint")
	}
}

func TestRenderBar(t *testing.T) {
	tests := []struct {
		value  int
		filled int
	}{
		{0, 0},
		{50, 10},
		{100, 20},
		{150, 20},
	}
	for _, tt := range tests {
		bar := renderBar(tt.value, 100, 20)
		if got := strings.Count(bar, "█"); got != tt.filled {
			t.Errorf("renderBar(%d): expected %d filled, got %d", tt.value, tt.filled, got)
		}
	}
}
