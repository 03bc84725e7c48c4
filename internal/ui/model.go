// ABOUTME: Bubbletea model for the player TUI
// ABOUTME: Maps keys to player intents and renders the last published state
package ui

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/harperreed/hush/internal/timer"
	"github.com/harperreed/hush/pkg/hush"
	"github.com/harperreed/hush/pkg/noise"
)

const volumeStep = 5

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("205")).
			MarginBottom(1)

	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("86"))

	valueStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("250"))

	selectedStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("220"))

	warnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("203"))

	helpStyle = lipgloss.NewStyle().Faint(true)
)

// Model represents the TUI state
type Model struct {
	ctrl  Controller
	state hush.PlayerState
	name  string
	err   string

	quitting bool

	// Dimensions
	width  int
	height int
}

// StateMsg carries a state published by the player
type StateMsg hush.PlayerState

// ErrorMsg reports a failed intent
type ErrorMsg struct {
	Err error
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return nil
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKey(msg)
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	case StateMsg:
		m.state = hush.PlayerState(msg)
		if !m.state.AudioBlocked {
			m.err = ""
		}
	case ErrorMsg:
		if msg.Err != nil {
			m.err = msg.Err.Error()
		}
	}

	return m, nil
}

// View renders the TUI
func (m Model) View() string {
	if m.quitting {
		return "Going quiet...\n"
	}

	var b strings.Builder

	title := "hush"
	if m.name != "" {
		title = fmt.Sprintf("hush · %s", m.name)
	}
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n\n")

	b.WriteString(m.renderStatus())
	b.WriteString(m.renderSounds())
	b.WriteString(m.renderVolume())
	b.WriteString(m.renderTimer())

	if m.state.AudioBlocked {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Audio output is blocked. Press space to try again."))
		b.WriteString("\n")
	}
	if m.err != "" {
		b.WriteString("\n")
		b.WriteString(warnStyle.Render("Error: " + m.err))
		b.WriteString("\n")
	}

	b.WriteString("\n")
	b.WriteString(helpStyle.Render("space:Play/Stop  1-6:Sound  ↑/↓:Volume  t:Timer  m:Minutes  q:Quit"))

	return b.String()
}

func (m Model) renderStatus() string {
	return headerStyle.Render("Status: ") + valueStyle.Render(m.state.Status()) + "\n\n"
}

func (m Model) renderSounds() string {
	var b strings.Builder
	b.WriteString(headerStyle.Render("Sounds"))
	b.WriteString("\n")
	for i, t := range noise.SoundTypes() {
		line := fmt.Sprintf("  %d %-6s %s", i+1, t, noise.Describe(t))
		if t == m.state.Sound {
			b.WriteString(selectedStyle.Render("▸" + line[1:]))
		} else {
			b.WriteString(valueStyle.Render(line))
		}
		b.WriteString("\n")
	}
	b.WriteString("\n")
	return b.String()
}

func (m Model) renderVolume() string {
	return headerStyle.Render("Volume: ") +
		valueStyle.Render(fmt.Sprintf("[%s] %d%%", renderBar(m.state.Volume, 100, 20), m.state.Volume)) +
		"\n"
}

func (m Model) renderTimer() string {
	s := headerStyle.Render("Timer:  ")
	if m.state.TimerActive {
		s += valueStyle.Render(fmt.Sprintf("%s left of %d min", m.state.Remaining(), m.state.TimerMinutes))
	} else {
		s += valueStyle.Render(fmt.Sprintf("off (%d min)", m.state.TimerMinutes))
	}
	return s + "\n"
}

// handleKey handles keyboard input
func (m Model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	switch key {
	case "q", "ctrl+c":
		m.quitting = true
		return m, tea.Quit
	case " ", "space":
		return m, m.intent(func(c Controller) error { return c.Toggle() })
	case "up", "k":
		v := clampVolume(m.state.Volume + volumeStep)
		return m, m.intent(func(c Controller) error { return c.SetVolume(v) })
	case "down", "j":
		v := clampVolume(m.state.Volume - volumeStep)
		return m, m.intent(func(c Controller) error { return c.SetVolume(v) })
	case "t":
		if m.state.TimerActive {
			return m, m.intent(func(c Controller) error { return c.DisarmTimer() })
		}
		minutes := m.state.TimerMinutes
		return m, m.intent(func(c Controller) error { return c.ArmTimer(minutes) })
	case "m":
		minutes := timer.NextPreset(m.state.TimerMinutes)
		return m, m.intent(func(c Controller) error { return c.SetTimerMinutes(minutes) })
	}

	if len(key) == 1 && key[0] >= '1' && key[0] <= '9' {
		types := noise.SoundTypes()
		idx := int(key[0] - '1')
		if idx < len(types) {
			t := types[idx]
			return m, m.intent(func(c Controller) error { return c.SwitchType(t) })
		}
	}

	return m, nil
}

// intent runs fn off the update loop so a slow device never stalls the UI.
// The resulting state arrives separately as a StateMsg.
func (m Model) intent(fn func(Controller) error) tea.Cmd {
	if m.ctrl == nil {
		return nil
	}
	ctrl := m.ctrl
	return func() tea.Msg {
		if err := fn(ctrl); err != nil {
			return ErrorMsg{Err: err}
		}
		return nil
	}
}

// Utility functions
func renderBar(value, max, width int) string {
	filled := (value * width) / max
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}
	return strings.Repeat("█", filled) + strings.Repeat("░", width-filled)
}

func clampVolume(v int) int {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
