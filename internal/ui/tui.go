// ABOUTME: TUI initialization and control
// ABOUTME: Wraps the bubbletea program that drives a player
package ui

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/harperreed/hush/pkg/hush"
	"github.com/harperreed/hush/pkg/noise"
)

// Controller is the subset of hush.Player the TUI drives
type Controller interface {
	Toggle() error
	SwitchType(t noise.SoundType) error
	SetVolume(v int) error
	ArmTimer(minutes int) error
	DisarmTimer() error
	SetTimerMinutes(minutes int) error
}

// NewModel creates a new TUI model showing initial until the player
// publishes its first state
func NewModel(ctrl Controller, name string, initial hush.PlayerState) Model {
	return Model{
		ctrl:  ctrl,
		name:  name,
		state: initial,
	}
}

// Run creates the TUI program. The caller runs it and forwards player
// states with Send.
func Run(ctrl Controller, name string, initial hush.PlayerState) (*tea.Program, error) {
	p := tea.NewProgram(NewModel(ctrl, name, initial), tea.WithAltScreen())
	return p, nil
}

// Send forwards a player state to a running program
func Send(p *tea.Program, state hush.PlayerState) {
	if p != nil {
		p.Send(StateMsg(state))
	}
}
