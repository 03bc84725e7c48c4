// ABOUTME: Player state snapshot and display formatting
// ABOUTME: The only place that turns seconds into mm:ss
package hush

import (
	"fmt"

	"github.com/harperreed/hush/pkg/noise"
)

// PlayerState describes the current state
type PlayerState struct {
	Playing          bool            `json:"playing"`
	Switching        bool            `json:"switching"`
	Sound            noise.SoundType `json:"sound"`
	Volume           int             `json:"volume"`
	TimerActive      bool            `json:"timer_active"`
	TimerMinutes     int             `json:"timer_minutes"`
	RemainingSeconds int             `json:"remaining_seconds"`

	// AudioBlocked is set when the audio device refused to start
	AudioBlocked bool `json:"audio_blocked"`
}

// Remaining returns the countdown as mm:ss
func (s PlayerState) Remaining() string {
	return FormatClock(s.RemainingSeconds)
}

// Status returns a one-word description for logs and status lines
func (s PlayerState) Status() string {
	switch {
	case s.AudioBlocked:
		return "blocked"
	case s.Switching:
		return "switching"
	case s.Playing:
		return "playing"
	default:
		return "stopped"
	}
}

// FormatClock renders seconds as mm:ss. Minutes are not wrapped into hours.
func FormatClock(seconds int) string {
	if seconds < 0 {
		seconds = 0
	}
	return fmt.Sprintf("%02d:%02d", seconds/60, seconds%60)
}
