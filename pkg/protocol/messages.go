// ABOUTME: Hush remote control message type definitions
// ABOUTME: JSON envelope, intent payloads and server replies
package protocol

import (
	"encoding/json"
	"fmt"
)

// Version is the remote protocol version carried in hello messages
const Version = 1

// Path is the websocket endpoint
const Path = "/hush"

// Message types
const (
	TypeClientHello = "client/hello"
	TypeServerHello = "server/hello"
	TypeServerState = "server/state"
	TypeServerError = "server/error"

	TypePlay         = "intent/play"
	TypeStop         = "intent/stop"
	TypeToggle       = "intent/toggle"
	TypeSwitch       = "intent/switch"
	TypeVolume       = "intent/volume"
	TypeTimerArm     = "intent/timer/arm"
	TypeTimerDisarm  = "intent/timer/disarm"
	TypeTimerMinutes = "intent/timer/minutes"
)

// Message is the top-level wrapper for all protocol messages
type Message struct {
	Type    string      `json:"type"`
	Payload interface{} `json:"payload,omitempty"`
}

// DecodePayload converts a decoded message payload into v
func DecodePayload(msg Message, v interface{}) error {
	data, err := json.Marshal(msg.Payload)
	if err != nil {
		return fmt.Errorf("failed to marshal %s payload: %w", msg.Type, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s payload: %w", msg.Type, err)
	}
	return nil
}

// ClientHello is sent by clients to initiate the handshake
type ClientHello struct {
	ClientID string `json:"client_id"`
	Name     string `json:"name"`
	Version  int    `json:"version"`
}

// ServerHello is the server's response to client/hello
type ServerHello struct {
	ServerID        string `json:"server_id"`
	Name            string `json:"name"`
	Version         int    `json:"version"`
	SoftwareVersion string `json:"software_version"`
}

// SoundIntent selects a sound for intent/play and intent/switch.
// An empty sound in intent/play means the currently selected one.
type SoundIntent struct {
	Sound string `json:"sound,omitempty"`
}

// VolumeIntent carries intent/volume
type VolumeIntent struct {
	Volume int `json:"volume"`
}

// TimerIntent carries intent/timer/arm and intent/timer/minutes
type TimerIntent struct {
	Minutes int `json:"minutes"`
}

// State is the server/state payload
type State struct {
	Playing          bool   `json:"playing"`
	Switching        bool   `json:"switching"`
	Sound            string `json:"sound"`
	Volume           int    `json:"volume"`
	TimerActive      bool   `json:"timer_active"`
	TimerMinutes     int    `json:"timer_minutes"`
	RemainingSeconds int    `json:"remaining_seconds"`
	Remaining        string `json:"remaining"` // mm:ss
	AudioBlocked     bool   `json:"audio_blocked"`
}

// ServerError reports a rejected intent
type ServerError struct {
	Intent  string `json:"intent,omitempty"`
	Message string `json:"message"`
}
