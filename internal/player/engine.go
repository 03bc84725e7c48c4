// ABOUTME: Playback engine driving the audio graph
// ABOUTME: Owns the gain node and the single live loop source, one per play cycle
package player

import (
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/harperreed/hush/pkg/audio"
	"github.com/harperreed/hush/pkg/audio/graph"
	"github.com/harperreed/hush/pkg/noise"
)

const (
	// DefaultSwitchDelay separates teardown of the old source from the new one
	DefaultSwitchDelay = 50 * time.Millisecond

	// DefaultVolume is applied until SetVolume is called
	DefaultVolume = 50
)

// ErrContextSuspended is returned when the audio context refuses to resume
var ErrContextSuspended = errors.New("audio context suspended")

// AudioContext is the audio graph the engine plays through.
// graph.Context implements it.
type AudioContext interface {
	SampleRate() int
	State() graph.State
	Resume() error
	CreateBufferSource(buf *audio.Buffer) *graph.BufferSource
	CreateGain() *graph.Gain
	Destination() *graph.Destination
}

// BufferProvider returns the loop buffer for a sound type.
// noise.Synthesizer implements it.
type BufferProvider interface {
	Buffer(t noise.SoundType, sampleRate int) (*audio.Buffer, error)
}

// State is the engine state
type State int

const (
	StateIdle State = iota
	StatePlaying
	// StateSwitching means a new source is scheduled but still silent
	StateSwitching
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StatePlaying:
		return "playing"
	case StateSwitching:
		return "switching"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Engine plays one looping noise buffer at a time through a persistent gain
// node. Source nodes are single-use, so every play creates a fresh one.
type Engine struct {
	mu          sync.Mutex
	ctx         AudioContext
	buffers     BufferProvider
	gain        *graph.Gain
	source      *graph.BufferSource
	sound       noise.SoundType
	volume      int
	switchDelay time.Duration
}

// Option configures an Engine
type Option func(*Engine)

// WithSwitchDelay sets how long SwitchType waits before the new sound starts
func WithSwitchDelay(d time.Duration) Option {
	return func(e *Engine) {
		if d >= 0 {
			e.switchDelay = d
		}
	}
}

// NewEngine builds the gain → destination chain
func NewEngine(ctx AudioContext, buffers BufferProvider, opts ...Option) (*Engine, error) {
	if ctx == nil || buffers == nil {
		return nil, fmt.Errorf("audio context and buffer provider are required")
	}

	e := &Engine{
		ctx:         ctx,
		buffers:     buffers,
		gain:        ctx.CreateGain(),
		sound:       noise.White,
		volume:      DefaultVolume,
		switchDelay: DefaultSwitchDelay,
	}
	for _, opt := range opts {
		opt(e)
	}

	if err := e.gain.Connect(ctx.Destination()); err != nil {
		return nil, fmt.Errorf("failed to connect gain: %w", err)
	}
	e.gain.SetValue(gainFor(e.volume))

	return e, nil
}

// Play starts t from the beginning, replacing any active source
func (e *Engine) Play(t noise.SoundType) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.playLocked(t, 0)
}

// Stop discards the active source. It is safe to call when idle.
func (e *Engine) Stop() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
}

// SwitchType changes the sound. While playing, the new source starts after
// the switch delay; while idle only the selection changes.
func (e *Engine) SwitchType(t noise.SoundType) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", noise.ErrUnknownSoundType, int(t))
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	if e.source == nil {
		e.sound = t
		return nil
	}
	return e.playLocked(t, e.switchDelay)
}

// SetVolume clamps v to 0-100 and applies v/100 to the gain immediately
func (e *Engine) SetVolume(v int) {
	if v < 0 {
		v = 0
	}
	if v > 100 {
		v = 100
	}

	e.mu.Lock()
	defer e.mu.Unlock()

	e.volume = v
	e.gain.SetValue(gainFor(v))
}

// Volume returns the current volume (0-100)
func (e *Engine) Volume() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.volume
}

// Gain returns the gain node multiplier
func (e *Engine) Gain() float64 {
	return e.gain.Value()
}

// Sound returns the selected sound type
func (e *Engine) Sound() noise.SoundType {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.sound
}

// Source returns the live source node, or nil when idle
func (e *Engine) Source() *graph.BufferSource {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.source
}

// State reports the engine state
func (e *Engine) State() State {
	e.mu.Lock()
	defer e.mu.Unlock()

	switch {
	case e.source == nil:
		return StateIdle
	case e.source.Pending():
		return StateSwitching
	case e.source.Playing():
		return StatePlaying
	default:
		return StateIdle
	}
}

// Playing reports whether a source is live or scheduled
func (e *Engine) Playing() bool {
	return e.State() != StateIdle
}

// Close stops playback and detaches the gain node
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.stopLocked()
	e.gain.Disconnect()
}

func (e *Engine) playLocked(t noise.SoundType, delay time.Duration) error {
	e.stopLocked()

	switch e.ctx.State() {
	case graph.StateClosed:
		return graph.ErrContextClosed
	case graph.StateSuspended:
		if err := e.ctx.Resume(); err != nil {
			log.Printf("Audio context could not be resumed: %v", err)
			return fmt.Errorf("%w: %w", ErrContextSuspended, err)
		}
	}

	buf, err := e.buffers.Buffer(t, e.ctx.SampleRate())
	if err != nil {
		log.Printf("No buffer for %s: %v", t, err)
		return err
	}

	src := e.ctx.CreateBufferSource(buf)
	src.SetLoop(true)
	if err := src.Connect(e.gain); err != nil {
		return fmt.Errorf("failed to connect source: %w", err)
	}
	e.gain.SetValue(gainFor(e.volume))

	if err := src.Start(delay); err != nil {
		src.Disconnect()
		return fmt.Errorf("failed to start source: %w", err)
	}

	e.source = src
	e.sound = t
	log.Printf("Playing %s noise at volume %d", t, e.volume)
	return nil
}

func (e *Engine) stopLocked() {
	if e.source == nil {
		return
	}
	if err := e.source.Stop(); err != nil {
		log.Printf("Failed to stop source: %v", err)
	}
	e.source.Disconnect()
	e.source = nil
}

// gainFor maps a 0-100 volume to a gain multiplier
func gainFor(volume int) float64 {
	return float64(volume) / 100.0
}
