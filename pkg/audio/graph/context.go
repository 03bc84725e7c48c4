// ABOUTME: Software audio context rendered by an output device
// ABOUTME: Owns the destination node, node factories and the resume/suspend state
package graph

import (
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"
	"github.com/harperreed/hush/pkg/audio"
)

// State is the lifecycle state of a Context
type State int

const (
	// StateSuspended renders silence until Resume succeeds
	StateSuspended State = iota
	StateRunning
	StateClosed
)

func (s State) String() string {
	switch s {
	case StateSuspended:
		return "suspended"
	case StateRunning:
		return "running"
	case StateClosed:
		return "closed"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// Sentinel errors
var (
	ErrContextClosed    = errors.New("audio context closed")
	ErrSourceStarted    = errors.New("buffer source already started")
	ErrSourceNotStarted = errors.New("buffer source not started")
	ErrNoBuffer         = errors.New("buffer source has no buffer")
	ErrForeignNode      = errors.New("node belongs to another context")
)

// Device is a sink that pulls rendered frames from the context.
// output.Output implementations satisfy it.
type Device interface {
	Open(format audio.Format, r audio.Renderer) error
	Resume() error
	Suspend() error
	Close() error
}

// Context is a small audio graph: buffer sources feed gain nodes which feed
// the destination. Topology changes and rendering are serialized by mu.
type Context struct {
	lifeMu sync.Mutex // serializes Resume, Suspend and Close
	mu     sync.Mutex
	id     string
	format audio.Format
	device Device
	state  State
	dest   *Destination
	frame  int64
}

// NewContext opens device with format and returns a suspended context
func NewContext(device Device, format audio.Format) (*Context, error) {
	if device == nil {
		return nil, fmt.Errorf("audio device is required")
	}
	if err := format.Validate(); err != nil {
		return nil, err
	}

	c := &Context{
		id:     uuid.New().String(),
		format: format,
		device: device,
		state:  StateSuspended,
	}
	c.dest = &Destination{ctx: c}

	if err := device.Open(format, c); err != nil {
		return nil, fmt.Errorf("failed to open audio device: %w", err)
	}

	// Contexts start suspended until the first play resumes them
	if err := device.Suspend(); err != nil {
		log.Printf("Audio device could not be suspended after open: %v", err)
	}

	log.Printf("Audio context %s created: %dHz, %d channels", c.id[:8], format.SampleRate, format.Channels)
	return c, nil
}

// ID returns the context identifier
func (c *Context) ID() string { return c.id }

// SampleRate returns the context sample rate in Hz
func (c *Context) SampleRate() int { return c.format.SampleRate }

// Format returns the render format
func (c *Context) Format() audio.Format { return c.format }

// State returns the lifecycle state
func (c *Context) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Resume starts the device. A failure leaves the context suspended.
func (c *Context) Resume() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	switch c.State() {
	case StateClosed:
		return ErrContextClosed
	case StateRunning:
		return nil
	}

	// Device calls happen without mu so the render callback never blocks on us
	if err := c.device.Resume(); err != nil {
		return fmt.Errorf("resume failed: %w", err)
	}
	c.setState(StateRunning)
	return nil
}

// Suspend pauses the device; rendering produces silence while suspended
func (c *Context) Suspend() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	switch c.State() {
	case StateClosed:
		return ErrContextClosed
	case StateSuspended:
		return nil
	}

	if err := c.device.Suspend(); err != nil {
		return fmt.Errorf("suspend failed: %w", err)
	}
	c.setState(StateSuspended)
	return nil
}

// Close stops every source and releases the device
func (c *Context) Close() error {
	c.lifeMu.Lock()
	defer c.lifeMu.Unlock()

	c.mu.Lock()
	if c.state == StateClosed {
		c.mu.Unlock()
		return nil
	}
	c.state = StateClosed
	for _, g := range c.dest.inputs {
		for _, s := range g.inputs {
			s.state = sourceStopped
		}
		g.inputs = nil
	}
	c.mu.Unlock()

	return c.device.Close()
}

func (c *Context) setState(s State) {
	c.mu.Lock()
	c.state = s
	c.mu.Unlock()
}

// CreateBuffer allocates a silent planar buffer
func (c *Context) CreateBuffer(channels, frames, sampleRate int) (*audio.Buffer, error) {
	if c.State() == StateClosed {
		return nil, ErrContextClosed
	}
	return audio.NewBuffer(audio.Format{SampleRate: sampleRate, Channels: channels}, frames)
}

// CreateBufferSource returns an unstarted source bound to buf
func (c *Context) CreateBufferSource(buf *audio.Buffer) *BufferSource {
	return &BufferSource{
		ctx:    c,
		id:     uuid.New().String(),
		buffer: buf,
	}
}

// CreateGain returns a unity gain node
func (c *Context) CreateGain() *Gain {
	g := &Gain{ctx: c, id: uuid.New().String()}
	g.SetValue(1)
	return g
}

// Destination returns the node that feeds the device
func (c *Context) Destination() *Destination { return c.dest }

// ActiveSources returns started, unstopped sources reachable from the destination
func (c *Context) ActiveSources() []*BufferSource {
	c.mu.Lock()
	defer c.mu.Unlock()

	var active []*BufferSource
	for _, g := range c.dest.inputs {
		for _, s := range g.inputs {
			if s.state == sourcePlaying {
				active = append(active, s)
			}
		}
	}
	return active
}

// RenderedFrames returns the number of frames rendered while running
func (c *Context) RenderedFrames() int64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.frame
}

// Render mixes every active source into dst as interleaved frames.
// It writes silence unless the context is running.
func (c *Context) Render(dst []float32) {
	for i := range dst {
		dst[i] = 0
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if c.state != StateRunning {
		return
	}

	channels := c.format.Channels
	frames := len(dst) / channels

	for _, g := range c.dest.inputs {
		gain := float32(g.Value())
		live := g.inputs[:0]
		for _, s := range g.inputs {
			s.render(dst, frames, channels, gain)
			if s.state == sourcePlaying {
				live = append(live, s)
			}
		}
		// Drop sources that ran off the end of a non-looping buffer
		for i := len(live); i < len(g.inputs); i++ {
			g.inputs[i] = nil
		}
		g.inputs = live
	}

	for i, v := range dst {
		dst[i] = audio.Clamp(float64(v))
	}
	c.frame += int64(frames)
}
