// ABOUTME: Audio graph nodes: destination, gain and buffer source
// ABOUTME: Buffer sources are single-use and must be recreated for every play
package graph

import (
	"math"
	"sync/atomic"
	"time"

	"github.com/harperreed/hush/pkg/audio"
)

// Destination is the final node; everything connected to it is rendered
type Destination struct {
	ctx    *Context
	inputs []*Gain
}

// Gain multiplies its inputs by a scalar before they reach the destination
type Gain struct {
	ctx    *Context
	id     string
	value  atomic.Uint64 // float64 bits, written by control, read by render
	inputs []*BufferSource
	output *Destination
}

// ID returns the node identifier
func (g *Gain) ID() string { return g.id }

// SetValue sets the gain multiplier. Negative and NaN values become 0.
func (g *Gain) SetValue(v float64) {
	if v < 0 || math.IsNaN(v) {
		v = 0
	}
	g.value.Store(math.Float64bits(v))
}

// Value returns the gain multiplier
func (g *Gain) Value() float64 {
	return math.Float64frombits(g.value.Load())
}

// Connect routes the gain into d. Connecting twice is a no-op.
func (g *Gain) Connect(d *Destination) error {
	if d == nil || d.ctx != g.ctx {
		return ErrForeignNode
	}

	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()

	if g.output == d {
		return nil
	}
	d.inputs = append(d.inputs, g)
	g.output = d
	return nil
}

// Disconnect removes the gain from its destination
func (g *Gain) Disconnect() {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()

	if g.output == nil {
		return
	}
	d := g.output
	for i, in := range d.inputs {
		if in == g {
			d.inputs = append(d.inputs[:i], d.inputs[i+1:]...)
			break
		}
	}
	g.output = nil
}

// Sources returns the buffer sources currently feeding the gain
func (g *Gain) Sources() []*BufferSource {
	g.ctx.mu.Lock()
	defer g.ctx.mu.Unlock()

	out := make([]*BufferSource, len(g.inputs))
	copy(out, g.inputs)
	return out
}

type sourceState int

const (
	sourceIdle sourceState = iota
	sourcePlaying
	sourceStopped
	sourceEnded
)

// BufferSource plays one buffer, optionally looping. Once started it can
// only be stopped; starting it again fails with ErrSourceStarted.
type BufferSource struct {
	ctx    *Context
	id     string
	buffer *audio.Buffer
	loop   bool
	output *Gain

	// Guarded by ctx.mu
	state sourceState
	delay int // frames of silence before the first sample
	pos   int
}

// ID returns the node identifier
func (s *BufferSource) ID() string { return s.id }

// Buffer returns the bound buffer
func (s *BufferSource) Buffer() *audio.Buffer { return s.buffer }

// SetLoop enables seamless looping of the whole buffer
func (s *BufferSource) SetLoop(loop bool) {
	s.ctx.mu.Lock()
	s.loop = loop
	s.ctx.mu.Unlock()
}

// Loop reports whether looping is enabled
func (s *BufferSource) Loop() bool {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.loop
}

// Connect routes the source into g
func (s *BufferSource) Connect(g *Gain) error {
	if g == nil || g.ctx != s.ctx {
		return ErrForeignNode
	}

	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	if s.output == g {
		return nil
	}
	if s.output != nil {
		s.output.removeInput(s)
	}
	g.inputs = append(g.inputs, s)
	s.output = g
	return nil
}

// Disconnect detaches the source from its gain
func (s *BufferSource) Disconnect() {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	if s.output != nil {
		s.output.removeInput(s)
		s.output = nil
	}
}

// Start begins playback after delay. A source starts at most once.
func (s *BufferSource) Start(delay time.Duration) error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	if s.ctx.state == StateClosed {
		return ErrContextClosed
	}
	if s.state != sourceIdle {
		return ErrSourceStarted
	}
	if s.buffer == nil || s.buffer.Length() == 0 {
		return ErrNoBuffer
	}

	if delay > 0 {
		s.delay = int(delay.Seconds() * float64(s.ctx.format.SampleRate))
	}
	s.state = sourcePlaying
	return nil
}

// Stop ends playback and detaches the source. Stopping a stopped source is a
// no-op; stopping one that never started fails.
func (s *BufferSource) Stop() error {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()

	switch s.state {
	case sourceIdle:
		return ErrSourceNotStarted
	case sourceStopped, sourceEnded:
		return nil
	}

	s.state = sourceStopped
	if s.output != nil {
		s.output.removeInput(s)
		s.output = nil
	}
	return nil
}

// Playing reports whether the source has started and not stopped or ended
func (s *BufferSource) Playing() bool {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.state == sourcePlaying
}

// Pending reports whether a started source is still inside its start delay
func (s *BufferSource) Pending() bool {
	s.ctx.mu.Lock()
	defer s.ctx.mu.Unlock()
	return s.state == sourcePlaying && s.delay > 0
}

// removeInput requires ctx.mu
func (g *Gain) removeInput(s *BufferSource) {
	for i, in := range g.inputs {
		if in == s {
			g.inputs = append(g.inputs[:i], g.inputs[i+1:]...)
			return
		}
	}
}

// render mixes frames of the source into interleaved dst. Requires ctx.mu.
func (s *BufferSource) render(dst []float32, frames, channels int, gain float32) {
	if s.state != sourcePlaying {
		return
	}

	length := s.buffer.Length()
	srcChannels := s.buffer.NumberOfChannels()

	for f := 0; f < frames; f++ {
		if s.delay > 0 {
			s.delay--
			continue
		}
		if s.pos >= length {
			if !s.loop {
				s.state = sourceEnded
				return
			}
			s.pos = 0
		}
		for ch := 0; ch < channels; ch++ {
			src := ch
			if src >= srcChannels {
				src = srcChannels - 1
			}
			dst[f*channels+ch] += s.buffer.ChannelData(src)[s.pos] * gain
		}
		s.pos++
	}
}
