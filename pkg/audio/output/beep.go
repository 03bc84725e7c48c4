// ABOUTME: Beep speaker audio output implementation
// ABOUTME: Streams the renderer through gopxl/beep's speaker package
package output

import (
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
	"github.com/harperreed/hush/pkg/audio"
)

// speakerLatency is the speaker buffer length
const speakerLatency = 100 * time.Millisecond

// Beep output using the beep speaker. The speaker is process global, so only
// one Beep output can be open at a time.
type Beep struct {
	mu     sync.Mutex
	open   bool
	stream *renderStreamer
}

// NewBeep creates a new beep speaker output
func NewBeep() Output {
	return &Beep{}
}

// Open initializes the speaker and starts streaming
func (b *Beep) Open(format audio.Format, r audio.Renderer) error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.open {
		return ErrAlreadyOpen
	}
	if err := format.Validate(); err != nil {
		return err
	}
	if format.Channels > 2 {
		return fmt.Errorf("beep output supports at most 2 channels, got %d", format.Channels)
	}

	sr := beep.SampleRate(format.SampleRate)
	if err := speaker.Init(sr, sr.N(speakerLatency)); err != nil {
		return fmt.Errorf("failed to initialize speaker: %w", err)
	}

	b.stream = &renderStreamer{r: r, channels: format.Channels}
	speaker.Play(b.stream)
	b.open = true

	log.Printf("Beep speaker initialized: %dHz, %d channels", format.SampleRate, format.Channels)
	return nil
}

// Resume resumes the speaker
func (b *Beep) Resume() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return ErrNotOpen
	}
	return speaker.Resume()
}

// Suspend suspends the speaker
func (b *Beep) Suspend() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return ErrNotOpen
	}
	return speaker.Suspend()
}

// Close stops streaming and releases the speaker
func (b *Beep) Close() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if !b.open {
		return nil
	}
	speaker.Clear()
	speaker.Close()
	b.open = false
	return nil
}

// renderStreamer adapts a Renderer to beep.Streamer
type renderStreamer struct {
	r        audio.Renderer
	channels int
	scratch  []float32
}

// Stream renders len(samples) frames, duplicating mono to both sides
func (s *renderStreamer) Stream(samples [][2]float64) (int, bool) {
	need := len(samples) * s.channels
	if cap(s.scratch) < need {
		s.scratch = make([]float32, need)
	}
	buf := s.scratch[:need]
	s.r.Render(buf)

	for i := range samples {
		left := buf[i*s.channels]
		right := left
		if s.channels > 1 {
			right = buf[i*s.channels+1]
		}
		samples[i][0] = float64(left)
		samples[i][1] = float64(right)
	}
	return len(samples), true
}

// Err always returns nil; the renderer cannot fail
func (s *renderStreamer) Err() error {
	return nil
}
