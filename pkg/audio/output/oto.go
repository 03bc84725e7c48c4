// ABOUTME: Oto-based audio output implementation
// ABOUTME: A persistent oto player reads 16-bit PCM pulled from the renderer
package output

import (
	"encoding/binary"
	"fmt"
	"log"
	"sync"

	"github.com/ebitengine/oto/v3"
	"github.com/harperreed/hush/pkg/audio"
)

// Oto output implementation using oto library
type Oto struct {
	mu     sync.Mutex
	otoCtx *oto.Context
	player *oto.Player
	format audio.Format
}

// NewOto creates a new Oto output
func NewOto() Output {
	return &Oto{}
}

// Open initializes the output device
func (o *Oto) Open(format audio.Format, r audio.Renderer) error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx != nil {
		return ErrAlreadyOpen
	}
	if err := format.Validate(); err != nil {
		return err
	}

	op := &oto.NewContextOptions{
		SampleRate:   format.SampleRate,
		ChannelCount: format.Channels,
		Format:       oto.FormatSignedInt16LE,
	}

	ctx, readyChan, err := oto.NewContext(op)
	if err != nil {
		return fmt.Errorf("failed to create oto context: %w", err)
	}

	<-readyChan

	o.otoCtx = ctx
	o.format = format

	// Persistent player pulling from the renderer for the life of the output
	o.player = o.otoCtx.NewPlayer(newPCMReader(r, format.Channels))
	o.player.Play()

	log.Printf("Audio output initialized: %dHz, %d channels", format.SampleRate, format.Channels)

	return nil
}

// Resume restarts the oto context
func (o *Oto) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return ErrNotOpen
	}
	return o.otoCtx.Resume()
}

// Suspend pauses the oto context
func (o *Oto) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.otoCtx == nil {
		return ErrNotOpen
	}
	return o.otoCtx.Suspend()
}

// Close releases output resources. oto allows one context per process, so
// the context itself is only suspended.
func (o *Oto) Close() error {
	o.mu.Lock()
	defer o.mu.Unlock()

	if o.player != nil {
		if err := o.player.Close(); err != nil {
			log.Printf("Failed to close oto player: %v", err)
		}
		o.player = nil
	}
	if o.otoCtx != nil {
		if err := o.otoCtx.Suspend(); err != nil {
			log.Printf("Failed to suspend oto context: %v", err)
		}
		o.otoCtx = nil
	}
	return nil
}

// pcmReader adapts a Renderer to the io.Reader oto players consume
type pcmReader struct {
	r        audio.Renderer
	channels int
	samples  []float32
	pending  []byte
}

func newPCMReader(r audio.Renderer, channels int) *pcmReader {
	return &pcmReader{r: r, channels: channels}
}

// Read fills p with little-endian int16 frames. Partial frames left over
// from a short read are returned first on the next call.
func (p *pcmReader) Read(buf []byte) (int, error) {
	n := copy(buf, p.pending)
	p.pending = p.pending[n:]
	if n == len(buf) {
		return n, nil
	}

	frameBytes := 2 * p.channels
	frames := (len(buf) - n + frameBytes - 1) / frameBytes
	need := frames * p.channels
	if cap(p.samples) < need {
		p.samples = make([]float32, need)
	}
	samples := p.samples[:need]
	p.r.Render(samples)

	out := make([]byte, need*2)
	for i, s := range samples {
		binary.LittleEndian.PutUint16(out[i*2:], uint16(audio.FloatToInt16(s)))
	}

	m := copy(buf[n:], out)
	p.pending = append(p.pending[:0], out[m:]...)
	return n + m, nil
}
