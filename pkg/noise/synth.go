// ABOUTME: Memoizing noise synthesizer
// ABOUTME: Owns the per-sound buffer arena, filled lazily and kept for the session
package noise

import (
	"errors"
	"fmt"
	"log"
	"math/rand"
	"sync"
	"time"

	"github.com/harperreed/hush/pkg/audio"
)

// ErrBufferUnavailable is returned when a loop cannot be allocated
var ErrBufferUnavailable = errors.New("noise buffer unavailable")

// Allocator creates silent buffers. The audio graph context satisfies it.
type Allocator interface {
	CreateBuffer(channels, frames, sampleRate int) (*audio.Buffer, error)
}

// AllocatorFunc adapts a function to the Allocator interface
type AllocatorFunc func(channels, frames, sampleRate int) (*audio.Buffer, error)

// CreateBuffer calls f
func (f AllocatorFunc) CreateBuffer(channels, frames, sampleRate int) (*audio.Buffer, error) {
	return f(channels, frames, sampleRate)
}

var defaultAllocator = AllocatorFunc(func(channels, frames, sampleRate int) (*audio.Buffer, error) {
	return audio.NewBuffer(audio.Format{SampleRate: sampleRate, Channels: channels}, frames)
})

type cacheKey struct {
	sound      SoundType
	sampleRate int
}

// Synthesizer generates loops on first request and memoizes them.
// Entries are never invalidated.
type Synthesizer struct {
	mu        sync.RWMutex
	store     map[cacheKey]*audio.Buffer
	rng       *rand.Rand
	allocator Allocator
}

// Option configures a Synthesizer
type Option func(*Synthesizer)

// WithSeed makes generated content reproducible
func WithSeed(seed int64) Option {
	return func(s *Synthesizer) {
		s.rng = rand.New(rand.NewSource(seed))
	}
}

// WithAllocator routes buffer allocation through a
func WithAllocator(a Allocator) Option {
	return func(s *Synthesizer) {
		if a != nil {
			s.allocator = a
		}
	}
}

// NewSynthesizer creates an empty synthesizer
func NewSynthesizer(opts ...Option) *Synthesizer {
	s := &Synthesizer{
		store:     make(map[cacheKey]*audio.Buffer),
		rng:       rand.New(rand.NewSource(time.Now().UnixNano())),
		allocator: defaultAllocator,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Buffer returns the cached loop for t at sampleRate, generating it if needed
func (s *Synthesizer) Buffer(t SoundType, sampleRate int) (*audio.Buffer, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSoundType, int(t))
	}
	if sampleRate < audio.MinSampleRate || sampleRate > audio.MaxSampleRate {
		return nil, fmt.Errorf("%w: sample rate %d", ErrBufferUnavailable, sampleRate)
	}

	key := cacheKey{sound: t, sampleRate: sampleRate}

	s.mu.RLock()
	buf, ok := s.store[key]
	s.mu.RUnlock()
	if ok {
		return buf, nil
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	// Double-check after acquiring write lock
	if buf, ok := s.store[key]; ok {
		return buf, nil
	}

	buf, err := s.allocator.CreateBuffer(LoopChannels, LoopFrames(sampleRate), sampleRate)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferUnavailable, err)
	}
	if buf.NumberOfChannels() != LoopChannels || buf.Length() != LoopFrames(sampleRate) {
		return nil, fmt.Errorf("%w: allocator returned %dch x %d frames",
			ErrBufferUnavailable, buf.NumberOfChannels(), buf.Length())
	}

	// rng is only touched under the write lock
	if err := Fill(buf, t, s.rng); err != nil {
		return nil, err
	}

	s.store[key] = buf
	log.Printf("Generated %s noise loop: %dHz, %d frames", t, sampleRate, buf.Length())
	return buf, nil
}

// Preload generates loops ahead of the first play
func (s *Synthesizer) Preload(sampleRate int, types ...SoundType) error {
	if len(types) == 0 {
		types = SoundTypes()
	}
	for _, t := range types {
		if _, err := s.Buffer(t, sampleRate); err != nil {
			return err
		}
	}
	return nil
}

// Cached returns the number of loops held in the arena
func (s *Synthesizer) Cached() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.store)
}
