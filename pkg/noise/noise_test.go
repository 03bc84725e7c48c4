// ABOUTME: Tests for noise generation and the loop arena
// ABOUTME: Checks range, length, spectral tilt and memoization
package noise

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/harperreed/hush/pkg/analysis"
	"github.com/harperreed/hush/pkg/audio"
)

func TestParseSoundType(t *testing.T) {
	tests := []struct {
		input    string
		expected SoundType
		wantErr  bool
	}{
		{"white", White, false},
		{"Pink", Pink, false},
		{" BROWN ", Brown, false},
		{"rain", Rain, false},
		{"ocean", Ocean, false},
		{"fan", Fan, false},
		{"violet", White, true},
		{"", White, true},
	}

	for _, tt := range tests {
		t.Run(tt.input, func(t *testing.T) {
			got, err := ParseSoundType(tt.input)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownSoundType) {
					t.Errorf("expected ErrUnknownSoundType, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if got != tt.expected {
				t.Errorf("expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestSoundTypeNames(t *testing.T) {
	types := SoundTypes()
	if len(types) != 6 {
		t.Fatalf("expected 6 sound types, got %d", len(types))
	}
	for _, st := range types {
		parsed, err := ParseSoundType(st.String())
		if err != nil || parsed != st {
			t.Errorf("%v does not round-trip through its name", st)
		}
		if Describe(st) == "" {
			t.Errorf("%v has no description", st)
		}
	}
	if SoundType(42).Valid() {
		t.Error("expected SoundType(42) to be invalid")
	}
}

func TestGenerateRangeAndLength(t *testing.T) {
	for _, sampleRate := range []int{22050, 44100, 48000} {
		for _, st := range SoundTypes() {
			t.Run(st.String(), func(t *testing.T) {
				buf, err := Generate(st, sampleRate, rand.New(rand.NewSource(int64(st)+1)))
				if err != nil {
					t.Fatalf("Generate failed: %v", err)
				}
				if buf.NumberOfChannels() != 2 {
					t.Fatalf("expected 2 channels, got %d", buf.NumberOfChannels())
				}
				for ch := 0; ch < 2; ch++ {
					data := buf.ChannelData(ch)
					if len(data) != 2*sampleRate {
						t.Fatalf("channel %d: expected %d samples, got %d", ch, 2*sampleRate, len(data))
					}
					var energy float64
					for i, s := range data {
						if s < -1 || s > 1 || math.IsNaN(float64(s)) {
							t.Fatalf("channel %d sample %d out of range: %f", ch, i, s)
						}
						energy += float64(s) * float64(s)
					}
					if energy == 0 {
						t.Errorf("channel %d is silent", ch)
					}
				}
			})
		}
	}
}

func TestWhiteAt48kHz(t *testing.T) {
	buf, err := Generate(White, 48000, rand.New(rand.NewSource(1)))
	if err != nil {
		t.Fatalf("Generate failed: %v", err)
	}
	if buf.Length() != 96000 {
		t.Errorf("expected 96000 frames, got %d", buf.Length())
	}
	for ch := 0; ch < buf.NumberOfChannels(); ch++ {
		for _, s := range buf.ChannelData(ch) {
			if s < -1 || s > 1 {
				t.Fatalf("sample out of range: %f", s)
			}
		}
	}
}

func TestChannelsAreIndependent(t *testing.T) {
	buf, err := Generate(Pink, 44100, rand.New(rand.NewSource(3)))
	if err != nil {
		t.Fatal(err)
	}
	left, right := buf.ChannelData(0), buf.ChannelData(1)
	same := 0
	for i := range left {
		if left[i] == right[i] {
			same++
		}
	}
	if same > len(left)/100 {
		t.Errorf("channels look identical: %d of %d samples match", same, len(left))
	}
}

func highFrequencyRatio(t *testing.T, st SoundType) float64 {
	t.Helper()
	const sampleRate = 48000
	buf, err := Generate(st, sampleRate, rand.New(rand.NewSource(99)))
	if err != nil {
		t.Fatalf("Generate(%v) failed: %v", st, err)
	}
	a, err := analysis.NewAnalyzer(analysis.DefaultFFTSize)
	if err != nil {
		t.Fatal(err)
	}
	return a.HighFrequencyRatio(buf.ChannelData(0), sampleRate, 4000)
}

func TestSpectralTilt(t *testing.T) {
	white := highFrequencyRatio(t, White)
	pink := highFrequencyRatio(t, Pink)
	brown := highFrequencyRatio(t, Brown)

	if !(pink < white) {
		t.Errorf("expected pink (%.3f) to carry less high-frequency energy than white (%.3f)", pink, white)
	}
	if !(brown < pink) {
		t.Errorf("expected brown (%.3f) to carry less high-frequency energy than pink (%.3f)", brown, pink)
	}
}

func TestFillRejectsUnknownType(t *testing.T) {
	buf, err := audio.NewBuffer(LoopFormat(8000), LoopFrames(8000))
	if err != nil {
		t.Fatal(err)
	}
	if err := Fill(buf, SoundType(-1), nil); !errors.Is(err, ErrUnknownSoundType) {
		t.Errorf("expected ErrUnknownSoundType, got %v", err)
	}
}

func TestSynthesizerMemoizes(t *testing.T) {
	synth := NewSynthesizer(WithSeed(1))

	first, err := synth.Buffer(Ocean, 44100)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	second, err := synth.Buffer(Ocean, 44100)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	if first != second {
		t.Error("expected the same buffer on the second request")
	}

	other, err := synth.Buffer(Ocean, 48000)
	if err != nil {
		t.Fatalf("Buffer failed: %v", err)
	}
	if other == first {
		t.Error("expected a separate buffer per sample rate")
	}
	if synth.Cached() != 2 {
		t.Errorf("expected 2 cached loops, got %d", synth.Cached())
	}
}

func TestSynthesizerPreload(t *testing.T) {
	synth := NewSynthesizer(WithSeed(2))
	if err := synth.Preload(16000); err != nil {
		t.Fatalf("Preload failed: %v", err)
	}
	if synth.Cached() != 6 {
		t.Errorf("expected 6 cached loops, got %d", synth.Cached())
	}
}

func TestSynthesizerBufferUnavailable(t *testing.T) {
	synth := NewSynthesizer()
	if _, err := synth.Buffer(White, 1000); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected ErrBufferUnavailable for bad sample rate, got %v", err)
	}

	failing := NewSynthesizer(WithAllocator(AllocatorFunc(func(channels, frames, sampleRate int) (*audio.Buffer, error) {
		return nil, errors.New("out of memory")
	})))
	if _, err := failing.Buffer(White, 48000); !errors.Is(err, ErrBufferUnavailable) {
		t.Errorf("expected ErrBufferUnavailable from allocator, got %v", err)
	}
	if failing.Cached() != 0 {
		t.Error("failed allocations must not be cached")
	}
}

func TestSynthesizerSeedIsReproducible(t *testing.T) {
	a, err := NewSynthesizer(WithSeed(5)).Buffer(Fan, 8000)
	if err != nil {
		t.Fatal(err)
	}
	b, err := NewSynthesizer(WithSeed(5)).Buffer(Fan, 8000)
	if err != nil {
		t.Fatal(err)
	}
	for i, s := range a.ChannelData(1) {
		if b.ChannelData(1)[i] != s {
			t.Fatalf("sample %d differs between seeded synthesizers", i)
		}
	}
}
