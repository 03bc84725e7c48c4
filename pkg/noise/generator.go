// ABOUTME: Procedural noise generators
// ABOUTME: Fills stereo loop buffers with one of six noise colorations
package noise

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/harperreed/hush/pkg/audio"
)

const (
	// LoopSeconds is the length of every generated loop
	LoopSeconds = 2

	// LoopChannels is the channel count of every generated loop
	LoopChannels = 2
)

// channelFiller writes one channel of a sound. Each call starts from fresh
// filter state so channels are independent.
type channelFiller func(dst []float32, rng *rand.Rand)

var fillers = [soundTypeCount]channelFiller{
	White: fillWhite,
	Pink:  fillPink,
	Brown: fillBrown,
	Rain:  fillRain,
	Ocean: fillOcean,
	Fan:   fillFan,
}

// LoopFormat returns the format of a loop generated at sampleRate
func LoopFormat(sampleRate int) audio.Format {
	return audio.Format{SampleRate: sampleRate, Channels: LoopChannels}
}

// LoopFrames returns the per-channel length of a loop at sampleRate
func LoopFrames(sampleRate int) int {
	return LoopSeconds * sampleRate
}

// Generate synthesizes an uncached loop of sound t at sampleRate
func Generate(t SoundType, sampleRate int, rng *rand.Rand) (*audio.Buffer, error) {
	buf, err := audio.NewBuffer(LoopFormat(sampleRate), LoopFrames(sampleRate))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBufferUnavailable, err)
	}
	if err := Fill(buf, t, rng); err != nil {
		return nil, err
	}
	return buf, nil
}

// Fill overwrites every channel of buf with sound t
func Fill(buf *audio.Buffer, t SoundType, rng *rand.Rand) error {
	if !t.Valid() {
		return fmt.Errorf("%w: %d", ErrUnknownSoundType, int(t))
	}
	if rng == nil {
		rng = rand.New(rand.NewSource(rand.Int63()))
	}

	fill := fillers[t]
	for ch := 0; ch < buf.NumberOfChannels(); ch++ {
		fill(buf.ChannelData(ch), rng)
	}
	return nil
}

// whiteSample draws one uniform sample in [-1, 1)
func whiteSample(rng *rand.Rand) float64 {
	return rng.Float64()*2 - 1
}

func fillWhite(dst []float32, rng *rand.Rand) {
	for i := range dst {
		dst[i] = float32(whiteSample(rng))
	}
}

// fillPink uses Paul Kellet's refined pink filter. The 0.11 output scale
// keeps loudness comparable to white noise.
func fillPink(dst []float32, rng *rand.Rand) {
	var b0, b1, b2, b3, b4, b5, b6 float64
	for i := range dst {
		white := whiteSample(rng)
		b0 = 0.99886*b0 + white*0.0555179
		b1 = 0.99332*b1 + white*0.0750759
		b2 = 0.96900*b2 + white*0.1538520
		b3 = 0.86650*b3 + white*0.3104856
		b4 = 0.55000*b4 + white*0.5329522
		b5 = -0.7616*b5 - white*0.0168980
		dst[i] = audio.Clamp((b0 + b1 + b2 + b3 + b4 + b5 + b6 + white*0.5362) * 0.11)
		b6 = white * 0.115926
	}
}

// fillBrown is a leaky integrator; 3.5 restores the level the leak removes.
func fillBrown(dst []float32, rng *rand.Rand) {
	var lastOut float64
	for i := range dst {
		white := whiteSample(rng)
		lastOut = (lastOut + 0.02*white) / 1.02
		dst[i] = audio.Clamp(lastOut * 3.5)
	}
}

func fillRain(dst []float32, rng *rand.Rand) {
	n := float64(len(dst))
	for i := range dst {
		phase := float64(i) / n
		intensity := 0.7 + 0.3*math.Sin(2*math.Pi*20*phase)
		dst[i] = audio.Clamp(whiteSample(rng) * intensity * 0.7)
	}
}

// fillOcean swells once per loop
func fillOcean(dst []float32, rng *rand.Rand) {
	n := float64(len(dst))
	for i := range dst {
		phase := float64(i) / n
		wave := 0.5 + 0.5*math.Sin(2*math.Pi*phase)
		dst[i] = audio.Clamp(whiteSample(rng) * (0.4 + 0.6*wave))
	}
}

func fillFan(dst []float32, rng *rand.Rand) {
	var lastOut float64
	for i := range dst {
		white := whiteSample(rng)
		lastOut = (lastOut + 0.1*white) / 1.1
		dst[i] = audio.Clamp(lastOut*2 + white*0.2)
	}
}
