// ABOUTME: FFT-based spectral measurements for generated noise
// ABOUTME: Averages windowed power spectra and sums energy per frequency band
package analysis

import (
	"errors"
	"fmt"
	"math/cmplx"

	"gonum.org/v1/gonum/dsp/fourier"
	"gonum.org/v1/gonum/dsp/window"
)

// DefaultFFTSize balances resolution against averaging for 2 s loops
const DefaultFFTSize = 4096

// ErrFFTSize is returned for FFT sizes that are not a power of two
var ErrFFTSize = errors.New("fft size must be a power of two")

// Band is a named frequency range and the share of energy that falls in it
type Band struct {
	Name   string
	LowHz  float64
	HighHz float64
	Share  float64 // fraction of total energy, 0..1
}

// DefaultBands returns the bands used by the analyze report
func DefaultBands(sampleRate int) []Band {
	return []Band{
		{Name: "sub", LowHz: 0, HighHz: 60},
		{Name: "bass", LowHz: 60, HighHz: 250},
		{Name: "lowMid", LowHz: 250, HighHz: 500},
		{Name: "mid", LowHz: 500, HighHz: 2000},
		{Name: "highMid", LowHz: 2000, HighHz: 4000},
		{Name: "treble", LowHz: 4000, HighHz: float64(sampleRate) / 2},
	}
}

// Analyzer computes averaged power spectra with a Hann window.
// It is not safe for concurrent use.
type Analyzer struct {
	size   int
	fft    *fourier.FFT
	window []float64
	input  []float64
	coeffs []complex128
}

// NewAnalyzer creates an analyzer for frames of size samples
func NewAnalyzer(size int) (*Analyzer, error) {
	if size < 2 || size&(size-1) != 0 {
		return nil, fmt.Errorf("%w: %d", ErrFFTSize, size)
	}

	coeffs := make([]float64, size)
	for i := range coeffs {
		coeffs[i] = 1
	}

	return &Analyzer{
		size:   size,
		fft:    fourier.NewFFT(size),
		window: window.Hann(coeffs),
		input:  make([]float64, size),
		coeffs: make([]complex128, size/2+1),
	}, nil
}

// Size returns the FFT frame size
func (a *Analyzer) Size() int { return a.size }

// BinFrequency returns the center frequency of bin i in Hz
func (a *Analyzer) BinFrequency(i, sampleRate int) float64 {
	return a.fft.Freq(i) * float64(sampleRate)
}

// PowerSpectrum averages |X(f)|^2 over consecutive non-overlapping frames.
// It returns nil when samples is shorter than one frame.
func (a *Analyzer) PowerSpectrum(samples []float32) []float64 {
	frames := len(samples) / a.size
	if frames == 0 {
		return nil
	}

	power := make([]float64, a.size/2+1)
	for f := 0; f < frames; f++ {
		frame := samples[f*a.size : (f+1)*a.size]
		for i, s := range frame {
			a.input[i] = float64(s) * a.window[i]
		}
		a.coeffs = a.fft.Coefficients(a.coeffs, a.input)
		for i, c := range a.coeffs {
			m := cmplx.Abs(c)
			power[i] += m * m
		}
	}

	for i := range power {
		power[i] /= float64(frames)
	}
	return power
}

// BandEnergy sums the averaged power between lowHz (inclusive) and highHz (exclusive)
func (a *Analyzer) BandEnergy(samples []float32, sampleRate int, lowHz, highHz float64) float64 {
	power := a.PowerSpectrum(samples)
	return a.sumBand(power, sampleRate, lowHz, highHz)
}

// HighFrequencyRatio is the share of energy at or above cutoffHz.
// White noise at 48 kHz with a 4 kHz cutoff sits near 0.83.
func (a *Analyzer) HighFrequencyRatio(samples []float32, sampleRate int, cutoffHz float64) float64 {
	power := a.PowerSpectrum(samples)
	total := a.sumBand(power, sampleRate, 0, float64(sampleRate))
	if total == 0 {
		return 0
	}
	return a.sumBand(power, sampleRate, cutoffHz, float64(sampleRate)) / total
}

// Profile fills the Share of each band
func (a *Analyzer) Profile(samples []float32, sampleRate int, bands []Band) []Band {
	power := a.PowerSpectrum(samples)
	total := a.sumBand(power, sampleRate, 0, float64(sampleRate))

	out := make([]Band, len(bands))
	copy(out, bands)
	if total == 0 {
		return out
	}
	for i := range out {
		high := out[i].HighHz
		// Include Nyquist in the top band
		if high >= float64(sampleRate)/2 {
			high = float64(sampleRate)
		}
		out[i].Share = a.sumBand(power, sampleRate, out[i].LowHz, high) / total
	}
	return out
}

func (a *Analyzer) sumBand(power []float64, sampleRate int, lowHz, highHz float64) float64 {
	var sum float64
	for i, p := range power {
		freq := a.BinFrequency(i, sampleRate)
		if freq >= lowHz && freq < highHz {
			sum += p
		}
	}
	return sum
}
