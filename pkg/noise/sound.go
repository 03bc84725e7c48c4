// ABOUTME: Sound type enumeration for the noise generators
// ABOUTME: Parses and names the six supported noise colorations
package noise

import (
	"errors"
	"fmt"
	"strings"
)

// SoundType identifies one noise coloration
type SoundType int

const (
	White SoundType = iota
	Pink
	Brown
	Rain
	Ocean
	Fan

	soundTypeCount
)

// ErrUnknownSoundType is returned for names or values outside the enumeration
var ErrUnknownSoundType = errors.New("unknown sound type")

var soundNames = [soundTypeCount]string{
	White: "white",
	Pink:  "pink",
	Brown: "brown",
	Rain:  "rain",
	Ocean: "ocean",
	Fan:   "fan",
}

var soundDescriptions = [soundTypeCount]string{
	White: "Flat spectrum hiss, every frequency at equal power",
	Pink:  "Softer hiss rolling off at -3 dB per octave",
	Brown: "Deep rumble, random walk with a steep low-frequency tilt",
	Rain:  "White noise with a fast 10 Hz shimmer like steady rainfall",
	Ocean: "Noise that swells and recedes once per loop like surf",
	Fan:   "Low whoosh with a little air on top, like a desk fan",
}

// String returns the lowercase name of the sound
func (t SoundType) String() string {
	if !t.Valid() {
		return fmt.Sprintf("SoundType(%d)", int(t))
	}
	return soundNames[t]
}

// Valid reports whether t is one of the six sound types
func (t SoundType) Valid() bool {
	return t >= 0 && t < soundTypeCount
}

// Describe returns a short human description of the sound
func Describe(t SoundType) string {
	if !t.Valid() {
		return ""
	}
	return soundDescriptions[t]
}

// SoundTypes returns every sound type in display order
func SoundTypes() []SoundType {
	types := make([]SoundType, 0, soundTypeCount)
	for t := White; t < soundTypeCount; t++ {
		types = append(types, t)
	}
	return types
}

// ParseSoundType converts a case-insensitive name to a SoundType
func ParseSoundType(name string) (SoundType, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for t, n := range soundNames {
		if n == name {
			return SoundType(t), nil
		}
	}
	return White, fmt.Errorf("%w: %q", ErrUnknownSoundType, name)
}

// MarshalText encodes the sound as its name
func (t SoundType) MarshalText() ([]byte, error) {
	if !t.Valid() {
		return nil, fmt.Errorf("%w: %d", ErrUnknownSoundType, int(t))
	}
	return []byte(t.String()), nil
}

// UnmarshalText decodes a sound name
func (t *SoundType) UnmarshalText(text []byte) error {
	parsed, err := ParseSoundType(string(text))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}
