// ABOUTME: Audio output interface definition
// ABOUTME: Common interface for pull-model playback backends
package output

import (
	"errors"

	"github.com/harperreed/hush/pkg/audio"
)

// Sentinel errors
var (
	ErrNotOpen     = errors.New("output not open")
	ErrAlreadyOpen = errors.New("output already open")
)

// Output represents an audio output device. The device pulls interleaved
// frames from the renderer on its own goroutine while resumed.
type Output interface {
	// Open initializes the device; it may start suspended
	Open(format audio.Format, r audio.Renderer) error

	// Resume starts pulling frames
	Resume() error

	// Suspend stops pulling frames without releasing the device
	Suspend() error

	// Close releases output resources
	Close() error
}

// Backend names accepted by New
const (
	BackendOto  = "oto"
	BackendBeep = "beep"
	BackendNull = "null"
)

// Backends lists the selectable output backends
func Backends() []string {
	return []string{BackendOto, BackendBeep, BackendNull}
}

// New returns the output for a backend name
func New(backend string) (Output, error) {
	switch backend {
	case BackendOto, "":
		return NewOto(), nil
	case BackendBeep:
		return NewBeep(), nil
	case BackendNull:
		return NewNull(), nil
	default:
		return nil, errors.New("unknown output backend: " + backend)
	}
}
