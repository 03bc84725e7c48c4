// ABOUTME: Headless audio output implementation
// ABOUTME: Discards rendered audio; frames are pulled by hand for tests
package output

import (
	"sync"

	"github.com/harperreed/hush/pkg/audio"
)

// Null is an output with no device. Frames are only rendered when Pull is
// called, which keeps tests deterministic.
type Null struct {
	mu        sync.Mutex
	renderer  audio.Renderer
	format    audio.Format
	resumed   bool
	resumeErr error
	resumes   int
}

// NewNull creates a headless output
func NewNull() *Null {
	return &Null{}
}

// FailResume makes every following Resume return err until cleared with nil.
// It simulates a platform that blocks audio until user interaction.
func (n *Null) FailResume(err error) {
	n.mu.Lock()
	n.resumeErr = err
	n.mu.Unlock()
}

// Open records the renderer
func (n *Null) Open(format audio.Format, r audio.Renderer) error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.renderer != nil {
		return ErrAlreadyOpen
	}
	if err := format.Validate(); err != nil {
		return err
	}
	n.renderer = r
	n.format = format
	return nil
}

// Resume marks the output running unless a failure is injected
func (n *Null) Resume() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.renderer == nil {
		return ErrNotOpen
	}
	n.resumes++
	if n.resumeErr != nil {
		return n.resumeErr
	}
	n.resumed = true
	return nil
}

// Suspend marks the output paused
func (n *Null) Suspend() error {
	n.mu.Lock()
	defer n.mu.Unlock()

	if n.renderer == nil {
		return ErrNotOpen
	}
	n.resumed = false
	return nil
}

// Close detaches the renderer
func (n *Null) Close() error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.renderer = nil
	n.resumed = false
	return nil
}

// Resumed reports whether the output is running
func (n *Null) Resumed() bool {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resumed
}

// Resumes returns how many times Resume was attempted
func (n *Null) Resumes() int {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.resumes
}

// Pull renders frames interleaved frames from the renderer and returns them.
// It returns nil when the output is closed.
func (n *Null) Pull(frames int) []float32 {
	n.mu.Lock()
	r, channels := n.renderer, n.format.Channels
	n.mu.Unlock()

	if r == nil {
		return nil
	}
	buf := make([]float32, frames*channels)
	r.Render(buf)
	return buf
}
