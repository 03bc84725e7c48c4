// ABOUTME: Tests for the software audio graph
// ABOUTME: Uses a fake device to drive rendering by hand
package graph

import (
	"errors"
	"testing"
	"time"

	"github.com/harperreed/hush/pkg/audio"
)

type fakeDevice struct {
	renderer  audio.Renderer
	resumeErr error
	resumes   int
	suspends  int
	closed    bool
}

func (d *fakeDevice) Open(format audio.Format, r audio.Renderer) error {
	d.renderer = r
	return nil
}

func (d *fakeDevice) Resume() error {
	d.resumes++
	return d.resumeErr
}

func (d *fakeDevice) Suspend() error {
	d.suspends++
	return nil
}

func (d *fakeDevice) Close() error {
	d.closed = true
	return nil
}

func newTestContext(t *testing.T) (*Context, *fakeDevice) {
	t.Helper()
	dev := &fakeDevice{}
	ctx, err := NewContext(dev, audio.Format{SampleRate: 8000, Channels: 2})
	if err != nil {
		t.Fatalf("NewContext failed: %v", err)
	}
	return ctx, dev
}

func constantBuffer(t *testing.T, ctx *Context, frames int, value float32) *audio.Buffer {
	t.Helper()
	buf, err := ctx.CreateBuffer(2, frames, ctx.SampleRate())
	if err != nil {
		t.Fatalf("CreateBuffer failed: %v", err)
	}
	for ch := 0; ch < 2; ch++ {
		data := buf.ChannelData(ch)
		for i := range data {
			data[i] = value
		}
	}
	return buf
}

func TestNewContextStartsSuspended(t *testing.T) {
	ctx, dev := newTestContext(t)
	if ctx.State() != StateSuspended {
		t.Errorf("expected suspended, got %v", ctx.State())
	}
	if dev.renderer != ctx {
		t.Error("expected the context to be the device renderer")
	}
	if _, err := NewContext(nil, audio.Format{SampleRate: 8000, Channels: 2}); err == nil {
		t.Error("expected error for nil device")
	}
}

func TestResumeFailureStaysSuspended(t *testing.T) {
	ctx, dev := newTestContext(t)
	dev.resumeErr = errors.New("blocked")

	if err := ctx.Resume(); err == nil {
		t.Fatal("expected resume error")
	}
	if ctx.State() != StateSuspended {
		t.Errorf("expected suspended after failed resume, got %v", ctx.State())
	}

	dev.resumeErr = nil
	if err := ctx.Resume(); err != nil {
		t.Fatalf("Resume failed: %v", err)
	}
	if ctx.State() != StateRunning {
		t.Errorf("expected running, got %v", ctx.State())
	}
}

func TestRenderSilentWhileSuspended(t *testing.T) {
	ctx, _ := newTestContext(t)
	gain := ctx.CreateGain()
	if err := gain.Connect(ctx.Destination()); err != nil {
		t.Fatal(err)
	}
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 16, 0.5))
	if err := src.Connect(gain); err != nil {
		t.Fatal(err)
	}
	if err := src.Start(0); err != nil {
		t.Fatal(err)
	}

	dst := make([]float32, 8)
	ctx.Render(dst)
	for i, v := range dst {
		if v != 0 {
			t.Fatalf("sample %d: expected silence, got %f", i, v)
		}
	}
	if ctx.RenderedFrames() != 0 {
		t.Error("suspended context must not advance")
	}
}

func TestRenderAppliesGainAndLoops(t *testing.T) {
	ctx, _ := newTestContext(t)
	if err := ctx.Resume(); err != nil {
		t.Fatal(err)
	}

	gain := ctx.CreateGain()
	gain.SetValue(0.5)
	if err := gain.Connect(ctx.Destination()); err != nil {
		t.Fatal(err)
	}
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 3, 0.8))
	src.SetLoop(true)
	if err := src.Connect(gain); err != nil {
		t.Fatal(err)
	}
	if err := src.Start(0); err != nil {
		t.Fatal(err)
	}

	// 10 frames from a 3 frame loop
	dst := make([]float32, 20)
	ctx.Render(dst)
	for i, v := range dst {
		if v < 0.399 || v > 0.401 {
			t.Fatalf("sample %d: expected 0.4, got %f", i, v)
		}
	}
	if !src.Playing() {
		t.Error("looping source should still be playing")
	}
	if ctx.RenderedFrames() != 10 {
		t.Errorf("expected 10 rendered frames, got %d", ctx.RenderedFrames())
	}
}

func TestNonLoopingSourceEnds(t *testing.T) {
	ctx, _ := newTestContext(t)
	_ = ctx.Resume()

	gain := ctx.CreateGain()
	_ = gain.Connect(ctx.Destination())
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 2, 0.25))
	_ = src.Connect(gain)
	_ = src.Start(0)

	dst := make([]float32, 8)
	ctx.Render(dst)
	if dst[0] != 0.25 || dst[3] != 0.25 {
		t.Errorf("expected the first two frames to carry the buffer, got %v", dst)
	}
	if dst[4] != 0 || dst[7] != 0 {
		t.Errorf("expected silence after the buffer ends, got %v", dst)
	}
	if src.Playing() {
		t.Error("expected source to have ended")
	}
	if len(ctx.ActiveSources()) != 0 {
		t.Error("ended source should be pruned")
	}
}

func TestSourceIsSingleUse(t *testing.T) {
	ctx, _ := newTestContext(t)
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 4, 0.1))

	if err := src.Stop(); !errors.Is(err, ErrSourceNotStarted) {
		t.Errorf("expected ErrSourceNotStarted, got %v", err)
	}
	if err := src.Start(0); err != nil {
		t.Fatalf("Start failed: %v", err)
	}
	if err := src.Start(0); !errors.Is(err, ErrSourceStarted) {
		t.Errorf("expected ErrSourceStarted, got %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("Stop failed: %v", err)
	}
	if err := src.Stop(); err != nil {
		t.Errorf("second Stop should be a no-op, got %v", err)
	}
	if err := src.Start(0); !errors.Is(err, ErrSourceStarted) {
		t.Errorf("restarting a stopped source: expected ErrSourceStarted, got %v", err)
	}
}

func TestStartRequiresBuffer(t *testing.T) {
	ctx, _ := newTestContext(t)
	if err := ctx.CreateBufferSource(nil).Start(0); !errors.Is(err, ErrNoBuffer) {
		t.Errorf("expected ErrNoBuffer, got %v", err)
	}
}

func TestStartDelay(t *testing.T) {
	ctx, _ := newTestContext(t)
	_ = ctx.Resume()

	gain := ctx.CreateGain()
	_ = gain.Connect(ctx.Destination())
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 8, 1))
	src.SetLoop(true)
	_ = src.Connect(gain)

	// 8000 Hz: 1ms is 8 frames
	if err := src.Start(time.Millisecond); err != nil {
		t.Fatal(err)
	}
	if !src.Pending() {
		t.Error("expected source to be pending")
	}

	dst := make([]float32, 2*8)
	ctx.Render(dst)
	for _, v := range dst {
		if v != 0 {
			t.Fatalf("expected silence during the start delay, got %v", dst)
		}
	}
	if src.Pending() {
		t.Error("delay should have elapsed")
	}

	ctx.Render(dst)
	if dst[0] != 1 {
		t.Errorf("expected audio after the delay, got %f", dst[0])
	}
}

func TestStopDetachesSource(t *testing.T) {
	ctx, _ := newTestContext(t)
	gain := ctx.CreateGain()
	_ = gain.Connect(ctx.Destination())
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 4, 0.1))
	_ = src.Connect(gain)
	_ = src.Start(0)

	if len(gain.Sources()) != 1 || len(ctx.ActiveSources()) != 1 {
		t.Fatal("expected one attached source")
	}
	_ = src.Stop()
	if len(gain.Sources()) != 0 || len(ctx.ActiveSources()) != 0 {
		t.Error("expected stop to detach the source")
	}
}

func TestGainValueClamped(t *testing.T) {
	ctx, _ := newTestContext(t)
	g := ctx.CreateGain()
	if g.Value() != 1 {
		t.Errorf("expected unity default, got %f", g.Value())
	}
	g.SetValue(-3)
	if g.Value() != 0 {
		t.Errorf("expected negative gain to become 0, got %f", g.Value())
	}
}

func TestForeignNodesRejected(t *testing.T) {
	a, _ := newTestContext(t)
	b, _ := newTestContext(t)

	if err := a.CreateGain().Connect(b.Destination()); !errors.Is(err, ErrForeignNode) {
		t.Errorf("expected ErrForeignNode, got %v", err)
	}
	src := a.CreateBufferSource(nil)
	if err := src.Connect(b.CreateGain()); !errors.Is(err, ErrForeignNode) {
		t.Errorf("expected ErrForeignNode, got %v", err)
	}
}

func TestMixClipsToUnitRange(t *testing.T) {
	ctx, _ := newTestContext(t)
	_ = ctx.Resume()
	gain := ctx.CreateGain()
	_ = gain.Connect(ctx.Destination())

	for i := 0; i < 3; i++ {
		src := ctx.CreateBufferSource(constantBuffer(t, ctx, 4, 0.9))
		src.SetLoop(true)
		_ = src.Connect(gain)
		_ = src.Start(0)
	}

	dst := make([]float32, 8)
	ctx.Render(dst)
	for i, v := range dst {
		if v != 1 {
			t.Fatalf("sample %d: expected clipped 1.0, got %f", i, v)
		}
	}
}

func TestCloseStopsEverything(t *testing.T) {
	ctx, dev := newTestContext(t)
	gain := ctx.CreateGain()
	_ = gain.Connect(ctx.Destination())
	src := ctx.CreateBufferSource(constantBuffer(t, ctx, 4, 0.1))
	_ = src.Connect(gain)
	_ = src.Start(0)

	if err := ctx.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}
	if !dev.closed {
		t.Error("expected device to be closed")
	}
	if src.Playing() {
		t.Error("expected source stopped after close")
	}
	if err := ctx.Resume(); !errors.Is(err, ErrContextClosed) {
		t.Errorf("expected ErrContextClosed, got %v", err)
	}
	if _, err := ctx.CreateBuffer(2, 4, 8000); !errors.Is(err, ErrContextClosed) {
		t.Errorf("expected ErrContextClosed, got %v", err)
	}
	if err := ctx.Close(); err != nil {
		t.Errorf("second Close should be a no-op, got %v", err)
	}
}
