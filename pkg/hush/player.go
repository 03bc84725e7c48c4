// ABOUTME: Player composing the synthesizer, playback engine and sleep timer
// ABOUTME: All intents and timer ticks run on a single event loop goroutine
package hush

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"github.com/harperreed/hush/internal/player"
	"github.com/harperreed/hush/internal/timer"
	"github.com/harperreed/hush/pkg/audio"
	"github.com/harperreed/hush/pkg/audio/graph"
	"github.com/harperreed/hush/pkg/audio/output"
	"github.com/harperreed/hush/pkg/noise"
)

// Sentinel errors
var (
	ErrNotPlaying = errors.New("timer can only be armed while playing")
	ErrClosed     = errors.New("player closed")
)

// PlayerConfig holds player configuration
type PlayerConfig struct {
	// Sound is the initially selected sound type
	Sound noise.SoundType

	// Volume is the initial volume (0-100)
	Volume int

	// TimerMinutes is the initial sleep timer duration (default: 30)
	TimerMinutes int

	// SampleRate is the render rate in Hz (default: 48000)
	SampleRate int

	// Output is the audio device (default: oto)
	Output output.Output

	// Clock drives the sleep timer (default: wall clock)
	Clock timer.Clock

	// SwitchDelay separates sounds when switching (default: 50ms)
	SwitchDelay time.Duration

	// Seed makes generated noise reproducible when non-zero
	Seed int64

	// Preload generates every loop up front instead of on first play
	Preload bool

	// OnStateChange is called from the event loop after every change.
	// It must not call back into the Player.
	OnStateChange func(PlayerState)

	// OnError is called for failures that leave playback stopped
	OnError func(error)
}

type command struct {
	fn    func() error
	reply chan error
}

// Player is the control surface over one audio graph
type Player struct {
	config PlayerConfig

	// Components
	graph  *graph.Context
	synth  *noise.Synthesizer
	engine *player.Engine
	timer  *timer.Timer

	// Event loop
	cmds      chan command
	quit      chan struct{}
	done      chan struct{}
	quitOnce  sync.Once
	closeOnce sync.Once
	running   atomic.Bool

	// State, owned by the event loop
	state   PlayerState
	blocked bool

	// Last published state for readers after the loop exits
	mu   sync.Mutex
	last PlayerState
}

// NewPlayer creates a new player with the given configuration
func NewPlayer(config PlayerConfig) (*Player, error) {
	// Set defaults
	if config.TimerMinutes == 0 {
		config.TimerMinutes = timer.DefaultMinutes
	}
	if config.SampleRate == 0 {
		config.SampleRate = audio.DefaultSampleRate
	}
	if config.Output == nil {
		config.Output = output.NewOto()
	}
	if config.Clock == nil {
		config.Clock = timer.RealClock{}
	}
	if config.SwitchDelay == 0 {
		config.SwitchDelay = player.DefaultSwitchDelay
	}
	if !config.Sound.Valid() {
		return nil, fmt.Errorf("%w: %d", noise.ErrUnknownSoundType, int(config.Sound))
	}
	if err := timer.ValidateMinutes(config.TimerMinutes); err != nil {
		return nil, err
	}

	ctx, err := graph.NewContext(config.Output, audio.Format{
		SampleRate: config.SampleRate,
		Channels:   noise.LoopChannels,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create audio context: %w", err)
	}

	synthOpts := []noise.Option{noise.WithAllocator(noise.AllocatorFunc(ctx.CreateBuffer))}
	if config.Seed != 0 {
		synthOpts = append(synthOpts, noise.WithSeed(config.Seed))
	}
	synth := noise.NewSynthesizer(synthOpts...)

	if config.Preload {
		if err := synth.Preload(config.SampleRate); err != nil {
			_ = ctx.Close()
			return nil, fmt.Errorf("failed to preload sounds: %w", err)
		}
	}

	engine, err := player.NewEngine(ctx, synth, player.WithSwitchDelay(config.SwitchDelay))
	if err != nil {
		_ = ctx.Close()
		return nil, err
	}
	engine.SetVolume(config.Volume)
	_ = engine.SwitchType(config.Sound)

	p := &Player{
		config: config,
		graph:  ctx,
		synth:  synth,
		engine: engine,
		cmds:   make(chan command),
		quit:   make(chan struct{}),
		done:   make(chan struct{}),
	}
	p.timer = timer.New(config.Clock, p.onTimerExpired)
	_ = p.timer.SetMinutes(config.TimerMinutes)
	p.refresh()

	return p, nil
}

// Run processes intents and timer ticks until ctx is cancelled or Close is
// called. It releases the audio device before returning.
func (p *Player) Run(ctx context.Context) error {
	if !p.running.CompareAndSwap(false, true) {
		return fmt.Errorf("player already running")
	}
	defer p.shutdown()

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-p.quit:
			return nil

		case cmd := <-p.cmds:
			cmd.reply <- cmd.fn()

		case <-p.timer.C():
			p.timer.Tick()
			p.publish()
		}
	}
}

// Close stops playback and releases the audio device
func (p *Player) Close() error {
	p.quitOnce.Do(func() { close(p.quit) })
	if p.running.Load() {
		<-p.done
		return nil
	}
	p.shutdown()
	return nil
}

// Play starts t, re-arming an active timer to its full duration
func (p *Player) Play(t noise.SoundType) error {
	return p.do(func() error { return p.play(t) })
}

// Stop stops playback and disarms the timer. Safe when already stopped.
func (p *Player) Stop() error {
	return p.do(func() error {
		p.stop()
		return nil
	})
}

// Toggle plays the selected sound when stopped and stops it when playing
func (p *Player) Toggle() error {
	return p.do(func() error {
		if p.engine.Playing() {
			p.stop()
			return nil
		}
		return p.play(p.engine.Sound())
	})
}

// SwitchType selects t; while playing the new sound replaces the old one
func (p *Player) SwitchType(t noise.SoundType) error {
	return p.do(func() error {
		wasPlaying := p.engine.Playing()
		if err := p.engine.SwitchType(t); err != nil {
			if wasPlaying {
				return p.fail(err)
			}
			return err
		}
		if wasPlaying && p.timer.Active() {
			p.timer.Rearm()
		}
		p.publish()
		return nil
	})
}

// SetVolume sets the volume (0-100), clamping out of range values
func (p *Player) SetVolume(v int) error {
	return p.do(func() error {
		p.engine.SetVolume(v)
		p.publish()
		return nil
	})
}

// ArmTimer starts the sleep timer. While stopped only the duration is
// recorded and ErrNotPlaying is returned; arming an armed timer is a no-op.
func (p *Player) ArmTimer(minutes int) error {
	return p.do(func() error {
		if err := timer.ValidateMinutes(minutes); err != nil {
			return err
		}
		if !p.engine.Playing() {
			_ = p.timer.SetMinutes(minutes)
			p.publish()
			return ErrNotPlaying
		}
		if err := p.timer.Arm(minutes); err != nil {
			return err
		}
		p.publish()
		return nil
	})
}

// DisarmTimer cancels the countdown without stopping playback
func (p *Player) DisarmTimer() error {
	return p.do(func() error {
		p.timer.Disarm()
		p.publish()
		return nil
	})
}

// SetTimerMinutes changes the timer duration, restarting an armed countdown
func (p *Player) SetTimerMinutes(minutes int) error {
	return p.do(func() error {
		if err := p.timer.SetMinutes(minutes); err != nil {
			return err
		}
		p.publish()
		return nil
	})
}

// Snapshot returns the current state. Once the player has closed it returns
// the last published state.
func (p *Player) Snapshot() PlayerState {
	var s PlayerState
	err := p.do(func() error {
		s = p.state
		return nil
	})
	if err != nil {
		p.mu.Lock()
		defer p.mu.Unlock()
		return p.last
	}
	s.Switching = p.engine.State() == player.StateSwitching
	return s
}

// SampleRate returns the render rate in Hz
func (p *Player) SampleRate() int {
	return p.config.SampleRate
}

// do runs fn on the event loop and waits for its result
func (p *Player) do(fn func() error) error {
	reply := make(chan error, 1)
	select {
	case p.cmds <- command{fn: fn, reply: reply}:
	case <-p.done:
		return ErrClosed
	case <-p.quit:
		return ErrClosed
	}
	return <-reply
}

func (p *Player) play(t noise.SoundType) error {
	timerWasActive := p.timer.Active()

	if err := p.engine.Play(t); err != nil {
		return p.fail(err)
	}

	p.blocked = false
	if timerWasActive {
		p.timer.Rearm()
	}
	p.publish()
	return nil
}

func (p *Player) stop() {
	p.engine.Stop()
	p.timer.Disarm()
	p.publish()
}

// fail handles an intent that left playback stopped
func (p *Player) fail(err error) error {
	if errors.Is(err, player.ErrContextSuspended) {
		p.blocked = true
	}
	p.engine.Stop()
	p.timer.Disarm()
	p.publish()
	p.notifyError(err)
	return err
}

func (p *Player) onTimerExpired() {
	log.Printf("Sleep timer stopped playback")
	p.engine.Stop()
}

// refresh derives the state from the engine and timer
func (p *Player) refresh() {
	p.state = PlayerState{
		Playing:          p.engine.Playing(),
		Switching:        p.engine.State() == player.StateSwitching,
		Sound:            p.engine.Sound(),
		Volume:           p.engine.Volume(),
		TimerActive:      p.timer.Active(),
		TimerMinutes:     p.timer.Minutes(),
		RemainingSeconds: p.timer.Remaining(),
		AudioBlocked:     p.blocked,
	}

	p.mu.Lock()
	p.last = p.state
	p.mu.Unlock()
}

// publish refreshes the state and reports it
func (p *Player) publish() {
	p.refresh()
	if p.config.OnStateChange != nil {
		p.config.OnStateChange(p.state)
	}
}

func (p *Player) notifyError(err error) {
	log.Printf("Player error: %v", err)
	if p.config.OnError != nil {
		p.config.OnError(err)
	}
}

func (p *Player) shutdown() {
	p.closeOnce.Do(func() {
		p.engine.Close()
		p.timer.Disarm()
		p.refresh()
		if err := p.graph.Close(); err != nil {
			log.Printf("Failed to close audio context: %v", err)
		}
		close(p.done)
	})
}
