// ABOUTME: Player configuration loaded from YAML with environment overrides
// ABOUTME: Defaults, hush.yaml, HUSH_* variables, then CLI flags, then Validate
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"time"

	"github.com/harperreed/hush/internal/timer"
	"github.com/harperreed/hush/pkg/audio"
	"github.com/harperreed/hush/pkg/audio/output"
	"github.com/harperreed/hush/pkg/noise"
	"gopkg.in/yaml.v3"
)

// DefaultFile is looked up in the working directory when no path is given
const DefaultFile = "hush.yaml"

// DefaultPort is the remote control port
const DefaultPort = 8928

// ErrInvalid wraps every validation failure
var ErrInvalid = errors.New("invalid configuration")

// Config is the application configuration
type Config struct {
	Name   string       `yaml:"name"`
	Audio  AudioConfig  `yaml:"audio"`
	Timer  TimerConfig  `yaml:"timer"`
	Remote RemoteConfig `yaml:"remote"`
	Log    LogConfig    `yaml:"log"`
}

// AudioConfig holds sound selection and device settings
type AudioConfig struct {
	Sound       string        `yaml:"sound"`        // Initially selected sound type
	Volume      int           `yaml:"volume"`       // 0-100
	SampleRate  int           `yaml:"sample_rate"`  // Render rate in Hz
	Backend     string        `yaml:"backend"`      // oto, beep or null
	SwitchDelay time.Duration `yaml:"switch_delay"` // Gap when switching sounds
	Preload     bool          `yaml:"preload"`      // Generate every loop at startup
	Seed        int64         `yaml:"seed"`         // Non-zero for reproducible noise
}

// TimerConfig holds sleep timer settings
type TimerConfig struct {
	Minutes int  `yaml:"minutes"` // Countdown length, 5-120
	Arm     bool `yaml:"arm"`     // Start playing with the timer armed
}

// RemoteConfig holds network control settings
type RemoteConfig struct {
	Enabled bool `yaml:"enabled"`
	Port    int  `yaml:"port"`
	MDNS    bool `yaml:"mdns"` // Advertise on the local network
}

// LogConfig holds logging settings
type LogConfig struct {
	File string `yaml:"file"`
}

// Default returns the built-in configuration
func Default() Config {
	hostname, _ := os.Hostname()
	name := "hush"
	if hostname != "" {
		name = "hush on " + hostname
	}

	return Config{
		Name: name,
		Audio: AudioConfig{
			Sound:       noise.Pink.String(),
			Volume:      50,
			SampleRate:  audio.DefaultSampleRate,
			Backend:     output.BackendOto,
			SwitchDelay: 50 * time.Millisecond,
		},
		Timer: TimerConfig{
			Minutes: timer.DefaultMinutes,
		},
		Remote: RemoteConfig{
			Enabled: true,
			Port:    DefaultPort,
			MDNS:    true,
		},
		Log: LogConfig{
			File: "hush.log",
		},
	}
}

// Load reads path, or DefaultFile when path is empty and it exists, over the
// defaults. Environment overrides are applied after the file.
func Load(path string) (*Config, error) {
	cfg := Default()

	if path == "" {
		if _, err := os.Stat(DefaultFile); err == nil {
			path = DefaultFile
		}
	}

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
		log.Printf("Loaded configuration from %s", path)
	}

	cfg.applyEnvOverrides()

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Validate checks every field against its allowed range
func (c *Config) Validate() error {
	if _, err := noise.ParseSoundType(c.Audio.Sound); err != nil {
		return fmt.Errorf("%w: audio.sound: %w", ErrInvalid, err)
	}
	if c.Audio.Volume < 0 || c.Audio.Volume > 100 {
		return fmt.Errorf("%w: audio.volume %d outside 0-100", ErrInvalid, c.Audio.Volume)
	}
	if c.Audio.SampleRate < audio.MinSampleRate || c.Audio.SampleRate > audio.MaxSampleRate {
		return fmt.Errorf("%w: audio.sample_rate %d outside %d-%d",
			ErrInvalid, c.Audio.SampleRate, audio.MinSampleRate, audio.MaxSampleRate)
	}
	if !validBackend(c.Audio.Backend) {
		return fmt.Errorf("%w: audio.backend %q (want one of %v)", ErrInvalid, c.Audio.Backend, output.Backends())
	}
	if c.Audio.SwitchDelay < 0 || c.Audio.SwitchDelay > time.Second {
		return fmt.Errorf("%w: audio.switch_delay %s outside 0-1s", ErrInvalid, c.Audio.SwitchDelay)
	}
	if err := timer.ValidateMinutes(c.Timer.Minutes); err != nil {
		return fmt.Errorf("%w: timer.minutes: %w", ErrInvalid, err)
	}
	if c.Remote.Enabled && (c.Remote.Port < 1 || c.Remote.Port > 65535) {
		return fmt.Errorf("%w: remote.port %d", ErrInvalid, c.Remote.Port)
	}
	return nil
}

// SoundType returns the parsed sound selection. Call after Validate.
func (c *Config) SoundType() noise.SoundType {
	t, _ := noise.ParseSoundType(c.Audio.Sound)
	return t
}

func validBackend(name string) bool {
	for _, b := range output.Backends() {
		if b == name {
			return true
		}
	}
	return false
}

// applyEnvOverrides reads HUSH_* variables; unparsable values are ignored
func (c *Config) applyEnvOverrides() {
	if val, ok := os.LookupEnv("HUSH_NAME"); ok {
		c.Name = val
		log.Printf("Overriding name from env: %s", val)
	}
	if val, ok := os.LookupEnv("HUSH_SOUND"); ok {
		c.Audio.Sound = val
		log.Printf("Overriding audio.sound from env: %s", val)
	}
	if val, ok := os.LookupEnv("HUSH_VOLUME"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.Volume = n
			log.Printf("Overriding audio.volume from env: %d", n)
		}
	}
	if val, ok := os.LookupEnv("HUSH_SAMPLE_RATE"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Audio.SampleRate = n
			log.Printf("Overriding audio.sample_rate from env: %d", n)
		}
	}
	if val, ok := os.LookupEnv("HUSH_BACKEND"); ok {
		c.Audio.Backend = val
		log.Printf("Overriding audio.backend from env: %s", val)
	}
	if val, ok := os.LookupEnv("HUSH_TIMER_MINUTES"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Timer.Minutes = n
			log.Printf("Overriding timer.minutes from env: %d", n)
		}
	}
	if val, ok := os.LookupEnv("HUSH_PORT"); ok {
		if n, err := strconv.Atoi(val); err == nil {
			c.Remote.Port = n
			log.Printf("Overriding remote.port from env: %d", n)
		}
	}
	if val, ok := os.LookupEnv("HUSH_REMOTE"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Remote.Enabled = b
			log.Printf("Overriding remote.enabled from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("HUSH_MDNS"); ok {
		if b, err := strconv.ParseBool(val); err == nil {
			c.Remote.MDNS = b
			log.Printf("Overriding remote.mdns from env: %v", b)
		}
	}
	if val, ok := os.LookupEnv("HUSH_LOG_FILE"); ok {
		c.Log.File = val
		log.Printf("Overriding log.file from env: %s", val)
	}
}
