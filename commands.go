// ABOUTME: Command tree for the hush CLI
// ABOUTME: Runs the player and the sounds, analyze, discover and remote helpers
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math/rand"
	"os"
	"os/signal"
	"strconv"
	"syscall"
	"text/tabwriter"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/harperreed/hush/internal/config"
	"github.com/harperreed/hush/internal/discovery"
	"github.com/harperreed/hush/internal/remote"
	"github.com/harperreed/hush/internal/ui"
	"github.com/harperreed/hush/internal/version"
	"github.com/harperreed/hush/pkg/analysis"
	"github.com/harperreed/hush/pkg/audio/output"
	"github.com/harperreed/hush/pkg/hush"
	"github.com/harperreed/hush/pkg/noise"
	"github.com/harperreed/hush/pkg/protocol"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
)

// runOptions holds flags for the root command
type runOptions struct {
	configPath string
	sound      string
	volume     int
	timer      int
	backend    string
	sampleRate int
	port       int
	name       string
	logFile    string
	noRemote   bool
	noMDNS     bool
	noTUI      bool
	arm        bool
}

func newRootCmd() *cobra.Command {
	opts := &runOptions{}

	rootCmd := &cobra.Command{
		Use:           version.Product,
		Short:         "Procedural ambient noise for sleep and focus",
		Version:       version.Version,
		SilenceErrors: true,
		SilenceUsage:  true,
		CompletionOptions: cobra.CompletionOptions{
			DisableDefaultCmd: true,
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd.Flags(), opts)
			if err != nil {
				return err
			}
			return runPlayer(cfg, !opts.noTUI)
		},
	}

	opts.bind(rootCmd.Flags())

	rootCmd.AddCommand(newSoundsCmd(), newAnalyzeCmd(), newDiscoverCmd(), newRemoteCmd())
	return rootCmd
}

// bind registers the root command flags on flags
func (o *runOptions) bind(flags *pflag.FlagSet) {
	flags.StringVarP(&o.configPath, "config", "c", "", "Config file (default: ./"+config.DefaultFile+" if present)")
	flags.StringVarP(&o.sound, "sound", "s", "", "Initial sound: white, pink, brown, rain, ocean or fan")
	flags.IntVarP(&o.volume, "volume", "v", 0, "Initial volume (0-100)")
	flags.IntVarP(&o.timer, "timer", "t", 0, "Sleep timer length in minutes (5-120)")
	flags.BoolVar(&o.arm, "arm", false, "Start playing with the sleep timer armed")
	flags.StringVar(&o.backend, "backend", "", fmt.Sprintf("Audio backend %v", output.Backends()))
	flags.IntVar(&o.sampleRate, "sample-rate", 0, "Render sample rate in Hz")
	flags.IntVarP(&o.port, "port", "p", 0, "Remote control port")
	flags.StringVarP(&o.name, "name", "n", "", "Player friendly name (default: hush on <hostname>)")
	flags.StringVar(&o.logFile, "log-file", "", "Log file path")
	flags.BoolVar(&o.noRemote, "no-remote", false, "Disable the remote control server")
	flags.BoolVar(&o.noMDNS, "no-mdns", false, "Do not advertise on the local network")
	flags.BoolVar(&o.noTUI, "no-tui", false, "Disable TUI, use streaming logs instead")
}

// loadConfig layers changed flags over the file and environment
func loadConfig(flags *pflag.FlagSet, opts *runOptions) (*config.Config, error) {
	cfg, err := config.Load(opts.configPath)
	if err != nil {
		return nil, err
	}

	if flags.Changed("sound") {
		cfg.Audio.Sound = opts.sound
	}
	if flags.Changed("volume") {
		cfg.Audio.Volume = opts.volume
	}
	if flags.Changed("timer") {
		cfg.Timer.Minutes = opts.timer
	}
	if flags.Changed("arm") {
		cfg.Timer.Arm = opts.arm
	}
	if flags.Changed("backend") {
		cfg.Audio.Backend = opts.backend
	}
	if flags.Changed("sample-rate") {
		cfg.Audio.SampleRate = opts.sampleRate
	}
	if flags.Changed("port") {
		cfg.Remote.Port = opts.port
	}
	if flags.Changed("name") {
		cfg.Name = opts.name
	}
	if flags.Changed("log-file") {
		cfg.Log.File = opts.logFile
	}
	if opts.noRemote {
		cfg.Remote.Enabled = false
	}
	if opts.noMDNS {
		cfg.Remote.MDNS = false
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// runPlayer runs the player until the TUI quits or a signal arrives
func runPlayer(cfg *config.Config, useTUI bool) error {
	// Set up logging
	f, err := os.OpenFile(cfg.Log.File, os.O_RDWR|os.O_CREATE|os.O_APPEND, 0666)
	if err != nil {
		return fmt.Errorf("error opening log file: %w", err)
	}
	defer func() { _ = f.Close() }()

	if useTUI {
		// TUI mode: log only to file
		log.SetOutput(f)
	} else {
		// Streaming logs mode: log to both stdout and file
		log.SetOutput(io.MultiWriter(os.Stdout, f))
	}

	log.Printf("Starting %s: %s", version.String(), cfg.Name)

	out, err := output.New(cfg.Audio.Backend)
	if err != nil {
		return err
	}

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	var (
		tuiProg *tea.Program
		server  *remote.Server
	)

	player, err := hush.NewPlayer(hush.PlayerConfig{
		Sound:        cfg.SoundType(),
		Volume:       cfg.Audio.Volume,
		TimerMinutes: cfg.Timer.Minutes,
		SampleRate:   cfg.Audio.SampleRate,
		Output:       out,
		SwitchDelay:  cfg.Audio.SwitchDelay,
		Seed:         cfg.Audio.Seed,
		Preload:      cfg.Audio.Preload,
		OnStateChange: func(state hush.PlayerState) {
			ui.Send(tuiProg, state)
			if server != nil {
				server.Broadcast(state)
			}
			if !useTUI {
				log.Printf("State: %s %s volume=%d timer=%v %s",
					state.Status(), state.Sound, state.Volume, state.TimerActive, state.Remaining())
			}
		},
		OnError: func(err error) {
			log.Printf("Player error: %v", err)
		},
	})
	if err != nil {
		return fmt.Errorf("failed to create player: %w", err)
	}

	if cfg.Remote.Enabled {
		server = remote.New(remote.Config{
			Port:       cfg.Remote.Port,
			Name:       cfg.Name,
			EnableMDNS: cfg.Remote.MDNS,
		}, player)
	}
	if useTUI {
		// The loop is not running yet, so seed the view from the config
		tuiProg, err = ui.Run(player, cfg.Name, hush.PlayerState{
			Sound:        cfg.SoundType(),
			Volume:       cfg.Audio.Volume,
			TimerMinutes: cfg.Timer.Minutes,
		})
		if err != nil {
			_ = player.Close()
			return fmt.Errorf("failed to start TUI: %w", err)
		}
	}

	// Callbacks read tuiProg and server, so both are set before the loop starts
	playerDone := make(chan error, 1)
	go func() {
		playerDone <- player.Run(ctx)
	}()

	if server != nil {
		go func() {
			if err := server.Start(ctx); err != nil {
				log.Printf("Remote server stopped: %v", err)
			}
		}()
	}

	if cfg.Timer.Arm {
		// State changes block on the TUI until it runs, so start off the main goroutine
		go func() {
			if err := player.Play(cfg.SoundType()); err != nil {
				log.Printf("Initial play failed: %v", err)
			} else if err := player.ArmTimer(cfg.Timer.Minutes); err != nil {
				log.Printf("Failed to arm timer: %v", err)
			}
		}()
	}

	if tuiProg != nil {
		go func() {
			<-ctx.Done()
			tuiProg.Quit()
		}()
		if _, err := tuiProg.Run(); err != nil {
			log.Printf("TUI error: %v", err)
		}
		log.Printf("Received quit signal from TUI")
		cancel()
	} else {
		<-ctx.Done()
		log.Printf("Shutdown signal received")
	}

	if err := player.Close(); err != nil && !errors.Is(err, hush.ErrClosed) {
		log.Printf("Error closing player: %v", err)
	}
	if err := <-playerDone; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("Player loop error: %v", err)
	}

	log.Printf("Player stopped")
	return nil
}

func newSoundsCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "sounds",
		Short: "List available sound types",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			for i, t := range noise.SoundTypes() {
				fmt.Fprintf(w, "%d\t%s\t%s\n", i+1, t, noise.Describe(t))
			}
			_ = w.Flush()
		},
	}
}

func newAnalyzeCmd() *cobra.Command {
	var (
		sampleRate int
		seed       int64
	)

	cmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the spectral band profile of every sound type",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			analyzer, err := analysis.NewAnalyzer(analysis.DefaultFFTSize)
			if err != nil {
				return err
			}
			rng := rand.New(rand.NewSource(seed))
			bands := analysis.DefaultBands(sampleRate)

			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', tabwriter.AlignRight)
			fmt.Fprint(w, "sound\t")
			for _, b := range bands {
				fmt.Fprintf(w, "%s\t", b.Name)
			}
			fmt.Fprintln(w)

			for _, t := range noise.SoundTypes() {
				buf, err := noise.Generate(t, sampleRate, rng)
				if err != nil {
					return fmt.Errorf("failed to generate %s: %w", t, err)
				}
				fmt.Fprintf(w, "%s\t", t)
				for _, b := range analyzer.Profile(buf.ChannelData(0), sampleRate, bands) {
					fmt.Fprintf(w, "%.1f%%\t", b.Share*100)
				}
				fmt.Fprintln(w)
			}
			return w.Flush()
		},
	}

	cmd.Flags().IntVar(&sampleRate, "sample-rate", 48000, "Sample rate in Hz")
	cmd.Flags().Int64Var(&seed, "seed", 1, "Random seed")
	return cmd
}

func newDiscoverCmd() *cobra.Command {
	var timeout time.Duration

	cmd := &cobra.Command{
		Use:   "discover",
		Short: "List hush players advertised on the local network",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			players := discovery.Lookup(timeout)
			if len(players) == 0 {
				fmt.Fprintln(cmd.OutOrStdout(), "No players found")
				return nil
			}
			w := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(w, "NAME\tADDRESS\tVERSION")
			for _, p := range players {
				fmt.Fprintf(w, "%s\t%s\t%s\n", p.Name, p.Addr(), p.Version)
			}
			return w.Flush()
		},
	}

	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "How long to browse")
	return cmd
}

func newRemoteCmd() *cobra.Command {
	var (
		addr    string
		timeout time.Duration
	)

	cmd := &cobra.Command{
		Use:   "remote <play|stop|toggle|switch|volume|arm|disarm|minutes|state> [arg]",
		Short: "Send one intent to a running player and print its state",
		Args:  cobra.RangeArgs(1, 2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if addr == "" {
				addr = fmt.Sprintf("localhost:%d", config.DefaultPort)
			}

			client := protocol.NewClient(protocol.Config{
				ServerAddr: addr,
				ClientID:   uuid.New().String(),
				Name:       version.Product + " remote",
			})
			ctx, cancel := context.WithTimeout(cmd.Context(), timeout)
			defer cancel()
			if err := client.Connect(ctx); err != nil {
				return err
			}
			defer client.Close()

			// The server greets every client with its current state
			var last protocol.State
			select {
			case last = <-client.States:
			case <-ctx.Done():
				return fmt.Errorf("no state from %s", addr)
			}

			arg := ""
			if len(args) > 1 {
				arg = args[1]
			}
			if args[0] != "state" {
				if err := sendIntent(client, args[0], arg, last); err != nil {
					return err
				}
				select {
				case last = <-client.States:
				case serverErr := <-client.Errors:
					return fmt.Errorf("%s rejected: %s", serverErr.Intent, serverErr.Message)
				case <-ctx.Done():
					// Intents that change nothing produce no broadcast
				}
			}

			printState(cmd.OutOrStdout(), client.Server.Name, last)
			return nil
		},
	}

	cmd.Flags().StringVarP(&addr, "addr", "a", "", "Player address host:port (default: localhost)")
	cmd.Flags().DurationVar(&timeout, "timeout", 3*time.Second, "Connection and reply timeout")
	return cmd
}

func sendIntent(c *protocol.Client, intent, arg string, current protocol.State) error {
	needArg := func() (int, error) {
		n, err := strconv.Atoi(arg)
		if err != nil {
			return 0, fmt.Errorf("%s needs a number, got %q", intent, arg)
		}
		return n, nil
	}

	switch intent {
	case "play":
		return c.Play(arg)
	case "stop":
		return c.Stop()
	case "toggle":
		return c.Toggle()
	case "switch":
		if arg == "" {
			return fmt.Errorf("switch needs a sound name")
		}
		return c.Switch(arg)
	case "volume":
		n, err := needArg()
		if err != nil {
			return err
		}
		return c.SetVolume(n)
	case "arm":
		n := current.TimerMinutes
		if arg != "" {
			var err error
			if n, err = needArg(); err != nil {
				return err
			}
		}
		return c.ArmTimer(n)
	case "disarm":
		return c.DisarmTimer()
	case "minutes":
		n, err := needArg()
		if err != nil {
			return err
		}
		return c.SetTimerMinutes(n)
	default:
		return fmt.Errorf("unknown intent %q", intent)
	}
}

func printState(w io.Writer, name string, s protocol.State) {
	status := "stopped"
	switch {
	case s.AudioBlocked:
		status = "blocked"
	case s.Switching:
		status = "switching"
	case s.Playing:
		status = "playing"
	}

	fmt.Fprintf(w, "%s: %s %s, volume %d%%", name, status, s.Sound, s.Volume)
	if s.TimerActive {
		fmt.Fprintf(w, ", timer %s left", s.Remaining)
	} else {
		fmt.Fprintf(w, ", timer off (%d min)", s.TimerMinutes)
	}
	fmt.Fprintln(w)
}
