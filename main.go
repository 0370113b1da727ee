package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"
	gomidi "gitlab.com/gomidi/midi/v2"
	"golang.org/x/sync/errgroup"

	"go-pattern/ccbus"
	"go-pattern/config"
	"go-pattern/debug"
	"go-pattern/engine"
	"go-pattern/midi"
	"go-pattern/pattern"
	"go-pattern/sequencer"
	"go-pattern/theme"
	"go-pattern/tui"
)

const Version = "0.1.0"

var flags struct {
	bpm         float64
	kit         string
	oscHost     string
	oscPort     int
	listenPort  int
	midiPort    string
	midiChannel int
	log         string
	dryRun      bool
	noTUI       bool
}

var rootCmd = &cobra.Command{
	Use:   "go-pattern [pattern.yaml]",
	Short: "Real-time pattern scheduler for a live-coding instrument",
	Long: `go-pattern plays a step pattern on a synthesis server, a quarter second
at a time and a little ahead of the audio clock. Edits to the pattern file are
picked up on save without stopping playback.`,
	Version: Version,
	Args:    cobra.MaximumNArgs(1),
	RunE:    runPattern,
}

var kitsCmd = &cobra.Command{
	Use:   "kits",
	Short: "List the built-in drum kits",
	Run: func(cmd *cobra.Command, args []string) {
		for _, name := range sequencer.KitNames() {
			fmt.Fprintf(cmd.OutOrStdout(), "%-8s %s\n", name, sequencer.GetKit(name).Name)
		}
	},
}

var portsCmd = &cobra.Command{
	Use:   "ports",
	Short: "List MIDI output ports usable for feedback",
	RunE: func(cmd *cobra.Command, args []string) error {
		defer gomidi.CloseDriver()
		names, err := midi.OutPortNames()
		if err != nil {
			return err
		}
		for i, name := range names {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n", i, name)
		}
		return nil
	},
}

func init() {
	def := config.DefaultConfig()
	pf := rootCmd.Flags()
	pf.Float64Var(&flags.bpm, "bpm", def.Scheduler.BPM, "Tempo in beats per minute")
	pf.StringVar(&flags.kit, "kit", def.Scheduler.Kit, "Drum kit used to pitch percussion slots")
	pf.StringVar(&flags.oscHost, "osc-host", def.Engine.Host, "Synthesis server host")
	pf.IntVar(&flags.oscPort, "osc-port", def.Engine.Port, "Synthesis server OSC port")
	pf.IntVar(&flags.listenPort, "listen-port", def.Engine.ListenPort, "Port the server reports its clock to (0 disables)")
	pf.StringVar(&flags.midiPort, "midi-port", "", "MIDI output port for control feedback (substring match)")
	pf.IntVar(&flags.midiChannel, "midi-channel", 0, "MIDI channel for control feedback (0-15)")
	pf.StringVarP(&flags.log, "log", "l", "", "Write debug logs to specified file (empty disables)")
	pf.BoolVar(&flags.dryRun, "dry-run", false, "Record engine calls instead of sending OSC")
	pf.BoolVar(&flags.noTUI, "no-tui", false, "Run without the terminal monitor")

	rootCmd.AddCommand(kitsCmd, portsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// applyFlags overrides config values with flags given on the command line
func applyFlags(cmd *cobra.Command, cfg *config.Config) {
	f := cmd.Flags()
	if f.Changed("bpm") {
		cfg.Scheduler.BPM = flags.bpm
	}
	if f.Changed("kit") {
		cfg.Scheduler.Kit = flags.kit
	}
	if f.Changed("osc-host") {
		cfg.Engine.Host = flags.oscHost
	}
	if f.Changed("osc-port") {
		cfg.Engine.Port = flags.oscPort
	}
	if f.Changed("listen-port") {
		cfg.Engine.ListenPort = flags.listenPort
	}
	if f.Changed("midi-port") {
		cfg.Feedback.PortName = flags.midiPort
	}
	if f.Changed("midi-channel") {
		cfg.Feedback.Channel = flags.midiChannel
	}
}

func runPattern(cmd *cobra.Command, args []string) error {
	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("config: %w", err)
	}
	applyFlags(cmd, cfg)

	if flags.log != "" {
		if err := debug.Enable(flags.log); err != nil {
			return fmt.Errorf("log: %w", err)
		}
		defer debug.Disable()
	}

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	var eng sequencer.Engine
	if flags.dryRun {
		eng = engine.NewRecorder(engine.WallClock())
	} else {
		osc := engine.NewOSC(cfg.Engine.Host, cfg.Engine.Port)
		eng = osc
		if cfg.Engine.ListenPort > 0 {
			g.Go(func() error {
				return osc.Listen(gctx, cfg.Engine.ListenPort)
			})
		}
	}

	bus := ccbus.New()
	defer bus.Close()

	sched := sequencer.New(eng, bus, schedulerOptions(cfg)...)
	defer sched.Dispose()

	if cfg.Feedback.PortName != "" {
		startFeedback(gctx, g, cfg.Feedback, bus)
		defer gomidi.CloseDriver()
	}

	if len(args) == 1 {
		path := args[0]
		p, err := pattern.Load(path)
		if err != nil {
			return err
		}
		sched.SetPattern(p)
		g.Go(func() error {
			return pattern.Watch(gctx, path, func(p *pattern.Steps) {
				sched.SetPattern(p)
			})
		})
	}

	if err := sched.Play(); err != nil {
		return err
	}
	debug.Log("main", "playing bpm=%.1f kit=%s dry-run=%v", sched.BPM(), cfg.Scheduler.Kit, flags.dryRun)

	if flags.noTUI {
		fmt.Printf("go-pattern %s playing at %.1f bpm, ctrl+c to stop\n", Version, sched.BPM())
		g.Go(func() error {
			<-gctx.Done()
			return nil
		})
	} else {
		g.Go(func() error {
			defer cancel()
			return runMonitor(gctx, sched, bus, cfg.UI)
		})
	}

	err = g.Wait()
	sched.Stop()

	cfg.UI.LastBPM = sched.BPM()
	if saveErr := cfg.Save(); saveErr != nil {
		debug.Warn("main", "save config: %v", saveErr)
	}
	return err
}

func schedulerOptions(cfg *config.Config) []sequencer.Option {
	sc := cfg.Scheduler
	opts := []sequencer.Option{
		sequencer.WithBPM(sc.BPM),
		sequencer.WithKit(sequencer.GetKit(sc.Kit)),
	}
	if sc.BeatsPerCycle > 0 {
		opts = append(opts, sequencer.WithBeatsPerCycle(sc.BeatsPerCycle))
	}
	if sc.WindowMS > 0 {
		opts = append(opts, sequencer.WithWindow(msDuration(sc.WindowMS)))
	}
	if sc.LookaheadMS > 0 {
		opts = append(opts, sequencer.WithLookahead(msDuration(sc.LookaheadMS)))
	}
	return opts
}

// startFeedback mirrors bus changes onto the configured MIDI port, following
// it as it is unplugged and plugged back in
func startFeedback(ctx context.Context, g *errgroup.Group, fc config.FeedbackConfig, bus *ccbus.Bus) {
	fb := midi.NewFeedback(nil, uint8(fc.Channel), nil)
	mon := midi.NewPortMonitor(fc.PortName)
	changes, unsubscribe := bus.Subscribe()

	g.Go(func() error {
		mon.Run(ctx)
		return nil
	})
	g.Go(func() error {
		fb.Follow(ctx, mon.Events())
		return nil
	})
	g.Go(func() error {
		defer unsubscribe()
		return fb.Run(ctx, changes)
	})
}

func runMonitor(ctx context.Context, sched *sequencer.Scheduler, bus *ccbus.Bus, ui config.UIConfig) error {
	palette, err := theme.LoadOrBuiltin(ui.Palette)
	if err != nil {
		debug.Warn("main", "palette %s: %v", ui.Palette, err)
	}

	states, stopStates := sched.WatchState()
	defer stopStates()
	triggers, stopTriggers := sched.WatchTriggers()
	defer stopTriggers()
	changes, stopChanges := bus.Subscribe()
	defer stopChanges()

	m := tui.NewModel(sched, theme.New(palette), states, triggers, changes)
	p := tea.NewProgram(m, tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && ctx.Err() == nil {
		return err
	}
	return nil
}

func msDuration(ms int) time.Duration {
	return time.Duration(ms) * time.Millisecond
}
