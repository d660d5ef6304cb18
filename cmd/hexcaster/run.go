package main

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/verte-zerg/hexcaster/internal/action"
	"github.com/verte-zerg/hexcaster/internal/config"
	"github.com/verte-zerg/hexcaster/internal/console"
	"github.com/verte-zerg/hexcaster/internal/hid"
	"github.com/verte-zerg/hexcaster/internal/logging"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/pipeline"
	"github.com/verte-zerg/hexcaster/internal/spell"
	"github.com/verte-zerg/hexcaster/internal/store"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

// consoleReportBuffer absorbs mouse bursts while the sampler is busy.
const consoleReportBuffer = 256

// runSettings is the merged result of defaults, config file and flags.
type runSettings struct {
	Replay         string
	TrackpadDevice string
	KeyboardDevice string
	Mode           string
	Threshold      float64
	LogLevel       string
	Shortcut       string
	SampleInterval time.Duration
	Journal        bool

	Capacity       int
	MinPoints      int
	ApplyRotation  bool
	CorpusCapacity int
	ReleaseDelay   time.Duration
	Bindings       []config.BindingConfig
}

func runRunCmd(cmd *cobra.Command, _ []string) error {
	fileCfg, err := config.LoadConfig(config.DefaultConfigPath())
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	applyStringConfig(cmd, "trackpad", &runTrackpad, fileCfg.Trackpad.Device)
	applyStringConfig(cmd, "keyboard", &runKeyboard, fileCfg.Keyboard.Device)
	applyStringConfig(cmd, "mode", &runMode, fileCfg.Pipeline.InitialMode)
	applyFloatConfig(cmd, "threshold", &runThresh, fileCfg.Recognition.Threshold)
	applyStringConfig(cmd, "log-level", &runLogLevel, fileCfg.Log.Level)
	applyStringConfig(cmd, "shortcut", &runShortcut, fileCfg.Action.Shortcut)
	applyDurationConfig(cmd, "interval", &runInterval, fileCfg.Trackpad.SampleInterval)
	applyBoolConfig(cmd, "journal", &runJournal, fileCfg.Journal.Enabled)

	settings := runSettings{
		Replay:         runReplay,
		TrackpadDevice: runTrackpad,
		KeyboardDevice: runKeyboard,
		Mode:           runMode,
		Threshold:      runThresh,
		LogLevel:       runLogLevel,
		Shortcut:       runShortcut,
		SampleInterval: runInterval,
		Journal:        runJournal,
		Capacity:       pipeline.DefaultCapacity,
		MinPoints:      spell.DefaultMinPoints,
		ReleaseDelay:   action.DefaultReleaseDelay,
		Bindings:       fileCfg.Action.Bindings,
	}
	if v := fileCfg.Pipeline.ChannelCapacity; v != nil {
		settings.Capacity = *v
	}
	if v := fileCfg.Recognition.MinPoints; v != nil {
		settings.MinPoints = *v
	}
	if v := fileCfg.Recognition.ApplyRotation; v != nil {
		settings.ApplyRotation = *v
	}
	if v := fileCfg.Recognition.CorpusCapacity; v != nil {
		settings.CorpusCapacity = *v
	}
	if v := fileCfg.Action.ReleaseDelay; v != nil {
		settings.ReleaseDelay = v.Duration
	}

	pcfg, err := buildPipelineConfig(settings)
	if err != nil {
		return err
	}
	pcfg.SessionID = uuid.NewString()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if settings.Journal {
		st, err := store.Open(config.DefaultDBPath())
		if err != nil {
			return fmt.Errorf("failed to open db: %w", err)
		}
		defer func() {
			if cerr := st.Close(); cerr != nil {
				logErrf("failed to close db: %v\n", cerr)
			}
		}()
		pcfg.Journal = st
	}

	var sinkCloser io.Closer
	defer func() {
		if sinkCloser == nil {
			return
		}
		if cerr := sinkCloser.Close(); cerr != nil {
			logErrf("failed to close keyboard device: %v\n", cerr)
		}
	}()
	openSink := func(logger *slog.Logger) (hid.Sink, error) {
		if settings.KeyboardDevice == "" {
			return hid.NewLogSink(logger.With("task", "keyboard")), nil
		}
		sink, closer, err := hid.OpenDevice(settings.KeyboardDevice)
		if err != nil {
			return nil, err
		}
		sinkCloser = closer
		return sink, nil
	}

	if settings.Replay == "" && settings.TrackpadDevice == "" {
		return runConsole(ctx, settings, pcfg, openSink)
	}

	logger, err := logging.New(os.Stderr, settings.LogLevel)
	if err != nil {
		return err
	}
	p := pipeline.New(pcfg, logger)
	sink, err := openSink(logger)
	if err != nil {
		return err
	}

	var source trackpad.Source
	if settings.Replay != "" {
		events, err := trackpad.LoadReplay(settings.Replay)
		if err != nil {
			return err
		}
		source = trackpad.NewReplaySource(events, settings.SampleInterval)
	} else {
		dev, closer, err := trackpad.OpenDevice(settings.TrackpadDevice)
		if err != nil {
			return err
		}
		defer func() {
			if cerr := closer.Close(); cerr != nil {
				logErrf("failed to close trackpad device: %v\n", cerr)
			}
		}()
		source = dev
	}

	if !term.IsTerminal(int(os.Stdin.Fd())) {
		go feedLines(ctx, os.Stdin, p.Commands())
	}

	logger.Info("session started", "session", pcfg.SessionID)
	if err := p.Run(ctx, source, sink); err != nil {
		return err
	}
	logger.Info("session finished", "session", pcfg.SessionID)
	return nil
}

// runConsole drives the pipeline from the interactive console. Logs go to
// the console view instead of stderr.
func runConsole(ctx context.Context, settings runSettings, pcfg pipeline.Config, openSink func(*slog.Logger) (hid.Sink, error)) error {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return fmt.Errorf("the console needs a terminal; use --replay or --trackpad instead")
	}
	level, err := logging.ParseLevel(settings.LogLevel)
	if err != nil {
		return err
	}

	var program *tea.Program
	logWriter := console.NewLogWriter(func(msg tea.Msg) {
		program.Send(msg)
	})
	logger := slog.New(slog.NewTextHandler(logWriter, &slog.HandlerOptions{Level: level}))
	p := pipeline.New(pcfg, logger)
	sink, err := openSink(logger)
	if err != nil {
		return err
	}

	reports := make(chan trackpad.Report, consoleReportBuffer)
	program = tea.NewProgram(
		console.NewModel(p.Commands(), reports, pcfg.Mode),
		tea.WithAltScreen(),
		tea.WithMouseCellMotion(),
		tea.WithContext(ctx),
	)

	done := make(chan error, 1)
	go func() {
		err := p.Run(ctx, trackpad.NewChanSource(reports), sink)
		program.Quit()
		done <- err
	}()

	_, uiErr := program.Run()
	close(reports)
	err = <-done
	if uiErr != nil && ctx.Err() == nil {
		return fmt.Errorf("failed to run console: %w", uiErr)
	}
	if err != nil {
		return err
	}
	logErrln("session", pcfg.SessionID, "finished")
	return nil
}

// feedLines forwards each line of r as one command buffer.
func feedLines(ctx context.Context, r io.Reader, out chan<- []byte) {
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := append([]byte(nil), scanner.Bytes()...)
		select {
		case <-ctx.Done():
			return
		case out <- line:
		}
	}
}

func buildPipelineConfig(s runSettings) (pipeline.Config, error) {
	if err := validateSettings(s); err != nil {
		return pipeline.Config{}, err
	}
	mode, err := model.ParseMode(s.Mode)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("--mode: %w", err)
	}
	shortcut, err := hid.ParseShortcut(s.Shortcut)
	if err != nil {
		return pipeline.Config{}, fmt.Errorf("--shortcut: %w", err)
	}
	bindings := make(map[int]hid.Report, len(s.Bindings))
	for _, b := range s.Bindings {
		if b.Template < 0 {
			return pipeline.Config{}, fmt.Errorf("binding template must be >= 0, got %d", b.Template)
		}
		report, err := hid.ParseShortcut(b.Shortcut)
		if err != nil {
			return pipeline.Config{}, fmt.Errorf("binding for template %d: %w", b.Template, err)
		}
		bindings[b.Template] = report
	}
	return pipeline.Config{
		Capacity:       s.Capacity,
		Mode:           mode,
		Threshold:      s.Threshold,
		MinPoints:      s.MinPoints,
		ApplyRotation:  s.ApplyRotation,
		CorpusCapacity: s.CorpusCapacity,
		Shortcut:       shortcut,
		Bindings:       bindings,
		ReleaseDelay:   s.ReleaseDelay,
	}, nil
}

func validateSettings(s runSettings) error {
	if s.Replay != "" && s.TrackpadDevice != "" {
		return fmt.Errorf("--replay and --trackpad are mutually exclusive")
	}
	if s.Capacity < 1 {
		return fmt.Errorf("channel-capacity must be >= 1")
	}
	if s.Threshold > 1 {
		return fmt.Errorf("--threshold must be <= 1")
	}
	if s.MinPoints < 2 {
		return fmt.Errorf("min-points must be >= 2")
	}
	if s.CorpusCapacity < 0 {
		return fmt.Errorf("corpus-capacity must be >= 0")
	}
	if s.ReleaseDelay < 0 {
		return fmt.Errorf("release-delay must be >= 0")
	}
	if s.SampleInterval < 0 {
		return fmt.Errorf("--interval must be >= 0")
	}
	if _, err := logging.ParseLevel(s.LogLevel); err != nil {
		return fmt.Errorf("--log-level: %w", err)
	}
	return nil
}
