// Package pipeline wires the sampling, recognition and keyboard tasks
// together through bounded channels.
//
// The tasks are split over two logical cores. Core A runs the USB side: the
// keyboard writer, the command interpreter and the trackpad sampler. Core B
// runs the recognition task alone. The split exists for latency isolation;
// the only coupling between the cores is the channels owned by Pipeline.
package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/verte-zerg/hexcaster/internal/action"
	"github.com/verte-zerg/hexcaster/internal/command"
	"github.com/verte-zerg/hexcaster/internal/corpus"
	"github.com/verte-zerg/hexcaster/internal/hid"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/recognizer"
	"github.com/verte-zerg/hexcaster/internal/spell"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

// DefaultCapacity is the capacity of every pipeline channel.
const DefaultCapacity = 4

// Config holds the recognition and dispatch settings of a pipeline.
type Config struct {
	Capacity       int
	Mode           model.Mode
	Threshold      float64
	MinPoints      int
	ApplyRotation  bool
	CorpusCapacity int
	Shortcut       hid.Report
	Bindings       map[int]hid.Report
	ReleaseDelay   time.Duration
	Journal        spell.Journal
	SessionID      string
}

// DefaultConfig returns the stock settings.
func DefaultConfig() Config {
	shortcut, err := hid.ParseShortcut("ctrl+alt+h")
	if err != nil {
		panic(err)
	}
	return Config{
		Capacity:     DefaultCapacity,
		Mode:         model.ModeLearning,
		Threshold:    spell.DefaultThreshold,
		MinPoints:    spell.DefaultMinPoints,
		Shortcut:     shortcut,
		ReleaseDelay: action.DefaultReleaseDelay,
	}
}

// Pipeline owns the channels between the tasks. It runs once.
type Pipeline struct {
	cfg    Config
	logger *slog.Logger

	strokes  chan model.Input
	reports  chan hid.Report
	commands chan []byte
	control  chan model.Mode
}

// New constructs the channels. Tasks are created by Run.
func New(cfg Config, logger *slog.Logger) *Pipeline {
	capacity := cfg.Capacity
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Pipeline{
		cfg:      cfg,
		logger:   logger,
		strokes:  make(chan model.Input, capacity),
		reports:  make(chan hid.Report, capacity),
		commands: make(chan []byte, capacity),
		control:  make(chan model.Mode, capacity),
	}
}

// Commands is the receive side of the serial link. Each buffer is one line.
func (p *Pipeline) Commands() chan<- []byte {
	return p.commands
}

// Run starts every task and blocks until the trackpad source ends and the
// downstream tasks have drained, or until ctx is cancelled.
func (p *Pipeline) Run(ctx context.Context, source trackpad.Source, sink hid.Sink) error {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	g, gctx := errgroup.WithContext(ctx)

	// Command lines read from the trackpad source are queued with the strokes
	// so they take effect between the strokes around them.
	queued := command.NewInterpreter(func(ctx context.Context, mode model.Mode) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case p.strokes <- model.ModeInput(mode):
			return nil
		}
	}, p.logger.With("task", "command"))
	sampler := trackpad.NewSampler(source, p.strokes, p.logger.With("task", "trackpad")).WithCommands(queued)
	interp := command.NewInterpreter(command.SendTo(p.control), p.logger.With("task", "command"))
	dispatcher := action.New(p.reports, p.cfg.Shortcut, p.cfg.ReleaseDelay, p.cfg.Bindings)
	caster := spell.New(spell.Options{
		Mode:       p.cfg.Mode,
		Threshold:  p.cfg.Threshold,
		MinPoints:  p.cfg.MinPoints,
		Recognizer: recognizer.New(recognizer.WithRotation(p.cfg.ApplyRotation)),
		Corpus:     corpus.New(p.cfg.CorpusCapacity),
		Journal:    p.cfg.Journal,
		SessionID:  p.cfg.SessionID,
	}, dispatcher, p.logger.With("task", "recognition"))

	// Core A.
	g.Go(func() error {
		defer close(p.strokes)
		return sampler.Run(gctx)
	})
	g.Go(func() error {
		err := hid.RunWriter(gctx, p.reports, sink, p.logger.With("task", "keyboard"))
		// The writer is the last stage to drain; nothing is left for commands to act on.
		cancel()
		return err
	})
	g.Go(func() error {
		return interp.Run(gctx, p.commands)
	})

	// Core B.
	g.Go(func() error {
		defer close(p.reports)
		return caster.Run(gctx, p.strokes, p.control)
	})

	p.logger.Info("pipeline started", "mode", p.cfg.Mode.String(), "capacity", cap(p.strokes))
	err := g.Wait()
	if errors.Is(err, context.Canceled) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("pipeline failed: %w", err)
	}
	return nil
}
