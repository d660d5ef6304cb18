// Package spell runs the recognition task: it learns templates or matches
// strokes against them depending on the current mode.
package spell

import (
	"context"
	"log/slog"
	"math"
	"time"

	"github.com/verte-zerg/hexcaster/internal/corpus"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/recognizer"
	"github.com/verte-zerg/hexcaster/internal/shape"
)

const (
	// DefaultThreshold is the score a match must exceed to fire.
	DefaultThreshold = 0.6
	// DefaultMinPoints is the shortest stroke that is not treated as noise.
	DefaultMinPoints = 5
)

// Dispatcher fires the action bound to a template.
type Dispatcher interface {
	Dispatch(ctx context.Context, template int) error
}

// Journal records what happened to each stroke.
type Journal interface {
	RecordCast(ctx context.Context, ev model.CastEvent) error
}

// Options configures a Caster.
type Options struct {
	Mode       model.Mode
	Threshold  float64
	MinPoints  int
	Recognizer *recognizer.Recognizer
	Corpus     *corpus.Corpus
	Journal    Journal
	SessionID  string
	Now        func() time.Time
}

// Caster owns the corpus and the mode. It is driven by a single goroutine.
type Caster struct {
	mode       model.Mode
	threshold  float64
	minPoints  int
	recognizer *recognizer.Recognizer
	corpus     *corpus.Corpus
	dispatcher Dispatcher
	journal    Journal
	sessionID  string
	now        func() time.Time
	logger     *slog.Logger
}

// New returns a Caster firing matches through dispatcher.
func New(opts Options, dispatcher Dispatcher, logger *slog.Logger) *Caster {
	c := &Caster{
		mode:       opts.Mode,
		threshold:  opts.Threshold,
		minPoints:  opts.MinPoints,
		recognizer: opts.Recognizer,
		corpus:     opts.Corpus,
		dispatcher: dispatcher,
		journal:    opts.Journal,
		sessionID:  opts.SessionID,
		now:        opts.Now,
		logger:     logger,
	}
	if c.minPoints <= 0 {
		c.minPoints = DefaultMinPoints
	}
	if c.recognizer == nil {
		c.recognizer = recognizer.New()
	}
	if c.corpus == nil {
		c.corpus = corpus.New(0)
	}
	if c.now == nil {
		c.now = time.Now
	}
	return c
}

// Mode returns the current mode.
func (c *Caster) Mode() model.Mode {
	return c.mode
}

// CorpusSize returns the number of learned templates.
func (c *Caster) CorpusSize() int {
	return c.corpus.Len()
}

// SetMode switches between learning and casting.
func (c *Caster) SetMode(mode model.Mode) {
	if mode == c.mode {
		return
	}
	c.mode = mode
	c.logger.Info("mode changed", "mode", mode.String(), "corpus", c.corpus.Len())
}

// Run consumes the input queue and out-of-band mode changes until inputs
// closes or ctx is done. Mode changes already on control are applied before
// the next input is taken. Mode changes on inputs apply in queue order.
func (c *Caster) Run(ctx context.Context, inputs <-chan model.Input, control <-chan model.Mode) error {
	for {
		c.drainControl(control)
		select {
		case <-ctx.Done():
			return ctx.Err()
		case mode := <-control:
			c.SetMode(mode)
		case in, ok := <-inputs:
			if !ok {
				return nil
			}
			if in.SetsMode {
				c.SetMode(in.Mode)
				continue
			}
			if _, err := c.HandleStroke(ctx, in.Stroke); err != nil {
				return err
			}
		}
	}
}

func (c *Caster) drainControl(control <-chan model.Mode) {
	for {
		select {
		case mode := <-control:
			c.SetMode(mode)
		default:
			return
		}
	}
}

// HandleStroke learns or matches one completed stroke. Only cancellation of
// ctx is returned as an error.
func (c *Caster) HandleStroke(ctx context.Context, st model.Stroke) (model.CastEvent, error) {
	ev := model.CastEvent{
		SessionID: c.sessionID,
		At:        c.now(),
		Mode:      c.mode,
		Points:    len(st),
		Template:  -1,
		Score:     math.NaN(),
	}
	if len(st) < c.minPoints {
		c.logger.Warn("stroke too short", "points", len(st), "min", c.minPoints)
		ev.Outcome = model.OutcomeTooShort
		return c.record(ctx, ev), nil
	}

	normed := shape.Normalize(st)
	switch c.mode {
	case model.ModeLearning:
		size := c.corpus.Add(normed)
		ev.Outcome = model.OutcomeLearned
		ev.Template = c.corpus.ID(size - 1)
		c.logger.Info("learned template", "template", ev.Template, "corpus", size)
	case model.ModeCasting:
		match, ok := c.recognizer.Recognize(normed, c.corpus.Snapshot())
		if !ok {
			ev.Outcome = model.OutcomeNoTemplates
			break
		}
		ev.Template = c.corpus.ID(match.Index)
		ev.Score = match.Score
		c.logger.Info("calculated match score", "template", ev.Template, "score", match.Score)
		if !match.Confident(c.threshold) {
			ev.Outcome = model.OutcomeRejected
			break
		}
		ev.Outcome = model.OutcomeMatched
		if err := c.dispatcher.Dispatch(ctx, ev.Template); err != nil {
			if ctx.Err() != nil {
				return ev, ctx.Err()
			}
			c.logger.Warn("dispatch failed", "err", err)
		}
	}
	ev.CorpusSize = c.corpus.Len()
	return c.record(ctx, ev), nil
}

func (c *Caster) record(ctx context.Context, ev model.CastEvent) model.CastEvent {
	if ev.CorpusSize == 0 {
		ev.CorpusSize = c.corpus.Len()
	}
	if c.journal == nil {
		return ev
	}
	if err := c.journal.RecordCast(ctx, ev); err != nil {
		c.logger.Warn("failed to journal stroke", "err", err)
	}
	return ev
}
