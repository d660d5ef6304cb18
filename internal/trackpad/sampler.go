package trackpad

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/stroke"
)

// readRetryDelay paces reads after a failed one.
const readRetryDelay = 10 * time.Millisecond

// CommandHandler applies a serial command line read from an EventSource.
type CommandHandler interface {
	Handle(ctx context.Context, data []byte) error
}

// Sampler reads reports from a Source, segments them and hands completed
// strokes to the recognition task.
type Sampler struct {
	source   Source
	seg      *stroke.Segmenter
	out      chan<- model.Input
	commands CommandHandler
	logger   *slog.Logger
}

// NewSampler returns a Sampler queueing strokes on out.
func NewSampler(source Source, out chan<- model.Input, logger *slog.Logger) *Sampler {
	return &Sampler{
		source: source,
		seg:    stroke.New(),
		out:    out,
		logger: logger,
	}
}

// WithCommands sets the handler for command lines of an EventSource. It is
// called on the sampling goroutine, between the strokes around the line.
func (s *Sampler) WithCommands(h CommandHandler) *Sampler {
	s.commands = h
	return s
}

// Run samples until the source ends or ctx is done. Read failures are logged
// and the next read is issued.
func (s *Sampler) Run(ctx context.Context) error {
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		ev, err := s.read(ctx)
		if err != nil {
			if errors.Is(err, io.EOF) || errors.Is(err, os.ErrClosed) {
				s.logger.Info("trackpad source ended")
				return s.Feed(ctx, model.Sentinel)
			}
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Warn("trackpad read failed", "err", err)
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(readRetryDelay):
			}
			continue
		}
		if ev.Command != nil {
			if err := s.handleCommand(ctx, ev.Command); err != nil {
				return err
			}
			continue
		}
		p, ok, err := ParseReport(ev.Report[:])
		if err != nil {
			s.logger.Warn("trackpad report rejected", "err", err)
			continue
		}
		if !ok {
			continue
		}
		if err := s.Feed(ctx, p); err != nil {
			return err
		}
	}
}

func (s *Sampler) read(ctx context.Context) (Event, error) {
	if es, ok := s.source.(EventSource); ok {
		return es.ReadEvent(ctx)
	}
	r, err := s.source.ReadReport(ctx)
	return Event{Report: r}, err
}

func (s *Sampler) handleCommand(ctx context.Context, data []byte) error {
	if s.commands == nil {
		s.logger.Debug("ignoring command line", "text", string(data))
		return nil
	}
	return s.commands.Handle(ctx, data)
}

// Feed steps the segmenter and sends the stroke once it completes. It blocks
// while the stroke channel is full.
func (s *Sampler) Feed(ctx context.Context, p model.RawPoint) error {
	s.seg.Step(p)
	if !s.seg.ShouldCast() {
		return nil
	}
	st := s.seg.Build()
	s.seg.Reset()
	s.logger.Debug("stroke complete", "points", len(st))
	select {
	case <-ctx.Done():
		return ctx.Err()
	case s.out <- model.StrokeInput(st):
		return nil
	}
}
