// Package command parses the serial text protocol and applies it.
package command

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"unicode/utf8"

	"github.com/verte-zerg/hexcaster/internal/model"
)

// ErrInvalidUTF8 is returned for payloads that are not valid UTF-8.
var ErrInvalidUTF8 = errors.New("command is not valid utf-8")

// Kind identifies a command.
type Kind int

const (
	// KindNone is text that is not a command.
	KindNone Kind = iota
	KindLearn
	KindCast
	KindGreet
	KindUnknown
)

// Command is a decoded line from the serial stream.
type Command struct {
	Kind Kind
	Text string
	Arg  string
}

// Parse decodes one received buffer. Prefixes are matched the way they were
// typed: "/learn" and "/learning" both select learning mode.
func Parse(data []byte) (Command, error) {
	if !utf8.Valid(data) {
		return Command{}, ErrInvalidUTF8
	}
	text := strings.TrimRight(string(data), "\r\n")
	cmd := Command{Text: text}
	switch {
	case strings.HasPrefix(text, "/learn"):
		cmd.Kind = KindLearn
	case strings.HasPrefix(text, "/cast"):
		cmd.Kind = KindCast
	case strings.HasPrefix(text, "/greet "):
		cmd.Kind = KindGreet
		cmd.Arg = text[len("/greet "):]
	case strings.HasPrefix(text, "/"):
		cmd.Kind = KindUnknown
	default:
		cmd.Kind = KindNone
	}
	return cmd, nil
}

// ModeSetter delivers a mode change to the recognition task.
type ModeSetter func(ctx context.Context, mode model.Mode) error

// SendTo returns a ModeSetter that sends on control, blocking while it is full.
func SendTo(control chan<- model.Mode) ModeSetter {
	return func(ctx context.Context, mode model.Mode) error {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case control <- mode:
			return nil
		}
	}
}

// Interpreter applies commands by handing mode changes to a ModeSetter.
type Interpreter struct {
	setMode ModeSetter
	logger  *slog.Logger
}

// NewInterpreter returns an Interpreter delivering mode changes through setMode.
func NewInterpreter(setMode ModeSetter, logger *slog.Logger) *Interpreter {
	return &Interpreter{setMode: setMode, logger: logger}
}

// Run handles buffers until in closes or ctx is done.
func (i *Interpreter) Run(ctx context.Context, in <-chan []byte) error {
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case data, ok := <-in:
			if !ok {
				return nil
			}
			if err := i.Handle(ctx, data); err != nil {
				return err
			}
		}
	}
}

// Handle applies one buffer. Malformed input is logged and dropped; only
// cancellation is returned as an error.
func (i *Interpreter) Handle(ctx context.Context, data []byte) error {
	cmd, err := Parse(data)
	if err != nil {
		i.logger.Error("message failed to parse", "err", err)
		return nil
	}
	i.logger.Info("received command", "text", cmd.Text)
	switch cmd.Kind {
	case KindLearn:
		return i.setMode(ctx, model.ModeLearning)
	case KindCast:
		return i.setMode(ctx, model.ModeCasting)
	case KindGreet:
		i.logger.Info("Hello, " + cmd.Arg + "!")
	case KindUnknown:
		i.logger.Warn("unknown command", "text", cmd.Text)
	default:
		i.logger.Debug("ignoring non-command input", "text", cmd.Text)
	}
	return nil
}
