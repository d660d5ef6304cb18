package trackpad

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/verte-zerg/hexcaster/internal/model"
)

// ReplayEvent is one line of a replay file: either a sample or a command.
type ReplayEvent struct {
	Point   model.RawPoint
	Command string
}

// IsCommand reports whether the event is a command line.
func (e ReplayEvent) IsCommand() bool {
	return e.Command != ""
}

// LoadReplay reads a replay file. Lines are "x y" samples, "/command" lines
// or "#" comments.
func LoadReplay(path string) ([]ReplayEvent, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := file.Close(); cerr != nil {
			// Best-effort close for read-only replay file.
			_ = cerr
		}
	}()
	return ParseReplay(file)
}

// ParseReplay parses replay lines from r.
func ParseReplay(r io.Reader) ([]ReplayEvent, error) {
	var events []ReplayEvent
	scanner := bufio.NewScanner(r)
	lineNo := 0
	for scanner.Scan() {
		lineNo++
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		if strings.HasPrefix(line, "/") {
			events = append(events, ReplayEvent{Command: line})
			continue
		}
		p, err := parsePoint(line)
		if err != nil {
			return nil, fmt.Errorf("line %d: %w", lineNo, err)
		}
		events = append(events, ReplayEvent{Point: p})
	}
	if err := scanner.Err(); err != nil {
		return nil, err
	}
	if len(events) == 0 {
		return nil, fmt.Errorf("replay is empty")
	}
	return events, nil
}

func parsePoint(line string) (model.RawPoint, error) {
	fields := strings.FieldsFunc(line, func(r rune) bool {
		return r == ' ' || r == '\t' || r == ','
	})
	if len(fields) != 2 {
		return model.RawPoint{}, fmt.Errorf("expected \"x y\", got %q", line)
	}
	x, err := strconv.ParseUint(fields[0], 10, 16)
	if err != nil {
		return model.RawPoint{}, fmt.Errorf("invalid x %q: %w", fields[0], err)
	}
	y, err := strconv.ParseUint(fields[1], 10, 16)
	if err != nil {
		return model.RawPoint{}, fmt.Errorf("invalid y %q: %w", fields[1], err)
	}
	return model.RawPoint{X: uint16(x), Y: uint16(y)}, nil
}

// WriteReplay writes strokes as replay lines, each followed by a sentinel.
func WriteReplay(w io.Writer, strokes ...model.Stroke) error {
	writer := bufio.NewWriter(w)
	for _, s := range strokes {
		for _, p := range s {
			if _, err := fmt.Fprintf(writer, "%d %d\n", p.X, p.Y); err != nil {
				return fmt.Errorf("failed to write replay: %w", err)
			}
		}
		if _, err := fmt.Fprintln(writer, "0 0"); err != nil {
			return fmt.Errorf("failed to write replay: %w", err)
		}
	}
	if err := writer.Flush(); err != nil {
		return fmt.Errorf("failed to flush replay: %w", err)
	}
	return nil
}

// WriteReplayFile atomically writes strokes to path.
func WriteReplayFile(path string, strokes ...model.Stroke) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create replay dir: %w", err)
	}
	tmpFile, err := os.CreateTemp(filepath.Dir(path), "replay-*.txt")
	if err != nil {
		return fmt.Errorf("failed to create temp replay: %w", err)
	}
	tmpPath := tmpFile.Name()
	defer func() {
		_ = tmpFile.Close()
		_ = os.Remove(tmpPath)
	}()
	if err := WriteReplay(tmpFile, strokes...); err != nil {
		return err
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close replay: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		return fmt.Errorf("failed to write replay: %w", err)
	}
	return nil
}

// ReplaySource plays back replay events as position reports. Command lines
// are returned by ReadEvent at their place in the file.
type ReplaySource struct {
	events   []ReplayEvent
	pos      int
	interval time.Duration
}

// NewReplaySource returns a source pacing samples by interval.
func NewReplaySource(events []ReplayEvent, interval time.Duration) *ReplaySource {
	return &ReplaySource{events: events, interval: interval}
}

// ReadEvent implements EventSource. Commands are not paced.
func (r *ReplaySource) ReadEvent(ctx context.Context) (Event, error) {
	if r.pos >= len(r.events) {
		return Event{}, io.EOF
	}
	ev := r.events[r.pos]
	r.pos++
	if ev.IsCommand() {
		return Event{Command: []byte(ev.Command)}, nil
	}
	if r.interval > 0 {
		timer := time.NewTimer(r.interval)
		select {
		case <-ctx.Done():
			timer.Stop()
			return Event{}, ctx.Err()
		case <-timer.C:
		}
	}
	return Event{Report: PositionReport(ev.Point)}, nil
}

// ReadReport implements Source. Command lines are skipped.
func (r *ReplaySource) ReadReport(ctx context.Context) (Report, error) {
	for {
		ev, err := r.ReadEvent(ctx)
		if err != nil {
			return Report{}, err
		}
		if ev.Command == nil {
			return ev.Report, nil
		}
	}
}
