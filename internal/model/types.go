// Package model defines shared data structures.
package model

import (
	"fmt"
	"strings"
	"time"
)

// RawPoint is a trackpad coordinate pair. The zero value means "no contact".
type RawPoint struct {
	X uint16
	Y uint16
}

// Sentinel is the reserved "no contact" sample.
var Sentinel = RawPoint{}

// IsSentinel reports whether p is the no-contact sample.
func (p RawPoint) IsSentinel() bool {
	return p == Sentinel
}

// Stroke is the ordered set of samples between pen-down and pen-up.
type Stroke []RawPoint

// Point is a real-valued coordinate pair.
type Point struct {
	X float64
	Y float64
}

// Shape is a canonical shape: a resampled, scaled and centered stroke.
// Shapes are never mutated once produced.
type Shape []Point

// Mode selects what the recognition task does with a completed shape.
type Mode int

const (
	// ModeLearning stores shapes as templates.
	ModeLearning Mode = iota
	// ModeCasting matches shapes against the stored templates.
	ModeCasting
)

func (m Mode) String() string {
	switch m {
	case ModeLearning:
		return "learn"
	case ModeCasting:
		return "cast"
	default:
		return fmt.Sprintf("mode(%d)", int(m))
	}
}

// ParseMode accepts "learn"/"learning" and "cast"/"casting".
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "learn", "learning":
		return ModeLearning, nil
	case "cast", "casting":
		return ModeCasting, nil
	default:
		return 0, fmt.Errorf("unknown mode %q (want learn or cast)", s)
	}
}

// Input is one entry on the recognition queue: a completed stroke, or a mode
// change that takes effect between the strokes queued around it.
type Input struct {
	Stroke   Stroke
	Mode     Mode
	SetsMode bool
}

// StrokeInput queues a completed stroke.
func StrokeInput(s Stroke) Input {
	return Input{Stroke: s}
}

// ModeInput queues a mode change.
func ModeInput(m Mode) Input {
	return Input{Mode: m, SetsMode: true}
}

// Outcome classifies what happened to a completed stroke.
type Outcome string

const (
	OutcomeLearned     Outcome = "learned"
	OutcomeMatched     Outcome = "matched"
	OutcomeRejected    Outcome = "rejected"
	OutcomeNoTemplates Outcome = "no-templates"
	OutcomeTooShort    Outcome = "too-short"
)

// CastEvent is a journal record for one completed stroke.
type CastEvent struct {
	SessionID  string
	At         time.Time
	Mode       Mode
	Points     int
	Outcome    Outcome
	Template   int
	Score      float64
	CorpusSize int
}

// StatsConfig defines filters and options for journal reports.
type StatsConfig struct {
	Session string
	Since   *time.Time
	Last    int
	Window  int
}

// SessionAggregate summarizes a process run.
type SessionAggregate struct {
	SessionID string
	StartedAt time.Time
	EndedAt   time.Time
	Strokes   int
	Learned   int
	Matched   int
	Rejected  int
}

// TemplateAggregate summarizes casts resolved against one template of a session.
type TemplateAggregate struct {
	Template  int
	Casts     int
	Matches   int
	ScoreSum  float64
	BestScore float64
}
