// Package stroke cuts a raw sample stream into completed strokes.
package stroke

import "github.com/verte-zerg/hexcaster/internal/model"

const defaultCapacity = 1000

// Segmenter accumulates samples between pen-down and pen-up.
//
// Callers must call Build and then Reset whenever ShouldCast reports true,
// otherwise the next stroke is appended to the previous one.
type Segmenter struct {
	points model.Stroke
	last   model.RawPoint
}

// New returns an empty Segmenter.
func New() *Segmenter {
	return &Segmenter{points: make(model.Stroke, 0, defaultCapacity)}
}

// Step feeds one sample. Sentinels and repeats of the previous sample are not stored.
func (s *Segmenter) Step(p model.RawPoint) {
	if !p.IsSentinel() && p != s.last {
		s.points = append(s.points, p)
	}
	s.last = p
}

// ShouldCast reports whether a stroke has just ended.
func (s *Segmenter) ShouldCast() bool {
	return s.last.IsSentinel() && len(s.points) > 0
}

// Build returns a copy of the buffered stroke without clearing it.
func (s *Segmenter) Build() model.Stroke {
	out := make(model.Stroke, len(s.points))
	copy(out, s.points)
	return out
}

// Reset clears the buffer.
func (s *Segmenter) Reset() {
	s.points = s.points[:0]
	s.last = model.Sentinel
}

// Len returns the number of buffered samples.
func (s *Segmenter) Len() int {
	return len(s.points)
}
