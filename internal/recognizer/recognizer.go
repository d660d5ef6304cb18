// Package recognizer matches canonical shapes against learned templates.
package recognizer

import (
	"math"

	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/shape"
)

const (
	// Theta bounds the rotation search to [-Theta, Theta].
	Theta = math.Pi / 4
	// ThetaDelta is the bracket width at which the search stops.
	ThetaDelta = math.Pi / 90
)

// phi is the golden ratio conjugate used to place the interior points.
var phi = (math.Sqrt(5) - 1) / 2

// halfDiagonal normalizes distances into a score.
var halfDiagonal = 0.5 * math.Sqrt(2*shape.Size*shape.Size)

// Match is the result of comparing a shape against a corpus.
type Match struct {
	Index    int
	Distance float64
	Score    float64
}

// Confident reports whether the score clears threshold. NaN is never confident.
func (m Match) Confident(threshold float64) bool {
	return !math.IsNaN(m.Score) && m.Score > threshold
}

// Recognizer compares shapes with templates using a golden-section angle search.
type Recognizer struct {
	applyRotation bool
}

// Option configures a Recognizer.
type Option func(*Recognizer)

// WithRotation applies the searched angle before measuring distances.
// Without it the search runs but the shape is compared unrotated.
func WithRotation(enabled bool) Option {
	return func(r *Recognizer) {
		r.applyRotation = enabled
	}
}

// New returns a Recognizer.
func New(opts ...Option) *Recognizer {
	r := &Recognizer{}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Recognize returns the closest template. ok is false for an empty corpus.
func (r *Recognizer) Recognize(candidate model.Shape, templates []model.Shape) (match Match, ok bool) {
	if len(templates) == 0 {
		return Match{}, false
	}
	best := math.Inf(1)
	index := 0
	for i, tmpl := range templates {
		d, _ := r.DistanceAtBestAngle(candidate, tmpl)
		if d < best {
			best = d
			index = i
		}
	}
	if math.IsInf(best, 1) {
		// Every distance was NaN.
		best = math.NaN()
	}
	return Match{
		Index:    index,
		Distance: best,
		Score:    1 - best/halfDiagonal,
	}, true
}

// DistanceAtBestAngle runs a golden-section search over [-Theta, Theta] and
// returns the smaller of the last two interior distances and the number of
// iterations it took.
func (r *Recognizer) DistanceAtBestAngle(candidate, tmpl model.Shape) (float64, int) {
	a, b := -Theta, Theta
	x1 := phi*a + (1-phi)*b
	f1 := r.DistanceAtAngle(candidate, tmpl, x1)
	x2 := (1-phi)*a + phi*b
	f2 := r.DistanceAtAngle(candidate, tmpl, x2)

	iterations := 0
	for math.Abs(b-a) > ThetaDelta {
		if f1 < f2 {
			b = x2
			x2, f2 = x1, f1
			x1 = phi*a + (1-phi)*b
			f1 = r.DistanceAtAngle(candidate, tmpl, x1)
		} else {
			a = x1
			x1, f1 = x2, f2
			x2 = (1-phi)*a + phi*b
			f2 = r.DistanceAtAngle(candidate, tmpl, x2)
		}
		iterations++
	}
	return math.Min(f1, f2), iterations
}

// DistanceAtAngle is the path distance after an optional rotation of candidate.
func (r *Recognizer) DistanceAtAngle(candidate, tmpl model.Shape, angle float64) float64 {
	if r.applyRotation {
		candidate = shape.RotateBy(candidate, angle)
	}
	return PathDistance(candidate, tmpl)
}

// PathDistance is the mean distance between corresponding points.
// Points without a counterpart are ignored; empty input yields NaN.
func PathDistance(a, b model.Shape) float64 {
	n := len(a)
	if len(b) < n {
		n = len(b)
	}
	d := 0.0
	for i := 0; i < n; i++ {
		d += shape.Distance(a[i], b[i])
	}
	return d / float64(len(a))
}
