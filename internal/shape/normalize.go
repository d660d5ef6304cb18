// Package shape turns raw strokes into canonical shapes.
//
// A canonical shape has exactly N points, is scaled so that its bounding
// box is Size wide and is centered on the origin. The pipeline follows the
// $1 unistroke recognizer without the indicative-angle rotation step.
package shape

import (
	"math"

	"github.com/verte-zerg/hexcaster/internal/model"
)

const (
	// N is the number of points of every canonical shape.
	N = 64
	// Size is the bounding-box width of every canonical shape.
	Size = 256.0

	maxResampleAttempts = 8
)

// Normalize resamples, scales and translates a stroke into a canonical shape.
// Strokes shorter than a handful of points should be rejected by the caller.
func Normalize(stroke model.Stroke) model.Shape {
	points := make(model.Shape, len(stroke))
	for i, p := range stroke {
		points[i] = model.Point{X: float64(p.X), Y: float64(p.Y)}
	}
	points = ResampleExact(points, N)
	points = ScaleTo(points, Size)
	return TranslateTo(points, model.Point{})
}

// ResampleExact resamples until exactly n points come out. An overshoot that
// survives maxResampleAttempts passes is truncated to n.
func ResampleExact(points model.Shape, n int) model.Shape {
	return resampleExact(points, n, Resample)
}

func resampleExact(points model.Shape, n int, resample func(model.Shape, int) model.Shape) model.Shape {
	out := resample(points, n)
	for attempt := 1; len(out) != n && attempt < maxResampleAttempts; attempt++ {
		out = resample(out, n)
	}
	if len(out) > n {
		out = out[:n]
	}
	return out
}

// Resample walks the path emitting a point every PathLength/(n-1) units.
// Short results are padded with the final point; long results are returned
// as is so the caller can resample again.
func Resample(points model.Shape, n int) model.Shape {
	if len(points) == 0 || n <= 0 {
		return model.Shape{}
	}
	walk := make(model.Shape, len(points), len(points)+n)
	copy(walk, points)

	interval := PathLength(walk) / float64(n-1)
	acc := 0.0
	out := make(model.Shape, 1, n+1)
	out[0] = walk[0]

	for i := 1; i < len(walk); i++ {
		a, b := walk[i-1], walk[i]
		d := Distance(a, b)
		if d == 0 {
			continue
		}
		if acc+d >= interval {
			t := (interval - acc) / d
			q := model.Point{X: a.X + t*(b.X-a.X), Y: a.Y + t*(b.Y-a.Y)}
			out = append(out, q)
			// q becomes the start of the next segment.
			walk = append(walk, model.Point{})
			copy(walk[i+1:], walk[i:])
			walk[i] = q
			acc = 0
		} else {
			acc += d
		}
	}

	last := walk[len(walk)-1]
	for len(out) < n {
		out = append(out, last)
	}
	return out
}

// PathLength sums the segment lengths of the path.
func PathLength(points model.Shape) float64 {
	d := 0.0
	for i := 1; i < len(points); i++ {
		d += Distance(points[i-1], points[i])
	}
	return d
}

// Distance is the Euclidean distance between a and b.
func Distance(a, b model.Point) float64 {
	return math.Hypot(a.X-b.X, a.Y-b.Y)
}

// ScaleTo scales both axes by size/width of the bounding box.
// The height is deliberately ignored so existing templates stay comparable.
func ScaleTo(points model.Shape, size float64) model.Shape {
	width, _ := BoundingBox(points)
	out := make(model.Shape, len(points))
	for i, p := range points {
		out[i] = model.Point{X: p.X * size / width, Y: p.Y * size / width}
	}
	return out
}

// TranslateTo moves the shape so its centroid lands on k.
func TranslateTo(points model.Shape, k model.Point) model.Shape {
	c := Centroid(points)
	dx, dy := k.X-c.X, k.Y-c.Y
	out := make(model.Shape, len(points))
	for i, p := range points {
		out[i] = model.Point{X: p.X + dx, Y: p.Y + dy}
	}
	return out
}

// RotateBy rotates the shape about its centroid.
func RotateBy(points model.Shape, angle float64) model.Shape {
	c := Centroid(points)
	sin, cos := math.Sincos(angle)
	out := make(model.Shape, len(points))
	for i, p := range points {
		dx, dy := p.X-c.X, p.Y-c.Y
		out[i] = model.Point{
			X: dx*cos - dy*sin + c.X,
			Y: dx*sin + dy*cos + c.Y,
		}
	}
	return out
}

// BoundingBox returns the width and height of the axis-aligned bounding box.
func BoundingBox(points model.Shape) (width, height float64) {
	if len(points) == 0 {
		return 0, 0
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range points {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}
	return maxX - minX, maxY - minY
}

// Centroid is the arithmetic mean of the points.
func Centroid(points model.Shape) model.Point {
	if len(points) == 0 {
		return model.Point{}
	}
	var x, y float64
	for _, p := range points {
		x += p.X
		y += p.Y
	}
	n := float64(len(points))
	return model.Point{X: x / n, Y: y / n}
}
