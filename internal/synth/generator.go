// Package synth builds synthetic trackpad strokes.
package synth

import (
	"fmt"
	"math"
	"math/rand"
	"sort"
	"time"

	"github.com/verte-zerg/hexcaster/internal/model"
)

// Canvas placement used by Shape. Coordinates stay well clear of the
// no-contact sentinel at the origin.
const (
	canvasOrigin = 1000
	canvasSize   = 800
)

// Generator produces randomized strokes.
type Generator struct {
	rnd *rand.Rand
}

// New returns a Generator for seed. A zero seed uses the current time.
func New(seed int64) *Generator {
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &Generator{rnd: rand.New(rand.NewSource(seed))}
}

var shapes = map[string]func(g *Generator, n int) model.Stroke{
	"line": func(g *Generator, n int) model.Stroke {
		return g.Line(n, model.Point{X: canvasOrigin, Y: canvasOrigin}, model.Point{X: canvasOrigin + canvasSize, Y: canvasOrigin + canvasSize})
	},
	"circle": func(g *Generator, n int) model.Stroke {
		c := canvasOrigin + canvasSize/2
		return g.Circle(n, model.Point{X: float64(c), Y: float64(c)}, canvasSize/2)
	},
	"zigzag": func(g *Generator, n int) model.Stroke {
		return g.Zigzag(n, model.Point{X: canvasOrigin, Y: canvasOrigin}, canvasSize, canvasSize/2, 3)
	},
}

// Shapes lists the names accepted by Shape.
func Shapes() []string {
	names := make([]string, 0, len(shapes))
	for name := range shapes {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Shape draws a named shape with n samples, then applies jitter of up to
// jitter units per axis.
func (g *Generator) Shape(name string, n int, jitter float64) (model.Stroke, error) {
	draw, ok := shapes[name]
	if !ok {
		return nil, fmt.Errorf("unknown shape %q (want one of %v)", name, Shapes())
	}
	if n < 2 {
		return nil, fmt.Errorf("points must be at least 2, got %d", n)
	}
	return g.Jitter(draw(g, n), jitter), nil
}

// Line samples n points evenly from a to b.
func (g *Generator) Line(n int, a, b model.Point) model.Stroke {
	out := make(model.Stroke, n)
	for i := range out {
		t := fraction(i, n)
		out[i] = toRaw(a.X+(b.X-a.X)*t, a.Y+(b.Y-a.Y)*t)
	}
	return out
}

// Circle samples n points on one turn starting at a random phase.
func (g *Generator) Circle(n int, center model.Point, radius float64) model.Stroke {
	phase := g.rnd.Float64() * 2 * math.Pi
	out := make(model.Stroke, n)
	for i := range out {
		a := phase + 2*math.Pi*float64(i)/float64(n)
		out[i] = toRaw(center.X+radius*math.Cos(a), center.Y+radius*math.Sin(a))
	}
	return out
}

// Zigzag samples n points along teeth triangular waves spanning width
// horizontally and height vertically.
func (g *Generator) Zigzag(n int, origin model.Point, width, height float64, teeth int) model.Stroke {
	teeth = max(teeth, 1)
	out := make(model.Stroke, n)
	for i := range out {
		t := fraction(i, n)
		wave := math.Abs(math.Mod(t*float64(teeth)*2, 2) - 1)
		out[i] = toRaw(origin.X+width*t, origin.Y+height*(1-wave))
	}
	return out
}

// Jitter returns a copy of s with each axis moved by up to amount.
func (g *Generator) Jitter(s model.Stroke, amount float64) model.Stroke {
	out := make(model.Stroke, len(s))
	for i, p := range s {
		if amount <= 0 {
			out[i] = p
			continue
		}
		dx := (g.rnd.Float64()*2 - 1) * amount
		dy := (g.rnd.Float64()*2 - 1) * amount
		out[i] = toRaw(float64(p.X)+dx, float64(p.Y)+dy)
	}
	return out
}

func fraction(i, n int) float64 {
	if n <= 1 {
		return 0
	}
	return float64(i) / float64(n-1)
}

// toRaw rounds into the sensor range, never producing the sentinel.
func toRaw(x, y float64) model.RawPoint {
	clamp := func(v float64) uint16 {
		return uint16(math.Min(math.Max(math.Round(v), 1), math.MaxUint16))
	}
	return model.RawPoint{X: clamp(x), Y: clamp(y)}
}
