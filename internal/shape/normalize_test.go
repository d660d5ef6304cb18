package shape

import (
	"math"
	"math/rand"
	"testing"

	"github.com/verte-zerg/hexcaster/internal/model"
)

const tolerance = 1e-6

func diagonal(n int) model.Stroke {
	out := make(model.Stroke, n)
	for i := range out {
		out[i] = model.RawPoint{X: uint16(10 + 3*i), Y: uint16(20 + 2*i)}
	}
	return out
}

func TestNormalizeProducesExactlyNPoints(t *testing.T) {
	rnd := rand.New(rand.NewSource(42))
	for trial := 0; trial < 200; trial++ {
		n := 5 + rnd.Intn(300)
		stroke := make(model.Stroke, 0, n)
		x, y := 1000, 1000
		for len(stroke) < n {
			x += rnd.Intn(41) - 20
			y += rnd.Intn(41) - 20
			p := model.RawPoint{X: uint16(x), Y: uint16(y)}
			if len(stroke) > 0 && stroke[len(stroke)-1] == p {
				continue
			}
			stroke = append(stroke, p)
		}
		out := Normalize(stroke)
		if len(out) != N {
			t.Fatalf("trial %d (%d points): expected %d points, got %d", trial, n, N, len(out))
		}
	}
}

func TestNormalizeDiagonalLine(t *testing.T) {
	out := Normalize(diagonal(70))
	if len(out) != N {
		t.Fatalf("expected %d points, got %d", N, len(out))
	}
	width, height := BoundingBox(out)
	if math.Abs(width-Size) > tolerance {
		t.Fatalf("expected width %.1f, got %f", Size, width)
	}
	// Height is scaled by the width factor too.
	if math.Abs(height-Size*2/3) > tolerance {
		t.Fatalf("expected height %f, got %f", Size*2/3, height)
	}
	c := Centroid(out)
	if math.Abs(c.X) > tolerance || math.Abs(c.Y) > tolerance {
		t.Fatalf("expected centroid at origin, got %+v", c)
	}
}

func TestScaleToIsIdempotentOnWidth(t *testing.T) {
	once := Normalize(diagonal(40))
	twice := TranslateTo(ScaleTo(ResampleExact(once, N), Size), model.Point{})
	width, _ := BoundingBox(twice)
	if math.Abs(width-Size) > tolerance {
		t.Fatalf("expected width %.1f after re-normalizing, got %f", Size, width)
	}
}

func TestTranslateToCentroid(t *testing.T) {
	pts := model.Shape{{X: 1, Y: 1}, {X: 5, Y: 3}, {X: -2, Y: 8}, {X: 100, Y: -40}}
	out := TranslateTo(pts, model.Point{})
	c := Centroid(out)
	if math.Abs(c.X) > tolerance || math.Abs(c.Y) > tolerance {
		t.Fatalf("expected centroid at origin, got %+v", c)
	}
	if pts[0].X != 1 {
		t.Fatalf("input must not be mutated")
	}
}

func TestResampleSpacing(t *testing.T) {
	pts := model.Shape{{X: 0, Y: 0}, {X: 63, Y: 0}}
	out := Resample(pts, N)
	if len(out) != N {
		t.Fatalf("expected %d points, got %d", N, len(out))
	}
	for i := 1; i < len(out); i++ {
		if d := Distance(out[i-1], out[i]); math.Abs(d-1) > tolerance {
			t.Fatalf("segment %d: expected spacing 1, got %f", i, d)
		}
	}
}

func TestRotateByQuarterTurn(t *testing.T) {
	pts := model.Shape{{X: -1, Y: 0}, {X: 1, Y: 0}}
	out := RotateBy(pts, math.Pi/2)
	if math.Abs(out[0].X) > tolerance || math.Abs(out[0].Y+1) > tolerance {
		t.Fatalf("unexpected rotated point %+v", out[0])
	}
}

func TestBoundingBoxEmpty(t *testing.T) {
	w, h := BoundingBox(nil)
	if w != 0 || h != 0 {
		t.Fatalf("expected zero box, got %f x %f", w, h)
	}
}

func shapeOfLen(n int) model.Shape {
	out := make(model.Shape, n)
	for i := range out {
		out[i] = model.Point{X: float64(i)}
	}
	return out
}

func TestResampleExactTruncatesPersistentOvershoot(t *testing.T) {
	calls := 0
	overshoot := func(_ model.Shape, n int) model.Shape {
		calls++
		return shapeOfLen(n + 3)
	}
	out := resampleExact(shapeOfLen(10), N, overshoot)
	if len(out) != N {
		t.Fatalf("expected %d points, got %d", N, len(out))
	}
	if calls != maxResampleAttempts {
		t.Fatalf("expected %d resample passes, got %d", maxResampleAttempts, calls)
	}
	if out[N-1].X != float64(N-1) {
		t.Fatalf("expected the leading points to be kept, last is %v", out[N-1])
	}
}

func TestResampleExactRetriesOvershootOnce(t *testing.T) {
	calls := 0
	settles := func(_ model.Shape, n int) model.Shape {
		calls++
		if calls == 1 {
			return shapeOfLen(n + 1)
		}
		return shapeOfLen(n)
	}
	if out := resampleExact(shapeOfLen(10), N, settles); len(out) != N {
		t.Fatalf("expected %d points, got %d", N, len(out))
	}
	if calls != 2 {
		t.Fatalf("expected 2 resample passes, got %d", calls)
	}
}
