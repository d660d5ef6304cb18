package stats

import (
	"math"
	"testing"

	"github.com/verte-zerg/hexcaster/internal/model"
)

func TestMovingAverage(t *testing.T) {
	got := MovingAverage([]float64{1, 2, 3, 4}, 2)
	want := []float64{1, 1.5, 2.5, 3.5}
	for i := range want {
		if math.Abs(got[i]-want[i]) > 1e-9 {
			t.Fatalf("index %d: expected %f, got %f", i, want[i], got[i])
		}
	}
	if flat := MovingAverage([]float64{3, 1}, 1); flat[0] != 3 || flat[1] != 1 {
		t.Fatalf("window 1 should copy values, got %v", flat)
	}
}

func TestSparklineClampsToRange(t *testing.T) {
	if got := Sparkline([]float64{-1, 0, 0.5, 1, 2}, 0, 1); got != "  +@@" {
		t.Fatalf("unexpected sparkline %q", got)
	}
	if got := Sparkline(nil, 0, 1); got != "" {
		t.Fatalf("expected empty sparkline, got %q", got)
	}
}

func TestSummarize(t *testing.T) {
	s := Summarize([]model.CastEvent{
		{Mode: model.ModeLearning, Outcome: model.OutcomeLearned, Score: math.NaN()},
		{Mode: model.ModeCasting, Outcome: model.OutcomeMatched, Score: 0.8},
		{Mode: model.ModeCasting, Outcome: model.OutcomeRejected, Score: 0.4},
		{Mode: model.ModeCasting, Outcome: model.OutcomeRejected, Score: math.NaN()},
		{Mode: model.ModeCasting, Outcome: model.OutcomeNoTemplates, Score: math.NaN()},
	})
	if s.Strokes != 5 || s.Learned != 1 || s.Matched != 1 || s.Rejected != 2 || s.NoTemplates != 1 {
		t.Fatalf("unexpected counts %+v", s)
	}
	if math.Abs(s.MatchRate()-1.0/3.0) > 1e-9 {
		t.Fatalf("unexpected match rate %f", s.MatchRate())
	}
	if math.Abs(s.AverageScore()-0.6) > 1e-9 {
		t.Fatalf("unexpected average score %f", s.AverageScore())
	}
	if !math.IsNaN(Summarize(nil).AverageScore()) {
		t.Fatalf("expected NaN average without scores")
	}
}

func TestWeakestTemplates(t *testing.T) {
	got := WeakestTemplates([]model.TemplateAggregate{
		{Template: 0, Casts: 4, Matches: 4},
		{Template: 1, Casts: 4, Matches: 1},
		{Template: 2, Casts: 0},
		{Template: 3, Casts: 2, Matches: 1},
	}, 2)
	if len(got) != 2 || got[0] != 1 || got[1] != 3 {
		t.Fatalf("unexpected weakest templates %v", got)
	}
}
