// Package stats renders reports over the recognition journal.
package stats

import (
	"fmt"
	"io"
	"math"
	"sort"
	"strings"

	"github.com/verte-zerg/hexcaster/internal/model"
)

const sparkChars = " .:-=+*#%@"

// Summary counts outcomes over a set of journal events.
type Summary struct {
	Strokes     int
	Learned     int
	Matched     int
	Rejected    int
	NoTemplates int
	TooShort    int
	// ScoreSum and Scored cover casts that produced a finite score.
	ScoreSum float64
	Scored   int
}

// Summarize folds events into a Summary.
func Summarize(events []model.CastEvent) Summary {
	var s Summary
	for _, ev := range events {
		s.Strokes++
		switch ev.Outcome {
		case model.OutcomeLearned:
			s.Learned++
		case model.OutcomeMatched:
			s.Matched++
		case model.OutcomeRejected:
			s.Rejected++
		case model.OutcomeNoTemplates:
			s.NoTemplates++
		case model.OutcomeTooShort:
			s.TooShort++
		}
		if ev.Mode == model.ModeCasting && isFinite(ev.Score) {
			s.ScoreSum += ev.Score
			s.Scored++
		}
	}
	return s
}

// MatchRate is matched / (matched + rejected), or 0 with no attempts.
func (s Summary) MatchRate() float64 {
	attempts := s.Matched + s.Rejected
	if attempts == 0 {
		return 0
	}
	return float64(s.Matched) / float64(attempts)
}

// AverageScore is the mean of finite casting scores, or NaN with none.
func (s Summary) AverageScore() float64 {
	if s.Scored == 0 {
		return math.NaN()
	}
	return s.ScoreSum / float64(s.Scored)
}

// CastScores extracts finite casting scores in journal order.
func CastScores(events []model.CastEvent) []float64 {
	var out []float64
	for _, ev := range events {
		if ev.Mode == model.ModeCasting && isFinite(ev.Score) {
			out = append(out, ev.Score)
		}
	}
	return out
}

// MovingAverage computes a rolling mean over the provided window size.
func MovingAverage(values []float64, window int) []float64 {
	out := make([]float64, len(values))
	if window <= 1 {
		copy(out, values)
		return out
	}
	var sum float64
	for i, v := range values {
		sum += v
		if i >= window {
			sum -= values[i-window]
		}
		out[i] = sum / float64(min(i+1, window))
	}
	return out
}

// Sparkline renders a single-line ASCII sparkline scaled to [lo, hi].
// Values outside the range are clamped.
func Sparkline(values []float64, lo, hi float64) string {
	if len(values) == 0 {
		return ""
	}
	if hi-lo < 1e-9 {
		return strings.Repeat(string(sparkChars[len(sparkChars)/2]), len(values))
	}
	var b strings.Builder
	last := len(sparkChars) - 1
	for _, v := range values {
		idx := int(math.Round((v - lo) / (hi - lo) * float64(last)))
		b.WriteByte(sparkChars[min(max(idx, 0), last)])
	}
	return b.String()
}

// RenderSummary prints outcome counts for one session.
func RenderSummary(w io.Writer, session model.SessionAggregate, summary Summary) error {
	lines := []string{
		"Summary",
		fmt.Sprintf("Session: %s", session.SessionID),
	}
	if !session.StartedAt.IsZero() {
		lines = append(lines, fmt.Sprintf("Span: %s .. %s",
			session.StartedAt.Local().Format("2006-01-02 15:04:05"),
			session.EndedAt.Local().Format("15:04:05")))
	}
	lines = append(lines,
		fmt.Sprintf("Strokes: %d", summary.Strokes),
		fmt.Sprintf("Learned: %d", summary.Learned),
		fmt.Sprintf("Matched: %d", summary.Matched),
		fmt.Sprintf("Rejected: %d", summary.Rejected),
	)
	if summary.NoTemplates > 0 {
		lines = append(lines, fmt.Sprintf("No templates: %d", summary.NoTemplates))
	}
	if summary.TooShort > 0 {
		lines = append(lines, fmt.Sprintf("Too short: %d", summary.TooShort))
	}
	lines = append(lines,
		fmt.Sprintf("Match rate: %.2f%%", summary.MatchRate()*100),
		fmt.Sprintf("Avg score: %s", formatScore(summary.AverageScore())),
		"",
	)
	for _, line := range lines {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	return nil
}

// RenderTemplateTable prints per-template casting aggregates, weakest first.
func RenderTemplateTable(w io.Writer, aggs []model.TemplateAggregate) error {
	if len(aggs) == 0 {
		_, err := fmt.Fprintln(w, "No casts against templates found.")
		return err
	}
	rows := make([]model.TemplateAggregate, len(aggs))
	copy(rows, aggs)
	sort.Slice(rows, func(i, j int) bool {
		ai, aj := averageScore(rows[i]), averageScore(rows[j])
		if ai == aj {
			return rows[i].Template < rows[j].Template
		}
		return ai < aj
	})

	if _, err := fmt.Fprintln(w, "Per-Template"); err != nil {
		return err
	}
	headers := []string{"Template", "Casts", "Matches", "Avg Score", "Best Score"}
	tableRows := make([][]string, 0, len(rows))
	for _, agg := range rows {
		tableRows = append(tableRows, []string{
			fmt.Sprintf("#%d", agg.Template),
			fmt.Sprintf("%d", agg.Casts),
			fmt.Sprintf("%d", agg.Matches),
			formatScore(averageScore(agg)),
			formatScore(agg.BestScore),
		})
	}
	rightAlign := map[int]bool{1: true, 2: true, 3: true, 4: true}
	for _, line := range formatTable(headers, tableRows, rightAlign) {
		if _, err := fmt.Fprintln(w, line); err != nil {
			return err
		}
	}
	_, err := fmt.Fprintln(w, "")
	return err
}

// RenderScoreCurve prints the moving average of casting scores as a
// sparkline followed by a braille plot sized to totalWidth.
func RenderScoreCurve(w io.Writer, scores []float64, window, totalWidth int, threshold float64) error {
	if len(scores) == 0 {
		_, err := fmt.Fprintln(w, "No casting scores recorded.")
		return err
	}
	smoothed := MovingAverage(scores, window)
	if _, err := fmt.Fprintf(w, "Scores (moving average, window %d)\n", max(window, 1)); err != nil {
		return err
	}
	if _, err := fmt.Fprintf(w, "[%s]\n", Sparkline(smoothed, 0, 1)); err != nil {
		return err
	}
	return PlotScores(w, smoothed, threshold, PlotWidthFor(totalWidth), defaultPlotHeight)
}

func averageScore(agg model.TemplateAggregate) float64 {
	if agg.Casts == 0 {
		return 0
	}
	return agg.ScoreSum / float64(agg.Casts)
}

func formatScore(v float64) string {
	if !isFinite(v) {
		return "n/a"
	}
	return fmt.Sprintf("%.3f", v)
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
