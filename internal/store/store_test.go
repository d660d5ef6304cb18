package store

import (
	"context"
	"math"
	"path/filepath"
	"testing"
	"time"

	"github.com/verte-zerg/hexcaster/internal/model"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	st, err := Open(filepath.Join(t.TempDir(), "hexcaster.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = st.Close()
	})
	return st
}

func TestRecordAndListEvents(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	events := []model.CastEvent{
		{SessionID: "s1", At: base, Mode: model.ModeLearning, Points: 40, Outcome: model.OutcomeLearned, Template: 0, Score: math.NaN(), CorpusSize: 1},
		{SessionID: "s1", At: base.Add(time.Second), Mode: model.ModeCasting, Points: 38, Outcome: model.OutcomeMatched, Template: 0, Score: 0.91, CorpusSize: 1},
		{SessionID: "s1", At: base.Add(2 * time.Second), Mode: model.ModeCasting, Points: 50, Outcome: model.OutcomeRejected, Template: 0, Score: 0.2, CorpusSize: 1},
		{SessionID: "s2", At: base.Add(time.Hour), Mode: model.ModeCasting, Points: 3, Outcome: model.OutcomeTooShort, Template: -1, Score: math.NaN()},
	}
	for _, ev := range events {
		if err := st.RecordCast(ctx, ev); err != nil {
			t.Fatalf("record: %v", err)
		}
	}

	all, err := st.ListEvents(ctx, model.StatsConfig{})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("expected 4 events, got %d", len(all))
	}
	if !math.IsNaN(all[0].Score) {
		t.Fatalf("expected NaN score for learned event, got %f", all[0].Score)
	}
	if all[1].Score != 0.91 || all[1].Mode != model.ModeCasting || !all[1].At.Equal(events[1].At) {
		t.Fatalf("unexpected event %+v", all[1])
	}

	last, err := st.ListEvents(ctx, model.StatsConfig{Session: "s1", Last: 2})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(last) != 2 || last[0].Outcome != model.OutcomeMatched {
		t.Fatalf("unexpected filtered events %+v", last)
	}

	since := base.Add(30 * time.Minute)
	late, err := st.ListEvents(ctx, model.StatsConfig{Since: &since})
	if err != nil {
		t.Fatalf("list: %v", err)
	}
	if len(late) != 1 || late[0].SessionID != "s2" {
		t.Fatalf("unexpected since events %+v", late)
	}
}

func TestListSessionsAndTemplates(t *testing.T) {
	st := openTestStore(t)
	ctx := context.Background()
	base := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	record := func(session string, offset time.Duration, mode model.Mode, outcome model.Outcome, tmpl int, score float64) {
		t.Helper()
		err := st.RecordCast(ctx, model.CastEvent{SessionID: session, At: base.Add(offset), Mode: mode, Outcome: outcome, Template: tmpl, Score: score})
		if err != nil {
			t.Fatalf("record: %v", err)
		}
	}
	record("a", 0, model.ModeLearning, model.OutcomeLearned, 0, math.NaN())
	record("a", time.Second, model.ModeCasting, model.OutcomeMatched, 0, 0.9)
	record("a", 2*time.Second, model.ModeCasting, model.OutcomeRejected, 0, 0.3)
	record("a", 3*time.Second, model.ModeCasting, model.OutcomeMatched, 1, 0.7)
	record("b", time.Hour, model.ModeCasting, model.OutcomeNoTemplates, -1, math.NaN())

	sessions, err := st.ListSessions(ctx)
	if err != nil {
		t.Fatalf("sessions: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "a" {
		t.Fatalf("unexpected sessions %+v", sessions)
	}
	if sessions[0].Strokes != 4 || sessions[0].Learned != 1 || sessions[0].Matched != 2 || sessions[0].Rejected != 1 {
		t.Fatalf("unexpected session aggregate %+v", sessions[0])
	}

	aggs, err := st.TemplateAggregates(ctx, "a")
	if err != nil {
		t.Fatalf("templates: %v", err)
	}
	if len(aggs) != 2 {
		t.Fatalf("expected 2 templates, got %d", len(aggs))
	}
	if aggs[0].Casts != 2 || aggs[0].Matches != 1 || aggs[0].BestScore != 0.9 {
		t.Fatalf("unexpected template aggregate %+v", aggs[0])
	}
	if math.Abs(aggs[0].ScoreSum-1.2) > 1e-9 {
		t.Fatalf("expected score sum 1.2, got %f", aggs[0].ScoreSum)
	}
}
