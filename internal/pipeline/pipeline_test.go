package pipeline

import (
	"bytes"
	"context"
	"log/slog"
	"math"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/verte-zerg/hexcaster/internal/hid"
	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/trackpad"
)

// logWatch is a log sink that signals when a message shows up.
type logWatch struct {
	mu      sync.Mutex
	buf     bytes.Buffer
	waiters map[string]chan struct{}
}

func newLogWatch() *logWatch {
	return &logWatch{waiters: map[string]chan struct{}{}}
}

func (w *logWatch) Write(p []byte) (int, error) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.buf.Write(p)
	for msg, ch := range w.waiters {
		if bytes.Contains(p, []byte(msg)) {
			close(ch)
			delete(w.waiters, msg)
		}
	}
	return len(p), nil
}

func (w *logWatch) expect(msg string) <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	ch := make(chan struct{})
	w.waiters[msg] = ch
	return ch
}

func waitFor(t *testing.T, ch <-chan struct{}, what string) {
	t.Helper()
	select {
	case <-ch:
	case <-time.After(5 * time.Second):
		t.Fatalf("timed out waiting for %s", what)
	}
}

type timedReport struct {
	report hid.Report
	at     time.Time
}

type recordingSink struct {
	mu      sync.Mutex
	reports []timedReport
}

func (r *recordingSink) WriteReport(_ context.Context, rep hid.Report) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.reports = append(r.reports, timedReport{report: rep, at: time.Now()})
	return nil
}

func (r *recordingSink) snapshot() []timedReport {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]timedReport(nil), r.reports...)
}

type memJournal struct {
	mu     sync.Mutex
	events []model.CastEvent
}

func (m *memJournal) RecordCast(_ context.Context, ev model.CastEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, ev)
	return nil
}

func (m *memJournal) outcomes() []model.Outcome {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Outcome, len(m.events))
	for i, ev := range m.events {
		out[i] = ev.Outcome
	}
	return out
}

func diagonal(n int) model.Stroke {
	out := make(model.Stroke, n)
	for i := range out {
		out[i] = model.RawPoint{X: uint16(100 + 7*i), Y: uint16(100 + 7*i)}
	}
	return out
}

func circle(n int) model.Stroke {
	out := make(model.Stroke, n)
	for i := range out {
		a := 2 * math.Pi * float64(i) / float64(n)
		out[i] = model.RawPoint{X: uint16(3000 + 50*math.Cos(a)), Y: uint16(3000 + 50*math.Sin(a))}
	}
	return out
}

func sendStroke(t *testing.T, reports chan<- trackpad.Report, s model.Stroke) {
	t.Helper()
	for _, p := range s {
		reports <- trackpad.PositionReport(p)
	}
	reports <- trackpad.PositionReport(model.Sentinel)
}

type harness struct {
	pipe    *Pipeline
	reports chan trackpad.Report
	sink    *recordingSink
	journal *memJournal
	logs    *logWatch
	done    chan error
}

func start(t *testing.T, mode model.Mode) *harness {
	t.Helper()
	h := &harness{
		reports: make(chan trackpad.Report),
		sink:    &recordingSink{},
		journal: &memJournal{},
		logs:    newLogWatch(),
		done:    make(chan error, 1),
	}
	cfg := DefaultConfig()
	cfg.Mode = mode
	cfg.Journal = h.journal
	logger := slog.New(slog.NewTextHandler(h.logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	h.pipe = New(cfg, logger)
	go func() {
		h.done <- h.pipe.Run(context.Background(), trackpad.NewChanSource(h.reports), h.sink)
	}()
	return h
}

func (h *harness) stop(t *testing.T) {
	t.Helper()
	close(h.reports)
	select {
	case err := <-h.done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("pipeline did not stop")
	}
}

func (h *harness) setMode(t *testing.T, line string) {
	t.Helper()
	changed := h.logs.expect("mode changed")
	h.pipe.Commands() <- []byte(line)
	waitFor(t, changed, "mode change")
}

func TestPipelineLearnThenCast(t *testing.T) {
	h := start(t, model.ModeLearning)

	learned := h.logs.expect("learned template")
	sendStroke(t, h.reports, diagonal(70))
	waitFor(t, learned, "learned template")

	noise := h.logs.expect("stroke too short")
	sendStroke(t, h.reports, diagonal(4))
	waitFor(t, noise, "too-short warning")

	h.setMode(t, "/cast")

	sendStroke(t, h.reports, diagonal(70))
	sendStroke(t, h.reports, circle(60))
	h.stop(t)

	require.Equal(t, []model.Outcome{
		model.OutcomeLearned,
		model.OutcomeTooShort,
		model.OutcomeMatched,
		model.OutcomeRejected,
	}, h.journal.outcomes())

	reports := h.sink.snapshot()
	require.Len(t, reports, 2)
	require.False(t, reports[0].report.IsRelease())
	require.True(t, reports[1].report.IsRelease())
	require.GreaterOrEqual(t, reports[1].at.Sub(reports[0].at), 200*time.Millisecond)
}

func TestPipelineCastWithEmptyCorpus(t *testing.T) {
	h := start(t, model.ModeCasting)
	sendStroke(t, h.reports, diagonal(20))
	h.stop(t)
	require.Equal(t, []model.Outcome{model.OutcomeNoTemplates}, h.journal.outcomes())
	require.Empty(t, h.sink.snapshot())
}

func TestPipelineStopsOnCancel(t *testing.T) {
	p := New(DefaultConfig(), slog.New(slog.NewTextHandler(newLogWatch(), nil)))
	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() {
		done <- p.Run(ctx, trackpad.NewChanSource(make(chan trackpad.Report)), &recordingSink{})
	}()
	cancel()
	select {
	case err := <-done:
		require.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatalf("pipeline did not stop after cancel")
	}
}

func replayEvents(parts ...any) []trackpad.ReplayEvent {
	var events []trackpad.ReplayEvent
	for _, part := range parts {
		switch v := part.(type) {
		case string:
			events = append(events, trackpad.ReplayEvent{Command: v})
		case model.Stroke:
			for _, p := range v {
				events = append(events, trackpad.ReplayEvent{Point: p})
			}
			events = append(events, trackpad.ReplayEvent{Point: model.Sentinel})
		}
	}
	return events
}

func TestPipelineReplayAppliesCommandsInFileOrder(t *testing.T) {
	for _, interval := range []time.Duration{0, time.Millisecond} {
		journal := &memJournal{}
		sink := &recordingSink{}
		cfg := DefaultConfig()
		cfg.Journal = journal
		cfg.ReleaseDelay = 0
		p := New(cfg, slog.New(slog.NewTextHandler(newLogWatch(), nil)))

		src := trackpad.NewReplaySource(replayEvents(diagonal(70), "/cast", diagonal(70)), interval)
		require.NoError(t, p.Run(context.Background(), src, sink))
		require.Equal(t, []model.Outcome{model.OutcomeLearned, model.OutcomeMatched}, journal.outcomes(),
			"interval %s", interval)
		require.Len(t, sink.snapshot(), 2)
	}
}
