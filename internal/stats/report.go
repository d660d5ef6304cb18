package stats

import (
	"context"
	"fmt"
	"io"

	"github.com/verte-zerg/hexcaster/internal/model"
	"github.com/verte-zerg/hexcaster/internal/store"
)

// Report contains precomputed data for stats rendering.
type Report struct {
	Session   model.SessionAggregate
	Sessions  int
	Events    []model.CastEvent
	Summary   Summary
	Templates []model.TemplateAggregate
	Weakest   []int
}

// BuildReport loads one session from the journal. Without cfg.Session the
// most recent session is used. An empty journal yields a zero Report.
func BuildReport(ctx context.Context, st *store.Store, cfg model.StatsConfig) (Report, error) {
	sessions, err := st.ListSessions(ctx)
	if err != nil {
		return Report{}, err
	}
	if len(sessions) == 0 {
		return Report{}, nil
	}
	session := sessions[len(sessions)-1]
	if cfg.Session != "" {
		found := false
		for _, s := range sessions {
			if s.SessionID == cfg.Session {
				session, found = s, true
				break
			}
		}
		if !found {
			return Report{}, fmt.Errorf("unknown session %q", cfg.Session)
		}
	}

	filter := cfg
	filter.Session = session.SessionID
	events, err := st.ListEvents(ctx, filter)
	if err != nil {
		return Report{}, err
	}
	templates, err := st.TemplateAggregates(ctx, session.SessionID)
	if err != nil {
		return Report{}, err
	}
	return Report{
		Session:   session,
		Sessions:  len(sessions),
		Events:    events,
		Summary:   Summarize(events),
		Templates: templates,
		Weakest:   WeakestTemplates(templates, 3),
	}, nil
}

// Render writes the full report. totalWidth of zero sizes the plot to the terminal.
func Render(w io.Writer, report Report, window, totalWidth int, threshold float64) error {
	if report.Session.SessionID == "" {
		_, err := fmt.Fprintln(w, "No sessions found.")
		return err
	}
	if _, err := fmt.Fprintf(w, "Sessions in journal: %d\n\n", report.Sessions); err != nil {
		return err
	}
	if err := RenderSummary(w, report.Session, report.Summary); err != nil {
		return err
	}
	if err := RenderTemplateTable(w, report.Templates); err != nil {
		return err
	}
	if len(report.Weakest) > 0 {
		if _, err := fmt.Fprintf(w, "Weakest templates: %s\n\n", formatTemplates(report.Weakest)); err != nil {
			return err
		}
	}
	return RenderScoreCurve(w, CastScores(report.Events), window, totalWidth, threshold)
}
