// Package store handles SQLite persistence of the recognition journal.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/verte-zerg/hexcaster/internal/model"

	_ "modernc.org/sqlite" // SQLite driver.
)

// timeLayout is fixed-width so text ordering matches time ordering.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

// Store wraps SQLite access for journal data.
type Store struct {
	db *sql.DB
}

// Open opens or creates the SQLite database and applies migrations.
func Open(path string) (*Store, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}
	// The recognition task is the only writer.
	db.SetMaxOpenConns(1)
	store := &Store{db: db}
	if err := store.migrate(); err != nil {
		if cerr := db.Close(); cerr != nil {
			// Best-effort close on migration failure.
			_ = cerr
		}
		return nil, err
	}
	return store, nil
}

// Close closes the underlying database.
func (s *Store) Close() error {
	return s.db.Close()
}

func (s *Store) migrate() error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS casts (
			id INTEGER PRIMARY KEY,
			session_id TEXT NOT NULL,
			at TEXT NOT NULL,
			mode TEXT NOT NULL,
			points INTEGER NOT NULL,
			outcome TEXT NOT NULL,
			template INTEGER NOT NULL,
			score REAL,
			corpus_size INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_casts_at ON casts(at);`,
		`CREATE INDEX IF NOT EXISTS idx_casts_session ON casts(session_id);`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.Exec(stmt); err != nil {
			return err
		}
	}
	return nil
}

// RecordCast stores one journal event. NaN scores are stored as NULL.
func (s *Store) RecordCast(ctx context.Context, ev model.CastEvent) error {
	var score any
	if !math.IsNaN(ev.Score) && !math.IsInf(ev.Score, 0) {
		score = ev.Score
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO casts (session_id, at, mode, points, outcome, template, score, corpus_size)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		ev.SessionID,
		ev.At.UTC().Format(timeLayout),
		ev.Mode.String(),
		ev.Points,
		string(ev.Outcome),
		ev.Template,
		score,
		ev.CorpusSize,
	)
	if err != nil {
		return fmt.Errorf("failed to insert cast: %w", err)
	}
	return nil
}

// ListEvents returns journal events filtered by stats config, oldest first.
func (s *Store) ListEvents(ctx context.Context, cfg model.StatsConfig) ([]model.CastEvent, error) {
	clauses := []string{"1=1"}
	args := []any{}
	if cfg.Session != "" {
		clauses = append(clauses, "session_id = ?")
		args = append(args, cfg.Session)
	}
	if cfg.Since != nil {
		clauses = append(clauses, "at >= ?")
		args = append(args, cfg.Since.UTC().Format(timeLayout))
	}
	query := fmt.Sprintf(`SELECT session_id, at, mode, points, outcome, template, score, corpus_size
		FROM casts
		WHERE %s
		ORDER BY at ASC, id ASC`, strings.Join(clauses, " AND "))
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var events []model.CastEvent
	for rows.Next() {
		var ev model.CastEvent
		var at, mode, outcome string
		var score sql.NullFloat64
		if err := rows.Scan(&ev.SessionID, &at, &mode, &ev.Points, &outcome, &ev.Template, &score, &ev.CorpusSize); err != nil {
			return nil, err
		}
		parsed, err := time.Parse(timeLayout, at)
		if err != nil {
			return nil, err
		}
		ev.At = parsed
		if ev.Mode, err = model.ParseMode(mode); err != nil {
			return nil, err
		}
		ev.Outcome = model.Outcome(outcome)
		ev.Score = math.NaN()
		if score.Valid {
			ev.Score = score.Float64
		}
		events = append(events, ev)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	if cfg.Last > 0 && len(events) > cfg.Last {
		events = events[len(events)-cfg.Last:]
	}
	return events, nil
}

// ListSessions summarizes every session, oldest first.
func (s *Store) ListSessions(ctx context.Context) ([]model.SessionAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT session_id, MIN(at), MAX(at), COUNT(*),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END)
		FROM casts
		GROUP BY session_id
		ORDER BY MIN(at) ASC`,
		string(model.OutcomeLearned), string(model.OutcomeMatched), string(model.OutcomeRejected))
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var sessions []model.SessionAggregate
	for rows.Next() {
		var agg model.SessionAggregate
		var started, ended string
		if err := rows.Scan(&agg.SessionID, &started, &ended, &agg.Strokes, &agg.Learned, &agg.Matched, &agg.Rejected); err != nil {
			return nil, err
		}
		if agg.StartedAt, err = time.Parse(timeLayout, started); err != nil {
			return nil, err
		}
		if agg.EndedAt, err = time.Parse(timeLayout, ended); err != nil {
			return nil, err
		}
		sessions = append(sessions, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return sessions, nil
}

// TemplateAggregates summarizes casting outcomes per template of a session.
func (s *Store) TemplateAggregates(ctx context.Context, sessionID string) ([]model.TemplateAggregate, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT template, COUNT(*),
		SUM(CASE WHEN outcome = ? THEN 1 ELSE 0 END),
		SUM(score), MAX(score)
		FROM casts
		WHERE session_id = ? AND mode = ? AND template >= 0 AND score IS NOT NULL
		GROUP BY template
		ORDER BY template ASC`,
		string(model.OutcomeMatched), sessionID, model.ModeCasting.String())
	if err != nil {
		return nil, err
	}
	defer func() {
		if cerr := rows.Close(); cerr != nil {
			// Best-effort rows close.
			_ = cerr
		}
	}()

	var result []model.TemplateAggregate
	for rows.Next() {
		var agg model.TemplateAggregate
		if err := rows.Scan(&agg.Template, &agg.Casts, &agg.Matches, &agg.ScoreSum, &agg.BestScore); err != nil {
			return nil, err
		}
		result = append(result, agg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}
