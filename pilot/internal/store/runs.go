package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/hazyhaar/blogpilot/sequence"
)

// ErrNotFound is returned when a run does not exist.
var ErrNotFound = errors.New("store: run not found")

// Store wraps the run database.
type Store struct {
	DB *sql.DB

	attempts int
	backoff  time.Duration
}

// Open opens (or creates) the run database at path. ":memory:" gives a
// private in-memory database.
func Open(path string) (*Store, error) {
	db, err := open(path)
	if err != nil {
		return nil, err
	}
	return &Store{DB: db, attempts: saveAttempts, backoff: saveBackoff}, nil
}

// Close closes the database.
func (s *Store) Close() error { return s.DB.Close() }

// Run is a stored report.
type Run struct {
	ID        string             `json:"id"`
	Title     string             `json:"title,omitempty"`
	State     sequence.State     `json:"state"`
	Error     string             `json:"error,omitempty"`
	Steps     int                `json:"steps"`
	StartedAt time.Time          `json:"started_at"`
	Elapsed   time.Duration      `json:"elapsed"`
	Outcomes  []sequence.Outcome `json:"outcomes,omitempty"`
}

// SaveReport stores rep under rep.RunID. title labels the run in listings.
func (s *Store) SaveReport(ctx context.Context, rep *sequence.Report, title string) error {
	if rep.RunID == "" {
		return fmt.Errorf("store: save report: empty run id")
	}
	return s.inTx(ctx, func(tx *sql.Tx) error {
		_, err := tx.ExecContext(ctx,
			`INSERT INTO runs (id, title, state, error, steps, started_at, elapsed_ms)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			rep.RunID, title, rep.State.String(), rep.Error, len(rep.Outcomes),
			rep.StartedAt.UnixMilli(), rep.Elapsed.Milliseconds(),
		)
		if err != nil {
			return fmt.Errorf("store: insert run: %w", err)
		}

		for i, o := range rep.Outcomes {
			trail, err := json.Marshal(nonNil(o.Trail))
			if err != nil {
				return fmt.Errorf("store: marshal trail: %w", err)
			}
			attempts, err := json.Marshal(nonNil(o.Attempts))
			if err != nil {
				return fmt.Errorf("store: marshal attempts: %w", err)
			}
			var kind, expr, label string
			if o.Matched != nil {
				kind, expr, label = string(o.Matched.Kind), o.Matched.Expr, o.Matched.Label
			}
			_, err = tx.ExecContext(ctx,
				`INSERT INTO outcomes (run_id, seq, step, action, state, success,
				matched_kind, matched_expr, matched_label, trail_json, attempts_json,
				warning, error, dismissed, typed, duration_ms)
				VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
				rep.RunID, i, o.Step, string(o.Action), o.State.String(), o.Success,
				kind, expr, label, string(trail), string(attempts),
				o.Warning, o.Detail, o.Dismissed, o.Typed, o.Duration.Milliseconds(),
			)
			if err != nil {
				return fmt.Errorf("store: insert outcome %d: %w", i, err)
			}
		}
		return nil
	})
}

// GetRun returns a run with its outcomes.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	row := s.DB.QueryRowContext(ctx,
		`SELECT id, title, state, error, steps, started_at, elapsed_ms
		FROM runs WHERE id = ?`, id)
	r, err := scanRun(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	rows, err := s.DB.QueryContext(ctx,
		`SELECT step, action, state, success, matched_kind, matched_expr, matched_label,
		trail_json, attempts_json, warning, error, dismissed, typed, duration_ms
		FROM outcomes WHERE run_id = ? ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("store: query outcomes: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			o                 sequence.Outcome
			action, state     string
			kind, expr, label string
			trail, attempts   string
			durationMs        int64
		)
		if err := rows.Scan(&o.Step, &action, &state, &o.Success, &kind, &expr, &label,
			&trail, &attempts, &o.Warning, &o.Detail, &o.Dismissed, &o.Typed, &durationMs); err != nil {
			return nil, fmt.Errorf("scan outcome: %w", err)
		}
		o.Action = sequence.Action(action)
		if o.State, err = sequence.ParseState(state); err != nil {
			return nil, fmt.Errorf("store: outcome %s: %w", o.Step, err)
		}
		if kind != "" {
			o.Matched = &sequence.Candidate{Kind: sequence.Kind(kind), Expr: expr, Label: label}
		}
		if err := json.Unmarshal([]byte(trail), &o.Trail); err != nil {
			return nil, fmt.Errorf("store: outcome %s trail: %w", o.Step, err)
		}
		if err := json.Unmarshal([]byte(attempts), &o.Attempts); err != nil {
			return nil, fmt.Errorf("store: outcome %s attempts: %w", o.Step, err)
		}
		if len(o.Trail) == 0 {
			o.Trail = nil
		}
		if len(o.Attempts) == 0 {
			o.Attempts = nil
		}
		o.Duration = time.Duration(durationMs) * time.Millisecond
		r.Outcomes = append(r.Outcomes, o)
	}
	return r, rows.Err()
}

// ListRuns returns runs newest first, without outcomes.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	if limit <= 0 {
		limit = 50
	}
	rows, err := s.DB.QueryContext(ctx,
		`SELECT id, title, state, error, steps, started_at, elapsed_ms
		FROM runs ORDER BY started_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("store: query runs: %w", err)
	}
	defer rows.Close()

	var result []*Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, r)
	}
	return result, rows.Err()
}

// MatchStat counts how often a candidate resolved a step.
type MatchStat struct {
	Step      string             `json:"step"`
	Candidate sequence.Candidate `json:"candidate"`
	Count     int                `json:"count"`
	LastSeen  time.Time          `json:"last_seen"`
}

// MatchStats aggregates the matched candidate of every successful outcome,
// most frequent first within each step. A step whose preferred candidate
// stopped matching shows up as a shift in these counts.
func (s *Store) MatchStats(ctx context.Context) ([]MatchStat, error) {
	rows, err := s.DB.QueryContext(ctx,
		`SELECT o.step, o.matched_kind, o.matched_expr, o.matched_label,
		COUNT(*), MAX(r.started_at)
		FROM outcomes o JOIN runs r ON r.id = o.run_id
		WHERE o.matched_kind != '' AND o.success = 1
		GROUP BY o.step, o.matched_kind, o.matched_expr, o.matched_label
		ORDER BY o.step, COUNT(*) DESC, o.matched_expr`)
	if err != nil {
		return nil, fmt.Errorf("store: query match stats: %w", err)
	}
	defer rows.Close()

	var result []MatchStat
	for rows.Next() {
		var m MatchStat
		var kind string
		var last int64
		if err := rows.Scan(&m.Step, &kind, &m.Candidate.Expr, &m.Candidate.Label, &m.Count, &last); err != nil {
			return nil, fmt.Errorf("scan match stat: %w", err)
		}
		m.Candidate.Kind = sequence.Kind(kind)
		m.LastSeen = time.UnixMilli(last).UTC()
		result = append(result, m)
	}
	return result, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRun(sc scanner) (*Run, error) {
	var (
		r                    Run
		state                string
		startedMs, elapsedMs int64
	)
	if err := sc.Scan(&r.ID, &r.Title, &state, &r.Error, &r.Steps, &startedMs, &elapsedMs); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, err
		}
		return nil, fmt.Errorf("scan run: %w", err)
	}
	st, err := sequence.ParseState(state)
	if err != nil {
		return nil, fmt.Errorf("store: run %s: %w", r.ID, err)
	}
	r.State = st
	r.StartedAt = time.UnixMilli(startedMs).UTC()
	r.Elapsed = time.Duration(elapsedMs) * time.Millisecond
	return &r, nil
}

func nonNil[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}
