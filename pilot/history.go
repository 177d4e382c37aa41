package pilot

import (
	"context"

	"github.com/hazyhaar/blogpilot/pilot/internal/store"
)

// Run is a stored publish report.
type Run = store.Run

// MatchStat counts how often a candidate resolved a step.
type MatchStat = store.MatchStat

// ErrRunNotFound is returned by Run for an unknown id.
var ErrRunNotFound = store.ErrNotFound

// Runs lists stored runs newest first, without their outcomes.
func (p *Pilot) Runs(ctx context.Context, limit int) ([]*Run, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.ListRuns(ctx, limit)
}

// Run returns one stored run with its step outcomes.
func (p *Pilot) Run(ctx context.Context, id string) (*Run, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.GetRun(ctx, id)
}

// Matches aggregates which candidate resolved each step across runs.
func (p *Pilot) Matches(ctx context.Context) ([]MatchStat, error) {
	if p.store == nil {
		return nil, ErrNoStore
	}
	return p.store.MatchStats(ctx)
}
