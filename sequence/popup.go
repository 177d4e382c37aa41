package sequence

import (
	"context"
	"log/slog"
	"time"
)

// PopupGuard closes transient overlays that may or may not be shown.
type PopupGuard struct {
	drv    Driver
	res    *Resolver
	logger *slog.Logger
}

// NewPopupGuard creates a PopupGuard.
func NewPopupGuard(drv Driver, res *Resolver, logger *slog.Logger) *PopupGuard {
	if logger == nil {
		logger = slog.Default()
	}
	return &PopupGuard{drv: drv, res: res, logger: logger}
}

// DismissAll checks every overlay independently, each for exactly timeout,
// and clicks its dismiss target when present. An absent overlay is not an
// error. It returns how many overlays were dismissed.
func (g *PopupGuard) DismissAll(ctx context.Context, scope Scope, overlays []Candidate, timeout time.Duration) int {
	n := 0
	for _, c := range overlays {
		if ctx.Err() != nil {
			break
		}
		m, err := g.res.resolveSlice(ctx, []Candidate{c}, scope, timeout)
		if err != nil {
			g.logger.Debug("sequence: overlay absent", "overlay", c.Name())
			continue
		}
		if err := g.drv.Click(ctx, m.Element); err != nil {
			g.logger.Warn("sequence: overlay dismiss click failed", "overlay", c.Name(), "error", err)
			continue
		}
		n++
		g.logger.Info("sequence: overlay dismissed", "overlay", c.Name())
	}
	return n
}
