package scheduler

import (
	"context"
	"log/slog"
	"time"

	"github.com/postpilotapp/postpilot/internal/metrics"
	"github.com/postpilotapp/postpilot/internal/repository"
)

// Poller discovers due scheduled items and runs them. Claiming is a
// conditional state transition, so concurrent pollers never execute the
// same item twice.
type Poller struct {
	sr  repository.ScheduleRepository
	ex  *Executor
	now func() time.Time
}

func NewPoller(sr repository.ScheduleRepository, ex *Executor) *Poller {
	return &Poller{sr: sr, ex: ex, now: time.Now}
}

// Tick processes everything due at the current instant. Items are
// isolated from each other: one failing item never blocks the rest.
func (p *Poller) Tick(ctx context.Context) {
	items, err := p.sr.GetDue(ctx, p.now())
	if err != nil {
		slog.Info(err.Error())
		return
	}

	for _, item := range items {
		claimed, err := p.sr.Claim(ctx, item.ID)
		if err != nil {
			slog.Info(err.Error())
			continue
		}
		if !claimed {
			continue
		}
		metrics.ItemsClaimed.Inc()

		if _, err := p.ex.Execute(ctx, item); err != nil {
			slog.Error("scheduled item execution failed",
				slog.Int64("item_id", item.ID),
				slog.String("error", err.Error()))
		}
	}
}
