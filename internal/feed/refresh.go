package feed

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	appLog "meetslot/internal/log"
)

const warmTimeout = time.Minute

// Warmer is anything that can refresh its cached view of today.
type Warmer interface {
	Warm(ctx context.Context) error
}

// Refresher runs Warm on a cron schedule.
type Refresher struct {
	cron *cron.Cron
}

// NewRefresher schedules w.Warm according to a standard 5-field cron spec
// (descriptors such as "@every 10m" are accepted too) evaluated in loc.
func NewRefresher(spec string, loc *time.Location, w Warmer) (*Refresher, error) {
	c := cron.New(cron.WithLocation(loc))
	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), warmTimeout)
		defer cancel()
		if err := w.Warm(ctx); err != nil {
			appLog.Error("feed refresh failed", err, "schedule", spec)
		}
	})
	if err != nil {
		return nil, err
	}
	return &Refresher{cron: c}, nil
}

// Start begins running jobs in the background.
func (r *Refresher) Start() {
	r.cron.Start()
}

// Stop stops the scheduler and waits for a running job to finish or ctx
// to expire.
func (r *Refresher) Stop(ctx context.Context) {
	done := r.cron.Stop()
	select {
	case <-done.Done():
	case <-ctx.Done():
	}
}
