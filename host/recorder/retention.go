package recorder

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"

	"sesboard/host/logx"
)

// Retention prunes old telemetry on a cron schedule
type Retention struct {
	store *Store
	keep  time.Duration
	c     *cron.Cron
}

// NewRetention schedules Prune(keep) on spec, a five-field cron expression
// or a descriptor such as "@hourly". Nothing runs until Start.
func NewRetention(store *Store, spec string, keep time.Duration) (*Retention, error) {
	parser := cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	r := &Retention{store: store, keep: keep, c: cron.New(cron.WithParser(parser))}
	if _, err := r.c.AddFunc(spec, r.run); err != nil {
		return nil, fmt.Errorf("recorder: prune schedule %q: %w", spec, err)
	}
	return r, nil
}

// Start begins the schedule
func (r *Retention) Start() {
	r.c.Start()
}

// Stop ends the schedule and waits for a running prune
func (r *Retention) Stop() {
	<-r.c.Stop().Done()
}

func (r *Retention) run() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()
	n, err := r.store.Prune(ctx, r.keep)
	if err != nil {
		r.store.log.Warn("prune failed", logx.Err(err))
		return
	}
	r.store.log.Debug("pruned telemetry", logx.Int("rows", int(n)), logx.Duration("keep", r.keep))
}
