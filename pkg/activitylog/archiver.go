package activitylog

import (
	"context"
	"time"

	"github.com/robfig/cron/v3"

	"github.com/platinummonkey/membergate/pkg/observability"
)

// DefaultRetentionMonths is how long log entries are kept.
const DefaultRetentionMonths = 12

// DefaultArchiveSchedule runs the prune nightly.
const DefaultArchiveSchedule = "0 3 * * *"

// Archiver prunes expired log entries on a cron schedule.
type Archiver struct {
	store           *Store
	cron            *cron.Cron
	retentionMonths int
	schedule        string
	logger          *observability.Logger
}

// NewArchiver builds an archiver. Zero retentionMonths or an empty schedule
// select the defaults.
func NewArchiver(store *Store, retentionMonths int, schedule string, logger *observability.Logger) *Archiver {
	if retentionMonths <= 0 {
		retentionMonths = DefaultRetentionMonths
	}
	if schedule == "" {
		schedule = DefaultArchiveSchedule
	}
	return &Archiver{
		store:           store,
		cron:            cron.New(),
		retentionMonths: retentionMonths,
		schedule:        schedule,
		logger:          logger,
	}
}

// Start schedules the prune job and starts the cron runner.
func (a *Archiver) Start() error {
	_, err := a.cron.AddFunc(a.schedule, func() {
		defer observability.RecoverPanic(a.logger, "activity log archiver")
		a.RunOnce(context.Background())
	})
	if err != nil {
		return err
	}
	a.cron.Start()
	return nil
}

// RunOnce prunes entries older than the retention period.
func (a *Archiver) RunOnce(ctx context.Context) {
	cutoff := time.Now().AddDate(0, -a.retentionMonths, 0)
	removed, err := a.store.Prune(ctx, cutoff)
	if err != nil {
		a.logger.WithError(err).Error("activity log prune failed")
		return
	}
	if removed > 0 {
		a.logger.WithField("removed", removed).Info("pruned activity log entries")
	}
}

// Stop halts the cron runner and waits for a running job to finish.
func (a *Archiver) Stop() {
	<-a.cron.Stop().Done()
}
