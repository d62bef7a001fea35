// Package scheduler runs the periodic maintenance sweeps on cron specs.
package scheduler

import (
	"context"
	"fmt"
	"time"

	"propertyops-backend/internal/app"
	"propertyops-backend/internal/config"

	"github.com/google/uuid"
	cron "github.com/robfig/cron/v3"
	"github.com/rs/zerolog/log"
)

// Actor is recorded in the audit log for scheduled runs.
const Actor = "system:scheduler"

const jobTimeout = 5 * time.Minute

// Job is one named sweep. An empty Spec disables it.
type Job struct {
	Name string
	Spec string
	Run  func(ctx context.Context, correlationID string) error
}

// Jobs lists the sweeps: expired holds, overdue payments and unit status repair.
func Jobs(cfg *config.Config, svc *app.Services) []Job {
	return []Job{
		{Name: "release_expired_holds", Spec: cfg.CronReleaseHolds, Run: func(ctx context.Context, corr string) error {
			_, err := svc.Holds.ReleaseExpiredHolds(ctx, Actor, corr)
			return err
		}},
		{Name: "process_overdue_payments", Spec: cfg.CronOverdue, Run: func(ctx context.Context, corr string) error {
			_, err := svc.Payments.ProcessOverduePayments(ctx, Actor, corr)
			return err
		}},
		{Name: "repair_unit_statuses", Spec: cfg.CronRepair, Run: func(ctx context.Context, corr string) error {
			_, err := svc.Integrity.RepairUnitStatuses(ctx, Actor, corr)
			return err
		}},
	}
}

// New registers jobs on a cron that skips a run while the previous one of
// the same job is still going. Call Start on the result.
func New(jobs []Job) (*cron.Cron, error) {
	c := cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	for _, j := range jobs {
		if j.Spec == "" {
			continue
		}
		j := j
		if _, err := c.AddFunc(j.Spec, func() { Run(context.Background(), j) }); err != nil {
			return nil, fmt.Errorf("schedule %s (%q): %w", j.Name, j.Spec, err)
		}
		log.Info().Str("job", j.Name).Str("spec", j.Spec).Msg("job scheduled")
	}
	return c, nil
}

// Run executes one job with a timeout and logs the outcome.
func Run(ctx context.Context, j Job) error {
	ctx, cancel := context.WithTimeout(ctx, jobTimeout)
	defer cancel()
	corr := "cron:" + j.Name + ":" + uuid.NewString()
	start := time.Now()
	err := j.Run(ctx, corr)
	if err != nil {
		log.Error().Err(err).Str("job", j.Name).Str("correlation_id", corr).Msg("scheduled job failed")
		return err
	}
	log.Debug().Str("job", j.Name).Dur("took", time.Since(start)).Msg("scheduled job finished")
	return nil
}
