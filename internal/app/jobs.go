package app

import (
	"context"
	"fmt"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dangerclosesec/qualitrack/internal/domain"
	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"golang.org/x/sync/errgroup"
)

// DefaultStatsConcurrency bounds how many organizations are snapshotted at once.
const DefaultStatsConcurrency = 4

// cronParser uses standard 5-field cron expressions (minute, hour, dom, month, dow).
var cronParser = cron.NewParser(cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow)

// StatsRun summarizes one pass of GenerateStatistics.
type StatsRun struct {
	Organizations int
	Failed        int
}

// GenerateStatistics snapshots date for each organization in orgIDs, or for
// every organization holding indicators when orgIDs is empty. A failing
// organization is logged and counted; it does not stop the others.
func (a *App) GenerateStatistics(ctx context.Context, date time.Time, orgIDs []uuid.UUID, limit int) (StatsRun, error) {
	if len(orgIDs) == 0 {
		ids, err := a.Organizations.FindAllIDs(ctx)
		if err != nil {
			return StatsRun{}, fmt.Errorf("listing organizations: %w", err)
		}
		orgIDs = ids
	}
	if limit <= 0 {
		limit = DefaultStatsConcurrency
	}

	var failed atomic.Int64
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(limit)
	for _, orgID := range orgIDs {
		g.Go(func() error {
			t := domain.Tenant{OrganizationID: orgID}
			if _, err := a.Statistics.Generate(gctx, t, date); err != nil {
				failed.Add(1)
				slog.Error("statistics generation failed", "organization_id", orgID, "error", err)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return StatsRun{}, err
	}

	return StatsRun{Organizations: len(orgIDs), Failed: int(failed.Load())}, nil
}

// ScheduleStatistics registers the daily snapshot job on a new cron runner.
// The caller starts and stops the returned runner.
func (a *App) ScheduleStatistics(ctx context.Context, spec string) (*cron.Cron, error) {
	if _, err := cronParser.Parse(spec); err != nil {
		return nil, fmt.Errorf("invalid statistics schedule %q: %w", spec, err)
	}

	c := cron.New(cron.WithParser(cronParser), cron.WithLocation(time.UTC))
	_, err := c.AddFunc(spec, func() {
		run, err := a.GenerateStatistics(ctx, time.Time{}, nil, DefaultStatsConcurrency)
		if err != nil {
			slog.Error("scheduled statistics run failed", "error", err)
			return
		}
		slog.Info("scheduled statistics run completed",
			"organizations", run.Organizations,
			"failed", run.Failed,
		)
	})
	if err != nil {
		return nil, fmt.Errorf("scheduling statistics: %w", err)
	}
	return c, nil
}
