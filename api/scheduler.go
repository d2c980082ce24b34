/*
scheduler.go - Scheduled forecast snapshots

PURPOSE:
  Periodically computes the service-level forecast and persists the
  result as a snapshot row, so the dashboard can show month-over-month
  drift between runs without recomputing history.

DESIGN:
  - robfig/cron drives the schedule (cron spec from configuration)
  - Each run writes a Snapshot with a uuid run ID, status, and the
    serialized forecast payload
  - Failures are recorded as failed snapshots, not crashes

USAGE:
  scheduler := NewSnapshotScheduler(store, p, logger, "0 6 * * *", 6)
  scheduler.Start()
  // ... later
  scheduler.Stop()

SEE ALSO:
  - planner/types.go: Snapshot record
  - handlers.go: ListSnapshots endpoint
*/
package api

import (
	"context"
	"encoding/json"
	"time"

	"github.com/google/uuid"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"github.com/airsocial/mission-control/capacity"
	"github.com/airsocial/mission-control/planner"
)

// SnapshotScheduler runs the periodic forecast snapshot job.
type SnapshotScheduler struct {
	Store   planner.SnapshotStore
	Planner *planner.Planner
	Logger  *zap.Logger

	schedule string
	months   int
	cron     *cron.Cron

	// now is injectable for tests; defaults to time.Now.
	now func() time.Time
}

// NewSnapshotScheduler creates a scheduler. An empty schedule disables it.
func NewSnapshotScheduler(store planner.SnapshotStore, p *planner.Planner, logger *zap.Logger, schedule string, months int) *SnapshotScheduler {
	if months < 1 {
		months = 6
	}
	return &SnapshotScheduler{
		Store:    store,
		Planner:  p,
		Logger:   logger,
		schedule: schedule,
		months:   months,
		cron:     cron.New(),
		now:      time.Now,
	}
}

// Start registers the cron entry and begins the schedule.
func (s *SnapshotScheduler) Start() error {
	if s.schedule == "" {
		s.Logger.Info("snapshot scheduler disabled (no schedule configured)")
		return nil
	}

	if _, err := s.cron.AddFunc(s.schedule, func() {
		s.RunOnce(context.Background())
	}); err != nil {
		return err
	}
	s.cron.Start()
	s.Logger.Info("snapshot scheduler started", zap.String("schedule", s.schedule))
	return nil
}

// Stop stops the schedule and waits for a running job to finish.
func (s *SnapshotScheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
	s.Logger.Info("snapshot scheduler stopped")
}

// RunOnce computes and persists one snapshot immediately. Exposed for
// startup warm-up and tests.
func (s *SnapshotScheduler) RunOnce(ctx context.Context) {
	start := capacity.StartOfMonth(capacity.DateOf(s.now()))

	snap := planner.Snapshot{
		ID:         uuid.NewString(),
		Grouping:   planner.GroupByService,
		Mode:       capacity.ModePercent,
		StartMonth: start,
		MonthCount: s.months,
		TakenAt:    s.now().UTC(),
	}

	points, err := s.Planner.Forecast(ctx, planner.ForecastQuery{
		Grouping:   planner.GroupByService,
		Start:      start,
		MonthCount: s.months,
		Mode:       capacity.ModePercent,
	})
	if err != nil {
		snap.Status = "failed"
		snap.Error = err.Error()
		if saveErr := s.Store.SaveSnapshot(ctx, snap); saveErr != nil {
			s.Logger.Error("failed to record failed snapshot", zap.Error(saveErr))
		}
		s.Logger.Error("forecast snapshot failed", zap.Error(err))
		return
	}

	payload, err := json.Marshal(toForecastPointDTOs(points))
	if err != nil {
		snap.Status = "failed"
		snap.Error = err.Error()
	} else {
		snap.Status = "completed"
		snap.PayloadJSON = string(payload)
	}

	if err := s.Store.SaveSnapshot(ctx, snap); err != nil {
		s.Logger.Error("failed to save snapshot", zap.Error(err))
		return
	}
	s.Logger.Info("forecast snapshot saved",
		zap.String("id", snap.ID),
		zap.String("start_month", snap.StartMonth.String()),
		zap.Int("months", snap.MonthCount))
}
