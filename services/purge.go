package services

import (
	"context"
	"fmt"
	"time"

	"eduscan-api/config"
	"eduscan-api/pkg/logging"

	"github.com/go-co-op/gocron"
)

// Purger is what the scheduler runs on every tick.
type Purger interface {
	Purge(ctx context.Context, daysOld int) (PurgeReport, error)
}

// PurgeScheduler runs the age-based purge every IntervalHours. The first
// run happens when the scheduler starts.
type PurgeScheduler struct {
	scheduler *gocron.Scheduler
	purger    Purger
	cfg       config.PurgeConfig
	logger    *logging.StructuredLogger
	onPurged  func(context.Context, PurgeReport)
}

func NewPurgeScheduler(p Purger, cfg config.PurgeConfig, logger *logging.StructuredLogger, onPurged func(context.Context, PurgeReport)) *PurgeScheduler {
	return &PurgeScheduler{
		scheduler: gocron.NewScheduler(time.UTC),
		purger:    p,
		cfg:       cfg,
		logger:    logger,
		onPurged:  onPurged,
	}
}

func (s *PurgeScheduler) Start() error {
	if s.cfg.IntervalHours <= 0 {
		return fmt.Errorf("purge interval must be positive, got %d", s.cfg.IntervalHours)
	}
	if _, err := s.scheduler.Every(s.cfg.IntervalHours).Hours().Do(s.run); err != nil {
		return fmt.Errorf("schedule purge: %w", err)
	}
	s.scheduler.StartAsync()
	s.logger.Info(context.Background(), "[PURGE] scheduler started", logging.Fields{
		"interval_hours": s.cfg.IntervalHours,
		"days_old":       s.cfg.DaysOld,
	})
	return nil
}

func (s *PurgeScheduler) Stop() {
	s.scheduler.Stop()
}

func (s *PurgeScheduler) run() {
	ctx := logging.WithRequestID(context.Background(), "purge-"+time.Now().UTC().Format("20060102T150405"))
	report, err := s.purger.Purge(ctx, s.cfg.DaysOld)
	if err != nil {
		s.logger.Error(ctx, "[PURGE] scheduled purge failed", logging.Fields{"days_old": s.cfg.DaysOld}, err)
		return
	}
	if s.onPurged != nil {
		s.onPurged(ctx, report)
	}
}
