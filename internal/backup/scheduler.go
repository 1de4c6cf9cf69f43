package backup

import (
	"context"
	"log/slog"
	"time"

	"github.com/robfig/cron/v3"
)

const (
	// 02:00 daily for the database, 03:00 Sundays for the media inventory
	dbSchedule    = "0 2 * * *"
	mediaSchedule = "0 3 * * 0"

	runTimeout = 30 * time.Minute
)

// Scheduler runs the backup jobs on their cron schedules inside the worker
// process.
type Scheduler struct {
	cron   *cron.Cron
	runner *Runner
	repo   PortfolioLister
	logger *slog.Logger
}

func NewScheduler(runner *Runner, repo PortfolioLister, logger *slog.Logger) *Scheduler {
	return &Scheduler{
		cron:   cron.New(),
		runner: runner,
		repo:   repo,
		logger: logger,
	}
}

func (s *Scheduler) Start() error {
	_, err := s.cron.AddFunc(dbSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.runner.RunDatabaseBackup(ctx); err != nil {
			s.logger.Error("scheduled database backup failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	_, err = s.cron.AddFunc(mediaSchedule, func() {
		ctx, cancel := context.WithTimeout(context.Background(), runTimeout)
		defer cancel()

		if _, err := s.runner.RunMediaInventoryBackup(ctx, s.repo); err != nil {
			s.logger.Error("scheduled media inventory backup failed", "error", err)
		}
	})

	if err != nil {
		return err
	}

	s.cron.Start()
	return nil
}

func (s *Scheduler) Stop() {
	ctx := s.cron.Stop()
	<-ctx.Done()
}
