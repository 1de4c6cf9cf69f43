package worker

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"time"

	"golang.org/x/time/rate"

	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/mail"
	"github.com/rossvale/modelfolio/internal/observability"
)

type JobsRepository interface {
	ClaimNext(ctx context.Context, workerID string) (job.Job, error)
	MarkDone(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, errMsg string) error
	Reschedule(ctx context.Context, id string, runAt time.Time, errMsg string) error
	RequeueStaleProcessing(ctx context.Context, lockTTL time.Duration) (int64, error)
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
	Counts(ctx context.Context) (job.Counts, error)
}

type Config struct {
	PollInterval  time.Duration
	WorkerID      string
	LockTTL       time.Duration
	JobsPerSecond int
	AdminEmail    string
}

type Worker struct {
	cfg     Config
	repo    JobsRepository
	sender  mail.Sender
	logger  *slog.Logger
	prom    *observability.Prom
	limiter *rate.Limiter

	readyMu sync.RWMutex
	ready   bool
}

func New(cfg Config, repo JobsRepository, sender mail.Sender, logger *slog.Logger, prom *observability.Prom) *Worker {
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}

	if cfg.WorkerID == "" {
		host, _ := os.Hostname()
		cfg.WorkerID = fmt.Sprintf("%s-%d", host, os.Getpid())
	}

	if cfg.LockTTL <= 0 {
		cfg.LockTTL = 60 * time.Second
	}

	// throttle: at most this many jobs leave the queue per second
	if cfg.JobsPerSecond <= 0 {
		cfg.JobsPerSecond = 10
	}

	return &Worker{
		cfg:     cfg,
		repo:    repo,
		sender:  sender,
		logger:  logger,
		prom:    prom,
		limiter: rate.NewLimiter(rate.Limit(cfg.JobsPerSecond), cfg.JobsPerSecond),
	}
}

func (w *Worker) setReady(v bool) {
	w.readyMu.Lock()
	w.ready = v
	w.readyMu.Unlock()
}

func (w *Worker) Run(ctx context.Context) error {
	w.setReady(true)
	defer w.setReady(false)

	ticker := time.NewTicker(w.cfg.PollInterval)
	defer ticker.Stop()

	staleTicker := time.NewTicker(w.cfg.LockTTL)
	defer staleTicker.Stop()

	for {
		select {
		case <-ctx.Done():
			w.logger.Info("worker received shutdown signal")
			return nil

		case <-staleTicker.C:
			n, err := w.repo.RequeueStaleProcessing(ctx, w.cfg.LockTTL)

			if err != nil {
				w.logger.Error("requeue stale failed", "error", err)
				continue
			}
			if n > 0 {
				w.logger.Warn("requeued stale jobs", "count", n)
			}

		case <-ticker.C:
			// drain everything that is ready, throttled
			for {
				if err := w.limiter.Wait(ctx); err != nil {
					return nil
				}

				processed, err := w.ProcessOne(ctx)

				if err != nil {
					w.logger.Error("process job failed", "error", err)
					break
				}

				if !processed {
					break
				}
			}
		}
	}
}
