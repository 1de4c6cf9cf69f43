package worker

import (
	"context"
	"time"

	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/jobs"
)

const (
	monitorInterval      = 5 * time.Minute
	failedAlertThreshold = 10
	alertCooldown        = time.Hour
)

// Monitor samples queue depth on a fixed interval, exports it as gauges,
// and raises an admin alert when the failed count crosses the threshold.
// Alerts are rate limited to one per hour so a bad night produces one
// email, not seventy.
func (w *Worker) Monitor(ctx context.Context) error {
	ticker := time.NewTicker(monitorInterval)
	defer ticker.Stop()

	var lastAlert time.Time

	for {
		select {
		case <-ctx.Done():
			return nil

		case <-ticker.C:
			counts, err := w.repo.Counts(ctx)

			if err != nil {
				w.logger.Error("queue counts failed", "error", err)
				continue
			}

			if w.prom != nil {
				w.prom.QueueDepth.WithLabelValues("pending").Set(float64(counts.Pending))
				w.prom.QueueDepth.WithLabelValues("processing").Set(float64(counts.Processing))
				w.prom.QueueDepth.WithLabelValues("failed").Set(float64(counts.Failed))
			}

			w.logger.Info("queue depth",
				"pending", counts.Pending,
				"processing", counts.Processing,
				"failed", counts.Failed)

			if counts.Failed <= failedAlertThreshold {
				continue
			}

			if time.Since(lastAlert) < alertCooldown {
				continue
			}

			if err := w.raiseQueueHealthAlert(ctx, counts); err != nil {
				w.logger.Error("enqueue queue health alert failed", "error", err)
				continue
			}

			lastAlert = time.Now()
		}
	}
}

func (w *Worker) raiseQueueHealthAlert(ctx context.Context, counts job.Counts) error {
	payload, err := jobs.EncodePayload(jobs.JobQueueHealthAlert, jobs.QueueHealthAlertPayload{
		Email:           w.cfg.AdminEmail,
		FailedCount:     counts.Failed,
		PendingCount:    counts.Pending,
		ProcessingCount: counts.Processing,
	})

	if err != nil {
		return err
	}

	_, err = w.repo.Create(ctx, job.CreateRequest{
		Type:    string(jobs.JobQueueHealthAlert),
		Payload: payload,
	})

	return err
}
