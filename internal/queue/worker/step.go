package worker

import (
	"context"
	"encoding/json"
	"errors"
	"time"

	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/jobs"
	"github.com/rossvale/modelfolio/internal/mail"
)

func (w *Worker) ProcessOne(ctx context.Context) (bool, error) {

	claimCtx, cancel := context.WithTimeout(ctx, 2*time.Second)

	j, err := w.repo.ClaimNext(claimCtx, w.cfg.WorkerID)
	cancel()

	if err != nil {
		if errors.Is(err, job.ErrJobNotFound) {
			return false, nil
		}

		return false, err
	}

	start := time.Now()

	if w.prom != nil {
		w.prom.JobsInFlight.Inc()
	}

	err = w.execute(ctx, j)

	if w.prom != nil {
		w.prom.JobsInFlight.Dec()
	}

	if err != nil {
		if w.prom != nil {
			w.prom.JobDuration.WithLabelValues(j.Type, "retry").Observe(time.Since(start).Seconds())
		}
		w.handleFailure(ctx, j, err)
		return true, nil
	}

	err = w.repo.MarkDone(ctx, j.ID)

	if err != nil {
		_ = w.repo.MarkFailed(ctx, j.ID, "mark_done_failed: "+err.Error())
		return true, err
	}

	if w.prom != nil {
		w.prom.JobDuration.WithLabelValues(j.Type, "done").Observe(time.Since(start).Seconds())
		w.prom.JobResults.WithLabelValues(j.Type, "done").Inc()
	}

	w.logger.Info("job done", "jobId", j.ID, "type", j.Type, "attempt", j.Attempts+1)
	return true, nil
}

func (w *Worker) execute(ctx context.Context, j job.Job) error {
	payload, err := jobs.DecodePayload(j)

	if err != nil {
		return err
	}

	msg, err := mail.RenderMessage(jobs.JobType(j.Type), payload)

	if err != nil {
		return err
	}

	return w.sender.Send(ctx, msg)
}

func (w *Worker) handleFailure(ctx context.Context, j job.Job, cause error) {
	attempt := j.Attempts + 1

	if attempt >= j.MaxAttempts {
		w.logger.Error("job exhausted retries",
			"jobId", j.ID, "type", j.Type, "attempts", attempt, "error", cause)

		if err := w.repo.MarkFailed(ctx, j.ID, cause.Error()); err != nil {
			w.logger.Error("mark failed error", "jobId", j.ID, "error", err)
			return
		}

		if w.prom != nil {
			w.prom.JobResults.WithLabelValues(j.Type, "failed").Inc()
		}

		w.raiseDeliveryFailureAlert(ctx, j, cause, attempt)
		return
	}

	delay := Backoff(attempt)

	w.logger.Warn("job failed, rescheduling",
		"jobId", j.ID, "type", j.Type, "attempt", attempt, "delay", delay, "error", cause)

	if err := w.repo.Reschedule(ctx, j.ID, time.Now().UTC().Add(delay), cause.Error()); err != nil {
		w.logger.Error("reschedule error", "jobId", j.ID, "error", err)
	}

	if w.prom != nil {
		w.prom.JobResults.WithLabelValues(j.Type, "retry").Inc()
	}
}

// raiseDeliveryFailureAlert enqueues exactly one admin alert for a dead job.
// Alert jobs themselves never spawn further alerts, otherwise a broken SMTP
// server would amplify every failure into an infinite alert chain.
func (w *Worker) raiseDeliveryFailureAlert(ctx context.Context, j job.Job, cause error, attempts int) {
	t := jobs.JobType(j.Type)

	if t.IsAlert() {
		w.logger.Warn("alert job itself failed, not re-alerting", "jobId", j.ID, "type", j.Type)
		return
	}

	to, subject := originalEnvelope(j)

	payload, err := jobs.EncodePayload(jobs.JobDeliveryFailureAlert, jobs.DeliveryFailureAlertPayload{
		Email:           w.cfg.AdminEmail,
		FailedJobID:     j.ID,
		FailedJobType:   j.Type,
		OriginalTo:      to,
		OriginalSubject: subject,
		LastError:       cause.Error(),
		Attempts:        attempts,
	})

	if err != nil {
		w.logger.Error("encode alert payload failed", "jobId", j.ID, "error", err)
		return
	}

	_, err = w.repo.Create(ctx, job.CreateRequest{
		Type:    string(jobs.JobDeliveryFailureAlert),
		Payload: payload,
	})

	if err != nil {
		w.logger.Error("enqueue delivery failure alert failed", "jobId", j.ID, "error", err)
	}
}

// originalEnvelope recovers the dead job's recipient and subject for the
// alert body. Falls back to raw payload sniffing when the payload no longer
// decodes.
func originalEnvelope(j job.Job) (to string, subject string) {
	payload, err := jobs.DecodePayload(j)

	if err == nil {
		if msg, rerr := mail.RenderMessage(jobs.JobType(j.Type), payload); rerr == nil {
			return msg.To, msg.Subject
		}
	}

	var raw struct {
		Email string `json:"email"`
	}
	if json.Unmarshal(j.Payload, &raw) == nil {
		to = raw.Email
	}
	return to, ""
}
