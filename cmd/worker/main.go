package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/prometheus/client_golang/prometheus"
	"golang.org/x/sync/errgroup"

	"github.com/rossvale/modelfolio/internal/backup"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/db"
	"github.com/rossvale/modelfolio/internal/mail"
	"github.com/rossvale/modelfolio/internal/observability"
	"github.com/rossvale/modelfolio/internal/queue/worker"
	"github.com/rossvale/modelfolio/internal/repo/postgres"
)

func main() {
	cfg := config.Load()

	log := observability.NewLogger(cfg.Env)

	flushSentry, err := observability.InitSentry(cfg.SentryDSN, cfg.Env)

	if err != nil {
		log.Error("sentry init failed", "err", err)
		os.Exit(1)
	}
	defer flushSentry()

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	prom := observability.NewProm(prometheus.DefaultRegisterer)
	jobsRepo := postgres.NewJobsRepo(pool, prom)

	var sender mail.Sender

	if cfg.SMTPUser != "" {
		smtp, serr := mail.NewSMTPSender(mail.SMTPConfig{
			Host:     cfg.SMTPHost,
			Port:     cfg.SMTPPort,
			Username: cfg.SMTPUser,
			Password: cfg.SMTPPassword,
			From:     cfg.EmailFrom,
			FromName: cfg.EmailFromName,
		})

		if serr != nil {
			log.Error("smtp init failed", "err", serr)
			os.Exit(1)
		}
		sender = smtp
	} else {
		log.Warn("no smtp credentials, emails are logged only")
		sender = mail.NewLogSender()
	}

	sender = mail.NewProtectedSender(sender, mail.ProtectedSenderConfig{
		Timeout:          30 * time.Second,
		FailureThreshold: 5,
		Cooldown:         time.Minute,
		HalfOpenMaxCalls: 1,
	})

	w := worker.New(worker.Config{
		PollInterval: 100 * time.Millisecond,
		AdminEmail:   cfg.AdminEmail,
	}, jobsRepo, sender, log, prom)

	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		return w.Run(gctx)
	})

	g.Go(func() error {
		return w.Monitor(gctx)
	})

	// housekeeping: purge long-expired reset tokens once a day
	resetsRepo := postgres.NewPasswordResetsRepo(pool)

	g.Go(func() error {
		ticker := time.NewTicker(24 * time.Hour)
		defer ticker.Stop()

		for {
			select {
			case <-gctx.Done():
				return nil
			case <-ticker.C:
				n, err := resetsRepo.DeleteExpired(gctx)

				if err != nil {
					log.Error("reset token purge failed", "err", err)
					continue
				}
				if n > 0 {
					log.Info("purged expired reset tokens", "count", n)
				}
			}
		}
	})

	// health endpoint for the process supervisor
	healthSrv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           w.HealthHandler(),
		ReadHeaderTimeout: 5 * time.Second,
	}

	g.Go(func() error {
		err := healthSrv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			return err
		}
		return nil
	})

	g.Go(func() error {
		<-gctx.Done()

		shutdownCtx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()

		return healthSrv.Shutdown(shutdownCtx)
	})

	var scheduler *backup.Scheduler

	if cfg.AWSBackupBucket != "" {
		awsCfg, aerr := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(cfg.AWSRegion))

		if aerr != nil {
			log.Error("aws config failed", "err", aerr)
			os.Exit(1)
		}

		uploader := manager.NewUploader(s3.NewFromConfig(awsCfg))
		runner := backup.NewRunner(backup.Config{
			DBURL:  cfg.DBURL,
			Bucket: cfg.AWSBackupBucket,
		}, uploader, log)

		scheduler = backup.NewScheduler(runner, postgres.NewPortfolioRepo(pool), log)

		if err := scheduler.Start(); err != nil {
			log.Error("backup scheduler failed", "err", err)
			os.Exit(1)
		}
	} else {
		log.Warn("no backup bucket configured, backups disabled")
	}

	log.Info("worker started", "admin_email", cfg.AdminEmail)

	err = g.Wait()

	if scheduler != nil {
		scheduler.Stop()
	}

	if err != nil && err != context.Canceled {
		log.Error("worker stopped", "err", err)
		os.Exit(1)
	}

	log.Info("worker stopped")
}
