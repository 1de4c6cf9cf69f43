package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/rossvale/modelfolio/internal/auth"
	"github.com/rossvale/modelfolio/internal/calendar"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/db"
	httpx "github.com/rossvale/modelfolio/internal/http"
	"github.com/rossvale/modelfolio/internal/http/middlewares"
	"github.com/rossvale/modelfolio/internal/media"
	"github.com/rossvale/modelfolio/internal/observability"
	"github.com/rossvale/modelfolio/internal/queue/redisclient"
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

	shutdownTracer, err := observability.InitTracer(context.Background(), "modelfolio-api", cfg.OTLPEndpoint)

	if err != nil {
		log.Error("tracer init failed", "err", err)
		os.Exit(1)
	}
	defer func() {
		ctx, cancel := config.WithTimeout(5 * time.Second)
		defer cancel()
		_ = shutdownTracer(ctx)
	}()

	pool, err := db.NewPool(cfg.DBURL)

	if err != nil {
		log.Error("db connect failed", "err", err)
		os.Exit(1)
	}
	defer pool.Close()

	seedCtx, cancelSeed := config.WithTimeout(5 * time.Second)
	if err := db.EnsureAdminUser(seedCtx, pool, cfg); err != nil {
		log.Error("admin seed failed", "err", err)
	}
	cancelSeed()

	prom := observability.NewProm(prometheus.DefaultRegisterer)

	jwtManager := auth.NewManager(cfg.JWTSecret, time.Duration(cfg.JWTAccessTTLMinutes)*time.Minute)

	// calendar + media fall back to log-only implementations when not
	// configured, so dev runs don't need real credentials
	var cal calendar.Service = calendar.NewLogService()

	if cfg.GoogleClientID != "" && cfg.GoogleRefreshToken != "" {
		gcal, gerr := calendar.NewGoogleService(context.Background(), calendar.GoogleConfig{
			ClientID:     cfg.GoogleClientID,
			ClientSecret: cfg.GoogleClientSecret,
			RefreshToken: cfg.GoogleRefreshToken,
			CalendarID:   cfg.CalendarID,
		})

		if gerr != nil {
			log.Error("google calendar init failed", "err", gerr)
			os.Exit(1)
		}
		cal = gcal
	}

	var uploader media.Uploader = media.NewLogUploader()

	if cfg.CloudinaryURL != "" {
		cld, cerr := media.NewCloudinaryUploader(cfg.CloudinaryURL)

		if cerr != nil {
			log.Error("cloudinary init failed", "err", cerr)
			os.Exit(1)
		}
		uploader = cld
	}

	// shared rate-limit windows; nil store degrades to per-process windows
	var limiterStore middlewares.CounterStore

	redisCli := redisclient.New(redisclient.Config{
		Addr:     cfg.RedisAddr,
		Password: cfg.RedisPassword,
		DB:       cfg.RedisDB,
	})
	defer redisCli.Close()

	pingCtx, cancelPing := config.WithTimeout(2 * time.Second)
	if err := redisCli.Ping(pingCtx); err != nil {
		log.Warn("redis unavailable, rate limits are per-process", "err", err)
	} else {
		limiterStore = middlewares.NewRedisStore(redisCli.Raw())
	}
	cancelPing()

	router := httpx.NewRouter(httpx.Deps{
		Cfg:          cfg,
		Log:          log,
		Pool:         pool,
		Prom:         prom,
		JWT:          jwtManager,
		Calendar:     cal,
		Uploader:     uploader,
		LimiterStore: limiterStore,
	})

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           router,
		ReadHeaderTimeout: 5 * time.Second,
		ReadTimeout:       15 * time.Second,
		WriteTimeout:      30 * time.Second,
		IdleTimeout:       60 * time.Second,
	}

	go func() {
		log.Info("server starting", "port", cfg.Port)
		err := srv.ListenAndServe()

		if err != nil && err != http.ErrServerClosed {
			log.Error("server failed", "err", err)
			os.Exit(1)
		}
	}()

	// Graceful shutdown

	stop := make(chan os.Signal, 1)
	signal.Notify(stop, syscall.SIGINT, syscall.SIGTERM)
	<-stop
	log.Info("server shutting down")

	shutdownCh := make(chan struct{})

	go func() {
		defer close(shutdownCh)

		ctx, cancel := config.WithTimeout(10 * time.Second)

		defer cancel()

		err := srv.Shutdown(ctx)

		if err != nil {
			log.Error("graceful shutdown failed", "err", err)

			return
		}
	}()

	select {
	case <-shutdownCh:
		log.Info("shutdown complete")

	case <-time.After(12 * time.Second):
		log.Error("shutdown timed out")
	}
}
