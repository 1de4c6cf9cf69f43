package http

import (
	"log/slog"
	"time"

	sentrygin "github.com/getsentry/sentry-go/gin"
	"github.com/gin-gonic/gin"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	"github.com/rossvale/modelfolio/internal/auth"
	"github.com/rossvale/modelfolio/internal/cache"
	"github.com/rossvale/modelfolio/internal/calendar"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/http/handlers"
	"github.com/rossvale/modelfolio/internal/http/middlewares"
	"github.com/rossvale/modelfolio/internal/media"
	"github.com/rossvale/modelfolio/internal/observability"
	"github.com/rossvale/modelfolio/internal/repo/postgres"
)

// Deps carries everything the router wires into handlers. cmd/api builds it
// once at startup.
type Deps struct {
	Cfg      config.Config
	Log      *slog.Logger
	Pool     *pgxpool.Pool
	Prom     *observability.Prom
	JWT      *auth.Manager
	Calendar calendar.Service
	Uploader media.Uploader

	// nil stores fall back to per-process rate limit windows
	LimiterStore middlewares.CounterStore
}

func NewRouter(d Deps) *gin.Engine {
	if d.Cfg.Env != "dev" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()

	r.Use(gin.Recovery())
	if d.Cfg.SentryDSN != "" {
		r.Use(sentrygin.New(sentrygin.Options{Repanic: true}))
	}
	r.Use(otelgin.Middleware("modelfolio-api"))
	r.Use(middlewares.RequestID())
	r.Use(middlewares.RequestLogger())
	r.Use(middlewares.SecurityHeaders())
	r.Use(middlewares.CORSMiddleware(d.Cfg.CORSAllowedOrigins))
	r.Use(d.Prom.GinHandleMiddleware())
	r.Use(middlewares.MaxBodyBytes(10 << 20)) // 10 MiB, enough for one image upload

	// repositories
	bookingsRepo := postgres.NewBookingsRepo(d.Pool)
	portfolioRepo := postgres.NewPortfolioRepo(d.Pool)
	contactsRepo := postgres.NewContactsRepo(d.Pool)
	usersRepo := postgres.NewUsersRepo(d.Pool)
	jobsRepo := postgres.NewJobsRepo(d.Pool, d.Prom)
	resetsRepo := postgres.NewPasswordResetsRepo(d.Pool)
	intake := postgres.NewIntake(d.Pool, bookingsRepo, contactsRepo, jobsRepo)

	listCache := cache.New(30 * time.Second)

	// handlers
	healthHandler := handlers.NewHealthHandler(d.Pool)
	bookingsHandler := handlers.NewBookingsHandler(intake, bookingsRepo, jobsRepo, d.Calendar, d.Log, d.Cfg)
	portfolioHandler := handlers.NewPortfolioHandler(portfolioRepo, d.Uploader, listCache, d.Log)
	contactHandler := handlers.NewContactHandler(intake, contactsRepo, d.Cfg)
	authHandler := handlers.NewAuthHandler(usersRepo, resetsRepo, jobsRepo, d.JWT, d.Cfg)
	adminQueuesHandler := handlers.NewAdminQueuesHandler(jobsRepo)

	authMw := middlewares.NewAuthMiddleware(d.JWT)

	// rate limiters; each scope keeps its own shared window
	var limiterOpts []middlewares.Option
	if d.LimiterStore != nil {
		limiterOpts = append(limiterOpts, middlewares.WithStore(d.LimiterStore))
	}

	contactLimiter := middlewares.NewRateLimiter("contact", 5, time.Hour,
		"Too many requests from this IP, please try again after an hour", limiterOpts...)
	loginLimiter := middlewares.NewRateLimiter("login", 5, time.Hour,
		"Too many login attempts, please try again after an hour", limiterOpts...)
	resetLimiter := middlewares.NewRateLimiter("reset", 3, time.Hour,
		"Too many password reset attempts. Please try again after an hour", limiterOpts...)

	// health + metrics
	r.GET("/healthz", healthHandler.Healthz)
	r.GET("/readyz", healthHandler.Readyz)
	r.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := r.Group("/api")

	// bookings
	api.POST("/bookings", middlewares.RequireJSON(), bookingsHandler.CreateBooking)
	api.GET("/bookings", authMw.RequireAuth(), bookingsHandler.ListBookings)
	api.PATCH("/bookings/:id/status", authMw.RequireAuth(), middlewares.RequireJSON(), bookingsHandler.UpdateBookingStatus)
	api.DELETE("/bookings/:id", authMw.RequireAuth(), bookingsHandler.DeleteBooking)

	// portfolio (multipart writes, so no RequireJSON here)
	api.GET("/portfolio", portfolioHandler.ListItems)
	api.POST("/portfolio", authMw.RequireAuth(), portfolioHandler.CreateItem)
	api.PUT("/portfolio/:id", authMw.RequireAuth(), portfolioHandler.UpdateItem)
	api.DELETE("/portfolio/:id", authMw.RequireAuth(), portfolioHandler.DeleteItem)

	// contact
	api.POST("/contact",
		contactLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		contactHandler.CreateMessage)
	api.GET("/contact", authMw.RequireAuth(), contactHandler.ListMessages)
	api.PATCH("/contact/:id", authMw.RequireAuth(), middlewares.RequireJSON(), contactHandler.UpdateMessageStatus)
	api.DELETE("/contact/:id", authMw.RequireAuth(), contactHandler.DeleteMessage)

	// auth
	api.POST("/auth/login",
		loginLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		authHandler.Login)
	api.POST("/auth/forgot-password",
		resetLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		authHandler.ForgotPassword)
	api.PUT("/auth/reset-password/:token",
		resetLimiter.RateLimiterMiddleware(middlewares.KeyByIP),
		middlewares.RequireJSON(),
		authHandler.ResetPassword)

	// queue dashboard, separate credential pair from the JWT admin; not
	// mounted at all when no credentials are configured
	if d.Cfg.QueueDashboardUser != "" && d.Cfg.QueueDashboardPass != "" {
		admin := r.Group("/admin/queues", gin.BasicAuth(gin.Accounts{
			d.Cfg.QueueDashboardUser: d.Cfg.QueueDashboardPass,
		}))
		admin.GET("", adminQueuesHandler.Overview)
		admin.GET("/jobs", adminQueuesHandler.List)
		admin.GET("/jobs/:id", adminQueuesHandler.GetByID)
		admin.POST("/jobs/:id/retry", adminQueuesHandler.Retry)
		admin.POST("/reprocess-failed", adminQueuesHandler.ReprocessFailed)
	}

	return r
}
