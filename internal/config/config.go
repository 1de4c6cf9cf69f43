package config

import (
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Env  string
	Port int

	DBURL string

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	// SMTP provider
	SMTPHost      string
	SMTPPort      int
	SMTPUser      string
	SMTPPassword  string
	EmailFromName string
	EmailFrom     string

	AdminEmail    string
	AdminPassword string
	AdminName     string

	JWTSecret           string
	JWTAccessTTLMinutes int

	// Google Calendar OAuth
	GoogleClientID     string
	GoogleClientSecret string
	GoogleRefreshToken string
	CalendarID         string

	CloudinaryURL string

	AWSRegion       string
	AWSBackupBucket string

	QueueDashboardUser string
	QueueDashboardPass string

	SentryDSN string

	OTLPEndpoint string

	CORSAllowedOrigins []string

	PublicBaseURL string
}

func Load() Config {
	env := getEnv("APP_ENV", "dev")

	// .env is a dev convenience only; prod config comes from the environment.
	if env == "dev" {
		_ = godotenv.Load()
	}

	return Config{
		Env:   env,
		Port:  getEnvInt("PORT", 8080),
		DBURL: buildDBURL(),

		RedisAddr:     getEnv("REDIS_HOST", "127.0.0.1") + ":" + getEnv("REDIS_PORT", "6379"),
		RedisPassword: getEnv("REDIS_PASSWORD", ""),
		RedisDB:       getEnvInt("REDIS_DB", 0),

		SMTPHost:      getEnv("SMTP_HOST", "127.0.0.1"),
		SMTPPort:      getEnvInt("SMTP_PORT", 587),
		SMTPUser:      getEnv("EMAIL_USER", ""),
		SMTPPassword:  getEnv("EMAIL_PASS", ""),
		EmailFromName: getEnv("EMAIL_FROM_NAME", "Modelfolio"),
		EmailFrom:     getEnv("EMAIL_FROM", getEnv("EMAIL_USER", "")),

		AdminEmail:    getEnv("ADMIN_EMAIL", ""),
		AdminPassword: getEnv("ADMIN_PASSWORD", ""),
		AdminName:     getEnv("ADMIN_NAME", "Admin"),

		JWTSecret:           getEnv("JWT_SECRET", ""),
		JWTAccessTTLMinutes: getEnvInt("JWT_ACCESS_TTL_MINUTES", 60),

		GoogleClientID:     getEnv("GOOGLE_CLIENT_ID", ""),
		GoogleClientSecret: getEnv("GOOGLE_CLIENT_SECRET", ""),
		GoogleRefreshToken: getEnv("GOOGLE_REFRESH_TOKEN", ""),
		CalendarID:         getEnv("GOOGLE_CALENDAR_ID", "primary"),

		CloudinaryURL: getEnv("CLOUDINARY_URL", ""),

		AWSRegion:       getEnv("AWS_REGION", "us-east-1"),
		AWSBackupBucket: getEnv("AWS_BACKUP_BUCKET", ""),

		QueueDashboardUser: getEnv("QUEUE_DASHBOARD_USER", ""),
		QueueDashboardPass: getEnv("QUEUE_DASHBOARD_PASS", ""),

		SentryDSN: getEnv("SENTRY_DSN", ""),

		OTLPEndpoint: getEnv("OTLP_ENDPOINT", ""),

		CORSAllowedOrigins: splitCSV(getEnv("CORS_ALLOWED_ORIGINS", "")),

		PublicBaseURL: getEnv("PUBLIC_BASE_URL", "http://localhost:3000"),
	}
}

func buildDBURL() string {
	// allow a full URL to win over the parts
	if url := os.Getenv("DATABASE_URL"); url != "" {
		return url
	}

	host := getEnv("DB_HOST", "127.0.0.1")
	port := getEnv("DB_PORT", "5432")
	user := getEnv("DB_USER", "modelfolio")
	pass := getEnv("DB_PASSWORD", "modelfolio")
	name := getEnv("DB_NAME", "modelfolio")
	ssl := getEnv("DB_SSLMODE", "disable")

	return "postgres://" + user + ":" + pass + "@" + host + ":" + port + "/" + name + "?sslmode=" + ssl
}

func WithTimeout(duration time.Duration) (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), duration)
}

func splitCSV(s string) []string {
	if s == "" {
		return nil
	}

	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))

	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return fallback
}

func getEnvInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		num, err := strconv.Atoi(v)

		if err != nil {
			fmt.Println(err)
			return fallback
		}

		return num
	}
	return fallback
}
