package observability

import (
	"log/slog"
	"os"
)

// NewLogger builds the process-wide JSON logger. Both binaries tag their
// records with env so shipped logs from api and worker stay filterable.
func NewLogger(env string) *slog.Logger {
	level := slog.LevelInfo

	if env == "dev" {
		level = slog.LevelDebug
	}

	handler := slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: level,
	})

	return slog.New(handler).With("env", env)
}
