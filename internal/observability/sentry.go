package observability

import (
	"fmt"
	"time"

	"github.com/getsentry/sentry-go"
)

// InitSentry wires error reporting when a DSN is configured. Returns a flush
// function safe to call on shutdown; a no-op when the DSN is empty.
func InitSentry(dsn, env string) (flush func(), err error) {
	if dsn == "" {
		return func() {}, nil
	}

	err = sentry.Init(sentry.ClientOptions{
		Dsn:         dsn,
		Environment: env,
	})

	if err != nil {
		return nil, fmt.Errorf("sentry init: %w", err)
	}

	return func() { sentry.Flush(2 * time.Second) }, nil
}

// CaptureError reports upstream failures (calendar, cloudinary, smtp) that we
// deliberately do not surface to the caller.
func CaptureError(err error) {
	if err == nil {
		return
	}

	sentry.CaptureException(err)
}
