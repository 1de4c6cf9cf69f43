package mail

import (
	"context"
	"errors"
	"sync"
	"time"
)

var ErrCircuitOpen = errors.New("circuit breaker open")

type ProtectedSenderConfig struct {
	Timeout          time.Duration // hard timeout per send
	FailureThreshold int           // consecutive failures to open circuit
	Cooldown         time.Duration // how long to stay open before half-open
	HalfOpenMaxCalls int           // allow N trial calls in half-open
}

// ProtectedSender wraps a Sender with a circuit breaker so a dead provider
// fails fast instead of tying up the worker on timeouts.
type ProtectedSender struct {
	inner Sender
	cfg   ProtectedSenderConfig
	mu    sync.Mutex

	state string // "closed" | "open" | "half_open"

	consecutiveFailures int
	openedAt            time.Time
	halfOpenInFlight    int
}

func NewProtectedSender(inner Sender, cfg ProtectedSenderConfig) *ProtectedSender {
	//defaults
	if cfg.Timeout <= 0 {
		cfg.Timeout = 10 * time.Second
	}
	if cfg.FailureThreshold <= 0 {
		cfg.FailureThreshold = 3
	}
	if cfg.Cooldown <= 0 {
		cfg.Cooldown = 15 * time.Second
	}
	if cfg.HalfOpenMaxCalls <= 0 {
		cfg.HalfOpenMaxCalls = 1
	}

	return &ProtectedSender{
		inner: inner,
		cfg:   cfg,
		state: "closed",
	}
}

func (s *ProtectedSender) Send(ctx context.Context, msg Message) error {
	// fail-fast gate
	if !s.allowRequest() {
		return ErrCircuitOpen
	}

	// enforce timeout
	sendCtx, cancel := context.WithTimeout(ctx, s.cfg.Timeout)
	defer cancel()

	err := s.inner.Send(sendCtx, msg)

	s.afterRequest(err)

	return err
}

func (s *ProtectedSender) allowRequest() bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	switch s.state {
	case "closed":
		return true
	case "open":
		// cooldown has passed? move to half open
		if time.Since(s.openedAt) >= s.cfg.Cooldown {
			s.state = "half_open"
			s.halfOpenInFlight = 0
			s.halfOpenInFlight++
			return true
		}
		return false
	case "half_open":
		if s.halfOpenInFlight >= s.cfg.HalfOpenMaxCalls {
			return false
		}
		s.halfOpenInFlight++
		return true

	default:
		// safe fallback
		return true
	}
}

func (s *ProtectedSender) afterRequest(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	// half-open call just finished
	if s.state == "half_open" && s.halfOpenInFlight > 0 {
		s.halfOpenInFlight--
	}

	if err == nil {
		// success => close circuit and reset counters
		s.consecutiveFailures = 0
		s.state = "closed"
		return
	}

	// failure
	s.consecutiveFailures++

	// if half-open failed, reopen immediately
	if s.state == "half_open" {
		s.state = "open"
		s.openedAt = time.Now()
		return
	}

	// if failures reached threshold, open circuit
	if s.consecutiveFailures >= s.cfg.FailureThreshold {
		s.state = "open"
		s.openedAt = time.Now()
	}
}
