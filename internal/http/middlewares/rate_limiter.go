package middlewares

import (
	"context"
	"log/slog"
	"net"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// CounterStore is the fixed-window counter behind a limiter. Redis in
// production so all API instances share the same window; the in-memory
// implementation is both the test double and the degraded-mode fallback.
type CounterStore interface {
	Incr(ctx context.Context, key string, window time.Duration) (count int, retryAfter time.Duration, err error)
}

type RateLimiter struct {
	scope   string
	limit   int
	window  time.Duration
	message string
	store   CounterStore
	fb      *memoryStore // fallback when the shared store errors
}

type Option func(*RateLimiter)

func WithStore(store CounterStore) Option {
	return func(rl *RateLimiter) {
		rl.store = store
	}
}

// NewRateLimiter builds a fixed-window limiter. scope prefixes the counter
// keys so the login and contact limiters never share a window.
func NewRateLimiter(scope string, limit int, window time.Duration, message string, opts ...Option) *RateLimiter {
	rl := &RateLimiter{
		scope:   scope,
		limit:   limit,
		window:  window,
		message: message,
		fb:      newMemoryStore(),
	}

	for _, opt := range opts {
		opt(rl)
	}

	if rl.store == nil {
		rl.store = rl.fb
	}

	return rl
}

// Middleware enforces the limit for a derived key.

func (rl *RateLimiter) RateLimiterMiddleware(keyFn func(*gin.Context) string) gin.HandlerFunc {
	return func(c *gin.Context) {
		key := keyFn(c)

		if key == "" {
			// fallback to IP if key cannot be derived
			key = clientIP(c)
		}

		key = rl.scope + ":" + key

		count, retryAfter, err := rl.store.Incr(c.Request.Context(), key, rl.window)

		if err != nil {
			// shared store down: degrade to the per-process window rather
			// than letting all traffic through unthrottled
			slog.Default().Warn("rate limit store error, using fallback", "scope", rl.scope, "error", err)
			count, retryAfter, _ = rl.fb.Incr(c.Request.Context(), key, rl.window)
		}

		if count > rl.limit {
			secs := int(retryAfter.Seconds())

			if secs < 0 {
				secs = 0
			}

			c.Header("Retry-After", strconv.Itoa(secs))

			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error": gin.H{
					"code":    "rate_limited",
					"message": rl.message,
				},
			})

			return
		}

		c.Next()
	}
}

// for unauthenticated endpoints: rate limit by IP
func KeyByIP(c *gin.Context) string {
	return clientIP(c)
}

// For authenticated endpoints: rate limit by userID if available

func KeyByUserOrIP(c *gin.Context) string {
	id, ok := UserIDFromContext(c)

	if ok && id != "" {
		return "user:" + id
	}

	return clientIP(c)
}

func clientIP(c *gin.Context) string {
	// Gin's ClientIP respects X-Forwarded-For / X-Real-IP if configured.
	ip := c.ClientIP()

	// Normalize ipv6 zone in a defensive manner

	host, _, err := net.SplitHostPort(ip)

	if err == nil && host != "" {
		return host
	}

	return ip
}

// memoryStore is a per-process fixed window.

type memoryStore struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
}

type clientBucket struct {
	count     int
	windowEnd time.Time
}

func newMemoryStore() *memoryStore {
	return &memoryStore{
		clients: make(map[string]*clientBucket),
	}
}

func (s *memoryStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	now := time.Now()

	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.clients[key]

	if !ok || now.After(b.windowEnd) {
		s.clients[key] = &clientBucket{
			count:     1,
			windowEnd: now.Add(window),
		}
		return 1, window, nil
	}

	b.count++
	return b.count, time.Until(b.windowEnd), nil
}

// RedisStore shares the window across API instances.

type RedisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) *RedisStore {
	return &RedisStore{rdb: rdb}
}

func (s *RedisStore) Incr(ctx context.Context, key string, window time.Duration) (int, time.Duration, error) {
	pipe := s.rdb.TxPipeline()

	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, window)
	ttl := pipe.TTL(ctx, key)

	if _, err := pipe.Exec(ctx); err != nil {
		return 0, 0, err
	}

	retryAfter := ttl.Val()
	if retryAfter < 0 {
		retryAfter = window
	}

	return int(incr.Val()), retryAfter, nil
}
