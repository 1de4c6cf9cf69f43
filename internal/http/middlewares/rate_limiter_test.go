package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
)

func limitedRouter(rl *RateLimiter) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/contact", rl.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) {
		c.JSON(http.StatusCreated, gin.H{"ok": true})
	})
	return r
}

func TestRateLimiterBlocksSixthRequest(t *testing.T) {
	rl := NewRateLimiter("contact", 5, time.Hour,
		"Too many requests from this IP, please try again after an hour")
	r := limitedRouter(rl)

	for i := 0; i < 5; i++ {
		w := httptest.NewRecorder()
		req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
		r.ServeHTTP(w, req)

		if w.Code != http.StatusCreated {
			t.Fatalf("request %d: expected 201, got %d", i+1, w.Code)
		}
	}

	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodPost, "/api/contact", nil)
	r.ServeHTTP(w, req)

	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 on sixth request, got %d", w.Code)
	}

	body := w.Body.String()
	want := "Too many requests from this IP, please try again after an hour"
	if !strings.Contains(body, want) {
		t.Fatalf("expected message %q in body %s", want, body)
	}

	if w.Header().Get("Retry-After") == "" {
		t.Fatal("expected Retry-After header")
	}
}

func TestRateLimiterWindowExpires(t *testing.T) {
	rl := NewRateLimiter("contact", 1, 30*time.Millisecond, "limited")
	r := limitedRouter(rl)

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429, got %d", w.Code)
	}

	time.Sleep(50 * time.Millisecond)

	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201 after window reset, got %d", w.Code)
	}
}

func TestScopesDoNotShareWindows(t *testing.T) {
	store := newMemoryStore()

	contact := NewRateLimiter("contact", 1, time.Hour, "contact limited", WithStore(store))
	login := NewRateLimiter("login", 1, time.Hour, "login limited", WithStore(store))

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.POST("/api/contact", contact.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusCreated) })
	r.POST("/api/auth/login", login.RateLimiterMiddleware(KeyByIP), func(c *gin.Context) { c.Status(http.StatusOK) })

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/contact", nil))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected 201, got %d", w.Code)
	}

	// contact used its budget; login must still pass
	w = httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodPost, "/api/auth/login", nil))
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 for different scope, got %d", w.Code)
	}
}
