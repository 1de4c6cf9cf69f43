package handlers_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/rossvale/modelfolio/internal/auth"
	"github.com/rossvale/modelfolio/internal/domain/user"
	"github.com/rossvale/modelfolio/internal/http/handlers"
	"github.com/rossvale/modelfolio/internal/jobs"
	"github.com/rossvale/modelfolio/internal/repo/postgres"
	"github.com/rossvale/modelfolio/internal/security"
)

type fakeUserStore struct {
	getByEmailFn     func(ctx context.Context, email string) (user.User, error)
	updatePasswordFn func(ctx context.Context, id string, hash string) error

	updatedHashes map[string]string
}

func (f *fakeUserStore) GetByEmail(ctx context.Context, email string) (user.User, error) {
	if f.getByEmailFn != nil {
		return f.getByEmailFn(ctx, email)
	}
	return user.User{}, postgres.ErrUserNotFound
}

func (f *fakeUserStore) UpdatePassword(ctx context.Context, id string, hash string) error {
	if f.updatedHashes == nil {
		f.updatedHashes = map[string]string{}
	}
	f.updatedHashes[id] = hash

	if f.updatePasswordFn != nil {
		return f.updatePasswordFn(ctx, id, hash)
	}
	return nil
}

type fakeResetStore struct {
	createFn  func(ctx context.Context, row postgres.PasswordResetRow) error
	consumeFn func(ctx context.Context, tokenHash string) (postgres.PasswordResetRow, error)

	created []postgres.PasswordResetRow
}

func (f *fakeResetStore) Create(ctx context.Context, row postgres.PasswordResetRow) error {
	f.created = append(f.created, row)

	if f.createFn != nil {
		return f.createFn(ctx, row)
	}
	return nil
}

func (f *fakeResetStore) Consume(ctx context.Context, tokenHash string) (postgres.PasswordResetRow, error) {
	if f.consumeFn != nil {
		return f.consumeFn(ctx, tokenHash)
	}
	return postgres.PasswordResetRow{}, postgres.ErrResetTokenNotFound
}

func testJWT() *auth.Manager {
	return auth.NewManager("test-secret", 15*time.Minute)
}

func adminUser(t *testing.T, password string) user.User {
	t.Helper()

	hash, err := security.HashPassword(password)
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}

	return user.User{
		ID:           newUUID(),
		Email:        "admin@example.com",
		PasswordHash: hash,
		Name:         "Admin",
		Role:         "admin",
	}
}

func TestLoginHandler(t *testing.T) {
	const goodPassword = "Sup3r-secret!"

	u := adminUser(t, goodPassword)

	tests := []struct {
		name           string
		body           string
		usersSetup     func(*fakeUserStore)
		wantStatusCode int
	}{
		{
			name: "success",
			body: `{"email": "admin@example.com", "password": "` + goodPassword + `"}`,
			usersSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return u, nil
				}
			},
			wantStatusCode: http.StatusOK,
		},
		{
			name: "wrong_password",
			body: `{"email": "admin@example.com", "password": "nope"}`,
			usersSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return u, nil
				}
			},
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			// unknown email and wrong password must be indistinguishable
			name:           "unknown_email",
			body:           `{"email": "ghost@example.com", "password": "whatever"}`,
			wantStatusCode: http.StatusUnauthorized,
		},
		{
			name:           "validation_error",
			body:           `{"email": "not-an-email"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}

			if tt.usersSetup != nil {
				tt.usersSetup(users)
			}

			h := handlers.NewAuthHandler(users, &fakeResetStore{}, &fakeEnqueuer{}, testJWT(), testConfig())
			r := setupRouter(http.MethodPost, "/api/auth/login", h.Login)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/login", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantStatusCode == http.StatusOK {
				var resp struct {
					AccessToken string `json:"accessToken"`
				}
				if err := json.Unmarshal(w.Body.Bytes(), &resp); err != nil {
					t.Fatalf("failed to unmarshal response: %v", err)
				}

				claims, err := testJWT().VerifyAccessToken(resp.AccessToken)
				if err != nil {
					t.Fatalf("returned token does not verify: %v", err)
				}
				if claims.Email != u.Email {
					t.Fatalf("token email=%s, want %s", claims.Email, u.Email)
				}
			}
		})
	}
}

func TestForgotPasswordHandler(t *testing.T) {
	const genericMessage = "If an account with that email exists, a reset link has been sent."

	u := adminUser(t, "Sup3r-secret!")

	tests := []struct {
		name       string
		body       string
		usersSetup func(*fakeUserStore)
		wantJobs   int
		wantResets int
	}{
		{
			name: "known_email_enqueues_reset",
			body: `{"email": "admin@example.com"}`,
			usersSetup: func(f *fakeUserStore) {
				f.getByEmailFn = func(ctx context.Context, email string) (user.User, error) {
					return u, nil
				}
			},
			wantJobs:   1,
			wantResets: 1,
		},
		{
			// same response, no side effects
			name:     "unknown_email_still_generic",
			body:     `{"email": "ghost@example.com"}`,
			wantJobs: 0,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}
			resets := &fakeResetStore{}
			queue := &fakeEnqueuer{}

			if tt.usersSetup != nil {
				tt.usersSetup(users)
			}

			h := handlers.NewAuthHandler(users, resets, queue, testJWT(), testConfig())
			r := setupRouter(http.MethodPost, "/api/auth/forgot-password", h.ForgotPassword)

			req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != http.StatusOK {
				t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
			}

			if !strings.Contains(w.Body.String(), genericMessage) {
				t.Fatalf("expected generic message, got %s", w.Body.String())
			}

			if len(queue.created) != tt.wantJobs {
				t.Fatalf("got %d jobs, want %d", len(queue.created), tt.wantJobs)
			}
			if len(resets.created) != tt.wantResets {
				t.Fatalf("got %d reset rows, want %d", len(resets.created), tt.wantResets)
			}
		})
	}
}

func TestForgotPasswordHandler_TokenHashedAtRest(t *testing.T) {
	u := adminUser(t, "Sup3r-secret!")

	users := &fakeUserStore{
		getByEmailFn: func(ctx context.Context, email string) (user.User, error) {
			return u, nil
		},
	}
	resets := &fakeResetStore{}
	queue := &fakeEnqueuer{}

	h := handlers.NewAuthHandler(users, resets, queue, testJWT(), testConfig())
	r := setupRouter(http.MethodPost, "/api/auth/forgot-password", h.ForgotPassword)

	req := httptest.NewRequest(http.MethodPost, "/api/auth/forgot-password", bytes.NewBufferString(`{"email": "admin@example.com"}`))
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("got status %d, body=%s", w.Code, w.Body.String())
	}

	if len(resets.created) != 1 || len(queue.created) != 1 {
		t.Fatalf("expected 1 reset row and 1 job, got %d/%d", len(resets.created), len(queue.created))
	}

	var p jobs.PasswordResetPayload
	if err := json.Unmarshal(queue.created[0].Payload, &p); err != nil {
		t.Fatalf("failed to unmarshal payload: %v", err)
	}

	const urlPrefix = "http://localhost:3000/admin/reset-password/"
	if !strings.HasPrefix(p.ResetURL, urlPrefix) {
		t.Fatalf("resetUrl=%s, want prefix %s", p.ResetURL, urlPrefix)
	}

	raw := strings.TrimPrefix(p.ResetURL, urlPrefix)

	// the stored hash must correspond to the raw token in the link; the raw
	// token itself must never be stored
	row := resets.created[0]
	if row.TokenHash == raw {
		t.Fatalf("raw token stored instead of its hash")
	}
	if row.TokenHash != auth.HashResetToken(raw) {
		t.Fatalf("stored hash does not match the linked token")
	}
	if row.UserID != u.ID {
		t.Fatalf("reset row userId=%s, want %s", row.UserID, u.ID)
	}
}

func TestResetPasswordHandler(t *testing.T) {
	userID := newUUID()

	raw, err := auth.NewResetToken()
	if err != nil {
		t.Fatalf("new reset token: %v", err)
	}

	tests := []struct {
		name           string
		token          string
		body           string
		resetsSetup    func(*fakeResetStore)
		wantStatusCode int
		wantPwUpdated  bool
	}{
		{
			name:  "success",
			token: raw,
			body:  `{"password": "N3w-Passw0rd!"}`,
			resetsSetup: func(f *fakeResetStore) {
				f.consumeFn = func(ctx context.Context, tokenHash string) (postgres.PasswordResetRow, error) {
					if tokenHash != auth.HashResetToken(raw) {
						return postgres.PasswordResetRow{}, errors.New("consume called with raw token")
					}
					return postgres.PasswordResetRow{ID: newUUID(), UserID: userID, TokenHash: tokenHash}, nil
				}
			},
			wantStatusCode: http.StatusOK,
			wantPwUpdated:  true,
		},
		{
			name:           "invalid_token",
			token:          raw,
			body:           `{"password": "N3w-Passw0rd!"}`,
			wantStatusCode: http.StatusBadRequest,
		},
		{
			// policy check comes before the token is consumed
			name:           "weak_password",
			token:          raw,
			body:           `{"password": "short"}`,
			wantStatusCode: http.StatusBadRequest,
		},
	}

	for _, tt := range tests {
		tt := tt

		t.Run(tt.name, func(t *testing.T) {
			users := &fakeUserStore{}
			resets := &fakeResetStore{}

			if tt.resetsSetup != nil {
				tt.resetsSetup(resets)
			}

			h := handlers.NewAuthHandler(users, resets, &fakeEnqueuer{}, testJWT(), testConfig())
			r := setupRouter(http.MethodPut, "/api/auth/reset-password/:token", h.ResetPassword)

			req := httptest.NewRequest(http.MethodPut, "/api/auth/reset-password/"+tt.token, bytes.NewBufferString(tt.body))
			req.Header.Set("Content-Type", "application/json")
			w := httptest.NewRecorder()
			r.ServeHTTP(w, req)

			if w.Code != tt.wantStatusCode {
				t.Fatalf("got status %d, want %d, body=%s", w.Code, tt.wantStatusCode, w.Body.String())
			}

			if tt.wantPwUpdated {
				hash, ok := users.updatedHashes[userID]
				if !ok {
					t.Fatalf("password was not updated")
				}
				if err := security.CheckPassword(hash, "N3w-Passw0rd!"); err != nil {
					t.Fatalf("stored hash does not match new password: %v", err)
				}
			} else if len(users.updatedHashes) != 0 {
				t.Fatalf("password updated unexpectedly")
			}
		})
	}
}
