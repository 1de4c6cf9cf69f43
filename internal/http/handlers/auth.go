package handlers

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/rossvale/modelfolio/internal/auth"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/domain/user"
	"github.com/rossvale/modelfolio/internal/jobs"
	"github.com/rossvale/modelfolio/internal/repo/postgres"
	"github.com/rossvale/modelfolio/internal/security"
)

const resetTokenTTL = 10 * time.Minute

type UserStore interface {
	GetByEmail(ctx context.Context, email string) (user.User, error)
	UpdatePassword(ctx context.Context, id string, passwordHash string) error
}

type ResetStore interface {
	Create(ctx context.Context, row postgres.PasswordResetRow) error
	Consume(ctx context.Context, tokenHash string) (postgres.PasswordResetRow, error)
}

type JobsEnqueuer interface {
	Create(ctx context.Context, req job.CreateRequest) (job.Job, error)
}

type AuthHandler struct {
	users  UserStore
	resets ResetStore
	queue  JobsEnqueuer
	jwt    *auth.Manager
	cfg    config.Config
}

func NewAuthHandler(users UserStore, resets ResetStore, queue JobsEnqueuer, jwtManager *auth.Manager, cfg config.Config) *AuthHandler {
	return &AuthHandler{
		users:  users,
		resets: resets,
		queue:  queue,
		jwt:    jwtManager,
		cfg:    cfg,
	}
}

type LoginRequest struct {
	Email    string `json:"email" binding:"required,email"`
	Password string `json:"password" binding:"required"`
}

type ForgotPasswordRequest struct {
	Email string `json:"email" binding:"required,email"`
}

type ResetPasswordRequest struct {
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(ctx *gin.Context) {
	var req LoginRequest

	if !BindJSON(ctx, &req) {
		return
	}
	// short timeout for DB lookup
	cctx, cancel := config.WithTimeout(2 * time.Second)
	defer cancel()

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	err = security.CheckPassword(foundUser.PasswordHash, req.Password)

	if err != nil {
		RespondUnAuthorized(ctx, "invalid_credentials", "Email or password is incorrect.")
		return
	}

	accessToken, err := h.jwt.GenerateAccessToken(foundUser.ID, foundUser.Email, foundUser.Role)

	if err != nil {
		RespondInternal(ctx, "Could not generate access token")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"accessToken": accessToken,
		"user": gin.H{
			"id":    foundUser.ID,
			"email": foundUser.Email,
			"name":  foundUser.Name,
		},
	})
}

// ForgotPassword always returns the same generic response so callers cannot
// probe which emails have accounts.
func (h *AuthHandler) ForgotPassword(ctx *gin.Context) {
	var req ForgotPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	genericResponse := func() {
		ctx.JSON(http.StatusOK, gin.H{
			"message": "If an account with that email exists, a reset link has been sent.",
		})
	}

	foundUser, err := h.users.GetByEmail(cctx, req.Email)
	if err != nil {
		genericResponse()
		return
	}

	raw, err := auth.NewResetToken()
	if err != nil {
		genericResponse()
		return
	}

	now := time.Now().UTC()

	err = h.resets.Create(cctx, postgres.PasswordResetRow{
		ID:        uuid.NewString(),
		UserID:    foundUser.ID,
		TokenHash: auth.HashResetToken(raw),
		ExpiresAt: now.Add(resetTokenTTL),
		CreatedAt: now,
	})

	if err != nil {
		genericResponse()
		return
	}

	resetURL := h.cfg.PublicBaseURL + "/admin/reset-password/" + raw

	payload, err := jobs.EncodePayload(jobs.JobPasswordReset, jobs.PasswordResetPayload{
		Email:    foundUser.Email,
		Name:     foundUser.Name,
		ResetURL: resetURL,
	})

	if err == nil {
		_, err = h.queue.Create(cctx, job.CreateRequest{
			Type:    string(jobs.JobPasswordReset),
			Payload: payload,
		})
	}

	if err != nil {
		// do not leak failures to the caller either
		genericResponse()
		return
	}

	genericResponse()
}

func (h *AuthHandler) ResetPassword(ctx *gin.Context) {
	token := ctx.Param("token")

	var req ResetPasswordRequest

	if !BindJSON(ctx, &req) {
		return
	}

	if err := security.ValidatePasswordPolicy(req.Password); err != nil {
		RespondBadRequest(ctx, err.Error(), nil)
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	row, err := h.resets.Consume(cctx, auth.HashResetToken(token))

	if err != nil {
		if errors.Is(err, postgres.ErrResetTokenNotFound) {
			RespondBadRequest(ctx, "Invalid or expired reset token", nil)
			return
		}
		RespondInternal(ctx, "Could not reset password")
		return
	}

	hash, err := security.HashPassword(req.Password)

	if err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	if err := h.users.UpdatePassword(cctx, row.UserID, hash); err != nil {
		RespondInternal(ctx, "Could not reset password")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"message": "Password has been reset successfully.",
	})
}
