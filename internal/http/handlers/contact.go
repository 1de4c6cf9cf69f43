package handlers

import (
	"context"
	"errors"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/domain/contact"
	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/jobs"
)

type ContactIntake interface {
	CreateContactWithJobs(ctx context.Context, req contact.CreateMessageRequest, jobsFor func(contact.Message) ([]job.CreateRequest, error)) (contact.Message, error)
}

type ContactStore interface {
	List(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error)
	UpdateStatus(ctx context.Context, id string, status contact.Status) (contact.Message, error)
	Delete(ctx context.Context, id string) error
}

type ContactHandler struct {
	intake ContactIntake
	repo   ContactStore
	cfg    config.Config
}

func NewContactHandler(intake ContactIntake, repo ContactStore, cfg config.Config) *ContactHandler {
	return &ContactHandler{
		intake: intake,
		repo:   repo,
		cfg:    cfg,
	}
}

// CreateMessage is the public contact-form endpoint. The message and the
// admin alert job commit together.
func (h *ContactHandler) CreateMessage(ctx *gin.Context) {
	var req contact.CreateMessageRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	m, err := h.intake.CreateContactWithJobs(cctx, req, func(m contact.Message) ([]job.CreateRequest, error) {
		payload, err := jobs.EncodePayload(jobs.JobContactAlert, jobs.ContactAlertPayload{
			MessageID: m.ID,
			Email:     h.cfg.AdminEmail,
			FromName:  m.Name,
			FromEmail: m.Email,
			Subject:   m.Subject,
			Message:   m.Message,
		})
		if err != nil {
			return nil, err
		}

		return []job.CreateRequest{
			{Type: string(jobs.JobContactAlert), Payload: payload},
		}, nil
	})

	if err != nil {
		RespondInternal(ctx, "Could not send message")
		return
	}

	ctx.JSON(http.StatusCreated, m)
}

func (h *ContactHandler) ListMessages(ctx *gin.Context) {
	limit := 50
	offset := 0

	var status *string

	if v := ctx.Query("status"); v != "" {
		if !contact.Status(v).IsValid() {
			RespondBadRequest(ctx, "Invalid status filter", nil)
			return
		}
		status = &v
	}

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 && n <= 200 {
			limit = n
		}
	}

	if v := ctx.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			offset = n
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, status, limit, offset)

	if err != nil {
		RespondInternal(ctx, "Could not list messages")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *ContactHandler) UpdateMessageStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	var req contact.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	m, err := h.repo.UpdateStatus(cctx, id, contact.Status(req.Status))

	if err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Message not found")
			return
		}
		RespondInternal(ctx, "Could not update message")
		return
	}

	ctx.JSON(http.StatusOK, m)
}

func (h *ContactHandler) DeleteMessage(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, contact.ErrNotFound) {
			RespondNotFound(ctx, "Message not found")
			return
		}
		RespondInternal(ctx, "Could not delete message")
		return
	}

	ctx.Status(http.StatusNoContent)
}
