package handlers

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/rossvale/modelfolio/internal/calendar"
	"github.com/rossvale/modelfolio/internal/config"
	"github.com/rossvale/modelfolio/internal/domain/booking"
	"github.com/rossvale/modelfolio/internal/domain/job"
	"github.com/rossvale/modelfolio/internal/jobs"
	"github.com/rossvale/modelfolio/internal/observability"
)

type BookingIntake interface {
	CreateBookingWithJobs(ctx context.Context, req booking.CreateBookingRequest, jobsFor func(booking.Booking) ([]job.CreateRequest, error)) (booking.Booking, error)
}

type BookingsStore interface {
	List(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error)
	GetByID(ctx context.Context, id string) (booking.Booking, error)
	UpdateStatus(ctx context.Context, id string, status booking.Status) (booking.Booking, error)
	SetCalendarEventID(ctx context.Context, id string, eventID *string) error
	Delete(ctx context.Context, id string) error
}

type BookingsHandler struct {
	intake   BookingIntake
	repo     BookingsStore
	queue    JobsEnqueuer
	calendar calendar.Service
	logger   *slog.Logger
	cfg      config.Config
}

func NewBookingsHandler(intake BookingIntake, repo BookingsStore, queue JobsEnqueuer, cal calendar.Service, logger *slog.Logger, cfg config.Config) *BookingsHandler {
	return &BookingsHandler{
		intake:   intake,
		repo:     repo,
		queue:    queue,
		calendar: cal,
		logger:   logger,
		cfg:      cfg,
	}
}

// CreateBooking is the public booking-request endpoint. The booking row and
// its two notification jobs commit in one transaction; the calendar sync
// afterwards is best effort and never fails the request.
func (h *BookingsHandler) CreateBooking(ctx *gin.Context) {
	var req booking.CreateBookingRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	b, err := h.intake.CreateBookingWithJobs(cctx, req, func(b booking.Booking) ([]job.CreateRequest, error) {
		return bookingIntakeJobs(b, h.cfg.AdminEmail)
	})

	if err != nil {
		RespondInternal(ctx, "Could not create booking")
		return
	}

	h.syncCalendarCreate(cctx, &b)

	ctx.JSON(http.StatusCreated, b)
}

func bookingIntakeJobs(b booking.Booking, adminEmail string) ([]job.CreateRequest, error) {
	confirmation, err := jobs.EncodePayload(jobs.JobBookingConfirmation, jobs.BookingConfirmationPayload{
		BookingID: b.ID,
		Email:     b.Email,
		Name:      b.Name,
		Type:      string(b.Type),
		Date:      b.Date,
	})
	if err != nil {
		return nil, err
	}

	alert, err := jobs.EncodePayload(jobs.JobBookingRequestAlert, jobs.BookingRequestAlertPayload{
		BookingID: b.ID,
		Email:     adminEmail,
		Name:      b.Name,
		Phone:     b.Phone,
		Type:      string(b.Type),
		Date:      b.Date,
		Details:   b.Details,
	})
	if err != nil {
		return nil, err
	}

	return []job.CreateRequest{
		{Type: string(jobs.JobBookingConfirmation), Payload: confirmation},
		{Type: string(jobs.JobBookingRequestAlert), Payload: alert},
	}, nil
}

func (h *BookingsHandler) ListBookings(ctx *gin.Context) {
	filter := booking.ListFilter{
		Limit:  50,
		Offset: 0,
	}

	if v := ctx.Query("status"); v != "" {
		if !booking.Status(v).IsValid() {
			RespondBadRequest(ctx, "Invalid status filter", nil)
			return
		}
		filter.Status = &v
	}

	if v := ctx.Query("from"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid from date, expected YYYY-MM-DD", nil)
			return
		}
		filter.From = &t
	}

	if v := ctx.Query("to"); v != "" {
		t, err := time.Parse("2006-01-02", v)
		if err != nil {
			RespondBadRequest(ctx, "Invalid to date, expected YYYY-MM-DD", nil)
			return
		}
		filter.To = &t
	}

	if v := ctx.Query("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n > 0 && n <= 200 {
			filter.Limit = n
		}
	}

	if v := ctx.Query("offset"); v != "" {
		n, err := strconv.Atoi(v)
		if err == nil && n >= 0 {
			filter.Offset = n
		}
	}

	cctx, cancel := config.WithTimeout(3 * time.Second)
	defer cancel()

	items, total, err := h.repo.List(cctx, filter)

	if err != nil {
		RespondInternal(ctx, "Could not list bookings")
		return
	}

	ctx.JSON(http.StatusOK, gin.H{
		"items": items,
		"total": total,
	})
}

func (h *BookingsHandler) UpdateBookingStatus(ctx *gin.Context) {
	id := ctx.Param("id")

	var req booking.UpdateStatusRequest

	if !BindJSON(ctx, &req) {
		return
	}

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	b, err := h.repo.UpdateStatus(cctx, id, booking.Status(req.Status))

	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			RespondNotFound(ctx, "Booking not found")
			return
		}
		RespondInternal(ctx, "Could not update booking status")
		return
	}

	h.enqueueStatusChangeEmail(cctx, b)
	h.syncCalendarUpdate(cctx, b)

	ctx.JSON(http.StatusOK, b)
}

func (h *BookingsHandler) DeleteBooking(ctx *gin.Context) {
	id := ctx.Param("id")

	cctx, cancel := config.WithTimeout(5 * time.Second)
	defer cancel()

	b, err := h.repo.GetByID(cctx, id)

	if err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			RespondNotFound(ctx, "Booking not found")
			return
		}
		RespondInternal(ctx, "Could not delete booking")
		return
	}

	if b.CalendarEventID != nil {
		if err := h.calendar.DeleteEvent(cctx, *b.CalendarEventID); err != nil {
			h.logger.Error("calendar event delete failed", "bookingId", b.ID, "error", err)
			observability.CaptureError(err)
		}
	}

	if err := h.repo.Delete(cctx, id); err != nil {
		if errors.Is(err, booking.ErrNotFound) {
			RespondNotFound(ctx, "Booking not found")
			return
		}
		RespondInternal(ctx, "Could not delete booking")
		return
	}

	ctx.Status(http.StatusNoContent)
}

func (h *BookingsHandler) enqueueStatusChangeEmail(ctx context.Context, b booking.Booking) {
	payload, err := jobs.EncodePayload(jobs.JobBookingStatusChange, jobs.BookingStatusChangePayload{
		BookingID: b.ID,
		Email:     b.Email,
		Name:      b.Name,
		Type:      string(b.Type),
		Date:      b.Date,
		Status:    string(b.Status),
	})

	if err == nil {
		_, err = h.queue.Create(ctx, job.CreateRequest{
			Type:    string(jobs.JobBookingStatusChange),
			Payload: payload,
		})
	}

	if err != nil {
		h.logger.Error("enqueue status change email failed", "bookingId", b.ID, "error", err)
		observability.CaptureError(err)
	}
}

func (h *BookingsHandler) syncCalendarCreate(ctx context.Context, b *booking.Booking) {
	eventID, err := h.calendar.CreateEvent(ctx, *b)

	if err != nil {
		h.logger.Error("calendar event create failed", "bookingId", b.ID, "error", err)
		observability.CaptureError(err)
		return
	}

	if err := h.repo.SetCalendarEventID(ctx, b.ID, &eventID); err != nil {
		h.logger.Error("save calendar event id failed", "bookingId", b.ID, "error", err)
		return
	}

	b.CalendarEventID = &eventID
}

func (h *BookingsHandler) syncCalendarUpdate(ctx context.Context, b booking.Booking) {
	if b.CalendarEventID == nil {
		return
	}

	if b.Status == booking.StatusCancelled {
		if err := h.calendar.DeleteEvent(ctx, *b.CalendarEventID); err != nil {
			h.logger.Error("calendar event delete failed", "bookingId", b.ID, "error", err)
			observability.CaptureError(err)
			return
		}

		if err := h.repo.SetCalendarEventID(ctx, b.ID, nil); err != nil {
			h.logger.Error("clear calendar event id failed", "bookingId", b.ID, "error", err)
		}
		return
	}

	if err := h.calendar.UpdateEvent(ctx, *b.CalendarEventID, b); err != nil {
		h.logger.Error("calendar event update failed", "bookingId", b.ID, "error", err)
		observability.CaptureError(err)
	}
}
