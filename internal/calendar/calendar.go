package calendar

import (
	"context"
	"time"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

// EventDuration is how long a shoot is blocked out for on the calendar.
const EventDuration = 2 * time.Hour

// Service mirrors a booking's lifecycle onto an external calendar. All calls
// are best-effort from the caller's point of view: a sync failure never fails
// the booking operation that triggered it.
type Service interface {
	CreateEvent(ctx context.Context, b booking.Booking) (eventID string, err error)
	UpdateEvent(ctx context.Context, eventID string, b booking.Booking) error
	DeleteEvent(ctx context.Context, eventID string) error
}
