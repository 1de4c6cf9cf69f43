package calendar

import (
	"context"
	"log"

	"github.com/google/uuid"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

// LogService stands in for the calendar provider when Google credentials are
// not configured (dev, tests).
type LogService struct{}

func NewLogService() *LogService { return &LogService{} }

func (s *LogService) CreateEvent(ctx context.Context, b booking.Booking) (string, error) {
	id := "local-" + uuid.NewString()
	log.Printf("calendar.create booking=%s type=%s start=%s event=%s", b.ID, b.Type, b.Date, id)
	return id, nil
}

func (s *LogService) UpdateEvent(ctx context.Context, eventID string, b booking.Booking) error {
	log.Printf("calendar.update event=%s booking=%s status=%s", eventID, b.ID, b.Status)
	return nil
}

func (s *LogService) DeleteEvent(ctx context.Context, eventID string) error {
	log.Printf("calendar.delete event=%s", eventID)
	return nil
}
