package calendar

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/option"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

type GoogleConfig struct {
	ClientID     string
	ClientSecret string
	RefreshToken string
	CalendarID   string
}

// GoogleService syncs bookings to a Google Calendar using an offline
// refresh token (the admin authorizes once, out of band).
type GoogleService struct {
	svc        *gcal.Service
	calendarID string
}

func NewGoogleService(ctx context.Context, cfg GoogleConfig) (*GoogleService, error) {
	conf := &oauth2.Config{
		ClientID:     cfg.ClientID,
		ClientSecret: cfg.ClientSecret,
		Endpoint:     google.Endpoint,
		Scopes:       []string{gcal.CalendarEventsScope},
	}

	ts := conf.TokenSource(ctx, &oauth2.Token{RefreshToken: cfg.RefreshToken})

	svc, err := gcal.NewService(ctx, option.WithTokenSource(ts))

	if err != nil {
		return nil, fmt.Errorf("calendar service: %w", err)
	}

	calendarID := cfg.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}

	return &GoogleService{svc: svc, calendarID: calendarID}, nil
}

func (g *GoogleService) CreateEvent(ctx context.Context, b booking.Booking) (string, error) {
	ev, err := g.svc.Events.Insert(g.calendarID, buildEvent(b, true)).Context(ctx).Do()

	if err != nil {
		return "", fmt.Errorf("calendar insert: %w", err)
	}

	return ev.Id, nil
}

func (g *GoogleService) UpdateEvent(ctx context.Context, eventID string, b booking.Booking) error {
	_, err := g.svc.Events.Update(g.calendarID, eventID, buildEvent(b, false)).Context(ctx).Do()

	if err != nil {
		return fmt.Errorf("calendar update: %w", err)
	}

	return nil
}

func (g *GoogleService) DeleteEvent(ctx context.Context, eventID string) error {
	err := g.svc.Events.Delete(g.calendarID, eventID).Context(ctx).Do()

	if err != nil {
		return fmt.Errorf("calendar delete: %w", err)
	}

	return nil
}

func buildEvent(b booking.Booking, withReminders bool) *gcal.Event {
	start := b.Date.UTC()
	end := start.Add(EventDuration)

	description := fmt.Sprintf("Client: %s\nEmail: %s", b.Name, b.Email)
	if b.Phone != "" {
		description += "\nPhone: " + b.Phone
	}
	if b.Details != "" {
		description += "\nDetails: " + b.Details
	}
	if b.Status != booking.StatusPending {
		description += "\nStatus: " + string(b.Status)
	}

	ev := &gcal.Event{
		Summary:     "Photoshoot - " + string(b.Type),
		Description: description,
		Start: &gcal.EventDateTime{
			DateTime: start.Format(time.RFC3339),
			TimeZone: "UTC",
		},
		End: &gcal.EventDateTime{
			DateTime: end.Format(time.RFC3339),
			TimeZone: "UTC",
		},
	}

	if withReminders {
		ev.Reminders = &gcal.EventReminders{
			UseDefault: false,
			Overrides: []*gcal.EventReminder{
				{Method: "email", Minutes: 24 * 60}, // 1 day before
				{Method: "popup", Minutes: 60},      // 1 hour before
			},
			ForceSendFields: []string{"UseDefault"},
		}
	}

	return ev
}
