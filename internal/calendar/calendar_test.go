package calendar

import (
	"strings"
	"testing"
	"time"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

func TestBuildEvent_TwoHourDuration(t *testing.T) {
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)

	ev := buildEvent(booking.Booking{
		ID:     "b1",
		Name:   "Jamie",
		Email:  "client@example.com",
		Type:   booking.TypeRunway,
		Date:   start,
		Status: booking.StatusPending,
	}, true)

	gotStart, err := time.Parse(time.RFC3339, ev.Start.DateTime)
	if err != nil {
		t.Fatalf("bad start datetime: %v", err)
	}
	gotEnd, err := time.Parse(time.RFC3339, ev.End.DateTime)
	if err != nil {
		t.Fatalf("bad end datetime: %v", err)
	}

	if !gotStart.Equal(start) {
		t.Fatalf("expected start %v, got %v", start, gotStart)
	}
	if gotEnd.Sub(gotStart) != 2*time.Hour {
		t.Fatalf("expected 2h duration, got %v", gotEnd.Sub(gotStart))
	}

	if ev.Summary != "Photoshoot - runway" {
		t.Fatalf("unexpected summary %q", ev.Summary)
	}
}

func TestBuildEvent_StatusInDescriptionAfterTransition(t *testing.T) {
	ev := buildEvent(booking.Booking{
		ID:     "b1",
		Name:   "Jamie",
		Email:  "client@example.com",
		Type:   booking.TypeEditorial,
		Date:   time.Now().UTC(),
		Status: booking.StatusConfirmed,
	}, false)

	if ev.Reminders != nil {
		t.Fatalf("updates should not override reminders")
	}
	if want := "Status: confirmed"; !strings.Contains(ev.Description, want) {
		t.Fatalf("description should contain %q, got %q", want, ev.Description)
	}
}
