package memory

import (
	"testing"
	"time"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

func createBooking(t *testing.T, r *BookingsRepo, date time.Time) booking.Booking {
	t.Helper()

	b, err := r.Create(booking.CreateBookingRequest{
		Name:  "Jane Doe",
		Email: "jane@example.com",
		Type:  string(booking.TypeEditorial),
		Date:  date,
	})
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	return b
}

func TestBookingsRepo_CreateAndGet(t *testing.T) {
	r := NewBookingsRepo()

	b := createBooking(t, r, time.Now().UTC())

	if b.Status != booking.StatusPending {
		t.Fatalf("new booking status=%s, want pending", b.Status)
	}

	got, err := r.GetByID(b.ID)
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if got.Email != "jane@example.com" {
		t.Fatalf("email=%s", got.Email)
	}

	if _, err := r.GetByID("missing"); err != booking.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestBookingsRepo_ListNewestFirst(t *testing.T) {
	r := NewBookingsRepo()
	now := time.Now().UTC()

	older := createBooking(t, r, now.Add(-48*time.Hour))
	newer := createBooking(t, r, now.Add(48*time.Hour))

	out := r.List()

	if len(out) != 2 {
		t.Fatalf("got %d bookings, want 2", len(out))
	}
	if out[0].ID != newer.ID || out[1].ID != older.ID {
		t.Fatalf("list not ordered newest first: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestBookingsRepo_UpdateStatus(t *testing.T) {
	r := NewBookingsRepo()

	b := createBooking(t, r, time.Now().UTC())

	updated, err := r.UpdateStatus(b.ID, booking.StatusConfirmed)
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.Status != booking.StatusConfirmed {
		t.Fatalf("status=%s, want confirmed", updated.Status)
	}

	if _, err := r.UpdateStatus("missing", booking.StatusCancelled); err != booking.ErrNotFound {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}
