package memory

import (
	"sort"
	"sync"

	"github.com/rossvale/modelfolio/internal/domain/booking"
)

// BookingsRepo is an in-memory store used in tests and local smoke runs.
type BookingsRepo struct {
	mu    sync.RWMutex
	items map[string]booking.Booking
}

func NewBookingsRepo() *BookingsRepo {
	return &BookingsRepo{
		items: make(map[string]booking.Booking),
	}
}

func (r *BookingsRepo) Create(req booking.CreateBookingRequest) (booking.Booking, error) {
	b := booking.NewFromCreateRequest(req)

	r.mu.Lock()
	r.items[b.ID] = b
	r.mu.Unlock()

	return b, nil
}

func (r *BookingsRepo) GetByID(id string) (booking.Booking, error) {
	r.mu.RLock()
	b, ok := r.items[id]
	r.mu.RUnlock()

	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}
	return b, nil
}

func (r *BookingsRepo) List() []booking.Booking {
	r.mu.RLock()
	out := make([]booking.Booking, 0, len(r.items))
	for _, b := range r.items {
		out = append(out, b)
	}
	r.mu.RUnlock()

	// newest shoot dates first, same as the SQL ordering
	sort.Slice(out, func(i, j int) bool {
		return out[i].Date.After(out[j].Date)
	})

	return out
}

func (r *BookingsRepo) UpdateStatus(id string, status booking.Status) (booking.Booking, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	b, ok := r.items[id]
	if !ok {
		return booking.Booking{}, booking.ErrNotFound
	}

	b.Status = status
	r.items[id] = b
	return b, nil
}
