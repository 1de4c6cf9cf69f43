package postgres

import (
	"context"

	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rossvale/modelfolio/internal/domain/booking"
	"github.com/rossvale/modelfolio/internal/domain/contact"
	"github.com/rossvale/modelfolio/internal/domain/job"
)

// Intake groups the writes that must land atomically: a new booking or
// contact message together with the email jobs announcing it. If the enqueue
// fails the record rolls back too, so no client ever gets a silent booking.
type Intake struct {
	pool     *pgxpool.Pool
	bookings *BookingsRepo
	contacts *ContactsRepo
	jobs     *JobsRepo
}

func NewIntake(pool *pgxpool.Pool, bookings *BookingsRepo, contacts *ContactsRepo, jobs *JobsRepo) *Intake {
	return &Intake{
		pool:     pool,
		bookings: bookings,
		contacts: contacts,
		jobs:     jobs,
	}
}

// CreateBookingWithJobs persists the booking, then asks jobsFor for the
// notification jobs to enqueue against the created row (so payloads carry
// the real booking id), all in one transaction.
func (s *Intake) CreateBookingWithJobs(ctx context.Context, req booking.CreateBookingRequest, jobsFor func(booking.Booking) ([]job.CreateRequest, error)) (booking.Booking, error) {
	tx, err := s.pool.Begin(ctx)

	if err != nil {
		return booking.Booking{}, err
	}

	defer tx.Rollback(ctx)

	b, err := s.bookings.CreateTx(ctx, tx, req)

	if err != nil {
		return booking.Booking{}, err
	}

	jobReqs, err := jobsFor(b)

	if err != nil {
		return booking.Booking{}, err
	}

	for _, jr := range jobReqs {
		if _, err := s.jobs.CreateTx(ctx, tx, jr); err != nil {
			return booking.Booking{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return booking.Booking{}, err
	}

	return b, nil
}

func (s *Intake) CreateContactWithJobs(ctx context.Context, req contact.CreateMessageRequest, jobsFor func(contact.Message) ([]job.CreateRequest, error)) (contact.Message, error) {
	tx, err := s.pool.Begin(ctx)

	if err != nil {
		return contact.Message{}, err
	}

	defer tx.Rollback(ctx)

	m, err := s.contacts.CreateTx(ctx, tx, req)

	if err != nil {
		return contact.Message{}, err
	}

	jobReqs, err := jobsFor(m)

	if err != nil {
		return contact.Message{}, err
	}

	for _, jr := range jobReqs {
		if _, err := s.jobs.CreateTx(ctx, tx, jr); err != nil {
			return contact.Message{}, err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return contact.Message{}, err
	}

	return m, nil
}
