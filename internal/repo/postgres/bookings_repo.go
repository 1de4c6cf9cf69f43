package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rossvale/modelfolio/internal/domain/booking"
)

type BookingsRepo struct {
	pool *pgxpool.Pool
}

func NewBookingsRepo(pool *pgxpool.Pool) *BookingsRepo {
	return &BookingsRepo{
		pool: pool,
	}
}

func (r *BookingsRepo) Create(ctx context.Context, req booking.CreateBookingRequest) (booking.Booking, error) {
	b := booking.NewFromCreateRequest(req)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO bookings(id, name, email, phone, type, date, details, status, calendar_event_id, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.Name, b.Email, b.Phone, string(b.Type), b.Date, b.Details, string(b.Status), b.CalendarEventID, b.CreatedAt, b.UpdatedAt)

	if err != nil {
		return booking.Booking{}, err
	}

	return b, nil
}

// CreateTx writes the booking inside the caller's transaction so the row and
// its notification jobs commit together.
func (r *BookingsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req booking.CreateBookingRequest) (booking.Booking, error) {
	b := booking.NewFromCreateRequest(req)

	_, err := tx.Exec(ctx,
		`INSERT INTO bookings(id, name, email, phone, type, date, details, status, calendar_event_id, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11)`,
		b.ID, b.Name, b.Email, b.Phone, string(b.Type), b.Date, b.Details, string(b.Status), b.CalendarEventID, b.CreatedAt, b.UpdatedAt)

	if err != nil {
		return booking.Booking{}, err
	}

	return b, nil
}

func (r *BookingsRepo) List(ctx context.Context, filter booking.ListFilter) ([]booking.Booking, int, error) {
	baseQuery :=
		`SELECT id,
		name,
		email,
		phone,
		type,
		date,
		details,
		status,
		calendar_event_id,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM bookings
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if filter.Status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *filter.Status)
		argsPosition++
	}

	if filter.From != nil {
		conds = append(conds, fmt.Sprintf("date >= $%d", argsPosition))
		args = append(args, *filter.From)
		argsPosition++
	}

	if filter.To != nil {
		conds = append(conds, fmt.Sprintf("date <= $%d", argsPosition))
		args = append(args, *filter.To)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// newest shoot dates first, stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY date DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, filter.Limit, filter.Offset)

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]booking.Booking, 0, filter.Limit)
	total := 0

	for rows.Next() {
		var b booking.Booking
		var typ, status string
		var t int

		err = rows.Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &typ, &b.Date, &b.Details, &status, &b.CalendarEventID, &b.CreatedAt, &b.UpdatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		b.Type = booking.Type(typ)
		b.Status = booking.Status(status)
		total = t
		output = append(output, b)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *BookingsRepo) GetByID(ctx context.Context, id string) (booking.Booking, error) {
	var b booking.Booking
	var typ, status string

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, phone, type, date, details, status, calendar_event_id, created_at, updated_at
		 FROM bookings WHERE id = $1`, id).
		Scan(&b.ID, &b.Name, &b.Email, &b.Phone, &typ, &b.Date, &b.Details, &status, &b.CalendarEventID, &b.CreatedAt, &b.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Booking{}, booking.ErrNotFound
		}
		return booking.Booking{}, err
	}

	b.Type = booking.Type(typ)
	b.Status = booking.Status(status)
	return b, nil
}

func (r *BookingsRepo) UpdateStatus(ctx context.Context, id string, status booking.Status) (booking.Booking, error) {
	var b booking.Booking
	var typ, st string

	err := r.pool.QueryRow(
		ctx,
		`UPDATE bookings
			SET status = $2,
					updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, phone, type, date, details, status, calendar_event_id, created_at, updated_at`,
		id,
		string(status),
	).Scan(
		&b.ID,
		&b.Name,
		&b.Email,
		&b.Phone,
		&typ,
		&b.Date,
		&b.Details,
		&st,
		&b.CalendarEventID,
		&b.CreatedAt,
		&b.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return booking.Booking{}, booking.ErrNotFound
		}
		return booking.Booking{}, err
	}

	b.Type = booking.Type(typ)
	b.Status = booking.Status(st)
	return b, nil
}

// SetCalendarEventID stores the synced event id after a successful calendar
// call. Best effort: callers log and move on when this fails.
func (r *BookingsRepo) SetCalendarEventID(ctx context.Context, id string, eventID *string) error {
	tag, err := r.pool.Exec(ctx, `
		UPDATE bookings
		SET calendar_event_id = $2,
		    updated_at = NOW()
		WHERE id = $1
	`, id, eventID)

	if err != nil {
		return err
	}

	if tag.RowsAffected() == 0 {
		return booking.ErrNotFound
	}

	return nil
}

func (r *BookingsRepo) Delete(ctx context.Context, id string) error {
	query, err := r.pool.Exec(ctx, `
		DELETE from bookings WHERE id = $1
	`, id)

	if err != nil {

		return err
	}

	if query.RowsAffected() == 0 {
		return booking.ErrNotFound
	}

	return nil
}
