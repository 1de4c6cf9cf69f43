package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rossvale/modelfolio/internal/domain/contact"
)

type ContactsRepo struct {
	pool *pgxpool.Pool
}

func NewContactsRepo(pool *pgxpool.Pool) *ContactsRepo {
	return &ContactsRepo{
		pool: pool,
	}
}

func (r *ContactsRepo) Create(ctx context.Context, req contact.CreateMessageRequest) (contact.Message, error) {
	m := contact.NewFromCreateRequest(req)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO contact_messages(id, name, email, subject, message, status, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, string(m.Status), m.CreatedAt, m.UpdatedAt)

	if err != nil {
		return contact.Message{}, err
	}

	return m, nil
}

// CreateTx writes the message inside the caller's transaction alongside the
// admin alert job.
func (r *ContactsRepo) CreateTx(ctx context.Context, tx pgx.Tx, req contact.CreateMessageRequest) (contact.Message, error) {
	m := contact.NewFromCreateRequest(req)

	_, err := tx.Exec(ctx,
		`INSERT INTO contact_messages(id, name, email, subject, message, status, created_at, updated_at)
		 VALUES($1,$2,$3,$4,$5,$6,$7,$8)`,
		m.ID, m.Name, m.Email, m.Subject, m.Message, string(m.Status), m.CreatedAt, m.UpdatedAt)

	if err != nil {
		return contact.Message{}, err
	}

	return m, nil
}

func (r *ContactsRepo) List(ctx context.Context, status *string, limit, offset int) ([]contact.Message, int, error) {
	baseQuery :=
		`SELECT id,
		name,
		email,
		subject,
		message,
		status,
		created_at,
		updated_at,
		COUNT(*) OVER() AS total
	FROM contact_messages
	`

	var conds []string
	var args []interface{}

	argsPosition := 1

	if status != nil {
		conds = append(conds, fmt.Sprintf("status = $%d", argsPosition))
		args = append(args, *status)
		argsPosition++
	}

	query := baseQuery

	if len(conds) > 0 {
		query += " WHERE " + strings.Join(conds, " AND ")
	}

	// newest first, stable ordering for pagination
	query += fmt.Sprintf(" ORDER BY created_at DESC, id ASC LIMIT $%d OFFSET $%d", argsPosition, argsPosition+1)

	args = append(args, limit, offset)

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, 0, err
	}

	defer rows.Close()

	output := make([]contact.Message, 0, limit)
	total := 0

	for rows.Next() {
		var m contact.Message
		var st string
		var t int

		err = rows.Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &st, &m.CreatedAt, &m.UpdatedAt, &t)

		if err != nil {
			return nil, 0, err
		}

		m.Status = contact.Status(st)
		total = t
		output = append(output, m)
	}

	err = rows.Err()

	if err != nil {
		return nil, 0, err
	}

	return output, total, nil
}

func (r *ContactsRepo) GetByID(ctx context.Context, id string) (contact.Message, error) {
	var m contact.Message
	var st string

	err := r.pool.QueryRow(ctx,
		`SELECT id, name, email, subject, message, status, created_at, updated_at
		 FROM contact_messages WHERE id = $1`, id).
		Scan(&m.ID, &m.Name, &m.Email, &m.Subject, &m.Message, &st, &m.CreatedAt, &m.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Message{}, contact.ErrNotFound
		}
		return contact.Message{}, err
	}

	m.Status = contact.Status(st)
	return m, nil
}

func (r *ContactsRepo) UpdateStatus(ctx context.Context, id string, status contact.Status) (contact.Message, error) {
	var m contact.Message
	var st string

	err := r.pool.QueryRow(
		ctx,
		`UPDATE contact_messages
			SET status = $2,
					updated_at = NOW()
		WHERE id = $1
		RETURNING id, name, email, subject, message, status, created_at, updated_at`,
		id,
		string(status),
	).Scan(
		&m.ID,
		&m.Name,
		&m.Email,
		&m.Subject,
		&m.Message,
		&st,
		&m.CreatedAt,
		&m.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return contact.Message{}, contact.ErrNotFound
		}
		return contact.Message{}, err
	}

	m.Status = contact.Status(st)
	return m, nil
}

func (r *ContactsRepo) Delete(ctx context.Context, id string) error {
	query, err := r.pool.Exec(ctx, `
		DELETE from contact_messages WHERE id = $1
	`, id)

	if err != nil {

		return err
	}

	if query.RowsAffected() == 0 {
		return contact.ErrNotFound
	}

	return nil
}
