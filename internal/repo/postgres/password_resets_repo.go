package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

var ErrResetTokenNotFound = errors.New("reset token not found")

type PasswordResetRow struct {
	ID        string
	UserID    string
	TokenHash string
	ExpiresAt time.Time
	UsedAt    *time.Time
	CreatedAt time.Time
}

type PasswordResetsRepo struct {
	pool *pgxpool.Pool
}

func NewPasswordResetsRepo(pool *pgxpool.Pool) *PasswordResetsRepo {
	return &PasswordResetsRepo{pool: pool}
}

func (r *PasswordResetsRepo) Create(ctx context.Context, row PasswordResetRow) error {
	_, err := r.pool.Exec(ctx,
		`INSERT INTO password_resets (id, user_id, token_hash, expires_at, used_at, created_at)
		VALUES ($1,$2,$3,$4,$5,$6)
		`,
		row.ID, row.UserID, row.TokenHash, row.ExpiresAt, row.UsedAt, row.CreatedAt,
	)
	return err
}

// Consume atomically marks the token used and returns its row. Locks the row
// to prevent a concurrent double-spend of the same link.
func (r *PasswordResetsRepo) Consume(ctx context.Context, tokenHash string) (PasswordResetRow, error) {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return PasswordResetRow{}, err
	}
	defer tx.Rollback(ctx)

	var row PasswordResetRow

	err = tx.QueryRow(ctx, `
		SELECT id, user_id, token_hash, expires_at, used_at, created_at
		FROM password_resets
		WHERE token_hash = $1
		FOR UPDATE
	`, tokenHash).Scan(
		&row.ID,
		&row.UserID,
		&row.TokenHash,
		&row.ExpiresAt,
		&row.UsedAt,
		&row.CreatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return PasswordResetRow{}, ErrResetTokenNotFound
		}

		return PasswordResetRow{}, err
	}

	if row.UsedAt != nil {
		return PasswordResetRow{}, ErrResetTokenNotFound
	}

	if time.Now().UTC().After(row.ExpiresAt) {
		return PasswordResetRow{}, ErrResetTokenNotFound
	}

	_, err = tx.Exec(ctx, `
		UPDATE password_resets
		SET used_at = NOW()
		WHERE id = $1
	`, row.ID)

	if err != nil {
		return PasswordResetRow{}, err
	}

	if err := tx.Commit(ctx); err != nil {
		return PasswordResetRow{}, err
	}

	return row, nil
}

// DeleteExpired is housekeeping run periodically by the worker.
func (r *PasswordResetsRepo) DeleteExpired(ctx context.Context) (int64, error) {
	tag, err := r.pool.Exec(ctx, `
		DELETE FROM password_resets
		WHERE expires_at < NOW() - INTERVAL '1 day'
	`)

	if err != nil {
		return 0, err
	}

	return tag.RowsAffected(), nil
}
