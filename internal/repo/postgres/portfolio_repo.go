package postgres

import (
	"context"
	"errors"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/rossvale/modelfolio/internal/domain/portfolio"
)

type PortfolioRepo struct {
	pool *pgxpool.Pool
}

func NewPortfolioRepo(pool *pgxpool.Pool) *PortfolioRepo {
	return &PortfolioRepo{
		pool: pool,
	}
}

func (r *PortfolioRepo) Create(ctx context.Context, req portfolio.CreateItemRequest, images portfolio.ImageSet) (portfolio.Item, error) {
	item := portfolio.NewFromCreateRequest(req, images)

	_, err := r.pool.Exec(ctx,
		`INSERT INTO portfolio_items(
			id, title, category, photographer, client, date,
			image_original, image_thumbnail, image_medium, image_public_id,
			display_order, created_at, updated_at
		) VALUES($1,$2,$3,$4,$5,$6,$7,$8,$9,$10,$11,$12,$13)`,
		item.ID, item.Title, string(item.Category), item.Photographer, item.Client, item.Date,
		item.Images.Original, item.Images.Thumbnail, item.Images.Medium, item.Images.PublicID,
		item.Order, item.CreatedAt, item.UpdatedAt)

	if err != nil {
		return portfolio.Item{}, err
	}

	return item, nil
}

func (r *PortfolioRepo) List(ctx context.Context, filter portfolio.ListFilter) ([]portfolio.Item, error) {
	query := `SELECT id, title, category, photographer, client, date,
		image_original, image_thumbnail, image_medium, image_public_id,
		display_order, created_at, updated_at
	FROM portfolio_items`

	var args []interface{}

	if filter.Category != nil {
		query += ` WHERE category = $1`
		args = append(args, string(*filter.Category))
	}

	// curated ordering first, then recency
	query += ` ORDER BY display_order ASC, date DESC, id ASC`

	rows, err := r.pool.Query(ctx, query, args...)

	if err != nil {
		return nil, err
	}

	defer rows.Close()

	output := make([]portfolio.Item, 0, 16)

	for rows.Next() {
		var item portfolio.Item
		var cat string

		err = rows.Scan(&item.ID, &item.Title, &cat, &item.Photographer, &item.Client, &item.Date,
			&item.Images.Original, &item.Images.Thumbnail, &item.Images.Medium, &item.Images.PublicID,
			&item.Order, &item.CreatedAt, &item.UpdatedAt)

		if err != nil {
			return nil, err
		}

		item.Category = portfolio.Category(cat)
		output = append(output, item)
	}

	err = rows.Err()

	if err != nil {
		return nil, err
	}

	return output, nil
}

func (r *PortfolioRepo) GetByID(ctx context.Context, id string) (portfolio.Item, error) {
	var item portfolio.Item
	var cat string

	err := r.pool.QueryRow(ctx,
		`SELECT id, title, category, photographer, client, date,
			image_original, image_thumbnail, image_medium, image_public_id,
			display_order, created_at, updated_at
		 FROM portfolio_items WHERE id = $1`, id).
		Scan(&item.ID, &item.Title, &cat, &item.Photographer, &item.Client, &item.Date,
			&item.Images.Original, &item.Images.Thumbnail, &item.Images.Medium, &item.Images.PublicID,
			&item.Order, &item.CreatedAt, &item.UpdatedAt)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return portfolio.Item{}, portfolio.ErrNotFound
		}
		return portfolio.Item{}, err
	}

	item.Category = portfolio.Category(cat)
	return item, nil
}

// Update replaces metadata; images only change when the caller uploaded a
// replacement file, in which case it passes the new set.
func (r *PortfolioRepo) Update(ctx context.Context, id string, req portfolio.UpdateItemRequest, images *portfolio.ImageSet) (portfolio.Item, error) {
	current, err := r.GetByID(ctx, id)
	if err != nil {
		return portfolio.Item{}, err
	}

	next := current.Images
	if images != nil {
		next = *images
	}

	date := req.Date
	if date.IsZero() {
		date = current.Date
	}

	var item portfolio.Item
	var cat string

	err = r.pool.QueryRow(
		ctx,
		`UPDATE portfolio_items
			SET title = $2,
					category = $3,
					photographer = $4,
					client = $5,
					date = $6,
					image_original = $7,
					image_thumbnail = $8,
					image_medium = $9,
					image_public_id = $10,
					display_order = $11,
					updated_at = NOW()
		WHERE id = $1
		RETURNING id, title, category, photographer, client, date,
			image_original, image_thumbnail, image_medium, image_public_id,
			display_order, created_at, updated_at`,
		id,
		req.Title,
		req.Category,
		req.Photographer,
		req.Client,
		date,
		next.Original,
		next.Thumbnail,
		next.Medium,
		next.PublicID,
		req.Order,
	).Scan(
		&item.ID,
		&item.Title,
		&cat,
		&item.Photographer,
		&item.Client,
		&item.Date,
		&item.Images.Original,
		&item.Images.Thumbnail,
		&item.Images.Medium,
		&item.Images.PublicID,
		&item.Order,
		&item.CreatedAt,
		&item.UpdatedAt,
	)

	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return portfolio.Item{}, portfolio.ErrNotFound
		}
		return portfolio.Item{}, err
	}

	item.Category = portfolio.Category(cat)
	return item, nil
}

func (r *PortfolioRepo) Delete(ctx context.Context, id string) error {
	query, err := r.pool.Exec(ctx, `
		DELETE from portfolio_items WHERE id = $1
	`, id)

	if err != nil {

		return err
	}

	if query.RowsAffected() == 0 {
		return portfolio.ErrNotFound
	}

	return nil
}
