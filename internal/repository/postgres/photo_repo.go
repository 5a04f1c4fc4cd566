package postgres

import (
	"context"

	"github.com/gofrs/uuid/v5"
	"github.com/jackc/pgx/v5"

	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
)

// PhotoRepo implements PhotoRepository using PostgreSQL.
type PhotoRepo struct{ db *DB }

var _ repository.PhotoRepository = (*PhotoRepo)(nil)

// NewPhotoRepo constructs a photo repository.
func NewPhotoRepo(db *DB) *PhotoRepo { return &PhotoRepo{db: db} }

// Create inserts a photo row.
func (r *PhotoRepo) Create(ctx context.Context, p *model.Photo) error {
	const q = `
INSERT INTO photos (id, user_id, photo_path, latitude, longitude)
VALUES ($1, $2, $3, $4, $5)
RETURNING created_at`
	return r.db.Pool.QueryRow(ctx, q, p.ID, p.UserID, p.PhotoPath, p.Latitude, p.Longitude).Scan(&p.CreatedAt)
}

// ListByUser selects the newest photos of a user.
func (r *PhotoRepo) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Photo, error) {
	const q = `
SELECT id, user_id, photo_path, latitude, longitude, created_at
FROM photos WHERE user_id=$1
ORDER BY created_at DESC
LIMIT $2`
	rows, err := r.db.Pool.Query(ctx, q, userID, limit)
	if err != nil {
		return nil, err
	}
	return pgx.CollectRows(rows, func(row pgx.CollectableRow) (model.Photo, error) {
		var p model.Photo
		err := row.Scan(&p.ID, &p.UserID, &p.PhotoPath, &p.Latitude, &p.Longitude, &p.CreatedAt)
		return p, err
	})
}
