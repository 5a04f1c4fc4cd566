// Package repository defines storage interfaces implemented by concrete backends.
package repository

import (
	"context"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/geocam/internal/model"
)

// UserRepository stores accounts.
type UserRepository interface {
	// Create inserts a new user. A taken email yields errs.ErrAlreadyExists.
	Create(ctx context.Context, u *model.User) error
	// GetByID loads a user by ID.
	GetByID(ctx context.Context, id uuid.UUID) (*model.User, error)
	// GetByEmail loads a user by normalized email.
	GetByEmail(ctx context.Context, email string) (*model.User, error)
}

// PhotoRepository stores uploaded photo records.
type PhotoRepository interface {
	// Create inserts a photo record; CreatedAt is filled in by the store.
	Create(ctx context.Context, p *model.Photo) error
	// ListByUser returns the newest photos of a user first, at most limit.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]model.Photo, error)
}
