// Package memory provides process-local repositories for development runs and tests.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
)

// UserRepo keeps users in a map keyed by email.
type UserRepo struct {
	mu      sync.RWMutex
	byEmail map[string]model.User
}

var _ repository.UserRepository = (*UserRepo)(nil)

// NewUserRepo creates an empty user repository.
func NewUserRepo() *UserRepo {
	return &UserRepo{byEmail: make(map[string]model.User)}
}

// Create implements UserRepository.
func (r *UserRepo) Create(_ context.Context, u *model.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byEmail[u.Email]; exists {
		return errs.ErrAlreadyExists
	}
	u.CreatedAt = time.Now().UTC()
	r.byEmail[u.Email] = *u
	return nil
}

// GetByID implements UserRepository.
func (r *UserRepo) GetByID(_ context.Context, id uuid.UUID) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, u := range r.byEmail {
		if u.ID == id {
			return &u, nil
		}
	}
	return nil, errs.ErrNotFound
}

// GetByEmail implements UserRepository.
func (r *UserRepo) GetByEmail(_ context.Context, email string) (*model.User, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	u, ok := r.byEmail[email]
	if !ok {
		return nil, errs.ErrNotFound
	}
	return &u, nil
}

// PhotoRepo keeps photos in insertion order.
type PhotoRepo struct {
	mu     sync.RWMutex
	photos []model.Photo
}

var _ repository.PhotoRepository = (*PhotoRepo)(nil)

// NewPhotoRepo creates an empty photo repository.
func NewPhotoRepo() *PhotoRepo { return &PhotoRepo{} }

// Create implements PhotoRepository.
func (r *PhotoRepo) Create(_ context.Context, p *model.Photo) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, x := range r.photos {
		if x.ID == p.ID {
			return errs.ErrAlreadyExists
		}
	}
	p.CreatedAt = time.Now().UTC()
	r.photos = append(r.photos, *p)
	return nil
}

// ListByUser implements PhotoRepository.
func (r *PhotoRepo) ListByUser(_ context.Context, userID uuid.UUID, limit int) ([]model.Photo, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []model.Photo
	for i := len(r.photos) - 1; i >= 0; i-- {
		if r.photos[i].UserID == userID {
			out = append(out, r.photos[i])
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	if limit > 0 && len(out) > limit {
		out = out[:limit]
	}
	return out, nil
}
