package service

import (
	"context"
	"strings"

	"github.com/gofrs/uuid/v5"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
	"github.com/and161185/geocam/internal/validate"
)

// Listing bounds.
const (
	DefaultListLimit = 20
	MaxListLimit     = 100
)

// PhotoService defines photo upload and listing.
type PhotoService interface {
	// Upload records a photo for caller. The body's user_id must name the caller.
	Upload(ctx context.Context, caller uuid.UUID, req model.UploadRequest) (*model.Photo, error)
	// List returns the caller's newest photos.
	List(ctx context.Context, caller uuid.UUID, limit int) ([]model.Photo, error)
}

type PhotoServiceImpl struct {
	repo repository.PhotoRepository
}

var _ PhotoService = (*PhotoServiceImpl)(nil)

// NewPhotoService constructs PhotoService.
func NewPhotoService(repo repository.PhotoRepository) *PhotoServiceImpl {
	return &PhotoServiceImpl{repo: repo}
}

func checkUpload(req model.UploadRequest) error {
	fields := map[string]string{}
	if strings.TrimSpace(req.PhotoPath) == "" {
		fields["photo_path"] = "Photo path is required"
	}
	if strings.TrimSpace(req.UserID) == "" {
		fields["user_id"] = "User id is required"
	}
	switch {
	case (req.Latitude == nil) != (req.Longitude == nil):
		fields["latitude"] = "Latitude and longitude must be given together"
	case req.Latitude != nil:
		if *req.Latitude < -90 || *req.Latitude > 90 {
			fields["latitude"] = "Latitude must be between -90 and 90"
		}
		if *req.Longitude < -180 || *req.Longitude > 180 {
			fields["longitude"] = "Longitude must be between -180 and 180"
		}
	}
	if len(fields) > 0 {
		return &validate.Error{Fields: fields}
	}
	return nil
}

// Upload validates the request and stores it.
func (s *PhotoServiceImpl) Upload(ctx context.Context, caller uuid.UUID, req model.UploadRequest) (*model.Photo, error) {
	if caller == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	if err := checkUpload(req); err != nil {
		return nil, err
	}
	owner, err := uuid.FromString(strings.TrimSpace(req.UserID))
	if err != nil || owner != caller {
		return nil, errs.ErrForbidden
	}
	id, err := uuid.NewV4()
	if err != nil {
		return nil, err
	}
	p := &model.Photo{
		ID:        id,
		UserID:    caller,
		PhotoPath: req.PhotoPath,
		Latitude:  req.Latitude,
		Longitude: req.Longitude,
	}
	if err := s.repo.Create(ctx, p); err != nil {
		return nil, err
	}
	return p, nil
}

// List implements PhotoService. The limit is clamped to [1, MaxListLimit].
func (s *PhotoServiceImpl) List(ctx context.Context, caller uuid.UUID, limit int) ([]model.Photo, error) {
	if caller == uuid.Nil {
		return nil, errs.ErrUnauthorized
	}
	switch {
	case limit <= 0:
		limit = DefaultListLimit
	case limit > MaxListLimit:
		limit = MaxListLimit
	}
	return s.repo.ListByUser(ctx, caller, limit)
}
