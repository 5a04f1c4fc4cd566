package service

import (
	"context"
	"errors"
	"testing"

	"github.com/gofrs/uuid/v5"
	"github.com/stretchr/testify/require"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/repository"
)

type fakePhotos struct {
	created   []model.Photo
	createErr error
	lastLimit int
}

var _ repository.PhotoRepository = (*fakePhotos)(nil)

func (f *fakePhotos) Create(_ context.Context, p *model.Photo) error {
	if f.createErr != nil {
		return f.createErr
	}
	f.created = append(f.created, *p)
	return nil
}

func (f *fakePhotos) ListByUser(_ context.Context, uid uuid.UUID, limit int) ([]model.Photo, error) {
	f.lastLimit = limit
	var out []model.Photo
	for _, p := range f.created {
		if p.UserID == uid {
			out = append(out, p)
		}
	}
	return out, nil
}

func f64(v float64) *float64 { return &v }

func TestPhotos_Upload(t *testing.T) {
	t.Parallel()
	repo := &fakePhotos{}
	s := NewPhotoService(repo)
	caller := uuid.Must(uuid.NewV4())
	ctx := context.Background()

	p, err := s.Upload(ctx, caller, model.UploadRequest{
		PhotoPath: "file:///c/1.jpg",
		Latitude:  f64(-23.5),
		Longitude: f64(-46.6),
		UserID:    caller.String(),
	})
	require.NoError(t, err)
	require.NotEqual(t, uuid.Nil, p.ID)
	require.Equal(t, caller, p.UserID)
	require.Len(t, repo.created, 1)

	_, err = s.Upload(ctx, caller, model.UploadRequest{PhotoPath: "p", UserID: caller.String()})
	require.NoError(t, err, "coordinates are optional")
}

func TestPhotos_Upload_Rejects(t *testing.T) {
	t.Parallel()
	caller := uuid.Must(uuid.NewV4())
	other := uuid.Must(uuid.NewV4())

	cases := []struct {
		name string
		req  model.UploadRequest
		want error
	}{
		{"other user", model.UploadRequest{PhotoPath: "p", UserID: other.String()}, errs.ErrForbidden},
		{"non-uuid user", model.UploadRequest{PhotoPath: "p", UserID: "42"}, errs.ErrForbidden},
		{"no path", model.UploadRequest{UserID: caller.String()}, errs.ErrValidation},
		{"no user", model.UploadRequest{PhotoPath: "p"}, errs.ErrValidation},
		{"half coordinates", model.UploadRequest{PhotoPath: "p", UserID: caller.String(), Latitude: f64(1)}, errs.ErrValidation},
		{"latitude range", model.UploadRequest{PhotoPath: "p", UserID: caller.String(), Latitude: f64(91), Longitude: f64(0)}, errs.ErrValidation},
		{"longitude range", model.UploadRequest{PhotoPath: "p", UserID: caller.String(), Latitude: f64(0), Longitude: f64(-181)}, errs.ErrValidation},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := &fakePhotos{}
			_, err := NewPhotoService(repo).Upload(context.Background(), caller, tc.req)
			require.ErrorIs(t, err, tc.want)
			require.Empty(t, repo.created)
		})
	}

	_, err := NewPhotoService(&fakePhotos{}).Upload(context.Background(), uuid.Nil, model.UploadRequest{})
	require.ErrorIs(t, err, errs.ErrUnauthorized)

	boom := errors.New("disk")
	_, err = NewPhotoService(&fakePhotos{createErr: boom}).Upload(context.Background(), caller,
		model.UploadRequest{PhotoPath: "p", UserID: caller.String()})
	require.ErrorIs(t, err, boom)
}

func TestPhotos_List_ClampsLimit(t *testing.T) {
	t.Parallel()
	repo := &fakePhotos{}
	s := NewPhotoService(repo)
	caller := uuid.Must(uuid.NewV4())

	for in, want := range map[int]int{0: DefaultListLimit, -3: DefaultListLimit, 7: 7, 1000: MaxListLimit} {
		_, err := s.List(context.Background(), caller, in)
		require.NoError(t, err)
		require.Equal(t, want, repo.lastLimit, in)
	}
	_, err := s.List(context.Background(), uuid.Nil, 1)
	require.ErrorIs(t, err, errs.ErrUnauthorized)
}
