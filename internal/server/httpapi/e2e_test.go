package httpapi

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/geocam/internal/apiclient"
	"github.com/and161185/geocam/internal/auth"
	"github.com/and161185/geocam/internal/camera"
	"github.com/and161185/geocam/internal/convert"
	pkgcrypto "github.com/and161185/geocam/internal/crypto"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/limiter"
	"github.com/and161185/geocam/internal/location"
	"github.com/and161185/geocam/internal/model"
	"github.com/and161185/geocam/internal/pipeline"
	"github.com/and161185/geocam/internal/repository/memory"
	"github.com/and161185/geocam/internal/revoke"
	"github.com/and161185/geocam/internal/securestore"
	"github.com/and161185/geocam/internal/service"
)

func newBackend(t *testing.T) string {
	t.Helper()
	hasher := pkgcrypto.NewHasher(pkgcrypto.Params{Time: 1, Memory: 8, Threads: 1, KeyLen: 32})
	authSvc := service.NewAuthService(memory.NewUserRepo(), hasher, []byte("test-key"), time.Hour,
		limiter.NewMemory(limiter.DefaultPolicy), revoke.NewMemory())
	photoSvc := service.NewPhotoService(memory.NewPhotoRepo())

	srv := httptest.NewServer(New(authSvc, photoSvc, zaptest.NewLogger(t)).Router())
	t.Cleanup(srv.Close)
	return srv.URL
}

func TestEndToEnd_RegisterLoginCaptureListLogout(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := newBackend(t)
	log := zaptest.NewLogger(t)

	store := securestore.NewMemoryStore()
	reader := auth.NewReader(store)
	api, err := apiclient.New(base, apiclient.WithTokenSource(reader), apiclient.WithLogger(log))
	require.NoError(t, err)
	accounts := auth.NewService(store, api, log)

	require.NoError(t, accounts.Register(ctx, "Ann", "ann@test.com", "password1", "password1"))
	err = accounts.Register(ctx, "Ann", "ann@test.com", "password1", "password1")
	require.ErrorIs(t, err, errs.ErrRegistrationFailed)

	_, err = accounts.Login(ctx, "ann@test.com", "wrong-pass")
	require.ErrorIs(t, err, errs.ErrAuthenticationFailed)

	sess, err := accounts.Login(ctx, "ANN@test.com", "password1")
	require.NoError(t, err)
	require.NotEmpty(t, sess.Token)
	require.NotEmpty(t, sess.UserID)

	dir := t.TempDir()
	src := filepath.Join(dir, "src.jpg")
	require.NoError(t, os.WriteFile(src, []byte("jpeg"), 0o600))
	dev := camera.NewDevice(&camera.FileSensor{Source: src, Dir: filepath.Join(dir, "out")}, camera.StaticPermission(true), log)
	require.NoError(t, dev.Open(ctx))
	t.Cleanup(func() { _ = dev.Close() })

	loc := location.NewResolver(location.AlwaysGrant,
		location.StaticSource{Position: model.GeoPosition{Latitude: -23.5, Longitude: -46.6}}, nil, log)

	res, err := pipeline.New(loc, dev, reader, api, log).CaptureAndUpload(ctx)
	require.NoError(t, err)
	require.NotEmpty(t, res.PhotoID)

	resp, err := api.Send(ctx, http.MethodGet, "/photos?limit=10", nil)
	require.NoError(t, err)
	var list convert.PhotoList
	require.NoError(t, resp.DecodeJSON(&list))
	require.Len(t, list.Photos, 1)
	require.Equal(t, res.PhotoID, list.Photos[0].ID)
	require.Equal(t, sess.UserID, list.Photos[0].UserID)
	require.Equal(t, &model.GeoPosition{Latitude: -23.5, Longitude: -46.6}, list.Photos[0].Position())

	require.NoError(t, accounts.Logout(ctx))
	cur, err := reader.CurrentSession(ctx)
	require.NoError(t, err)
	require.Nil(t, cur)

	// the old token is revoked server-side
	require.NoError(t, store.SaveAll(ctx, map[string]string{model.KeyToken: sess.Token, model.KeyUserID: sess.UserID}))
	_, err = api.Send(ctx, http.MethodGet, "/photos", nil)
	var rerr *apiclient.RequestError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, http.StatusUnauthorized, rerr.Status)
}

func TestEndToEnd_UploadForAnotherUserIsForbidden(t *testing.T) {
	t.Parallel()
	ctx := context.Background()
	base := newBackend(t)
	log := zaptest.NewLogger(t)

	store := securestore.NewMemoryStore()
	reader := auth.NewReader(store)
	api, err := apiclient.New(base, apiclient.WithTokenSource(reader))
	require.NoError(t, err)
	accounts := auth.NewService(store, api, log)
	require.NoError(t, accounts.Register(ctx, "Bob", "bob@test.com", "password1", "password1"))
	_, err = accounts.Login(ctx, "bob@test.com", "password1")
	require.NoError(t, err)

	body := model.UploadRequest{PhotoPath: "file:///x.jpg", UserID: "00000000-0000-4000-8000-000000000000"}
	_, err = api.Send(ctx, http.MethodPost, "/photos", body)
	var rerr *apiclient.RequestError
	require.True(t, errors.As(err, &rerr))
	require.Equal(t, http.StatusForbidden, rerr.Status)
}
