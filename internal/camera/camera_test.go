package camera

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
)

type fakeSensor struct {
	mu      sync.Mutex
	openErr error
	shotErr error
	block   chan struct{}
	entered chan struct{}
	shots   []model.Facing
	removed []string
	closed  bool
}

var _ Sensor = (*fakeSensor)(nil)

func (f *fakeSensor) Open(context.Context) error { return f.openErr }
func (f *fakeSensor) Shoot(_ context.Context, facing model.Facing) (string, int64, error) {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.block != nil {
		<-f.block
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.shotErr != nil {
		return "", 0, f.shotErr
	}
	f.shots = append(f.shots, facing)
	return "file:///tmp/shot.jpg", 1024, nil
}
func (f *fakeSensor) Remove(uri string) error {
	f.removed = append(f.removed, uri)
	return nil
}
func (f *fakeSensor) Close() error {
	f.closed = true
	return nil
}

func TestDevice_CaptureRequiresOpenSession(t *testing.T) {
	t.Parallel()
	d := NewDevice(&fakeSensor{}, StaticPermission(true), zaptest.NewLogger(t))

	_, err := d.Capture(context.Background())
	require.ErrorIs(t, err, errs.ErrNoCameraSession)

	require.NoError(t, d.Open(context.Background()))
	res, err := d.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, "file:///tmp/shot.jpg", res.ImageURI)
	require.Equal(t, int64(1024), res.Size)
	require.Equal(t, model.FacingBack, res.Facing)
	require.False(t, res.TakenAt.IsZero())

	require.NoError(t, d.Close())
	_, err = d.Capture(context.Background())
	require.ErrorIs(t, err, errs.ErrNoCameraSession)
}

func TestDevice_PermissionDeniedBlocksOpen(t *testing.T) {
	t.Parallel()
	s := &fakeSensor{}
	d := NewDevice(s, StaticPermission(false), nil)

	require.ErrorIs(t, d.Open(context.Background()), errs.ErrPermissionDenied)
	_, err := d.Capture(context.Background())
	require.ErrorIs(t, err, errs.ErrNoCameraSession)
}

func TestDevice_SensorOpenError(t *testing.T) {
	t.Parallel()
	d := NewDevice(&fakeSensor{openErr: errors.New("busy")}, StaticPermission(true), nil)
	require.Error(t, d.Open(context.Background()))
}

func TestDevice_ToggleFacingIsInMemoryOnly(t *testing.T) {
	t.Parallel()
	s := &fakeSensor{}
	d := NewDevice(s, StaticPermission(true), nil)

	require.Equal(t, model.FacingBack, d.Facing())
	require.Equal(t, model.FacingFront, d.Toggle())
	require.Equal(t, model.FacingBack, d.Toggle())
	require.Empty(t, s.shots)

	require.NoError(t, d.SetFacing(model.FacingFront))
	require.Error(t, d.SetFacing("sideways"))

	require.NoError(t, d.Open(context.Background()))
	_, err := d.Capture(context.Background())
	require.NoError(t, err)
	require.Equal(t, []model.Facing{model.FacingFront}, s.shots)
}

func TestDevice_HardwareErrorIsCaptureFailure(t *testing.T) {
	t.Parallel()
	boom := errors.New("sensor fault")
	d := NewDevice(&fakeSensor{shotErr: boom}, StaticPermission(true), nil)
	require.NoError(t, d.Open(context.Background()))

	_, err := d.Capture(context.Background())
	require.ErrorIs(t, err, errs.ErrCaptureFailed)
	require.ErrorIs(t, err, boom)
}

func TestDevice_SingleCaptureInFlight(t *testing.T) {
	t.Parallel()
	s := &fakeSensor{block: make(chan struct{}), entered: make(chan struct{}, 1)}
	d := NewDevice(s, StaticPermission(true), nil)
	require.NoError(t, d.Open(context.Background()))

	done := make(chan error, 1)
	go func() {
		_, err := d.Capture(context.Background())
		done <- err
	}()
	<-s.entered

	_, err := d.Capture(context.Background())
	require.ErrorIs(t, err, errs.ErrCaptureInProgress)

	close(s.block)
	require.NoError(t, <-done)
}

func TestDevice_Discard(t *testing.T) {
	t.Parallel()
	s := &fakeSensor{}
	d := NewDevice(s, StaticPermission(true), nil)

	require.NoError(t, d.Discard(model.CaptureResult{}))
	require.Empty(t, s.removed)
	require.NoError(t, d.Discard(model.CaptureResult{ImageURI: "file:///x.jpg"}))
	require.Equal(t, []string{"file:///x.jpg"}, s.removed)
}
