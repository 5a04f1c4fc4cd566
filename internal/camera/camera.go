// Package camera wraps camera hardware behind a single-shot capture device.
package camera

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/model"
)

// Sensor is the hardware driver.
type Sensor interface {
	// Open prepares the camera surface.
	Open(ctx context.Context) error
	// Shoot takes one picture and returns a local URI to it and its size in bytes.
	Shoot(ctx context.Context, facing model.Facing) (uri string, size int64, err error)
	// Remove deletes a picture previously returned by Shoot.
	Remove(uri string) error
	// Close releases the camera.
	Close() error
}

// PermissionRequester asks the user for camera access.
type PermissionRequester interface {
	RequestCamera(ctx context.Context) (granted bool, err error)
}

// StaticPermission answers every camera permission request with the same decision.
type StaticPermission bool

// RequestCamera implements PermissionRequester.
func (p StaticPermission) RequestCamera(context.Context) (bool, error) { return bool(p), nil }

// Device holds facing state and gates captures: one in flight, only while open.
type Device struct {
	sensor Sensor
	perm   PermissionRequester
	log    *zap.Logger
	now    func() time.Time

	mu     sync.Mutex
	facing model.Facing
	open   bool

	busy atomic.Bool
}

// NewDevice constructs a Device facing back. A nil logger disables logging.
func NewDevice(sensor Sensor, perm PermissionRequester, log *zap.Logger) *Device {
	if log == nil {
		log = zap.NewNop()
	}
	return &Device{sensor: sensor, perm: perm, log: log, now: time.Now, facing: model.FacingBack}
}

// Open requests camera permission and starts a camera session.
// A denied permission blocks capture until Open succeeds.
func (d *Device) Open(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.open {
		return nil
	}
	granted, err := d.perm.RequestCamera(ctx)
	if err != nil {
		return fmt.Errorf("camera permission: %w", err)
	}
	if !granted {
		return fmt.Errorf("camera: %w", errs.ErrPermissionDenied)
	}
	if err := d.sensor.Open(ctx); err != nil {
		return fmt.Errorf("open camera: %w", err)
	}
	d.open = true
	return nil
}

// Close ends the camera session.
func (d *Device) Close() error {
	d.mu.Lock()
	defer d.mu.Unlock()
	if !d.open {
		return nil
	}
	d.open = false
	return d.sensor.Close()
}

// Facing returns the current direction.
func (d *Device) Facing() model.Facing {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.facing
}

// Toggle flips the facing direction and returns the new one.
func (d *Device) Toggle() model.Facing {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facing = d.facing.Opposite()
	return d.facing
}

// SetFacing selects a direction explicitly.
func (d *Device) SetFacing(f model.Facing) error {
	if !f.Valid() {
		return fmt.Errorf("camera: unknown facing %q", f)
	}
	d.mu.Lock()
	defer d.mu.Unlock()
	d.facing = f
	return nil
}

// Capture takes a single picture.
func (d *Device) Capture(ctx context.Context) (model.CaptureResult, error) {
	if !d.busy.CompareAndSwap(false, true) {
		return model.CaptureResult{}, errs.ErrCaptureInProgress
	}
	defer d.busy.Store(false)

	d.mu.Lock()
	open, facing := d.open, d.facing
	d.mu.Unlock()
	if !open {
		return model.CaptureResult{}, errs.ErrNoCameraSession
	}

	start := d.now()
	uri, size, err := d.sensor.Shoot(ctx, facing)
	if err != nil {
		return model.CaptureResult{}, fmt.Errorf("%w: %w", errs.ErrCaptureFailed, err)
	}
	d.log.Debug("captured",
		zap.String("facing", string(facing)),
		zap.Int64("size", size),
		zap.Duration("dur", d.now().Sub(start)),
	)
	return model.CaptureResult{ImageURI: uri, Size: size, Facing: facing, TakenAt: start}, nil
}

// Discard deletes a captured image that will not be uploaded.
func (d *Device) Discard(res model.CaptureResult) error {
	if res.ImageURI == "" {
		return nil
	}
	return d.sensor.Remove(res.ImageURI)
}
