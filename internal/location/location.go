// Package location resolves a best-effort position for a capture.
package location

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/model"
)

// DeniedMessage is shown to the user when foreground location permission is refused.
const DeniedMessage = "Location permission is required to tag photos with your position; continuing without coordinates."

// PermissionRequester asks the user for foreground location access.
type PermissionRequester interface {
	RequestForeground(ctx context.Context) (granted bool, err error)
}

// PositionSource produces one current fix.
type PositionSource interface {
	CurrentPosition(ctx context.Context) (model.GeoPosition, error)
}

// Notifier delivers a synchronous user-facing message.
type Notifier interface {
	Notify(msg string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(msg string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(msg string) { f(msg) }

// Resolver acquires permission and a single fix. It never fails: absence is reported as nil.
type Resolver struct {
	perm   PermissionRequester
	src    PositionSource
	notify Notifier
	log    *zap.Logger
}

// NewResolver constructs a Resolver. A nil logger disables logging.
func NewResolver(perm PermissionRequester, src PositionSource, notify Notifier, log *zap.Logger) *Resolver {
	if log == nil {
		log = zap.NewNop()
	}
	return &Resolver{perm: perm, src: src, notify: notify, log: log}
}

// Resolve returns the current position, or nil when permission is denied or no fix is available.
// Only a denial is reported to the user; fix failures degrade silently.
func (r *Resolver) Resolve(ctx context.Context) *model.GeoPosition {
	granted, err := r.perm.RequestForeground(ctx)
	if err != nil {
		r.log.Warn("location permission request failed", zap.Error(err))
	}
	if err != nil || !granted {
		if r.notify != nil {
			r.notify.Notify(DeniedMessage)
		}
		return nil
	}

	start := time.Now()
	pos, err := r.src.CurrentPosition(ctx)
	if err == nil {
		err = checkRange(pos)
	}
	if err != nil {
		r.log.Warn("location fix unavailable", zap.Error(err), zap.Duration("dur", time.Since(start)))
		return nil
	}
	r.log.Debug("location fix", zap.Duration("dur", time.Since(start)))
	return &pos
}
