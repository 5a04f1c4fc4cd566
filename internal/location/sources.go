package location

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/and161185/geocam/internal/model"
)

// ErrNoFix indicates the source has no usable position.
var ErrNoFix = errors.New("no location fix")

// StaticPermission answers every permission request with the same decision.
type StaticPermission bool

// RequestForeground implements PermissionRequester.
func (p StaticPermission) RequestForeground(context.Context) (bool, error) { return bool(p), nil }

const (
	AlwaysGrant StaticPermission = true
	AlwaysDeny  StaticPermission = false
)

// StaticSource always reports the same position.
type StaticSource struct {
	Position model.GeoPosition
}

// CurrentPosition implements PositionSource.
func (s StaticSource) CurrentPosition(context.Context) (model.GeoPosition, error) {
	if err := checkRange(s.Position); err != nil {
		return model.GeoPosition{}, err
	}
	return s.Position, nil
}

// FileSource reads the latest fix from a JSON file maintained by a GPS daemon.
type FileSource struct {
	Path string
	// MaxAge rejects fixes older than this; zero accepts any age.
	MaxAge time.Duration
	now    func() time.Time
}

type fixFile struct {
	Latitude  *float64  `json:"latitude"`
	Longitude *float64  `json:"longitude"`
	Timestamp time.Time `json:"timestamp"`
}

// CurrentPosition implements PositionSource.
func (s FileSource) CurrentPosition(ctx context.Context) (model.GeoPosition, error) {
	if err := ctx.Err(); err != nil {
		return model.GeoPosition{}, err
	}
	b, err := os.ReadFile(s.Path)
	if err != nil {
		return model.GeoPosition{}, err
	}
	var f fixFile
	if err := json.Unmarshal(b, &f); err != nil {
		return model.GeoPosition{}, fmt.Errorf("decode fix: %w", err)
	}
	if f.Latitude == nil || f.Longitude == nil {
		return model.GeoPosition{}, ErrNoFix
	}
	if s.MaxAge > 0 && !f.Timestamp.IsZero() {
		now := time.Now
		if s.now != nil {
			now = s.now
		}
		if age := now().Sub(f.Timestamp); age > s.MaxAge {
			return model.GeoPosition{}, fmt.Errorf("%w: fix is %s old", ErrNoFix, age.Round(time.Second))
		}
	}
	pos := model.GeoPosition{Latitude: *f.Latitude, Longitude: *f.Longitude}
	if err := checkRange(pos); err != nil {
		return model.GeoPosition{}, err
	}
	return pos, nil
}

func checkRange(p model.GeoPosition) error {
	if math.IsNaN(p.Latitude) || math.IsNaN(p.Longitude) {
		return fmt.Errorf("%w: coordinates are not numbers", ErrNoFix)
	}
	if p.Latitude < -90 || p.Latitude > 90 || p.Longitude < -180 || p.Longitude > 180 {
		return fmt.Errorf("%w: coordinates out of range (%g, %g)", ErrNoFix, p.Latitude, p.Longitude)
	}
	return nil
}
