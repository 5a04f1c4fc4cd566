// Package model defines domain entities shared by the client, services and repositories.
package model

import (
	"time"

	"github.com/gofrs/uuid/v5"
)

// Store keys holding the persisted session.
const (
	KeyToken  = "token"
	KeyUserID = "user_id"
)

// Session is the authenticated identity persisted on the device.
// A Session is either fully populated or absent (nil); it is never partial.
type Session struct {
	Token  string
	UserID string
}

// GeoPosition is a single location fix. Absent positions are represented by nil.
type GeoPosition struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Facing is the camera direction.
type Facing string

const (
	FacingBack  Facing = "back"
	FacingFront Facing = "front"
)

// Opposite returns the other facing direction.
func (f Facing) Opposite() Facing {
	if f == FacingFront {
		return FacingBack
	}
	return FacingFront
}

// Valid reports whether f is a known direction.
func (f Facing) Valid() bool { return f == FacingBack || f == FacingFront }

// CaptureResult is the handle of one captured image, consumed by the upload.
type CaptureResult struct {
	ImageURI string
	Size     int64
	Facing   Facing
	TakenAt  time.Time
}

// UploadRequest is the body of POST /photos. Absent coordinates encode as null.
type UploadRequest struct {
	PhotoPath string   `json:"photo_path"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	UserID    string   `json:"user_id"`
}

// NewUploadRequest composes a request from fully resolved inputs.
func NewUploadRequest(c CaptureResult, pos *GeoPosition, s Session) UploadRequest {
	req := UploadRequest{PhotoPath: c.ImageURI, UserID: s.UserID}
	if pos != nil {
		lat, lon := pos.Latitude, pos.Longitude
		req.Latitude, req.Longitude = &lat, &lon
	}
	return req
}

// Tokens collects an issued access token.
type Tokens struct {
	AccessToken string
	ExpiresAt   time.Time // access token expiry (for diagnostics)
}

// User represents an account stored on the server. Passwords are never stored in plaintext.
type User struct {
	ID        uuid.UUID // PK
	Name      string
	Email     string // unique, lower-cased
	PwdHash   []byte // Argon2id(password, Salt)
	Salt      []byte // per-user salt
	CreatedAt time.Time
}

// Photo is an uploaded photo record.
type Photo struct {
	ID        uuid.UUID
	UserID    uuid.UUID
	PhotoPath string
	Latitude  *float64
	Longitude *float64
	CreatedAt time.Time
}
