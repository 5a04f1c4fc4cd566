// Package convert maps domain models to and from the JSON wire format.
package convert

import (
	"time"

	"github.com/and161185/geocam/internal/model"
)

// LoginRequest is the body of POST /login.
type LoginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// LoginResponse is the body of a successful login.
type LoginResponse struct {
	Token     string `json:"token"`
	UserID    string `json:"user_id"`
	ExpiresAt string `json:"expires_at,omitempty"`
}

// RegisterRequest is the body of POST /register.
type RegisterRequest struct {
	Name                 string `json:"name"`
	Email                string `json:"email"`
	Password             string `json:"password"`
	PasswordConfirmation string `json:"password_confirmation"`
}

// Created is returned for newly created resources.
type Created struct {
	ID string `json:"id"`
}

// Photo is a stored photo on the wire.
type Photo struct {
	ID        string   `json:"id"`
	UserID    string   `json:"user_id"`
	PhotoPath string   `json:"photo_path"`
	Latitude  *float64 `json:"latitude"`
	Longitude *float64 `json:"longitude"`
	CreatedAt string   `json:"created_at"`
}

// PhotoList is the body of GET /photos.
type PhotoList struct {
	Photos []Photo `json:"photos"`
}

// ErrorBody is the body of every error response.
type ErrorBody struct {
	Error  string            `json:"error"`
	Errors map[string]string `json:"errors,omitempty"`
}

func ts(t time.Time) string {
	if t.IsZero() {
		return ""
	}
	return t.UTC().Format(time.RFC3339)
}

// ToLoginResponse builds the login reply.
func ToLoginResponse(tok model.Tokens, u model.User) LoginResponse {
	return LoginResponse{Token: tok.AccessToken, UserID: u.ID.String(), ExpiresAt: ts(tok.ExpiresAt)}
}

// ToPhoto converts a domain photo.
func ToPhoto(p model.Photo) Photo {
	return Photo{
		ID:        p.ID.String(),
		UserID:    p.UserID.String(),
		PhotoPath: p.PhotoPath,
		Latitude:  p.Latitude,
		Longitude: p.Longitude,
		CreatedAt: ts(p.CreatedAt),
	}
}

// ToPhotoList converts a page of photos; an empty page encodes as [].
func ToPhotoList(ps []model.Photo) PhotoList {
	out := PhotoList{Photos: make([]Photo, 0, len(ps))}
	for _, p := range ps {
		out.Photos = append(out.Photos, ToPhoto(p))
	}
	return out
}

// Position returns the photo's coordinates, or nil when it was not geotagged.
func (p Photo) Position() *model.GeoPosition {
	if p.Latitude == nil || p.Longitude == nil {
		return nil
	}
	return &model.GeoPosition{Latitude: *p.Latitude, Longitude: *p.Longitude}
}
