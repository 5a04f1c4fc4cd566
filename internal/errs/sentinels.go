// Package errs contains sentinel errors used across layers for stable error mapping.
package errs

import "errors"

// Client-side sentinels. Each one is recoverable at the presentation layer.
var (
	// ErrValidation indicates a client-side field check failed; nothing was sent.
	ErrValidation = errors.New("validation failed")

	// ErrAuthenticationFailed indicates the backend rejected the login or it could not complete.
	ErrAuthenticationFailed = errors.New("authentication failed")

	// ErrRegistrationFailed indicates the backend rejected the registration or it could not complete.
	ErrRegistrationFailed = errors.New("registration failed")

	// ErrAuthenticationRequired indicates a protected operation was attempted without a session.
	ErrAuthenticationRequired = errors.New("authentication required")

	// ErrPermissionDenied indicates the user refused a device permission.
	ErrPermissionDenied = errors.New("permission denied")

	// ErrNoCameraSession indicates capture was requested before the camera was opened.
	ErrNoCameraSession = errors.New("no active camera session")

	// ErrCaptureInProgress indicates a second capture was requested while one is running.
	ErrCaptureInProgress = errors.New("capture already in progress")

	// ErrCaptureFailed indicates the camera could not produce an image.
	ErrCaptureFailed = errors.New("capture failed")

	// ErrUploadFailed indicates the photo submission failed on the network or server.
	ErrUploadFailed = errors.New("upload failed")

	// ErrUploadInProgress indicates a capture-and-upload run is already active.
	ErrUploadInProgress = errors.New("upload already in progress")

	// ErrRequestFailed indicates an API request failed in transport or with a non-2xx status.
	ErrRequestFailed = errors.New("request failed")
)

// Server-side sentinels across repo/service layers.
var (
	// ErrNotFound indicates the requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrUnauthorized indicates failed authentication/authorization.
	ErrUnauthorized = errors.New("unauthorized")

	// ErrForbidden indicates an authenticated caller acting on someone else's data.
	ErrForbidden = errors.New("forbidden")

	// ErrRateLimited indicates temporary login lock due to rate limiting.
	ErrRateLimited = errors.New("rate limited")

	// ErrAlreadyExists indicates a unique constraint violation (e.g., email taken).
	ErrAlreadyExists = errors.New("already exists")
)
