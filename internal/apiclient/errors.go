package apiclient

import (
	"encoding/json"
	"fmt"

	"github.com/and161185/geocam/internal/errs"
)

// Kind tags the stage at which a request failed.
type Kind string

const (
	KindEncode  Kind = "encode"  // request could not be built
	KindSession Kind = "session" // token could not be read
	KindNetwork Kind = "network" // transport failure, no usable response
	KindStatus  Kind = "status"  // server answered with a non-2xx status
)

// RequestError is the tagged failure returned by Send. It matches errs.ErrRequestFailed.
type RequestError struct {
	Kind   Kind
	Method string
	Path   string
	Status int
	Body   []byte
	Err    error
}

func (e *RequestError) Error() string {
	switch {
	case e.Kind == KindStatus:
		if msg := e.ServerMessage(); msg != "" {
			return fmt.Sprintf("%s %s: status %d: %s", e.Method, e.Path, e.Status, msg)
		}
		return fmt.Sprintf("%s %s: status %d", e.Method, e.Path, e.Status)
	case e.Err != nil:
		return fmt.Sprintf("%s %s: %s: %v", e.Method, e.Path, e.Kind, e.Err)
	default:
		return fmt.Sprintf("%s %s: %s", e.Method, e.Path, e.Kind)
	}
}

// Unwrap exposes both the sentinel and the cause.
func (e *RequestError) Unwrap() []error {
	if e.Err == nil {
		return []error{errs.ErrRequestFailed}
	}
	return []error{errs.ErrRequestFailed, e.Err}
}

// ServerMessage extracts {"error": "..."} from a JSON error body, if any.
func (e *RequestError) ServerMessage() string {
	var body struct {
		Error string `json:"error"`
	}
	if json.Unmarshal(e.Body, &body) != nil {
		return ""
	}
	return body.Error
}

// FieldErrors extracts {"errors": {field: msg}} from a validation error body, if any.
func (e *RequestError) FieldErrors() map[string]string {
	var body struct {
		Errors map[string]string `json:"errors"`
	}
	if json.Unmarshal(e.Body, &body) != nil {
		return nil
	}
	return body.Errors
}
