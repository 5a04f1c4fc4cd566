package httpapi

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/and161185/geocam/internal/convert"
	"github.com/and161185/geocam/internal/errs"
	"github.com/and161185/geocam/internal/validate"
)

const maxRequestBody = 1 << 20

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, convert.ErrorBody{Error: msg})
}

// writeError maps domain errors to HTTP statuses; unknown errors are logged and hidden.
func writeError(w http.ResponseWriter, log *zap.Logger, err error) {
	var verr *validate.Error
	switch {
	case errors.As(err, &verr):
		writeJSON(w, http.StatusUnprocessableEntity, convert.ErrorBody{Error: "validation failed", Errors: verr.Fields})
	case errors.Is(err, errs.ErrUnauthorized):
		writeMessage(w, http.StatusUnauthorized, "unauthorized")
	case errors.Is(err, errs.ErrForbidden):
		writeMessage(w, http.StatusForbidden, "forbidden")
	case errors.Is(err, errs.ErrRateLimited):
		writeMessage(w, http.StatusTooManyRequests, "too many attempts, try again later")
	case errors.Is(err, errs.ErrAlreadyExists):
		writeMessage(w, http.StatusConflict, "already exists")
	case errors.Is(err, errs.ErrNotFound):
		writeMessage(w, http.StatusNotFound, "not found")
	default:
		log.Error("request failed", zap.Error(err))
		writeMessage(w, http.StatusInternalServerError, "internal")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxRequestBody)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	return true
}
