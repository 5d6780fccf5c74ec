package httpapi

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/dmitrijs2005/appli/internal/common"
	"github.com/dmitrijs2005/appli/internal/logging"
)

const maxBodyBytes = 1 << 20

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if v != nil {
		_ = json.NewEncoder(w).Encode(v)
	}
}

// statusFor maps service errors to an HTTP status and the message shown to
// the client. Unknown errors become a 500 with a generic message.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, common.ErrUnauthenticated):
		return http.StatusUnauthorized, common.ErrUnauthenticated.Error()
	case errors.Is(err, common.ErrInvalidCredentials):
		return http.StatusUnauthorized, common.ErrInvalidCredentials.Error()
	case errors.Is(err, common.ErrForbidden):
		return http.StatusForbidden, common.ErrForbidden.Error()
	case errors.Is(err, common.ErrInvalidInput), errors.Is(err, common.ErrInvalidStatus):
		return http.StatusBadRequest, err.Error()
	case errors.Is(err, common.ErrorNotFound):
		return http.StatusNotFound, common.ErrorNotFound.Error()
	case errors.Is(err, common.ErrorAlreadyExists):
		return http.StatusConflict, common.ErrorAlreadyExists.Error()
	case errors.Is(err, common.ErrorNotConfigured):
		return http.StatusNotImplemented, common.ErrorNotConfigured.Error()
	default:
		return http.StatusInternalServerError, common.ErrorInternal.Error()
	}
}

// writeError writes the JSON error body for err. Internal errors are logged
// with their details; the client only sees "internal error".
func writeError(ctx context.Context, w http.ResponseWriter, logger logging.Logger, err error) {
	status, msg := statusFor(err)
	if status == http.StatusInternalServerError {
		logging.LogError(ctx, logger, "request failed", err)
	}
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a JSON request body into dst. Malformed bodies are
// reported as common.ErrInvalidInput.
func decodeJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return fmt.Errorf("%w: malformed JSON body", common.ErrInvalidInput)
	}
	return nil
}
