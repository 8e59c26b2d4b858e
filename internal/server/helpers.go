package server

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/bgbg/asop/internal/asop"
	"github.com/bgbg/asop/internal/scaling"
	"github.com/bgbg/asop/internal/store"
	"github.com/bgbg/asop/internal/variable"
)

// maxBodyBytes bounds request bodies; learn batches are the largest payloads.
const maxBodyBytes = 32 << 20

var errNoStore = errors.New("server has no snapshot store")

// errorResponse is the body of every non-2xx JSON response.
type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("Failed to encode response", "error", err)
	}
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, errorResponse{Error: msg})
}

// decodeJSON reads a size-limited JSON body into v. Unknown fields are rejected.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) error {
	dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	dec.DisallowUnknownFields()
	if err := dec.Decode(v); err != nil {
		return fmt.Errorf("invalid JSON: %w", err)
	}
	return nil
}

// statusFor maps domain errors to HTTP status codes.
func statusFor(err error) int {
	var validation *store.ValidationError
	switch {
	case errors.Is(err, store.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, errNoStore):
		return http.StatusServiceUnavailable
	case errors.Is(err, asop.ErrSnapshotMismatch), errors.As(err, &validation):
		return http.StatusConflict
	case errors.Is(err, errBadSession),
		errors.Is(err, asop.ErrNonPositiveCount),
		errors.Is(err, asop.ErrNegativeCount),
		errors.Is(err, asop.ErrInvalidDimensions),
		errors.Is(err, asop.ErrLengthMismatch),
		errors.Is(err, asop.ErrDimensionMismatch),
		errors.Is(err, asop.ErrNonFiniteValue),
		errors.Is(err, asop.ErrInvalidScaling),
		errors.Is(err, asop.ErrInvalidDirection),
		errors.Is(err, scaling.ErrCalibration),
		errors.Is(err, scaling.ErrConstruction),
		errors.Is(err, variable.ErrLocationNotFound),
		errors.Is(err, variable.ErrNonFinite):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
