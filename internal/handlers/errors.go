package handlers

import (
	"errors"
	"log/slog"
	"net/http"
	"strconv"

	"participa/internal/apperrors"
)

// ErrorResponse is the body of every non-2xx response
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Kind    string `json:"kind,omitempty"`
	Key     string `json:"key,omitempty"`
}

func respondWithError(w http.ResponseWriter, code int, message string) {
	respondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
	})
}

// respondWithServiceError maps a service error onto its HTTP status.
// A missing reference in a request body is the client's fault (400).
func respondWithServiceError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, err, http.StatusBadRequest)
}

// respondWithLookupError is respondWithServiceError for direct lookups,
// where the missing entity is the addressed resource (404).
func respondWithLookupError(w http.ResponseWriter, r *http.Request, err error) {
	writeServiceError(w, r, err, http.StatusNotFound)
}

func writeServiceError(w http.ResponseWriter, r *http.Request, err error, notFoundStatus int) {
	code := statusFor(err, notFoundStatus)

	var message string
	switch {
	case code >= 500 && code != http.StatusServiceUnavailable:
		slog.Error("Request failed", "method", r.Method, "path", r.URL.Path, "error", err)
		message = ErrMsgInternal
	case code == http.StatusServiceUnavailable:
		slog.Warn("Store unavailable", "method", r.Method, "path", r.URL.Path, "error", err)
		message = "Service temporarily unavailable, retry later"
	default:
		slog.Debug("Request rejected", "method", r.Method, "path", r.URL.Path, "status", code, "error", err)
		message = apperrors.PublicMessage(err)
	}

	kind := apperrors.KindName(err)
	if kind == "internal" {
		kind = ""
	}
	respondWithJSON(w, code, ErrorResponse{
		Error:   http.StatusText(code),
		Message: message,
		Kind:    kind,
		Key:     apperrors.Key(err),
	})
}

func statusFor(err error, notFoundStatus int) int {
	switch {
	case errors.Is(err, apperrors.ErrDuplicateVote):
		return http.StatusConflict
	case errors.Is(err, apperrors.ErrReferenceNotFound):
		return notFoundStatus
	case errors.Is(err, apperrors.ErrValidation), errors.Is(err, apperrors.ErrInvalidAmount):
		return http.StatusBadRequest
	case errors.Is(err, apperrors.ErrStoreUnavailable):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// pathID parses a positive numeric path value such as {id}
func pathID(r *http.Request, name string) (uint, bool) {
	id, err := strconv.ParseUint(r.PathValue(name), 10, 32)
	if err != nil || id == 0 {
		return 0, false
	}
	return uint(id), true
}

// queryID parses an optional positive numeric query parameter
func queryID(r *http.Request, name string) (*uint, bool) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return nil, true
	}
	id, err := strconv.ParseUint(raw, 10, 32)
	if err != nil || id == 0 {
		return nil, false
	}
	v := uint(id)
	return &v, true
}

func uintString(id uint) string {
	return strconv.FormatUint(uint64(id), 10)
}
