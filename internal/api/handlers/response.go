package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"github.com/zatekoja/patientflow/internal/domain/entities"
	"github.com/zatekoja/patientflow/internal/infrastructure/observability"
	apperrors "github.com/zatekoja/patientflow/pkg/errors"
)

func respondWithJSON(w http.ResponseWriter, statusCode int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(payload)
}

func respondWithError(w http.ResponseWriter, statusCode int, message string) {
	respondWithJSON(w, statusCode, map[string]string{
		"error": message,
	})
}

// statusFor maps an application error type to its HTTP status
func statusFor(t apperrors.ErrorType) int {
	switch t {
	case apperrors.ErrorTypeNotFound:
		return http.StatusNotFound
	case apperrors.ErrorTypeValidation:
		return http.StatusBadRequest
	case apperrors.ErrorTypeConflict:
		return http.StatusConflict
	case apperrors.ErrorTypeUnauthorized:
		return http.StatusUnauthorized
	case apperrors.ErrorTypeExternal:
		return http.StatusBadGateway
	case apperrors.ErrorTypeUnavailable:
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

// respondWithAppError writes err with the status of its type. Internal details are logged, not returned.
func respondWithAppError(w http.ResponseWriter, r *http.Request, err error) {
	var appErr *apperrors.AppError
	if errors.As(err, &appErr) && appErr.Type != apperrors.ErrorTypeInternal {
		respondWithError(w, statusFor(appErr.Type), appErr.Message)
		return
	}

	observability.LoggerFromContext(r.Context()).Error().Err(err).
		Str("method", r.Method).Str("path", r.URL.Path).Msg("Request failed")
	respondWithError(w, http.StatusInternalServerError, "internal server error")
}

// decodeJSON decodes the request body into v, rejecting malformed payloads
func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return apperrors.NewValidationError("invalid request payload")
	}
	return nil
}

// shiftParam reads the optional shift query parameter. An empty value means the configured default.
func shiftParam(r *http.Request) (entities.Shift, error) {
	shift := entities.Shift(r.URL.Query().Get("shift"))
	if shift != "" && !shift.Valid() {
		return "", apperrors.NewValidationError(fmt.Sprintf("invalid shift %q, expected first or second", shift))
	}
	return shift, nil
}
