// Package respond writes JSON bodies and maps domain errors to HTTP status
// codes for the API handlers.
package respond

import (
	"errors"
	"log/slog"
	"net/http"

	json "github.com/goccy/go-json"

	"github.com/MrJamesThe3rd/tripwise/internal/auth"
	"github.com/MrJamesThe3rd/tripwise/internal/document"
	"github.com/MrJamesThe3rd/tripwise/internal/policy"
	"github.com/MrJamesThe3rd/tripwise/internal/validation"
	"github.com/MrJamesThe3rd/tripwise/internal/wizard"
)

func JSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(v); err != nil {
		slog.Error("failed to encode response", "error", err)
	}
}

type fieldError struct {
	Field   string            `json:"field"`
	Reason  validation.Reason `json:"reason"`
	Message string            `json:"message"`
}

type validationResponse struct {
	Errors []fieldError `json:"errors"`
}

// Error writes the status matching err. Validation failures get a JSON
// body listing every failing field.
func Error(w http.ResponseWriter, err error) {
	var verrs validation.Errors
	if errors.As(err, &verrs) {
		body := validationResponse{Errors: make([]fieldError, 0, len(verrs))}
		for _, fe := range verrs {
			body.Errors = append(body.Errors, fieldError{
				Field:   fe.Field,
				Reason:  fe.Reason,
				Message: validation.Message(fe.Reason),
			})
		}

		JSON(w, http.StatusUnprocessableEntity, body)

		return
	}

	switch {
	case errors.Is(err, policy.ErrNotFound), errors.Is(err, document.ErrNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, policy.ErrCancelled),
		errors.Is(err, wizard.ErrStepMismatch),
		errors.Is(err, wizard.ErrStepUnreachable),
		errors.Is(err, wizard.ErrNotFinalStep):
		http.Error(w, err.Error(), http.StatusConflict)
	case errors.Is(err, policy.ErrIncomplete):
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
	case errors.Is(err, wizard.ErrUnauthenticated),
		errors.Is(err, auth.ErrInvalidCredentials),
		errors.Is(err, auth.ErrInvalidToken):
		http.Error(w, err.Error(), http.StatusUnauthorized)
	default:
		slog.Error("request failed", "error", err)
		http.Error(w, "internal error", http.StatusInternalServerError)
	}
}
