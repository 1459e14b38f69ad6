package httpx

import (
	"errors"
	"net/http"

	"github.com/cardmint/cardmint/internal/shared"
)

// RespondError maps domain errors to HTTP responses using RFC7807. The
// detail string is the error message, which by construction never contains
// plaintext card numbers or key material.
func RespondError(w http.ResponseWriter, err error) {
	if _, ok := shared.AsDecryption(err); ok {
		Problem(w, http.StatusInternalServerError, "Decryption Failed", err.Error())
		return
	}
	switch {
	case errors.Is(err, shared.ErrNotFound):
		Problem(w, http.StatusNotFound, "Not Found", err.Error())
	case errors.Is(err, shared.ErrAccessDenied):
		Problem(w, http.StatusForbidden, "Access Denied", err.Error())
	case errors.Is(err, shared.ErrInsufficientBalance):
		Problem(w, http.StatusUnprocessableEntity, "Insufficient Balance", err.Error())
	case errors.Is(err, shared.ErrDuplicate):
		Problem(w, http.StatusConflict, "Duplicate", err.Error())
	case errors.Is(err, shared.ErrInvalidInput):
		Problem(w, http.StatusBadRequest, "Invalid Input", err.Error())
	case errors.Is(err, shared.ErrGenerationExhausted):
		Problem(w, http.StatusServiceUnavailable, "Generation Exhausted", err.Error())
	default:
		Problem(w, http.StatusInternalServerError, "Internal Error", "")
	}
}
