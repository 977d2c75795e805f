package api

import (
	"errors"
	"net/http"

	"github.com/kkalbot/kkalbot/internal/ledger"
)

type AppError struct {
	Code    int    `json:"-"`
	Message string `json:"error"`
}

func (e *AppError) Error() string {
	return e.Message
}

var (
	ErrBadRequest     = &AppError{Code: http.StatusBadRequest, Message: "bad request"}
	ErrNotFound       = &AppError{Code: http.StatusNotFound, Message: "not found"}
	ErrInternalServer = &AppError{Code: http.StatusInternalServerError, Message: "internal server error"}
)

func NewValidationError(msg string) *AppError {
	return &AppError{Code: http.StatusBadRequest, Message: msg}
}

// HandleError maps ledger domain errors and AppErrors to HTTP responses.
func HandleError(w http.ResponseWriter, err error) {
	var appErr *AppError
	if errors.As(err, &appErr) {
		JSONErrorMessage(w, appErr.Code, appErr.Message)
		return
	}
	switch {
	case errors.Is(err, ledger.ErrUnknownUser):
		JSONErrorMessage(w, http.StatusNotFound, "unknown ledger key")
	case errors.Is(err, ledger.ErrInvalidLimit):
		JSONErrorMessage(w, http.StatusBadRequest, "limit must be positive")
	case errors.Is(err, ledger.ErrAmountOutOfRange):
		JSONErrorMessage(w, http.StatusBadRequest, "amount out of range")
	case errors.Is(err, ledger.ErrStorageUnavailable):
		JSONErrorMessage(w, http.StatusServiceUnavailable, "storage unavailable")
	default:
		JSONErrorMessage(w, http.StatusInternalServerError, "internal server error")
	}
}
