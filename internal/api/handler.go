package api

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/go-playground/validator/v10"

	"github.com/kkalbot/kkalbot/internal/ledger"
)

// Handler exposes the ledger engine to operators over HTTP.
type Handler struct {
	engine   *ledger.Engine
	validate *validator.Validate
}

func NewHandler(engine *ledger.Engine) *Handler {
	return &Handler{
		engine:   engine,
		validate: validator.New(),
	}
}

type SetLimitRequest struct {
	Limit int `json:"limit" validate:"required,gt=0"`
}

// GetStatus returns the key's current totals.
func (h *Handler) GetStatus(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	status, err := h.engine.GetStatus(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSON(w, http.StatusOK, status)
}

// SetLimit sets the key's daily limit, creating the record if absent.
func (h *Handler) SetLimit(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	var req SetLimitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		HandleError(w, ErrBadRequest)
		return
	}
	if err := h.validate.Struct(req); err != nil {
		HandleError(w, NewValidationError(err.Error()))
		return
	}

	status, err := h.engine.SetLimit(r.Context(), key, req.Limit)
	if err != nil {
		slog.Error("setting limit", "key", key, "error", err)
		HandleError(w, err)
		return
	}
	JSON(w, http.StatusOK, status)
}

// ResetToday zeroes the key's usage immediately.
func (h *Handler) ResetToday(w http.ResponseWriter, r *http.Request) {
	key := chi.URLParam(r, "key")
	if key == "" {
		HandleError(w, ErrBadRequest)
		return
	}

	status, err := h.engine.ResetToday(r.Context(), key)
	if err != nil {
		HandleError(w, err)
		return
	}
	JSON(w, http.StatusOK, status)
}
