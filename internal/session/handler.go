// internal/session/handler.go
package session

import (
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	jsoniter "github.com/json-iterator/go"
	"github.com/rs/zerolog"

	"libracheckout/internal/circulation"
	"libracheckout/internal/modal"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

type Handler struct {
	manager *Manager
	logger  zerolog.Logger
}

func NewHandler(manager *Manager, logger zerolog.Logger) *Handler {
	return &Handler{manager: manager, logger: logger}
}

// Routes mounts the session endpoints on r.
func (h *Handler) Routes(r chi.Router) {
	r.Post("/checkout/sessions", h.HandleStartCheckout)
	r.Post("/checkout/notes", h.HandleStartNotesView)
	r.Route("/checkout/sessions/{id}", func(r chi.Router) {
		r.Get("/", h.HandleGet)
		r.Get("/events", h.HandleHistory)
		r.Post("/confirm", h.HandleEvent(modal.EventConfirm))
		r.Post("/cancel", h.HandleEvent(modal.EventCancel))
		r.Post("/notes-view", h.HandleEvent(modal.EventRequestNotesView))
	})
}

func (h *Handler) HandleStartCheckout(w http.ResponseWriter, r *http.Request) {
	var req struct {
		PatronBarcode    string `json:"patron_barcode"`
		ItemBarcode      string `json:"item_barcode"`
		OverridePasscode string `json:"override_passcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.manager.StartCheckout(r.Context(), circulation.CheckoutRequest{
		PatronBarcode:    req.PatronBarcode,
		ItemBarcode:      req.ItemBarcode,
		OverridePasscode: req.OverridePasscode,
	})
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) HandleStartNotesView(w http.ResponseWriter, r *http.Request) {
	var req struct {
		ItemBarcode string `json:"item_barcode"`
	}
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		h.writeError(w, http.StatusBadRequest, err)
		return
	}

	snap, err := h.manager.StartNotesView(r.Context(), req.ItemBarcode)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusCreated, snap)
}

func (h *Handler) HandleGet(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	snap, err := h.manager.Get(id)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, snap)
}

func (h *Handler) HandleHistory(w http.ResponseWriter, r *http.Request) {
	id, ok := h.sessionID(w, r)
	if !ok {
		return
	}
	events, err := h.manager.History(r.Context(), id)
	if err != nil {
		h.writeError(w, statusFor(err), err)
		return
	}
	h.writeJSON(w, http.StatusOK, events)
}

// HandleEvent returns a handler delivering kind to the session named in the path.
func (h *Handler) HandleEvent(kind modal.EventKind) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, ok := h.sessionID(w, r)
		if !ok {
			return
		}
		snap, err := h.manager.Apply(r.Context(), id, modal.Event{Kind: kind})
		if err != nil {
			h.writeError(w, statusFor(err), err)
			return
		}
		h.writeJSON(w, http.StatusOK, snap)
	}
}

func (h *Handler) sessionID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		h.writeError(w, http.StatusBadRequest, errors.New("invalid session id"))
		return uuid.Nil, false
	}
	return id, true
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, ErrSessionNotFound),
		errors.Is(err, circulation.ErrPatronNotFound),
		errors.Is(err, circulation.ErrItemNotFound):
		return http.StatusNotFound
	case errors.Is(err, circulation.ErrMissingBarcode),
		errors.Is(err, modal.ErrUnknownEvent):
		return http.StatusBadRequest
	case errors.Is(err, circulation.ErrPatronInactive),
		errors.Is(err, circulation.ErrPatronBlocked),
		errors.Is(err, circulation.ErrInvalidOverride):
		return http.StatusForbidden
	case errors.Is(err, circulation.ErrItemUnavailable),
		errors.Is(err, modal.ErrNotStarted),
		errors.Is(err, modal.ErrAlreadyStarted),
		errors.Is(err, modal.ErrFinished),
		errors.Is(err, modal.ErrCancelled),
		errors.Is(err, modal.ErrConfirmUnavailable):
		return http.StatusConflict
	case errors.Is(err, circulation.ErrRateLimited):
		return http.StatusTooManyRequests
	default:
		return http.StatusInternalServerError
	}
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.logger.Error().Err(err).Msg("failed to write response")
	}
}

func (h *Handler) writeError(w http.ResponseWriter, status int, err error) {
	msg := err.Error()
	if status == http.StatusInternalServerError {
		h.logger.Error().Err(err).Msg("request failed")
		msg = http.StatusText(status)
	}
	h.writeJSON(w, status, map[string]string{"error": msg})
}
