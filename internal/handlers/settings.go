package handlers

import (
	"net/http"

	"github.com/abrezinsky/quizroom/internal/services"
)

func (h *Handlers) handleGetSettings(w http.ResponseWriter, r *http.Request) {
	baseURL, err := h.Settings.GetBaseURL(r.Context())
	if err != nil {
		h.respondError(w, r, err)
		return
	}
	respondOK(w, SettingsResponse{BaseURL: baseURL})
}

func (h *Handlers) handleUpdateSettings(w http.ResponseWriter, r *http.Request) {
	var req SettingsUpdateRequest
	if err := decodeJSON(r, &req); err != nil {
		h.respondError(w, r, err)
		return
	}

	if err := h.Settings.UpdateSettings(r.Context(), services.Settings{BaseURL: req.BaseURL}); err != nil {
		h.respondError(w, r, err)
		return
	}
	h.handleGetSettings(w, r)
}
