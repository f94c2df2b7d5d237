package handler

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/settings"
)

type SettingsHandler struct {
	store  settings.Store
	logger *slog.Logger
}

func NewSettingsHandler(st settings.Store, logger *slog.Logger) *SettingsHandler {
	return &SettingsHandler{store: st, logger: logger}
}

// Get handles GET /api/settings.
func (h *SettingsHandler) Get(w http.ResponseWriter, r *http.Request) {
	s, err := settings.Load(r.Context(), h.store, auth.AccountID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}

// Update handles PUT /api/settings with a partial object such as
// {"sound_effects": false}.
func (h *SettingsHandler) Update(w http.ResponseWriter, r *http.Request) {
	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		respondError(w, r, h.logger, invalid("read body: %v", err))
		return
	}
	u, err := settings.ParseUpdate(body)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	s, err := settings.Save(r.Context(), h.store, auth.AccountID(r.Context()), u)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, s)
}
