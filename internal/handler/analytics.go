package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/analytics"
	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/cache"
	"github.com/dukerupert/chorely/internal/model"
)

type AnalyticsHandler struct {
	cache  *cache.Registry
	logger *slog.Logger
}

func NewAnalyticsHandler(reg *cache.Registry, logger *slog.Logger) *AnalyticsHandler {
	return &AnalyticsHandler{cache: reg, logger: logger}
}

// Family handles GET /api/analytics.
func (h *AnalyticsHandler) Family(w http.ResponseWriter, r *http.Request) {
	fam, err := h.cache.Get(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Family(fam.Children(), fam.Tasks(), fam.Redemptions(), nowUTC()))
}

// Child handles GET /api/analytics/children/{id}.
func (h *AnalyticsHandler) Child(w http.ResponseWriter, r *http.Request) {
	childID := r.PathValue("id")
	if !auth.CanActFor(r.Context(), childID) {
		respondError(w, r, h.logger, model.ErrChildNotFound)
		return
	}

	fam, err := h.cache.Get(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	c, ok := fam.Child(childID)
	if !ok {
		respondError(w, r, h.logger, model.ErrChildNotFound)
		return
	}
	writeJSON(w, http.StatusOK, analytics.Child(c, fam.Tasks(), fam.Redemptions(), nowUTC()))
}
