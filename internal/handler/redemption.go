package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/redemption"
	"github.com/dukerupert/chorely/internal/store"
)

type RedemptionHandler struct {
	svc    *redemption.Service
	gw     *store.Gateway
	logger *slog.Logger
}

func NewRedemptionHandler(svc *redemption.Service, gw *store.Gateway, logger *slog.Logger) *RedemptionHandler {
	return &RedemptionHandler{svc: svc, gw: gw, logger: logger}
}

// List handles GET /api/redemptions?child_id=&active=.
func (h *RedemptionHandler) List(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	f := redemption.Filter{FamilyID: id.FamilyID, ChildID: r.URL.Query().Get("child_id")}
	if id.Role == model.RoleChild {
		f.ChildID = id.ChildID
	}
	active, err := parseBoolParam(r, "active")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	f.ActiveOnly = active != nil && *active

	list, err := h.svc.List(r.Context(), f)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, list)
}

// Use handles POST /api/redemptions/{id}/use.
func (h *RedemptionHandler) Use(w http.ResponseWriter, r *http.Request) {
	familyID := auth.FamilyID(r.Context())
	existing, err := h.gw.GetRedemption(r.Context(), familyID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if !auth.CanActFor(r.Context(), existing.ChildID) {
		respondError(w, r, h.logger, model.ErrRedemptionNotFound)
		return
	}

	rr, err := h.svc.MarkUsed(r.Context(), familyID, existing.ID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rr)
}

// Sweep handles POST /api/redemptions/sweep.
func (h *RedemptionHandler) Sweep(w http.ResponseWriter, r *http.Request) {
	n, err := h.svc.SweepExpired(r.Context(), nowUTC())
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]int{"expired": n})
}
