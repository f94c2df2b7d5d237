package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/redemption"
	"github.com/dukerupert/chorely/internal/store"
)

type RewardHandler struct {
	gw          *store.Gateway
	redemptions *redemption.Service
	logger      *slog.Logger
}

func NewRewardHandler(gw *store.Gateway, rs *redemption.Service, logger *slog.Logger) *RewardHandler {
	return &RewardHandler{gw: gw, redemptions: rs, logger: logger}
}

type rewardRequest struct {
	Title       *string               `json:"title"`
	Description *string               `json:"description"`
	PointsCost  *int                  `json:"points_cost"`
	Category    *model.RewardCategory `json:"category"`
	Available   *bool                 `json:"available"`
}

func (req *rewardRequest) apply(rw *model.Reward) error {
	if req.Title != nil {
		rw.Title = strings.TrimSpace(*req.Title)
	}
	if req.Description != nil {
		rw.Description = strings.TrimSpace(*req.Description)
	}
	if req.PointsCost != nil {
		rw.PointsCost = *req.PointsCost
	}
	if req.Category != nil {
		rw.Category = *req.Category
	}
	if req.Available != nil {
		rw.Available = *req.Available
	}

	if rw.Title == "" {
		return invalid("title is required")
	}
	if rw.PointsCost <= 0 {
		return invalid("points_cost must be positive")
	}
	if !rw.Category.Valid() {
		return invalid("unknown category %q", rw.Category)
	}
	return nil
}

// Create handles POST /api/rewards.
func (h *RewardHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	now := nowUTC()
	rw := model.Reward{
		ID:        uuid.NewString(),
		FamilyID:  auth.FamilyID(r.Context()),
		Category:  model.RewardTreats,
		Available: true,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := req.apply(&rw); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if err := h.gw.WriteAtomic(r.Context(), store.InsertReward(rw)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rw)
}

// List handles GET /api/rewards. Children see only available rewards.
func (h *RewardHandler) List(w http.ResponseWriter, r *http.Request) {
	availableOnly := !auth.IsParent(r.Context()) || r.URL.Query().Get("available") == "true"
	rewards, err := h.gw.ListRewards(r.Context(), auth.FamilyID(r.Context()), availableOnly)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, rewards)
}

// Update handles PUT /api/rewards/{id}. Past redemptions keep their snapshot.
func (h *RewardHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req rewardRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	var updated model.Reward
	err := h.gw.WriteAtomic(r.Context(), store.UpdateReward(auth.FamilyID(r.Context()), r.PathValue("id"), func(rw *model.Reward) error {
		if err := req.apply(rw); err != nil {
			return err
		}
		rw.UpdatedAt = nowUTC()
		updated = *rw
		return nil
	}))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/rewards/{id}.
func (h *RewardHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.gw.WriteAtomic(r.Context(), store.DeleteReward(auth.FamilyID(r.Context()), r.PathValue("id"))); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

type redeemRequest struct {
	ChildID string `json:"child_id"`
}

// Redeem handles POST /api/rewards/{id}/redeem. A child redeems for
// themself; a parent names the child.
func (h *RewardHandler) Redeem(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())

	var req redeemRequest
	if r.ContentLength != 0 {
		if err := decodeJSON(w, r, &req); err != nil {
			respondError(w, r, h.logger, err)
			return
		}
	}
	childID := req.ChildID
	if id.Role == model.RoleChild {
		if childID != "" && childID != id.ChildID {
			forbidden(w)
			return
		}
		childID = id.ChildID
	}
	if childID == "" {
		respondError(w, r, h.logger, invalid("child_id is required"))
		return
	}

	rr, err := h.redemptions.Redeem(r.Context(), id.FamilyID, childID, r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, rr)
}
