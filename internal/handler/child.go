package handler

import (
	"log/slog"
	"net/http"
	"strings"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

const maxChildAge = 18

type ChildHandler struct {
	gw     *store.Gateway
	logger *slog.Logger
}

func NewChildHandler(gw *store.Gateway, logger *slog.Logger) *ChildHandler {
	return &ChildHandler{gw: gw, logger: logger}
}

type childRequest struct {
	Name     *string `json:"name"`
	Age      *int    `json:"age"`
	Avatar   *string `json:"avatar"`
	Email    string  `json:"email"`
	Password string  `json:"password"`
}

func (req *childRequest) apply(c *model.Child) error {
	if req.Name != nil {
		c.Name = strings.TrimSpace(*req.Name)
	}
	if req.Age != nil {
		c.Age = *req.Age
	}
	if req.Avatar != nil {
		c.Avatar = strings.TrimSpace(*req.Avatar)
	}
	if c.Name == "" {
		return invalid("name is required")
	}
	if c.Age < 0 || c.Age > maxChildAge {
		return invalid("age must be between 0 and %d", maxChildAge)
	}
	return nil
}

type childCreated struct {
	Child   model.Child    `json:"child"`
	Account *model.Account `json:"account,omitempty"`
}

// Create handles POST /api/children. Supplying email and password also
// creates a login for the child.
func (h *ChildHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	now := nowUTC()
	c := model.Child{
		ID:        uuid.NewString(),
		FamilyID:  auth.FamilyID(r.Context()),
		Level:     1,
		Version:   1,
		CreatedAt: now,
		UpdatedAt: now,
	}
	if err := req.apply(&c); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	ops := []store.WriteOp{store.InsertChild(c)}

	var acct *model.Account
	if req.Email != "" || req.Password != "" {
		email, err := normalizeEmail(req.Email)
		if err != nil {
			respondError(w, r, h.logger, err)
			return
		}
		hash, err := auth.HashPassword(req.Password)
		if err != nil {
			respondError(w, r, h.logger, invalid("%v", err))
			return
		}
		acct = &model.Account{
			ID:           uuid.NewString(),
			FamilyID:     c.FamilyID,
			Email:        email,
			Name:         c.Name,
			Role:         model.RoleChild,
			ChildID:      &c.ID,
			PasswordHash: hash,
			CreatedAt:    now,
			UpdatedAt:    now,
		}
		ops = append(ops, store.InsertAccount(*acct))
	}

	if err := h.gw.WriteAtomic(r.Context(), ops...); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusCreated, childCreated{Child: c, Account: acct})
}

// List handles GET /api/children.
func (h *ChildHandler) List(w http.ResponseWriter, r *http.Request) {
	children, err := h.gw.ListChildren(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, children)
}

// Get handles GET /api/children/{id}.
func (h *ChildHandler) Get(w http.ResponseWriter, r *http.Request) {
	c, err := h.gw.GetChild(r.Context(), auth.FamilyID(r.Context()), r.PathValue("id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	writeJSON(w, http.StatusOK, c)
}

// Update handles PUT /api/children/{id}. Only profile fields change; the
// ledger is owned by task completion and redemption.
func (h *ChildHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req childRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if req.Email != "" || req.Password != "" {
		respondError(w, r, h.logger, invalid("credentials cannot be changed here"))
		return
	}

	familyID := auth.FamilyID(r.Context())
	var updated model.Child
	err := h.gw.WriteAtomic(r.Context(), store.UpdateChild(familyID, r.PathValue("id"), func(c *model.Child) error {
		if err := req.apply(c); err != nil {
			return err
		}
		c.UpdatedAt = nowUTC()
		updated = *c
		return nil
	}))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	updated.Version++
	writeJSON(w, http.StatusOK, updated)
}

// Delete handles DELETE /api/children/{id}.
func (h *ChildHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if err := h.gw.WriteAtomic(r.Context(), store.DeleteChild(auth.FamilyID(r.Context()), id)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	h.logger.Info("child deleted", "child_id", id)
	w.WriteHeader(http.StatusNoContent)
}
