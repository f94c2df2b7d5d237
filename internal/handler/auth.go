package handler

import (
	"log/slog"
	"net/http"
	"net/mail"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

type AuthHandler struct {
	gw           *store.Gateway
	accounts     *store.AccountStore
	sessions     *store.SessionStore
	sessionTTL   time.Duration
	secureCookie bool
	logger       *slog.Logger
}

func NewAuthHandler(gw *store.Gateway, as *store.AccountStore, ss *store.SessionStore, sessionTTL time.Duration, secureCookie bool, logger *slog.Logger) *AuthHandler {
	return &AuthHandler{
		gw:           gw,
		accounts:     as,
		sessions:     ss,
		sessionTTL:   sessionTTL,
		secureCookie: secureCookie,
		logger:       logger,
	}
}

type registerRequest struct {
	FamilyName string `json:"family_name"`
	Name       string `json:"name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
}

type sessionResponse struct {
	Token     string        `json:"token"`
	ExpiresAt time.Time     `json:"expires_at"`
	Account   model.Account `json:"account"`
}

func normalizeEmail(s string) (string, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	addr, err := mail.ParseAddress(s)
	if err != nil || addr.Address != s {
		return "", invalid("a valid email is required")
	}
	return s, nil
}

// Register handles POST /api/register: a new family with its first parent.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	req.FamilyName = strings.TrimSpace(req.FamilyName)
	req.Name = strings.TrimSpace(req.Name)
	if req.FamilyName == "" || req.Name == "" {
		respondError(w, r, h.logger, invalid("family_name and name are required"))
		return
	}
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

	now := nowUTC()
	fam := model.Family{ID: uuid.NewString(), Name: req.FamilyName, CreatedAt: now, UpdatedAt: now}
	acct := model.Account{
		ID:           uuid.NewString(),
		FamilyID:     fam.ID,
		Email:        email,
		Name:         req.Name,
		Role:         model.RoleParent,
		PasswordHash: hash,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if err := h.gw.WriteAtomic(r.Context(), store.InsertFamily(fam), store.InsertAccount(acct)); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	h.logger.Info("family registered", "family_id", fam.ID, "account_id", acct.ID)
	h.startSession(w, r, acct, http.StatusCreated)
}

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

// Login handles POST /api/login for parents and children alike.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeJSON(w, r, &req); err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	acct, err := h.accounts.GetByEmail(r.Context(), strings.TrimSpace(req.Email))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if acct == nil {
		respondError(w, r, h.logger, auth.ErrInvalidCredentials)
		return
	}
	if err := auth.CheckPassword(acct.PasswordHash, req.Password); err != nil {
		h.logger.Warn("failed login", "account_id", acct.ID, "remote", middleware.RealIP(r))
		respondError(w, r, h.logger, err)
		return
	}

	h.startSession(w, r, *acct, http.StatusOK)
}

func (h *AuthHandler) startSession(w http.ResponseWriter, r *http.Request, acct model.Account, status int) {
	sess, err := h.sessions.Create(r.Context(), acct.ID, h.sessionTTL)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    sess.Token,
		Path:     "/",
		Expires:  sess.ExpiresAt,
		HttpOnly: true,
		Secure:   h.secureCookie,
		SameSite: http.SameSiteLaxMode,
	})
	writeJSON(w, status, sessionResponse{Token: sess.Token, ExpiresAt: sess.ExpiresAt, Account: acct})
}

// Logout handles POST /api/logout.
func (h *AuthHandler) Logout(w http.ResponseWriter, r *http.Request) {
	if id, ok := auth.FromContext(r.Context()); ok {
		if err := h.sessions.Delete(r.Context(), id.SessionID); err != nil {
			h.logger.Warn("delete session", "error", err)
		}
	}

	http.SetCookie(w, &http.Cookie{
		Name:     middleware.SessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   h.secureCookie,
	})
	w.WriteHeader(http.StatusNoContent)
}

type meResponse struct {
	Account model.Account `json:"account"`
	Family  model.Family  `json:"family"`
}

// Me handles GET /api/me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	acct, err := h.accounts.GetByID(ctx, auth.AccountID(ctx))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if acct == nil {
		writeError(w, http.StatusUnauthorized, "account not found")
		return
	}
	fam, err := h.accounts.GetFamily(ctx, acct.FamilyID)
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if fam == nil {
		respondError(w, r, h.logger, model.ErrFamilyNotFound)
		return
	}
	writeJSON(w, http.StatusOK, meResponse{Account: *acct, Family: *fam})
}
