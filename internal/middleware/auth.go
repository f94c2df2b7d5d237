package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/store"
)

const SessionCookieName = "chorely_session"

// SessionToken reads the session token from the cookie, falling back to an
// Authorization: Bearer header for non-browser clients.
func SessionToken(r *http.Request) string {
	if c, err := r.Cookie(SessionCookieName); err == nil && c.Value != "" {
		return c.Value
	}
	if h := r.Header.Get("Authorization"); strings.HasPrefix(h, "Bearer ") {
		return strings.TrimSpace(strings.TrimPrefix(h, "Bearer "))
	}
	return ""
}

// RequireAuth resolves the session and populates auth.Identity.
func RequireAuth(sessions *store.SessionStore, accounts *store.AccountStore) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			token := SessionToken(r)
			if token == "" {
				writeError(w, http.StatusUnauthorized, "authentication required")
				return
			}

			sess, err := sessions.GetByToken(r.Context(), token)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if sess == nil {
				writeError(w, http.StatusUnauthorized, "session expired")
				return
			}

			acct, err := accounts.GetByID(r.Context(), sess.AccountID)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "internal error")
				return
			}
			if acct == nil {
				writeError(w, http.StatusUnauthorized, "account not found")
				return
			}

			id := auth.Identity{
				AccountID: acct.ID,
				FamilyID:  acct.FamilyID,
				Role:      acct.Role,
				SessionID: sess.ID,
			}
			if acct.ChildID != nil {
				id.ChildID = *acct.ChildID
			}

			next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), id)))
		})
	}
}

// RequireParent rejects child accounts.
func RequireParent(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		id, ok := auth.FromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "authentication required")
			return
		}
		if id.Role != model.RoleParent {
			writeError(w, http.StatusForbidden, "parent account required")
			return
		}
		next.ServeHTTP(w, r)
	})
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
