package handler

import (
	"log/slog"
	"net/http"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/store"
)

type NotificationHandler struct {
	gw     *store.Gateway
	logger *slog.Logger
}

func NewNotificationHandler(gw *store.Gateway, logger *slog.Logger) *NotificationHandler {
	return &NotificationHandler{gw: gw, logger: logger}
}

// List handles GET /api/notifications?unread=true.
func (h *NotificationHandler) List(w http.ResponseWriter, r *http.Request) {
	list, err := h.gw.ListNotifications(r.Context(), auth.FamilyID(r.Context()))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	unread, err := parseBoolParam(r, "unread")
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	if unread != nil && *unread {
		filtered := list[:0]
		for _, n := range list {
			if !n.Read {
				filtered = append(filtered, n)
			}
		}
		list = filtered
	}
	writeJSON(w, http.StatusOK, list)
}

// MarkRead handles POST /api/notifications/{id}/read.
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	err := h.gw.WriteAtomic(r.Context(), store.MarkNotificationRead(auth.FamilyID(r.Context()), r.PathValue("id")))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
