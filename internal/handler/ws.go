package handler

import (
	"log/slog"
	"net/http"

	ws "github.com/coder/websocket"

	"github.com/dukerupert/chorely/internal/auth"
	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/realtime"
	"github.com/dukerupert/chorely/internal/store"
)

type RealtimeHandler struct {
	gw             *store.Gateway
	originPatterns []string
	logger         *slog.Logger
}

func NewRealtimeHandler(gw *store.Gateway, originPatterns []string, logger *slog.Logger) *RealtimeHandler {
	return &RealtimeHandler{gw: gw, originPatterns: originPatterns, logger: logger}
}

// subscriptionPath resolves the requested collection for the caller. Children
// are narrowed to their own tasks and cannot watch notifications.
func subscriptionPath(id auth.Identity, collection, childID string) (store.Path, error) {
	c, ok := store.ParseCollection(collection)
	if !ok {
		return store.Path{}, invalid("unknown collection %q", collection)
	}
	p := store.Path{Collection: c, FamilyID: id.FamilyID}

	if id.Role == model.RoleChild {
		if c == store.Notifications {
			return store.Path{}, invalid("collection %q requires a parent account", collection)
		}
		if c == store.Tasks {
			childID = id.ChildID
		}
	}
	if c == store.Tasks {
		p.ChildID = childID
	} else if childID != "" {
		return store.Path{}, invalid("child_id only applies to tasks")
	}
	return p, nil
}

// Serve handles GET /ws?collection=...&child_id=... and streams full
// snapshots of one collection, starting with its current contents.
func (h *RealtimeHandler) Serve(w http.ResponseWriter, r *http.Request) {
	id, _ := auth.FromContext(r.Context())
	q := r.URL.Query()
	path, err := subscriptionPath(id, q.Get("collection"), q.Get("child_id"))
	if err != nil {
		respondError(w, r, h.logger, err)
		return
	}

	conn, err := ws.Accept(w, r, &ws.AcceptOptions{OriginPatterns: h.originPatterns})
	if err != nil {
		h.logger.Warn("websocket: accept", "error", err)
		return
	}
	defer conn.CloseNow()

	client := realtime.NewClient(conn, h.logger.With("path", path.String(), "account_id", id.AccountID))
	unsubscribe, err := h.gw.SubscribeToCollection(r.Context(), path, client.Deliver)
	if err != nil {
		h.logger.Error("websocket: subscribe", "path", path.String(), "error", err)
		conn.Close(ws.StatusInternalError, "subscribe failed")
		return
	}
	defer unsubscribe()

	client.Run(r.Context())
	conn.Close(ws.StatusNormalClosure, "")
}

