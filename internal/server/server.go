package server

import (
	"context"
	"database/sql"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/url"
	"time"

	"github.com/dukerupert/chorely/internal/cache"
	"github.com/dukerupert/chorely/internal/config"
	"github.com/dukerupert/chorely/internal/handler"
	"github.com/dukerupert/chorely/internal/jobs"
	"github.com/dukerupert/chorely/internal/ledger"
	"github.com/dukerupert/chorely/internal/middleware"
	"github.com/dukerupert/chorely/internal/push"
	"github.com/dukerupert/chorely/internal/realtime"
	"github.com/dukerupert/chorely/internal/redemption"
	"github.com/dukerupert/chorely/internal/store"
)

type Server struct {
	db            *sql.DB
	hub           *realtime.Hub
	gateway       *store.Gateway
	cache         *cache.Registry
	authH         *handler.AuthHandler
	childH        *handler.ChildHandler
	taskH         *handler.TaskHandler
	rewardH       *handler.RewardHandler
	redemptionH   *handler.RedemptionHandler
	notificationH *handler.NotificationHandler
	settingsH     *handler.SettingsHandler
	analyticsH    *handler.AnalyticsHandler
	pushH         *handler.PushHandler
	realtimeH     *handler.RealtimeHandler
	sessionStore  *store.SessionStore
	accountStore  *store.AccountStore
	rateLimiter   *middleware.RateLimiter
	loginLimit    int
	pushService   *push.Service
	scheduler     *jobs.Scheduler
	logger        *slog.Logger
}

func New(db *sql.DB, cfg config.Config, logger *slog.Logger) *Server {
	hub := realtime.NewHub(logger.With("component", "realtime"))
	gw := store.NewGateway(db, hub, logger.With("component", "gateway"))

	accountStore := store.NewAccountStore(db)
	sessionStore := store.NewSessionStore(db)
	settingsStore := store.NewSettingsStore(db)
	pushStore := store.NewPushStore(db)

	pushSvc := push.NewService(push.Config{
		VAPIDPublicKey:  cfg.VAPIDPublicKey,
		VAPIDPrivateKey: cfg.VAPIDPrivateKey,
		Subscriber:      cfg.VAPIDSubscriber,
	}, pushStore, settingsStore, logger.With("component", "push"))

	ledgerSvc := ledger.NewService(gw, logger.With("component", "ledger"))
	redemptionSvc := redemption.NewService(gw, pushSvc, logger.With("component", "redemption"))
	registry := cache.NewRegistry(gw, logger.With("component", "cache"))
	limiter := middleware.NewRateLimiter()

	return &Server{
		db:            db,
		hub:           hub,
		gateway:       gw,
		cache:         registry,
		authH:         handler.NewAuthHandler(gw, accountStore, sessionStore, cfg.SessionTTL, cfg.CookieSecure, logger.With("component", "auth")),
		childH:        handler.NewChildHandler(gw, logger.With("component", "child")),
		taskH:         handler.NewTaskHandler(gw, ledgerSvc, logger.With("component", "task")),
		rewardH:       handler.NewRewardHandler(gw, redemptionSvc, logger.With("component", "reward")),
		redemptionH:   handler.NewRedemptionHandler(redemptionSvc, gw, logger.With("component", "redemption")),
		notificationH: handler.NewNotificationHandler(gw, logger.With("component", "notification")),
		settingsH:     handler.NewSettingsHandler(settingsStore, logger.With("component", "settings")),
		analyticsH:    handler.NewAnalyticsHandler(registry, logger.With("component", "analytics")),
		pushH:         handler.NewPushHandler(pushStore, pushSvc, logger.With("component", "push_handler")),
		realtimeH:     handler.NewRealtimeHandler(gw, originPatterns(cfg.BaseURL), logger.With("component", "websocket")),
		sessionStore:  sessionStore,
		accountStore:  accountStore,
		rateLimiter:   limiter,
		loginLimit:    cfg.LoginRateLimit,
		pushService:   pushSvc,
		scheduler:     jobs.NewScheduler(redemptionSvc, sessionStore, limiter, cfg.SweepInterval, logger.With("component", "jobs")),
		logger:        logger,
	}
}

func originPatterns(baseURL string) []string {
	u, err := url.Parse(baseURL)
	if err != nil || u.Host == "" {
		return nil
	}
	return []string{u.Host}
}

// Start launches background maintenance.
func (s *Server) Start(ctx context.Context) {
	s.scheduler.Start(ctx)
}

// Close stops background work and drops cache subscriptions. It does not
// close the database.
func (s *Server) Close() {
	s.scheduler.Stop()
	s.cache.Close()
	s.pushService.Wait()
}

func (s *Server) Router() http.Handler {
	outerMux := http.NewServeMux()

	// Public routes
	outerMux.HandleFunc("POST /api/register", s.rateLimitedHandler(s.authH.Register))
	outerMux.HandleFunc("POST /api/login", s.rateLimitedHandler(s.authH.Login))
	outerMux.HandleFunc("GET /health", s.healthHandler)

	protectedMux := http.NewServeMux()
	s.registerProtectedRoutes(protectedMux)

	authMiddleware := middleware.RequireAuth(s.sessionStore, s.accountStore)
	outerMux.Handle("/", authMiddleware(protectedMux))

	return middleware.RequestLogger(s.logger.With("component", "http"))(outerMux)
}

func (s *Server) healthHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), 2*time.Second)
	defer cancel()

	w.Header().Set("Content-Type", "application/json")
	if err := s.db.PingContext(ctx); err != nil {
		s.logger.Error("health: database ping", "error", err)
		w.WriteHeader(http.StatusServiceUnavailable)
		json.NewEncoder(w).Encode(map[string]string{"status": "unavailable"})
		return
	}
	json.NewEncoder(w).Encode(map[string]any{"status": "ok", "subscribers": s.hub.SubscriberCount()})
}

func (s *Server) rateLimitedHandler(h http.HandlerFunc) http.HandlerFunc {
	keyFunc := func(r *http.Request) string {
		return r.URL.Path + "|" + middleware.RealIP(r)
	}
	rl := middleware.RateLimit(s.rateLimiter, keyFunc, s.loginLimit, time.Minute)
	return func(w http.ResponseWriter, r *http.Request) {
		rl(http.HandlerFunc(h)).ServeHTTP(w, r)
	}
}

func parentOnly(h http.HandlerFunc) http.Handler {
	return middleware.RequireParent(h)
}

func (s *Server) registerProtectedRoutes(mux *http.ServeMux) {
	mux.HandleFunc("POST /api/logout", s.authH.Logout)
	mux.HandleFunc("GET /api/me", s.authH.Me)

	// Children
	mux.HandleFunc("GET /api/children", s.childH.List)
	mux.Handle("POST /api/children", parentOnly(s.childH.Create))
	mux.HandleFunc("GET /api/children/{id}", s.childH.Get)
	mux.Handle("PUT /api/children/{id}", parentOnly(s.childH.Update))
	mux.Handle("DELETE /api/children/{id}", parentOnly(s.childH.Delete))

	// Tasks
	mux.HandleFunc("GET /api/tasks", s.taskH.List)
	mux.Handle("POST /api/tasks", parentOnly(s.taskH.Create))
	mux.HandleFunc("GET /api/tasks/{id}", s.taskH.Get)
	mux.Handle("PUT /api/tasks/{id}", parentOnly(s.taskH.Update))
	mux.Handle("DELETE /api/tasks/{id}", parentOnly(s.taskH.Delete))
	mux.HandleFunc("POST /api/tasks/{id}/completion", s.taskH.SetCompletion)

	// Rewards
	mux.HandleFunc("GET /api/rewards", s.rewardH.List)
	mux.Handle("POST /api/rewards", parentOnly(s.rewardH.Create))
	mux.Handle("PUT /api/rewards/{id}", parentOnly(s.rewardH.Update))
	mux.Handle("DELETE /api/rewards/{id}", parentOnly(s.rewardH.Delete))
	mux.HandleFunc("POST /api/rewards/{id}/redeem", s.rewardH.Redeem)

	// Redemptions
	mux.HandleFunc("GET /api/redemptions", s.redemptionH.List)
	mux.HandleFunc("POST /api/redemptions/{id}/use", s.redemptionH.Use)
	mux.Handle("POST /api/redemptions/sweep", parentOnly(s.redemptionH.Sweep))

	// Notifications
	mux.Handle("GET /api/notifications", parentOnly(s.notificationH.List))
	mux.Handle("POST /api/notifications/{id}/read", parentOnly(s.notificationH.MarkRead))

	// Settings
	mux.HandleFunc("GET /api/settings", s.settingsH.Get)
	mux.HandleFunc("PUT /api/settings", s.settingsH.Update)

	// Analytics
	mux.Handle("GET /api/analytics", parentOnly(s.analyticsH.Family))
	mux.HandleFunc("GET /api/analytics/children/{id}", s.analyticsH.Child)

	// Push
	mux.HandleFunc("GET /api/push/vapid-key", s.pushH.VAPIDKey)
	mux.Handle("POST /api/push/subscribe", parentOnly(s.pushH.Subscribe))
	mux.Handle("DELETE /api/push/subscribe", parentOnly(s.pushH.Unsubscribe))

	// WebSocket
	mux.HandleFunc("GET /ws", s.realtimeH.Serve)
}
