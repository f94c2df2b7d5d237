// Package push delivers Web Push notifications to parent devices.
package push

import (
	"context"
	"crypto/ecdsa"
	"crypto/elliptic"
	"crypto/rand"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sync"
	"time"

	webpush "github.com/SherClockHolmes/webpush-go"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/settings"
)

// ErrExpired is returned when the push service reports the subscription gone.
var ErrExpired = errors.New("push subscription expired")

const sendTimeout = 10 * time.Second

type Payload struct {
	Title string `json:"title"`
	Body  string `json:"body"`
	URL   string `json:"url,omitempty"`
	Tag   string `json:"tag,omitempty"`
}

type Config struct {
	VAPIDPublicKey  string
	VAPIDPrivateKey string
	Subscriber      string
}

func (c Config) Enabled() bool {
	return c.VAPIDPublicKey != "" && c.VAPIDPrivateKey != ""
}

// Subscriptions is the storage the service needs.
type Subscriptions interface {
	ListParentSubscriptions(ctx context.Context, familyID string) ([]model.PushSubscription, error)
	DeleteByEndpoint(ctx context.Context, endpoint string) error
}

type Service struct {
	cfg    Config
	subs   Subscriptions
	prefs  settings.Store
	client webpush.HTTPClient
	logger *slog.Logger
	wg     sync.WaitGroup
}

func NewService(cfg Config, subs Subscriptions, prefs settings.Store, logger *slog.Logger) *Service {
	return &Service{
		cfg:    cfg,
		subs:   subs,
		prefs:  prefs,
		client: &http.Client{Timeout: sendTimeout},
		logger: logger,
	}
}

func (s *Service) VAPIDPublicKey() string {
	return s.cfg.VAPIDPublicKey
}

// Send delivers one payload to one subscription.
func (s *Service) Send(ctx context.Context, sub model.PushSubscription, payload Payload) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("marshal payload: %w", err)
	}

	resp, err := webpush.SendNotificationWithContext(ctx, data, &webpush.Subscription{
		Endpoint: sub.Endpoint,
		Keys: webpush.Keys{
			P256dh: sub.P256dhKey,
			Auth:   sub.AuthKey,
		},
	}, &webpush.Options{
		HTTPClient:      s.client,
		VAPIDPublicKey:  s.cfg.VAPIDPublicKey,
		VAPIDPrivateKey: s.cfg.VAPIDPrivateKey,
		Subscriber:      s.cfg.Subscriber,
		TTL:             86400,
		Urgency:         webpush.UrgencyNormal,
	})
	if err != nil {
		return fmt.Errorf("send push: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusGone || resp.StatusCode == http.StatusNotFound {
		return ErrExpired
	}
	if resp.StatusCode >= 400 {
		return fmt.Errorf("push service returned %d", resp.StatusCode)
	}
	return nil
}

// NotifyRedemption pushes a redemption alert to every parent device whose
// account has notifications enabled. Delivery runs in the background; Wait
// blocks until it finishes.
func (s *Service) NotifyRedemption(ctx context.Context, rr model.RedeemedReward, childName string) {
	if !s.cfg.Enabled() {
		return
	}
	payload := Payload{
		Title: "Reward redeemed",
		Body:  fmt.Sprintf("%s redeemed %s for %d points", childName, rr.RewardTitle, rr.PointsCost),
		URL:   "/rewards",
		Tag:   "redemption-" + rr.ID,
	}

	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		ctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), sendTimeout)
		defer cancel()
		s.broadcast(ctx, rr.FamilyID, payload)
	}()
}

func (s *Service) broadcast(ctx context.Context, familyID string, payload Payload) {
	subs, err := s.subs.ListParentSubscriptions(ctx, familyID)
	if err != nil {
		s.logger.Error("push: list subscriptions", "family_id", familyID, "error", err)
		return
	}

	enabled := make(map[string]bool)
	for _, sub := range subs {
		on, seen := enabled[sub.AccountID]
		if !seen {
			prefs, err := settings.Load(ctx, s.prefs, sub.AccountID)
			if err != nil {
				s.logger.Warn("push: load settings", "account_id", sub.AccountID, "error", err)
				prefs = settings.Defaults()
			}
			on = prefs.Notifications
			enabled[sub.AccountID] = on
		}
		if !on {
			continue
		}

		err := s.Send(ctx, sub, payload)
		switch {
		case errors.Is(err, ErrExpired):
			if err := s.subs.DeleteByEndpoint(ctx, sub.Endpoint); err != nil {
				s.logger.Warn("push: delete expired subscription", "error", err)
			}
		case err != nil:
			s.logger.Warn("push: send", "account_id", sub.AccountID, "error", err)
		}
	}
}

// Wait blocks until in-flight deliveries finish.
func (s *Service) Wait() {
	s.wg.Wait()
}

// GenerateVAPIDKeys generates a new ECDSA P-256 key pair for VAPID.
func GenerateVAPIDKeys() (publicKey, privateKey string, err error) {
	key, err := ecdsa.GenerateKey(elliptic.P256(), rand.Reader)
	if err != nil {
		return "", "", fmt.Errorf("generate ECDSA key: %w", err)
	}

	pubBytes := elliptic.Marshal(elliptic.P256(), key.PublicKey.X, key.PublicKey.Y)
	publicKey = base64.RawURLEncoding.EncodeToString(pubBytes)
	privateKey = base64.RawURLEncoding.EncodeToString(key.D.FillBytes(make([]byte, 32)))

	return publicKey, privateKey, nil
}
