package push

import (
	"context"
	"crypto/rand"
	"encoding/base64"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dukerupert/chorely/internal/model"
	"github.com/dukerupert/chorely/internal/settings"
)

func TestGenerateVAPIDKeys(t *testing.T) {
	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)

	pubBytes, err := base64.RawURLEncoding.DecodeString(pub)
	require.NoError(t, err)
	assert.Len(t, pubBytes, 65, "uncompressed P-256 point")

	privBytes, err := base64.RawURLEncoding.DecodeString(priv)
	require.NoError(t, err)
	assert.Len(t, privBytes, 32)

	pub2, _, _ := GenerateVAPIDKeys()
	assert.NotEqual(t, pub, pub2)
}

type fakeSubs struct {
	mu      sync.Mutex
	subs    []model.PushSubscription
	deleted []string
}

func (f *fakeSubs) ListParentSubscriptions(_ context.Context, familyID string) ([]model.PushSubscription, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []model.PushSubscription
	for _, s := range f.subs {
		if s.FamilyID == familyID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (f *fakeSubs) DeleteByEndpoint(_ context.Context, endpoint string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.deleted = append(f.deleted, endpoint)
	return nil
}

type fakePrefs map[string]map[string]string

func (f fakePrefs) GetAll(_ context.Context, accountID string) (map[string]string, error) {
	return f[accountID], nil
}

func (f fakePrefs) SetMany(_ context.Context, accountID string, values map[string]string) error {
	f[accountID] = values
	return nil
}

// deviceKeys returns browser-side subscription keys webpush can encrypt to.
func deviceKeys(t *testing.T) (p256dh, auth string) {
	t.Helper()
	pub, _, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	secret := make([]byte, 16)
	_, err = rand.Read(secret)
	require.NoError(t, err)
	return pub, base64.RawURLEncoding.EncodeToString(secret)
}

func newTestService(t *testing.T, subs Subscriptions, prefs settings.Store) *Service {
	t.Helper()
	pub, priv, err := GenerateVAPIDKeys()
	require.NoError(t, err)
	return NewService(Config{VAPIDPublicKey: pub, VAPIDPrivateKey: priv, Subscriber: "parents@example.com"}, subs, prefs, slog.Default())
}

func TestNotifyRedemption(t *testing.T) {
	var hits atomic.Int32
	live := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		io.Copy(io.Discard, r.Body)
		assert.Equal(t, "aes128gcm", r.Header.Get("Content-Encoding"))
		assert.Contains(t, r.Header.Get("Authorization"), "vapid")
		w.WriteHeader(http.StatusCreated)
	}))
	defer live.Close()
	gone := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusGone)
	}))
	defer gone.Close()

	p1, a1 := deviceKeys(t)
	p2, a2 := deviceKeys(t)
	p3, a3 := deviceKeys(t)
	subs := &fakeSubs{subs: []model.PushSubscription{
		{AccountID: "mom", FamilyID: "f1", Endpoint: live.URL + "/mom", P256dhKey: p1, AuthKey: a1},
		{AccountID: "dad", FamilyID: "f1", Endpoint: gone.URL + "/dad", P256dhKey: p2, AuthKey: a2},
		{AccountID: "quiet", FamilyID: "f1", Endpoint: live.URL + "/quiet", P256dhKey: p3, AuthKey: a3},
	}}
	prefs := fakePrefs{"quiet": {settings.KeyNotifications: "false"}}

	svc := newTestService(t, subs, prefs)
	svc.NotifyRedemption(context.Background(), model.RedeemedReward{
		ID: "r1", FamilyID: "f1", RewardTitle: "Ice cream", PointsCost: 20,
	}, "Ava")
	svc.Wait()

	assert.Equal(t, int32(1), hits.Load(), "opted-out parent should not be pushed")
	assert.Equal(t, []string{gone.URL + "/dad"}, subs.deleted)
}

func TestNotifyRedemptionDisabledWithoutKeys(t *testing.T) {
	subs := &fakeSubs{subs: []model.PushSubscription{{AccountID: "mom", FamilyID: "f1", Endpoint: "http://127.0.0.1:1/x"}}}
	svc := NewService(Config{}, subs, fakePrefs{}, slog.Default())

	svc.NotifyRedemption(context.Background(), model.RedeemedReward{FamilyID: "f1"}, "Ava")
	svc.Wait()

	assert.Empty(t, subs.deleted)
	assert.Equal(t, "", svc.VAPIDPublicKey())
}
