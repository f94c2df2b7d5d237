// Package settings decodes per-account preferences into a closed set of
// options. Missing or unparsable values fall back to the defaults.
package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"

	"github.com/dukerupert/chorely/internal/model"
)

const (
	KeyNotifications = "notifications"
	KeySoundEffects  = "sound_effects"
)

type Settings struct {
	Notifications bool `json:"notifications"`
	SoundEffects  bool `json:"sound_effects"`
}

func Defaults() Settings {
	return Settings{Notifications: true, SoundEffects: true}
}

// FromMap decodes stored key/value rows. Unknown keys are ignored.
func FromMap(m map[string]string) Settings {
	s := Defaults()
	s.Notifications = boolOr(m[KeyNotifications], s.Notifications)
	s.SoundEffects = boolOr(m[KeySoundEffects], s.SoundEffects)
	return s
}

func (s Settings) ToMap() map[string]string {
	return map[string]string{
		KeyNotifications: strconv.FormatBool(s.Notifications),
		KeySoundEffects:  strconv.FormatBool(s.SoundEffects),
	}
}

func boolOr(v string, def bool) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return def
	}
	return b
}

// Update is a partial change; nil fields are left alone.
type Update struct {
	Notifications *bool
	SoundEffects  *bool
}

// ParseUpdate decodes a JSON object of setting changes. Unknown keys and
// non-boolean values are rejected.
func ParseUpdate(data []byte) (Update, error) {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return Update{}, fmt.Errorf("%w: settings must be a JSON object", model.ErrValidation)
	}

	var u Update
	for key, val := range raw {
		var b bool
		if err := json.Unmarshal(val, &b); err != nil {
			return Update{}, fmt.Errorf("%w: %s must be a boolean", model.ErrValidation, key)
		}
		switch key {
		case KeyNotifications:
			u.Notifications = &b
		case KeySoundEffects:
			u.SoundEffects = &b
		default:
			return Update{}, fmt.Errorf("%w: unknown setting %q", model.ErrValidation, key)
		}
	}
	return u, nil
}

func (s Settings) Apply(u Update) Settings {
	if u.Notifications != nil {
		s.Notifications = *u.Notifications
	}
	if u.SoundEffects != nil {
		s.SoundEffects = *u.SoundEffects
	}
	return s
}

type Store interface {
	GetAll(ctx context.Context, accountID string) (map[string]string, error)
	SetMany(ctx context.Context, accountID string, values map[string]string) error
}

// Load returns the account's settings with defaults filled in.
func Load(ctx context.Context, st Store, accountID string) (Settings, error) {
	m, err := st.GetAll(ctx, accountID)
	if err != nil {
		return Settings{}, err
	}
	return FromMap(m), nil
}

// Save applies u to the stored settings and returns the result.
func Save(ctx context.Context, st Store, accountID string, u Update) (Settings, error) {
	cur, err := Load(ctx, st, accountID)
	if err != nil {
		return Settings{}, err
	}
	next := cur.Apply(u)
	if err := st.SetMany(ctx, accountID, next.ToMap()); err != nil {
		return Settings{}, err
	}
	return next, nil
}
