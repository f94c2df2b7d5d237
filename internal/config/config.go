package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/caarlos0/env/v6"
	"github.com/joho/godotenv"
)

type Config struct {
	Port     string `env:"CHORELY_PORT" envDefault:"8080"`
	DBPath   string `env:"CHORELY_DB_PATH" envDefault:"chorely.db"`
	BaseURL  string `env:"CHORELY_BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"CHORELY_LOG_LEVEL" envDefault:"info"`
	// text, json
	LogFormat string `env:"CHORELY_LOG_FORMAT" envDefault:"text"`

	SessionTTL    time.Duration `env:"CHORELY_SESSION_TTL" envDefault:"720h"`
	SweepInterval time.Duration `env:"CHORELY_SWEEP_INTERVAL" envDefault:"5m"`
	CookieSecure  bool          `env:"CHORELY_COOKIE_SECURE" envDefault:"false"`

	// Per client IP, per minute.
	LoginRateLimit int `env:"CHORELY_LOGIN_RATE_LIMIT" envDefault:"10"`

	// Push is disabled unless both keys are set.
	VAPIDPublicKey  string `env:"CHORELY_VAPID_PUBLIC_KEY"`
	VAPIDPrivateKey string `env:"CHORELY_VAPID_PRIVATE_KEY"`
	VAPIDSubscriber string `env:"CHORELY_VAPID_SUBSCRIBER" envDefault:"mailto:noreply@chorely.app"`
}

// Load reads an optional .env file and then the environment. Variables
// already set in the environment win over the file.
func Load(files ...string) (Config, error) {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, os.ErrNotExist) {
			return Config{}, fmt.Errorf("load %s: %w", f, err)
		}
	}

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse environment: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.SessionTTL <= 0 {
		return errors.New("CHORELY_SESSION_TTL must be positive")
	}
	if c.SweepInterval <= 0 {
		return errors.New("CHORELY_SWEEP_INTERVAL must be positive")
	}
	if c.LoginRateLimit <= 0 {
		return errors.New("CHORELY_LOGIN_RATE_LIMIT must be positive")
	}
	if (c.VAPIDPublicKey == "") != (c.VAPIDPrivateKey == "") {
		return errors.New("CHORELY_VAPID_PUBLIC_KEY and CHORELY_VAPID_PRIVATE_KEY must be set together")
	}
	return nil
}
