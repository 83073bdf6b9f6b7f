package config

import (
	"fmt"
	"time"

	"github.com/caarlos0/env/v11"
)

// ServerSettings holds process-level settings for lok serve.
type ServerSettings struct {
	Addr               string        `env:"LOKLAGBE_ADDR" envDefault:"127.0.0.1:8080"`
	BasePath           string        `env:"LOKLAGBE_BASE_PATH" envDefault:"/v0"`
	JWTSecret          string        `env:"LOKLAGBE_JWT_SECRET"`
	AllowActorHeader   bool          `env:"LOKLAGBE_ALLOW_ACTOR_HEADER" envDefault:"false"`
	ShutdownTimeout    time.Duration `env:"LOKLAGBE_SHUTDOWN_TIMEOUT" envDefault:"5s"`
	LogLevel           string        `env:"LOKLAGBE_LOG_LEVEL" envDefault:"info"`
	WebhookPollEvery   time.Duration `env:"LOKLAGBE_WEBHOOK_INTERVAL" envDefault:"2s"`
	StreamKeepaliveDur time.Duration `env:"LOKLAGBE_STREAM_KEEPALIVE" envDefault:"25s"`
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}

// LoadServerSettings parses ServerSettings from the environment.
func LoadServerSettings() (ServerSettings, error) {
	var s ServerSettings
	if err := ParseEnv(&s); err != nil {
		return s, err
	}
	return s, nil
}
