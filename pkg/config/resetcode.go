package config

import (
	"log/slog"
	"time"

	"github.com/sosodev/duration"
)

// ResetCodeConfig holds password-reset code policy configuration.
// TTL is an ISO-8601 period string (e.g. "PT10M").
type ResetCodeConfig struct {
	TTL         string `env:"RESET_CODE_TTL" env-default:"PT10M"`
	MaxAttempts int    `env:"RESET_CODE_MAX_ATTEMPTS" env-default:"5"`
	Pepper      string `env:"RESET_CODE_PEPPER" env-default:"local-reset-code-pepper"`
}

// ToTTL parses the configured ISO-8601 period, falling back to 10 minutes
// when the value cannot be parsed
func (c ResetCodeConfig) ToTTL() time.Duration {
	d, err := duration.Parse(c.TTL)
	if err != nil {
		slog.Error("Failed to parse reset code TTL, using default", "ttl", c.TTL, "err", err)
		return 10 * time.Minute
	}
	return d.ToTimeDuration()
}

// NewResetCodeConfigFromEnv creates a ResetCodeConfig from environment variables
func NewResetCodeConfigFromEnv() ResetCodeConfig {
	return ResetCodeConfig{
		TTL:         GetEnvOrDefault("RESET_CODE_TTL", "PT10M"),
		MaxAttempts: GetEnvInt("RESET_CODE_MAX_ATTEMPTS", 5),
		Pepper:      GetEnvOrDefault("RESET_CODE_PEPPER", "local-reset-code-pepper"),
	}
}
