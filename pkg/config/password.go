package config

import (
	"github.com/tracklight/idm/pkg/password"
)

// PasswordConfig holds password policy configuration from environment variables
type PasswordConfig struct {
	MinLength int `env:"PASSWORD_MIN_LENGTH" env-default:"8"`
}

// ToPolicy converts the configuration to a password.Policy
func (c PasswordConfig) ToPolicy() password.Policy {
	return password.Policy{
		MinLength: c.MinLength,
	}
}

// NewPasswordConfigFromEnv creates a PasswordConfig from environment variables
func NewPasswordConfigFromEnv() PasswordConfig {
	return PasswordConfig{
		MinLength: GetEnvInt("PASSWORD_MIN_LENGTH", 8),
	}
}
