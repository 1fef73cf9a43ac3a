package config

// RateLimitConfig holds rate limiter configuration. The rules themselves are
// fixed in pkg/ratelimit; only the key pepper comes from the environment so
// persisted key hashes survive restarts but differ between deployments.
type RateLimitConfig struct {
	Pepper string `env:"RATE_LIMIT_PEPPER" env-default:"local-rate-limit-pepper"`
}

// NewRateLimitConfigFromEnv creates a RateLimitConfig from environment variables
func NewRateLimitConfigFromEnv() RateLimitConfig {
	return RateLimitConfig{
		Pepper: GetEnvOrDefault("RATE_LIMIT_PEPPER", "local-rate-limit-pepper"),
	}
}

// SessionConfig holds configuration for the session token layer.
// Token transport mechanics beyond signing are the auth framework's concern.
type SessionConfig struct {
	Secret       string `env:"AUTH_SECRET" env-default:"local-auth-secret"`
	TokenTTLMins int    `env:"AUTH_TOKEN_TTL_MINS" env-default:"1440"`
}

// NewSessionConfigFromEnv creates a SessionConfig from environment variables
func NewSessionConfigFromEnv() SessionConfig {
	return SessionConfig{
		Secret:       GetEnvOrDefault("AUTH_SECRET", "local-auth-secret"),
		TokenTTLMins: GetEnvInt("AUTH_TOKEN_TTL_MINS", 1440),
	}
}
