package config

import "strings"

// AppEnv identifies the deployment environment
type AppEnv string

const (
	AppEnvLocal   AppEnv = "local"
	AppEnvStaging AppEnv = "staging"
	AppEnvProd    AppEnv = "prod"
)

// AppConfig holds server-level configuration
type AppConfig struct {
	Env  string `env:"APP_ENV" env-default:"local"`
	Host string `env:"APP_HOST" env-default:"localhost"`
	Port uint16 `env:"APP_PORT" env-default:"4000"`
}

// AppEnv returns the parsed environment, defaulting to local on anything
// unrecognized so a typo never silently enables prod behavior
func (a AppConfig) AppEnv() AppEnv {
	switch AppEnv(strings.ToLower(a.Env)) {
	case AppEnvStaging:
		return AppEnvStaging
	case AppEnvProd:
		return AppEnvProd
	default:
		return AppEnvLocal
	}
}

// IsLocal returns true when running in local development mode
func (a AppConfig) IsLocal() bool {
	return a.AppEnv() == AppEnvLocal
}

// NewAppConfigFromEnv creates an AppConfig from environment variables
func NewAppConfigFromEnv() AppConfig {
	return AppConfig{
		Env:  GetEnvOrDefault("APP_ENV", "local"),
		Host: GetEnvOrDefault("APP_HOST", "localhost"),
		Port: GetEnvUint16("APP_PORT", 4000),
	}
}
