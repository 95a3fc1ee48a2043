package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

type Config interface {
	EnvConfig
	RemoteConfig
	SessionConfig
	GuardConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetDataFolder() string
	GetEnv() string
	GetLogLevel() string
}

type RemoteConfig interface {
	GetAPIURL() string
	GetAssetBaseURL() string
	GetRequestTimeout() time.Duration
}

type SessionConfig interface {
	GetUserCacheTTL() time.Duration
	GetStorageBackend() string
	GetStorageKey() string
	GetRedisAddr() string
	GetRedisPassword() string
	GetRedisDB() int
	GetRedisPrefix() string
}

type GuardConfig interface {
	GetRoutesFile() string
	GetGuardStrict() bool
}

type mainConfig struct {
	EnvVars
}

// New reads the console configuration from the environment.
func New() (Config, error) {
	var vars EnvVars
	if err := envconfig.Process("", &vars); err != nil {
		return nil, fmt.Errorf("[config New] failed to process environment: %w", err)
	}
	if err := vars.validate(); err != nil {
		return nil, fmt.Errorf("[config New] %w", err)
	}
	return mainConfig{EnvVars: vars}, nil
}

// MustNew is New for process start-up, where bad configuration is fatal.
func MustNew() Config {
	c, err := New()
	if err != nil {
		panic(err)
	}
	return c
}
