package config

import (
	"fmt"
	"strings"
	"time"
)

const (
	StorageBackendFile   = "file"
	StorageBackendRedis  = "redis"
	StorageBackendMemory = "memory"
)

// EnvVars is populated by envconfig. Field defaults apply when a variable is unset.
type EnvVars struct {
	Port       string `envconfig:"PORT" default:"8080"`
	AppName    string `envconfig:"APP_NAME" default:"Spares KE Console"`
	DataFolder string `envconfig:"FOLDER" default:"./data"`
	Env        string `envconfig:"ENV" default:"DEV"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`

	APIURL         string        `envconfig:"API_URL" default:"http://localhost:8000/api"`
	AssetBaseURL   string        `envconfig:"ASSET_BASE_URL" default:"http://localhost:8000"`
	RequestTimeout time.Duration `envconfig:"REQUEST_TIMEOUT" default:"30s"`

	UserCacheTTL   time.Duration `envconfig:"USER_CACHE_TTL" default:"5m"`
	StorageBackend string        `envconfig:"STORAGE_BACKEND" default:"file"`
	StorageKey     string        `envconfig:"STORAGE_KEY"`
	RedisAddr      string        `envconfig:"REDIS_ADDR" default:"localhost:6379"`
	RedisPassword  string        `envconfig:"REDIS_PASSWORD"`
	RedisDB        int           `envconfig:"REDIS_DB" default:"0"`
	RedisPrefix    string        `envconfig:"REDIS_PREFIX" default:"spares-console"`

	RoutesFile  string `envconfig:"ROUTES_FILE"`
	GuardStrict bool   `envconfig:"GUARD_STRICT" default:"false"`
}

var _ EnvConfig = EnvVars{}
var _ RemoteConfig = EnvVars{}
var _ SessionConfig = EnvVars{}
var _ GuardConfig = EnvVars{}

func (e EnvVars) validate() error {
	switch strings.ToLower(e.StorageBackend) {
	case StorageBackendFile, StorageBackendRedis, StorageBackendMemory:
	default:
		return fmt.Errorf("unknown STORAGE_BACKEND %q", e.StorageBackend)
	}
	if e.APIURL == "" {
		return fmt.Errorf("API_URL is required")
	}
	return nil
}

func (e EnvVars) GetPort() string {
	port := e.Port
	if port != "" && port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetDataFolder() string {
	return e.DataFolder
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return "DEV"
	}
	return e.Env
}

func (e EnvVars) GetLogLevel() string {
	return e.LogLevel
}

// GetAPIURL returns the remote API base URL that relative request paths are appended to.
func (e EnvVars) GetAPIURL() string {
	return strings.TrimSuffix(e.APIURL, "/")
}

// GetAssetBaseURL returns the host serving uploaded images (e.g. "https://api.example.com")
func (e EnvVars) GetAssetBaseURL() string {
	return strings.TrimSuffix(e.AssetBaseURL, "/")
}

func (e EnvVars) GetRequestTimeout() time.Duration {
	return e.RequestTimeout
}

func (e EnvVars) GetUserCacheTTL() time.Duration {
	return e.UserCacheTTL
}

func (e EnvVars) GetStorageBackend() string {
	return strings.ToLower(e.StorageBackend)
}

func (e EnvVars) GetStorageKey() string {
	return e.StorageKey
}

func (e EnvVars) GetRedisAddr() string {
	return e.RedisAddr
}

func (e EnvVars) GetRedisPassword() string {
	return e.RedisPassword
}

func (e EnvVars) GetRedisDB() int {
	return e.RedisDB
}

func (e EnvVars) GetRedisPrefix() string {
	return e.RedisPrefix
}

func (e EnvVars) GetRoutesFile() string {
	return e.RoutesFile
}

// GetGuardStrict reports whether routes that declare a permission or role are denied
// when no user is loaded.
func (e EnvVars) GetGuardStrict() bool {
	return e.GuardStrict
}
