package config

import (
	"fmt"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const configFileEnvVar = "CONFIG_FILE"

type Config interface {
	EnvConfig
	SessionConfig
	CorsConfig
	StoreConfig
	SecurityConfig
	CookieConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetNatsURL() string
	GetOtelEndpoint() string
}

type SessionConfig interface {
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
	GetRefreshTokenLength() int
	GetStoreTimeout() time.Duration
}

type CorsConfig interface {
	GetAllowedOrigins() AllowedOrigins
	GetAllowedMethods() []string
	GetAllowedHeaders() []string
	GetExposedHeaders() []string
}

type mainConfig struct {
	EnvVars
	Session
	Cors
	Store
	Security
}

var _ Config = mainConfig{}

// New loads the configuration from the environment. When CONFIG_FILE is set
// the file is read first and environment variables override it.
func New() (Config, error) {
	var c mainConfig
	var err error
	if path := os.Getenv(configFileEnvVar); path != "" {
		err = cleanenv.ReadConfig(path, &c)
	} else {
		err = cleanenv.ReadEnv(&c)
	}
	if err != nil {
		return nil, fmt.Errorf("config error: %w", err)
	}
	return c, nil
}
