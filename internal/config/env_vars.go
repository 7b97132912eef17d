package config

import (
	"strings"
)

const (
	EnvDev  = "DEV"
	EnvProd = "PROD"
)

type EnvVars struct {
	Env          string `env:"ENV" env-default:"DEV" toml:"env"`
	Port         string `env:"PORT" env-default:"8080" toml:"port"`
	AppName      string `env:"APP_NAME" env-default:"Meal Plan Server" toml:"app_name"`
	NatsURL      string `env:"NATS_URL" toml:"nats_url"`
	OtelEndpoint string `env:"OTEL_EXPORTER_OTLP_ENDPOINT" toml:"otel_endpoint"`
}

var _ EnvConfig = EnvVars{}

func (e EnvVars) GetPort() string {
	if strings.HasPrefix(e.Port, ":") {
		return e.Port
	}
	return ":" + e.Port
}

func (e EnvVars) GetAppName() string {
	return e.AppName
}

func (e EnvVars) GetEnv() string {
	if e.Env == "" {
		return EnvDev
	}
	return strings.ToUpper(e.Env)
}

// GetNatsURL returns the NATS server used for security events; empty disables publishing to NATS
func (e EnvVars) GetNatsURL() string {
	return e.NatsURL
}

// GetOtelEndpoint returns the OTLP/HTTP collector endpoint; empty disables trace export
func (e EnvVars) GetOtelEndpoint() string {
	return e.OtelEndpoint
}
