package config_test

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/jrsteele09/mealplan-server/internal/config"
	"github.com/stretchr/testify/require"
)

const testSecret = "0123456789abcdef0123456789abcdef"

var configEnvVars = []string{
	"CONFIG_FILE", "ENV", "PORT", "APP_NAME", "NATS_URL", "OTEL_EXPORTER_OTLP_ENDPOINT",
	"ACCESS_TOKEN_TTL", "REFRESH_TOKEN_TTL", "REFRESH_TOKEN_LENGTH", "SESSION_STORE_TIMEOUT",
	"CORS_ALLOWED_ORIGINS", "STORE_BACKEND", "DATABASE_DSN", "REDIS_ADDR",
	"JWT_SECRET", "SECURE_COOKIES",
}

// clearEnv unsets every variable the config reads; t.Setenv restores them afterwards
func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range configEnvVars {
		t.Setenv(key, "")
		require.NoError(t, os.Unsetenv(key))
	}
}

func TestNew_Defaults(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, config.EnvDev, c.GetEnv())
	require.Equal(t, ":8080", c.GetPort())
	require.Equal(t, "Meal Plan Server", c.GetAppName())
	require.Equal(t, 15*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 30*24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 32, c.GetRefreshTokenLength())
	require.Equal(t, 2*time.Second, c.GetStoreTimeout())
	require.Equal(t, config.StoreBackendMemory, c.GetStoreBackend())
	require.Equal(t, "localhost:6379", c.GetRedisAddr())
	require.Empty(t, c.GetNatsURL())
	require.Empty(t, c.GetOtelEndpoint())
	require.Empty(t, c.GetAllowedOrigins())
	require.False(t, c.GetSecureCookies())
	require.Equal(t, testSecret, c.GetJWTSecret())
}

func TestNew_MissingSecret(t *testing.T) {
	clearEnv(t)

	_, err := config.New()
	require.Error(t, err)
	require.Contains(t, err.Error(), "config error")
}

func TestNew_FromEnvironment(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("ENV", "prod")
	t.Setenv("PORT", ":9090")
	t.Setenv("ACCESS_TOKEN_TTL", "5m")
	t.Setenv("REFRESH_TOKEN_TTL", "24h")
	t.Setenv("REFRESH_TOKEN_LENGTH", "8")
	t.Setenv("CORS_ALLOWED_ORIGINS", "https://app.example.com, https://admin.example.com")
	t.Setenv("STORE_BACKEND", "redis")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, config.EnvProd, c.GetEnv())
	require.Equal(t, ":9090", c.GetPort())
	require.Equal(t, 5*time.Minute, c.GetAccessTokenExpiry())
	require.Equal(t, 24*time.Hour, c.GetRefreshTokenExpiry())
	require.Equal(t, 32, c.GetRefreshTokenLength(), "short refresh tokens are raised to 256 bits")
	require.Equal(t, config.StoreBackendRedis, c.GetStoreBackend())
	require.True(t, c.GetSecureCookies())

	origins := c.GetAllowedOrigins()
	require.Len(t, origins, 2)
	require.True(t, origins.IsAllowedOrigin("https://app.example.com"))
	require.True(t, origins.IsAllowedOrigin("https://admin.example.com"))
	require.False(t, origins.IsAllowedOrigin("https://evil.example.com"))
}

func TestNew_ForceSecureCookies(t *testing.T) {
	clearEnv(t)
	t.Setenv("JWT_SECRET", testSecret)
	t.Setenv("SECURE_COOKIES", "true")

	c, err := config.New()
	require.NoError(t, err)
	require.Equal(t, config.EnvDev, c.GetEnv())
	require.True(t, c.GetSecureCookies())
}

func TestNew_FromFile(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.toml")
	require.NoError(t, os.WriteFile(path, []byte(`
port = "7070"
app_name = "From File"
jwt_secret = "`+testSecret+`"
store_backend = "postgres"
database_dsn = "postgres://localhost/mealplan"
cors_allowed_origins = ["https://app.example.com"]
`), 0o600))
	t.Setenv("CONFIG_FILE", path)
	t.Setenv("APP_NAME", "From Env")

	c, err := config.New()
	require.NoError(t, err)

	require.Equal(t, ":7070", c.GetPort())
	require.Equal(t, "From Env", c.GetAppName(), "environment overrides the file")
	require.Equal(t, testSecret, c.GetJWTSecret())
	require.Equal(t, config.StoreBackendPostgres, c.GetStoreBackend())
	require.Equal(t, "postgres://localhost/mealplan", c.GetDatabaseDSN())
	require.True(t, c.GetAllowedOrigins().IsAllowedOrigin("https://app.example.com"))
}

func TestStore_UnknownBackendFallsBackToMemory(t *testing.T) {
	require.Equal(t, config.StoreBackendMemory, config.Store{Backend: "dynamo"}.GetStoreBackend())
	require.Equal(t, config.StoreBackendPostgres, config.Store{Backend: "postgres"}.GetStoreBackend())
}

func TestEnvVars_GetPort(t *testing.T) {
	require.Equal(t, ":8080", config.EnvVars{Port: "8080"}.GetPort())
	require.Equal(t, ":8080", config.EnvVars{Port: ":8080"}.GetPort())
}

func TestSession_ZeroValuesUseDefaults(t *testing.T) {
	var s config.Session
	require.Equal(t, 15*time.Minute, s.GetAccessTokenExpiry())
	require.Equal(t, 30*24*time.Hour, s.GetRefreshTokenExpiry())
	require.Equal(t, 32, s.GetRefreshTokenLength())
	require.Equal(t, 2*time.Second, s.GetStoreTimeout())
}
