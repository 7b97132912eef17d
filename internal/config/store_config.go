package config

const (
	StoreBackendMemory   = "memory"
	StoreBackendPostgres = "postgres"
	StoreBackendRedis    = "redis"
)

type StoreConfig interface {
	GetStoreBackend() string
	GetDatabaseDSN() string
	GetRedisAddr() string
}

type Store struct {
	Backend     string `env:"STORE_BACKEND" env-default:"memory" toml:"store_backend"`
	DatabaseDSN string `env:"DATABASE_DSN" toml:"database_dsn"`
	RedisAddr   string `env:"REDIS_ADDR" env-default:"localhost:6379" toml:"redis_addr"`
}

var _ StoreConfig = Store{}

func (s Store) GetStoreBackend() string {
	switch s.Backend {
	case StoreBackendPostgres, StoreBackendRedis:
		return s.Backend
	default:
		return StoreBackendMemory
	}
}

func (s Store) GetDatabaseDSN() string {
	return s.DatabaseDSN
}

func (s Store) GetRedisAddr() string {
	return s.RedisAddr
}
