package config

import "time"

const (
	defaultAccessTokenExpiry  = 15 * time.Minute
	defaultRefreshTokenExpiry = 30 * 24 * time.Hour
	defaultRefreshTokenLength = 32 // 32 bytes = 256 bits
	minRefreshTokenLength     = 32
	defaultStoreTimeout       = 2 * time.Second
)

type Session struct {
	AccessTokenTTL     time.Duration `env:"ACCESS_TOKEN_TTL" env-default:"15m" toml:"access_token_ttl"`
	RefreshTokenTTL    time.Duration `env:"REFRESH_TOKEN_TTL" env-default:"720h" toml:"refresh_token_ttl"`
	RefreshTokenLength int           `env:"REFRESH_TOKEN_LENGTH" env-default:"32" toml:"refresh_token_length"`
	StoreTimeout       time.Duration `env:"SESSION_STORE_TIMEOUT" env-default:"2s" toml:"store_timeout"`
}

var _ SessionConfig = Session{}

func (s Session) GetAccessTokenExpiry() time.Duration {
	if s.AccessTokenTTL <= 0 {
		return defaultAccessTokenExpiry
	}
	return s.AccessTokenTTL
}

func (s Session) GetRefreshTokenExpiry() time.Duration {
	if s.RefreshTokenTTL <= 0 {
		return defaultRefreshTokenExpiry
	}
	return s.RefreshTokenTTL
}

// GetRefreshTokenLength never returns less than 256 bits of entropy
func (s Session) GetRefreshTokenLength() int {
	if s.RefreshTokenLength == 0 {
		return defaultRefreshTokenLength
	}
	if s.RefreshTokenLength < minRefreshTokenLength {
		return minRefreshTokenLength
	}
	return s.RefreshTokenLength
}

func (s Session) GetStoreTimeout() time.Duration {
	if s.StoreTimeout <= 0 {
		return defaultStoreTimeout
	}
	return s.StoreTimeout
}
