package config

type SecurityConfig interface {
	GetJWTSecret() string
}

type CookieConfig interface {
	GetSecureCookies() bool
}

type Security struct {
	JWTSecret string `env:"JWT_SECRET" env-required:"true" toml:"jwt_secret"`
	// ForceSecure sets the Secure cookie flag outside PROD, e.g. a staging host behind TLS
	ForceSecure bool `env:"SECURE_COOKIES" toml:"secure_cookies"`
}

var _ SecurityConfig = Security{}

func (s Security) GetJWTSecret() string {
	return s.JWTSecret
}

// GetSecureCookies is true in production or when SECURE_COOKIES forces it
func (c mainConfig) GetSecureCookies() bool {
	return c.Security.ForceSecure || c.EnvVars.GetEnv() == EnvProd
}
