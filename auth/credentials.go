package auth

import (
	"net/http"
	"strings"
)

const (
	AccessTokenCookie  = "token"
	RefreshTokenCookie = "refreshToken"

	AccessTokenHeader  = "X-Access-Token"
	RefreshTokenHeader = "X-Refresh-Token"

	bearerPrefix = "bearer "
)

// Credentials are the raw tokens a request presented
type Credentials struct {
	AccessToken  string
	RefreshToken string
}

// ExtractCredentials takes the access token from an Authorization Bearer
// header, falling back to the token cookie. The refresh token is only ever
// read from its cookie.
func ExtractCredentials(r *http.Request) Credentials {
	var creds Credentials

	if h := r.Header.Get("Authorization"); len(h) > len(bearerPrefix) && strings.EqualFold(h[:len(bearerPrefix)], bearerPrefix) {
		creds.AccessToken = strings.TrimSpace(h[len(bearerPrefix):])
	}
	if creds.AccessToken == "" {
		creds.AccessToken = cookieValue(r, AccessTokenCookie)
	}
	creds.RefreshToken = cookieValue(r, RefreshTokenCookie)
	return creds
}

func cookieValue(r *http.Request, name string) string {
	c, err := r.Cookie(name)
	if err != nil {
		return ""
	}
	return c.Value
}
