package server

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/jrsteele09/mealplan-server/auth"
	"github.com/rs/zerolog/hlog"
)

// ErrorResponse is the body of every 4xx/5xx response
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code"`
}

func (s *Server) secureCookies(r *http.Request) bool {
	return s.config.GetSecureCookies() || getScheme(r) == "https"
}

func (s *Server) setCookie(w http.ResponseWriter, r *http.Request, name, value string, expires time.Time, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		HttpOnly: true,
		Secure:   s.secureCookies(r),
		SameSite: http.SameSiteLaxMode,
		Expires:  expires,
		MaxAge:   maxAge,
	})
}

// SetSessionCookies writes both session cookies and mirrors them into the
// rotation headers for clients that do not keep cookies.
func (s *Server) SetSessionCookies(w http.ResponseWriter, r *http.Request, pair auth.TokenPair) {
	issuedAt := pair.Access.IssuedAt
	s.setCookie(w, r, auth.AccessTokenCookie, pair.Access.Value,
		pair.Access.ExpiresAt, int(pair.Access.ExpiresAt.Sub(issuedAt).Seconds()))
	s.setCookie(w, r, auth.RefreshTokenCookie, pair.RefreshToken,
		pair.RefreshExpiresAt, int(pair.RefreshExpiresAt.Sub(issuedAt).Seconds()))

	w.Header().Set(auth.AccessTokenHeader, pair.Access.Value)
	w.Header().Set(auth.RefreshTokenHeader, pair.RefreshToken)
}

// ClearSessionCookies expires both session cookies on the client
func (s *Server) ClearSessionCookies(w http.ResponseWriter, r *http.Request) {
	s.setCookie(w, r, auth.AccessTokenCookie, "", time.Unix(0, 0), -1)
	s.setCookie(w, r, auth.RefreshTokenCookie, "", time.Unix(0, 0), -1)
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.Header().Set("Cache-Control", "no-store")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, code, msg string) {
	writeJSON(w, status, ErrorResponse{Error: msg, Code: code})
}

// deny answers with the status and body for an auth code
func (s *Server) deny(w http.ResponseWriter, r *http.Request, code auth.Code) {
	hlog.FromRequest(r).Info().Str("code", code.String()).Msg("request denied")
	writeError(w, code.Status(), code.String(), code.Message())
}
