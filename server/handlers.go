package server

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jrsteele09/mealplan-server/auth"
	apperrors "github.com/jrsteele09/mealplan-server/internal/errors"
	"github.com/jrsteele09/mealplan-server/users"
	"github.com/rs/zerolog/hlog"
)

const (
	codeInvalidRequest     = "INVALID_REQUEST"
	codeInvalidCredentials = "INVALID_CREDENTIALS"
	codeInternal           = "INTERNAL_ERROR"

	maxLoginBodyBytes = 1 << 14
)

// LoginRequest is the JSON body of POST /auth/login
type LoginRequest struct {
	Email    string `json:"email" validate:"required,email,max=254"`
	Password string `json:"password" validate:"required,max=256"`
}

// SessionResponse describes a freshly issued session. The tokens themselves
// travel in cookies and the X-Access-Token/X-Refresh-Token headers.
type SessionResponse struct {
	User             users.Identity `json:"user"`
	AccessExpiresAt  time.Time      `json:"access_expires_at"`
	RefreshExpiresAt time.Time      `json:"refresh_expires_at"`
}

func (s *Server) HealthHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}

// LoginHandler checks email and password and starts a session
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req LoginRequest
		dec := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxLoginBodyBytes))
		dec.DisallowUnknownFields()
		if err := dec.Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, "Request body must be JSON with email and password")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, codeInvalidRequest, validationMessage(err))
			return
		}

		identity, pair, err := s.auth.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			if errors.Is(err, apperrors.ErrInvalidCredentials) || errors.Is(err, apperrors.ErrUserDisabled) {
				// Disabled and unknown accounts get the same answer as a wrong password
				hlog.FromRequest(r).Info().Err(err).Msg("login rejected")
				writeError(w, http.StatusUnauthorized, codeInvalidCredentials, "Invalid email or password")
				return
			}
			hlog.FromRequest(r).Error().Err(err).Msg("login failed")
			writeError(w, http.StatusInternalServerError, codeInternal, "Login failed")
			return
		}

		s.SetSessionCookies(w, r, pair)
		writeJSON(w, http.StatusOK, SessionResponse{
			User:             identity,
			AccessExpiresAt:  pair.Access.ExpiresAt,
			RefreshExpiresAt: pair.RefreshExpiresAt,
		})
	}
}

// LogoutHandler deletes the refresh token and clears both cookies. It needs
// no valid access token so that an expired session can still log out.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		creds := auth.ExtractCredentials(r)
		if err := s.auth.Logout(r.Context(), creds.RefreshToken); err != nil {
			hlog.FromRequest(r).Error().Err(err).Msg("logout failed")
		}
		s.ClearSessionCookies(w, r)
		w.WriteHeader(http.StatusNoContent)
	}
}

// MeHandler returns the identity the session resolved to
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"user": identity})
	}
}

func (s *Server) AdminPingHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"status": "ok", "admin": identity.ID})
	}
}

// ProtocolsHandler lists health protocols. Protocol storage lives in another
// service; this route only proves the trainer/admin gate.
func (s *Server) ProtocolsHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"protocols": []any{}, "requested_by": identity})
	}
}

func (s *Server) MealPlansHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, _ := auth.IdentityFrom(r.Context())
		writeJSON(w, http.StatusOK, map[string]any{"meal_plans": []any{}, "requested_by": identity})
	}
}

func validationMessage(err error) string {
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) || len(verrs) == 0 {
		return "Invalid request"
	}
	switch fe := verrs[0]; fe.Tag() {
	case "required":
		return fe.Field() + " is required"
	case "email":
		return fe.Field() + " must be a valid email address"
	default:
		return fe.Field() + " is invalid"
	}
}
