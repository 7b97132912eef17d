package server

import (
	"net/http"

	"github.com/jrsteele09/mealplan-server/auth"
	"github.com/jrsteele09/mealplan-server/users"
)

// SessionMiddleware authenticates the request and attaches the identity to
// its context. Cookie and header writes come only from the outcome.
func (s *Server) SessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		out := s.auth.Authenticate(r.Context(), auth.ExtractCredentials(r))
		recordOutcome(out)

		if out.ClearCookies {
			s.ClearSessionCookies(w, r)
		}
		if !out.Attached() {
			s.deny(w, r, out.Code)
			return
		}
		if out.Rotated != nil {
			s.SetSessionCookies(w, r, *out.Rotated)
		}
		next.ServeHTTP(w, r.WithContext(auth.WithIdentity(r.Context(), out.Identity)))
	})
}

// roleGate lets through identities holding one of roles. It expects the
// session middleware to have run.
func (s *Server) roleGate(roles []users.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if len(roles) == 0 {
				s.deny(w, r, auth.CodeRoleRequired)
				return
			}
			identity, ok := auth.IdentityFrom(r.Context())
			if !ok {
				s.deny(w, r, auth.CodeAuthFailed)
				return
			}
			if !identity.HasAnyRole(roles...) {
				s.deny(w, r, auth.CodeForbidden)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// RequireAnyOf runs the session middleware and then admits only the given
// roles. Session denials pass through unchanged. An empty role list denies
// everyone with ROLE_REQUIRED.
func (s *Server) RequireAnyOf(roles ...users.Role) func(http.Handler) http.Handler {
	gate := s.roleGate(append([]users.Role(nil), roles...))
	return func(next http.Handler) http.Handler {
		return ChainMiddleware(next, s.SessionMiddleware, gate)
	}
}

func (s *Server) RequireRole(role users.Role) func(http.Handler) http.Handler {
	return s.RequireAnyOf(role)
}

func (s *Server) RequireAdmin() func(http.Handler) http.Handler {
	return s.RequireAnyOf(users.RoleAdmin)
}

func (s *Server) RequireTrainerOrAdmin() func(http.Handler) http.Handler {
	return s.RequireAnyOf(users.RoleTrainer, users.RoleAdmin)
}

// RequireAnyRole admits any authenticated user with a known role
func (s *Server) RequireAnyRole() func(http.Handler) http.Handler {
	return s.RequireAnyOf(users.AllRoles...)
}
