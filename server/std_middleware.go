package server

import (
	"net/http"

	"github.com/go-chi/cors"
)

// ChainMiddleware applies mw so that the first element runs first
func ChainMiddleware(h http.Handler, mw ...func(http.Handler) http.Handler) http.Handler {
	chainedHandler := h
	// Apply middleware in reverse order
	for i := len(mw) - 1; i >= 0; i-- {
		chainedHandler = mw[i](chainedHandler)
	}
	return chainedHandler
}

func (s *Server) FrameSecurityMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// Prevent embedding on other sites
		w.Header().Set("X-Frame-Options", "SAMEORIGIN")
		w.Header().Set("Content-Security-Policy", "frame-ancestors 'self'")
		w.Header().Set("X-Content-Type-Options", "nosniff")
		next.ServeHTTP(w, r)
	})
}

// CorsMiddleware allows credentialed requests from the configured origins and
// exposes the rotation headers to them. A "*" entry allows any origin but
// never with credentials.
func (s *Server) CorsMiddleware() func(http.Handler) http.Handler {
	allowedOrigins := s.config.GetAllowedOrigins()
	wildcard := allowedOrigins.IsAllowedOrigin("*")
	return cors.Handler(cors.Options{
		AllowOriginFunc: func(_ *http.Request, origin string) bool {
			return wildcard || allowedOrigins.IsAllowedOrigin(origin)
		},
		AllowedMethods:   s.config.GetAllowedMethods(),
		AllowedHeaders:   s.config.GetAllowedHeaders(),
		ExposedHeaders:   s.config.GetExposedHeaders(),
		AllowCredentials: !wildcard,
		MaxAge:           86400,
	})
}
