package server

import (
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jrsteele09/mealplan-server/internal/logging"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

func (s *Server) initRoutes() {
	r := s.router
	r.Use(logging.Middleware(s.logger)...)
	r.Use(middleware.Recoverer)
	r.Use(MetricsMiddleware)
	r.Use(s.CorsMiddleware())

	r.Get(RouteHealth, s.HealthHandler())
	r.Handle(RouteMetrics, promhttp.Handler())

	// LOGIN
	r.Post(RouteAuthLogin, s.LoginHandler())
	r.Post(RouteAuthLogout, s.LogoutHandler())

	// API routes
	r.Group(func(r chi.Router) {
		r.Use(s.FrameSecurityMiddleware)

		r.With(s.SessionMiddleware).Get(RouteAPIMe, s.MeHandler())
		r.With(s.RequireAdmin()).Get(RouteAPIAdminPing, s.AdminPingHandler())
		r.With(s.RequireTrainerOrAdmin()).Get(RouteAPIProtocols, s.ProtocolsHandler())
		r.With(s.RequireAnyRole()).Get(RouteAPIMealPlans, s.MealPlansHandler())
	})
}
