package server

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Login & Logout
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// API Routes
	RouteAPIMe        = "/api/me"
	RouteAPIAdminPing = "/api/admin/ping"
	RouteAPIProtocols = "/api/protocols"
	RouteAPIMealPlans = "/api/meal-plans"

	// Operational Routes
	RouteHealth  = "/healthz"
	RouteMetrics = "/metrics"
)
