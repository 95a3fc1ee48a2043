package server

// Route path constants for everything the console serves besides the guarded pages.
const (
	// Auth Routes
	RouteAuthLogin  = "/auth/login"
	RouteAuthLogout = "/auth/logout"

	// API Routes
	RouteAPISession      = "/api/session"
	RouteAPIOrganisation = "/api/organisation"

	// Operations
	RouteMetrics = "/metrics"
	RouteHealth  = "/healthz"

	// Static Asset Routes (patterns)
	RouteStaticCSS = "/css/{file}"

	// Where a successful login lands
	RouteAfterLogin = "/dashboard"
)
