package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4" // import the Echo web framework to handle routing

	"github.com/iliyamo/appointment-slot-reservation/internal/handler"    // handlers implementing the endpoints
	"github.com/iliyamo/appointment-slot-reservation/internal/middleware" // middleware for JWT authentication and roles
	"github.com/iliyamo/appointment-slot-reservation/internal/model"
)

// RegisterRoutes registers routes that do not require authentication on
// the provided Echo instance: the health check, the public slot browse
// endpoint, and link-based cancellation (the bearer of a valid token is
// the credential there, not a JWT).
func RegisterRoutes(e *echo.Echo, slots *handler.SlotHandler, reservations *handler.ReservationHandler) {
	// Health endpoint for load balancers and monitoring.
	e.GET("/healthz", handler.Health)
	// Anyone may browse a provider's open windows before signing in.
	e.GET("/v1/slots", slots.ListOpen)
	// Cancellation links from confirmation emails land here.
	e.POST("/v1/reservations/cancel", reservations.CancelByToken)
}

// RegisterProtected registers all endpoints that require a valid access
// token.  The jwtSecret must match the one used by the external auth
// service.  Role enforcement is per route: slot publication belongs to
// providers, while reservation operations are open to every role and
// rely on the engine's ownership checks for fine-grained authorization.
func RegisterProtected(e *echo.Echo, slots *handler.SlotHandler, reservations *handler.ReservationHandler, jwtSecret string) {
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.Use(middleware.RequireRole(model.RoleClient, model.RoleProvider, model.RoleAdmin))

	// Reservation engine operations.
	auth.POST("/reservations", reservations.Create)
	auth.DELETE("/reservations/:id", reservations.Cancel)
	auth.POST("/reservations/:id/reschedule", reservations.Reschedule)
	auth.GET("/my-reservations", reservations.ListMine)

	// Slot publication, restricted to providers and admins.
	provider := e.Group("/v1")
	provider.Use(middleware.JWTAuth(jwtSecret))
	provider.Use(middleware.RequireRole(model.RoleProvider, model.RoleAdmin))
	provider.POST("/slots", slots.Create)
	provider.DELETE("/slots/:id", slots.Delete)
	provider.GET("/my-slots", slots.ListMine)
}
