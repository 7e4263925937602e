// Package router defines how HTTP routes are registered for the API.
package router

import (
    "github.com/labstack/echo/v4"

    "github.com/avasile/ticketbooth/internal/handler"
    "github.com/avasile/ticketbooth/internal/middleware"
)

// RegisterRoutes registers routes that do not require authentication on the
// provided Echo instance. Currently it exposes only a health check used by
// load balancers to verify that the service is up.
func RegisterRoutes(e *echo.Echo) {
    e.GET("/healthz", handler.Health)
}

// RegisterAuth registers all authentication-related routes and applies the
// necessary middleware. Unauthenticated operations live under /v1/auth;
// protected endpoints run behind JWTAuth with the given signing secret.
func RegisterAuth(e *echo.Echo, a *handler.AuthHandler, jwtSecret string) {
    // Public: anyone can register a user account or log in.
    g := e.Group("/v1/auth")
    g.POST("/register", a.Register)
    g.POST("/login", a.Login)
    g.POST("/refresh", a.Refresh)

    // Login required: logout revokes the caller's refresh tokens, /me
    // echoes the authenticated identity.
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("user", "admin"))
    auth.POST("/auth/logout", a.Logout)
    auth.GET("/me", a.Me)

    // Admin only: minting another admin account.
    admin := e.Group("/v1/auth/register-admin")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole("admin"))
    admin.POST("", a.RegisterAdmin)
}

// RegisterShows registers the show catalog. Browsing is public (optionally
// behind the response cache); create and delete require the admin role.
func RegisterShows(e *echo.Echo, s *handler.ShowHandler, jwtSecret string, cache echo.MiddlewareFunc) {
    browse := e.Group("/v1/shows")
    if cache != nil {
        browse.Use(cache)
    }
    browse.GET("", s.ListShows)
    browse.GET("/upcoming", s.ListUpcoming)

    admin := e.Group("/v1/shows")
    admin.Use(middleware.JWTAuth(jwtSecret))
    admin.Use(middleware.RequireRole("admin"))
    admin.POST("", s.CreateShow)
    admin.DELETE("/:id", s.DeleteShow)
}

// RegisterReservations registers the reservation ledger endpoints. All of
// them require a logged-in user; ownership and the admin override for
// cancellation are enforced in the ledger itself.
func RegisterReservations(e *echo.Echo, r *handler.ReservationHandler, jwtSecret string) {
    auth := e.Group("/v1")
    auth.Use(middleware.JWTAuth(jwtSecret))
    auth.Use(middleware.RequireRole("user", "admin"))
    auth.POST("/shows/:id/reservations", r.CreateReservation)
    auth.DELETE("/reservations/:id", r.CancelReservation)
    auth.GET("/my-reservations", r.ListReservations)
}
