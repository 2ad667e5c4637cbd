package router // package router defines how HTTP routes are registered for the API

import (
	"github.com/labstack/echo/v4"
	echomw "github.com/labstack/echo/v4/middleware"

	"github.com/growmate/growmate/internal/handler"
	"github.com/growmate/growmate/internal/middleware"
)

// RegisterRoutes wires every endpoint of the service onto the provided Echo
// instance. Unauthenticated routes are the health check, signup, login and
// the bare classification API; everything else sits behind the JWT gate.
// Uploads are capped at 16MB across the board.
func RegisterRoutes(e *echo.Echo, a *handler.AuthHandler, d *handler.DetectionHandler, ch *handler.ChatHandler, f *handler.FarmHandler, jwtSecret string) {
	e.Use(echomw.BodyLimit("16M"))

	e.GET("/healthz", handler.Health)

	// Operations that do not require an existing session.
	g := e.Group("/v1/auth")
	g.POST("/register", a.Register)
	g.POST("/login", a.Login)

	// Bare classification without advice. Public, matching the original
	// JSON endpoint.
	e.POST("/v1/analyze", d.Analyze)

	// Protected endpoints live under /v1 and require a valid access token.
	auth := e.Group("/v1")
	auth.Use(middleware.JWTAuth(jwtSecret))
	auth.GET("/me", a.Me)
	auth.POST("/auth/logout", a.Logout)
	auth.POST("/disease-detection", d.Detect)
	auth.POST("/farm-management", f.Recommend)
	auth.POST("/chat", ch.Chat)
	auth.GET("/chat/history", ch.History)
}
