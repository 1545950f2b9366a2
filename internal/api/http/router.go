package http

import (
	"github.com/gofiber/contrib/websocket"
	"github.com/gofiber/fiber/v2"

	"github.com/spec-kit/gradebook-service/internal/api/http/handlers"
	"github.com/spec-kit/gradebook-service/internal/auth"
	"github.com/spec-kit/gradebook-service/internal/domain"
	"github.com/spec-kit/gradebook-service/internal/ws"
)

// Recognized upgrade paths. Any other upgrade attempt below /ws has its
// transport destroyed without a handshake.
const (
	PathSubscriptions = "/ws/subscriptions"
	PathNotifications = "/ws/notifications"
)

// RouteConfig bundles dependencies for route registration.
type RouteConfig struct {
	Health  *handlers.HealthHandler
	Auth    *handlers.AuthHandler
	Grades  *handlers.GradesHandler
	Gate    *auth.Middleware
	Sockets *ws.Handler
}

// RegisterRoutes wires HTTP routes and the upgrade dispatch for both socket
// protocols.
func RegisterRoutes(app *fiber.App, cfg RouteConfig) {
	app.Get("/health/live", cfg.Health.Live)
	app.Get("/health/ready", cfg.Health.Ready)

	authGroup := app.Group("/auth")
	authGroup.Post("/register", cfg.Gate.Require(domain.RoleAdmin), cfg.Auth.Register)
	authGroup.Post("/login", cfg.Auth.Login)

	grades := app.Group("/grades", cfg.Gate.Require(domain.RoleTeacher, domain.RoleAdmin))
	grades.Post("/notify", cfg.Grades.Notify)

	app.Use("/ws", upgradeGate)
	app.Get(PathSubscriptions, websocket.New(cfg.Sockets.HandleSubscriptions))
	app.Get(PathNotifications, websocket.New(cfg.Sockets.HandleNotifications))
}

// upgradeGate dispatches connection upgrades to the recognized protocol
// paths. Unrecognized paths get the raw TCP connection closed so no partial
// websocket handshake ever happens; non-upgrade requests under /ws are
// plain client errors.
func upgradeGate(c *fiber.Ctx) error {
	if !websocket.IsWebSocketUpgrade(c) {
		return fiber.ErrUpgradeRequired
	}
	switch c.Path() {
	case PathSubscriptions, PathNotifications:
		return c.Next()
	default:
		_ = c.Context().Conn().Close()
		return nil
	}
}
