package api

import (
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/websocket/v2"

	"github.com/Musanse/shiteni-sub006/internal/auth"
	"github.com/Musanse/shiteni-sub006/internal/cache"
	"github.com/Musanse/shiteni-sub006/internal/identity"
	"github.com/Musanse/shiteni-sub006/internal/service"
	"github.com/Musanse/shiteni-sub006/internal/ws"
)

func NewServer(svc *service.MessageService, jv *auth.JWTValidator, presence *cache.Client, wsrv *ws.Server) *fiber.App {
	app := fiber.New()
	app.Use(logger.New())

	app.Get("/health", func(c *fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "ok"})
	})

	h := NewHandlers(svc, presence)

	api := app.Group("/v1")
	api.Use(requireAuth(jv))

	api.Post("/messages", h.sendMessage)
	api.Get("/conversations", h.listConversations)
	api.Get("/conversations/:counterpart_id/messages", h.listThread)
	api.Post("/messages/read", h.markRead)
	api.Delete("/messages/:id", h.removeMessage)
	api.Get("/presence/:id", h.getPresence)

	api.Use("/ws", func(c *fiber.Ctx) error {
		if websocket.IsWebSocketUpgrade(c) {
			return c.Next()
		}
		return fiber.ErrUpgradeRequired
	})
	api.Get("/ws", websocket.New(wsrv.Handler()))

	return app
}

// requireAuth validates the bearer token and stashes the caller claims for
// the handlers. Classification happens later, in the resolver.
func requireAuth(jv *auth.JWTValidator) fiber.Handler {
	return func(c *fiber.Ctx) error {
		hdr := c.Get("Authorization")
		token := ""
		const pref = "Bearer "
		if len(hdr) > len(pref) && hdr[:len(pref)] == pref {
			token = hdr[len(pref):]
		} else if q := c.Query("token"); q != "" {
			// websocket clients cannot set headers from the browser
			token = q
		}
		if token == "" {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "missing auth"})
		}
		claims, err := jv.Validate(token)
		if err != nil {
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
		}
		c.Locals("caller", identity.Caller{ID: claims.UserID, Email: claims.Email, Name: claims.Name})
		return c.Next()
	}
}

func callerFrom(c *fiber.Ctx) identity.Caller {
	caller, _ := c.Locals("caller").(identity.Caller)
	return caller
}
