package api

import (
	"context"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/Musanse/shiteni-sub006/internal/apperr"
	"github.com/Musanse/shiteni-sub006/internal/cache"
	"github.com/Musanse/shiteni-sub006/internal/models"
	"github.com/Musanse/shiteni-sub006/internal/service"
)

const requestTimeout = 10 * time.Second

type Handlers struct {
	svc      *service.MessageService
	presence *cache.Client
}

func NewHandlers(svc *service.MessageService, presence *cache.Client) *Handlers {
	return &Handlers{svc: svc, presence: presence}
}

type sendRequest struct {
	TargetID    string `json:"target_id"`
	Content     string `json:"content"`
	MessageType string `json:"message_type"`
}

func (h *Handlers) sendMessage(c *fiber.Ctx) error {
	var body sendRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	m, err := h.svc.Send(ctx, callerFrom(c), body.TargetID, body.Content, models.MessageType(body.MessageType))
	if err != nil {
		return respondError(c, err)
	}
	return c.Status(fiber.StatusCreated).JSON(m)
}

func (h *Handlers) listConversations(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	sums, err := h.svc.ListConversations(ctx, callerFrom(c))
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(sums)
}

func (h *Handlers) listThread(c *fiber.Ctx) error {
	counterpartID := c.Params("counterpart_id")
	limit := int64(c.QueryInt("limit", 0))
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	msgs, err := h.svc.ListThread(ctx, callerFrom(c), counterpartID, limit)
	if err != nil {
		return respondError(c, err)
	}
	if msgs == nil {
		msgs = []*models.Message{}
	}
	return c.JSON(msgs)
}

type markReadRequest struct {
	MessageIDs []string `json:"message_ids"`
}

func (h *Handlers) markRead(c *fiber.Ctx) error {
	var body markReadRequest
	if err := c.BodyParser(&body); err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid body"})
	}
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	n, err := h.svc.MarkRead(ctx, callerFrom(c), body.MessageIDs)
	if err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"updated": n})
}

func (h *Handlers) removeMessage(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	if err := h.svc.Remove(ctx, callerFrom(c), c.Params("id")); err != nil {
		return respondError(c, err)
	}
	return c.JSON(fiber.Map{"status": "removed"})
}

func (h *Handlers) getPresence(c *fiber.Ctx) error {
	ctx, cancel := context.WithTimeout(c.Context(), requestTimeout)
	defer cancel()

	online, err := h.presence.GetPresence(ctx, c.Params("id"))
	if err != nil {
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": "presence unavailable"})
	}
	return c.JSON(fiber.Map{"online": online})
}

func respondError(c *fiber.Ctx, err error) error {
	switch {
	case apperr.IsValidation(err):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	case apperr.IsNotFound(err):
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case apperr.IsUnauthorized(err):
		return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": err.Error()})
	case apperr.IsStorage(err):
		return c.Status(fiber.StatusServiceUnavailable).JSON(fiber.Map{"error": err.Error(), "retryable": true})
	default:
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
	}
}
