package controllers

import (
	"context"
	"errors"
	"log"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/donorops/donorops/app/repository"
	"github.com/donorops/donorops/internal/pkg/metrics/counter"
	"github.com/donorops/donorops/internal/pkg/webhooks"
)

// WebhookController exposes the inbound webhook endpoints. Trust is
// established by payload signature verification, never by middleware.
type WebhookController struct {
	router       *webhooks.Router
	logs         repository.WebhookLogRepository
	processorIDs map[string]uint
}

// NewWebhookController creates a webhook controller. processorIDs maps
// processor type keys to their configured processor row, used only for the
// per-processor counters.
func NewWebhookController(router *webhooks.Router, logs repository.WebhookLogRepository, processorIDs map[string]uint) *WebhookController {
	return &WebhookController{router: router, logs: logs, processorIDs: processorIDs}
}

// HandleGenericWebhook serves POST /api/v1/webhooks/:processor.
func (wc *WebhookController) HandleGenericWebhook(c *fiber.Ctx) error {
	return wc.handle(c, normalizeProcessorType(c.Params("processor")))
}

// HandlerFor returns a fiber handler with the processor type pre-filled,
// used for the per-processor convenience routes.
func (wc *WebhookController) HandlerFor(processorType string) fiber.Handler {
	processorType = normalizeProcessorType(processorType)
	return func(c *fiber.Ctx) error {
		return wc.handle(c, processorType)
	}
}

func (wc *WebhookController) handle(c *fiber.Ctx, processorType string) error {
	rawBody := append([]byte(nil), c.BodyRaw()...)

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	result, err := wc.router.Handle(ctx, processorType, rawBody, func(name string) string {
		return strings.TrimSpace(c.Get(name))
	})
	if err != nil {
		switch {
		case errors.Is(err, webhooks.ErrNoHandler):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "unknown_processor", "message": err.Error()})
		case errors.Is(err, webhooks.ErrSignatureInvalid):
			return c.Status(fiber.StatusUnauthorized).JSON(fiber.Map{"error": "invalid_signature"})
		case errors.Is(err, webhooks.ErrPayloadParse):
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{"error": "invalid_payload", "message": err.Error()})
		default:
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "processing_failed", "message": err.Error()})
		}
	}

	if id, ok := wc.processorIDs[processorType]; ok {
		if err := counter.AddWebhookProcessed(id); err != nil {
			log.Printf("webhook counter increment failed for %s: %v", processorType, err)
		}
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{
		"success": true,
		"message": "webhook processed",
		"result":  result,
	})
}

// HandleListWebhookLogs serves GET /api/v1/webhooks/logs for operators
// auditing delivery history. An optional processor_type query filters by
// processor.
func (wc *WebhookController) HandleListWebhookLogs(c *fiber.Ctx) error {
	offset, limit := parsePagination(c)
	processorType := normalizeProcessorType(c.Query("processor_type"))

	entries, err := wc.logs.ListByProcessor(processorType, offset, limit)
	if err != nil {
		log.Printf("webhook log listing failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	total, err := wc.logs.Count()
	if err != nil {
		log.Printf("webhook log count failed: %v", err)
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{"error": "listing_failed"})
	}
	return c.JSON(fiber.Map{"webhook_logs": entries, "total": total, "offset": offset, "limit": limit})
}
