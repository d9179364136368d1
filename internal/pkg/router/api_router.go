package router

import (
	"net"
	"strconv"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/gofiber/storage/redis"

	"github.com/donorops/donorops/app/controllers"
	"github.com/donorops/donorops/internal/pkg/cache"
	"github.com/donorops/donorops/internal/pkg/constants"
	"github.com/donorops/donorops/internal/pkg/env"
	"github.com/donorops/donorops/internal/pkg/middleware"
)

// ApiRouter installs the payment and webhook API. The rate limiter state
// lives in Redis so concurrent instances share one budget.
type ApiRouter struct {
	payments     *controllers.PaymentController
	webhooks     *controllers.WebhookController
	webhookTypes []string
}

func NewApiRouter(payments *controllers.PaymentController, webhooks *controllers.WebhookController, webhookTypes []string) *ApiRouter {
	return &ApiRouter{
		payments:     payments,
		webhooks:     webhooks,
		webhookTypes: webhookTypes,
	}
}

func (h *ApiRouter) InstallRouter(app *fiber.App) {
	api := app.Group(constants.APIRoute, limiter.New(limiter.Config{
		Max:     120,
		Storage: newLimiterStorage(),
	}))
	api.Get("/", func(ctx *fiber.Ctx) error {
		return ctx.Status(fiber.StatusOK).JSON(fiber.Map{
			"message": "Hello from api",
		})
	})

	v1 := api.Group(constants.APIv1Route)

	// Convenience webhook routes first so the generic :processor parameter
	// cannot shadow them.
	for _, t := range h.webhookTypes {
		v1.Post(constants.WebhooksRoute+"/"+t, h.webhooks.HandlerFor(t))
	}
	v1.Post(constants.WebhooksRoute+"/:processor", h.webhooks.HandleGenericWebhook)

	v1.Get(constants.PaymentsRoute+"/fees/compare", h.payments.HandleFeeComparison)
	v1.Get("/processors", h.payments.HandleListProcessors)
	v1.Get("/stats", h.payments.HandleStats)

	protected := v1.Group("", middleware.APIKeyAuthMiddleware())
	protected.Post(constants.PaymentsRoute, h.payments.HandleProcessPayment)
	protected.Get("/transactions", h.payments.HandleListTransactions)
	protected.Get(constants.WebhooksRoute+"/logs", h.webhooks.HandleListWebhookLogs)
}

// newLimiterStorage builds a Redis-backed fiber storage from the cache
// client configuration, using database 1 so limiter keys stay out of the
// cache keyspace.
func newLimiterStorage() *redis.Storage {
	host := "localhost"
	port := 6379
	password := env.GetEnv("CACHE_PASSWORD", "")
	if cacheClient := cache.GetClient(); cacheClient != nil {
		addr := cacheClient.Options().Addr
		if h, p, err := net.SplitHostPort(addr); err == nil {
			host = h
			if v, err := strconv.Atoi(p); err == nil {
				port = v
			}
		}
		if p := cacheClient.Options().Password; p != "" {
			password = p
		}
	}

	return redis.New(redis.Config{
		Host:     host,
		Port:     port,
		Password: password,
		Database: 1, // Separate database for limiter state
		Reset:    false,
	})
}
