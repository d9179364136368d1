package main

import (
	"fmt"
	"log"
	"strings"
	"time"

	"github.com/gofiber/contrib/swagger"
	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/basicauth"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/monitor"
	"github.com/gofiber/fiber/v2/middleware/recover"

	"github.com/donorops/donorops/app/controllers"
	"github.com/donorops/donorops/app/models"
	"github.com/donorops/donorops/app/repository"
	"github.com/donorops/donorops/internal/pkg/cache"
	"github.com/donorops/donorops/internal/pkg/credentials"
	"github.com/donorops/donorops/internal/pkg/database"
	"github.com/donorops/donorops/internal/pkg/env"
	"github.com/donorops/donorops/internal/pkg/metrics/counter"
	"github.com/donorops/donorops/internal/pkg/notifications"
	"github.com/donorops/donorops/internal/pkg/payments"
	"github.com/donorops/donorops/internal/pkg/router"
	"github.com/donorops/donorops/internal/pkg/webhooks"
)

const counterFlushInterval = 60 * time.Second

func main() {
	app := NewApplication()
	err := app.Listen(fmt.Sprintf("%s:%s", env.GetEnv("APP_HOST", "localhost"), env.GetEnv("APP_PORT", "4000")))
	log.Fatal(err)
}

func NewApplication() *fiber.App {
	env.SetupEnvFile()
	database.SetupDatabase()
	cache.SetupCache()
	repository.InitializeFactory(database.GetDB())

	repos := repository.GetGlobalRepositories()

	credStore, err := credentials.NewStore(repos.Processor, env.GetEnv("APP_SECRET", ""))
	if err != nil {
		panic(fmt.Sprintf("credential store setup failed: %v", err))
	}

	feeEngine := payments.NewFeeEngine(repos.FeePolicy, repos.Processor, cache.NewStore())

	adapterRegistry := payments.NewAdapterRegistry(credStore)
	adapterRegistry.Register(models.ProcessorTypeStripe, payments.NewStripeAdapter)
	adapterRegistry.Register(models.ProcessorTypePayPal, payments.NewPayPalAdapter)

	manager := payments.NewManager(
		repos.Processor,
		repos.Transaction,
		feeEngine,
		adapterRegistry,
		repos.Pledge,
		notifications.NewMailer(),
	)

	webhookRegistry, processorIDs := buildWebhookRegistry(repos, credStore)
	webhookRouter := webhooks.NewRouter(webhookRegistry, repos.WebhookLog)

	paymentController := controllers.NewPaymentController(manager, feeEngine, repos.Processor, repos.Transaction)
	webhookController := controllers.NewWebhookController(webhookRouter, repos.WebhookLog, processorIDs)

	go flushCountersLoop()

	// init fiber app
	app := fiber.New(fiber.Config{
		BodyLimit: 1 << 20, // webhook payloads are small; 1 MiB is generous
	})

	// recovery and logging
	app.Use(recover.New(), logger.New())

	// fiber metrics
	app.Get("/metrics", basicauth.New(basicauth.Config{
		Users: map[string]string{
			env.GetEnv("METRICS_USER", "admin"): env.GetEnv("METRICS_PASSWORD", "admin"),
		},
	}), monitor.New())

	// SWAGGER / OPENAPI
	openAPICfg := swagger.Config{
		BasePath: "/docs/api/",
		FilePath: "./public/docs/v1/openapi.yml",
		Path:     "v1",
	}
	app.Use(swagger.New(openAPICfg))

	// ROUTER
	apiRouter := router.NewApiRouter(paymentController, webhookController, webhookRegistry.Types())
	router.InstallRouter(app, apiRouter)

	return app
}

// buildWebhookRegistry registers a webhook handler for every active
// processor whose credentials carry a webhook secret. The first processor of
// each type (by display order) wins.
func buildWebhookRegistry(repos *repository.Repositories, credStore *credentials.Store) (*webhooks.Registry, map[string]uint) {
	registry := webhooks.NewRegistry()
	processorIDs := make(map[string]uint)

	processors, err := repos.Processor.GetActive("")
	if err != nil {
		log.Printf("webhook setup: loading processors failed: %v", err)
		return registry, processorIDs
	}

	for _, p := range processors {
		// Stored types may vary in case; match the lookup normalization the
		// webhook controller and registry apply.
		ptype := strings.ToLower(strings.TrimSpace(p.ProcessorType))
		if _, registered := registry.Get(ptype); registered {
			continue
		}
		creds, err := credStore.GetProcessorConfig(p.ID)
		if err != nil {
			log.Printf("webhook setup: credentials for processor %d unavailable: %v", p.ID, err)
			continue
		}
		secret := creds["webhook_secret"]
		if secret == "" {
			log.Printf("webhook setup: processor %d (%s) has no webhook_secret, skipping", p.ID, p.ProcessorType)
			continue
		}

		var handler webhooks.Handler
		switch ptype {
		case models.ProcessorTypeStripe:
			handler = webhooks.NewStripeHandler(p.ID, secret, repos.Transaction)
		case models.ProcessorTypePayPal:
			handler = webhooks.NewPayPalHandler(p.ID, secret, repos.Transaction)
		default:
			log.Printf("webhook setup: no handler implementation for processor type %q", p.ProcessorType)
			continue
		}

		if err := registry.Register(ptype, handler); err != nil {
			log.Printf("webhook setup: registering %s handler failed: %v", ptype, err)
			continue
		}
		processorIDs[ptype] = p.ID
	}

	return registry, processorIDs
}

func flushCountersLoop() {
	ticker := time.NewTicker(counterFlushInterval)
	defer ticker.Stop()
	for range ticker.C {
		if err := counter.FlushAll(); err != nil {
			log.Printf("counter flush error: %v", err)
		}
	}
}
