// Package main provides the Containerflow API server implementation.
package main

import (
	"log/slog"
	"strconv"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/cors"
	"github.com/gofiber/fiber/v3/middleware/healthcheck"
	"github.com/gofiber/fiber/v3/middleware/logger"

	"github.com/reporunner/containerflow/pkg/eventbus"
	"github.com/reporunner/containerflow/pkg/executor"
	"github.com/reporunner/containerflow/pkg/persistence"
	"github.com/reporunner/containerflow/pkg/registry"
	"github.com/reporunner/containerflow/pkg/services"
	"github.com/reporunner/containerflow/pkg/web"
)

type API struct {
	logger      *slog.Logger
	persistence persistence.Persistence
	registry    *registry.Registry
	eventBus    eventbus.EventBus
	executor    *executor.Executor
	validate    *validator.Validate
	detach      func()
}

func NewAPI(
	logger *slog.Logger,
	persist persistence.Persistence,
	reg *registry.Registry,
	eventBus eventbus.EventBus,
	workerID string,
	execOpts ...executor.Option,
) *API {
	exec := executor.NewExecutor(logger, execOpts...)
	bridge := eventbus.NewBridge(eventBus, logger, workerID)

	return &API{
		logger:      logger,
		persistence: persist,
		registry:    reg,
		eventBus:    eventBus,
		executor:    exec,
		validate:    validator.New(validator.WithRequiredStructEnabled()),
		detach:      bridge.Attach(exec),
	}
}

func (a *API) App() *fiber.App {
	definitionService := services.NewDefinition(a.persistence)
	runner := services.NewRunner(a.executor, a.registry, a.persistence, a.logger)

	handlers := web.NewAPIHandlers(definitionService, runner, a.validate, a.registry)

	app := fiber.New()
	app.Use(cors.New())
	app.Use(logger.New(logger.Config{
		DisableColors: true,
	}))

	app.Get(healthcheck.DefaultLivenessEndpoint, healthcheck.NewHealthChecker())
	app.Get(healthcheck.DefaultReadinessEndpoint, healthcheck.NewHealthChecker())

	app.Get("/", func(c fiber.Ctx) error {
		return c.SendString("Containerflow API")
	})

	containers := app.Group("/containers")
	containers.Get("/", handlers.GetDefinitions)
	containers.Post("/", handlers.CreateDefinition)
	containers.Get("/:id", handlers.GetDefinition)
	containers.Delete("/:id", handlers.DeleteDefinition)
	containers.Post("/:id/run", handlers.RunContainer)
	containers.Get("/:id/state", handlers.GetContainerState)
	containers.Post("/:id/stop", handlers.StopContainer)
	containers.Delete("/:id/state", handlers.ClearContainerState)
	containers.Get("/:id/executions", handlers.GetExecutions)

	app.Get("/children", handlers.GetChildTypes)
	app.Get("/health", handlers.HealthCheck)

	return app
}

func (a *API) Start(port int) error {
	app := a.App()

	return app.Listen(":" + strconv.Itoa(port))
}

func (a *API) Shutdown() {
	if a.detach != nil {
		a.detach()
	}
}
