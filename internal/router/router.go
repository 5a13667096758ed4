package router

import (
	"github.com/gofiber/fiber/v2"

	"github.com/codegrade/codegrade-api/internal/config"
	"github.com/codegrade/codegrade-api/internal/handler"
	"github.com/codegrade/codegrade-api/internal/observability"
)

// Dependencies groups router dependencies for registration.
type Dependencies struct {
	ClassHandler      *handler.ClassHandler
	ProblemHandler    *handler.ProblemHandler
	SubmissionHandler *handler.SubmissionHandler
	TaskStatusHandler *handler.TaskStatusHandler
	LanguageHandler   *handler.LanguageHandler
}

// Register wires the HTTP routes into the fiber application.
func Register(app *fiber.App, cfg config.Config, deps Dependencies) {
	api := app.Group("/api/v1", func(c *fiber.Ctx) error {
		c.Set("X-Application", cfg.AppName)
		return c.Next()
	})
	api.Get("/health", handler.HealthCheck(cfg))
	app.Get("/metrics", observability.MetricsHandler())

	if deps.ClassHandler != nil {
		classes := api.Group("/classes")
		deps.ClassHandler.Register(classes)
	}

	if deps.LanguageHandler != nil {
		languages := api.Group("/languages")
		deps.LanguageHandler.Register(languages)
	}

	// Problem, submission and status routes hang off mixed prefixes, so they
	// register against the version group directly.
	if deps.ProblemHandler != nil {
		deps.ProblemHandler.Register(api)
	}
	if deps.SubmissionHandler != nil {
		deps.SubmissionHandler.Register(api)
	}
	if deps.TaskStatusHandler != nil {
		deps.TaskStatusHandler.Register(api)
	}
}
