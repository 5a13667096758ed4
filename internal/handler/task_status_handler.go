package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codegrade/codegrade-api/internal/service"
	"github.com/codegrade/codegrade-api/internal/utils"
)

// TaskStatusHandler exposes the grading-task polling endpoint.
type TaskStatusHandler struct {
	service service.TaskStatusService
	logger  zerolog.Logger
}

// NewTaskStatusHandler constructs the handler.
func NewTaskStatusHandler(service service.TaskStatusService, logger zerolog.Logger) *TaskStatusHandler {
	return &TaskStatusHandler{
		service: service,
		logger:  logger.With().Str("component", "task_status_handler").Logger(),
	}
}

// Register attaches the status endpoint to the api group.
func (h *TaskStatusHandler) Register(api fiber.Router) {
	api.Get("/status/:task_id", h.status)
}

func (h *TaskStatusHandler) status(c *fiber.Ctx) error {
	status, err := h.service.Status(c.Context(), c.Params("task_id"))
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "task status retrieved", status)
}
