package handler

import (
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codegrade/codegrade-api/internal/service"
	"github.com/codegrade/codegrade-api/internal/utils"
)

// LanguageHandler exposes the judge language catalogue.
type LanguageHandler struct {
	service service.LanguageService
	logger  zerolog.Logger
}

// NewLanguageHandler constructs the handler.
func NewLanguageHandler(service service.LanguageService, logger zerolog.Logger) *LanguageHandler {
	return &LanguageHandler{
		service: service,
		logger:  logger.With().Str("component", "language_handler").Logger(),
	}
}

// Register attaches language endpoints to the router group.
func (h *LanguageHandler) Register(router fiber.Router) {
	router.Get("", h.list)
}

func (h *LanguageHandler) list(c *fiber.Ctx) error {
	languages, err := h.service.List(c.Context())
	if err != nil {
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}

	return utils.SendSuccess(c, "languages retrieved", languages)
}
