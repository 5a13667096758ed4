package handler

import (
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/service"
	"github.com/codegrade/codegrade-api/internal/utils"
)

// ProblemHandler wires problem management HTTP routes.
type ProblemHandler struct {
	service  service.ProblemService
	maxBytes int64
	logger   zerolog.Logger
}

// NewProblemHandler constructs the handler. maxBytes bounds uploaded
// test-case files.
func NewProblemHandler(service service.ProblemService, maxBytes int64, logger zerolog.Logger) *ProblemHandler {
	return &ProblemHandler{
		service:  service,
		maxBytes: maxBytes,
		logger:   logger.With().Str("component", "problem_handler").Logger(),
	}
}

// Register attaches problem endpoints to the api group. The student-facing
// fetch lives under the class path; management routes key on the numeric id.
func (h *ProblemHandler) Register(api fiber.Router) {
	api.Post("/problems", h.create)
	api.Get("/problems", h.list)
	api.Get("/classes/:class/problems/:identifier", h.get)
	api.Patch("/problems/:id", h.update)
	api.Delete("/problems/:id", h.delete)
	api.Post("/problems/:id/test-cases", h.addTestCase)
}

func (h *ProblemHandler) create(c *fiber.Ctx) error {
	var payload dto.ProblemCreateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	problem, err := h.service.Create(c.Context(), payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "problem created", problem)
}

func (h *ProblemHandler) list(c *fiber.Ctx) error {
	class := c.Query("class")
	if class == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "class query parameter is required")
	}

	problems, err := h.service.List(c.Context(), class)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problems retrieved", problems)
}

func (h *ProblemHandler) get(c *fiber.Ctx) error {
	problem, err := h.service.Get(c.Context(), c.Params("class"), c.Params("identifier"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem retrieved", problem)
}

func (h *ProblemHandler) update(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.ProblemUpdateRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	problem, err := h.service.Update(c.Context(), id, payload)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem updated", problem)
}

func (h *ProblemHandler) delete(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	if err := h.service.Delete(c.Context(), id); err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "problem deleted", fiber.Map{"id": id})
}

func (h *ProblemHandler) addTestCase(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	inputHeader, err := c.FormFile("input")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "input file is required")
	}
	outputHeader, err := c.FormFile("output")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "output file is required")
	}

	input, err := readFormFile(inputHeader, h.maxBytes)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}
	output, err := readFormFile(outputHeader, h.maxBytes)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	testCase, err := h.service.AddTestCase(c.Context(), id, input, output)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendCreated(c, "test case added", testCase)
}

func (h *ProblemHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "class not found")
	case errors.Is(err, service.ErrProblemNotFound):
		return utils.SendError(c, fiber.StatusNotFound, "problem not found")
	case errors.Is(err, service.ErrProblemIdentifierTaken):
		return utils.SendError(c, fiber.StatusConflict, err.Error())
	case errors.Is(err, service.ErrAutoGradeNeedsTestCases),
		errors.Is(err, service.ErrTooManyTestCases),
		errors.Is(err, service.ErrUnknownLanguage):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
