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

// SubmissionHandler wires submission HTTP routes: the student upload path,
// submission views, and the teacher's manual-marking endpoint.
type SubmissionHandler struct {
	submissions service.SubmissionService
	grading     service.TeacherGradingService
	maxBytes    int64
	logger      zerolog.Logger
}

// NewSubmissionHandler constructs the handler. maxBytes bounds uploaded
// source files.
func NewSubmissionHandler(
	submissions service.SubmissionService,
	grading service.TeacherGradingService,
	maxBytes int64,
	logger zerolog.Logger,
) *SubmissionHandler {
	return &SubmissionHandler{
		submissions: submissions,
		grading:     grading,
		maxBytes:    maxBytes,
		logger:      logger.With().Str("component", "submission_handler").Logger(),
	}
}

// Register attaches submission endpoints to the api group.
func (h *SubmissionHandler) Register(api fiber.Router) {
	api.Post("/classes/:class/problems/:problem/submissions", h.submit)
	api.Get("/submissions/:task_id", h.get)
	api.Get("/problems/:id/submissions", h.list)
	api.Patch("/submissions/:id/marks", h.overrideMarks)
}

func (h *SubmissionHandler) submit(c *fiber.Ctx) error {
	languageNumber, err := parseFormInt(c, "language_number")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	fileHeader, err := c.FormFile("file")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "file is required")
	}
	data, err := readFormFile(fileHeader, h.maxBytes)
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	input := service.SubmitInput{
		ClassIdentifier:   c.Params("class"),
		ProblemIdentifier: c.Params("problem"),
		StudentIdentifier: c.FormValue("student"),
		LanguageNumber:    languageNumber,
		FileName:          fileHeader.Filename,
		File:              data,
	}
	if input.StudentIdentifier == "" {
		return utils.SendError(c, fiber.StatusBadRequest, "student is required")
	}

	response, err := h.submissions.Submit(c.Context(), input)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccessWithStatus(c, fiber.StatusAccepted, "submission accepted", response)
}

func (h *SubmissionHandler) get(c *fiber.Ctx) error {
	submission, err := h.submissions.GetByTaskID(c.Context(), c.Params("task_id"))
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submission retrieved", submission)
}

func (h *SubmissionHandler) list(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	submissions, err := h.submissions.ListForProblem(c.Context(), id)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "submissions retrieved", submissions)
}

func (h *SubmissionHandler) overrideMarks(c *fiber.Ctx) error {
	id, err := parseUintParam(c, "id")
	if err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	}

	var payload dto.OverrideMarksRequest
	if err := c.BodyParser(&payload); err != nil {
		return utils.SendError(c, fiber.StatusBadRequest, "invalid request body")
	}

	submission, err := h.grading.OverrideMarks(c.Context(), id, payload.Marks)
	if err != nil {
		return h.handleError(c, err)
	}

	return utils.SendSuccess(c, "marks updated", submission)
}

func (h *SubmissionHandler) handleError(c *fiber.Ctx, err error) error {
	var validationErrors validator.ValidationErrors
	switch {
	case errors.Is(err, service.ErrClassNotFound),
		errors.Is(err, service.ErrProblemNotFound),
		errors.Is(err, service.ErrStudentNotFound),
		errors.Is(err, service.ErrSubmissionNotFound):
		return utils.SendError(c, fiber.StatusNotFound, err.Error())
	case errors.Is(err, service.ErrProblemHidden),
		errors.Is(err, service.ErrSubmissionsClosed),
		errors.Is(err, service.ErrAlreadySubmitted):
		return utils.SendError(c, fiber.StatusForbidden, err.Error())
	case errors.Is(err, service.ErrLanguageNotAllowed),
		errors.Is(err, service.ErrWrongFileType),
		errors.Is(err, service.ErrWrongFileExtension),
		errors.Is(err, service.ErrSubmissionNotDecodable),
		errors.Is(err, service.ErrMarksOutOfRange):
		return utils.SendError(c, fiber.StatusBadRequest, err.Error())
	case errors.As(err, &validationErrors):
		return utils.SendError(c, fiber.StatusBadRequest, validationErrors.Error())
	default:
		h.logger.Error().Err(err).Msg("internal server error")
		return utils.SendError(c, fiber.StatusInternalServerError, "internal server error")
	}
}
