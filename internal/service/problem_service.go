package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/microcosm-cc/bluemonday"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
)

// Sentinel errors for problem management.
var (
	ErrProblemNotFound         = errors.New("problem not found")
	ErrProblemIdentifierTaken  = errors.New("a problem with this identifier already exists in the class")
	ErrAutoGradeNeedsTestCases = errors.New("auto-graded problems need at least one test case")
	ErrTooManyTestCases        = errors.New("problem already has the maximum number of test cases")
	ErrUnknownLanguage         = errors.New("unknown judge language number")
)

// TestCaseKeys derives object-store keys for test-case blobs.
type TestCaseKeys interface {
	TestCaseInputKey(classID, problemID uint, n int) string
	TestCaseOutputKey(classID, problemID uint, n int) string
}

// ProblemService exposes teacher-side problem management.
type ProblemService interface {
	Create(ctx context.Context, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error)
	Get(ctx context.Context, classIdentifier, identifier string) (dto.ProblemResponse, error)
	List(ctx context.Context, classIdentifier string) ([]dto.ProblemResponse, error)
	Update(ctx context.Context, id uint, payload dto.ProblemUpdateRequest) (dto.ProblemResponse, error)
	Delete(ctx context.Context, id uint) error
	AddTestCase(ctx context.Context, problemID uint, input, output []byte) (dto.TestCaseResponse, error)
}

type problemService struct {
	classes     repository.ClassRepository
	problems    repository.ProblemRepository
	languages   repository.LanguageRepository
	submissions repository.SubmissionRepository
	blobs       BlobStore
	keys        TestCaseKeys
	validator   *validator.Validate
	sanitizer   *bluemonday.Policy
	logger      zerolog.Logger
}

// NewProblemService builds the problem service.
func NewProblemService(
	classes repository.ClassRepository,
	problems repository.ProblemRepository,
	languages repository.LanguageRepository,
	submissions repository.SubmissionRepository,
	blobs BlobStore,
	keys TestCaseKeys,
	validate *validator.Validate,
	logger zerolog.Logger,
) ProblemService {
	return &problemService{
		classes:     classes,
		problems:    problems,
		languages:   languages,
		submissions: submissions,
		blobs:       blobs,
		keys:        keys,
		validator:   validate,
		sanitizer:   bluemonday.UGCPolicy(),
		logger:      logger.With().Str("component", "problem_service").Logger(),
	}
}

func (s *problemService) Create(ctx context.Context, payload dto.ProblemCreateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}
	if payload.AutoGrade && len(payload.TestCases) == 0 {
		return dto.ProblemResponse{}, ErrAutoGradeNeedsTestCases
	}

	class, err := s.classes.GetByIdentifier(ctx, payload.ClassIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrClassNotFound
		}
		return dto.ProblemResponse{}, err
	}

	if _, err := s.problems.GetByIdentifier(ctx, class.ID, payload.Identifier); err == nil {
		return dto.ProblemResponse{}, ErrProblemIdentifierTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ProblemResponse{}, err
	}

	languages := make([]models.Language, 0, len(payload.LanguageNumbers))
	for _, number := range payload.LanguageNumbers {
		language, err := s.languages.GetByNumber(ctx, number)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return dto.ProblemResponse{}, fmt.Errorf("%w: %d", ErrUnknownLanguage, number)
			}
			return dto.ProblemResponse{}, err
		}
		languages = append(languages, language)
	}

	problem := models.Problem{
		Identifier:               payload.Identifier,
		Title:                    payload.Title,
		Description:              payload.Description,
		DescriptionHTML:          s.sanitizer.Sanitize(payload.DescriptionHTML),
		TimeLimit:                payload.TimeLimit,
		MemoryLimit:              payload.MemoryLimit,
		TotalMarks:               payload.TotalMarks,
		AutoGrade:                payload.AutoGrade,
		AllowMultipleSubmissions: payload.AllowMultipleSubmissions,
		AllowMoreSubmissions:     true,
		Visible:                  payload.Visible,
		ClassID:                  class.ID,
		Languages:                languages,
	}

	if err := s.problems.Create(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	for i, pair := range payload.TestCases {
		if _, err := s.storeTestCase(ctx, &problem, i+1, []byte(pair.Input), []byte(pair.Output)); err != nil {
			// Roll back the half-created problem so the teacher can retry the
			// whole form.
			if deleteErr := s.Delete(ctx, problem.ID); deleteErr != nil {
				s.logger.Warn().Err(deleteErr).Uint("problem_id", problem.ID).Msg("failed to roll back problem")
			}
			return dto.ProblemResponse{}, err
		}
	}

	created, err := s.problems.GetByID(ctx, problem.ID)
	if err != nil {
		return dto.ProblemResponse{}, err
	}

	s.logger.Info().Uint("problem_id", problem.ID).Str("identifier", problem.Identifier).Msg("problem created")
	return dto.NewProblemResponse(created), nil
}

func (s *problemService) Get(ctx context.Context, classIdentifier, identifier string) (dto.ProblemResponse, error) {
	class, err := s.classes.GetByIdentifier(ctx, classIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrClassNotFound
		}
		return dto.ProblemResponse{}, err
	}

	problem, err := s.problems.GetByIdentifier(ctx, class.ID, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	return dto.NewProblemResponse(problem), nil
}

func (s *problemService) List(ctx context.Context, classIdentifier string) ([]dto.ProblemResponse, error) {
	class, err := s.classes.GetByIdentifier(ctx, classIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrClassNotFound
		}
		return nil, err
	}

	problems, err := s.problems.List(ctx, class.ID)
	if err != nil {
		return nil, err
	}

	return dto.NewProblemResponseSlice(problems), nil
}

func (s *problemService) Update(ctx context.Context, id uint, payload dto.ProblemUpdateRequest) (dto.ProblemResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ProblemResponse{}, err
	}

	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ProblemResponse{}, ErrProblemNotFound
		}
		return dto.ProblemResponse{}, err
	}

	if payload.Title != nil {
		problem.Title = *payload.Title
	}
	if payload.Description != nil {
		problem.Description = *payload.Description
	}
	if payload.DescriptionHTML != nil {
		problem.DescriptionHTML = s.sanitizer.Sanitize(*payload.DescriptionHTML)
	}
	if payload.TimeLimit != nil {
		problem.TimeLimit = *payload.TimeLimit
	}
	if payload.MemoryLimit != nil {
		problem.MemoryLimit = *payload.MemoryLimit
	}
	if payload.TotalMarks != nil {
		problem.TotalMarks = *payload.TotalMarks
	}
	if payload.AllowMoreSubmissions != nil {
		problem.AllowMoreSubmissions = *payload.AllowMoreSubmissions
	}
	if payload.Visible != nil {
		problem.Visible = *payload.Visible
	}

	if err := s.problems.Update(ctx, &problem); err != nil {
		return dto.ProblemResponse{}, err
	}

	return dto.NewProblemResponse(problem), nil
}

// Delete removes the problem and everything under it. Relational rows go
// first so a blob-store hiccup can never leave results pointing at nothing;
// the blob sweep afterwards is best effort.
func (s *problemService) Delete(ctx context.Context, id uint) error {
	problem, err := s.problems.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrProblemNotFound
		}
		return err
	}

	submissions, err := s.submissions.ListForProblem(ctx, problem.ID)
	if err != nil {
		return err
	}

	keys := make([]string, 0, 2*len(problem.TestCases)+len(submissions))
	for _, testCase := range problem.TestCases {
		keys = append(keys, testCase.InputKey, testCase.OutputKey)
	}
	for _, submission := range submissions {
		keys = append(keys, submission.CodeKey)
	}

	if err := s.problems.Delete(ctx, problem.ID); err != nil {
		return err
	}

	for _, key := range keys {
		if err := s.blobs.Delete(ctx, key); err != nil {
			s.logger.Warn().Err(err).Str("key", key).Msg("failed to delete problem blob")
		}
	}

	s.logger.Info().Uint("problem_id", id).Msg("problem deleted")
	return nil
}

func (s *problemService) AddTestCase(ctx context.Context, problemID uint, input, output []byte) (dto.TestCaseResponse, error) {
	problem, err := s.problems.GetByID(ctx, problemID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.TestCaseResponse{}, ErrProblemNotFound
		}
		return dto.TestCaseResponse{}, err
	}
	if len(problem.TestCases) >= models.MaxTestCases {
		return dto.TestCaseResponse{}, ErrTooManyTestCases
	}

	testCase, err := s.storeTestCase(ctx, &problem, len(problem.TestCases)+1, input, output)
	if err != nil {
		return dto.TestCaseResponse{}, err
	}

	return dto.NewTestCaseResponse(testCase), nil
}

// storeTestCase uploads both blobs, then records the row. A failed row write
// leaves orphan blobs behind; the problem-delete sweep picks those up by key
// prefix convention when the problem goes.
func (s *problemService) storeTestCase(ctx context.Context, problem *models.Problem, number int, input, output []byte) (models.TestCase, error) {
	inputKey := s.keys.TestCaseInputKey(problem.ClassID, problem.ID, number)
	outputKey := s.keys.TestCaseOutputKey(problem.ClassID, problem.ID, number)

	if err := s.blobs.Put(ctx, inputKey, input, "text/plain"); err != nil {
		return models.TestCase{}, fmt.Errorf("failed to store test case input: %w", err)
	}
	if err := s.blobs.Put(ctx, outputKey, output, "text/plain"); err != nil {
		return models.TestCase{}, fmt.Errorf("failed to store test case output: %w", err)
	}

	testCase := models.TestCase{
		Number:     number,
		InputKey:   inputKey,
		OutputKey:  outputKey,
		InputSize:  int64(len(input)),
		OutputSize: int64(len(output)),
		ProblemID:  problem.ID,
	}
	if err := s.problems.AddTestCase(ctx, &testCase); err != nil {
		return models.TestCase{}, err
	}

	return testCase, nil
}
