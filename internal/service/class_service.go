package service

import (
	"context"
	"errors"

	"github.com/go-playground/validator/v10"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
)

// Sentinel errors for class management.
var (
	ErrClassIdentifierTaken   = errors.New("a class with this identifier already exists")
	ErrStudentIdentifierTaken = errors.New("a student with this identifier is already enrolled")
)

// ClassService exposes teacher-side roster management.
type ClassService interface {
	Create(ctx context.Context, payload dto.ClassCreateRequest) (dto.ClassResponse, error)
	Get(ctx context.Context, identifier string) (dto.ClassResponse, error)
	Delete(ctx context.Context, identifier string) error
	Enroll(ctx context.Context, classIdentifier string, payload dto.StudentEnrollRequest) (dto.StudentResponse, error)
}

type classService struct {
	classes   repository.ClassRepository
	students  repository.StudentRepository
	problems  ProblemService
	validator *validator.Validate
	logger    zerolog.Logger
}

// NewClassService builds the class service. Problem deletion is delegated so
// a class teardown reuses the problem-level blob sweep.
func NewClassService(
	classes repository.ClassRepository,
	students repository.StudentRepository,
	problems ProblemService,
	validate *validator.Validate,
	logger zerolog.Logger,
) ClassService {
	return &classService{
		classes:   classes,
		students:  students,
		problems:  problems,
		validator: validate,
		logger:    logger.With().Str("component", "class_service").Logger(),
	}
}

func (s *classService) Create(ctx context.Context, payload dto.ClassCreateRequest) (dto.ClassResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.ClassResponse{}, err
	}

	if _, err := s.classes.GetByIdentifier(ctx, payload.Identifier); err == nil {
		return dto.ClassResponse{}, ErrClassIdentifierTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.ClassResponse{}, err
	}

	class := models.Class{
		Identifier:  payload.Identifier,
		Name:        payload.Name,
		Description: payload.Description,
	}
	if err := s.classes.Create(ctx, &class); err != nil {
		return dto.ClassResponse{}, err
	}

	s.logger.Info().Str("identifier", class.Identifier).Msg("class created")
	return dto.NewClassResponse(class), nil
}

func (s *classService) Get(ctx context.Context, identifier string) (dto.ClassResponse, error) {
	class, err := s.classes.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.ClassResponse{}, ErrClassNotFound
		}
		return dto.ClassResponse{}, err
	}

	return dto.NewClassResponse(class), nil
}

// Delete tears the class down problem by problem so every test-case and
// submission blob is swept, then removes the roster.
func (s *classService) Delete(ctx context.Context, identifier string) error {
	class, err := s.classes.GetByIdentifier(ctx, identifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrClassNotFound
		}
		return err
	}

	problems, err := s.problems.List(ctx, identifier)
	if err != nil {
		return err
	}
	for _, problem := range problems {
		if err := s.problems.Delete(ctx, problem.ID); err != nil {
			return err
		}
	}

	if err := s.classes.Delete(ctx, class.ID); err != nil {
		return err
	}

	s.logger.Info().Str("identifier", identifier).Msg("class deleted")
	return nil
}

func (s *classService) Enroll(ctx context.Context, classIdentifier string, payload dto.StudentEnrollRequest) (dto.StudentResponse, error) {
	if err := s.validator.Struct(payload); err != nil {
		return dto.StudentResponse{}, err
	}

	class, err := s.classes.GetByIdentifier(ctx, classIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.StudentResponse{}, ErrClassNotFound
		}
		return dto.StudentResponse{}, err
	}

	if _, err := s.students.GetByIdentifierAndClass(ctx, payload.Identifier, class.ID); err == nil {
		return dto.StudentResponse{}, ErrStudentIdentifierTaken
	} else if !errors.Is(err, gorm.ErrRecordNotFound) {
		return dto.StudentResponse{}, err
	}

	student := models.Student{
		Identifier: payload.Identifier,
		Name:       payload.Name,
		ClassID:    class.ID,
	}
	if err := s.students.Create(ctx, &student); err != nil {
		return dto.StudentResponse{}, err
	}

	s.logger.Info().Str("class", classIdentifier).Str("student", student.Identifier).Msg("student enrolled")
	return dto.NewStudentResponse(student), nil
}
