package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/gabriel-vasile/mimetype"
	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
)

// Sentinel errors surfaced to the HTTP layer.
var (
	ErrClassNotFound          = errors.New("class not found")
	ErrStudentNotFound        = errors.New("student not found")
	ErrSubmissionNotFound     = errors.New("submission not found")
	ErrProblemHidden          = errors.New("problem is not visible")
	ErrSubmissionsClosed      = errors.New("problem no longer accepts submissions")
	ErrAlreadySubmitted       = errors.New("problem allows a single submission per student")
	ErrLanguageNotAllowed     = errors.New("language is not enabled for this problem")
	ErrWrongFileType          = errors.New("file is not a plain-text source file")
	ErrWrongFileExtension     = errors.New("file extension does not match the chosen language")
	ErrSubmissionNotDecodable = errors.New("file is not valid UTF-8")
)

// SubmitInput is one upload attempt.
type SubmitInput struct {
	ClassIdentifier   string
	ProblemIdentifier string
	StudentIdentifier string
	LanguageNumber    int
	FileName          string
	File              []byte
}

// SubmissionService accepts uploads and exposes submission views.
type SubmissionService interface {
	Submit(ctx context.Context, input SubmitInput) (dto.SubmitResponse, error)
	GetByTaskID(ctx context.Context, taskID string) (dto.SubmissionResponse, error)
	ListForProblem(ctx context.Context, problemID uint) ([]dto.SubmissionResponse, error)
}

type submissionService struct {
	classes     repository.ClassRepository
	students    repository.StudentRepository
	problems    repository.ProblemRepository
	languages   repository.LanguageRepository
	submissions repository.SubmissionRepository
	blobs       BlobStore
	grading     GradingService
	keys        BlobKeys
	presignTTL  time.Duration
	logger      zerolog.Logger
}

// BlobKeys derives object-store keys for submission code blobs.
type BlobKeys interface {
	SubmissionKey(classID, problemID, studentID uint, taskID, extension string) string
}

// NewSubmissionService builds the submission service.
func NewSubmissionService(
	classes repository.ClassRepository,
	students repository.StudentRepository,
	problems repository.ProblemRepository,
	languages repository.LanguageRepository,
	submissions repository.SubmissionRepository,
	blobs BlobStore,
	grading GradingService,
	keys BlobKeys,
	presignTTL time.Duration,
	logger zerolog.Logger,
) SubmissionService {
	if presignTTL <= 0 {
		presignTTL = time.Hour
	}
	return &submissionService{
		classes:     classes,
		students:    students,
		problems:    problems,
		languages:   languages,
		submissions: submissions,
		blobs:       blobs,
		grading:     grading,
		keys:        keys,
		presignTTL:  presignTTL,
		logger:      logger.With().Str("component", "submission_service").Logger(),
	}
}

func (s *submissionService) Submit(ctx context.Context, input SubmitInput) (dto.SubmitResponse, error) {
	class, err := s.classes.GetByIdentifier(ctx, input.ClassIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrClassNotFound
		}
		return dto.SubmitResponse{}, err
	}

	problem, err := s.problems.GetByIdentifier(ctx, class.ID, input.ProblemIdentifier)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrProblemNotFound
		}
		return dto.SubmitResponse{}, err
	}

	student, err := s.students.GetByIdentifierAndClass(ctx, input.StudentIdentifier, class.ID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrStudentNotFound
		}
		return dto.SubmitResponse{}, err
	}

	if !problem.Visible {
		return dto.SubmitResponse{}, ErrProblemHidden
	}
	if !problem.AllowMoreSubmissions {
		return dto.SubmitResponse{}, ErrSubmissionsClosed
	}
	if !problem.AllowMultipleSubmissions {
		count, err := s.submissions.CountForProblemAndStudent(ctx, problem.ID, student.ID)
		if err != nil {
			return dto.SubmitResponse{}, err
		}
		if count > 0 {
			return dto.SubmitResponse{}, ErrAlreadySubmitted
		}
	}

	language, err := s.languages.GetByNumber(ctx, input.LanguageNumber)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmitResponse{}, ErrLanguageNotAllowed
		}
		return dto.SubmitResponse{}, err
	}
	if !problem.AllowsLanguage(language.Number) {
		return dto.SubmitResponse{}, ErrLanguageNotAllowed
	}

	if err := checkSourceFile(input.FileName, input.File, language.FileExtension); err != nil {
		return dto.SubmitResponse{}, err
	}

	taskID := uuid.NewString()
	key := s.keys.SubmissionKey(class.ID, problem.ID, student.ID, taskID, language.FileExtension)

	if err := s.blobs.Put(ctx, key, input.File, "text/plain"); err != nil {
		return dto.SubmitResponse{}, fmt.Errorf("failed to store submission: %w", err)
	}

	submission := models.Submission{
		TaskID:     taskID,
		CodeKey:    key,
		CodeSize:   int64(len(input.File)),
		ProblemID:  problem.ID,
		StudentID:  student.ID,
		LanguageID: language.ID,
	}

	if !problem.AutoGrade {
		// Trusted hand-in: full marks immediately, no judge round trip and no
		// per-case result rows.
		marks := float64(problem.TotalMarks)
		submission.Marks = &marks
		submission.Done = true
		if err := s.submissions.Create(ctx, &submission); err != nil {
			s.discardBlob(ctx, key)
			return dto.SubmitResponse{}, err
		}

		s.logger.Info().Uint("submission_id", submission.ID).Msg("submission accepted without grading")
		return dto.SubmitResponse{SubmissionID: submission.ID, Marks: submission.Marks}, nil
	}

	if err := s.submissions.Create(ctx, &submission); err != nil {
		s.discardBlob(ctx, key)
		return dto.SubmitResponse{}, err
	}

	job := GradingJob{
		TaskID:         taskID,
		SubmissionID:   submission.ID,
		ProblemID:      problem.ID,
		LanguageNumber: language.Number,
		SourceCode:     string(input.File),
	}
	if err := s.grading.Enqueue(ctx, job); err != nil {
		if deleteErr := s.submissions.Delete(ctx, submission.ID); deleteErr != nil {
			s.logger.Warn().Err(deleteErr).Uint("submission_id", submission.ID).Msg("failed to roll back submission")
		}
		s.discardBlob(ctx, key)
		return dto.SubmitResponse{}, fmt.Errorf("failed to enqueue grading: %w", err)
	}

	s.logger.Info().Str("task_id", taskID).Uint("submission_id", submission.ID).Msg("submission enqueued for grading")
	return dto.SubmitResponse{SubmissionID: submission.ID, TaskID: taskID, AutoGraded: true}, nil
}

func (s *submissionService) GetByTaskID(ctx context.Context, taskID string) (dto.SubmissionResponse, error) {
	submission, err := s.submissions.GetByTaskID(ctx, taskID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return dto.SubmissionResponse{}, ErrSubmissionNotFound
		}
		return dto.SubmissionResponse{}, err
	}

	codeURL, err := s.blobs.PresignRead(ctx, submission.CodeKey, s.presignTTL)
	if err != nil {
		s.logger.Warn().Err(err).Str("key", submission.CodeKey).Msg("failed to presign code download")
		codeURL = ""
	}

	return dto.NewSubmissionResponse(submission, codeURL), nil
}

func (s *submissionService) ListForProblem(ctx context.Context, problemID uint) ([]dto.SubmissionResponse, error) {
	submissions, err := s.submissions.ListForProblem(ctx, problemID)
	if err != nil {
		return nil, err
	}

	responses := make([]dto.SubmissionResponse, 0, len(submissions))
	for _, submission := range submissions {
		responses = append(responses, dto.NewSubmissionResponse(submission, ""))
	}
	return responses, nil
}

func (s *submissionService) discardBlob(ctx context.Context, key string) {
	if err := s.blobs.Delete(ctx, key); err != nil {
		s.logger.Warn().Err(err).Str("key", key).Msg("failed to discard submission blob")
	}
}

// checkSourceFile rejects anything that is not a plain-text source file with
// the extension the chosen language expects.
func checkSourceFile(name string, data []byte, extension string) error {
	if len(data) == 0 {
		return ErrWrongFileType
	}

	got := strings.ToLower(strings.TrimPrefix(filepath.Ext(name), "."))
	if got != strings.ToLower(extension) {
		return ErrWrongFileExtension
	}

	detected := mimetype.Detect(data)
	if !strings.HasPrefix(detected.String(), "text/") {
		return ErrWrongFileType
	}

	if !utf8.Valid(data) {
		return ErrSubmissionNotDecodable
	}

	return nil
}
