package service

import (
	"context"
	"errors"

	"github.com/rs/zerolog"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/internal/task"
)

// TaskStatusService bridges the recorded grading outcomes to the polling
// students.
type TaskStatusService interface {
	Status(ctx context.Context, taskID string) (dto.TaskStatusResponse, error)
}

type taskStatusService struct {
	tasks       *task.Store
	submissions repository.SubmissionRepository
	blobs       BlobStore
	logger      zerolog.Logger
}

// NewTaskStatusService builds the status bridge.
func NewTaskStatusService(
	tasks *task.Store,
	submissions repository.SubmissionRepository,
	blobs BlobStore,
	logger zerolog.Logger,
) TaskStatusService {
	return &taskStatusService{
		tasks:       tasks,
		submissions: submissions,
		blobs:       blobs,
		logger:      logger.With().Str("component", "task_status_service").Logger(),
	}
}

func (s *taskStatusService) Status(ctx context.Context, taskID string) (dto.TaskStatusResponse, error) {
	outcome, err := s.tasks.Get(ctx, taskID)
	if err != nil {
		if errors.Is(err, task.ErrTaskNotFound) {
			// An unknown task id and a run that has not recorded anything yet
			// look the same to the poller.
			return dto.TaskStatusResponse{State: task.StatePending}, nil
		}
		return dto.TaskStatusResponse{}, err
	}

	switch outcome.State {
	case task.StateSuccess:
		summary := task.Summary{}
		if outcome.Summary != nil {
			summary = *outcome.Summary
		}
		// The aggregate is re-read from the submission row so a manual
		// override that landed after grading wins over the cached summary.
		if submission, err := s.submissions.GetByID(ctx, outcome.SubmissionID); err == nil && submission.Marks != nil {
			summary.TotalMarksEarned = *submission.Marks
		}
		return dto.TaskStatusResponse{State: task.StateSuccess, Result: &summary}, nil

	case task.StateError:
		s.cleanup(ctx, outcome.SubmissionID)
		message := outcome.Message
		if message == "" {
			message = GradingFailureMessage
		}
		return dto.TaskStatusResponse{State: task.StateError, Message: message}, nil

	default:
		return dto.TaskStatusResponse{State: task.StatePending}, nil
	}
}

// cleanup removes the submission a failed run left behind so the student can
// submit again even on single-submission problems. The row goes first; the
// blob sweep is best effort and a repeat poll retries it harmlessly.
func (s *taskStatusService) cleanup(ctx context.Context, submissionID uint) {
	submission, err := s.submissions.GetByID(ctx, submissionID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to load submission for cleanup")
		}
		return
	}

	if err := s.submissions.Delete(ctx, submission.ID); err != nil {
		s.logger.Warn().Err(err).Uint("submission_id", submissionID).Msg("failed to delete failed submission")
		return
	}

	if err := s.blobs.Delete(ctx, submission.CodeKey); err != nil {
		s.logger.Warn().Err(err).Str("key", submission.CodeKey).Msg("failed to delete submission blob")
	}

	s.logger.Info().Uint("submission_id", submissionID).Msg("failed submission cleaned up")
}
