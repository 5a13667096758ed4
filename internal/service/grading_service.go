package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/observability"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/internal/task"
	"github.com/codegrade/codegrade-api/pkg/judge0"
)

// GradingFailureMessage is the student-facing text recorded with a failed
// grading task.
const GradingFailureMessage = "An unexpected error occurred while grading your submission. Please submit again."

// ErrNoTestCases indicates a grading run was requested for a problem with no
// attached test cases.
var ErrNoTestCases = errors.New("problem has no test cases to grade against")

// BlobStore abstracts keyed blob access for code and test-case files.
type BlobStore interface {
	Put(ctx context.Context, key string, body []byte, contentType string) error
	Get(ctx context.Context, key string) ([]byte, error)
	Delete(ctx context.Context, key string) error
	PresignRead(ctx context.Context, key string, ttl time.Duration) (string, error)
}

// JudgeClient abstracts the remote code-execution service.
type JudgeClient interface {
	SubmitBatch(ctx context.Context, entries []judge0.Submission) ([]string, error)
	WaitForBatch(ctx context.Context, tokens []string, fields string) ([]judge0.Result, error)
}

// GradingJob carries everything a grading run needs. The source code is
// captured at submit time so the run never re-reads the blob it was born from.
type GradingJob struct {
	TaskID         string
	SubmissionID   uint
	ProblemID      uint
	LanguageNumber int
	SourceCode     string
}

// GradingService drives the asynchronous judge pipeline for one submission.
type GradingService interface {
	// Enqueue records the task as pending and starts the run in the
	// background. The caller returns to the student immediately.
	Enqueue(ctx context.Context, job GradingJob) error
	// Grade runs the pipeline synchronously and records the outcome. Exposed
	// so callers that already run off the request path can skip the goroutine.
	Grade(ctx context.Context, job GradingJob) error
}

type gradingService struct {
	problems    repository.ProblemRepository
	submissions repository.SubmissionRepository
	statuses    repository.StatusRepository
	tasks       *task.Store
	blobs       BlobStore
	judge       JudgeClient
	notifier    GradingNotifier
	runTimeout  time.Duration
	tracer      trace.Tracer
	logger      zerolog.Logger
}

// NewGradingService builds the grading orchestrator. A zero runTimeout
// defaults to 5m, which must exceed the judge client's poll deadline.
func NewGradingService(
	problems repository.ProblemRepository,
	submissions repository.SubmissionRepository,
	statuses repository.StatusRepository,
	tasks *task.Store,
	blobs BlobStore,
	judge JudgeClient,
	notifier GradingNotifier,
	runTimeout time.Duration,
	logger zerolog.Logger,
) GradingService {
	if runTimeout <= 0 {
		runTimeout = 5 * time.Minute
	}
	return &gradingService{
		problems:    problems,
		submissions: submissions,
		statuses:    statuses,
		tasks:       tasks,
		blobs:       blobs,
		judge:       judge,
		notifier:    notifier,
		runTimeout:  runTimeout,
		tracer:      otel.Tracer("grading-service"),
		logger:      logger.With().Str("component", "grading_service").Logger(),
	}
}

func (s *gradingService) Enqueue(ctx context.Context, job GradingJob) error {
	if err := s.tasks.SetPending(ctx, job.TaskID, job.SubmissionID); err != nil {
		return err
	}

	go func() {
		// Detached from the request context: the student's connection closing
		// must not cancel the run.
		runCtx, cancel := context.WithTimeout(context.Background(), s.runTimeout)
		defer cancel()

		if err := s.Grade(runCtx, job); err != nil {
			s.logger.Error().Err(err).Str("task_id", job.TaskID).Msg("grading run failed")
		}
	}()

	return nil
}

func (s *gradingService) Grade(ctx context.Context, job GradingJob) error {
	ctx, span := s.tracer.Start(ctx, "grading.run", trace.WithAttributes(
		attribute.String("task.id", job.TaskID),
		attribute.Int("submission.id", int(job.SubmissionID)),
	))
	defer span.End()

	start := time.Now()
	err := s.run(ctx, job)
	observability.GradingRunDuration().Observe(time.Since(start).Seconds())

	if err != nil {
		observability.GradingRuns().WithLabelValues("error").Inc()
		s.recordFailure(job)
		return err
	}

	observability.GradingRuns().WithLabelValues("success").Inc()
	return nil
}

func (s *gradingService) run(ctx context.Context, job GradingJob) error {
	problem, err := s.problems.GetByID(ctx, job.ProblemID)
	if err != nil {
		return fmt.Errorf("failed to load problem %d: %w", job.ProblemID, err)
	}
	if !problem.CanAutoGrade() {
		return ErrNoTestCases
	}

	submission, err := s.submissions.GetByID(ctx, job.SubmissionID)
	if err != nil {
		return fmt.Errorf("failed to load submission %d: %w", job.SubmissionID, err)
	}

	entries, err := s.buildBatch(ctx, problem, job)
	if err != nil {
		return err
	}

	tokens, err := s.judge.SubmitBatch(ctx, entries)
	if err != nil {
		return fmt.Errorf("batch dispatch failed: %w", err)
	}

	results, err := s.judge.WaitForBatch(ctx, tokens, judge0.DefaultFields)
	if err != nil {
		return fmt.Errorf("batch poll failed: %w", err)
	}
	if len(results) != len(problem.TestCases) {
		return fmt.Errorf("judge returned %d results for %d test cases", len(results), len(problem.TestCases))
	}

	verdicts := make([]int, len(results))
	for i, result := range results {
		verdicts[i] = result.Status.ID
	}
	scores, earned := scoreBatch(problem.TotalMarks, verdicts)

	rows, cases, err := s.assembleResults(ctx, problem, submission, results, scores)
	if err != nil {
		return err
	}

	submission.Marks = &earned
	submission.Done = true
	if err := s.submissions.SaveGrading(ctx, &submission, rows); err != nil {
		return fmt.Errorf("failed to persist grading: %w", err)
	}

	// The grading is committed. From here on nothing may return an error:
	// Grade would route it into recordFailure, and the status bridge deletes
	// the submission behind an ERROR outcome.
	summary := task.Summary{
		Submissions:      cases,
		TotalMarks:       problem.TotalMarks,
		TotalMarksEarned: earned,
	}
	s.recordSuccess(ctx, job.TaskID, submission.ID, summary)

	s.notifier.SubmissionGraded(ctx, GradedEvent{
		TaskID:       job.TaskID,
		SubmissionID: submission.ID,
		ProblemID:    problem.ID,
		StudentID:    submission.StudentID,
		Marks:        earned,
		TotalMarks:   problem.TotalMarks,
	})

	s.logger.Info().
		Str("task_id", job.TaskID).
		Uint("submission_id", submission.ID).
		Float64("marks", earned).
		Int("test_cases", len(results)).
		Msg("submission graded")

	return nil
}

// buildBatch reads every test-case pair from the blob store and pairs it with
// the submitted source, in test-case order. The judge takes memory in KB.
func (s *gradingService) buildBatch(ctx context.Context, problem models.Problem, job GradingJob) ([]judge0.Submission, error) {
	entries := make([]judge0.Submission, 0, len(problem.TestCases))
	for _, testCase := range problem.TestCases {
		input, err := s.blobs.Get(ctx, testCase.InputKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read input for test case %d: %w", testCase.Number, err)
		}
		expected, err := s.blobs.Get(ctx, testCase.OutputKey)
		if err != nil {
			return nil, fmt.Errorf("failed to read expected output for test case %d: %w", testCase.Number, err)
		}

		entries = append(entries, judge0.Submission{
			LanguageID:     job.LanguageNumber,
			SourceCode:     job.SourceCode,
			Stdin:          string(input),
			ExpectedOutput: string(expected),
			CPUTimeLimit:   problem.TimeLimit,
			MemoryLimit:    problem.MemoryLimit * 1000,
		})
	}
	return entries, nil
}

// assembleResults zips verdicts back to test cases positionally and produces
// both the persistence rows and the student-facing case summaries.
func (s *gradingService) assembleResults(
	ctx context.Context,
	problem models.Problem,
	submission models.Submission,
	results []judge0.Result,
	scores []caseScore,
) ([]models.Result, []task.CaseSummary, error) {
	rows := make([]models.Result, 0, len(results))
	cases := make([]task.CaseSummary, 0, len(results))

	for i, result := range results {
		testCase := problem.TestCases[i]
		score := scores[i]

		status, err := s.statuses.GetByNumber(ctx, result.Status.ID)
		if err != nil {
			return nil, nil, fmt.Errorf("unknown judge status %d: %w", result.Status.ID, err)
		}
		observability.GradingCaseVerdicts().WithLabelValues(status.Name).Inc()

		raw, err := json.Marshal(result)
		if err != nil {
			return nil, nil, fmt.Errorf("failed to encode raw verdict: %w", err)
		}

		rows = append(rows, models.Result{
			SubmissionID:   submission.ID,
			TestCaseID:     testCase.ID,
			Token:          result.Token,
			Stdout:         result.Stdout,
			Stderr:         result.Stderr,
			CompileOutput:  result.CompileOutput,
			ExpectedOutput: result.ExpectedOutput,
			Time:           result.Time,
			Memory:         result.Memory,
			StatusID:       status.ID,
			Correct:        score.Correct,
			Marks:          score.Marks,
			MarksOutOf:     score.MarksOutOf,
			Raw:            raw,
		})

		cases = append(cases, task.CaseSummary{
			Number:        testCase.Number,
			Token:         result.Token,
			Status:        status.Name,
			Correct:       score.Correct,
			Marks:         score.Marks,
			MarksOutOf:    score.MarksOutOf,
			Time:          result.Time,
			Memory:        result.Memory,
			Stdout:        result.Stdout,
			Stderr:        result.Stderr,
			CompileOutput: result.CompileOutput,
		})
	}

	return rows, cases, nil
}

// recordSuccess writes the SUCCESS outcome for a committed grading. A write
// failure is retried once on a fresh context and then only logged: the task
// stays pending, and the next poll or the submission view still shows the
// persisted marks.
func (s *gradingService) recordSuccess(ctx context.Context, taskID string, submissionID uint, summary task.Summary) {
	err := s.tasks.SetSuccess(ctx, taskID, submissionID, summary)
	if err == nil {
		return
	}
	s.logger.Warn().Err(err).Str("task_id", taskID).Msg("retrying task outcome write")

	retryCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := s.tasks.SetSuccess(retryCtx, taskID, submissionID, summary); err != nil {
		s.logger.Error().Err(err).Str("task_id", taskID).Msg("failed to record outcome for graded submission")
	}
}

// recordFailure writes the ERROR outcome on a fresh context: the run context
// is usually the thing that just expired.
func (s *gradingService) recordFailure(job GradingJob) {
	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()

	if err := s.tasks.SetFailure(ctx, job.TaskID, job.SubmissionID, GradingFailureMessage); err != nil {
		s.logger.Error().Err(err).Str("task_id", job.TaskID).Msg("failed to record task failure")
	}

	s.notifier.GradingFailed(ctx, FailedEvent{
		TaskID:       job.TaskID,
		SubmissionID: job.SubmissionID,
		ProblemID:    job.ProblemID,
	})
}
