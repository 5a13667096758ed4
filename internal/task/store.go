// Package task records grading-task outcomes so the synchronous web layer
// can poll for them. Outcomes are tagged records rather than shape-sniffed
// payloads: consumers dispatch on State, never on the payload's runtime type.
package task

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

// States a grading task moves through. Absence of a record and Pending are
// indistinguishable to callers.
const (
	StatePending = "PENDING"
	StateSuccess = "SUCCESS"
	StateError   = "ERROR"
)

// ErrTaskNotFound indicates no outcome record exists for the task id.
var ErrTaskNotFound = errors.New("task not found")

// CaseSummary is the consumer-facing record for one graded test case. The
// expected output is deliberately absent so students cannot recover it
// through the status endpoint.
type CaseSummary struct {
	Number        int     `json:"number"`
	Token         string  `json:"token"`
	Status        string  `json:"status"`
	Correct       bool    `json:"correct"`
	Marks         float64 `json:"marks"`
	MarksOutOf    float64 `json:"marks_out_of"`
	Time          string  `json:"time"`
	Memory        int     `json:"memory"`
	Stdout        string  `json:"stdout"`
	Stderr        string  `json:"stderr"`
	CompileOutput string  `json:"compile_output"`
}

// Summary is the scored outcome of a completed grading run.
type Summary struct {
	Submissions      []CaseSummary `json:"submissions"`
	TotalMarks       int           `json:"total_marks"`
	TotalMarksEarned float64       `json:"total_marks_earned"`
}

// Outcome is the tagged task record. SubmissionID is always set once the
// task has started, so the bridge can clean up after a failed run.
type Outcome struct {
	State        string   `json:"state"`
	SubmissionID uint     `json:"submission_id"`
	Summary      *Summary `json:"summary,omitempty"`
	Message      string   `json:"message,omitempty"`
	RecordedAt   string   `json:"recorded_at"`
}

// Store persists task outcomes in Redis under a TTL.
type Store struct {
	client *redis.Client
	ttl    time.Duration
	logger zerolog.Logger
}

// NewStore constructs a task outcome store. A zero ttl defaults to 24h.
func NewStore(client *redis.Client, ttl time.Duration, logger zerolog.Logger) *Store {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &Store{
		client: client,
		ttl:    ttl,
		logger: logger.With().Str("component", "task_store").Logger(),
	}
}

// SetPending records that the task has been enqueued.
func (s *Store) SetPending(ctx context.Context, taskID string, submissionID uint) error {
	return s.set(ctx, taskID, Outcome{
		State:        StatePending,
		SubmissionID: submissionID,
	})
}

// SetSuccess records the scored summary of a finished run.
func (s *Store) SetSuccess(ctx context.Context, taskID string, submissionID uint, summary Summary) error {
	return s.set(ctx, taskID, Outcome{
		State:        StateSuccess,
		SubmissionID: submissionID,
		Summary:      &summary,
	})
}

// SetFailure records a fatal run error along with the submission to clean up.
func (s *Store) SetFailure(ctx context.Context, taskID string, submissionID uint, message string) error {
	return s.set(ctx, taskID, Outcome{
		State:        StateError,
		SubmissionID: submissionID,
		Message:      message,
	})
}

// Get fetches the outcome record for a task id.
func (s *Store) Get(ctx context.Context, taskID string) (Outcome, error) {
	payload, err := s.client.Get(ctx, s.key(taskID)).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return Outcome{}, ErrTaskNotFound
		}
		return Outcome{}, fmt.Errorf("failed to read task outcome: %w", err)
	}

	var outcome Outcome
	if err := json.Unmarshal([]byte(payload), &outcome); err != nil {
		return Outcome{}, fmt.Errorf("corrupt task outcome record: %w", err)
	}

	return outcome, nil
}

func (s *Store) set(ctx context.Context, taskID string, outcome Outcome) error {
	outcome.RecordedAt = time.Now().UTC().Format(time.RFC3339)

	payload, err := json.Marshal(outcome)
	if err != nil {
		return fmt.Errorf("failed to encode task outcome: %w", err)
	}

	if err := s.client.Set(ctx, s.key(taskID), payload, s.ttl).Err(); err != nil {
		return fmt.Errorf("failed to store task outcome: %w", err)
	}

	s.logger.Debug().Str("task_id", taskID).Str("state", outcome.State).Msg("task outcome recorded")
	return nil
}

func (s *Store) key(taskID string) string {
	return "task:grading:" + taskID
}
