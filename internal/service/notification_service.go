package service

import (
	"context"
	"encoding/json"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/rs/zerolog"
)

// Subjects grading events are published on.
const (
	SubjectSubmissionGraded = "codegrade.submissions.graded"
	SubjectGradingFailed    = "codegrade.submissions.failed"
)

// GradedEvent announces a completed grading run.
type GradedEvent struct {
	TaskID       string    `json:"task_id"`
	SubmissionID uint      `json:"submission_id"`
	ProblemID    uint      `json:"problem_id"`
	StudentID    uint      `json:"student_id"`
	Marks        float64   `json:"marks"`
	TotalMarks   int       `json:"total_marks"`
	GradedAt     time.Time `json:"graded_at"`
}

// FailedEvent announces a grading run that could not complete.
type FailedEvent struct {
	TaskID       string    `json:"task_id"`
	SubmissionID uint      `json:"submission_id"`
	ProblemID    uint      `json:"problem_id"`
	FailedAt     time.Time `json:"failed_at"`
}

// GradingNotifier publishes grading lifecycle events. Delivery is best
// effort; the pipeline never blocks or fails on a publish error.
type GradingNotifier interface {
	SubmissionGraded(ctx context.Context, event GradedEvent)
	GradingFailed(ctx context.Context, event FailedEvent)
}

type natsNotifier struct {
	conn   *nats.Conn
	logger zerolog.Logger
}

// NewGradingNotifier builds a NATS-backed notifier. A nil connection yields a
// notifier that drops every event, which keeps local setups broker-free.
func NewGradingNotifier(conn *nats.Conn, logger zerolog.Logger) GradingNotifier {
	return &natsNotifier{
		conn:   conn,
		logger: logger.With().Str("component", "grading_notifier").Logger(),
	}
}

func (n *natsNotifier) SubmissionGraded(_ context.Context, event GradedEvent) {
	if event.GradedAt.IsZero() {
		event.GradedAt = time.Now().UTC()
	}
	n.publish(SubjectSubmissionGraded, event)
}

func (n *natsNotifier) GradingFailed(_ context.Context, event FailedEvent) {
	if event.FailedAt.IsZero() {
		event.FailedAt = time.Now().UTC()
	}
	n.publish(SubjectGradingFailed, event)
}

func (n *natsNotifier) publish(subject string, event interface{}) {
	if n.conn == nil {
		return
	}

	payload, err := json.Marshal(event)
	if err != nil {
		n.logger.Warn().Err(err).Str("subject", subject).Msg("failed to encode event")
		return
	}

	if err := n.conn.Publish(subject, payload); err != nil {
		n.logger.Warn().Err(err).Str("subject", subject).Msg("failed to publish event")
	}
}
