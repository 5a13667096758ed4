package service

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/internal/task"
)

func TestTaskStatusUnknownTaskIsPending(t *testing.T) {
	db := openTestDB(t)
	tasks := newTestTaskStore(t)
	svc := NewTaskStatusService(tasks, repository.NewSubmissionRepository(db), newFakeBlobStore(), zerolog.Nop())

	status, err := svc.Status(context.Background(), uuid.NewString())
	require.NoError(t, err)
	require.Equal(t, task.StatePending, status.State)
	require.Nil(t, status.Result)
}

func TestTaskStatusSuccessReReadsMarks(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	tasks := newTestTaskStore(t)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 2, true)

	marks := 5.0
	submission := models.Submission{
		TaskID:    uuid.NewString(),
		CodeKey:   "code.py",
		Done:      true,
		Marks:     &marks,
		ProblemID: fixture.problem.ID,
		StudentID: fixture.student.ID,
		LanguageID: fixture.problem.Languages[0].ID,
	}
	require.NoError(t, db.Create(&submission).Error)

	ctx := context.Background()
	summary := task.Summary{TotalMarks: 10, TotalMarksEarned: 5.0}
	require.NoError(t, tasks.SetSuccess(ctx, submission.TaskID, submission.ID, summary))

	svc := NewTaskStatusService(tasks, repository.NewSubmissionRepository(db), blobs, zerolog.Nop())

	status, err := svc.Status(ctx, submission.TaskID)
	require.NoError(t, err)
	require.Equal(t, task.StateSuccess, status.State)
	require.InDelta(t, 5.0, status.Result.TotalMarksEarned, 0.001)

	// A teacher override after grading shows up on the very next poll.
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", submission.ID).Update("marks", 7.5).Error)

	status, err = svc.Status(ctx, submission.TaskID)
	require.NoError(t, err)
	require.InDelta(t, 7.5, status.Result.TotalMarksEarned, 0.001)
}

func TestTaskStatusErrorCleansUpSubmission(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	tasks := newTestTaskStore(t)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 1, true)

	ctx := context.Background()
	codeKey := "classes/1/problems/1/submissions/failed.py"
	require.NoError(t, blobs.Put(ctx, codeKey, []byte("print(1)"), "text/plain"))

	submission := models.Submission{
		TaskID:    uuid.NewString(),
		CodeKey:   codeKey,
		ProblemID: fixture.problem.ID,
		StudentID: fixture.student.ID,
		LanguageID: fixture.problem.Languages[0].ID,
	}
	require.NoError(t, db.Create(&submission).Error)
	require.NoError(t, tasks.SetFailure(ctx, submission.TaskID, submission.ID, GradingFailureMessage))

	svc := NewTaskStatusService(tasks, repository.NewSubmissionRepository(db), blobs, zerolog.Nop())

	status, err := svc.Status(ctx, submission.TaskID)
	require.NoError(t, err)
	require.Equal(t, task.StateError, status.State)
	require.Equal(t, GradingFailureMessage, status.Message)

	var count int64
	require.NoError(t, db.Model(&models.Submission{}).Where("id = ?", submission.ID).Count(&count).Error)
	require.Zero(t, count)
	require.False(t, blobs.has(codeKey))

	// Polling again after cleanup is harmless and still reports the error.
	status, err = svc.Status(ctx, submission.TaskID)
	require.NoError(t, err)
	require.Equal(t, task.StateError, status.State)
}
