package service

import (
	"context"
	"testing"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
)

func TestOverrideMarks(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 1, true)

	marks := 5.0
	submission := models.Submission{
		TaskID:     "t-override",
		CodeKey:    "code.py",
		Done:       true,
		Marks:      &marks,
		ProblemID:  fixture.problem.ID,
		StudentID:  fixture.student.ID,
		LanguageID: fixture.problem.Languages[0].ID,
	}
	require.NoError(t, db.Create(&submission).Error)

	svc := NewTeacherGradingService(repository.NewSubmissionRepository(db), repository.NewProblemRepository(db), zerolog.Nop())
	ctx := context.Background()

	updated, err := svc.OverrideMarks(ctx, submission.ID, 7.5)
	require.NoError(t, err)
	require.NotNil(t, updated.Marks)
	require.InDelta(t, 7.5, *updated.Marks, 0.001)

	var stored models.Submission
	require.NoError(t, db.First(&stored, submission.ID).Error)
	require.InDelta(t, 7.5, *stored.Marks, 0.001)

	_, err = svc.OverrideMarks(ctx, submission.ID, 11)
	require.ErrorIs(t, err, ErrMarksOutOfRange)

	_, err = svc.OverrideMarks(ctx, submission.ID, -1)
	require.ErrorIs(t, err, ErrMarksOutOfRange)

	_, err = svc.OverrideMarks(ctx, 9999, 5)
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
