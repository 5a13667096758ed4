package service

import (
	"context"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/pkg/s3store"
)

func newSubmissionHarness(t *testing.T, db *gorm.DB, blobs *fakeBlobStore, grading GradingService) SubmissionService {
	t.Helper()

	return NewSubmissionService(
		repository.NewClassRepository(db),
		repository.NewStudentRepository(db),
		repository.NewProblemRepository(db),
		repository.NewLanguageRepository(db),
		repository.NewSubmissionRepository(db),
		blobs,
		grading,
		s3store.Keys{},
		time.Hour,
		zerolog.Nop(),
	)
}

func TestSubmitManualProblemGetsFullMarks(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 20, 0, false)

	grading := &stubGrading{}
	svc := newSubmissionHarness(t, db, blobs, grading)

	response, err := svc.Submit(context.Background(), SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(1)\n"),
	})
	require.NoError(t, err)

	require.Empty(t, response.TaskID)
	require.False(t, response.AutoGraded)
	require.NotNil(t, response.Marks)
	require.InDelta(t, 20.0, *response.Marks, 0.001)
	require.Empty(t, grading.jobs)

	var stored models.Submission
	require.NoError(t, db.Preload("Results").First(&stored, response.SubmissionID).Error)
	require.True(t, stored.Done)
	require.Empty(t, stored.Results)
	require.True(t, blobs.has(stored.CodeKey))
}

func TestSubmitAutoGradedProblemEnqueuesJob(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 2, true)

	grading := &stubGrading{}
	svc := newSubmissionHarness(t, db, blobs, grading)

	response, err := svc.Submit(context.Background(), SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(input())\n"),
	})
	require.NoError(t, err)

	require.True(t, response.AutoGraded)
	require.NotEmpty(t, response.TaskID)
	require.Nil(t, response.Marks)

	require.Len(t, grading.jobs, 1)
	job := grading.jobs[0]
	require.Equal(t, response.TaskID, job.TaskID)
	require.Equal(t, response.SubmissionID, job.SubmissionID)
	require.Equal(t, fixture.problem.ID, job.ProblemID)
	require.Equal(t, 71, job.LanguageNumber)
	require.Equal(t, "print(input())\n", job.SourceCode)

	var stored models.Submission
	require.NoError(t, db.First(&stored, response.SubmissionID).Error)
	require.False(t, stored.Done)
	require.Nil(t, stored.Marks)
	require.Equal(t, response.TaskID, stored.TaskID)
}

func TestSubmitSecondAttemptRejectedWhenSingleSubmission(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 0, false)

	svc := newSubmissionHarness(t, db, blobs, &stubGrading{})

	input := SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(1)\n"),
	}

	_, err := svc.Submit(context.Background(), input)
	require.NoError(t, err)

	_, err = svc.Submit(context.Background(), input)
	require.ErrorIs(t, err, ErrAlreadySubmitted)
}

func TestSubmitValidationFailures(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 0, false)

	svc := newSubmissionHarness(t, db, blobs, &stubGrading{})
	ctx := context.Background()

	base := SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(1)\n"),
	}

	wrongExtension := base
	wrongExtension.FileName = "solution.cpp"
	_, err := svc.Submit(ctx, wrongExtension)
	require.ErrorIs(t, err, ErrWrongFileExtension)

	// C++ is not enabled for the fixture problem.
	wrongLanguage := base
	wrongLanguage.LanguageNumber = 54
	wrongLanguage.FileName = "solution.cpp"
	_, err = svc.Submit(ctx, wrongLanguage)
	require.ErrorIs(t, err, ErrLanguageNotAllowed)

	unknownStudent := base
	unknownStudent.StudentIdentifier = "nobody"
	_, err = svc.Submit(ctx, unknownStudent)
	require.ErrorIs(t, err, ErrStudentNotFound)

	unknownClass := base
	unknownClass.ClassIdentifier = "cs999"
	_, err = svc.Submit(ctx, unknownClass)
	require.ErrorIs(t, err, ErrClassNotFound)

	binary := base
	binary.File = []byte{0x7f, 'E', 'L', 'F', 0x00, 0x01, 0x02}
	_, err = svc.Submit(ctx, binary)
	require.ErrorIs(t, err, ErrWrongFileType)

	// Nothing leaked into the blob store from the rejected attempts.
	require.Empty(t, blobs.blobs)
}

func TestSubmitHiddenOrClosedProblem(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 0, false)

	svc := newSubmissionHarness(t, db, blobs, &stubGrading{})
	ctx := context.Background()

	input := SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(1)\n"),
	}

	require.NoError(t, db.Model(&models.Problem{}).Where("id = ?", fixture.problem.ID).Update("visible", false).Error)
	_, err := svc.Submit(ctx, input)
	require.ErrorIs(t, err, ErrProblemHidden)

	require.NoError(t, db.Model(&models.Problem{}).Where("id = ?", fixture.problem.ID).
		Updates(map[string]interface{}{"visible": true, "allow_more_submissions": false}).Error)
	_, err = svc.Submit(ctx, input)
	require.ErrorIs(t, err, ErrSubmissionsClosed)
}

func TestGetByTaskIDPresignsCodeURL(t *testing.T) {
	db := openTestDB(t)
	seedReference(t, db)
	blobs := newFakeBlobStore()
	fixture := createFixture(t, db, blobs, 10, 0, false)

	svc := newSubmissionHarness(t, db, blobs, &stubGrading{})

	response, err := svc.Submit(context.Background(), SubmitInput{
		ClassIdentifier:   fixture.class.Identifier,
		ProblemIdentifier: fixture.problem.Identifier,
		StudentIdentifier: fixture.student.Identifier,
		LanguageNumber:    71,
		FileName:          "solution.py",
		File:              []byte("print(1)\n"),
	})
	require.NoError(t, err)

	var stored models.Submission
	require.NoError(t, db.First(&stored, response.SubmissionID).Error)

	view, err := svc.GetByTaskID(context.Background(), stored.TaskID)
	require.NoError(t, err)
	require.Equal(t, stored.TaskID, view.TaskID)
	require.Contains(t, view.CodeURL, stored.CodeKey)

	_, err = svc.GetByTaskID(context.Background(), "no-such-task")
	require.ErrorIs(t, err, ErrSubmissionNotFound)
}
