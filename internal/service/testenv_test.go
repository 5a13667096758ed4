package service

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/models"
	"github.com/codegrade/codegrade-api/internal/repository"
	"github.com/codegrade/codegrade-api/internal/task"
	"github.com/codegrade/codegrade-api/pkg/judge0"
	"github.com/codegrade/codegrade-api/pkg/s3store"
)

func openTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", t.Name())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(
		&models.Class{},
		&models.Student{},
		&models.Language{},
		&models.Status{},
		&models.Problem{},
		&models.TestCase{},
		&models.Submission{},
		&models.Result{},
	))

	return db
}

func seedReference(t *testing.T, db *gorm.DB) {
	t.Helper()

	seeder := NewSeedService(repository.NewLanguageRepository(db), repository.NewStatusRepository(db), zerolog.Nop())
	require.NoError(t, seeder.Run(context.Background()))
}

func newTestTaskStore(t *testing.T) *task.Store {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return task.NewStore(client, time.Hour, zerolog.Nop())
}

// fakeBlobStore keeps blobs in memory and satisfies BlobStore.
type fakeBlobStore struct {
	mu    sync.Mutex
	blobs map[string][]byte
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{blobs: map[string][]byte{}}
}

func (f *fakeBlobStore) Put(_ context.Context, key string, body []byte, _ string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.blobs[key] = append([]byte(nil), body...)
	return nil
}

func (f *fakeBlobStore) Get(_ context.Context, key string) ([]byte, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	body, ok := f.blobs[key]
	if !ok {
		return nil, fmt.Errorf("no blob under %s", key)
	}
	return body, nil
}

func (f *fakeBlobStore) Delete(_ context.Context, key string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.blobs, key)
	return nil
}

func (f *fakeBlobStore) PresignRead(_ context.Context, key string, _ time.Duration) (string, error) {
	return "https://blobs.test/" + key, nil
}

func (f *fakeBlobStore) has(key string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	_, ok := f.blobs[key]
	return ok
}

// fakeJudge answers with scripted verdicts, one per dispatched entry.
type fakeJudge struct {
	verdicts  []int
	submitErr error
	waitErr   error
	entries   []judge0.Submission
	tokens    []string
}

func (f *fakeJudge) SubmitBatch(_ context.Context, entries []judge0.Submission) ([]string, error) {
	if f.submitErr != nil {
		return nil, f.submitErr
	}
	f.entries = entries

	tokens := make([]string, len(entries))
	for i := range entries {
		tokens[i] = fmt.Sprintf("token-%d", i+1)
	}
	f.tokens = tokens
	return tokens, nil
}

func (f *fakeJudge) WaitForBatch(_ context.Context, tokens []string, _ string) ([]judge0.Result, error) {
	if f.waitErr != nil {
		return nil, f.waitErr
	}

	results := make([]judge0.Result, len(tokens))
	for i, token := range tokens {
		verdict := models.StatusAccepted
		if i < len(f.verdicts) {
			verdict = f.verdicts[i]
		}
		results[i] = judge0.Result{
			Token:  token,
			Stdout: fmt.Sprintf("stdout-%d", i+1),
			Time:   "0.02",
			Memory: 3200,
			Status: judge0.Status{ID: verdict},
		}
	}
	return results, nil
}

// stubNotifier records published events.
type stubNotifier struct {
	mu     sync.Mutex
	graded []GradedEvent
	failed []FailedEvent
}

func (s *stubNotifier) SubmissionGraded(_ context.Context, event GradedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.graded = append(s.graded, event)
}

func (s *stubNotifier) GradingFailed(_ context.Context, event FailedEvent) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.failed = append(s.failed, event)
}

// stubGrading captures enqueued jobs without running anything.
type stubGrading struct {
	jobs       []GradingJob
	enqueueErr error
}

func (s *stubGrading) Enqueue(_ context.Context, job GradingJob) error {
	if s.enqueueErr != nil {
		return s.enqueueErr
	}
	s.jobs = append(s.jobs, job)
	return nil
}

func (s *stubGrading) Grade(_ context.Context, _ GradingJob) error {
	return nil
}

// testFixture is a class/problem/student triple most grading tests start from.
type testFixture struct {
	class   models.Class
	student models.Student
	problem models.Problem
}

// createFixture writes a class with one enrolled student and one problem.
// Test-case blobs are stored under the standard key scheme.
func createFixture(t *testing.T, db *gorm.DB, blobs *fakeBlobStore, totalMarks, testCases int, autoGrade bool) testFixture {
	t.Helper()

	class := models.Class{Identifier: "cs101", Name: "Intro to Programming"}
	require.NoError(t, db.Create(&class).Error)

	student := models.Student{Identifier: "s001", Name: "Ada", ClassID: class.ID}
	require.NoError(t, db.Create(&student).Error)

	var python models.Language
	require.NoError(t, db.Where("number = ?", 71).First(&python).Error)

	problem := models.Problem{
		Identifier:           "two-sum",
		Title:                "Two Sum",
		Description:          "Add two numbers.",
		TimeLimit:            2,
		MemoryLimit:          128,
		TotalMarks:           totalMarks,
		AutoGrade:            autoGrade,
		AllowMoreSubmissions: true,
		Visible:              true,
		ClassID:              class.ID,
		Languages:            []models.Language{python},
	}
	require.NoError(t, db.Create(&problem).Error)

	ctx := context.Background()
	for n := 1; n <= testCases; n++ {
		inputKey := s3store.TestCaseInputKey(class.ID, problem.ID, n)
		outputKey := s3store.TestCaseOutputKey(class.ID, problem.ID, n)
		require.NoError(t, blobs.Put(ctx, inputKey, []byte(fmt.Sprintf("1 %d", n)), "text/plain"))
		require.NoError(t, blobs.Put(ctx, outputKey, []byte(fmt.Sprintf("%d", 1+n)), "text/plain"))
		require.NoError(t, db.Create(&models.TestCase{
			Number:     n,
			InputKey:   inputKey,
			OutputKey:  outputKey,
			InputSize:  3,
			OutputSize: 1,
			ProblemID:  problem.ID,
		}).Error)
	}

	loaded, err := repository.NewProblemRepository(db).GetByID(ctx, problem.ID)
	require.NoError(t, err)

	return testFixture{class: class, student: student, problem: loaded}
}
