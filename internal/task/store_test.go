package task

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newStoreWithBackend(t *testing.T) (*Store, *miniredis.Miniredis) {
	t.Helper()

	mini, err := miniredis.Run()
	require.NoError(t, err)
	t.Cleanup(mini.Close)

	client := redis.NewClient(&redis.Options{Addr: mini.Addr()})
	t.Cleanup(func() { _ = client.Close() })

	return NewStore(client, time.Hour, zerolog.Nop()), mini
}

func TestStoreLifecycle(t *testing.T) {
	store, _ := newStoreWithBackend(t)
	ctx := context.Background()

	_, err := store.Get(ctx, "missing")
	require.ErrorIs(t, err, ErrTaskNotFound)

	require.NoError(t, store.SetPending(ctx, "t-1", 42))
	outcome, err := store.Get(ctx, "t-1")
	require.NoError(t, err)
	require.Equal(t, StatePending, outcome.State)
	require.EqualValues(t, 42, outcome.SubmissionID)
	require.Nil(t, outcome.Summary)
	require.NotEmpty(t, outcome.RecordedAt)

	summary := Summary{
		Submissions: []CaseSummary{
			{Number: 1, Token: "aaa", Status: "Accepted", Correct: true, Marks: 5, MarksOutOf: 5},
			{Number: 2, Token: "bbb", Status: "Wrong Answer", MarksOutOf: 5},
		},
		TotalMarks:       10,
		TotalMarksEarned: 5,
	}
	require.NoError(t, store.SetSuccess(ctx, "t-1", 42, summary))

	outcome, err = store.Get(ctx, "t-1")
	require.NoError(t, err)
	require.Equal(t, StateSuccess, outcome.State)
	require.NotNil(t, outcome.Summary)
	require.Len(t, outcome.Summary.Submissions, 2)
	require.Equal(t, "Accepted", outcome.Summary.Submissions[0].Status)
	require.InDelta(t, 5.0, outcome.Summary.TotalMarksEarned, 0.001)
}

func TestStoreFailureRecord(t *testing.T) {
	store, _ := newStoreWithBackend(t)
	ctx := context.Background()

	require.NoError(t, store.SetFailure(ctx, "t-2", 7, "something broke"))

	outcome, err := store.Get(ctx, "t-2")
	require.NoError(t, err)
	require.Equal(t, StateError, outcome.State)
	require.EqualValues(t, 7, outcome.SubmissionID)
	require.Equal(t, "something broke", outcome.Message)
	require.Nil(t, outcome.Summary)
}

func TestStoreRecordsExpire(t *testing.T) {
	store, mini := newStoreWithBackend(t)
	ctx := context.Background()

	require.NoError(t, store.SetPending(ctx, "t-3", 1))

	ttl := mini.TTL("task:grading:t-3")
	require.Greater(t, ttl, time.Duration(0))

	mini.FastForward(2 * time.Hour)
	_, err := store.Get(ctx, "t-3")
	require.ErrorIs(t, err, ErrTaskNotFound)
}
