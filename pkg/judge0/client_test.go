package judge0

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()

	client, err := New(Config{
		BaseURL:         baseURL,
		AuthToken:       "secret",
		InitialDelay:    time.Millisecond,
		PollInterval:    time.Millisecond,
		MaxPollDuration: 200 * time.Millisecond,
	}, zerolog.Nop())
	require.NoError(t, err)
	return client
}

func TestSubmitBatchReturnsTokensInOrder(t *testing.T) {
	var gotAuth string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodPost, r.Method)
		require.Equal(t, "/submissions/batch", r.URL.Path)
		require.Equal(t, "false", r.URL.Query().Get("base64_encoded"))
		gotAuth = r.Header.Get("X-Auth-Token")

		var payload struct {
			Submissions []Submission `json:"submissions"`
		}
		require.NoError(t, json.NewDecoder(r.Body).Decode(&payload))
		require.Len(t, payload.Submissions, 2)
		require.Equal(t, "1", payload.Submissions[0].Stdin)

		fmt.Fprint(w, `[{"token":"aaa"},{"token":"bbb"}]`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	tokens, err := client.SubmitBatch(context.Background(), []Submission{
		{LanguageID: 71, SourceCode: "print(1)", Stdin: "1"},
		{LanguageID: 71, SourceCode: "print(1)", Stdin: "2"},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"aaa", "bbb"}, tokens)
	require.Equal(t, "secret", gotAuth)
}

func TestSubmitBatchRejectsMalformedResponses(t *testing.T) {
	bodies := []string{
		`{"error":"queue full"}`,
		`[]`,
		`[{"token":""}]`,
		`[{"token":"aaa"}]`,
		`not json at all`,
	}

	index := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, bodies[index])
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	entries := []Submission{
		{LanguageID: 71, SourceCode: "print(1)"},
		{LanguageID: 71, SourceCode: "print(2)"},
	}

	for index = range bodies {
		_, err := client.SubmitBatch(context.Background(), entries)
		require.ErrorIs(t, err, ErrMalformedResponse, "body %d: %s", index, bodies[index])
	}
}

func TestWaitForBatchPollsUntilTerminal(t *testing.T) {
	var polls int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.Equal(t, http.MethodGet, r.Method)
		require.Equal(t, "aaa,bbb", r.URL.Query().Get("tokens"))
		require.NotEmpty(t, r.URL.Query().Get("fields"))

		n := atomic.AddInt32(&polls, 1)
		if n < 3 {
			fmt.Fprint(w, `{"submissions":[
				{"token":"aaa","status":{"id":2,"description":"Processing"}},
				{"token":"bbb","status":{"id":1,"description":"In Queue"}}
			]}`)
			return
		}
		fmt.Fprint(w, `{"submissions":[
			{"token":"aaa","stdout":"2","time":"0.01","memory":3100,"status":{"id":3,"description":"Accepted"}},
			{"token":"bbb","stdout":"9","time":"0.02","memory":3200,"status":{"id":4,"description":"Wrong Answer"}}
		]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	results, err := client.WaitForBatch(context.Background(), []string{"aaa", "bbb"}, DefaultFields)
	require.NoError(t, err)
	require.GreaterOrEqual(t, atomic.LoadInt32(&polls), int32(3))

	require.Len(t, results, 2)
	require.Equal(t, "aaa", results[0].Token)
	require.Equal(t, StatusAccepted, results[0].Status.ID)
	require.Equal(t, "2", results[0].Stdout)
	require.Equal(t, 4, results[1].Status.ID)
}

func TestWaitForBatchTimesOut(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, `{"submissions":[{"token":"aaa","status":{"id":2,"description":"Processing"}}]}`)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.WaitForBatch(context.Background(), []string{"aaa"}, DefaultFields)
	require.ErrorIs(t, err, ErrJudgeTimeout)
}

func TestPollBatchVerifiesCountAndTokenEcho(t *testing.T) {
	bodies := []string{
		`{"submissions":[{"token":"aaa","status":{"id":3}}]}`,
		`{"submissions":[{"token":"bbb","status":{"id":3}},{"token":"aaa","status":{"id":3}}]}`,
	}

	index := 0
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fmt.Fprint(w, bodies[index])
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	for index = range bodies {
		_, err := client.PollBatch(context.Background(), []string{"aaa", "bbb"}, DefaultFields)
		require.ErrorIs(t, err, ErrMalformedResponse, "body %d", index)
	}
}

func TestSubmitBatchSurfacesHTTPErrors(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		http.Error(w, "queue unavailable", http.StatusServiceUnavailable)
	}))
	defer server.Close()

	client := newTestClient(t, server.URL)
	_, err := client.SubmitBatch(context.Background(), []Submission{{LanguageID: 71, SourceCode: "x"}})
	require.Error(t, err)
	require.True(t, strings.Contains(err.Error(), "503"))
}
