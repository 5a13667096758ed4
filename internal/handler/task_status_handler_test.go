package handler_test

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/require"

	"github.com/codegrade/codegrade-api/internal/dto"
	"github.com/codegrade/codegrade-api/internal/handler"
	"github.com/codegrade/codegrade-api/internal/task"
)

type mockTaskStatusService struct {
	lastTaskID string
	response   dto.TaskStatusResponse
	err        error
}

func (m *mockTaskStatusService) Status(_ context.Context, taskID string) (dto.TaskStatusResponse, error) {
	m.lastTaskID = taskID
	if m.err != nil {
		return dto.TaskStatusResponse{}, m.err
	}
	return m.response, nil
}

func decodeResponse(t *testing.T, resp *http.Response, target interface{}) {
	t.Helper()

	body, err := io.ReadAll(resp.Body)
	require.NoError(t, err)
	require.NoError(t, resp.Body.Close())
	require.NoError(t, json.Unmarshal(body, target))
}

func TestTaskStatusHandler_Success(t *testing.T) {
	svc := &mockTaskStatusService{response: dto.TaskStatusResponse{
		State: task.StateSuccess,
		Result: &task.Summary{
			Submissions:      []task.CaseSummary{{Number: 1, Status: "Accepted", Correct: true, Marks: 5, MarksOutOf: 5}},
			TotalMarks:       10,
			TotalMarksEarned: 5,
		},
	}}

	app := fiber.New()
	handler.NewTaskStatusHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1"))

	req := httptest.NewRequest(http.MethodGet, "/api/v1/status/task-123", nil)
	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
	require.Equal(t, "task-123", svc.lastTaskID)

	var response struct {
		Success bool                   `json:"success"`
		Data    dto.TaskStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.True(t, response.Success)
	require.Equal(t, task.StateSuccess, response.Data.State)
	require.NotNil(t, response.Data.Result)
	require.InDelta(t, 5.0, response.Data.Result.TotalMarksEarned, 0.001)
	// Case summaries never expose the expected output.
	require.Len(t, response.Data.Result.Submissions, 1)
}

func TestTaskStatusHandler_Pending(t *testing.T) {
	svc := &mockTaskStatusService{response: dto.TaskStatusResponse{State: task.StatePending}}

	app := fiber.New()
	handler.NewTaskStatusHandler(svc, zerolog.New(io.Discard)).Register(app.Group("/api/v1"))

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/api/v1/status/whatever", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)

	var response struct {
		Data dto.TaskStatusResponse `json:"data"`
	}
	decodeResponse(t, resp, &response)
	require.Equal(t, task.StatePending, response.Data.State)
	require.Nil(t, response.Data.Result)
}
