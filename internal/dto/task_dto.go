package dto

import "github.com/codegrade/codegrade-api/internal/task"

// TaskStatusResponse is what students poll while a grading task runs. Result
// is only present once the task succeeded; Message only when it failed.
type TaskStatusResponse struct {
	State   string        `json:"state"`
	Result  *task.Summary `json:"result,omitempty"`
	Message string        `json:"message,omitempty"`
}
