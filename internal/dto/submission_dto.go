package dto

import (
	"time"

	"github.com/codegrade/codegrade-api/internal/models"
)

// ResultResponse is the API view of one per-test-case verdict. The expected
// output never leaves the server.
type ResultResponse struct {
	ID            uint    `json:"id"`
	TestCaseID    uint    `json:"test_case_id"`
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

// SubmissionResponse is the API view of one submission.
type SubmissionResponse struct {
	ID        uint             `json:"id"`
	TaskID    string           `json:"task_id"`
	Done      bool             `json:"done"`
	Marks     *float64         `json:"marks"`
	Language  LanguageResponse `json:"language"`
	CreatedAt time.Time        `json:"created_at"`
	CodeURL   string           `json:"code_url,omitempty"`
	Results   []ResultResponse `json:"results,omitempty"`
}

// SubmitResponse acknowledges an accepted upload. TaskID is only set when the
// submission entered the grading pipeline; manually graded problems come back
// already marked.
type SubmitResponse struct {
	SubmissionID uint     `json:"submission_id"`
	TaskID       string   `json:"task_id,omitempty"`
	AutoGraded   bool     `json:"auto_graded"`
	Marks        *float64 `json:"marks,omitempty"`
}

// OverrideMarksRequest is the teacher's manual-marking payload.
type OverrideMarksRequest struct {
	Marks float64 `json:"marks" validate:"min=0"`
}

// NewResultResponse maps a result model into its API view.
func NewResultResponse(result models.Result) ResultResponse {
	return ResultResponse{
		ID:            result.ID,
		TestCaseID:    result.TestCaseID,
		Status:        result.Status.Name,
		Correct:       result.Correct,
		Marks:         result.Marks,
		MarksOutOf:    result.MarksOutOf,
		Time:          result.Time,
		Memory:        result.Memory,
		Stdout:        result.Stdout,
		Stderr:        result.Stderr,
		CompileOutput: result.CompileOutput,
	}
}

// NewSubmissionResponse maps a submission model into its API view. codeURL is
// the presigned download link, empty when the caller did not request one.
func NewSubmissionResponse(submission models.Submission, codeURL string) SubmissionResponse {
	results := make([]ResultResponse, 0, len(submission.Results))
	for _, result := range submission.Results {
		results = append(results, NewResultResponse(result))
	}

	return SubmissionResponse{
		ID:        submission.ID,
		TaskID:    submission.TaskID,
		Done:      submission.Done,
		Marks:     submission.Marks,
		Language:  NewLanguageResponse(submission.Language),
		CreatedAt: submission.CreatedAt,
		CodeURL:   codeURL,
		Results:   results,
	}
}
