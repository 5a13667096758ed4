package dto

import (
	"time"

	"github.com/codegrade/codegrade-api/internal/models"
)

// TestCasePayload carries one inline (input, expected output) pair when a
// problem is created.
type TestCasePayload struct {
	Input  string `json:"input" validate:"required"`
	Output string `json:"output" validate:"required"`
}

// ProblemCreateRequest is the payload teachers send to post a new problem.
type ProblemCreateRequest struct {
	ClassIdentifier          string            `json:"class_identifier" validate:"required"`
	Identifier               string            `json:"identifier" validate:"required,max=64"`
	Title                    string            `json:"title" validate:"required,max=45"`
	Description              string            `json:"description" validate:"required"`
	DescriptionHTML          string            `json:"description_html"`
	TimeLimit                float64           `json:"time_limit" validate:"required,min=1,max=5"`
	MemoryLimit              int               `json:"memory_limit" validate:"required,min=3,max=512"`
	TotalMarks               int               `json:"total_marks" validate:"required,min=1"`
	AutoGrade                bool              `json:"auto_grade"`
	AllowMultipleSubmissions bool              `json:"allow_multiple_submissions"`
	Visible                  bool              `json:"visible"`
	LanguageNumbers          []int             `json:"language_numbers" validate:"required,min=1"`
	TestCases                []TestCasePayload `json:"test_cases" validate:"max=5,dive"`
}

// ProblemUpdateRequest carries the mutable problem fields. Nil means leave
// the field unchanged.
type ProblemUpdateRequest struct {
	Title                *string  `json:"title" validate:"omitempty,max=45"`
	Description          *string  `json:"description"`
	DescriptionHTML      *string  `json:"description_html"`
	TimeLimit            *float64 `json:"time_limit" validate:"omitempty,min=1,max=5"`
	MemoryLimit          *int     `json:"memory_limit" validate:"omitempty,min=3,max=512"`
	TotalMarks           *int     `json:"total_marks" validate:"omitempty,min=1"`
	AllowMoreSubmissions *bool    `json:"allow_more_submissions"`
	Visible              *bool    `json:"visible"`
}

// LanguageResponse is the reference view of one judge language.
type LanguageResponse struct {
	Number        int    `json:"number"`
	Name          string `json:"name"`
	FileExtension string `json:"file_extension"`
}

// TestCaseResponse is the teacher-facing view of one test case.
type TestCaseResponse struct {
	ID         uint   `json:"id"`
	Number     int    `json:"number"`
	InputSize  int64  `json:"input_size"`
	OutputSize int64  `json:"output_size"`
}

// ProblemResponse is the API view of a problem.
type ProblemResponse struct {
	ID                       uint               `json:"id"`
	Identifier               string             `json:"identifier"`
	Title                    string             `json:"title"`
	Description              string             `json:"description"`
	DescriptionHTML          string             `json:"description_html"`
	TimeLimit                float64            `json:"time_limit"`
	MemoryLimit              int                `json:"memory_limit"`
	TotalMarks               int                `json:"total_marks"`
	AutoGrade                bool               `json:"auto_grade"`
	AllowMultipleSubmissions bool               `json:"allow_multiple_submissions"`
	AllowMoreSubmissions     bool               `json:"allow_more_submissions"`
	Visible                  bool               `json:"visible"`
	CreatedAt                time.Time          `json:"created_at"`
	Languages                []LanguageResponse `json:"languages"`
	TestCases                []TestCaseResponse `json:"test_cases"`
}

// NewLanguageResponse maps a language model into its API view.
func NewLanguageResponse(language models.Language) LanguageResponse {
	return LanguageResponse{
		Number:        language.Number,
		Name:          language.Name,
		FileExtension: language.FileExtension,
	}
}

// NewTestCaseResponse maps a test case model into its API view. Blob keys
// stay internal.
func NewTestCaseResponse(testCase models.TestCase) TestCaseResponse {
	return TestCaseResponse{
		ID:         testCase.ID,
		Number:     testCase.Number,
		InputSize:  testCase.InputSize,
		OutputSize: testCase.OutputSize,
	}
}

// NewProblemResponse maps a problem model into its API view.
func NewProblemResponse(problem models.Problem) ProblemResponse {
	languages := make([]LanguageResponse, 0, len(problem.Languages))
	for _, language := range problem.Languages {
		languages = append(languages, NewLanguageResponse(language))
	}

	testCases := make([]TestCaseResponse, 0, len(problem.TestCases))
	for _, testCase := range problem.TestCases {
		testCases = append(testCases, NewTestCaseResponse(testCase))
	}

	return ProblemResponse{
		ID:                       problem.ID,
		Identifier:               problem.Identifier,
		Title:                    problem.Title,
		Description:              problem.Description,
		DescriptionHTML:          problem.DescriptionHTML,
		TimeLimit:                problem.TimeLimit,
		MemoryLimit:              problem.MemoryLimit,
		TotalMarks:               problem.TotalMarks,
		AutoGrade:                problem.AutoGrade,
		AllowMultipleSubmissions: problem.AllowMultipleSubmissions,
		AllowMoreSubmissions:     problem.AllowMoreSubmissions,
		Visible:                  problem.Visible,
		CreatedAt:                problem.CreatedAt,
		Languages:                languages,
		TestCases:                testCases,
	}
}

// NewProblemResponseSlice maps a slice of problems.
func NewProblemResponseSlice(problems []models.Problem) []ProblemResponse {
	responses := make([]ProblemResponse, 0, len(problems))
	for _, problem := range problems {
		responses = append(responses, NewProblemResponse(problem))
	}
	return responses
}
