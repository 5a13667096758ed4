package models

import "time"

// Limits enforced when teachers create or update a problem.
const (
	MinTimeLimitSeconds = 1
	MaxTimeLimitSeconds = 5
	MinMemoryLimitMB    = 3
	MaxMemoryLimitMB    = 512
	MaxTestCases        = 5
)

// Problem is a programming exercise posted to a class. When AutoGrade is set
// the attached test cases drive the judge pipeline; otherwise submissions are
// trusted and marked manually by the teacher.
type Problem struct {
	ID                       uint       `gorm:"primaryKey" json:"id"`
	Identifier               string     `gorm:"size:64;not null;index" json:"identifier"`
	Title                    string     `gorm:"size:45;not null" json:"title"`
	Description              string     `gorm:"type:text;not null" json:"description"`
	DescriptionHTML          string     `gorm:"type:text" json:"description_html"`
	TimeLimit                float64    `gorm:"not null;default:5" json:"time_limit"`
	MemoryLimit              int        `gorm:"not null;default:512" json:"memory_limit"`
	TotalMarks               int        `gorm:"not null" json:"total_marks"`
	AutoGrade                bool       `gorm:"not null;default:false" json:"auto_grade"`
	AllowMultipleSubmissions bool       `gorm:"not null;default:false" json:"allow_multiple_submissions"`
	AllowMoreSubmissions     bool       `gorm:"not null;default:true" json:"allow_more_submissions"`
	Visible                  bool       `gorm:"not null;default:true" json:"visible"`
	ClassID                  uint       `gorm:"not null" json:"class_id"`
	CreatedAt                time.Time  `json:"created_at"`
	UpdatedAt                time.Time  `json:"updated_at"`
	Class                    Class      `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Languages                []Language `gorm:"many2many:problem_languages" json:"languages"`
	TestCases                []TestCase `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"test_cases,omitempty"`
	Submissions              []Submission `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}

// CanAutoGrade reports whether the judge pipeline may run for this problem.
func (p Problem) CanAutoGrade() bool {
	return p.AutoGrade && len(p.TestCases) > 0
}

// AllowsLanguage reports whether the judge language number is enabled for
// this problem.
func (p Problem) AllowsLanguage(number int) bool {
	for _, language := range p.Languages {
		if language.Number == number {
			return true
		}
	}
	return false
}

// TestCase is one (input, expected output) pair attached to a problem. Both
// blobs live in the object store under the recorded keys. Number fixes the
// judge-submission order; result rows are zipped back by that order.
type TestCase struct {
	ID         uint     `gorm:"primaryKey" json:"id"`
	Number     int      `gorm:"not null" json:"number"`
	InputKey   string   `gorm:"size:512;not null" json:"input_key"`
	OutputKey  string   `gorm:"size:512;not null" json:"output_key"`
	InputSize  int64    `json:"input_size"`
	OutputSize int64    `json:"output_size"`
	ProblemID  uint     `gorm:"not null;index" json:"problem_id"`
	Results    []Result `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
}
