package models

import "time"

// Submission is one uploaded solution. TaskID doubles as the public grading
// task identifier students poll on. Marks stays nil until the grading
// pipeline (or the manual path) assigns an aggregate.
type Submission struct {
	ID         uint      `gorm:"primaryKey" json:"id"`
	TaskID     string    `gorm:"size:36;not null;index" json:"task_id"`
	CodeKey    string    `gorm:"size:512;not null" json:"code_key"`
	CodeSize   int64     `json:"code_size"`
	Done       bool      `gorm:"not null;default:false" json:"done"`
	Marks      *float64  `json:"marks"`
	ProblemID  uint      `gorm:"not null;index" json:"problem_id"`
	StudentID  uint      `gorm:"not null;index" json:"student_id"`
	LanguageID uint      `gorm:"not null" json:"language_id"`
	CreatedAt  time.Time `json:"created_at"`
	UpdatedAt  time.Time `json:"updated_at"`
	Problem    Problem   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Student    Student   `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"-"`
	Language   Language  `json:"language"`
	Results    []Result  `gorm:"constraint:OnUpdate:CASCADE,OnDelete:CASCADE" json:"results,omitempty"`
}

// IsGraded reports whether an aggregate mark has been assigned.
func (s Submission) IsGraded() bool {
	return s.Marks != nil
}
