package models

import "gorm.io/datatypes"

// Result records the judge's verdict for one test case of one submission.
// Rows are written exactly once by the grading pipeline and never mutated;
// a teacher's manual override touches only the parent submission aggregate.
type Result struct {
	ID             uint           `gorm:"primaryKey" json:"id"`
	SubmissionID   uint           `gorm:"not null;index" json:"submission_id"`
	TestCaseID     uint           `gorm:"not null;index" json:"test_case_id"`
	Token          string         `gorm:"size:64;not null" json:"token"`
	Stdout         string         `gorm:"type:text" json:"stdout"`
	Stderr         string         `gorm:"type:text" json:"stderr"`
	CompileOutput  string         `gorm:"type:text" json:"compile_output"`
	ExpectedOutput string         `gorm:"type:text" json:"-"`
	Time           string         `gorm:"size:32" json:"time"`
	Memory         int            `json:"memory"`
	StatusID       uint           `gorm:"not null" json:"status_id"`
	Correct        bool           `gorm:"not null" json:"correct"`
	Marks          float64        `gorm:"not null" json:"marks"`
	MarksOutOf     float64        `gorm:"not null" json:"marks_out_of"`
	Raw            datatypes.JSON `json:"-"`
	Status         Status         `json:"status"`
}
