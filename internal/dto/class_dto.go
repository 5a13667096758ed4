package dto

import (
	"time"

	"github.com/codegrade/codegrade-api/internal/models"
)

// ClassCreateRequest is the payload to register a new class.
type ClassCreateRequest struct {
	Identifier  string `json:"identifier" validate:"required,max=64"`
	Name        string `json:"name" validate:"required,max=255"`
	Description string `json:"description"`
}

// StudentEnrollRequest adds one student to a class roster.
type StudentEnrollRequest struct {
	Identifier string `json:"identifier" validate:"required,max=64"`
	Name       string `json:"name" validate:"required,max=255"`
}

// ClassResponse is the API view of a class.
type ClassResponse struct {
	ID          uint      `json:"id"`
	Identifier  string    `json:"identifier"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	CreatedAt   time.Time `json:"created_at"`
}

// StudentResponse is the API view of a student.
type StudentResponse struct {
	ID         uint   `json:"id"`
	Identifier string `json:"identifier"`
	Name       string `json:"name"`
	ClassID    uint   `json:"class_id"`
}

// NewClassResponse maps a class model into its API view.
func NewClassResponse(class models.Class) ClassResponse {
	return ClassResponse{
		ID:          class.ID,
		Identifier:  class.Identifier,
		Name:        class.Name,
		Description: class.Description,
		CreatedAt:   class.CreatedAt,
	}
}

// NewStudentResponse maps a student model into its API view.
func NewStudentResponse(student models.Student) StudentResponse {
	return StudentResponse{
		ID:         student.ID,
		Identifier: student.Identifier,
		Name:       student.Name,
		ClassID:    student.ClassID,
	}
}
