package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/models"
)

// StudentRepository exposes persistence helpers for students.
type StudentRepository interface {
	GetByID(ctx context.Context, id uint) (models.Student, error)
	GetByIdentifierAndClass(ctx context.Context, identifier string, classID uint) (models.Student, error)
	Create(ctx context.Context, student *models.Student) error
}

// NewStudentRepository constructs a student repository.
func NewStudentRepository(db *gorm.DB) StudentRepository {
	return &studentRepository{db: db}
}

type studentRepository struct {
	db *gorm.DB
}

func (r *studentRepository) GetByID(ctx context.Context, id uint) (models.Student, error) {
	var student models.Student
	if err := r.db.WithContext(ctx).First(&student, id).Error; err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) GetByIdentifierAndClass(ctx context.Context, identifier string, classID uint) (models.Student, error) {
	var student models.Student
	err := r.db.WithContext(ctx).
		Where("identifier = ?", identifier).
		Where("class_id = ?", classID).
		First(&student).Error
	if err != nil {
		return models.Student{}, err
	}
	return student, nil
}

func (r *studentRepository) Create(ctx context.Context, student *models.Student) error {
	return r.db.WithContext(ctx).Create(student).Error
}
