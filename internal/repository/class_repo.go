package repository

import (
	"context"

	"gorm.io/gorm"

	"github.com/codegrade/codegrade-api/internal/models"
)

// ClassRepository exposes persistence helpers for classes.
type ClassRepository interface {
	GetByID(ctx context.Context, id uint) (models.Class, error)
	GetByIdentifier(ctx context.Context, identifier string) (models.Class, error)
	Create(ctx context.Context, class *models.Class) error
	Delete(ctx context.Context, id uint) error
}

// NewClassRepository constructs a class repository.
func NewClassRepository(db *gorm.DB) ClassRepository {
	return &classRepository{db: db}
}

type classRepository struct {
	db *gorm.DB
}

func (r *classRepository) GetByID(ctx context.Context, id uint) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).First(&class, id).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) GetByIdentifier(ctx context.Context, identifier string) (models.Class, error) {
	var class models.Class
	if err := r.db.WithContext(ctx).Where("identifier = ?", identifier).First(&class).Error; err != nil {
		return models.Class{}, err
	}
	return class, nil
}

func (r *classRepository) Create(ctx context.Context, class *models.Class) error {
	return r.db.WithContext(ctx).Create(class).Error
}

func (r *classRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Problems", "Students").Delete(&models.Class{ID: id}).Error
}
