package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codegrade/codegrade-api/internal/models"
)

// LanguageRepository exposes the language reference data.
type LanguageRepository interface {
	List(ctx context.Context) ([]models.Language, error)
	GetByNumber(ctx context.Context, number int) (models.Language, error)
	UpsertBatch(ctx context.Context, languages []models.Language) error
}

// StatusRepository exposes the judge verdict reference data.
type StatusRepository interface {
	GetByNumber(ctx context.Context, number int) (models.Status, error)
	UpsertBatch(ctx context.Context, statuses []models.Status) error
}

// NewLanguageRepository constructs a language repository.
func NewLanguageRepository(db *gorm.DB) LanguageRepository {
	return &languageRepository{db: db}
}

type languageRepository struct {
	db *gorm.DB
}

func (r *languageRepository) List(ctx context.Context) ([]models.Language, error) {
	var languages []models.Language
	if err := r.db.WithContext(ctx).Order("number ASC").Find(&languages).Error; err != nil {
		return nil, err
	}
	return languages, nil
}

func (r *languageRepository) GetByNumber(ctx context.Context, number int) (models.Language, error) {
	var language models.Language
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&language).Error; err != nil {
		return models.Language{}, err
	}
	return language, nil
}

func (r *languageRepository) UpsertBatch(ctx context.Context, languages []models.Language) error {
	if len(languages) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoNothing: true,
		}).
		Create(&languages).Error
}

// NewStatusRepository constructs a status repository.
func NewStatusRepository(db *gorm.DB) StatusRepository {
	return &statusRepository{db: db}
}

type statusRepository struct {
	db *gorm.DB
}

func (r *statusRepository) GetByNumber(ctx context.Context, number int) (models.Status, error) {
	var status models.Status
	if err := r.db.WithContext(ctx).Where("number = ?", number).First(&status).Error; err != nil {
		return models.Status{}, err
	}
	return status, nil
}

func (r *statusRepository) UpsertBatch(ctx context.Context, statuses []models.Status) error {
	if len(statuses) == 0 {
		return nil
	}
	return r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "number"}},
			DoNothing: true,
		}).
		Create(&statuses).Error
}
