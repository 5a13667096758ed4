package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codegrade/codegrade-api/internal/models"
)

// ProblemRepository defines data operations for problems and their test cases.
type ProblemRepository interface {
	GetByID(ctx context.Context, id uint) (models.Problem, error)
	GetByIdentifier(ctx context.Context, classID uint, identifier string) (models.Problem, error)
	List(ctx context.Context, classID uint) ([]models.Problem, error)
	Create(ctx context.Context, problem *models.Problem) error
	Update(ctx context.Context, problem *models.Problem) error
	Delete(ctx context.Context, id uint) error
	AddTestCase(ctx context.Context, testCase *models.TestCase) error
}

type problemRepository struct {
	db *gorm.DB
}

// NewProblemRepository instantiates the repository.
func NewProblemRepository(db *gorm.DB) ProblemRepository {
	return &problemRepository{db: db}
}

func (r *problemRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Problem{}).
		Preload("Languages").
		Preload("TestCases", func(db *gorm.DB) *gorm.DB {
			return db.Order("test_cases.number ASC")
		})
}

func (r *problemRepository) GetByID(ctx context.Context, id uint) (models.Problem, error) {
	var problem models.Problem
	if err := r.baseQuery(ctx).First(&problem, id).Error; err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) GetByIdentifier(ctx context.Context, classID uint, identifier string) (models.Problem, error) {
	var problem models.Problem
	err := r.baseQuery(ctx).
		Where("class_id = ?", classID).
		Where("identifier = ?", identifier).
		First(&problem).Error
	if err != nil {
		return models.Problem{}, err
	}
	return problem, nil
}

func (r *problemRepository) List(ctx context.Context, classID uint) ([]models.Problem, error) {
	var problems []models.Problem
	err := r.baseQuery(ctx).
		Where("class_id = ?", classID).
		Order("created_at ASC").
		Find(&problems).Error
	if err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *problemRepository) Create(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Create(problem).Error
}

func (r *problemRepository) Update(ctx context.Context, problem *models.Problem) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(problem).Error
}

// Delete removes the problem and its dependents. Result rows go first by
// submission so the sqlite test setup does not depend on FK cascades.
func (r *problemRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var submissionIDs []uint
		if err := tx.Model(&models.Submission{}).Where("problem_id = ?", id).Pluck("id", &submissionIDs).Error; err != nil {
			return err
		}
		if len(submissionIDs) > 0 {
			if err := tx.Where("submission_id IN ?", submissionIDs).Delete(&models.Result{}).Error; err != nil {
				return err
			}
		}
		return tx.Select("TestCases", "Submissions").Delete(&models.Problem{ID: id}).Error
	})
}

func (r *problemRepository) AddTestCase(ctx context.Context, testCase *models.TestCase) error {
	return r.db.WithContext(ctx).Create(testCase).Error
}
