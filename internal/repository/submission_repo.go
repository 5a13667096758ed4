package repository

import (
	"context"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"github.com/codegrade/codegrade-api/internal/models"
)

// SubmissionRepository defines data operations for submissions and their results.
type SubmissionRepository interface {
	GetByID(ctx context.Context, id uint) (models.Submission, error)
	GetByTaskID(ctx context.Context, taskID string) (models.Submission, error)
	CountForProblemAndStudent(ctx context.Context, problemID, studentID uint) (int64, error)
	ListForProblem(ctx context.Context, problemID uint) ([]models.Submission, error)
	Create(ctx context.Context, submission *models.Submission) error
	Update(ctx context.Context, submission *models.Submission) error
	Delete(ctx context.Context, id uint) error
	// SaveGrading persists the result rows and the submission aggregate in
	// one transaction so a half-graded submission can never be observed.
	SaveGrading(ctx context.Context, submission *models.Submission, results []models.Result) error
}

type submissionRepository struct {
	db *gorm.DB
}

// NewSubmissionRepository instantiates the repository.
func NewSubmissionRepository(db *gorm.DB) SubmissionRepository {
	return &submissionRepository{db: db}
}

func (r *submissionRepository) baseQuery(ctx context.Context) *gorm.DB {
	return r.db.WithContext(ctx).Model(&models.Submission{}).
		Preload("Language").
		Preload("Results").
		Preload("Results.Status")
}

func (r *submissionRepository) GetByID(ctx context.Context, id uint) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).First(&submission, id).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) GetByTaskID(ctx context.Context, taskID string) (models.Submission, error) {
	var submission models.Submission
	if err := r.baseQuery(ctx).Where("task_id = ?", taskID).First(&submission).Error; err != nil {
		return models.Submission{}, err
	}
	return submission, nil
}

func (r *submissionRepository) CountForProblemAndStudent(ctx context.Context, problemID, studentID uint) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Submission{}).
		Where("problem_id = ?", problemID).
		Where("student_id = ?", studentID).
		Count(&count).Error
	return count, err
}

func (r *submissionRepository) ListForProblem(ctx context.Context, problemID uint) ([]models.Submission, error) {
	var submissions []models.Submission
	err := r.baseQuery(ctx).
		Where("problem_id = ?", problemID).
		Order("created_at DESC").
		Find(&submissions).Error
	if err != nil {
		return nil, err
	}
	return submissions, nil
}

func (r *submissionRepository) Create(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Create(submission).Error
}

func (r *submissionRepository) Update(ctx context.Context, submission *models.Submission) error {
	return r.db.WithContext(ctx).Omit(clause.Associations).Save(submission).Error
}

func (r *submissionRepository) Delete(ctx context.Context, id uint) error {
	return r.db.WithContext(ctx).Select("Results").Delete(&models.Submission{ID: id}).Error
}

func (r *submissionRepository) SaveGrading(ctx context.Context, submission *models.Submission, results []models.Result) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for i := range results {
			results[i].SubmissionID = submission.ID
			if err := tx.Create(&results[i]).Error; err != nil {
				return err
			}
		}
		return tx.Model(&models.Submission{}).
			Where("id = ?", submission.ID).
			Updates(map[string]interface{}{"marks": submission.Marks, "done": true}).Error
	})
}
