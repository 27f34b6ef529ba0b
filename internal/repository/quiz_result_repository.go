package repository

import (
	"learning_cloud_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizResultRepository struct {
	DB *gorm.DB
}

func NewQuizResultRepository(db *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: db}
}

func (r *QuizResultRepository) WithTx(tx *gorm.DB) *QuizResultRepository {
	return &QuizResultRepository{DB: tx}
}

func (r *QuizResultRepository) FindByAttempt(attemptID uint) (*model.QuizResult, error) {
	var res model.QuizResult
	if err := r.DB.Where("attempt_id = ?", attemptID).First(&res).Error; err != nil {
		return nil, err
	}
	return &res, nil
}

// CreateIfAbsent 按 attempt_id 查找或创建，返回值表示是否新建
func (r *QuizResultRepository) CreateIfAbsent(result *model.QuizResult) (bool, error) {
	tx := r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoNothing: true,
	}).Create(result)
	if tx.Error != nil {
		return false, tx.Error
	}
	if tx.RowsAffected == 1 {
		return true, nil
	}
	existing, err := r.FindByAttempt(result.AttemptID)
	if err != nil {
		return false, err
	}
	*result = *existing
	return false, nil
}

func (r *QuizResultRepository) UpsertFeedback(fb *model.QuizFeedback) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"rating", "comment", "difficulty_rating", "updated_at"}),
	}).Create(fb).Error
}

func (r *QuizResultRepository) FindFeedbackByAttempt(attemptID uint) (*model.QuizFeedback, error) {
	var fb model.QuizFeedback
	if err := r.DB.Where("attempt_id = ?", attemptID).First(&fb).Error; err != nil {
		return nil, err
	}
	return &fb, nil
}

func (r *QuizResultRepository) ListFeedback(studentID, quizID uint) ([]model.QuizFeedback, error) {
	var list []model.QuizFeedback
	query := r.DB.Preload("Attempt").
		Joins("JOIN quiz_attempts ON quiz_attempts.id = quiz_feedback.attempt_id").
		Where("quiz_feedback.student_id = ?", studentID)
	if quizID > 0 {
		query = query.Where("quiz_attempts.quiz_id = ?", quizID)
	}
	err := query.Order("quiz_feedback.created_at DESC").Find(&list).Error
	return list, err
}
