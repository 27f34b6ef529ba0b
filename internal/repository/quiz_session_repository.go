package repository

import (
	"learning_cloud_backend/internal/model"
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizSessionRepository struct {
	DB *gorm.DB
}

func NewQuizSessionRepository(db *gorm.DB) *QuizSessionRepository {
	return &QuizSessionRepository{DB: db}
}

func (r *QuizSessionRepository) WithTx(tx *gorm.DB) *QuizSessionRepository {
	return &QuizSessionRepository{DB: tx}
}

func (r *QuizSessionRepository) Create(session *model.QuizSession) error {
	return r.DB.Create(session).Error
}

func (r *QuizSessionRepository) FindByKey(sessionKey string, studentID uint) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Where("session_key = ? AND student_id = ?", sessionKey, studentID).First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *QuizSessionRepository) FindByKeyForUpdate(sessionKey string, studentID uint) (*model.QuizSession, error) {
	var s model.QuizSession
	err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).
		Where("session_key = ? AND student_id = ?", sessionKey, studentID).
		First(&s).Error
	if err != nil {
		return nil, err
	}
	return &s, nil
}

func (r *QuizSessionRepository) ExistsActive(studentID, quizID uint) (bool, error) {
	var count int64
	err := r.DB.Model(&model.QuizSession{}).
		Where("student_id = ? AND quiz_id = ? AND is_active = ?", studentID, quizID, true).
		Count(&count).Error
	return count > 0, err
}

// AdvanceIndex 比较并交换 current_question_index，返回是否抢到本次推进
func (r *QuizSessionRepository) AdvanceIndex(id uint, from, to int, answers datatypes.JSONMap) (bool, error) {
	res := r.DB.Model(&model.QuizSession{}).
		Where("id = ? AND current_question_index = ? AND is_active = ?", id, from, true).
		Updates(map[string]interface{}{
			"current_question_index": to,
			"answers_data":           answers,
			"last_activity":          time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}

// Deactivate 结束会话并释放 active_key
func (r *QuizSessionRepository) Deactivate(id uint) (bool, error) {
	res := r.DB.Model(&model.QuizSession{}).
		Where("id = ? AND is_active = ?", id, true).
		Updates(map[string]interface{}{
			"is_active":     false,
			"active_key":    nil,
			"last_activity": time.Now(),
		})
	if res.Error != nil {
		return false, res.Error
	}
	return res.RowsAffected == 1, nil
}
