package repository

import (
	"learning_cloud_backend/internal/model"

	"gorm.io/gorm"
)

type QuizRepository struct {
	DB *gorm.DB
}

func NewQuizRepository(db *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: db}
}

// WithTx 返回绑定到指定事务（或带 context 的会话）的仓库副本
func (r *QuizRepository) WithTx(tx *gorm.DB) *QuizRepository {
	return &QuizRepository{DB: tx}
}

type QuizFilter struct {
	SubjectID  uint
	GradeLevel int
	Page       int
	Limit      int
}

func (r *QuizRepository) Create(quiz *model.Quiz) error {
	return r.DB.Create(quiz).Error
}

func (r *QuizRepository) FindByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) FindActiveByID(id uint) (*model.Quiz, error) {
	var quiz model.Quiz
	if err := r.DB.Where("is_active = ?", true).First(&quiz, id).Error; err != nil {
		return nil, err
	}
	return &quiz, nil
}

func (r *QuizRepository) List(filter QuizFilter) ([]model.Quiz, int64, error) {
	query := r.DB.Model(&model.Quiz{}).Where("is_active = ?", true)
	if filter.SubjectID > 0 {
		query = query.Where("subject_id = ?", filter.SubjectID)
	}
	if filter.GradeLevel > 0 {
		query = query.Where("grade_level = ?", filter.GradeLevel)
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var quizzes []model.Quiz
	err := query.Order("created_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&quizzes).Error
	return quizzes, total, err
}

func (r *QuizRepository) ListActiveIDs() ([]uint, error) {
	var ids []uint
	err := r.DB.Model(&model.Quiz{}).Where("is_active = ?", true).Order("id").Pluck("id", &ids).Error
	return ids, err
}

// ActiveQuestions 按 order_index 升序返回测验的有效题目
func (r *QuizRepository) ActiveQuestions(quizID uint) ([]model.Question, error) {
	var questions []model.Question
	err := r.DB.Where("quiz_id = ? AND is_active = ?", quizID, true).
		Order("order_index ASC").
		Find(&questions).Error
	return questions, err
}

func (r *QuizRepository) CountActiveQuestions(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.Question{}).Where("quiz_id = ? AND is_active = ?", quizID, true).Count(&count).Error
	return count, err
}

func (r *QuizRepository) SumActivePoints(quizID uint) (int64, error) {
	var total int64
	err := r.DB.Model(&model.Question{}).
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Select("COALESCE(SUM(points), 0)").
		Scan(&total).Error
	return total, err
}

func (r *QuizRepository) FindQuestionByID(id uint) (*model.Question, error) {
	var q model.Question
	if err := r.DB.First(&q, id).Error; err != nil {
		return nil, err
	}
	return &q, nil
}

func (r *QuizRepository) CreateQuestion(q *model.Question) error {
	return r.DB.Create(q).Error
}

// NextOrderIndex 软删除的题目仍占用唯一索引，因此包含已删除记录
func (r *QuizRepository) NextOrderIndex(quizID uint) (int, error) {
	var last int
	err := r.DB.Unscoped().Model(&model.Question{}).
		Where("quiz_id = ?", quizID).
		Select("COALESCE(MAX(order_index), -1)").
		Scan(&last).Error
	if err != nil {
		return 0, err
	}
	return last + 1, nil
}

func (r *QuizRepository) UpdateQuestionActive(id uint, active bool) error {
	return r.DB.Model(&model.Question{}).Where("id = ?", id).Update("is_active", active).Error
}

func (r *QuizRepository) CountActive() (int64, error) {
	var count int64
	err := r.DB.Model(&model.Quiz{}).Where("is_active = ?", true).Count(&count).Error
	return count, err
}
