package repository

import (
	"learning_cloud_backend/internal/model"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type QuizAttemptRepository struct {
	DB *gorm.DB
}

func NewQuizAttemptRepository(db *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: db}
}

func (r *QuizAttemptRepository) WithTx(tx *gorm.DB) *QuizAttemptRepository {
	return &QuizAttemptRepository{DB: tx}
}

type AttemptFilter struct {
	StudentID uint
	QuizID    uint
	Completed *bool
	Page      int
	Limit     int
}

func (r *QuizAttemptRepository) Create(attempt *model.QuizAttempt) error {
	return r.DB.Create(attempt).Error
}

func (r *QuizAttemptRepository) Update(attempt *model.QuizAttempt) error {
	return r.DB.Save(attempt).Error
}

func (r *QuizAttemptRepository) FindByID(id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

// FindByIDForUpdate 行锁读取，sqlite 下该子句被忽略，由 BEGIN IMMEDIATE 串行化
func (r *QuizAttemptRepository) FindByIDForUpdate(id uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	if err := r.DB.Clauses(clause.Locking{Strength: "UPDATE"}).First(&a, id).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *QuizAttemptRepository) FindByIDAndStudent(id, studentID uint) (*model.QuizAttempt, error) {
	var a model.QuizAttempt
	err := r.DB.Preload("Quiz").
		Preload("Answers", func(db *gorm.DB) *gorm.DB { return db.Order("id ASC") }).
		Preload("Answers.Question").
		Where("student_id = ?", studentID).
		First(&a, id).Error
	if err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *QuizAttemptRepository) CountByStudentAndQuiz(studentID, quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).Where("student_id = ? AND quiz_id = ?", studentID, quizID).Count(&count).Error
	return count, err
}

func (r *QuizAttemptRepository) List(filter AttemptFilter) ([]model.QuizAttempt, int64, error) {
	query := r.DB.Model(&model.QuizAttempt{}).Where("student_id = ?", filter.StudentID)
	if filter.QuizID > 0 {
		query = query.Where("quiz_id = ?", filter.QuizID)
	}
	if filter.Completed != nil {
		if *filter.Completed {
			query = query.Where("completed_at IS NOT NULL")
		} else {
			query = query.Where("completed_at IS NULL")
		}
	}

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	var attempts []model.QuizAttempt
	err := query.Preload("Quiz").
		Order("started_at DESC").
		Offset((filter.Page - 1) * filter.Limit).
		Limit(filter.Limit).
		Find(&attempts).Error
	return attempts, total, err
}

// UpsertAnswer 同一题重复作答时覆盖原答案
func (r *QuizAttemptRepository) UpsertAnswer(answer *model.Answer) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "attempt_id"}, {Name: "question_id"}},
		DoUpdates: clause.AssignmentColumns([]string{"answer_text", "is_correct", "points_earned", "time_spent", "updated_at"}),
	}).Create(answer).Error
}

func (r *QuizAttemptRepository) AnswersByAttempt(attemptID uint) ([]model.Answer, error) {
	var answers []model.Answer
	err := r.DB.Preload("Question").Where("attempt_id = ?", attemptID).Order("id ASC").Find(&answers).Error
	return answers, err
}
