package repository

import (
	"learning_cloud_backend/internal/model"
	"strconv"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type AnalyticsRepository struct {
	DB *gorm.DB
}

func NewAnalyticsRepository(db *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: db}
}

func (r *AnalyticsRepository) WithTx(tx *gorm.DB) *AnalyticsRepository {
	return &AnalyticsRepository{DB: tx}
}

// CompletionStats 已完成（未放弃）作答的汇总
type CompletionStats struct {
	Completions  int64
	Passed       int64
	AverageScore float64
	AverageTime  float64 // 秒
}

// CountFinishedAttempts 已结束的作答数（含放弃），进行中的不计入
func (r *AnalyticsRepository) CountFinishedAttempts(quizID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).Where("quiz_id = ? AND completed_at IS NOT NULL", quizID).Count(&count).Error
	return count, err
}

func (r *AnalyticsRepository) CompletionStats(quizID uint) (CompletionStats, error) {
	var row struct {
		Completions  int64
		Passed       int64
		AverageScore *float64
		AverageTime  *float64
	}
	err := r.DB.Model(&model.QuizAttempt{}).
		Select("COUNT(*) AS completions, "+
			"COALESCE(SUM(CASE WHEN is_passed THEN 1 ELSE 0 END), 0) AS passed, "+
			"AVG(score) AS average_score, AVG(time_spent) AS average_time").
		Where("quiz_id = ? AND completed_at IS NOT NULL AND is_abandoned = ?", quizID, false).
		Scan(&row).Error
	if err != nil {
		return CompletionStats{}, err
	}
	stats := CompletionStats{Completions: row.Completions, Passed: row.Passed}
	if row.AverageScore != nil {
		stats.AverageScore = *row.AverageScore
	}
	if row.AverageTime != nil {
		stats.AverageTime = *row.AverageTime
	}
	return stats, nil
}

// DifficultyDistribution 有效题目按难度计数
func (r *AnalyticsRepository) DifficultyDistribution(quizID uint) (map[string]int64, error) {
	var rows []struct {
		DifficultyLevel int
		Total           int64
	}
	err := r.DB.Model(&model.Question{}).
		Select("difficulty_level, COUNT(*) AS total").
		Where("quiz_id = ? AND is_active = ?", quizID, true).
		Group("difficulty_level").
		Scan(&rows).Error
	if err != nil {
		return nil, err
	}
	dist := make(map[string]int64, len(rows))
	for _, row := range rows {
		dist[strconv.Itoa(row.DifficultyLevel)] = row.Total
	}
	return dist, nil
}

// CommonMistakes 错误次数最多的题目
func (r *AnalyticsRepository) CommonMistakes(quizID uint, limit int) ([]model.CommonMistake, error) {
	var rows []model.CommonMistake
	err := r.DB.Table("quiz_answers").
		Select("questions.id AS question_id, questions.question_text AS question_text, COUNT(*) AS incorrect_count").
		Joins("JOIN questions ON questions.id = quiz_answers.question_id").
		Where("questions.quiz_id = ? AND quiz_answers.is_correct = ? AND quiz_answers.deleted_at IS NULL", quizID, false).
		Group("questions.id, questions.question_text").
		Order("incorrect_count DESC, questions.id ASC").
		Limit(limit).
		Scan(&rows).Error
	return rows, err
}

func (r *AnalyticsRepository) UpsertSnapshot(snapshot *model.QuizAnalytics) error {
	return r.DB.Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "quiz_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"total_attempts", "total_completions", "average_score", "pass_rate", "average_time",
			"difficulty_distribution", "common_mistakes", "last_updated", "updated_at",
		}),
	}).Create(snapshot).Error
}

func (r *AnalyticsRepository) FindSnapshot(quizID uint) (*model.QuizAnalytics, error) {
	var a model.QuizAnalytics
	if err := r.DB.Where("quiz_id = ?", quizID).First(&a).Error; err != nil {
		return nil, err
	}
	return &a, nil
}

func (r *AnalyticsRepository) CreateEvent(event *model.AnalyticsEvent) error {
	return r.DB.Create(event).Error
}

func (r *AnalyticsRepository) EventsByStudent(studentID uint, metricType string) ([]model.AnalyticsEvent, error) {
	var events []model.AnalyticsEvent
	query := r.DB.Where("student_id = ?", studentID)
	if metricType != "" {
		query = query.Where("metric_type = ?", metricType)
	}
	err := query.Order("id ASC").Find(&events).Error
	return events, err
}

// StudentCompletedAttempts 学生已完成的作答（含测验信息），用于个人统计
func (r *AnalyticsRepository) StudentCompletedAttempts(studentID uint) ([]model.QuizAttempt, error) {
	var attempts []model.QuizAttempt
	err := r.DB.Preload("Quiz").
		Where("student_id = ? AND completed_at IS NOT NULL AND is_abandoned = ?", studentID, false).
		Order("completed_at ASC").
		Find(&attempts).Error
	return attempts, err
}

func (r *AnalyticsRepository) CountStudentAttempts(studentID uint) (int64, error) {
	var count int64
	err := r.DB.Model(&model.QuizAttempt{}).Where("student_id = ?", studentID).Count(&count).Error
	return count, err
}
