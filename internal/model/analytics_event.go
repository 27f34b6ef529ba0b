package model

import (
	"time"

	"gorm.io/datatypes"
)

const (
	MetricQuizCompletion     = "quiz_completion"
	MetricQuizResultAnalysis = "quiz_result_analysis"
	MetricQuizAbandoned      = "quiz_abandoned"
)

// AnalyticsEvent 学习分析事件流水
type AnalyticsEvent struct {
	BaseModel

	StudentID   uint              `gorm:"index;not null" json:"studentId"`
	QuizID      uint              `gorm:"index" json:"quizId"`
	MetricType  string            `gorm:"size:64;index" json:"metricType"`
	MetricValue float64           `json:"metricValue"`
	Metadata    datatypes.JSONMap `json:"metadata"`
	Date        time.Time         `gorm:"type:date;index" json:"date"`
}

func (AnalyticsEvent) TableName() string {
	return "analytics_events"
}
