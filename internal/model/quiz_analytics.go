package model

import (
	"time"

	"gorm.io/datatypes"
)

type CommonMistake struct {
	QuestionID     uint   `json:"questionId"`
	QuestionText   string `json:"questionText"`
	IncorrectCount int64  `json:"incorrectCount"`
}

// QuizAnalytics 测验统计快照，由定时任务或按需刷新
type QuizAnalytics struct {
	BaseModel

	QuizID                 uint                                 `gorm:"uniqueIndex;not null" json:"quizId"`
	TotalAttempts          int64                                `json:"totalAttempts"`
	TotalCompletions       int64                                `json:"totalCompletions"`
	AverageScore           float64                              `json:"averageScore"`
	PassRate               float64                              `json:"passRate"`
	AverageTime            float64                              `json:"averageTime"` // 分钟
	DifficultyDistribution datatypes.JSONType[map[string]int64] `json:"difficultyDistribution"`
	CommonMistakes         datatypes.JSONSlice[CommonMistake]   `json:"commonMistakes"`
	LastUpdated            time.Time                            `json:"lastUpdated"`
}

func (QuizAnalytics) TableName() string {
	return "quiz_analytics"
}
