package model

import (
	"fmt"
	"time"

	"gorm.io/datatypes"
)

// swagger:model QuizSession
type QuizSession struct {
	BaseModel

	SessionKey           string            `gorm:"size:64;uniqueIndex;not null" json:"sessionKey"`
	StudentID            uint              `gorm:"index;not null" json:"studentId"`
	QuizID               uint              `gorm:"index;not null" json:"quizId"`
	AttemptID            uint              `gorm:"uniqueIndex;not null" json:"attemptId"`
	CurrentQuestionIndex int               `gorm:"not null;default:0" json:"currentQuestionIndex"`
	AnswersData          datatypes.JSONMap `json:"answersData"`
	LastActivity         time.Time         `json:"lastActivity"`
	IsActive             bool              `gorm:"index" json:"isActive"`

	// 仅在进行中时为 student:quiz，结束后置空；唯一索引保证同一学生同一测验只有一个活动会话
	ActiveKey *string `gorm:"size:64;uniqueIndex" json:"-"`
}

func (QuizSession) TableName() string {
	return "quiz_sessions"
}

func SessionActiveKey(studentID, quizID uint) *string {
	k := fmt.Sprintf("%d:%d", studentID, quizID)
	return &k
}
