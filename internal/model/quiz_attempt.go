package model

import "time"

type AttemptStatus string

const (
	AttemptInProgress AttemptStatus = "in_progress"
	AttemptCompleted  AttemptStatus = "completed"
	AttemptAbandoned  AttemptStatus = "abandoned"
)

// swagger:model QuizAttempt
type QuizAttempt struct {
	BaseModel

	StudentID      uint       `gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number" json:"studentId"`
	QuizID         uint       `gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number;index" json:"quizId"`
	AttemptNumber  int        `gorm:"not null;uniqueIndex:idx_attempt_student_quiz_number" json:"attemptNumber"`
	StartedAt      time.Time  `json:"startedAt"`
	CompletedAt    *time.Time `json:"completedAt"`
	Score          *float64   `json:"score"`
	TotalQuestions int        `json:"totalQuestions"`
	CorrectAnswers int        `json:"correctAnswers"`
	TimeSpent      int        `json:"timeSpent"` // 秒
	IsPassed       bool       `json:"isPassed"`
	IsAbandoned    bool       `json:"isAbandoned"`
	IPAddress      string     `gorm:"size:64" json:"ipAddress,omitempty"`
	UserAgent      string     `gorm:"type:text" json:"userAgent,omitempty"`

	Quiz    *Quiz    `gorm:"foreignKey:QuizID" json:"quiz,omitempty"`
	Answers []Answer `gorm:"foreignKey:AttemptID" json:"answers,omitempty"`
}

func (QuizAttempt) TableName() string {
	return "quiz_attempts"
}

func (a *QuizAttempt) IsFinalized() bool {
	return a.CompletedAt != nil
}

func (a *QuizAttempt) Status() AttemptStatus {
	switch {
	case a.IsAbandoned:
		return AttemptAbandoned
	case a.CompletedAt != nil:
		return AttemptCompleted
	}
	return AttemptInProgress
}
