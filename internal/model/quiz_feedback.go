package model

// swagger:model QuizFeedback
type QuizFeedback struct {
	BaseModel

	AttemptID        uint   `gorm:"uniqueIndex;not null" json:"attemptId"`
	StudentID        uint   `gorm:"index;not null" json:"studentId"`
	Rating           int    `gorm:"not null" json:"rating"` // 1-5
	Comment          string `gorm:"type:text" json:"comment"`
	DifficultyRating *int   `json:"difficultyRating,omitempty"` // 1-5

	Attempt *QuizAttempt `gorm:"foreignKey:AttemptID" json:"attempt,omitempty"`
}

func (QuizFeedback) TableName() string {
	return "quiz_feedback"
}
