package model

// swagger:model Answer
type Answer struct {
	BaseModel

	AttemptID    uint   `gorm:"not null;uniqueIndex:idx_answer_attempt_question" json:"attemptId"`
	QuestionID   uint   `gorm:"not null;uniqueIndex:idx_answer_attempt_question;index" json:"questionId"`
	AnswerText   string `gorm:"type:text" json:"answerText"`
	IsCorrect    bool   `json:"isCorrect"`
	PointsEarned int    `json:"pointsEarned"`
	TimeSpent    int    `json:"timeSpent"` // 秒

	Question *Question `gorm:"foreignKey:QuestionID" json:"question,omitempty"`
}

func (Answer) TableName() string {
	return "quiz_answers"
}
