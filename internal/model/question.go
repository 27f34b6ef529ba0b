package model

import "gorm.io/datatypes"

type QuestionType string

const (
	MultipleChoice QuestionType = "MULTIPLE_CHOICE"
	TrueFalse      QuestionType = "TRUE_FALSE"
	Matching       QuestionType = "MATCHING"
	FillInBlank    QuestionType = "FILL_IN_BLANK"
	ShortAnswer    QuestionType = "SHORT_ANSWER"
)

func (t QuestionType) Valid() bool {
	switch t {
	case MultipleChoice, TrueFalse, Matching, FillInBlank, ShortAnswer:
		return true
	}
	return false
}

// swagger:model Question
type Question struct {
	BaseModel

	QuizID          uint                        `gorm:"not null;uniqueIndex:idx_question_quiz_order" json:"quizId"`
	QuestionText    string                      `gorm:"type:text;not null" json:"questionText"`
	QuestionType    QuestionType                `gorm:"size:20;not null" json:"questionType"`
	Options         datatypes.JSONSlice[string] `json:"options"` // 仅选择题使用
	CorrectAnswer   datatypes.JSON              `json:"correctAnswer,omitempty"`
	Explanation     string                      `gorm:"type:text" json:"explanation"`
	Points          int                         `gorm:"default:1" json:"points"`
	OrderIndex      int                         `gorm:"not null;uniqueIndex:idx_question_quiz_order" json:"orderIndex"`
	IsActive        bool                        `gorm:"index" json:"isActive"`
	DifficultyLevel int                         `gorm:"default:1;index" json:"difficultyLevel"` // 1-5
}

func (Question) TableName() string {
	return "questions"
}

// ParsedCorrectAnswer 按题型解析存储的标准答案
func (q *Question) ParsedCorrectAnswer() (CorrectAnswer, error) {
	return ParseCorrectAnswer(q.QuestionType, q.CorrectAnswer)
}
