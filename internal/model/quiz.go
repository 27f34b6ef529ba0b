package model

// swagger:model Quiz
type Quiz struct {
	BaseModel

	Title        string `gorm:"size:200;not null" json:"title"`
	Description  string `gorm:"type:text" json:"description"`
	SubjectID    uint   `gorm:"index;not null" json:"subjectId"`
	LessonID     *uint  `gorm:"index" json:"lessonId,omitempty"`
	GradeLevel   int    `gorm:"index;not null" json:"gradeLevel"` // 1-4
	TimeLimit    *int   `json:"timeLimit,omitempty"`              // 分钟
	MaxAttempts  int    `gorm:"default:3" json:"maxAttempts"`
	PassingScore int    `gorm:"default:70" json:"passingScore"` // 百分比
	IsActive     bool   `gorm:"index" json:"isActive"`
	IsPremium    bool   `gorm:"default:false" json:"isPremium"`
	Instructions string `gorm:"type:text" json:"instructions"`
	CreatedBy    uint   `gorm:"index" json:"createdBy"`

	Questions []Question `gorm:"foreignKey:QuizID" json:"questions,omitempty"`
}

func (Quiz) TableName() string {
	return "quizzes"
}
