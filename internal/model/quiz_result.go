package model

import "gorm.io/datatypes"

type DifficultyTally struct {
	Correct int `json:"correct"`
	Total   int `json:"total"`
}

// swagger:model QuizResult
type QuizResult struct {
	BaseModel

	AttemptID              uint                                           `gorm:"uniqueIndex;not null" json:"attemptId"`
	TotalTime              int                                            `json:"totalTime"`
	AverageTimePerQuestion float64                                        `json:"averageTimePerQuestion"`
	DifficultyBreakdown    datatypes.JSONType[map[string]DifficultyTally] `json:"difficultyBreakdown"`
	ImprovementSuggestions datatypes.JSONSlice[string]                    `json:"improvementSuggestions"`
}

func (QuizResult) TableName() string {
	return "quiz_results"
}
