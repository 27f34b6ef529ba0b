package service

import (
	"learning_cloud_backend/internal/model"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestComputeScore(t *testing.T) {
	score, ok := ComputeScore(1, 4)
	assert.True(t, ok)
	assert.InDelta(t, 25.0, score, 1e-9)

	score, ok = ComputeScore(4, 4)
	assert.True(t, ok)
	assert.InDelta(t, 100.0, score, 1e-9)

	score, ok = ComputeScore(0, 0)
	assert.False(t, ok)
	assert.Zero(t, score)
}

func TestDifficultyBreakdown(t *testing.T) {
	easy := &model.Question{DifficultyLevel: 1}
	hard := &model.Question{DifficultyLevel: 4}
	answers := []model.Answer{
		{IsCorrect: true, Question: easy},
		{IsCorrect: false, Question: easy},
		{IsCorrect: true, Question: hard},
		{IsCorrect: true},
	}

	got := DifficultyBreakdown(answers)
	assert.Equal(t, map[string]model.DifficultyTally{
		"1": {Correct: 1, Total: 2},
		"4": {Correct: 1, Total: 1},
	}, got)
}
