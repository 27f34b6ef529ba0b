package service

import (
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func question(qt model.QuestionType, correct string, points int) *model.Question {
	q := &model.Question{
		QuestionType:  qt,
		CorrectAnswer: []byte(correct),
		Points:        points,
	}
	q.ID = 1
	return q
}

func TestEvaluateAnswer(t *testing.T) {
	tests := []struct {
		name    string
		q       *model.Question
		answer  string
		correct bool
	}{
		{"multiple choice exact", question(model.MultipleChoice, `"Paris"`, 2), "Paris", true},
		{"multiple choice case and space", question(model.MultipleChoice, `"Paris"`, 2), "  paris ", true},
		{"multiple choice wrong", question(model.MultipleChoice, `"Paris"`, 2), "Lyon", false},
		{"true false", question(model.TrueFalse, `"true"`, 1), "TRUE", true},
		{"true false stored as bool", question(model.TrueFalse, `false`, 1), "false", true},
		{"true false wrong", question(model.TrueFalse, `"true"`, 1), "false", false},
		{"fill in blank alternative", question(model.FillInBlank, `["four","4"]`, 1), "4", true},
		{"fill in blank single", question(model.FillInBlank, `"H2O"`, 1), "h2o", true},
		{"fill in blank miss", question(model.FillInBlank, `["four","4"]`, 1), "five", false},
		{"short answer contained in reference", question(model.ShortAnswer, `"the process of photosynthesis"`, 3), "Photosynthesis", true},
		{"short answer contains reference", question(model.ShortAnswer, `"photosynthesis"`, 3), "it is photosynthesis", true},
		{"short answer unrelated", question(model.ShortAnswer, `"photosynthesis"`, 3), "respiration", false},
		{"matching all pairs", question(model.Matching, `{"cat":"meow","dog":"woof"}`, 2), `{"Dog":"Woof","cat":"meow"}`, true},
		{"matching wrong pair", question(model.Matching, `{"cat":"meow","dog":"woof"}`, 2), `{"dog":"meow","cat":"woof"}`, false},
		{"multiple choice lower case letter", question(model.MultipleChoice, `"B"`, 1), "b", true},
		{"fill in blank padded upper case", question(model.FillInBlank, `["Paris","paris"]`, 1), " PARIS ", true},
		{"short answer fragment", question(model.ShortAnswer, `"Photosynthesis"`, 1), "synthesis", true},
		{"matching missing pair", question(model.Matching, `{"cat":"meow","dog":"woof"}`, 2), `{"cat":"meow"}`, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			eval, err := EvaluateAnswer(tt.q, tt.answer)
			require.NoError(t, err)
			assert.Equal(t, tt.correct, eval.IsCorrect)
			if tt.correct {
				assert.Equal(t, tt.q.Points, eval.PointsEarned)
			} else {
				assert.Zero(t, eval.PointsEarned)
			}
		})
	}
}

func TestEvaluateAnswerMalformedKey(t *testing.T) {
	_, err := EvaluateAnswer(question(model.Matching, `"not an object"`, 1), `{"a":"b"}`)
	assert.ErrorIs(t, err, model.ErrMalformedCorrectAnswer)

	_, err = EvaluateAnswer(question(model.TrueFalse, `"yes"`, 1), "true")
	assert.ErrorIs(t, err, model.ErrMalformedCorrectAnswer)

	_, err = EvaluateAnswer(question(model.ShortAnswer, `"  "`, 1), "anything")
	assert.ErrorIs(t, err, model.ErrMalformedCorrectAnswer)
}

func TestValidateAnswer(t *testing.T) {
	tests := []struct {
		name   string
		q      *model.Question
		answer string
		valid  bool
	}{
		{"multiple choice present", question(model.MultipleChoice, `"a"`, 1), "a", true},
		{"multiple choice blank", question(model.MultipleChoice, `"a"`, 1), "   ", false},
		{"fill in blank blank", question(model.FillInBlank, `"a"`, 1), "", false},
		{"short answer blank", question(model.ShortAnswer, `"a"`, 1), "", false},
		{"true false mixed case", question(model.TrueFalse, `"true"`, 1), "False", true},
		{"true false other", question(model.TrueFalse, `"true"`, 1), "yes", false},
		{"matching object", question(model.Matching, `{"a":"b"}`, 1), `{"a":"b"}`, true},
		{"matching not json", question(model.Matching, `{"a":"b"}`, 1), "a=b", false},
		{"matching null", question(model.Matching, `{"a":"b"}`, 1), "null", false},
		{"unknown type", question(model.QuestionType("ESSAY"), `"a"`, 1), "a", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateAnswer(tt.q, tt.answer)
			if tt.valid {
				assert.NoError(t, err)
			} else {
				assert.ErrorIs(t, err, util.ErrInvalidAnswer)
			}
		})
	}
}
