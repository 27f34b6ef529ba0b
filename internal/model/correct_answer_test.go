package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseCorrectAnswer(t *testing.T) {
	tests := []struct {
		name string
		qt   QuestionType
		raw  string
		want CorrectAnswer
	}{
		{"multiple choice", MultipleChoice, `"Paris"`, ScalarAnswer{Value: "Paris", Type: MultipleChoice}},
		{"true false string", TrueFalse, `" True "`, ScalarAnswer{Value: "true", Type: TrueFalse}},
		{"true false bool", TrueFalse, `false`, ScalarAnswer{Value: "false", Type: TrueFalse}},
		{"fill in blank single", FillInBlank, `"H2O"`, AlternativesAnswer{Alternatives: []string{"H2O"}}},
		{"fill in blank list", FillInBlank, `["four","4"]`, AlternativesAnswer{Alternatives: []string{"four", "4"}}},
		{"short answer", ShortAnswer, `"photosynthesis"`, ReferenceAnswer{Reference: "photosynthesis"}},
		{"matching", Matching, `{"cat":"meow","dog":"woof"}`, PairsAnswer{Pairs: map[string]string{"cat": "meow", "dog": "woof"}}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseCorrectAnswer(tt.qt, []byte(tt.raw))
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
			assert.Equal(t, tt.qt, got.Kind())
		})
	}
}

func TestParseCorrectAnswerMalformed(t *testing.T) {
	tests := []struct {
		name string
		qt   QuestionType
		raw  string
	}{
		{"empty", MultipleChoice, ``},
		{"null", ShortAnswer, `null`},
		{"true false not boolean", TrueFalse, `"maybe"`},
		{"multiple choice object", MultipleChoice, `{"a":1}`},
		{"fill in blank empty list", FillInBlank, `[]`},
		{"fill in blank number", FillInBlank, `42`},
		{"matching list", Matching, `["a","b"]`},
		{"matching empty", Matching, `{}`},
		{"multiple choice blank", MultipleChoice, `"  "`},
		{"fill in blank blank entry", FillInBlank, `["Paris",""]`},
		{"fill in blank blank string", FillInBlank, `" "`},
		{"short answer empty", ShortAnswer, `""`},
		{"short answer whitespace", ShortAnswer, `"   "`},
		{"matching blank value", Matching, `{"cat":""}`},
		{"unknown type", QuestionType("ESSAY"), `"x"`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseCorrectAnswer(tt.qt, []byte(tt.raw))
			assert.ErrorIs(t, err, ErrMalformedCorrectAnswer)
		})
	}
}

func TestEncodeCorrectAnswer(t *testing.T) {
	raw, err := EncodeCorrectAnswer(Matching, map[string]interface{}{"a": "1"})
	require.NoError(t, err)
	assert.JSONEq(t, `{"a":"1"}`, string(raw))

	raw, err = EncodeCorrectAnswer(TrueFalse, true)
	require.NoError(t, err)
	assert.Equal(t, "true", string(raw))

	_, err = EncodeCorrectAnswer(Matching, "not pairs")
	assert.ErrorIs(t, err, ErrMalformedCorrectAnswer)

	_, err = EncodeCorrectAnswer(ShortAnswer, "")
	assert.ErrorIs(t, err, ErrMalformedCorrectAnswer)
}

func TestQuizAttemptStatus(t *testing.T) {
	a := &QuizAttempt{}
	assert.Equal(t, AttemptInProgress, a.Status())
	assert.False(t, a.IsFinalized())

	now := a.StartedAt
	a.CompletedAt = &now
	assert.Equal(t, AttemptCompleted, a.Status())
	assert.True(t, a.IsFinalized())

	a.IsAbandoned = true
	assert.Equal(t, AttemptAbandoned, a.Status())
}

func TestQuestionTypeValid(t *testing.T) {
	assert.True(t, MultipleChoice.Valid())
	assert.True(t, ShortAnswer.Valid())
	assert.False(t, QuestionType("multiple_choice").Valid())
}

func TestSessionActiveKey(t *testing.T) {
	assert.Equal(t, "7:42", *SessionActiveKey(7, 42))
}
