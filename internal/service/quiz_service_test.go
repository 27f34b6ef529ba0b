package service

import (
	"context"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validQuizRequest() QuizCreateRequest {
	return QuizCreateRequest{
		Title:      "Plants",
		SubjectID:  5,
		GradeLevel: 3,
		Questions: []QuestionRequest{
			{QuestionText: "Capital?", QuestionType: "MULTIPLE_CHOICE", Options: []string{"Paris", "Rome"}, CorrectAnswer: "Paris"},
			{QuestionText: "Sky is green", QuestionType: "TRUE_FALSE", CorrectAnswer: false, Points: 2, DifficultyLevel: 2},
			{QuestionText: "Match", QuestionType: "MATCHING", CorrectAnswer: map[string]string{"cat": "meow"}},
		},
	}
}

func TestCreateQuiz(t *testing.T) {
	f := newFixture(t)

	quiz, err := f.quizzes.CreateQuiz(context.Background(), 100, validQuizRequest())
	require.NoError(t, err)

	assert.NotZero(t, quiz.ID)
	assert.Equal(t, 3, quiz.MaxAttempts)
	assert.Equal(t, 70, quiz.PassingScore)
	assert.True(t, quiz.IsActive)
	assert.Equal(t, uint(100), quiz.CreatedBy)
	require.Len(t, quiz.Questions, 3)
	for i, q := range quiz.Questions {
		assert.Equal(t, i, q.OrderIndex)
		assert.True(t, q.IsActive)
	}
	assert.Equal(t, 1, quiz.Questions[0].Points)
	assert.Equal(t, 1, quiz.Questions[0].DifficultyLevel)
	assert.Equal(t, 2, quiz.Questions[1].Points)
	assert.Empty(t, quiz.Questions[1].Options)

	total, err := repository.NewQuizRepository(f.db).SumActivePoints(quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
}

func TestCreateQuizRejectsInvalidDefinitions(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(r *QuizCreateRequest)
	}{
		{"missing title", func(r *QuizCreateRequest) { r.Title = "" }},
		{"grade out of range", func(r *QuizCreateRequest) { r.GradeLevel = 9 }},
		{"unknown question type", func(r *QuizCreateRequest) { r.Questions[0].QuestionType = "ESSAY" }},
		{"single option", func(r *QuizCreateRequest) { r.Questions[0].Options = []string{"Paris"} }},
		{"malformed matching key", func(r *QuizCreateRequest) { r.Questions[2].CorrectAnswer = "cat" }},
		{"non boolean true false", func(r *QuizCreateRequest) { r.Questions[1].CorrectAnswer = "yes" }},
		{"blank multiple choice answer", func(r *QuizCreateRequest) { r.Questions[0].CorrectAnswer = " " }},
		{"blank short answer reference", func(r *QuizCreateRequest) {
			r.Questions[2] = QuestionRequest{QuestionText: "Explain", QuestionType: "SHORT_ANSWER", CorrectAnswer: ""}
		}},
		{"blank fill in blank alternative", func(r *QuizCreateRequest) {
			r.Questions[2] = QuestionRequest{QuestionText: "Fill", QuestionType: "FILL_IN_BLANK", CorrectAnswer: []string{"four", ""}}
		}},
		{"duplicate order", func(r *QuizCreateRequest) {
			zero := 0
			r.Questions[0].OrderIndex = &zero
			r.Questions[1].OrderIndex = &zero
		}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			req := validQuizRequest()
			tt.mutate(&req)

			_, err := f.quizzes.CreateQuiz(context.Background(), 100, req)
			assert.ErrorIs(t, err, util.ErrInvalidQuiz)

			var count int64
			require.NoError(t, f.db.Model(&model.Quiz{}).Count(&count).Error)
			assert.Zero(t, count)
		})
	}
}

func TestAddQuestion(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.quizzes.CreateQuiz(ctx, 100, validQuizRequest())
	require.NoError(t, err)

	owner := &util.Claims{UserID: 100, Role: model.Teacher}
	stranger := &util.Claims{UserID: 200, Role: model.Teacher}
	admin := &util.Claims{UserID: 1, Role: model.Admin}
	req := QuestionRequest{QuestionText: "2+2", QuestionType: "FILL_IN_BLANK", CorrectAnswer: []string{"4", "four"}}

	_, err = f.quizzes.AddQuestion(ctx, stranger, quiz.ID, req)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)

	_, err = f.quizzes.AddQuestion(ctx, owner, 9999, req)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)

	q, err := f.quizzes.AddQuestion(ctx, owner, quiz.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 3, q.OrderIndex)
	assert.Equal(t, quiz.ID, q.QuizID)

	q, err = f.quizzes.AddQuestion(ctx, admin, quiz.ID, req)
	require.NoError(t, err)
	assert.Equal(t, 4, q.OrderIndex)

	taken := 1
	req.OrderIndex = &taken
	_, err = f.quizzes.AddQuestion(ctx, owner, quiz.ID, req)
	assert.ErrorIs(t, err, util.ErrInvalidQuiz)
}

func TestSetQuestionActiveChangesScoringBasis(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.quizzes.CreateQuiz(ctx, 100, validQuizRequest())
	require.NoError(t, err)
	owner := &util.Claims{UserID: 100, Role: model.Teacher}

	err = f.quizzes.SetQuestionActive(ctx, &util.Claims{UserID: 300, Role: model.Teacher}, quiz.Questions[1].ID, false)
	assert.ErrorIs(t, err, util.ErrPermissionDenied)
	assert.ErrorIs(t, f.quizzes.SetQuestionActive(ctx, owner, 9999, false), util.ErrQuestionNotFound)

	require.NoError(t, f.quizzes.SetQuestionActive(ctx, owner, quiz.Questions[1].ID, false))

	detail, err := f.quizzes.GetQuiz(ctx, quiz.ID, false)
	require.NoError(t, err)
	require.Len(t, detail.Questions, 2)
	assert.Equal(t, quiz.Questions[0].ID, detail.Questions[0].ID)
	assert.Equal(t, quiz.Questions[2].ID, detail.Questions[1].ID)

	total, err := repository.NewQuizRepository(f.db).SumActivePoints(quiz.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(2), total)

	attempt, _, err := f.attempts.StartAttempt(ctx, studentID, quiz.ID, ClientInfo{})
	require.NoError(t, err)
	assert.Equal(t, 2, attempt.TotalQuestions)
}

func TestGetQuizViews(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()
	quiz, err := f.quizzes.CreateQuiz(ctx, 100, validQuizRequest())
	require.NoError(t, err)

	student, err := f.quizzes.GetQuiz(ctx, quiz.ID, false)
	require.NoError(t, err)
	require.Len(t, student.Questions, 3)
	for _, q := range student.Questions {
		assert.Nil(t, q.CorrectAnswer)
	}
	assert.Equal(t, []string{"Paris", "Rome"}, student.Questions[0].Options)

	teacher, err := f.quizzes.GetQuiz(ctx, quiz.ID, true)
	require.NoError(t, err)
	assert.NotNil(t, teacher.Questions[0].CorrectAnswer)

	require.NoError(t, f.db.Model(&model.Quiz{}).Where("id = ?", quiz.ID).Update("is_active", false).Error)
	_, err = f.quizzes.GetQuiz(ctx, quiz.ID, false)
	assert.ErrorIs(t, err, util.ErrQuizNotFound)
	_, err = f.quizzes.GetQuiz(ctx, quiz.ID, true)
	assert.NoError(t, err)
}

func TestListQuizzes(t *testing.T) {
	f := newFixture(t)
	ctx := context.Background()

	for i := 0; i < 3; i++ {
		_, err := f.quizzes.CreateQuiz(ctx, 100, validQuizRequest())
		require.NoError(t, err)
	}
	other := validQuizRequest()
	other.SubjectID = 6
	_, err := f.quizzes.CreateQuiz(ctx, 100, other)
	require.NoError(t, err)

	list, total, err := f.quizzes.ListQuizzes(ctx, repository.QuizFilter{SubjectID: 5, Page: 1, Limit: 2})
	require.NoError(t, err)
	assert.Equal(t, int64(3), total)
	assert.Len(t, list, 2)

	list, total, err = f.quizzes.ListQuizzes(ctx, repository.QuizFilter{})
	require.NoError(t, err)
	assert.Equal(t, int64(4), total)
	assert.Len(t, list, 4)
}
