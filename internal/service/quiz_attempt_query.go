package service

import (
	"context"
	"errors"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/jinzhu/copier"
	"gorm.io/gorm"
)

var feedbackValidate = validator.New()

// QuestionView 题目的对外展示形式；学生视图不包含标准答案
type QuestionView struct {
	ID              uint               `json:"id"`
	QuestionText    string             `json:"questionText"`
	QuestionType    model.QuestionType `json:"questionType"`
	Options         []string           `json:"options"`
	Explanation     string             `json:"explanation,omitempty"`
	Points          int                `json:"points"`
	OrderIndex      int                `json:"orderIndex"`
	DifficultyLevel int                `json:"difficultyLevel"`
	IsActive        bool               `json:"isActive"`
	CorrectAnswer   interface{}        `json:"correctAnswer,omitempty"`
}

func toQuestionView(q *model.Question, includeAnswer bool) (QuestionView, error) {
	var view QuestionView
	if err := copier.CopyWithOption(&view, q, copier.Option{IgnoreEmpty: true, DeepCopy: true}); err != nil {
		return view, err
	}
	view.CorrectAnswer = nil
	view.Explanation = ""
	if includeAnswer {
		view.Explanation = q.Explanation
		if len(q.CorrectAnswer) > 0 {
			view.CorrectAnswer = q.CorrectAnswer
		}
	}
	return view, nil
}

type SessionView struct {
	SessionKey           string        `json:"sessionKey"`
	AttemptID            uint          `json:"attemptId"`
	QuizID               uint          `json:"quizId"`
	QuizTitle            string        `json:"quizTitle"`
	TimeLimit            *int          `json:"timeLimit,omitempty"`
	IsActive             bool          `json:"isActive"`
	CurrentQuestionIndex int           `json:"currentQuestionIndex"`
	TotalQuestions       int           `json:"totalQuestions"`
	Progress             float64       `json:"progress"` // 百分比
	CurrentQuestion      *QuestionView `json:"currentQuestion,omitempty"`
	StartedAt            time.Time     `json:"startedAt"`
	LastActivity         time.Time     `json:"lastActivity"`
}

type AttemptDetail struct {
	Attempt *model.QuizAttempt  `json:"attempt"`
	Status  model.AttemptStatus `json:"status"`
	Result  *model.QuizResult   `json:"result,omitempty"`
}

type FeedbackInput struct {
	AttemptID        uint   `json:"attemptId" binding:"required" validate:"required"`
	Rating           int    `json:"rating" binding:"required" validate:"required,min=1,max=5"`
	Comment          string `json:"comment" validate:"max=2000"`
	DifficultyRating *int   `json:"difficultyRating" validate:"omitempty,min=1,max=5"`
}

func (s *QuizAttemptService) GetSession(ctx context.Context, studentID uint, sessionKey string) (*SessionView, error) {
	db := s.DB.WithContext(ctx)
	session, err := s.SessionRepo.WithTx(db).FindByKey(sessionKey, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}

	quizzes := s.QuizRepo.WithTx(db)
	quiz, err := quizzes.FindByID(session.QuizID)
	if err != nil {
		return nil, err
	}
	attempt, err := s.AttemptRepo.WithTx(db).FindByID(session.AttemptID)
	if err != nil {
		return nil, err
	}
	questions, err := quizzes.ActiveQuestions(session.QuizID)
	if err != nil {
		return nil, err
	}

	view := &SessionView{
		SessionKey:           session.SessionKey,
		AttemptID:            session.AttemptID,
		QuizID:               quiz.ID,
		QuizTitle:            quiz.Title,
		TimeLimit:            quiz.TimeLimit,
		IsActive:             session.IsActive,
		CurrentQuestionIndex: session.CurrentQuestionIndex,
		TotalQuestions:       len(questions),
		StartedAt:            attempt.StartedAt,
		LastActivity:         session.LastActivity,
	}
	if len(questions) > 0 {
		view.Progress = float64(session.CurrentQuestionIndex) / float64(len(questions)) * 100
		if view.Progress > 100 {
			view.Progress = 100
		}
	}
	if session.IsActive && session.CurrentQuestionIndex < len(questions) {
		qv, err := toQuestionView(&questions[session.CurrentQuestionIndex], false)
		if err != nil {
			return nil, err
		}
		view.CurrentQuestion = &qv
	}
	return view, nil
}

func (s *QuizAttemptService) ListAttempts(ctx context.Context, filter repository.AttemptFilter) ([]model.QuizAttempt, int64, error) {
	normalizePage(&filter.Page, &filter.Limit)
	return s.AttemptRepo.WithTx(s.DB.WithContext(ctx)).List(filter)
}

func (s *QuizAttemptService) GetAttempt(ctx context.Context, studentID, attemptID uint) (*AttemptDetail, error) {
	db := s.DB.WithContext(ctx)
	attempt, err := s.AttemptRepo.WithTx(db).FindByIDAndStudent(attemptID, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}

	// 作答详情中不回传标准答案
	for i := range attempt.Answers {
		if attempt.Answers[i].Question != nil {
			attempt.Answers[i].Question.CorrectAnswer = nil
		}
	}
	if attempt.Quiz != nil {
		attempt.Quiz.Questions = nil
	}

	detail := &AttemptDetail{Attempt: attempt, Status: attempt.Status()}
	result, err := s.ResultRepo.WithTx(db).FindByAttempt(attempt.ID)
	if err != nil && !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	if err == nil {
		detail.Result = result
	}
	return detail, nil
}

// SubmitFeedback 仅允许对已完成（非放弃）的作答评价，重复提交覆盖
func (s *QuizAttemptService) SubmitFeedback(ctx context.Context, studentID uint, input FeedbackInput) (*model.QuizFeedback, error) {
	if err := feedbackValidate.Struct(input); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidInput, err)
	}

	db := s.DB.WithContext(ctx)
	attempt, err := s.AttemptRepo.WithTx(db).FindByID(input.AttemptID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrAttemptNotFound
		}
		return nil, err
	}
	if attempt.StudentID != studentID {
		return nil, util.ErrAttemptNotFound
	}
	if attempt.Status() != model.AttemptCompleted {
		return nil, util.ErrAttemptNotCompleted
	}

	fb := &model.QuizFeedback{
		AttemptID:        attempt.ID,
		StudentID:        studentID,
		Rating:           input.Rating,
		Comment:          input.Comment,
		DifficultyRating: input.DifficultyRating,
	}
	results := s.ResultRepo.WithTx(db)
	if err := results.UpsertFeedback(fb); err != nil {
		return nil, err
	}
	return results.FindFeedbackByAttempt(attempt.ID)
}

func (s *QuizAttemptService) ListFeedback(ctx context.Context, studentID, quizID uint) ([]model.QuizFeedback, error) {
	return s.ResultRepo.WithTx(s.DB.WithContext(ctx)).ListFeedback(studentID, quizID)
}

func normalizePage(page, limit *int) {
	if *page < 1 {
		*page = util.DefaultPage
	}
	if *limit < 1 {
		*limit = util.DefaultLimit
	}
	if *limit > util.MaxLimit {
		*limit = util.MaxLimit
	}
}
