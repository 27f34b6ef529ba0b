package service

import (
	"context"
	"errors"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"learning_cloud_backend/pkg/logger"
	"learning_cloud_backend/pkg/monitoring"
	"learning_cloud_backend/pkg/tracing"
	"strconv"
	"strings"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

type QuizAttemptService struct {
	QuizRepo    *repository.QuizRepository
	AttemptRepo *repository.QuizAttemptRepository
	SessionRepo *repository.QuizSessionRepository
	ResultRepo  *repository.QuizResultRepository
	Dispatcher  EventDispatcher
	Policy      *QuizPolicy
	DB          *gorm.DB
}

func NewQuizAttemptService(
	quizRepo *repository.QuizRepository,
	attemptRepo *repository.QuizAttemptRepository,
	sessionRepo *repository.QuizSessionRepository,
	resultRepo *repository.QuizResultRepository,
	dispatcher EventDispatcher,
	policy *QuizPolicy,
	db *gorm.DB,
) *QuizAttemptService {
	return &QuizAttemptService{
		QuizRepo:    quizRepo,
		AttemptRepo: attemptRepo,
		SessionRepo: sessionRepo,
		ResultRepo:  resultRepo,
		Dispatcher:  dispatcher,
		Policy:      policy,
		DB:          db,
	}
}

// ClientInfo 开始作答时记录的客户端信息
type ClientInfo struct {
	IPAddress string
	UserAgent string
}

type SubmitAnswerInput struct {
	QuestionID uint   `json:"questionId" binding:"required"`
	AnswerText string `json:"answerText"`
	TimeSpent  int    `json:"timeSpent" binding:"min=0"`
}

type SubmitAnswerResult struct {
	IsCorrect         bool               `json:"isCorrect"`
	PointsEarned      int                `json:"pointsEarned"`
	Explanation       string             `json:"explanation,omitempty"`
	NextQuestionIndex int                `json:"nextQuestionIndex"`
	IsCompleted       bool               `json:"isCompleted"`
	Attempt           *model.QuizAttempt `json:"attempt,omitempty"`
	Result            *model.QuizResult  `json:"result,omitempty"`
}

type CompletionResult struct {
	Attempt *model.QuizAttempt `json:"attempt"`
	Result  *model.QuizResult  `json:"result"`
}

// StartAttempt 在同一事务内检查次数上限与会话互斥，并创建作答与会话
func (s *QuizAttemptService) StartAttempt(ctx context.Context, studentID, quizID uint, client ClientInfo) (attempt *model.QuizAttempt, session *model.QuizSession, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.StartAttempt",
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("quiz.id", int64(quizID)))
	defer func() {
		monitoring.QuizAttemptStarts.WithLabelValues(startOutcome(err)).Inc()
		tracing.EndSpan(span, err)
	}()

	db := s.DB.WithContext(ctx)
	quiz, err := s.QuizRepo.WithTx(db).FindActiveByID(quizID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil, util.ErrQuizNotFound
		}
		return nil, nil, err
	}

	err = db.Transaction(func(tx *gorm.DB) error {
		attempts := s.AttemptRepo.WithTx(tx)
		sessions := s.SessionRepo.WithTx(tx)

		count, err := attempts.CountByStudentAndQuiz(studentID, quizID)
		if err != nil {
			return err
		}
		if count >= int64(quiz.MaxAttempts) {
			return util.ErrAttemptLimitExceeded
		}

		active, err := sessions.ExistsActive(studentID, quizID)
		if err != nil {
			return err
		}
		if active {
			return util.ErrSessionAlreadyActive
		}

		totalQuestions, err := s.QuizRepo.WithTx(tx).CountActiveQuestions(quizID)
		if err != nil {
			return err
		}

		now := time.Now()
		attempt = &model.QuizAttempt{
			StudentID:      studentID,
			QuizID:         quizID,
			AttemptNumber:  int(count) + 1,
			StartedAt:      now,
			TotalQuestions: int(totalQuestions),
			IPAddress:      client.IPAddress,
			UserAgent:      client.UserAgent,
		}
		if err := attempts.Create(attempt); err != nil {
			return err
		}

		session = &model.QuizSession{
			SessionKey:   model.GenerateUUID(),
			StudentID:    studentID,
			QuizID:       quizID,
			AttemptID:    attempt.ID,
			AnswersData:  datatypes.JSONMap{},
			LastActivity: now,
			IsActive:     true,
			ActiveKey:    model.SessionActiveKey(studentID, quizID),
		}
		return sessions.Create(session)
	})

	if err != nil {
		if isDuplicateKey(err) {
			// 并发开始同一测验时，唯一索引兜底；按当前状态判定冲突类型，不重试
			err = s.resolveStartConflict(db, studentID, quiz)
		}
		return nil, nil, err
	}

	logger.Log.Info("Quiz attempt started",
		zap.Uint("studentID", studentID),
		zap.Uint("quizID", quizID),
		zap.Int("attemptNumber", attempt.AttemptNumber))
	return attempt, session, nil
}

func (s *QuizAttemptService) resolveStartConflict(db *gorm.DB, studentID uint, quiz *model.Quiz) error {
	count, err := s.AttemptRepo.WithTx(db).CountByStudentAndQuiz(studentID, quiz.ID)
	if err != nil {
		return err
	}
	if count >= int64(quiz.MaxAttempts) {
		return util.ErrAttemptLimitExceeded
	}
	return util.ErrSessionAlreadyActive
}

// SubmitAnswer 只接受当前题目的答案，判分后推进题目指针，最后一题提交后自动完成作答
func (s *QuizAttemptService) SubmitAnswer(ctx context.Context, studentID uint, sessionKey string, input SubmitAnswerInput) (result *SubmitAnswerResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.SubmitAnswer",
		attribute.Int64("student.id", int64(studentID)),
		attribute.Int64("question.id", int64(input.QuestionID)))
	defer func() { tracing.EndSpan(span, err) }()

	var events []QuizEvent
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.lockSession(tx, studentID, sessionKey)
		if err != nil {
			return err
		}
		if !session.IsActive {
			return util.ErrSessionInactive
		}

		quizzes := s.QuizRepo.WithTx(tx)
		question, err := quizzes.FindQuestionByID(input.QuestionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}
		if question.QuizID != session.QuizID || !question.IsActive {
			return util.ErrQuestionNotFound
		}

		questions, err := quizzes.ActiveQuestions(session.QuizID)
		if err != nil {
			return err
		}
		idx := session.CurrentQuestionIndex
		if idx >= len(questions) || questions[idx].ID != question.ID {
			return util.ErrNotCurrentQuestion
		}

		if err := ValidateAnswer(question, input.AnswerText); err != nil {
			return err
		}
		eval, err := EvaluateAnswer(question, input.AnswerText)
		if err != nil {
			return err
		}

		attempts := s.AttemptRepo.WithTx(tx)
		if err := attempts.UpsertAnswer(&model.Answer{
			AttemptID:    session.AttemptID,
			QuestionID:   question.ID,
			AnswerText:   input.AnswerText,
			IsCorrect:    eval.IsCorrect,
			PointsEarned: eval.PointsEarned,
			TimeSpent:    input.TimeSpent,
		}); err != nil {
			return err
		}

		attempt, err := attempts.FindByIDForUpdate(session.AttemptID)
		if err != nil {
			return err
		}
		attempt.TimeSpent += input.TimeSpent
		if eval.IsCorrect {
			attempt.CorrectAnswers++
		}
		if err := attempts.Update(attempt); err != nil {
			return err
		}

		answers := session.AnswersData
		if answers == nil {
			answers = datatypes.JSONMap{}
		}
		answers[strconv.FormatUint(uint64(question.ID), 10)] = map[string]interface{}{
			"answer":       input.AnswerText,
			"is_correct":   eval.IsCorrect,
			"time_spent":   input.TimeSpent,
			"submitted_at": time.Now().Format(time.RFC3339),
		}

		next := idx + 1
		advanced, err := s.SessionRepo.WithTx(tx).AdvanceIndex(session.ID, idx, next, answers)
		if err != nil {
			return err
		}
		if !advanced {
			return util.ErrNotCurrentQuestion
		}

		monitoring.QuizAnswers.WithLabelValues(string(question.QuestionType), strconv.FormatBool(eval.IsCorrect)).Inc()

		result = &SubmitAnswerResult{
			IsCorrect:         eval.IsCorrect,
			PointsEarned:      eval.PointsEarned,
			NextQuestionIndex: next,
		}
		if eval.IsCorrect {
			result.Explanation = question.Explanation
		}

		if next >= len(questions) {
			completion, evs, err := s.completeLocked(tx, session, attempt)
			if err != nil {
				return err
			}
			result.IsCompleted = true
			result.Attempt = completion.Attempt
			result.Result = completion.Result
			events = evs
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return result, nil
}

// Complete 强制结束作答，未作答题目计 0 分
func (s *QuizAttemptService) Complete(ctx context.Context, studentID uint, sessionKey string) (completion *CompletionResult, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.Complete", attribute.Int64("student.id", int64(studentID)))
	defer func() { tracing.EndSpan(span, err) }()

	var events []QuizEvent
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.lockSession(tx, studentID, sessionKey)
		if err != nil {
			return err
		}
		if !session.IsActive {
			return util.ErrSessionNotFound
		}

		attempt, err := s.AttemptRepo.WithTx(tx).FindByIDForUpdate(session.AttemptID)
		if err != nil {
			return err
		}

		completion, events, err = s.completeLocked(tx, session, attempt)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.dispatch(ctx, events)
	return completion, nil
}

// Abandon 放弃作答：不计分，不生成结果
func (s *QuizAttemptService) Abandon(ctx context.Context, studentID uint, sessionKey string) (err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAttemptService.Abandon", attribute.Int64("student.id", int64(studentID)))
	defer func() { tracing.EndSpan(span, err) }()

	var events []QuizEvent
	err = s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		session, err := s.lockSession(tx, studentID, sessionKey)
		if err != nil {
			return err
		}
		if !session.IsActive {
			return util.ErrSessionNotFound
		}
		if _, err := s.SessionRepo.WithTx(tx).Deactivate(session.ID); err != nil {
			return err
		}

		attempts := s.AttemptRepo.WithTx(tx)
		attempt, err := attempts.FindByIDForUpdate(session.AttemptID)
		if err != nil {
			return err
		}
		if attempt.IsFinalized() {
			return nil
		}

		now := time.Now()
		attempt.IsAbandoned = true
		attempt.CompletedAt = &now
		attempt.Score = nil
		attempt.IsPassed = false
		if err := attempts.Update(attempt); err != nil {
			return err
		}

		quiz, err := s.QuizRepo.WithTx(tx).FindByID(attempt.QuizID)
		if err != nil {
			return err
		}
		monitoring.QuizFinalizations.WithLabelValues(string(model.AttemptAbandoned)).Inc()
		events = append(events, QuizEvent{
			Type:       EventQuizAbandoned,
			OccurredAt: now,
			StudentID:  attempt.StudentID,
			QuizID:     attempt.QuizID,
			AttemptID:  attempt.ID,
			QuizTitle:  quiz.Title,
			SubjectID:  quiz.SubjectID,
			GradeLevel: quiz.GradeLevel,
			TimeSpent:  attempt.TimeSpent,
		})
		return nil
	})
	if err != nil {
		return err
	}

	logger.Log.Info("Quiz attempt abandoned", zap.Uint("studentID", studentID), zap.String("sessionKey", sessionKey))
	s.dispatch(ctx, events)
	return nil
}

func (s *QuizAttemptService) lockSession(tx *gorm.DB, studentID uint, sessionKey string) (*model.QuizSession, error) {
	session, err := s.SessionRepo.WithTx(tx).FindByKeyForUpdate(sessionKey, studentID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrSessionNotFound
		}
		return nil, err
	}
	return session, nil
}

// completeLocked 调用方需持有会话行锁
func (s *QuizAttemptService) completeLocked(tx *gorm.DB, session *model.QuizSession, attempt *model.QuizAttempt) (*CompletionResult, []QuizEvent, error) {
	if _, err := s.SessionRepo.WithTx(tx).Deactivate(session.ID); err != nil {
		return nil, nil, err
	}

	quiz, err := s.QuizRepo.WithTx(tx).FindByID(attempt.QuizID)
	if err != nil {
		return nil, nil, err
	}

	events, err := finalizeAttempt(tx, attempt, quiz)
	if err != nil {
		return nil, nil, fmt.Errorf("finalize attempt %d: %w", attempt.ID, err)
	}

	result, resultEvents, err := generateResult(tx, attempt, quiz, s.Policy.ImprovementThreshold())
	if err != nil {
		return nil, nil, fmt.Errorf("generate result for attempt %d: %w", attempt.ID, err)
	}

	score := 0.0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	logger.Log.Info("Quiz completed",
		zap.Uint("studentID", attempt.StudentID),
		zap.Uint("quizID", attempt.QuizID),
		zap.Float64("score", score),
		zap.Bool("passed", attempt.IsPassed))

	return &CompletionResult{Attempt: attempt, Result: result}, append(events, resultEvents...), nil
}

func (s *QuizAttemptService) dispatch(ctx context.Context, events []QuizEvent) {
	if s.Dispatcher == nil || len(events) == 0 {
		return
	}
	s.Dispatcher.Dispatch(ctx, events)
}

func isDuplicateKey(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := strings.ToLower(err.Error())
	return strings.Contains(msg, "unique constraint") || strings.Contains(msg, "duplicate entry")
}

func startOutcome(err error) string {
	switch {
	case err == nil:
		return "started"
	case errors.Is(err, util.ErrAttemptLimitExceeded):
		return "limit_exceeded"
	case errors.Is(err, util.ErrSessionAlreadyActive):
		return "session_active"
	case errors.Is(err, util.ErrQuizNotFound):
		return "quiz_not_found"
	}
	return "error"
}
