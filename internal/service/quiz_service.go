package service

import (
	"context"
	"errors"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"learning_cloud_backend/pkg/logger"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

var quizValidate = validator.New()

type QuizService struct {
	QuizRepo *repository.QuizRepository
	DB       *gorm.DB
}

func NewQuizService(quizRepo *repository.QuizRepository, db *gorm.DB) *QuizService {
	return &QuizService{
		QuizRepo: quizRepo,
		DB:       db,
	}
}

type QuestionRequest struct {
	QuestionText    string      `json:"questionText" validate:"required"`
	QuestionType    string      `json:"questionType" validate:"required,oneof=MULTIPLE_CHOICE TRUE_FALSE MATCHING FILL_IN_BLANK SHORT_ANSWER"`
	Options         []string    `json:"options"`
	CorrectAnswer   interface{} `json:"correctAnswer"`
	Explanation     string      `json:"explanation"`
	Points          int         `json:"points" validate:"omitempty,min=1"`
	OrderIndex      *int        `json:"orderIndex" validate:"omitempty,min=0"`
	DifficultyLevel int         `json:"difficultyLevel" validate:"omitempty,min=1,max=5"`
}

type QuizCreateRequest struct {
	Title        string            `json:"title" validate:"required,max=200"`
	Description  string            `json:"description"`
	SubjectID    uint              `json:"subjectId" validate:"required"`
	LessonID     *uint             `json:"lessonId"`
	GradeLevel   int               `json:"gradeLevel" validate:"required,min=1,max=4"`
	TimeLimit    *int              `json:"timeLimit" validate:"omitempty,min=1"`
	MaxAttempts  int               `json:"maxAttempts" validate:"omitempty,min=1"`
	PassingScore *int              `json:"passingScore" validate:"omitempty,min=0,max=100"`
	IsPremium    bool              `json:"isPremium"`
	Instructions string            `json:"instructions"`
	Questions    []QuestionRequest `json:"questions" validate:"dive"`
}

// QuizDetail 测验详情；教师视图包含标准答案
type QuizDetail struct {
	Quiz      *model.Quiz    `json:"quiz"`
	Questions []QuestionView `json:"questions"`
}

func (s *QuizService) CreateQuiz(ctx context.Context, creatorID uint, req QuizCreateRequest) (*model.Quiz, error) {
	if err := quizValidate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidQuiz, err)
	}

	quiz := &model.Quiz{
		Title:        req.Title,
		Description:  req.Description,
		SubjectID:    req.SubjectID,
		LessonID:     req.LessonID,
		GradeLevel:   req.GradeLevel,
		TimeLimit:    req.TimeLimit,
		MaxAttempts:  req.MaxAttempts,
		PassingScore: 70,
		IsActive:     true,
		IsPremium:    req.IsPremium,
		Instructions: req.Instructions,
		CreatedBy:    creatorID,
	}
	if quiz.MaxAttempts == 0 {
		quiz.MaxAttempts = 3
	}
	if req.PassingScore != nil {
		quiz.PassingScore = *req.PassingScore
	}

	seen := make(map[int]bool, len(req.Questions))
	for i, qr := range req.Questions {
		order := i
		if qr.OrderIndex != nil {
			order = *qr.OrderIndex
		}
		if seen[order] {
			return nil, fmt.Errorf("%w: duplicate order index %d", util.ErrInvalidQuiz, order)
		}
		seen[order] = true

		q, err := buildQuestion(qr, order)
		if err != nil {
			return nil, err
		}
		quiz.Questions = append(quiz.Questions, *q)
	}

	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return s.QuizRepo.WithTx(tx).Create(quiz)
	})
	if err != nil {
		return nil, err
	}

	logger.Log.Info("Quiz created",
		zap.Uint("quizID", quiz.ID),
		zap.Uint("createdBy", creatorID),
		zap.Int("questions", len(quiz.Questions)))
	return quiz, nil
}

// AddQuestion 追加题目，不影响已有作答的成绩
func (s *QuizService) AddQuestion(ctx context.Context, teacher *util.Claims, quizID uint, req QuestionRequest) (*model.Question, error) {
	if err := quizValidate.Struct(req); err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidQuiz, err)
	}

	var question *model.Question
	err := s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.QuizRepo.WithTx(tx)
		quiz, err := quizzes.FindByID(quizID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuizNotFound
			}
			return err
		}
		if !canEdit(teacher, quiz) {
			return util.ErrPermissionDenied
		}

		order := 0
		if req.OrderIndex != nil {
			order = *req.OrderIndex
		} else if order, err = quizzes.NextOrderIndex(quizID); err != nil {
			return err
		}

		question, err = buildQuestion(req, order)
		if err != nil {
			return err
		}
		question.QuizID = quizID
		if err := quizzes.CreateQuestion(question); err != nil {
			if isDuplicateKey(err) {
				return fmt.Errorf("%w: order index %d already used", util.ErrInvalidQuiz, order)
			}
			return err
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return question, nil
}

func (s *QuizService) SetQuestionActive(ctx context.Context, teacher *util.Claims, questionID uint, active bool) error {
	return s.DB.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		quizzes := s.QuizRepo.WithTx(tx)
		question, err := quizzes.FindQuestionByID(questionID)
		if err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return util.ErrQuestionNotFound
			}
			return err
		}
		quiz, err := quizzes.FindByID(question.QuizID)
		if err != nil {
			return err
		}
		if !canEdit(teacher, quiz) {
			return util.ErrPermissionDenied
		}
		return quizzes.UpdateQuestionActive(questionID, active)
	})
}

func (s *QuizService) ListQuizzes(ctx context.Context, filter repository.QuizFilter) ([]model.Quiz, int64, error) {
	normalizePage(&filter.Page, &filter.Limit)
	return s.QuizRepo.WithTx(s.DB.WithContext(ctx)).List(filter)
}

// GetQuiz 学生只能看到启用的测验且不含答案
func (s *QuizService) GetQuiz(ctx context.Context, quizID uint, includeAnswers bool) (*QuizDetail, error) {
	quizzes := s.QuizRepo.WithTx(s.DB.WithContext(ctx))

	var (
		quiz *model.Quiz
		err  error
	)
	if includeAnswers {
		quiz, err = quizzes.FindByID(quizID)
	} else {
		quiz, err = quizzes.FindActiveByID(quizID)
	}
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	questions, err := quizzes.ActiveQuestions(quizID)
	if err != nil {
		return nil, err
	}
	detail := &QuizDetail{Quiz: quiz, Questions: make([]QuestionView, 0, len(questions))}
	for i := range questions {
		view, err := toQuestionView(&questions[i], includeAnswers)
		if err != nil {
			return nil, err
		}
		detail.Questions = append(detail.Questions, view)
	}
	return detail, nil
}

func buildQuestion(req QuestionRequest, order int) (*model.Question, error) {
	qt := model.QuestionType(req.QuestionType)
	if !qt.Valid() {
		return nil, fmt.Errorf("%w: unknown question type %q", util.ErrInvalidQuiz, req.QuestionType)
	}
	if qt == model.MultipleChoice && len(req.Options) < 2 {
		return nil, fmt.Errorf("%w: multiple choice questions need at least two options", util.ErrInvalidQuiz)
	}

	raw, err := model.EncodeCorrectAnswer(qt, req.CorrectAnswer)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", util.ErrInvalidQuiz, err)
	}

	q := &model.Question{
		QuestionText:    req.QuestionText,
		QuestionType:    qt,
		CorrectAnswer:   datatypes.JSON(raw),
		Explanation:     req.Explanation,
		Points:          req.Points,
		OrderIndex:      order,
		IsActive:        true,
		DifficultyLevel: req.DifficultyLevel,
	}
	if qt == model.MultipleChoice {
		q.Options = req.Options
	}
	if q.Points == 0 {
		q.Points = 1
	}
	if q.DifficultyLevel == 0 {
		q.DifficultyLevel = 1
	}
	return q, nil
}

func canEdit(user *util.Claims, quiz *model.Quiz) bool {
	if user == nil {
		return false
	}
	return user.Role == model.Admin || quiz.CreatedBy == user.UserID
}
