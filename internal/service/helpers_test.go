package service

import (
	"context"
	"encoding/json"
	"learning_cloud_backend/internal/config"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/pkg/database"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
	"gorm.io/datatypes"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	db, err := gorm.Open(sqlite.Open(database.SQLiteDSN(filepath.Join(t.TempDir(), "quiz.db"))), &gorm.Config{
		Logger:         logger.Default.LogMode(logger.Silent),
		TranslateError: true,
	})
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	t.Cleanup(func() {
		if sqlDB, err := db.DB(); err == nil {
			sqlDB.Close()
		}
	})
	return db
}

// recordingDispatcher 记录事件并转发给真实的分发器（可选）
type recordingDispatcher struct {
	mu     sync.Mutex
	events []QuizEvent
	next   EventDispatcher
}

func (d *recordingDispatcher) Dispatch(ctx context.Context, events []QuizEvent) {
	d.mu.Lock()
	d.events = append(d.events, events...)
	d.mu.Unlock()
	if d.next != nil {
		d.next.Dispatch(ctx, events)
	}
}

func (d *recordingDispatcher) types() []QuizEventType {
	d.mu.Lock()
	defer d.mu.Unlock()
	out := make([]QuizEventType, 0, len(d.events))
	for _, ev := range d.events {
		out = append(out, ev.Type)
	}
	return out
}

type fixture struct {
	db         *gorm.DB
	policy     *QuizPolicy
	dispatcher *recordingDispatcher
	quizzes    *QuizService
	attempts   *QuizAttemptService
	analytics  *QuizAnalyticsService
}

func newFixture(t *testing.T) *fixture {
	t.Helper()

	db := newTestDB(t)
	policy := NewQuizPolicy(config.QuizConfig{ImprovementThreshold: 70, AnalyticsCacheTTLSecond: 60})

	quizRepo := repository.NewQuizRepository(db)
	analyticsRepo := repository.NewAnalyticsRepository(db)
	analytics := NewQuizAnalyticsService(quizRepo, analyticsRepo, nil, policy, db)

	collaborators := NewCollaboratorDispatcher(repository.NewNotificationRepository(db), analyticsRepo)
	collaborators.Cache = analytics
	dispatcher := &recordingDispatcher{next: collaborators}

	return &fixture{
		db:         db,
		policy:     policy,
		dispatcher: dispatcher,
		quizzes:    NewQuizService(quizRepo, db),
		attempts: NewQuizAttemptService(
			quizRepo,
			repository.NewQuizAttemptRepository(db),
			repository.NewQuizSessionRepository(db),
			repository.NewQuizResultRepository(db),
			dispatcher,
			policy,
			db,
		),
		analytics: analytics,
	}
}

// seedQuiz 直接写库创建测验，题目按传入顺序编号
func (f *fixture) seedQuiz(t *testing.T, maxAttempts, passingScore int, questions ...model.Question) *model.Quiz {
	t.Helper()

	quiz := &model.Quiz{
		Title:        "Fractions",
		SubjectID:    3,
		GradeLevel:   2,
		MaxAttempts:  maxAttempts,
		PassingScore: passingScore,
		IsActive:     true,
		CreatedBy:    100,
	}
	for i := range questions {
		questions[i].OrderIndex = i
		questions[i].IsActive = true
	}
	quiz.Questions = questions
	require.NoError(t, f.db.Create(quiz).Error)
	return quiz
}

func mcQuestion(points int, answer string) model.Question {
	return model.Question{
		QuestionText:    "Pick " + answer,
		QuestionType:    model.MultipleChoice,
		Options:         datatypes.JSONSlice[string]{"a", "b", "c"},
		CorrectAnswer:   jsonValue(answer),
		Explanation:     "because " + answer,
		Points:          points,
		DifficultyLevel: 1,
	}
}

func tfQuestion(points int, answer bool, difficulty int) model.Question {
	return model.Question{
		QuestionText:    "True or false?",
		QuestionType:    model.TrueFalse,
		CorrectAnswer:   jsonValue(answer),
		Points:          points,
		DifficultyLevel: difficulty,
	}
}

func jsonValue(v interface{}) datatypes.JSON {
	raw, err := json.Marshal(v)
	if err != nil {
		panic(err)
	}
	return datatypes.JSON(raw)
}
