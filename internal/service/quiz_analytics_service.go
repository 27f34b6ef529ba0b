package service

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"learning_cloud_backend/pkg/logger"
	"learning_cloud_backend/pkg/tracing"
	"math"
	"sort"
	"time"

	"github.com/go-redis/redis/v8"
	"go.opentelemetry.io/otel/attribute"
	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

const commonMistakesLimit = 5

type QuizAnalyticsService struct {
	QuizRepo      *repository.QuizRepository
	AnalyticsRepo *repository.AnalyticsRepository
	Redis         *redis.Client
	Policy        *QuizPolicy
	DB            *gorm.DB

	group singleflight.Group
}

func NewQuizAnalyticsService(
	quizRepo *repository.QuizRepository,
	analyticsRepo *repository.AnalyticsRepository,
	rdb *redis.Client,
	policy *QuizPolicy,
	db *gorm.DB,
) *QuizAnalyticsService {
	return &QuizAnalyticsService{
		QuizRepo:      quizRepo,
		AnalyticsRepo: analyticsRepo,
		Redis:         rdb,
		Policy:        policy,
		DB:            db,
	}
}

// StudentQuizStats 学生个人测验统计
type StudentQuizStats struct {
	TotalQuizzes          int64   `json:"totalQuizzes"`
	CompletedQuizzes      int64   `json:"completedQuizzes"`
	AverageScore          float64 `json:"averageScore"`
	TotalAttempts         int64   `json:"totalAttempts"`
	PassedQuizzes         int64   `json:"passedQuizzes"`
	FailedQuizzes         int64   `json:"failedQuizzes"`
	TotalTimeSpent        int64   `json:"totalTimeSpent"` // 秒
	FavoriteSubjectID     *uint   `json:"favoriteSubjectId"`
	ImprovementSubjectIDs []uint  `json:"improvementSubjectIds"`
}

func analyticsCacheKey(quizID uint) string {
	return fmt.Sprintf("quiz:analytics:%d", quizID)
}

// QuizAnalytics 读取测验统计：先查缓存，未命中时合并并发请求后重新计算
func (s *QuizAnalyticsService) QuizAnalytics(ctx context.Context, quizID uint) (snapshot *model.QuizAnalytics, err error) {
	ctx, span := tracing.StartSpan(ctx, "QuizAnalyticsService.QuizAnalytics", attribute.Int64("quiz.id", int64(quizID)))
	defer func() { tracing.EndSpan(span, err) }()

	if _, err := s.QuizRepo.WithTx(s.DB.WithContext(ctx)).FindActiveByID(quizID); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, util.ErrQuizNotFound
		}
		return nil, err
	}

	if cached := s.readCache(ctx, quizID); cached != nil {
		return cached, nil
	}

	v, err, _ := s.group.Do(analyticsCacheKey(quizID), func() (interface{}, error) {
		return s.refresh(ctx, quizID)
	})
	if err != nil {
		return nil, err
	}
	return v.(*model.QuizAnalytics), nil
}

// RefreshAll 重新计算所有启用测验的统计快照，返回成功数量
func (s *QuizAnalyticsService) RefreshAll(ctx context.Context) (int, error) {
	ids, err := s.QuizRepo.WithTx(s.DB.WithContext(ctx)).ListActiveIDs()
	if err != nil {
		return 0, err
	}

	refreshed := 0
	var errs []error
	for _, id := range ids {
		if _, err := s.refresh(ctx, id); err != nil {
			logger.Log.Error("Failed to refresh quiz analytics", zap.Uint("quizID", id), zap.Error(err))
			errs = append(errs, fmt.Errorf("quiz %d: %w", id, err))
			continue
		}
		refreshed++
	}
	return refreshed, errors.Join(errs...)
}

func (s *QuizAnalyticsService) Invalidate(ctx context.Context, quizID uint) {
	if s.Redis == nil {
		return
	}
	if err := s.Redis.Del(ctx, analyticsCacheKey(quizID)).Err(); err != nil {
		logger.Log.Warn("Failed to invalidate quiz analytics cache", zap.Uint("quizID", quizID), zap.Error(err))
	}
}

func (s *QuizAnalyticsService) refresh(ctx context.Context, quizID uint) (*model.QuizAnalytics, error) {
	analytics := s.AnalyticsRepo.WithTx(s.DB.WithContext(ctx))

	snapshot, err := s.compute(analytics, quizID)
	if err != nil {
		return nil, err
	}
	if err := analytics.UpsertSnapshot(snapshot); err != nil {
		return nil, err
	}
	stored, err := analytics.FindSnapshot(quizID)
	if err != nil {
		return nil, err
	}
	s.writeCache(ctx, stored)
	return stored, nil
}

func (s *QuizAnalyticsService) compute(analytics *repository.AnalyticsRepository, quizID uint) (*model.QuizAnalytics, error) {
	attempts, err := analytics.CountFinishedAttempts(quizID)
	if err != nil {
		return nil, err
	}
	stats, err := analytics.CompletionStats(quizID)
	if err != nil {
		return nil, err
	}
	dist, err := analytics.DifficultyDistribution(quizID)
	if err != nil {
		return nil, err
	}
	mistakes, err := analytics.CommonMistakes(quizID, commonMistakesLimit)
	if err != nil {
		return nil, err
	}

	snapshot := &model.QuizAnalytics{
		QuizID:                 quizID,
		TotalAttempts:          attempts,
		TotalCompletions:       stats.Completions,
		AverageScore:           round2(stats.AverageScore),
		AverageTime:            round2(stats.AverageTime / 60),
		DifficultyDistribution: datatypes.NewJSONType(dist),
		CommonMistakes:         mistakes,
		LastUpdated:            time.Now(),
	}
	if stats.Completions > 0 {
		snapshot.PassRate = round2(float64(stats.Passed) / float64(stats.Completions) * 100)
	}
	return snapshot, nil
}

func (s *QuizAnalyticsService) readCache(ctx context.Context, quizID uint) *model.QuizAnalytics {
	if s.Redis == nil {
		return nil
	}
	raw, err := s.Redis.Get(ctx, analyticsCacheKey(quizID)).Bytes()
	if err != nil {
		if !errors.Is(err, redis.Nil) {
			logger.Log.Warn("Quiz analytics cache read failed", zap.Uint("quizID", quizID), zap.Error(err))
		}
		return nil
	}
	var snapshot model.QuizAnalytics
	if err := json.Unmarshal(raw, &snapshot); err != nil {
		return nil
	}
	return &snapshot
}

func (s *QuizAnalyticsService) writeCache(ctx context.Context, snapshot *model.QuizAnalytics) {
	if s.Redis == nil {
		return
	}
	raw, err := json.Marshal(snapshot)
	if err != nil {
		return
	}
	if err := s.Redis.Set(ctx, analyticsCacheKey(snapshot.QuizID), raw, s.Policy.AnalyticsCacheTTL()).Err(); err != nil {
		logger.Log.Warn("Quiz analytics cache write failed", zap.Uint("quizID", snapshot.QuizID), zap.Error(err))
	}
}

// StudentStats 汇总学生已完成的作答；低于改进阈值的学科列为待提升
func (s *QuizAnalyticsService) StudentStats(ctx context.Context, studentID uint) (*StudentQuizStats, error) {
	db := s.DB.WithContext(ctx)
	analytics := s.AnalyticsRepo.WithTx(db)

	stats := &StudentQuizStats{ImprovementSubjectIDs: []uint{}}
	completed, err := analytics.StudentCompletedAttempts(studentID)
	if err != nil {
		return nil, err
	}
	if len(completed) == 0 {
		return stats, nil
	}

	if stats.TotalQuizzes, err = s.QuizRepo.WithTx(db).CountActive(); err != nil {
		return nil, err
	}
	if stats.TotalAttempts, err = analytics.CountStudentAttempts(studentID); err != nil {
		return nil, err
	}

	threshold := s.Policy.ImprovementThreshold()
	subjectScores := make(map[uint][]float64)
	needsWork := make(map[uint]bool)
	var scoreSum float64
	for _, a := range completed {
		score := 0.0
		if a.Score != nil {
			score = *a.Score
		}
		scoreSum += score
		stats.TotalTimeSpent += int64(a.TimeSpent)
		if a.IsPassed {
			stats.PassedQuizzes++
		}
		if a.Quiz == nil {
			continue
		}
		subjectScores[a.Quiz.SubjectID] = append(subjectScores[a.Quiz.SubjectID], score)
		if score < threshold {
			needsWork[a.Quiz.SubjectID] = true
		}
	}

	stats.CompletedQuizzes = int64(len(completed))
	stats.FailedQuizzes = stats.CompletedQuizzes - stats.PassedQuizzes
	stats.AverageScore = round2(scoreSum / float64(len(completed)))

	best := -1.0
	for subjectID, scores := range subjectScores {
		avg := mean(scores)
		if avg > best || (avg == best && stats.FavoriteSubjectID != nil && subjectID < *stats.FavoriteSubjectID) {
			id := subjectID
			stats.FavoriteSubjectID = &id
			best = avg
		}
	}
	for subjectID := range needsWork {
		stats.ImprovementSubjectIDs = append(stats.ImprovementSubjectIDs, subjectID)
	}
	sort.Slice(stats.ImprovementSubjectIDs, func(i, j int) bool {
		return stats.ImprovementSubjectIDs[i] < stats.ImprovementSubjectIDs[j]
	})
	return stats, nil
}

func mean(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	return sum / float64(len(values))
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
