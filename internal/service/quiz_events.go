package service

import (
	"context"
	"fmt"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/pkg/logger"
	"learning_cloud_backend/pkg/monitoring"
	"math"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
)

type QuizEventType string

const (
	EventQuizCompleted       QuizEventType = "QuizCompleted"
	EventQuizPassed          QuizEventType = "QuizPassed"
	EventQuizFailed          QuizEventType = "QuizFailed"
	EventQuizResultGenerated QuizEventType = "QuizResultGenerated"
	EventQuizAbandoned       QuizEventType = "QuizAbandoned"
)

// QuizEvent 作答状态变化后产生的领域事件，事务提交后再分发
type QuizEvent struct {
	Type       QuizEventType
	OccurredAt time.Time

	StudentID  uint
	QuizID     uint
	AttemptID  uint
	QuizTitle  string
	SubjectID  uint
	GradeLevel int

	Score     float64
	IsPassed  bool
	TimeSpent int

	Result *model.QuizResult
}

type EventDispatcher interface {
	Dispatch(ctx context.Context, events []QuizEvent)
}

// AnalyticsInvalidator 事件发生后清理测验统计缓存
type AnalyticsInvalidator interface {
	Invalidate(ctx context.Context, quizID uint)
}

// CollaboratorDispatcher 将事件转为通知与分析流水；失败只记录日志，不重试也不影响主流程
type CollaboratorDispatcher struct {
	NotificationRepo *repository.NotificationRepository
	AnalyticsRepo    *repository.AnalyticsRepository
	Cache            AnalyticsInvalidator
}

func NewCollaboratorDispatcher(notificationRepo *repository.NotificationRepository, analyticsRepo *repository.AnalyticsRepository) *CollaboratorDispatcher {
	return &CollaboratorDispatcher{
		NotificationRepo: notificationRepo,
		AnalyticsRepo:    analyticsRepo,
	}
}

func (d *CollaboratorDispatcher) Dispatch(ctx context.Context, events []QuizEvent) {
	touched := make(map[uint]struct{})
	for _, ev := range events {
		if err := d.handle(ctx, ev); err != nil {
			monitoring.QuizCollaboratorFailures.WithLabelValues(string(ev.Type)).Inc()
			logger.Log.Error("Quiz event delivery failed",
				zap.String("event", string(ev.Type)),
				zap.Uint("attemptID", ev.AttemptID),
				zap.Error(err))
		}
		touched[ev.QuizID] = struct{}{}
	}

	if d.Cache == nil {
		return
	}
	for quizID := range touched {
		d.Cache.Invalidate(ctx, quizID)
	}
}

func (d *CollaboratorDispatcher) handle(ctx context.Context, ev QuizEvent) error {
	notifications := d.NotificationRepo.WithTx(d.NotificationRepo.DB.WithContext(ctx))
	analytics := d.AnalyticsRepo.WithTx(d.AnalyticsRepo.DB.WithContext(ctx))

	switch ev.Type {
	case EventQuizCompleted:
		return analytics.CreateEvent(&model.AnalyticsEvent{
			StudentID:   ev.StudentID,
			QuizID:      ev.QuizID,
			MetricType:  model.MetricQuizCompletion,
			MetricValue: ev.Score,
			Metadata: datatypes.JSONMap{
				"quiz_title":  ev.QuizTitle,
				"subject_id":  ev.SubjectID,
				"grade_level": ev.GradeLevel,
				"score":       ev.Score,
				"is_passed":   ev.IsPassed,
				"time_spent":  ev.TimeSpent,
			},
			Date: ev.OccurredAt,
		})
	case EventQuizPassed:
		return notifications.Create(&model.Notification{
			UserID:           ev.StudentID,
			Title:            "Quiz Passed!",
			Message:          fmt.Sprintf("Congratulations! You passed %s with a score of %s%%!", ev.QuizTitle, formatScore(ev.Score)),
			NotificationType: model.NotificationQuizResult,
			Priority:         model.PriorityHigh,
			Data:             datatypes.JSONMap{"quiz_id": ev.QuizID, "score": ev.Score, "is_passed": true},
		})
	case EventQuizFailed:
		return notifications.Create(&model.Notification{
			UserID:           ev.StudentID,
			Title:            "Quiz Results",
			Message:          fmt.Sprintf("You scored %s%% on %s. Keep practicing!", formatScore(ev.Score), ev.QuizTitle),
			NotificationType: model.NotificationQuizResult,
			Priority:         model.PriorityMedium,
			Data:             datatypes.JSONMap{"quiz_id": ev.QuizID, "score": ev.Score, "is_passed": false},
		})
	case EventQuizResultGenerated:
		meta := datatypes.JSONMap{}
		if ev.Result != nil {
			meta["total_time"] = ev.Result.TotalTime
			meta["average_time_per_question"] = ev.Result.AverageTimePerQuestion
			meta["difficulty_breakdown"] = ev.Result.DifficultyBreakdown.Data()
			meta["improvement_suggestions"] = []string(ev.Result.ImprovementSuggestions)
		}
		return analytics.CreateEvent(&model.AnalyticsEvent{
			StudentID:   ev.StudentID,
			QuizID:      ev.QuizID,
			MetricType:  model.MetricQuizResultAnalysis,
			MetricValue: ev.Score,
			Metadata:    meta,
			Date:        ev.OccurredAt,
		})
	case EventQuizAbandoned:
		return analytics.CreateEvent(&model.AnalyticsEvent{
			StudentID:  ev.StudentID,
			QuizID:     ev.QuizID,
			MetricType: model.MetricQuizAbandoned,
			Metadata: datatypes.JSONMap{
				"quiz_title": ev.QuizTitle,
				"time_spent": ev.TimeSpent,
			},
			Date: ev.OccurredAt,
		})
	}
	return fmt.Errorf("unknown quiz event %q", ev.Type)
}

func formatScore(score float64) string {
	return strconv.FormatFloat(math.Round(score*100)/100, 'f', -1, 64)
}
