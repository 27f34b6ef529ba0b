package service

import (
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/util"
	"learning_cloud_backend/pkg/logger"
	"learning_cloud_backend/pkg/monitoring"
	"strconv"
	"time"

	"go.uber.org/zap"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// ComputeScore 返回得分百分比；总分为 0 时 ok 为 false
func ComputeScore(earned, total int64) (score float64, ok bool) {
	if total <= 0 {
		return 0, false
	}
	return float64(earned) / float64(total) * 100, true
}

// DifficultyBreakdown 按难度统计已作答题目的正确数
func DifficultyBreakdown(answers []model.Answer) map[string]model.DifficultyTally {
	breakdown := make(map[string]model.DifficultyTally)
	for _, a := range answers {
		if a.Question == nil {
			continue
		}
		key := strconv.Itoa(a.Question.DifficultyLevel)
		tally := breakdown[key]
		tally.Total++
		if a.IsCorrect {
			tally.Correct++
		}
		breakdown[key] = tally
	}
	return breakdown
}

// finalizeAttempt 计算成绩并写入作答记录，已完成的作答直接跳过
func finalizeAttempt(tx *gorm.DB, attempt *model.QuizAttempt, quiz *model.Quiz) ([]QuizEvent, error) {
	if attempt.IsFinalized() {
		return nil, nil
	}

	attempts := repository.NewQuizAttemptRepository(tx)
	answers, err := attempts.AnswersByAttempt(attempt.ID)
	if err != nil {
		return nil, err
	}
	totalPoints, err := repository.NewQuizRepository(tx).SumActivePoints(quiz.ID)
	if err != nil {
		return nil, err
	}

	var earned int64
	correct := 0
	for _, a := range answers {
		earned += int64(a.PointsEarned)
		if a.IsCorrect {
			correct++
		}
	}

	score, ok := ComputeScore(earned, totalPoints)
	if !ok {
		logger.Log.Warn("Quiz has no active points, scoring attempt as 0",
			zap.Uint("quizID", quiz.ID),
			zap.Uint("attemptID", attempt.ID))
	}

	now := time.Now()
	attempt.CompletedAt = &now
	attempt.Score = &score
	attempt.IsPassed = ok && score >= float64(quiz.PassingScore)
	attempt.CorrectAnswers = correct
	if err := attempts.Update(attempt); err != nil {
		return nil, err
	}

	monitoring.QuizFinalizations.WithLabelValues(string(model.AttemptCompleted)).Inc()
	monitoring.QuizScores.Observe(score)

	base := QuizEvent{
		OccurredAt: now,
		StudentID:  attempt.StudentID,
		QuizID:     quiz.ID,
		AttemptID:  attempt.ID,
		QuizTitle:  quiz.Title,
		SubjectID:  quiz.SubjectID,
		GradeLevel: quiz.GradeLevel,
		Score:      score,
		IsPassed:   attempt.IsPassed,
		TimeSpent:  attempt.TimeSpent,
	}
	completed := base
	completed.Type = EventQuizCompleted
	verdict := base
	verdict.Type = EventQuizFailed
	if attempt.IsPassed {
		verdict.Type = EventQuizPassed
	}
	return []QuizEvent{completed, verdict}, nil
}

// generateResult 幂等地生成测验结果，只有首次创建时产生事件
func generateResult(tx *gorm.DB, attempt *model.QuizAttempt, quiz *model.Quiz, threshold float64) (*model.QuizResult, []QuizEvent, error) {
	answers, err := repository.NewQuizAttemptRepository(tx).AnswersByAttempt(attempt.ID)
	if err != nil {
		return nil, nil, err
	}

	avg := 0.0
	if attempt.TotalQuestions > 0 {
		avg = float64(attempt.TimeSpent) / float64(attempt.TotalQuestions)
	}

	score := 0.0
	if attempt.Score != nil {
		score = *attempt.Score
	}
	suggestions := []string{}
	if score < threshold {
		suggestions = append(suggestions, util.ImprovementSuggestions...)
	}

	result := &model.QuizResult{
		AttemptID:              attempt.ID,
		TotalTime:              attempt.TimeSpent,
		AverageTimePerQuestion: avg,
		DifficultyBreakdown:    datatypes.NewJSONType(DifficultyBreakdown(answers)),
		ImprovementSuggestions: suggestions,
	}
	created, err := repository.NewQuizResultRepository(tx).CreateIfAbsent(result)
	if err != nil {
		return nil, nil, err
	}
	if !created {
		return result, nil, nil
	}

	return result, []QuizEvent{{
		Type:       EventQuizResultGenerated,
		OccurredAt: time.Now(),
		StudentID:  attempt.StudentID,
		QuizID:     quiz.ID,
		AttemptID:  attempt.ID,
		QuizTitle:  quiz.Title,
		SubjectID:  quiz.SubjectID,
		GradeLevel: quiz.GradeLevel,
		Score:      score,
		IsPassed:   attempt.IsPassed,
		TimeSpent:  attempt.TimeSpent,
		Result:     result,
	}}, nil
}
