package monitoring

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

var (
	RequestCounter = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "endpoint", "status"},
	)

	RequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests",
			Buckets: []float64{0.1, 0.5, 1, 2, 5},
		},
		[]string{"method", "endpoint"},
	)

	// 测验相关业务指标
	QuizAttemptStarts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_starts_total",
			Help: "Quiz attempt start requests by outcome",
		},
		[]string{"outcome"},
	)

	QuizAnswers = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_answers_total",
			Help: "Submitted quiz answers by question type and correctness",
		},
		[]string{"question_type", "correct"},
	)

	QuizFinalizations = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_attempt_finalizations_total",
			Help: "Finalized quiz attempts by terminal state",
		},
		[]string{"state"},
	)

	QuizScores = prometheus.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "quiz_attempt_score_percent",
			Help:    "Distribution of completed quiz attempt scores",
			Buckets: prometheus.LinearBuckets(0, 10, 11),
		},
	)

	QuizCollaboratorFailures = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "quiz_event_dispatch_failures_total",
			Help: "Failed quiz domain event deliveries by event type",
		},
		[]string{"event"},
	)

	registerOnce sync.Once
)

func Init() {
	registerOnce.Do(func() {
		prometheus.MustRegister(RequestCounter)
		prometheus.MustRegister(RequestDuration)
		prometheus.MustRegister(QuizAttemptStarts, QuizAnswers, QuizFinalizations, QuizScores, QuizCollaboratorFailures)
	})
}

func MetricsMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		duration := time.Since(start).Seconds()
		status := c.Writer.Status()

		RequestCounter.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
			strconv.Itoa(status),
		).Inc()

		RequestDuration.WithLabelValues(
			c.Request.Method,
			c.FullPath(),
		).Observe(duration)
	}
}

func PrometheusHandler() gin.HandlerFunc {
	h := promhttp.Handler()
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
