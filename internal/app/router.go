package app

import (
	"learning_cloud_backend/docs"
	"learning_cloud_backend/internal/middleware"
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/pkg/monitoring"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
)

func (a *App) registerRoutes(router *gin.Engine, c *controllers) {
	docs.SwaggerInfo.BasePath = "/api"
	router.GET("/swagger/*any", ginSwagger.WrapHandler(swaggerFiles.Handler, ginSwagger.URL("/swagger/doc.json")))

	router.GET("/metrics", monitoring.PrometheusHandler())

	// 1. 公共路由(无需登录)
	public := router.Group("/api")
	{
		public.GET("/health", c.health.HealthCheck)
	}

	// 2. 需要授权的路由
	authGroup := router.Group("/api")
	authGroup.Use(middleware.AuthMiddleware())
	{
		a.registerStudentRoutes(authGroup, c)
		a.registerTeacherRoutes(authGroup, c)
	}
}

func (a *App) registerStudentRoutes(rg *gin.RouterGroup, c *controllers) {
	quizzes := rg.Group("/quizzes")
	{
		quizzes.GET("", c.quiz.ListQuizzes)
		quizzes.GET("/:id", c.quiz.GetQuiz)
		quizzes.POST("/:id/attempts/start", c.quiz.StartAttempt)
		quizzes.GET("/:id/analytics", middleware.RoleMiddleware(model.Teacher, model.Admin), c.analytics.QuizAnalytics)
	}

	sessions := rg.Group("/quiz-sessions")
	{
		sessions.GET("/:key", c.session.GetSession)
		sessions.POST("/:key/submit-answer", c.session.SubmitAnswer)
		sessions.POST("/:key/complete", c.session.Complete)
		sessions.POST("/:key/abandon", c.session.Abandon)
	}

	attempts := rg.Group("/quiz-attempts")
	{
		attempts.GET("", c.session.ListAttempts)
		attempts.GET("/:id", c.session.GetAttempt)
	}

	rg.GET("/quiz-feedback", c.session.ListFeedback)
	rg.POST("/quiz-feedback", c.session.SubmitFeedback)
	rg.GET("/quiz-stats", c.analytics.StudentStats)
}

func (a *App) registerTeacherRoutes(rg *gin.RouterGroup, c *controllers) {
	teacher := rg.Group("/teacher")
	teacher.Use(middleware.RoleMiddleware(model.Teacher, model.Admin))
	{
		teacher.POST("/quizzes", c.quiz.CreateQuiz)
		teacher.POST("/quizzes/:id/questions", c.quiz.AddQuestion)
		teacher.PATCH("/questions/:id/active", c.quiz.SetQuestionActive)
	}
}
