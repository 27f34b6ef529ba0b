package controller

import (
	"learning_cloud_backend/internal/service"
	"learning_cloud_backend/internal/util"

	"github.com/gin-gonic/gin"
)

type QuizAnalyticsController struct {
	AnalyticsService *service.QuizAnalyticsService
}

func NewQuizAnalyticsController(analyticsService *service.QuizAnalyticsService) *QuizAnalyticsController {
	return &QuizAnalyticsController{AnalyticsService: analyticsService}
}

// @Summary 测验统计
// @Description 仅教师与管理员可访问
// @Tags 测验统计
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=model.QuizAnalytics}
// @Failure 403 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /quizzes/{id}/analytics [get]
func (c *QuizAnalyticsController) QuizAnalytics(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	snapshot, err := c.AnalyticsService.QuizAnalytics(ctx.Request.Context(), id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, snapshot)
}

// @Summary 我的测验统计
// @Tags 测验统计
// @Produce json
// @Security ApiKeyAuth
// @Success 200 {object} util.Response{data=service.StudentQuizStats}
// @Router /quiz-stats [get]
func (c *QuizAnalyticsController) StudentStats(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	stats, err := c.AnalyticsService.StudentStats(ctx.Request.Context(), user.UserID)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, stats)
}
