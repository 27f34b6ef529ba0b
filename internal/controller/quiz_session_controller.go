package controller

import (
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/service"
	"learning_cloud_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizSessionController struct {
	AttemptService *service.QuizAttemptService
}

func NewQuizSessionController(attemptService *service.QuizAttemptService) *QuizSessionController {
	return &QuizSessionController{AttemptService: attemptService}
}

// @Summary 获取作答会话
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "会话Key"
// @Success 200 {object} util.Response{data=service.SessionView}
// @Failure 404 {object} util.Response
// @Router /quiz-sessions/{key} [get]
func (c *QuizSessionController) GetSession(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	view, err := c.AttemptService.GetSession(ctx.Request.Context(), user.UserID, ctx.Param("key"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, view)
}

// @Summary 提交答案
// @Description 只能提交当前题目的答案；最后一题提交后自动完成测验
// @Tags 测验作答
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "会话Key"
// @Param answer body service.SubmitAnswerInput true "答案"
// @Success 200 {object} util.Response{data=service.SubmitAnswerResult}
// @Failure 400 {object} util.Response
// @Failure 409 {object} util.Response
// @Router /quiz-sessions/{key}/submit-answer [post]
func (c *QuizSessionController) SubmitAnswer(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.SubmitAnswerInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	result, err := c.AttemptService.SubmitAnswer(ctx.Request.Context(), user.UserID, ctx.Param("key"), input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, result)
}

// @Summary 完成测验
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "会话Key"
// @Success 200 {object} util.Response{data=service.CompletionResult}
// @Failure 404 {object} util.Response
// @Router /quiz-sessions/{key}/complete [post]
func (c *QuizSessionController) Complete(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	completion, err := c.AttemptService.Complete(ctx.Request.Context(), user.UserID, ctx.Param("key"))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, completion)
}

// @Summary 放弃测验
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param key path string true "会话Key"
// @Success 200 {object} util.Response
// @Failure 404 {object} util.Response
// @Router /quiz-sessions/{key}/abandon [post]
func (c *QuizSessionController) Abandon(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	if err := c.AttemptService.Abandon(ctx.Request.Context(), user.UserID, ctx.Param("key")); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{})
}

// @Summary 我的作答记录
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param quizId query int false "测验ID"
// @Param completed query bool false "是否已完成"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /quiz-attempts [get]
func (c *QuizSessionController) ListAttempts(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(util.DefaultLimit)))
	filter := repository.AttemptFilter{
		StudentID: user.UserID,
		QuizID:    util.MustParseUint(ctx.Query("quizId")),
		Page:      page,
		Limit:     limit,
	}
	if raw := ctx.Query("completed"); raw != "" {
		completed, err := strconv.ParseBool(raw)
		if err != nil {
			util.BadRequest(ctx, "invalid completed flag")
			return
		}
		filter.Completed = &completed
	}

	attempts, total, err := c.AttemptService.ListAttempts(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, util.PageResponse{
		List:  attempts,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 作答详情
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "作答ID"
// @Success 200 {object} util.Response{data=service.AttemptDetail}
// @Failure 404 {object} util.Response
// @Router /quiz-attempts/{id} [get]
func (c *QuizSessionController) GetAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	detail, err := c.AttemptService.GetAttempt(ctx.Request.Context(), user.UserID, id)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 提交测验反馈
// @Tags 测验反馈
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param feedback body service.FeedbackInput true "反馈"
// @Success 201 {object} util.Response{data=model.QuizFeedback}
// @Failure 409 {object} util.Response "作答尚未完成"
// @Router /quiz-feedback [post]
func (c *QuizSessionController) SubmitFeedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var input service.FeedbackInput
	if err := ctx.ShouldBindJSON(&input); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	fb, err := c.AttemptService.SubmitFeedback(ctx.Request.Context(), user.UserID, input)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, fb)
}

// @Summary 我的测验反馈
// @Tags 测验反馈
// @Produce json
// @Security ApiKeyAuth
// @Param quizId query int false "测验ID"
// @Success 200 {object} util.Response{data=[]model.QuizFeedback}
// @Router /quiz-feedback [get]
func (c *QuizSessionController) ListFeedback(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	list, err := c.AttemptService.ListFeedback(ctx.Request.Context(), user.UserID, util.MustParseUint(ctx.Query("quizId")))
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, list)
}
