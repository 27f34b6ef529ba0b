package controller

import (
	"learning_cloud_backend/internal/model"
	"learning_cloud_backend/internal/repository"
	"learning_cloud_backend/internal/service"
	"learning_cloud_backend/internal/util"
	"strconv"

	"github.com/gin-gonic/gin"
)

type QuizController struct {
	QuizService    *service.QuizService
	AttemptService *service.QuizAttemptService
}

func NewQuizController(quizService *service.QuizService, attemptService *service.QuizAttemptService) *QuizController {
	return &QuizController{QuizService: quizService, AttemptService: attemptService}
}

type startAttemptResponse struct {
	AttemptID      uint   `json:"attemptId"`
	AttemptNumber  int    `json:"attemptNumber"`
	SessionKey     string `json:"sessionKey"`
	TotalQuestions int    `json:"totalQuestions"`
}

type setActiveRequest struct {
	IsActive *bool `json:"isActive" binding:"required"`
}

// @Summary 测验列表
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param subjectId query int false "学科ID"
// @Param gradeLevel query int false "年级"
// @Param page query int false "页码"
// @Param limit query int false "每页数量"
// @Success 200 {object} util.Response{data=util.PageResponse}
// @Router /quizzes [get]
func (c *QuizController) ListQuizzes(ctx *gin.Context) {
	page, _ := strconv.Atoi(ctx.DefaultQuery("page", "1"))
	limit, _ := strconv.Atoi(ctx.DefaultQuery("limit", strconv.Itoa(util.DefaultLimit)))
	gradeLevel, _ := strconv.Atoi(ctx.Query("gradeLevel"))

	filter := repository.QuizFilter{
		SubjectID:  util.MustParseUint(ctx.Query("subjectId")),
		GradeLevel: gradeLevel,
		Page:       page,
		Limit:      limit,
	}
	quizzes, total, err := c.QuizService.ListQuizzes(ctx.Request.Context(), filter)
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Success(ctx, util.PageResponse{
		List:  quizzes,
		Total: total,
		Page:  page,
		Limit: limit,
	})
}

// @Summary 测验详情
// @Description 学生视图不包含标准答案
// @Tags 测验
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 200 {object} util.Response{data=service.QuizDetail}
// @Failure 404 {object} util.Response
// @Router /quizzes/{id} [get]
func (c *QuizController) GetQuiz(ctx *gin.Context) {
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}
	user := util.GetUserFromContext(ctx)
	includeAnswers := user != nil && (user.Role == model.Teacher || user.Role == model.Admin)

	detail, err := c.QuizService.GetQuiz(ctx.Request.Context(), id, includeAnswers)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, detail)
}

// @Summary 开始测验
// @Tags 测验作答
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Success 201 {object} util.Response{data=startAttemptResponse}
// @Failure 404 {object} util.Response
// @Failure 409 {object} util.Response "次数已用完或已有进行中的会话"
// @Router /quizzes/{id}/attempts/start [post]
func (c *QuizController) StartAttempt(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	attempt, session, err := c.AttemptService.StartAttempt(ctx.Request.Context(), user.UserID, id, service.ClientInfo{
		IPAddress: ctx.ClientIP(),
		UserAgent: ctx.Request.UserAgent(),
	})
	if err != nil {
		respondError(ctx, err)
		return
	}

	util.Created(ctx, startAttemptResponse{
		AttemptID:      attempt.ID,
		AttemptNumber:  attempt.AttemptNumber,
		SessionKey:     session.SessionKey,
		TotalQuestions: attempt.TotalQuestions,
	})
}

// @Summary 创建测验
// @Tags 教师-测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param quiz body service.QuizCreateRequest true "测验及题目"
// @Success 201 {object} util.Response{data=model.Quiz}
// @Failure 400 {object} util.Response
// @Router /teacher/quizzes [post]
func (c *QuizController) CreateQuiz(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}

	var req service.QuizCreateRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	quiz, err := c.QuizService.CreateQuiz(ctx.Request.Context(), user.UserID, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, quiz)
}

// @Summary 添加题目
// @Tags 教师-测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "测验ID"
// @Param question body service.QuestionRequest true "题目"
// @Success 201 {object} util.Response{data=model.Question}
// @Router /teacher/quizzes/{id}/questions [post]
func (c *QuizController) AddQuestion(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req service.QuestionRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	question, err := c.QuizService.AddQuestion(ctx.Request.Context(), user, id, req)
	if err != nil {
		respondError(ctx, err)
		return
	}
	util.Created(ctx, question)
}

// @Summary 启用/停用题目
// @Tags 教师-测验管理
// @Accept json
// @Produce json
// @Security ApiKeyAuth
// @Param id path int true "题目ID"
// @Param body body setActiveRequest true "是否启用"
// @Success 200 {object} util.Response
// @Router /teacher/questions/{id}/active [patch]
func (c *QuizController) SetQuestionActive(ctx *gin.Context) {
	user := util.GetUserFromContext(ctx)
	if user == nil {
		util.Unauthorized(ctx)
		return
	}
	id, ok := parseIDParam(ctx, "id")
	if !ok {
		return
	}

	var req setActiveRequest
	if err := ctx.ShouldBindJSON(&req); err != nil {
		util.BadRequest(ctx, err.Error())
		return
	}

	if err := c.QuizService.SetQuestionActive(ctx.Request.Context(), user, id, *req.IsActive); err != nil {
		respondError(ctx, err)
		return
	}
	util.Success(ctx, gin.H{"questionId": id, "isActive": *req.IsActive})
}
