package controller

import (
	"errors"
	"learning_cloud_backend/internal/util"
	"net/http"

	"github.com/gin-gonic/gin"
)

// respondError 将服务层哨兵错误映射为 HTTP 状态码，未知错误记录日志并返回 500
func respondError(ctx *gin.Context, err error) {
	switch {
	case errors.Is(err, util.ErrQuizNotFound),
		errors.Is(err, util.ErrQuestionNotFound),
		errors.Is(err, util.ErrSessionNotFound),
		errors.Is(err, util.ErrAttemptNotFound):
		util.Error(ctx, http.StatusNotFound, err.Error())
	case errors.Is(err, util.ErrAttemptLimitExceeded),
		errors.Is(err, util.ErrSessionAlreadyActive),
		errors.Is(err, util.ErrNotCurrentQuestion),
		errors.Is(err, util.ErrSessionInactive),
		errors.Is(err, util.ErrAttemptNotCompleted):
		util.Conflict(ctx, err.Error())
	case errors.Is(err, util.ErrInvalidAnswer),
		errors.Is(err, util.ErrInvalidQuiz),
		errors.Is(err, util.ErrInvalidInput):
		util.BadRequest(ctx, err.Error())
	case errors.Is(err, util.ErrPermissionDenied):
		util.Forbidden(ctx)
	default:
		util.LogInternalError(ctx, err)
	}
}

func parseIDParam(ctx *gin.Context, name string) (uint, bool) {
	id := util.MustParseUint(ctx.Param(name))
	if id == 0 {
		util.BadRequest(ctx, "invalid "+name)
		return 0, false
	}
	return id, true
}
