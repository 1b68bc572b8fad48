package handlers

import (
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/social-graph/social-graph/internal/middleware"
	"github.com/social-graph/social-graph/pkg/errs"
	"github.com/social-graph/social-graph/pkg/logger"
	"go.opentelemetry.io/otel/trace"
)

var statusByCode = map[string]int{
	errs.ENOTFOUND:      http.StatusNotFound,
	errs.EINVALIDOP:     http.StatusBadRequest,
	errs.EVALIDATION:    http.StatusBadRequest,
	errs.EALREADYEXISTS: http.StatusConflict,
	errs.EALREADYLIKED:  http.StatusConflict,
	errs.ENOTFOLLOWING:  http.StatusConflict,
	errs.ENOTLIKED:      http.StatusConflict,
	errs.EFORBIDDEN:     http.StatusForbidden,
	errs.EUNAUTHORIZED:  http.StatusUnauthorized,
}

// StatusForError 错误码对应的HTTP状态码，未知错误为500
func StatusForError(err error) int {
	if status, ok := statusByCode[errs.ErrorCode(err)]; ok {
		return status
	}
	return http.StatusInternalServerError
}

// respondError 写出错误响应，内部错误只记录日志不暴露细节
func respondError(c *gin.Context, log *logger.Logger, err error) {
	status := StatusForError(err)
	if status == http.StatusInternalServerError && log != nil {
		entry := log.WithError(err).WithField("path", c.FullPath())
		if sc := trace.SpanContextFromContext(c.Request.Context()); sc.HasTraceID() {
			entry = entry.WithField("trace_id", sc.TraceID().String())
		}
		entry.Error("Request failed")
	}
	c.JSON(status, gin.H{
		"error": errs.ErrorMessage(err),
		"code":  errs.ErrorCode(err),
	})
}

func requireUserID(c *gin.Context) (string, bool) {
	userID := middleware.GetUserID(c)
	if userID == "" {
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated", "code": errs.EUNAUTHORIZED})
		return "", false
	}
	return userID, true
}

// parsePage 解析offset/limit，limit默认20，最大100
func parsePage(c *gin.Context) (int, int) {
	query := struct {
		Offset int `form:"offset"`
		Limit  int `form:"limit"`
	}{}
	if err := c.ShouldBindQuery(&query); err != nil {
		return 0, 20
	}

	offset, limit := query.Offset, query.Limit
	if offset < 0 {
		offset = 0
	}
	if limit <= 0 {
		limit = 20
	}
	if limit > 100 {
		limit = 100
	}
	return offset, limit
}
