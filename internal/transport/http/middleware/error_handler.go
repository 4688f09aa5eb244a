// Package middleware file: internal/transport/http/middleware/error_handler.go
package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
)

// ErrorHandlingMiddleware 是一个Gin中间件，用于集中处理错误。
// 处理器通过 c.Error(err) 附加错误，这里只处理最后一个。
func ErrorHandlingMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		c.Next()

		if len(c.Errors) == 0 || c.Writer.Written() {
			return
		}
		err := c.Errors.Last().Err

		var ve validator.ValidationErrors
		if errors.As(err, &ve) {
			c.JSON(http.StatusBadRequest, gin.H{"error": "请求参数验证失败", "details": ve.Error()})
			return
		}

		code := StatusOf(err)
		if code == http.StatusInternalServerError {
			slog.ErrorContext(c.Request.Context(), "[HTTP] 请求处理失败",
				"path", c.FullPath(), "request_id", c.GetString("request_id"), "error", err)
			c.JSON(code, gin.H{"error": "服务器内部错误"})
			return
		}
		c.JSON(code, gin.H{"error": err.Error()})
	}
}

// StatusOf 把领域错误映射为 HTTP 状态码。
func StatusOf(err error) int {
	switch {
	case errors.Is(err, port.ErrPermissionDenied):
		return http.StatusForbidden
	case errors.Is(err, port.ErrGridNotFound), errors.Is(err, port.ErrConnectionNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrExecFailed):
		return http.StatusInternalServerError
	case errors.Is(err, domain.ErrUnknownField),
		errors.Is(err, domain.ErrUnknownOperator),
		errors.Is(err, domain.ErrEmptySource),
		errors.Is(err, domain.ErrEmptyFieldName),
		errors.Is(err, domain.ErrDuplicateField),
		errors.Is(err, domain.ErrNoValues),
		errors.Is(err, domain.ErrInvalidTransactionMode),
		errors.Is(err, port.ErrUnknownDialect):
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}
