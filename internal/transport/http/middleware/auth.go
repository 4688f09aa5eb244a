// Package middleware file: internal/transport/http/middleware/auth.go
package middleware

import (
	"log/slog"
	"net/http"

	"GridBridge/internal/service/auth"

	"github.com/gin-gonic/gin"
)

// Authenticate 把 auth.Service 的 net/http 中间件接入 gin 流程
func Authenticate(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		handler := svc.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			c.Request = r
			c.Next()
		}))
		handler.ServeHTTP(c.Writer, c.Request)
		if c.Writer.Written() {
			c.Abort()
		}
	}
}

// RequireRole 要求请求已认证且角色满足 allow。
func RequireRole(name string, allow func(*auth.Claim) bool) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims := auth.ClaimFrom(c.Request.Context())
		if claims == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "需要认证"})
			return
		}
		if !allow(claims) {
			slog.Info("[Auth] 访问被拒绝", "user_id", claims.ID, "role", claims.Role, "need", name, "path", c.Request.URL.Path)
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"error": "需要" + name + "权限"})
			return
		}
		c.Next()
	}
}

// RequireAdmin 确保只有管理员角色才能访问
func RequireAdmin() gin.HandlerFunc {
	return RequireRole("管理员", func(c *auth.Claim) bool { return c.Role == auth.RoleAdmin })
}

// RequireEditor 确保只有可编辑数据的角色才能访问
func RequireEditor() gin.HandlerFunc {
	return RequireRole("编辑", (*auth.Claim).CanWrite)
}
