// file: internal/transport/http/router/router.go
package router

import (
	"context"
	"net/http"
	"time"

	"GridBridge/internal/adapter/connection"
	"GridBridge/internal/core/port"
	"GridBridge/internal/observe"
	"GridBridge/internal/service/auth"
	"GridBridge/internal/service/grid"
	"GridBridge/internal/transport/http/middleware"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/gzip"
	"github.com/gin-gonic/gin"
)

// ConnectionInspector 是管理接口与健康检查需要的连接信息。
type ConnectionInspector interface {
	Summary() []connection.Summary
	HealthCheck(ctx context.Context) error
}

// Dependencies 结构体用于将所有依赖项注入到路由器中
type Dependencies struct {
	Grids       *grid.Service
	Configs     port.GridConfigService
	Connections ConnectionInspector
	Auth        *auth.Service
	Limiter     *middleware.RateLimiter
	LoginLock   *middleware.LoginFailureLock
}

// New 创建并配置基于 Gin 的 HTTP 路由器 (V1 版本)
func New(deps Dependencies) http.Handler {
	router := gin.New()
	router.Use(gin.Recovery(), middleware.RequestID(), observe.PrometheusMiddleware())
	router.Use(gzip.Gzip(gzip.DefaultCompression))
	router.Use(cors.New(cors.Config{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization", "Accept", "If-None-Match", middleware.RequestIDHeader},
		ExposeHeaders:    []string{"Content-Length", "ETag", middleware.RequestIDHeader},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))
	router.Use(middleware.ErrorHandlingMiddleware())

	router.GET("/metrics", gin.WrapH(observe.Handler()))
	router.GET("/healthz", healthHandler(deps.Connections))

	v1 := router.Group("/api/v1")
	if deps.Limiter != nil {
		v1.Use(deps.Limiter.Global())
	}
	v1.Use(middleware.Authenticate(deps.Auth))
	if deps.Limiter != nil {
		v1.Use(deps.Limiter.PerClient())
	}
	{
		authGroup := v1.Group("/auth")
		login := []gin.HandlerFunc{loginHandler(deps.Auth)}
		if deps.LoginLock != nil {
			login = append([]gin.HandlerFunc{deps.LoginLock.Middleware()}, login...)
		}
		authGroup.POST("/login", login...)

		// --- 数据平面 ---
		gridGroup := v1.Group("/grids/:grid")
		gridGroup.Use(middleware.RequireRole("查看", func(*auth.Claim) bool { return true }))
		{
			gridGroup.GET("/data", dataHandler(deps.Grids))
			gridGroup.GET("/count", countHandler(deps.Grids))
			gridGroup.GET("/variants/:field", variantsHandler(deps.Grids))

			writeGroup := gridGroup.Group("")
			writeGroup.Use(middleware.RequireEditor())
			{
				writeGroup.POST("/rows", insertHandler(deps.Grids))
				writeGroup.PUT("/rows/:id", updateHandler(deps.Grids))
				writeGroup.DELETE("/rows/:id", deleteHandler(deps.Grids))
				writeGroup.POST("/batch", batchHandler(deps.Grids))
			}
		}

		// --- 控制平面 ---
		adminGroup := v1.Group("/admin")
		adminGroup.Use(middleware.RequireAdmin())
		{
			adminGroup.GET("/grids", listGridsHandler(deps.Configs))
			adminGroup.GET("/grids/:grid", getGridHandler(deps.Configs))
			adminGroup.PUT("/grids/:grid", putGridHandler(deps.Configs))
			adminGroup.DELETE("/grids/:grid", deleteGridHandler(deps.Configs))
			adminGroup.POST("/grids/:grid/validate", validateGridHandler(deps.Grids))
			adminGroup.GET("/grids/:grid/explain", explainHandler(deps.Grids))
			adminGroup.GET("/connections", connectionsHandler(deps.Connections))
		}
	}
	return router
}

func healthHandler(conns ConnectionInspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
		defer cancel()
		if err := conns.HealthCheck(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}

// loginHandler 处理用户登录请求
func loginHandler(svc *auth.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		var req struct {
			User string `form:"user" json:"user" binding:"required"`
			Pass string `form:"pass" json:"pass" binding:"required"`
		}
		if err := c.ShouldBind(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "用户名或密码不能为空"})
			return
		}
		id, role, ok := svc.CheckUser(c.Request.Context(), req.User, req.Pass)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码无效"})
			return
		}
		token, err := svc.GenToken(id, role)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"token": token, "user": gin.H{"id": id, "username": req.User, "role": role}})
	}
}
