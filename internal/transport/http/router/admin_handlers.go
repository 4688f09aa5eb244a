// file: internal/transport/http/router/admin_handlers.go
package router

import (
	"net/http"

	"GridBridge/internal/core/domain"
	"GridBridge/internal/core/port"
	"GridBridge/internal/service/grid"

	"github.com/gin-gonic/gin"
)

func listGridsHandler(configs port.GridConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		defs, err := configs.List(c.Request.Context())
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": defs})
	}
}

func getGridHandler(configs port.GridConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		def, err := configs.Get(c.Request.Context(), c.Param("grid"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": def})
	}
}

// putGridHandler 创建或覆盖表格定义，名称以路径参数为准
func putGridHandler(configs port.GridConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		var def domain.GridDefinition
		if err := c.ShouldBindJSON(&def); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的JSON请求体: " + err.Error()})
			return
		}
		def.Name = c.Param("grid")
		if err := configs.Upsert(c.Request.Context(), &def); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "success"})
	}
}

func deleteGridHandler(configs port.GridConfigService) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := configs.Delete(c.Request.Context(), c.Param("grid")); err != nil {
			_ = c.Error(err)
			return
		}
		c.Status(http.StatusNoContent)
	}
}

// validateGridHandler 核对表格定义与物理表结构是否一致
func validateGridHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		if err := grids.Validate(c.Request.Context(), c.Param("grid")); err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "valid"})
	}
}

// explainHandler 返回数据请求将要执行的 SQL (参数内联)，仅用于排查问题
func explainHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		stmt, err := grids.Explain(c.Request.Context(), c.Param("grid"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"sql": stmt})
	}
}

func connectionsHandler(conns ConnectionInspector) gin.HandlerFunc {
	return func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"data": conns.Summary()})
	}
}
