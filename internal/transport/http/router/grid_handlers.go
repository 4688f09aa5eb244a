// file: internal/transport/http/router/grid_handlers.go
package router

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"

	"GridBridge/internal/core/domain"
	"GridBridge/internal/service/grid"

	"github.com/gin-gonic/gin"
	"github.com/zeebo/xxh3"
)

// request 解析查询参数，失败时写出 400 并返回 nil。
func request(c *gin.Context) *domain.RequestDescriptor {
	req, err := Describe(c.Param("grid"), c.Request.URL.Query())
	if err != nil {
		if errors.Is(err, errBadQuery) {
			c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
		} else {
			_ = c.Error(err)
		}
		return nil
	}
	return req
}

// writeTagged 输出带 ETag 的 JSON，If-None-Match 命中时返回 304。
func writeTagged(c *gin.Context, v any) {
	body, err := json.Marshal(v)
	if err != nil {
		_ = c.Error(err)
		return
	}
	etag := fmt.Sprintf(`"%016x"`, xxh3.Hash(body))
	c.Header("ETag", etag)
	c.Header("Cache-Control", "no-cache")
	if c.GetHeader("If-None-Match") == etag {
		c.Status(http.StatusNotModified)
		return
	}
	c.Data(http.StatusOK, "application/json; charset=utf-8", body)
}

// dataHandler 返回一页数据 {data, total, pos}
func dataHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		page, err := grids.Page(c.Request.Context(), c.Param("grid"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		writeTagged(c, page)
	}
}

func countHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		total, err := grids.Count(c.Request.Context(), c.Param("grid"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"total": total})
	}
}

// variantsHandler 返回字段的去重取值，用于表格端的下拉筛选
func variantsHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		values, err := grids.Variants(c.Request.Context(), c.Param("grid"), c.Param("field"), req)
		if err != nil {
			_ = c.Error(err)
			return
		}
		writeTagged(c, gin.H{"data": values})
	}
}

func insertHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		var values map[string]any
		if err := c.ShouldBindJSON(&values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: " + err.Error()})
			return
		}
		id, err := grids.Insert(c.Request.Context(), c.Param("grid"), req, values)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusCreated, gin.H{"id": id})
	}
}

func updateHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		var values map[string]any
		if err := c.ShouldBindJSON(&values); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: " + err.Error()})
			return
		}
		n, err := grids.Update(c.Request.Context(), c.Param("grid"), req, c.Param("id"), values)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": n})
	}
}

func deleteHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		n, err := grids.Delete(c.Request.Context(), c.Param("grid"), req, c.Param("id"))
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"affected": n})
	}
}

// batchHandler 处理表格端一次提交的多条编辑
func batchHandler(grids *grid.Service) gin.HandlerFunc {
	return func(c *gin.Context) {
		req := request(c)
		if req == nil {
			return
		}
		var body struct {
			Actions []domain.Action `json:"actions" binding:"required,min=1,dive"`
		}
		if err := c.ShouldBindJSON(&body); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "无效的请求体: " + err.Error()})
			return
		}
		results, err := grids.Apply(c.Request.Context(), c.Param("grid"), req, body.Actions)
		if err != nil {
			_ = c.Error(err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"data": results})
	}
}
