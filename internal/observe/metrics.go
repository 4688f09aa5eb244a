// Package observe 提供日志初始化、Prometheus 指标与调试端点。
// file: internal/observe/metrics.go
package observe

import (
	"net/http"
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// 指标定义
var (
	statementsTotal = prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "gridbridge_statements_total",
		Help: "已执行的 SQL 语句数",
	}, []string{"dialect", "op", "status"})

	statementDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridbridge_statement_duration_seconds",
		Help:    "SQL 语句执行耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"dialect", "op"})

	httpRequestDuration = prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "gridbridge_http_request_duration_seconds",
		Help:    "HTTP 请求处理耗时",
		Buckets: prometheus.DefBuckets,
	}, []string{"path", "method", "code"})
)

// Register 必须在 main 调用一次
func Register() {
	prometheus.MustRegister(statementsTotal, statementDuration, httpRequestDuration)
}

// Handler 返回 HTTP 处理器
func Handler() http.Handler { return promhttp.Handler() }

// ObserveStatement 记录一次语句执行。
func ObserveStatement(dialect, op string, elapsed time.Duration, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	statementsTotal.WithLabelValues(dialect, op, status).Inc()
	statementDuration.WithLabelValues(dialect, op).Observe(elapsed.Seconds())
}

// PrometheusMiddleware 按路由模板记录请求耗时，未匹配路由的请求记为 "unmatched"。
func PrometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestDuration.
			WithLabelValues(path, c.Request.Method, strconv.Itoa(c.Writer.Status())).
			Observe(time.Since(start).Seconds())
	}
}
