// file: internal/observe/metrics_test.go

package observe

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	dto "github.com/prometheus/client_model/go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolated 在独立 Registry 上注册指标，测试结束后恢复默认 Registry。
func isolated(t *testing.T) *prometheus.Registry {
	t.Helper()
	reg := prometheus.NewRegistry()
	prevReg, prevGat := prometheus.DefaultRegisterer, prometheus.DefaultGatherer
	prometheus.DefaultRegisterer, prometheus.DefaultGatherer = reg, reg
	t.Cleanup(func() {
		prometheus.DefaultRegisterer, prometheus.DefaultGatherer = prevReg, prevGat
	})
	Register()
	return reg
}

// series 返回名为 name 的指标族中标签完全等于 labels 的样本。
func series(t *testing.T, reg *prometheus.Registry, name string, labels map[string]string) *dto.Metric {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)
	for _, mf := range families {
		if mf.GetName() != name {
			continue
		}
		for _, m := range mf.GetMetric() {
			got := make(map[string]string, len(m.GetLabel()))
			for _, l := range m.GetLabel() {
				got[l.GetName()] = l.GetValue()
			}
			if assert.ObjectsAreEqual(labels, got) {
				return m
			}
		}
	}
	return nil
}

func TestObserveStatement(t *testing.T) {
	reg := isolated(t)

	ObserveStatement("postgres", "update", time.Millisecond, errors.New("boom"))
	ObserveStatement("postgres", "update", time.Millisecond, nil)
	ObserveStatement("postgres", "update", time.Millisecond, nil)

	failed := series(t, reg, "gridbridge_statements_total", map[string]string{"dialect": "postgres", "op": "update", "status": "error"})
	require.NotNil(t, failed)
	assert.Equal(t, 1.0, failed.GetCounter().GetValue())

	ok := series(t, reg, "gridbridge_statements_total", map[string]string{"dialect": "postgres", "op": "update", "status": "ok"})
	require.NotNil(t, ok)
	assert.Equal(t, 2.0, ok.GetCounter().GetValue())

	timing := series(t, reg, "gridbridge_statement_duration_seconds", map[string]string{"dialect": "postgres", "op": "update"})
	require.NotNil(t, timing)
	assert.Equal(t, uint64(3), timing.GetHistogram().GetSampleCount())
}

func TestHandler_ExposesStatements(t *testing.T) {
	isolated(t)
	ObserveStatement("sqlite", "select", 3*time.Millisecond, nil)

	w := httptest.NewRecorder()
	Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), `gridbridge_statements_total{dialect="sqlite",op="select",status="ok"} 1`)
}

func TestPrometheusMiddleware(t *testing.T) {
	reg := isolated(t)
	gin.SetMode(gin.TestMode)

	r := gin.New()
	r.Use(PrometheusMiddleware())
	r.GET("/grids/:grid/data", func(c *gin.Context) { c.Status(http.StatusNoContent) })

	for _, path := range []string{"/grids/a/data", "/grids/b/data", "/nowhere"} {
		r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, path, nil))
	}

	routed := series(t, reg, "gridbridge_http_request_duration_seconds", map[string]string{"path": "/grids/:grid/data", "method": "GET", "code": "204"})
	require.NotNil(t, routed, "应按路由模板而不是实际路径记录")
	assert.Equal(t, uint64(2), routed.GetHistogram().GetSampleCount())

	unmatched := series(t, reg, "gridbridge_http_request_duration_seconds", map[string]string{"path": "unmatched", "method": "GET", "code": "404"})
	require.NotNil(t, unmatched)
	assert.Equal(t, uint64(1), unmatched.GetHistogram().GetSampleCount())
}

func TestParseLevel(t *testing.T) {
	cases := map[string]string{"debug": "DEBUG", "WARN": "WARN", "error": "ERROR", "": "INFO", "verbose": "INFO"}
	for in, want := range cases {
		if got := ParseLevel(in).String(); got != want {
			t.Errorf("ParseLevel(%q) = %s, want %s", in, got, want)
		}
	}
}
