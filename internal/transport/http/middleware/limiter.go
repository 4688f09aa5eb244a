// Package middleware file: internal/transport/http/middleware/limiter.go
package middleware

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"GridBridge/internal/service/auth"

	"github.com/gin-gonic/gin"
	"github.com/patrickmn/go-cache"
	"golang.org/x/time/rate"
)

// 闲置超过该时长的 IP / 用户限制器会被清理
const (
	limiterIdle    = 15 * time.Minute
	limiterCleanup = 10 * time.Minute
)

// RateLimiter 组合了全局、按 IP 与按用户三层速率限制。
type RateLimiter struct {
	global *rate.Limiter

	mu       sync.Mutex
	entries  *cache.Cache
	ipRate   rate.Limit
	ipBurst  int
	usrRate  rate.Limit
	usrBurst int
}

// NewRateLimiter 创建限制器。已认证用户的额度是单个 IP 的 5 倍。
func NewRateLimiter(globalRate float64, globalBurst int, ipRate float64, ipBurst int) *RateLimiter {
	l := &RateLimiter{
		global:   rate.NewLimiter(rate.Limit(globalRate), globalBurst),
		entries:  cache.New(limiterIdle, limiterCleanup),
		ipRate:   rate.Limit(ipRate),
		ipBurst:  ipBurst,
		usrRate:  rate.Limit(ipRate * 5),
		usrBurst: ipBurst * 5,
	}
	slog.Info("[RateLimiter] 初始化完成",
		"global_rate", globalRate, "global_burst", globalBurst, "ip_rate", ipRate, "ip_burst", ipBurst)
	return l
}

// limiter 返回或创建 key 对应的限制器，并刷新其过期时间。
func (l *RateLimiter) limiter(key string, r rate.Limit, b int) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	lim, ok := l.entries.Get(key)
	if !ok {
		lim = rate.NewLimiter(r, b)
	}
	l.entries.SetDefault(key, lim)
	return lim.(*rate.Limiter)
}

// Global 返回全局限制中间件
func (l *RateLimiter) Global() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.global.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "系统繁忙，请稍后再试 (global limit)"})
			return
		}
		c.Next()
	}
}

// PerClient 已认证请求按用户限制，其余按 IP 限制。需要放在认证中间件之后。
func (l *RateLimiter) PerClient() gin.HandlerFunc {
	return func(c *gin.Context) {
		var lim *rate.Limiter
		if claims := auth.ClaimFrom(c.Request.Context()); claims != nil {
			lim = l.limiter("user:"+strconv.FormatInt(claims.ID, 10), l.usrRate, l.usrBurst)
		} else {
			lim = l.limiter("ip:"+ClientIP(c.Request), l.ipRate, l.ipBurst)
		}
		if !lim.Allow() {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{"error": "您的请求过于频繁，请稍后再试"})
			return
		}
		c.Next()
	}
}

// ClientIP 从请求中获取客户端IP地址，考虑代理情况
func ClientIP(r *http.Request) string {
	if ip := strings.TrimSpace(strings.Split(r.Header.Get("X-Forwarded-For"), ",")[0]); ip != "" {
		return ip
	}
	if ip := r.Header.Get("X-Real-IP"); ip != "" {
		return ip
	}
	host := r.RemoteAddr
	if i := strings.LastIndex(host, ":"); i > 0 {
		host = host[:i]
	}
	return strings.Trim(host, "[]")
}

// LoginFailureLock 在同一 IP 与用户名连续登录失败后临时锁定。
type LoginFailureLock struct {
	failures        *cache.Cache
	maxFailures     int
	lockoutDuration time.Duration
}

// NewLoginFailureLock 创建一个新的登录失败锁定器
func NewLoginFailureLock(maxFailures int, lockoutDuration time.Duration) *LoginFailureLock {
	return &LoginFailureLock{
		failures:        cache.New(5*time.Minute, 10*time.Minute),
		maxFailures:     maxFailures,
		lockoutDuration: lockoutDuration,
	}
}

// Middleware 包裹登录处理器。用户名从 JSON 请求体或表单中读取，请求体会被放回。
func (l *LoginFailureLock) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		username := loginName(c)
		ip := ClientIP(c.Request)
		lockKey := "lock:" + ip + ":" + username
		failureKey := "failures:" + ip + ":" + username

		if _, found := l.failures.Get(lockKey); found {
			slog.Warn("[LoginLock] 已锁定的账户再次尝试登录", "user", username, "ip", ip)
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "用户名或密码无效"})
			return
		}

		c.Next()

		switch c.Writer.Status() {
		case http.StatusUnauthorized:
			n, err := l.failures.IncrementInt64(failureKey, 1)
			if err != nil {
				n = 1
				l.failures.SetDefault(failureKey, n)
			}
			slog.Info("[LoginLock] 登录失败", "user", username, "ip", ip, "failures", n)
			if n >= int64(l.maxFailures) {
				l.failures.Set(lockKey, true, l.lockoutDuration)
				l.failures.Delete(failureKey)
				slog.Warn("[LoginLock] 账户已被临时锁定", "user", username, "ip", ip, "duration", l.lockoutDuration)
			}
		case http.StatusOK:
			l.failures.Delete(failureKey)
		}
	}
}

func loginName(c *gin.Context) string {
	if strings.Contains(c.GetHeader("Content-Type"), "application/json") && c.Request.Body != nil {
		body, err := io.ReadAll(c.Request.Body)
		if err != nil {
			return ""
		}
		_ = c.Request.Body.Close()
		c.Request.Body = io.NopCloser(bytes.NewReader(body))
		var extractor struct {
			User string `json:"user"`
		}
		_ = json.Unmarshal(body, &extractor)
		return strings.TrimSpace(extractor.User)
	}
	return strings.TrimSpace(c.PostForm("user"))
}
