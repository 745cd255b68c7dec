package router

import (
	"fmt"
	"strconv"
	"strings"

	handlershared "github.com/ayokah-next/internal/http/handlers/shared"
	"github.com/ayokah-next/internal/http/response"
	"github.com/ayokah-next/internal/logger"

	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
)

// RateLimitKeyFunc 生成限流 key 的函数
type RateLimitKeyFunc func(*gin.Context) string

// RateLimitRule 固定窗口限流规则
type RateLimitRule struct {
	Prefix        string
	WindowSeconds int
	MaxRequests   int
	Message       string // 可含一个 %d 占位（剩余秒数）
}

func (r RateLimitRule) enabled() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

const (
	msgRateLimited            = "Too many requests, please try again in %d seconds"
	msgRateLimiterUnavailable = "Rate limiter unavailable"

	headerRateLimit     = "X-RateLimit-Limit"
	headerRateRemaining = "X-RateLimit-Remaining"
	headerRetryAfter    = "Retry-After"
)

var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
local ttl = redis.call("TTL", KEYS[1])
return {current, ttl}
`)

// rateWindow 当前窗口计数结果
type rateWindow struct {
	Count      int64
	TTLSeconds int64
}

// exceeded 超限时返回需要等待的秒数
func (w rateWindow) exceeded(rule RateLimitRule) (int, bool) {
	if w.Count <= int64(rule.MaxRequests) {
		return 0, false
	}
	wait := int(w.TTLSeconds)
	if wait < 1 {
		wait = rule.WindowSeconds
	}
	if wait < 1 {
		wait = 1
	}
	return wait, true
}

func (w rateWindow) remaining(rule RateLimitRule) int64 {
	left := int64(rule.MaxRequests) - w.Count
	if left < 0 {
		return 0
	}
	return left
}

func rateLimitMessage(rule RateLimitRule, wait int) string {
	format := strings.TrimSpace(rule.Message)
	if format == "" {
		format = msgRateLimited
	}
	if strings.Contains(format, "%d") {
		return fmt.Sprintf(format, wait)
	}
	return format
}

// RateLimitMiddleware Redis 固定窗口限流；未配置 Redis 或规则关闭时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	return func(c *gin.Context) {
		if client == nil || !rule.enabled() {
			c.Next()
			return
		}

		key := ""
		if keyFunc != nil {
			key = strings.TrimSpace(keyFunc(c))
		}
		if key == "" {
			key = c.ClientIP()
		}
		if rule.Prefix != "" {
			key = rule.Prefix + ":" + key
		}

		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{key}, rule.WindowSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			logger.FromContext(c.Request.Context()).Warnw("rate_limit_script_failed", "key", key, "error", err)
			response.Error(c, response.CodeInternal, msgRateLimiterUnavailable)
			c.Abort()
			return
		}
		window := rateWindow{Count: values[0], TTLSeconds: values[1]}
		c.Header(headerRateLimit, strconv.Itoa(rule.MaxRequests))
		c.Header(headerRateRemaining, strconv.FormatInt(window.remaining(rule), 10))

		if wait, over := window.exceeded(rule); over {
			logger.FromContext(c.Request.Context()).Infow("rate_limited", "key", key, "count", window.Count, "wait_seconds", wait)
			c.Header(headerRetryAfter, strconv.Itoa(wait))
			response.Error(c, response.CodeTooManyRequests, rateLimitMessage(rule, wait))
			c.Abort()
			return
		}
		c.Next()
	}
}

// KeyByIP 使用 IP 作为限流 key
func KeyByIP(c *gin.Context) string {
	return c.ClientIP()
}

// KeyBySession 使用访客会话 id 作为限流 key，缺失时回退到 IP
func KeyBySession(c *gin.Context) string {
	if sessionID := getContextString(c, sessionIDKey); sessionID != "" {
		return "session:" + sessionID
	}
	return c.ClientIP()
}

// KeyByOwner 登录用户按用户限流，访客按会话限流
func KeyByOwner(c *gin.Context) string {
	id := handlershared.CurrentIdentity(c)
	if id.UserID != 0 || id.SessionID != "" {
		return id.Owner()
	}
	return c.ClientIP()
}
