package router

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/dujiao-next/sales-settlement/internal/http/response"

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
	Message       string // 含一个 %d 占位符，表示剩余等待秒数
}

func (r RateLimitRule) active() bool {
	return r.WindowSeconds > 0 && r.MaxRequests > 0
}

func (r RateLimitRule) key(raw string) string {
	if r.Prefix == "" {
		return raw
	}
	return r.Prefix + ":" + raw
}

const (
	rateLimitUnavailableMsg = "rate limit unavailable"
	defaultRateLimitedMsg   = "too many requests, retry in %d seconds"
)

// KEYS[1] 计数 key，ARGV[1] 窗口秒数；返回 {当前计数, 剩余 TTL}
var rateLimitScript = redis.NewScript(`
local current = redis.call("INCR", KEYS[1])
if current == 1 then
	redis.call("EXPIRE", KEYS[1], ARGV[1])
end
return {current, redis.call("TTL", KEYS[1])}
`)

// rateDecision 单次请求的限流判定结果
type rateDecision struct {
	Remaining  int64
	Limited    bool
	RetryAfter int
}

func decide(rule RateLimitRule, count, ttlSeconds int64) rateDecision {
	remaining := int64(rule.MaxRequests) - count
	if remaining < 0 {
		remaining = 0
	}
	decision := rateDecision{Remaining: remaining}
	if count <= int64(rule.MaxRequests) {
		return decision
	}
	decision.Limited = true
	decision.RetryAfter = int(ttlSeconds)
	if decision.RetryAfter < 1 {
		decision.RetryAfter = rule.WindowSeconds
	}
	if decision.RetryAfter < 1 {
		decision.RetryAfter = 1
	}
	return decision
}

// RateLimitMiddleware Redis 固定窗口限流，未配置 Redis 或规则时直接放行
func RateLimitMiddleware(client *redis.Client, rule RateLimitRule, keyFunc RateLimitKeyFunc) gin.HandlerFunc {
	format := strings.TrimSpace(rule.Message)
	if format == "" {
		format = defaultRateLimitedMsg
	}
	return func(c *gin.Context) {
		if client == nil || !rule.active() {
			c.Next()
			return
		}

		raw := ""
		if keyFunc != nil {
			raw = strings.TrimSpace(keyFunc(c))
		}
		if raw == "" {
			raw = c.ClientIP()
		}

		values, err := rateLimitScript.Run(c.Request.Context(), client, []string{rule.key(raw)}, rule.WindowSeconds).Int64Slice()
		if err != nil || len(values) < 2 {
			response.Error(c, response.CodeInternal, rateLimitUnavailableMsg)
			c.Abort()
			return
		}

		decision := decide(rule, values[0], values[1])
		c.Header("X-RateLimit-Limit", strconv.Itoa(rule.MaxRequests))
		c.Header("X-RateLimit-Remaining", strconv.FormatInt(decision.Remaining, 10))
		if decision.Limited {
			c.Header("Retry-After", strconv.Itoa(decision.RetryAfter))
			response.Error(c, response.CodeTooManyRequests, fmt.Sprintf(format, decision.RetryAfter))
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

// KeyByIPAndJSONField 使用 JSON 字段 + IP 作为限流 key，字段缺失时退回 IP
func KeyByIPAndJSONField(field string) RateLimitKeyFunc {
	return func(c *gin.Context) string {
		value := strings.ToLower(readJSONField(c, field))
		if value == "" {
			return c.ClientIP()
		}
		return value + "|" + c.ClientIP()
	}
}

// readJSONField 读取请求体中的字符串字段，读取后回填 Body 供后续绑定
func readJSONField(c *gin.Context, field string) string {
	if c == nil || c.Request == nil || c.Request.Body == nil {
		return ""
	}
	body, err := io.ReadAll(c.Request.Body)
	c.Request.Body = io.NopCloser(bytes.NewReader(body))
	if err != nil || len(body) == 0 {
		return ""
	}
	var payload map[string]json.RawMessage
	if err := json.Unmarshal(body, &payload); err != nil {
		return ""
	}
	var text string
	if err := json.Unmarshal(payload[field], &text); err != nil {
		return ""
	}
	return strings.TrimSpace(text)
}
