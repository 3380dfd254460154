package router

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"
	handlershared "github.com/dujiao-next/sales-settlement/internal/http/handlers/shared"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	requestIDKey      = "request_id"
	requestIDHeader   = "X-Request-ID"
	operatorHeader    = "X-Operator"
	maxOperatorLength = 64
)

var (
	defaultCORSMethods = []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodOptions}
	defaultCORSHeaders = []string{"Content-Type", "Authorization", "Cache-Control", "X-Requested-With", requestIDHeader, operatorHeader}
)

// corsPolicy 预先拼好的跨域响应头
type corsPolicy struct {
	origins          []string
	allowCredentials bool
	methods          string
	headers          string
	maxAge           string
}

func newCORSPolicy(cfg config.CORSConfig) corsPolicy {
	policy := corsPolicy{
		origins:          cfg.AllowedOrigins,
		allowCredentials: cfg.AllowCredentials,
		methods:          strings.Join(orDefault(cfg.AllowedMethods, defaultCORSMethods), ", "),
		headers:          strings.Join(orDefault(cfg.AllowedHeaders, defaultCORSHeaders), ", "),
	}
	if len(policy.origins) == 0 {
		policy.origins = []string{"*"}
	}
	if cfg.MaxAge > 0 {
		policy.maxAge = strconv.Itoa(cfg.MaxAge)
	}
	return policy
}

func (p corsPolicy) apply(header http.Header, origin string) {
	if allowed := resolveAllowedOrigin(origin, p.origins, p.allowCredentials); allowed != "" {
		header.Set("Access-Control-Allow-Origin", allowed)
		if allowed != "*" {
			header.Add("Vary", "Origin")
		}
	}
	if p.allowCredentials {
		header.Set("Access-Control-Allow-Credentials", "true")
	}
	header.Set("Access-Control-Allow-Headers", p.headers)
	header.Set("Access-Control-Allow-Methods", p.methods)
	if p.maxAge != "" {
		header.Set("Access-Control-Max-Age", p.maxAge)
	}
}

func orDefault(values, fallback []string) []string {
	if len(values) == 0 {
		return fallback
	}
	return values
}

// CORSMiddleware 跨域中间件，预检请求直接返回 204
func CORSMiddleware(cfg config.CORSConfig) gin.HandlerFunc {
	policy := newCORSPolicy(cfg)
	return func(c *gin.Context) {
		policy.apply(c.Writer.Header(), c.GetHeader("Origin"))
		if c.Request.Method == http.MethodOptions {
			c.AbortWithStatus(http.StatusNoContent)
			return
		}
		c.Next()
	}
}

// resolveAllowedOrigin 通配且允许凭证时回显来源，否则按白名单精确匹配
func resolveAllowedOrigin(origin string, allowedOrigins []string, allowCredentials bool) string {
	for _, allowed := range allowedOrigins {
		if allowed != "*" {
			continue
		}
		if allowCredentials && origin != "" {
			return origin
		}
		return "*"
	}
	if origin == "" {
		return ""
	}
	for _, allowed := range allowedOrigins {
		if strings.EqualFold(allowed, origin) {
			return origin
		}
	}
	return ""
}

// RequestIDMiddleware 请求 ID 中间件
func RequestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := strings.TrimSpace(c.GetHeader(requestIDHeader))
		if requestID == "" {
			requestID = uuid.NewString()
		}
		c.Set(requestIDKey, requestID)
		c.Writer.Header().Set(requestIDHeader, requestID)
		c.Next()
	}
}

// OperatorMiddleware 读取 X-Operator 作为审计操作人，超长截断
func OperatorMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		operator := []rune(strings.TrimSpace(c.GetHeader(operatorHeader)))
		if len(operator) > maxOperatorLength {
			operator = operator[:maxOperatorLength]
		}
		if len(operator) > 0 {
			c.Set(handlershared.OperatorContextKey, string(operator))
		}
		c.Next()
	}
}

// LoggerMiddleware 结构化请求日志中间件，4xx 记 warn，5xx 记 error
func LoggerMiddleware(logger *zap.Logger) gin.HandlerFunc {
	if logger == nil {
		logger = zap.L()
	}
	sugar := logger.Sugar()
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		status := c.Writer.Status()
		log := sugar.With(
			"request_id", getRequestID(c),
			"method", c.Request.Method,
			"route", c.FullPath(),
			"path", c.Request.URL.Path,
			"status", status,
			"latency_ms", time.Since(start).Milliseconds(),
			"client_ip", c.ClientIP(),
		)
		if operator := handlershared.GetOperator(c); operator != "" {
			log = log.With("operator", operator)
		}
		if policy := c.Query("policy"); policy != "" {
			log = log.With("policy", policy)
		}
		switch {
		case len(c.Errors) > 0 || status >= 500:
			log.Errorw("request", "errors", c.Errors.String())
		case status >= 400:
			log.Warnw("request")
		default:
			log.Infow("request")
		}
	}
}

func getRequestID(c *gin.Context) string {
	return c.GetString(requestIDKey)
}
