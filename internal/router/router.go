package router

import (
	"fmt"
	"sort"
	"strings"

	"github.com/dujiao-next/sales-settlement/internal/cache"
	"github.com/dujiao-next/sales-settlement/internal/config"
	adminhandlers "github.com/dujiao-next/sales-settlement/internal/http/handlers/admin"
	"github.com/dujiao-next/sales-settlement/internal/http/response"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/provider"

	"github.com/gin-gonic/gin"
)

const apiPrefix = "/api/v1"

// SetupRouter 初始化路由
func SetupRouter(cfg *config.Config, c *provider.Container) *gin.Engine {
	log := logger.L
	if log == nil {
		log = logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	}
	r := gin.New()

	h := adminhandlers.New(c)
	redisPrefix := strings.TrimSpace(cfg.Redis.Prefix)
	if redisPrefix == "" {
		redisPrefix = "ss"
	}
	redisClient := cache.Client()
	writeRule := RateLimitRule{
		Prefix:        fmt.Sprintf("%s:rate:write", redisPrefix),
		WindowSeconds: cfg.Security.WriteRateLimit.WindowSeconds,
		MaxRequests:   cfg.Security.WriteRateLimit.MaxRequests,
	}
	writeLimit := RateLimitMiddleware(redisClient, writeRule, KeyByIP)
	// 同一销售代码的比例 / 打款写入单独计数
	salesWriteLimit := RateLimitMiddleware(redisClient, writeRule, KeyByIPAndJSONField("sales_code"))

	// 中间件
	r.Use(gin.Recovery())
	r.Use(RequestIDMiddleware())
	r.Use(OperatorMiddleware())
	r.Use(LoggerMiddleware(log))
	r.Use(CORSMiddleware(cfg.CORS))

	apiV1 := r.Group(apiPrefix)
	{
		// 比例变更
		apiV1.POST("/rate-changes", salesWriteLimit, h.CreateRateChange)
		apiV1.GET("/rate-changes", h.ListRateChanges)
		apiV1.GET("/rates/effective", h.GetEffectiveRate)

		// 排除名单
		apiV1.POST("/exclusions", writeLimit, h.CreateExclusion)
		apiV1.GET("/exclusions", h.ListExclusions)
		apiV1.POST("/exclusions/:target/restore", writeLimit, h.RestoreExclusion)

		// 结算与汇总
		apiV1.GET("/settlement", h.GetSettlement)
		apiV1.GET("/settlements", h.ListSettlements)
		apiV1.GET("/aggregate", h.Aggregate)
		apiV1.GET("/leaderboard", h.Leaderboard)
		apiV1.GET("/summary", h.Summary)

		// 订单
		apiV1.GET("/orders", h.ListOrders)
		apiV1.POST("/orders", salesWriteLimit, h.CreateOrder)
		apiV1.GET("/orders/:id", h.GetOrder)
		apiV1.POST("/orders/:id/transition", writeLimit, h.TransitionOrder)

		// 销售账号
		apiV1.GET("/accounts", h.ListAccounts)
		apiV1.POST("/accounts", writeLimit, h.CreateAccount)
		apiV1.GET("/accounts/:code", h.GetAccount)
		apiV1.GET("/accounts/:code/team", h.ListTeam)
		apiV1.GET("/accounts/:code/payouts", h.ListPayouts)
		apiV1.POST("/accounts/:code/payouts", writeLimit, h.RecordPayout)
		apiV1.PUT("/accounts/:code/paid-commission", writeLimit, h.SetPaidCommission)

		apiV1.GET("/routes", func(ctx *gin.Context) {
			response.Success(ctx, buildRouteCatalog(r))
		})
	}

	// 健康检查
	r.GET("/health", func(c *gin.Context) {
		c.JSON(200, gin.H{"status": "ok"})
	})

	return r
}

type routeCatalogItem struct {
	Module string `json:"module"`
	Method string `json:"method"`
	Path   string `json:"path"`
}

// buildRouteCatalog 按模块列出已注册的接口
func buildRouteCatalog(engine *gin.Engine) []routeCatalogItem {
	if engine == nil {
		return []routeCatalogItem{}
	}

	routes := engine.Routes()
	seen := make(map[string]struct{}, len(routes))
	items := make([]routeCatalogItem, 0, len(routes))

	for _, item := range routes {
		method := strings.ToUpper(strings.TrimSpace(item.Method))
		if method == "" || method == "OPTIONS" || method == "HEAD" {
			continue
		}
		if !strings.HasPrefix(item.Path, apiPrefix+"/") {
			continue
		}
		key := method + ":" + item.Path
		if _, exists := seen[key]; exists {
			continue
		}
		seen[key] = struct{}{}
		items = append(items, routeCatalogItem{
			Module: deriveRouteModule(item.Path),
			Method: method,
			Path:   item.Path,
		})
	}

	sort.Slice(items, func(i, j int) bool {
		if items[i].Module == items[j].Module {
			if items[i].Path == items[j].Path {
				return items[i].Method < items[j].Method
			}
			return items[i].Path < items[j].Path
		}
		return items[i].Module < items[j].Module
	})

	return items
}

func deriveRouteModule(path string) string {
	normalized := strings.Trim(strings.TrimPrefix(strings.TrimSpace(path), apiPrefix), "/")
	if normalized == "" {
		return "system"
	}
	segment := strings.Split(normalized, "/")[0]
	switch segment {
	case "rate-changes", "rates":
		return "rate"
	case "settlement", "settlements", "aggregate", "leaderboard", "summary":
		return "settlement"
	case "accounts":
		return "account"
	case "orders":
		return "order"
	case "exclusions":
		return "exclusion"
	}
	return segment
}
