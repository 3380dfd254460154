package provider

import (
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/cache"
	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/idgen"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/queue"
	"github.com/dujiao-next/sales-settlement/internal/repository"
	"github.com/dujiao-next/sales-settlement/internal/service"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// Container 依赖注入容器
type Container struct {
	Config      *config.Config
	QueueClient *queue.Client
	CacheStore  cache.Store
	Locker      lock.Locker
	Engine      *commission.Engine

	// Repositories
	SalesAccountRepo     repository.SalesAccountRepository
	RateChangeRepo       repository.RateChangeRepository
	SalesOrderRepo       repository.SalesOrderRepository
	ExclusionRepo        repository.ExclusionRepository
	CommissionPayoutRepo repository.CommissionPayoutRepository

	// Services
	SettlementService *service.SettlementService
	AccountService    *service.AccountService
	RateService       *service.RateService
	OrderService      *service.OrderService
	ExclusionService  *service.ExclusionService
}

// NewContainer 初始化容器
func NewContainer(cfg *config.Config) *Container {
	// 初始化缓存
	if err := cache.InitRedis(&cfg.Redis); err != nil {
		logger.Warnw("provider_init_redis_failed", "error", err)
	}

	// 初始化队列客户端
	var queueClient *queue.Client
	if cfg.Queue.Enabled {
		qc, err := queue.NewClient(&cfg.Queue)
		if err != nil {
			logger.Errorw("provider_init_queue_client_failed", "error", err)
		} else {
			queueClient = qc
		}
	}

	if err := idgen.InitDefault(cfg.IDGen.NodeID); err != nil {
		logger.Warnw("provider_init_idgen_failed", "node_id", cfg.IDGen.NodeID, "error", err)
	}

	return NewContainerWithDB(cfg, models.DB, cache.NewStore(), newLocker(cfg), queueClient)
}

// NewContainerWithDB 使用指定连接与组件装配容器
func NewContainerWithDB(cfg *config.Config, db *gorm.DB, store cache.Store, locker lock.Locker, queueClient *queue.Client) *Container {
	engine, err := NewEngine(cfg.Commission)
	if err != nil {
		logger.Errorw("provider_init_engine_failed", "error", err)
		panic(err)
	}
	c := &Container{
		Config:      cfg,
		QueueClient: queueClient,
		CacheStore:  store,
		Locker:      locker,
		Engine:      engine,
	}

	// 1. 初始化 Repositories
	c.initRepositories(db)

	// 2. 初始化 Services
	c.initServices()

	return c
}

func (c *Container) initRepositories(db *gorm.DB) {
	c.SalesAccountRepo = repository.NewSalesAccountRepository(db)
	c.RateChangeRepo = repository.NewRateChangeRepository(db)
	c.SalesOrderRepo = repository.NewSalesOrderRepository(db)
	c.ExclusionRepo = repository.NewExclusionRepository(db)
	c.CommissionPayoutRepo = repository.NewCommissionPayoutRepository(db)
}

func (c *Container) initServices() {
	var enqueuer service.RecomputeEnqueuer
	if c.QueueClient != nil {
		enqueuer = c.QueueClient
	}
	loader := service.NewSnapshotLoader(c.SalesAccountRepo, c.RateChangeRepo, c.SalesOrderRepo, c.ExclusionRepo)
	c.SettlementService = service.NewSettlementService(c.Engine, loader, c.CacheStore, c.Config.Cache.TTL(), enqueuer)
	c.AccountService = service.NewAccountService(c.SalesAccountRepo, c.RateChangeRepo, c.CommissionPayoutRepo, c.Locker, c.SettlementService)
	c.RateService = service.NewRateService(c.SalesAccountRepo, c.RateChangeRepo, c.Engine.Settings().Defaults, c.Locker, c.SettlementService)
	c.ExclusionService = service.NewExclusionService(c.ExclusionRepo, c.SalesAccountRepo, c.Locker, c.SettlementService)
	c.OrderService = service.NewOrderService(c.SalesOrderRepo, c.SalesAccountRepo, c.ExclusionService, c.SettlementService)
}

func newLocker(cfg *config.Config) lock.Locker {
	if cache.Enabled() {
		expiry := time.Duration(cfg.Lock.ExpirySeconds) * time.Second
		return lock.NewRedisLocker(cache.Client(), cache.Prefix(), expiry, cfg.Lock.Tries)
	}
	return lock.NewLocalLocker()
}

// NewEngine 按配置构建佣金计算引擎
func NewEngine(cfg config.CommissionConfig) (*commission.Engine, error) {
	settings := commission.DefaultSettings()
	if cfg.PrimaryDefaultRate > 0 {
		settings.Defaults.Primary = decimal.NewFromFloat(cfg.PrimaryDefaultRate)
	}
	if cfg.SecondaryDefaultRate > 0 {
		settings.Defaults.Secondary = decimal.NewFromFloat(cfg.SecondaryDefaultRate)
	}
	if cfg.SettleTolerance > 0 {
		settings.SettleTolerance = decimal.NewFromFloat(cfg.SettleTolerance)
	}
	switch mode := strings.ToLower(strings.TrimSpace(cfg.NegativeOverride)); mode {
	case "":
	case constants.NegativeOverridePassthrough, constants.NegativeOverrideClamp:
		settings.NegativeOverride = mode
	default:
		return nil, fmt.Errorf("unsupported negative_override mode: %s", cfg.NegativeOverride)
	}

	cnyPerUSD := commission.DefaultCNYPerUSD
	if cfg.CNYPerUSD > 0 {
		cnyPerUSD = decimal.NewFromFloat(cfg.CNYPerUSD)
	}
	history := make([]commission.FXRate, 0, len(cfg.FXHistory))
	for _, item := range cfg.FXHistory {
		at, err := time.Parse("2006-01-02", strings.TrimSpace(item.EffectiveAt))
		if err != nil {
			return nil, fmt.Errorf("invalid fx_history effective_at %q: %w", item.EffectiveAt, err)
		}
		if item.CNYPerUSD <= 0 {
			return nil, fmt.Errorf("invalid fx_history rate at %s", item.EffectiveAt)
		}
		history = append(history, commission.FXRate{
			EffectiveAt: at,
			CNYPerUSD:   decimal.NewFromFloat(item.CNYPerUSD),
		})
	}
	return commission.NewEngine(settings, commission.NewNormalizer(cnyPerUSD, history)), nil
}
