package service

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/cache"
	"github.com/dujiao-next/sales-settlement/internal/commission"
	"github.com/dujiao-next/sales-settlement/internal/constants"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/queue"

	"golang.org/x/sync/singleflight"
)

const settlementGenerationKey = "settlement:generation"

// Invalidator 写操作后使结算缓存失效
type Invalidator interface {
	Invalidate(ctx context.Context, reason, salesCode string)
}

// RecomputeEnqueuer 投递结算重算任务
type RecomputeEnqueuer interface {
	EnqueueSettlementRecompute(payload queue.SettlementRecomputePayload) error
}

// SettlementView 某口径下的一次完整计算结果
type SettlementView struct {
	Generation  int64                         `json:"generation"`
	Policy      string                        `json:"policy"`
	Rollups     map[string]*commission.Rollup `json:"rollups"`
	Settlements []commission.Settlement       `json:"settlements"`
}

// SettlementService 结算汇总服务，读路径带缓存
type SettlementService struct {
	engine   *commission.Engine
	loader   *SnapshotLoader
	store    cache.Store
	ttl      time.Duration
	enqueuer RecomputeEnqueuer
	group    singleflight.Group
}

// NewSettlementService 创建结算服务
func NewSettlementService(
	engine *commission.Engine,
	loader *SnapshotLoader,
	store cache.Store,
	ttl time.Duration,
	enqueuer RecomputeEnqueuer,
) *SettlementService {
	if engine == nil {
		engine = commission.NewEngine(commission.DefaultSettings(), nil)
	}
	if store == nil {
		store = cache.NewMemoryStore()
	}
	return &SettlementService{
		engine:   engine,
		loader:   loader,
		store:    store,
		ttl:      ttl,
		enqueuer: enqueuer,
	}
}

// Engine 返回计算引擎
func (s *SettlementService) Engine() *commission.Engine {
	return s.engine
}

// Aggregate 按口径汇总各账号业绩
func (s *SettlementService) Aggregate(ctx context.Context, policy string, opts commission.AggregateOptions) (map[string]*commission.Rollup, error) {
	view, err := s.View(ctx, policy, opts)
	if err != nil {
		return nil, err
	}
	return view.Rollups, nil
}

// ListSettlements 口径内全部账号的结算快照，包含无订单账号
func (s *SettlementService) ListSettlements(ctx context.Context, policy string) ([]commission.Settlement, error) {
	view, err := s.View(ctx, policy, commission.AggregateOptions{})
	if err != nil {
		return nil, err
	}
	return view.Settlements, nil
}

// GetSettlement 单个账号结算快照；口径下被排除或不存在返回 ErrNotFound
func (s *SettlementService) GetSettlement(ctx context.Context, salesCode, policy string) (*commission.Settlement, error) {
	salesCode = strings.TrimSpace(salesCode)
	if salesCode == "" {
		return nil, ErrInvalidSalesCode
	}
	if strings.TrimSpace(policy) == "" {
		policy = constants.PolicyDisplay
	}
	view, err := s.View(ctx, policy, commission.AggregateOptions{})
	if err != nil {
		return nil, err
	}
	idx := sort.Search(len(view.Settlements), func(i int) bool {
		return view.Settlements[i].SalesCode >= salesCode
	})
	if idx < len(view.Settlements) && view.Settlements[idx].SalesCode == salesCode {
		item := view.Settlements[idx]
		return &item, nil
	}
	return nil, ErrNotFound
}

// Leaderboard 统计口径佣金排行
func (s *SettlementService) Leaderboard(ctx context.Context, limit int) ([]*commission.Rollup, error) {
	view, err := s.View(ctx, constants.PolicyStatistics, commission.AggregateOptions{})
	if err != nil {
		return nil, err
	}
	return commission.Rank(view.Rollups, limit), nil
}

// Summary 统计口径全局汇总
func (s *SettlementService) Summary(ctx context.Context, opts commission.AggregateOptions) (commission.Summary, error) {
	view, err := s.View(ctx, constants.PolicyStatistics, opts)
	if err != nil {
		return commission.Summary{}, err
	}
	return commission.Summarize(view.Rollups), nil
}

// View 读取或计算某口径的结果，同 key 并发只算一次
func (s *SettlementService) View(ctx context.Context, policy string, opts commission.AggregateOptions) (*SettlementView, error) {
	policy = strings.ToLower(strings.TrimSpace(policy))
	if _, err := commission.ScopesForPolicy(policy); err != nil {
		return nil, err
	}
	generation, err := s.store.GetInt(ctx, settlementGenerationKey)
	if err != nil {
		logger.Warnw("settlement_generation_read_failed", "error", err)
	}
	key := viewCacheKey(generation, policy, opts)

	var cached SettlementView
	if hit, err := s.store.GetJSON(ctx, key, &cached); err != nil {
		logger.Warnw("settlement_cache_read_failed", "key", key, "error", err)
	} else if hit {
		return &cached, nil
	}

	result, err, _ := s.group.Do(key, func() (interface{}, error) {
		view, err := s.compute(policy, opts)
		if err != nil {
			return nil, err
		}
		view.Generation = generation
		if err := s.store.SetJSON(ctx, key, view, s.ttl); err != nil {
			logger.Warnw("settlement_cache_write_failed", "key", key, "error", err)
		}
		return view, nil
	})
	if err != nil {
		return nil, err
	}
	return result.(*SettlementView), nil
}

func (s *SettlementService) compute(policy string, opts commission.AggregateOptions) (*SettlementView, error) {
	if s.loader == nil {
		return nil, commission.ErrSnapshotRequired
	}
	snap, err := s.loader.Load()
	if err != nil {
		return nil, err
	}
	rollups, err := s.engine.Aggregate(snap, policy, opts)
	if err != nil {
		return nil, err
	}
	for code, rollup := range rollups {
		for _, warning := range rollup.Warnings {
			logger.Debugw("aggregate_warning",
				"policy", policy,
				"sales_code", code,
				"code", warning.Code,
				"order_id", warning.OrderID,
			)
		}
	}
	return &SettlementView{
		Policy:      policy,
		Rollups:     rollups,
		Settlements: s.settleVisible(snap, policy, rollups),
	}, nil
}

// settleVisible 为有业绩的账号及口径内未被排除的其他账号生成结算快照
func (s *SettlementService) settleVisible(snap *commission.Snapshot, policy string, rollups map[string]*commission.Rollup) []commission.Settlement {
	out := s.engine.SettleAll(snap, rollups)
	scopes, _ := commission.ScopesForPolicy(policy)
	exclusions := commission.NewExclusionSet(snap.Exclusions)
	for _, account := range snap.Accounts {
		if _, ok := rollups[account.Code]; ok {
			continue
		}
		a := account
		if exclusions.IsAccountExcluded(a.Code, &a, scopes) {
			continue
		}
		out = append(out, s.engine.Settle(a.Code, &a, nil, a.PaidCommission))
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].SalesCode < out[j].SalesCode
	})
	return out
}

// Invalidate 递增缓存代数并投递重算任务，失败只记录日志
func (s *SettlementService) Invalidate(ctx context.Context, reason, salesCode string) {
	generation, err := s.store.Incr(ctx, settlementGenerationKey)
	if err != nil {
		logger.Errorw("settlement_cache_invalidate_failed", "reason", reason, "sales_code", salesCode, "error", err)
		return
	}
	logger.Debugw("settlement_cache_invalidated", "reason", reason, "sales_code", salesCode, "generation", generation)
	if s.enqueuer == nil {
		return
	}
	if err := s.enqueuer.EnqueueSettlementRecompute(queue.SettlementRecomputePayload{
		Generation: generation,
		Reason:     reason,
		SalesCode:  salesCode,
	}); err != nil {
		logger.Warnw("settlement_recompute_enqueue_failed", "generation", generation, "error", err)
	}
}

// Generation 当前缓存代数
func (s *SettlementService) Generation(ctx context.Context) (int64, error) {
	return s.store.GetInt(ctx, settlementGenerationKey)
}

// Warm 预热两种口径的默认视图
func (s *SettlementService) Warm(ctx context.Context) error {
	for _, policy := range []string{constants.PolicyDisplay, constants.PolicyStatistics} {
		if _, err := s.View(ctx, policy, commission.AggregateOptions{}); err != nil {
			return err
		}
	}
	return nil
}

func viewCacheKey(generation int64, policy string, opts commission.AggregateOptions) string {
	return fmt.Sprintf("settlement:view:%d:%s:%s:%s:%s",
		generation, policy, timeKey(opts.From), timeKey(opts.To), timeKey(opts.AsOf))
}

func timeKey(t *time.Time) string {
	if t == nil {
		return "-"
	}
	return fmt.Sprintf("%d", t.UTC().Unix())
}
