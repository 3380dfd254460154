package app

import (
	"context"
	"sync"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/logger"
)

const defaultWarmInterval = 5 * time.Minute

// Warmer 结算视图预热
type Warmer interface {
	Warm(ctx context.Context) error
}

// WarmService 无队列部署下的进程内预热服务
type WarmService struct {
	warmer   Warmer
	interval time.Duration
	done     chan struct{}
	stopOnce sync.Once
}

// NewWarmService 创建预热服务
func NewWarmService(warmer Warmer, intervalSeconds int) *WarmService {
	interval := time.Duration(intervalSeconds) * time.Second
	if interval <= 0 {
		interval = defaultWarmInterval
	}
	return &WarmService{
		warmer:   warmer,
		interval: interval,
		done:     make(chan struct{}),
	}
}

// Name 服务名称
func (s *WarmService) Name() string {
	return "settlement_warmer"
}

// Start 立即预热一次，之后按间隔执行直到 ctx 结束或 Stop
func (s *WarmService) Start(ctx context.Context) error {
	if s == nil || s.warmer == nil {
		return nil
	}
	runOnce := func() {
		if err := s.warmer.Warm(ctx); err != nil {
			logger.Warnw("app_settlement_warm_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return nil
		case <-s.done:
			return nil
		case <-ticker.C:
			runOnce()
		}
	}
}

// Stop 停止服务，可重复及并发调用
func (s *WarmService) Stop(context.Context) error {
	if s == nil {
		return nil
	}
	s.stopOnce.Do(func() { close(s.done) })
	return nil
}
