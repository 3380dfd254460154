package worker

import (
	"context"
	"errors"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/queue"

	"github.com/hibiken/asynq"
)

const (
	defaultWarmInterval = 5 * time.Minute
)

// Service 异步队列服务
type Service struct {
	name         string
	server       *asynq.Server
	mux          *asynq.ServeMux
	consumer     *Consumer
	warmInterval time.Duration
}

// NewService 创建异步队列服务
func NewService(cfg *config.QueueConfig, consumer *Consumer) (*Service, error) {
	if cfg == nil || !cfg.Enabled {
		return nil, errors.New("queue disabled")
	}
	if consumer == nil {
		return nil, errors.New("consumer is nil")
	}
	opt, serverCfg := queue.BuildServerConfig(cfg)
	server := asynq.NewServer(opt, serverCfg)
	mux := asynq.NewServeMux()
	consumer.Register(mux)
	return &Service{
		name:         "worker",
		server:       server,
		mux:          mux,
		consumer:     consumer,
		warmInterval: resolveWarmInterval(cfg.WarmIntervalSeconds),
	}, nil
}

// Name 服务名称
func (s *Service) Name() string {
	if s == nil || s.name == "" {
		return "worker"
	}
	return s.name
}

// Start 启动服务
func (s *Service) Start(ctx context.Context) error {
	if s == nil || s.server == nil || s.mux == nil {
		return errors.New("worker not initialized")
	}
	if s.consumer != nil && s.consumer.Container != nil && s.consumer.SettlementService != nil {
		go s.runWarmLoop(ctx)
	}
	return s.server.Run(s.mux)
}

// Stop 停止服务
func (s *Service) Stop(ctx context.Context) error {
	if s == nil || s.server == nil {
		return nil
	}
	_ = ctx
	s.server.Shutdown()
	return nil
}

// runWarmLoop 定时预热结算视图，缓存过期后首个请求无需等待全量重算
func (s *Service) runWarmLoop(ctx context.Context) {
	if s == nil || s.consumer == nil || s.consumer.Container == nil || s.consumer.SettlementService == nil {
		return
	}
	runOnce := func() {
		if err := s.consumer.SettlementService.Warm(ctx); err != nil {
			logger.Warnw("worker_settlement_warm_failed", "error", err)
		}
	}
	runOnce()

	ticker := time.NewTicker(s.warmInterval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			runOnce()
		}
	}
}

func resolveWarmInterval(seconds int) time.Duration {
	if seconds <= 0 {
		return defaultWarmInterval
	}
	return time.Duration(seconds) * time.Second
}
