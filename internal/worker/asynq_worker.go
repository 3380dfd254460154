package worker

import (
	"context"

	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/provider"
	"github.com/dujiao-next/sales-settlement/internal/queue"

	"github.com/hibiken/asynq"
)

// Consumer 异步任务消费者
type Consumer struct {
	*provider.Container
}

// NewConsumer 创建消费者
func NewConsumer(c *provider.Container) *Consumer {
	return &Consumer{
		Container: c,
	}
}

// Register 注册消费者
func (c *Consumer) Register(mux *asynq.ServeMux) {
	if c == nil || mux == nil {
		logger.Debugw("worker_register_skip_nil", "consumer_nil", c == nil, "mux_nil", mux == nil)
		return
	}
	mux.HandleFunc(queue.TaskSettlementRecompute, c.handleSettlementRecompute)
}

func (c *Consumer) handleSettlementRecompute(ctx context.Context, task *asynq.Task) error {
	if c == nil || task == nil {
		logger.Debugw("worker_settlement_recompute_skip_nil", "consumer_nil", c == nil, "task_nil", task == nil)
		return nil
	}
	payload, err := queue.ParseSettlementRecomputePayload(task)
	if err != nil {
		logger.Warnw("worker_settlement_recompute_unmarshal_failed", "error", err)
		return err
	}
	if c.Container == nil || c.SettlementService == nil {
		logger.Warnw("worker_settlement_recompute_skip_service_nil", "reason", payload.Reason)
		return nil
	}
	current, err := c.SettlementService.Generation(ctx)
	if err != nil {
		logger.Warnw("worker_settlement_recompute_fetch_generation_failed", "error", err)
		return err
	}
	if isStaleRecompute(payload, current) {
		// 之后的写入会各自入队
		logger.Debugw("worker_settlement_recompute_skip_stale",
			"payload_generation", payload.Generation,
			"current_generation", current,
			"reason", payload.Reason,
		)
		return nil
	}
	if err := c.SettlementService.Warm(ctx); err != nil {
		logger.Warnw("worker_settlement_recompute_failed",
			"generation", current,
			"reason", payload.Reason,
			"sales_code", payload.SalesCode,
			"error", err,
		)
		return err
	}
	logger.Infow("worker_settlement_recompute_done", "generation", current, "reason", payload.Reason, "sales_code", payload.SalesCode)
	return nil
}

func isStaleRecompute(payload queue.SettlementRecomputePayload, current int64) bool {
	return payload.Generation > 0 && payload.Generation < current
}
