package queue

import (
	"testing"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"

	"github.com/hibiken/asynq"
)

func TestDisabledClientSkipsEnqueue(t *testing.T) {
	client, err := NewClient(&config.QueueConfig{Enabled: false})
	if err != nil {
		t.Fatalf("new client failed: %v", err)
	}
	if client.Enabled() {
		t.Fatalf("disabled config should yield disabled client")
	}
	if err := client.EnqueueSettlementRecompute(SettlementRecomputePayload{Generation: 1, Reason: "rate_change"}); err != nil {
		t.Fatalf("disabled enqueue should be a no-op, got %v", err)
	}

	var nilClient *Client
	if nilClient.Enabled() {
		t.Fatalf("nil client should report disabled")
	}
}

func TestBuildServerConfigDefaults(t *testing.T) {
	opt, cfg := BuildServerConfig(nil)
	if opt.Addr != "127.0.0.1:6379" {
		t.Fatalf("unexpected default addr: %s", opt.Addr)
	}
	if cfg.Concurrency != 10 || cfg.Queues[DefaultQueue] != 1 {
		t.Fatalf("unexpected default server config: %+v", cfg)
	}

	opt, cfg = BuildServerConfig(&config.QueueConfig{Host: "redis", Port: 6380, DB: 2, Concurrency: 3})
	if opt.Addr != "redis:6380" || opt.DB != 2 || cfg.Concurrency != 3 {
		t.Fatalf("unexpected server config: %+v %+v", opt, cfg)
	}
}

func TestRecomputeOptionsCoverDebounceWindow(t *testing.T) {
	opts := recomputeOptions(5 * time.Second)
	var unique, delay time.Duration
	queueName := ""
	for _, opt := range opts {
		switch opt.Type() {
		case asynq.UniqueOpt:
			unique = opt.Value().(time.Duration)
		case asynq.ProcessInOpt:
			delay = opt.Value().(time.Duration)
		case asynq.QueueOpt:
			queueName = opt.Value().(string)
		}
	}
	if delay != 5*time.Second {
		t.Fatalf("process-in want 5s got %s", delay)
	}
	if unique <= delay {
		t.Fatalf("unique window %s should exceed debounce %s", unique, delay)
	}
	if queueName != DefaultQueue {
		t.Fatalf("queue want %s got %s", DefaultQueue, queueName)
	}
}
