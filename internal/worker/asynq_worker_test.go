package worker

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/cache"
	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/lock"
	"github.com/dujiao-next/sales-settlement/internal/models"
	"github.com/dujiao-next/sales-settlement/internal/provider"
	"github.com/dujiao-next/sales-settlement/internal/queue"

	"github.com/glebarez/sqlite"
	"github.com/hibiken/asynq"
	"gorm.io/gorm"
)

func setupConsumerTest(t *testing.T) *Consumer {
	t.Helper()
	dsn := fmt.Sprintf("file:worker_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	if err != nil {
		t.Fatalf("open sqlite failed: %v", err)
	}
	if err := models.AutoMigrateWith(db); err != nil {
		t.Fatalf("auto migrate failed: %v", err)
	}
	c := provider.NewContainerWithDB(&config.Config{}, db, cache.NewMemoryStore(), lock.NewLocalLocker(), nil)
	return NewConsumer(c)
}

func TestIsStaleRecompute(t *testing.T) {
	cases := []struct {
		name    string
		payload queue.SettlementRecomputePayload
		current int64
		want    bool
	}{
		{name: "same generation", payload: queue.SettlementRecomputePayload{Generation: 3}, current: 3, want: false},
		{name: "older generation", payload: queue.SettlementRecomputePayload{Generation: 2}, current: 3, want: true},
		{name: "unknown generation", payload: queue.SettlementRecomputePayload{}, current: 3, want: false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := isStaleRecompute(tc.payload, tc.current); got != tc.want {
				t.Fatalf("want %v got %v", tc.want, got)
			}
		})
	}
}

func TestHandleSettlementRecomputeWarmsCache(t *testing.T) {
	consumer := setupConsumerTest(t)
	ctx := context.Background()

	consumer.SettlementService.Invalidate(ctx, "test", "")
	generation, err := consumer.SettlementService.Generation(ctx)
	if err != nil {
		t.Fatalf("fetch generation failed: %v", err)
	}
	task, err := queue.NewSettlementRecomputeTask(queue.SettlementRecomputePayload{Generation: generation, Reason: "test"})
	if err != nil {
		t.Fatalf("build task failed: %v", err)
	}
	if err := consumer.handleSettlementRecompute(ctx, task); err != nil {
		t.Fatalf("handle recompute failed: %v", err)
	}

	var cached map[string]interface{}
	key := fmt.Sprintf("settlement:view:%d:statistics:-:-:-", generation)
	ok, err := consumer.CacheStore.GetJSON(ctx, key, &cached)
	if err != nil {
		t.Fatalf("read cache failed: %v", err)
	}
	if !ok {
		t.Fatalf("expected warmed statistics view under %s", key)
	}
}

func TestHandleSettlementRecomputeRejectsBadPayload(t *testing.T) {
	consumer := setupConsumerTest(t)
	task := asynq.NewTask(queue.TaskSettlementRecompute, []byte("{bad"))
	if err := consumer.handleSettlementRecompute(context.Background(), task); err == nil {
		t.Fatalf("expected unmarshal error")
	}
}

func TestResolveWarmInterval(t *testing.T) {
	if got := resolveWarmInterval(0); got != defaultWarmInterval {
		t.Fatalf("want default interval got %s", got)
	}
	if got := resolveWarmInterval(30); got != 30*time.Second {
		t.Fatalf("want 30s got %s", got)
	}
}
