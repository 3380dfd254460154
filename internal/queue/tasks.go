package queue

import (
	"encoding/json"

	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// TaskSettlementRecompute 结算重算任务
	TaskSettlementRecompute = constants.TaskSettlementRecompute
)

// SettlementRecomputePayload 结算重算任务载荷
type SettlementRecomputePayload struct {
	Generation int64  `json:"generation"` // 触发时的缓存代数
	Reason     string `json:"reason"`     // 触发写操作
	SalesCode  string `json:"sales_code,omitempty"`
}

// NewSettlementRecomputeTask 创建结算重算任务
func NewSettlementRecomputeTask(payload SettlementRecomputePayload) (*asynq.Task, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TaskSettlementRecompute, body), nil
}

// ParseSettlementRecomputePayload 解析结算重算任务载荷
func ParseSettlementRecomputePayload(task *asynq.Task) (SettlementRecomputePayload, error) {
	var payload SettlementRecomputePayload
	if task == nil {
		return payload, nil
	}
	err := json.Unmarshal(task.Payload(), &payload)
	return payload, err
}
