package idgen

import (
	"fmt"
	"sync"

	"github.com/bwmarrin/snowflake"
)

const defaultNodeName = "default"

var (
	nodeMap     sync.Map // map[string]*snowflake.Node
	defaultOnce sync.Once
)

// InitNode 初始化指定名称的 Snowflake 节点
func InitNode(name string, nodeID int64) error {
	n, err := snowflake.NewNode(nodeID)
	if err != nil {
		return fmt.Errorf("init snowflake node failed: %w", err)
	}
	nodeMap.Store(name, n)
	return nil
}

// InitDefault 初始化默认节点
func InitDefault(nodeID int64) error {
	return InitNode(defaultNodeName, nodeID)
}

// NewFrom 生成指定节点的 ID
func NewFrom(name string) (int64, error) {
	val, ok := nodeMap.Load(name)
	if !ok {
		return 0, fmt.Errorf("snowflake node not initialized: %s", name)
	}
	return val.(*snowflake.Node).Generate().Int64(), nil
}

// New 默认节点生成 ID，未初始化时以节点 1 兜底
func New() int64 {
	defaultOnce.Do(func() {
		if _, ok := nodeMap.Load(defaultNodeName); !ok {
			_ = InitNode(defaultNodeName, 1)
		}
	})
	id, err := NewFrom(defaultNodeName)
	if err != nil {
		panic(err)
	}
	return id
}

// OrderNo 生成销售订单号
func OrderNo() string {
	return fmt.Sprintf("SO%d", New())
}
