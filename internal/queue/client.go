package queue

import (
	"errors"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/constants"

	"github.com/hibiken/asynq"
)

const (
	// DefaultQueue 默认队列名称
	DefaultQueue = constants.QueueDefault

	defaultConcurrency    = 10
	recomputeMaxRetry     = 3
	defaultRedisHost      = "127.0.0.1"
	defaultRedisPort      = 6379
	uniqueWindowExtension = time.Second
)

// Client 队列客户端封装，未启用时所有投递为空操作
type Client struct {
	client   *asynq.Client
	debounce time.Duration
}

// NewClient 创建队列客户端
func NewClient(cfg *config.QueueConfig) (*Client, error) {
	if cfg == nil || !cfg.Enabled {
		return &Client{}, nil
	}
	debounce := time.Duration(cfg.RecomputeDebounceSecs) * time.Second
	if debounce < 0 {
		debounce = 0
	}
	return &Client{
		client:   asynq.NewClient(redisOpt(cfg)),
		debounce: debounce,
	}, nil
}

// Enabled 判断是否启用
func (c *Client) Enabled() bool {
	return c != nil && c.client != nil
}

// Close 关闭客户端
func (c *Client) Close() error {
	if !c.Enabled() {
		return nil
	}
	return c.client.Close()
}

// EnqueueSettlementRecompute 推送结算重算任务。
// 同一载荷在 debounce 窗口内只入队一次，连续写入合并为一次重算。
func (c *Client) EnqueueSettlementRecompute(payload SettlementRecomputePayload) error {
	if !c.Enabled() {
		return nil
	}
	task, err := NewSettlementRecomputeTask(payload)
	if err != nil {
		return err
	}
	_, err = c.client.Enqueue(task, recomputeOptions(c.debounce)...)
	if errors.Is(err, asynq.ErrDuplicateTask) {
		return nil
	}
	return err
}

func recomputeOptions(debounce time.Duration) []asynq.Option {
	return []asynq.Option{
		asynq.Queue(DefaultQueue),
		asynq.MaxRetry(recomputeMaxRetry),
		asynq.ProcessIn(debounce),
		// 唯一锁需覆盖延迟窗口，否则窗口内重复写入仍会各自入队
		asynq.Unique(debounce + uniqueWindowExtension),
	}
}

// BuildServerConfig 生成队列服务配置
func BuildServerConfig(cfg *config.QueueConfig) (asynq.RedisClientOpt, asynq.Config) {
	serverCfg := asynq.Config{
		Concurrency: defaultConcurrency,
		Queues:      map[string]int{DefaultQueue: 1},
	}
	if cfg != nil {
		if cfg.Concurrency > 0 {
			serverCfg.Concurrency = cfg.Concurrency
		}
		if len(cfg.Queues) > 0 {
			serverCfg.Queues = cfg.Queues
		}
	}
	return redisOpt(cfg), serverCfg
}

func redisOpt(cfg *config.QueueConfig) asynq.RedisClientOpt {
	if cfg == nil {
		return asynq.RedisClientOpt{Addr: net.JoinHostPort(defaultRedisHost, strconv.Itoa(defaultRedisPort))}
	}
	host := strings.TrimSpace(cfg.Host)
	if host == "" {
		host = defaultRedisHost
	}
	port := cfg.Port
	if port <= 0 {
		port = defaultRedisPort
	}
	return asynq.RedisClientOpt{
		Addr:     net.JoinHostPort(host, strconv.Itoa(port)),
		Password: cfg.Password,
		DB:       cfg.DB,
	}
}
