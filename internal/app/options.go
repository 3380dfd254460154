package app

import (
	"os"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/logger"

	"go.uber.org/zap"
)

// 启动模式
const (
	ModeAll    = "all"    // HTTP + 重算 Worker（或进程内预热）
	ModeAPI    = "api"    // 仅 HTTP
	ModeWorker = "worker" // 仅消费结算重算任务，需启用队列
)

// Options 应用启动选项
type Options struct {
	Config          *config.Config
	Logger          *zap.SugaredLogger
	Signals         []os.Signal
	ShutdownTimeout time.Duration
	Mode            string
}

// normalizeOptions 补齐默认参数
func normalizeOptions(opts Options) Options {
	if opts.Logger == nil {
		opts.Logger = logger.S()
	}
	if opts.ShutdownTimeout <= 0 {
		opts.ShutdownTimeout = defaultStopTimeout
	}
	opts.Mode = strings.ToLower(strings.TrimSpace(opts.Mode))
	if opts.Mode == "" {
		opts.Mode = ModeAll
	}
	return opts
}
