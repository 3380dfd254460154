package app

import (
	"errors"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/provider"
	"github.com/dujiao-next/sales-settlement/internal/router"
	"github.com/dujiao-next/sales-settlement/internal/worker"
)

// BuildRunner 构建服务运行器
func BuildRunner(cfg *config.Config, mode string) (*Runner, error) {
	if cfg == nil {
		return nil, errors.New("config is nil")
	}

	container := provider.NewContainer(cfg)
	return buildServices(cfg, mode, container)
}

func buildServices(cfg *config.Config, mode string, container *provider.Container) (*Runner, error) {
	if mode != ModeAll && mode != ModeAPI && mode != ModeWorker {
		return nil, errors.New("unknown mode: " + mode)
	}

	var services []Service

	// HTTP 服务
	if mode == ModeAll || mode == ModeAPI {
		engine := router.SetupRouter(cfg, container)
		addr := cfg.Server.Host + ":" + cfg.Server.Port
		services = append(services, NewHTTPService(addr, engine))
	}

	// 结算重算 Worker；队列未启用时 all 模式退化为进程内定时预热
	if mode == ModeAll || mode == ModeWorker {
		if cfg.Queue.Enabled {
			consumer := worker.NewConsumer(container)
			workerService, err := worker.NewService(&cfg.Queue, consumer)
			if err != nil {
				return nil, err
			}
			services = append(services, workerService)
		} else if mode == ModeWorker {
			return nil, errors.New("worker mode requires queue.enabled")
		} else {
			logger.Infow("app_queue_disabled_use_local_warmer", "interval_seconds", cfg.Queue.WarmIntervalSeconds)
			services = append(services, NewWarmService(container.SettlementService, cfg.Queue.WarmIntervalSeconds))
		}
	}

	if len(services) == 0 {
		return nil, errors.New("no services initialized (check mode and config)")
	}

	return NewRunner(services...), nil
}

// Run 应用启动入口
func Run(opts Options) error {
	opts = normalizeOptions(opts)
	if opts.Config == nil {
		return errors.New("config is nil")
	}

	runner, err := BuildRunner(opts.Config, opts.Mode)
	if err != nil {
		return err
	}

	addr := opts.Config.Server.Host + ":" + opts.Config.Server.Port
	opts.Logger.Infow("app_start", "addr", addr, "mode", opts.Mode)
	return RunWithOptions(runner, opts)
}
