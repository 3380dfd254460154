package app

import (
	"context"
	"errors"
	"fmt"
	"os/signal"
	"time"

	"go.uber.org/zap"
)

const defaultStopTimeout = 10 * time.Second

// Service 可被 Runner 托管的长驻服务
type Service interface {
	Name() string
	// Start 阻塞运行，ctx 取消后应尽快返回
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// Runner 服务运行器，任一服务退出即整体停机
type Runner struct {
	services []Service
}

// NewRunner 创建服务运行器
func NewRunner(services ...Service) *Runner {
	return &Runner{services: services}
}

// RunWithOptions 运行服务并处理系统信号
func RunWithOptions(runner *Runner, opts Options) error {
	if runner == nil {
		return errors.New("runner is nil")
	}
	opts = normalizeOptions(opts)
	ctx := context.Background()
	if len(opts.Signals) > 0 {
		var cancel context.CancelFunc
		ctx, cancel = signal.NotifyContext(ctx, opts.Signals...)
		defer cancel()
	}
	return runner.Run(ctx, opts.ShutdownTimeout, opts.Logger)
}

// Run 并发启动全部服务，收到取消或首个服务退出后按启动的逆序停止
func (r *Runner) Run(ctx context.Context, stopTimeout time.Duration, log *zap.SugaredLogger) error {
	if r == nil || len(r.services) == 0 {
		return errors.New("no services to run")
	}
	for i, svc := range r.services {
		if svc == nil {
			return fmt.Errorf("service #%d is nil", i)
		}
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	exits := make(chan error, len(r.services))
	for _, svc := range r.services {
		go r.runService(runCtx, svc, log, exits)
	}

	var runErr error
	select {
	case <-runCtx.Done():
		runErr = runCtx.Err()
	case runErr = <-exits:
	}
	cancel()

	r.stopAll(stopTimeout, log)
	if errors.Is(runErr, context.Canceled) {
		return nil
	}
	return runErr
}

func (r *Runner) runService(ctx context.Context, svc Service, log *zap.SugaredLogger, exits chan<- error) {
	name := svc.Name()
	startedAt := time.Now()
	if log != nil {
		log.Infow("service_start", "service", name)
	}
	err := svc.Start(ctx)
	if log != nil {
		log.Infow("service_exit", "service", name, "uptime", time.Since(startedAt), "error", err)
	}
	if err != nil {
		err = fmt.Errorf("%s: %w", name, err)
	}
	exits <- err
}

func (r *Runner) stopAll(timeout time.Duration, log *zap.SugaredLogger) {
	if timeout <= 0 {
		timeout = defaultStopTimeout
	}
	stopCtx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()
	for i := len(r.services) - 1; i >= 0; i-- {
		svc := r.services[i]
		if err := svc.Stop(stopCtx); err != nil && log != nil {
			log.Errorw("service_stop_failed", "service", svc.Name(), "error", err)
		}
	}
}
