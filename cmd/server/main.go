package main

import (
	"flag"
	"fmt"
	"os"
	"strings"
	"syscall"

	"github.com/dujiao-next/sales-settlement/internal/app"
	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/logger"
	"github.com/dujiao-next/sales-settlement/internal/provider"

	"github.com/gin-gonic/gin"
)

const (
	ansiReset = "\033[0m"
	ansiBold  = "\033[1m"
	ansiDim   = "\033[2m"
	ansiCyan  = "\033[36m"
	ansiMag   = "\033[95m"
)

func main() {
	mode := flag.String("mode", app.ModeAll, "启动模式: all (默认), api, worker")
	flag.Parse()

	cfg := config.Load()
	logger.Init(cfg.Server.Mode, cfg.Log.ToLoggerOptions())
	stdLog := logger.StdLogger()
	printStartupBanner(cfg, *mode)

	if err := provider.InitDatabase(cfg.Database); err != nil {
		stdLog.Fatalf("数据库初始化失败: %v", err)
	}

	if strings.EqualFold(cfg.Server.Mode, gin.ReleaseMode) {
		gin.SetMode(gin.ReleaseMode)
	}

	if err := app.Run(app.Options{
		Config:  cfg,
		Logger:  logger.S(),
		Signals: []os.Signal{syscall.SIGINT, syscall.SIGTERM},
		Mode:    *mode,
	}); err != nil {
		stdLog.Fatalf("服务运行失败: %v", err)
	}
}

func printStartupBanner(cfg *config.Config, mode string) {
	lines := []string{
		ansiMag + ansiBold + "Sales Settlement" + ansiReset + ansiDim + "  一级 / 二级销售佣金结算与汇总" + ansiReset,
		fmt.Sprintf("%smode%s     %s", ansiCyan, ansiReset, mode),
		fmt.Sprintf("%sdatabase%s %s", ansiCyan, ansiReset, cfg.Database.Driver),
		fmt.Sprintf("%slisten%s   %s:%s/api/v1  (routes: /api/v1/routes, health: /health)", ansiCyan, ansiReset, cfg.Server.Host, cfg.Server.Port),
		fmt.Sprintf("%squeue%s    %v  %sredis%s %v", ansiCyan, ansiReset, cfg.Queue.Enabled, ansiCyan, ansiReset, cfg.Redis.Enabled),
	}
	for _, line := range lines {
		fmt.Println(line)
	}
}
