package provider

import (
	"fmt"

	"github.com/dujiao-next/sales-settlement/internal/config"
	"github.com/dujiao-next/sales-settlement/internal/models"
)

// InitDatabase 按配置连接数据库并完成表迁移
func InitDatabase(cfg config.DatabaseConfig) error {
	pool := models.DBPoolConfig{
		MaxOpenConns:           cfg.Pool.MaxOpenConns,
		MaxIdleConns:           cfg.Pool.MaxIdleConns,
		ConnMaxLifetimeSeconds: cfg.Pool.ConnMaxLifetimeSeconds,
		ConnMaxIdleTimeSeconds: cfg.Pool.ConnMaxIdleTimeSeconds,
	}
	if err := models.InitDB(cfg.Driver, cfg.DSN, cfg.LogLevel, pool); err != nil {
		return fmt.Errorf("init database: %w", err)
	}
	if err := models.AutoMigrate(); err != nil {
		return fmt.Errorf("migrate database: %w", err)
	}
	return nil
}
