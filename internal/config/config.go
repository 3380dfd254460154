package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/dujiao-next/sales-settlement/internal/logger"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// Config 应用配置结构
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Redis      RedisConfig      `mapstructure:"redis"`
	Queue      QueueConfig      `mapstructure:"queue"`
	CORS       CORSConfig       `mapstructure:"cors"`
	Security   SecurityConfig   `mapstructure:"security"`
	Commission CommissionConfig `mapstructure:"commission"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Lock       LockConfig       `mapstructure:"lock"`
	IDGen      IDGenConfig      `mapstructure:"idgen"`
}

// ServerConfig 服务器配置
type ServerConfig struct {
	Host string `mapstructure:"host"`
	Port string `mapstructure:"port"`
	Mode string `mapstructure:"mode"` // debug / release
}

// LogConfig 日志配置
type LogConfig struct {
	Level      string `mapstructure:"level"`
	Service    string `mapstructure:"service"`
	Dir        string `mapstructure:"dir"`
	Filename   string `mapstructure:"filename"`
	MaxSizeMB  int    `mapstructure:"max_size_mb"`
	MaxBackups int    `mapstructure:"max_backups"`
	MaxAgeDays int    `mapstructure:"max_age_days"`
	Compress   bool   `mapstructure:"compress"`
}

// ToLoggerOptions 转换为 logger 配置
func (c LogConfig) ToLoggerOptions() logger.Options {
	return logger.Options{
		Level:      c.Level,
		Service:    c.Service,
		Dir:        c.Dir,
		Filename:   c.Filename,
		MaxSizeMB:  c.MaxSizeMB,
		MaxBackups: c.MaxBackups,
		MaxAgeDays: c.MaxAgeDays,
		Compress:   c.Compress,
	}
}

// DatabasePoolConfig 数据库连接池配置
type DatabasePoolConfig struct {
	MaxOpenConns           int `mapstructure:"max_open_conns"`
	MaxIdleConns           int `mapstructure:"max_idle_conns"`
	ConnMaxLifetimeSeconds int `mapstructure:"conn_max_lifetime_seconds"`
	ConnMaxIdleTimeSeconds int `mapstructure:"conn_max_idle_time_seconds"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	Driver   string             `mapstructure:"driver"`    // 数据库驱动（sqlite/postgres/mysql）
	DSN      string             `mapstructure:"dsn"`       // 数据库连接串
	LogLevel string             `mapstructure:"log_level"` // GORM 日志级别
	Pool     DatabasePoolConfig `mapstructure:"pool"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	Enabled  bool   `mapstructure:"enabled"`
	Host     string `mapstructure:"host"`
	Port     int    `mapstructure:"port"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
	Prefix   string `mapstructure:"prefix"`
}

// QueueConfig 异步队列配置
type QueueConfig struct {
	Enabled               bool           `mapstructure:"enabled"`
	Host                  string         `mapstructure:"host"`
	Port                  int            `mapstructure:"port"`
	Password              string         `mapstructure:"password"`
	DB                    int            `mapstructure:"db"`
	Concurrency           int            `mapstructure:"concurrency"`
	Queues                map[string]int `mapstructure:"queues"`
	RecomputeDebounceSecs int            `mapstructure:"recompute_debounce_seconds"`
	WarmIntervalSeconds   int            `mapstructure:"warm_interval_seconds"`
}

// CORSConfig 跨域配置
type CORSConfig struct {
	AllowedOrigins   []string `mapstructure:"allowed_origins"`
	AllowedMethods   []string `mapstructure:"allowed_methods"`
	AllowedHeaders   []string `mapstructure:"allowed_headers"`
	AllowCredentials bool     `mapstructure:"allow_credentials"`
	MaxAge           int      `mapstructure:"max_age"`
}

// SecurityConfig 安全配置
type SecurityConfig struct {
	WriteRateLimit WriteRateLimitConfig `mapstructure:"write_rate_limit"`
}

// WriteRateLimitConfig 写接口限流配置
type WriteRateLimitConfig struct {
	WindowSeconds int `mapstructure:"window_seconds"`
	MaxRequests   int `mapstructure:"max_requests"`
}

// FXRateConfig 人民币汇率历史
type FXRateConfig struct {
	EffectiveAt string  `mapstructure:"effective_at"` // 2006-01-02
	CNYPerUSD   float64 `mapstructure:"cny_per_usd"`
}

// CommissionConfig 佣金计算配置
type CommissionConfig struct {
	CNYPerUSD            float64        `mapstructure:"cny_per_usd"`
	FXHistory            []FXRateConfig `mapstructure:"fx_history"`
	PrimaryDefaultRate   float64        `mapstructure:"primary_default_rate"`
	SecondaryDefaultRate float64        `mapstructure:"secondary_default_rate"`
	SettleTolerance      float64        `mapstructure:"settle_tolerance"`
	NegativeOverride     string         `mapstructure:"negative_override"` // passthrough / clamp
}

// CacheConfig 结算缓存配置
type CacheConfig struct {
	TTLSeconds int `mapstructure:"ttl_seconds"`
}

// TTL 缓存有效期
func (c CacheConfig) TTL() time.Duration {
	if c.TTLSeconds <= 0 {
		return 5 * time.Minute
	}
	return time.Duration(c.TTLSeconds) * time.Second
}

// LockConfig 分布式锁配置
type LockConfig struct {
	ExpirySeconds int `mapstructure:"expiry_seconds"`
	Tries         int `mapstructure:"tries"`
}

// IDGenConfig 订单号生成配置
type IDGenConfig struct {
	NodeID int64 `mapstructure:"node_id"`
}

// Load 从 config.yml 加载配置
func Load() *Config {
	// .env 中的变量先进入进程环境，再由 AutomaticEnv 覆盖配置文件
	if err := godotenv.Load(); err == nil {
		logger.Infow("config_dotenv_loaded", "file", ".env")
	}

	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")     // 从当前目录查找
	viper.AddConfigPath("../")   // 如果从 cmd/server 运行
	viper.AddConfigPath("./etc") // etc 文件夹

	setDefaults(viper.GetViper())

	// 环境变量支持，例如 server.port -> SERVER_PORT
	viper.AutomaticEnv()
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := viper.ReadInConfig(); err != nil {
		logger.Warnw("config_file_read_failed",
			"error", err,
			"fallback", "env_or_defaults",
		)
	} else {
		logger.Infow("config_file_loaded", "file", viper.ConfigFileUsed())
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		logger.Errorw("config_unmarshal_failed", "error", err)
		panic(fmt.Errorf("配置解析失败: %w", err))
	}

	return &cfg
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.host", "0.0.0.0")
	v.SetDefault("server.port", "8080")
	v.SetDefault("server.mode", "debug")
	v.SetDefault("log.level", "")
	v.SetDefault("log.service", logger.DefaultService)
	v.SetDefault("log.dir", "")
	v.SetDefault("log.filename", "app.log")
	v.SetDefault("log.max_size_mb", 100)
	v.SetDefault("log.max_backups", 7)
	v.SetDefault("log.max_age_days", 30)
	v.SetDefault("log.compress", true)
	v.SetDefault("database.driver", "sqlite")
	v.SetDefault("database.dsn", "./db/settlement.db")
	v.SetDefault("database.log_level", "warn")
	v.SetDefault("database.pool.max_open_conns", 1)
	v.SetDefault("database.pool.max_idle_conns", 1)
	v.SetDefault("database.pool.conn_max_lifetime_seconds", 0)
	v.SetDefault("database.pool.conn_max_idle_time_seconds", 0)
	v.SetDefault("redis.enabled", false)
	v.SetDefault("redis.host", "127.0.0.1")
	v.SetDefault("redis.port", 6379)
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.prefix", "ss")
	v.SetDefault("queue.enabled", false)
	v.SetDefault("queue.host", "127.0.0.1")
	v.SetDefault("queue.port", 6379)
	v.SetDefault("queue.password", "")
	v.SetDefault("queue.db", 1)
	v.SetDefault("queue.concurrency", 4)
	v.SetDefault("queue.queues", map[string]int{
		"default": 1,
	})
	v.SetDefault("queue.recompute_debounce_seconds", 2)
	v.SetDefault("queue.warm_interval_seconds", 300)
	v.SetDefault("cors.allowed_origins", []string{"*"})
	v.SetDefault("cors.allow_credentials", false)
	v.SetDefault("cors.max_age", 600)
	v.SetDefault("security.write_rate_limit.window_seconds", 60)
	v.SetDefault("security.write_rate_limit.max_requests", 120)
	v.SetDefault("commission.cny_per_usd", 7.15)
	v.SetDefault("commission.primary_default_rate", 0.40)
	v.SetDefault("commission.secondary_default_rate", 0.25)
	v.SetDefault("commission.settle_tolerance", 0.01)
	v.SetDefault("commission.negative_override", "passthrough")
	v.SetDefault("cache.ttl_seconds", 300)
	v.SetDefault("lock.expiry_seconds", 10)
	v.SetDefault("lock.tries", 32)
	v.SetDefault("idgen.node_id", 1)
}
