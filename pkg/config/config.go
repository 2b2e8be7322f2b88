package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config 机器人全局配置
type Config struct {
	LogLevel string `yaml:"log_level"`
	LogFile  string `yaml:"log_file"`

	// DBPath sqlite 账本路径
	DBPath string `yaml:"db_path"`
	// IdempotencyBackend 幂等键存储: sqlite | badger | memory
	IdempotencyBackend string `yaml:"idempotency_backend"`
	// BadgerDir badger 幂等键库目录（backend=badger 时使用）
	BadgerDir string `yaml:"badger_dir"`

	// PaperTrading 初始纸面模式（账本中有持久化值时以持久化值为准）
	PaperTrading bool    `yaml:"paper_trading"`
	MaxSlippage  float64 `yaml:"max_slippage"`
	KeyTTLHours  int     `yaml:"key_ttl_hours"`

	Sizing SizingConfig `yaml:"sizing"`
	Risk   RiskConfig   `yaml:"risk"`

	Telegram TelegramConfig `yaml:"telegram"`

	// AdminListen 管理 HTTP 服务监听地址，空则不启动
	AdminListen string `yaml:"admin_listen"`
	// DebugListen expvar/pprof 监听地址，空则不启动
	DebugListen string `yaml:"debug_listen"`

	EvalIntervalSeconds int `yaml:"eval_interval_seconds"`

	// PlacementHost 实盘下单服务地址，空则没有外部下单通道
	PlacementHost string `yaml:"placement_host"`
}

// SizingConfig 订单定量配置
type SizingConfig struct {
	BaseSize          float64 `yaml:"base_size"`
	ConfidenceScaling bool    `yaml:"confidence_scaling"`
	MinSize           float64 `yaml:"min_size"`
	MaxSize           float64 `yaml:"max_size"`
}

// RiskConfig 风控限额配置
type RiskConfig struct {
	MaxPositionSize  float64            `yaml:"max_position_size"`
	MaxOrderSize     float64            `yaml:"max_order_size"`
	MaxOpenPositions int                `yaml:"max_open_positions"`
	MaxDailyLoss     float64            `yaml:"max_daily_loss"`
	StrategyCaps     map[string]float64 `yaml:"strategy_caps"`
}

// TelegramConfig telegram 管理入口配置。
// Token 与管理员列表只从环境变量读取，不落配置文件。
type TelegramConfig struct {
	RateLimitPerMinute int `yaml:"rate_limit_per_minute"`

	Token  string  `yaml:"-"`
	Admins []int64 `yaml:"-"`
}

// Default 返回全部默认值的配置
func Default() Config {
	return Config{
		LogLevel:            "info",
		DBPath:              "data/polysport.db",
		IdempotencyBackend:  "sqlite",
		BadgerDir:           "data/keys",
		PaperTrading:        true,
		MaxSlippage:         0.02,
		KeyTTLHours:         24,
		Sizing:              SizingConfig{BaseSize: 10, ConfidenceScaling: true, MinSize: 1, MaxSize: 100},
		Risk:                RiskConfig{MaxPositionSize: 100, MaxOrderSize: 50, MaxOpenPositions: 10, MaxDailyLoss: 100},
		Telegram:            TelegramConfig{RateLimitPerMinute: 10},
		EvalIntervalSeconds: 30,
	}
}

// LoadFromFile 读取 yaml 配置并套用环境变量覆盖。
// path 为空或文件不存在时直接用默认值。
func LoadFromFile(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			if !os.IsNotExist(err) {
				return cfg, fmt.Errorf("read config: %w", err)
			}
		} else if err := yaml.Unmarshal(data, &cfg); err != nil {
			return cfg, fmt.Errorf("parse config: %w", err)
		}
	}

	applyEnv(&cfg)
	return cfg, nil
}

// applyEnv 环境变量优先于配置文件
func applyEnv(cfg *Config) {
	if v := os.Getenv("DB_PATH"); v != "" {
		cfg.DBPath = v
	}
	if v := os.Getenv("PAPER_TRADING"); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			cfg.PaperTrading = b
		}
	}
	cfg.Telegram.Token = os.Getenv("TELEGRAM_BOT_TOKEN")
	if v := os.Getenv("TELEGRAM_ADMINS"); v != "" {
		for _, part := range strings.Split(v, ",") {
			id, err := strconv.ParseInt(strings.TrimSpace(part), 10, 64)
			if err != nil {
				continue
			}
			cfg.Telegram.Admins = append(cfg.Telegram.Admins, id)
		}
	}
}
