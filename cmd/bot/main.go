package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/joho/godotenv"

	"github.com/betbot/polysport/internal/admin"
	"github.com/betbot/polysport/internal/execution"
	"github.com/betbot/polysport/internal/metrics"
	"github.com/betbot/polysport/internal/polymarket"
	"github.com/betbot/polysport/internal/ports"
	"github.com/betbot/polysport/internal/risk"
	"github.com/betbot/polysport/internal/services"
	"github.com/betbot/polysport/internal/signals"
	"github.com/betbot/polysport/internal/storage"
	"github.com/betbot/polysport/internal/telegram"
	"github.com/betbot/polysport/pkg/config"
	"github.com/betbot/polysport/pkg/logger"
	"github.com/betbot/polysport/pkg/retry"
)

func main() {
	configPath := flag.String("config", "config.yaml", "配置文件路径")
	flag.Parse()

	// .env 不存在时静默跳过
	_ = godotenv.Load()

	cfg, err := config.LoadFromFile(*configPath)
	if err != nil {
		logger.InitDefault()
		logger.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(logger.Config{
		Level:      cfg.LogLevel,
		OutputFile: cfg.LogFile,
		MaxSize:    50,
		MaxBackups: 5,
		MaxAge:     14,
		Compress:   true,
	}); err != nil {
		logger.InitDefault()
		logger.Warnf("日志初始化失败，退回默认配置: %v", err)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	// 账本
	store, err := storage.Open(cfg.DBPath)
	if err != nil {
		logger.Errorf("打开账本失败: %v", err)
		os.Exit(1)
	}
	defer store.Close()

	// 幂等键存储
	var keys ports.KeyStore
	switch cfg.IdempotencyBackend {
	case "badger":
		bks, err := storage.OpenBadger(cfg.BadgerDir)
		if err != nil {
			logger.Errorf("打开 badger 键库失败: %v", err)
			os.Exit(1)
		}
		defer bks.Close()
		keys = bks
	case "memory":
		keys = nil // 执行引擎退化为进程内键集
	default:
		keys = store
	}

	// 风控：初始一律关闭，随后恢复上次管理命令确认过的状态
	riskEngine := risk.NewEngine(risk.Limits{
		MaxPositionSize:  cfg.Risk.MaxPositionSize,
		MaxOrderSize:     cfg.Risk.MaxOrderSize,
		MaxOpenPositions: cfg.Risk.MaxOpenPositions,
		MaxDailyLoss:     cfg.Risk.MaxDailyLoss,
		StrategyCaps:     cfg.Risk.StrategyCaps,
	})
	if enabled, err := store.TradingEnabled(ctx); err != nil {
		logger.Warnf("恢复交易开关失败，保持关闭: %v", err)
	} else {
		riskEngine.SetTrading(enabled)
	}

	// 实盘下单通道
	var placer ports.OrderPlacer
	var placementRetry *retry.Options
	if cfg.PlacementHost != "" {
		placer = polymarket.NewClient(cfg.PlacementHost)
		opts := retry.DefaultOptions()
		placementRetry = &opts
	}

	execEngine := execution.NewEngine(riskEngine, keys, store, placer, execution.Options{
		Sizing: execution.Sizing{
			BaseSize:          cfg.Sizing.BaseSize,
			ConfidenceScaling: cfg.Sizing.ConfidenceScaling,
			MinSize:           cfg.Sizing.MinSize,
			MaxSize:           cfg.Sizing.MaxSize,
		},
		MaxSlippage:    cfg.MaxSlippage,
		KeyTTL:         time.Duration(cfg.KeyTTLHours) * time.Hour,
		Paper:          cfg.PaperTrading,
		PlacementRetry: placementRetry,
	})

	sigEngine := signals.NewEngine(nil, signals.DefaultStrategies())

	// telegram 管理入口
	if cfg.Telegram.Token != "" {
		auth := telegram.NewAuth(cfg.Telegram.Admins)
		limiter := telegram.NewRateLimiter(cfg.Telegram.RateLimitPerMinute, time.Minute)
		handler := telegram.NewHandler(auth, limiter, riskEngine, execEngine, sigEngine, store)
		bot, err := telegram.NewBot(cfg.Telegram.Token, handler)
		if err != nil {
			logger.Errorf("telegram bot 启动失败: %v", err)
		} else {
			go func() {
				if err := bot.Run(ctx); err != nil && ctx.Err() == nil {
					logger.Errorf("telegram bot 退出: %v", err)
				}
			}()
		}
	} else {
		logger.Info("未配置 TELEGRAM_BOT_TOKEN，跳过 telegram 管理入口")
	}

	// 管理 HTTP / 调试端口
	if cfg.AdminListen != "" {
		admin.NewServer(riskEngine, execEngine).StartAsync(ctx, cfg.AdminListen)
	}
	if cfg.DebugListen != "" {
		if _, err := metrics.StartAsync(ctx, cfg.DebugListen); err != nil {
			logger.Warnf("metrics 服务启动失败: %v", err)
		}
	}

	trader := services.NewTrader(sigEngine, riskEngine, execEngine, store, nil,
		time.Duration(cfg.EvalIntervalSeconds)*time.Second)

	logger.Infof("polysport 启动完成 paper=%v trading=%v db=%s",
		execEngine.Paper(), riskEngine.TradingEnabled(), cfg.DBPath)

	trader.Run(ctx)
	logger.Info("已退出")
}
