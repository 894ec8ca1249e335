package main

import (
	"context"
	"flag"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"

	"github.com/betbot/roadbot/internal/controlplane"
	"github.com/betbot/roadbot/internal/domain"
	"github.com/betbot/roadbot/internal/events"
	"github.com/betbot/roadbot/internal/feed"
	"github.com/betbot/roadbot/internal/metrics"
	"github.com/betbot/roadbot/internal/recorder"
	"github.com/betbot/roadbot/internal/session"
	"github.com/betbot/roadbot/internal/transport"
	"github.com/betbot/roadbot/pkg/config"
	"github.com/betbot/roadbot/pkg/logger"
	"github.com/betbot/roadbot/pkg/shutdown"
	"github.com/betbot/roadbot/pkg/syncgroup"
)

func main() {
	configPath := flag.String("config", "", "配置文件路径（支持 .yaml, .yml）")
	envFile := flag.String("env", "", ".env 文件路径（可选）")
	flag.Parse()

	// .env 不存在不算错误，环境变量照常生效
	if *envFile != "" {
		if err := godotenv.Load(*envFile); err != nil {
			logrus.Warnf("加载 .env 失败: %v", err)
		}
	} else {
		_ = godotenv.Load()
	}

	if *configPath != "" {
		config.SetConfigPath(*configPath)
	} else if _, err := os.Stat("yml/config.yaml"); err == nil {
		config.SetConfigPath("yml/config.yaml")
	} else {
		logrus.Warn("未指定配置文件，将使用环境变量和默认值")
	}

	cfg, err := config.Load()
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	if err := logger.Init(cfg.Log); err != nil {
		logrus.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}

	logrus.Info("🚀 启动路单决策机器人...")

	rootCtx, rootCancel := context.WithCancel(context.Background())
	defer rootCancel()

	shutdownMgr := shutdown.NewManager()

	// 跨鞋先验存储
	var priors session.PriorStore
	if cfg.PriorsDir != "" {
		store, err := session.OpenBadgerPriorStore(cfg.PriorsDir)
		if err != nil {
			logrus.Errorf("打开先验库失败: %v", err)
			os.Exit(1)
		}
		priors = store
		logrus.Infof("💾 先验库: %s", cfg.PriorsDir)
	} else {
		priors = session.NewMemoryPriorStore()
		logrus.Warn("未配置 priorsDir，先验仅保存在内存")
	}

	// 决策日志落盘（可选）
	var rec *recorder.Recorder
	if cfg.DBPath != "" {
		rec, err = recorder.Open(cfg.DBPath)
		if err != nil {
			logrus.Errorf("打开决策库失败: %v", err)
			os.Exit(1)
		}
		logrus.Infof("💾 决策库: %s", cfg.DBPath)
	}

	// 显示端转发
	relay, err := transport.Listen(cfg.RelayAddr)
	if err != nil {
		logrus.Errorf("监听转发端口失败: %v", err)
		os.Exit(1)
	}
	logrus.Infof("🔌 显示端转发: %s", relay.Addr())

	sg := syncgroup.NewSyncGroup()
	sg.Add(func() { relay.Serve(rootCtx) })

	// 会话管理器：每条决策日志同时落盘 + 广播
	manager := session.NewManager(&cfg.Strategy, priors, func(dlog *domain.DecisionLog) {
		if rec != nil {
			if err := rec.Record(dlog); err != nil {
				logrus.Warnf("决策落盘失败: %v", err)
			}
		}
		relay.Broadcast(events.DecisionEvent{Type: "decision", Log: dlog})
	})
	sg.Add(func() { manager.Run(rootCtx) })
	sg.Run()

	// 数据源
	client := feed.NewClient(cfg.Feed, manager.Submit)
	if err := client.Start(rootCtx); err != nil {
		logrus.Errorf("连接数据源失败: %v", err)
		os.Exit(1)
	}

	// 可选：启动 metrics/pprof（默认关闭，通过环境变量启用）
	if addr := os.Getenv("METRICS_ADDR"); addr != "" {
		if _, err := metrics.StartAsync(rootCtx, addr); err != nil {
			logrus.Errorf("metrics/pprof 启动失败: %v", err)
		} else {
			logrus.Infof("📈 metrics/pprof 启用: listen=%s (expvar:/debug/vars, pprof:/debug/pprof)", addr)
		}
	}

	// 控制面
	httpSrv := &http.Server{
		Addr:    cfg.HTTPAddr,
		Handler: controlplane.New(manager, rec).Router(),
	}
	go func() {
		if err := httpSrv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logrus.Errorf("控制面退出: %v", err)
		}
	}()
	logrus.Infof("📊 控制面: http://%s", cfg.HTTPAddr)

	shutdownMgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		client.Stop()
	})
	shutdownMgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		_ = httpSrv.Shutdown(ctx)
	})
	shutdownMgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		manager.FlushPriors()
		_ = priors.Close()
	})
	shutdownMgr.OnShutdown(func(ctx context.Context, _ *sync.WaitGroup) {
		relay.Close()
		if rec != nil {
			_ = rec.Close()
		}
	})

	logrus.Info("✅ 机器人已启动，按 Ctrl+C 停止")

	sigChan := make(chan os.Signal, 1)
	signal.Notify(sigChan, os.Interrupt, syscall.SIGTERM)
	<-sigChan
	logrus.Info("收到停止信号，正在关闭...")
	rootCancel()

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	shutdownMgr.Shutdown(shutdownCtx)
	sg.Wait()

	logrus.Info("✅ 机器人已停止")
}
