package main

import (
	"bufio"
	"encoding/json"
	"flag"
	"fmt"
	"os"

	"github.com/sirupsen/logrus"

	"github.com/betbot/roadbot/internal/session"
	"github.com/betbot/roadbot/pkg/config"
	"github.com/betbot/roadbot/pkg/logger"
)

// 回放工具：把抓包保存的路单快照（JSONL，每行一个 session.Report）
// 按序喂给会话管理器，用于离线评估策略配置。
func main() {
	inputPath := flag.String("input", "", "JSONL 快照文件路径")
	configPath := flag.String("config", "", "配置文件路径（可选）")
	verbose := flag.Bool("v", false, "打印每条下注决策")
	flag.Parse()

	if *inputPath == "" {
		fmt.Fprintln(os.Stderr, "用法: replay -input captures.jsonl [-config yml/config.yaml] [-v]")
		os.Exit(2)
	}

	level := "warn"
	if *verbose {
		level = "info"
	}
	if err := logger.Init(logger.Config{Level: level}); err != nil {
		logrus.Errorf("初始化日志失败: %v", err)
		os.Exit(1)
	}

	config.SetConfigPath(*configPath)
	cfg, err := config.Load()
	if err != nil {
		logrus.Errorf("加载配置失败: %v", err)
		os.Exit(1)
	}

	f, err := os.Open(*inputPath)
	if err != nil {
		logrus.Errorf("打开快照文件失败: %v", err)
		os.Exit(1)
	}
	defer f.Close()

	manager := session.NewManager(&cfg.Strategy, session.NewMemoryPriorStore(), nil)

	var lines, bad int
	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 1<<20), 8<<20)
	for scanner.Scan() {
		line := scanner.Bytes()
		if len(line) == 0 {
			continue
		}
		lines++
		var report session.Report
		if err := json.Unmarshal(line, &report); err != nil || report.Table == "" {
			bad++
			continue
		}
		if err := manager.Apply(report); err != nil {
			logrus.Warnf("第 %d 行处理失败: %v", lines, err)
		}
	}
	if err := scanner.Err(); err != nil {
		logrus.Errorf("读取快照失败: %v", err)
		os.Exit(1)
	}

	fmt.Printf("回放完成: %d 行快照（%d 行无法解析，丢弃 %d 条记录）\n",
		lines, bad, manager.DroppedRecords())
	for _, st := range manager.Snapshot() {
		fmt.Printf("[%s] shoe=%s 轮次=%d 净利=%+.2f\n  %s\n",
			st.Table, st.ShoeID, st.Round, st.NetProfit, st.Summary)
	}
}
