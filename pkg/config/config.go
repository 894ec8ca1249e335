package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/betbot/roadbot/internal/feed"
	"github.com/betbot/roadbot/internal/strategies/roadbet"
	"github.com/betbot/roadbot/pkg/logger"
)

// Config 应用配置
// 优先级：环境变量 > 配置文件 > 默认值
type Config struct {
	Log logger.Config `yaml:"log" json:"log"`

	HTTPAddr  string `yaml:"httpAddr" json:"httpAddr"`   // 控制面监听地址
	RelayAddr string `yaml:"relayAddr" json:"relayAddr"` // 显示端转发监听地址
	DBPath    string `yaml:"dbPath" json:"dbPath"`       // 决策日志 SQLite 路径（空=不落盘）
	PriorsDir string `yaml:"priorsDir" json:"priorsDir"` // 跨鞋先验 Badger 目录（空=仅内存）

	Feed     feed.Config    `yaml:"feed" json:"feed"`
	Strategy roadbet.Config `yaml:"strategy" json:"strategy"`
}

var globalConfig *Config
var configFilePath string

// SetConfigPath 设置配置文件路径
func SetConfigPath(path string) {
	configFilePath = path
	globalConfig = nil
}

// Load 加载配置（带缓存）
func Load() (*Config, error) {
	if globalConfig != nil {
		return globalConfig, nil
	}
	cfg, err := LoadFromFile(configFilePath)
	if err != nil {
		return nil, err
	}
	globalConfig = cfg
	return cfg, nil
}

// LoadFromFile 从指定文件加载配置
func LoadFromFile(filePath string) (*Config, error) {
	cfg := &Config{}

	if filePath != "" {
		data, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("加载配置文件失败 %s: %w", filePath, err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("解析配置文件失败 %s: %w", filePath, err)
		}
	}

	applyEnvOverrides(cfg)
	applyDefaults(cfg)

	if err := cfg.Strategy.Defaults(); err != nil {
		return nil, err
	}
	if err := cfg.Strategy.Validate(); err != nil {
		return nil, fmt.Errorf("策略配置非法: %w", err)
	}
	cfg.Feed.Defaults()

	return cfg, nil
}

// applyEnvOverrides 环境变量覆盖（容器部署时不用改配置文件）
func applyEnvOverrides(cfg *Config) {
	cfg.Log.Level = getEnv("LOG_LEVEL", cfg.Log.Level)
	cfg.Log.OutputFile = getEnv("LOG_FILE", cfg.Log.OutputFile)
	cfg.HTTPAddr = getEnv("HTTP_ADDR", cfg.HTTPAddr)
	cfg.RelayAddr = getEnv("RELAY_ADDR", cfg.RelayAddr)
	cfg.DBPath = getEnv("DB_PATH", cfg.DBPath)
	cfg.PriorsDir = getEnv("PRIORS_DIR", cfg.PriorsDir)
	cfg.Feed.BaseURL = getEnv("FEED_BASE_URL", cfg.Feed.BaseURL)
	if tables := os.Getenv("FEED_TABLES"); tables != "" {
		cfg.Feed.Tables = splitTables(tables)
	}
	cfg.Strategy.KellyFraction = parseFloatEnv("KELLY_FRACTION", cfg.Strategy.KellyFraction)
	cfg.Strategy.StopLossUnits = parseFloatEnv("STOP_LOSS_UNITS", cfg.Strategy.StopLossUnits)
	cfg.Strategy.MaxExposureUnits = parseIntEnv("MAX_EXPOSURE_UNITS", cfg.Strategy.MaxExposureUnits)
	cfg.Strategy.WarmupRounds = parseIntEnv("WARMUP_ROUNDS", cfg.Strategy.WarmupRounds)
}

func applyDefaults(cfg *Config) {
	if cfg.Log.Level == "" {
		cfg.Log.Level = "info"
	}
	if cfg.HTTPAddr == "" {
		cfg.HTTPAddr = "127.0.0.1:8080"
	}
	if cfg.RelayAddr == "" {
		cfg.RelayAddr = "127.0.0.1:7311"
	}
}

func splitTables(s string) []string {
	var out []string
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			out = append(out, t)
		}
	}
	return out
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseIntEnv(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return fallback
}

func parseFloatEnv(key string, fallback float64) float64 {
	if v := os.Getenv(key); v != "" {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			return f
		}
	}
	return fallback
}
