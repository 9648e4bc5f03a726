// =============================================================================
// 📦 ImageFlow 配置加载器
// =============================================================================
// 统一配置加载，支持 YAML 文件 + 环境变量覆盖
//
// 使用方法:
//
//	cfg, err := config.NewLoader().
//	    WithConfigPath("config.yaml").
//	    WithEnvPrefix("IMAGEFLOW").
//	    Load()
//
// 配置优先级: 默认值 → YAML 文件 → 环境变量
// =============================================================================
package config

import (
	"fmt"
	"os"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

// =============================================================================
// 🎯 核心配置结构
// =============================================================================

// Config 是 ImageFlow 的完整配置结构
type Config struct {
	// Providers 各后端配置
	Providers ProvidersConfig `yaml:"providers"`

	// Redis 模型目录二级存储配置
	Redis RedisConfig `yaml:"redis"`

	// Database 用量存储配置
	Database DatabaseConfig `yaml:"database"`

	// Log 日志配置
	Log LogConfig `yaml:"log"`

	// Metrics 指标配置
	Metrics MetricsConfig `yaml:"metrics"`
}

// ProvidersConfig 各后端的凭证与地址
type ProvidersConfig struct {
	BlackForest ProviderConfig `yaml:"blackforest"`
	Ideogram    ProviderConfig `yaml:"ideogram"`
	Luma        ProviderConfig `yaml:"luma"`
	Runway      ProviderConfig `yaml:"runway"`
	Stability   ProviderConfig `yaml:"stability"`
	OpenAI      ProviderConfig `yaml:"openai"`
}

// ProviderConfig 单个后端配置；BaseURL 为空时使用适配器默认地址
type ProviderConfig struct {
	// API 密钥
	APIKey string `yaml:"api_key"`
	// 基础地址
	BaseURL string `yaml:"base_url"`
	// 请求超时
	Timeout time.Duration `yaml:"timeout"`
}

// RedisConfig Redis 配置
type RedisConfig struct {
	// 是否启用二级目录存储
	Enabled bool `yaml:"enabled"`
	// 地址
	Addr string `yaml:"addr"`
	// 密码
	Password string `yaml:"password"`
	// 数据库编号
	DB int `yaml:"db"`
}

// DatabaseConfig 数据库配置
type DatabaseConfig struct {
	// 是否启用用量记录
	Enabled bool `yaml:"enabled"`
	// DSN，如 "imageflow.db"
	DSN string `yaml:"dsn"`
}

// LogConfig 日志配置
type LogConfig struct {
	// 级别: debug, info, warn, error
	Level string `yaml:"level"`
	// 格式: json, console
	Format string `yaml:"format"`
}

// MetricsConfig 指标配置
type MetricsConfig struct {
	// 是否启用
	Enabled bool `yaml:"enabled"`
	// Prometheus 命名空间
	Namespace string `yaml:"namespace"`
}

// DefaultConfig 返回默认配置
func DefaultConfig() *Config {
	return &Config{
		Redis: RedisConfig{
			Addr: "localhost:6379",
		},
		Database: DatabaseConfig{
			DSN: "imageflow.db",
		},
		Log: LogConfig{
			Level:  "info",
			Format: "json",
		},
		Metrics: MetricsConfig{
			Enabled:   true,
			Namespace: "imageflow",
		},
	}
}

// =============================================================================
// 🔄 加载器
// =============================================================================

// Loader 配置加载器
type Loader struct {
	configPath string
	envPrefix  string
}

// NewLoader 创建配置加载器
func NewLoader() *Loader {
	return &Loader{envPrefix: "IMAGEFLOW"}
}

// WithConfigPath 设置 YAML 文件路径
func (l *Loader) WithConfigPath(path string) *Loader {
	l.configPath = path
	return l
}

// WithEnvPrefix 设置环境变量前缀
func (l *Loader) WithEnvPrefix(prefix string) *Loader {
	l.envPrefix = prefix
	return l
}

// Load 按 默认值 → YAML → 环境变量 的顺序合成配置
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()

	if l.configPath != "" {
		data, err := os.ReadFile(l.configPath)
		if err != nil {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config file: %w", err)
		}
	}

	l.applyEnv(cfg)
	return cfg, nil
}

// applyEnv 用环境变量覆盖敏感项与常改项
func (l *Loader) applyEnv(cfg *Config) {
	l.envString("BLACKFOREST_API_KEY", &cfg.Providers.BlackForest.APIKey)
	l.envString("BLACKFOREST_BASE_URL", &cfg.Providers.BlackForest.BaseURL)
	l.envString("IDEOGRAM_API_KEY", &cfg.Providers.Ideogram.APIKey)
	l.envString("IDEOGRAM_BASE_URL", &cfg.Providers.Ideogram.BaseURL)
	l.envString("LUMA_API_KEY", &cfg.Providers.Luma.APIKey)
	l.envString("LUMA_BASE_URL", &cfg.Providers.Luma.BaseURL)
	l.envString("RUNWAY_API_KEY", &cfg.Providers.Runway.APIKey)
	l.envString("RUNWAY_BASE_URL", &cfg.Providers.Runway.BaseURL)
	l.envString("STABILITY_API_KEY", &cfg.Providers.Stability.APIKey)
	l.envString("STABILITY_BASE_URL", &cfg.Providers.Stability.BaseURL)
	l.envString("OPENAI_API_KEY", &cfg.Providers.OpenAI.APIKey)
	l.envString("OPENAI_BASE_URL", &cfg.Providers.OpenAI.BaseURL)

	l.envBool("REDIS_ENABLED", &cfg.Redis.Enabled)
	l.envString("REDIS_ADDR", &cfg.Redis.Addr)
	l.envString("REDIS_PASSWORD", &cfg.Redis.Password)
	l.envInt("REDIS_DB", &cfg.Redis.DB)

	l.envBool("DATABASE_ENABLED", &cfg.Database.Enabled)
	l.envString("DATABASE_DSN", &cfg.Database.DSN)

	l.envString("LOG_LEVEL", &cfg.Log.Level)
	l.envString("LOG_FORMAT", &cfg.Log.Format)
}

func (l *Loader) envString(key string, dst *string) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		*dst = v
	}
}

func (l *Loader) envInt(key string, dst *int) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		if n, err := strconv.Atoi(v); err == nil {
			*dst = n
		}
	}
}

func (l *Loader) envBool(key string, dst *bool) {
	if v, ok := os.LookupEnv(l.envPrefix + "_" + key); ok {
		if b, err := strconv.ParseBool(v); err == nil {
			*dst = b
		}
	}
}
