// Package cache provides the Redis-backed model catalog store.
// This package is internal and should not be imported by external projects.
package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

// =============================================================================
// 💾 模型目录存储
// =============================================================================

// Manager 将模型目录持久化到 Redis，作为进程内缓存的二级存储。
// 写入整键覆盖（SET），读者永远不会看到半写的列表。
type Manager struct {
	redis  *redis.Client
	config Config
	logger *zap.Logger
	mu     sync.RWMutex
	closed bool
}

// Config 缓存配置
type Config struct {
	// Redis 地址
	Addr string `yaml:"addr" json:"addr"`

	// 密码
	Password string `yaml:"password" json:"password"`

	// 数据库编号
	DB int `yaml:"db" json:"db"`

	// 键前缀
	KeyPrefix string `yaml:"key_prefix" json:"key_prefix"`

	// 最大重试次数
	MaxRetries int `yaml:"max_retries" json:"max_retries"`

	// 连接池大小
	PoolSize int `yaml:"pool_size" json:"pool_size"`

	// 最小空闲连接数
	MinIdleConns int `yaml:"min_idle_conns" json:"min_idle_conns"`
}

// DefaultConfig 返回默认缓存配置
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		KeyPrefix:    "imageflow:models:",
		MaxRetries:   3,
		PoolSize:     10,
		MinIdleConns: 2,
	}
}

// NewManager 创建模型目录存储
func NewManager(config Config, logger *zap.Logger) (*Manager, error) {
	if config.KeyPrefix == "" {
		config.KeyPrefix = "imageflow:models:"
	}
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		MaxRetries:   config.MaxRetries,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
	})

	// 测试连接
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	m := &Manager{
		redis:  client,
		config: config,
		logger: logger.With(zap.String("component", "catalog_store")),
	}

	logger.Info("catalog store initialized",
		zap.String("addr", config.Addr),
		zap.Int("pool_size", config.PoolSize),
	)

	return m, nil
}

// Load 读取某键下的模型目录；键不存在或存储不可用时返回 (nil, false)。
// 实现 providers.CatalogStore。
func (m *Manager) Load(ctx context.Context, key string) ([]string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return nil, false
	}

	raw, err := m.redis.Get(ctx, m.config.KeyPrefix+key).Result()
	if err != nil {
		if err != redis.Nil {
			m.logger.Warn("catalog load failed", zap.String("key", key), zap.Error(err))
		}
		return nil, false
	}

	var models []string
	if err := json.Unmarshal([]byte(raw), &models); err != nil {
		m.logger.Warn("catalog entry corrupted", zap.String("key", key), zap.Error(err))
		return nil, false
	}
	return models, true
}

// Save 整键覆盖模型目录；models 为 nil 时删除该键。
// 存储失败只记日志：目录缓存是加速器，不是正确性前提。
func (m *Manager) Save(ctx context.Context, key string, models []string) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	if m.closed {
		return
	}

	if models == nil {
		if err := m.redis.Del(ctx, m.config.KeyPrefix+key).Err(); err != nil {
			m.logger.Warn("catalog delete failed", zap.String("key", key), zap.Error(err))
		}
		return
	}

	payload, err := json.Marshal(models)
	if err != nil {
		m.logger.Warn("catalog marshal failed", zap.String("key", key), zap.Error(err))
		return
	}
	// 进程生存期内不过期，与进程内缓存的契约一致
	if err := m.redis.Set(ctx, m.config.KeyPrefix+key, payload, 0).Err(); err != nil {
		m.logger.Warn("catalog save failed", zap.String("key", key), zap.Error(err))
	}
}

// Close 关闭 Redis 连接
func (m *Manager) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.closed {
		return nil
	}
	m.closed = true
	return m.redis.Close()
}
