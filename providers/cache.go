package providers

import (
	"context"
	"fmt"
	"sync"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"
)

// CatalogStore 是模型目录的可选二级存储（如 Redis）。
// Load 未命中返回 (nil, false)；Save 必须整体覆盖，绝不合并。
type CatalogStore interface {
	Load(ctx context.Context, key string) ([]string, bool)
	Save(ctx context.Context, key string, models []string)
}

// CacheObserver 上报缓存命中/未命中，由上层接指标收集器。
type CacheObserver interface {
	CacheHit(name string)
	CacheMiss(name string)
}

// ModelCache 按 (provider, credential, base URL) 缓存模型目录。
// 写入对读者原子（整表覆盖，读写均拷贝切片）；无自动过期，
// 条目存活到进程结束或显式 Invalidate。并发的同键首次抓取
// 经 singleflight 合并为一次。
type ModelCache struct {
	mu       sync.RWMutex
	entries  map[string][]string
	store    CatalogStore
	observer CacheObserver
	group    singleflight.Group
	logger   *zap.Logger
}

// NewModelCache 创建空的模型目录缓存。store 与 observer 可为 nil。
func NewModelCache(store CatalogStore, logger *zap.Logger) *ModelCache {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ModelCache{
		entries: make(map[string][]string),
		store:   store,
		logger:  logger.With(zap.String("component", "model_cache")),
	}
}

// SetObserver 挂接命中统计；必须在并发使用前调用。
func (c *ModelCache) SetObserver(o CacheObserver) { c.observer = o }

// CacheKey 构造缓存键。baseURL 为空时以 "default" 占位。
func CacheKey(provider, apiKey, baseURL string) string {
	if baseURL == "" {
		baseURL = "default"
	}
	return fmt.Sprintf("%s:%s:%s", provider, apiKey, baseURL)
}

// Get 返回命中的目录拷贝；未命中时返回 (nil, false)。
func (c *ModelCache) Get(ctx context.Context, provider, apiKey, baseURL string) ([]string, bool) {
	key := CacheKey(provider, apiKey, baseURL)

	c.mu.RLock()
	models, ok := c.entries[key]
	c.mu.RUnlock()
	if ok {
		c.hit(provider)
		return append([]string(nil), models...), true
	}

	if c.store != nil {
		if stored, found := c.store.Load(ctx, key); found {
			c.mu.Lock()
			c.entries[key] = append([]string(nil), stored...)
			c.mu.Unlock()
			c.hit(provider)
			return stored, true
		}
	}

	c.miss(provider)
	return nil, false
}

// Put 整表覆盖该键下的目录，并透写二级存储。
func (c *ModelCache) Put(ctx context.Context, provider, apiKey, baseURL string, models []string) {
	key := CacheKey(provider, apiKey, baseURL)
	copied := append([]string(nil), models...)

	c.mu.Lock()
	c.entries[key] = copied
	c.mu.Unlock()

	if c.store != nil {
		c.store.Save(ctx, key, copied)
	}
}

// Invalidate 丢弃该键下的缓存，下一次读取将重新抓取。
func (c *ModelCache) Invalidate(ctx context.Context, provider, apiKey, baseURL string) {
	key := CacheKey(provider, apiKey, baseURL)

	c.mu.Lock()
	delete(c.entries, key)
	c.mu.Unlock()

	if c.store != nil {
		c.store.Save(ctx, key, nil)
	}
	c.logger.Debug("model cache invalidated", zap.String("key", key))
}

// GetOrFetch 命中直接返回，否则执行 fetch 并缓存结果。
// 同键的并发未命中只触发一次 fetch。
func (c *ModelCache) GetOrFetch(
	ctx context.Context,
	provider, apiKey, baseURL string,
	fetch func(ctx context.Context) ([]string, error),
) ([]string, error) {
	if models, ok := c.Get(ctx, provider, apiKey, baseURL); ok {
		return models, nil
	}

	key := CacheKey(provider, apiKey, baseURL)
	v, err, _ := c.group.Do(key, func() (interface{}, error) {
		models, err := fetch(ctx)
		if err != nil {
			return nil, err
		}
		c.Put(ctx, provider, apiKey, baseURL, models)
		return models, nil
	})
	if err != nil {
		return nil, err
	}
	return append([]string(nil), v.([]string)...), nil
}

func (c *ModelCache) hit(name string) {
	if c.observer != nil {
		c.observer.CacheHit(name)
	}
}

func (c *ModelCache) miss(name string) {
	if c.observer != nil {
		c.observer.CacheMiss(name)
	}
}
