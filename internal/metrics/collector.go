// Package metrics provides internal metrics collection.
// This package is internal and should not be imported by external projects.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"go.uber.org/zap"
)

// =============================================================================
// 📊 指标收集器
// =============================================================================

// Collector 指标收集器
type Collector struct {
	// 图像生成指标
	requestsTotal   *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	imagesGenerated *prometheus.CounterVec

	// 缓存指标
	cacheHits   *prometheus.CounterVec
	cacheMisses *prometheus.CounterVec

	logger *zap.Logger
}

// NewCollector 创建指标收集器，注册到给定的 Registerer
// （测试传独立的 prometheus.NewRegistry 避免重复注册）。
func NewCollector(namespace string, reg prometheus.Registerer, logger *zap.Logger) *Collector {
	factory := promauto.With(reg)
	c := &Collector{
		logger: logger.With(zap.String("component", "metrics")),
	}

	c.requestsTotal = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "image_requests_total",
			Help:      "Total number of image generation requests",
		},
		[]string{"provider", "endpoint", "status"},
	)

	c.requestDuration = factory.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "image_request_duration_seconds",
			Help:      "Image generation request duration in seconds",
			// 轮询后端以分钟计，默认桶太细
			Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider", "endpoint"},
	)

	c.imagesGenerated = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "images_generated_total",
			Help:      "Total number of images generated",
		},
		[]string{"provider"},
	)

	c.cacheHits = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_hits_total",
			Help:      "Total number of model catalog cache hits",
		},
		[]string{"provider"},
	)

	c.cacheMisses = factory.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "model_cache_misses_total",
			Help:      "Total number of model catalog cache misses",
		},
		[]string{"provider"},
	)

	return c
}

// RecordRequest 记录一次生成调用及其结果
func (c *Collector) RecordRequest(provider, endpoint, status string, duration time.Duration) {
	c.requestsTotal.WithLabelValues(provider, endpoint, status).Inc()
	c.requestDuration.WithLabelValues(provider, endpoint).Observe(duration.Seconds())
}

// RecordImages 记录生成的图像数量
func (c *Collector) RecordImages(provider string, n int) {
	if n > 0 {
		c.imagesGenerated.WithLabelValues(provider).Add(float64(n))
	}
}

// CacheHit 记录一次目录缓存命中；实现 providers.CacheObserver。
func (c *Collector) CacheHit(provider string) {
	c.cacheHits.WithLabelValues(provider).Inc()
}

// CacheMiss 记录一次目录缓存未命中；实现 providers.CacheObserver。
func (c *Collector) CacheMiss(provider string) {
	c.cacheMisses.WithLabelValues(provider).Inc()
}
