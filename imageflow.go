// Package imageflow provides a top-level convenience entry point: a
// Service that resolves the right provider adapter for a call, runs the
// operation, and records usage and metrics around it.
//
// Usage:
//
//	import "github.com/BaSui01/imageflow"
//
//	svc := imageflow.NewService(imageflow.NewDefaultRegistry(nil, logger),
//	    imageflow.WithLogger(logger))
//	resp, err := svc.GenerateImage(ctx, "luma", "images/generations", req, apiKey)
package imageflow

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/BaSui01/imageflow/config"
	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/internal/metrics"
	"github.com/BaSui01/imageflow/internal/usage"
	"github.com/BaSui01/imageflow/providers"
	"github.com/BaSui01/imageflow/providers/blackforest"
	"github.com/BaSui01/imageflow/providers/ideogram"
	"github.com/BaSui01/imageflow/providers/luma"
	"github.com/BaSui01/imageflow/providers/openai"
	"github.com/BaSui01/imageflow/providers/runway"
	"github.com/BaSui01/imageflow/providers/stability"
)

// UsageRecorder 持久化每次调用的用量行；实现见 internal/usage。
type UsageRecorder interface {
	Record(ctx context.Context, rec *usage.Record) error
}

// Service 在适配器之上补齐横切关注点：请求标识、用量记录与指标。
// 适配器本身保持无状态，Service 也只持有注入的协作者。
type Service struct {
	registry *providers.Registry
	usage    UsageRecorder
	metrics  *metrics.Collector
	logger   *zap.Logger
}

// Option configures the Service created by [NewService].
type Option func(*Service)

// WithLogger sets a custom zap logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) { s.logger = logger }
}

// WithUsageRecorder enables per-call usage persistence.
func WithUsageRecorder(r UsageRecorder) Option {
	return func(s *Service) { s.usage = r }
}

// WithMetrics enables prometheus metrics collection.
func WithMetrics(c *metrics.Collector) Option {
	return func(s *Service) { s.metrics = c }
}

// NewService creates a Service over the given adapter registry.
func NewService(registry *providers.Registry, opts ...Option) *Service {
	s := &Service{
		registry: registry,
		logger:   zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GenerateImage resolves the adapter registered under providerName and
// runs the canonical image generation operation against it.
func (s *Service) GenerateImage(ctx context.Context, providerName, endpoint string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	adapter, ok := s.registry.Get(providerName)
	if !ok {
		return nil, image.NewInvalidRequest(providerName, fmt.Sprintf("unknown provider: %s", providerName))
	}

	requestID := uuid.NewString()
	start := time.Now()
	resp, err := adapter.ProcessImageGeneration(ctx, endpoint, req, apiKey)
	elapsed := time.Since(start)

	status := "ok"
	if err != nil {
		status = errStatus(err)
	}

	images := 0
	if resp != nil {
		images = len(resp.Data)
	}

	if s.metrics != nil {
		s.metrics.RecordRequest(providerName, endpoint, status, elapsed)
		s.metrics.RecordImages(providerName, images)
	}
	model := ""
	if req != nil {
		model = req.Model
	}
	if s.usage != nil {
		rec := &usage.Record{
			RequestID: requestID,
			Provider:  providerName,
			Model:     model,
			Endpoint:  endpoint,
			Images:    images,
			LatencyMs: elapsed.Milliseconds(),
			Status:    status,
		}
		if uerr := s.usage.Record(ctx, rec); uerr != nil {
			s.logger.Warn("usage record failed", zap.String("request_id", requestID), zap.Error(uerr))
		}
	}

	if err != nil {
		s.logger.Error("image generation failed",
			zap.String("request_id", requestID),
			zap.String("provider", providerName),
			zap.String("status", status),
			zap.Duration("elapsed", elapsed),
			zap.Error(err),
		)
		return nil, err
	}

	s.logger.Info("image generation succeeded",
		zap.String("request_id", requestID),
		zap.String("provider", providerName),
		zap.Int("images", images),
		zap.Duration("elapsed", elapsed),
	)
	return resp, nil
}

// ListModels resolves the adapter and returns its model catalog.
func (s *Service) ListModels(ctx context.Context, providerName, apiKey, baseURL string) ([]string, error) {
	adapter, ok := s.registry.Get(providerName)
	if !ok {
		return nil, image.NewInvalidRequest(providerName, fmt.Sprintf("unknown provider: %s", providerName))
	}
	return adapter.ListModels(ctx, apiKey, baseURL, nil)
}

// NewDefaultRegistry constructs all six adapters with default settings
// against the given shared model cache (nil for a fresh in-memory one).
func NewDefaultRegistry(cache *providers.ModelCache, logger *zap.Logger) *providers.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = providers.NewModelCache(nil, logger)
	}

	reg := providers.NewRegistry()
	reg.Register("blackforest", blackforest.New(providers.BlackForestConfig{}, cache, logger))
	reg.Register("ideogram", ideogram.New(providers.IdeogramConfig{}, cache, logger))
	reg.Register("luma", luma.New(providers.LumaConfig{}, cache, logger))
	reg.Register("runway", runway.New(providers.RunwayConfig{}, cache, logger))
	reg.Register("stability", stability.New(providers.StabilityConfig{}, cache, logger))
	reg.Register("openai", openai.New(providers.OpenAIConfig{}, cache, logger))
	return reg
}

// NewRegistryFromConfig constructs all six adapters with base URLs and
// timeouts taken from the loaded configuration. Credentials stay
// per-call; the config only shapes where requests go.
func NewRegistryFromConfig(cfg *config.Config, cache *providers.ModelCache, logger *zap.Logger) *providers.Registry {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = providers.NewModelCache(nil, logger)
	}

	reg := providers.NewRegistry()
	reg.Register("blackforest", blackforest.New(providers.BlackForestConfig{
		BaseURL: cfg.Providers.BlackForest.BaseURL,
		Timeout: cfg.Providers.BlackForest.Timeout,
	}, cache, logger))
	reg.Register("ideogram", ideogram.New(providers.IdeogramConfig{
		BaseURL: cfg.Providers.Ideogram.BaseURL,
		Timeout: cfg.Providers.Ideogram.Timeout,
	}, cache, logger))
	reg.Register("luma", luma.New(providers.LumaConfig{
		BaseURL: cfg.Providers.Luma.BaseURL,
		Timeout: cfg.Providers.Luma.Timeout,
	}, cache, logger))
	reg.Register("runway", runway.New(providers.RunwayConfig{
		BaseURL: cfg.Providers.Runway.BaseURL,
		Timeout: cfg.Providers.Runway.Timeout,
	}, cache, logger))
	reg.Register("stability", stability.New(providers.StabilityConfig{
		BaseURL: cfg.Providers.Stability.BaseURL,
		Timeout: cfg.Providers.Stability.Timeout,
	}, cache, logger))
	reg.Register("openai", openai.New(providers.OpenAIConfig{
		BaseURL: cfg.Providers.OpenAI.BaseURL,
		Timeout: cfg.Providers.OpenAI.Timeout,
	}, cache, logger))
	return reg
}

// errStatus 把错误折叠成指标/用量里的状态标签。
func errStatus(err error) string {
	var ie *image.Error
	if errors.As(err, &ie) {
		return string(ie.Code)
	}
	return "error"
}
