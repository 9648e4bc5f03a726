// Package blackforest adapts the Black Forest Labs (Flux) API to the
// uniform image.Adapter contract.
// API Docs: https://docs.bfl.ai/quick_start/generating_images
package blackforest

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
	"go.uber.org/zap"
)

const (
	defaultModel = "flux-pro-1.1"

	// Flux image jobs usually settle in seconds, so the polling budget
	// is short: 30 attempts * 2s = 1 minute maximum wait time.
	pollInterval    = 2 * time.Second
	pollMaxAttempts = 30
)

// Adapter implements image.Adapter for Black Forest Labs.
// Auth: x-key header. Submission returns a polling URL that must be
// used as-is for status checks.
type Adapter struct {
	cfg    providers.BlackForestConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger

	// fixed at construction; tests shrink the interval
	interval    time.Duration
	maxAttempts int
}

// New creates a Black Forest Labs adapter.
func New(cfg providers.BlackForestConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultBlackForestConfig()
	if cfg.Name == "" {
		cfg.Name = def.Name
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = def.BaseURL
	}
	if cfg.Timeout == 0 {
		cfg.Timeout = def.Timeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if cache == nil {
		cache = providers.NewModelCache(nil, logger)
	}
	return &Adapter{
		cfg:         cfg,
		cache:       cache,
		client:      providers.NewHTTPClient(cfg.Timeout),
		logger:      logger.With(zap.String("provider", cfg.Name)),
		interval:    pollInterval,
		maxAttempts: pollMaxAttempts,
	}
}

func (a *Adapter) ProviderName() string { return a.cfg.Name }

// GetModelID returns the model from the request; Black Forest requires one.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		a.logger.Error("model ID not found in payload")
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

// ListModels returns the Black Forest Labs catalog. The catalog is fixed
// rather than fetched live; results are cached per (credential, base URL).
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, _ url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(context.Context) ([]string, error) {
		return []string{
			"flux-pro-1.1",
			"flux-pro",
			"flux-dev",
			"flux-schnell",
		}, nil
	})
}

// ProcessCompletion fails: Black Forest Labs has no text capability.
func (a *Adapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Black Forest Labs", "text completion", endpoint)
}

// ProcessEmbeddings fails: Black Forest Labs has no embedding capability.
func (a *Adapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Black Forest Labs", "embeddings", endpoint)
}

type bflRequest struct {
	Prompt           string `json:"prompt"`
	Width            int    `json:"width"`
	Height           int    `json:"height"`
	PromptUpsampling bool   `json:"prompt_upsampling"`
	Seed             int64  `json:"seed"`
	SafetyTolerance  int    `json:"safety_tolerance"`
	OutputFormat     string `json:"output_format"` // 'jpeg' or 'png'
}

type bflSubmission struct {
	ID         string `json:"id"`
	PollingURL string `json:"polling_url"`
}

type bflStatus struct {
	Status string `json:"status"`
	Result struct {
		Sample string `json:"sample"` // signed URL, valid 10 min
	} `json:"result"`
	Error string `json:"error"`
}

// ProcessImageGeneration submits a generation task and polls the returned
// polling URL until the job reaches a terminal state.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, _ string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}
	model := req.ModelOrDefault(defaultModel)

	width, height := parseSize(req.SizeOrDefault())
	seed := req.Seed
	if seed == 0 {
		seed = 42
	}
	body := bflRequest{
		Prompt:           req.Prompt,
		Width:            width,
		Height:           height,
		PromptUpsampling: false,
		Seed:             seed,
		SafetyTolerance:  2,
		OutputFormat:     "jpeg",
	}

	payload, _ := json.Marshal(body)
	endpoint := fmt.Sprintf("%s/v1/%s", strings.TrimRight(a.cfg.BaseURL, "/"), model)
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	httpReq.Header.Set("x-key", apiKey)
	httpReq.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText := providers.ReadBody(resp.Body)
		a.logger.Error("image generation API error", zap.Int("status", resp.StatusCode), zap.String("body", errText))
		return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, errText)
	}

	var sub bflSubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid submission response: %v", err))
	}
	if sub.PollingURL == "" {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "No polling URL returned from Black Forest Labs API")
	}

	return providers.RunPollJob(ctx, a.logger, providers.PollJob{
		Provider:    a.cfg.Name,
		ID:          sub.ID,
		Interval:    a.interval,
		MaxAttempts: a.maxAttempts,
		Poll: func(ctx context.Context) (providers.Disposition, error) {
			return a.pollOnce(ctx, sub.PollingURL, req.Prompt)
		},
	})
}

func (a *Adapter) pollOnce(ctx context.Context, pollingURL, prompt string) (providers.Disposition, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, pollingURL, nil)
	if err != nil {
		return providers.Disposition{}, image.WrapTransport(a.cfg.Name, err)
	}

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.Disposition{}, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText := providers.ReadBody(resp.Body)
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, "Error polling for results: "+errText)
	}

	var status bflStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid polling response: %v", err))
	}

	switch status.Status {
	case "Ready":
		if status.Result.Sample == "" {
			return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, "Generation completed but no image URL found")
		}
		return providers.Disposition{
			State: providers.JobSucceeded,
			Result: &image.GenerateResponse{
				Created: time.Now().Unix(),
				Data: []image.ImageDatum{{
					URL:           status.Result.Sample,
					RevisedPrompt: prompt,
				}},
			},
		}, nil
	case "Error":
		return providers.Disposition{State: providers.JobFailed, FailureReason: status.Error}, nil
	default:
		return providers.Disposition{State: providers.JobPending}, nil
	}
}

// parseSize parses an OpenAI-style size string ("1024x1024") into width
// and height, falling back to 1024x1024 on anything unparseable.
func parseSize(size string) (int, int) {
	parts := strings.Split(size, "x")
	if len(parts) != 2 {
		return 1024, 1024
	}
	var width, height int
	if _, err := fmt.Sscanf(size, "%dx%d", &width, &height); err != nil || width <= 0 || height <= 0 {
		return 1024, 1024
	}
	return width, height
}
