// Package luma adapts the Luma AI Dream Machine API to the uniform
// image.Adapter contract. Generations are asynchronous: a submission
// returns a generation id which is polled until a terminal state.
package luma

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
	defaultModel = "photon-1"

	// Dream Machine jobs are slow relative to pure diffusion backends:
	// 60 attempts * 5 seconds = 5 minutes maximum wait time.
	pollInterval    = 5 * time.Second
	pollMaxAttempts = 60
)

// Adapter implements image.Adapter for Luma AI. Auth: bearer token.
type Adapter struct {
	cfg    providers.LumaConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger

	interval    time.Duration
	maxAttempts int
}

// New creates a Luma AI adapter.
func New(cfg providers.LumaConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultLumaConfig()
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

// GetModelID returns the model from the request; Luma requires one.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		a.logger.Error("model ID not found in payload")
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

// ListModels returns the Luma AI catalog, cached per (credential, base URL).
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, _ url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(context.Context) ([]string, error) {
		return []string{
			"photon-1",
			"photon-flash-1",
		}, nil
	})
}

// ProcessCompletion fails: Luma AI has no text capability.
func (a *Adapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Luma AI", "text completion", endpoint)
}

// ProcessEmbeddings fails: Luma AI has no embedding capability.
func (a *Adapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Luma AI", "embeddings", endpoint)
}

type lumaRequest struct {
	Prompt      string `json:"prompt"`
	Model       string `json:"model"`
	AspectRatio string `json:"aspect_ratio"`
}

type lumaSubmission struct {
	ID string `json:"id"`
}

type lumaStatus struct {
	State  string `json:"state"`
	Assets struct {
		Image string `json:"image"`
	} `json:"assets"`
	FailureReason string `json:"failure_reason"`
}

// ProcessImageGeneration submits a generation and polls
// /dream-machine/v1/generations/{id} until the state is terminal.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, _ string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}

	body := lumaRequest{
		Prompt:      req.Prompt,
		Model:       req.ModelOrDefault(defaultModel),
		AspectRatio: convertSizeToAspectRatio(req.SizeOrDefault()),
	}

	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/dream-machine/v1/generations/image"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	a.setHeaders(httpReq, apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK && resp.StatusCode != http.StatusCreated {
		errText := providers.ReadBody(resp.Body)
		a.logger.Error("image generation API error", zap.Int("status", resp.StatusCode), zap.String("body", errText))
		return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, errText)
	}

	var sub lumaSubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid submission response: %v", err))
	}
	if sub.ID == "" {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "No generation ID returned from Luma AI API")
	}

	statusURL := fmt.Sprintf("%s/dream-machine/v1/generations/%s", strings.TrimRight(a.cfg.BaseURL, "/"), sub.ID)
	return providers.RunPollJob(ctx, a.logger, providers.PollJob{
		Provider:    a.cfg.Name,
		ID:          sub.ID,
		Interval:    a.interval,
		MaxAttempts: a.maxAttempts,
		Poll: func(ctx context.Context) (providers.Disposition, error) {
			return a.pollOnce(ctx, statusURL, apiKey, req.Prompt)
		},
	})
}

func (a *Adapter) pollOnce(ctx context.Context, statusURL, apiKey, prompt string) (providers.Disposition, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, statusURL, nil)
	if err != nil {
		return providers.Disposition{}, image.WrapTransport(a.cfg.Name, err)
	}
	a.setHeaders(httpReq, apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return providers.Disposition{}, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText := providers.ReadBody(resp.Body)
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, "Error checking generation status: "+errText)
	}

	var status lumaStatus
	if err := json.NewDecoder(resp.Body).Decode(&status); err != nil {
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid status response: %v", err))
	}

	switch status.State {
	case "completed":
		if status.Assets.Image == "" {
			return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, "Generation completed but no image URL found")
		}
		return providers.Disposition{
			State: providers.JobSucceeded,
			Result: &image.GenerateResponse{
				Created: time.Now().Unix(),
				Data: []image.ImageDatum{{
					URL:           status.Assets.Image,
					RevisedPrompt: prompt,
				}},
			},
		}, nil
	case "failed":
		return providers.Disposition{State: providers.JobFailed, FailureReason: status.FailureReason}, nil
	default:
		return providers.Disposition{State: providers.JobPending}, nil
	}
}

func (a *Adapter) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertSizeToAspectRatio maps a canonical size to a Luma aspect ratio.
// Total: unlisted sizes fall back to square.
func convertSizeToAspectRatio(size string) string {
	sizeMap := map[string]string{
		"256x256":   "1:1",
		"512x512":   "1:1",
		"1024x1024": "1:1",
		"1792x1024": "16:9",
		"1024x1792": "9:16",
		"1536x1024": "3:2",
		"1024x1536": "2:3",
		"1920x1080": "16:9",
	}
	if ratio, ok := sizeMap[size]; ok {
		return ratio
	}
	return "1:1"
}
