// Package runway adapts the Runway text-to-image API to the uniform
// image.Adapter contract. Submissions create a task which is polled on
// /v1/tasks/{id} until SUCCEEDED or FAILED.
package runway

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
	defaultModel = "gen4_image"

	// 60 attempts * 2 seconds = 2 minutes maximum wait time.
	pollInterval    = 2 * time.Second
	pollMaxAttempts = 60
)

// Adapter implements image.Adapter for Runway. Auth: bearer token.
type Adapter struct {
	cfg    providers.RunwayConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger

	interval    time.Duration
	maxAttempts int
}

// New creates a Runway adapter.
func New(cfg providers.RunwayConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultRunwayConfig()
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

// GetModelID returns the model from the request; Runway requires one.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		a.logger.Error("model ID not found in payload")
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

// ListModels returns the Runway catalog, cached per (credential, base URL).
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, _ url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(context.Context) ([]string, error) {
		return []string{
			"gen4_image",
			"gen3_image",
			"gen2_image",
		}, nil
	})
}

// ProcessCompletion fails: Runway has no text capability.
func (a *Adapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Runway", "text completion", endpoint)
}

// ProcessEmbeddings fails: Runway has no embedding capability.
func (a *Adapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Runway", "embeddings", endpoint)
}

type runwayRequest struct {
	Model      string `json:"model"`
	PromptText string `json:"prompt_text"`
	Ratio      string `json:"ratio"`
	Seed       int64  `json:"seed,omitempty"`
}

type runwaySubmission struct {
	ID string `json:"id"`
}

type runwayTask struct {
	Status string   `json:"status"`
	Output []string `json:"output"`
	Error  string   `json:"error"`
}

// ProcessImageGeneration submits a text_to_image task and polls it until
// a terminal status.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, _ string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}

	body := runwayRequest{
		Model:      req.ModelOrDefault(defaultModel),
		PromptText: req.Prompt,
		Ratio:      convertSizeToRatio(req.SizeOrDefault()),
	}
	if req.Seed != 0 {
		body.Seed = req.Seed
	}

	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/text_to_image"
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

	var sub runwaySubmission
	if err := json.NewDecoder(resp.Body).Decode(&sub); err != nil {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid submission response: %v", err))
	}
	if sub.ID == "" {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "No task ID returned from Runway API")
	}

	taskURL := fmt.Sprintf("%s/v1/tasks/%s", strings.TrimRight(a.cfg.BaseURL, "/"), sub.ID)
	return providers.RunPollJob(ctx, a.logger, providers.PollJob{
		Provider:    a.cfg.Name,
		ID:          sub.ID,
		Interval:    a.interval,
		MaxAttempts: a.maxAttempts,
		Poll: func(ctx context.Context) (providers.Disposition, error) {
			return a.pollOnce(ctx, taskURL, apiKey, req.Prompt)
		},
	})
}

func (a *Adapter) pollOnce(ctx context.Context, taskURL, apiKey, prompt string) (providers.Disposition, error) {
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, taskURL, nil)
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
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, "Error checking task status: "+errText)
	}

	var task runwayTask
	if err := json.NewDecoder(resp.Body).Decode(&task); err != nil {
		return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, fmt.Sprintf("invalid task response: %v", err))
	}

	switch task.Status {
	case "SUCCEEDED":
		if len(task.Output) == 0 {
			return providers.Disposition{}, image.NewProviderAPI(a.cfg.Name, 500, "Task succeeded but no output found")
		}
		return providers.Disposition{
			State: providers.JobSucceeded,
			Result: &image.GenerateResponse{
				Created: time.Now().Unix(),
				Data: []image.ImageDatum{{
					URL:           task.Output[0],
					RevisedPrompt: prompt,
				}},
			},
		}, nil
	case "FAILED":
		return providers.Disposition{State: providers.JobFailed, FailureReason: task.Error}, nil
	default:
		return providers.Disposition{State: providers.JobPending}, nil
	}
}

func (a *Adapter) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}

// convertSizeToRatio maps a canonical size to a Runway ratio.
// Total: unlisted sizes fall back to square.
func convertSizeToRatio(size string) string {
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
