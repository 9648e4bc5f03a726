// Package ideogram adapts the Ideogram API to the uniform image.Adapter
// contract. Ideogram returns final results in the submission call, so no
// polling is involved.
package ideogram

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
	"go.uber.org/zap"
)

const defaultModel = "ideogram-v3"

// Adapter implements image.Adapter for Ideogram. Auth: Api-Key header.
type Adapter struct {
	cfg    providers.IdeogramConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger
}

// New creates an Ideogram adapter.
func New(cfg providers.IdeogramConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultIdeogramConfig()
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
		cfg:    cfg,
		cache:  cache,
		client: providers.NewHTTPClient(cfg.Timeout),
		logger: logger.With(zap.String("provider", cfg.Name)),
	}
}

func (a *Adapter) ProviderName() string { return a.cfg.Name }

// GetModelID returns the model from the request; Ideogram requires one.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		a.logger.Error("model ID not found in payload")
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

// ListModels returns the Ideogram catalog, cached per (credential, base URL).
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, _ url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(context.Context) ([]string, error) {
		return []string{
			"ideogram-v3",
			"ideogram-v2",
			"ideogram-v1-turbo",
			"ideogram-v1",
		}, nil
	})
}

// ProcessCompletion fails: Ideogram has no text capability.
func (a *Adapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Ideogram", "text completion", endpoint)
}

// ProcessEmbeddings fails: Ideogram has no embedding capability.
func (a *Adapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Ideogram", "embeddings", endpoint)
}

type ideogramRequest struct {
	Prompt         string `json:"prompt"`
	RenderingSpeed string `json:"rendering_speed"`
	Model          string `json:"model,omitempty"`
	AspectRatio    string `json:"aspect_ratio,omitempty"`
	StyleType      string `json:"style_type,omitempty"`
}

type ideogramResponse struct {
	Data []struct {
		URL string `json:"url"`
	} `json:"data"`
}

// ProcessImageGeneration translates the canonical request and performs a
// single round trip against /v1/ideogram-v3/generate.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, _ string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}

	body := ideogramRequest{
		Prompt:         req.Prompt,
		RenderingSpeed: mapQualityToSpeed(req.Quality),
	}
	if model := req.ModelOrDefault(defaultModel); model != defaultModel {
		body.Model = model
	}
	body.AspectRatio = convertSizeToAspectRatio(req.SizeOrDefault())
	if req.Style != "" {
		body.StyleType = mapStyle(req.Style)
	}

	payload, _ := json.Marshal(body)
	endpoint := strings.TrimRight(a.cfg.BaseURL, "/") + "/v1/ideogram-v3/generate"
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(payload))
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	httpReq.Header.Set("Api-Key", apiKey)
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

	var ideoResp ideogramResponse
	if err := json.NewDecoder(resp.Body).Decode(&ideoResp); err != nil {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "invalid response from Ideogram API: "+err.Error())
	}
	if len(ideoResp.Data) == 0 {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "No image data returned from Ideogram API")
	}

	data := make([]image.ImageDatum, 0, len(ideoResp.Data))
	for _, item := range ideoResp.Data {
		data = append(data, image.ImageDatum{URL: item.URL, RevisedPrompt: req.Prompt})
	}
	return &image.GenerateResponse{
		Created: time.Now().Unix(),
		Data:    data,
	}, nil
}

// mapQualityToSpeed maps the canonical quality to an Ideogram rendering
// speed. Total: unknown values fall back to TURBO.
func mapQualityToSpeed(quality string) string {
	switch strings.ToLower(quality) {
	case "hd":
		return "STANDARD"
	default:
		return "TURBO"
	}
}

// convertSizeToAspectRatio maps a canonical size to an Ideogram aspect
// ratio constant; unlisted sizes are omitted from the request.
func convertSizeToAspectRatio(size string) string {
	sizeMap := map[string]string{
		"256x256":   "ASPECT_1_1",
		"512x512":   "ASPECT_1_1",
		"1024x1024": "ASPECT_1_1",
		"1792x1024": "ASPECT_16_9",
		"1024x1792": "ASPECT_9_16",
		"1536x1024": "ASPECT_3_2",
		"1024x1536": "ASPECT_2_3",
	}
	return sizeMap[size]
}

// mapStyle maps the canonical style to Ideogram's style vocabulary.
// Total: unknown values fall back to GENERAL.
func mapStyle(style string) string {
	switch strings.ToLower(style) {
	case "natural":
		return "REALISTIC"
	default:
		return "GENERAL"
	}
}
