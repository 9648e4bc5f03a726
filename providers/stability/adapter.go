// Package stability adapts the Stability AI v2beta API to the uniform
// image.Adapter contract. Stability is synchronous and returns the image
// bytes directly; the adapter base64-encodes them into a data URI so the
// canonical url field stays a string either way.
package stability

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
	"go.uber.org/zap"
)

const defaultModel = "stable-image-ultra"

// Adapter implements image.Adapter for Stability AI. Auth: bearer token;
// requests are multipart/form-data per the v2beta documentation.
type Adapter struct {
	cfg    providers.StabilityConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger
}

// New creates a Stability AI adapter.
func New(cfg providers.StabilityConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultStabilityConfig()
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

// GetModelID returns the model from the request; Stability requires one.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		a.logger.Error("model ID not found in payload")
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

// ListModels returns the Stability AI catalog, cached per (credential, base URL).
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, _ url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(context.Context) ([]string, error) {
		return []string{
			"stable-image-ultra",
			"stable-image-core",
			"stable-diffusion-v1-6",
			"stable-diffusion-xl-1024-v1-0",
			"stable-diffusion-3-medium",
			"stable-diffusion-3-large",
		}, nil
	})
}

// ProcessCompletion fails: Stability AI has no text capability.
func (a *Adapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Stability AI", "text completion", endpoint)
}

// ProcessEmbeddings fails: Stability AI has no embedding capability.
func (a *Adapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported("Stability AI", "embeddings", endpoint)
}

// ProcessImageGeneration performs one multipart round trip and wraps the
// returned bytes as a base64 data URI.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, _ string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}
	model := req.ModelOrDefault(defaultModel)
	outputFormat := mapResponseFormat(req.ResponseFormat)

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)

	// the docs require a files section even when no image is uploaded
	_, _ = writer.CreateFormField("none")

	fields := map[string]string{
		"prompt":        req.Prompt,
		"output_format": outputFormat,
	}
	// stable-image-ultra and stable-image-core accept aspect_ratio
	if strings.Contains(strings.ToLower(model), "ultra") || strings.Contains(strings.ToLower(model), "core") {
		if ratio := convertSizeToAspectRatio(req.SizeOrDefault()); ratio != "" {
			fields["aspect_ratio"] = ratio
		}
	}
	if req.Seed != 0 {
		fields["seed"] = strconv.FormatInt(req.Seed, 10)
	}
	if req.NegativePrompt != "" {
		fields["negative_prompt"] = req.NegativePrompt
	}
	if req.Style != "" {
		fields["style_preset"] = mapStyle(req.Style)
	}
	for name, value := range fields {
		if err := writer.WriteField(name, value); err != nil {
			return nil, image.WrapTransport(a.cfg.Name, err)
		}
	}
	if err := writer.Close(); err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}

	endpoint := fmt.Sprintf("%s/v2beta/%s", strings.TrimRight(a.cfg.BaseURL, "/"), modelEndpoint(model))
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, &buf)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	httpReq.Header.Set("Authorization", "Bearer "+apiKey)
	httpReq.Header.Set("Accept", "image/*")
	httpReq.Header.Set("Content-Type", writer.FormDataContentType())

	resp, err := a.client.Do(httpReq)
	if err != nil {
		a.logger.Error("network error", zap.Error(err))
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText := providers.ReadBody(resp.Body)
		a.logger.Error("image generation API error", zap.Int("status", resp.StatusCode), zap.String("body", errText))
		return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, errText)
	}

	imageData, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}

	dataURI := fmt.Sprintf("data:image/%s;base64,%s", outputFormat, base64.StdEncoding.EncodeToString(imageData))
	return &image.GenerateResponse{
		Created: time.Now().Unix(),
		Data: []image.ImageDatum{{
			URL:           dataURI,
			RevisedPrompt: req.Prompt,
		}},
	}, nil
}

// modelEndpoint maps a model id to its v2beta generation path.
// Total: unknown models fall back to the ultra endpoint.
func modelEndpoint(model string) string {
	endpoints := map[string]string{
		"stable-image-ultra":            "stable-image/generate/ultra",
		"stable-image-core":             "stable-image/generate/core",
		"stable-diffusion-v1-6":         "stable-image/generate/sd3",
		"stable-diffusion-xl-1024-v1-0": "stable-image/generate/sdxl",
		"stable-diffusion-3-medium":     "stable-image/generate/sd3",
		"stable-diffusion-3-large":      "stable-image/generate/sd3",
	}
	if endpoint, ok := endpoints[model]; ok {
		return endpoint
	}
	return "stable-image/generate/ultra"
}

// mapResponseFormat maps the canonical response_format to a Stability
// output format: "url" means "give me bytes as png", anything else is
// passed through as the requested encoding.
func mapResponseFormat(format string) string {
	if format == "" || format == "url" {
		return "png"
	}
	return format
}

// convertSizeToAspectRatio maps a canonical size to a Stability aspect
// ratio; unlisted sizes are omitted from the request.
func convertSizeToAspectRatio(size string) string {
	sizeMap := map[string]string{
		"256x256":   "1:1",
		"512x512":   "1:1",
		"1024x1024": "1:1",
		"1792x1024": "16:9",
		"1024x1792": "9:16",
		"1536x1024": "3:2",
		"1024x1536": "2:3",
	}
	return sizeMap[size]
}

// mapStyle maps the canonical style to a Stability style preset.
// Total: unknown values fall back to enhance.
func mapStyle(style string) string {
	switch strings.ToLower(style) {
	case "natural":
		return "photographic"
	default:
		return "enhance"
	}
}
