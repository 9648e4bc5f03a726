// Package openai adapts any OpenAI-compatible API to the uniform
// image.Adapter contract. This is the degenerate synchronous case: the
// final result comes back in the same call that submits the request, so
// no polling is involved. Unlike the image-only backends, completion and
// embedding requests are passed straight through.
package openai

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
	"go.uber.org/zap"
)

// Adapter implements image.Adapter for OpenAI-compatible backends.
// Auth: bearer token.
type Adapter struct {
	cfg    providers.OpenAIConfig
	cache  *providers.ModelCache
	client *http.Client
	logger *zap.Logger
}

// New creates an OpenAI adapter.
func New(cfg providers.OpenAIConfig, cache *providers.ModelCache, logger *zap.Logger) *Adapter {
	def := providers.DefaultOpenAIConfig()
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

// GetModelID returns the model from the request.
func (a *Adapter) GetModelID(req *image.GenerateRequest) (string, error) {
	if req == nil || req.Model == "" {
		return "", image.NewInvalidRequest(a.cfg.Name, "Model ID not found in payload")
	}
	return req.Model, nil
}

type openaiModelList struct {
	Data []struct {
		ID string `json:"id"`
	} `json:"data"`
}

// ListModels fetches the live catalog from GET {base}/models and caches
// it per (credential, base URL). OpenAI is the one backend whose catalog
// is not hardcoded.
func (a *Adapter) ListModels(ctx context.Context, apiKey, baseURL string, query url.Values) ([]string, error) {
	if baseURL == "" {
		baseURL = a.cfg.BaseURL
	}
	return a.cache.GetOrFetch(ctx, a.cfg.Name, apiKey, baseURL, func(ctx context.Context) ([]string, error) {
		endpoint := strings.TrimRight(baseURL, "/") + "/models"
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}
		httpReq, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
		if err != nil {
			return nil, image.WrapTransport(a.cfg.Name, err)
		}
		a.setHeaders(httpReq, apiKey)

		resp, err := a.client.Do(httpReq)
		if err != nil {
			return nil, image.WrapTransport(a.cfg.Name, err)
		}
		defer resp.Body.Close()

		if resp.StatusCode != http.StatusOK {
			errText := providers.ReadBody(resp.Body)
			return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, fmt.Sprintf("%s API error: %s", a.cfg.Name, errText))
		}

		var list openaiModelList
		if err := json.NewDecoder(resp.Body).Decode(&list); err != nil {
			return nil, image.NewProviderAPI(a.cfg.Name, 500, "invalid model list response: "+err.Error())
		}
		models := make([]string, 0, len(list.Data))
		for _, m := range list.Data {
			models = append(models, m.ID)
		}
		return models, nil
	})
}

// ProcessCompletion forwards a completion request unchanged and returns
// the raw upstream JSON. Streaming belongs to the serving layer.
func (a *Adapter) ProcessCompletion(ctx context.Context, endpoint string, payload json.RawMessage, apiKey string) (json.RawMessage, error) {
	return a.passthrough(ctx, endpoint, payload, apiKey)
}

// ProcessEmbeddings forwards an embeddings request unchanged.
func (a *Adapter) ProcessEmbeddings(ctx context.Context, endpoint string, payload json.RawMessage, apiKey string) (json.RawMessage, error) {
	return a.passthrough(ctx, endpoint, payload, apiKey)
}

func (a *Adapter) passthrough(ctx context.Context, endpoint string, payload json.RawMessage, apiKey string) (json.RawMessage, error) {
	target := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	a.setHeaders(httpReq, apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	body := providers.ReadBody(resp.Body)
	if resp.StatusCode != http.StatusOK {
		return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, fmt.Sprintf("%s API error: %s", a.cfg.Name, body))
	}
	return json.RawMessage(body), nil
}

// openaiImageResponse is already the canonical wire shape.
type openaiImageResponse struct {
	Created int64 `json:"created"`
	Data    []struct {
		URL           string `json:"url"`
		B64JSON       string `json:"b64_json"`
		RevisedPrompt string `json:"revised_prompt"`
	} `json:"data"`
}

// ProcessImageGeneration performs a single round trip: the canonical
// request serializes directly to the OpenAI images wire format.
func (a *Adapter) ProcessImageGeneration(ctx context.Context, endpoint string, req *image.GenerateRequest, apiKey string) (*image.GenerateResponse, error) {
	if err := req.Validate(a.cfg.Name); err != nil {
		return nil, err
	}
	if endpoint == "" {
		endpoint = "images/generations"
	}

	payload, _ := json.Marshal(req)
	target := strings.TrimRight(a.cfg.BaseURL, "/") + "/" + strings.TrimLeft(endpoint, "/")
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, target, bytes.NewReader(payload))
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	a.setHeaders(httpReq, apiKey)

	resp, err := a.client.Do(httpReq)
	if err != nil {
		return nil, image.WrapTransport(a.cfg.Name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		errText := providers.ReadBody(resp.Body)
		a.logger.Error("image generation API error", zap.Int("status", resp.StatusCode), zap.String("body", errText))
		return nil, image.NewProviderAPI(a.cfg.Name, resp.StatusCode, fmt.Sprintf("%s API error: %s", a.cfg.Name, errText))
	}

	var oaResp openaiImageResponse
	if err := json.NewDecoder(resp.Body).Decode(&oaResp); err != nil {
		return nil, image.NewProviderAPI(a.cfg.Name, 500, "invalid image response: "+err.Error())
	}

	data := make([]image.ImageDatum, 0, len(oaResp.Data))
	for _, item := range oaResp.Data {
		datum := image.ImageDatum{URL: item.URL, RevisedPrompt: item.RevisedPrompt}
		if datum.URL == "" && item.B64JSON != "" {
			datum.URL = "data:image/png;base64," + item.B64JSON
		}
		if datum.RevisedPrompt == "" {
			datum.RevisedPrompt = req.Prompt
		}
		data = append(data, datum)
	}
	return &image.GenerateResponse{
		Created: oaResp.Created,
		Data:    data,
	}, nil
}

func (a *Adapter) setHeaders(req *http.Request, apiKey string) {
	req.Header.Set("Authorization", "Bearer "+apiKey)
	req.Header.Set("Content-Type", "application/json")
}
