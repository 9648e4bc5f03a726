package providers

import (
	"context"
	"encoding/json"
	"net/url"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/BaSui01/imageflow/image"
)

type stubAdapter struct {
	name string
}

func (s *stubAdapter) ProviderName() string { return s.name }

func (s *stubAdapter) GetModelID(req *image.GenerateRequest) (string, error) {
	return req.Model, nil
}

func (s *stubAdapter) ListModels(context.Context, string, string, url.Values) ([]string, error) {
	return []string{s.name + "-model"}, nil
}

func (s *stubAdapter) ProcessCompletion(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported(s.name, "text completion", endpoint)
}

func (s *stubAdapter) ProcessEmbeddings(_ context.Context, endpoint string, _ json.RawMessage, _ string) (json.RawMessage, error) {
	return nil, image.NewUnsupported(s.name, "embeddings", endpoint)
}

func (s *stubAdapter) ProcessImageGeneration(context.Context, string, *image.GenerateRequest, string) (*image.GenerateResponse, error) {
	return &image.GenerateResponse{}, nil
}

func TestRegistryRegisterAndGet(t *testing.T) {
	reg := NewRegistry()
	reg.Register("luma", &stubAdapter{name: "luma"})

	a, ok := reg.Get("luma")
	require.True(t, ok)
	assert.Equal(t, "luma", a.ProviderName())

	_, ok = reg.Get("unknown")
	assert.False(t, ok)
}

func TestRegistryDefault(t *testing.T) {
	reg := NewRegistry()
	_, err := reg.Default()
	assert.Error(t, err)

	reg.Register("openai", &stubAdapter{name: "openai"})
	assert.Error(t, reg.SetDefault("missing"))
	require.NoError(t, reg.SetDefault("openai"))

	a, err := reg.Default()
	require.NoError(t, err)
	assert.Equal(t, "openai", a.ProviderName())
}

func TestRegistryList(t *testing.T) {
	reg := NewRegistry()
	reg.Register("runway", &stubAdapter{name: "runway"})
	reg.Register("blackforest", &stubAdapter{name: "blackforest"})
	reg.Register("ideogram", &stubAdapter{name: "ideogram"})

	// 排序输出
	assert.Equal(t, []string{"blackforest", "ideogram", "runway"}, reg.List())
}
