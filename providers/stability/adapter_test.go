package stability

import (
	"context"
	"encoding/base64"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
	"pgregory.net/rapid"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
)

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	return New(providers.StabilityConfig{BaseURL: baseURL}, nil, zaptest.NewLogger(t))
}

func TestGenerate_EmptyPromptNoNetwork(t *testing.T) {
	var hits int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, image.ErrInvalidRequest, ie.Code)
	assert.Equal(t, int32(0), atomic.LoadInt32(&hits))
}

func TestGenerate_MultipartTranslation(t *testing.T) {
	imageBytes := []byte{0x89, 0x50, 0x4e, 0x47} // PNG 魔数足矣
	var form map[string]string

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2beta/stable-image/generate/ultra", r.URL.Path)
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		assert.Equal(t, "image/*", r.Header.Get("Accept"))
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data"))

		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = map[string]string{}
		for name, values := range r.MultipartForm.Value {
			form[name] = values[0]
		}
		w.Write(imageBytes)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	resp, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{
		Prompt:         "a glacier",
		NegativePrompt: "people",
		Size:           "1792x1024",
		Style:          "natural",
		Seed:           99,
	}, "test-key")
	require.NoError(t, err)

	assert.Equal(t, "a glacier", form["prompt"])
	assert.Equal(t, "png", form["output_format"]) // url/空 → png 字节
	assert.Equal(t, "16:9", form["aspect_ratio"]) // ultra 模型接受宽高比
	assert.Equal(t, "99", form["seed"])
	assert.Equal(t, "people", form["negative_prompt"])
	assert.Equal(t, "photographic", form["style_preset"]) // natural → photographic

	require.Len(t, resp.Data, 1)
	want := "data:image/png;base64," + base64.StdEncoding.EncodeToString(imageBytes)
	assert.Equal(t, want, resp.Data[0].URL)
	assert.Equal(t, "a glacier", resp.Data[0].RevisedPrompt)
}

// SD3/SDXL 模型不接受 aspect_ratio 字段。
func TestGenerate_NoAspectRatioForSD3(t *testing.T) {
	var form map[string][]string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v2beta/stable-image/generate/sd3", r.URL.Path)
		require.NoError(t, r.ParseMultipartForm(1<<20))
		form = r.MultipartForm.Value
		w.Write([]byte{1})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{
		Prompt: "x",
		Model:  "stable-diffusion-3-medium",
		Size:   "1792x1024",
	}, "key")
	require.NoError(t, err)
	assert.NotContains(t, form, "aspect_ratio")
}

func TestGenerate_APIError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"errors":["invalid prompt"]}`, http.StatusBadRequest)
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, image.ErrProviderAPI, ie.Code)
	assert.Equal(t, http.StatusBadRequest, ie.HTTPStatus)
	assert.Contains(t, ie.Message, "invalid prompt")
}

func TestModelEndpointTable(t *testing.T) {
	testCases := []struct {
		model    string
		endpoint string
	}{
		{"stable-image-ultra", "stable-image/generate/ultra"},
		{"stable-image-core", "stable-image/generate/core"},
		{"stable-diffusion-3-medium", "stable-image/generate/sd3"},
		{"stable-diffusion-3-large", "stable-image/generate/sd3"},
		{"stable-diffusion-v1-6", "stable-image/generate/sd3"},
		{"stable-diffusion-xl-1024-v1-0", "stable-image/generate/sdxl"},
		{"unknown-model", "stable-image/generate/ultra"}, // 未知模型回落 ultra
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.endpoint, modelEndpoint(tc.model), tc.model)
	}
}

func TestMapResponseFormat(t *testing.T) {
	assert.Equal(t, "png", mapResponseFormat(""))
	assert.Equal(t, "png", mapResponseFormat("url"))
	assert.Equal(t, "jpeg", mapResponseFormat("jpeg"))
	assert.Equal(t, "webp", mapResponseFormat("webp"))
}

func TestUnsupportedEndpoints(t *testing.T) {
	a := newTestAdapter(t, "http://unused")

	_, err := a.ProcessCompletion(context.Background(), "chat/completions", nil, "key")
	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Stability AI doesn't support text completion endpoint: chat/completions", ie.Message)
}

func TestListModels(t *testing.T) {
	a := newTestAdapter(t, "http://unused")
	models, err := a.ListModels(context.Background(), "key", "", nil)
	require.NoError(t, err)
	assert.Len(t, models, 6)
	assert.Contains(t, models, "stable-image-ultra")
}

// 属性: 风格映射是全函数，任意输入都落在 Stability 预设词表内。
func TestProperty_StyleTotality(t *testing.T) {
	rapid.Check(t, func(t *rapid.T) {
		style := rapid.String().Draw(t, "style")
		mapped := mapStyle(style)
		assert.Contains(t, []string{"photographic", "enhance"}, mapped)
	})
}
