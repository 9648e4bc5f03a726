package luma

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/providers"
)

func newTestAdapter(t *testing.T, baseURL string) *Adapter {
	a := New(providers.LumaConfig{BaseURL: baseURL}, nil, zaptest.NewLogger(t))
	a.interval = time.Millisecond
	return a
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

func TestGenerate_SubmitThenPollSuccess(t *testing.T) {
	var submitted lumaRequest
	var polls int32

	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/dream-machine/v1/generations/image", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&submitted))
		w.WriteHeader(http.StatusCreated) // Luma 提交可返回 201
		json.NewEncoder(w).Encode(map[string]string{"id": "gen-1"})
	})
	mux.HandleFunc("/dream-machine/v1/generations/gen-1", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer test-key", r.Header.Get("Authorization"))
		n := atomic.AddInt32(&polls, 1)
		if n < 2 {
			json.NewEncoder(w).Encode(map[string]string{"state": "dreaming"})
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"state":  "completed",
			"assets": map[string]string{"image": "https://cdn.luma.ai/img.png"},
		})
	})

	a := newTestAdapter(t, server.URL)
	resp, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{
		Prompt: "a lighthouse",
		Size:   "1920x1080",
	}, "test-key")
	require.NoError(t, err)

	assert.Equal(t, "a lighthouse", submitted.Prompt)
	assert.Equal(t, "photon-1", submitted.Model) // 默认模型
	assert.Equal(t, "16:9", submitted.AspectRatio)

	require.Len(t, resp.Data, 1)
	assert.Equal(t, "https://cdn.luma.ai/img.png", resp.Data[0].URL)
	assert.Equal(t, "a lighthouse", resp.Data[0].RevisedPrompt)
	assert.Equal(t, int32(2), atomic.LoadInt32(&polls))
}

func TestGenerate_MissingGenerationID(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{})
	}))
	defer server.Close()

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "No generation ID returned from Luma AI API", ie.Message)
}

func TestGenerate_FailedState(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/dream-machine/v1/generations/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "gen-2"})
	})
	mux.HandleFunc("/dream-machine/v1/generations/gen-2", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{
			"state":          "failed",
			"failure_reason": "prompt rejected",
		})
	})

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Generation failed: prompt rejected", ie.Message)
}

// 完成但缺资产 URL 归为后端错误。
func TestGenerate_CompletedWithoutImage(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/dream-machine/v1/generations/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "gen-3"})
	})
	mux.HandleFunc("/dream-machine/v1/generations/gen-3", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"state": "completed"})
	})

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, "Generation completed but no image URL found", ie.Message)
}

func TestGenerate_PollHTTPError(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	mux.HandleFunc("/dream-machine/v1/generations/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "gen-4"})
	})
	mux.HandleFunc("/dream-machine/v1/generations/gen-4", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "gateway exploded", http.StatusBadGateway)
	})

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(context.Background(), "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, http.StatusBadGateway, ie.HTTPStatus)
	assert.Contains(t, ie.Message, "Error checking generation status:")
}

// 取消立即中断轮询循环。
func TestGenerate_Cancellation(t *testing.T) {
	mux := http.NewServeMux()
	server := httptest.NewServer(mux)
	defer server.Close()

	ctx, cancel := context.WithCancel(context.Background())

	mux.HandleFunc("/dream-machine/v1/generations/image", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]string{"id": "gen-5"})
	})
	mux.HandleFunc("/dream-machine/v1/generations/gen-5", func(w http.ResponseWriter, r *http.Request) {
		cancel()
		json.NewEncoder(w).Encode(map[string]string{"state": "dreaming"})
	})

	a := newTestAdapter(t, server.URL)
	_, err := a.ProcessImageGeneration(ctx, "", &image.GenerateRequest{Prompt: "x"}, "key")

	var ie *image.Error
	require.ErrorAs(t, err, &ie)
	assert.Equal(t, image.ErrCancelled, ie.Code)
}

func TestListModels(t *testing.T) {
	a := newTestAdapter(t, "http://unused")
	models, err := a.ListModels(context.Background(), "key", "", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"photon-1", "photon-flash-1"}, models)
}

func TestSizeToAspectRatioTable(t *testing.T) {
	testCases := []struct {
		size  string
		ratio string
	}{
		{"1024x1024", "1:1"},
		{"1792x1024", "16:9"},
		{"1024x1792", "9:16"},
		{"1536x1024", "3:2"},
		{"1024x1536", "2:3"},
		{"1920x1080", "16:9"},
		{"640x480", "1:1"}, // 未列出的尺寸回落方形
	}
	for _, tc := range testCases {
		assert.Equal(t, tc.ratio, convertSizeToAspectRatio(tc.size), tc.size)
	}
}
