package providers

import (
	"io"
	"net/http"
	"time"
)

// NewHTTPClient 返回带连接池的 HTTP 客户端。
// 空闲连接在轮询间隔之间复用，但任何调用都不会跨等待持有连接。
func NewHTTPClient(timeout time.Duration) *http.Client {
	if timeout == 0 {
		timeout = 120 * time.Second
	}
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        32,
			MaxIdleConnsPerHost: 8,
			IdleConnTimeout:     90 * time.Second,
		},
	}
}

// ReadBody 读尽响应体并返回文本，用于错误消息。
func ReadBody(r io.Reader) string {
	data, _ := io.ReadAll(r)
	return string(data)
}
