package image

import (
	"fmt"
	"net/http"
)

// 统一的图像网关错误码，用于对齐 HTTP 状态与调用方的重试/路由策略。
type ErrorCode string

const (
	ErrInvalidRequest  ErrorCode = "IMG_INVALID_REQUEST"       // 参数/格式错误，缺 prompt 或必填 model
	ErrUnsupported     ErrorCode = "IMG_UNSUPPORTED_OPERATION" // 后端没有该能力（completion/embeddings）
	ErrProviderAPI     ErrorCode = "IMG_PROVIDER_API_ERROR"    // 后端响应但报失败（HTTP 错误、显式失败态、残缺成功载荷）
	ErrProviderTimeout ErrorCode = "IMG_PROVIDER_TIMEOUT"      // 轮询达到次数上限仍未到终态
	ErrCancelled       ErrorCode = "IMG_CANCELLED"             // 调用方取消
)

// Error 携带后端名、后端上报（或合成）的数字码与可读消息。
type Error struct {
	Code       ErrorCode `json:"code"`
	Message    string    `json:"message"`
	HTTPStatus int       `json:"http_status"`
	Retryable  bool      `json:"retryable"`
	Provider   string    `json:"provider,omitempty"`
}

func (e *Error) Error() string { return e.Message }

// NewInvalidRequest 构造调用方请求错误；不会被重试，立即上抛。
func NewInvalidRequest(provider, msg string) *Error {
	return &Error{
		Code:       ErrInvalidRequest,
		Message:    msg,
		HTTPStatus: http.StatusBadRequest,
		Provider:   provider,
	}
}

// NewUnsupported 构造能力缺失错误，携带端点名。
// 调用方应将其视为能力协商失败并改走其他后端，而不是重试。
func NewUnsupported(provider, capability, endpoint string) *Error {
	return &Error{
		Code:       ErrUnsupported,
		Message:    fmt.Sprintf("%s doesn't support %s endpoint: %s", provider, capability, endpoint),
		HTTPStatus: http.StatusNotImplemented,
		Provider:   provider,
	}
}

// NewProviderAPI 构造后端失败错误（后端名 + 数字码 + 消息）。
func NewProviderAPI(provider string, code int, msg string) *Error {
	return &Error{
		Code:       ErrProviderAPI,
		Message:    msg,
		HTTPStatus: code,
		Provider:   provider,
	}
}

// NewProviderTimeout 是 408 特化：轮询次数耗尽仍未到终态。
func NewProviderTimeout(provider string) *Error {
	return &Error{
		Code:       ErrProviderTimeout,
		Message:    "Image generation timed out. Maximum polling attempts reached.",
		HTTPStatus: http.StatusRequestTimeout,
		Retryable:  true,
		Provider:   provider,
	}
}

// NewCancelled 构造取消错误，保留底层 context 错误文本。
func NewCancelled(provider string, cause error) *Error {
	msg := "image generation cancelled"
	if cause != nil {
		msg = fmt.Sprintf("image generation cancelled: %v", cause)
	}
	return &Error{
		Code:       ErrCancelled,
		Message:    msg,
		HTTPStatus: 499, // client closed request
		Provider:   provider,
	}
}

// WrapTransport 将网络层失败包装为后端错误，保留底层原因用于诊断。
func WrapTransport(provider string, cause error) *Error {
	return &Error{
		Code:       ErrProviderAPI,
		Message:    fmt.Sprintf("%s request failed: %v", provider, cause),
		HTTPStatus: http.StatusBadGateway,
		Retryable:  true,
		Provider:   provider,
	}
}
