package image

import (
	"context"
	"encoding/json"
	"net/url"
)

// Adapter 定义了每个后端必须实现的统一能力接口。
// 实现必须是无状态的：除共享的模型目录缓存与构造时注入的固定配置
// （名称、base URL）外，不得持有跨调用的可变状态。
type Adapter interface {
	// ProviderName 返回常量身份，用于错误消息与日志上下文。
	ProviderName() string

	// GetModelID 从请求中取出模型标识；后端要求而请求缺失时
	// 返回 ErrInvalidRequest。
	GetModelID(req *GenerateRequest) (string, error)

	// ListModels 返回该 (credential, base URL) 下的模型目录。
	// 命中缓存时原样返回且不发起网络请求；baseURL 为空时使用
	// 适配器默认地址。
	ListModels(ctx context.Context, apiKey, baseURL string, query url.Values) ([]string, error)

	// ProcessCompletion 处理文本补全；纯图像后端一律返回
	// ErrUnsupported。
	ProcessCompletion(ctx context.Context, endpoint string, payload json.RawMessage, apiKey string) (json.RawMessage, error)

	// ProcessEmbeddings 处理向量化；纯图像后端一律返回
	// ErrUnsupported。
	ProcessEmbeddings(ctx context.Context, endpoint string, payload json.RawMessage, apiKey string) (json.RawMessage, error)

	// ProcessImageGeneration 是主操作：翻译参数、提交生成任务并
	// （对异步后端）驱动轮询直至终态，返回规范响应。
	ProcessImageGeneration(ctx context.Context, endpoint string, req *GenerateRequest, apiKey string) (*GenerateResponse, error)
}
