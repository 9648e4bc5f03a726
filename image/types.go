package image

// GenerateRequest 是规范的图像生成请求，与后端无关。
// 构造后不可变；每次调用一个实例，由调用方持有并以指针传入适配器。
type GenerateRequest struct {
	Prompt         string `json:"prompt"`
	NegativePrompt string `json:"negative_prompt,omitempty"`
	Model          string `json:"model,omitempty"`
	N              int    `json:"n,omitempty"`               // Number of images
	Size           string `json:"size,omitempty"`            // 1024x1024, 1792x1024, etc.
	Quality        string `json:"quality,omitempty"`         // standard, hd
	Style          string `json:"style,omitempty"`           // vivid, natural
	ResponseFormat string `json:"response_format,omitempty"` // url, b64_json, png, jpeg, webp
	Seed           int64  `json:"seed,omitempty"`
}

// ModelOrDefault 返回请求中的模型，缺省时回落到给定默认值。
func (r *GenerateRequest) ModelOrDefault(def string) string {
	if r.Model != "" {
		return r.Model
	}
	return def
}

// SizeOrDefault 返回请求中的尺寸，缺省时回落到 "1024x1024"。
func (r *GenerateRequest) SizeOrDefault() string {
	if r.Size != "" {
		return r.Size
	}
	return "1024x1024"
}

// Validate 校验规范请求；prompt 为空时返回 ErrInvalidRequest。
// 适配器必须在任何网络调用之前调用它。
func (r *GenerateRequest) Validate(provider string) error {
	if r == nil || r.Prompt == "" {
		return NewInvalidRequest(provider, "prompt is required for image generation")
	}
	return nil
}

// ImageDatum 代表一张生成的图像。
// URL 要么是远程签名链接，要么是携带 base64 字节的 data URI；
// 两者序列化为同一个字符串字段。
type ImageDatum struct {
	URL           string `json:"url"`
	RevisedPrompt string `json:"revised_prompt,omitempty"`
}

// GenerateResponse 是规范的图像生成响应：
// {created: <unix 秒>, data: [{url, revised_prompt}, ...]}。
// 成功调用构造一次，此后不再修改。
type GenerateResponse struct {
	Created int64        `json:"created"`
	Data    []ImageDatum `json:"data"`
}
