package providers

import "time"

// BlackForestConfig Black Forest Labs (Flux) 适配器配置
type BlackForestConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// IdeogramConfig Ideogram 适配器配置
type IdeogramConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// LumaConfig Luma AI 适配器配置
type LumaConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// RunwayConfig Runway 适配器配置
type RunwayConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// StabilityConfig Stability AI 适配器配置
type StabilityConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// OpenAIConfig OpenAI 兼容（同步）适配器配置
type OpenAIConfig struct {
	Name    string        `json:"name,omitempty" yaml:"name,omitempty"`
	BaseURL string        `json:"base_url" yaml:"base_url"`
	Timeout time.Duration `json:"timeout,omitempty" yaml:"timeout,omitempty"`
}

// DefaultBlackForestConfig 返回默认 Black Forest Labs 配置。
func DefaultBlackForestConfig() BlackForestConfig {
	return BlackForestConfig{
		Name:    "blackforest",
		BaseURL: "https://api.bfl.ml",
		Timeout: 120 * time.Second,
	}
}

// DefaultIdeogramConfig 返回默认 Ideogram 配置。
func DefaultIdeogramConfig() IdeogramConfig {
	return IdeogramConfig{
		Name:    "ideogram",
		BaseURL: "https://api.ideogram.ai",
		Timeout: 120 * time.Second,
	}
}

// DefaultLumaConfig 返回默认 Luma AI 配置。
func DefaultLumaConfig() LumaConfig {
	return LumaConfig{
		Name:    "luma",
		BaseURL: "https://api.lumalabs.ai",
		Timeout: 120 * time.Second,
	}
}

// DefaultRunwayConfig 返回默认 Runway 配置。
func DefaultRunwayConfig() RunwayConfig {
	return RunwayConfig{
		Name:    "runway",
		BaseURL: "https://api.dev.runwayml.com",
		Timeout: 120 * time.Second,
	}
}

// DefaultStabilityConfig 返回默认 Stability AI 配置。
func DefaultStabilityConfig() StabilityConfig {
	return StabilityConfig{
		Name:    "stability",
		BaseURL: "https://api.stability.ai",
		Timeout: 30 * time.Second, // Stability 同步返回二进制，无需长超时
	}
}

// DefaultOpenAIConfig 返回默认 OpenAI 配置。
func DefaultOpenAIConfig() OpenAIConfig {
	return OpenAIConfig{
		Name:    "openai",
		BaseURL: "https://api.openai.com/v1",
		Timeout: 120 * time.Second,
	}
}
