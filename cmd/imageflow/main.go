// =============================================================================
// ImageFlow 主入口
// =============================================================================
// 图像生成网关命令行，包含生成、模型目录与版本子命令
//
// 使用方法:
//
//	imageflow generate --provider luma "a lighthouse"   # 提交生成并等待结果
//	imageflow models --provider stability               # 列出可用模型
//	imageflow version                                   # 显示版本信息
// =============================================================================
package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/glebarez/sqlite"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"gorm.io/gorm"

	"github.com/BaSui01/imageflow"
	"github.com/BaSui01/imageflow/config"
	"github.com/BaSui01/imageflow/image"
	"github.com/BaSui01/imageflow/internal/cache"
	"github.com/BaSui01/imageflow/internal/usage"
	"github.com/BaSui01/imageflow/providers"
)

// =============================================================================
// 📦 版本信息（构建时注入）
// =============================================================================

var (
	Version   = "dev"
	BuildTime = "unknown"
	GitCommit = "unknown"
)

// =============================================================================
// 🎯 主函数
// =============================================================================

func main() {
	if len(os.Args) < 2 {
		printUsage()
		os.Exit(1)
	}

	switch os.Args[1] {
	case "generate":
		runGenerate(os.Args[2:])
	case "models":
		runModels(os.Args[2:])
	case "version":
		printVersion()
	case "help", "-h", "--help":
		printUsage()
	default:
		fmt.Fprintf(os.Stderr, "Unknown command: %s\n", os.Args[1])
		printUsage()
		os.Exit(1)
	}
}

// =============================================================================
// 🖼️ generate 命令
// =============================================================================

func runGenerate(args []string) {
	fs := flag.NewFlagSet("generate", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	provider := fs.String("provider", "openai", "Backend provider name")
	model := fs.String("model", "", "Model ID (backend default when empty)")
	size := fs.String("size", "", "Image size, e.g. 1024x1024 or 1792x1024")
	quality := fs.String("quality", "", "Quality: standard or hd")
	style := fs.String("style", "", "Style: vivid or natural")
	fs.Parse(args)

	if fs.NArg() < 1 {
		fmt.Fprintln(os.Stderr, "generate: prompt argument required")
		os.Exit(1)
	}
	prompt := strings.Join(fs.Args(), " ")

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	apiKey := providerAPIKey(cfg, *provider)
	if apiKey == "" {
		fmt.Fprintf(os.Stderr, "No API key configured for provider %q\n", *provider)
		os.Exit(1)
	}

	svc := buildService(cfg, logger)

	// Ctrl-C 取消正在进行的轮询
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	resp, err := svc.GenerateImage(ctx, *provider, "images/generations", &image.GenerateRequest{
		Prompt:  prompt,
		Model:   *model,
		Size:    *size,
		Quality: *quality,
		Style:   *style,
	}, apiKey)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Generation failed: %v\n", err)
		os.Exit(1)
	}

	for i, datum := range resp.Data {
		fmt.Printf("[%d] %s\n", i+1, datum.URL)
	}
}

// =============================================================================
// 📚 models 命令
// =============================================================================

func runModels(args []string) {
	fs := flag.NewFlagSet("models", flag.ExitOnError)
	configPath := fs.String("config", "", "Path to config file")
	provider := fs.String("provider", "openai", "Backend provider name")
	fs.Parse(args)

	cfg, logger := loadConfig(*configPath)
	defer logger.Sync()

	svc := buildService(cfg, logger)
	models, err := svc.ListModels(context.Background(), *provider, providerAPIKey(cfg, *provider), "")
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to list models: %v\n", err)
		os.Exit(1)
	}
	for _, m := range models {
		fmt.Println(m)
	}
}

// =============================================================================
// 🔧 装配
// =============================================================================

func loadConfig(path string) (*config.Config, *zap.Logger) {
	loader := config.NewLoader()
	if path != "" {
		loader = loader.WithConfigPath(path)
	}
	cfg, err := loader.Load()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to load config: %v\n", err)
		os.Exit(1)
	}
	return cfg, initLogger(cfg.Log)
}

func buildService(cfg *config.Config, logger *zap.Logger) *imageflow.Service {
	var store providers.CatalogStore
	if cfg.Redis.Enabled {
		manager, err := cache.NewManager(cache.Config{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		}, logger)
		if err != nil {
			logger.Warn("redis not available, catalog store disabled", zap.Error(err))
		} else {
			store = manager
		}
	}

	modelCache := providers.NewModelCache(store, logger)
	registry := imageflow.NewRegistryFromConfig(cfg, modelCache, logger)

	opts := []imageflow.Option{imageflow.WithLogger(logger)}
	if cfg.Database.Enabled {
		db, err := gorm.Open(sqlite.Open(cfg.Database.DSN), &gorm.Config{})
		if err != nil {
			logger.Warn("database not available, usage recording disabled", zap.Error(err))
		} else if usageStore, uerr := usage.NewStore(db, logger); uerr != nil {
			logger.Warn("usage store init failed", zap.Error(uerr))
		} else {
			opts = append(opts, imageflow.WithUsageRecorder(usageStore))
		}
	}

	return imageflow.NewService(registry, opts...)
}

// providerAPIKey 从配置取对应后端的密钥。
func providerAPIKey(cfg *config.Config, provider string) string {
	switch provider {
	case "blackforest":
		return cfg.Providers.BlackForest.APIKey
	case "ideogram":
		return cfg.Providers.Ideogram.APIKey
	case "luma":
		return cfg.Providers.Luma.APIKey
	case "runway":
		return cfg.Providers.Runway.APIKey
	case "stability":
		return cfg.Providers.Stability.APIKey
	case "openai":
		return cfg.Providers.OpenAI.APIKey
	default:
		return ""
	}
}

// =============================================================================
// 📋 版本和帮助
// =============================================================================

func printVersion() {
	fmt.Printf("ImageFlow %s\n", Version)
	fmt.Printf("  Build Time: %s\n", BuildTime)
	fmt.Printf("  Git Commit: %s\n", GitCommit)
}

func printUsage() {
	fmt.Println(`ImageFlow - Image Generation Gateway

Usage:
  imageflow <command> [options]

Commands:
  generate  Submit an image generation request
  models    List available models for a provider
  version   Show version information
  help      Show this help message

Options for 'generate':
  --config <path>     Path to configuration file (YAML)
  --provider <name>   blackforest | ideogram | luma | runway | stability | openai
  --model <id>        Model ID (backend default when empty)
  --size <wxh>        Image size, e.g. 1024x1024 or 1792x1024
  --quality <q>       standard or hd
  --style <s>         vivid or natural

Examples:
  imageflow generate --provider luma --size 1792x1024 "a lighthouse at dusk"
  imageflow generate --provider stability --style natural "a glacier"
  imageflow models --provider runway
  imageflow version`)
}

// =============================================================================
// 🔧 日志初始化
// =============================================================================

func initLogger(cfg config.LogConfig) *zap.Logger {
	var level zapcore.Level
	switch cfg.Level {
	case "debug":
		level = zapcore.DebugLevel
	case "info":
		level = zapcore.InfoLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	default:
		level = zapcore.InfoLevel
	}

	var encoderConfig zapcore.EncoderConfig
	encoding := "json"
	if cfg.Format == "console" {
		encoding = "console"
		encoderConfig = zap.NewDevelopmentEncoderConfig()
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	} else {
		encoderConfig = zap.NewProductionEncoderConfig()
		encoderConfig.TimeKey = "timestamp"
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	}

	zapConfig := zap.Config{
		Level:            zap.NewAtomicLevelAt(level),
		Development:      cfg.Format == "console",
		Encoding:         encoding,
		EncoderConfig:    encoderConfig,
		OutputPaths:      []string{"stderr"},
		ErrorOutputPaths: []string{"stderr"},
	}

	logger, err := zapConfig.Build()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	return logger
}
