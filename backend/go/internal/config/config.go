package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig 表示配置内容不合法。
var ErrInvalidConfig = errors.New("invalid config")

// 支持的 LLM 提供商。
const (
	ProviderOpenAI = "openai"
	ProviderOllama = "ollama"
	ProviderGemini = "gemini"
)

// 各提供商未配置模型时使用的默认模型。
var defaultModels = map[string]string{
	ProviderOpenAI: "gpt-4o",
	ProviderOllama: "llama3.1",
	ProviderGemini: "gemini-1.5-flash",
}

// DefaultModel 返回提供商的默认模型，未知提供商返回空字符串。
func DefaultModel(provider string) string {
	return defaultModels[provider]
}

// 输出表格的两种列布局。
const (
	VariantStructured = "structured" // rca_file, *_brief, *_details
	VariantSingle     = "single"     // rca_file, 单值列
)

// AppInfo 对应 'app' 部分，包含应用程序的基本信息。
type AppInfo struct {
	Name        string `yaml:"name"`        // 应用程序名称
	Version     string `yaml:"version"`     // 应用程序版本
	Environment string `yaml:"environment"` // 运行环境 (例如: "development", "production")
}

// LoggerConfig 定义了日志记录器的配置。
type LoggerConfig struct {
	Level  string `yaml:"level"`  // 日志级别 (例如: "info", "debug", "warn", "error")
	Format string `yaml:"format"` // "json" 或 "text"
}

// RetryConfig 定义了生成后端的重试策略。
type RetryConfig struct {
	MaxAttempts    int    `yaml:"maxAttempts"`    // 最大尝试次数 (包含第一次)
	InitialBackoff string `yaml:"initialBackoff"` // 例如: "1s"
	MaxBackoff     string `yaml:"maxBackoff"`     // 例如: "30s"
}

// LLMConfig 包含了生成后端的配置。
type LLMConfig struct {
	Provider     string      `yaml:"provider"`     // LLM提供商 ("openai", "ollama", "gemini")
	Model        string      `yaml:"model"`        // 模型名称，为空时按提供商取默认值
	APIKey       string      `yaml:"apiKey"`       // API 密钥 (ollama 不需要)
	BaseURL      string      `yaml:"baseURL"`      // 可选，自定义服务地址
	Temperature  *float32    `yaml:"temperature"`  // 可选，为空时使用提供商默认值
	JSONResponse bool        `yaml:"jsonResponse"` // 是否要求返回单个 JSON 对象
	SystemPrompt string      `yaml:"systemPrompt"` // 为空时使用内置的提取指令
	Timeout      string      `yaml:"timeout"`      // 单次请求超时，例如: "120s"
	Retry        RetryConfig `yaml:"retry"`        // 重试策略
	CacheSize    int         `yaml:"cacheSize"`    // 回复缓存条目数，0 表示关闭
}

// MiddlewareConfig 包含调用生成后端时使用的中间件配置。
type MiddlewareConfig struct {
	RateLimiter    RateLimiterConfig    `yaml:"rateLimiter"`
	CircuitBreaker CircuitBreakerConfig `yaml:"circuitBreaker"`
}

// RateLimiterConfig 定义了令牌桶限流器的配置。
type RateLimiterConfig struct {
	Enabled  bool    `yaml:"enabled"`
	Rate     float64 `yaml:"rate"` // 每秒速率
	Capacity int     `yaml:"capacity"`
}

// CircuitBreakerConfig 定义了熔断器的配置。
type CircuitBreakerConfig struct {
	Enabled          bool   `yaml:"enabled"`
	FailureThreshold uint32 `yaml:"failureThreshold"`
	SuccessThreshold uint32 `yaml:"successThreshold"`
	Timeout          string `yaml:"timeout"` // 例如: "30s"
}

// LoaderConfig 定义了 RCA 文档目录的读取配置。
type LoaderConfig struct {
	InputDir     string   `yaml:"inputDir"`     // RCA 文档目录
	HiddenPrefix string   `yaml:"hiddenPrefix"` // 以此前缀开头的条目被视为隐藏文件
	Include      []string `yaml:"include"`      // 文件名 glob 模式，为空表示全部
	MaxBytes     int64    `yaml:"maxBytes"`     // 单个文件最大字节数，0 表示不限制
}

// ReportConfig 定义了输出表格的配置。
type ReportConfig struct {
	OutputDir string `yaml:"outputDir"` // 输出目录
	Variant   string `yaml:"variant"`   // "structured" 或 "single"
	XLSX      bool   `yaml:"xlsx"`      // 是否额外输出 insights.xlsx
	Workers   int    `yaml:"workers"`   // 并行提取的文档数，1 表示顺序处理
}

// MinIOConfig 定义了 MinIO 对象存储的连接配置。
type MinIOConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Endpoint  string `yaml:"endpoint"`  // MinIO 服务端点
	AccessKey string `yaml:"accessKey"` // 访问密钥
	SecretKey string `yaml:"secretKey"` // Secret 密钥
	Bucket    string `yaml:"bucket"`    // 存储桶名称
	Prefix    string `yaml:"prefix"`    // 对象名前缀
	Secure    bool   `yaml:"secure"`    // 是否使用HTTPS
}

// KafkaConfig 定义了 Kafka 消息队列的连接配置。
type KafkaConfig struct {
	Enabled bool     `yaml:"enabled"`
	Brokers []string `yaml:"brokers"` // Kafka Broker 地址列表
	Topic   string   `yaml:"topic"`   // 分析结果主题
}

// StorageConfigs 包含可选的产物存储配置。
type StorageConfigs struct {
	MinIO MinIOConfig `yaml:"minio"`
}

// MessagingConfigs 包含可选的消息发布配置。
type MessagingConfigs struct {
	Kafka KafkaConfig `yaml:"kafka"`
}

// AppConfig 是整个 YAML 文件的根结构，包含了应用程序的所有配置。
type AppConfig struct {
	App        AppInfo          `yaml:"app"`        // 应用程序信息
	Logger     LoggerConfig     `yaml:"logger"`     // 日志记录器配置
	LLM        LLMConfig        `yaml:"llm"`        // 生成后端配置
	Middleware MiddlewareConfig `yaml:"middleware"` // 中间件配置
	Loader     LoaderConfig     `yaml:"loader"`     // 文档读取配置
	Report     ReportConfig     `yaml:"report"`     // 输出配置
	Storage    StorageConfigs   `yaml:"storage"`    // 产物存储配置
	Messaging  MessagingConfigs `yaml:"messaging"`  // 消息发布配置
}

// Default 返回带有全部默认值的配置。
func Default() *AppConfig {
	return &AppConfig{
		App:    AppInfo{Name: "rca_insights", Version: "dev", Environment: "development"},
		Logger: LoggerConfig{Level: "info", Format: "json"},
		LLM: LLMConfig{
			Provider:     ProviderOpenAI,
			JSONResponse: true,
			Timeout:      "120s",
			Retry: RetryConfig{
				MaxAttempts:    5,
				InitialBackoff: "1s",
				MaxBackoff:     "30s",
			},
			CacheSize: 256,
		},
		Middleware: MiddlewareConfig{
			RateLimiter: RateLimiterConfig{Rate: 1, Capacity: 5},
			CircuitBreaker: CircuitBreakerConfig{
				FailureThreshold: 5,
				SuccessThreshold: 1,
				Timeout:          "30s",
			},
		},
		Loader: LoaderConfig{InputDir: "./rcas", HiddenPrefix: "."},
		Report: ReportConfig{OutputDir: "./output", Variant: VariantStructured, Workers: 1},
		Messaging: MessagingConfigs{
			Kafka: KafkaConfig{Topic: "rca_insights"},
		},
	}
}

// LoadConfig 函数从指定路径加载并解析 YAML 配置文件，未出现的字段保留默认值。
//
// 参数:
//
//	path: YAML 配置文件的路径。为空时直接返回默认配置。
//
// 返回值:
//
//	*AppConfig: 解析后的应用程序配置结构体。
//	error: 如果文件读取或解析失败，则返回错误。
func LoadConfig(path string) (*AppConfig, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	yamlFile, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("无法读取 YAML 文件 '%s': %w", path, err)
	}
	if err := yaml.Unmarshal(yamlFile, cfg); err != nil {
		return nil, fmt.Errorf("解析 YAML 文件失败: %w", err)
	}
	return cfg, nil
}

// ApplyEnv 使用环境变量覆盖配置。lookup 通常为 os.LookupEnv。
func (c *AppConfig) ApplyEnv(lookup func(string) (string, bool)) {
	set := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	set("RCA_INPUT_DIR", &c.Loader.InputDir)
	set("RCA_OUTPUT_DIR", &c.Report.OutputDir)
	set("RCA_LLM_PROVIDER", &c.LLM.Provider)
	set("RCA_LLM_MODEL", &c.LLM.Model)

	// 仅当配置文件中没有密钥时才读取提供商的标准环境变量。
	if c.LLM.APIKey == "" {
		switch c.LLM.Provider {
		case ProviderOpenAI:
			set("OPENAI_API_KEY", &c.LLM.APIKey)
		case ProviderGemini:
			set("GEMINI_API_KEY", &c.LLM.APIKey)
		}
	}
	if c.LLM.Provider == ProviderOllama && c.LLM.BaseURL == "" {
		set("OLLAMA_HOST", &c.LLM.BaseURL)
	}
}

// ApplyProviderDefaults 在所有覆盖完成后补全依赖提供商的默认值。
func (c *AppConfig) ApplyProviderDefaults() {
	if c.LLM.Model == "" {
		c.LLM.Model = DefaultModel(c.LLM.Provider)
	}
}

// Validate 检查配置是否合法。
func (c *AppConfig) Validate() error {
	switch c.LLM.Provider {
	case ProviderOpenAI, ProviderOllama, ProviderGemini:
	default:
		return fmt.Errorf("%w: unsupported LLM provider %q", ErrInvalidConfig, c.LLM.Provider)
	}
	if c.LLM.Model == "" {
		return fmt.Errorf("%w: llm.model is required", ErrInvalidConfig)
	}
	if c.LLM.Retry.MaxAttempts < 1 {
		return fmt.Errorf("%w: llm.retry.maxAttempts must be at least 1", ErrInvalidConfig)
	}
	if c.LLM.CacheSize < 0 {
		return fmt.Errorf("%w: llm.cacheSize must not be negative", ErrInvalidConfig)
	}
	for name, d := range map[string]string{
		"llm.timeout":                       c.LLM.Timeout,
		"llm.retry.initialBackoff":          c.LLM.Retry.InitialBackoff,
		"llm.retry.maxBackoff":              c.LLM.Retry.MaxBackoff,
		"middleware.circuitBreaker.timeout": c.Middleware.CircuitBreaker.Timeout,
	} {
		if _, err := ParseDuration(d); err != nil {
			return fmt.Errorf("%w: %s: %v", ErrInvalidConfig, name, err)
		}
	}
	if c.Middleware.RateLimiter.Enabled && (c.Middleware.RateLimiter.Rate <= 0 || c.Middleware.RateLimiter.Capacity < 1) {
		return fmt.Errorf("%w: rate limiter needs a positive rate and capacity", ErrInvalidConfig)
	}
	if c.Loader.InputDir == "" {
		return fmt.Errorf("%w: loader.inputDir is required", ErrInvalidConfig)
	}
	if c.Report.OutputDir == "" {
		return fmt.Errorf("%w: report.outputDir is required", ErrInvalidConfig)
	}
	switch c.Report.Variant {
	case VariantStructured, VariantSingle:
	default:
		return fmt.Errorf("%w: unsupported report variant %q", ErrInvalidConfig, c.Report.Variant)
	}
	if c.Report.Workers < 1 {
		return fmt.Errorf("%w: report.workers must be at least 1", ErrInvalidConfig)
	}
	if c.Storage.MinIO.Enabled && (c.Storage.MinIO.Endpoint == "" || c.Storage.MinIO.Bucket == "") {
		return fmt.Errorf("%w: storage.minio needs endpoint and bucket", ErrInvalidConfig)
	}
	if c.Messaging.Kafka.Enabled && (len(c.Messaging.Kafka.Brokers) == 0 || c.Messaging.Kafka.Topic == "") {
		return fmt.Errorf("%w: messaging.kafka needs brokers and topic", ErrInvalidConfig)
	}
	return nil
}

// ParseDuration 解析时长字符串，空字符串表示 0。
func ParseDuration(s string) (time.Duration, error) {
	if s == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(s)
	if err != nil {
		return 0, err
	}
	if d < 0 {
		return 0, fmt.Errorf("negative duration %q", s)
	}
	return d, nil
}
