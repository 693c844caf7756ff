package llm

import (
	"RCA_Insights/backend/go/internal/config"
	"RCA_Insights/backend/go/internal/models"
	"RCA_Insights/backend/go/pkg/circuitbreaker"
	"RCA_Insights/backend/go/pkg/logger"
	"RCA_Insights/backend/go/pkg/ratelimiter"
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// LLM 定义了所有大型语言模型客户端必须实现的通用接口。
type LLM interface {
	GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error)
}

// permanentError 标记不应重试的错误 (例如认证失败、请求参数错误)。
type permanentError struct {
	err error
}

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent 将 err 标记为不可重试。
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

// IsPermanent 判断错误链中是否包含不可重试的标记。
func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

// classifyStatus 根据 HTTP 状态码决定错误是否可重试。
// 429、408 与 5xx 视为暂时性错误，其余 4xx 视为永久性错误。
func classifyStatus(code int, err error) error {
	switch {
	case code == http.StatusTooManyRequests, code == http.StatusRequestTimeout:
		return err
	case code >= 400 && code < 500:
		return Permanent(err)
	default:
		return err
	}
}

// splitSystem 将请求中的系统指令与对话消息分开，多条系统指令按顺序以空行拼接。
func splitSystem(req *models.GenerateContentRequest) (string, []models.Content) {
	var system []string
	var turns []models.Content
	for _, c := range req.Content {
		if c.Role == models.SpeakerSystem {
			system = append(system, c.Text())
			continue
		}
		turns = append(turns, c)
	}
	return strings.Join(system, "\n\n"), turns
}

// NewLLM 是一个工厂函数，根据配置创建提供商客户端，并包装上重试、限流与熔断。
func NewLLM(ctx context.Context, cfg *config.AppConfig, log *logger.Logger) (LLM, error) {
	provider, err := newProvider(ctx, cfg.LLM)
	if err != nil {
		return nil, err
	}

	policy, err := PolicyFromConfig(cfg.LLM)
	if err != nil {
		return nil, err
	}

	opts := []Option{WithLogger(log)}
	if rl := cfg.Middleware.RateLimiter; rl.Enabled {
		opts = append(opts, WithRateLimiter(ratelimiter.NewTokenBucket(rl.Rate, rl.Capacity)))
	}
	if cb := cfg.Middleware.CircuitBreaker; cb.Enabled {
		timeout, err := config.ParseDuration(cb.Timeout)
		if err != nil {
			return nil, fmt.Errorf("invalid circuit breaker timeout: %w", err)
		}
		opts = append(opts, WithCircuitBreaker(circuitbreaker.New(cb.FailureThreshold, cb.SuccessThreshold, timeout)))
	}

	return NewResilient(provider, policy, opts...), nil
}

func newProvider(ctx context.Context, cfg config.LLMConfig) (LLM, error) {
	if cfg.Model == "" {
		cfg.Model = config.DefaultModel(cfg.Provider)
	}
	switch cfg.Provider {
	case config.ProviderOpenAI:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for openai provider")
		}
		return NewOpenAI(cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Temperature)
	case config.ProviderOllama:
		return NewOllama(cfg.Model, cfg.BaseURL, cfg.Temperature)
	case config.ProviderGemini:
		if cfg.APIKey == "" {
			return nil, fmt.Errorf("no API key configured for gemini provider")
		}
		return NewGemini(ctx, cfg.Model, cfg.APIKey, cfg.BaseURL, cfg.Temperature)
	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", cfg.Provider)
	}
}
