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
	"io"
	"time"
)

// ErrRetriesExhausted 在所有尝试都失败后被包装进返回的错误中。
var ErrRetriesExhausted = errors.New("generation retries exhausted")

// RetryPolicy 限定请求的重试次数与退避时长。
type RetryPolicy struct {
	MaxAttempts    int
	InitialBackoff time.Duration
	MaxBackoff     time.Duration
	AttemptTimeout time.Duration // 0 表示单次尝试不设超时
}

// PolicyFromConfig 根据配置中的 llm 部分构建 RetryPolicy。
func PolicyFromConfig(cfg config.LLMConfig) (RetryPolicy, error) {
	initial, err := config.ParseDuration(cfg.Retry.InitialBackoff)
	if err != nil {
		return RetryPolicy{}, fmt.Errorf("invalid initial backoff: %w", err)
	}
	maxBackoff, err := config.ParseDuration(cfg.Retry.MaxBackoff)
	if err != nil {
		return RetryPolicy{}, fmt.Errorf("invalid max backoff: %w", err)
	}
	timeout, err := config.ParseDuration(cfg.Timeout)
	if err != nil {
		return RetryPolicy{}, fmt.Errorf("invalid timeout: %w", err)
	}
	return RetryPolicy{
		MaxAttempts:    cfg.Retry.MaxAttempts,
		InitialBackoff: initial,
		MaxBackoff:     maxBackoff,
		AttemptTimeout: timeout,
	}, nil
}

// backoff 返回第 attempt 次 (从 1 开始) 失败后的等待时长。
func (p RetryPolicy) backoff(attempt int) time.Duration {
	d := p.InitialBackoff
	for i := 1; i < attempt; i++ {
		d *= 2
		if p.MaxBackoff > 0 && d >= p.MaxBackoff {
			return p.MaxBackoff
		}
	}
	if p.MaxBackoff > 0 && d > p.MaxBackoff {
		return p.MaxBackoff
	}
	return d
}

// Option 用于配置 Resilient 客户端。
type Option func(*Resilient)

// WithRateLimiter 使每次尝试前先等待限流器放行。
func WithRateLimiter(l ratelimiter.RateLimiter) Option {
	return func(r *Resilient) { r.limiter = l }
}

// WithCircuitBreaker 使每次尝试都经过熔断器 cb。
func WithCircuitBreaker(cb circuitbreaker.CircuitBreaker) Option {
	return func(r *Resilient) { r.breaker = cb }
}

// WithLogger 设置记录重试信息的日志器。
func WithLogger(l *logger.Logger) Option {
	return func(r *Resilient) {
		if l != nil {
			r.log = l
		}
	}
}

// Resilient 为 LLM 包装有限次重试、限流与熔断。
type Resilient struct {
	next    LLM
	policy  RetryPolicy
	limiter ratelimiter.RateLimiter
	breaker circuitbreaker.CircuitBreaker
	log     *logger.Logger
	sleep   func(ctx context.Context, d time.Duration) error
}

// NewResilient 使用给定策略包装 next。
func NewResilient(next LLM, policy RetryPolicy, opts ...Option) *Resilient {
	if policy.MaxAttempts < 1 {
		policy.MaxAttempts = 1
	}
	r := &Resilient{
		next:   next,
		policy: policy,
		log:    logger.Discard(),
		sleep:  sleepContext,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// GenerateContent 反复调用被包装的客户端，直到成功、遇到永久性错误、
// ctx 结束或尝试次数用尽。
func (r *Resilient) GenerateContent(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	var lastErr error
	for attempt := 1; attempt <= r.policy.MaxAttempts; attempt++ {
		if r.limiter != nil {
			if err := r.limiter.Wait(ctx); err != nil {
				return nil, err
			}
		}

		resp, err := r.attempt(ctx, req)
		if err == nil {
			return resp, nil
		}
		lastErr = err

		if IsPermanent(err) {
			return nil, err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return nil, ctxErr
		}
		if attempt == r.policy.MaxAttempts {
			break
		}

		delay := r.policy.backoff(attempt)
		r.log.WithError(err).WithFields(map[string]interface{}{
			"attempt": attempt,
			"backoff": delay.String(),
		}).Warn("generation attempt failed, retrying")

		if err := r.sleep(ctx, delay); err != nil {
			return nil, err
		}
	}
	return nil, fmt.Errorf("%w after %d attempts: %w", ErrRetriesExhausted, r.policy.MaxAttempts, lastErr)
}

func (r *Resilient) attempt(ctx context.Context, req *models.GenerateContentRequest) (*models.GenerateContentResponse, error) {
	if r.policy.AttemptTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, r.policy.AttemptTimeout)
		defer cancel()
	}

	if r.breaker == nil {
		return r.next.GenerateContent(ctx, req)
	}

	// 永久性错误只属于当前请求，不计入熔断器的失败次数。
	var resp *models.GenerateContentResponse
	var permanent error
	err := r.breaker.Execute(func() error {
		var err error
		resp, err = r.next.GenerateContent(ctx, req)
		if IsPermanent(err) {
			permanent = err
			return nil
		}
		return err
	})
	if permanent != nil {
		return nil, permanent
	}
	return resp, err
}

func sleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

var _ LLM = (*Resilient)(nil)

// Close 在被包装的客户端持有资源时将其关闭。
func (r *Resilient) Close() error {
	if c, ok := r.next.(io.Closer); ok {
		return c.Close()
	}
	return nil
}
