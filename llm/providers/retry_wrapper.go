package providers

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/llm"
	"github.com/BaSui01/gtmflow/llm/retry"
)

// RetryConfig Provider 重试配置
type RetryConfig struct {
	MaxRetries    int           `json:"max_retries" yaml:"max_retries"`       // 最大重试次数
	InitialDelay  time.Duration `json:"initial_delay" yaml:"initial_delay"`   // 初始退避
	MaxDelay      time.Duration `json:"max_delay" yaml:"max_delay"`           // 最大退避
	BackoffFactor float64       `json:"backoff_factor" yaml:"backoff_factor"` // 退避倍数
}

// DefaultRetryConfig returns sensible retry defaults.
func DefaultRetryConfig() RetryConfig {
	return RetryConfig{
		MaxRetries:    2,
		InitialDelay:  500 * time.Millisecond,
		MaxDelay:      10 * time.Second,
		BackoffFactor: 2.0,
	}
}

// RetryableProvider 为 Provider 的 Completion 增加指数退避重试。
// 仅重试标记为 Retryable 的错误（429、5xx、网络错误）。
type RetryableProvider struct {
	inner   llm.Provider
	retryer retry.Retryer
	logger  *zap.Logger
}

// NewRetryableProvider creates a retrying wrapper around the given provider.
func NewRetryableProvider(inner llm.Provider, config RetryConfig, logger *zap.Logger) *RetryableProvider {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "retry_provider"), zap.String("provider", inner.Name()))
	policy := &retry.RetryPolicy{
		MaxRetries:   config.MaxRetries,
		InitialDelay: config.InitialDelay,
		MaxDelay:     config.MaxDelay,
		Multiplier:   config.BackoffFactor,
		Jitter:       true,
		OnRetry: func(attempt int, err error, delay time.Duration) {
			logger.Warn("completion failed, will retry",
				zap.Int("attempt", attempt),
				zap.Duration("delay", delay),
				zap.Error(err))
		},
	}
	return &RetryableProvider{
		inner:   inner,
		retryer: retry.NewBackoffRetryer(policy, logger),
		logger:  logger,
	}
}

var _ llm.Provider = (*RetryableProvider)(nil)

func (p *RetryableProvider) Name() string { return p.inner.Name() }

func (p *RetryableProvider) HealthCheck(ctx context.Context) (*llm.HealthStatus, error) {
	return p.inner.HealthCheck(ctx)
}

// Completion performs a completion with retry on transient errors.
func (p *RetryableProvider) Completion(ctx context.Context, req *llm.ChatRequest) (*llm.ChatResponse, error) {
	return retry.DoTyped(ctx, p.retryer, func(ctx context.Context) (*llm.ChatResponse, error) {
		return p.inner.Completion(ctx, req)
	})
}

// Configured 透传内部 Provider 的配置状态；内部未实现时视为已配置。
func (p *RetryableProvider) Configured() bool {
	if c, ok := p.inner.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}
