package generate

import (
	"context"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/llm"
	"github.com/BaSui01/gtmflow/types"
)

// ProviderGenerator 基于 llm.Provider 的 Generator 实现。
// 重试由调用方包装 Provider（providers.RetryableProvider）完成。
type ProviderGenerator struct {
	provider llm.Provider
	model    string
	maxChars int
	recorder Recorder
	logger   *zap.Logger
}

// Option 配置 ProviderGenerator
type Option func(*ProviderGenerator)

// WithModel 覆盖请求模型
func WithModel(model string) Option {
	return func(g *ProviderGenerator) { g.model = model }
}

// WithMaxPromptChars 设置提示词上限
func WithMaxPromptChars(n int) Option {
	return func(g *ProviderGenerator) {
		if n > 0 {
			g.maxChars = n
		}
	}
}

// WithRecorder 设置指标记录器
func WithRecorder(r Recorder) Option {
	return func(g *ProviderGenerator) { g.recorder = r }
}

// NewProviderGenerator 创建基于 Provider 的生成器。provider 为 nil 时生成能力不可用。
func NewProviderGenerator(provider llm.Provider, logger *zap.Logger, opts ...Option) *ProviderGenerator {
	if logger == nil {
		logger = zap.NewNop()
	}
	g := &ProviderGenerator{
		provider: provider,
		maxChars: MaxPromptChars,
		logger:   logger.With(zap.String("component", "generator")),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

var _ Generator = (*ProviderGenerator)(nil)

// Available 报告 Provider 是否已配置密钥。
func (g *ProviderGenerator) Available() bool {
	if g.provider == nil {
		return false
	}
	if c, ok := g.provider.(interface{ Configured() bool }); ok {
		return c.Configured()
	}
	return true
}

func (g *ProviderGenerator) unavailable() error {
	return types.NewError(types.ErrGenerationUnavailable, "Gemini API key not configured").
		WithHTTPStatus(500)
}

// GenerateText 生成纯文本。
func (g *ProviderGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	if err := ValidatePrompt(prompt, g.maxChars); err != nil {
		return "", err
	}
	start := time.Now()
	text, err := g.complete(ctx, prompt, llm.ResponseFormatText)
	g.record(KindText, start, err)
	return text, err
}

// GenerateJSON 生成 JSON，解析失败返回 INVALID_JSON（附原始文本）。
func (g *ProviderGenerator) GenerateJSON(ctx context.Context, prompt, schemaHint string) (*JSONResult, error) {
	if err := ValidatePrompt(prompt, g.maxChars); err != nil {
		return nil, err
	}
	start := time.Now()
	text, err := g.complete(ctx, BuildJSONPrompt(prompt, schemaHint), llm.ResponseFormatJSON)
	if err != nil {
		g.record(KindJSON, start, err)
		return nil, err
	}

	result, err := ParseJSON(text)
	if err != nil {
		g.logger.Warn("failed to parse JSON response",
			zap.Int("raw_length", len(text)),
			zap.Error(err))
	}
	g.record(KindJSON, start, err)
	return result, err
}

func (g *ProviderGenerator) complete(ctx context.Context, prompt string, format llm.ResponseFormat) (string, error) {
	if !g.Available() {
		return "", g.unavailable()
	}

	req := &llm.ChatRequest{
		Model:          g.model,
		Messages:       []llm.Message{{Role: llm.RoleUser, Content: prompt}},
		ResponseFormat: format,
	}
	if traceID, ok := types.TraceID(ctx); ok {
		req.TraceID = traceID
	}

	resp, err := g.provider.Completion(ctx, req)
	if err != nil {
		g.logger.Error("generation failed",
			zap.String("provider", g.provider.Name()),
			zap.Error(err))
		return "", wrapUpstream(err)
	}
	return resp.FirstContent(), nil
}

// wrapUpstream 将上游失败统一为 "Failed to generate content: <原因>"。
func wrapUpstream(err error) error {
	te := llm.ToTypesError(err)
	if te.Code != types.ErrUpstreamError {
		return te
	}
	return types.NewError(types.ErrUpstreamError, "Failed to generate content: "+te.Message).
		WithCause(err).
		WithRetryable(te.Retryable).
		WithHTTPStatus(te.HTTPStatus)
}

func (g *ProviderGenerator) record(kind Kind, start time.Time, err error) {
	if g.recorder == nil {
		return
	}
	status := "success"
	if err != nil {
		status = string(types.GetErrorCode(err))
		if status == "" {
			status = "error"
		}
	}
	g.recorder.RecordGeneration(string(kind), status, time.Since(start))
}
