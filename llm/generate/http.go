package generate

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/internal/tlsutil"
	"github.com/BaSui01/gtmflow/types"
)

// GeneratePath 生成接口路径
const GeneratePath = "/api/ai/generate"

// Request 生成接口请求体
type Request struct {
	Prompt string `json:"prompt"`
	Type   Kind   `json:"type,omitempty"`
	Schema string `json:"schema,omitempty"`
}

// Response 生成接口成功响应。JSON 请求同时返回原始文本。
type Response struct {
	Result any    `json:"result"`
	Raw    string `json:"raw,omitempty"`
}

// ErrorResponse 生成接口失败响应
type ErrorResponse struct {
	Error   string `json:"error"`
	Message string `json:"message,omitempty"`
	Raw     string `json:"raw,omitempty"`
}

// HTTPGenerator 通过远端生成接口实现 Generator，密钥只保存在服务端。
type HTTPGenerator struct {
	baseURL string
	client  *http.Client
	logger  *zap.Logger
}

// NewHTTPGenerator 创建远端生成客户端。
func NewHTTPGenerator(baseURL string, timeout time.Duration, logger *zap.Logger) *HTTPGenerator {
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HTTPGenerator{
		baseURL: strings.TrimRight(baseURL, "/"),
		client:  tlsutil.HTTPClient(timeout),
		logger:  logger.With(zap.String("component", "http_generator")),
	}
}

var _ Generator = (*HTTPGenerator)(nil)

// Available 是否配置了远端地址；密钥是否存在由服务端判断。
func (g *HTTPGenerator) Available() bool { return g.baseURL != "" }

func (g *HTTPGenerator) GenerateText(ctx context.Context, prompt string) (string, error) {
	resp, err := g.call(ctx, Request{Prompt: prompt, Type: KindText})
	if err != nil {
		return "", err
	}
	text, ok := resp.Result.(string)
	if !ok {
		return "", types.NewError(types.ErrUpstreamError, "generation endpoint returned a non-text result")
	}
	return text, nil
}

func (g *HTTPGenerator) GenerateJSON(ctx context.Context, prompt, schemaHint string) (*JSONResult, error) {
	resp, err := g.call(ctx, Request{Prompt: prompt, Type: KindJSON, Schema: schemaHint})
	if err != nil {
		return nil, err
	}
	return &JSONResult{Value: resp.Result, Raw: resp.Raw}, nil
}

func (g *HTTPGenerator) call(ctx context.Context, body Request) (*Response, error) {
	if !g.Available() {
		return nil, types.NewError(types.ErrGenerationUnavailable, "generation endpoint not configured")
	}
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, fmt.Errorf("marshal generate request: %w", err)
	}

	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+GeneratePath, bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if reqID, ok := types.RequestID(ctx); ok {
		httpReq.Header.Set("X-Request-ID", reqID)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "Failed to generate content: "+err.Error()).
			WithCause(err).
			WithRetryable(true)
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "read generate response").WithCause(err)
	}

	if resp.StatusCode != http.StatusOK {
		var e ErrorResponse
		_ = json.Unmarshal(data, &e)
		g.logger.Warn("generate request failed",
			zap.Int("status", resp.StatusCode),
			zap.String("error", e.Error))
		return nil, errorFromResponse(resp.StatusCode, e)
	}

	var out Response
	if err := json.Unmarshal(data, &out); err != nil {
		return nil, types.NewError(types.ErrUpstreamError, "decode generate response").WithCause(err)
	}
	return &out, nil
}

// errorFromResponse 将生成接口的状态码还原为类型化错误。
func errorFromResponse(status int, e ErrorResponse) error {
	msg := e.Error
	if msg == "" {
		msg = http.StatusText(status)
	}

	switch {
	case status == http.StatusBadRequest && strings.HasPrefix(msg, "Prompt too long"):
		return types.NewError(types.ErrPromptTooLong, msg).WithHTTPStatus(status)
	case status == http.StatusBadRequest:
		return types.NewError(types.ErrInvalidRequest, msg).WithHTTPStatus(status)
	case status == http.StatusUnprocessableEntity:
		return types.NewError(types.ErrInvalidJSON, msg).WithRaw(e.Raw).WithHTTPStatus(status)
	case msg == "Gemini API key not configured":
		return types.NewError(types.ErrGenerationUnavailable, msg).WithHTTPStatus(status)
	default:
		if e.Message != "" {
			msg = msg + ": " + e.Message
		}
		return types.NewError(types.ErrUpstreamError, msg).
			WithHTTPStatus(status).
			WithRetryable(status >= 500 && status != http.StatusInternalServerError)
	}
}
