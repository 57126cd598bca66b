package handlers

import (
	"encoding/json"
	"net/http"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/types"
)

// =============================================================================
// ✨ Generate Handler
// =============================================================================

// 生成接口的固定错误文案，远端 HTTPGenerator 依赖这些文案还原错误
const (
	msgKeyNotConfigured = "Gemini API key not configured"
	msgGenerateFailed   = "Failed to generate content"
)

// GenerateHandler 服务端生成接口，密钥只保存在服务端。
// 响应体不使用统一 Response 信封，与 generate.HTTPGenerator 的约定保持一致。
type GenerateHandler struct {
	generator generate.Generator
	maxChars  int
	logger    *zap.Logger
}

// NewGenerateHandler 创建生成处理器。maxChars <= 0 时使用默认上限。
func NewGenerateHandler(generator generate.Generator, maxChars int, logger *zap.Logger) *GenerateHandler {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxChars <= 0 {
		maxChars = generate.MaxPromptChars
	}
	return &GenerateHandler{
		generator: generator,
		maxChars:  maxChars,
		logger:    logger.With(zap.String("handler", "generate")),
	}
}

// HandleGenerate POST /api/ai/generate
//
//	{prompt, type?: "text"|"json", schema?} → {result} | {result, raw}
func (h *GenerateHandler) HandleGenerate(w http.ResponseWriter, r *http.Request) {
	if h.generator == nil || !h.generator.Available() {
		WriteJSON(w, http.StatusInternalServerError, generate.ErrorResponse{Error: msgKeyNotConfigured})
		return
	}

	var body map[string]json.RawMessage
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&body); err != nil {
		h.logger.Warn("invalid generate request body", zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, generate.ErrorResponse{Error: msgGenerateFailed, Message: err.Error()})
		return
	}

	var prompt string
	if raw, ok := body["prompt"]; !ok || json.Unmarshal(raw, &prompt) != nil {
		WriteJSON(w, http.StatusBadRequest, generate.ErrorResponse{Error: "Invalid prompt"})
		return
	}
	if err := generate.ValidatePrompt(prompt, h.maxChars); err != nil {
		te, _ := types.AsError(err)
		WriteJSON(w, http.StatusBadRequest, generate.ErrorResponse{Error: te.Message})
		return
	}

	if requestKind(body["type"]) != generate.KindJSON {
		text, err := h.generator.GenerateText(r.Context(), prompt)
		if err != nil {
			h.writeFailure(w, err)
			return
		}
		WriteJSON(w, http.StatusOK, generate.Response{Result: text})
		return
	}

	result, err := h.generator.GenerateJSON(r.Context(), prompt, schemaHint(body["schema"]))
	if err != nil {
		h.writeFailure(w, err)
		return
	}
	WriteJSON(w, http.StatusOK, generate.Response{Result: result.Value, Raw: result.Raw})
}

// requestKind 缺省为 text；只有字面量 "json" 走 JSON 分支
func requestKind(raw json.RawMessage) generate.Kind {
	var kind string
	if raw != nil && json.Unmarshal(raw, &kind) == nil && kind == string(generate.KindJSON) {
		return generate.KindJSON
	}
	return generate.KindText
}

// schemaHint 字符串原样使用，其余 JSON 值按原文拼接
func schemaHint(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		return s
	}
	return string(raw)
}

func (h *GenerateHandler) writeFailure(w http.ResponseWriter, err error) {
	te, ok := types.AsError(err)
	if !ok {
		te = types.NewError(types.ErrUpstreamError, err.Error()).WithCause(err)
	}

	switch te.Code {
	case types.ErrInvalidJSON:
		WriteJSON(w, http.StatusUnprocessableEntity, generate.ErrorResponse{Error: te.Message, Raw: te.Raw})
	case types.ErrInvalidRequest, types.ErrPromptTooLong:
		WriteJSON(w, http.StatusBadRequest, generate.ErrorResponse{Error: te.Message})
	case types.ErrGenerationUnavailable:
		WriteJSON(w, http.StatusInternalServerError, generate.ErrorResponse{Error: msgKeyNotConfigured})
	default:
		h.logger.Error("generation failed", zap.String("code", string(te.Code)), zap.Error(err))
		WriteJSON(w, http.StatusInternalServerError, generate.ErrorResponse{
			Error:   msgGenerateFailed,
			Message: strings.TrimPrefix(te.Message, msgGenerateFailed+": "),
		})
	}
}
