// =============================================================================
// 📦 测试数据工厂 - LLM 响应测试数据
// =============================================================================
// 提供预定义的 ChatResponse 与 Gemini generateContent 响应体
// =============================================================================
package fixtures

import (
	"encoding/json"
	"time"

	"github.com/BaSui01/gtmflow/llm"
)

// =============================================================================
// 🎯 ChatResponse 工厂
// =============================================================================

// SimpleResponse 返回简单的文本响应
func SimpleResponse(content string) *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:       "resp-001",
		Provider: "mock",
		Model:    "gemini-2.0-flash-exp",
		Choices: []llm.ChatChoice{
			{
				Index:        0,
				FinishReason: "STOP",
				Message:      llm.Message{Role: llm.RoleAssistant, Content: content},
			},
		},
		Usage: llm.ChatUsage{
			PromptTokens:     10,
			CompletionTokens: 20,
			TotalTokens:      30,
		},
		CreatedAt: time.Now(),
	}
}

// FencedJSONResponse 返回包裹在 ```json 围栏中的响应
func FencedJSONResponse(jsonBody string) *llm.ChatResponse {
	return SimpleResponse("```json\n" + jsonBody + "\n```")
}

// EmptyResponse 返回没有候选的响应
func EmptyResponse() *llm.ChatResponse {
	return &llm.ChatResponse{
		ID:        "resp-empty",
		Provider:  "mock",
		Model:     "gemini-2.0-flash-exp",
		Choices:   []llm.ChatChoice{},
		CreatedAt: time.Now(),
	}
}

// =============================================================================
// 🌐 Gemini 响应体
// =============================================================================

// GeminiTextBody 返回单候选 generateContent 响应体
func GeminiTextBody(text string) []byte {
	body := map[string]any{
		"candidates": []any{
			map[string]any{
				"content": map[string]any{
					"role":  "model",
					"parts": []any{map[string]any{"text": text}},
				},
				"finishReason": "STOP",
				"index":        0,
			},
		},
		"usageMetadata": map[string]any{
			"promptTokenCount":     12,
			"candidatesTokenCount": 34,
			"totalTokenCount":      46,
		},
	}
	data, _ := json.Marshal(body)
	return data
}

// GeminiBlockedBody 返回被安全策略拦截的响应体
func GeminiBlockedBody(reason string) []byte {
	data, _ := json.Marshal(map[string]any{
		"candidates":     []any{},
		"promptFeedback": map[string]any{"blockReason": reason},
	})
	return data
}

// GeminiErrorBody 返回 Google API 错误响应体
func GeminiErrorBody(code int, message, status string) []byte {
	data, _ := json.Marshal(map[string]any{
		"error": map[string]any{
			"code":    code,
			"message": message,
			"status":  status,
		},
	})
	return data
}
