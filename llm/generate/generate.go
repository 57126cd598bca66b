package generate

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/BaSui01/gtmflow/types"
)

// MaxPromptChars 默认提示词字符上限
const MaxPromptChars = 50000

// JSONInstruction 追加在 JSON 请求末尾的指令
const JSONInstruction = "You MUST respond with valid JSON only. No explanations, no markdown, just the JSON object."

// Kind 生成类型
type Kind string

const (
	KindText Kind = "text"
	KindJSON Kind = "json"
)

// Generator 是执行器依赖的生成能力。
type Generator interface {
	// GenerateText 返回模型的纯文本输出。
	GenerateText(ctx context.Context, prompt string) (string, error)
	// GenerateJSON 要求模型只返回 JSON，解析后与原始文本一并返回。
	GenerateJSON(ctx context.Context, prompt, schemaHint string) (*JSONResult, error)
	// Available 报告生成能力是否已配置。
	Available() bool
}

// JSONResult JSON 生成结果
type JSONResult struct {
	Value any    `json:"result"`
	Raw   string `json:"raw"`
}

// Object 返回对象形式的结果；顶层不是对象时返回 false。
func (r *JSONResult) Object() (types.FormData, bool) {
	if r == nil {
		return nil, false
	}
	m, ok := types.AsMap(r.Value)
	if !ok {
		return nil, false
	}
	return types.FormData(m), true
}

// Recorder 记录生成调用的耗时与结果，由 internal/metrics 实现。
type Recorder interface {
	RecordGeneration(kind, status string, d time.Duration)
}

// ====== 提示词处理 ======

// ValidatePrompt 校验提示词非空且不超过 maxChars 个字符。
func ValidatePrompt(prompt string, maxChars int) error {
	if maxChars <= 0 {
		maxChars = MaxPromptChars
	}
	if strings.TrimSpace(prompt) == "" {
		return types.NewError(types.ErrInvalidRequest, "Invalid prompt")
	}
	if utf8.RuneCountInString(prompt) > maxChars {
		return types.NewError(types.ErrPromptTooLong,
			fmt.Sprintf("Prompt too long (max %s characters)", groupThousands(maxChars)))
	}
	return nil
}

func groupThousands(n int) string {
	s := strconv.Itoa(n)
	if len(s) <= 3 {
		return s
	}
	var b strings.Builder
	lead := len(s) % 3
	if lead > 0 {
		b.WriteString(s[:lead])
	}
	for i := lead; i < len(s); i += 3 {
		if b.Len() > 0 {
			b.WriteByte(',')
		}
		b.WriteString(s[i : i+3])
	}
	return b.String()
}

// BuildJSONPrompt 追加 JSON 指令与可选 schema 提示。
func BuildJSONPrompt(prompt, schemaHint string) string {
	full := prompt + "\n\n" + JSONInstruction
	if schemaHint != "" {
		full += "\n\nExpected schema:\n" + schemaHint
	}
	return full
}

var (
	jsonFence  = regexp.MustCompile("```json\n?")
	plainFence = regexp.MustCompile("```\n?")
)

// StripCodeFences 去掉 markdown 代码围栏。只有以围栏开头的文本才处理。
func StripCodeFences(text string) string {
	s := strings.TrimSpace(text)
	switch {
	case strings.HasPrefix(s, "```json"):
		s = jsonFence.ReplaceAllString(s, "")
		s = plainFence.ReplaceAllString(s, "")
	case strings.HasPrefix(s, "```"):
		s = plainFence.ReplaceAllString(s, "")
	}
	return s
}

// ParseJSON 解析模型输出；失败返回 INVALID_JSON 并附带原始文本。
func ParseJSON(raw string) (*JSONResult, error) {
	var v any
	if err := json.Unmarshal([]byte(StripCodeFences(raw)), &v); err != nil {
		return nil, types.NewError(types.ErrInvalidJSON, "AI returned invalid JSON").
			WithCause(err).
			WithRaw(raw).
			WithHTTPStatus(422)
	}
	return &JSONResult{Value: v, Raw: raw}, nil
}
