package executors

import (
	"fmt"
	"strings"

	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// Mode 执行器家族选择
type Mode string

const (
	ModeAuto   Mode = "auto"
	ModeGemini Mode = "gemini"
	ModeMock   Mode = "mock"
)

// ParseMode 解析配置中的模式字符串，空串视为 auto。
func ParseMode(s string) (Mode, error) {
	switch m := Mode(strings.ToLower(strings.TrimSpace(s))); m {
	case "":
		return ModeAuto, nil
	case ModeAuto, ModeGemini, ModeMock:
		return m, nil
	default:
		return "", types.NewValidationError(fmt.Sprintf("unknown execution mode %q (want auto, gemini or mock)", s))
	}
}

// Resolve 把 auto 落到具体家族：生成能力可用时为 gemini，否则 mock。
func Resolve(mode Mode, gen generate.Generator) Mode {
	if mode != ModeAuto {
		return mode
	}
	if gen != nil && gen.Available() {
		return ModeGemini
	}
	return ModeMock
}

// Options NewRegistry 参数
type Options struct {
	Mode      Mode
	Generator generate.Generator
	Mock      MockConfig
	Logger    *zap.Logger
}

// NewRegistry 按模式构建执行器注册表，返回实际使用的模式。
func NewRegistry(opts Options) (*workflow.Registry, Mode) {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	logger = logger.With(zap.String("component", "executors"))

	mode := Resolve(opts.Mode, opts.Generator)
	reg := workflow.NewRegistry()

	switch mode {
	case ModeGemini:
		if opts.Generator == nil || !opts.Generator.Available() {
			logger.Warn("gemini mode selected but generation is not configured; runs will fail")
		}
		for _, e := range LLMExecutors(opts.Generator, opts.Mock.Now) {
			reg.MustRegister(e)
		}
	default:
		mode = ModeMock
		for _, e := range MockExecutors(opts.Mock) {
			reg.MustRegister(e)
		}
	}

	label := "Mock (Demo)"
	if mode == ModeGemini {
		label = "Gemini AI"
	}
	logger.Info("agent execution mode",
		zap.String("mode", string(mode)),
		zap.String("label", label),
		zap.Strings("agents", reg.IDs()))

	return reg, mode
}
