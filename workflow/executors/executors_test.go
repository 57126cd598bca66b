package executors

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

var fixedNow = time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)

func instantMocks() MockConfig {
	return MockConfig{DelayScale: 0, Now: func() time.Time { return fixedNow }}
}

func executorByID(t *testing.T, execs []types.Executor, id string) types.Executor {
	t.Helper()
	for _, e := range execs {
		if e.ID() == id {
			return e
		}
	}
	t.Fatalf("executor %s not found", id)
	return nil
}

// scriptedGenerator 返回预置文本/JSON，并记录提示词。
type scriptedGenerator struct {
	available bool
	text      string
	json      map[string]any // 提示词关键字 → 结果
	prompts   []string
}

func (g *scriptedGenerator) Available() bool { return g.available }

func (g *scriptedGenerator) GenerateText(_ context.Context, prompt string) (string, error) {
	g.prompts = append(g.prompts, prompt)
	return g.text, nil
}

func (g *scriptedGenerator) GenerateJSON(_ context.Context, prompt, _ string) (*generate.JSONResult, error) {
	g.prompts = append(g.prompts, prompt)
	for key, v := range g.json {
		if strings.Contains(prompt, key) {
			return &generate.JSONResult{Value: v, Raw: "raw"}, nil
		}
	}
	return generate.ParseJSON("not json")
}

// =============================================================================
// Mock 执行器
// =============================================================================

func TestMockPipeline(t *testing.T) {
	reg, mode := NewRegistry(Options{Mode: ModeMock, Mock: instantMocks(), Logger: zap.NewNop()})
	assert.Equal(t, ModeMock, mode)

	engine := workflow.NewEngine(reg, zap.NewNop())
	res, err := engine.Run(context.Background(), workflow.SampleWorkflow(), nil)
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)
	require.Len(t, res.Outputs, 4)

	research := res.Outputs["node-1"]
	assert.Equal(t, "AI in Marketing", research["topic"])
	assert.Equal(t, "standard", research["depth"])

	blog := res.Outputs["node-2"]
	assert.Equal(t, "How AI is Transforming Marketing", blog["title"])
	assert.Contains(t, blog["content"], "Based on recent research, AI is transforming content creation...")
	assert.Equal(t, 1500.0, blog["wordCount"])
	assert.Equal(t, "professional", blog["tone"])

	seo := res.Outputs["node-3"]
	assert.Equal(t, "How AI is Transforming Marketing | Ultimate Guide 2024", seo["optimizedTitle"])
	assert.Equal(t, "how-ai-is-transforming-marketing", seo["slug"])
	assert.Equal(t, 92.0, seo["seoScore"])
	assert.Equal(t, []any{"AI", "marketing", "automation"}, seo["keywords"])

	social := res.Outputs["node-4"]
	posts, ok := social["posts"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, posts["twitter"], "Read more: example.com/blog/how-ai-is-transforming-marketing")
	assert.Contains(t, posts["linkedin"], "# How AI is Transforming Marketing")
	assert.Equal(t, "2024-05-02T12:00:00.000Z", social["scheduledTime"])
	assert.Equal(t, []any{"twitter", "linkedin", "facebook"}, social["platforms"])
}

func TestMockDefaultsWithoutPreviousOutputs(t *testing.T) {
	execs := MockExecutors(instantMocks())

	out, err := executorByID(t, execs, AgentSEOOptimizer).Execute(context.Background(), types.FormData{})
	require.NoError(t, err)
	assert.Equal(t, "Blog Post | Ultimate Guide 2024", out["optimizedTitle"])
	assert.Equal(t, "blog-post", out["slug"])

	out, err = executorByID(t, execs, AgentSocialMedia).Execute(context.Background(), types.FormData{
		"platforms": []any{"twitter"},
	})
	require.NoError(t, err)
	posts := out["posts"].(map[string]any)
	assert.Contains(t, posts["linkedin"], "Read our comprehensive guide...")
	assert.NotContains(t, posts["twitter"], "Read more")
	assert.Equal(t, []any{"twitter"}, out["platforms"])

	out, err = executorByID(t, execs, AgentBlogWriter).Execute(context.Background(), types.FormData{"topic": "Launch"})
	require.NoError(t, err)
	assert.Equal(t, "Launch", out["title"])
	assert.Contains(t, out["content"], "AI is revolutionizing the industry")
}

func TestMockDelayHonoursCancellation(t *testing.T) {
	execs := MockExecutors(MockConfig{DelayScale: 1})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := executorByID(t, execs, AgentBlogWriter).Execute(ctx, types.FormData{})
	assert.ErrorIs(t, err, context.Canceled)
}

func TestMockConfigScaled(t *testing.T) {
	assert.Equal(t, time.Duration(0), MockConfig{}.scaled(mockBlogDelay))
	assert.Equal(t, 1500*time.Millisecond, MockConfig{DelayScale: 0.5}.scaled(mockBlogDelay))
	assert.Equal(t, mockSEODelay, DefaultMockConfig().scaled(mockSEODelay))
}

func TestSlugify(t *testing.T) {
	assert.Equal(t, "how-ai-is-transforming-marketing", Slugify("How AI is Transforming Marketing"))
	assert.Equal(t, "q3-launch-2024", Slugify("  Q3 Launch: 2024! "))
	assert.Equal(t, "", Slugify("!!!"))
}

// =============================================================================
// LLM 执行器
// =============================================================================

func TestLLMExecutors(t *testing.T) {
	gen := &scriptedGenerator{
		available: true,
		text:      "Intro line\n# The Real Title\n\nBody",
		json: map[string]any{
			"content researcher": map[string]any{"keyPoints": []any{"k1"}},
			"SEO expert":         map[string]any{"slug": "the-real-title", "seoScore": 85.0},
			"social media expert": map[string]any{
				"posts":    map[string]any{"twitter": "tw"},
				"hashtags": []any{"AI"},
			},
		},
	}
	reg, mode := NewRegistry(Options{
		Mode:      ModeAuto,
		Generator: gen,
		Mock:      MockConfig{Now: func() time.Time { return fixedNow }},
	})
	require.Equal(t, ModeGemini, mode)

	res, err := workflow.NewEngine(reg, nil).Run(context.Background(), workflow.SampleWorkflow(), nil)
	require.NoError(t, err)
	require.True(t, res.Success, "errors: %v", res.Errors)

	research := res.Outputs["node-1"]
	assert.Equal(t, map[string]any{"keyPoints": []any{"k1"}}, research["researchData"])
	assert.Equal(t, true, research["includeStatistics"])

	blog := res.Outputs["node-2"]
	assert.Equal(t, "The Real Title", blog["title"])
	assert.Equal(t, 1500.0, blog["wordCount"])
	// 研究结果被带入博客提示词
	assert.Contains(t, gen.prompts[1], "Research data to incorporate:\n{\n  \"keyPoints\": [\n    \"k1\"\n  ]\n}")

	assert.Equal(t, "the-real-title", res.Outputs["node-3"]["slug"])
	assert.Contains(t, gen.prompts[3], "URL: example.com/blog/the-real-title")

	social := res.Outputs["node-4"]
	assert.Equal(t, map[string]any{"twitter": "tw"}, social["posts"])
	assert.Equal(t, "2024-05-02T12:00:00.000Z", social["scheduledTime"])
}

func TestLLMExecutors_Errors(t *testing.T) {
	t.Run("unavailable", func(t *testing.T) {
		execs := LLMExecutors(&scriptedGenerator{}, nil)
		_, err := executorByID(t, execs, AgentContentResearch).Execute(context.Background(), types.FormData{})
		assert.True(t, types.IsErrorCode(err, types.ErrGenerationUnavailable))
		assert.Equal(t, "Gemini API key not configured", err.Error())
	})

	t.Run("invalid json halts pipeline", func(t *testing.T) {
		gen := &scriptedGenerator{available: true, json: map[string]any{}}
		reg, _ := NewRegistry(Options{Mode: ModeGemini, Generator: gen})
		res, err := workflow.NewEngine(reg, nil).Run(context.Background(), workflow.SampleWorkflow(), nil)
		require.NoError(t, err)
		assert.False(t, res.Success)
		assert.Equal(t, map[string]string{"node-1": "AI returned invalid JSON"}, res.Errors)
		assert.Empty(t, res.Outputs)
	})

	t.Run("non-object seo result", func(t *testing.T) {
		gen := &scriptedGenerator{available: true, json: map[string]any{"SEO expert": []any{1.0}}}
		_, err := executorByID(t, LLMExecutors(gen, nil), AgentSEOOptimizer).Execute(context.Background(), types.FormData{})
		assert.True(t, types.IsErrorCode(err, types.ErrInvalidJSON))
	})
}

// =============================================================================
// 模式选择
// =============================================================================

func TestParseMode(t *testing.T) {
	for in, want := range map[string]Mode{"": ModeAuto, "AUTO": ModeAuto, "gemini": ModeGemini, " mock ": ModeMock} {
		got, err := ParseMode(in)
		require.NoError(t, err)
		assert.Equal(t, want, got)
	}
	_, err := ParseMode("openai")
	assert.True(t, types.IsErrorCode(err, types.ErrValidation))
}

func TestResolve(t *testing.T) {
	assert.Equal(t, ModeMock, Resolve(ModeAuto, nil))
	assert.Equal(t, ModeMock, Resolve(ModeAuto, &scriptedGenerator{}))
	assert.Equal(t, ModeGemini, Resolve(ModeAuto, &scriptedGenerator{available: true}))
	assert.Equal(t, ModeGemini, Resolve(ModeGemini, nil))
	assert.Equal(t, ModeMock, Resolve(ModeMock, &scriptedGenerator{available: true}))
}

func TestNewRegistry_RegistersAllAgents(t *testing.T) {
	want := []string{AgentBlogWriter, AgentContentResearch, AgentSEOOptimizer, AgentSocialMedia}
	for _, mode := range []Mode{ModeMock, ModeGemini} {
		reg, _ := NewRegistry(Options{Mode: mode})
		assert.Equal(t, want, reg.IDs())
	}
}
