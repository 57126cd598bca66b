package executors

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/BaSui01/gtmflow/llm/generate"
	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// LLMExecutors 返回由 Generator 驱动的四个执行器。now 为 nil 时使用 time.Now。
func LLMExecutors(gen generate.Generator, now func() time.Time) []types.Executor {
	if now == nil {
		now = time.Now
	}
	l := &llmFamily{gen: gen, now: now}
	return []types.Executor{
		workflow.NewFuncExecutor(AgentContentResearch, "Content Research", l.research),
		workflow.NewFuncExecutor(AgentBlogWriter, "Blog Writer", l.blog),
		workflow.NewFuncExecutor(AgentSEOOptimizer, "SEO Optimizer", l.seo),
		workflow.NewFuncExecutor(AgentSocialMedia, "Social Media", l.social),
	}
}

type llmFamily struct {
	gen generate.Generator
	now func() time.Time
}

func (l *llmFamily) ready() error {
	if l.gen == nil || !l.gen.Available() {
		return types.NewError(types.ErrGenerationUnavailable, "Gemini API key not configured")
	}
	return nil
}

// object 要求 JSON 结果顶层为对象
func object(res *generate.JSONResult) (types.FormData, error) {
	obj, ok := res.Object()
	if !ok {
		return nil, types.NewError(types.ErrInvalidJSON, "AI returned invalid JSON").WithRaw(res.Raw)
	}
	return obj, nil
}

// ====== Content Research ======

func (l *llmFamily) research(ctx context.Context, input types.FormData) (types.FormData, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	topic := input.String("topic", defaultResearchTopic)
	depth := input.String("depth", defaultDepth)
	includeStatistics := true
	if b, ok := input["includeStatistics"].(bool); ok && !b {
		includeStatistics = false
	}

	prompt := fmt.Sprintf(`You are a professional content researcher. Research the topic: "%s"

Depth level: %s
Include statistics: %t

Provide comprehensive research data including:
- 5-7 key points about this topic
- 3-5 credible sources
- Relevant statistics (if requested)

Return your response as a JSON object with this structure:
{
  "keyPoints": ["point 1", "point 2", ...],
  "sources": ["source 1", "source 2", ...],
  "statistics": {
    "stat1": "value",
    "stat2": "value"
  }
}`, topic, depth, includeStatistics)

	res, err := l.gen.GenerateJSON(ctx, prompt, "")
	if err != nil {
		return nil, err
	}

	return types.FormData{
		"topic":             topic,
		"researchData":      res.Value,
		"depth":             depth,
		"includeStatistics": includeStatistics,
	}, nil
}

// ====== Blog Writer ======

var markdownTitle = regexp.MustCompile(`(?m)^#[ \t]+(.+)$`)

func (l *llmFamily) blog(ctx context.Context, input types.FormData) (types.FormData, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	topic := input.String("topic", defaultBlogTopic)
	tone := input.String("tone", defaultTone)
	wordCount := input.Number("wordCount", defaultWordCount)
	keywords := input.Strings("keywords", defaultKeywords)

	researchContext := ""
	if data := valueOr(previousOutput(input, researchNodeID)["researchData"], nil); data != nil {
		pretty, err := json.MarshalIndent(data, "", "  ")
		if err == nil {
			researchContext = "\n\nResearch data to incorporate:\n" + string(pretty)
		}
	}

	prompt := fmt.Sprintf(`You are a professional blog writer. Write a comprehensive blog post on: "%s"

Requirements:
- Tone: %s
- Target word count: %g words
- Include these keywords naturally: %s
%s

Write an engaging blog post in Markdown format with:
- Compelling title
- Clear structure with headings
- Engaging introduction
- Well-developed body sections
- Strong conclusion

Return only the markdown content.`, topic, tone, wordCount, strings.Join(keywords, ", "), researchContext)

	content, err := l.gen.GenerateText(ctx, prompt)
	if err != nil {
		return nil, err
	}

	title := topic
	if m := markdownTitle.FindStringSubmatch(content); m != nil {
		title = strings.TrimSpace(m[1])
	}

	return types.FormData{
		"title":     title,
		"content":   content,
		"wordCount": wordCount,
		"tone":      tone,
		"keywords":  stringsToAny(keywords),
	}, nil
}

// ====== SEO Optimizer ======

func (l *llmFamily) seo(ctx context.Context, input types.FormData) (types.FormData, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	blog := previousOutput(input, blogNodeID)
	prompt := fmt.Sprintf(`You are an SEO expert. Optimize this blog post for search engines:

Title: %s
Content: %s...
Keywords: %s

Provide SEO optimization data as JSON:
{
  "optimizedTitle": "SEO-friendly title with primary keyword",
  "metaDescription": "compelling 150-160 char meta description",
  "keywords": ["keyword1", "keyword2", ...],
  "seoScore": 85,
  "recommendations": ["rec1", "rec2", ...],
  "slug": "url-friendly-slug"
}`,
		blog.String("title", "Blog Post"),
		truncate(blog.String("content", ""), 500),
		strings.Join(blog.Strings("keywords", []string{"AI", "marketing"}), ", "))

	res, err := l.gen.GenerateJSON(ctx, prompt, "")
	if err != nil {
		return nil, err
	}
	return object(res)
}

// ====== Social Media ======

func (l *llmFamily) social(ctx context.Context, input types.FormData) (types.FormData, error) {
	if err := l.ready(); err != nil {
		return nil, err
	}

	blog := previousOutput(input, blogNodeID)
	seo := previousOutput(input, seoNodeID)
	platforms := input.Strings("platforms", defaultPlatforms)

	prompt := fmt.Sprintf(`You are a social media expert. Create engaging social media posts for this blog:

Title: %s
Content: %s...
URL: example.com/blog/%s

Create posts for: %s

Requirements:
- Twitter: Max 280 characters, engaging hook
- LinkedIn: Professional, 1-3 paragraphs, hashtags
- Facebook: Casual, conversational, with emoji

Return as JSON:
{
  "posts": {
    "twitter": "post content",
    "linkedin": "post content",
    "facebook": "post content"
  },
  "hashtags": ["hashtag1", "hashtag2", ...]
}`,
		blog.String("title", "New Blog Post"),
		truncate(blog.String("content", ""), 300),
		seo.String("slug", "blog-post"),
		strings.Join(platforms, ", "))

	res, err := l.gen.GenerateJSON(ctx, prompt, "")
	if err != nil {
		return nil, err
	}
	data, err := object(res)
	if err != nil {
		return nil, err
	}

	return types.FormData{
		"platforms":     stringsToAny(platforms),
		"posts":         data["posts"],
		"hashtags":      data["hashtags"],
		"scheduledTime": workflow.Timestamp(l.now().Add(scheduleOffset)),
	}, nil
}
