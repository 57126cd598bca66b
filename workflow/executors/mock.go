package executors

import (
	"context"
	"fmt"
	"time"

	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// 各 Mock 执行器模拟的耗时
const (
	mockResearchDelay = 2000 * time.Millisecond
	mockBlogDelay     = 3000 * time.Millisecond
	mockSEODelay      = 1500 * time.Millisecond
	mockSocialDelay   = 2000 * time.Millisecond
)

// MockConfig Mock 执行器配置
type MockConfig struct {
	// DelayScale 延迟缩放系数；1 为原始延迟，0 表示不等待。
	DelayScale float64
	// Now 时钟，nil 使用 time.Now。
	Now func() time.Time
}

// DefaultMockConfig 返回原始延迟配置
func DefaultMockConfig() MockConfig {
	return MockConfig{DelayScale: 1.0}
}

func (c MockConfig) now() time.Time {
	if c.Now != nil {
		return c.Now()
	}
	return time.Now()
}

func (c MockConfig) scaled(d time.Duration) time.Duration {
	if c.DelayScale <= 0 {
		return 0
	}
	return time.Duration(float64(d) * c.DelayScale)
}

// sleep 可被 ctx 取消的等待
func sleep(ctx context.Context, d time.Duration) error {
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

// MockExecutors 返回四个确定性 Mock 执行器。
func MockExecutors(cfg MockConfig) []types.Executor {
	return []types.Executor{
		workflow.NewFuncExecutor(AgentContentResearch, "Content Research", func(ctx context.Context, input types.FormData) (types.FormData, error) {
			if err := sleep(ctx, cfg.scaled(mockResearchDelay)); err != nil {
				return nil, err
			}
			return mockResearch(input), nil
		}),
		workflow.NewFuncExecutor(AgentBlogWriter, "Blog Writer", func(ctx context.Context, input types.FormData) (types.FormData, error) {
			if err := sleep(ctx, cfg.scaled(mockBlogDelay)); err != nil {
				return nil, err
			}
			return mockBlog(input), nil
		}),
		workflow.NewFuncExecutor(AgentSEOOptimizer, "SEO Optimizer", func(ctx context.Context, input types.FormData) (types.FormData, error) {
			if err := sleep(ctx, cfg.scaled(mockSEODelay)); err != nil {
				return nil, err
			}
			return mockSEO(input), nil
		}),
		workflow.NewFuncExecutor(AgentSocialMedia, "Social Media", func(ctx context.Context, input types.FormData) (types.FormData, error) {
			if err := sleep(ctx, cfg.scaled(mockSocialDelay)); err != nil {
				return nil, err
			}
			return mockSocial(input, cfg.now()), nil
		}),
	}
}

func mockResearch(input types.FormData) types.FormData {
	return types.FormData{
		"topic": input["topic"],
		"researchData": map[string]any{
			"keyPoints": []any{
				"AI is transforming content creation",
				"Marketing automation saves 6+ hours per week",
				"Personalization increases engagement by 42%",
			},
			"sources": []any{
				"Marketing AI Report 2024",
				"Content Marketing Institute",
				"HubSpot Marketing Statistics",
			},
			"statistics": map[string]any{
				"adoptionRate": "67% of marketers use AI",
				"roi":          "3.5x average ROI on AI marketing tools",
			},
		},
		"depth": valueOr(input["depth"], defaultDepth),
	}
}

func mockBlog(input types.FormData) types.FormData {
	title := input.String("topic", defaultBlogTopic)

	insight := "AI is revolutionizing the industry"
	research, _ := types.AsMap(previousOutput(input, researchNodeID)["researchData"])
	if points := types.FormData(research).Strings("keyPoints", nil); len(points) > 0 && points[0] != "" {
		insight = points[0]
	}

	content := fmt.Sprintf("# %s\n\nBased on recent research, %s...\n\n"+
		"## Key Insights\n\n"+
		"- Marketing teams are seeing significant productivity gains\n"+
		"- Personalization is driving higher engagement\n"+
		"- ROI on AI tools is compelling\n\n"+
		"## Conclusion\n\nThe future of marketing is here.", title, insight)

	return types.FormData{
		"title":     title,
		"content":   content,
		"wordCount": valueOr(input["wordCount"], defaultWordCount),
		"tone":      valueOr(input["tone"], defaultTone),
		"keywords":  types.CloneValue(valueOr(input["keywords"], stringsToAny(defaultKeywords))),
	}
}

func mockSEO(input types.FormData) types.FormData {
	blog := previousOutput(input, blogNodeID)

	return types.FormData{
		"optimizedTitle": blog.String("title", "Blog Post") + " | Ultimate Guide 2024",
		"metaDescription": "Discover how AI is transforming marketing with proven strategies and real-world examples. " +
			"Learn the latest trends and best practices.",
		"keywords": types.CloneValue(valueOr(blog["keywords"], stringsToAny(defaultKeywords))),
		"seoScore": 92.0,
		"recommendations": []any{
			"Add internal links to related content",
			"Include more long-tail keywords",
			"Optimize image alt text",
		},
		"slug": Slugify(blog.String("title", "blog-post")),
	}
}

func mockSocial(input types.FormData, now time.Time) types.FormData {
	blog := previousOutput(input, blogNodeID)
	seo := previousOutput(input, seoNodeID)

	preview := "Read our comprehensive guide"
	if content := blog.String("content", ""); content != "" {
		preview = truncate(content, 200)
	}
	readMore := ""
	if slug := seo.String("slug", ""); slug != "" {
		readMore = "Read more: example.com/blog/" + slug
	}

	return types.FormData{
		"platforms": types.CloneValue(valueOr(input["platforms"], stringsToAny(defaultPlatforms))),
		"posts": map[string]any{
			"twitter": fmt.Sprintf("🚀 %s\n\nDiscover how AI is transforming marketing in 2024\n\n%s",
				blog.String("title", "New blog post"), readMore),
			"linkedin": fmt.Sprintf("Excited to share our latest insights on AI in marketing! 🎯\n\n%s...\n\n"+
				"#AI #Marketing #DigitalTransformation", preview),
			"facebook": fmt.Sprintf("📢 New article alert!\n\n%s\n\n"+
				"We dive deep into how AI is reshaping the marketing landscape. Click to read more!",
				blog.String("title", "Check out our latest post")),
		},
		"scheduledTime": workflow.Timestamp(now.Add(scheduleOffset)),
		"hashtags":      stringsToAny(defaultHashtags),
	}
}
