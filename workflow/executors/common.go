package executors

import (
	"regexp"
	"strings"
	"time"

	"github.com/BaSui01/gtmflow/types"
	"github.com/BaSui01/gtmflow/workflow"
)

// Agent 类型 ID
const (
	AgentContentResearch = "content-research"
	AgentBlogWriter      = "blog-writer"
	AgentSEOOptimizer    = "seo-optimizer"
	AgentSocialMedia     = "social-media"
)

// 流水线内节点约定：博客读取 node-1 的研究结果，SEO/社交读取 node-2、node-3。
const (
	researchNodeID = "node-1"
	blogNodeID     = "node-2"
	seoNodeID      = "node-3"
)

const (
	defaultResearchTopic = "AI in Marketing"
	defaultBlogTopic     = "How AI is Transforming Marketing"
	defaultTone          = "professional"
	defaultDepth         = "standard"
	defaultWordCount     = 1500.0
)

var (
	defaultKeywords  = []string{"AI", "marketing", "automation"}
	defaultPlatforms = []string{"twitter", "linkedin", "facebook"}
	defaultHashtags  = []string{"AI", "Marketing", "ContentMarketing", "DigitalMarketing"}
)

// scheduleOffset 社交帖子默认排期：一天后
const scheduleOffset = 24 * time.Hour

// valueOr 值为空（nil、""、false、0）时返回 fallback。
func valueOr(v any, fallback any) any {
	switch x := v.(type) {
	case nil:
		return fallback
	case string:
		if x == "" {
			return fallback
		}
	case bool:
		if !x {
			return fallback
		}
	case float64:
		if x == 0 {
			return fallback
		}
	case int:
		if x == 0 {
			return fallback
		}
	}
	return v
}

func stringsToAny(in []string) []any {
	out := make([]any, len(in))
	for i, s := range in {
		out[i] = s
	}
	return out
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify 小写并把非字母数字串替换为 "-"，去掉首尾连字符。
func Slugify(title string) string {
	s := slugPattern.ReplaceAllString(strings.ToLower(title), "-")
	return strings.Trim(s, "-")
}

// truncate 按字符截断
func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

// previousOutput 取先前节点输出，缺失时返回空表单。
func previousOutput(input types.FormData, nodeID string) types.FormData {
	out, ok := workflow.PreviousOutput(input, nodeID)
	if !ok {
		return types.FormData{}
	}
	return out
}
