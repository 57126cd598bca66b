package catalog

import (
	"embed"
	"fmt"
	"path"
	"sort"
	"sync"

	"github.com/BaSui01/gtmflow/types"
)

// GlobalConfigID 全局配置 schema 的保留 ID，不作为可执行 Agent 出现在列表中。
const GlobalConfigID = "global-config"

//go:embed definitions/*.yaml
var definitionsFS embed.FS

// defaultOrder 是内置 GTM Agent 的展示顺序。
var defaultOrder = []string{
	"content-research",
	"blog-writer",
	"seo-optimizer",
	"social-media",
	"email-marketing",
	"ad-copy",
	"linkedin-post",
	"video-script",
	"landing-page",
	"case-study",
	"product-description",
}

// Catalog 静态 Agent Schema 注册表。构造后只读，可被多个 goroutine 共享。
type Catalog struct {
	agents map[string]*types.AgentSchema
	order  []string
	global *types.AgentSchema
}

// New 由一组 schema 构造目录。ID 为 GlobalConfigID 的 schema 作为全局配置 schema。
// 顺序按传入顺序保留。
func New(schemas ...*types.AgentSchema) (*Catalog, error) {
	c := &Catalog{agents: make(map[string]*types.AgentSchema, len(schemas))}
	for _, s := range schemas {
		if s == nil {
			continue
		}
		if s.ID == GlobalConfigID {
			c.global = s
			continue
		}
		if _, exists := c.agents[s.ID]; exists {
			return nil, fmt.Errorf("duplicate agent schema id %q", s.ID)
		}
		c.agents[s.ID] = s
		c.order = append(c.order, s.ID)
	}
	return c, nil
}

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Default 返回内置的 GTM Agent 目录（11 个 Agent + 全局配置 schema）。
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = loadEmbedded()
	})
	return defaultCatalog, defaultErr
}

// MustDefault 同 Default，失败时 panic（内置定义损坏属于构建错误）。
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(fmt.Sprintf("load built-in agent catalog: %v", err))
	}
	return c
}

func loadEmbedded() (*Catalog, error) {
	entries, err := definitionsFS.ReadDir("definitions")
	if err != nil {
		return nil, fmt.Errorf("read embedded definitions: %w", err)
	}

	loader := NewYAMLLoader()
	byID := make(map[string]*types.AgentSchema, len(entries))
	for _, entry := range entries {
		data, err := definitionsFS.ReadFile(path.Join("definitions", entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", entry.Name(), err)
		}
		s, err := loader.LoadBytes(data, detectFormat(entry.Name()))
		if err != nil {
			return nil, fmt.Errorf("load %s: %w", entry.Name(), err)
		}
		byID[s.ID] = s
	}

	ordered := make([]*types.AgentSchema, 0, len(byID))
	seen := make(map[string]bool, len(defaultOrder))
	for _, id := range defaultOrder {
		if s, ok := byID[id]; ok {
			ordered = append(ordered, s)
			seen[id] = true
		}
	}
	// 未列入 defaultOrder 的定义按 ID 排序追加
	var extra []string
	for id := range byID {
		if !seen[id] {
			extra = append(extra, id)
		}
	}
	sort.Strings(extra)
	for _, id := range extra {
		ordered = append(ordered, byID[id])
	}
	return New(ordered...)
}

// Get 按 ID 返回 Agent schema。
func (c *Catalog) Get(id string) (*types.AgentSchema, bool) {
	s, ok := c.agents[id]
	return s, ok
}

// List 按展示顺序返回所有 Agent schema。
func (c *Catalog) List() []*types.AgentSchema {
	out := make([]*types.AgentSchema, 0, len(c.order))
	for _, id := range c.order {
		out = append(out, c.agents[id])
	}
	return out
}

// IDs 按展示顺序返回所有 Agent ID。
func (c *Catalog) IDs() []string {
	return append([]string(nil), c.order...)
}

// Len 返回 Agent 数量。
func (c *Catalog) Len() int { return len(c.order) }

// GlobalConfigSchema 返回全局配置 schema；未定义时返回 nil。
func (c *Catalog) GlobalConfigSchema() *types.AgentSchema {
	return c.global
}
