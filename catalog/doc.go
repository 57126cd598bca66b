/*
Package catalog 提供内置 GTM Agent 的静态 Schema 目录。

定义以 YAML 文件形式嵌入二进制（definitions/*.yaml），启动时由 YAMLLoader
解析为 types.AgentSchema。目录构造后只读。

# 内置 Agent

content-research、blog-writer、seo-optimizer、social-media、email-marketing、
ad-copy、linkedin-post、video-script、landing-page、case-study、
product-description，以及保留 ID 为 global-config 的全局配置 schema。

# 典型用法

	c := catalog.MustDefault()
	schema, ok := c.Get("blog-writer")

	custom, err := catalog.NewYAMLLoader().LoadFile("my-agent.yaml")
	c2, err := catalog.New(custom)
*/
package catalog
