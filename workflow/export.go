package workflow

import (
	"regexp"
	"strings"

	"github.com/BaSui01/gtmflow/types"
)

var whitespaceRun = regexp.MustCompile(`\s+`)

// ExportFilename 由显示名生成导出文件名：小写，空白折叠为连字符，加 .json 后缀。
func ExportFilename(wf *types.Workflow) string {
	name := ""
	if wf != nil {
		name = strings.TrimSpace(wf.Name)
		if name == "" {
			name = wf.ID
		}
	}
	if name == "" {
		name = "workflow"
	}
	return whitespaceRun.ReplaceAllString(strings.ToLower(name), "-") + ".json"
}
