package fonts

import (
	"fmt"
	"sort"
	"strings"

	"github.com/go-fonts/latin-modern/lmmono10regular"
	"github.com/go-fonts/latin-modern/lmroman10regular"
	"github.com/go-fonts/latin-modern/lmsans10regular"
)

// Prefix 标记内置字体路径，例如 "builtin:latin-modern"。
const Prefix = "builtin:"

// Default 是样式未提供可用字体时的回退字体。
const Default = Prefix + "latin-modern"

var builtin = map[string][]byte{
	"latin-modern":      lmroman10regular.TTF,
	"latin-modern-sans": lmsans10regular.TTF,
	"latin-modern-mono": lmmono10regular.TTF,
}

// IsBuiltin 判断 path 是否指向内置字体。
func IsBuiltin(path string) bool {
	return strings.HasPrefix(path, Prefix)
}

// Load 返回内置字体的字节数据，path 可写为 "builtin:latin-modern" 或直接 "latin-modern"。
func Load(path string) ([]byte, error) {
	name := strings.TrimPrefix(path, Prefix)
	data, ok := builtin[name]
	if !ok {
		return nil, fmt.Errorf("读取内置字体 %s 失败: 可用字体为 %s", name, strings.Join(Names(), ", "))
	}
	return data, nil
}

// Names 列出全部内置字体名。
func Names() []string {
	out := make([]string, 0, len(builtin))
	for name := range builtin {
		out = append(out, name)
	}
	sort.Strings(out)
	return out
}
