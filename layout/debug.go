package layout

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
)

// debugDump 是调试 JSON 的顶层结构：布局结果之外附带每个文本框的折行摘要。
type debugDump struct {
	*Result
	Summary []textSummary `json:"summary"`
}

type textSummary struct {
	Name      string  `json:"name"`
	Lines     int     `json:"lines"`
	Overflow  bool    `json:"overflow,omitempty"`
	Truncated bool    `json:"truncated,omitempty"`
	Fill      float64 `json:"fill"`
}

// EncodeDebugJSON 将布局结果以缩进 JSON 写入 w。Fill 为文本框宽度与 max_width 之比，
// 超过 1 时标记 overflow（单个不可拆分的字符比 max_width 更宽）。
func EncodeDebugJSON(w io.Writer, res *Result) error {
	if res == nil {
		return fmt.Errorf("布局结果为空")
	}
	dump := debugDump{Result: res, Summary: make([]textSummary, 0, len(res.Texts))}
	for _, tb := range res.Texts {
		s := textSummary{Name: tb.Name, Lines: len(tb.Lines), Truncated: tb.Truncated}
		if tb.MaxWidth > 0 {
			s.Fill = tb.Width / tb.MaxWidth
			s.Overflow = s.Fill > 1
		}
		dump.Summary = append(dump.Summary, s)
	}
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	enc.SetEscapeHTML(false)
	return enc.Encode(dump)
}

// WriteDebugJSON 将布局结果输出为 JSON 文件，必要时创建目录。
func WriteDebugJSON(res *Result, path string) (err error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("创建调试目录失败: %w", err)
	}
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("创建调试文件失败: %w", err)
	}
	defer func() {
		if cerr := f.Close(); err == nil && cerr != nil {
			err = cerr
		}
	}()
	return EncodeDebugJSON(f, res)
}
