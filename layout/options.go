package layout

// BuildOptions 配置布局阶段所需的依赖，例如排版后端。
type BuildOptions struct {
	Typesetter Typesetter
	// Style 是样式名，仅写入 Result 供调试输出。
	Style string
	// StyleDir 是样式在资源库中的根目录，字体与图片的 basepath 相对于它。
	StyleDir string
	// Filter 是九宫格拉伸未指定 filter 时使用的缩放算法名。
	Filter string
}

// Request 是本次生成的输入：文本框内容与已解析的动态图片路径。
type Request struct {
	// Text 以文本框名为键。
	Text map[string]string
	// ImagePaths 以图片名为键，值为资源库内的完整路径。
	ImagePaths map[string]string
}

// Typesetter 负责文本度量，是折行算法唯一依赖的宽度来源。
type Typesetter interface {
	// TextWidth 返回单行文本的前进宽度（像素）。
	TextWidth(text string, font FontResource) (float64, error)
	// MeasureBox 返回多行文本（以 LineBreak 分隔，行距含 font.Spacing）的包围尺寸。
	MeasureBox(text string, font FontResource) (width, height float64, err error)
}
