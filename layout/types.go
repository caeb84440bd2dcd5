package layout

import "github.com/ByLCY/textboxer/expand"

// 该文件定义布局结果与资源描述，供布局计算、渲染与调试 JSON 共用。
// 坐标与尺寸统一以像素为单位，原点在左上角。

// Result 保存一次生成所需的全部绘制信息。
type Result struct {
	Style string `json:"style"`
	// Size 来自 images.basesize；为空时以第一张图片作为底图。
	Size   *Size                   `json:"size,omitempty"`
	Images []ImageBox              `json:"images"`
	Texts  []TextBox               `json:"texts"`
	Fonts  map[string]FontResource `json:"fonts"`
}

// Point 是像素坐标。
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Size 是像素尺寸。
type Size struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

// FontResource 描述已解析的字体；Path 为资源库内路径或 builtin:* 形式。
type FontResource struct {
	Name      string  `json:"name"`
	Path      string  `json:"path"`
	Size      float64 `json:"size"`
	Antialias bool    `json:"antialias"`
	Spacing   float64 `json:"spacing"`
}

// ImageBox 描述一张需要合成的图片。
type ImageBox struct {
	Name     string      `json:"name"`
	Type     string      `json:"type"`
	Path     string      `json:"path"`
	Position Point       `json:"position"`
	Resize   *ResizeSpec `json:"resize,omitempty"`
	Expand   *ExpandSpec `json:"expand,omitempty"`
}

// ResizeSpec 描述 static/dynamic 图片在合成前的整体缩放。
type ResizeSpec struct {
	Size   Size   `json:"size"`
	Filter string `json:"filter,omitempty"`
}

// ExpandSpec 描述九宫格拉伸的分割线与目标尺寸。
type ExpandSpec struct {
	Divide expand.Divide `json:"divide"`
	Size   Size          `json:"size"`
	Filter string        `json:"filter,omitempty"`
}

// TextBox 表示一个已经完成折行与测量的文本框。
type TextBox struct {
	Name       string    `json:"name"`
	Content    string    `json:"content"`
	Lines      []string  `json:"lines"`
	Font       string    `json:"font"`
	Anchor     Point     `json:"anchor"`
	AnchorType string    `json:"anchorType"`
	Align      string    `json:"align"`
	Color      string    `json:"color"`
	Width      float64   `json:"width"`
	Height     float64   `json:"height"`
	MaxWidth   float64   `json:"maxWidth"`
	Truncated  bool      `json:"truncated,omitempty"`
	Backdrop   *ImageBox `json:"backdrop,omitempty"`
}
