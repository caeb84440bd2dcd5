package renderer

import (
	"image"

	"github.com/ByLCY/textboxer/layout"
)

// Renderer 将布局结果合成为最终图像。
type Renderer interface {
	Render(result *layout.Result) (*image.RGBA, error)
}
