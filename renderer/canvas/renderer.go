package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"log/slog"
	"math"
	"regexp"
	"strings"
	"sync"

	"github.com/tdewolff/canvas"
	"github.com/tdewolff/canvas/renderers/rasterizer"
	"golang.org/x/image/colornames"
	"golang.org/x/image/draw"

	"github.com/ByLCY/textboxer/expand"
	"github.com/ByLCY/textboxer/fonts"
	"github.com/ByLCY/textboxer/layout"
	"github.com/ByLCY/textboxer/renderer"
)

// 画布以毫米为单位，按 1 像素/毫米栅格化，因此布局中的像素值可直接用作画布坐标；
// 字号需要从像素（即毫米）换算为 pt。
const mmToPt = 1 / 0.352777

// alphaThreshold 是关闭抗锯齿时保留像素的最小 alpha。
const alphaThreshold = 0x80

// Assets 提供图片与字体文件的字节数据，store.Store 满足该接口。
type Assets interface {
	ReadFile(name string) ([]byte, error)
}

// Renderer draws layout results via github.com/tdewolff/canvas and composites
// them with golang.org/x/image/draw.
type Renderer struct {
	assets Assets
	filter string
	logger *slog.Logger

	fontMu         sync.Mutex
	fontFamilies   map[string]*canvas.FontFamily
	fallbackFamily *canvas.FontFamily
}

var (
	_ renderer.Renderer = (*Renderer)(nil)
	_ layout.Typesetter = (*Renderer)(nil)
)

// Options configures the canvas renderer.
type Options struct {
	Assets Assets
	// Filter is the resize filter used when an image names none.
	Filter string
	Logger *slog.Logger
}

// NewRenderer creates a renderer that reads assets from the given source.
func NewRenderer(assets Assets) *Renderer { return NewRendererWithOptions(Options{Assets: assets}) }

// NewRendererWithOptions creates a renderer from opts.
func NewRendererWithOptions(opts Options) *Renderer {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	filter := opts.Filter
	if filter == "" {
		filter = expand.DefaultFilter
	}
	return &Renderer{
		assets:       opts.Assets,
		filter:       filter,
		logger:       logger,
		fontFamilies: map[string]*canvas.FontFamily{},
	}
}

// Render composites the images and text boxes of result into one RGBA image.
// Without an explicit base size the first image is the base and its position
// is ignored.
func (r *Renderer) Render(result *layout.Result) (*image.RGBA, error) {
	if result == nil {
		return nil, fmt.Errorf("渲染结果为空")
	}

	images := result.Images
	var composite *image.RGBA
	if result.Size != nil {
		composite = image.NewRGBA(image.Rect(0, 0, result.Size.Width, result.Size.Height))
	} else {
		if len(images) == 0 {
			return nil, fmt.Errorf("缺少底图：既没有 basesize 也没有图片")
		}
		base, err := r.loadImageBox(images[0])
		if err != nil {
			return nil, err
		}
		composite = image.NewRGBA(image.Rect(0, 0, base.Bounds().Dx(), base.Bounds().Dy()))
		draw.Copy(composite, image.Point{}, base, base.Bounds(), draw.Src, nil)
		images = images[1:]
	}

	for _, box := range images {
		if err := r.pasteImage(composite, box); err != nil {
			return nil, err
		}
	}
	for _, tb := range result.Texts {
		if tb.Backdrop != nil {
			if err := r.pasteImage(composite, *tb.Backdrop); err != nil {
				return nil, err
			}
		}
		font, ok := result.Fonts[tb.Font]
		if !ok {
			return nil, fmt.Errorf("文本框 %s 引用了未定义的字体 %s", tb.Name, tb.Font)
		}
		if err := r.drawTextBox(composite, tb, font); err != nil {
			return nil, fmt.Errorf("绘制文本框 %s 失败: %w", tb.Name, err)
		}
	}
	return composite, nil
}

// pasteImage alpha-composites box onto dst at its position, clipped to dst.
func (r *Renderer) pasteImage(dst *image.RGBA, box layout.ImageBox) error {
	img, err := r.loadImageBox(box)
	if err != nil {
		return err
	}
	b := img.Bounds()
	at := image.Pt(int(math.Round(box.Position.X)), int(math.Round(box.Position.Y)))
	draw.Draw(dst, image.Rectangle{Min: at, Max: at.Add(b.Size())}, img, b.Min, draw.Over)
	return nil
}

// loadImageBox decodes the image of box and applies its resize or nine-slice expansion.
func (r *Renderer) loadImageBox(box layout.ImageBox) (image.Image, error) {
	img, err := r.LoadImage(box.Path)
	if err != nil {
		return nil, fmt.Errorf("加载图片 %s 失败: %w", box.Name, err)
	}
	switch {
	case box.Expand != nil:
		spec := box.Expand
		out, err := expand.Expand(img, spec.Divide, spec.Size.Width, spec.Size.Height, expand.Interpolator(spec.Filter, r.filter))
		if err != nil {
			return nil, fmt.Errorf("拉伸图片 %s 失败: %w", box.Name, err)
		}
		return out, nil
	case box.Resize != nil:
		return r.Resize(img, box.Resize.Size.Width, box.Resize.Size.Height, box.Resize.Filter), nil
	default:
		return img, nil
	}
}

// LoadImage decodes a PNG, GIF or JPEG asset.
func (r *Renderer) LoadImage(path string) (image.Image, error) {
	if r.assets == nil {
		return nil, fmt.Errorf("未配置资源来源，无法读取 %s", path)
	}
	data, err := r.assets.ReadFile(path)
	if err != nil {
		return nil, err
	}
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, fmt.Errorf("解码图片 %s 失败: %w", path, err)
	}
	return img, nil
}

// Resize scales img to w×h with the named filter.
func (r *Renderer) Resize(img image.Image, w, h int, filter string) *image.RGBA {
	out := image.NewRGBA(image.Rect(0, 0, w, h))
	expand.Interpolator(filter, r.filter).Scale(out, out.Bounds(), img, img.Bounds(), draw.Src, nil)
	return out
}

// TextWidth 实现 layout.Typesetter，返回单行文本的前进宽度（像素）。
func (r *Renderer) TextWidth(text string, font layout.FontResource) (float64, error) {
	face, err := r.fontFace(font, canvas.Black)
	if err != nil {
		return 0, err
	}
	return face.TextWidth(text), nil
}

// MeasureBox 实现 layout.Typesetter：宽度取最宽行，高度为各行 ascent+descent 之和加行间 spacing。
func (r *Renderer) MeasureBox(text string, font layout.FontResource) (float64, float64, error) {
	face, err := r.fontFace(font, canvas.Black)
	if err != nil {
		return 0, 0, err
	}
	lines := strings.Split(text, layout.LineBreak)
	width := 0.0
	for _, line := range lines {
		width = math.Max(width, face.TextWidth(line))
	}
	ascent, descent := faceExtents(face)
	n := float64(len(lines))
	return width, n*(ascent+descent) + (n-1)*font.Spacing, nil
}

func faceExtents(face *canvas.FontFace) (ascent, descent float64) {
	m := face.Metrics()
	return math.Abs(m.Ascent), math.Abs(m.Descent)
}

// drawTextBox 在与 dst 等大的透明画布上绘制文本，栅格化后叠加到 dst。
func (r *Renderer) drawTextBox(dst *image.RGBA, tb layout.TextBox, font layout.FontResource) error {
	col, err := ParseColor(tb.Color)
	if err != nil {
		return err
	}
	face, err := r.fontFace(font, col)
	if err != nil {
		return err
	}

	size := dst.Bounds().Size()
	c := canvas.New(float64(size.X), float64(size.Y))
	ctx := canvas.NewContext(c)
	ctx.SetCoordSystem(canvas.CartesianIV) // 使坐标与布局保持左上角为原点

	ascent, descent := faceExtents(face)
	left, top := blockOrigin(tb, ascent)
	lines := tb.Lines
	if len(lines) == 0 {
		lines = strings.Split(tb.Content, layout.LineBreak)
	}
	for i, line := range lines {
		if line == "" {
			continue
		}
		x := left + layout.AlignOffset(tb.Width, face.TextWidth(line), tb.Align)
		baseline := top + ascent + float64(i)*(ascent+descent+font.Spacing)
		ctx.DrawText(x, baseline, canvas.NewTextLine(face, line, canvas.Left))
	}

	layer := rasterizer.Draw(c, canvas.DPMM(1), canvas.DefaultColorSpace)
	if !font.Antialias {
		threshold(layer, col)
	}
	draw.Draw(dst, dst.Bounds(), layer, layer.Bounds().Min, draw.Over)
	return nil
}

// blockOrigin 按两字母锚点类型求文本块左上角：首字母为水平 l/m/r，次字母为垂直
// a/t（顶）、m（中）、s（首行基线）、b/d（底）。
func blockOrigin(tb layout.TextBox, ascent float64) (float64, float64) {
	anchor := tb.AnchorType
	if !layout.ValidAnchorType(anchor) {
		anchor = "la"
	}
	left, top := tb.Anchor.X, tb.Anchor.Y
	switch anchor[0] {
	case 'm':
		left -= tb.Width / 2
	case 'r':
		left -= tb.Width
	}
	switch anchor[1] {
	case 'm':
		top -= tb.Height / 2
	case 's':
		top -= ascent
	case 'b', 'd':
		top -= tb.Height
	}
	return left, top
}

// threshold 把半透明像素二值化，模拟关闭抗锯齿的位图字体效果。
func threshold(img *image.RGBA, col color.Color) {
	solid := color.RGBAModel.Convert(col).(color.RGBA)
	solid.A = 0xff
	b := img.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			if img.RGBAAt(x, y).A >= alphaThreshold {
				img.SetRGBA(x, y, solid)
			} else {
				img.SetRGBA(x, y, color.RGBA{})
			}
		}
	}
}

var hexColor = regexp.MustCompile(`^#(?:[0-9a-fA-F]{3,4}|[0-9a-fA-F]{6}|[0-9a-fA-F]{8})$`)

// ParseColor 接受 SVG 颜色名（white、gold 等）或 #rgb/#rgba/#rrggbb/#rrggbbaa。
func ParseColor(v string) (color.Color, error) {
	v = strings.TrimSpace(v)
	if c, ok := colornames.Map[strings.ToLower(v)]; ok {
		return c, nil
	}
	if hexColor.MatchString(v) {
		return canvas.Hex(v), nil
	}
	return nil, fmt.Errorf("无法解析颜色 %q", v)
}

func (r *Renderer) fontFace(font layout.FontResource, col color.Color) (*canvas.FontFace, error) {
	family, err := r.ensureFontFamily(font)
	if err != nil {
		return nil, err
	}
	// 字号以像素给出，而画布单位为毫米（1px = 1mm），Face 需要 pt
	return family.Face(toPt(font.Size), col, canvas.FontRegular, canvas.FontNormal), nil
}

func (r *Renderer) ensureFontFamily(font layout.FontResource) (*canvas.FontFamily, error) {
	r.fontMu.Lock()
	defer r.fontMu.Unlock()

	if family, ok := r.fontFamilies[font.Path]; ok {
		return family, nil
	}

	family := canvas.NewFontFamily(font.Name)
	if err := r.loadFontIntoFamily(family, font); err != nil {
		fallback, fbErr := r.fallback()
		if fbErr != nil {
			return nil, err
		}
		r.logger.Warn("字体加载失败，使用内置字体", "font", font.Name, "path", font.Path, "err", err)
		r.fontFamilies[font.Path] = fallback
		return fallback, nil
	}
	r.fontFamilies[font.Path] = family
	return family, nil
}

func (r *Renderer) loadFontIntoFamily(family *canvas.FontFamily, font layout.FontResource) error {
	data, err := r.loadFontBytes(font)
	if err != nil {
		return err
	}
	return family.LoadFont(data, 0, canvas.FontRegular)
}

func (r *Renderer) loadFontBytes(font layout.FontResource) ([]byte, error) {
	if font.Path == "" {
		return nil, fmt.Errorf("字体 %s 缺少 path", font.Name)
	}
	if fonts.IsBuiltin(font.Path) {
		return fonts.Load(font.Path)
	}
	if r.assets == nil {
		return nil, fmt.Errorf("未配置资源来源时只能使用内置字体：%s", font.Path)
	}
	return r.assets.ReadFile(font.Path)
}

// fallback 调用方须持有 fontMu。
func (r *Renderer) fallback() (*canvas.FontFamily, error) {
	if r.fallbackFamily != nil {
		return r.fallbackFamily, nil
	}
	data, err := fonts.Load(fonts.Default)
	if err != nil {
		return nil, err
	}
	family := canvas.NewFontFamily("textboxer-fallback")
	if err := family.LoadFont(data, 0, canvas.FontRegular); err != nil {
		return nil, err
	}
	r.fallbackFamily = family
	return family, nil
}

func toPt(px float64) float64 { return px * mmToPt }
