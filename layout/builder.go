package layout

import (
	"fmt"
	"math"
	"path"
	"sort"
	"strings"

	"github.com/ByLCY/textboxer/document"
	"github.com/ByLCY/textboxer/expand"
	"github.com/ByLCY/textboxer/fonts"
)

const (
	defaultSpacing    = 4.0
	defaultColor      = "white"
	defaultAlign      = "left"
	defaultAnchorType = "la"

	// 图片类型
	TypeStatic  = "static"
	TypeDynamic = "dynamic"
	TypeExpand  = "expand"

	// expand 图片的尺寸来源
	ExpandStatic  = "static"
	ExpandTextbox = "textbox"

	lineWrapCut = "cut"
)

// Build 根据解析完成的样式文档生成图片、文本框与字体的布局结果。
// 文本在此阶段完成折行、截断与测量；textbox 模式的九宫格图片按所绑定文本框的尺寸定型。
func Build(doc document.Document, req Request, opts BuildOptions) (*Result, error) {
	if doc == nil {
		return nil, fmt.Errorf("文档为空")
	}
	if opts.Typesetter == nil {
		return nil, fmt.Errorf("layout: 缺少排版后端 Typesetter")
	}
	if opts.Filter == "" {
		opts.Filter = expand.DefaultFilter
	}

	faces, err := buildFonts(doc, opts.StyleDir)
	if err != nil {
		return nil, err
	}
	images, deferred, size, err := buildImages(doc, req, opts)
	if err != nil {
		return nil, err
	}
	texts, err := buildTexts(doc, req, faces, deferred, opts.Typesetter)
	if err != nil {
		return nil, err
	}

	return &Result{
		Style:  opts.Style,
		Size:   size,
		Images: images,
		Texts:  texts,
		Fonts:  faces,
	}, nil
}

// namedEntry 是某个段落下的一个具名子文档。
type namedEntry struct {
	name  string
	layer int
	doc   document.Document
}

// orderedEntries 返回 section 下的具名条目，按 layer 升序、同层按名称排序。
// basepath 等标量键不属于条目。
func orderedEntries(doc document.Document, section string) ([]namedEntry, document.Document, error) {
	if !doc.Has(section) {
		return nil, document.Document{}, nil
	}
	sub, err := doc.Sub(section)
	if err != nil {
		return nil, nil, err
	}
	var out []namedEntry
	for name, entry := range sub.Entries() {
		layer, err := entry.IntOr("layer", 0)
		if err != nil {
			return nil, nil, document.Prefix(err, section+"."+name)
		}
		out = append(out, namedEntry{name: name, layer: layer, doc: entry})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].layer != out[j].layer {
			return out[i].layer < out[j].layer
		}
		return out[i].name < out[j].name
	})
	return out, sub, nil
}

func buildFonts(doc document.Document, styleDir string) (map[string]FontResource, error) {
	entries, section, err := orderedEntries(doc, "fonts")
	if err != nil {
		return nil, err
	}
	basepath, err := section.StringOr("basepath", "")
	if err != nil {
		return nil, document.Prefix(err, "fonts")
	}
	faces := make(map[string]FontResource, len(entries))
	for _, e := range entries {
		font, err := parseFontResource(e.name, e.doc, path.Join(styleDir, basepath))
		if err != nil {
			return nil, document.Prefix(err, "fonts."+e.name)
		}
		faces[e.name] = font
	}
	return faces, nil
}

func parseFontResource(name string, d document.Document, dir string) (FontResource, error) {
	p, err := d.String("path")
	if err != nil {
		return FontResource{}, err
	}
	if !fonts.IsBuiltin(p) {
		p = path.Join(dir, p)
	}
	size, err := d.Float("size")
	if err != nil {
		return FontResource{}, err
	}
	if size <= 0 {
		return FontResource{}, &document.ConfigError{Path: "size", Reason: fmt.Sprintf("字号必须为正数，实际为 %g", size)}
	}
	antialias, err := d.BoolOr("antialias", true)
	if err != nil {
		return FontResource{}, err
	}
	spacing, err := d.FloatOr("spacing", defaultSpacing)
	if err != nil {
		return FontResource{}, err
	}
	return FontResource{Name: name, Path: p, Size: size, Antialias: antialias, Spacing: spacing}, nil
}

// buildImages 解析 images 段落。textbox 模式的九宫格图片以其绑定的文本框名为键返回，
// 由 buildTexts 在测量文本后补全尺寸。
func buildImages(doc document.Document, req Request, opts BuildOptions) ([]ImageBox, map[string]deferredImage, *Size, error) {
	entries, section, err := orderedEntries(doc, "images")
	if err != nil {
		return nil, nil, nil, err
	}
	basepath, err := section.StringOr("basepath", "")
	if err != nil {
		return nil, nil, nil, document.Prefix(err, "images")
	}
	dir := path.Join(opts.StyleDir, basepath)

	var size *Size
	if section.Has("basesize") {
		wh, err := section.Ints("basesize", 2)
		if err != nil {
			return nil, nil, nil, document.Prefix(err, "images")
		}
		if wh[0] <= 0 || wh[1] <= 0 {
			return nil, nil, nil, &document.ConfigError{Path: "images.basesize", Reason: fmt.Sprintf("底图尺寸必须为正数，实际为 %dx%d", wh[0], wh[1])}
		}
		size = &Size{Width: wh[0], Height: wh[1]}
	}

	var images []ImageBox
	deferred := make(map[string]deferredImage)
	for _, e := range entries {
		prefix := "images." + e.name
		img, bound, err := parseImage(e.name, e.doc, dir, req, opts.Filter)
		if err != nil {
			return nil, nil, nil, document.Prefix(err, prefix)
		}
		if bound != nil {
			if _, dup := deferred[bound.textbox]; dup {
				return nil, nil, nil, &document.ConfigError{Path: prefix + ".textbox", Reason: fmt.Sprintf("文本框 %s 已绑定了另一张九宫格图片", bound.textbox)}
			}
			deferred[bound.textbox] = *bound
			continue
		}
		images = append(images, img)
	}
	if size == nil && len(images) == 0 {
		return nil, nil, nil, &document.ConfigError{Path: "images", Reason: "既没有 basesize 也没有可作为底图的图片"}
	}
	return images, deferred, size, nil
}

// deferredImage 是尺寸取决于文本框的九宫格图片。
type deferredImage struct {
	box      ImageBox
	textbox  string
	bindX    bool
	bindY    bool
	sizeMod  [2]int
	baseSize Size
}

func parseImage(name string, d document.Document, dir string, req Request, filter string) (ImageBox, *deferredImage, error) {
	kind, err := d.String("type")
	if err != nil {
		return ImageBox{}, nil, err
	}
	img := ImageBox{Name: name, Type: kind}
	if d.Has("position") {
		pos, err := d.Ints("position", 2)
		if err != nil {
			return ImageBox{}, nil, err
		}
		img.Position = Point{X: float64(pos[0]), Y: float64(pos[1])}
	}

	switch kind {
	case TypeStatic:
		p, err := d.String("path")
		if err != nil {
			return ImageBox{}, nil, err
		}
		img.Path = path.Join(dir, p)
		return withResize(img, d, filter)
	case TypeDynamic:
		p, ok := req.ImagePaths[name]
		if !ok || p == "" {
			return ImageBox{}, nil, &document.ConfigError{Reason: "动态图片没有解析到资源路径"}
		}
		img.Path = p
		return withResize(img, d, filter)
	case TypeExpand:
		return parseExpand(img, d, dir, filter)
	default:
		return ImageBox{}, nil, &document.ConfigError{Path: "type", Reason: fmt.Sprintf("未知的图片类型 %q", kind)}
	}
}

// withResize 读取可选的 size 键，static/dynamic 图片据此整体缩放。
func withResize(img ImageBox, d document.Document, filter string) (ImageBox, *deferredImage, error) {
	if !d.Has("size") {
		return img, nil, nil
	}
	wh, err := d.Ints("size", 2)
	if err != nil {
		return ImageBox{}, nil, err
	}
	if wh[0] <= 0 || wh[1] <= 0 {
		return ImageBox{}, nil, &document.ConfigError{Path: "size", Reason: fmt.Sprintf("缩放尺寸必须为正数，实际为 %dx%d", wh[0], wh[1])}
	}
	if filter, err = d.StringOr("filter", filter); err != nil {
		return ImageBox{}, nil, err
	}
	img.Resize = &ResizeSpec{Size: Size{Width: wh[0], Height: wh[1]}, Filter: filter}
	return img, nil, nil
}

func parseExpand(img ImageBox, d document.Document, dir, filter string) (ImageBox, *deferredImage, error) {
	p, err := d.String("path")
	if err != nil {
		return ImageBox{}, nil, err
	}
	img.Path = path.Join(dir, p)
	div, err := d.Ints("divide", 4)
	if err != nil {
		return ImageBox{}, nil, err
	}
	if filter, err = d.StringOr("filter", filter); err != nil {
		return ImageBox{}, nil, err
	}
	spec := &ExpandSpec{
		Divide: expand.Divide{X1: div[0], X2: div[1], Y1: div[2], Y2: div[3]},
		Filter: filter,
	}
	img.Expand = spec

	mode, err := d.StringOr("mode", ExpandStatic)
	if err != nil {
		return ImageBox{}, nil, err
	}
	switch mode {
	case ExpandStatic:
		wh, err := d.Ints("size", 2)
		if err != nil {
			return ImageBox{}, nil, err
		}
		spec.Size = Size{Width: wh[0], Height: wh[1]}
		return img, nil, nil
	case ExpandTextbox:
		return parseBoundExpand(img, d)
	default:
		return ImageBox{}, nil, &document.ConfigError{Path: "mode", Reason: fmt.Sprintf("未知的 expand 模式 %q", mode)}
	}
}

func parseBoundExpand(img ImageBox, d document.Document) (ImageBox, *deferredImage, error) {
	textbox, err := d.String("textbox")
	if err != nil {
		return ImageBox{}, nil, err
	}
	bound := &deferredImage{textbox: textbox}
	axes, err := bindAxes(d)
	if err != nil {
		return ImageBox{}, nil, err
	}
	bound.bindX = strings.Contains(axes, "x")
	bound.bindY = strings.Contains(axes, "y")
	if d.Has("sizemod") {
		mod, err := d.Ints("sizemod", 2)
		if err != nil {
			return ImageBox{}, nil, err
		}
		bound.sizeMod = [2]int{mod[0], mod[1]}
	}
	if d.Has("size") {
		wh, err := d.Ints("size", 2)
		if err != nil {
			return ImageBox{}, nil, err
		}
		bound.baseSize = Size{Width: wh[0], Height: wh[1]}
	} else if !bound.bindX || !bound.bindY {
		return ImageBox{}, nil, &document.ConfigError{Path: "size", Reason: "未绑定到文本框的轴需要固定尺寸"}
	}
	bound.box = img
	return img, bound, nil
}

// bindAxes 接受 "xy" 形式的字符串或 ["x", "y"] 形式的列表。
func bindAxes(d document.Document) (string, error) {
	if !d.Has("bind_axes") {
		return "", &document.ConfigError{Path: "bind_axes", Reason: "缺少必需的键"}
	}
	if s, err := d.String("bind_axes"); err == nil {
		return s, nil
	}
	list, err := d.Strings("bind_axes")
	if err != nil {
		return "", err
	}
	return strings.Join(list, ""), nil
}

// size 按测量得到的文本框尺寸计算九宫格目标尺寸。
func (b deferredImage) size(textW, textH float64) Size {
	s := b.baseSize
	if b.bindX {
		s.Width = int(math.Ceil(textW)) + b.sizeMod[0]
	}
	if b.bindY {
		s.Height = int(math.Ceil(textH)) + b.sizeMod[1]
	}
	return s
}

func buildTexts(doc document.Document, req Request, faces map[string]FontResource, deferred map[string]deferredImage, ts Typesetter) ([]TextBox, error) {
	entries, _, err := orderedEntries(doc, "textboxes")
	if err != nil {
		return nil, err
	}
	texts := make([]TextBox, 0, len(entries))
	seen := make(map[string]bool, len(entries))
	for _, e := range entries {
		prefix := "textboxes." + e.name
		content, ok := req.Text[e.name]
		if !ok {
			return nil, &document.ConfigError{Path: prefix, Reason: "没有为该文本框提供文本"}
		}
		tb, err := composeTextBox(e.name, e.doc, content, faces, ts)
		if err != nil {
			return nil, document.Prefix(err, prefix)
		}
		if bound, ok := deferred[e.name]; ok {
			backdrop := bound.box
			spec := *backdrop.Expand
			spec.Size = bound.size(tb.Width, tb.Height)
			backdrop.Expand = &spec
			tb.Backdrop = &backdrop
		}
		seen[e.name] = true
		texts = append(texts, tb)
	}
	for name, bound := range deferred {
		if !seen[name] {
			return nil, &document.ConfigError{Path: "images." + bound.box.Name + ".textbox", Reason: fmt.Sprintf("绑定的文本框 %s 不存在", name)}
		}
	}
	return texts, nil
}

func composeTextBox(name string, d document.Document, content string, faces map[string]FontResource, ts Typesetter) (TextBox, error) {
	fontName, err := d.String("font")
	if err != nil {
		return TextBox{}, err
	}
	font, ok := faces[fontName]
	if !ok {
		return TextBox{}, &document.ConfigError{Path: "font", Reason: fmt.Sprintf("字体 %s 未定义", fontName)}
	}
	maxWidth, err := d.Float("max_width")
	if err != nil {
		return TextBox{}, err
	}
	maxLines, err := d.IntOr("max_lines", 0)
	if err != nil {
		return TextBox{}, err
	}
	lineWrap, err := d.StringOr("line_wrap", "")
	if err != nil {
		return TextBox{}, err
	}
	breakOnAny, err := d.BoolOr("break_on_any", false)
	if err != nil {
		return TextBox{}, err
	}
	anchor, err := d.Ints("anchor", 2)
	if err != nil {
		return TextBox{}, err
	}
	color, err := d.StringOr("color", defaultColor)
	if err != nil {
		return TextBox{}, err
	}
	align, err := d.StringOr("align", defaultAlign)
	if err != nil {
		return TextBox{}, err
	}
	if align, ok = normalizeAlign(align); !ok {
		return TextBox{}, &document.ConfigError{Path: "align", Reason: fmt.Sprintf("未知的对齐方式 %q", align)}
	}
	anchorType, err := d.StringOr("anchortype", defaultAnchorType)
	if err != nil {
		return TextBox{}, err
	}
	if !ValidAnchorType(anchorType) {
		return TextBox{}, &document.ConfigError{Path: "anchortype", Reason: fmt.Sprintf("无效的锚点类型 %q", anchorType)}
	}

	var measureErr error
	widthOf := func(s string) float64 {
		w, err := ts.TextWidth(s, font)
		if err != nil && measureErr == nil {
			measureErr = err
		}
		return w
	}
	wrapped := Wrap(content, maxWidth, widthOf, breakOnAny)
	if measureErr != nil {
		return TextBox{}, fmt.Errorf("测量文本宽度失败: %w", measureErr)
	}
	truncated := false
	if lineWrap == lineWrapCut && maxLines > 0 && CountLines(wrapped) > maxLines {
		wrapped = CutLines(wrapped, maxLines)
		truncated = true
	}
	w, h, err := ts.MeasureBox(wrapped, font)
	if err != nil {
		return TextBox{}, fmt.Errorf("测量文本框失败: %w", err)
	}

	return TextBox{
		Name:       name,
		Content:    wrapped,
		Lines:      strings.Split(wrapped, LineBreak),
		Font:       fontName,
		Anchor:     Point{X: float64(anchor[0]), Y: float64(anchor[1])},
		AnchorType: anchorType,
		Align:      align,
		Color:      color,
		Width:      w,
		Height:     h,
		MaxWidth:   maxWidth,
		Truncated:  truncated,
	}, nil
}

// normalizeAlign 接受 start/end/middle 别名。
func normalizeAlign(v string) (string, bool) {
	switch strings.ToLower(strings.TrimSpace(v)) {
	case "left", "start":
		return "left", true
	case "center", "middle":
		return "center", true
	case "right", "end":
		return "right", true
	default:
		return v, false
	}
}

// ValidAnchorType 检查两字母锚点：水平 l/m/r，垂直 a/t/m/s/b/d。
func ValidAnchorType(v string) bool {
	if len(v) != 2 {
		return false
	}
	return strings.ContainsRune("lmr", rune(v[0])) && strings.ContainsRune("atmsbd", rune(v[1]))
}

// AlignOffset 返回宽度为 width 的行在宽度为 container 的文本块内的水平偏移。
func AlignOffset(container, width float64, align string) float64 {
	if container <= width {
		return 0
	}
	switch align {
	case "center":
		return (container - width) / 2
	case "right":
		return container - width
	default:
		return 0
	}
}
