package canvasrenderer

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"math"
	"strings"
	"testing"

	"github.com/ByLCY/textboxer/expand"
	"github.com/ByLCY/textboxer/fonts"
	"github.com/ByLCY/textboxer/layout"
)

// mapAssets 以内存字节代替资源库。
type mapAssets map[string][]byte

func (m mapAssets) ReadFile(name string) ([]byte, error) {
	data, ok := m[name]
	if !ok {
		return nil, fmt.Errorf("%s not found", name)
	}
	return data, nil
}

func solidPNG(t *testing.T, w, h int, c color.RGBA) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetRGBA(x, y, c)
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

var builtinFont = layout.FontResource{Name: "body", Path: fonts.Default, Size: 24, Antialias: true, Spacing: 4}

func TestTextWidthMonotonic(t *testing.T) {
	r := NewRenderer(nil)
	prev := 0.0
	for _, s := range []string{"", "I", "Ia", "Iam", "Iam here"} {
		w, err := r.TextWidth(s, builtinFont)
		if err != nil {
			t.Fatalf("TextWidth(%q): %v", s, err)
		}
		if w < prev {
			t.Fatalf("width shrank at %q: %g < %g", s, w, prev)
		}
		prev = w
	}
	if prev <= 0 {
		t.Fatalf("expected positive width, got %g", prev)
	}
}

func TestMeasureBoxAddsSpacing(t *testing.T) {
	r := NewRenderer(nil)
	w1, h1, err := r.MeasureBox("hello", builtinFont)
	if err != nil {
		t.Fatalf("MeasureBox: %v", err)
	}
	w2, h2, err := r.MeasureBox("hello\nhi", builtinFont)
	if err != nil {
		t.Fatalf("MeasureBox: %v", err)
	}
	if math.Abs(w1-w2) > 1e-9 {
		t.Fatalf("width should follow the widest line: %g vs %g", w1, w2)
	}
	if diff := math.Abs(h2 - (2*h1 + builtinFont.Spacing)); diff > 1e-9 {
		t.Fatalf("two-line height %g, want %g", h2, 2*h1+builtinFont.Spacing)
	}
}

// 使用真实字体度量时，折行结果的每一行都不应超出上限。
func TestWrapWithFontMetrics(t *testing.T) {
	r := NewRenderer(nil)
	widthOf := func(s string) float64 {
		w, err := r.TextWidth(s, builtinFont)
		if err != nil {
			t.Fatalf("TextWidth: %v", err)
		}
		return w
	}
	const limit = 180.0
	text := "mhm yep uh huh yeah got it mhm great yeah uh huh okay"
	wrapped := layout.Wrap(text, limit, widthOf, false)
	lines := strings.Split(wrapped, layout.LineBreak)
	if len(lines) < 2 {
		t.Fatalf("expected wrapping, got %q", wrapped)
	}
	for _, line := range lines {
		if widthOf(line) > limit {
			t.Fatalf("line %q is %g wide, limit %g", line, widthOf(line), limit)
		}
	}
}

func TestRenderBaseImageAndOverlay(t *testing.T) {
	assets := mapAssets{
		"frame.png": solidPNG(t, 20, 10, color.RGBA{R: 255, A: 255}),
		"face.png":  solidPNG(t, 4, 4, color.RGBA{B: 255, A: 255}),
	}
	r := NewRenderer(assets)
	out, err := r.Render(&layout.Result{
		Images: []layout.ImageBox{
			{Name: "frame", Type: "static", Path: "frame.png", Position: layout.Point{X: 99, Y: 99}},
			{Name: "face", Type: "dynamic", Path: "face.png", Position: layout.Point{X: 18, Y: 2}},
		},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 20, 10) {
		t.Fatalf("base image should set the canvas size, got %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("base pixel = %v", got)
	}
	if got := out.RGBAAt(19, 3); got != (color.RGBA{B: 255, A: 255}) {
		t.Fatalf("overlay pixel = %v", got)
	}
	if got := out.RGBAAt(17, 3); got != (color.RGBA{R: 255, A: 255}) {
		t.Fatalf("pixel left of the overlay = %v", got)
	}
}

func TestRenderBaseSizeAndExpand(t *testing.T) {
	assets := mapAssets{"box.png": solidPNG(t, 6, 6, color.RGBA{G: 200, A: 255})}
	r := NewRenderer(assets)
	out, err := r.Render(&layout.Result{
		Size: &layout.Size{Width: 30, Height: 20},
		Images: []layout.ImageBox{{
			Name: "box", Type: "expand", Path: "box.png", Position: layout.Point{X: 5, Y: 5},
			Expand: &layout.ExpandSpec{Divide: expand.Divide{X1: 2, X2: 4, Y1: 2, Y2: 4}, Size: layout.Size{Width: 12, Height: 8}},
		}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, 30, 20) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	if got := out.RGBAAt(0, 0); got.A != 0 {
		t.Fatalf("basesize canvas should start transparent, got %v", got)
	}
	for _, p := range []image.Point{{5, 5}, {16, 12}, {10, 8}} {
		if got := out.RGBAAt(p.X, p.Y); got != (color.RGBA{G: 200, A: 255}) {
			t.Fatalf("expanded pixel %v = %v", p, got)
		}
	}
	if got := out.RGBAAt(17, 13); got.A != 0 {
		t.Fatalf("pixel outside the expanded box = %v", got)
	}
}

func TestRenderExpandGeometryError(t *testing.T) {
	r := NewRenderer(mapAssets{"box.png": solidPNG(t, 6, 6, color.RGBA{A: 255})})
	_, err := r.Render(&layout.Result{
		Size: &layout.Size{Width: 10, Height: 10},
		Images: []layout.ImageBox{{
			Name: "box", Path: "box.png",
			Expand: &layout.ExpandSpec{Divide: expand.Divide{X1: 2, X2: 4, Y1: 2, Y2: 4}, Size: layout.Size{Width: 1, Height: 8}},
		}},
	})
	if err == nil {
		t.Fatalf("expected geometry error")
	}
}

func TestRenderTextAliased(t *testing.T) {
	r := NewRenderer(nil)
	font := builtinFont
	font.Antialias = false
	w, h, err := r.MeasureBox("HI", font)
	if err != nil {
		t.Fatalf("MeasureBox: %v", err)
	}
	out, err := r.Render(&layout.Result{
		Size:  &layout.Size{Width: 80, Height: 40},
		Fonts: map[string]layout.FontResource{"body": font},
		Texts: []layout.TextBox{{
			Name: "main", Content: "HI", Lines: []string{"HI"}, Font: "body",
			Anchor: layout.Point{X: 4, Y: 4}, AnchorType: "la", Align: "left", Color: "black",
			Width: w, Height: h,
		}},
	})
	if err != nil {
		t.Fatalf("Render: %v", err)
	}
	inked := 0
	b := out.Bounds()
	for y := b.Min.Y; y < b.Max.Y; y++ {
		for x := b.Min.X; x < b.Max.X; x++ {
			a := out.RGBAAt(x, y).A
			if a != 0 && a != 0xff {
				t.Fatalf("pixel (%d,%d) has partial alpha %d with antialias off", x, y, a)
			}
			if a == 0xff {
				inked++
			}
		}
	}
	if inked == 0 {
		t.Fatalf("no text pixels were drawn")
	}
}

func TestRenderUnknownFont(t *testing.T) {
	r := NewRenderer(nil)
	_, err := r.Render(&layout.Result{
		Size:  &layout.Size{Width: 10, Height: 10},
		Texts: []layout.TextBox{{Name: "main", Font: "missing"}},
	})
	if err == nil {
		t.Fatalf("expected an error for an undefined font")
	}
}

func TestMissingFontFallsBack(t *testing.T) {
	r := NewRenderer(mapAssets{})
	font := layout.FontResource{Name: "gone", Path: "styles/x/fonts/gone.ttf", Size: 20}
	w, err := r.TextWidth("abc", font)
	if err != nil || w <= 0 {
		t.Fatalf("fallback font should measure text, got %g, %v", w, err)
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.RGBA{
		"white":     {R: 255, G: 255, B: 255, A: 255},
		"Gold":      {R: 255, G: 215, A: 255},
		"#ff0000":   {R: 255, A: 255},
		"#0f0":      {G: 255, A: 255},
		"#00000080": {A: 0x80},
	}
	for in, want := range cases {
		c, err := ParseColor(in)
		if err != nil {
			t.Fatalf("ParseColor(%q): %v", in, err)
		}
		if got := color.RGBAModel.Convert(c).(color.RGBA); got != want {
			t.Fatalf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "notacolor", "#gggggg"} {
		if _, err := ParseColor(bad); err == nil {
			t.Fatalf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestBlockOrigin(t *testing.T) {
	tb := layout.TextBox{Anchor: layout.Point{X: 100, Y: 50}, Width: 40, Height: 20}
	cases := map[string][2]float64{
		"la": {100, 50},
		"mm": {80, 40},
		"rb": {60, 30},
		"ls": {100, 38},
		"zz": {100, 50},
	}
	for anchor, want := range cases {
		tb.AnchorType = anchor
		x, y := blockOrigin(tb, 12)
		if x != want[0] || y != want[1] {
			t.Fatalf("%s: origin (%g,%g), want (%g,%g)", anchor, x, y, want[0], want[1])
		}
	}
}
