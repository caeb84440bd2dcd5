package expand

import (
	"errors"
	"image"
	"image/color"
	"testing"

	"golang.org/x/image/draw"
)

// patterned returns a w×h image whose every pixel is distinct.
func patterned(w, h int) *image.RGBA {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x * 13), G: uint8(y * 17), B: uint8(x*y + 1), A: 255})
		}
	}
	return img
}

var frame = Divide{X1: 3, X2: 7, Y1: 2, Y2: 6}

func TestExpandIdentity(t *testing.T) {
	src := patterned(10, 8)
	for _, name := range []string{"nearest", "bilinear", "bicubic"} {
		out, err := Expand(src, frame, 10, 8, Interpolator(name, DefaultFilter))
		if err != nil {
			t.Fatalf("%s: %v", name, err)
		}
		for y := 0; y < 8; y++ {
			for x := 0; x < 10; x++ {
				if out.RGBAAt(x, y) != src.RGBAAt(x, y) {
					t.Fatalf("%s: pixel (%d,%d) = %v, want %v", name, x, y, out.RGBAAt(x, y), src.RGBAAt(x, y))
				}
			}
		}
	}
}

func TestExpandPreservesCorners(t *testing.T) {
	src := patterned(10, 8)
	const w, h = 37, 21
	out, err := Expand(src, frame, w, h, draw.BiLinear)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out.Bounds() != image.Rect(0, 0, w, h) {
		t.Fatalf("bounds = %v", out.Bounds())
	}
	rsw, bsh := 10-frame.X2, 8-frame.Y2
	corners := []struct {
		src, dst image.Point
		size     image.Point
	}{
		{image.Pt(0, 0), image.Pt(0, 0), image.Pt(frame.X1, frame.Y1)},
		{image.Pt(frame.X2, 0), image.Pt(w-rsw, 0), image.Pt(rsw, frame.Y1)},
		{image.Pt(0, frame.Y2), image.Pt(0, h-bsh), image.Pt(frame.X1, bsh)},
		{image.Pt(frame.X2, frame.Y2), image.Pt(w-rsw, h-bsh), image.Pt(rsw, bsh)},
	}
	for _, c := range corners {
		for dy := 0; dy < c.size.Y; dy++ {
			for dx := 0; dx < c.size.X; dx++ {
				got := out.RGBAAt(c.dst.X+dx, c.dst.Y+dy)
				want := src.RGBAAt(c.src.X+dx, c.src.Y+dy)
				if got != want {
					t.Fatalf("corner pixel src %v+(%d,%d): got %v want %v", c.src, dx, dy, got, want)
				}
			}
		}
	}
}

func TestExpandHonoursSourceOffset(t *testing.T) {
	src := patterned(12, 10).SubImage(image.Rect(2, 2, 12, 10)).(*image.RGBA)
	out, err := Expand(src, frame, 10, 8, nil)
	if err != nil {
		t.Fatalf("Expand: %v", err)
	}
	if out.RGBAAt(0, 0) != src.RGBAAt(2, 2) {
		t.Fatalf("sub-image origin not respected: %v vs %v", out.RGBAAt(0, 0), src.RGBAAt(2, 2))
	}
}

func TestPlanGeometry(t *testing.T) {
	regions, err := Plan(10, 8, frame, 30, 20)
	if err != nil {
		t.Fatalf("Plan: %v", err)
	}
	// dtx = 30-3 = 27, dty = 20-2 = 18, xs = 24, ys = 16
	want := map[int]image.Rectangle{
		TopLeft:      image.Rect(0, 0, 3, 2),
		TopMiddle:    image.Rect(3, 0, 27, 2),
		TopRight:     image.Rect(27, 0, 30, 2),
		MiddleLeft:   image.Rect(0, 2, 3, 18),
		Center:       image.Rect(3, 2, 27, 18),
		MiddleRight:  image.Rect(27, 2, 30, 18),
		BottomLeft:   image.Rect(0, 18, 3, 20),
		BottomMiddle: image.Rect(3, 18, 27, 20),
		BottomRight:  image.Rect(27, 18, 30, 20),
	}
	for i, r := range want {
		if regions[i].Dst != r {
			t.Fatalf("region %s dst = %v, want %v", regions[i].Name, regions[i].Dst, r)
		}
	}
	if regions[Center].Src != image.Rect(3, 2, 7, 6) {
		t.Fatalf("centre src = %v", regions[Center].Src)
	}
	if regions[TopLeft].Scaled() || !regions[Center].Scaled() {
		t.Fatalf("corner must be unscaled and centre scaled")
	}
}

func TestPlanDegenerate(t *testing.T) {
	cases := []struct {
		name   string
		d      Divide
		tw, th int
	}{
		{"target narrower than borders", frame, 5, 8},
		{"target shorter than borders", frame, 10, 3},
		{"dividers out of order", Divide{X1: 7, X2: 3, Y1: 2, Y2: 6}, 20, 20},
		{"divider past edge", Divide{X1: 3, X2: 11, Y1: 2, Y2: 6}, 20, 20},
		{"empty middle stretched", Divide{X1: 5, X2: 5, Y1: 2, Y2: 6}, 20, 20},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := Plan(10, 8, tc.d, tc.tw, tc.th)
			var ge *GeometryError
			if !errors.As(err, &ge) {
				t.Fatalf("expected GeometryError, got %v", err)
			}
		})
	}

	// exactly the border size leaves a zero-width middle, which is valid
	if _, err := Plan(10, 8, frame, 6, 4); err != nil {
		t.Fatalf("minimum size should be accepted: %v", err)
	}
}

func TestInterpolatorFallback(t *testing.T) {
	if Interpolator("nearest", "bilinear") != draw.NearestNeighbor {
		t.Fatalf("nearest should map to NearestNeighbor")
	}
	if Interpolator("sinc", "bilinear") != draw.BiLinear {
		t.Fatalf("unknown name should use the fallback")
	}
	if Interpolator("sinc", "also-unknown") != draw.NearestNeighbor {
		t.Fatalf("unknown fallback should use nearest")
	}
	if Interpolator("LANCZOS", "") != draw.CatmullRom {
		t.Fatalf("names are case-insensitive")
	}
}
