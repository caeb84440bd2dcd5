// Package expand implements nine-slice image expansion: a bordered source
// image is cut by two vertical and two horizontal divider lines into nine
// regions; corners are copied unscaled, edges stretch along one axis and the
// centre along both, so the result can take any size while keeping its
// corner pixels exact.
package expand

import (
	"fmt"
	"image"

	"golang.org/x/image/draw"
)

// Divide holds the divider positions in source pixels: X1 ≤ X2 split columns,
// Y1 ≤ Y2 split rows.
type Divide struct {
	X1 int `json:"x1"`
	X2 int `json:"x2"`
	Y1 int `json:"y1"`
	Y2 int `json:"y2"`
}

// Region names, in paint order.
const (
	TopLeft = iota
	TopMiddle
	TopRight
	MiddleLeft
	Center
	MiddleRight
	BottomLeft
	BottomMiddle
	BottomRight
)

var regionNames = [9]string{"tl", "tm", "tr", "ml", "mm", "mr", "bl", "bm", "br"}

// Region maps a source rectangle onto a target rectangle.
type Region struct {
	Name string
	Src  image.Rectangle
	Dst  image.Rectangle
}

// Scaled reports whether the region changes size between source and target.
func (r Region) Scaled() bool {
	return r.Src.Dx() != r.Dst.Dx() || r.Src.Dy() != r.Dst.Dy()
}

// GeometryError reports divider positions or a target size that cannot
// produce a valid nine-slice image.
type GeometryError struct {
	Reason string
}

func (e *GeometryError) Error() string { return "九宫格尺寸无效: " + e.Reason }

// Plan computes the nine source/target rectangles for a srcW×srcH image
// expanded to targetW×targetH. Target sizes that would give the stretchable
// middle a negative extent are rejected rather than clamped.
func Plan(srcW, srcH int, d Divide, targetW, targetH int) ([9]Region, error) {
	var regions [9]Region
	if d.X1 < 0 || d.X1 > d.X2 || d.X2 > srcW {
		return regions, &GeometryError{Reason: fmt.Sprintf("横向分割线 %d,%d 超出 0..%d 或次序错误", d.X1, d.X2, srcW)}
	}
	if d.Y1 < 0 || d.Y1 > d.Y2 || d.Y2 > srcH {
		return regions, &GeometryError{Reason: fmt.Sprintf("纵向分割线 %d,%d 超出 0..%d 或次序错误", d.Y1, d.Y2, srcH)}
	}

	// right section width, bottom section height
	rsw, bsh := srcW-d.X2, srcH-d.Y2
	// divider positions on the target
	dtx, dty := targetW-rsw, targetH-bsh
	// stretchable middle extents
	xs, ys := dtx-d.X1, dty-d.Y1
	if xs < 0 || ys < 0 {
		return regions, &GeometryError{Reason: fmt.Sprintf("目标尺寸 %dx%d 小于固定边框 %dx%d", targetW, targetH, d.X1+rsw, d.Y1+bsh)}
	}

	srcXs := [4]int{0, d.X1, d.X2, srcW}
	srcYs := [4]int{0, d.Y1, d.Y2, srcH}
	dstXs := [4]int{0, d.X1, dtx, targetW}
	dstYs := [4]int{0, d.Y1, dty, targetH}
	for row := 0; row < 3; row++ {
		for col := 0; col < 3; col++ {
			i := row*3 + col
			regions[i] = Region{
				Name: regionNames[i],
				Src:  image.Rect(srcXs[col], srcYs[row], srcXs[col+1], srcYs[row+1]),
				Dst:  image.Rect(dstXs[col], dstYs[row], dstXs[col+1], dstYs[row+1]),
			}
		}
	}
	for _, r := range regions {
		if r.Src.Empty() && !r.Dst.Empty() {
			return regions, &GeometryError{Reason: fmt.Sprintf("区域 %s 的源区域为空，无法拉伸到 %dx%d", r.Name, r.Dst.Dx(), r.Dst.Dy())}
		}
	}
	return regions, nil
}

// Expand renders src into a new targetW×targetH image. Corners are copied
// pixel for pixel; edges and centre are resampled with interp.
func Expand(src image.Image, d Divide, targetW, targetH int, interp draw.Interpolator) (*image.RGBA, error) {
	b := src.Bounds()
	regions, err := Plan(b.Dx(), b.Dy(), d, targetW, targetH)
	if err != nil {
		return nil, err
	}
	if interp == nil {
		interp = draw.NearestNeighbor
	}
	out := image.NewRGBA(image.Rect(0, 0, targetW, targetH))
	for _, r := range regions {
		if r.Dst.Empty() {
			continue
		}
		sr := r.Src.Add(b.Min)
		if !r.Scaled() {
			draw.Copy(out, r.Dst.Min, src, sr, draw.Src, nil)
			continue
		}
		interp.Scale(out, r.Dst, src, sr, draw.Src, nil)
	}
	return out, nil
}
