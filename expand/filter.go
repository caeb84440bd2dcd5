package expand

import (
	"strings"

	"golang.org/x/image/draw"
)

// DefaultFilter is used when a style names no resize filter.
const DefaultFilter = "nearest"

// Interpolator maps a resize filter name to a resampler. box and hamming have
// no exact counterpart and map to the closest kernel; lanczos maps to
// Catmull-Rom. Unknown names fall back to the interpolator for fallback, and
// to nearest-neighbour when fallback is unknown too.
func Interpolator(name, fallback string) draw.Interpolator {
	if interp, ok := lookup(name); ok {
		return interp
	}
	if interp, ok := lookup(fallback); ok {
		return interp
	}
	return draw.NearestNeighbor
}

// Filters lists the accepted filter names.
func Filters() []string {
	return []string{"nearest", "box", "bilinear", "hamming", "bicubic", "lanczos"}
}

func lookup(name string) (draw.Interpolator, bool) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "nearest":
		return draw.NearestNeighbor, true
	case "box":
		return draw.ApproxBiLinear, true
	case "bilinear", "hamming":
		return draw.BiLinear, true
	case "bicubic", "lanczos":
		return draw.CatmullRom, true
	default:
		return nil, false
	}
}
