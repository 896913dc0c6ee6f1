// Package bbox implements normalized box geometry: clipping to the image
// frame, visible area ratios and mapping boxes through point transforms.
package bbox

import (
	"math"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// DefaultMinVisibility is the visible fraction below which a box is dropped
const DefaultMinVisibility = 0.3

// Frame is the normalized image frame
var Frame = types.Rect{XMin: 0, YMin: 0, XMax: 1, YMax: 1}

// Clip intersects r with the [0,1]x[0,1] frame. A rectangle lying completely
// outside the frame comes back with zero area.
func Clip(r types.Rect) types.Rect {
	out := types.Rect{
		XMin: clamp(r.XMin, 0, 1),
		YMin: clamp(r.YMin, 0, 1),
		XMax: clamp(r.XMax, 0, 1),
		YMax: clamp(r.YMax, 0, 1),
	}
	if out.XMax < out.XMin {
		out.XMax = out.XMin
	}
	if out.YMax < out.YMin {
		out.YMax = out.YMin
	}
	return out
}

// VisibleRatio returns clipped area over the area of r before clipping.
// Degenerate rectangles have ratio 0.
func VisibleRatio(r types.Rect) float64 {
	area := r.Area()
	if area <= 0 || math.IsNaN(area) || math.IsInf(area, 0) {
		return 0
	}
	ratio := Clip(r).Area() / area
	if ratio > 1 {
		return 1
	}
	return ratio
}

// Entry is a box in flight: its current corner geometry plus its class id.
// Degenerate marks a box whose geometry could not be mapped. Original holds
// the source box until a geometric step moves it; nil means Rect is the only
// record of the box.
type Entry struct {
	ClassID    int
	Rect       types.Rect
	Degenerate bool
	Original   *types.BoundingBox
}

// Entries converts a label set into in-flight entries
func Entries(ls types.LabelSet) []Entry {
	out := make([]Entry, len(ls))
	for i, b := range ls {
		out[i] = Entry{ClassID: b.ClassID, Rect: b.Rect(), Degenerate: !b.Valid(), Original: &b}
	}
	return out
}

// Filter clips every entry to the frame and keeps those whose visible ratio
// is at least minVisibility. Survivors keep their class id and clipped
// coordinates; dropped reports how many entries were removed. An entry that
// still carries its Original and lies inside the frame is returned as that
// original box, bit for bit.
func Filter(entries []Entry, minVisibility float64) (kept types.LabelSet, dropped int) {
	kept = make(types.LabelSet, 0, len(entries))
	for _, e := range entries {
		if e.Degenerate {
			dropped++
			continue
		}
		ratio := VisibleRatio(e.Rect)
		if ratio <= 0 || ratio < minVisibility {
			dropped++
			continue
		}
		clipped := Clip(e.Rect)
		if clipped.Area() <= 0 {
			dropped++
			continue
		}
		if e.Original != nil && clipped == e.Rect {
			kept = append(kept, *e.Original)
			continue
		}
		kept = append(kept, clipped.Box(e.ClassID))
	}
	return kept, dropped
}

// PointFunc maps a point in input pixel space to output pixel space
type PointFunc func(x, y float64) (float64, float64, bool)

// MapRect sends the four corners of r through fn and returns the
// axis-aligned rectangle enclosing them, renormalized against the output
// size. ok is false when any corner fails to map.
func MapRect(r types.Rect, inW, inH, outW, outH int, fn PointFunc) (types.Rect, bool) {
	if inW <= 0 || inH <= 0 || outW <= 0 || outH <= 0 {
		return types.Rect{}, false
	}
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, c := range r.Corners() {
		x, y, ok := fn(c[0]*float64(inW), c[1]*float64(inH))
		if !ok || math.IsNaN(x) || math.IsNaN(y) || math.IsInf(x, 0) || math.IsInf(y, 0) {
			return types.Rect{}, false
		}
		minX = math.Min(minX, x)
		minY = math.Min(minY, y)
		maxX = math.Max(maxX, x)
		maxY = math.Max(maxY, y)
	}
	out := types.Rect{
		XMin: minX / float64(outW),
		YMin: minY / float64(outH),
		XMax: maxX / float64(outW),
		YMax: maxY / float64(outH),
	}
	if out.Area() <= 0 {
		return out, false
	}
	return out, true
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
