package types

import (
	"errors"
	"fmt"
	"image"
	"math"
)

// ErrLengthMismatch is returned when boxes and class ids do not pair up 1:1
var ErrLengthMismatch = errors.New("boxes and class ids differ in length")

// BoundingBox is a YOLO box: a class id plus center/size normalized to [0,1]
type BoundingBox struct {
	ClassID int     `json:"class_id"`
	X       float64 `json:"x"`
	Y       float64 `json:"y"`
	W       float64 `json:"w"`
	H       float64 `json:"h"`
}

// Valid reports whether the box has a positive, finite size
func (b BoundingBox) Valid() bool {
	for _, v := range []float64{b.X, b.Y, b.W, b.H} {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return b.ClassID >= 0 && b.W > 0 && b.H > 0
}

// Rect returns the box in corner form
func (b BoundingBox) Rect() Rect {
	return Rect{
		XMin: b.X - b.W/2,
		YMin: b.Y - b.H/2,
		XMax: b.X + b.W/2,
		YMax: b.Y + b.H/2,
	}
}

// String renders the box the way it appears in a label file
func (b BoundingBox) String() string {
	return fmt.Sprintf("%d %.6f %.6f %.6f %.6f", b.ClassID, b.X, b.Y, b.W, b.H)
}

// Rect is a normalized axis-aligned rectangle in corner form. Coordinates may
// fall outside [0,1] while a box travels through geometric transforms.
type Rect struct {
	XMin float64 `json:"x_min"`
	YMin float64 `json:"y_min"`
	XMax float64 `json:"x_max"`
	YMax float64 `json:"y_max"`
}

// Width returns XMax-XMin
func (r Rect) Width() float64 { return r.XMax - r.XMin }

// Height returns YMax-YMin
func (r Rect) Height() float64 { return r.YMax - r.YMin }

// Area returns the rectangle area, zero for degenerate rectangles
func (r Rect) Area() float64 {
	w, h := r.Width(), r.Height()
	if w <= 0 || h <= 0 {
		return 0
	}
	return w * h
}

// Corners returns the four corners clockwise from top-left
func (r Rect) Corners() [4][2]float64 {
	return [4][2]float64{
		{r.XMin, r.YMin},
		{r.XMax, r.YMin},
		{r.XMax, r.YMax},
		{r.XMin, r.YMax},
	}
}

// Box converts the rectangle back to center form with the given class id
func (r Rect) Box(classID int) BoundingBox {
	return BoundingBox{
		ClassID: classID,
		X:       (r.XMin + r.XMax) / 2,
		Y:       (r.YMin + r.YMax) / 2,
		W:       r.Width(),
		H:       r.Height(),
	}
}

// LabelSet is the ordered set of boxes attached to one image. The class id
// travels inside each box, so boxes and classes cannot drift apart.
type LabelSet []BoundingBox

// NewLabelSet pairs geometry with a separately supplied class id sequence
func NewLabelSet(boxes []BoundingBox, classIDs []int) (LabelSet, error) {
	if len(boxes) != len(classIDs) {
		return nil, fmt.Errorf("%w: %d boxes, %d class ids", ErrLengthMismatch, len(boxes), len(classIDs))
	}
	out := make(LabelSet, len(boxes))
	for i, b := range boxes {
		b.ClassID = classIDs[i]
		out[i] = b
	}
	return out, nil
}

// ClassIDs returns the class id sequence index-aligned with the boxes
func (ls LabelSet) ClassIDs() []int {
	ids := make([]int, len(ls))
	for i, b := range ls {
		ids[i] = b.ClassID
	}
	return ids
}

// Clone returns an independent copy
func (ls LabelSet) Clone() LabelSet {
	if ls == nil {
		return nil
	}
	out := make(LabelSet, len(ls))
	copy(out, ls)
	return out
}

// TransformSpec declares one step of a pipeline
type TransformSpec struct {
	Name   string             `json:"name" yaml:"name" toml:"name"`
	P      float64            `json:"p" yaml:"p" toml:"p"`
	Params map[string]float64 `json:"params,omitempty" yaml:"params,omitempty" toml:"params,omitempty"`
}

// Param returns the named parameter or def when it is not set
func (s TransformSpec) Param(name string, def float64) float64 {
	if v, ok := s.Params[name]; ok {
		return v
	}
	return def
}

// AugmentationResult is one generated variant
type AugmentationResult struct {
	Image   image.Image
	Labels  LabelSet
	Applied []string
	Dropped int
}
