package transform

import (
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// HorizontalFlip mirrors the image about its vertical midline
type HorizontalFlip struct {
	base
	geometric
}

// NewHorizontalFlip creates a flip applied with probability p
func NewHorizontalFlip(p float64) *HorizontalFlip {
	return &HorizontalFlip{base: base{name: "horizontal_flip", p: p}}
}

// Sample draws nothing; a flip has no parameters
func (t *HorizontalFlip) Sample(_ *rand.Rand, _, _ int) Op {
	return flipOp{}
}

type flipOp struct{}

func (flipOp) Apply(img *image.NRGBA) *image.NRGBA {
	return imaging.FlipH(img)
}

func (flipOp) MapRect(r types.Rect, _, _ int) (types.Rect, error) {
	return types.Rect{XMin: 1 - r.XMax, YMin: r.YMin, XMax: 1 - r.XMin, YMax: r.YMax}, nil
}
