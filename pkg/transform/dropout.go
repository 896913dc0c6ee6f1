package transform

import (
	"fmt"
	"image"
	"image/color"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
)

// DropoutConfig bounds the holes painted by CoarseDropout. Sizes below 1 are
// fractions of the image side, anything else is pixels.
type DropoutConfig struct {
	MinHoles, MaxHoles   int
	MinHeight, MaxHeight float64
	MinWidth, MaxWidth   float64
	Fill                 uint8
}

// CoarseDropout paints random rectangular occlusions. Boxes are untouched:
// an occluded object keeps its box.
type CoarseDropout struct {
	base
	photometric
	cfg DropoutConfig
}

// NewCoarseDropout creates a dropout transform
func NewCoarseDropout(p float64, cfg DropoutConfig) (*CoarseDropout, error) {
	if cfg.MinHoles < 1 || cfg.MaxHoles < cfg.MinHoles {
		return nil, fmt.Errorf("coarse_dropout: invalid hole count [%d,%d]", cfg.MinHoles, cfg.MaxHoles)
	}
	if cfg.MinHeight <= 0 || cfg.MaxHeight < cfg.MinHeight || cfg.MinWidth <= 0 || cfg.MaxWidth < cfg.MinWidth {
		return nil, fmt.Errorf("coarse_dropout: invalid hole size")
	}
	return &CoarseDropout{base: base{name: "coarse_dropout", p: p}, cfg: cfg}, nil
}

func (t *CoarseDropout) Sample(rng *rand.Rand, width, height int) Op {
	op := dropoutOp{fill: color.NRGBA{t.cfg.Fill, t.cfg.Fill, t.cfg.Fill, 255}}
	if width <= 0 || height <= 0 {
		return op
	}
	count := intBetween(rng, t.cfg.MinHoles, t.cfg.MaxHoles)
	for i := 0; i < count; i++ {
		hh := min(intBetween(rng, pixels(t.cfg.MinHeight, height), pixels(t.cfg.MaxHeight, height)), height)
		hw := min(intBetween(rng, pixels(t.cfg.MinWidth, width), pixels(t.cfg.MaxWidth, width)), width)
		y0 := rng.IntN(height - hh + 1)
		x0 := rng.IntN(width - hw + 1)
		op.holes = append(op.holes, image.Rect(x0, y0, x0+hw, y0+hh))
	}
	return op
}

func pixels(v float64, side int) int {
	if v < 1 {
		return max(int(v*float64(side)), 1)
	}
	return int(v)
}

type dropoutOp struct {
	holes []image.Rectangle
	fill  color.NRGBA
}

func (o dropoutOp) Apply(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	for _, hole := range o.holes {
		draw.Draw(out, hole, &image.Uniform{C: o.fill}, image.Point{}, draw.Src)
	}
	return out
}
