package transform

import (
	"errors"
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"

	"github.com/menta2k/image-augmenter/pkg/bbox"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// maxCornerShift bounds how far a corner may move, as a fraction of the side
const maxCornerShift = 0.32

// Perspective applies a small random projective warp. Each image corner is
// pulled inwards by |N(0, scale)| of the image size, and the resulting
// quadrilateral is stretched back onto the full, unchanged canvas.
type Perspective struct {
	base
	geometric
	scaleMin, scaleMax float64
}

// NewPerspective creates a perspective warp with scale drawn from [min, max]
func NewPerspective(p, scaleMin, scaleMax float64) (*Perspective, error) {
	if scaleMin < 0 || scaleMax < scaleMin {
		return nil, fmt.Errorf("perspective: invalid scale range [%v,%v]", scaleMin, scaleMax)
	}
	return &Perspective{base: base{name: "perspective", p: p}, scaleMin: scaleMin, scaleMax: scaleMax}, nil
}

// Sample fixes the four corner displacements
func (t *Perspective) Sample(rng *rand.Rand, width, height int) Op {
	scale := uniform(rng, t.scaleMin, t.scaleMax)
	var d [4][2]float64
	for i := range d {
		for j := range d[i] {
			d[i][j] = math.Mod(math.Abs(rng.NormFloat64()*scale), maxCornerShift)
		}
	}

	w, h := float64(width), float64(height)
	quad := [4][2]float64{
		{d[0][0] * w, d[0][1] * h},
		{w - d[1][0]*w, d[1][1] * h},
		{w - d[2][0]*w, h - d[2][1]*h},
		{d[3][0] * w, h - d[3][1]*h},
	}
	return newPerspectiveOp(quad, width, height)
}

type perspectiveOp struct {
	width, height int
	fwd, inv      Homography
	err           error
}

func newPerspectiveOp(quad [4][2]float64, width, height int) *perspectiveOp {
	w, h := float64(width), float64(height)
	frame := [4][2]float64{{0, 0}, {w, 0}, {w, h}, {0, h}}

	op := &perspectiveOp{width: width, height: height}
	fwd, err := SolveHomography(quad, frame)
	if err != nil {
		op.err = err
		return op
	}
	inv, err := SolveHomography(frame, quad)
	if err != nil {
		op.err = err
		return op
	}
	op.fwd, op.inv = fwd, inv
	return op
}

// Apply leaves the image untouched when the warp could not be solved; the
// boxes of such an image are dropped by MapRect.
func (o *perspectiveOp) Apply(img *image.NRGBA) *image.NRGBA {
	if o.err != nil {
		return img
	}
	src := img
	if img.Bounds().Min != (image.Point{}) {
		src = imaging.Clone(img)
	}
	return warpPerspective(src, o.inv, o.width, o.height)
}

func (o *perspectiveOp) MapRect(r types.Rect, w, h int) (types.Rect, error) {
	if o.err != nil {
		return types.Rect{}, fmt.Errorf("perspective: %w", errors.Join(ErrDegenerate, o.err))
	}
	out, ok := bbox.MapRect(r, w, h, o.width, o.height, o.fwd.Apply)
	if !ok {
		return types.Rect{}, fmt.Errorf("perspective: %w", ErrDegenerate)
	}
	return out, nil
}
