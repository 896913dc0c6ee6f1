package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"golang.org/x/image/draw"
	"golang.org/x/image/math/f64"

	"github.com/menta2k/image-augmenter/pkg/bbox"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Rotate turns the image about its center by an angle drawn from
// [-limit, limit] degrees, counter-clockwise for positive angles. The
// canvas keeps its size unless expand is set, in which case it grows to
// hold the whole rotated image. Uncovered pixels are black.
type Rotate struct {
	base
	geometric
	limit  float64
	expand bool
}

// NewRotate creates a bounded rotation
func NewRotate(p, limit float64, expand bool) (*Rotate, error) {
	if limit < 0 || limit > 180 {
		return nil, fmt.Errorf("rotate: limit %v outside [0,180]", limit)
	}
	return &Rotate{base: base{name: "rotate", p: p}, limit: limit, expand: expand}, nil
}

// Sample fixes the rotation angle
func (t *Rotate) Sample(rng *rand.Rand, width, height int) Op {
	return newRotateOp(uniform(rng, -t.limit, t.limit), width, height, t.expand)
}

type rotateOp struct {
	angle      float64
	outW, outH int
	m          f64.Aff3
}

func newRotateOp(angle float64, w, h int, expand bool) *rotateOp {
	rad := angle * math.Pi / 180
	cos, sin := math.Cos(rad), math.Sin(rad)
	cx, cy := float64(w)/2, float64(h)/2

	outW, outH := w, h
	if expand {
		// |cos|w + |sin|h by |sin|w + |cos|h
		ew := math.Abs(cos)*float64(w) + math.Abs(sin)*float64(h)
		eh := math.Abs(sin)*float64(w) + math.Abs(cos)*float64(h)
		outW, outH = int(math.Ceil(ew-1e-9)), int(math.Ceil(eh-1e-9))
	}
	ox, oy := float64(outW)/2, float64(outH)/2

	return &rotateOp{
		angle: angle,
		outW:  outW,
		outH:  outH,
		m: f64.Aff3{
			cos, sin, ox - cos*cx - sin*cy,
			-sin, cos, oy + sin*cx - cos*cy,
		},
	}
}

func (o *rotateOp) point(x, y float64) (float64, float64, bool) {
	return o.m[0]*x + o.m[1]*y + o.m[2], o.m[3]*x + o.m[4]*y + o.m[5], true
}

func (o *rotateOp) Apply(img *image.NRGBA) *image.NRGBA {
	dst := imaging.New(o.outW, o.outH, color.NRGBA{0, 0, 0, 255})
	src := img
	if img.Bounds().Min != (image.Point{}) {
		src = imaging.Clone(img)
	}
	draw.BiLinear.Transform(dst, o.m, src, src.Bounds(), draw.Src, nil)
	return dst
}

func (o *rotateOp) MapRect(r types.Rect, w, h int) (types.Rect, error) {
	out, ok := bbox.MapRect(r, w, h, o.outW, o.outH, o.point)
	if !ok {
		return types.Rect{}, fmt.Errorf("rotate by %.2f: %w", o.angle, ErrDegenerate)
	}
	return out, nil
}
