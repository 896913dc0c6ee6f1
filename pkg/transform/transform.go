// Package transform provides the stochastic image operations used to build
// augmentation pipelines.
//
// Every transform is drawn in two steps. Sample consumes random values and
// fixes the operation's parameters (angle, shift, holes, ...). The returned
// Op then changes pixels; if it also implements GeometricOp, the same fixed
// parameters move box corners so that boxes stay on their objects.
// Photometric ops never see the boxes.
package transform

import (
	"errors"
	"image"
	"math/rand/v2"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// ErrDegenerate is returned when a box cannot be mapped through a geometric op
var ErrDegenerate = errors.New("degenerate geometry")

// Op is one fully parameterized image operation
type Op interface {
	Apply(img *image.NRGBA) *image.NRGBA
}

// GeometricOp is an Op that also moves box geometry. MapRect receives a
// normalized rectangle relative to an input image of size w x h and returns
// it normalized against the output image.
type GeometricOp interface {
	Op
	MapRect(r types.Rect, w, h int) (types.Rect, error)
}

// Transform is a probabilistic image operation
type Transform interface {
	Name() string
	Probability() float64
	Geometric() bool
	Sample(rng *rand.Rand, width, height int) Op
}

type base struct {
	name string
	p    float64
}

func (b base) Name() string         { return b.name }
func (b base) Probability() float64 { return b.p }

// photometric is embedded by transforms that leave geometry alone
type photometric struct{}

func (photometric) Geometric() bool { return false }

type geometric struct{}

func (geometric) Geometric() bool { return true }

// uniform draws from [lo, hi)
func uniform(rng *rand.Rand, lo, hi float64) float64 {
	if hi <= lo {
		return lo
	}
	return lo + rng.Float64()*(hi-lo)
}

// intBetween draws an integer from [lo, hi]
func intBetween(rng *rand.Rand, lo, hi int) int {
	if hi <= lo {
		return lo
	}
	return lo + rng.IntN(hi-lo+1)
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

func clampByte(v float64) uint8 {
	return uint8(clamp(v+0.5, 0, 255))
}
