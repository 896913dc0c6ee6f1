package transform

import (
	"fmt"
	"image"
	"math/rand/v2"

	"github.com/disintegration/imaging"
)

// GaussianBlur blurs with an odd kernel size drawn from [minKernel, maxKernel]
type GaussianBlur struct {
	base
	photometric
	kernels []int
}

// NewGaussianBlur creates a blur; even bounds are rounded up to odd sizes
func NewGaussianBlur(p float64, minKernel, maxKernel int) (*GaussianBlur, error) {
	if minKernel < 3 {
		minKernel = 3
	}
	if maxKernel < minKernel {
		return nil, fmt.Errorf("gaussian_blur: invalid kernel range [%d,%d]", minKernel, maxKernel)
	}
	var kernels []int
	for k := minKernel | 1; k <= maxKernel; k += 2 {
		kernels = append(kernels, k)
	}
	if len(kernels) == 0 {
		kernels = []int{minKernel | 1}
	}
	return &GaussianBlur{base: base{name: "gaussian_blur", p: p}, kernels: kernels}, nil
}

func (t *GaussianBlur) Sample(rng *rand.Rand, _, _ int) Op {
	k := t.kernels[rng.IntN(len(t.kernels))]
	return blurOp(kernelSigma(k))
}

// kernelSigma is the sigma OpenCV derives from a kernel size
func kernelSigma(k int) float64 {
	return 0.3*(float64(k-1)*0.5-1) + 0.8
}

type blurOp float64

func (s blurOp) Apply(img *image.NRGBA) *image.NRGBA {
	return imaging.Blur(img, float64(s))
}
