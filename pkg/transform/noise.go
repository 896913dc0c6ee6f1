package transform

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"gonum.org/v1/gonum/stat/distuv"
)

// ISONoise simulates camera sensor noise: Gaussian hue jitter plus Poisson
// lightness noise scaled by the image's own lightness spread.
type ISONoise struct {
	base
	photometric
	shiftMin, shiftMax         float64
	intensityMin, intensityMax float64
}

// NewISONoise creates sensor noise with color shift and intensity ranges
func NewISONoise(p, shiftMin, shiftMax, intensityMin, intensityMax float64) (*ISONoise, error) {
	if shiftMin < 0 || shiftMax < shiftMin || intensityMin < 0 || intensityMax < intensityMin {
		return nil, fmt.Errorf("iso_noise: invalid ranges")
	}
	return &ISONoise{
		base:         base{name: "iso_noise", p: p},
		shiftMin:     shiftMin,
		shiftMax:     shiftMax,
		intensityMin: intensityMin,
		intensityMax: intensityMax,
	}, nil
}

// Sample keeps a handle on rng: per-pixel noise is drawn during Apply
func (t *ISONoise) Sample(rng *rand.Rand, _, _ int) Op {
	return &noiseOp{
		rng:       rng,
		shift:     uniform(rng, t.shiftMin, t.shiftMax),
		intensity: uniform(rng, t.intensityMin, t.intensityMax),
	}
}

type noiseOp struct {
	rng       *rand.Rand
	shift     float64
	intensity float64
}

func (o *noiseOp) Apply(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	n := w * h
	if n == 0 {
		return out
	}

	hue := make([]float64, n)
	sat := make([]float64, n)
	light := make([]float64, n)
	var sum, sumSq float64
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + x*4
			c := colorful.Color{R: float64(out.Pix[i]) / 255, G: float64(out.Pix[i+1]) / 255, B: float64(out.Pix[i+2]) / 255}
			k := y*w + x
			hue[k], sat[k], light[k] = c.Hsl()
			sum += light[k]
			sumSq += light[k] * light[k]
		}
	}
	mean := sum / float64(n)
	stddev := math.Sqrt(math.Max(sumSq/float64(n)-mean*mean, 0))

	lambda := stddev * o.intensity * 255
	hueSigma := o.shift * 360 * o.intensity
	noise := newPoisson(o.rng, lambda)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			k := y*w + x
			hh := math.Mod(hue[k]+o.rng.NormFloat64()*hueSigma, 360)
			if hh < 0 {
				hh += 360
			}
			l := light[k] + noise()/255*(1-light[k])

			r, g, b := colorful.Hsl(hh, sat[k], clamp(l, 0, 1)).Clamped().RGB255()
			i := y*out.Stride + x*4
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
		}
	}
	return out
}

// distSource lets a math/rand/v2 generator drive gonum distributions.
// Seeding stays with the owner of the generator.
type distSource struct {
	*rand.Rand
}

func (distSource) Seed(uint64) {}

// newPoisson returns a sampler for Poisson(lambda); a non-positive mean
// always yields 0.
func newPoisson(rng *rand.Rand, lambda float64) func() float64 {
	if lambda <= 0 {
		return func() float64 { return 0 }
	}
	d := distuv.Poisson{Lambda: lambda, Src: distSource{rng}}
	return d.Rand
}
