package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

// BrightnessContrast scales pixel values by 1+U(-contrast, contrast) and
// offsets them by U(-brightness, brightness) of the full range.
type BrightnessContrast struct {
	base
	photometric
	brightness, contrast float64
}

// NewBrightnessContrast creates a brightness/contrast jitter
func NewBrightnessContrast(p, brightnessLimit, contrastLimit float64) (*BrightnessContrast, error) {
	if brightnessLimit < 0 || contrastLimit < 0 {
		return nil, fmt.Errorf("random_brightness_contrast: limits must be non-negative")
	}
	return &BrightnessContrast{
		base:       base{name: "random_brightness_contrast", p: p},
		brightness: brightnessLimit,
		contrast:   contrastLimit,
	}, nil
}

func (t *BrightnessContrast) Sample(rng *rand.Rand, _, _ int) Op {
	alpha := 1 + uniform(rng, -t.contrast, t.contrast)
	beta := uniform(rng, -t.brightness, t.brightness)
	return funcOp(func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampByte(float64(c.R)*alpha + beta*255),
			G: clampByte(float64(c.G)*alpha + beta*255),
			B: clampByte(float64(c.B)*alpha + beta*255),
			A: c.A,
		}
	})
}

// Gamma raises normalized pixel values to a power drawn from
// [min/100, max/100].
type Gamma struct {
	base
	photometric
	min, max float64
}

// NewGamma creates a gamma jitter; limits are percentages, e.g. 80..120
func NewGamma(p, gammaMin, gammaMax float64) (*Gamma, error) {
	if gammaMin <= 0 || gammaMax < gammaMin {
		return nil, fmt.Errorf("random_gamma: invalid range [%v,%v]", gammaMin, gammaMax)
	}
	return &Gamma{base: base{name: "random_gamma", p: p}, min: gammaMin, max: gammaMax}, nil
}

func (t *Gamma) Sample(rng *rand.Rand, _, _ int) Op {
	return gammaOp(uniform(rng, t.min, t.max) / 100)
}

type gammaOp float64

// imaging uses out = in^(1/gamma)
func (g gammaOp) Apply(img *image.NRGBA) *image.NRGBA {
	return imaging.AdjustGamma(img, 1/float64(g))
}

// HueSaturationValue shifts hue, saturation and value. Limits follow the
// 8-bit OpenCV convention: hue in half-degrees, saturation and value in
// 0..255 units.
type HueSaturationValue struct {
	base
	photometric
	hue, sat, val float64
}

// NewHueSaturationValue creates an HSV jitter
func NewHueSaturationValue(p, hueLimit, satLimit, valLimit float64) (*HueSaturationValue, error) {
	if hueLimit < 0 || satLimit < 0 || valLimit < 0 {
		return nil, fmt.Errorf("hue_saturation_value: limits must be non-negative")
	}
	return &HueSaturationValue{
		base: base{name: "hue_saturation_value", p: p},
		hue:  hueLimit,
		sat:  satLimit,
		val:  valLimit,
	}, nil
}

func (t *HueSaturationValue) Sample(rng *rand.Rand, _, _ int) Op {
	dh := uniform(rng, -t.hue, t.hue) * 2
	ds := uniform(rng, -t.sat, t.sat) / 255
	dv := uniform(rng, -t.val, t.val) / 255
	return funcOp(func(c color.NRGBA) color.NRGBA {
		h, s, v := toColorful(c).Hsv()
		h = math.Mod(h+dh+360, 360)
		out := colorful.Hsv(h, clamp(s+ds, 0, 1), clamp(v+dv, 0, 1))
		return fromColorful(out, c.A)
	})
}

// RGBShift adds an independent offset to each color channel
type RGBShift struct {
	base
	photometric
	r, g, b float64
}

// NewRGBShift creates a per-channel shift with limits in 0..255 units
func NewRGBShift(p, rLimit, gLimit, bLimit float64) (*RGBShift, error) {
	if rLimit < 0 || gLimit < 0 || bLimit < 0 {
		return nil, fmt.Errorf("rgb_shift: limits must be non-negative")
	}
	return &RGBShift{base: base{name: "rgb_shift", p: p}, r: rLimit, g: gLimit, b: bLimit}, nil
}

func (t *RGBShift) Sample(rng *rand.Rand, _, _ int) Op {
	dr := uniform(rng, -t.r, t.r)
	dg := uniform(rng, -t.g, t.g)
	db := uniform(rng, -t.b, t.b)
	return funcOp(func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: clampByte(float64(c.R) + dr),
			G: clampByte(float64(c.G) + dg),
			B: clampByte(float64(c.B) + db),
			A: c.A,
		}
	})
}

// funcOp is a per-pixel operation. imaging runs it concurrently, so it must
// not touch the random source.
type funcOp func(c color.NRGBA) color.NRGBA

func (f funcOp) Apply(img *image.NRGBA) *image.NRGBA {
	return imaging.AdjustFunc(img, f)
}

func toColorful(c color.NRGBA) colorful.Color {
	return colorful.Color{R: float64(c.R) / 255, G: float64(c.G) / 255, B: float64(c.B) / 255}
}

func fromColorful(c colorful.Color, alpha uint8) color.NRGBA {
	r, g, b := c.Clamped().RGB255()
	return color.NRGBA{R: r, G: g, B: b, A: alpha}
}
