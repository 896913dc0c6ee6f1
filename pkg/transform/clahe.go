package transform

import (
	"fmt"
	"image"
	"math"
	"math/rand/v2"

	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
)

const histBins = 256

// CLAHE runs contrast limited adaptive histogram equalization on the
// lightness channel of CIE Lab. The clip limit is drawn from [1, clipLimit].
type CLAHE struct {
	base
	photometric
	clipLimit float64
	grid      int
}

// NewCLAHE creates a CLAHE with a grid x grid tiling
func NewCLAHE(p, clipLimit float64, grid int) (*CLAHE, error) {
	if clipLimit < 1 {
		return nil, fmt.Errorf("clahe: clip limit %v below 1", clipLimit)
	}
	if grid < 1 {
		return nil, fmt.Errorf("clahe: tile grid size %d below 1", grid)
	}
	return &CLAHE{base: base{name: "clahe", p: p}, clipLimit: clipLimit, grid: grid}, nil
}

func (t *CLAHE) Sample(rng *rand.Rand, _, _ int) Op {
	return claheOp{clip: uniform(rng, 1, t.clipLimit), grid: t.grid}
}

type claheOp struct {
	clip float64
	grid int
}

func (o claheOp) Apply(img *image.NRGBA) *image.NRGBA {
	out := imaging.Clone(img)
	w, h := out.Bounds().Dx(), out.Bounds().Dy()
	if w == 0 || h == 0 {
		return out
	}

	n := w * h
	lum := make([]uint8, n)
	chromaA := make([]float64, n)
	chromaB := make([]float64, n)
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			i := y*out.Stride + x*4
			c := colorful.Color{R: float64(out.Pix[i]) / 255, G: float64(out.Pix[i+1]) / 255, B: float64(out.Pix[i+2]) / 255}
			l, a, b := c.Lab()
			lum[y*w+x] = clampByte(clamp(l, 0, 1) * 255)
			chromaA[y*w+x] = a
			chromaB[y*w+x] = b
		}
	}

	tileW := int(math.Ceil(float64(w) / float64(min(o.grid, w))))
	tileH := int(math.Ceil(float64(h) / float64(min(o.grid, h))))
	gx := (w + tileW - 1) / tileW
	gy := (h + tileH - 1) / tileH

	luts := make([][histBins]uint8, gx*gy)
	for ty := 0; ty < gy; ty++ {
		for tx := 0; tx < gx; tx++ {
			luts[ty*gx+tx] = tileLUT(lum, w, tx*tileW, ty*tileH, min((tx+1)*tileW, w), min((ty+1)*tileH, h), o.clip)
		}
	}

	for y := 0; y < h; y++ {
		fy := (float64(y)+0.5)/float64(tileH) - 0.5
		ty0 := int(math.Floor(fy))
		wy := fy - float64(ty0)
		ty1 := min(max(ty0+1, 0), gy-1)
		ty0 = min(max(ty0, 0), gy-1)

		for x := 0; x < w; x++ {
			fx := (float64(x)+0.5)/float64(tileW) - 0.5
			tx0 := int(math.Floor(fx))
			wx := fx - float64(tx0)
			tx1 := min(max(tx0+1, 0), gx-1)
			tx0 = min(max(tx0, 0), gx-1)

			v := lum[y*w+x]
			top := (1-wx)*float64(luts[ty0*gx+tx0][v]) + wx*float64(luts[ty0*gx+tx1][v])
			bottom := (1-wx)*float64(luts[ty1*gx+tx0][v]) + wx*float64(luts[ty1*gx+tx1][v])
			l := ((1-wy)*top + wy*bottom) / 255

			r, g, b := colorful.Lab(l, chromaA[y*w+x], chromaB[y*w+x]).Clamped().RGB255()
			i := y*out.Stride + x*4
			out.Pix[i+0] = r
			out.Pix[i+1] = g
			out.Pix[i+2] = b
		}
	}
	return out
}

// tileLUT builds the clipped equalization mapping for one tile
func tileLUT(lum []uint8, stride, x0, y0, x1, y1 int, clip float64) [histBins]uint8 {
	var lut [histBins]uint8
	area := (x1 - x0) * (y1 - y0)
	if area <= 0 {
		for i := range lut {
			lut[i] = uint8(i)
		}
		return lut
	}

	var hist [histBins]int
	for y := y0; y < y1; y++ {
		for x := x0; x < x1; x++ {
			hist[lum[y*stride+x]]++
		}
	}

	limit := max(int(clip*float64(area)/histBins), 1)
	excess := 0
	for i, c := range hist {
		if c > limit {
			excess += c - limit
			hist[i] = limit
		}
	}
	spread, rest := excess/histBins, excess%histBins
	for i := range hist {
		hist[i] += spread
		if i < rest {
			hist[i]++
		}
	}

	cdf := 0
	for i, c := range hist {
		cdf += c
		lut[i] = clampByte(float64(cdf) * 255 / float64(area))
	}
	return lut
}
