package transform

import (
	"fmt"
	"image"
	"image/color"
	"math"

	"gonum.org/v1/gonum/mat"
)

// Homography is a row-major 3x3 projective matrix
type Homography [9]float64

// SolveHomography computes the projective transform sending the four src
// points onto the four dst points.
func SolveHomography(src, dst [4][2]float64) (Homography, error) {
	if collinear(src) || collinear(dst) {
		return Homography{}, fmt.Errorf("solve homography: three collinear points: %w", ErrDegenerate)
	}

	// x' = (h0 x + h1 y + h2) / (h6 x + h7 y + 1)
	// y' = (h3 x + h4 y + h5) / (h6 x + h7 y + 1)
	A := mat.NewDense(8, 8, nil)
	B := mat.NewVecDense(8, nil)

	for i := 0; i < 4; i++ {
		x, y := src[i][0], src[i][1]
		xp, yp := dst[i][0], dst[i][1]

		A.Set(i*2, 0, x)
		A.Set(i*2, 1, y)
		A.Set(i*2, 2, 1)
		A.Set(i*2, 6, -x*xp)
		A.Set(i*2, 7, -y*xp)
		B.SetVec(i*2, xp)

		A.Set(i*2+1, 3, x)
		A.Set(i*2+1, 4, y)
		A.Set(i*2+1, 5, 1)
		A.Set(i*2+1, 6, -x*yp)
		A.Set(i*2+1, 7, -y*yp)
		B.SetVec(i*2+1, yp)
	}

	var params mat.VecDense
	if err := params.SolveVec(A, B); err != nil {
		return Homography{}, fmt.Errorf("solve homography: %w", err)
	}

	var h Homography
	for i := 0; i < 8; i++ {
		h[i] = params.AtVec(i)
		if math.IsNaN(h[i]) || math.IsInf(h[i], 0) {
			return Homography{}, fmt.Errorf("solve homography: %w", ErrDegenerate)
		}
	}
	h[8] = 1
	return h, nil
}

// collinear reports whether any three of the points lie on one line
func collinear(pts [4][2]float64) bool {
	scale := 0.0
	for _, p := range pts {
		scale = math.Max(scale, math.Max(math.Abs(p[0]), math.Abs(p[1])))
	}
	eps := 1e-9 * math.Max(scale*scale, 1)
	for i := 0; i < 4; i++ {
		a, b, c := pts[i], pts[(i+1)%4], pts[(i+2)%4]
		cross := (b[0]-a[0])*(c[1]-a[1]) - (b[1]-a[1])*(c[0]-a[0])
		if math.Abs(cross) < eps {
			return true
		}
	}
	return false
}

// Apply maps a point. ok is false for points sent to infinity.
func (h Homography) Apply(x, y float64) (float64, float64, bool) {
	w := h[6]*x + h[7]*y + h[8]
	if math.Abs(w) < 1e-12 {
		return 0, 0, false
	}
	return (h[0]*x + h[1]*y + h[2]) / w, (h[3]*x + h[4]*y + h[5]) / w, true
}

// warpPerspective renders an outW x outH image whose pixel centers are
// pulled from src through inv, the destination-to-source homography.
func warpPerspective(src *image.NRGBA, inv Homography, outW, outH int) *image.NRGBA {
	dst := image.NewNRGBA(image.Rect(0, 0, outW, outH))
	black := color.NRGBA{0, 0, 0, 255}
	for y := 0; y < outH; y++ {
		for x := 0; x < outW; x++ {
			c := black
			if sx, sy, ok := inv.Apply(float64(x)+0.5, float64(y)+0.5); ok {
				c = sampleBilinear(src, sx-0.5, sy-0.5, black)
			}
			i := y*dst.Stride + x*4
			dst.Pix[i+0] = c.R
			dst.Pix[i+1] = c.G
			dst.Pix[i+2] = c.B
			dst.Pix[i+3] = c.A
		}
	}
	return dst
}

// sampleBilinear interpolates src at continuous pixel coordinates where
// integer values sit on pixel centers. Points outside the image return bg.
func sampleBilinear(src *image.NRGBA, x, y float64, bg color.NRGBA) color.NRGBA {
	b := src.Bounds()
	w, h := b.Dx(), b.Dy()
	if x < -0.5 || y < -0.5 || x > float64(w)-0.5 || y > float64(h)-0.5 {
		return bg
	}
	x = clamp(x, 0, float64(w-1))
	y = clamp(y, 0, float64(h-1))

	x0, y0 := int(x), int(y)
	x1, y1 := min(x0+1, w-1), min(y0+1, h-1)
	fx, fy := x-float64(x0), y-float64(y0)

	at := func(px, py int) []uint8 {
		i := (py)*src.Stride + (px)*4
		return src.Pix[i : i+4]
	}
	p00, p10 := at(x0, y0), at(x1, y0)
	p01, p11 := at(x0, y1), at(x1, y1)

	var out [4]uint8
	for c := 0; c < 4; c++ {
		top := float64(p00[c])*(1-fx) + float64(p10[c])*fx
		bottom := float64(p01[c])*(1-fx) + float64(p11[c])*fx
		out[c] = clampByte(top*(1-fy) + bottom*fy)
	}
	return color.NRGBA{out[0], out[1], out[2], out[3]}
}
