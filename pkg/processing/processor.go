package processing

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"io"
	"math"
	"os"
	"strconv"
	"strings"

	"github.com/chai2010/webp"
	"github.com/disintegration/imaging"
	"github.com/lucasb-eyer/go-colorful"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
	_ "golang.org/x/image/webp"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// Supported output formats
const (
	FormatJPEG = "jpg"
	FormatPNG  = "png"
	FormatWebP = "webp"
)

// NormalizeFormat maps user spellings to a supported output format
func NormalizeFormat(format string) (string, error) {
	switch strings.ToLower(strings.TrimPrefix(format, ".")) {
	case "", "jpg", "jpeg":
		return FormatJPEG, nil
	case "png":
		return FormatPNG, nil
	case "webp":
		return FormatWebP, nil
	default:
		return "", fmt.Errorf("unsupported output format: %s", format)
	}
}

// Processor handles image I/O and debug rendering
type Processor struct{}

// NewProcessor creates a new image processor
func NewProcessor() *Processor {
	return &Processor{}
}

// LoadImage loads an image from a file path with WebP support. EXIF
// orientation is applied so boxes annotated on the displayed image line up.
func (p *Processor) LoadImage(path string) (image.Image, error) {
	if img, err := imaging.Open(path, imaging.AutoOrientation(true)); err == nil {
		return img, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read image: %w", err)
	}
	img, err := p.DecodeImage(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return img, nil
}

// DecodeImage decodes an image from byte data with WebP support
func (p *Processor) DecodeImage(data []byte) (image.Image, error) {
	if img, _, err := image.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	if img, err := webp.Decode(bytes.NewReader(data)); err == nil {
		return img, nil
	}
	return nil, fmt.Errorf("image: unknown or unsupported format")
}

// Encode writes img to w in the given format
func (p *Processor) Encode(w io.Writer, img image.Image, format string, quality int, lossless bool) error {
	f, err := NormalizeFormat(format)
	if err != nil {
		return err
	}
	switch f {
	case FormatWebP:
		return webp.Encode(w, img, &webp.Options{Lossless: lossless, Quality: float32(quality)})
	case FormatPNG:
		return imaging.Encode(w, img, imaging.PNG)
	default:
		return imaging.Encode(w, img, imaging.JPEG, imaging.JPEGQuality(quality))
	}
}

// SaveImage saves an image to a file with the specified format and quality
func (p *Processor) SaveImage(img image.Image, path, format string, quality int, lossless bool) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := p.Encode(f, img, format, quality, lossless); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	return f.Close()
}

// ClassColor returns a stable, well separated color for a class id
func ClassColor(classID int) color.NRGBA {
	// golden-angle hue steps keep neighbouring ids apart
	hue := math.Mod(float64(classID)*137.508, 360)
	r, g, b := colorful.Hsv(hue, 0.85, 1).Clamped().RGB255()
	return color.NRGBA{r, g, b, 255}
}

// CreateDebugOverlay draws every label box, tagged with its class id
func (p *Processor) CreateDebugOverlay(img image.Image, labels types.LabelSet) image.Image {
	nrgba := imaging.Clone(img)
	w := nrgba.Bounds().Dx()
	h := nrgba.Bounds().Dy()
	stroke := int(math.Max(1, 0.004*float64(minInt(w, h))))

	for _, box := range labels {
		c := ClassColor(box.ClassID)
		drawBox(nrgba, box.Rect(), w, h, c, stroke)
		x0, y0, _, _ := rectToPixels(box.Rect(), w, h)
		drawTag(nrgba, strconv.Itoa(box.ClassID), x0, y0, c)
	}
	return nrgba
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

func minInt(a, b int) int {
	if a < b {
		return a
	}
	return b
}

func rectToPixels(r types.Rect, w, h int) (int, int, int, int) {
	x0 := int(clamp(r.XMin, 0, 1)*float64(w) + 0.5)
	y0 := int(clamp(r.YMin, 0, 1)*float64(h) + 0.5)
	x1 := int(clamp(r.XMax, 0, 1)*float64(w) + 0.5)
	y1 := int(clamp(r.YMax, 0, 1)*float64(h) + 0.5)
	if x1 <= x0 {
		x1 = x0 + 1
	}
	if y1 <= y0 {
		y1 = y0 + 1
	}
	return x0, y0, x1, y1
}

func drawBox(img *image.NRGBA, r types.Rect, w, h int, c color.NRGBA, stroke int) {
	x0, y0, x1, y1 := rectToPixels(r, w, h)
	for s := 0; s < stroke; s++ {
		drawHLine(img, y0+s, x0, x1, c)
		drawHLine(img, y1-1-s, x0, x1, c)
		drawVLine(img, x0+s, y0, y1, c)
		drawVLine(img, x1-1-s, y0, y1, c)
	}
}

// drawTag writes text on a filled background just inside the box corner
func drawTag(img *image.NRGBA, text string, x, y int, bg color.NRGBA) {
	face := basicfont.Face7x13
	tw := font.MeasureString(face, text).Ceil() + 4
	th := face.Height
	for row := y; row < y+th; row++ {
		drawHLine(img, row, x, x+tw, bg)
	}
	d := &font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Black),
		Face: face,
		Dot:  fixed.P(x+2, y+face.Ascent),
	}
	d.DrawString(text)
}

func drawHLine(img *image.NRGBA, y, x0, x1 int, c color.NRGBA) {
	if y < 0 || y >= img.Bounds().Dy() {
		return
	}
	if x0 > x1 {
		x0, x1 = x1, x0
	}
	if x1 <= 0 || x0 >= img.Bounds().Dx() {
		return
	}
	x0 = max(x0, 0)
	x1 = min(x1, img.Bounds().Dx())
	i := y*img.Stride + x0*4
	for x := x0; x < x1; x++ {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
		i += 4
	}
}

func drawVLine(img *image.NRGBA, x, y0, y1 int, c color.NRGBA) {
	if x < 0 || x >= img.Bounds().Dx() {
		return
	}
	if y0 > y1 {
		y0, y1 = y1, y0
	}
	if y1 <= 0 || y0 >= img.Bounds().Dy() {
		return
	}
	y0 = max(y0, 0)
	y1 = min(y1, img.Bounds().Dy())
	i := y0*img.Stride + x*4
	for y := y0; y < y1; y++ {
		copy(img.Pix[i:i+4], []uint8{c.R, c.G, c.B, c.A})
		i += img.Stride
	}
}
