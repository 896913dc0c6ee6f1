package dataset

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"sort"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/generator"
	"github.com/menta2k/image-augmenter/pkg/labels"
	"github.com/menta2k/image-augmenter/pkg/pipeline"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/types"
)

func createTestImage(width, height int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.Set(x, y, color.RGBA{uint8(x * 8), uint8(y * 8), 100, 255})
		}
	}
	return img
}

type fixture struct {
	layout Layout
}

func newFixture(t *testing.T) fixture {
	t.Helper()
	root := t.TempDir()
	l := Layout{
		ImageDir:    filepath.Join(root, "images"),
		LabelDir:    filepath.Join(root, "labels"),
		OutImageDir: filepath.Join(root, "out", "images"),
		OutLabelDir: filepath.Join(root, "out", "labels"),
	}
	require.NoError(t, os.MkdirAll(l.ImageDir, 0755))
	require.NoError(t, os.MkdirAll(l.LabelDir, 0755))
	return fixture{layout: l}
}

func (f fixture) addImage(t *testing.T, name string) {
	t.Helper()
	p := processing.NewProcessor()
	require.NoError(t, p.SaveImage(createTestImage(32, 24), filepath.Join(f.layout.ImageDir, name), processing.FormatPNG, 0, false))
}

func (f fixture) addLabel(t *testing.T, stem, text string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.LabelDir, stem+".txt"), []byte(text), 0644))
}

func newRunner(t *testing.T, l Layout, n int, steps ...types.TransformSpec) *Runner {
	t.Helper()
	p, err := pipeline.New(pipeline.Config{Steps: steps, MinVisibility: 0.3})
	require.NoError(t, err)
	g, err := generator.New(p, generator.Config{Multiplicity: n, Seed: 7})
	require.NoError(t, err)
	r, err := NewRunner(g, l, Encoding{Quality: 90})
	require.NoError(t, err)
	r.SetLogger(log.New(&bytes.Buffer{}))
	return r
}

func listNames(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	var names []string
	for _, e := range entries {
		names = append(names, e.Name())
	}
	sort.Strings(names)
	return names
}

func TestLabelPathAndVariantName(t *testing.T) {
	assert.Equal(t, filepath.Join("labels", "cat.txt"), LabelPath("labels", "/data/images/cat.JPG"))
	assert.Equal(t, "cat_aug12", VariantName("cat", 12))
}

func TestOutputPaths(t *testing.T) {
	l := Layout{OutImageDir: "oi", OutLabelDir: "ol"}
	src := Source{Stem: "img.v2", ImagePath: "in/img.v2.png"}

	imgPath, labelPath := l.OutputPaths(src, 4)
	assert.Equal(t, filepath.Join("oi", "img.v2_aug4.jpg"), imgPath)
	assert.Equal(t, filepath.Join("ol", "img.v2_aug4.txt"), labelPath)

	l.Format = "webp"
	imgPath, _ = l.OutputPaths(src, 0)
	assert.Equal(t, filepath.Join("oi", "img.v2_aug0.webp"), imgPath)

	assert.Empty(t, l.DebugPath("img", 0))
	l.DebugDir = "dbg"
	assert.Equal(t, filepath.Join("dbg", "img_aug0.jpg"), l.DebugPath("img", 0))
}

func TestDiscover(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "b.png")
	f.addImage(t, "a.PNG")
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.ImageDir, "readme.md"), nil, 0644))

	sources, err := f.layout.Discover()
	require.NoError(t, err)
	require.Len(t, sources, 2)
	assert.Equal(t, "a", sources[0].Stem)
	assert.Equal(t, filepath.Join(f.layout.LabelDir, "a.txt"), sources[0].LabelPath)
	assert.Equal(t, "b", sources[1].Stem)

}

func TestDiscoverRequiresImageDir(t *testing.T) {
	f := newFixture(t)
	file := filepath.Join(t.TempDir(), "images.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))

	tests := []struct {
		name string
		dir  string
	}{
		{"missing", filepath.Join(f.layout.ImageDir, "missing")},
		{"regular file", file},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			layout := f.layout
			layout.ImageDir = tt.dir
			_, err := layout.Discover()
			require.ErrorIs(t, err, ErrNoImageDir)
			assert.Contains(t, err.Error(), tt.dir)
		})
	}
}

func TestRunWritesNVariantsPerImage(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "cat.png")
	f.addLabel(t, "cat", "0 0.5 0.5 0.2 0.3\n1 0.25 0.25 0.1 0.1\n")

	r := newRunner(t, f.layout, 3, types.TransformSpec{Name: "horizontal_flip", P: 1})
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"cat_aug0.jpg", "cat_aug1.jpg", "cat_aug2.jpg"}, listNames(t, f.layout.OutImageDir))
	assert.Equal(t, []string{"cat_aug0.txt", "cat_aug1.txt", "cat_aug2.txt"}, listNames(t, f.layout.OutLabelDir))

	data, err := os.ReadFile(filepath.Join(f.layout.OutLabelDir, "cat_aug1.txt"))
	require.NoError(t, err)
	assert.Equal(t, "0 0.500000 0.500000 0.200000 0.300000\n1 0.750000 0.250000 0.100000 0.100000\n", string(data))

	img, err := processing.NewProcessor().LoadImage(filepath.Join(f.layout.OutImageDir, "cat_aug0.jpg"))
	require.NoError(t, err)
	assert.Equal(t, image.Rect(0, 0, 32, 24), img.Bounds())

	assert.Equal(t, 1, summary.Images)
	assert.Equal(t, 0, summary.Skipped)
	assert.Equal(t, 3, summary.Variants)
	assert.Equal(t, 6, summary.BoxesIn)
	assert.Equal(t, 6, summary.BoxesOut)
	assert.Positive(t, summary.BytesWritten)
}

func TestRunSkipsImagesWithoutLabels(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "labeled.png")
	f.addImage(t, "orphan.png")
	f.addLabel(t, "labeled", "0 0.5 0.5 0.2 0.2\n")

	r := newRunner(t, f.layout, 2)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, []string{"labeled_aug0.jpg", "labeled_aug1.jpg"}, listNames(t, f.layout.OutImageDir))
	assert.Equal(t, []string{"labeled_aug0.txt", "labeled_aug1.txt"}, listNames(t, f.layout.OutLabelDir))
	assert.Equal(t, 2, summary.Images)
	assert.Equal(t, 1, summary.Skipped)
}

func TestRunSkipsUndecodableImages(t *testing.T) {
	f := newFixture(t)
	require.NoError(t, os.WriteFile(filepath.Join(f.layout.ImageDir, "broken.jpg"), []byte("not a jpeg"), 0644))
	f.addLabel(t, "broken", "0 0.5 0.5 0.2 0.2\n")

	r := newRunner(t, f.layout, 2)
	_, _, err := r.Load(Source{
		Stem:      "broken",
		ImagePath: filepath.Join(f.layout.ImageDir, "broken.jpg"),
		LabelPath: filepath.Join(f.layout.LabelDir, "broken.txt"),
	})
	assert.ErrorIs(t, err, ErrSkippable)

	summary, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 1, summary.Skipped)
	assert.Empty(t, listNames(t, f.layout.OutImageDir))
}

func TestRunWritesEmptyLabelFiles(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "far.png")
	f.addLabel(t, "far", "0 1.5 0.5 0.2 0.2\nnot a label\n")

	r := newRunner(t, f.layout, 1)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(f.layout.OutLabelDir, "far_aug0.txt"))
	require.NoError(t, err)
	assert.Empty(t, data)
	assert.Equal(t, 1, summary.EmptyVariants)
	assert.Equal(t, 1, summary.BoxesDropped)
}

func TestRunIsolatesWriteFailures(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "dog.png")
	f.addLabel(t, "dog", "3 0.5 0.5 0.4 0.4\n")

	// a directory where the label of variant 1 should go
	require.NoError(t, os.MkdirAll(filepath.Join(f.layout.OutLabelDir, "dog_aug1.txt"), 0755))

	r := newRunner(t, f.layout, 3)
	summary, err := r.Run(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 2, summary.Variants)
	assert.Equal(t, 1, summary.WriteFailures)
	// the image of the failed pair is removed
	assert.Equal(t, []string{"dog_aug0.jpg", "dog_aug2.jpg"}, listNames(t, f.layout.OutImageDir))
}

func TestRunWritesDebugOverlays(t *testing.T) {
	f := newFixture(t)
	f.layout.DebugDir = filepath.Join(filepath.Dir(f.layout.OutImageDir), "debug")
	f.addImage(t, "bird.png")
	f.addLabel(t, "bird", "2 0.5 0.5 0.5 0.5\n")

	r := newRunner(t, f.layout, 2)
	_, err := r.Run(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"bird_aug0.jpg", "bird_aug1.jpg"}, listNames(t, f.layout.DebugDir))
}

func TestRunStopsOnCancel(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "a.png")
	f.addLabel(t, "a", "0 0.5 0.5 0.2 0.2\n")

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	r := newRunner(t, f.layout, 2)
	_, err := r.Run(ctx)
	assert.ErrorIs(t, err, context.Canceled)
	assert.Empty(t, listNames(t, f.layout.OutImageDir))
}

func TestNewRunnerRejectsBadFormat(t *testing.T) {
	p, err := pipeline.New(pipeline.Config{MinVisibility: 0.3})
	require.NoError(t, err)
	g, err := generator.New(p, generator.Config{Multiplicity: 1})
	require.NoError(t, err)

	_, err = NewRunner(g, Layout{Format: "tga"}, Encoding{})
	assert.Error(t, err)
	_, err = NewRunner(nil, Layout{}, Encoding{})
	assert.Error(t, err)
}

func TestOutputLabelsDecode(t *testing.T) {
	f := newFixture(t)
	f.addImage(t, "x.png")
	f.addLabel(t, "x", "5 0.4 0.6 0.2 0.2\n")

	r := newRunner(t, f.layout, 4, pipeline.DefaultConfig().Steps...)
	_, err := r.Run(context.Background())
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		ls, err := labels.ReadFile(filepath.Join(f.layout.OutLabelDir, VariantName("x", i)+".txt"), labels.DecodeOptions{})
		require.NoError(t, err)
		for _, b := range ls {
			assert.Equal(t, 5, b.ClassID)
			assert.True(t, b.Valid())
		}
	}
}
