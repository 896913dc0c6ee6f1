package imageaugmenter_test

import (
	"context"
	"image"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	imageaugmenter "github.com/menta2k/image-augmenter"
	"github.com/menta2k/image-augmenter/pkg/config"
	"github.com/menta2k/image-augmenter/pkg/types"
)

func TestNewWithConfigFromCallerPackage(t *testing.T) {
	path := filepath.Join(t.TempDir(), "augment.toml")
	cfg := config.Default()
	cfg.Augment.Multiplicity = 4
	cfg.Augment.Seed = 99
	cfg.Augment.MinVisibility = 0.5
	cfg.Pipeline = []types.TransformSpec{{Name: "horizontal_flip", P: 1}}
	require.NoError(t, cfg.SaveToFile(path))

	loaded, err := config.LoadFromFile(path)
	require.NoError(t, err)

	aug, err := imageaugmenter.NewWithConfig(loaded)
	require.NoError(t, err)
	assert.Equal(t, 4, aug.Config().Augment.Multiplicity)
	assert.Equal(t, uint64(99), aug.Config().Augment.Seed)
	assert.Equal(t, 0.5, aug.Config().Augment.MinVisibility)
	assert.Equal(t, []string{"horizontal_flip"}, aug.Steps())

	img := image.NewNRGBA(image.Rect(0, 0, 32, 32))
	boxes := types.LabelSet{{ClassID: 1, X: 0.25, Y: 0.5, W: 0.2, H: 0.2}}
	variants, err := aug.AugmentImage(context.Background(), img, boxes, 2)
	require.NoError(t, err)
	require.Len(t, variants, 2)
	for _, v := range variants {
		require.Len(t, v.Labels, 1)
		assert.InDelta(t, 0.75, v.Labels[0].X, 1e-9)
	}
}

func TestNewWithConfigRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name   string
		modify func(*config.Config)
	}{
		{"zero multiplicity", func(c *config.Config) { c.Augment.Multiplicity = 0 }},
		{"visibility above one", func(c *config.Config) { c.Augment.MinVisibility = 1.2 }},
		{"unknown transform", func(c *config.Config) {
			c.Pipeline = []types.TransformSpec{{Name: "swirl", P: 0.5}}
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			tt.modify(cfg)
			_, err := imageaugmenter.NewWithConfig(cfg)
			assert.Error(t, err)
		})
	}
}
