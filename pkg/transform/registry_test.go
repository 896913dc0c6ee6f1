package transform

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/menta2k/image-augmenter/pkg/types"
)

func TestLookupNormalizesNames(t *testing.T) {
	for _, name := range []string{"horizontal_flip", "HorizontalFlip", "horizontal-flip", "Horizontal Flip"} {
		def, ok := Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, "horizontal_flip", def.Name)
	}
	_, ok := Lookup("swirl")
	assert.False(t, ok)
}

func TestDefinitionsSorted(t *testing.T) {
	defs := Definitions()
	require.Len(t, defs, 11)
	for i := 1; i < len(defs); i++ {
		assert.Less(t, defs[i-1].Name, defs[i].Name)
	}
}

func TestDefaultPipelineBuilds(t *testing.T) {
	steps, err := BuildAll(DefaultPipeline())
	require.NoError(t, err)
	require.Len(t, steps, 11)

	geometric := map[string]bool{}
	for _, s := range steps {
		geometric[s.Name()] = s.Geometric()
	}
	assert.True(t, geometric["horizontal_flip"])
	assert.True(t, geometric["rotate"])
	assert.True(t, geometric["perspective"])
	assert.False(t, geometric["clahe"])
	assert.False(t, geometric["coarse_dropout"])
}

func TestBuildErrors(t *testing.T) {
	tests := []struct {
		name string
		spec types.TransformSpec
	}{
		{"unknown transform", types.TransformSpec{Name: "swirl", P: 0.5}},
		{"probability above one", types.TransformSpec{Name: "rotate", P: 1.5}},
		{"negative probability", types.TransformSpec{Name: "rotate", P: -0.5}},
		{"unknown parameter", types.TransformSpec{Name: "rotate", P: 0.5, Params: map[string]float64{"angle": 3}}},
		{"rotate limit out of range", types.TransformSpec{Name: "rotate", P: 0.5, Params: map[string]float64{"limit": 200}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Build(tt.spec)
			assert.Error(t, err)
		})
	}
}

func TestBuildAllReportsStepIndex(t *testing.T) {
	_, err := BuildAll([]types.TransformSpec{
		{Name: "horizontal_flip", P: 0.5},
		{Name: "swirl", P: 0.5},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipeline step 1")
}

func TestBuildKeepsProbability(t *testing.T) {
	tr, err := Build(types.TransformSpec{Name: "gaussian_blur", P: 0.2})
	require.NoError(t, err)
	assert.Equal(t, "gaussian_blur", tr.Name())
	assert.Equal(t, 0.2, tr.Probability())
}
