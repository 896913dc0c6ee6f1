package types

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoundingBoxValid(t *testing.T) {
	tests := []struct {
		name string
		box  BoundingBox
		want bool
	}{
		{"normal", BoundingBox{ClassID: 0, X: 0.5, Y: 0.5, W: 0.2, H: 0.3}, true},
		{"zero width", BoundingBox{X: 0.5, Y: 0.5, W: 0, H: 0.3}, false},
		{"negative height", BoundingBox{X: 0.5, Y: 0.5, W: 0.2, H: -0.1}, false},
		{"negative class", BoundingBox{ClassID: -1, X: 0.5, Y: 0.5, W: 0.2, H: 0.2}, false},
		{"nan", BoundingBox{X: math.NaN(), Y: 0.5, W: 0.2, H: 0.2}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.box.Valid())
		})
	}
}

func TestRectConversion(t *testing.T) {
	b := BoundingBox{ClassID: 3, X: 0.5, Y: 0.4, W: 0.2, H: 0.4}
	r := b.Rect()
	assert.InDelta(t, 0.4, r.XMin, 1e-12)
	assert.InDelta(t, 0.2, r.YMin, 1e-12)
	assert.InDelta(t, 0.6, r.XMax, 1e-12)
	assert.InDelta(t, 0.6, r.YMax, 1e-12)
	assert.InDelta(t, 0.08, r.Area(), 1e-12)

	back := r.Box(3)
	assert.Equal(t, 3, back.ClassID)
	assert.InDelta(t, b.X, back.X, 1e-12)
	assert.InDelta(t, b.Y, back.Y, 1e-12)
	assert.InDelta(t, b.W, back.W, 1e-12)
	assert.InDelta(t, b.H, back.H, 1e-12)
}

func TestRectDegenerateArea(t *testing.T) {
	assert.Zero(t, Rect{XMin: 0.5, XMax: 0.4, YMin: 0, YMax: 1}.Area())
}

func TestBoundingBoxString(t *testing.T) {
	b := BoundingBox{ClassID: 0, X: 0.5, Y: 0.5, W: 0.2, H: 0.3}
	assert.Equal(t, "0 0.500000 0.500000 0.200000 0.300000", b.String())
}

func TestNewLabelSet(t *testing.T) {
	boxes := []BoundingBox{{X: 0.1, Y: 0.1, W: 0.1, H: 0.1}, {X: 0.5, Y: 0.5, W: 0.2, H: 0.2}}

	ls, err := NewLabelSet(boxes, []int{4, 7})
	require.NoError(t, err)
	assert.Equal(t, []int{4, 7}, ls.ClassIDs())

	_, err = NewLabelSet(boxes, []int{4})
	assert.ErrorIs(t, err, ErrLengthMismatch)
}

func TestLabelSetClone(t *testing.T) {
	ls := LabelSet{{ClassID: 1, X: 0.5, Y: 0.5, W: 0.1, H: 0.1}}
	c := ls.Clone()
	c[0].X = 0.9
	assert.Equal(t, 0.5, ls[0].X)
}

func TestTransformSpecParam(t *testing.T) {
	s := TransformSpec{Name: "rotate", P: 0.5, Params: map[string]float64{"limit": 10}}
	assert.Equal(t, 10.0, s.Param("limit", 90))
	assert.Equal(t, 0.0, s.Param("expand", 0))
	assert.Equal(t, 3.0, TransformSpec{}.Param("x", 3))
}
