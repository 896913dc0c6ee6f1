package transform

import (
	"fmt"
	"sort"
	"strings"

	"github.com/menta2k/image-augmenter/pkg/types"
)

// Builder creates a transform from its declared spec
type Builder func(spec types.TransformSpec) (Transform, error)

// Definition describes a registered transform
type Definition struct {
	Name      string
	Geometric bool
	Defaults  map[string]float64
	Build     Builder
}

var registry = map[string]Definition{}

// Register adds a transform definition. Names are matched case-insensitively
// and ignoring '_' and '-', so "HorizontalFlip" and "horizontal_flip" are
// the same transform.
func Register(def Definition) {
	registry[key(def.Name)] = def
}

func key(name string) string {
	name = strings.ToLower(strings.TrimSpace(name))
	return strings.NewReplacer("_", "", "-", "", " ", "").Replace(name)
}

// Lookup returns the definition registered under name
func Lookup(name string) (Definition, bool) {
	def, ok := registry[key(name)]
	return def, ok
}

// Definitions returns all registered transforms sorted by name
func Definitions() []Definition {
	defs := make([]Definition, 0, len(registry))
	for _, d := range registry {
		defs = append(defs, d)
	}
	sort.Slice(defs, func(i, j int) bool { return defs[i].Name < defs[j].Name })
	return defs
}

// Build creates the transform declared by spec
func Build(spec types.TransformSpec) (Transform, error) {
	def, ok := Lookup(spec.Name)
	if !ok {
		return nil, fmt.Errorf("unknown transform %q", spec.Name)
	}
	if spec.P < 0 || spec.P > 1 {
		return nil, fmt.Errorf("transform %s: probability %v outside [0,1]", def.Name, spec.P)
	}
	for name := range spec.Params {
		if _, known := def.Defaults[name]; !known {
			return nil, fmt.Errorf("transform %s: unknown parameter %q", def.Name, name)
		}
	}
	return def.Build(spec)
}

// BuildAll creates transforms in declared order
func BuildAll(specs []types.TransformSpec) ([]Transform, error) {
	out := make([]Transform, 0, len(specs))
	for i, spec := range specs {
		t, err := Build(spec)
		if err != nil {
			return nil, fmt.Errorf("pipeline step %d: %w", i, err)
		}
		out = append(out, t)
	}
	return out, nil
}

// DefaultPipeline is the standard eleven step detection pipeline
func DefaultPipeline() []types.TransformSpec {
	return []types.TransformSpec{
		{Name: "horizontal_flip", P: 0.5},
		{Name: "random_brightness_contrast", P: 0.5},
		{Name: "rotate", P: 0.5, Params: map[string]float64{"limit": 10}},
		{Name: "gaussian_blur", P: 0.2},
		{Name: "random_gamma", P: 0.3},
		{Name: "hue_saturation_value", P: 0.3},
		{Name: "clahe", P: 0.2},
		{Name: "rgb_shift", P: 0.3, Params: map[string]float64{"r_shift_limit": 15, "g_shift_limit": 15, "b_shift_limit": 15}},
		{Name: "coarse_dropout", P: 0.3, Params: map[string]float64{"max_holes": 8, "max_height": 16, "max_width": 16}},
		{Name: "perspective", P: 0.2, Params: map[string]float64{"scale_min": 0.02, "scale_max": 0.05}},
		{Name: "iso_noise", P: 0.3},
	}
}

func init() {
	Register(Definition{
		Name:      "horizontal_flip",
		Geometric: true,
		Defaults:  map[string]float64{},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewHorizontalFlip(s.P), nil
		},
	})
	Register(Definition{
		Name:      "rotate",
		Geometric: true,
		Defaults:  map[string]float64{"limit": 90, "expand": 0},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewRotate(s.P, s.Param("limit", 90), s.Param("expand", 0) != 0)
		},
	})
	Register(Definition{
		Name:      "perspective",
		Geometric: true,
		Defaults:  map[string]float64{"scale_min": 0.05, "scale_max": 0.1},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewPerspective(s.P, s.Param("scale_min", 0.05), s.Param("scale_max", 0.1))
		},
	})
	Register(Definition{
		Name:     "random_brightness_contrast",
		Defaults: map[string]float64{"brightness_limit": 0.2, "contrast_limit": 0.2},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewBrightnessContrast(s.P, s.Param("brightness_limit", 0.2), s.Param("contrast_limit", 0.2))
		},
	})
	Register(Definition{
		Name:     "gaussian_blur",
		Defaults: map[string]float64{"blur_min": 3, "blur_max": 7},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewGaussianBlur(s.P, int(s.Param("blur_min", 3)), int(s.Param("blur_max", 7)))
		},
	})
	Register(Definition{
		Name:     "random_gamma",
		Defaults: map[string]float64{"gamma_min": 80, "gamma_max": 120},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewGamma(s.P, s.Param("gamma_min", 80), s.Param("gamma_max", 120))
		},
	})
	Register(Definition{
		Name:     "hue_saturation_value",
		Defaults: map[string]float64{"hue_shift_limit": 20, "sat_shift_limit": 30, "val_shift_limit": 20},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewHueSaturationValue(s.P, s.Param("hue_shift_limit", 20), s.Param("sat_shift_limit", 30), s.Param("val_shift_limit", 20))
		},
	})
	Register(Definition{
		Name:     "clahe",
		Defaults: map[string]float64{"clip_limit": 4, "tile_grid_size": 8},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewCLAHE(s.P, s.Param("clip_limit", 4), int(s.Param("tile_grid_size", 8)))
		},
	})
	Register(Definition{
		Name:     "rgb_shift",
		Defaults: map[string]float64{"r_shift_limit": 20, "g_shift_limit": 20, "b_shift_limit": 20},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewRGBShift(s.P, s.Param("r_shift_limit", 20), s.Param("g_shift_limit", 20), s.Param("b_shift_limit", 20))
		},
	})
	Register(Definition{
		Name: "coarse_dropout",
		Defaults: map[string]float64{
			"max_holes": 8, "max_height": 8, "max_width": 8,
			"min_holes": 0, "min_height": 0, "min_width": 0, "fill_value": 0,
		},
		Build: func(s types.TransformSpec) (Transform, error) {
			maxHoles := int(s.Param("max_holes", 8))
			maxH := s.Param("max_height", 8)
			maxW := s.Param("max_width", 8)
			// unset minimums default to the maximums
			minHoles := int(s.Param("min_holes", 0))
			if minHoles <= 0 {
				minHoles = maxHoles
			}
			minH := s.Param("min_height", 0)
			if minH <= 0 {
				minH = maxH
			}
			minW := s.Param("min_width", 0)
			if minW <= 0 {
				minW = maxW
			}
			return NewCoarseDropout(s.P, DropoutConfig{
				MinHoles:  minHoles,
				MaxHoles:  maxHoles,
				MinHeight: minH,
				MaxHeight: maxH,
				MinWidth:  minW,
				MaxWidth:  maxW,
				Fill:      uint8(clamp(s.Param("fill_value", 0), 0, 255)),
			})
		},
	})
	Register(Definition{
		Name:     "iso_noise",
		Defaults: map[string]float64{"color_shift_min": 0.01, "color_shift_max": 0.05, "intensity_min": 0.1, "intensity_max": 0.5},
		Build: func(s types.TransformSpec) (Transform, error) {
			return NewISONoise(s.P,
				s.Param("color_shift_min", 0.01), s.Param("color_shift_max", 0.05),
				s.Param("intensity_min", 0.1), s.Param("intensity_max", 0.5))
		},
	})
}
