package config

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"gopkg.in/yaml.v3"

	"github.com/menta2k/image-augmenter/internal/utils"
	"github.com/menta2k/image-augmenter/pkg/bbox"
	"github.com/menta2k/image-augmenter/pkg/generator"
	"github.com/menta2k/image-augmenter/pkg/processing"
	"github.com/menta2k/image-augmenter/pkg/transform"
	"github.com/menta2k/image-augmenter/pkg/types"
)

// Config holds the application configuration
type Config struct {
	Augment  AugmentConfig         `json:"augment" yaml:"augment" toml:"augment"`
	Pipeline []types.TransformSpec `json:"pipeline" yaml:"pipeline" toml:"pipeline"`
	Input    InputConfig           `json:"input" yaml:"input" toml:"input"`
	Output   OutputConfig          `json:"output" yaml:"output" toml:"output"`
}

// AugmentConfig holds configuration for variant generation
type AugmentConfig struct {
	Multiplicity  int     `json:"multiplicity" yaml:"multiplicity" toml:"multiplicity"`
	MinVisibility float64 `json:"min_visibility" yaml:"min_visibility" toml:"min_visibility"`
	Seed          uint64  `json:"seed" yaml:"seed" toml:"seed"`
	DropEmpty     bool    `json:"drop_empty" yaml:"drop_empty" toml:"drop_empty"`
}

// InputConfig holds the source dataset layout
type InputConfig struct {
	ImageDir   string   `json:"image_dir" yaml:"image_dir" toml:"image_dir"`
	LabelDir   string   `json:"label_dir" yaml:"label_dir" toml:"label_dir"`
	Extensions []string `json:"extensions" yaml:"extensions" toml:"extensions"`
}

// OutputConfig holds configuration for output generation
type OutputConfig struct {
	ImageDir string `json:"image_dir" yaml:"image_dir" toml:"image_dir"`
	LabelDir string `json:"label_dir" yaml:"label_dir" toml:"label_dir"`
	Format   string `json:"format" yaml:"format" toml:"format"`
	Quality  int    `json:"quality" yaml:"quality" toml:"quality"`
	Lossless bool   `json:"lossless" yaml:"lossless" toml:"lossless"`
	DebugDir string `json:"debug_dir,omitempty" yaml:"debug_dir,omitempty" toml:"debug_dir,omitempty"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Augment: AugmentConfig{
			Multiplicity:  generator.DefaultMultiplicity,
			MinVisibility: bbox.DefaultMinVisibility,
		},
		Pipeline: transform.DefaultPipeline(),
		Input: InputConfig{
			ImageDir:   "dataset/images",
			LabelDir:   "dataset/labels",
			Extensions: append([]string(nil), utils.DefaultImageExtensions...),
		},
		Output: OutputConfig{
			ImageDir: "augmented/images",
			LabelDir: "augmented/labels",
			Format:   processing.FormatJPEG,
			Quality:  95,
		},
	}
}

// LoadFromFile loads configuration from a JSON, YAML or TOML file. Fields
// the file leaves out keep their default values; a file without a pipeline
// section gets the default pipeline.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	config.Pipeline = nil

	switch ext := utils.GetFileExtension(filename); ext {
	case "yaml", "yml":
		err = yaml.Unmarshal(data, config)
	case "toml":
		err = toml.Unmarshal(data, config)
	case "json", "":
		err = json.Unmarshal(data, config)
	default:
		return nil, fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	if config.Pipeline == nil {
		config.Pipeline = transform.DefaultPipeline()
	}
	return config, nil
}

// SaveToFile saves configuration in the format implied by the extension
func (c *Config) SaveToFile(filename string) error {
	if err := utils.EnsureDir(filepath.Dir(filename)); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	var (
		data []byte
		err  error
	)
	switch ext := utils.GetFileExtension(filename); ext {
	case "yaml", "yml":
		data, err = yaml.Marshal(c)
	case "toml":
		var buf bytes.Buffer
		err = toml.NewEncoder(&buf).Encode(c)
		data = buf.Bytes()
	case "json", "":
		data, err = json.MarshalIndent(c, "", "  ")
	default:
		return fmt.Errorf("unsupported config format: %s", ext)
	}
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(filename, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	if c.Augment.Multiplicity < 1 {
		return fmt.Errorf("augment.multiplicity must be positive")
	}

	if c.Augment.MinVisibility < 0 || c.Augment.MinVisibility > 1 {
		return fmt.Errorf("augment.min_visibility must be between 0 and 1")
	}

	if _, err := transform.BuildAll(c.Pipeline); err != nil {
		return fmt.Errorf("pipeline: %w", err)
	}

	if strings.TrimSpace(c.Input.ImageDir) == "" || strings.TrimSpace(c.Input.LabelDir) == "" {
		return fmt.Errorf("input.image_dir and input.label_dir are required")
	}

	if len(c.Input.Extensions) == 0 {
		return fmt.Errorf("input.extensions cannot be empty")
	}

	if strings.TrimSpace(c.Output.ImageDir) == "" || strings.TrimSpace(c.Output.LabelDir) == "" {
		return fmt.Errorf("output.image_dir and output.label_dir are required")
	}

	if _, err := processing.NormalizeFormat(c.Output.Format); err != nil {
		return fmt.Errorf("output.format: %w", err)
	}

	if c.Output.Quality < 1 || c.Output.Quality > 100 {
		return fmt.Errorf("output.quality must be between 1 and 100")
	}

	return nil
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.yaml"
	}
	return filepath.Join(home, ".config", "image-augmenter", "config.yaml")
}
