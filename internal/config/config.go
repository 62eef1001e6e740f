package config

import (
	"encoding/json"
	"fmt"
	"image/color"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"golang.org/x/image/colornames"
	"gopkg.in/yaml.v3"
)

// Config holds the application configuration
type Config struct {
	Model      ModelConfig      `json:"model" yaml:"model"`
	Send       SendConfig       `json:"send" yaml:"send"`
	Annotation AnnotationConfig `json:"annotation" yaml:"annotation"`
	Export     ExportConfig     `json:"export" yaml:"export"`
	Camera     CameraConfig     `json:"camera" yaml:"camera"`
}

// ModelConfig selects the remote vision backend
type ModelConfig struct {
	Backend string `json:"backend" yaml:"backend"` // ollama or llamacpp
	URL     string `json:"url" yaml:"url"`
	Name    string `json:"name" yaml:"name"`
	APIKey  string `json:"api_key,omitempty" yaml:"api_key,omitempty"`
	Timeout string `json:"timeout" yaml:"timeout"`
}

// SendConfig controls the image sent to the model
type SendConfig struct {
	Format  string `json:"format" yaml:"format"`
	MaxSize int    `json:"max_size" yaml:"max_size"`
	Quality int    `json:"quality" yaml:"quality"`
}

// AnnotationConfig styles the outline burnt into frames
type AnnotationConfig struct {
	StrokeWidth int    `json:"stroke_width" yaml:"stroke_width"`
	Color       string `json:"color" yaml:"color"`
}

// ExportConfig controls where results are written
type ExportConfig struct {
	Dir          string `json:"dir" yaml:"dir"`
	ImageFormat  string `json:"image_format" yaml:"image_format"`
	ImageQuality int    `json:"image_quality" yaml:"image_quality"`
}

// CameraConfig controls frame replay
type CameraConfig struct {
	Interval string `json:"interval" yaml:"interval"`
	Loop     bool   `json:"loop" yaml:"loop"`
}

// Default returns a configuration with default values
func Default() *Config {
	return &Config{
		Model: ModelConfig{
			Backend: "ollama",
			URL:     "http://localhost:11434",
			Name:    "gemma3",
			Timeout: "5m",
		},
		Send: SendConfig{
			Format:  "jpg",
			MaxSize: 1536,
			Quality: 85,
		},
		Annotation: AnnotationConfig{
			StrokeWidth: 6,
			Color:       "red",
		},
		Export: ExportConfig{
			Dir:          "./out",
			ImageFormat:  "png",
			ImageQuality: 90,
		},
		Camera: CameraConfig{
			Interval: "100ms",
			Loop:     true,
		},
	}
}

// LoadFromFile loads configuration from a JSON or YAML file, chosen by
// extension. Missing fields keep their defaults.
func LoadFromFile(filename string) (*Config, error) {
	data, err := os.ReadFile(filename)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	config := Default()
	if isYAML(filename) {
		err = yaml.Unmarshal(data, config)
	} else {
		err = json.Unmarshal(data, config)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", err)
	}

	return config, nil
}

// SaveToFile saves configuration as JSON or YAML, chosen by extension
func (c *Config) SaveToFile(filename string) error {
	dir := filepath.Dir(filename)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := c.Marshal(isYAML(filename))
	if err != nil {
		return err
	}

	if err := os.WriteFile(filename, data, 0o600); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}
	return nil
}

// Marshal renders the configuration as YAML or indented JSON
func (c *Config) Marshal(asYAML bool) ([]byte, error) {
	var (
		data []byte
		err  error
	)
	if asYAML {
		data, err = yaml.Marshal(c)
	} else {
		data, err = json.MarshalIndent(c, "", "  ")
	}
	if err != nil {
		return nil, fmt.Errorf("failed to marshal config: %w", err)
	}
	return data, nil
}

// ApplyEnv overrides secrets and endpoints from the environment
func (c *Config) ApplyEnv() {
	if v := os.Getenv("VIEWFINDER_API_KEY"); v != "" {
		c.Model.APIKey = v
	}
	if v := os.Getenv("VIEWFINDER_MODEL_URL"); v != "" {
		c.Model.URL = v
	}
	if v := os.Getenv("VIEWFINDER_MODEL"); v != "" {
		c.Model.Name = v
	}
}

// Validate checks if the configuration is valid
func (c *Config) Validate() error {
	switch c.Model.Backend {
	case "ollama", "llamacpp":
	default:
		return fmt.Errorf("model.backend must be ollama or llamacpp, got %q", c.Model.Backend)
	}

	if c.Model.Name == "" {
		return fmt.Errorf("model.name cannot be empty")
	}

	if _, err := c.Model.TimeoutDuration(); err != nil {
		return err
	}

	switch strings.ToLower(c.Send.Format) {
	case "jpg", "jpeg", "png":
	default:
		return fmt.Errorf("send.format must be jpg or png, got %q", c.Send.Format)
	}

	if c.Send.Quality < 1 || c.Send.Quality > 100 {
		return fmt.Errorf("send.quality must be between 1 and 100")
	}

	if c.Send.MaxSize < 0 {
		return fmt.Errorf("send.max_size cannot be negative")
	}

	if c.Annotation.StrokeWidth < 1 {
		return fmt.Errorf("annotation.stroke_width must be positive")
	}

	if _, err := c.Annotation.ParseColor(); err != nil {
		return err
	}

	switch strings.ToLower(c.Export.ImageFormat) {
	case "jpg", "jpeg", "png", "webp":
	default:
		return fmt.Errorf("export.image_format must be jpg, png or webp, got %q", c.Export.ImageFormat)
	}

	if _, err := c.Camera.IntervalDuration(); err != nil {
		return err
	}

	return nil
}

// TimeoutDuration parses model.timeout; empty means no extra limit
func (m ModelConfig) TimeoutDuration() (time.Duration, error) {
	if m.Timeout == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(m.Timeout)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("model.timeout: invalid duration %q", m.Timeout)
	}
	return d, nil
}

// IntervalDuration parses camera.interval
func (c CameraConfig) IntervalDuration() (time.Duration, error) {
	if c.Interval == "" {
		return 0, nil
	}
	d, err := time.ParseDuration(c.Interval)
	if err != nil || d < 0 {
		return 0, fmt.Errorf("camera.interval: invalid duration %q", c.Interval)
	}
	return d, nil
}

// ParseColor accepts SVG color names ("red", "orangered") or #rrggbb[aa]
func (a AnnotationConfig) ParseColor() (color.NRGBA, error) {
	name := strings.ToLower(strings.TrimSpace(a.Color))
	if name == "" {
		return color.NRGBA{}, fmt.Errorf("annotation.color cannot be empty")
	}
	if c, ok := colornames.Map[name]; ok {
		return color.NRGBA{R: c.R, G: c.G, B: c.B, A: c.A}, nil
	}
	if strings.HasPrefix(name, "#") && (len(name) == 7 || len(name) == 9) {
		v, err := strconv.ParseUint(name[1:], 16, 32)
		if err != nil {
			return color.NRGBA{}, fmt.Errorf("annotation.color: invalid hex %q", a.Color)
		}
		if len(name) == 7 {
			return color.NRGBA{R: uint8(v >> 16), G: uint8(v >> 8), B: uint8(v), A: 255}, nil
		}
		return color.NRGBA{R: uint8(v >> 24), G: uint8(v >> 16), B: uint8(v >> 8), A: uint8(v)}, nil
	}
	return color.NRGBA{}, fmt.Errorf("annotation.color: unknown color %q", a.Color)
}

// GetConfigPath returns the default configuration file path
func GetConfigPath() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "./config.json"
	}
	return filepath.Join(home, ".config", "viewfinder", "config.json")
}

func isYAML(filename string) bool {
	ext := strings.ToLower(filepath.Ext(filename))
	return ext == ".yaml" || ext == ".yml"
}
