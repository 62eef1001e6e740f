package config

import (
	"image/color"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

func TestDefaultIsValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("Default config invalid: %v", err)
	}
}

func TestLoadYAMLKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	data := "model:\n  backend: llamacpp\n  url: https://example.com/v1\n  name: gemini-2.5-flash\nannotation:\n  color: \"#00ff00\"\n"
	if err := os.WriteFile(path, []byte(data), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Model.Backend != "llamacpp" || cfg.Model.Name != "gemini-2.5-flash" {
		t.Errorf("Unexpected model section %+v", cfg.Model)
	}
	if cfg.Send.MaxSize != 1536 || cfg.Annotation.StrokeWidth != 6 {
		t.Error("Missing fields did not keep their defaults")
	}
	c, err := cfg.Annotation.ParseColor()
	if err != nil || c != (color.NRGBA{G: 255, A: 255}) {
		t.Errorf("Unexpected color %v (%v)", c, err)
	}
}

func TestLoadJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte(`{"send":{"format":"png","max_size":800,"quality":70}}`), 0o644); err != nil {
		t.Fatal(err)
	}

	cfg, err := LoadFromFile(path)
	if err != nil {
		t.Fatalf("LoadFromFile failed: %v", err)
	}
	if cfg.Send.Format != "png" || cfg.Send.MaxSize != 800 || cfg.Send.Quality != 70 {
		t.Errorf("Unexpected send section %+v", cfg.Send)
	}
	if cfg.Model.Backend != "ollama" {
		t.Error("Model defaults lost")
	}
}

func TestLoadInvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := LoadFromFile(path); err == nil {
		t.Error("Expected parse error")
	}
	if _, err := LoadFromFile(filepath.Join(t.TempDir(), "missing.json")); err == nil {
		t.Error("Expected error for a missing file")
	}
}

func TestSaveRoundTrip(t *testing.T) {
	for _, name := range []string{"config.json", "config.yml"} {
		path := filepath.Join(t.TempDir(), "nested", name)
		cfg := Default()
		cfg.Model.Name = "llava"
		cfg.Camera.Loop = false

		if err := cfg.SaveToFile(path); err != nil {
			t.Fatalf("%s: SaveToFile failed: %v", name, err)
		}
		info, err := os.Stat(path)
		if err != nil {
			t.Fatal(err)
		}
		if info.Mode().Perm() != 0o600 {
			t.Errorf("%s: expected mode 0600, got %o", name, info.Mode().Perm())
		}

		loaded, err := LoadFromFile(path)
		if err != nil {
			t.Fatalf("%s: LoadFromFile failed: %v", name, err)
		}
		if loaded.Model.Name != "llava" || loaded.Camera.Loop {
			t.Errorf("%s: values lost in round trip: %+v", name, loaded)
		}
	}
}

func TestMarshalYAML(t *testing.T) {
	data, err := Default().Marshal(true)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}
	if !strings.Contains(string(data), "stroke_width: 6") {
		t.Errorf("Unexpected YAML:\n%s", data)
	}
}

func TestApplyEnv(t *testing.T) {
	t.Setenv("VIEWFINDER_API_KEY", "secret")
	t.Setenv("VIEWFINDER_MODEL_URL", "http://gpu:8080")
	t.Setenv("VIEWFINDER_MODEL", "")

	cfg := Default()
	cfg.ApplyEnv()
	if cfg.Model.APIKey != "secret" || cfg.Model.URL != "http://gpu:8080" {
		t.Errorf("Environment not applied: %+v", cfg.Model)
	}
	if cfg.Model.Name != "gemma3" {
		t.Error("Empty variable overrode the model name")
	}
}

func TestValidate(t *testing.T) {
	cases := map[string]func(*Config){
		"backend":      func(c *Config) { c.Model.Backend = "openai" },
		"name":         func(c *Config) { c.Model.Name = "" },
		"timeout":      func(c *Config) { c.Model.Timeout = "soon" },
		"send format":  func(c *Config) { c.Send.Format = "webp" },
		"quality":      func(c *Config) { c.Send.Quality = 0 },
		"max size":     func(c *Config) { c.Send.MaxSize = -1 },
		"stroke width": func(c *Config) { c.Annotation.StrokeWidth = 0 },
		"color":        func(c *Config) { c.Annotation.Color = "ultraviolet" },
		"export":       func(c *Config) { c.Export.ImageFormat = "bmp" },
		"interval":     func(c *Config) { c.Camera.Interval = "-1s" },
	}
	for name, mutate := range cases {
		cfg := Default()
		mutate(cfg)
		if err := cfg.Validate(); err == nil {
			t.Errorf("%s: expected validation error", name)
		}
	}
}

func TestParseColor(t *testing.T) {
	cases := map[string]color.NRGBA{
		"red":       {R: 255, A: 255},
		" Orange ":  {R: 255, G: 165, A: 255},
		"#102030":   {R: 0x10, G: 0x20, B: 0x30, A: 255},
		"#10203080": {R: 0x10, G: 0x20, B: 0x30, A: 0x80},
	}
	for in, want := range cases {
		got, err := AnnotationConfig{Color: in}.ParseColor()
		if err != nil {
			t.Errorf("ParseColor(%q) failed: %v", in, err)
			continue
		}
		if got != want {
			t.Errorf("ParseColor(%q) = %v, want %v", in, got, want)
		}
	}
	for _, bad := range []string{"", "#12", "#gggggg"} {
		if _, err := (AnnotationConfig{Color: bad}).ParseColor(); err == nil {
			t.Errorf("ParseColor(%q) should fail", bad)
		}
	}
}

func TestDurations(t *testing.T) {
	d, err := ModelConfig{Timeout: "90s"}.TimeoutDuration()
	if err != nil || d != 90*time.Second {
		t.Errorf("Unexpected timeout %v (%v)", d, err)
	}
	d, err = CameraConfig{}.IntervalDuration()
	if err != nil || d != 0 {
		t.Errorf("Empty interval should be 0, got %v (%v)", d, err)
	}
}
