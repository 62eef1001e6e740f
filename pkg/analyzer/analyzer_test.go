package analyzer

import (
	"image"
	"testing"
)

func createTestImage(width, height int) image.Image {
	return image.NewNRGBA(image.Rect(0, 0, width, height))
}

func TestNew(t *testing.T) {
	a := New()
	if a == nil {
		t.Fatal("New() returned nil")
	}
	if a.config.MinFrameSize != 100 {
		t.Errorf("Expected MinFrameSize 100, got %d", a.config.MinFrameSize)
	}
}

func TestInfo(t *testing.T) {
	a := New()
	info := a.Info(createTestImage(800, 600))

	if info.Width != 800 || info.Height != 600 {
		t.Errorf("Expected 800x600, got %dx%d", info.Width, info.Height)
	}
	if info.Area != 480000 {
		t.Errorf("Expected area 480000, got %d", info.Area)
	}
	expected := 800.0 / 600.0
	if info.AspectRatio != expected {
		t.Errorf("Expected aspect ratio %f, got %f", expected, info.AspectRatio)
	}
	if info.String() != "800x600 (1.33)" {
		t.Errorf("Unexpected String(): %s", info.String())
	}
}

func TestInfoEmptyImage(t *testing.T) {
	info := New().Info(createTestImage(0, 0))
	if info.AspectRatio != 0 {
		t.Errorf("Expected zero aspect ratio, got %f", info.AspectRatio)
	}
}

func TestValidate(t *testing.T) {
	a := New()

	if err := a.Validate(createTestImage(200, 200)); err != nil {
		t.Errorf("Valid frame rejected: %v", err)
	}
	if err := a.Validate(createTestImage(50, 50)); err == nil {
		t.Error("Expected error for small frame")
	}
	if err := a.Validate(createTestImage(1000, 100)); err == nil {
		t.Error("Expected error for a 10:1 sliver")
	}
	if err := a.Validate(nil); err == nil {
		t.Error("Expected error for nil frame")
	}
}

func TestValidateCustomConfig(t *testing.T) {
	a := NewWithConfig(Config{MinFrameSize: 10})

	if err := a.Validate(createTestImage(1000, 20)); err != nil {
		t.Errorf("Aspect check should be disabled: %v", err)
	}
	if err := a.Validate(createTestImage(9, 100)); err == nil {
		t.Error("Expected error below MinFrameSize")
	}
}
