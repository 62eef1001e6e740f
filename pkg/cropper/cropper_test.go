package cropper

import (
	"image"
	"image/color"
	"testing"

	"github.com/menta2k/viewfinder/pkg/types"
)

// createTestImage creates a frame with a bright square in the middle
func createTestImage(width, height int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if x > width/3 && x < 2*width/3 && y > height/3 && y < 2*height/3 {
				img.SetNRGBA(x, y, color.NRGBA{255, 255, 255, 255})
			} else {
				img.SetNRGBA(x, y, color.NRGBA{64, 64, 64, 255})
			}
		}
	}
	return img
}

func triangle(surfaceW, surfaceH int) types.Gesture {
	return types.Gesture{
		Points:        []types.Point{{X: 10, Y: 10}, {X: 50, Y: 10}, {X: 30, Y: 40}},
		SurfaceWidth:  surfaceW,
		SurfaceHeight: surfaceH,
	}
}

func TestNew(t *testing.T) {
	c := New()
	if c == nil {
		t.Fatal("New() returned nil")
	}
	if c.config.PaddingRatio != DefaultPaddingRatio {
		t.Errorf("Expected padding %v, got %v", DefaultPaddingRatio, c.config.PaddingRatio)
	}
}

func TestRegionScalesToFrame(t *testing.T) {
	c := NewWithConfig(CropConfig{})

	// surface 100x100 shown for a 200x400 frame
	r, err := c.Region(triangle(100, 100), image.Rect(0, 0, 200, 400))
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	want := image.Rect(20, 40, 100, 160)
	if r != want {
		t.Errorf("Expected region %v, got %v", want, r)
	}
}

func TestRegionPadding(t *testing.T) {
	c := NewWithConfig(CropConfig{PaddingRatio: 0.5})

	r, err := c.Region(triangle(100, 100), image.Rect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	// box 10..50 x 10..40, padded by 20 and 15
	want := image.Rect(0, 0, 70, 55)
	if r != want {
		t.Errorf("Expected region %v, got %v", want, r)
	}
}

func TestRegionClipsToBounds(t *testing.T) {
	c := NewWithConfig(CropConfig{})
	g := types.Gesture{
		Points:        []types.Point{{X: -20, Y: -20}, {X: 150, Y: 10}, {X: 50, Y: 300}},
		SurfaceWidth:  100,
		SurfaceHeight: 100,
	}

	r, err := c.Region(g, image.Rect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if r != image.Rect(0, 0, 100, 100) {
		t.Errorf("Expected clipped region, got %v", r)
	}
}

func TestRegionMinSize(t *testing.T) {
	c := NewWithConfig(CropConfig{MinSize: 20})
	g := types.Gesture{
		Points:        []types.Point{{X: 50, Y: 50}, {X: 52, Y: 50}, {X: 51, Y: 52}},
		SurfaceWidth:  100,
		SurfaceHeight: 100,
	}

	r, err := c.Region(g, image.Rect(0, 0, 100, 100))
	if err != nil {
		t.Fatalf("Region failed: %v", err)
	}
	if r.Dx() != 20 || r.Dy() != 20 {
		t.Errorf("Expected 20x20 region, got %dx%d", r.Dx(), r.Dy())
	}
}

func TestRegionRejectsShortGesture(t *testing.T) {
	c := New()
	g := types.Gesture{Points: []types.Point{{X: 1, Y: 1}, {X: 2, Y: 2}}}

	if _, err := c.Region(g, image.Rect(0, 0, 10, 10)); err == nil {
		t.Error("Expected error for a two point gesture")
	}
}

func TestRegionOutsideFrame(t *testing.T) {
	c := NewWithConfig(CropConfig{})
	g := types.Gesture{
		Points:        []types.Point{{X: 200, Y: 200}, {X: 210, Y: 200}, {X: 205, Y: 210}},
		SurfaceWidth:  100,
		SurfaceHeight: 100,
	}

	if _, err := c.Region(g, image.Rect(0, 0, 100, 100)); err == nil {
		t.Error("Expected error for a gesture outside the frame")
	}
}

func TestCrop(t *testing.T) {
	c := NewWithConfig(CropConfig{})
	img := createTestImage(300, 300)

	res, err := c.Crop(img, triangle(300, 300))
	if err != nil {
		t.Fatalf("Crop failed: %v", err)
	}
	b := res.Image.Bounds()
	if b.Dx() != res.Region.Dx() || b.Dy() != res.Region.Dy() {
		t.Errorf("Expected %v sized crop, got %v", res.Region, b)
	}

	// the crop must not share pixels with the frame
	res.Image.SetNRGBA(0, 0, color.NRGBA{1, 2, 3, 255})
	if img.NRGBAAt(res.Region.Min.X, res.Region.Min.Y) == (color.NRGBA{1, 2, 3, 255}) {
		t.Error("Crop aliases the source frame")
	}
}

func TestCropNilImage(t *testing.T) {
	if _, err := New().Crop(nil, triangle(10, 10)); err == nil {
		t.Error("Expected error for nil image")
	}
}

func BenchmarkCrop(b *testing.B) {
	c := New()
	img := createTestImage(1920, 1080)
	g := triangle(100, 100)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if _, err := c.Crop(img, g); err != nil {
			b.Fatal(err)
		}
	}
}
