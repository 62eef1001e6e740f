// Package cropper cuts the region a gesture encloses out of a frame, for
// exports that want the selection without the surrounding scene.
package cropper

import (
	"fmt"
	"image"
	"math"

	"github.com/disintegration/imaging"

	"github.com/menta2k/viewfinder/pkg/annotate"
	"github.com/menta2k/viewfinder/pkg/types"
)

// DefaultPaddingRatio grows the crop by this share of the region's size on
// every side, so the stroked outline stays inside the cut
const DefaultPaddingRatio = 0.05

// RegionCropper crops frames to gesture regions
type RegionCropper struct {
	config CropConfig
}

// CropConfig holds configuration for region cropping
type CropConfig struct {
	PaddingRatio float64
	MinSize      int // smallest crop side in pixels; smaller regions grow around their center
}

// CropResult contains the result of a cropping operation
type CropResult struct {
	Image  *image.NRGBA
	Region image.Rectangle
}

// New creates a RegionCropper with default configuration
func New() *RegionCropper {
	return &RegionCropper{
		config: CropConfig{
			PaddingRatio: DefaultPaddingRatio,
			MinSize:      16,
		},
	}
}

// NewWithConfig creates a RegionCropper with custom configuration
func NewWithConfig(config CropConfig) *RegionCropper {
	return &RegionCropper{config: config}
}

// Region returns the padded bounding box of the gesture in frame pixels,
// clipped to bounds
func (c *RegionCropper) Region(g types.Gesture, bounds image.Rectangle) (image.Rectangle, error) {
	if !g.Complete() {
		return image.Rectangle{}, fmt.Errorf("gesture has %d points, need %d", len(g.Points), types.MinGesturePoints)
	}
	if bounds.Empty() {
		return image.Rectangle{}, fmt.Errorf("invalid frame dimensions")
	}

	mapped := annotate.MapPoints(g, bounds.Dx(), bounds.Dy())
	minX, minY := math.Inf(1), math.Inf(1)
	maxX, maxY := math.Inf(-1), math.Inf(-1)
	for _, p := range mapped {
		minX = math.Min(minX, p.X)
		minY = math.Min(minY, p.Y)
		maxX = math.Max(maxX, p.X)
		maxY = math.Max(maxY, p.Y)
	}

	padX := (maxX - minX) * c.config.PaddingRatio
	padY := (maxY - minY) * c.config.PaddingRatio
	r := image.Rect(
		int(math.Floor(minX-padX)), int(math.Floor(minY-padY)),
		int(math.Ceil(maxX+padX)), int(math.Ceil(maxY+padY)),
	)
	r = grow(r, c.config.MinSize)
	r = r.Add(bounds.Min).Intersect(bounds)
	if r.Empty() {
		return image.Rectangle{}, fmt.Errorf("gesture lies outside the frame")
	}
	return r, nil
}

// Crop returns a copy of the region the gesture encloses. img is not
// modified and the result does not share its pixels.
func (c *RegionCropper) Crop(img image.Image, g types.Gesture) (CropResult, error) {
	if img == nil {
		return CropResult{}, fmt.Errorf("no frame to crop")
	}
	region, err := c.Region(g, img.Bounds())
	if err != nil {
		return CropResult{}, fmt.Errorf("failed to find crop region: %w", err)
	}
	return CropResult{
		Image:  imaging.Crop(img, region),
		Region: region,
	}, nil
}

// grow widens r around its center until both sides reach size
func grow(r image.Rectangle, size int) image.Rectangle {
	if dx := r.Dx(); dx < size {
		r.Min.X -= (size - dx) / 2
		r.Max.X = r.Min.X + size
	}
	if dy := r.Dy(); dy < size {
		r.Min.Y -= (size - dy) / 2
		r.Max.Y = r.Min.Y + size
	}
	return r
}
