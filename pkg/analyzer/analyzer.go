package analyzer

import (
	"fmt"
	"image"
)

// FrameAnalyzer checks camera frames before they reach the live slot
type FrameAnalyzer struct {
	config Config
}

// Config holds the limits a usable frame must meet
type Config struct {
	MinFrameSize int     // shortest side in pixels
	MaxAspect    float64 // long side over short side, 0 disables the check
}

// FrameInfo contains basic frame metadata
type FrameInfo struct {
	Width       int
	Height      int
	AspectRatio float64
	Area        int
}

// New creates a FrameAnalyzer with default limits
func New() *FrameAnalyzer {
	return &FrameAnalyzer{
		config: Config{
			MinFrameSize: 100,
			MaxAspect:    4,
		},
	}
}

// NewWithConfig creates a FrameAnalyzer with custom limits
func NewWithConfig(config Config) *FrameAnalyzer {
	return &FrameAnalyzer{config: config}
}

// Info returns basic information about a frame
func (a *FrameAnalyzer) Info(img image.Image) FrameInfo {
	bounds := img.Bounds()
	width, height := bounds.Dx(), bounds.Dy()

	info := FrameInfo{Width: width, Height: height, Area: width * height}
	if height > 0 {
		info.AspectRatio = float64(width) / float64(height)
	}
	return info
}

// Validate checks that a frame is large enough to annotate and not a
// sliver
func (a *FrameAnalyzer) Validate(img image.Image) error {
	if img == nil {
		return fmt.Errorf("empty frame")
	}
	info := a.Info(img)
	if info.Width < a.config.MinFrameSize || info.Height < a.config.MinFrameSize {
		return fmt.Errorf("frame too small: %dx%d (minimum: %d)",
			info.Width, info.Height, a.config.MinFrameSize)
	}
	if a.config.MaxAspect > 0 {
		long, short := info.Width, info.Height
		if short > long {
			long, short = short, long
		}
		if float64(long)/float64(short) > a.config.MaxAspect {
			return fmt.Errorf("frame aspect %dx%d exceeds %.1f:1", info.Width, info.Height, a.config.MaxAspect)
		}
	}
	return nil
}

// String renders the info for logs
func (i FrameInfo) String() string {
	return fmt.Sprintf("%dx%d (%.2f)", i.Width, i.Height, i.AspectRatio)
}
