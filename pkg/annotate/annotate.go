// Package annotate maps gestures drawn on a display surface into the pixel
// space of a captured frame and burns the enclosed region's outline into it.
package annotate

import (
	"image"
	"image/color"
	"math"

	"github.com/menta2k/viewfinder/pkg/types"
)

const (
	// DefaultStrokeWidth is half the on-screen feedback stroke; frames are
	// usually larger than the surface they are shown on.
	DefaultStrokeWidth = 6
	// DefaultDotRadius is the feedback radius for gestures too short to outline
	DefaultDotRadius = 10
)

// Highlight is the default outline color
var Highlight = color.NRGBA{R: 255, G: 0, B: 0, A: 255}

// Segment is one straight piece of a stroked path, in frame pixels
type Segment struct {
	From types.Point
	To   types.Point
}

// Annotator strokes region outlines onto frames
type Annotator struct {
	StrokeWidth int
	Color       color.NRGBA
	DotRadius   int
}

// New creates an Annotator with the default stroke and color
func New() *Annotator {
	return &Annotator{
		StrokeWidth: DefaultStrokeWidth,
		Color:       Highlight,
		DotRadius:   DefaultDotRadius,
	}
}

// NewWithStyle creates an Annotator with a custom stroke width and color.
// Zero values keep the defaults.
func NewWithStyle(strokeWidth int, c color.NRGBA) *Annotator {
	a := New()
	if strokeWidth > 0 {
		a.StrokeWidth = strokeWidth
	}
	if c.A != 0 {
		a.Color = c
	}
	return a
}

// Ratios returns the per-axis scale from the gesture's surface to a frame of
// the given size. A zero surface dimension maps 1:1 on that axis.
func Ratios(g types.Gesture, frameWidth, frameHeight int) (float64, float64) {
	xRatio, yRatio := 1.0, 1.0
	if g.SurfaceWidth > 0 {
		xRatio = float64(frameWidth) / float64(g.SurfaceWidth)
	}
	if g.SurfaceHeight > 0 {
		yRatio = float64(frameHeight) / float64(g.SurfaceHeight)
	}
	return xRatio, yRatio
}

// MapPoints scales every gesture point into frame pixel space
func MapPoints(g types.Gesture, frameWidth, frameHeight int) []types.Point {
	xRatio, yRatio := Ratios(g, frameWidth, frameHeight)
	out := make([]types.Point, len(g.Points))
	for i, p := range g.Points {
		out[i] = types.Point{X: p.X * xRatio, Y: p.Y * yRatio}
	}
	return out
}

// Path returns the closed polygon through points in recorded order. The last
// segment leads back to the first point. Fewer than two points close onto
// themselves and produce no segments.
func Path(points []types.Point) []Segment {
	if len(points) < 2 {
		return nil
	}
	segs := make([]Segment, 0, len(points))
	for i := 1; i < len(points); i++ {
		segs = append(segs, Segment{From: points[i-1], To: points[i]})
	}
	segs = append(segs, Segment{From: points[len(points)-1], To: points[0]})
	return segs
}

// Annotate strokes the gesture's closed outline onto frame in place and
// returns the same frame.
func (a *Annotator) Annotate(frame *image.NRGBA, g types.Gesture) *image.NRGBA {
	if frame == nil {
		return nil
	}
	b := frame.Bounds()
	mapped := finite(MapPoints(g, b.Dx(), b.Dy()))
	for i := range mapped {
		mapped[i].X += float64(b.Min.X)
		mapped[i].Y += float64(b.Min.Y)
	}
	a.stroke(frame, Path(mapped))
	return frame
}

// DrawFeedback renders in-progress gesture feedback onto a display overlay:
// dots while the gesture is too short to enclose anything, the closed outline
// once it is.
func (a *Annotator) DrawFeedback(dst *image.NRGBA, points []types.Point) {
	if dst == nil {
		return
	}
	points = finite(points)
	if len(points) < types.MinGesturePoints {
		for _, p := range points {
			fillCircle(dst, round(p.X), round(p.Y), a.DotRadius, a.Color)
		}
		return
	}
	a.stroke(dst, Path(points))
}

func (a *Annotator) stroke(img *image.NRGBA, segs []Segment) {
	width := a.StrokeWidth
	if width < 1 {
		width = 1
	}
	// only the part of a segment that can touch the image is walked
	b := img.Bounds()
	clip := clipRect{
		minX: float64(b.Min.X - width), minY: float64(b.Min.Y - width),
		maxX: float64(b.Max.X + width), maxY: float64(b.Max.Y + width),
	}
	for _, s := range segs {
		x0, y0, x1, y1, ok := clipSegment(s.From.X, s.From.Y, s.To.X, s.To.Y, clip)
		if !ok || len(finite([]types.Point{{X: x0, Y: y0}, {X: x1, Y: y1}})) != 2 {
			continue
		}
		drawThickLine(img, round(x0), round(y0), round(x1), round(y1), width, a.Color)
	}
}

// finite drops points with NaN or infinite coordinates
func finite(points []types.Point) []types.Point {
	out := make([]types.Point, 0, len(points))
	for _, p := range points {
		if math.IsNaN(p.X) || math.IsNaN(p.Y) || math.IsInf(p.X, 0) || math.IsInf(p.Y, 0) {
			continue
		}
		out = append(out, p)
	}
	return out
}

func round(v float64) int {
	return int(math.Floor(v + 0.5))
}
