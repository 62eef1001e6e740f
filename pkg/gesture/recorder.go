package gesture

import (
	"github.com/menta2k/viewfinder/pkg/types"
)

// Recorder accumulates the pointer positions of a single touch gesture.
// It is not safe for concurrent use; pointer events arrive on one thread.
type Recorder struct {
	points        []types.Point
	surfaceWidth  int
	surfaceHeight int
	active        bool
}

// New creates an idle recorder
func New() *Recorder {
	return &Recorder{}
}

// Begin starts a gesture on a surface of the given pixel size. Any points
// left over from an unfinished gesture are dropped.
func (r *Recorder) Begin(surfaceWidth, surfaceHeight int) {
	r.points = r.points[:0]
	r.surfaceWidth = surfaceWidth
	r.surfaceHeight = surfaceHeight
	r.active = true
}

// Append records a pointer position. Calls outside Begin/End are ignored.
func (r *Recorder) Append(p types.Point) {
	if !r.active {
		return
	}
	r.points = append(r.points, p)
}

// End finishes the gesture. The gesture is returned only when it holds more
// than two points; the recorder is cleared either way.
func (r *Recorder) End() (types.Gesture, bool) {
	defer r.reset()

	if !r.active || len(r.points) < types.MinGesturePoints {
		return types.Gesture{}, false
	}

	pts := make([]types.Point, len(r.points))
	copy(pts, r.points)
	return types.Gesture{
		Points:        pts,
		SurfaceWidth:  r.surfaceWidth,
		SurfaceHeight: r.surfaceHeight,
	}, true
}

// Active reports whether a gesture is in progress
func (r *Recorder) Active() bool {
	return r.active
}

// Points returns a copy of the points recorded so far, for visual feedback
func (r *Recorder) Points() []types.Point {
	out := make([]types.Point, len(r.points))
	copy(out, r.points)
	return out
}

func (r *Recorder) reset() {
	r.points = r.points[:0]
	r.surfaceWidth = 0
	r.surfaceHeight = 0
	r.active = false
}
