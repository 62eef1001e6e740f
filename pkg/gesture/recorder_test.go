package gesture

import (
	"testing"

	"github.com/menta2k/viewfinder/pkg/types"
)

func TestNew(t *testing.T) {
	r := New()
	if r.Active() {
		t.Error("New recorder should be idle")
	}
	if len(r.Points()) != 0 {
		t.Error("New recorder should hold no points")
	}
}

func TestRecordGesture(t *testing.T) {
	r := New()
	r.Begin(1080, 1920)
	r.Append(types.Point{X: 1, Y: 2})
	r.Append(types.Point{X: 3, Y: 4})
	r.Append(types.Point{X: 5, Y: 6})

	g, ok := r.End()
	if !ok {
		t.Fatal("Expected a complete gesture")
	}
	if len(g.Points) != 3 {
		t.Errorf("Expected 3 points, got %d", len(g.Points))
	}
	if g.Points[2] != (types.Point{X: 5, Y: 6}) {
		t.Errorf("Points out of order: %v", g.Points)
	}
	if g.SurfaceWidth != 1080 || g.SurfaceHeight != 1920 {
		t.Errorf("Expected surface 1080x1920, got %dx%d", g.SurfaceWidth, g.SurfaceHeight)
	}
	if r.Active() || len(r.Points()) != 0 {
		t.Error("Recorder should be cleared after End")
	}
}

func TestShortGestureDiscarded(t *testing.T) {
	for n := 0; n < types.MinGesturePoints; n++ {
		r := New()
		r.Begin(100, 100)
		for i := 0; i < n; i++ {
			r.Append(types.Point{X: float64(i), Y: float64(i)})
		}
		if _, ok := r.End(); ok {
			t.Errorf("Gesture with %d points should be discarded", n)
		}
		if len(r.Points()) != 0 {
			t.Errorf("Recorder not cleared after discarding %d points", n)
		}
	}
}

func TestAppendWhileIdleIgnored(t *testing.T) {
	r := New()
	r.Append(types.Point{X: 1, Y: 1})
	if len(r.Points()) != 0 {
		t.Error("Append outside a gesture should be ignored")
	}
	if _, ok := r.End(); ok {
		t.Error("End without Begin should not return a gesture")
	}
}

func TestBeginClearsPreviousPoints(t *testing.T) {
	r := New()
	r.Begin(100, 100)
	r.Append(types.Point{X: 1, Y: 1})
	r.Append(types.Point{X: 2, Y: 2})

	r.Begin(200, 200)
	if len(r.Points()) != 0 {
		t.Error("Begin should drop leftover points")
	}
}

func TestGestureDoesNotAliasRecorder(t *testing.T) {
	r := New()
	r.Begin(10, 10)
	for i := 0; i < 3; i++ {
		r.Append(types.Point{X: float64(i)})
	}
	g, _ := r.End()

	r.Begin(10, 10)
	r.Append(types.Point{X: 99})
	if g.Points[0].X != 0 {
		t.Error("Returned gesture shares storage with the recorder")
	}
}

func TestPointsReturnsCopy(t *testing.T) {
	r := New()
	r.Begin(10, 10)
	r.Append(types.Point{X: 1})

	pts := r.Points()
	pts[0].X = 42
	if r.Points()[0].X != 1 {
		t.Error("Points() exposed internal storage")
	}
}
