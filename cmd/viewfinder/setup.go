package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	viewfinder "github.com/menta2k/viewfinder"
	"github.com/menta2k/viewfinder/internal/config"
	"github.com/menta2k/viewfinder/internal/utils"
	"github.com/menta2k/viewfinder/pkg/analyzer"
	"github.com/menta2k/viewfinder/pkg/camera"
	"github.com/menta2k/viewfinder/pkg/export"
	"github.com/menta2k/viewfinder/pkg/processing"
	"github.com/menta2k/viewfinder/pkg/types"
	"github.com/menta2k/viewfinder/pkg/workflow"
)

// session is a running viewfinder with its camera replay
type session struct {
	vf       *viewfinder.Viewfinder
	exporter *export.Exporter
	stop     context.CancelFunc
	done     chan error
}

// startSession builds the viewfinder and starts replaying frames from in,
// which may be a file, a directory or a URL
func startSession(ctx context.Context, cfg *config.Config, in string, loop bool) (*session, error) {
	vc, err := viewfinder.NewClient(cfg.Model)
	if err != nil {
		return nil, err
	}
	vf, err := viewfinder.NewFromConfig(cfg, vc)
	if err != nil {
		return nil, err
	}

	loader := processing.NewProcessor()
	var src *camera.FileSource
	if utils.DirExists(in) {
		src, err = camera.NewDirSource(loader, in)
		if err != nil {
			vf.Close()
			return nil, err
		}
	} else {
		src = camera.NewFileSource(loader, in)
	}
	if interval, _ := cfg.Camera.IntervalDuration(); interval > 0 {
		src.Interval = interval
	}
	src.Loop = loop
	src.SetValidator(analyzer.New())

	exporter := export.New(cfg.Export.Dir)
	exporter.ImageFormat = cfg.Export.ImageFormat
	exporter.ImageQuality = cfg.Export.ImageQuality

	srcCtx, stop := context.WithCancel(ctx)
	s := &session{vf: vf, exporter: exporter, stop: stop, done: make(chan error, 1)}
	go func() {
		s.done <- src.Run(srcCtx, vf.Frames)
	}()
	return s, nil
}

// close stops the camera and the workflow
func (s *session) close() {
	s.stop()
	if err := <-s.done; err != nil && !errors.Is(err, context.Canceled) {
		log.Printf("camera: %v", err)
	}
	s.vf.Close()
}

// waitForFrame blocks until the camera delivered a first frame
func (s *session) waitForFrame(ctx context.Context, timeout time.Duration) error {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	ticker := time.NewTicker(20 * time.Millisecond)
	defer ticker.Stop()
	for !s.vf.Frames.HasLive() {
		select {
		case <-ctx.Done():
			return fmt.Errorf("no camera frame arrived within %s", timeout)
		case <-ticker.C:
		}
	}
	return nil
}

// waitWithSpinner waits for the remote sequence while drawing a spinner
func waitWithSpinner(ctx context.Context, vf *viewfinder.Viewfinder, w io.Writer) (workflow.State, error) {
	bar := progressbar.NewOptions(-1,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("asking model"),
		progressbar.OptionSpinnerType(14),
		progressbar.OptionClearOnFinish(),
	)
	done := make(chan struct{})
	go func() {
		ticker := time.NewTicker(100 * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				_ = bar.Add(1)
			}
		}
	}()

	state, err := vf.Wait(ctx)
	close(done)
	_ = bar.Finish()
	return state, err
}

// parseSurface parses WxH
func parseSurface(s string) (int, int, error) {
	w, h, ok := strings.Cut(strings.ToLower(strings.TrimSpace(s)), "x")
	if !ok {
		return 0, 0, fmt.Errorf("surface %q: want WIDTHxHEIGHT", s)
	}
	width, err := strconv.Atoi(w)
	if err != nil || width <= 0 {
		return 0, 0, fmt.Errorf("surface %q: invalid width", s)
	}
	height, err := strconv.Atoi(h)
	if err != nil || height <= 0 {
		return 0, 0, fmt.Errorf("surface %q: invalid height", s)
	}
	return width, height, nil
}

// parsePoints parses "x,y x,y ..." (spaces or semicolons between points)
func parsePoints(s string) ([]types.Point, error) {
	fields := strings.FieldsFunc(s, func(r rune) bool {
		return r == ' ' || r == ';' || r == '\n' || r == '\t'
	})
	points := make([]types.Point, 0, len(fields))
	for _, f := range fields {
		xs, ys, ok := strings.Cut(f, ",")
		if !ok {
			return nil, fmt.Errorf("point %q: want x,y", f)
		}
		x, err := parseCoord(xs)
		if err != nil {
			return nil, fmt.Errorf("point %q: x: %w", f, err)
		}
		y, err := parseCoord(ys)
		if err != nil {
			return nil, fmt.Errorf("point %q: y: %w", f, err)
		}
		points = append(points, types.Point{X: x, Y: y})
	}
	return points, nil
}

// maxCoord bounds gesture coordinates to a sane display size
const maxCoord = 1 << 20

// parseCoord parses one finite surface coordinate
func parseCoord(s string) (float64, error) {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("invalid number %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || math.Abs(v) > maxCoord {
		return 0, fmt.Errorf("coordinate %q out of range", s)
	}
	return v, nil
}

// printResult writes a finished state for humans
func printResult(w io.Writer, state workflow.State) {
	switch s := state.(type) {
	case workflow.Success:
		fmt.Fprintln(w, s.Description)
		for i, a := range s.Actions {
			fmt.Fprintf(w, "\n[%d] %s: %s\n", i+1, a.Kind, a.Payload)
		}
	case workflow.Error:
		fmt.Fprintf(w, "error: %s\n", s.Message)
	default:
		fmt.Fprintf(w, "state: %s\n", state.Kind())
	}
}
