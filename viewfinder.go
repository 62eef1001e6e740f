// Package viewfinder lets a user freeze a camera frame, outline a region of
// it with a freehand gesture and ask a multimodal model what is inside.
//
// Basic usage:
//
//	vc, err := viewfinder.NewClient(cfg.Model)
//	if err != nil {
//		log.Fatal(err)
//	}
//	vf, err := viewfinder.NewFromConfig(cfg, vc)
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer vf.Close()
//
//	go source.Run(ctx, vf.Frames)   // camera frames stream in
//
//	vf.Capture()                    // freeze the latest frame
//	vf.PointerDown(1080, 1920)      // gesture over the displayed frame
//	vf.PointerMove(100, 100)
//	vf.PointerMove(900, 120)
//	vf.PointerMove(500, 800)
//	vf.PointerUp()                  // outline is burnt in, request starts
//
//	state, _ := vf.Wait(ctx)        // Success or Error
//
// The package consists of these components:
//
//  1. Gesture (pkg/gesture): records the points of one touch gesture
//  2. Annotate (pkg/annotate): maps the gesture into frame pixels and strokes it
//  3. Frames (pkg/frames): holds the latest live frame and the frozen copy
//  4. Workflow (pkg/workflow): the preview/select/load/result state machine
//  5. Extraction (pkg/extraction): description and follow-up queries
//  6. Cropper (pkg/cropper): cuts the selected region out for export
//
// Remote models are reached through pkg/ollama or pkg/llamacpp, which both
// satisfy client.VisionClient.
package viewfinder

import (
	"context"
	"fmt"
	"image"
	"image/color"
	"log"
	"time"

	"github.com/menta2k/viewfinder/internal/config"
	"github.com/menta2k/viewfinder/pkg/annotate"
	"github.com/menta2k/viewfinder/pkg/client"
	"github.com/menta2k/viewfinder/pkg/cropper"
	"github.com/menta2k/viewfinder/pkg/extraction"
	"github.com/menta2k/viewfinder/pkg/frames"
	"github.com/menta2k/viewfinder/pkg/gesture"
	"github.com/menta2k/viewfinder/pkg/llamacpp"
	"github.com/menta2k/viewfinder/pkg/ollama"
	"github.com/menta2k/viewfinder/pkg/processing"
	"github.com/menta2k/viewfinder/pkg/types"
	"github.com/menta2k/viewfinder/pkg/workflow"
)

// Version of the viewfinder library
const Version = "1.0.0"

// Options tune a Viewfinder built without a config file
type Options struct {
	Model       string
	Send        processing.SendOptions
	StrokeWidth int
	Color       color.NRGBA
	Timeout     time.Duration
	Logger      *log.Logger
}

// DefaultOptions returns the options NewFromConfig would use for Default()
func DefaultOptions(model string) Options {
	return Options{
		Model:       model,
		Send:        processing.DefaultSendOptions(),
		StrokeWidth: annotate.DefaultStrokeWidth,
		Color:       annotate.Highlight,
	}
}

// Viewfinder wires the frame buffer, gesture recorder, annotator, extractor
// and workflow machine into one session
type Viewfinder struct {
	Frames    *frames.Buffer
	Recorder  *gesture.Recorder
	Annotator *annotate.Annotator
	Extractor *extraction.Extractor
	Machine   *workflow.Machine
	Cropper   *cropper.RegionCropper

	lastGesture types.Gesture
	processor   *processing.Processor
	send        processing.SendOptions
	timeout     time.Duration
}

// New creates a Viewfinder that queries vc
func New(vc client.VisionClient, opts Options) *Viewfinder {
	if opts.Send == (processing.SendOptions{}) {
		opts.Send = processing.DefaultSendOptions()
	}
	v := &Viewfinder{
		Frames:    frames.NewBuffer(),
		Recorder:  gesture.New(),
		Annotator: annotate.NewWithStyle(opts.StrokeWidth, opts.Color),
		Extractor: extraction.NewExtractor(vc, opts.Model),
		Cropper:   cropper.New(),
		processor: processing.NewProcessor(),
		send:      opts.Send,
		timeout:   opts.Timeout,
	}

	var mopts []workflow.Option
	if opts.Logger != nil {
		mopts = append(mopts, workflow.WithLogger(opts.Logger))
	}
	v.Machine = workflow.New(v.Frames, v.Annotator, v, mopts...)
	return v
}

// NewFromConfig creates a Viewfinder from a validated configuration
func NewFromConfig(cfg *config.Config, vc client.VisionClient) (*Viewfinder, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}
	c, _ := cfg.Annotation.ParseColor()
	timeout, _ := cfg.Model.TimeoutDuration()

	return New(vc, Options{
		Model: cfg.Model.Name,
		Send: processing.SendOptions{
			Format:  cfg.Send.Format,
			MaxSize: cfg.Send.MaxSize,
			Quality: cfg.Send.Quality,
		},
		StrokeWidth: cfg.Annotation.StrokeWidth,
		Color:       c,
		Timeout:     timeout,
	}), nil
}

// NewClient creates the vision client the configuration selects
func NewClient(cfg config.ModelConfig) (client.VisionClient, error) {
	switch cfg.Backend {
	case "ollama":
		url := cfg.URL
		if url == "" {
			url = "http://localhost:11434"
		}
		c, err := ollama.NewClient(url)
		if err != nil {
			return nil, fmt.Errorf("failed to create Ollama client: %w", err)
		}
		return c, nil
	case "llamacpp":
		c, err := llamacpp.NewClient(cfg.URL, llamacpp.WithAPIKey(cfg.APIKey))
		if err != nil {
			return nil, fmt.Errorf("failed to create llama.cpp client: %w", err)
		}
		return c, nil
	default:
		return nil, fmt.Errorf("unknown backend: %s (use 'ollama' or 'llamacpp')", cfg.Backend)
	}
}

// Process encodes the annotated frame and runs the remote sequence. It is
// the workflow's pipeline.
func (v *Viewfinder) Process(ctx context.Context, frame *image.NRGBA) (string, []types.Action, error) {
	if v.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, v.timeout)
		defer cancel()
	}

	imgB64, err := v.processor.PrepareImageForModel(frame, v.send)
	if err != nil {
		return "", nil, err
	}
	return v.Extractor.Run(ctx, imgB64)
}

// Capture freezes the latest live frame
func (v *Viewfinder) Capture() bool {
	return v.Machine.Capture()
}

// PointerDown starts a gesture on a surface of the given size
func (v *Viewfinder) PointerDown(surfaceWidth, surfaceHeight int) {
	v.Recorder.Begin(surfaceWidth, surfaceHeight)
}

// PointerMove records a pointer position of the current gesture
func (v *Viewfinder) PointerMove(x, y float64) {
	v.Recorder.Append(types.Point{X: x, Y: y})
}

// PointerUp ends the gesture and submits it. It returns whether a remote
// request was started.
func (v *Viewfinder) PointerUp() bool {
	g, ok := v.Recorder.End()
	started := v.Machine.SubmitGesture(g, ok)
	if started {
		v.lastGesture = g
	}
	return started
}

// CropRegion cuts the submitted region, outline included, out of the
// frozen frame
func (v *Viewfinder) CropRegion() (cropper.CropResult, error) {
	frozen := v.Machine.Frozen()
	if frozen.Released() {
		return cropper.CropResult{}, fmt.Errorf("no frozen frame")
	}
	return v.Cropper.Crop(frozen.Image, v.lastGesture)
}

// Reset returns to the live preview after a result or an error
func (v *Viewfinder) Reset() bool {
	return v.Machine.Reset()
}

// State returns the current workflow state
func (v *Viewfinder) State() workflow.State {
	return v.Machine.State()
}

// Wait blocks while a remote request is in flight
func (v *Viewfinder) Wait(ctx context.Context) (workflow.State, error) {
	return v.Machine.Wait(ctx)
}

// Close stops the workflow and releases the frozen frame
func (v *Viewfinder) Close() {
	v.Machine.Close()
}

// GetVersion returns the library version
func GetVersion() string {
	return Version
}
