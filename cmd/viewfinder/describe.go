package main

import (
	"encoding/json"
	"fmt"
	"log"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/menta2k/viewfinder/pkg/types"
	"github.com/menta2k/viewfinder/pkg/workflow"
)

type describeOptions struct {
	In            string
	Points        string
	Surface       string
	SaveVCard     bool
	CopyTracking  bool
	CopyDesc      bool
	SaveAnnotated bool
	SaveCrop      bool
	JSON          bool
	FrameTimeout  time.Duration
}

type describeResult struct {
	State       string         `json:"state"`
	Description string         `json:"description,omitempty"`
	Actions     []types.Action `json:"actions,omitempty"`
	Error       string         `json:"error,omitempty"`
	Exports     []string       `json:"exports,omitempty"`
}

var describeOpts describeOptions

var describeCmd = &cobra.Command{
	Use:   "describe",
	Short: "Capture one frame, outline a region and describe it",
	Long: `Replays --in as a camera, freezes the first frame, strokes the outline
given by --points and sends the annotated frame to the model.

Points are given in the coordinate space of --surface, the size of the
display the gesture was drawn on:

  viewfinder describe --in card.jpg --surface 1080x1920 \
      --points "100,100 900,120 880,700 120,720" --save-vcard`,
	RunE: runDescribe,
}

func init() {
	f := describeCmd.Flags()
	f.StringVarP(&describeOpts.In, "in", "i", "", "image file, directory or URL to replay as camera frames")
	f.StringVarP(&describeOpts.Points, "points", "p", "", "gesture points as \"x,y x,y ...\" (at least 3)")
	f.StringVarP(&describeOpts.Surface, "surface", "s", "", "display surface as WIDTHxHEIGHT (default: frame size)")
	f.BoolVar(&describeOpts.SaveVCard, "save-vcard", false, "save an extracted contact card as VCF")
	f.BoolVar(&describeOpts.CopyTracking, "copy-tracking", false, "copy an extracted tracking number to the clipboard")
	f.BoolVar(&describeOpts.CopyDesc, "copy-description", false, "copy the description to the clipboard")
	f.BoolVar(&describeOpts.SaveAnnotated, "save-annotated", false, "save the annotated frame")
	f.BoolVar(&describeOpts.SaveCrop, "save-crop", false, "save the outlined region cut out of the frame")
	f.BoolVar(&describeOpts.JSON, "json", false, "print the result as JSON")
	f.DurationVar(&describeOpts.FrameTimeout, "frame-timeout", 10*time.Second, "how long to wait for the first frame")
	_ = describeCmd.MarkFlagRequired("in")
	_ = describeCmd.MarkFlagRequired("points")

	rootCmd.AddCommand(describeCmd)
}

func runDescribe(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	points, err := parsePoints(describeOpts.Points)
	if err != nil {
		return err
	}
	if len(points) < types.MinGesturePoints {
		return fmt.Errorf("a region needs at least %d points, got %d", types.MinGesturePoints, len(points))
	}

	s, err := startSession(ctx, cfg, describeOpts.In, false)
	if err != nil {
		return err
	}
	defer s.close()

	if err := s.waitForFrame(ctx, describeOpts.FrameTimeout); err != nil {
		return err
	}
	if !s.vf.Capture() {
		return fmt.Errorf("capture failed in state %s", s.vf.State().Kind())
	}

	width, height := s.vf.Machine.Frozen().Width(), s.vf.Machine.Frozen().Height()
	if describeOpts.Surface != "" {
		if width, height, err = parseSurface(describeOpts.Surface); err != nil {
			return err
		}
	}

	s.vf.PointerDown(width, height)
	for _, p := range points {
		s.vf.PointerMove(p.X, p.Y)
	}
	if !s.vf.PointerUp() {
		return fmt.Errorf("gesture was not accepted")
	}

	state, err := waitWithSpinner(ctx, s.vf, os.Stderr)
	if err != nil {
		return err
	}

	res := describeResult{State: state.Kind()}
	switch st := state.(type) {
	case workflow.Success:
		res.Description = st.Description
		res.Actions = st.Actions
		res.Exports = exportResults(s, st)
	case workflow.Error:
		res.Error = st.Message
	}

	if describeOpts.JSON {
		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		if err := enc.Encode(res); err != nil {
			return err
		}
	} else {
		printResult(os.Stdout, state)
		for _, note := range res.Exports {
			fmt.Fprintln(os.Stdout, note)
		}
	}

	if res.Error != "" {
		return fmt.Errorf("model request failed")
	}
	return nil
}

// exportResults runs the exports the flags ask for. Failures are logged and
// reported but do not fail the command.
func exportResults(s *session, st workflow.Success) []string {
	var notes []string
	if describeOpts.CopyDesc {
		if err := s.exporter.CopyToClipboard(st.Description); err != nil {
			log.Printf("export: %v", err)
			notes = append(notes, "copy description: "+err.Error())
		} else {
			notes = append(notes, "description copied to clipboard")
		}
	}
	if describeOpts.SaveAnnotated {
		if frozen := s.vf.Machine.Frozen(); !frozen.Released() {
			if path, err := s.exporter.SaveAnnotated(frozen.Image); err != nil {
				log.Printf("export: %v", err)
				notes = append(notes, "save annotated: "+err.Error())
			} else {
				notes = append(notes, "saved "+path)
			}
		}
	}
	if describeOpts.SaveCrop {
		if path, err := saveCrop(s); err != nil {
			log.Printf("export: %v", err)
			notes = append(notes, "save crop: "+err.Error())
		} else {
			notes = append(notes, "saved "+path)
		}
	}
	for _, a := range st.Actions {
		if a.Kind == types.ContactCard && !describeOpts.SaveVCard {
			continue
		}
		if a.Kind == types.TrackingNumber && !describeOpts.CopyTracking {
			continue
		}
		note, err := s.exporter.Handle(a)
		if err != nil {
			log.Printf("export: %v", err)
			notes = append(notes, a.Kind.String()+": "+err.Error())
			continue
		}
		notes = append(notes, note)
	}
	return notes
}

func saveCrop(s *session) (string, error) {
	res, err := s.vf.CropRegion()
	if err != nil {
		return "", err
	}
	return s.exporter.SaveCrop(res.Image)
}
