package main

import (
	"bufio"
	"fmt"
	"io"
	"log"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/menta2k/viewfinder/pkg/types"
	"github.com/menta2k/viewfinder/pkg/workflow"
)

const sessionHelp = `commands:
  capture            freeze the latest frame
  down W H           start a gesture on a W x H surface
  move X Y           add a gesture point
  up                 finish the gesture and ask the model
  state              print the current state
  export N           export action N of the last result
  save               save the annotated frame
  crop               save the outlined region cut out of the frame
  reset              back to the live preview
  help               this text
  quit               leave`

var sessionIn string

var sessionCmd = &cobra.Command{
	Use:   "session",
	Short: "Drive the capture workflow interactively from stdin",
	RunE:  runSession,
}

func init() {
	sessionCmd.Flags().StringVarP(&sessionIn, "in", "i", "", "image file, directory or URL to replay as camera frames")
	_ = sessionCmd.MarkFlagRequired("in")
	rootCmd.AddCommand(sessionCmd)
}

func runSession(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := loadConfig(rootOpts)
	if err != nil {
		return err
	}
	s, err := startSession(ctx, cfg, sessionIn, cfg.Camera.Loop)
	if err != nil {
		return err
	}
	defer s.close()

	out := cmd.OutOrStdout()
	var mu sync.Mutex
	last := &lastResult{}

	updates := s.vf.Machine.Subscribe()
	go func() {
		for st := range updates {
			mu.Lock()
			fmt.Fprintf(out, "-> %s\n", st.Kind())
			last.observe(st)
			switch st.(type) {
			case workflow.Success, workflow.Error:
				printResult(out, st)
			}
			mu.Unlock()
		}
	}()

	fmt.Fprintln(out, sessionHelp)
	lines := make(chan string)
	go readLines(cmd.InOrStdin(), lines)

	for {
		select {
		case <-ctx.Done():
			return nil
		case line, ok := <-lines:
			if !ok {
				return nil
			}
			mu.Lock()
			quit := sessionCommand(s, out, line, last)
			mu.Unlock()
			if quit {
				return nil
			}
		}
	}
}

func readLines(r io.Reader, lines chan<- string) {
	defer close(lines)
	sc := bufio.NewScanner(r)
	for sc.Scan() {
		lines <- sc.Text()
	}
}

// sessionCommand runs one REPL line and reports whether to quit
func sessionCommand(s *session, out io.Writer, line string, last *lastResult) bool {
	fields := strings.Fields(line)
	if len(fields) == 0 {
		return false
	}
	switch fields[0] {
	case "capture":
		if !s.vf.Capture() {
			fmt.Fprintf(out, "capture ignored in %s\n", s.vf.State().Kind())
		}
	case "down":
		w, h, err := twoNumbers(fields)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		s.vf.PointerDown(int(w), int(h))
	case "move":
		x, y, err := twoNumbers(fields)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		s.vf.PointerMove(x, y)
	case "up":
		if !s.vf.PointerUp() {
			fmt.Fprintf(out, "no request started, state %s\n", s.vf.State().Kind())
		}
	case "state":
		fmt.Fprintln(out, s.vf.State().Kind())
	case "export":
		if len(fields) != 2 {
			fmt.Fprintln(out, "usage: export N")
			return false
		}
		n, err := strconv.Atoi(fields[1])
		action, ok := last.action(n)
		if err != nil || !ok {
			fmt.Fprintf(out, "no action %s\n", fields[1])
			return false
		}
		note, err := s.exporter.Handle(action)
		if err != nil {
			log.Printf("export: %v", err)
			fmt.Fprintln(out, err)
			return false
		}
		fmt.Fprintln(out, note)
	case "save":
		frozen := s.vf.Machine.Frozen()
		if frozen.Released() {
			fmt.Fprintln(out, "no frozen frame")
			return false
		}
		path, err := s.exporter.SaveAnnotated(frozen.Image)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		fmt.Fprintln(out, "saved "+path)
	case "crop":
		path, err := saveCrop(s)
		if err != nil {
			fmt.Fprintln(out, err)
			return false
		}
		fmt.Fprintln(out, "saved "+path)
	case "reset":
		if !s.vf.Reset() {
			fmt.Fprintf(out, "reset ignored in %s\n", s.vf.State().Kind())
			return false
		}
		last.clear()
	case "help":
		fmt.Fprintln(out, sessionHelp)
	case "quit", "exit":
		return true
	default:
		fmt.Fprintf(out, "unknown command %q, try help\n", fields[0])
	}
	return false
}

// lastResult holds the Success the export command refers to. It is only
// valid until the workflow leaves the result screen.
type lastResult struct {
	success *workflow.Success
}

func (l *lastResult) observe(st workflow.State) {
	switch v := st.(type) {
	case workflow.Success:
		l.success = &v
	case workflow.Previewing, workflow.Selecting:
		l.success = nil
	}
}

func (l *lastResult) clear() {
	l.success = nil
}

// action returns the 1-based action n of the held result
func (l *lastResult) action(n int) (types.Action, bool) {
	if l.success == nil || n < 1 || n > len(l.success.Actions) {
		return types.Action{}, false
	}
	return l.success.Actions[n-1], true
}

func twoNumbers(fields []string) (float64, float64, error) {
	if len(fields) != 3 {
		return 0, 0, fmt.Errorf("usage: %s A B", fields[0])
	}
	a, err := parseCoord(fields[1])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", fields[0], err)
	}
	b, err := parseCoord(fields[2])
	if err != nil {
		return 0, 0, fmt.Errorf("%s: %w", fields[0], err)
	}
	return a, b, nil
}
