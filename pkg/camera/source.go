// Package camera stands in for a live camera: it replays still images as a
// stream of frames into a sink that keeps only the latest one.
package camera

import (
	"context"
	"fmt"
	"image"
	"log"
	"time"

	"github.com/menta2k/viewfinder/internal/utils"
)

// DefaultInterval is the delay between replayed frames
const DefaultInterval = 100 * time.Millisecond

// Sink receives live frames. Implementations must accept frames from a
// goroutine other than the one driving the workflow.
type Sink interface {
	UpdateLive(img image.Image)
}

// Loader decodes one still
type Loader interface {
	LoadImageSmart(source string) (image.Image, error)
}

// Validator rejects frames the workflow cannot use
type Validator interface {
	Validate(img image.Image) error
}

// FileSource replays image files as camera frames
type FileSource struct {
	Paths    []string
	Interval time.Duration
	Loop     bool

	loader    Loader
	validator Validator
	logger    *log.Logger
}

// NewFileSource replays the given files or URLs in order
func NewFileSource(loader Loader, paths ...string) *FileSource {
	return &FileSource{
		Paths:    paths,
		Interval: DefaultInterval,
		loader:   loader,
		logger:   log.Default(),
	}
}

// NewDirSource replays every image under dir, sorted by path
func NewDirSource(loader Loader, dir string) (*FileSource, error) {
	paths, err := utils.ListImageFiles(dir)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", dir, err)
	}
	if len(paths) == 0 {
		return nil, fmt.Errorf("no images found in %s", dir)
	}
	return NewFileSource(loader, paths...), nil
}

// SetLogger routes decode warnings to l
func (s *FileSource) SetLogger(l *log.Logger) {
	s.logger = l
}

// SetValidator drops frames v rejects, as if they failed to decode
func (s *FileSource) SetValidator(v Validator) {
	s.validator = v
}

// Run pushes frames into sink until ctx is done or, without Loop, until the
// last file was delivered. Files that fail to decode are skipped; a camera
// drops frames too.
func (s *FileSource) Run(ctx context.Context, sink Sink) error {
	if len(s.Paths) == 0 {
		return fmt.Errorf("camera: no frames to replay")
	}
	interval := s.Interval
	if interval <= 0 {
		interval = DefaultInterval
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	delivered := 0
	for i := 0; ; {
		if i == len(s.Paths) {
			if !s.Loop {
				break
			}
			if delivered == 0 {
				return fmt.Errorf("camera: none of %d frames could be decoded", len(s.Paths))
			}
			i = 0
		}

		img, err := s.loader.LoadImageSmart(s.Paths[i])
		if err == nil && s.validator != nil {
			err = s.validator.Validate(img)
		}
		if err != nil {
			s.logger.Printf("camera: skipping %s: %v", s.Paths[i], err)
		} else {
			sink.UpdateLive(img)
			delivered++
		}
		i++

		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}

	if delivered == 0 {
		return fmt.Errorf("camera: none of %d frames could be decoded", len(s.Paths))
	}
	return nil
}
