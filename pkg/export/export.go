// Package export hands extracted results to the outside world: VCF files,
// annotated stills and the clipboard. Export failures are reported to the
// caller and never affect the workflow.
package export

import (
	"bufio"
	"errors"
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/menta2k/viewfinder/internal/clipboard"
	"github.com/menta2k/viewfinder/internal/utils"
	"github.com/menta2k/viewfinder/pkg/processing"
	"github.com/menta2k/viewfinder/pkg/types"
)

// Exporter writes results below Dir
type Exporter struct {
	Dir          string
	ImageFormat  string
	ImageQuality int

	processor *processing.Processor
	copyText  func(string) error
	now       func() time.Time
}

// New creates an exporter writing into dir
func New(dir string) *Exporter {
	return &Exporter{
		Dir:          dir,
		ImageFormat:  "png",
		ImageQuality: 90,
		processor:    processing.NewProcessor(),
		copyText:     clipboard.WriteText,
		now:          time.Now,
	}
}

// maxNameAttempts bounds the numeric suffixes tried when names collide
const maxNameAttempts = 1000

// SaveVCard writes data to vcard_yyyyMMdd_HHmmss.vcf and returns the path.
// A second card within the same second gets a _1, _2, ... suffix.
func (e *Exporter) SaveVCard(data string) (string, error) {
	var path string
	err := e.create("vcard", "vcf", func(p string) error {
		f, err := os.OpenFile(p, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
		if err != nil {
			return err
		}
		path = p
		w := bufio.NewWriter(f)
		if _, err := w.WriteString(data); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		if err := w.Flush(); err != nil {
			f.Close()
			return fmt.Errorf("failed to write %s: %w", p, err)
		}
		return f.Close()
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// SaveAnnotated writes the annotated frame and returns the path
func (e *Exporter) SaveAnnotated(img image.Image) (string, error) {
	return e.saveImage("region", img)
}

// SaveCrop writes the cropped selection and returns the path
func (e *Exporter) SaveCrop(img image.Image) (string, error) {
	return e.saveImage("crop", img)
}

func (e *Exporter) saveImage(prefix string, img image.Image) (string, error) {
	if img == nil {
		return "", fmt.Errorf("no %s image to save", prefix)
	}
	var path string
	err := e.create(prefix, e.ImageFormat, func(p string) error {
		path = p
		return e.processor.SaveImage(img, p, e.ImageFormat, e.ImageQuality, false)
	})
	if err != nil {
		return "", err
	}
	return path, nil
}

// create calls write with timestamped candidate paths until one does not
// exist yet. write must fail with os.ErrExist rather than replace a file.
func (e *Exporter) create(prefix, ext string, write func(path string) error) error {
	if err := utils.EnsureDir(e.Dir); err != nil {
		return fmt.Errorf("failed to create export directory: %w", err)
	}
	base := utils.TimestampedName(prefix, ext, e.now())
	stem := strings.TrimSuffix(base, filepath.Ext(base))
	for i := 0; i < maxNameAttempts; i++ {
		name := base
		if i > 0 {
			name = fmt.Sprintf("%s_%d%s", stem, i, filepath.Ext(base))
		}
		err := write(filepath.Join(e.Dir, name))
		if errors.Is(err, os.ErrExist) {
			continue
		}
		if err != nil {
			return fmt.Errorf("failed to save %s: %w", name, err)
		}
		return nil
	}
	return fmt.Errorf("no free file name for %s after %d attempts", base, maxNameAttempts)
}

// CopyToClipboard places text on the clipboard
func (e *Exporter) CopyToClipboard(text string) error {
	if err := e.copyText(text); err != nil {
		return fmt.Errorf("failed to copy to clipboard: %w", err)
	}
	return nil
}

// Handle performs the default export for an action: contact cards become
// VCF files, tracking numbers go to the clipboard. It returns a short note
// of what was done.
func (e *Exporter) Handle(action types.Action) (string, error) {
	switch action.Kind {
	case types.ContactCard:
		path, err := e.SaveVCard(action.Payload)
		if err != nil {
			return "", err
		}
		return "saved " + path, nil
	case types.TrackingNumber:
		if err := e.CopyToClipboard(action.Payload); err != nil {
			return "", err
		}
		return "copied " + action.Payload + " to clipboard", nil
	default:
		return "", fmt.Errorf("no export for action %s", action.Kind)
	}
}
