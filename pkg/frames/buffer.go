package frames

import (
	"image"
	"sync"
	"time"

	"github.com/disintegration/imaging"
)

// Frame is a still image from the camera or a frozen copy of one
type Frame struct {
	Seq      uint64
	Captured time.Time
	Image    *image.NRGBA
}

// Width returns the frame width in pixels, 0 once released
func (f *Frame) Width() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dx()
}

// Height returns the frame height in pixels, 0 once released
func (f *Frame) Height() int {
	if f == nil || f.Image == nil {
		return 0
	}
	return f.Image.Bounds().Dy()
}

// Release drops the pixel buffer. Calling it again is harmless.
func (f *Frame) Release() {
	if f == nil || f.Image == nil {
		return
	}
	f.Image.Pix = nil
	f.Image = nil
}

// Released reports whether the pixel buffer has been dropped
func (f *Frame) Released() bool {
	return f == nil || f.Image == nil
}

// Stats counts buffer activity
type Stats struct {
	Received uint64
	Replaced uint64
	Freezes  uint64
	Releases uint64
}

// Buffer keeps the latest live frame and the frozen copy used for
// annotation. The camera producer writes the live slot from its own
// goroutine; the frozen slot belongs to the workflow.
type Buffer struct {
	mu     sync.Mutex
	live   *Frame
	frozen *Frame
	seq    uint64
	stats  Stats
	now    func() time.Time
}

// NewBuffer creates an empty buffer
func NewBuffer() *Buffer {
	return &Buffer{now: time.Now}
}

// UpdateLive replaces the live frame with img and releases the previous one
// immediately, so at most one live frame is ever held. A nil image clears
// the slot.
func (b *Buffer) UpdateLive(img image.Image) {
	var next *Frame
	if img != nil {
		next = &Frame{
			Image:    toNRGBA(img),
			Captured: b.now(),
		}
	}

	b.mu.Lock()
	old := b.live
	if next != nil {
		b.seq++
		next.Seq = b.seq
		b.stats.Received++
	}
	if old != nil {
		b.stats.Replaced++
	}
	b.live = next
	b.mu.Unlock()

	old.Release()
}

// Live returns the current live frame, nil when none has arrived yet
func (b *Buffer) Live() *Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.live
}

// HasLive reports whether a live frame is available
func (b *Buffer) HasLive() bool {
	return b.Live() != nil
}

// Freeze makes an independent deep copy of the live frame and holds it as
// the frozen frame. It returns false when no live frame exists. A frame
// frozen earlier and not yet released is released first.
func (b *Buffer) Freeze() (*Frame, bool) {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.live == nil || b.live.Image == nil {
		return nil, false
	}
	if b.frozen != nil {
		b.frozen.Release()
		b.stats.Releases++
	}
	b.frozen = &Frame{
		Seq:      b.live.Seq,
		Captured: b.live.Captured,
		Image:    imaging.Clone(b.live.Image),
	}
	b.stats.Freezes++
	return b.frozen, true
}

// Frozen returns the frozen frame, nil when nothing is frozen
func (b *Buffer) Frozen() *Frame {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.frozen
}

// ReleaseFrozen releases the frozen frame. It is safe to call when nothing
// is frozen and never touches the live frame.
func (b *Buffer) ReleaseFrozen() {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.frozen == nil {
		return
	}
	b.frozen.Release()
	b.frozen = nil
	b.stats.Releases++
}

// Stats returns a snapshot of the buffer counters
func (b *Buffer) Stats() Stats {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.stats
}

// toNRGBA returns img as an NRGBA buffer the buffer can own. Images that
// already are NRGBA at the origin are copied too, since the producer may
// reuse its buffer.
func toNRGBA(img image.Image) *image.NRGBA {
	return imaging.Clone(img)
}
