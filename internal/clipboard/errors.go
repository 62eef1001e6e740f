// Package clipboard places extracted text on the system clipboard.
package clipboard

import "errors"

var (
	// ErrNoDisplay means there is no X11 or Wayland session to talk to
	ErrNoDisplay = errors.New("clipboard initialization requires DISPLAY or WAYLAND_DISPLAY")
	// ErrUnsupported means this build cannot reach a clipboard
	ErrUnsupported = errors.New("clipboard operations are not supported by this build")
)
