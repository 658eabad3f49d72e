// Package display shows annotated frames to the operator.
package display

import (
	"gocv.io/x/gocv"
)

// DefaultTitle is the window title used when none is configured.
const DefaultTitle = "Right Hand Tracking"

// NoKey is returned by WaitKey when nothing was pressed.
const NoKey = -1

// Surface is somewhere frames can be shown and keys read back.
type Surface interface {
	// Show presents a frame.
	Show(frame *gocv.Mat)
	// WaitKey waits up to delayMs for a key press and returns its code, or NoKey.
	WaitKey(delayMs int) int
	// Close releases the surface.
	Close() error
}

// Window is a titled OpenCV highgui window.
type Window struct {
	window *gocv.Window
}

// NewWindow opens a window with the given title.
func NewWindow(title string) *Window {
	if title == "" {
		title = DefaultTitle
	}
	return &Window{window: gocv.NewWindow(title)}
}

// Show draws the frame into the window.
func (w *Window) Show(frame *gocv.Mat) {
	w.window.IMShow(*frame)
}

// WaitKey pumps the window event loop and returns the pressed key, if any.
func (w *Window) WaitKey(delayMs int) int {
	key := w.window.WaitKey(delayMs)
	if key < 0 {
		return NoKey
	}
	return key & 0xFF
}

// Close destroys the window.
func (w *Window) Close() error {
	return w.window.Close()
}

// Headless discards frames. Useful on machines without a display.
type Headless struct{}

// Show is a no-op.
func (Headless) Show(frame *gocv.Mat) {}

// WaitKey never reports a key.
func (Headless) WaitKey(delayMs int) int { return NoKey }

// Close is a no-op.
func (Headless) Close() error { return nil }

// KeyCode returns the code WaitKey reports for the first byte of key.
func KeyCode(key string) int {
	if key == "" {
		return NoKey
	}
	return int(key[0])
}
