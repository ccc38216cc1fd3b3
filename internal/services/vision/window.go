package vision

import (
	"facealarm/internal/models"

	"gocv.io/x/gocv"
)

// Window shows annotated frames and watches for the exit key.
type Window struct {
	window  *gocv.Window
	exitKey int
}

func NewWindow(title string, exitKey byte) *Window {
	return &Window{
		window:  gocv.NewWindow(title),
		exitKey: int(exitKey),
	}
}

// Show displays frame and reports whether the exit key was pressed.
func (w *Window) Show(frame models.Frame) (bool, error) {
	f, err := asFrame(frame)
	if err != nil {
		return false, err
	}

	w.window.IMShow(f.Mat)
	key := w.window.WaitKey(1)
	return key >= 0 && key&0xFF == w.exitKey, nil
}

func (w *Window) Close() error {
	return w.window.Close()
}

// Headless discards frames. The loop then only stops on cancellation.
type Headless struct{}

func (Headless) Show(models.Frame) (bool, error) {
	return false, nil
}

func (Headless) Close() error {
	return nil
}
