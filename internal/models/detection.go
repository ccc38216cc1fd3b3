package models

import "image"

// Frame is a captured image owned by a single loop iteration.
// Implementations release their pixel memory in Close.
type Frame interface {
	Close() error
}

// Detection is an axis-aligned bounding box in frame pixel coordinates.
type Detection struct {
	ID      int64 `json:"id,omitempty"`
	AlertID int64 `json:"alert_id,omitempty"`
	X       int   `json:"x"`
	Y       int   `json:"y"`
	Width   int   `json:"width"`
	Height  int   `json:"height"`
}

// Rect converts the box to an image.Rectangle.
func (d Detection) Rect() image.Rectangle {
	return image.Rect(d.X, d.Y, d.X+d.Width, d.Y+d.Height)
}

// FromRect builds a Detection from an image.Rectangle.
func FromRect(r image.Rectangle) Detection {
	return Detection{X: r.Min.X, Y: r.Min.Y, Width: r.Dx(), Height: r.Dy()}
}
