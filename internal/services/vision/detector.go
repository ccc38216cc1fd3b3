package vision

import (
	"fmt"
	"image"
	"image/color"
	"os"

	"facealarm/internal/models"

	"gocv.io/x/gocv"
)

const (
	DefaultScaleFactor  = 1.1
	DefaultMinNeighbors = 4
)

// Overlay colour for detected faces. gocv maps RGBA onto BGR, so this is blue.
var overlay = color.RGBA{R: 0, G: 0, B: 255, A: 0}

// CascadeDetector finds faces with a pre-trained Haar cascade.
type CascadeDetector struct {
	classifier gocv.CascadeClassifier
	path       string
}

func NewCascadeDetector(path string) (*CascadeDetector, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("cascade file %s: %w", path, err)
	}

	classifier := gocv.NewCascadeClassifier()
	if !classifier.Load(path) {
		classifier.Close()
		return nil, fmt.Errorf("failed to load cascade classifier from %s", path)
	}

	return &CascadeDetector{classifier: classifier, path: path}, nil
}

// Detect runs the multiscale classifier on a grayscale copy of frame.
func (d *CascadeDetector) Detect(frame models.Frame) ([]models.Detection, error) {
	f, err := asFrame(frame)
	if err != nil {
		return nil, err
	}

	gray := gocv.NewMat()
	defer gray.Close()
	if err := gocv.CvtColor(f.Mat, &gray, gocv.ColorBGRToGray); err != nil {
		return nil, fmt.Errorf("failed to convert frame to grayscale: %w", err)
	}

	rects := d.classifier.DetectMultiScaleWithParams(
		gray,
		DefaultScaleFactor,
		DefaultMinNeighbors,
		0,
		image.Pt(0, 0),
		image.Pt(0, 0),
	)

	detections := make([]models.Detection, 0, len(rects))
	for _, r := range rects {
		detections = append(detections, models.FromRect(r))
	}
	return detections, nil
}

// Annotate draws a rectangle around every detection.
func (d *CascadeDetector) Annotate(frame models.Frame, detections []models.Detection) error {
	f, err := asFrame(frame)
	if err != nil {
		return err
	}

	for _, det := range detections {
		if err := gocv.Rectangle(&f.Mat, det.Rect(), overlay, 2); err != nil {
			return fmt.Errorf("failed to draw rectangle: %w", err)
		}
	}
	return nil
}

func (d *CascadeDetector) Close() error {
	return d.classifier.Close()
}

// EncodeJPEG encodes the frame for snapshots.
func EncodeJPEG(frame models.Frame) ([]byte, error) {
	f, err := asFrame(frame)
	if err != nil {
		return nil, err
	}

	buf, err := gocv.IMEncode(gocv.JPEGFileExt, f.Mat)
	if err != nil {
		return nil, fmt.Errorf("failed to encode frame: %w", err)
	}
	defer buf.Close()

	out := make([]byte, len(buf.GetBytes()))
	copy(out, buf.GetBytes())
	return out, nil
}

// JPEGEncoder adapts EncodeJPEG to the snapshot recorder.
type JPEGEncoder struct{}

func (JPEGEncoder) Encode(frame models.Frame) ([]byte, error) {
	return EncodeJPEG(frame)
}
