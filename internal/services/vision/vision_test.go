package vision

import (
	"bytes"
	"errors"
	"path/filepath"
	"testing"

	"facealarm/internal/models"

	"gocv.io/x/gocv"
)

type foreignFrame struct{}

func (foreignFrame) Close() error { return nil }

func newBlankFrame(t *testing.T) *Frame {
	t.Helper()
	mat := gocv.NewMatWithSizeFromScalar(gocv.NewScalar(0, 0, 0, 0), 120, 160, gocv.MatTypeCV8UC3)
	t.Cleanup(func() { mat.Close() })
	return &Frame{Mat: mat}
}

func TestAsFrame(t *testing.T) {
	empty := &Frame{Mat: gocv.NewMat()}
	defer empty.Close()

	tests := []struct {
		name  string
		frame models.Frame
		want  error
	}{
		{"foreign frame", foreignFrame{}, ErrUnsupportedFrame},
		{"empty mat", empty, ErrEmptyFrame},
		{"blank image", newBlankFrame(t), nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := asFrame(tt.frame)
			if !errors.Is(err, tt.want) {
				t.Errorf("Expected %v, got %v", tt.want, err)
			}
		})
	}
}

func TestAnnotate_DrawsOverlay(t *testing.T) {
	frame := newBlankFrame(t)
	d := &CascadeDetector{}

	det := models.Detection{X: 10, Y: 20, Width: 50, Height: 40}
	if err := d.Annotate(frame, []models.Detection{det}); err != nil {
		t.Fatalf("Annotate failed: %v", err)
	}

	// Top-left corner of the box is blue in BGR order.
	v := frame.Mat.GetVecbAt(det.Y, det.X)
	if v[0] != 255 || v[1] != 0 || v[2] != 0 {
		t.Errorf("Expected blue pixel at box corner, got %v", v)
	}

	inside := frame.Mat.GetVecbAt(det.Y+det.Height/2, det.X+det.Width/2)
	if inside[0] != 0 {
		t.Errorf("Box interior should stay untouched, got %v", inside)
	}
}

func TestEncodeJPEG(t *testing.T) {
	data, err := EncodeJPEG(newBlankFrame(t))
	if err != nil {
		t.Fatalf("EncodeJPEG failed: %v", err)
	}
	if !bytes.HasPrefix(data, []byte{0xFF, 0xD8}) {
		t.Errorf("Expected JPEG SOI marker, got % x", data[:2])
	}

	if _, err := (JPEGEncoder{}).Encode(foreignFrame{}); !errors.Is(err, ErrUnsupportedFrame) {
		t.Errorf("Expected ErrUnsupportedFrame, got %v", err)
	}
}

func TestNewCascadeDetector_MissingFile(t *testing.T) {
	_, err := NewCascadeDetector(filepath.Join(t.TempDir(), "missing.xml"))
	if err == nil {
		t.Fatal("Expected error for missing cascade file")
	}
}

func TestHeadless(t *testing.T) {
	var h Headless
	quit, err := h.Show(foreignFrame{})
	if quit || err != nil {
		t.Errorf("Headless.Show = (%v, %v), expected (false, nil)", quit, err)
	}
}
