package vision

import (
	"errors"
	"fmt"
	"strconv"

	"facealarm/internal/models"

	"gocv.io/x/gocv"
)

var (
	ErrEmptyFrame       = errors.New("captured frame is empty")
	ErrUnsupportedFrame = errors.New("frame was not produced by the vision package")
)

// Frame wraps a captured gocv.Mat.
type Frame struct {
	Mat gocv.Mat
}

func (f *Frame) Close() error {
	return f.Mat.Close()
}

func asFrame(frame models.Frame) (*Frame, error) {
	f, ok := frame.(*Frame)
	if !ok {
		return nil, ErrUnsupportedFrame
	}
	if f.Mat.Empty() {
		return nil, ErrEmptyFrame
	}
	return f, nil
}

// Camera reads frames from a capture device, video file or stream URL.
type Camera struct {
	device  string
	capture *gocv.VideoCapture
}

// OpenCamera opens device. A numeric device is treated as a camera index.
func OpenCamera(device string) (*Camera, error) {
	var source interface{} = device
	if id, err := strconv.Atoi(device); err == nil {
		source = id
	}

	capture, err := gocv.OpenVideoCapture(source)
	if err != nil {
		return nil, fmt.Errorf("failed to open camera %s: %w", device, err)
	}
	if !capture.IsOpened() {
		capture.Close()
		return nil, fmt.Errorf("camera %s is not available", device)
	}

	return &Camera{device: device, capture: capture}, nil
}

// Read captures the next frame. The caller owns the returned frame.
func (c *Camera) Read() (models.Frame, error) {
	mat := gocv.NewMat()
	if ok := c.capture.Read(&mat); !ok {
		mat.Close()
		return nil, fmt.Errorf("camera %s: read failed", c.device)
	}
	if mat.Empty() {
		mat.Close()
		return nil, fmt.Errorf("camera %s: %w", c.device, ErrEmptyFrame)
	}
	return &Frame{Mat: mat}, nil
}

func (c *Camera) Device() string {
	return c.device
}

func (c *Camera) Close() error {
	return c.capture.Close()
}
