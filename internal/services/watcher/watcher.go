package watcher

import (
	"context"
	"errors"
	"fmt"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/metrics"
	"facealarm/internal/models"
	"facealarm/internal/services/alert"
)

// ErrCameraUnavailable is returned once the retry budget for failed reads is spent.
var ErrCameraUnavailable = errors.New("camera unavailable")

type Source interface {
	Read() (models.Frame, error)
}

type Detector interface {
	Detect(frame models.Frame) ([]models.Detection, error)
	Annotate(frame models.Frame, detections []models.Detection) error
}

type Display interface {
	// Show renders frame and reports whether the exit key was pressed.
	Show(frame models.Frame) (bool, error)
}

type Trigger interface {
	OnDetection(ctx context.Context, ev alert.Event) bool
}

// Recorder keeps evidence of frames with detections.
type Recorder interface {
	Record(frame models.Frame, detections []models.Detection, tripped bool)
}

type Options struct {
	Camera     string
	RetryLimit int
	RetryDelay time.Duration
}

// Watcher runs the capture/detect/alert loop on a single goroutine.
type Watcher struct {
	source   Source
	detector Detector
	display  Display
	trigger  Trigger
	recorder Recorder
	metrics  *metrics.Metrics
	logger   *logger.Logger
	opts     Options

	frames int
}

func New(source Source, detector Detector, display Display, trigger Trigger, logger *logger.Logger, opts Options) *Watcher {
	if opts.RetryLimit < 0 {
		opts.RetryLimit = 0
	}
	return &Watcher{
		source:   source,
		detector: detector,
		display:  display,
		trigger:  trigger,
		logger:   logger,
		opts:     opts,
	}
}

// WithRecorder attaches a snapshot recorder.
func (w *Watcher) WithRecorder(r Recorder) *Watcher {
	w.recorder = r
	return w
}

// WithMetrics attaches frame counters.
func (w *Watcher) WithMetrics(m *metrics.Metrics) *Watcher {
	w.metrics = m
	return w
}

// Frames returns the number of frames processed so far.
func (w *Watcher) Frames() int {
	return w.frames
}

// Run loops until the exit key is pressed, ctx is cancelled or a fatal error
// occurs. Exit key and cancellation return nil.
func (w *Watcher) Run(ctx context.Context) error {
	w.logger.Info("👁️  Watching camera %s", w.opts.Camera)

	failures := 0
	for {
		if err := ctx.Err(); err != nil {
			w.logger.Info("Watcher stopped: %v", err)
			return nil
		}

		frame, err := w.source.Read()
		if err != nil {
			failures++
			w.metrics.FrameFailed()
			if failures > w.opts.RetryLimit {
				return fmt.Errorf("%w after %d failed reads: %v", ErrCameraUnavailable, failures, err)
			}
			w.logger.Warning("Frame read failed (%d/%d): %v", failures, w.opts.RetryLimit, err)
			if !sleep(ctx, w.opts.RetryDelay) {
				return nil
			}
			continue
		}
		failures = 0
		w.metrics.FrameRead()

		quit, err := w.process(ctx, frame)
		if closeErr := frame.Close(); closeErr != nil {
			w.logger.Warning("Failed to release frame: %v", closeErr)
		}
		if err != nil {
			return err
		}
		if quit {
			w.logger.Info("Exit key pressed after %d frame(s)", w.frames)
			return nil
		}
	}
}

// process handles one frame. The caller closes it.
func (w *Watcher) process(ctx context.Context, frame models.Frame) (bool, error) {
	w.frames++

	detections, err := w.detector.Detect(frame)
	if err != nil {
		return false, fmt.Errorf("detection failed on frame %d: %w", w.frames, err)
	}

	if len(detections) > 0 {
		w.metrics.FacesDetected(len(detections))

		if err := w.detector.Annotate(frame, detections); err != nil {
			w.logger.Warning("Failed to draw overlay: %v", err)
		}

		tripped := w.trigger.OnDetection(ctx, alert.Event{
			Camera:     w.opts.Camera,
			Detections: detections,
			At:         time.Now(),
		})

		if w.recorder != nil {
			w.recorder.Record(frame, detections, tripped)
		}
	}

	quit, err := w.display.Show(frame)
	if err != nil {
		return false, fmt.Errorf("display failed: %w", err)
	}
	return quit, nil
}

// sleep waits for d and reports false if ctx ended first.
func sleep(ctx context.Context, d time.Duration) bool {
	if d <= 0 {
		return ctx.Err() == nil
	}
	t := time.NewTimer(d)
	defer t.Stop()

	select {
	case <-t.C:
		return true
	case <-ctx.Done():
		return false
	}
}
