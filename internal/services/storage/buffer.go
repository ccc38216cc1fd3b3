package storage

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/models"
)

// Encoder turns a frame into image bytes.
type Encoder interface {
	Encode(frame models.Frame) ([]byte, error)
}

// Snapshot is an encoded frame waiting to be written.
type Snapshot struct {
	Timestamp time.Time
	Camera    string
	Faces     int
	Data      []byte
}

// Filename builds the on-disk name, e.g. 2025-06-15_14-30-00.000_cam0_2faces.jpg.
func (s Snapshot) Filename() string {
	return fmt.Sprintf("%s_cam%s_%dfaces.jpg", s.Timestamp.Format("2006-01-02_15-04-05.000"), s.Camera, s.Faces)
}

// SnapshotBuffer buffers annotated frames in memory and periodically flushes
// them to disk. The frame that trips the alert bypasses the buffer and is
// written on its own goroutine.
type SnapshotBuffer struct {
	dir     string
	camera  string
	limit   int
	encoder Encoder
	logger  *logger.Logger

	mu        sync.Mutex
	images    []Snapshot
	dropped   int
	alertPath string

	alertWrites sync.WaitGroup
	writeFile   func(name string, data []byte, perm os.FileMode) error
}

func NewSnapshotBuffer(dir, camera string, limit int, encoder Encoder, logger *logger.Logger) *SnapshotBuffer {
	if limit < 0 {
		limit = 0
	}
	return &SnapshotBuffer{
		dir:     dir,
		camera:  camera,
		limit:   limit,
		encoder:   encoder,
		logger:    logger,
		images:    make([]Snapshot, 0, limit),
		writeFile: os.WriteFile,
	}
}

// Run flushes the buffer every interval until ctx is done, then flushes once more.
func (s *SnapshotBuffer) Run(ctx context.Context, interval time.Duration) {
	if interval <= 0 {
		<-ctx.Done()
		s.Flush()
		return
	}

	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			s.Flush()
		case <-ctx.Done():
			s.Flush()
			return
		}
	}
}

// Record encodes frame while the caller still owns it; disk writes happen
// elsewhere. Encoding errors are logged; snapshots never interrupt the
// detection loop.
func (s *SnapshotBuffer) Record(frame models.Frame, detections []models.Detection, tripped bool) {
	if !tripped && s.full() {
		return
	}

	data, err := s.encoder.Encode(frame)
	if err != nil {
		s.logger.Warning("Failed to encode snapshot: %v", err)
		return
	}

	snap := Snapshot{
		Timestamp: time.Now(),
		Camera:    s.camera,
		Faces:     len(detections),
		Data:      data,
	}

	if tripped {
		s.alertWrites.Add(1)
		go s.writeAlert(snap)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) < s.limit {
		s.images = append(s.images, snap)
	}
}

func (s *SnapshotBuffer) writeAlert(snap Snapshot) {
	defer s.alertWrites.Done()

	path, err := s.write(snap)
	if err != nil {
		s.logger.Error("Failed to save alert snapshot: %v", err)
		return
	}
	s.mu.Lock()
	s.alertPath = path
	s.mu.Unlock()
	s.logger.Info("📸 Alert snapshot saved to %s", path)
}

// Flush waits for an alert snapshot in progress, then writes buffered
// snapshots to disk and clears the buffer.
func (s *SnapshotBuffer) Flush() int {
	s.alertWrites.Wait()

	s.mu.Lock()
	images := s.images
	dropped := s.dropped
	s.images = make([]Snapshot, 0, s.limit)
	s.dropped = 0
	s.mu.Unlock()

	if len(images) == 0 {
		return 0
	}

	written := 0
	for _, snap := range images {
		if _, err := s.write(snap); err != nil {
			s.logger.Error("Error saving snapshot %s: %v", snap.Filename(), err)
			continue
		}
		written++
	}

	s.logger.Info("Flushed %d snapshot(s) to disk (%d skipped while buffer was full)", written, dropped)
	return written
}

// full reports whether the buffer is at its limit and counts the skipped frame.
func (s *SnapshotBuffer) full() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.images) < s.limit {
		return false
	}
	s.dropped++
	return true
}

// AlertPath returns where the alert snapshot was written, empty if none.
func (s *SnapshotBuffer) AlertPath() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.alertPath
}

// Pending returns the number of buffered snapshots.
func (s *SnapshotBuffer) Pending() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.images)
}

func (s *SnapshotBuffer) write(snap Snapshot) (string, error) {
	if err := os.MkdirAll(s.dir, 0755); err != nil {
		return "", fmt.Errorf("error creating directory: %w", err)
	}

	path := filepath.Join(s.dir, snap.Filename())
	if err := s.writeFile(path, snap.Data, 0644); err != nil {
		return "", err
	}
	return path, nil
}
