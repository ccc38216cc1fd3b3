package journal

import (
	"context"
	"errors"
	"io"
	"path/filepath"
	"testing"
	"time"

	"facealarm/internal/logger"
	"facealarm/internal/models"
	"facealarm/internal/repository/sqlite"
	"facealarm/internal/services/alert"
)

func setupJournal(t *testing.T) (*Journal, *sqlite.DB) {
	t.Helper()

	db, err := sqlite.New(filepath.Join(t.TempDir(), "alerts.db"))
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	j := New("run-42",
		sqlite.NewAlertRepository(db),
		sqlite.NewDetectionRepository(db),
		sqlite.NewActionRepository(db),
		logger.NewWriter(io.Discard),
	)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		j.Run(ctx)
		close(done)
	}()
	t.Cleanup(func() {
		cancel()
		<-done
	})

	return j, db
}

func TestJournal_WritesAlertAndResults(t *testing.T) {
	j, db := setupJournal(t)
	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)

	j.AlertTripped(alert.Event{
		Camera:     "0",
		At:         at,
		Detections: []models.Detection{{X: 1, Y: 2, Width: 3, Height: 4}, {X: 5, Y: 6, Width: 7, Height: 8}},
	})
	j.ActionFinished(alert.Result{Action: "play-alarm", StartedAt: at, FinishedAt: at.Add(time.Second)})
	j.ActionFinished(alert.Result{Action: "send-alert-email", Err: errors.New("refused"), StartedAt: at, FinishedAt: at})
	j.Wait()

	alerts, err := sqlite.NewAlertRepository(db).GetRecent(10)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(alerts) != 1 {
		t.Fatalf("Expected one alert, got %d", len(alerts))
	}
	a := alerts[0]
	if a.RunID != "run-42" || a.FaceCount != 2 || !a.TriggeredAt.Equal(at) {
		t.Errorf("Unexpected alert %+v", a)
	}

	dets, err := sqlite.NewDetectionRepository(db).GetByAlertID(a.ID)
	if err != nil || len(dets) != 2 {
		t.Fatalf("Expected 2 detections, got %d (%v)", len(dets), err)
	}

	results, err := sqlite.NewActionRepository(db).GetByAlertID(a.ID)
	if err != nil {
		t.Fatalf("GetByAlertID failed: %v", err)
	}
	if len(results) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(results))
	}

	byAction := map[string]models.ActionResult{}
	for _, r := range results {
		byAction[r.Action] = r
	}
	if byAction["play-alarm"].Status != models.StatusOK {
		t.Errorf("Expected alarm ok, got %+v", byAction["play-alarm"])
	}
	if email := byAction["send-alert-email"]; email.Status != models.StatusFailed || email.Error != "refused" {
		t.Errorf("Expected failed email, got %+v", email)
	}
}

func TestJournal_ResultWithoutAlertIsDropped(t *testing.T) {
	j, db := setupJournal(t)

	j.ActionFinished(alert.Result{Action: "play-alarm", StartedAt: time.Now(), FinishedAt: time.Now()})
	j.Wait()

	stats, err := sqlite.NewAlertRepository(db).Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalAlerts != 0 {
		t.Errorf("Expected no alerts, got %d", stats.TotalAlerts)
	}
}

func TestJournal_WithLatch(t *testing.T) {
	j, db := setupJournal(t)

	latch := alert.NewLatch(alert.NewState(), alert.NewTasks(), logger.NewWriter(io.Discard), okAction("play-alarm"), okAction("send-alert-email"))
	latch.AddObserver(j)

	for i := 0; i < 3; i++ {
		latch.OnDetection(context.Background(), alert.Event{Camera: "0", Detections: []models.Detection{{X: i}}})
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := latch.Tasks().Wait(ctx); err != nil {
		t.Fatalf("Tasks did not finish: %v", err)
	}
	j.Wait()

	count, _ := sqlite.NewAlertRepository(db).Count()
	if count != 1 {
		t.Errorf("Expected exactly one journaled alert, got %d", count)
	}
}

type okAction string

func (a okAction) Name() string                  { return string(a) }
func (a okAction) Run(ctx context.Context) error { return nil }
