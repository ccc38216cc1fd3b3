package sqlite

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"facealarm/internal/models"
)

// ========================================
// Test Setup Helpers
// ========================================

func setupTestDB(t *testing.T) *DB {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "data", "alerts.db")
	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create test database: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	return db
}

func insertAlert(t *testing.T, repo *AlertRepository, camera string, at time.Time, faces int) int64 {
	t.Helper()

	id, err := repo.Insert(&models.Alert{
		RunID:       "run-1",
		Camera:      camera,
		TriggeredAt: at,
		FaceCount:   faces,
	})
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	return id
}

// ========================================
// Database
// ========================================

func TestDatabase_CreatesFileAndDirectory(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "nested", "dir", "alerts.db")

	db, err := New(dbPath)
	if err != nil {
		t.Fatalf("Failed to create database: %v", err)
	}
	defer db.Close()

	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		t.Error("Database file should exist")
	}
}

func TestDatabase_MigrationIsIdempotent(t *testing.T) {
	dbPath := filepath.Join(t.TempDir(), "alerts.db")

	for i := 0; i < 2; i++ {
		db, err := New(dbPath)
		if err != nil {
			t.Fatalf("Open %d failed: %v", i+1, err)
		}
		db.Close()
	}
}

// ========================================
// Alert Repository
// ========================================

func TestAlertRepository_InsertAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewAlertRepository(db)

	at := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	a := &models.Alert{RunID: "abc", Camera: "0", TriggeredAt: at, FaceCount: 2}

	id, err := repo.Insert(a)
	if err != nil {
		t.Fatalf("Insert failed: %v", err)
	}
	if a.ID != id || id == 0 {
		t.Errorf("Expected ID to be set, got %d/%d", a.ID, id)
	}

	got, err := repo.GetByID(id)
	if err != nil {
		t.Fatalf("GetByID failed: %v", err)
	}
	if got.RunID != "abc" || got.Camera != "0" || got.FaceCount != 2 {
		t.Errorf("Unexpected alert %+v", got)
	}
	if !got.TriggeredAt.Equal(at) {
		t.Errorf("Expected %v, got %v", at, got.TriggeredAt)
	}
}

func TestAlertRepository_GetByIDNotFound(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	_, err := repo.GetByID(42)
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("Expected ErrNotFound, got %v", err)
	}
}

func TestAlertRepository_GetRecent(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))
	base := time.Date(2025, 1, 1, 8, 0, 0, 0, time.UTC)

	for i := 0; i < 5; i++ {
		insertAlert(t, repo, "0", base.Add(time.Duration(i)*time.Hour), i+1)
	}

	alerts, err := repo.GetRecent(3)
	if err != nil {
		t.Fatalf("GetRecent failed: %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("Expected 3 alerts, got %d", len(alerts))
	}
	if alerts[0].FaceCount != 5 || alerts[2].FaceCount != 3 {
		t.Errorf("Expected newest first, got %d..%d", alerts[0].FaceCount, alerts[2].FaceCount)
	}

	count, err := repo.Count()
	if err != nil {
		t.Fatalf("Count failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 alerts, got %d", count)
	}
}

func TestAlertRepository_Stats(t *testing.T) {
	db := setupTestDB(t)
	alerts := NewAlertRepository(db)
	actions := NewActionRepository(db)

	last := time.Date(2025, 3, 2, 9, 15, 0, 0, time.UTC)
	first := insertAlert(t, alerts, "0", last.Add(-time.Hour), 1)
	insertAlert(t, alerts, "0", last.Add(-time.Minute), 2)
	insertAlert(t, alerts, "rtsp://door", last, 3)

	for _, status := range []string{models.StatusFailed, models.StatusOK} {
		_, err := actions.Record(&models.ActionResult{
			AlertID:    first,
			Action:     "send-alert-email",
			Status:     status,
			StartedAt:  last,
			FinishedAt: last,
		})
		if err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	stats, err := alerts.Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}

	if stats.TotalAlerts != 3 || stats.TotalFaces != 6 {
		t.Errorf("Expected 3 alerts / 6 faces, got %d / %d", stats.TotalAlerts, stats.TotalFaces)
	}
	if stats.PerCamera["0"] != 2 || stats.PerCamera["rtsp://door"] != 1 {
		t.Errorf("Unexpected per-camera counts %v", stats.PerCamera)
	}
	if stats.FailedActions["send-alert-email"] != 1 {
		t.Errorf("Expected one failed email, got %v", stats.FailedActions)
	}
	if !stats.LastTriggered.Equal(last) {
		t.Errorf("Expected last triggered %v, got %v", last, stats.LastTriggered)
	}
}

func TestAlertRepository_StatsEmpty(t *testing.T) {
	stats, err := NewAlertRepository(setupTestDB(t)).Stats()
	if err != nil {
		t.Fatalf("Stats failed: %v", err)
	}
	if stats.TotalAlerts != 0 || !stats.LastTriggered.IsZero() {
		t.Errorf("Expected empty stats, got %+v", stats)
	}
}

func TestAlertRepository_ConcurrentInsert(t *testing.T) {
	repo := NewAlertRepository(setupTestDB(t))

	done := make(chan error, 10)
	for i := 0; i < 10; i++ {
		go func(idx int) {
			_, err := repo.Insert(&models.Alert{
				RunID:       fmt.Sprintf("run-%d", idx),
				Camera:      "0",
				TriggeredAt: time.Now(),
			})
			done <- err
		}(i)
	}

	for i := 0; i < 10; i++ {
		if err := <-done; err != nil {
			t.Errorf("Concurrent insert failed: %v", err)
		}
	}

	count, _ := repo.Count()
	if count != 10 {
		t.Errorf("Expected 10 alerts, got %d", count)
	}
}

// ========================================
// Detection and Action Repositories
// ========================================

func TestDetectionRepository_InsertBatch(t *testing.T) {
	db := setupTestDB(t)
	alertID := insertAlert(t, NewAlertRepository(db), "0", time.Now(), 2)
	repo := NewDetectionRepository(db)

	dets := []models.Detection{
		{X: 10, Y: 20, Width: 30, Height: 30},
		{X: 100, Y: 50, Width: 42, Height: 42},
	}
	if err := repo.InsertBatch(alertID, dets); err != nil {
		t.Fatalf("InsertBatch failed: %v", err)
	}
	if err := repo.InsertBatch(alertID, nil); err != nil {
		t.Fatalf("Empty batch should be a no-op, got %v", err)
	}

	got, err := repo.GetByAlertID(alertID)
	if err != nil {
		t.Fatalf("GetByAlertID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 detections, got %d", len(got))
	}
	if got[1].X != 100 || got[1].Width != 42 || got[1].AlertID != alertID {
		t.Errorf("Unexpected detection %+v", got[1])
	}
}

func TestDetectionRepository_RejectsUnknownAlert(t *testing.T) {
	repo := NewDetectionRepository(setupTestDB(t))

	err := repo.InsertBatch(999, []models.Detection{{X: 1}})
	if err == nil {
		t.Error("Expected foreign key violation for unknown alert")
	}
}

func TestActionRepository_RecordAndList(t *testing.T) {
	db := setupTestDB(t)
	alertID := insertAlert(t, NewAlertRepository(db), "0", time.Now(), 1)
	repo := NewActionRepository(db)

	start := time.Date(2025, 6, 15, 14, 30, 0, 0, time.UTC)
	results := []*models.ActionResult{
		{AlertID: alertID, Action: "play-alarm", Status: models.StatusOK, StartedAt: start, FinishedAt: start.Add(8 * time.Second)},
		{AlertID: alertID, Action: "send-alert-email", Status: models.StatusFailed, Error: "auth failed", StartedAt: start, FinishedAt: start.Add(time.Second)},
	}
	for _, res := range results {
		if _, err := repo.Record(res); err != nil {
			t.Fatalf("Record failed: %v", err)
		}
	}

	got, err := repo.GetByAlertID(alertID)
	if err != nil {
		t.Fatalf("GetByAlertID failed: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("Expected 2 results, got %d", len(got))
	}
	if got[0].Action != "send-alert-email" || got[0].Error != "auth failed" {
		t.Errorf("Expected email result first, got %+v", got[0])
	}
	if got[1].Duration() != 8*time.Second {
		t.Errorf("Expected 8s alarm, got %v", got[1].Duration())
	}
}
