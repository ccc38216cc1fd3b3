package sqlite

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"facealarm/internal/models"
	"facealarm/internal/repository"
)

// ErrNotFound is returned when a record does not exist.
var ErrNotFound = repository.ErrNotFound

// AlertRepository implements repository.AlertRepository for SQLite.
type AlertRepository struct {
	db *DB
}

// NewAlertRepository creates a new SQLite alert repository.
func NewAlertRepository(db *DB) *AlertRepository {
	return &AlertRepository{db: db}
}

// Insert adds a new alert record to the database.
func (r *AlertRepository) Insert(a *models.Alert) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO alerts (run_id, camera, triggered_at, face_count)
		VALUES (?, ?, ?, ?)
	`, a.RunID, a.Camera, a.TriggeredAt.UTC(), a.FaceCount)
	if err != nil {
		return 0, fmt.Errorf("failed to insert alert: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	a.ID = id
	return id, nil
}

// GetByID retrieves an alert by its ID.
func (r *AlertRepository) GetByID(id int64) (*models.Alert, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var a models.Alert
	err := r.db.Conn().QueryRow(`
		SELECT id, run_id, camera, triggered_at, face_count
		FROM alerts WHERE id = ?
	`, id).Scan(&a.ID, &a.RunID, &a.Camera, &a.TriggeredAt, &a.FaceCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("alert %d: %w", id, ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get alert: %w", err)
	}
	return &a, nil
}

// GetRecent returns the newest alerts first.
func (r *AlertRepository) GetRecent(limit int) ([]models.Alert, error) {
	if limit <= 0 {
		limit = 20
	}

	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, run_id, camera, triggered_at, face_count
		FROM alerts ORDER BY triggered_at DESC, id DESC LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to query alerts: %w", err)
	}
	defer rows.Close()

	var alerts []models.Alert
	for rows.Next() {
		var a models.Alert
		if err := rows.Scan(&a.ID, &a.RunID, &a.Camera, &a.TriggeredAt, &a.FaceCount); err != nil {
			return nil, fmt.Errorf("failed to scan alert: %w", err)
		}
		alerts = append(alerts, a)
	}

	return alerts, rows.Err()
}

// Count returns the number of stored alerts.
func (r *AlertRepository) Count() (int, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	var count int
	if err := r.db.Conn().QueryRow(`SELECT COUNT(*) FROM alerts`).Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count alerts: %w", err)
	}
	return count, nil
}

// Stats summarises alerts per camera and failed actions.
func (r *AlertRepository) Stats() (*models.AlertStats, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	stats := &models.AlertStats{
		PerCamera:     make(map[string]int),
		FailedActions: make(map[string]int),
	}

	var last sql.NullString
	err := r.db.Conn().QueryRow(`
		SELECT COUNT(*), COALESCE(SUM(face_count), 0), MAX(triggered_at) FROM alerts
	`).Scan(&stats.TotalAlerts, &stats.TotalFaces, &last)
	if err != nil {
		return nil, fmt.Errorf("failed to summarise alerts: %w", err)
	}
	if last.Valid {
		stats.LastTriggered = parseTimestamp(last.String)
	}

	rows, err := r.db.Conn().Query(`SELECT camera, COUNT(*) FROM alerts GROUP BY camera`)
	if err != nil {
		return nil, fmt.Errorf("failed to count alerts per camera: %w", err)
	}
	for rows.Next() {
		var camera string
		var count int
		if err := rows.Scan(&camera, &count); err != nil {
			rows.Close()
			return nil, fmt.Errorf("failed to scan camera count: %w", err)
		}
		stats.PerCamera[camera] = count
	}
	rows.Close()

	rows, err = r.db.Conn().Query(`
		SELECT action, COUNT(*) FROM action_results WHERE status = ? GROUP BY action
	`, models.StatusFailed)
	if err != nil {
		return nil, fmt.Errorf("failed to count failed actions: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var action string
		var count int
		if err := rows.Scan(&action, &count); err != nil {
			return nil, fmt.Errorf("failed to scan action count: %w", err)
		}
		stats.FailedActions[action] = count
	}

	return stats, rows.Err()
}

// parseTimestamp reads the text form go-sqlite3 uses for aggregated DATETIME
// values, which come back untyped.
func parseTimestamp(s string) time.Time {
	layouts := []string{
		"2006-01-02 15:04:05.999999999-07:00",
		"2006-01-02T15:04:05.999999999-07:00",
		"2006-01-02 15:04:05.999999999",
		"2006-01-02T15:04:05.999999999Z07:00",
		"2006-01-02 15:04:05",
	}
	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
