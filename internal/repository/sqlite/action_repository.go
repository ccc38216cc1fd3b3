package sqlite

import (
	"fmt"

	"facealarm/internal/models"
)

// ActionRepository implements repository.ActionRepository for SQLite.
type ActionRepository struct {
	db *DB
}

func NewActionRepository(db *DB) *ActionRepository {
	return &ActionRepository{db: db}
}

// Record stores the outcome of one alert action.
func (r *ActionRepository) Record(res *models.ActionResult) (int64, error) {
	r.db.Lock()
	defer r.db.Unlock()

	result, err := r.db.Conn().Exec(`
		INSERT INTO action_results (alert_id, action, status, error, started_at, finished_at)
		VALUES (?, ?, ?, ?, ?, ?)
	`, res.AlertID, res.Action, res.Status, res.Error, res.StartedAt.UTC(), res.FinishedAt.UTC())
	if err != nil {
		return 0, fmt.Errorf("failed to insert action result: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, err
	}
	res.ID = id
	return id, nil
}

// GetByAlertID lists the action outcomes of an alert in completion order.
func (r *ActionRepository) GetByAlertID(alertID int64) ([]models.ActionResult, error) {
	r.db.RLock()
	defer r.db.RUnlock()

	rows, err := r.db.Conn().Query(`
		SELECT id, alert_id, action, status, error, started_at, finished_at
		FROM action_results WHERE alert_id = ? ORDER BY finished_at, id
	`, alertID)
	if err != nil {
		return nil, fmt.Errorf("failed to query action results: %w", err)
	}
	defer rows.Close()

	var results []models.ActionResult
	for rows.Next() {
		var res models.ActionResult
		if err := rows.Scan(&res.ID, &res.AlertID, &res.Action, &res.Status, &res.Error, &res.StartedAt, &res.FinishedAt); err != nil {
			return nil, fmt.Errorf("failed to scan action result: %w", err)
		}
		results = append(results, res)
	}

	return results, rows.Err()
}
