package repository

import (
	"errors"

	"facealarm/internal/models"
)

// ErrNotFound is returned by repositories when a record does not exist.
var ErrNotFound = errors.New("record not found")

// AlertRepository defines the interface for alert journal operations.
type AlertRepository interface {
	// Create operations
	Insert(a *models.Alert) (int64, error)

	// Read operations
	GetByID(id int64) (*models.Alert, error)
	GetRecent(limit int) ([]models.Alert, error)
	Count() (int, error)
	Stats() (*models.AlertStats, error)
}

// DetectionRepository defines the interface for detections stored with an alert.
type DetectionRepository interface {
	InsertBatch(alertID int64, detections []models.Detection) error
	GetByAlertID(alertID int64) ([]models.Detection, error)
}

// ActionRepository defines the interface for alert action outcomes.
type ActionRepository interface {
	Record(res *models.ActionResult) (int64, error)
	GetByAlertID(alertID int64) ([]models.ActionResult, error)
}
