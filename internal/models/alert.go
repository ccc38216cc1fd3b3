package models

import "time"

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

// Alert is the journal record written when the latch trips.
type Alert struct {
	ID          int64     `json:"id"`
	RunID       string    `json:"run_id"`
	Camera      string    `json:"camera"`
	TriggeredAt time.Time `json:"triggered_at"`
	FaceCount   int       `json:"face_count"`
}

// ActionResult is the outcome of one side-effect task launched for an alert.
type ActionResult struct {
	ID         int64     `json:"id"`
	AlertID    int64     `json:"alert_id"`
	Action     string    `json:"action"`
	Status     string    `json:"status"`
	Error      string    `json:"error,omitempty"`
	StartedAt  time.Time `json:"started_at"`
	FinishedAt time.Time `json:"finished_at"`
}

// Duration reports how long the action ran.
func (r ActionResult) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// AlertStats summarises the journal.
type AlertStats struct {
	TotalAlerts   int            `json:"total_alerts"`
	TotalFaces    int            `json:"total_faces"`
	PerCamera     map[string]int `json:"per_camera"`
	FailedActions map[string]int `json:"failed_actions"`
	LastTriggered time.Time      `json:"last_triggered"`
}
