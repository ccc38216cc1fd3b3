package handlers

import (
	"net/http"

	"facealarm/internal/logger"
)

// Status reports the live state of the detection process.
type Status interface {
	Triggered() bool
}

// Viewers reports how many websocket viewers are connected.
type Viewers interface {
	GetClientCount() int
}

type HealthData struct {
	Status    string `json:"status"`
	Triggered bool   `json:"triggered"`
	Viewers   int    `json:"viewers"`
}

func HealthHandler(status Status, viewers Viewers, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		data := HealthData{Status: "ok"}
		if status != nil {
			data.Triggered = status.Triggered()
		}
		if viewers != nil {
			data.Viewers = viewers.GetClientCount()
		}
		writeJSON(w, logger, data)
	}
}
