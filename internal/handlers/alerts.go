package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"facealarm/internal/logger"
	"facealarm/internal/models"
	"facealarm/internal/repository"

	"github.com/go-chi/chi/v5"
)

const (
	defaultAlertLimit = 20
	maxAlertLimit     = 500
)

type AlertsData struct {
	Alerts []models.Alert `json:"alerts"`
	Total  int            `json:"total"`
	Limit  int            `json:"limit"`
}

type AlertDetail struct {
	models.Alert
	Detections []models.Detection    `json:"detections"`
	Actions    []models.ActionResult `json:"actions"`
}

// GetAlertsHandler lists the most recent journaled alerts.
func GetAlertsHandler(alerts repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		limit, err := strconv.Atoi(r.URL.Query().Get("limit"))
		if limit <= 0 || err != nil {
			limit = defaultAlertLimit
		}
		if limit > maxAlertLimit {
			limit = maxAlertLimit
		}

		recent, err := alerts.GetRecent(limit)
		if err != nil {
			logger.Error("Failed to load alerts: %v", err)
			http.Error(w, "Unable to load alerts", http.StatusInternalServerError)
			return
		}
		total, err := alerts.Count()
		if err != nil {
			logger.Error("Failed to count alerts: %v", err)
			http.Error(w, "Unable to load alerts", http.StatusInternalServerError)
			return
		}
		if recent == nil {
			recent = []models.Alert{}
		}

		writeJSON(w, logger, AlertsData{Alerts: recent, Total: total, Limit: limit})
	}
}

// GetAlertHandler returns one alert with its detections and action outcomes.
func GetAlertHandler(alerts repository.AlertRepository, detections repository.DetectionRepository, actions repository.ActionRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, err := strconv.ParseInt(chi.URLParam(r, "id"), 10, 64)
		if err != nil || id <= 0 {
			http.Error(w, "Invalid alert id", http.StatusBadRequest)
			return
		}

		a, err := alerts.GetByID(id)
		if errors.Is(err, repository.ErrNotFound) {
			http.Error(w, "Alert not found", http.StatusNotFound)
			return
		}
		if err != nil {
			logger.Error("Failed to load alert %d: %v", id, err)
			http.Error(w, "Unable to load alert", http.StatusInternalServerError)
			return
		}

		detail := AlertDetail{Alert: *a}
		if detail.Detections, err = detections.GetByAlertID(id); err != nil {
			logger.Error("Failed to load detections of alert %d: %v", id, err)
		}
		if detail.Actions, err = actions.GetByAlertID(id); err != nil {
			logger.Error("Failed to load actions of alert %d: %v", id, err)
		}

		writeJSON(w, logger, detail)
	}
}

func GetAlertStatsHandler(alerts repository.AlertRepository, logger *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		stats, err := alerts.Stats()
		if err != nil {
			logger.Error("Failed to load alert stats: %v", err)
			http.Error(w, "Unable to load stats", http.StatusInternalServerError)
			return
		}
		writeJSON(w, logger, stats)
	}
}

func writeJSON(w http.ResponseWriter, logger *logger.Logger, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Error("Error encoding JSON response: %v", err)
	}
}
