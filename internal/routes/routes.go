package routes

import (
	"net/http"
	"time"

	"facealarm/internal/handlers"
	"facealarm/internal/logger"
	"facealarm/internal/middleware"
	"facealarm/internal/repository"
	"facealarm/internal/services/websocket"

	"github.com/go-chi/chi/v5"
	chiMiddleware "github.com/go-chi/chi/v5/middleware"
)

// Journal groups the repositories behind /api/alerts.
type Journal struct {
	Alerts     repository.AlertRepository
	Detections repository.DetectionRepository
	Actions    repository.ActionRepository
}

// Deps holds everything the monitor routes read from. Journal, Hub and
// Metrics are optional; their routes are left out when nil.
type Deps struct {
	Status  handlers.Status
	Hub     *websocket.HubService
	Metrics http.Handler
	Journal *Journal
	Token   string
	Logger  *logger.Logger
}

// SetupRoutes builds the monitor router.
func SetupRoutes(deps Deps) http.Handler {
	r := chi.NewRouter()

	r.Use(chiMiddleware.RealIP)
	r.Use(chiMiddleware.Recoverer)
	r.Use(middleware.TokenAuth(deps.Token))

	var viewers handlers.Viewers
	if deps.Hub != nil {
		viewers = deps.Hub
	}
	r.Get("/healthz", handlers.HealthHandler(deps.Status, viewers, deps.Logger))

	if deps.Metrics != nil {
		r.Method(http.MethodGet, "/metrics", deps.Metrics)
	}

	if deps.Hub != nil {
		r.Get("/ws", handlers.ViewerWebsocketHandler(deps.Hub, deps.Logger))
	}

	if j := deps.Journal; j != nil {
		r.Route("/api/alerts", func(r chi.Router) {
			r.Use(chiMiddleware.Timeout(10 * time.Second))
			r.Get("/", handlers.GetAlertsHandler(j.Alerts, deps.Logger))
			r.Get("/stats", handlers.GetAlertStatsHandler(j.Alerts, deps.Logger))
			r.Get("/{id}", handlers.GetAlertHandler(j.Alerts, j.Detections, j.Actions, deps.Logger))
		})
	}

	r.Route("/logs/{level}", func(r chi.Router) {
		r.Get("/", handlers.ShowLogsHandler(deps.Logger))
		r.Post("/clear", handlers.ClearLogsHandler(deps.Logger))
	})

	return r
}
