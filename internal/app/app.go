package app

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"facealarm/internal/config"
	"facealarm/internal/logger"
	"facealarm/internal/metrics"
	"facealarm/internal/repository/sqlite"
	"facealarm/internal/routes"
	"facealarm/internal/services/alarm"
	"facealarm/internal/services/alert"
	"facealarm/internal/services/journal"
	"facealarm/internal/services/mail"
	"facealarm/internal/services/storage"
	"facealarm/internal/services/vision"
	"facealarm/internal/services/watcher"
	"facealarm/internal/services/websocket"

	"github.com/google/uuid"
)

type display interface {
	watcher.Display
	Close() error
}

type App struct {
	config *config.Config
	logger *logger.Logger
	runID  string

	metrics *metrics.Metrics
	latch   *alert.Latch

	background sync.WaitGroup
}

func NewApp(cfg *config.Config, logger *logger.Logger) *App {
	return &App{
		config:  cfg,
		logger:  logger,
		runID:   uuid.NewString(),
		metrics: metrics.New(),
	}
}

// Run opens the camera and watches it until the exit key, ctx cancellation or
// a fatal error. Every opened resource is released before Run returns.
func (a *App) Run(ctx context.Context) error {
	cfg := a.config
	if err := cfg.Validate(); err != nil {
		return err
	}

	mailer, err := mail.NewMailer(cfg, a.logger)
	if err != nil {
		return err
	}
	player := alarm.NewPlayer(cfg.SoundAssetPath, cfg.SoundPlayer, a.logger)

	a.latch = alert.NewLatch(alert.NewState(), alert.NewTasks(), a.logger, player, mailer)
	a.latch.AddObserver(a.metrics)

	var db *sqlite.DB
	if cfg.DatabasePath != "" {
		if db, err = sqlite.New(cfg.DatabasePath); err != nil {
			return fmt.Errorf("failed to open alert journal: %w", err)
		}
		defer db.Close()
	}

	// Background services outlive the loop so results of running actions are
	// still journaled and broadcast. They stop before the database closes.
	bg, stop := context.WithCancel(context.Background())
	defer a.background.Wait()
	defer stop()

	var (
		journalRoutes *routes.Journal
		j             *journal.Journal
	)
	if db != nil {
		journalRoutes = &routes.Journal{
			Alerts:     sqlite.NewAlertRepository(db),
			Detections: sqlite.NewDetectionRepository(db),
			Actions:    sqlite.NewActionRepository(db),
		}
		j = journal.New(a.runID, journalRoutes.Alerts, journalRoutes.Detections, journalRoutes.Actions, a.logger)
		a.latch.AddObserver(j)
		a.goBackground(func() { j.Run(bg) })
		a.logger.Info("📒 Alert journal: %s (run %s)", cfg.DatabasePath, a.runID)
	}

	if cfg.MonitorAddr != "" {
		hub := websocket.NewHubService(a.logger)
		a.latch.AddObserver(hub)
		a.goBackground(func() { hub.Run(bg) })

		server := &http.Server{
			Addr: cfg.MonitorAddr,
			Handler: routes.SetupRoutes(routes.Deps{
				Status:  a.latch,
				Hub:     hub,
				Metrics: a.metrics.Handler(),
				Journal: journalRoutes,
				Token:   cfg.MonitorToken,
				Logger:  a.logger,
			}),
			ReadTimeout: 10 * time.Second,
			IdleTimeout: 60 * time.Second,
		}
		go func() {
			a.logger.Info("📡 Monitor listening on %s", cfg.MonitorAddr)
			if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
				a.logger.Error("Monitor server failed: %v", err)
			}
		}()
		defer a.shutdownServer(server)
	}

	camera, err := vision.OpenCamera(cfg.CameraDevice)
	if err != nil {
		return err
	}
	defer camera.Close()

	detector, err := vision.NewCascadeDetector(cfg.CascadePath)
	if err != nil {
		return err
	}
	defer detector.Close()

	var screen display = vision.Headless{}
	if !cfg.Headless {
		screen = vision.NewWindow(cfg.WindowTitle, cfg.ExitKey[0])
	}
	defer screen.Close()

	snapshots := storage.NewSnapshotBuffer(cfg.SnapshotDirectory, CameraLabel(cfg.CameraDevice), cfg.SnapshotBufferLimit, vision.JPEGEncoder{}, a.logger)
	a.goBackground(func() {
		snapshots.Run(bg, time.Duration(cfg.SnapshotFlushInterval)*time.Second)
	})

	w := watcher.New(camera, detector, screen, a.latch, a.logger, watcher.Options{
		Camera:     cfg.CameraDevice,
		RetryLimit: cfg.FrameRetryLimit,
		RetryDelay: cfg.FrameRetryDelay,
	}).WithRecorder(snapshots).WithMetrics(a.metrics)

	runErr := w.Run(ctx)

	a.waitForActions()
	if j != nil {
		j.Wait()
	}
	snapshots.Flush()
	if path := snapshots.AlertPath(); path != "" {
		a.logger.Info("📸 Alert snapshot: %s", path)
	}
	a.logger.Info("Processed %d frame(s), alert triggered: %t", w.Frames(), a.latch.Triggered())

	return runErr
}

// Triggered reports whether the alert latch has tripped during this run.
func (a *App) Triggered() bool {
	return a.latch != nil && a.latch.Triggered()
}

func (a *App) waitForActions() {
	ctx, cancel := context.WithTimeout(context.Background(), a.config.ShutdownTimeout)
	defer cancel()

	if err := a.latch.Tasks().Wait(ctx); err != nil {
		for _, task := range a.latch.Tasks().Launched() {
			select {
			case <-task.Done():
			default:
				a.logger.Warning("⚠️  Abandoning unfinished alert task %s", task.Name())
			}
		}
	}
}

func (a *App) shutdownServer(server *http.Server) {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		a.logger.Error("Monitor shutdown failed: %v", err)
	}
}

func (a *App) goBackground(fn func()) {
	a.background.Add(1)
	go func() {
		defer a.background.Done()
		fn()
	}()
}

// CameraLabel turns a device index or stream URL into a token safe for file
// names.
func CameraLabel(device string) string {
	label := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '-':
			return r
		default:
			return '_'
		}
	}, device)
	if label == "" {
		return "0"
	}
	return label
}
