package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"facealarm/internal/app"
	"facealarm/internal/config"
	"facealarm/internal/logger"

	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch",
	Short: "Run the detection loop (default)",
	Long: `Open the camera and run detection until the exit key is pressed or the
process receives SIGINT/SIGTERM. The first frame with a face launches the
alarm sound and the notification email exactly once.`,
	RunE: runWatch,
}

func init() {
	rootCmd.AddCommand(watchCmd)

	for _, cmd := range []*cobra.Command{rootCmd, watchCmd} {
		cmd.Flags().String("camera", "", "Camera index or stream URL (overrides CAMERA_DEVICE)")
		cmd.Flags().Bool("headless", false, "Run without a preview window")
		cmd.Flags().String("monitor", "", "Address for the monitor server, e.g. :8090 (overrides MONITOR_ADDR)")
	}
}

func runWatch(cmd *cobra.Command, args []string) error {
	cfg := config.Load()
	if camera := mustGetString(cmd, "camera"); camera != "" {
		cfg.CameraDevice = camera
	}
	if mustGetBool(cmd, "headless") {
		cfg.Headless = true
	}
	if monitor := mustGetString(cmd, "monitor"); monitor != "" {
		cfg.MonitorAddr = monitor
	}

	log, err := logger.New(cfg.LogDirectory)
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	defer log.Close()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	log.Info("🚀 facealarm")
	log.Info("📷 Camera: %s", cfg.CameraDevice)
	log.Info("🤖 Cascade: %s", cfg.CascadePath)
	log.Info("📧 Recipient: %s", cfg.Recipient)

	if err := app.NewApp(cfg, log).Run(ctx); err != nil {
		log.Error("Watcher failed: %v", err)
		return err
	}
	return nil
}
