package config

import (
	"errors"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"
)

type Config struct {
	CameraDevice string
	CascadePath  string
	WindowTitle  string
	ExitKey      string
	Headless     bool

	SMTPEndpoint   string // host:port, the connection must support STARTTLS
	SenderIdentity string
	Credential     string
	Recipient      string
	MailSubject    string
	MailBody       string

	SoundAssetPath string
	SoundPlayer    string // Command line used to play SoundAssetPath

	FrameRetryLimit int           // Consecutive failed reads tolerated before giving up
	FrameRetryDelay time.Duration // Pause between failed reads
	ShutdownTimeout time.Duration // How long to wait for alert tasks on exit

	SnapshotDirectory     string
	SnapshotBufferLimit   int
	SnapshotFlushInterval int // seconds

	DatabasePath string // Empty disables the alert journal
	MonitorAddr  string // Empty disables the monitor server
	MonitorToken string // Empty leaves the monitor open
	LogDirectory string
}

var ErrMailNotConfigured = errors.New("mail transport is not configured")

func Load() *Config {
	return &Config{
		CameraDevice: getEnv("CAMERA_DEVICE", "0"),
		CascadePath:  getEnv("CASCADE_PATH", "haarcascade_frontalface_default.xml"),
		WindowTitle:  getEnv("WINDOW_TITLE", "Object Detection"),
		ExitKey:      getEnv("EXIT_KEY", "q"),
		Headless:     getEnvAsBool("HEADLESS", false),

		SMTPEndpoint:   getEnv("SMTP_ENDPOINT", ""),
		SenderIdentity: getEnv("SMTP_SENDER", ""),
		Credential:     getEnv("SMTP_CREDENTIAL", ""),
		Recipient:      getEnv("SMTP_RECIPIENT", ""),
		MailSubject:    getEnv("MAIL_SUBJECT", "Face detected"),
		MailBody:       getEnv("MAIL_BODY", "Warning: Object detected!"),

		SoundAssetPath: getEnv("SOUND_ASSET_PATH", "police-operation-siren-144229.mp3"),
		SoundPlayer:    getEnv("SOUND_PLAYER", "ffplay -nodisp -autoexit -loglevel quiet"),

		FrameRetryLimit: getEnvAsInt("FRAME_RETRY_LIMIT", 10),
		FrameRetryDelay: getEnvAsDuration("FRAME_RETRY_DELAY_MS", 200*time.Millisecond),
		ShutdownTimeout: getEnvAsDuration("SHUTDOWN_TIMEOUT_MS", 30*time.Second),

		SnapshotDirectory:     getEnv("SNAPSHOT_DIR", filepath.Join(".", "snapshots")),
		SnapshotBufferLimit:   getEnvAsInt("SNAPSHOT_BUFFER_LIMIT", 7),
		SnapshotFlushInterval: getEnvAsInt("SNAPSHOT_FLUSH_INTERVAL", 30),

		DatabasePath: getEnv("DATABASE_PATH", filepath.Join(".", "data", "alerts.db")),
		MonitorAddr:  getEnv("MONITOR_ADDR", ""),
		MonitorToken: getEnv("MONITOR_TOKEN", ""),
		LogDirectory: getEnv("LOG_DIR", filepath.Join(".", "logs")),
	}
}

// Validate checks the settings the alert actions cannot run without.
func (c *Config) Validate() error {
	var missing []string
	if c.SMTPEndpoint == "" {
		missing = append(missing, "SMTP_ENDPOINT")
	}
	if c.SenderIdentity == "" {
		missing = append(missing, "SMTP_SENDER")
	}
	if c.Recipient == "" {
		missing = append(missing, "SMTP_RECIPIENT")
	}
	if len(missing) > 0 {
		return &MissingError{Keys: missing}
	}
	if len(c.ExitKey) != 1 {
		return errors.New("EXIT_KEY must be a single character")
	}
	return nil
}

// MissingError lists required settings that were left empty.
type MissingError struct {
	Keys []string
}

func (e *MissingError) Error() string {
	return ErrMailNotConfigured.Error() + ": missing " + strings.Join(e.Keys, ", ")
}

func (e *MissingError) Unwrap() error {
	return ErrMailNotConfigured
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func getEnvAsInt(key string, defaultValue int) int {
	if value := os.Getenv(key); value != "" {
		if intValue, err := strconv.Atoi(value); err == nil {
			return intValue
		}
	}
	return defaultValue
}

func getEnvAsBool(key string, defaultValue bool) bool {
	if value := os.Getenv(key); value != "" {
		if boolValue, err := strconv.ParseBool(value); err == nil {
			return boolValue
		}
	}
	return defaultValue
}

// getEnvAsDuration reads a millisecond count.
func getEnvAsDuration(key string, defaultValue time.Duration) time.Duration {
	if value := os.Getenv(key); value != "" {
		if ms, err := strconv.ParseInt(value, 10, 64); err == nil && ms >= 0 {
			return time.Duration(ms) * time.Millisecond
		}
	}
	return defaultValue
}
