package alarm

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"

	"facealarm/internal/logger"
)

const ActionName = "play-alarm"

var ErrNoPlayer = errors.New("no sound player command configured")

// Player plays the alarm sound through an external audio player process.
type Player struct {
	soundPath string
	command   []string
	logger    *logger.Logger

	// run executes the player. Replaced in tests.
	run func(ctx context.Context, name string, args ...string) error
}

// NewPlayer creates a Player. command is split on whitespace and the sound
// path is appended as the last argument.
func NewPlayer(soundPath, command string, logger *logger.Logger) *Player {
	return &Player{
		soundPath: soundPath,
		command:   strings.Fields(command),
		logger:    logger,
		run:       runCommand,
	}
}

func (p *Player) Name() string {
	return ActionName
}

// Run plays the sound asset and blocks until playback ends.
func (p *Player) Run(ctx context.Context) error {
	if len(p.command) == 0 {
		return ErrNoPlayer
	}
	if _, err := os.Stat(p.soundPath); err != nil {
		return fmt.Errorf("sound asset %s: %w", p.soundPath, err)
	}

	args := append(append([]string{}, p.command[1:]...), p.soundPath)
	p.logger.Info("🔊 Playing alarm %s", p.soundPath)

	if err := p.run(ctx, p.command[0], args...); err != nil {
		return fmt.Errorf("play %s: %w", p.soundPath, err)
	}

	p.logger.Info("Object detection alarm end")
	return nil
}

func runCommand(ctx context.Context, name string, args ...string) error {
	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, name, args...)
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return fmt.Errorf("%w: %s", err, msg)
		}
		return err
	}
	return nil
}
