// Package player starts external playback of a resolved song sequence.
package player

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"

	"github.com/chime-music/chime/internal/song"
)

// ErrNothingToPlay is returned when the sequence has no playable records.
var ErrNothingToPlay = errors.New("nothing to play")

// Player shells out to an mpv-compatible binary.
type Player struct {
	command string
}

// New creates a Player using the given binary, defaulting to mpv.
func New(command string) *Player {
	if command == "" {
		command = "mpv"
	}
	return &Player{command: command}
}

// Play runs the player over the sequence, starting at startIndex. It blocks
// until playback ends or ctx is cancelled.
func (p *Player) Play(ctx context.Context, songs []song.Record, startIndex int) error {
	if len(songs) == 0 {
		return ErrNothingToPlay
	}
	if startIndex < 0 || startIndex >= len(songs) {
		startIndex = 0
	}

	args := []string{
		"--no-video",
		fmt.Sprintf("--playlist-start=%d", startIndex),
	}
	for _, s := range songs {
		args = append(args, s.URL)
	}

	cmd := exec.CommandContext(ctx, p.command, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Stdin = os.Stdin

	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return ctx.Err()
		}
		return fmt.Errorf("run %s: %w", p.command, err)
	}
	return nil
}
