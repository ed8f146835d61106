package discover

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
)

// Source yields the kernel log text to scan.
// The two implementations cover the live ring buffer and a saved log file.
type Source interface {
	ReadLog(ctx context.Context) ([]byte, error)
}

// KlogSource reads the current kernel ring buffer by invoking the external
// log reader as a blocking child process.
type KlogSource struct {
	// Command is the log reader binary. Empty means "dmesg".
	Command string
}

// ReadLog runs the log reader and returns its full output.
func (s *KlogSource) ReadLog(ctx context.Context) ([]byte, error) {
	command := s.Command
	if command == "" {
		command = "dmesg"
	}

	out, err := exec.CommandContext(ctx, command).Output()
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) && len(exitErr.Stderr) > 0 {
			return nil, fmt.Errorf("%s: %w: %s", command, err, exitErr.Stderr)
		}
		return nil, fmt.Errorf("%s: %w", command, err)
	}
	return out, nil
}

// FileSource reads kernel log lines from a saved file, typically a boot
// log captured before the ring buffer rotated.
type FileSource struct {
	Path string
}

// ReadLog returns the file contents.
func (s *FileSource) ReadLog(_ context.Context) ([]byte, error) {
	data, err := os.ReadFile(s.Path)
	if err != nil {
		return nil, fmt.Errorf("cannot read kernel log file: %w", err)
	}
	return data, nil
}
