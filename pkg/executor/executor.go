package executor

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/thedavidhackett/draft-two/internal/apperr"
)

// maxStderr bounds how much of a failing tool's stderr ends up in the error.
const maxStderr = 2048

var installHints = map[string]string{
	"ffmpeg": "Install ffmpeg (https://ffmpeg.org) and make sure it is on your PATH",
	"yt-dlp": "Install yt-dlp (pip install yt-dlp) and make sure it is on your PATH",
}

type implExecutor struct{}

// New creates a new Executor instance
func New() Executor {
	return &implExecutor{}
}

// Execute runs an external command with the given arguments
func (e *implExecutor) Execute(ctx context.Context, name string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, name, args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return "", notInstalled(name, err)
		}
		if ctx.Err() != nil {
			return "", ctx.Err()
		}
		// Include stderr in error message for debugging
		stderrStr := tail(strings.TrimSpace(stderr.String()), maxStderr)
		if stderrStr != "" {
			return "", fmt.Errorf("command '%s' failed: %w\nstderr: %s", name, err, stderrStr)
		}
		return "", fmt.Errorf("command '%s' failed: %w", name, err)
	}

	return stdout.String(), nil
}

func notInstalled(name string, err error) error {
	hint, ok := installHints[name]
	if !ok {
		hint = fmt.Sprintf("Install %s or set its path in the config file", name)
	}
	return apperr.Newf(apperr.CodeNotFound, "%s is not installed or not in PATH", name).
		WithCause(err).WithHint(hint)
}

func tail(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return "..." + s[len(s)-n:]
}
