package executor

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"

	"github.com/wolfrage76/dusk-manager/internal/logger"
)

// Runner executes an external command line and returns its trimmed stdout.
// Ordinary command failure is a returned error, never a panic; callers
// treat any non-nil error as "this step could not complete".
type Runner interface {
	Run(ctx context.Context, commandLine string) (string, error)
}

// ExitError carries the exit code and stderr of a failed command.
type ExitError struct {
	Code   int
	Stderr string
}

func (e *ExitError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("command exited with code %d: %s", e.Code, e.Stderr)
	}
	return fmt.Sprintf("command exited with code %d", e.Code)
}

// Shell runs command lines through `sh -c`. A non-empty secret is masked
// in every log line the executor emits.
type Shell struct {
	secret string
}

func NewShell(secret string) *Shell {
	return &Shell{secret: secret}
}

// Run executes commandLine, waits for completion, and returns trimmed
// stdout on success. On non-zero exit it returns an *ExitError with the
// exit code and trimmed stderr.
//
// Launch is gated on ctx: a cancelled context refuses to start the
// command. Once launched, the command always runs to completion; wallet
// commands move funds and are not safe to kill mid-write.
func (s *Shell) Run(ctx context.Context, commandLine string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	logger.Debug("EXEC", "Running: %s", Redact(commandLine, s.secret))

	cmd := exec.Command("sh", "-c", commandLine)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		if exitErr, ok := err.(*exec.ExitError); ok {
			logger.Error("EXEC", "Command failed (code %d): %s", exitErr.ExitCode(), Redact(commandLine, s.secret))
			return "", &ExitError{Code: exitErr.ExitCode(), Stderr: Redact(stderrStr, s.secret)}
		}
		logger.Error("EXEC", "Failed to launch: %s: %v", Redact(commandLine, s.secret), err)
		return "", err
	}

	return strings.TrimSpace(stdout.String()), nil
}

// Redact masks secret wherever it appears in s. Used on command lines and
// stderr before they reach logs or notifications.
func Redact(s, secret string) string {
	if secret == "" {
		return s
	}
	return strings.ReplaceAll(s, secret, "#######")
}
