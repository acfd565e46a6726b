package gitconfig

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"
)

var (
	// ErrGitUnavailable indicates the git binary could not be started.
	ErrGitUnavailable = errors.New("git is not available")

	// ErrCommandFailed indicates git ran but exited non-zero.
	ErrCommandFailed = errors.New("git command failed")
)

// Runner executes git with the given arguments and returns its stdout.
type Runner interface {
	Run(ctx context.Context, args ...string) (string, error)
}

// CommandError describes a failed git invocation.
type CommandError struct {
	Args     []string
	ExitCode int // -1 when the process never started
	Stderr   string
	Err      error
}

func (e *CommandError) Error() string {
	msg := fmt.Sprintf("git %s failed", strings.Join(e.Args, " "))
	if e.Stderr != "" {
		msg = fmt.Sprintf("%s: %s", msg, e.Stderr)
	}
	if e.Err != nil {
		msg = fmt.Sprintf("%s: %v", msg, e.Err)
	}
	return msg
}

func (e *CommandError) Unwrap() error { return e.Err }

// ExecRunner runs a real git binary.
type ExecRunner struct {
	Binary string // defaults to "git"
}

// NewExecRunner returns a runner for binary, or "git" from PATH when empty.
func NewExecRunner(binary string) *ExecRunner {
	if binary == "" {
		binary = "git"
	}
	return &ExecRunner{Binary: binary}
}

// Run implements Runner.
func (r *ExecRunner) Run(ctx context.Context, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, r.Binary, args...)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		ce := &CommandError{
			Args:     args,
			ExitCode: -1,
			Stderr:   strings.TrimSpace(stderr.String()),
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			ce.ExitCode = exitErr.ExitCode()
			ce.Err = fmt.Errorf("%w: %v", ErrCommandFailed, err)
		} else {
			ce.Err = fmt.Errorf("%w: %v", ErrGitUnavailable, err)
		}
		return "", ce
	}
	return stdout.String(), nil
}
