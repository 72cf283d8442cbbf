package stack

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/rs/zerolog"
)

const stderrTailLimit = 2048

// CommandError reports a failed container orchestration command. The exit
// code is the only failure signal the CLI contract provides; the stderr
// tail is kept for the operator.
type CommandError struct {
	Op       string
	ExitCode int
	Stderr   string
}

func (e *CommandError) Error() string {
	if e.Stderr != "" {
		return fmt.Sprintf("compose %s: exit %d: %s", e.Op, e.ExitCode, e.Stderr)
	}
	return fmt.Sprintf("compose %s: exit %d", e.Op, e.ExitCode)
}

// ExecFunc runs the container CLI and returns its stdout. Injectable for
// tests; the default execs `docker` directly.
type ExecFunc func(ctx context.Context, args []string) (string, error)

// Runner drives the compose CLI against a single compose file.
type Runner struct {
	composeFile string
	logger      zerolog.Logger
	execCommand ExecFunc
}

// RunnerOption customizes Runner behavior.
type RunnerOption func(*Runner)

// WithExec overrides command execution.
func WithExec(fn ExecFunc) RunnerOption {
	return func(r *Runner) {
		r.execCommand = fn
	}
}

// NewRunner constructs a Runner for the given compose file.
func NewRunner(composeFile string, logger zerolog.Logger, opts ...RunnerOption) (*Runner, error) {
	if strings.TrimSpace(composeFile) == "" {
		return nil, errors.New("compose file must not be empty")
	}
	r := &Runner{
		composeFile: composeFile,
		logger:      logger,
		execCommand: defaultExec,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Build rebuilds the service images.
func (r *Runner) Build(ctx context.Context) error {
	_, err := r.compose(ctx, "build")
	return err
}

// Up starts the stack detached.
func (r *Runner) Up(ctx context.Context) error {
	_, err := r.compose(ctx, "up", "-d")
	return err
}

// Down stops and removes the stack containers.
func (r *Runner) Down(ctx context.Context) error {
	_, err := r.compose(ctx, "down")
	return err
}

// Restart stops the stack and brings it back up. The call blocks until
// both commands return.
func (r *Runner) Restart(ctx context.Context) error {
	if err := r.Down(ctx); err != nil {
		return err
	}
	return r.Up(ctx)
}

// Ps returns the compose status output for operator reporting.
func (r *Runner) Ps(ctx context.Context) (string, error) {
	return r.compose(ctx, "ps")
}

func (r *Runner) compose(ctx context.Context, verb string, extra ...string) (string, error) {
	args := append([]string{"compose", "-f", r.composeFile, verb}, extra...)

	r.logger.Debug().Strs("args", args).Msg("running compose command")
	out, err := r.execCommand(ctx, args)
	if err != nil {
		var cmdErr *CommandError
		if errors.As(err, &cmdErr) && cmdErr.Op == "" {
			cmdErr.Op = verb
		}
		return out, err
	}
	return out, nil
}

func defaultExec(ctx context.Context, args []string) (string, error) {
	cmd := exec.CommandContext(ctx, "docker", args...)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		exitCode := -1
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			exitCode = exitErr.ExitCode()
		}
		return stdout.String(), &CommandError{
			ExitCode: exitCode,
			Stderr:   tail(stderr.String(), stderrTailLimit),
		}
	}
	return stdout.String(), nil
}

func tail(s string, limit int) string {
	s = strings.TrimSpace(s)
	if len(s) <= limit {
		return s
	}
	return s[len(s)-limit:]
}
