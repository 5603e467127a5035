package build

import (
	"bytes"
	"context"
	"errors"
	"os"
	"os/exec"
	"time"
)

// waitDelay is how long Wait keeps the output pipes open after the process
// was killed. npm leaves grandchildren holding them otherwise.
const waitDelay = 5 * time.Second

// ExecRunner runs phases as host processes.
type ExecRunner struct {
	Commands Commands
	Timeout  time.Duration

	// Env holds extra KEY=VALUE pairs appended to the inherited environment.
	Env []string
}

// NewExecRunner returns a runner with the given commands and timeout. A
// non-positive timeout selects DefaultTimeout.
func NewExecRunner(cmds Commands, timeout time.Duration) *ExecRunner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &ExecRunner{Commands: cmds, Timeout: timeout}
}

// Run executes the phase command in dir and captures its output.
func (r *ExecRunner) Run(ctx context.Context, phase Phase, dir string) (Result, error) {
	argv, err := r.Commands.For(phase)
	if err != nil {
		return Result{}, err
	}
	result := Result{Phase: phase, Command: argv}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	cmd := exec.CommandContext(runCtx, argv[0], argv[1:]...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), r.Env...)
	cmd.WaitDelay = waitDelay
	killProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	start := time.Now()
	err = cmd.Run()
	result.Duration = time.Since(start)
	result.Stdout = stdout.String()
	result.Stderr = stderr.String()

	switch {
	case ctx.Err() != nil:
		// The caller gave up; that is not a phase outcome.
		result.ExitCode = -1
		return result, ctx.Err()
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		result.ExitCode = -1
		result.TimedOut = true
		return result, nil
	case err == nil:
		return result, nil
	}

	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		result.ExitCode = exitErr.ExitCode()
		return result, nil
	}
	result.ExitCode = -1
	return result, err
}
