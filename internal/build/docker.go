package build

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/mmr-tortoise/frontend-scaffold/internal/docker"
)

// DefaultImage is the Node image phases run in.
const DefaultImage = "node:22-bookworm-slim"

// DockerRunner runs phases inside a throwaway container with the project
// bind-mounted, so the host needs Docker but no Node toolchain.
type DockerRunner struct {
	Client   *docker.Client
	Image    string
	Commands Commands
	Timeout  time.Duration

	// now is replaced in tests.
	now func() time.Time
}

// NewDockerRunner returns a runner using cli. Empty image and non-positive
// timeout select the defaults.
func NewDockerRunner(cli *docker.Client, image string, cmds Commands, timeout time.Duration) *DockerRunner {
	if image == "" {
		image = DefaultImage
	}
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	return &DockerRunner{Client: cli, Image: image, Commands: cmds, Timeout: timeout, now: time.Now}
}

// Run executes the phase command in a fresh container.
func (r *DockerRunner) Run(ctx context.Context, phase Phase, dir string) (Result, error) {
	argv, err := r.Commands.For(phase)
	if err != nil {
		return Result{}, err
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return Result{}, fmt.Errorf("failed to resolve %s: %w", dir, err)
	}

	runCtx, cancel := context.WithTimeout(ctx, r.Timeout)
	defer cancel()

	start := time.Now()
	out, err := docker.Run(runCtx, r.Client, r.spec(phase, argv, abs))
	result := Result{
		Phase:    phase,
		Command:  argv,
		ExitCode: out.ExitCode,
		Stdout:   out.Stdout,
		Stderr:   out.Stderr,
		Duration: time.Since(start),
		TimedOut: out.TimedOut,
	}
	if err != nil {
		return result, err
	}
	if result.TimedOut && ctx.Err() != nil {
		// The caller's deadline, not ours.
		result.TimedOut = false
		return result, ctx.Err()
	}
	return result, nil
}

func (r *DockerRunner) spec(phase Phase, argv []string, dir string) docker.RunSpec {
	return docker.RunSpec{
		Image:   r.Image,
		Cmd:     argv,
		HostDir: dir,
		User:    hostUser(),
		// npm needs a writable HOME when running as an arbitrary uid.
		Env: []string{"HOME=/tmp", "npm_config_cache=/tmp/.npm", "npm_config_update_notifier=false"},
		Labels: docker.BuildLabels(docker.RunLabels{
			Project:   filepath.Base(dir),
			Phase:     phase.String(),
			Workdir:   dir,
			CreatedAt: r.now(),
		}),
	}
}

// hostUser returns "uid:gid" on Linux, where bind-mounted files keep the
// container's ownership. Docker Desktop remaps ownership elsewhere.
func hostUser() string {
	if runtime.GOOS != "linux" {
		return ""
	}
	return fmt.Sprintf("%d:%d", os.Getuid(), os.Getgid())
}
