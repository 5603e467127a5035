package docker

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"
	"github.com/docker/docker/api/types/image"
	"github.com/docker/docker/api/types/mount"
	"github.com/docker/docker/pkg/stdcopy"
)

// WorkspaceDir is where the project directory is mounted inside a container.
const WorkspaceDir = "/workspace"

// cleanupTimeout bounds the kill/logs/remove calls issued after the caller's
// context has already expired.
const cleanupTimeout = 30 * time.Second

// RunSpec describes a run-to-completion container.
type RunSpec struct {
	// Image is the image reference, pulled when not present locally.
	Image string

	// Cmd is the command executed in WorkspaceDir.
	Cmd []string

	// HostDir is the absolute host directory bind-mounted at WorkspaceDir.
	HostDir string

	// User runs the command as "uid:gid" so files written to the bind
	// mount stay owned by the caller. Empty keeps the image default.
	User string

	// Env holds KEY=VALUE pairs.
	Env []string

	// Labels are attached to the container.
	Labels map[string]string
}

// RunResult is the outcome of a container run. A non-zero ExitCode is a
// result, not an error.
type RunResult struct {
	ExitCode int
	Stdout   string
	Stderr   string

	// TimedOut is set when ctx expired before the container exited; the
	// container was killed and ExitCode is -1.
	TimedOut bool
}

// Run creates a container from spec, starts it, waits for it to exit or for
// ctx to end, collects its output and removes it. The returned error covers
// daemon failures only.
func Run(ctx context.Context, cli *Client, spec RunSpec) (RunResult, error) {
	if err := EnsureImage(ctx, cli, spec.Image); err != nil {
		return RunResult{}, err
	}

	created, err := cli.Inner().ContainerCreate(ctx,
		&container.Config{
			Image:      spec.Image,
			Cmd:        spec.Cmd,
			WorkingDir: WorkspaceDir,
			User:       spec.User,
			Env:        spec.Env,
			Labels:     spec.Labels,
		},
		&container.HostConfig{
			Mounts: []mount.Mount{{
				Type:   mount.TypeBind,
				Source: spec.HostDir,
				Target: WorkspaceDir,
			}},
		},
		nil, nil, "")
	if err != nil {
		return RunResult{}, fmt.Errorf("failed to create container from %s: %w", spec.Image, err)
	}

	// The caller's ctx may be gone by now, so cleanup gets its own.
	defer func() {
		rmCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
		defer cancel()
		_ = RemoveContainer(rmCtx, cli, created.ID)
	}()

	if err := cli.Inner().ContainerStart(ctx, created.ID, container.StartOptions{}); err != nil {
		return RunResult{}, fmt.Errorf("failed to start container %s: %w", shortID(created.ID), err)
	}

	result := RunResult{ExitCode: -1}
	statusCh, errCh := cli.Inner().ContainerWait(ctx, created.ID, container.WaitConditionNotRunning)
	select {
	case status := <-statusCh:
		result.ExitCode = int(status.StatusCode)
	case err := <-errCh:
		if ctx.Err() == nil {
			return RunResult{}, fmt.Errorf("failed waiting for container %s: %w", shortID(created.ID), err)
		}
		result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	case <-ctx.Done():
		result.TimedOut = errors.Is(ctx.Err(), context.DeadlineExceeded)
	}

	cleanupCtx, cancel := context.WithTimeout(context.Background(), cleanupTimeout)
	defer cancel()

	if ctx.Err() != nil {
		_ = cli.Inner().ContainerKill(cleanupCtx, created.ID, "KILL")
	}

	stdout, stderr, err := collectLogs(cleanupCtx, cli, created.ID)
	if err != nil {
		return result, err
	}
	result.Stdout = stdout
	result.Stderr = stderr

	if ctx.Err() != nil && !result.TimedOut {
		return result, ctx.Err()
	}
	return result, nil
}

// collectLogs reads the container's demultiplexed stdout and stderr.
func collectLogs(ctx context.Context, cli *Client, id string) (string, string, error) {
	rc, err := cli.Inner().ContainerLogs(ctx, id, container.LogsOptions{
		ShowStdout: true,
		ShowStderr: true,
	})
	if err != nil {
		return "", "", fmt.Errorf("failed to read logs of container %s: %w", shortID(id), err)
	}
	defer rc.Close()

	var stdout, stderr bytes.Buffer
	if _, err := stdcopy.StdCopy(&stdout, &stderr, rc); err != nil {
		return stdout.String(), stderr.String(), fmt.Errorf("failed to demultiplex logs of container %s: %w", shortID(id), err)
	}
	return stdout.String(), stderr.String(), nil
}

// EnsureImage pulls ref unless an image with that reference is already
// present locally.
func EnsureImage(ctx context.Context, cli *Client, ref string) error {
	images, err := cli.Inner().ImageList(ctx, image.ListOptions{
		Filters: filters.NewArgs(filters.Arg("reference", ref)),
	})
	if err != nil {
		return fmt.Errorf("failed to look up image %s: %w", ref, err)
	}
	if len(images) > 0 {
		return nil
	}

	rc, err := cli.Inner().ImagePull(ctx, ref, image.PullOptions{})
	if err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	defer rc.Close()

	// The pull only completes once the progress stream is drained.
	if _, err := io.Copy(io.Discard, rc); err != nil {
		return fmt.Errorf("failed to pull image %s: %w", ref, err)
	}
	return nil
}
