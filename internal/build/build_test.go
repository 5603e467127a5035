package build

import (
	"context"
	"os"
	"path/filepath"
	"runtime"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/frontend-scaffold/internal/docker"
)

func skipWithoutShell(t *testing.T) {
	t.Helper()
	if runtime.GOOS == "windows" {
		t.Skip("requires a POSIX shell")
	}
}

func shellCommands(install, build string) Commands {
	return Commands{
		Install: []string{"sh", "-c", install},
		Build:   []string{"sh", "-c", build},
	}
}

func TestCommands_For(t *testing.T) {
	cmds := DefaultCommands()

	argv, err := cmds.For(PhaseInstall)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "install"}, argv)

	argv, err = cmds.For(PhaseBuild)
	require.NoError(t, err)
	assert.Equal(t, []string{"npm", "run", "build"}, argv)

	_, err = cmds.For("deploy")
	assert.Error(t, err)

	_, err = Commands{}.For(PhaseBuild)
	assert.Error(t, err)
}

func TestExecRunner_Success(t *testing.T) {
	skipWithoutShell(t)
	dir := t.TempDir()
	r := NewExecRunner(shellCommands("echo installed; echo warn >&2; touch marker", "true"), time.Minute)

	res, err := r.Run(context.Background(), PhaseInstall, dir)
	require.NoError(t, err)

	assert.True(t, res.Succeeded())
	assert.Equal(t, PhaseInstall, res.Phase)
	assert.Equal(t, "installed\n", res.Stdout)
	assert.Equal(t, "warn\n", res.Stderr)
	assert.FileExists(t, filepath.Join(dir, "marker"), "the command runs in the project directory")
}

// TestExecRunner_NonZeroExit verifies that a failing command is a result,
// not an error.
func TestExecRunner_NonZeroExit(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(shellCommands("true", "echo broken >&2; exit 3"), time.Minute)

	res, err := r.Run(context.Background(), PhaseBuild, t.TempDir())
	require.NoError(t, err)
	assert.False(t, res.Succeeded())
	assert.Equal(t, 3, res.ExitCode)
	assert.Equal(t, "broken\n", res.Stderr)
	assert.False(t, res.TimedOut)
}

func TestExecRunner_Timeout(t *testing.T) {
	skipWithoutShell(t)
	r := NewExecRunner(shellCommands("sleep 30", "true"), 200*time.Millisecond)

	start := time.Now()
	res, err := r.Run(context.Background(), PhaseInstall, t.TempDir())
	require.NoError(t, err)

	assert.True(t, res.TimedOut)
	assert.False(t, res.Succeeded())
	assert.Equal(t, -1, res.ExitCode)
	assert.Less(t, time.Since(start), 20*time.Second, "the process should be killed at the deadline")
}

func TestExecRunner_CallerCancelled(t *testing.T) {
	skipWithoutShell(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	r := NewExecRunner(shellCommands("sleep 30", "true"), time.Minute)

	res, err := r.Run(ctx, PhaseInstall, t.TempDir())
	assert.ErrorIs(t, err, context.Canceled)
	assert.False(t, res.TimedOut)
}

func TestExecRunner_MissingBinary(t *testing.T) {
	r := NewExecRunner(Commands{Install: []string{"definitely-not-a-binary-xyz"}}, time.Minute)

	_, err := r.Run(context.Background(), PhaseInstall, t.TempDir())
	assert.Error(t, err)
}

func TestNewExecRunner_DefaultTimeout(t *testing.T) {
	assert.Equal(t, DefaultTimeout, NewExecRunner(DefaultCommands(), 0).Timeout)
}

func TestCollectArtifacts(t *testing.T) {
	root := t.TempDir()
	assets := filepath.Join(root, "public", "static", "assets")
	require.NoError(t, os.MkdirAll(assets, 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(assets, "app-1234.js"), []byte("x"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(root, "public", "static", "manifest.json"), []byte("{}"), 0o644))

	paths, err := CollectArtifacts(root, "public/static")
	require.NoError(t, err)
	assert.Equal(t, []string{"public/static/assets/app-1234.js", "public/static/manifest.json"}, paths)

	none, err := CollectArtifacts(t.TempDir(), "public/static")
	require.NoError(t, err)
	assert.Empty(t, none)
}

// TestDockerRunner_Spec checks the container description without a daemon.
func TestDockerRunner_Spec(t *testing.T) {
	r := NewDockerRunner(nil, "", DefaultCommands(), 0)
	r.now = func() time.Time { return time.Date(2026, 10, 18, 0, 0, 0, 0, time.UTC) }

	spec := r.spec(PhaseBuild, []string{"npm", "run", "build"}, "/work/out/shop")

	assert.Equal(t, DefaultImage, spec.Image)
	assert.Equal(t, DefaultTimeout, r.Timeout)
	assert.Equal(t, "/work/out/shop", spec.HostDir)
	assert.Equal(t, []string{"npm", "run", "build"}, spec.Cmd)
	assert.Contains(t, spec.Env, "HOME=/tmp")

	labels, err := docker.ParseLabels(spec.Labels)
	require.NoError(t, err)
	assert.Equal(t, "shop", labels.Project)
	assert.Equal(t, "build", labels.Phase)
}
