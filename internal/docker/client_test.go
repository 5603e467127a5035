package docker

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// TestClient_UnreachableDaemon points DOCKER_HOST at a closed port: the
// client is created, and Ping reports the daemon as not running.
func TestClient_UnreachableDaemon(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:1")
	t.Setenv("DOCKER_TLS_VERIFY", "")
	t.Setenv("DOCKER_CERT_PATH", "")

	c, err := NewClient()
	require.NoError(t, err)
	defer func() { _ = c.Close() }()
	assert.Equal(t, "tcp://127.0.0.1:1", c.Inner().DaemonHost())

	err = c.Ping(context.Background())
	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitDockerNotRunning, cliErr.Code)
}

func TestClient_CloseTwice(t *testing.T) {
	t.Setenv("DOCKER_HOST", "tcp://127.0.0.1:1")

	c, err := NewClient()
	require.NoError(t, err)
	assert.NoError(t, c.Close())
	assert.NoError(t, c.Close())

	assert.NoError(t, (&Client{}).Close())
}
