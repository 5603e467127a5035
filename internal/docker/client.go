package docker

import (
	"context"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/docker/docker/client"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// pingTimeout bounds the reachability check made before the first phase
// container starts. Docker Desktop can be slow to answer after a wake-up.
const pingTimeout = 5 * time.Second

// Client is the daemon connection shared by the docker build runner and the
// clean command. Every failure to reach the daemon surfaces as a CLIError
// with ExitDockerNotRunning, so "verify --builder docker" and "clean" report
// a missing daemon the same way.
type Client struct {
	inner *client.Client
}

// NewClient connects to the daemon named by the standard Docker environment
// (DOCKER_HOST, DOCKER_TLS_VERIFY, DOCKER_CERT_PATH, DOCKER_API_VERSION).
// Without DOCKER_HOST the local socket of the platform is probed. The API
// version is negotiated on first use.
func NewClient() (*Client, error) {
	opts := []client.Opt{client.FromEnv, client.WithAPIVersionNegotiation()}

	if os.Getenv(client.EnvOverrideHost) == "" {
		host, err := localSocket()
		if err != nil {
			return nil, model.WrapCLIError(model.ExitDockerNotRunning, "Docker socket not found", err)
		}
		opts = append(opts, client.WithHost(host))
	}

	c, err := client.NewClientWithOpts(opts...)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitDockerNotRunning, "failed to create Docker client", err)
	}
	return &Client{inner: c}, nil
}

// localSocket returns the host URI of the first local daemon endpoint that
// exists. It does not check that the daemon answers; Ping does.
func localSocket() (string, error) {
	switch runtime.GOOS {
	case "windows":
		// Named pipes cannot be stat'ed; a short dial tells whether one listens.
		const pipe = `//./pipe/docker_engine`
		conn, err := net.DialTimeout("pipe", pipe, time.Second)
		if err != nil {
			return "", fmt.Errorf("no Docker named pipe at %s: %w", pipe, err)
		}
		_ = conn.Close()
		return "npipe://" + pipe, nil

	case "linux", "darwin":
		candidates := []string{"/var/run/docker.sock"}
		if home, err := os.UserHomeDir(); err == nil {
			// Docker Desktop (macOS, and Linux with Desktop) and rootless
			// setups keep a per-user socket.
			candidates = append(candidates, filepath.Join(home, ".docker", "run", "docker.sock"))
		}
		if dir := os.Getenv("XDG_RUNTIME_DIR"); dir != "" {
			candidates = append(candidates, filepath.Join(dir, "docker.sock"))
		}
		for _, path := range candidates {
			if _, err := os.Stat(path); err == nil {
				return "unix://" + path, nil
			}
		}
		return "", fmt.Errorf("no Docker socket at %v (is Docker running?)", candidates)

	default:
		return "", fmt.Errorf("unsupported platform %s", runtime.GOOS)
	}
}

// Ping checks that the daemon answers within pingTimeout.
func (c *Client) Ping(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if _, err := c.inner.Ping(ctx); err != nil {
		return model.WrapCLIError(model.ExitDockerNotRunning, "Docker daemon is not responding (is Docker running?)", err)
	}
	return nil
}

// Close releases the connection. It may be called more than once.
func (c *Client) Close() error {
	if c.inner == nil {
		return nil
	}
	return c.inner.Close()
}

// Inner exposes the SDK client to the container helpers of this package.
func (c *Client) Inner() *client.Client {
	return c.inner
}
