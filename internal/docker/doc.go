// Package docker provides Docker Engine API wrappers for the containerized
// build runner and the clean command.
//
// This package handles:
//   - Connecting to the daemon named by the standard Docker environment,
//     falling back to the local socket (Linux, macOS, Windows)
//   - Container labels recording which project and phase a container served
//   - Run-to-completion containers with a bind-mounted project directory
//   - Discovery of leftover build containers, parsing their labels, and
//     removal
//
// The package uses github.com/docker/docker/client as the underlying
// Docker SDK, with version negotiation enabled for broad compatibility.
package docker
