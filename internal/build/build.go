// Package build runs the external phases of the verification pipeline
// (dependency install and production build) against a rendered project.
//
// A runner executes one phase synchronously under a timeout and reports a
// structured Result. A non-zero exit code or a timeout is a result, not an
// error: the returned error is reserved for failures to run the phase at all
// (binary missing, Docker unreachable, caller cancelled).
package build

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// DefaultTimeout bounds each phase.
const DefaultTimeout = 300 * time.Second

// Phase names an external pipeline step.
type Phase string

const (
	PhaseInstall Phase = "install"
	PhaseBuild   Phase = "build"
)

// String returns the phase name.
func (p Phase) String() string {
	return string(p)
}

// Commands holds the argv run for each phase.
type Commands struct {
	Install []string `json:"install" yaml:"install"`
	Build   []string `json:"build" yaml:"build"`
}

// DefaultCommands runs npm.
func DefaultCommands() Commands {
	return Commands{
		Install: []string{"npm", "install"},
		Build:   []string{"npm", "run", "build"},
	}
}

// For returns the argv for phase.
func (c Commands) For(phase Phase) ([]string, error) {
	var argv []string
	switch phase {
	case PhaseInstall:
		argv = c.Install
	case PhaseBuild:
		argv = c.Build
	default:
		return nil, fmt.Errorf("unknown build phase %q", phase)
	}
	if len(argv) == 0 {
		return nil, fmt.Errorf("no command configured for phase %s", phase)
	}
	return argv, nil
}

// Result is the outcome of one phase.
type Result struct {
	Phase    Phase         `json:"phase" yaml:"phase"`
	Command  []string      `json:"command" yaml:"command"`
	ExitCode int           `json:"exit_code" yaml:"exit_code"`
	Stdout   string        `json:"stdout,omitempty" yaml:"stdout,omitempty"`
	Stderr   string        `json:"stderr,omitempty" yaml:"stderr,omitempty"`
	Duration time.Duration `json:"duration" yaml:"duration"`

	// TimedOut is set when the phase exceeded its timeout and was killed.
	TimedOut bool `json:"timed_out,omitempty" yaml:"timed_out,omitempty"`

	// ProducedArtifactPaths lists the files below the static output
	// directory after a build, relative to the project root.
	ProducedArtifactPaths []string `json:"produced_artifact_paths,omitempty" yaml:"produced_artifact_paths,omitempty"`
}

// Succeeded reports whether the phase exited 0 within its timeout.
func (r Result) Succeeded() bool {
	return !r.TimedOut && r.ExitCode == 0
}

// Runner executes a phase in a project directory.
type Runner interface {
	Run(ctx context.Context, phase Phase, dir string) (Result, error)
}

// CollectArtifacts lists the regular files below root/staticDir, relative to
// root, slash-separated and sorted. A missing directory yields no paths.
func CollectArtifacts(root, staticDir string) ([]string, error) {
	base := filepath.Join(root, filepath.FromSlash(staticDir))
	if _, err := os.Stat(base); os.IsNotExist(err) {
		return nil, nil
	}

	var paths []string
	err := filepath.WalkDir(base, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.Type().IsRegular() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		paths = append(paths, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list artifacts in %s: %w", base, err)
	}
	sort.Strings(paths)
	return paths, nil
}
