package verify

import (
	"errors"
	"fmt"

	"github.com/mmr-tortoise/frontend-scaffold/internal/build"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// State is a step of the verification pipeline.
//
//	pending -> rendered -> dependencies_installed -> built -> verified
//	   |           |                 |                  |
//	render_failed  install_failed    build_failed       artifact_missing
type State string

const (
	StatePending               State = "pending"
	StateRendered              State = "rendered"
	StateDependenciesInstalled State = "dependencies_installed"
	StateBuilt                 State = "built"
	StateVerified              State = "verified"

	StateRenderFailed    State = "render_failed"
	StateInstallFailed   State = "install_failed"
	StateBuildFailed     State = "build_failed"
	StateArtifactMissing State = "artifact_missing"
)

// String returns the state name.
func (s State) String() string {
	return string(s)
}

// Failed reports whether s is one of the failure states.
func (s State) Failed() bool {
	switch s {
	case StateRenderFailed, StateInstallFailed, StateBuildFailed, StateArtifactMissing:
		return true
	}
	return false
}

// transitions lists the successor states of every non-terminal state: the
// success edge first, then the failure edge.
var transitions = map[State][2]State{
	StatePending:               {StateRendered, StateRenderFailed},
	StateRendered:              {StateDependenciesInstalled, StateInstallFailed},
	StateDependenciesInstalled: {StateBuilt, StateBuildFailed},
	StateBuilt:                 {StateVerified, StateArtifactMissing},
}

// canTransition reports whether from -> to is an edge of the pipeline.
func canTransition(from, to State) bool {
	next, ok := transitions[from]
	return ok && (next[0] == to || next[1] == to)
}

// Sentinel errors matching each failure state; StepError.Is maps to them.
var (
	ErrRenderFailed    = errors.New("render failed")
	ErrInstallFailed   = errors.New("dependency install failed")
	ErrBuildFailed     = errors.New("build failed")
	ErrArtifactMissing = errors.New("build artifact missing")
)

var sentinels = map[State]error{
	StateRenderFailed:    ErrRenderFailed,
	StateInstallFailed:   ErrInstallFailed,
	StateBuildFailed:     ErrBuildFailed,
	StateArtifactMissing: ErrArtifactMissing,
}

// StepError describes a pipeline that stopped in a failure state.
type StepError struct {
	// State is the failure state reached.
	State State

	// Point is the configuration being verified.
	Point model.ConfigurationPoint

	// Path is the offending path, when there is one (a missing artifact
	// directory, a dangling include).
	Path string

	// Result is the phase result for install and build failures.
	Result *build.Result

	// Err is the underlying cause.
	Err error
}

// Error implements the error interface.
func (e *StepError) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Point, e.State)
	if e.Result != nil {
		if e.Result.TimedOut {
			msg += fmt.Sprintf(" (%s timed out after %s)", e.Result.Phase, e.Result.Duration.Round(1e9))
		} else {
			msg += fmt.Sprintf(" (%s exited %d)", e.Result.Phase, e.Result.ExitCode)
		}
	}
	if e.Path != "" {
		msg += ": " + e.Path
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

// Unwrap returns the underlying cause.
func (e *StepError) Unwrap() error {
	return e.Err
}

// Is matches the sentinel of the failure state, so callers can write
// errors.Is(err, verify.ErrInstallFailed).
func (e *StepError) Is(target error) bool {
	return sentinels[e.State] == target
}
