// Package verify drives a configuration point through render, dependency
// install, production build and artifact check, and runs that pipeline
// over many points in parallel.
//
// Each pipeline is strictly sequential and never retried. Pipelines for
// different points share nothing but the output parent directory: every point
// renders into its own <output>/<slug> tree, so one failing point cannot
// affect another.
package verify

import (
	"context"
	"errors"
	"fmt"
	"os"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/mmr-tortoise/frontend-scaffold/internal/build"
	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/render"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
)

// DefaultStaticDir is the build output directory, relative to the project.
const DefaultStaticDir = "public/static"

// Config controls a verifier.
type Config struct {
	// OutputDir is the parent of every rendered project tree.
	OutputDir string

	// StaticDir is where the build writes its output, relative to the
	// project root. Defaults to DefaultStaticDir.
	StaticDir string

	// ProjectName is passed to the renderer.
	ProjectName string

	// Parallel bounds concurrent pipelines in Matrix. Zero or less runs
	// one pipeline per point.
	Parallel int

	// Keep leaves project trees on disk after verification.
	Keep bool
}

// Report is the outcome of one pipeline.
type Report struct {
	Point model.ConfigurationPoint `json:"point" yaml:"point"`
	State State                    `json:"state" yaml:"state"`

	// History lists every state the pipeline passed through, starting with
	// pending.
	History []State `json:"history" yaml:"history"`

	// Root is the rendered project directory ("" if nothing was rendered).
	Root string `json:"root,omitempty" yaml:"root,omitempty"`

	// Results holds the install and build results that were produced.
	Results []build.Result `json:"results,omitempty" yaml:"results,omitempty"`

	Duration time.Duration `json:"duration" yaml:"duration"`

	// Err is a *StepError when State is a failure state.
	Err error `json:"-" yaml:"-"`

	// Error is Err's message, for machine-readable output.
	Error string `json:"error,omitempty" yaml:"error,omitempty"`
}

// OK reports whether the pipeline reached verified.
func (r *Report) OK() bool {
	return r.State == StateVerified
}

// Verifier runs pipelines. It is safe for concurrent use as long as its
// collaborators are.
type Verifier struct {
	planner  resolver.Planner
	renderer render.Renderer
	runner   build.Runner
	cfg      Config

	// Logf receives progress lines. Nil discards them.
	Logf func(format string, args ...any)
}

// New returns a verifier. The planner, renderer and runner are the render
// and build functions of the pipeline; tests substitute fakes.
func New(planner resolver.Planner, renderer render.Renderer, runner build.Runner, cfg Config) *Verifier {
	if cfg.StaticDir == "" {
		cfg.StaticDir = DefaultStaticDir
	}
	return &Verifier{planner: planner, renderer: renderer, runner: runner, cfg: cfg}
}

func (v *Verifier) logf(format string, args ...any) {
	if v.Logf != nil {
		v.Logf(format, args...)
	}
}

// pipeline tracks one run through the state machine.
type pipeline struct {
	v      *Verifier
	report *Report
}

// advance moves the pipeline to state. An illegal edge is a programming
// error in this package.
func (pl *pipeline) advance(to State) {
	from := pl.report.State
	if !canTransition(from, to) {
		panic(fmt.Sprintf("verify: illegal transition %s -> %s", from, to))
	}
	pl.report.State = to
	pl.report.History = append(pl.report.History, to)
	pl.v.logf("%s: %s -> %s", pl.report.Point, from, to)
}

// fail moves the pipeline to a failure state and records the error.
func (pl *pipeline) fail(to State, path string, result *build.Result, cause error) {
	pl.advance(to)
	err := &StepError{State: to, Point: pl.report.Point, Path: path, Result: result, Err: cause}
	pl.report.Err = err
	pl.report.Error = err.Error()
}

// Verify runs the full pipeline for p and returns its report. Failures are
// reported, never returned as errors; if ctx ends mid-pipeline the current
// phase fails with the context error as cause.
func (v *Verifier) Verify(ctx context.Context, p model.ConfigurationPoint) (report Report) {
	start := time.Now()
	report = Report{Point: p, State: StatePending, History: []State{StatePending}}
	pl := &pipeline{v: v, report: &report}
	defer func() { report.Duration = time.Since(start) }()

	// pending -> rendered
	plan, err := v.planner.Resolve(p)
	if err != nil {
		pl.fail(StateRenderFailed, "", nil, err)
		return report
	}
	tree, err := v.renderer.Render(ctx, render.Request{Plan: plan, OutputDir: v.cfg.OutputDir, ProjectName: v.cfg.ProjectName})
	if err != nil {
		var dangling *model.DanglingIncludeError
		path := ""
		if errors.As(err, &dangling) {
			path = dangling.Source
		}
		pl.fail(StateRenderFailed, path, nil, err)
		return report
	}
	report.Root = tree.Root
	pl.advance(StateRendered)
	if !v.cfg.Keep {
		defer func() {
			if err := os.RemoveAll(tree.Root); err != nil {
				v.logf("%s: failed to remove %s: %v", p, tree.Root, err)
			}
		}()
	}

	// rendered -> dependencies_installed
	if !v.runPhase(ctx, pl, build.PhaseInstall, tree.Root, StateDependenciesInstalled, StateInstallFailed) {
		return report
	}

	// dependencies_installed -> built
	if !v.runPhase(ctx, pl, build.PhaseBuild, tree.Root, StateBuilt, StateBuildFailed) {
		return report
	}

	// built -> verified
	artifacts, err := build.CollectArtifacts(tree.Root, v.cfg.StaticDir)
	if err == nil {
		last := &report.Results[len(report.Results)-1]
		last.ProducedArtifactPaths = artifacts
	}
	if path, err := CheckArtifacts(tree.Root, v.cfg.StaticDir); err != nil {
		pl.fail(StateArtifactMissing, path, nil, err)
		return report
	}
	pl.advance(StateVerified)
	return report
}

// runPhase executes one external phase and advances to ok or failed.
func (v *Verifier) runPhase(ctx context.Context, pl *pipeline, phase build.Phase, dir string, ok, failed State) bool {
	v.logf("%s: running %s", pl.report.Point, phase)
	res, err := v.runner.Run(ctx, phase, dir)
	pl.report.Results = append(pl.report.Results, res)

	switch {
	case err != nil:
		pl.fail(failed, "", &res, err)
		return false
	case !res.Succeeded():
		pl.fail(failed, "", &res, nil)
		return false
	}
	pl.advance(ok)
	return true
}

// Matrix verifies every point, at most cfg.Parallel at a time, and returns
// the reports in the order of points. Every point must be valid in the
// option catalog and have a distinct slug, so that no two pipelines share a
// working directory; otherwise no pipeline starts.
func (v *Verifier) Matrix(ctx context.Context, points []model.ConfigurationPoint) ([]Report, error) {
	cat := catalog.Default()
	seen := make(map[string]bool, len(points))
	for _, p := range points {
		if _, err := cat.Point(p.ProjectSlug, p.Style.String(), p.JavaScript.String()); err != nil {
			return nil, err
		}
		if seen[p.ProjectSlug] {
			return nil, fmt.Errorf("matrix has two points with slug %q; pipelines would share %s", p.ProjectSlug, p.ProjectSlug)
		}
		seen[p.ProjectSlug] = true
	}

	reports := make([]Report, len(points))
	var g errgroup.Group
	if v.cfg.Parallel > 0 {
		g.SetLimit(v.cfg.Parallel)
	}
	for i, p := range points {
		g.Go(func() error {
			reports[i] = v.Verify(ctx, p)
			return nil
		})
	}
	// Pipelines report failures in their Report; Wait has nothing to return.
	_ = g.Wait()
	return reports, nil
}

// Summary counts reports by final state.
func Summary(reports []Report) map[State]int {
	out := make(map[State]int)
	for _, r := range reports {
		out[r.State]++
	}
	return out
}

// FirstFailure returns the error of the first failed report, or nil.
func FirstFailure(reports []Report) error {
	for _, r := range reports {
		if !r.OK() {
			return r.Err
		}
	}
	return nil
}
