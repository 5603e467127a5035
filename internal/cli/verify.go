// Package cli: verify.go implements the "frontend-scaffold verify" command.
//
// The verify command runs the composition verifier: every selected
// configuration point is rendered into its own directory, its dependencies
// are installed, it is built, and the build output is checked. Pipelines run
// in parallel; the command fails if any point does not reach "verified".
package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/build"
	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/config"
	"github.com/mmr-tortoise/frontend-scaffold/internal/docker"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/render"
	"github.com/mmr-tortoise/frontend-scaffold/internal/verify"
)

// Matrix selections accepted by --matrix.
const (
	matrixFull   = "full"
	matrixSample = "sample"
	matrixSingle = "single"
)

// verifyFlags holds the flag values for the verify command.
type verifyFlags struct {
	matrix   string        // --matrix: full, sample or single
	style    string        // --style: style for --matrix single
	js       string        // --js: JavaScript framework for --matrix single
	prefix   string        // --prefix: slug prefix for generated points
	builder  string        // --builder: exec or docker
	output   string        // --output: parent of the project trees
	timeout  time.Duration // --timeout: per-phase timeout
	parallel int           // --parallel: concurrent pipelines
	keep     bool          // --keep: leave project trees on disk
}

// NewVerifyCommand creates the "verify" cobra command.
func NewVerifyCommand() *cobra.Command {
	flags := &verifyFlags{}

	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Render, install and build configurations to prove they work",
		Long: `Run the composition verifier over a set of configuration points.

Each point goes through render, dependency install, production build and an
artifact check. Install and build run "npm install" and "npm run build" on the
host (--builder exec) or inside a Node container (--builder docker).

Examples:
  frontend-scaffold verify
  frontend-scaffold verify --matrix sample --parallel 3
  frontend-scaffold verify --matrix single --style daisy --js htmx_alpine --keep
  frontend-scaffold verify --builder docker --timeout 10m`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			applyVerifyFlags(cmd, flags, currentConfig())
			return runVerify(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.matrix, "matrix", matrixFull, "Points to verify: full, sample, single")
	cmd.Flags().StringVar(&flags.style, "style", "", "Styling framework for --matrix single")
	cmd.Flags().StringVar(&flags.js, "js", "", "JavaScript framework for --matrix single")
	cmd.Flags().StringVar(&flags.prefix, "prefix", "verify", "Slug prefix for generated projects")
	cmd.Flags().StringVar(&flags.builder, "builder", "", "Build runner: exec, docker (default: configured builder)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Parent directory of project trees (default: a temporary directory)")
	cmd.Flags().DurationVar(&flags.timeout, "timeout", 0, "Timeout per install/build phase (default: configured timeout)")
	cmd.Flags().IntVar(&flags.parallel, "parallel", 0, "Concurrent pipelines, 0 for one per point (default: configured parallel)")
	cmd.Flags().BoolVar(&flags.keep, "keep", false, "Keep project trees after verification")

	return cmd
}

// applyVerifyFlags fills unset flags from the configuration.
func applyVerifyFlags(cmd *cobra.Command, flags *verifyFlags, cfg *config.Config) {
	if flags.builder == "" {
		flags.builder = string(cfg.Builder)
	}
	if !cmd.Flags().Changed("timeout") {
		flags.timeout = cfg.Timeout
	}
	if !cmd.Flags().Changed("parallel") {
		flags.parallel = cfg.Parallel
	}
}

func runVerify(ctx context.Context, w io.Writer, flags *verifyFlags) error {
	cfg := currentConfig()

	// Step 1: Select points.
	points, err := selectPoints(catalog.Default(), flags, cfg)
	if err != nil {
		return err
	}
	VerboseLog("Verifying %d configuration points", len(points))

	// Step 2: Pick the runner.
	runner, closeRunner, err := newRunner(ctx, flags, cfg)
	if err != nil {
		return err
	}
	defer closeRunner()

	// Step 3: Prepare the output directory.
	outputDir := flags.output
	if outputDir == "" {
		outputDir, err = os.MkdirTemp("", "frontend-scaffold-verify-")
		if err != nil {
			return model.WrapCLIError(model.ExitGeneralError, "failed to create working directory", err)
		}
		if !flags.keep {
			defer func() { _ = os.RemoveAll(outputDir) }()
		}
	}
	VerboseLog("Working directory: %s", outputDir)

	// Step 4: Run the matrix.
	_, planner, err := newPlanner(cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to initialize resolver", err)
	}
	v := verify.New(planner, render.NewDefault(), runner, verify.Config{
		OutputDir: outputDir,
		StaticDir: cfg.StaticDir,
		Parallel:  flags.parallel,
		Keep:      flags.keep,
	})
	v.Logf = VerboseLog

	reports, err := v.Matrix(ctx, points)
	if err != nil {
		return model.WrapCLIError(model.ExitInvalidInput, "invalid matrix", err)
	}

	// Step 5: Output.
	if err := printVerifyResult(w, reports); err != nil {
		return err
	}
	if failure := verify.FirstFailure(reports); failure != nil {
		summary := verify.Summary(reports)
		failed := len(reports) - summary[verify.StateVerified]
		return model.WrapCLIError(model.ExitVerificationFailed,
			fmt.Sprintf("%d of %d configurations failed verification", failed, len(reports)), failure)
	}
	return nil
}

// selectPoints expands --matrix into configuration points.
func selectPoints(cat *catalog.Catalog, flags *verifyFlags, cfg *config.Config) ([]model.ConfigurationPoint, error) {
	switch flags.matrix {
	case matrixFull:
		return cat.Exhaustive(flags.prefix), nil
	case matrixSample:
		return cat.Sample(flags.prefix), nil
	case matrixSingle:
		style, js := flags.style, flags.js
		if style == "" {
			style = cfg.Defaults.StyleSolution
		}
		if js == "" {
			js = cfg.Defaults.JavaScriptSolution
		}
		// The slug is derived from the axis values, so they are checked
		// before it is built.
		if err := cat.Validate(model.AxisStyle, style); err != nil {
			return nil, wrapError("invalid input", err)
		}
		if err := cat.Validate(model.AxisJavaScript, js); err != nil {
			return nil, wrapError("invalid input", err)
		}
		point, err := cat.Point(fmt.Sprintf("%s_%s_%s", flags.prefix, style, js), style, js)
		if err != nil {
			return nil, wrapError("invalid input", err)
		}
		return []model.ConfigurationPoint{point}, nil
	default:
		return nil, model.NewCLIError(model.ExitInvalidInput,
			fmt.Sprintf("invalid matrix %q: valid values are full, sample, single", flags.matrix))
	}
}

// newRunner builds the phase runner named by --builder. The returned close
// function releases the Docker connection, if any.
func newRunner(ctx context.Context, flags *verifyFlags, cfg *config.Config) (build.Runner, func(), error) {
	switch config.Builder(flags.builder) {
	case config.BuilderExec:
		return build.NewExecRunner(cfg.Commands(), flags.timeout), func() {}, nil
	case config.BuilderDocker:
		cli, err := docker.NewClient()
		if err != nil {
			return nil, nil, err // NewClient already returns CLIError with ExitDockerNotRunning
		}
		if err := cli.Ping(ctx); err != nil {
			_ = cli.Close()
			return nil, nil, err
		}
		VerboseLog("Connected to Docker daemon; image %s", cfg.Docker.Image)
		runner := build.NewDockerRunner(cli, cfg.Docker.Image, cfg.Commands(), flags.timeout)
		return runner, func() { _ = cli.Close() }, nil
	default:
		return nil, nil, model.NewCLIError(model.ExitInvalidInput,
			fmt.Sprintf("invalid builder %q: valid values are exec, docker", flags.builder))
	}
}

// printVerifyResult outputs one line per report, or the reports as JSON.
func printVerifyResult(w io.Writer, reports []verify.Report) error {
	if IsJSONOutput() {
		summary := verify.Summary(reports)
		counts := make(map[string]int, len(summary))
		for state, n := range summary {
			counts[state.String()] = n
		}
		return writeStructured(w, formatJSON, struct {
			Reports []verify.Report `json:"reports"`
			Summary map[string]int  `json:"summary"`
		}{reports, counts})
	}

	fmt.Fprintf(w, "%-45s %-24s %s\n", "CONFIGURATION", "STATE", "DURATION")
	for _, r := range reports {
		fmt.Fprintf(w, "%-45s %-24s %s\n", r.Point, r.State, r.Duration.Round(time.Millisecond))
	}
	for _, r := range reports {
		if r.OK() {
			continue
		}
		fmt.Fprintf(w, "\n%s\n", r.Error)
		if n := len(r.Results); n > 0 {
			if tail := lastLines(r.Results[n-1].Stderr, 10); tail != "" {
				fmt.Fprintf(w, "%s\n", tail)
			}
		}
	}
	return nil
}
