// Package cli implements the cobra-based CLI commands for frontend-scaffold.
//
// Each subcommand (new, plan, options, verify, clean) is defined in its own
// file within this package. This file defines the root command that serves as
// the parent for all subcommands, handles global flags and loads the
// configuration file before any subcommand runs.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/config"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/render"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
)

// Global flag variables shared across all subcommands.
// These are bound to cobra persistent flags on the root command,
// which makes them available to every subcommand automatically.
var (
	// jsonOutput controls whether command output is formatted as JSON.
	jsonOutput bool

	// verbose enables progress logging on stderr.
	verbose bool

	// configFile names the YAML configuration file. Empty selects
	// config.DefaultFile, which may be absent.
	configFile string

	// appConfig is the configuration loaded in the root PersistentPreRunE.
	appConfig *config.Config
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// NewRootCommand creates and configures the root cobra command.
// This is the entry point for the entire CLI application.
func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "frontend-scaffold",
		Short: "Scaffold buildable Vite frontends for Django templates",
		Long: `frontend-scaffold generates a Vite + Django-template frontend from three
choices: a project slug, a styling framework and a JavaScript framework.

Every combination resolves to a self-consistent tree whose package.json,
vite.config.js, entry points and template includes agree with each other.
The verify command proves it by installing and building generated projects.`,

		// SilenceUsage prevents cobra from printing usage on every error.
		SilenceUsage: true,

		// SilenceErrors prevents cobra from printing errors automatically.
		// We format errors ourselves (text or JSON based on --json flag).
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),

		// Every subcommand needs the configuration, so it is loaded once
		// here; subcommands only overlay their own flags.
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(config.Options{File: configFile})
			if err != nil {
				return model.WrapCLIError(model.ExitInvalidInput, "failed to load configuration", err)
			}
			appConfig = cfg
			VerboseLog("Configuration: builder=%s output=%s timeout=%s", cfg.Builder, cfg.OutputDir, cfg.Timeout)
			return nil
		},
	}

	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose output")
	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "Configuration file (default: ./"+config.DefaultFile+" if present)")

	rootCmd.AddCommand(NewNewCommand())
	rootCmd.AddCommand(NewPlanCommand())
	rootCmd.AddCommand(NewOptionsCommand())
	rootCmd.AddCommand(NewVerifyCommand())
	rootCmd.AddCommand(NewCleanCommand())

	return rootCmd
}

// Execute runs the root command and handles exit codes.
// This is the main entry point called from main.go; ctx is cancelled on
// SIGINT and SIGTERM.
//
// CLIError values carry their own exit codes; domain errors are classified
// by classifyError; anything else exits with code 1.
func Execute(ctx context.Context, rootCmd *cobra.Command) {
	if err := rootCmd.ExecuteContext(ctx); err != nil {
		cliErr := classifyError(err)
		printError(os.Stderr, cliErr.Message, cliErr.Err)
		os.Exit(int(cliErr.Code))
	}
}

// classifyError maps an error returned by a subcommand to a CLIError.
func classifyError(err error) *model.CLIError {
	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		return cliErr
	}
	return model.WrapCLIError(exitCodeFor(err), err.Error(), nil)
}

// exitCodeFor picks the exit code for a domain error.
func exitCodeFor(err error) model.ExitCode {
	var (
		invalidOption *model.InvalidOptionError
		invalidSlug   *model.InvalidSlugError
		invalidName   *model.InvalidProjectNameError
		depConflict   *model.DependencyConflictError
		slotConflict  *model.InsertionPointConflictError
		dangling      *model.DanglingIncludeError
	)
	switch {
	case errors.As(err, &invalidOption), errors.As(err, &invalidSlug), errors.As(err, &invalidName):
		return model.ExitInvalidInput
	case errors.As(err, &depConflict), errors.As(err, &slotConflict):
		return model.ExitResolutionConflict
	case errors.As(err, &dangling), errors.Is(err, render.ErrTargetExists):
		return model.ExitRenderFailed
	default:
		return model.ExitGeneralError
	}
}

// wrapError attaches message and the exit code matching err's class.
func wrapError(message string, err error) error {
	return model.WrapCLIError(exitCodeFor(err), message, err)
}

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json global flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]any{
			"error": map[string]any{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]any); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		// Errors go to stderr even in JSON mode; stdout is reserved for
		// successful command output.
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}
	if underlying != nil {
		fmt.Fprintf(w, "Error: %s: %v\n", message, underlying)
	} else {
		fmt.Fprintf(w, "Error: %s\n", message)
	}
}

// VerboseLog prints a message to stderr only when verbose mode is enabled.
// It is also handed to the verifier as its progress hook.
func VerboseLog(format string, args ...any) {
	if verbose {
		fmt.Fprintf(os.Stderr, "[verbose] "+format+"\n", args...)
	}
}

// IsJSONOutput returns whether the --json flag is set.
// Subcommands use this to decide their output format.
func IsJSONOutput() bool {
	return jsonOutput
}

// currentConfig returns the loaded configuration, or the defaults when a
// subcommand runs without the root pre-run (as in tests).
func currentConfig() *config.Config {
	if appConfig == nil {
		return config.Default()
	}
	return appConfig
}

// newPlanner returns the default resolver behind the plan cache sized by the
// configuration.
func newPlanner(cfg *config.Config) (*resolver.Resolver, resolver.Planner, error) {
	res, err := resolver.NewDefault()
	if err != nil {
		return nil, nil, err
	}
	if cfg.CacheSize == 0 {
		return res, res, nil
	}
	cached, err := resolver.NewCached(res, cfg.CacheSize)
	if err != nil {
		return nil, nil, err
	}
	return res, cached, nil
}
