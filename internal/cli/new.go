// Package cli: new.go implements the "frontend-scaffold new" command.
//
// Orchestration steps:
//  1. Collect the slug and both axis values from arguments, flags or prompts
//  2. Validate them against the option catalog
//  3. Resolve the configuration point into a plan
//  4. Render the plan below the output directory
//  5. Output the created tree (text or JSON)
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/manifest"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/render"
)

// newFlags holds the flag values for the new command.
type newFlags struct {
	style   string // --style: style_solution value
	js      string // --js: javascript_solution value
	name    string // --name: human-readable project name
	output  string // --output: parent directory of the project
	noInput bool   // --no-input: never prompt, use defaults
}

// NewNewCommand creates the "new" cobra command.
func NewNewCommand() *cobra.Command {
	flags := &newFlags{}

	cmd := &cobra.Command{
		Use:   "new [project-slug]",
		Short: "Generate a frontend project",
		Long: `Generate a Vite frontend project for Django templates.

Values missing from the command line are prompted for, unless --no-input
is given, in which case the configured defaults are used.

Examples:
  frontend-scaffold new shop --style daisy --js htmx_alpine
  frontend-scaffold new shop --style bootstrap --js hotwire --output ./frontends
  frontend-scaffold new --no-input`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			slug := ""
			if len(args) == 1 {
				slug = args[0]
			}
			return runNew(cmd.Context(), cmd.OutOrStdout(), slug, flags)
		},
	}

	cmd.Flags().StringVar(&flags.style, "style", "", "Styling framework: tailwind, daisy, bootstrap")
	cmd.Flags().StringVar(&flags.js, "js", "", "JavaScript framework: valinajs, htmx_alpine, hotwire")
	cmd.Flags().StringVar(&flags.name, "name", "", "Project name shown in markup (default: the slug)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Parent directory of the project (default: configured output_dir)")
	cmd.Flags().BoolVar(&flags.noInput, "no-input", false, "Do not prompt; use defaults for missing values")

	return cmd
}

// runNew is the main orchestration function for the new command.
func runNew(ctx context.Context, w io.Writer, slug string, flags *newFlags) error {
	cfg := currentConfig()

	// Step 1: Collect input.
	point, err := collectPoint(catalog.Default(), slug, flags.style, flags.js,
		cfg.Defaults.StyleSolution, cfg.Defaults.JavaScriptSolution, flags.noInput)
	if err != nil {
		return err
	}
	if _, err := render.ProjectName(flags.name, point.ProjectSlug); err != nil {
		return wrapError("invalid input", err)
	}
	VerboseLog("Configuration point: %s", point)

	// Step 2: Resolve.
	_, planner, err := newPlanner(cfg)
	if err != nil {
		return model.WrapCLIError(model.ExitGeneralError, "failed to initialize resolver", err)
	}
	plan, err := planner.Resolve(point)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to resolve %s", point), err)
	}
	VerboseLog("Resolved %d files and %d dependencies from %d fragments",
		len(plan.Files), len(plan.Dependencies), len(plan.Fragments))

	// Step 3: Render.
	outputDir := flags.output
	if outputDir == "" {
		outputDir = cfg.OutputDir
	}
	tree, err := render.NewDefault().Render(ctx, render.Request{
		Plan:        plan,
		OutputDir:   outputDir,
		ProjectName: flags.name,
	})
	if err != nil {
		return model.WrapCLIError(model.ExitRenderFailed, fmt.Sprintf("failed to render %s", point), err)
	}

	meta, err := manifest.ReadMetadata(tree.Root)
	if err != nil {
		return model.WrapCLIError(model.ExitRenderFailed, "rendered package.json is unreadable", err)
	}

	// Step 4: Output.
	if IsJSONOutput() {
		return writeStructured(w, formatJSON, struct {
			Point   model.ConfigurationPoint `json:"point"`
			Package manifest.Metadata        `json:"package"`
			Root    string                   `json:"root"`
			Files   []string                 `json:"files"`
		}{point, meta, tree.Root, tree.Files})
	}
	fmt.Fprintf(w, "Created %s@%s in %s\n", meta.Name, meta.Version, tree.Root)
	fmt.Fprintf(w, "  style:      %s\n", point.Style)
	fmt.Fprintf(w, "  javascript: %s\n", point.JavaScript)
	fmt.Fprintf(w, "  files:      %d\n", len(tree.Files))
	fmt.Fprintf(w, "\nNext steps:\n  cd %s\n  npm install\n  npm run dev\n", tree.Root)
	return nil
}

// collectPoint fills missing values from prompts (or defaults when noInput)
// and validates the result. The slug is asked first, matching the order of
// the prompts.
func collectPoint(cat *catalog.Catalog, slug, style, js, defStyle, defJS string, noInput bool) (model.ConfigurationPoint, error) {
	var err error
	if slug == "" {
		slug = catalog.DefaultSlug
		if !noInput {
			slug, err = prompter.Input("Project slug:", catalog.DefaultSlug, cat.ValidateSlug)
			if err != nil {
				return model.ConfigurationPoint{}, err
			}
		}
	}
	if style, err = pickAxis(cat, model.AxisStyle, style, defStyle, noInput); err != nil {
		return model.ConfigurationPoint{}, err
	}
	if js, err = pickAxis(cat, model.AxisJavaScript, js, defJS, noInput); err != nil {
		return model.ConfigurationPoint{}, err
	}

	point, err := cat.Point(slug, style, js)
	if err != nil {
		return model.ConfigurationPoint{}, wrapError("invalid input", err)
	}
	return point, nil
}

func pickAxis(cat *catalog.Catalog, axis model.Axis, value, def string, noInput bool) (string, error) {
	if value != "" {
		return value, nil
	}
	if def == "" {
		def = cat.Default(axis)
	}
	if noInput {
		return def, nil
	}
	values, err := cat.AllValues(axis)
	if err != nil {
		return "", err
	}
	return prompter.Select(axis.String()+":", values, def)
}
