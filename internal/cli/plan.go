// Package cli: plan.go implements the "frontend-scaffold plan" command.
//
// The plan command resolves a configuration point without writing anything
// and prints what would be generated: the active fragments, every output
// file with the fragment that contributed it, the merged dependencies and
// the snippets placed at each insertion point.
package cli

import (
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/fragment"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
)

// planFlags holds the flag values for the plan command.
type planFlags struct {
	style  string
	js     string
	format string
}

// NewPlanCommand creates the "plan" cobra command.
func NewPlanCommand() *cobra.Command {
	flags := &planFlags{}

	cmd := &cobra.Command{
		Use:   "plan [project-slug]",
		Short: "Show the resolved plan for a configuration",
		Long: `Resolve a configuration point and print the plan without writing files.

Examples:
  frontend-scaffold plan shop --style daisy --js htmx_alpine
  frontend-scaffold plan --style bootstrap --js hotwire --format yaml`,

		Args: cobra.MaximumNArgs(1),

		RunE: func(cmd *cobra.Command, args []string) error {
			slug := catalog.DefaultSlug
			if len(args) == 1 {
				slug = args[0]
			}
			return runPlan(cmd.OutOrStdout(), slug, flags)
		},
	}

	cmd.Flags().StringVar(&flags.style, "style", "", "Styling framework (default: configured default)")
	cmd.Flags().StringVar(&flags.js, "js", "", "JavaScript framework (default: configured default)")
	cmd.Flags().StringVar(&flags.format, "format", formatText, "Output format: text, json, yaml")

	return cmd
}

func runPlan(w io.Writer, slug string, flags *planFlags) error {
	format, err := outputFormat(flags.format)
	if err != nil {
		return err
	}
	cfg := currentConfig()

	point, err := collectPoint(catalog.Default(), slug, flags.style, flags.js,
		cfg.Defaults.StyleSolution, cfg.Defaults.JavaScriptSolution, true)
	if err != nil {
		return err
	}

	res, _, err := newPlanner(cfg)
	if err != nil {
		return wrapError("failed to initialize resolver", err)
	}
	plan, err := res.Resolve(point)
	if err != nil {
		return wrapError(fmt.Sprintf("failed to resolve %s", point), err)
	}

	if format != formatText {
		return writeStructured(w, format, plan)
	}
	printPlanText(w, plan)
	return nil
}

// printPlanText writes a human-readable plan.
func printPlanText(w io.Writer, plan *resolver.Plan) {
	names := make([]string, len(plan.Fragments))
	for i, k := range plan.Fragments {
		names[i] = k.String()
	}

	fmt.Fprintf(w, "Plan for %s\n", plan.Point)
	fmt.Fprintf(w, "Fragments: %s\n", formatList(names))

	fmt.Fprintf(w, "\nFiles:\n")
	for _, f := range plan.Files {
		fmt.Fprintf(w, "  %-40s %s\n", f.Path, f.Fragment)
	}

	for _, kind := range []fragment.DependencyKind{fragment.Runtime, fragment.Dev} {
		section := plan.DependencySection(kind)
		fmt.Fprintf(w, "\n%s:\n", kind)
		if len(section) == 0 {
			fmt.Fprintf(w, "  -\n")
			continue
		}
		for _, name := range sortedKeys(section) {
			fmt.Fprintf(w, "  %-28s %s\n", name, section[name])
		}
	}

	fmt.Fprintf(w, "\nInsertion points:\n")
	for _, point := range sortedKeys(plan.Slots) {
		fmt.Fprintf(w, "  %s\n", point)
		for _, in := range plan.Slots[point] {
			for _, line := range strings.Split(in.Content, "\n") {
				fmt.Fprintf(w, "    %-26s | %s\n", in.Fragment, strings.TrimSpace(line))
			}
		}
	}
}
