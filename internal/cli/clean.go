// Package cli: clean.go implements the "frontend-scaffold clean" command.
//
// The docker builder removes its phase containers when a phase ends, but an
// interrupted run (Ctrl-C, a killed CLI, a daemon restart) can leave some
// behind. clean finds every container carrying the
// "frontend-scaffold.managed-by" label and force-removes it. Containers whose
// remaining labels do not parse are reported and left in place.
package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/frontend-scaffold/internal/docker"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// cleanFlags holds the flag values for the clean command.
type cleanFlags struct {
	// project restricts removal to one project slug.
	project string

	// force skips the confirmation prompt.
	force bool

	// dryRun lists what would be removed without removing it.
	dryRun bool
}

// NewCleanCommand creates the "clean" cobra command.
func NewCleanCommand() *cobra.Command {
	flags := &cleanFlags{}

	cmd := &cobra.Command{
		Use:   "clean",
		Short: "Remove leftover build containers",
		Long: `Remove containers left behind by interrupted "verify --builder docker" runs.

Examples:
  frontend-scaffold clean --dry-run
  frontend-scaffold clean --project verify_daisy_hotwire
  frontend-scaffold clean --force`,

		Args: cobra.NoArgs,

		RunE: func(cmd *cobra.Command, args []string) error {
			return runClean(cmd.Context(), cmd.OutOrStdout(), flags)
		},
	}

	cmd.Flags().StringVar(&flags.project, "project", "", "Only remove containers of this project slug")
	cmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Remove without confirmation")
	cmd.Flags().BoolVar(&flags.dryRun, "dry-run", false, "List containers without removing them")

	return cmd
}

func runClean(ctx context.Context, w io.Writer, flags *cleanFlags) error {
	// Step 1: Connect to Docker daemon.
	cli, err := docker.NewClient()
	if err != nil {
		return err
	}
	defer func() { _ = cli.Close() }()
	VerboseLog("Connected to Docker daemon")

	// Step 2: Find managed containers.
	containers, err := docker.ListManagedContainers(ctx, cli)
	if err != nil {
		return err
	}
	targets, skipped := selectContainers(containers, flags.project)
	VerboseLog("Found %d managed containers, %d selected", len(containers), len(targets))
	for _, c := range skipped {
		VerboseLog("Skipping %s: %s", c.Name, c.Reason)
	}

	if len(targets) == 0 || flags.dryRun {
		return printCleanResult(w, targets, skipped, nil, flags.dryRun)
	}

	// Step 3: Confirm.
	if !flags.force && !IsJSONOutput() {
		ok, err := prompter.Confirm(fmt.Sprintf("Remove %d containers?", len(targets)))
		if err != nil {
			return err
		}
		if !ok {
			return model.NewCLIError(model.ExitUserCancelled, "operation cancelled by user")
		}
	}

	// Step 4: Remove. A failure on one container does not stop the others.
	var removed []cleanTarget
	var firstErr error
	for _, c := range targets {
		if err := docker.RemoveContainer(ctx, cli, c.ID); err != nil {
			VerboseLog("Warning: %v", err)
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		removed = append(removed, c)
	}
	if err := printCleanResult(w, removed, skipped, firstErr, false); err != nil {
		return err
	}
	if firstErr != nil {
		return model.WrapCLIError(model.ExitGeneralError,
			fmt.Sprintf("removed %d of %d containers", len(removed), len(targets)), firstErr)
	}
	return nil
}

// cleanTarget is a managed container together with its parsed labels.
type cleanTarget struct {
	docker.ContainerInfo
	Phase     string    `json:"phase"`
	CreatedAt time.Time `json:"createdAt"`
}

// skippedContainer is a container carrying the managed-by label whose other
// labels do not parse. clean leaves it alone.
type skippedContainer struct {
	docker.ContainerInfo
	Reason string `json:"reason"`
}

// selectContainers keeps the containers of project, or all when project is
// empty, in project order. Containers with malformed labels are returned
// separately and never removed.
func selectContainers(containers []docker.ContainerInfo, project string) ([]cleanTarget, []skippedContainer) {
	var valid []docker.ContainerInfo
	var skipped []skippedContainer
	runs := make(map[string]*docker.RunLabels, len(containers))
	for _, c := range containers {
		if project != "" && c.Project() != project {
			continue
		}
		run, err := c.Run()
		if err != nil {
			skipped = append(skipped, skippedContainer{ContainerInfo: c, Reason: err.Error()})
			continue
		}
		runs[c.ID] = run
		valid = append(valid, c)
	}

	groups := docker.GroupContainersByProject(valid)
	var targets []cleanTarget
	for _, name := range sortedKeys(groups) {
		for _, c := range groups[name] {
			run := runs[c.ID]
			targets = append(targets, cleanTarget{ContainerInfo: c, Phase: run.Phase, CreatedAt: run.CreatedAt})
		}
	}
	return targets, skipped
}

// printCleanResult outputs the affected containers and the skipped ones.
func printCleanResult(w io.Writer, targets []cleanTarget, skipped []skippedContainer, failure error, dryRun bool) error {
	if IsJSONOutput() {
		result := struct {
			DryRun     bool               `json:"dryRun"`
			Containers []cleanTarget      `json:"containers"`
			Skipped    []skippedContainer `json:"skipped"`
		}{dryRun, make([]cleanTarget, 0, len(targets)), make([]skippedContainer, 0, len(skipped))}
		result.Containers = append(result.Containers, targets...)
		result.Skipped = append(result.Skipped, skipped...)
		return writeStructured(w, formatJSON, result)
	}

	if len(targets) == 0 && len(skipped) == 0 {
		if failure == nil {
			fmt.Fprintln(w, "No frontend-scaffold containers found.")
		}
		return nil
	}
	verb := "Removed"
	if dryRun {
		verb = "Would remove"
	}
	now := time.Now()
	for _, c := range targets {
		fmt.Fprintf(w, "%s %-40s %-28s %-8s %-10s %s ago\n",
			verb, c.Name, c.Project(), c.Phase, c.Status, now.Sub(c.CreatedAt).Round(time.Second))
	}
	for _, c := range skipped {
		fmt.Fprintf(w, "Skipped %s: %s\n", c.Name, c.Reason)
	}
	return nil
}
