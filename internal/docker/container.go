// container.go implements discovery and removal of the phase containers this
// tool starts. All of them are identified by the "frontend-scaffold.managed-by"
// label, which keeps unrelated containers on the same host out of reach.
package docker

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/docker/docker/api/types/container"
	"github.com/docker/docker/api/types/filters"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// ContainerInfo is the subset of a Docker container the CLI displays.
// Labels holds only the "frontend-scaffold." labels.
type ContainerInfo struct {
	ID     string            `json:"id"`
	Name   string            `json:"name"`
	Status string            `json:"status"`
	Labels map[string]string `json:"labels"`
}

// Project returns the project slug label, or "" when absent.
func (c ContainerInfo) Project() string {
	return c.Labels[LabelProject]
}

// Run parses the container's labels. It fails for containers whose labels
// were not written by BuildLabels.
func (c ContainerInfo) Run() (*RunLabels, error) {
	run, err := ParseLabels(c.Labels)
	if err != nil {
		return nil, fmt.Errorf("container %s: %w", c.Name, err)
	}
	return run, nil
}

// ListManagedContainers returns every container (running or not) carrying
// the managed-by label. Filtering happens on the daemon side.
func ListManagedContainers(ctx context.Context, cli *Client) ([]ContainerInfo, error) {
	filterArgs := filters.NewArgs(
		filters.Arg("label", LabelManagedBy+"="+ManagedByValue),
	)

	containers, err := cli.Inner().ContainerList(ctx, container.ListOptions{
		All:     true,
		Filters: filterArgs,
	})
	if err != nil {
		return nil, model.WrapCLIError(
			model.ExitDockerNotRunning,
			"failed to list Docker containers",
			err,
		)
	}

	result := make([]ContainerInfo, 0, len(containers))
	for _, c := range containers {
		result = append(result, summaryToInfo(c))
	}
	sort.Slice(result, func(i, j int) bool { return result[i].Name < result[j].Name })
	return result, nil
}

// summaryToInfo maps an SDK container summary to ContainerInfo. Docker
// prefixes names with "/", which is stripped.
func summaryToInfo(c container.Summary) ContainerInfo {
	name := ""
	if len(c.Names) > 0 {
		name = strings.TrimPrefix(c.Names[0], "/")
	}
	return ContainerInfo{
		ID:     c.ID,
		Name:   name,
		Status: string(c.State),
		Labels: FilterLabels(c.Labels),
	}
}

// GroupContainersByProject groups containers by their project label.
// Containers without one are skipped.
func GroupContainersByProject(containers []ContainerInfo) map[string][]ContainerInfo {
	groups := make(map[string][]ContainerInfo)
	for _, c := range containers {
		project := c.Project()
		if project == "" {
			continue
		}
		groups[project] = append(groups[project], c)
	}
	return groups
}

// RemoveContainer force-removes a container, killing it first if it is
// still running. Anonymous volumes are removed with it.
func RemoveContainer(ctx context.Context, cli *Client, id string) error {
	err := cli.Inner().ContainerRemove(ctx, id, container.RemoveOptions{
		Force:         true,
		RemoveVolumes: true,
	})
	if err != nil {
		return fmt.Errorf("failed to remove container %s: %w", shortID(id), err)
	}
	return nil
}

// shortID truncates a container ID to the 12 characters docker ps shows.
func shortID(id string) string {
	if len(id) > 12 {
		return id[:12]
	}
	return id
}
