package docker

import (
	"testing"
	"time"

	"github.com/docker/docker/api/types/container"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// makeTestContainer creates a ContainerInfo labelled for project.
func makeTestContainer(id, name, status, project string) ContainerInfo {
	return ContainerInfo{
		ID:     id,
		Name:   name,
		Status: status,
		Labels: map[string]string{
			LabelManagedBy: ManagedByValue,
			LabelProject:   project,
			LabelPhase:     "build",
			LabelWorkdir:   "/tmp/" + project,
			LabelCreatedAt: "2026-10-18T09:30:00Z",
		},
	}
}

// TestGroupContainersByProject verifies that 3 containers from 2 projects
// are grouped by their project label.
func TestGroupContainersByProject(t *testing.T) {
	containers := []ContainerInfo{
		makeTestContainer("aaa", "alpha-install", "exited", "alpha"),
		makeTestContainer("bbb", "alpha-build", "running", "alpha"),
		makeTestContainer("ccc", "beta-build", "exited", "beta"),
	}

	groups := GroupContainersByProject(containers)

	assert.Len(t, groups, 2)
	assert.Len(t, groups["alpha"], 2)
	assert.Len(t, groups["beta"], 1)
	assert.Equal(t, "ccc", groups["beta"][0].ID)
}

func TestGroupContainersByProject_SkipsNoLabel(t *testing.T) {
	unlabelled := ContainerInfo{ID: "ddd", Name: "stray", Labels: map[string]string{}}

	groups := GroupContainersByProject([]ContainerInfo{unlabelled})
	assert.Empty(t, groups)
}

// TestSummaryToInfo verifies the leading "/" of Docker names is stripped.
func TestSummaryToInfo(t *testing.T) {
	info := summaryToInfo(container.Summary{
		ID:     "0123456789abcdef",
		Names:  []string{"/frontend-build"},
		State:  "exited",
		Labels: map[string]string{LabelProject: "shop", "maintainer": "node"},
	})

	assert.Equal(t, "frontend-build", info.Name)
	assert.Equal(t, "exited", info.Status)
	assert.Equal(t, "shop", info.Project())
	assert.Equal(t, map[string]string{LabelProject: "shop"}, info.Labels, "image labels are dropped")
}

func TestContainerInfo_Run(t *testing.T) {
	c := makeTestContainer("aaa", "alpha-build", "exited", "alpha")
	run, err := c.Run()
	require.NoError(t, err)
	assert.Equal(t, "alpha", run.Project)
	assert.Equal(t, "build", run.Phase)
	assert.Equal(t, time.Date(2026, 10, 18, 9, 30, 0, 0, time.UTC), run.CreatedAt)

	delete(c.Labels, LabelPhase)
	_, err = c.Run()
	assert.ErrorContains(t, err, "alpha-build")
	assert.ErrorContains(t, err, LabelPhase)
}

func TestShortID(t *testing.T) {
	assert.Equal(t, "0123456789ab", shortID("0123456789abcdef"))
	assert.Equal(t, "abc", shortID("abc"))
}
