package docker

import (
	"fmt"
	"strings"
	"time"
)

// Label keys persisted on every build container. They are the only record of
// which containers this tool started; there is no state file.
//
// All keys share the "frontend-scaffold." prefix so they never collide with
// labels set by other tools.
const (
	// LabelPrefix is the common prefix for all labels.
	LabelPrefix = "frontend-scaffold."

	// LabelManagedBy marks containers started by this tool. It is the label
	// used for discovery. Value: always ManagedByValue.
	LabelManagedBy = LabelPrefix + "managed-by"

	// LabelProject stores the project slug being built.
	LabelProject = LabelPrefix + "project"

	// LabelPhase stores the pipeline phase ("install" or "build").
	LabelPhase = LabelPrefix + "phase"

	// LabelWorkdir stores the absolute host path bind-mounted into the
	// container.
	LabelWorkdir = LabelPrefix + "workdir"

	// LabelCreatedAt stores the RFC3339 creation timestamp.
	LabelCreatedAt = LabelPrefix + "created-at"
)

// ManagedByValue is the value of LabelManagedBy.
const ManagedByValue = "frontend-scaffold"

// RunLabels describes one phase container.
type RunLabels struct {
	Project   string
	Phase     string
	Workdir   string
	CreatedAt time.Time
}

// BuildLabels returns the Docker label map for a phase container.
func BuildLabels(l RunLabels) map[string]string {
	return map[string]string{
		LabelManagedBy: ManagedByValue,
		LabelProject:   l.Project,
		LabelPhase:     l.Phase,
		LabelWorkdir:   l.Workdir,
		// UTC keeps the value independent of the host timezone.
		LabelCreatedAt: l.CreatedAt.UTC().Format(time.RFC3339),
	}
}

// ParseLabels is the inverse of BuildLabels. All keys are required, none may
// be empty and the managed-by value must match.
func ParseLabels(labels map[string]string) (*RunLabels, error) {
	required := []string{LabelManagedBy, LabelProject, LabelPhase, LabelWorkdir, LabelCreatedAt}

	var missing []string
	for _, key := range required {
		if labels[key] == "" {
			missing = append(missing, key)
		}
	}
	if len(missing) > 0 {
		return nil, fmt.Errorf("missing required Docker labels: %s", strings.Join(missing, ", "))
	}

	if labels[LabelManagedBy] != ManagedByValue {
		return nil, fmt.Errorf(
			"label %s has unexpected value %q (expected %q)",
			LabelManagedBy, labels[LabelManagedBy], ManagedByValue,
		)
	}

	createdAt, err := time.Parse(time.RFC3339, labels[LabelCreatedAt])
	if err != nil {
		return nil, fmt.Errorf("invalid label %s: %w", LabelCreatedAt, err)
	}

	return &RunLabels{
		Project:   labels[LabelProject],
		Phase:     labels[LabelPhase],
		Workdir:   labels[LabelWorkdir],
		CreatedAt: createdAt,
	}, nil
}

// FilterLabels returns the subset of labels carrying LabelPrefix. Labels set
// by the image (maintainer, OCI annotations) are dropped.
func FilterLabels(labels map[string]string) map[string]string {
	out := make(map[string]string)
	for k, v := range labels {
		if strings.HasPrefix(k, LabelPrefix) {
			out[k] = v
		}
	}
	return out
}
