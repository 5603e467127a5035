package resolver

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/frontend-scaffold/internal/fragment"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// Plan is the merged result of every fragment active for a point. A plan is
// immutable once returned; cached plans are shared between goroutines.
type Plan struct {
	Point model.ConfigurationPoint `json:"point" yaml:"point"`

	// Fragments lists the active fragment sets in canonical order.
	Fragments []fragment.Key `json:"fragments" yaml:"fragments"`

	// Files is sorted by Path.
	Files []PlannedFile `json:"files" yaml:"files"`

	// Dependencies is sorted by package name, one entry per package.
	Dependencies []PlannedDependency `json:"dependencies" yaml:"dependencies"`

	// Slots maps an insertion point to its snippets in canonical order.
	Slots map[string][]Insertion `json:"slots" yaml:"slots"`
}

// PlannedFile is one output file and the fragment that contributed it.
type PlannedFile struct {
	Path     string            `json:"path" yaml:"path"`
	Source   string            `json:"source" yaml:"source"`
	Kind     fragment.FileKind `json:"kind" yaml:"kind"`
	Fragment fragment.Key      `json:"fragment" yaml:"fragment"`
}

// PlannedDependency is a package.json entry and the first fragment that
// declared it.
type PlannedDependency struct {
	fragment.Dependency `yaml:",inline"`
	Fragment            fragment.Key `json:"fragment" yaml:"fragment"`
}

func (d PlannedDependency) describe() string {
	return fmt.Sprintf("%s: %s (%s)", d.Fragment, d.Version, shortKind(d.Kind))
}

// Insertion is one snippet placed at an insertion point.
type Insertion struct {
	Fragment    fragment.Key `json:"fragment" yaml:"fragment"`
	Content     string       `json:"content" yaml:"content"`
	Commutative bool         `json:"commutative,omitempty" yaml:"commutative,omitempty"`
}

// SlotContent joins the snippets at point with newlines. An insertion point
// nobody targets renders as the empty string.
func (p *Plan) SlotContent(point string) string {
	ins := p.Slots[point]
	parts := make([]string, len(ins))
	for i, in := range ins {
		parts[i] = in.Content
	}
	return strings.Join(parts, "\n")
}

// File looks up a planned file by its tree path.
func (p *Plan) File(path string) (PlannedFile, bool) {
	for _, f := range p.Files {
		if f.Path == path {
			return f, true
		}
	}
	return PlannedFile{}, false
}

// Paths returns the planned tree paths, sorted.
func (p *Plan) Paths() []string {
	out := make([]string, len(p.Files))
	for i, f := range p.Files {
		out[i] = f.Path
	}
	return out
}

// DependencySection returns the name->version map for one package.json
// section.
func (p *Plan) DependencySection(kind fragment.DependencyKind) map[string]string {
	out := make(map[string]string)
	for _, d := range p.Dependencies {
		if d.Kind == kind {
			out[d.Name] = d.Version
		}
	}
	return out
}
