// Package fragment defines the building blocks a project tree is composed
// from, and the registry that maps every catalog value to its FragmentSet.
//
// A Set bundles four kinds of contributions for one axis value:
//   - files, each gated by a Predicate evaluated against the whole point
//   - npm dependency declarations
//   - snippets injected into named insertion points (slots) of shared files
//   - include directives, which are snippets that require a file to exist
//
// The registry is populated by explicit Register calls at start-up and then
// sealed; after sealing it is read-only and safe for concurrent readers.
package fragment

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// Rank orders fragments canonically: base first, then axes in catalog order.
// Commutative snippets are emitted by rank, then declaration order, which is
// what makes a plan independent of the order axes are evaluated in.
type Rank int

const (
	RankBase Rank = iota
	RankStyle
	RankJavaScript
)

// Key identifies a fragment set. The zero Key is the always-active base set.
type Key struct {
	Axis  model.Axis `json:"axis,omitempty" yaml:"axis,omitempty"`
	Value string     `json:"value,omitempty" yaml:"value,omitempty"`
}

// BaseKey is the key of the always-active base set.
var BaseKey = Key{}

// String returns "base" or "<axis>/<value>".
func (k Key) String() string {
	if k == BaseKey {
		return "base"
	}
	return fmt.Sprintf("%s/%s", k.Axis, k.Value)
}

// Rank returns the canonical rank of the key's axis.
func (k Key) Rank() Rank {
	switch k.Axis {
	case model.AxisStyle:
		return RankStyle
	case model.AxisJavaScript:
		return RankJavaScript
	default:
		return RankBase
	}
}

// Predicate gates a file or snippet on axis values. Empty fields match
// anything; a predicate with both fields set describes a combination.
type Predicate struct {
	Style      model.StyleSolution      `json:"style_solution,omitempty" yaml:"style_solution,omitempty"`
	JavaScript model.JavaScriptSolution `json:"javascript_solution,omitempty" yaml:"javascript_solution,omitempty"`
}

// Always is the predicate that matches every point.
var Always = Predicate{}

// Matches reports whether the predicate holds for p.
func (pr Predicate) Matches(p model.ConfigurationPoint) bool {
	if pr.Style != "" && pr.Style != p.Style {
		return false
	}
	if pr.JavaScript != "" && pr.JavaScript != p.JavaScript {
		return false
	}
	return true
}

// String renders the predicate as "style_solution=daisy && javascript_solution=htmx_alpine".
func (pr Predicate) String() string {
	var terms []string
	if pr.Style != "" {
		terms = append(terms, fmt.Sprintf("%s=%s", model.AxisStyle, pr.Style))
	}
	if pr.JavaScript != "" {
		terms = append(terms, fmt.Sprintf("%s=%s", model.AxisJavaScript, pr.JavaScript))
	}
	if len(terms) == 0 {
		return "always"
	}
	return strings.Join(terms, " && ")
}

// DependencyKind selects the package.json section a dependency lands in.
type DependencyKind string

const (
	Runtime DependencyKind = "dependencies"
	Dev     DependencyKind = "devDependencies"
)

// Dependency is one package.json entry.
type Dependency struct {
	Name    string         `json:"name" yaml:"name"`
	Version string         `json:"version" yaml:"version"`
	Kind    DependencyKind `json:"kind" yaml:"kind"`
}

// String returns "name@version (kind)".
func (d Dependency) String() string {
	return fmt.Sprintf("%s@%s (%s)", d.Name, d.Version, d.Kind)
}

// FileKind tells the renderer how to produce a file.
type FileKind string

const (
	// Template files are rendered through the template engine with the
	// project context and the slot function.
	Template FileKind = "template"

	// Manifest marks the JSONC package.json base that is composed with the
	// plan's dependencies instead of being templated.
	Manifest FileKind = "manifest"
)

// File is a file contribution. Path is relative to the project root and
// always uses forward slashes; Source is the path inside the template FS.
type File struct {
	Path   string    `json:"path" yaml:"path"`
	Source string    `json:"source" yaml:"source"`
	Kind   FileKind  `json:"kind,omitempty" yaml:"kind,omitempty"`
	When   Predicate `json:"when" yaml:"when"`
}

// Snippet is text injected at a named insertion point of a shared file.
//
// Commutative snippets may share an insertion point with snippets from other
// fragments; a non-commutative snippet must be alone at its point for any
// given configuration. Requires, when set, turns the snippet into an include
// directive: the named tree path must be part of the plan.
type Snippet struct {
	Point       string    `json:"point" yaml:"point"`
	Content     string    `json:"content" yaml:"content"`
	Commutative bool      `json:"commutative,omitempty" yaml:"commutative,omitempty"`
	Requires    string    `json:"requires,omitempty" yaml:"requires,omitempty"`
	When        Predicate `json:"when" yaml:"when"`
}

// Set is the tagged variant registered for one axis value (or the base).
type Set struct {
	Files        []File
	Dependencies []Dependency
	Snippets     []Snippet
}

// validate checks a set in isolation: no duplicate packages or paths within
// the set, non-empty fields, slots known to the registry.
func (s Set) validate(key Key, slots map[string]bool) error {
	paths := make(map[string]bool)
	for _, f := range s.Files {
		if f.Path == "" || f.Source == "" {
			return fmt.Errorf("fragment %s: file entries need a path and a source", key)
		}
		if strings.HasPrefix(f.Path, "/") || strings.Contains(f.Path, "..") {
			return fmt.Errorf("fragment %s: file path %q must be relative to the project root", key, f.Path)
		}
		// Two entries may share a path only when their predicates are
		// disjoint; within one set we keep it simple and refuse.
		if paths[f.Path] {
			return fmt.Errorf("fragment %s: file %q declared twice", key, f.Path)
		}
		paths[f.Path] = true
	}

	pkgs := make(map[string]bool)
	for _, d := range s.Dependencies {
		if d.Name == "" || d.Version == "" {
			return fmt.Errorf("fragment %s: dependency entries need a name and a version", key)
		}
		if d.Kind != Runtime && d.Kind != Dev {
			return fmt.Errorf("fragment %s: dependency %q has unknown kind %q", key, d.Name, d.Kind)
		}
		if pkgs[d.Name] {
			return fmt.Errorf("fragment %s: dependency %q declared twice", key, d.Name)
		}
		pkgs[d.Name] = true
	}

	for _, sn := range s.Snippets {
		if !slots[sn.Point] {
			return fmt.Errorf("fragment %s: snippet targets unknown insertion point %q", key, sn.Point)
		}
	}
	return nil
}
