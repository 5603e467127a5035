// Package resolver merges the fragment sets active for a ConfigurationPoint
// into a single Plan.
//
// Resolution is pure: the same point always yields a plan that compares
// equal, whatever order the axes are visited in. Active fragments are put
// into canonical order (base, style, javascript) before anything is merged,
// so conflicts are detected and reported identically for every axis order.
// Nothing is ever silently overridden: a disagreement between two fragments
// is an error naming both of them.
package resolver

import (
	"fmt"
	"sort"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/fragment"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// Planner produces plans. Resolver and Cached both implement it.
type Planner interface {
	Resolve(p model.ConfigurationPoint) (*Plan, error)
}

// Resolver resolves points against a sealed registry.
type Resolver struct {
	catalog  *catalog.Catalog
	registry *fragment.Registry
}

// New returns a resolver. The registry must be sealed and must cover every
// catalog value.
func New(c *catalog.Catalog, r *fragment.Registry) (*Resolver, error) {
	if !r.Sealed() {
		return nil, fmt.Errorf("resolver needs a sealed fragment registry")
	}
	if err := r.CheckComplete(c); err != nil {
		return nil, err
	}
	return &Resolver{catalog: c, registry: r}, nil
}

// NewDefault wires the shipped catalog and registry.
func NewDefault() (*Resolver, error) {
	reg, err := fragment.Default()
	if err != nil {
		return nil, err
	}
	return New(catalog.Default(), reg)
}

// Catalog returns the catalog the resolver validates points against.
func (r *Resolver) Catalog() *catalog.Catalog {
	return r.catalog
}

// Resolve computes the plan for p, visiting axes in catalog order.
func (r *Resolver) Resolve(p model.ConfigurationPoint) (*Plan, error) {
	return r.ResolveInOrder(p, r.catalog.Axes())
}

// ResolveInOrder computes the plan for p, visiting axes in the given order.
// axes must be a permutation of the catalog axes.
func (r *Resolver) ResolveInOrder(p model.ConfigurationPoint, axes []model.Axis) (*Plan, error) {
	if _, err := r.catalog.Point(p.ProjectSlug, p.Style.String(), p.JavaScript.String()); err != nil {
		return nil, err
	}
	if err := r.checkPermutation(axes); err != nil {
		return nil, err
	}

	keys := []fragment.Key{fragment.BaseKey}
	for _, axis := range axes {
		keys = append(keys, fragment.Key{Axis: axis, Value: p.Value(axis)})
	}
	sort.SliceStable(keys, func(i, j int) bool {
		return keys[i].Rank() < keys[j].Rank()
	})

	m := newMerger(p)
	for _, key := range keys {
		set, ok := r.registry.Lookup(key)
		if !ok {
			// CheckComplete ran in New, so this only happens for a
			// catalog/registry pair that was mutated behind our back.
			return nil, fmt.Errorf("no fragment set registered for %s", key)
		}
		if err := m.add(key, set); err != nil {
			return nil, err
		}
	}
	return m.finish()
}

func (r *Resolver) checkPermutation(axes []model.Axis) error {
	want := r.catalog.Axes()
	if len(axes) != len(want) {
		return fmt.Errorf("axis order %v must name each of %v exactly once", axes, want)
	}
	seen := make(map[model.Axis]bool, len(axes))
	for _, a := range axes {
		if seen[a] {
			return fmt.Errorf("axis order %v must name each of %v exactly once", axes, want)
		}
		seen[a] = true
	}
	for _, a := range want {
		if !seen[a] {
			return fmt.Errorf("axis order %v must name each of %v exactly once", axes, want)
		}
	}
	return nil
}

// merger accumulates fragment sets in canonical order.
type merger struct {
	point     model.ConfigurationPoint
	fragments []fragment.Key
	files     map[string]PlannedFile
	deps      map[string]PlannedDependency
	slots     map[string][]Insertion
	requires  []requirement
}

type requirement struct {
	from   fragment.Key
	point  string
	target string
}

func newMerger(p model.ConfigurationPoint) *merger {
	return &merger{
		point: p,
		files: make(map[string]PlannedFile),
		deps:  make(map[string]PlannedDependency),
		slots: make(map[string][]Insertion),
	}
}

func (m *merger) add(key fragment.Key, set fragment.Set) error {
	m.fragments = append(m.fragments, key)

	for _, f := range set.Files {
		if !f.When.Matches(m.point) {
			continue
		}
		if existing, ok := m.files[f.Path]; ok {
			return &model.InsertionPointConflictError{
				Point:     "file:" + f.Path,
				Fragments: []string{existing.Fragment.String(), key.String()},
			}
		}
		kind := f.Kind
		if kind == "" {
			kind = fragment.Template
		}
		m.files[f.Path] = PlannedFile{Path: f.Path, Source: f.Source, Kind: kind, Fragment: key}
	}

	for _, d := range set.Dependencies {
		incoming := PlannedDependency{Dependency: d, Fragment: key}
		if existing, ok := m.deps[d.Name]; ok {
			if existing.Version != d.Version || existing.Kind != d.Kind {
				return &model.DependencyConflictError{
					Package:  d.Name,
					Existing: existing.describe(),
					Incoming: incoming.describe(),
				}
			}
			continue
		}
		m.deps[d.Name] = incoming
	}

	for _, sn := range set.Snippets {
		if !sn.When.Matches(m.point) {
			continue
		}
		m.slots[sn.Point] = append(m.slots[sn.Point], Insertion{
			Fragment:    key,
			Content:     sn.Content,
			Commutative: sn.Commutative,
		})
		if sn.Requires != "" {
			m.requires = append(m.requires, requirement{from: key, point: sn.Point, target: sn.Requires})
		}
	}
	return nil
}

func (m *merger) finish() (*Plan, error) {
	points := make([]string, 0, len(m.slots))
	for name := range m.slots {
		points = append(points, name)
	}
	sort.Strings(points)
	for _, name := range points {
		if err := checkSlot(name, m.slots[name]); err != nil {
			return nil, err
		}
	}

	for _, req := range m.requires {
		if _, ok := m.files[req.target]; !ok {
			return nil, &model.DanglingIncludeError{
				Fragment: req.from.String(),
				Source:   req.point,
				Target:   req.target,
			}
		}
	}

	plan := &Plan{
		Point:     m.point,
		Fragments: m.fragments,
		Slots:     m.slots,
	}
	for _, f := range m.files {
		plan.Files = append(plan.Files, f)
	}
	sort.Slice(plan.Files, func(i, j int) bool { return plan.Files[i].Path < plan.Files[j].Path })
	for _, d := range m.deps {
		plan.Dependencies = append(plan.Dependencies, d)
	}
	sort.Slice(plan.Dependencies, func(i, j int) bool { return plan.Dependencies[i].Name < plan.Dependencies[j].Name })
	return plan, nil
}

// checkSlot enforces that a point shared by more than one snippet holds only
// commutative snippets.
func checkSlot(name string, ins []Insertion) error {
	if len(ins) < 2 {
		return nil
	}
	for _, in := range ins {
		if in.Commutative {
			continue
		}
		var names []string
		for _, other := range ins {
			s := other.Fragment.String()
			if len(names) == 0 || names[len(names)-1] != s {
				names = append(names, s)
			}
		}
		return &model.InsertionPointConflictError{Point: name, Fragments: names}
	}
	return nil
}

func shortKind(k fragment.DependencyKind) string {
	if k == fragment.Dev {
		return "dev"
	}
	return "runtime"
}
