package fragment

import (
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"strings"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// ErrSealed is returned by Register after Seal has been called.
var ErrSealed = errors.New("fragment registry is sealed")

// AxisCatalog is the view of the option catalog the registry needs for its
// completeness check.
type AxisCatalog interface {
	Axes() []model.Axis
	AllValues(axis model.Axis) ([]string, error)
}

// Registry maps fragment keys to sets. Register and Seal must be called from
// a single goroutine during start-up; once sealed, every method is a pure read.
type Registry struct {
	templates fs.FS
	slots     map[string]bool
	sets      map[Key]Set
	sealed    bool
}

// NewRegistry creates an empty registry whose file sources are read from
// templates and whose snippets may target the given insertion points.
func NewRegistry(templates fs.FS, slots ...string) *Registry {
	known := make(map[string]bool, len(slots))
	for _, s := range slots {
		known[s] = true
	}
	return &Registry{
		templates: templates,
		slots:     known,
		sets:      make(map[Key]Set),
	}
}

// RegisterBase registers the always-active set.
func (r *Registry) RegisterBase(set Set) error {
	return r.register(BaseKey, set)
}

// Register registers the set for one axis value.
func (r *Registry) Register(axis model.Axis, value string, set Set) error {
	if axis == "" || value == "" {
		return fmt.Errorf("fragment registry: axis and value are required")
	}
	return r.register(Key{Axis: axis, Value: value}, set)
}

func (r *Registry) register(key Key, set Set) error {
	if r.sealed {
		return fmt.Errorf("register %s: %w", key, ErrSealed)
	}
	if _, exists := r.sets[key]; exists {
		return fmt.Errorf("fragment %s registered twice", key)
	}
	if err := set.validate(key, r.slots); err != nil {
		return err
	}
	for _, f := range set.Files {
		if _, err := fs.Stat(r.templates, f.Source); err != nil {
			return fmt.Errorf("fragment %s: template source %q: %w", key, f.Source, err)
		}
	}
	r.sets[key] = set
	return nil
}

// Seal freezes the registry. It is idempotent.
func (r *Registry) Seal() {
	r.sealed = true
}

// Sealed reports whether Seal has been called.
func (r *Registry) Sealed() bool {
	return r.sealed
}

// Lookup returns the set registered under key.
func (r *Registry) Lookup(key Key) (Set, bool) {
	set, ok := r.sets[key]
	return set, ok
}

// Templates returns the filesystem file sources are read from.
func (r *Registry) Templates() fs.FS {
	return r.templates
}

// Slots returns the known insertion points, sorted.
func (r *Registry) Slots() []string {
	out := make([]string, 0, len(r.slots))
	for s := range r.slots {
		out = append(out, s)
	}
	sort.Strings(out)
	return out
}

// Keys returns every registered key in canonical order (rank, then value).
func (r *Registry) Keys() []Key {
	keys := make([]Key, 0, len(r.sets))
	for k := range r.sets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool {
		if keys[i].Rank() != keys[j].Rank() {
			return keys[i].Rank() < keys[j].Rank()
		}
		return keys[i].Value < keys[j].Value
	})
	return keys
}

// IncompleteError reports a registry that has diverged from the catalog.
type IncompleteError struct {
	// Missing lists catalog values without a registered set.
	Missing []Key

	// Unknown lists registered sets for values the catalog does not know.
	Unknown []Key

	// NoBase is true when the base set was never registered.
	NoBase bool
}

// Error implements the error interface.
func (e *IncompleteError) Error() string {
	var parts []string
	if e.NoBase {
		parts = append(parts, "base set missing")
	}
	if len(e.Missing) > 0 {
		parts = append(parts, "no fragments for "+joinKeys(e.Missing))
	}
	if len(e.Unknown) > 0 {
		parts = append(parts, "fragments for unknown values "+joinKeys(e.Unknown))
	}
	return "fragment registry diverges from catalog: " + strings.Join(parts, "; ")
}

func joinKeys(keys []Key) string {
	s := make([]string, len(keys))
	for i, k := range keys {
		s[i] = k.String()
	}
	return strings.Join(s, ", ")
}

// CheckComplete verifies that every catalog value has a registered set and
// that no set is registered for a value outside the catalog.
func (r *Registry) CheckComplete(c AxisCatalog) error {
	incomplete := &IncompleteError{}
	if _, ok := r.sets[BaseKey]; !ok {
		incomplete.NoBase = true
	}

	known := make(map[Key]bool)
	for _, axis := range c.Axes() {
		values, err := c.AllValues(axis)
		if err != nil {
			return err
		}
		for _, v := range values {
			k := Key{Axis: axis, Value: v}
			known[k] = true
			if _, ok := r.sets[k]; !ok {
				incomplete.Missing = append(incomplete.Missing, k)
			}
		}
	}
	for _, k := range r.Keys() {
		if k != BaseKey && !known[k] {
			incomplete.Unknown = append(incomplete.Unknown, k)
		}
	}

	if incomplete.NoBase || len(incomplete.Missing) > 0 || len(incomplete.Unknown) > 0 {
		return incomplete
	}
	return nil
}
