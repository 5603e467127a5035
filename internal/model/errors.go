package model

import (
	"fmt"
	"strings"
)

// InvalidOptionError reports an axis value (or an axis) that the option
// catalog does not know. It is raised before anything is resolved or
// rendered.
type InvalidOptionError struct {
	// Axis is the axis the value was requested on.
	Axis Axis

	// Value is the offending value.
	Value string

	// Allowed lists the catalog values for Axis, in catalog order.
	// Empty when the axis itself is unknown.
	Allowed []string
}

// Error implements the error interface.
func (e *InvalidOptionError) Error() string {
	if len(e.Allowed) == 0 {
		return fmt.Sprintf("invalid option: unknown axis %q", e.Axis)
	}
	return fmt.Sprintf("invalid option: %s=%q (valid: %s)", e.Axis, e.Value, strings.Join(e.Allowed, ", "))
}

// InvalidSlugError reports a project slug that violates the naming rules.
type InvalidSlugError struct {
	Slug   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidSlugError) Error() string {
	return fmt.Sprintf("invalid project slug %q: %s", e.Slug, e.Reason)
}

// DependencyConflictError reports two active fragments pinning the same
// package differently. Resolution never picks a winner.
type DependencyConflictError struct {
	// Package is the npm package name both fragments declare.
	Package string

	// Existing and Incoming describe the two declarations as
	// "<fragment>: <version> (<kind>)".
	Existing string
	Incoming string
}

// Error implements the error interface.
func (e *DependencyConflictError) Error() string {
	return fmt.Sprintf("dependency conflict on %q: %s vs %s", e.Package, e.Existing, e.Incoming)
}

// InsertionPointConflictError reports several fragments targeting the same
// insertion point (or the same output path) without all of them being
// declared commutative.
type InsertionPointConflictError struct {
	// Point is the insertion point name, or "file:<path>" for two fragments
	// contributing the same output file.
	Point string

	// Fragments lists the fragments involved, in canonical order.
	Fragments []string
}

// Error implements the error interface.
func (e *InsertionPointConflictError) Error() string {
	return fmt.Sprintf("insertion point %q is targeted by non-commutative fragments: %s",
		e.Point, strings.Join(e.Fragments, ", "))
}

// DanglingIncludeError reports an include directive whose target file is not
// part of the resolved (or rendered) tree.
type DanglingIncludeError struct {
	// Fragment is the fragment that declared the include. Empty when the
	// include was found by scanning a rendered tree.
	Fragment string

	// Source is the file holding the directive.
	Source string

	// Target is the tree-relative path the directive refers to.
	Target string
}

// Error implements the error interface.
func (e *DanglingIncludeError) Error() string {
	if e.Fragment != "" {
		return fmt.Sprintf("dangling include in %s (from fragment %s): %s is not part of the tree", e.Source, e.Fragment, e.Target)
	}
	return fmt.Sprintf("dangling include in %s: %s is not part of the tree", e.Source, e.Target)
}

// InvalidProjectNameError reports a project name that cannot be placed in the
// generated templates, such as one carrying Django template delimiters.
type InvalidProjectNameError struct {
	Name   string
	Reason string
}

// Error implements the error interface.
func (e *InvalidProjectNameError) Error() string {
	return fmt.Sprintf("invalid project name %q: %s", e.Name, e.Reason)
}
