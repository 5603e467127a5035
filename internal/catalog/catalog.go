// Package catalog holds the closed enumeration of configuration values the
// scaffolder accepts, and turns raw input into validated ConfigurationPoints.
//
// The catalog is built once at process start and never mutated afterwards,
// so concurrent readers need no locking.
package catalog

import (
	"fmt"
	"strings"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// DefaultSlug is the project slug used when none is supplied.
const DefaultSlug = "test_frontend"

// Catalog maps each axis to its ordered set of allowed values, plus a
// default value per axis.
type Catalog struct {
	axes     []model.Axis
	values   map[model.Axis][]string
	defaults map[model.Axis]string
}

// Default returns the catalog shipped with the binary. Axis order is fixed:
// style first, then JavaScript; resolution and matrix expansion follow it.
func Default() *Catalog {
	return &Catalog{
		axes: []model.Axis{model.AxisStyle, model.AxisJavaScript},
		values: map[model.Axis][]string{
			model.AxisStyle: {
				model.StyleTailwind.String(),
				model.StyleDaisy.String(),
				model.StyleBootstrap.String(),
			},
			model.AxisJavaScript: {
				model.JSVanilla.String(),
				model.JSHTMXAlpine.String(),
				model.JSHotwire.String(),
			},
		},
		defaults: map[model.Axis]string{
			model.AxisStyle:      model.StyleTailwind.String(),
			model.AxisJavaScript: model.JSHTMXAlpine.String(),
		},
	}
}

// Axes returns the axes in their fixed resolution order.
func (c *Catalog) Axes() []model.Axis {
	out := make([]model.Axis, len(c.axes))
	copy(out, c.axes)
	return out
}

// IsValid reports whether value is a member of axis.
func (c *Catalog) IsValid(axis model.Axis, value string) bool {
	for _, v := range c.values[axis] {
		if v == value {
			return true
		}
	}
	return false
}

// AllValues returns the allowed values of axis in catalog order. The slice
// is a copy. An unknown axis yields an *model.InvalidOptionError.
func (c *Catalog) AllValues(axis model.Axis) ([]string, error) {
	vals, ok := c.values[axis]
	if !ok {
		return nil, &model.InvalidOptionError{Axis: axis}
	}
	out := make([]string, len(vals))
	copy(out, vals)
	return out, nil
}

// Default returns the default value of axis, or "" for an unknown axis.
func (c *Catalog) Default(axis model.Axis) string {
	return c.defaults[axis]
}

// Validate returns an *model.InvalidOptionError naming the axis and the
// offending value when value is not a member of axis.
func (c *Catalog) Validate(axis model.Axis, value string) error {
	vals, ok := c.values[axis]
	if !ok {
		return &model.InvalidOptionError{Axis: axis, Value: value}
	}
	if !c.IsValid(axis, value) {
		allowed := make([]string, len(vals))
		copy(allowed, vals)
		return &model.InvalidOptionError{Axis: axis, Value: value, Allowed: allowed}
	}
	return nil
}

// ValidateSlug checks the project identifier rules. It is a thin alias of
// model.ValidateSlug so callers only need the catalog.
func (c *Catalog) ValidateSlug(slug string) error {
	return model.ValidateSlug(slug)
}

// Point validates the three inputs and returns the ConfigurationPoint they
// name. The slug is checked first, matching the order a user fills in the
// prompts.
func (c *Catalog) Point(slug, style, javascript string) (model.ConfigurationPoint, error) {
	if err := c.ValidateSlug(slug); err != nil {
		return model.ConfigurationPoint{}, err
	}
	if err := c.Validate(model.AxisStyle, style); err != nil {
		return model.ConfigurationPoint{}, err
	}
	if err := c.Validate(model.AxisJavaScript, javascript); err != nil {
		return model.ConfigurationPoint{}, err
	}
	return model.ConfigurationPoint{
		ProjectSlug: slug,
		Style:       model.StyleSolution(style),
		JavaScript:  model.JavaScriptSolution(javascript),
	}, nil
}

// PointFromContext builds a point from the flat input mapping produced by
// the prompting layer. Missing axis keys fall back to the catalog defaults;
// a missing slug is reported as empty. Unknown keys are rejected so a typo
// such as "styles_solution" does not silently pick the default.
func (c *Catalog) PointFromContext(ctx map[string]string) (model.ConfigurationPoint, error) {
	for key := range ctx {
		if key == "project_slug" || key == "project_name" {
			continue
		}
		if _, ok := c.values[model.Axis(key)]; !ok {
			return model.ConfigurationPoint{}, &model.InvalidOptionError{Axis: model.Axis(key), Value: ctx[key]}
		}
	}

	style, ok := ctx[model.AxisStyle.String()]
	if !ok {
		style = c.Default(model.AxisStyle)
	}
	javascript, ok := ctx[model.AxisJavaScript.String()]
	if !ok {
		javascript = c.Default(model.AxisJavaScript)
	}
	return c.Point(strings.TrimSpace(ctx["project_slug"]), style, javascript)
}

// Exhaustive returns the full cross product of all axis values, style-major.
// Each point gets the slug "<prefix>_<style>_<javascript>" so pipelines never
// share an output directory.
func (c *Catalog) Exhaustive(prefix string) []model.ConfigurationPoint {
	var points []model.ConfigurationPoint
	for _, style := range c.values[model.AxisStyle] {
		for _, js := range c.values[model.AxisJavaScript] {
			points = append(points, c.sampledPoint(prefix, style, js))
		}
	}
	return points
}

// Sample returns the representative subset: every style with the default
// JavaScript solution, then every JavaScript solution with the default
// style. The point where both defaults meet appears once.
func (c *Catalog) Sample(prefix string) []model.ConfigurationPoint {
	seen := make(map[model.ConfigurationPoint]bool)
	var points []model.ConfigurationPoint
	add := func(p model.ConfigurationPoint) {
		if !seen[p] {
			seen[p] = true
			points = append(points, p)
		}
	}

	for _, style := range c.values[model.AxisStyle] {
		add(c.sampledPoint(prefix, style, c.Default(model.AxisJavaScript)))
	}
	for _, js := range c.values[model.AxisJavaScript] {
		add(c.sampledPoint(prefix, c.Default(model.AxisStyle), js))
	}
	return points
}

func (c *Catalog) sampledPoint(prefix, style, js string) model.ConfigurationPoint {
	return model.ConfigurationPoint{
		ProjectSlug: fmt.Sprintf("%s_%s_%s", prefix, style, js),
		Style:       model.StyleSolution(style),
		JavaScript:  model.JavaScriptSolution(js),
	}
}
