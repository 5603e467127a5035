package catalog

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

func TestDefault_AxesAndValues(t *testing.T) {
	c := Default()

	assert.Equal(t, []model.Axis{model.AxisStyle, model.AxisJavaScript}, c.Axes())

	styles, err := c.AllValues(model.AxisStyle)
	require.NoError(t, err)
	assert.Equal(t, []string{"tailwind", "daisy", "bootstrap"}, styles)

	scripts, err := c.AllValues(model.AxisJavaScript)
	require.NoError(t, err)
	assert.Equal(t, []string{"valinajs", "htmx_alpine", "hotwire"}, scripts)

	assert.Equal(t, "tailwind", c.Default(model.AxisStyle))
	assert.Equal(t, "htmx_alpine", c.Default(model.AxisJavaScript))
}

// TestAllValues_ReturnsCopy verifies that callers cannot mutate the catalog.
func TestAllValues_ReturnsCopy(t *testing.T) {
	c := Default()

	vals, err := c.AllValues(model.AxisStyle)
	require.NoError(t, err)
	vals[0] = "mutated"

	again, err := c.AllValues(model.AxisStyle)
	require.NoError(t, err)
	assert.Equal(t, "tailwind", again[0])
}

func TestAllValues_UnknownAxis(t *testing.T) {
	_, err := Default().AllValues("color_scheme")

	var optErr *model.InvalidOptionError
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, model.Axis("color_scheme"), optErr.Axis)
}

// TestCatalogValuesMatchModelEnums keeps the catalog and the typed enums in sync.
func TestCatalogValuesMatchModelEnums(t *testing.T) {
	c := Default()

	styles, _ := c.AllValues(model.AxisStyle)
	for _, s := range styles {
		assert.True(t, model.StyleSolution(s).IsValid(), "style %q should be a valid enum", s)
	}
	scripts, _ := c.AllValues(model.AxisJavaScript)
	for _, j := range scripts {
		assert.True(t, model.JavaScriptSolution(j).IsValid(), "javascript %q should be a valid enum", j)
	}
}

func TestIsValid(t *testing.T) {
	c := Default()

	assert.True(t, c.IsValid(model.AxisStyle, "daisy"))
	assert.True(t, c.IsValid(model.AxisJavaScript, "hotwire"))
	assert.False(t, c.IsValid(model.AxisStyle, "hotwire"), "values do not cross axes")
	assert.False(t, c.IsValid(model.AxisStyle, "foo"))
	assert.False(t, c.IsValid("color_scheme", "dark"))
}

func TestValidate(t *testing.T) {
	c := Default()

	require.NoError(t, c.Validate(model.AxisStyle, "bootstrap"))

	err := c.Validate(model.AxisStyle, "foo")
	var optErr *model.InvalidOptionError
	require.True(t, errors.As(err, &optErr))
	assert.Equal(t, model.AxisStyle, optErr.Axis)
	assert.Equal(t, "foo", optErr.Value)
	assert.Equal(t, []string{"tailwind", "daisy", "bootstrap"}, optErr.Allowed)
}

// TestPointFromContext_RejectsBadInput covers the two validation examples
// every front end must honour.
func TestPointFromContext_RejectsBadInput(t *testing.T) {
	c := Default()

	t.Run("empty slug", func(t *testing.T) {
		_, err := c.PointFromContext(map[string]string{
			"project_slug":        "",
			"style_solution":      "tailwind",
			"javascript_solution": "valinajs",
		})
		var slugErr *model.InvalidSlugError
		assert.True(t, errors.As(err, &slugErr), "expected InvalidSlugError, got %v", err)
	})

	t.Run("unknown style", func(t *testing.T) {
		_, err := c.PointFromContext(map[string]string{
			"project_slug":        "x",
			"style_solution":      "foo",
			"javascript_solution": "valinajs",
		})
		var optErr *model.InvalidOptionError
		require.True(t, errors.As(err, &optErr), "expected InvalidOptionError, got %v", err)
		assert.Equal(t, model.AxisStyle, optErr.Axis)
		assert.Equal(t, "foo", optErr.Value)
	})

	t.Run("unknown key", func(t *testing.T) {
		_, err := c.PointFromContext(map[string]string{
			"project_slug":    "x",
			"styles_solution": "tailwind",
		})
		var optErr *model.InvalidOptionError
		require.True(t, errors.As(err, &optErr))
		assert.Equal(t, model.Axis("styles_solution"), optErr.Axis)
	})
}

func TestPointFromContext_Defaults(t *testing.T) {
	p, err := Default().PointFromContext(map[string]string{"project_slug": "test_frontend"})
	require.NoError(t, err)

	assert.Equal(t, model.ConfigurationPoint{
		ProjectSlug: "test_frontend",
		Style:       model.StyleTailwind,
		JavaScript:  model.JSHTMXAlpine,
	}, p)
}

func TestExhaustive(t *testing.T) {
	points := Default().Exhaustive("test")

	require.Len(t, points, 9)
	assert.Equal(t, "test_tailwind_valinajs", points[0].ProjectSlug)
	assert.Equal(t, "test_bootstrap_hotwire", points[8].ProjectSlug)

	slugs := make(map[string]bool)
	for _, p := range points {
		require.NoError(t, model.ValidateSlug(p.ProjectSlug))
		slugs[p.ProjectSlug] = true
	}
	assert.Len(t, slugs, 9, "every point should get a distinct slug")
}

// TestSample verifies the one-axis-at-a-time sample: 3 styles + 3 scripts
// minus the shared default point.
func TestSample(t *testing.T) {
	points := Default().Sample("test")

	require.Len(t, points, 5)
	for _, p := range points {
		assert.True(t, p.Style == model.StyleTailwind || p.JavaScript == model.JSHTMXAlpine,
			"%s should hold one axis at its default", p)
	}
}
