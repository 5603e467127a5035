package model

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestStyleSolution_IsValid checks that only the catalog styles pass validation.
func TestStyleSolution_IsValid(t *testing.T) {
	assert.True(t, StyleTailwind.IsValid())
	assert.True(t, StyleDaisy.IsValid())
	assert.True(t, StyleBootstrap.IsValid())
	assert.False(t, StyleSolution("foo").IsValid())
	assert.False(t, StyleSolution("").IsValid())
	assert.False(t, StyleSolution("Tailwind").IsValid(), "values are case sensitive")
}

// TestJavaScriptSolution_IsValid checks that only the catalog frameworks pass validation.
func TestJavaScriptSolution_IsValid(t *testing.T) {
	assert.True(t, JSVanilla.IsValid())
	assert.True(t, JSHTMXAlpine.IsValid())
	assert.True(t, JSHotwire.IsValid())
	assert.False(t, JavaScriptSolution("react").IsValid())
	assert.False(t, JavaScriptSolution("").IsValid())
}

func TestConfigurationPoint_Value(t *testing.T) {
	p := ConfigurationPoint{ProjectSlug: "shop", Style: StyleDaisy, JavaScript: JSHotwire}

	assert.Equal(t, "daisy", p.Value(AxisStyle))
	assert.Equal(t, "hotwire", p.Value(AxisJavaScript))
	assert.Equal(t, "", p.Value(Axis("color_scheme")))
	assert.Equal(t, "shop[daisy+hotwire]", p.String())
}

func TestConfigurationPoint_Context(t *testing.T) {
	p := ConfigurationPoint{ProjectSlug: "test_frontend", Style: StyleTailwind, JavaScript: JSHTMXAlpine}

	assert.Equal(t, map[string]string{
		"project_slug":        "test_frontend",
		"style_solution":      "tailwind",
		"javascript_solution": "htmx_alpine",
	}, p.Context())
}

// TestConfigurationPoint_Comparable verifies that points can key a map,
// which the plan cache relies on.
func TestConfigurationPoint_Comparable(t *testing.T) {
	a := ConfigurationPoint{ProjectSlug: "x", Style: StyleTailwind, JavaScript: JSVanilla}
	b := ConfigurationPoint{ProjectSlug: "x", Style: StyleTailwind, JavaScript: JSVanilla}

	seen := map[ConfigurationPoint]bool{a: true}
	assert.True(t, seen[b])
}

// TestValidateSlug verifies slug validation rules with a table of inputs.
func TestValidateSlug(t *testing.T) {
	tests := []struct {
		slug   string
		valid  bool
		reason string
	}{
		{"test_frontend", true, ""},
		{"x", true, ""},
		{"my-app2", true, ""},
		{"", false, "empty"},
		{"a/b", false, "path separators"},
		{`a\b`, false, "path separators"},
		{"MyApp", false, "lowercase"},
		{"1app", false, "lowercase letter"},
		{"_app", false, "lowercase letter"},
		{"app name", false, "lowercase"},
		{"..", false, "lowercase letter"},
		{strings.Repeat("a", 215), false, "at most 214"},
		{strings.Repeat("a", 214), true, ""},
	}

	for _, tt := range tests {
		t.Run(tt.slug, func(t *testing.T) {
			err := ValidateSlug(tt.slug)
			if tt.valid {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			var slugErr *InvalidSlugError
			require.True(t, errors.As(err, &slugErr), "should be an InvalidSlugError")
			assert.Equal(t, tt.slug, slugErr.Slug)
			assert.Contains(t, slugErr.Reason, tt.reason)
		})
	}
}

func TestInvalidOptionError_Message(t *testing.T) {
	err := &InvalidOptionError{Axis: AxisStyle, Value: "foo", Allowed: []string{"tailwind", "daisy", "bootstrap"}}
	assert.Equal(t, `invalid option: style_solution="foo" (valid: tailwind, daisy, bootstrap)`, err.Error())

	unknownAxis := &InvalidOptionError{Axis: "color_scheme", Value: "dark"}
	assert.Contains(t, unknownAxis.Error(), `unknown axis "color_scheme"`)
}

func TestConflictErrors_Messages(t *testing.T) {
	dep := &DependencyConflictError{Package: "vite", Existing: "base: ^6.3.5 (dev)", Incoming: "style/tailwind: ^5.0.0 (dev)"}
	assert.Equal(t, `dependency conflict on "vite": base: ^6.3.5 (dev) vs style/tailwind: ^5.0.0 (dev)`, dep.Error())

	slot := &InsertionPointConflictError{Point: "vite.css", Fragments: []string{"style/bootstrap", "javascript/hotwire"}}
	assert.Contains(t, slot.Error(), `"vite.css"`)
	assert.Contains(t, slot.Error(), "style/bootstrap, javascript/hotwire")

	dangling := &DanglingIncludeError{Fragment: "javascript/hotwire", Source: "templates/base.html", Target: "templates/partials/_hello.html"}
	assert.Contains(t, dangling.Error(), "javascript/hotwire")
	assert.Contains(t, (&DanglingIncludeError{Source: "a", Target: "b"}).Error(), "dangling include in a: b")
}

// TestCLIError verifies the custom error type's behavior including
// error message formatting and unwrapping.
func TestCLIError(t *testing.T) {
	t.Run("without wrapped error", func(t *testing.T) {
		err := NewCLIError(ExitInvalidInput, "bad input")
		assert.Equal(t, "bad input", err.Error())
		assert.Equal(t, ExitInvalidInput, err.Code)
		assert.Nil(t, err.Unwrap())
	})

	t.Run("with wrapped error", func(t *testing.T) {
		inner := &InvalidSlugError{Slug: "", Reason: "must not be empty"}
		err := WrapCLIError(ExitInvalidInput, "invalid project", inner)
		assert.Equal(t, `invalid project: invalid project slug "": must not be empty`, err.Error())

		var slugErr *InvalidSlugError
		assert.True(t, errors.As(err, &slugErr), "errors.As should find the wrapped error")
	})
}
