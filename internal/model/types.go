package model

import (
	"fmt"
	"regexp"
	"strings"
)

// Axis names one dimension of the option space. The string values match the
// keys of the input context handed over by the prompting layer.
type Axis string

const (
	// AxisStyle selects the visual-styling framework.
	AxisStyle Axis = "style_solution"

	// AxisJavaScript selects the JavaScript-interactivity framework.
	AxisJavaScript Axis = "javascript_solution"
)

// String returns the string representation of Axis.
func (a Axis) String() string {
	return string(a)
}

// StyleSolution is a value on the style_solution axis.
type StyleSolution string

const (
	// StyleTailwind wires Tailwind CSS through its Vite plugin.
	StyleTailwind StyleSolution = "tailwind"

	// StyleDaisy wires Tailwind CSS plus the daisyUI component plugin.
	StyleDaisy StyleSolution = "daisy"

	// StyleBootstrap wires Bootstrap compiled from SCSS sources.
	StyleBootstrap StyleSolution = "bootstrap"
)

// String returns the string representation of StyleSolution.
func (s StyleSolution) String() string {
	return string(s)
}

// IsValid checks whether the StyleSolution value is one of the
// predefined styling frameworks.
func (s StyleSolution) IsValid() bool {
	switch s {
	case StyleTailwind, StyleDaisy, StyleBootstrap:
		return true
	default:
		return false
	}
}

// JavaScriptSolution is a value on the javascript_solution axis.
type JavaScriptSolution string

const (
	// JSVanilla ships plain ES modules without a framework. The value keeps
	// the historical "valinajs" spelling because it is part of the input
	// contract.
	JSVanilla JavaScriptSolution = "valinajs"

	// JSHTMXAlpine wires htmx for server round-trips and Alpine.js for
	// client-side state.
	JSHTMXAlpine JavaScriptSolution = "htmx_alpine"

	// JSHotwire wires Turbo and Stimulus.
	JSHotwire JavaScriptSolution = "hotwire"
)

// String returns the string representation of JavaScriptSolution.
func (j JavaScriptSolution) String() string {
	return string(j)
}

// IsValid checks whether the JavaScriptSolution value is one of the
// predefined interactivity frameworks.
func (j JavaScriptSolution) IsValid() bool {
	switch j {
	case JSVanilla, JSHTMXAlpine, JSHotwire:
		return true
	default:
		return false
	}
}

// ConfigurationPoint is one point in the option space: a project identifier
// plus one value per axis. It is a comparable value type so it can key maps
// and caches; it is never mutated after construction.
type ConfigurationPoint struct {
	// ProjectSlug names the output directory and the npm package.
	ProjectSlug string `json:"project_slug" yaml:"project_slug"`

	// Style is the selected styling framework.
	Style StyleSolution `json:"style_solution" yaml:"style_solution"`

	// JavaScript is the selected interactivity framework.
	JavaScript JavaScriptSolution `json:"javascript_solution" yaml:"javascript_solution"`
}

// Value returns the point's value on the given axis, or "" for an unknown axis.
func (p ConfigurationPoint) Value(axis Axis) string {
	switch axis {
	case AxisStyle:
		return string(p.Style)
	case AxisJavaScript:
		return string(p.JavaScript)
	default:
		return ""
	}
}

// String returns a compact "slug[style+js]" form used in logs and errors.
func (p ConfigurationPoint) String() string {
	return fmt.Sprintf("%s[%s+%s]", p.ProjectSlug, p.Style, p.JavaScript)
}

// Context returns the point as the flat key/value mapping the template
// layer and the prompting layer exchange.
func (p ConfigurationPoint) Context() map[string]string {
	return map[string]string{
		"project_slug":          p.ProjectSlug,
		AxisStyle.String():      string(p.Style),
		AxisJavaScript.String(): string(p.JavaScript),
	}
}

// maxSlugLength mirrors the npm package-name length limit, since the slug
// becomes the "name" field of the generated package.json.
const maxSlugLength = 214

// slugRegex validates project slugs: lowercase letter first, then lowercase
// letters, digits, underscores and hyphens. This keeps the slug usable as a
// directory name, an npm package name and a template identifier.
var slugRegex = regexp.MustCompile(`^[a-z][a-z0-9_-]*$`)

// ValidateSlug checks if the given slug is a valid project identifier.
// It returns an *InvalidSlugError describing the first violated rule.
func ValidateSlug(slug string) error {
	switch {
	case slug == "":
		return &InvalidSlugError{Slug: slug, Reason: "must not be empty"}
	case strings.ContainsAny(slug, `/\`):
		return &InvalidSlugError{Slug: slug, Reason: "must not contain path separators"}
	case len(slug) > maxSlugLength:
		return &InvalidSlugError{Slug: slug, Reason: fmt.Sprintf("must be at most %d characters", maxSlugLength)}
	case !slugRegex.MatchString(slug):
		return &InvalidSlugError{Slug: slug, Reason: "must start with a lowercase letter and contain only lowercase letters, digits, '_' and '-'"}
	}
	return nil
}

// ExitCode defines standard CLI exit codes. These codes allow scripts and CI
// systems to programmatically determine the outcome of a command.
type ExitCode int

const (
	// ExitSuccess indicates the command completed successfully.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitInvalidInput indicates an unknown option value or a bad slug.
	ExitInvalidInput ExitCode = 2

	// ExitResolutionConflict indicates the active fragments for a point
	// disagree (dependency pins, insertion points, includes).
	ExitResolutionConflict ExitCode = 3

	// ExitRenderFailed indicates the template tree could not be materialized.
	ExitRenderFailed ExitCode = 4

	// ExitVerificationFailed indicates at least one verifier pipeline did not
	// reach the verified state.
	ExitVerificationFailed ExitCode = 5

	// ExitDockerNotRunning indicates the Docker daemon is not accessible.
	ExitDockerNotRunning ExitCode = 6

	// ExitUserCancelled indicates the user cancelled an interactive prompt.
	ExitUserCancelled ExitCode = 7
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
