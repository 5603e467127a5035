// Package model defines the domain types and value objects for the
// frontend-scaffold CLI.
//
// This package contains pure data structures with no external dependencies:
// the configuration axes and their values, the ConfigurationPoint a scaffold
// request resolves to, and the typed errors raised while validating input and
// resolving fragments.
//
// The package also defines exit codes (ExitCode) and a custom error type
// (CLIError) that carries exit codes for proper OS process exit handling.
package model
