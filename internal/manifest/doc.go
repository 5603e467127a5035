// Package manifest composes and inspects the package.json of a generated
// project, and checks that a rendered tree has no dangling references.
//
// The package.json base shipped with the fragments is JSONC (JSON with
// Comments), so every read goes through github.com/tidwall/jsonc before
// encoding/json sees it. Composition is map-based: fields of the base that
// this package does not know about are preserved verbatim.
package manifest
