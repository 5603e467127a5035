package manifest

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/tidwall/jsonc"
)

// FileName is the manifest file at the root of a generated project.
const FileName = "package.json"

// Section names inside package.json.
const (
	SectionDependencies    = "dependencies"
	SectionDevDependencies = "devDependencies"
)

// Metadata is the subset of package.json the documentation layer reads.
type Metadata struct {
	Name    string `json:"name" yaml:"name"`
	Version string `json:"version" yaml:"version"`
}

// PackageJSON is the typed view of a generated package.json. Only the fields
// the verifier inspects are modelled.
type PackageJSON struct {
	Name            string            `json:"name"`
	Version         string            `json:"version"`
	Private         bool              `json:"private"`
	Type            string            `json:"type"`
	Scripts         map[string]string `json:"scripts"`
	Dependencies    map[string]string `json:"dependencies"`
	DevDependencies map[string]string `json:"devDependencies"`
}

// ComposePackageJSON takes the raw JSONC base, sets the package name and
// fills the dependency sections, and returns formatted JSON.
//
// The function works in three phases:
//  1. Strip JSONC comments and trailing commas, parse into a generic map
//  2. Apply the project name and the two dependency sections
//  3. Re-serialize with 2-space indentation and a trailing newline
//
// encoding/json writes map keys in sorted order, so the output is byte-for-
// byte stable for equal inputs. Empty sections are omitted.
func ComposePackageJSON(raw []byte, name string, runtime, dev map[string]string) ([]byte, error) {
	// Phase 1: parse the base.
	var doc map[string]interface{}
	if err := json.Unmarshal(jsonc.ToJSON(raw), &doc); err != nil {
		return nil, fmt.Errorf("failed to parse package.json base: %w", err)
	}
	if doc == nil {
		return nil, fmt.Errorf("package.json base must be a JSON object")
	}

	// Phase 2: apply the project values.
	doc["name"] = name
	if err := applySection(doc, SectionDependencies, runtime); err != nil {
		return nil, err
	}
	if err := applySection(doc, SectionDevDependencies, dev); err != nil {
		return nil, err
	}

	// Phase 3: serialize.
	out, err := json.MarshalIndent(doc, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("failed to serialize package.json: %w", err)
	}
	return append(out, '\n'), nil
}

// applySection merges entries into the named section. A package pinned by
// the base and by the plan must carry the same version.
func applySection(doc map[string]interface{}, section string, entries map[string]string) error {
	merged := make(map[string]interface{})
	if existing, ok := doc[section].(map[string]interface{}); ok {
		for k, v := range existing {
			merged[k] = v
		}
	}
	for k, v := range entries {
		if prev, ok := merged[k]; ok && prev != v {
			return fmt.Errorf("package.json base pins %s %v in %s, plan wants %s", k, prev, section, v)
		}
		merged[k] = v
	}
	if len(merged) == 0 {
		delete(doc, section)
		return nil
	}
	doc[section] = merged
	return nil
}

// ParsePackageJSON decodes package.json bytes. JSONC input is accepted.
func ParsePackageJSON(data []byte) (*PackageJSON, error) {
	var pkg PackageJSON
	if err := json.Unmarshal(jsonc.ToJSON(data), &pkg); err != nil {
		return nil, fmt.Errorf("failed to parse package.json: %w", err)
	}
	return &pkg, nil
}

// LoadPackageJSON reads and decodes <root>/package.json.
func LoadPackageJSON(root string) (*PackageJSON, error) {
	path := filepath.Join(root, FileName)
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return ParsePackageJSON(data)
}

// ReadMetadata returns the package name and version of the project rooted at
// root. The documentation build reads its release string from here.
func ReadMetadata(root string) (Metadata, error) {
	pkg, err := LoadPackageJSON(root)
	if err != nil {
		return Metadata{}, err
	}
	if pkg.Version == "" {
		return Metadata{}, fmt.Errorf("%s has no version", filepath.Join(root, FileName))
	}
	return Metadata{Name: pkg.Name, Version: pkg.Version}, nil
}
