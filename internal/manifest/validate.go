package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"regexp"
	"strings"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

// ValidationError represents a specific validation failure in a generated
// package.json.
type ValidationError struct {
	// Field is the JSON field that failed validation (e.g., "scripts.build").
	Field string

	// Message describes what's wrong with the field value.
	Message string
}

// Error implements the error interface for ValidationError.
func (e *ValidationError) Error() string {
	return fmt.Sprintf("package.json validation error: %s: %s", e.Field, e.Message)
}

// ValidatePackageJSON checks a generated package.json against the
// expectations of the build pipeline. It returns every failure found
// (empty list = valid).
//
// Checks performed:
//   - name equals the project slug
//   - version is set
//   - scripts.build exists, since the verifier runs `npm run build`
//   - no package appears in both dependencies and devDependencies
func ValidatePackageJSON(pkg *PackageJSON, slug string) []ValidationError {
	var errs []ValidationError

	if pkg.Name != slug {
		errs = append(errs, ValidationError{
			Field:   "name",
			Message: fmt.Sprintf("expected %q, got %q", slug, pkg.Name),
		})
	}
	if pkg.Version == "" {
		errs = append(errs, ValidationError{Field: "version", Message: "must be set"})
	}
	if pkg.Scripts["build"] == "" {
		errs = append(errs, ValidationError{Field: "scripts.build", Message: "must be set"})
	}
	for name := range pkg.Dependencies {
		if _, dup := pkg.DevDependencies[name]; dup {
			errs = append(errs, ValidationError{
				Field:   SectionDependencies + "." + name,
				Message: "also listed in devDependencies",
			})
		}
	}
	return errs
}

// Reference patterns scanned in a rendered tree. Only relative imports are
// checked; bare specifiers resolve through node_modules.
var (
	djangoIncludeRe = regexp.MustCompile(`\{%\s*(?:include|extends)\s+["']([^"']+)["']`)
	viteAssetRe     = regexp.MustCompile(`\{%\s*vite_asset\s+["']([^"']+)["']`)
	jsImportRe      = regexp.MustCompile(`(?m)^\s*(?:import|export)\s+(?:[^"';]*?\s+from\s+)?["'](\.{1,2}/[^"']+)["']`)
	cssImportRe     = regexp.MustCompile(`(?m)^\s*@(?:import|use|forward)\s+["'](\.{1,2}/[^"']+)["']`)
)

// Directories under the project root that are never scanned.
var skipDirs = map[string]bool{
	"node_modules": true,
	"public":       true,
	".git":         true,
}

// CheckReferences walks a rendered tree and verifies that every include
// directive and every relative import names a file inside the tree:
//   - {% include %} and {% extends %} in *.html, relative to templates/
//   - {% vite_asset %} in *.html, relative to the project root
//   - relative import/export specifiers in *.js
//   - relative @import/@use/@forward in *.css and *.scss
//
// The first dangling reference in lexical walk order is returned as a
// *model.DanglingIncludeError with tree-relative paths.
func CheckReferences(root string) error {
	fsys := os.DirFS(root)
	var dangling error

	err := fs.WalkDir(fsys, ".", func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if d.IsDir() {
			if p != "." && skipDirs[d.Name()] {
				return fs.SkipDir
			}
			return nil
		}

		targets, err := referencesIn(fsys, p)
		if err != nil {
			return err
		}
		for _, target := range targets {
			if !exists(fsys, target) {
				dangling = &model.DanglingIncludeError{Source: p, Target: target}
				return fs.SkipAll
			}
		}
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to scan %s: %w", root, err)
	}
	return dangling
}

// referencesIn returns the tree-relative targets referenced by file p.
func referencesIn(fsys fs.FS, p string) ([]string, error) {
	ext := path.Ext(p)
	if ext != ".html" && ext != ".js" && ext != ".css" && ext != ".scss" {
		return nil, nil
	}
	data, err := fs.ReadFile(fsys, p)
	if err != nil {
		return nil, err
	}
	content := string(data)

	var targets []string
	switch ext {
	case ".html":
		for _, m := range djangoIncludeRe.FindAllStringSubmatch(content, -1) {
			targets = append(targets, path.Join("templates", m[1]))
		}
		for _, m := range viteAssetRe.FindAllStringSubmatch(content, -1) {
			targets = append(targets, path.Clean(m[1]))
		}
	case ".js":
		for _, m := range jsImportRe.FindAllStringSubmatch(content, -1) {
			targets = append(targets, path.Join(path.Dir(p), m[1]))
		}
	default:
		for _, m := range cssImportRe.FindAllStringSubmatch(content, -1) {
			targets = append(targets, path.Join(path.Dir(p), m[1]))
		}
	}
	return targets, nil
}

// exists reports whether target is a regular file inside the tree. Sass
// partial resolution ("_name.scss") and extensionless imports are honoured.
func exists(fsys fs.FS, target string) bool {
	if strings.HasPrefix(target, "../") || target == ".." {
		return false
	}
	candidates := []string{target}
	if path.Ext(target) == "" {
		dir, base := path.Split(target)
		for _, ext := range []string{".js", ".css", ".scss"} {
			candidates = append(candidates, target+ext, dir+"_"+base+ext)
		}
	}
	for _, c := range candidates {
		if info, err := fs.Stat(fsys, filepath.ToSlash(c)); err == nil && info.Mode().IsRegular() {
			return true
		}
	}
	return false
}
