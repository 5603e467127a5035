// Package render writes a resolved plan to disk as a project tree.
//
// Rendering is delegated to github.com/choria-io/scaffold: the plan is turned
// into the nested source map the scaffolder expects, every file is executed
// as a text/template with the project context, and the shared base files pull
// their fragment snippets in through the "slot" template function.
package render

import (
	"context"
	"errors"
	"fmt"
	"html"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"text/template"
	"unicode"

	"github.com/choria-io/scaffold"
	"github.com/microcosm-cc/bluemonday"

	"github.com/mmr-tortoise/frontend-scaffold/internal/fragment"
	"github.com/mmr-tortoise/frontend-scaffold/internal/manifest"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
)

// ErrTargetExists is returned when the project directory is already present.
// Rendering never merges into or overwrites an existing tree.
var ErrTargetExists = errors.New("target directory already exists")

// Request describes one render.
type Request struct {
	// Plan is the resolved plan to write.
	Plan *resolver.Plan

	// OutputDir is the parent directory; the project is written to
	// OutputDir/<project_slug>.
	OutputDir string

	// ProjectName is the human-readable name shown in markup. Defaults to
	// the slug. See ProjectName for the accepted form.
	ProjectName string
}

// Tree is a rendered project on disk.
type Tree struct {
	// Root is the project directory.
	Root string `json:"root" yaml:"root"`

	// Files lists every written file relative to Root, slash-separated and
	// sorted.
	Files []string `json:"files" yaml:"files"`
}

// Renderer writes plans to disk.
type Renderer interface {
	Render(ctx context.Context, req Request) (*Tree, error)
}

// Scaffold renders plans with choria-io/scaffold.
type Scaffold struct {
	templates fs.FS
	slots     map[string]bool
}

// NewScaffold returns a renderer reading file sources from templates.
// Templates may only reference the given insertion points.
func NewScaffold(templates fs.FS, slots []string) *Scaffold {
	known := make(map[string]bool, len(slots))
	for _, s := range slots {
		known[s] = true
	}
	return &Scaffold{
		templates: templates,
		slots:     known,
	}
}

// NewDefault returns a renderer over the embedded fragment templates.
func NewDefault() *Scaffold {
	return NewScaffold(fragment.Templates(), fragment.Slots)
}

// Render writes req.Plan below req.OutputDir. On any failure the partially
// written project directory is removed.
func (s *Scaffold) Render(ctx context.Context, req Request) (*Tree, error) {
	if req.Plan == nil {
		return nil, fmt.Errorf("render: no plan")
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	slug := req.Plan.Point.ProjectSlug
	root := filepath.Join(req.OutputDir, slug)
	if _, err := os.Stat(root); err == nil {
		return nil, fmt.Errorf("%s: %w", root, ErrTargetExists)
	} else if !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("failed to inspect %s: %w", root, err)
	}
	if err := os.MkdirAll(req.OutputDir, 0o755); err != nil {
		return nil, fmt.Errorf("failed to create output directory %s: %w", req.OutputDir, err)
	}

	tree, err := s.render(ctx, req, root)
	if err != nil {
		_ = os.RemoveAll(root)
		return nil, err
	}
	return tree, nil
}

func (s *Scaffold) render(ctx context.Context, req Request, root string) (*Tree, error) {
	plan := req.Plan

	data, err := s.context(req)
	if err != nil {
		return nil, err
	}
	source, err := s.sourceTree(plan)
	if err != nil {
		return nil, err
	}

	sc, err := scaffold.New(scaffold.Config{
		TargetDirectory: root,
		Source:          source,
	}, template.FuncMap{
		"slot": s.slotFunc(plan),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to prepare scaffold for %s: %w", plan.Point, err)
	}
	if err := sc.Render(data); err != nil {
		return nil, fmt.Errorf("failed to render %s: %w", plan.Point, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	if err := s.check(plan, root); err != nil {
		return nil, err
	}

	files, err := listFiles(root)
	if err != nil {
		return nil, err
	}
	return &Tree{Root: root, Files: files}, nil
}

// sourceTree converts the plan's flat file list into the nested map the
// scaffolder walks: directories are map[string]any, files are strings.
func (s *Scaffold) sourceTree(plan *resolver.Plan) (map[string]any, error) {
	root := make(map[string]any)
	for _, f := range plan.Files {
		content, err := s.content(plan, f)
		if err != nil {
			return nil, err
		}

		parts := strings.Split(f.Path, "/")
		dir := root
		for _, part := range parts[:len(parts)-1] {
			next, ok := dir[part].(map[string]any)
			if !ok {
				if _, isFile := dir[part]; isFile {
					return nil, fmt.Errorf("plan for %s uses %q as both file and directory", plan.Point, part)
				}
				next = make(map[string]any)
				dir[part] = next
			}
			dir = next
		}
		dir[parts[len(parts)-1]] = content
	}
	return root, nil
}

func (s *Scaffold) content(plan *resolver.Plan, f resolver.PlannedFile) (string, error) {
	raw, err := fs.ReadFile(s.templates, f.Source)
	if err != nil {
		return "", fmt.Errorf("failed to read template %s for %s: %w", f.Source, f.Path, err)
	}
	if f.Kind != fragment.Manifest {
		return string(raw), nil
	}
	composed, err := manifest.ComposePackageJSON(raw, plan.Point.ProjectSlug,
		plan.DependencySection(fragment.Runtime),
		plan.DependencySection(fragment.Dev))
	if err != nil {
		return "", err
	}
	return string(composed), nil
}

// slotFunc returns the "slot" template function bound to plan. Naming an
// insertion point that does not exist fails the render.
func (s *Scaffold) slotFunc(plan *resolver.Plan) func(string) (string, error) {
	return func(name string) (string, error) {
		if !s.slots[name] {
			return "", fmt.Errorf("unknown insertion point %q", name)
		}
		return plan.SlotContent(name), nil
	}
}

// templateDelimiters open or close Django template tags, variables and
// comments. A name carrying one would change the meaning of the template it
// is written into.
var templateDelimiters = []string{"{%", "%}", "{{", "}}", "{#", "#}"}

// ProjectName returns raw as plain text fit for every generated file: markup
// is stripped, entities are decoded and surrounding space is trimmed. An
// empty result falls back to slug. Names containing template delimiters or
// control characters are rejected with *model.InvalidProjectNameError.
//
// HTML templates escape the name themselves with the "html" function.
func ProjectName(raw, slug string) (string, error) {
	name := strings.TrimSpace(html.UnescapeString(bluemonday.StrictPolicy().Sanitize(raw)))
	if name == "" {
		return slug, nil
	}
	for _, d := range templateDelimiters {
		if strings.Contains(name, d) {
			return "", &model.InvalidProjectNameError{Name: raw, Reason: fmt.Sprintf("contains template delimiter %q", d)}
		}
	}
	if strings.IndexFunc(name, unicode.IsControl) >= 0 {
		return "", &model.InvalidProjectNameError{Name: raw, Reason: "contains control characters"}
	}
	return name, nil
}

// context is the data every template is executed with.
func (s *Scaffold) context(req Request) (map[string]any, error) {
	p := req.Plan.Point
	name, err := ProjectName(req.ProjectName, p.ProjectSlug)
	if err != nil {
		return nil, err
	}
	data := map[string]any{"project_name": name}
	for k, v := range p.Context() {
		data[k] = v
	}
	return data, nil
}

// check validates the written tree: the manifest must be usable by the build
// and every include or relative import must resolve.
func (s *Scaffold) check(plan *resolver.Plan, root string) error {
	if _, ok := plan.File(manifest.FileName); ok {
		pkg, err := manifest.LoadPackageJSON(root)
		if err != nil {
			return err
		}
		if errs := manifest.ValidatePackageJSON(pkg, plan.Point.ProjectSlug); len(errs) > 0 {
			return &errs[0]
		}
	}
	return manifest.CheckReferences(root)
}

func listFiles(root string) ([]string, error) {
	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, path)
		if err != nil {
			return err
		}
		files = append(files, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", root, err)
	}
	sort.Strings(files)
	return files, nil
}
