package render

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/manifest"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
	"github.com/mmr-tortoise/frontend-scaffold/internal/resolver"
)

func resolve(t *testing.T, p model.ConfigurationPoint) *resolver.Plan {
	t.Helper()
	r, err := resolver.NewDefault()
	require.NoError(t, err)
	plan, err := r.Resolve(p)
	require.NoError(t, err)
	return plan
}

func readFile(t *testing.T, root, rel string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(root, filepath.FromSlash(rel)))
	require.NoError(t, err)
	return string(data)
}

// TestRender_FullMatrix renders every catalog combination and checks the
// trees are complete and free of template leftovers.
func TestRender_FullMatrix(t *testing.T) {
	out := t.TempDir()
	renderer := NewDefault()

	for _, p := range catalog.Default().Exhaustive("m") {
		t.Run(p.String(), func(t *testing.T) {
			plan := resolve(t, p)

			tree, err := renderer.Render(context.Background(), Request{Plan: plan, OutputDir: out})
			require.NoError(t, err)

			assert.Equal(t, filepath.Join(out, p.ProjectSlug), tree.Root)
			assert.Equal(t, plan.Paths(), tree.Files, "the tree holds exactly the planned files")

			for _, f := range tree.Files {
				assert.NotContains(t, readFile(t, tree.Root, f), "{{", "%s has unrendered actions", f)
			}

			pkg, err := manifest.LoadPackageJSON(tree.Root)
			require.NoError(t, err)
			assert.Equal(t, p.ProjectSlug, pkg.Name)
			assert.Equal(t, "vite build", pkg.Scripts["build"])
			assert.Contains(t, pkg.DevDependencies, "vite")

			base := readFile(t, tree.Root, "templates/base.html")
			assert.Contains(t, base, "{% vite_asset 'src/application/app.js' %}")

			assert.NoError(t, manifest.CheckReferences(tree.Root))
		})
	}
}

func TestRender_SlotsFilled(t *testing.T) {
	out := t.TempDir()
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "shop", Style: model.StyleDaisy, JavaScript: model.JSHTMXAlpine})

	tree, err := NewDefault().Render(context.Background(), Request{Plan: plan, OutputDir: out, ProjectName: "My <b>Shop</b>"})
	require.NoError(t, err)

	vite := readFile(t, tree.Root, "vite.config.js")
	assert.Contains(t, vite, `import tailwindcss from "@tailwindcss/vite";`)
	assert.Contains(t, vite, "tailwindcss(),")
	assert.Contains(t, vite, `outDir: "public/static"`)

	app := readFile(t, tree.Root, "src/application/app.js")
	assert.Contains(t, app, `import "../styles/index.css";`)
	assert.Contains(t, app, `Alpine.start();`)

	base := readFile(t, tree.Root, "templates/base.html")
	assert.Contains(t, base, `<html lang="en" data-theme="light">`)
	assert.Contains(t, base, `<body hx-boost="true">`)
	assert.Contains(t, base, `{% include "partials/_counter.html" %}`)
	assert.Contains(t, base, `{% include "partials/_dropdown.html" %}`)
	assert.Contains(t, base, "My Shop", "markup is stripped from the project name")
	assert.NotContains(t, base, "<b>")

	pkg, err := manifest.LoadPackageJSON(tree.Root)
	require.NoError(t, err)
	assert.Equal(t, "^5.0.43", pkg.DevDependencies["daisyui"])
	assert.Equal(t, "^2.0.6", pkg.Dependencies["htmx.org"])
}

func TestRender_DefaultProjectName(t *testing.T) {
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "test_frontend", Style: model.StyleTailwind, JavaScript: model.JSVanilla})

	tree, err := NewDefault().Render(context.Background(), Request{Plan: plan, OutputDir: t.TempDir()})
	require.NoError(t, err)
	assert.Contains(t, readFile(t, tree.Root, "README.md"), "# test_frontend")
}

func TestRender_ProjectNameIsPlainText(t *testing.T) {
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "cartoons", Style: model.StyleTailwind, JavaScript: model.JSVanilla})

	tree, err := NewDefault().Render(context.Background(), Request{Plan: plan, OutputDir: t.TempDir(), ProjectName: "Tom & Jerry"})
	require.NoError(t, err)

	assert.Contains(t, readFile(t, tree.Root, "README.md"), "# Tom & Jerry\n")
	assert.Contains(t, readFile(t, tree.Root, "templates/base.html"),
		"<title>{% block title %}Tom &amp; Jerry{% endblock %}</title>")
	assert.Contains(t, readFile(t, tree.Root, "templates/partials/_greeting.html"), "Welcome to Tom &amp; Jerry.")
}

func TestRender_ProjectNameWithTemplateSyntax(t *testing.T) {
	tests := []struct {
		name        string
		projectName string
	}{
		{"closes a block", "Tom & Jerry {% endblock %}"},
		{"variable", "{{ secret_key }}"},
		{"comment", "shop {# hidden #}"},
		{"newline", "shop\nrm -rf"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out := t.TempDir()
			plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "cartoons", Style: model.StyleTailwind, JavaScript: model.JSVanilla})

			_, err := NewDefault().Render(context.Background(), Request{Plan: plan, OutputDir: out, ProjectName: tt.projectName})

			var nameErr *model.InvalidProjectNameError
			require.ErrorAs(t, err, &nameErr)
			assert.Equal(t, tt.projectName, nameErr.Name)
			assert.NoDirExists(t, filepath.Join(out, "cartoons"))
		})
	}
}

func TestProjectName(t *testing.T) {
	tests := []struct {
		raw  string
		want string
	}{
		{"", "shop"},
		{"   ", "shop"},
		{"My <b>Shop</b>", "My Shop"},
		{"Tom &amp; Jerry", "Tom & Jerry"},
		{"<script>alert(1)</script>", "shop"},
		{"  Café 100% ", "Café 100%"},
	}

	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			got, err := ProjectName(tt.raw, "shop")
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestRender_TargetExists(t *testing.T) {
	out := t.TempDir()
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "taken", Style: model.StyleTailwind, JavaScript: model.JSVanilla})
	require.NoError(t, os.MkdirAll(filepath.Join(out, "taken"), 0o755))
	marker := filepath.Join(out, "taken", "keep.txt")
	require.NoError(t, os.WriteFile(marker, []byte("x"), 0o644))

	_, err := NewDefault().Render(context.Background(), Request{Plan: plan, OutputDir: out})
	assert.True(t, errors.Is(err, ErrTargetExists))
	assert.FileExists(t, marker, "an existing tree is never touched")
}

func TestRender_UnknownSlotRemovesPartialTree(t *testing.T) {
	out := t.TempDir()
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "broken", Style: model.StyleTailwind, JavaScript: model.JSVanilla})

	// A renderer that knows no insertion points fails on the first slot call.
	_, err := NewScaffold(NewDefault().templates, nil).Render(context.Background(), Request{Plan: plan, OutputDir: out})
	require.Error(t, err)
	assert.NoDirExists(t, filepath.Join(out, "broken"))
}

func TestRender_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	plan := resolve(t, model.ConfigurationPoint{ProjectSlug: "late", Style: model.StyleTailwind, JavaScript: model.JSVanilla})

	_, err := NewDefault().Render(ctx, Request{Plan: plan, OutputDir: t.TempDir()})
	assert.ErrorIs(t, err, context.Canceled)
}

// TestRender_ConcurrentIsolation renders the full matrix in parallel into one
// output directory; each tree must only contain its own files.
func TestRender_ConcurrentIsolation(t *testing.T) {
	out := t.TempDir()
	renderer := NewDefault()
	points := catalog.Default().Exhaustive("c")

	trees := make([]*Tree, len(points))
	errs := make([]error, len(points))
	var wg sync.WaitGroup
	for i, p := range points {
		wg.Add(1)
		go func(i int, p model.ConfigurationPoint) {
			defer wg.Done()
			r, err := resolver.NewDefault()
			if err != nil {
				errs[i] = err
				return
			}
			plan, err := r.Resolve(p)
			if err != nil {
				errs[i] = err
				return
			}
			trees[i], errs[i] = renderer.Render(context.Background(), Request{Plan: plan, OutputDir: out})
		}(i, p)
	}
	wg.Wait()

	for i, p := range points {
		require.NoError(t, errs[i], p.String())
		pkg, err := manifest.LoadPackageJSON(trees[i].Root)
		require.NoError(t, err)
		assert.Equal(t, p.ProjectSlug, pkg.Name)
		assert.Equal(t, resolve(t, p).Paths(), trees[i].Files)
	}
}
