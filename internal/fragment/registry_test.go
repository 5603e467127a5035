package fragment

import (
	"errors"
	"io/fs"
	"strings"
	"testing"
	"testing/fstest"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/frontend-scaffold/internal/catalog"
	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

func testFS() fstest.MapFS {
	return fstest.MapFS{
		"a.txt": &fstest.MapFile{Data: []byte("a")},
		"b.txt": &fstest.MapFile{Data: []byte("b")},
	}
}

func TestPredicate_Matches(t *testing.T) {
	p := model.ConfigurationPoint{ProjectSlug: "x", Style: model.StyleDaisy, JavaScript: model.JSHTMXAlpine}

	tests := []struct {
		name string
		pred Predicate
		want bool
	}{
		{"always", Always, true},
		{"style match", Predicate{Style: model.StyleDaisy}, true},
		{"style mismatch", Predicate{Style: model.StyleBootstrap}, false},
		{"combination match", Predicate{Style: model.StyleDaisy, JavaScript: model.JSHTMXAlpine}, true},
		{"combination half match", Predicate{Style: model.StyleDaisy, JavaScript: model.JSHotwire}, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.pred.Matches(p))
		})
	}
}

func TestPredicate_String(t *testing.T) {
	assert.Equal(t, "always", Always.String())
	assert.Equal(t, "style_solution=daisy && javascript_solution=htmx_alpine",
		Predicate{Style: model.StyleDaisy, JavaScript: model.JSHTMXAlpine}.String())
}

func TestKey(t *testing.T) {
	assert.Equal(t, "base", BaseKey.String())
	assert.Equal(t, RankBase, BaseKey.Rank())

	k := Key{Axis: model.AxisJavaScript, Value: "hotwire"}
	assert.Equal(t, "javascript_solution/hotwire", k.String())
	assert.Equal(t, RankJavaScript, k.Rank())
}

func TestRegister_AfterSeal(t *testing.T) {
	r := NewRegistry(testFS(), "slot")
	require.NoError(t, r.RegisterBase(Set{}))
	r.Seal()

	err := r.Register(model.AxisStyle, "tailwind", Set{})
	assert.True(t, errors.Is(err, ErrSealed))
	assert.True(t, r.Sealed())
}

func TestRegister_Rejects(t *testing.T) {
	tests := []struct {
		name string
		set  Set
		msg  string
	}{
		{
			name: "duplicate path",
			set:  Set{Files: []File{{Path: "x", Source: "a.txt"}, {Path: "x", Source: "b.txt"}}},
			msg:  "declared twice",
		},
		{
			name: "missing source",
			set:  Set{Files: []File{{Path: "x", Source: "nope.txt"}}},
			msg:  "template source",
		},
		{
			name: "escaping path",
			set:  Set{Files: []File{{Path: "../x", Source: "a.txt"}}},
			msg:  "relative to the project root",
		},
		{
			name: "duplicate dependency",
			set: Set{Dependencies: []Dependency{
				{Name: "vite", Version: "^6", Kind: Dev},
				{Name: "vite", Version: "^6", Kind: Dev},
			}},
			msg: "declared twice",
		},
		{
			name: "bad kind",
			set:  Set{Dependencies: []Dependency{{Name: "vite", Version: "^6", Kind: "peer"}}},
			msg:  "unknown kind",
		},
		{
			name: "unknown slot",
			set:  Set{Snippets: []Snippet{{Point: "nowhere", Content: "x"}}},
			msg:  "unknown insertion point",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRegistry(testFS(), "slot")
			err := r.Register(model.AxisStyle, "tailwind", tt.set)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}

func TestRegister_Twice(t *testing.T) {
	r := NewRegistry(testFS())
	require.NoError(t, r.Register(model.AxisStyle, "tailwind", Set{}))
	assert.Error(t, r.Register(model.AxisStyle, "tailwind", Set{}))
}

func TestCheckComplete(t *testing.T) {
	c := catalog.Default()

	t.Run("default registry is complete", func(t *testing.T) {
		r, err := Default()
		require.NoError(t, err)
		assert.NoError(t, r.CheckComplete(c))
	})

	t.Run("missing and unknown values", func(t *testing.T) {
		r := NewRegistry(testFS())
		require.NoError(t, r.Register(model.AxisStyle, "tailwind", Set{}))
		require.NoError(t, r.Register(model.AxisStyle, "bulma", Set{}))

		err := r.CheckComplete(c)
		var inc *IncompleteError
		require.True(t, errors.As(err, &inc))
		assert.True(t, inc.NoBase)
		assert.Contains(t, inc.Missing, Key{Axis: model.AxisStyle, Value: "daisy"})
		assert.Contains(t, inc.Missing, Key{Axis: model.AxisJavaScript, Value: "hotwire"})
		assert.Equal(t, []Key{{Axis: model.AxisStyle, Value: "bulma"}}, inc.Unknown)
		assert.Contains(t, err.Error(), "style_solution/bulma")
	})
}

func TestDefault_Sealed(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)
	assert.True(t, r.Sealed())
	assert.Len(t, r.Keys(), 7)
	assert.Equal(t, BaseKey, r.Keys()[0])
}

// TestDefault_IncludeTargetsShipped checks that every include directive in
// the default sets names a file the same set can contribute.
func TestDefault_IncludeTargetsShipped(t *testing.T) {
	r, err := Default()
	require.NoError(t, err)

	for _, key := range r.Keys() {
		set, _ := r.Lookup(key)
		paths := make(map[string]bool)
		for _, f := range set.Files {
			paths[f.Path] = true
		}
		for _, sn := range set.Snippets {
			if sn.Requires != "" {
				assert.True(t, paths[sn.Requires], "%s: %s requires %s", key, sn.Point, sn.Requires)
			}
		}
	}
}

// TestTemplates_NoStrayActions makes sure only *.tmpl sources carry
// template actions.
func TestTemplates_NoStrayActions(t *testing.T) {
	err := fs.WalkDir(Templates(), ".", func(path string, d fs.DirEntry, err error) error {
		require.NoError(t, err)
		if d.IsDir() {
			return nil
		}
		data, err := fs.ReadFile(Templates(), path)
		require.NoError(t, err)
		if strings.HasSuffix(path, ".tmpl") {
			return nil
		}
		assert.NotContains(t, string(data), "{{", "%s should not contain template actions", path)
		return nil
	})
	require.NoError(t, err)
}
