package fragment

import (
	"embed"
	"fmt"
	"io/fs"

	"github.com/mmr-tortoise/frontend-scaffold/internal/model"
)

//go:embed all:templates
var embedded embed.FS

// Insertion points exposed by the shared base files.
const (
	SlotViteImports  = "vite.imports"
	SlotVitePlugins  = "vite.plugins"
	SlotViteCSS      = "vite.css"
	SlotAppImports   = "app.imports"
	SlotAppInit      = "app.init"
	SlotHTMLAttrs    = "html.attrs"
	SlotBodyAttrs    = "body.attrs"
	SlotBasePartials = "base.partials"
)

const partialsDir = "templates/partials/"

// Slots lists every insertion point of the base files.
var Slots = []string{
	SlotViteImports,
	SlotVitePlugins,
	SlotViteCSS,
	SlotAppImports,
	SlotAppInit,
	SlotHTMLAttrs,
	SlotBodyAttrs,
	SlotBasePartials,
}

// Templates returns the embedded template tree rooted at "templates".
func Templates() fs.FS {
	sub, err := fs.Sub(embedded, "templates")
	if err != nil {
		// fs.Sub only fails on an invalid path literal.
		panic(err)
	}
	return sub
}

// Default builds and seals the registry shipped with the binary.
func Default() (*Registry, error) {
	r := NewRegistry(Templates(), Slots...)

	if err := r.RegisterBase(baseSet()); err != nil {
		return nil, err
	}

	styles := map[model.StyleSolution]Set{
		model.StyleTailwind:  tailwindSet(),
		model.StyleDaisy:     daisySet(),
		model.StyleBootstrap: bootstrapSet(),
	}
	for _, style := range []model.StyleSolution{model.StyleTailwind, model.StyleDaisy, model.StyleBootstrap} {
		if err := r.Register(model.AxisStyle, style.String(), styles[style]); err != nil {
			return nil, err
		}
	}

	scripts := map[model.JavaScriptSolution]Set{
		model.JSVanilla:    vanillaSet(),
		model.JSHTMXAlpine: htmxAlpineSet(),
		model.JSHotwire:    hotwireSet(),
	}
	for _, js := range []model.JavaScriptSolution{model.JSVanilla, model.JSHTMXAlpine, model.JSHotwire} {
		if err := r.Register(model.AxisJavaScript, js.String(), scripts[js]); err != nil {
			return nil, err
		}
	}

	r.Seal()
	return r, nil
}

// include returns the snippet that renders a partial into base.html and
// requires the partial to be part of the tree.
func include(partial string, when Predicate) Snippet {
	return Snippet{
		Point:       SlotBasePartials,
		Content:     fmt.Sprintf(`      {%% include "partials/%s" %%}`, partial),
		Commutative: true,
		Requires:    partialsDir + partial,
		When:        when,
	}
}

func baseSet() Set {
	return Set{
		Files: []File{
			{Path: "package.json", Source: "base/package.jsonc", Kind: Manifest},
			{Path: "vite.config.js", Source: "base/vite.config.js.tmpl"},
			{Path: "src/application/app.js", Source: "base/app.js.tmpl"},
			{Path: "templates/base.html", Source: "base/base.html.tmpl"},
			{Path: "README.md", Source: "base/README.md.tmpl"},
			{Path: ".gitignore", Source: "base/gitignore.tmpl"},
		},
		Dependencies: []Dependency{
			{Name: "vite", Version: "^6.3.5", Kind: Dev},
		},
	}
}

// tailwindFamily is the part shared by the tailwind and daisy sets.
func tailwindFamily(source string) Set {
	return Set{
		Files: []File{
			{Path: "src/styles/index.css", Source: source},
		},
		Dependencies: []Dependency{
			{Name: "tailwindcss", Version: "^4.1.11", Kind: Dev},
			{Name: "@tailwindcss/vite", Version: "^4.1.11", Kind: Dev},
		},
		Snippets: []Snippet{
			{Point: SlotViteImports, Content: `import tailwindcss from "@tailwindcss/vite";`, Commutative: true},
			{Point: SlotVitePlugins, Content: `    tailwindcss(),`, Commutative: true},
			{Point: SlotAppImports, Content: `import "../styles/index.css";`, Commutative: true, Requires: "src/styles/index.css"},
		},
	}
}

func tailwindSet() Set {
	return tailwindFamily("style/tailwind/index.css")
}

func daisySet() Set {
	s := tailwindFamily("style/daisy/index.css")
	s.Dependencies = append(s.Dependencies, Dependency{Name: "daisyui", Version: "^5.0.43", Kind: Dev})
	s.Snippets = append(s.Snippets, Snippet{Point: SlotHTMLAttrs, Content: ` data-theme="light"`})
	return s
}

func bootstrapSet() Set {
	return Set{
		Files: []File{
			{Path: "src/styles/index.scss", Source: "style/bootstrap/index.scss"},
		},
		Dependencies: []Dependency{
			{Name: "bootstrap", Version: "^5.3.7", Kind: Runtime},
			{Name: "@popperjs/core", Version: "^2.11.8", Kind: Runtime},
			{Name: "sass", Version: "^1.89.2", Kind: Dev},
		},
		Snippets: []Snippet{
			{Point: SlotAppImports, Content: `import "../styles/index.scss";`, Commutative: true, Requires: "src/styles/index.scss"},
			{Point: SlotAppImports, Content: `import "bootstrap";`, Commutative: true},
			{
				Point: SlotViteCSS,
				Content: `    preprocessorOptions: {
      scss: {
        quietDeps: true,
        silenceDeprecations: ["import", "global-builtin", "color-functions", "mixed-decls"],
      },
    },`,
			},
		},
	}
}

func vanillaSet() Set {
	return Set{
		Files: []File{
			{Path: "src/components/greeting.js", Source: "javascript/valinajs/greeting.js"},
			{Path: "templates/partials/_greeting.html", Source: "javascript/valinajs/_greeting.html.tmpl"},
		},
		Snippets: []Snippet{
			{Point: SlotAppImports, Content: `import { mountGreeting } from "../components/greeting.js";`, Commutative: true, Requires: "src/components/greeting.js"},
			{Point: SlotAppInit, Content: `document.addEventListener("DOMContentLoaded", mountGreeting);`, Commutative: true},
			include("_greeting.html", Always),
		},
	}
}

// htmxAlpineSet carries the daisy dropdown glue: the partial only makes sense
// when both daisy classes and Alpine directives are available.
func htmxAlpineSet() Set {
	daisy := Predicate{Style: model.StyleDaisy}
	return Set{
		Files: []File{
			{Path: "src/components/counter.js", Source: "javascript/htmx_alpine/counter.js"},
			{Path: "templates/partials/_counter.html", Source: "javascript/htmx_alpine/_counter.html"},
			{Path: "templates/partials/_dropdown.html", Source: "javascript/htmx_alpine/_dropdown.html", When: daisy},
		},
		Dependencies: []Dependency{
			{Name: "htmx.org", Version: "^2.0.6", Kind: Runtime},
			{Name: "alpinejs", Version: "^3.14.9", Kind: Runtime},
		},
		Snippets: []Snippet{
			{Point: SlotAppImports, Content: `import htmx from "htmx.org";`, Commutative: true},
			{Point: SlotAppImports, Content: `import Alpine from "alpinejs";`, Commutative: true},
			{Point: SlotAppImports, Content: `import counter from "../components/counter.js";`, Commutative: true, Requires: "src/components/counter.js"},
			{Point: SlotAppInit, Content: "window.htmx = htmx;\nwindow.Alpine = Alpine;\nAlpine.data(\"counter\", counter);\nAlpine.start();", Commutative: true},
			{Point: SlotBodyAttrs, Content: ` hx-boost="true"`},
			include("_counter.html", Always),
			include("_dropdown.html", daisy),
		},
	}
}

// hotwireSet registers its Bootstrap modal controller after the Stimulus
// application is started, so the glue lives here rather than in bootstrapSet.
func hotwireSet() Set {
	bootstrap := Predicate{Style: model.StyleBootstrap}
	return Set{
		Files: []File{
			{Path: "src/controllers/hello_controller.js", Source: "javascript/hotwire/hello_controller.js"},
			{Path: "templates/partials/_hello.html", Source: "javascript/hotwire/_hello.html"},
			{Path: "src/controllers/modal_controller.js", Source: "javascript/hotwire/modal_controller.js", When: bootstrap},
			{Path: "templates/partials/_modal.html", Source: "javascript/hotwire/_modal.html", When: bootstrap},
		},
		Dependencies: []Dependency{
			{Name: "@hotwired/turbo", Version: "^8.0.13", Kind: Runtime},
			{Name: "@hotwired/stimulus", Version: "^3.2.2", Kind: Runtime},
		},
		Snippets: []Snippet{
			{Point: SlotAppImports, Content: `import "@hotwired/turbo";`, Commutative: true},
			{Point: SlotAppImports, Content: `import { Application } from "@hotwired/stimulus";`, Commutative: true},
			{Point: SlotAppImports, Content: `import HelloController from "../controllers/hello_controller.js";`, Commutative: true, Requires: "src/controllers/hello_controller.js"},
			{
				Point:       SlotAppImports,
				Content:     `import ModalController from "../controllers/modal_controller.js";`,
				Commutative: true,
				Requires:    "src/controllers/modal_controller.js",
				When:        bootstrap,
			},
			{Point: SlotAppInit, Content: "const application = Application.start();\napplication.register(\"hello\", HelloController);", Commutative: true},
			{Point: SlotAppInit, Content: `application.register("modal", ModalController);`, Commutative: true, When: bootstrap},
			include("_hello.html", Always),
			include("_modal.html", bootstrap),
		},
	}
}
