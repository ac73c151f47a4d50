package feature

import (
	"context"
	"strings"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

// Docs writes the project README and editor settings. It is always enabled
// and declares no effects.
type Docs struct{}

func (Docs) Name() string { return "docs" }

func (Docs) Enabled(config.Configuration) bool { return true }

func (Docs) Files(cfg config.Configuration) []File {
	ext := cfg.Ext()
	styled := cfg.CSS != config.CSSNone && cfg.CSS != ""

	readme := baseContext(cfg).Merge(render.Context{
		"typescript_feature": render.When(cfg.TypeScript, "- TypeScript with `vue-tsc` type checking"),
		"router_feature":     render.When(cfg.Router, "- Vue Router with lazily loaded views"),
		"store_feature":      render.When(cfg.Store, "- Pinia state management"),
		"linter_feature":     render.When(cfg.Linter, "- ESLint and Prettier"),
		"css_feature":        render.When(styled, cssFeature(cfg)),
		"githooks_feature":   render.When(cfg.GitHooks, "- Husky git hooks with commitlint"),

		"router_tree": render.When(cfg.Router, "│   ├── router/\n│   │   └── index."+ext),
		"views_tree":  render.When(cfg.Router, "│   ├── views/"),
		"stores_tree": render.When(cfg.Store, "│   ├── stores/\n│   │   └── counter."+ext),
		"styles_tree": render.When(styled, "│   ├── styles/"),
		"eslint_tree": render.When(cfg.Linter, "├── eslint.config."+ext),
		"husky_tree":  render.When(cfg.GitHooks, "├── .husky/"),
		"env_tree":    render.When(cfg.TypeScript, "├── env.d.ts"),

		"install_command": cfg.InstallCommand(),
		"dev_command":     cfg.RunCommand("dev"),
		"build_command":   cfg.RunCommand("build"),
		"type_check_row":  render.When(cfg.TypeScript, "| Type-check | `"+cfg.RunCommand("type-check")+"` |"),
		"lint_row":        render.When(cfg.Linter, "| Lint | `"+cfg.RunCommand("lint")+"` |"),
		"format_row":      render.When(cfg.Linter, "| Format | `"+cfg.RunCommand("format")+"` |"),
	})

	editor := baseContext(cfg).Merge(render.Context{
		"prettier_hint": render.When(cfg.Linter, "# Formatting is enforced by Prettier, see .prettierrc.json"),
	})

	return []File{
		{Template: "docs/readme", Target: "README.md", Context: readme},
		{Template: "docs/editorconfig", Target: ".editorconfig", Context: editor},
	}
}

func (d Docs) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(d.Files(cfg)); err != nil {
		return Result{}, err
	}
	return Result{}, nil
}

func cssFeature(cfg config.Configuration) string {
	switch cfg.CSS {
	case "", config.CSSNone:
		return ""
	case config.CSSTailwind:
		return "- Tailwind CSS, registered as a Vite plugin in `" + cfg.BuildConfigFile() + "`"
	}
	return "- " + strings.ToUpper(string(cfg.CSS[:1])) + string(cfg.CSS[1:]) + " stylesheets with shared variables in `src/styles/`"
}
