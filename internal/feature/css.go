package feature

import (
	"context"
	"fmt"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/patch"
	"github.com/appgen-dev/appgen/internal/render"
)

const (
	tailwindImport       = "import './styles/tailwind.css'"
	tailwindPluginImport = "import tailwindcss from '@tailwindcss/vite'"
	tailwindPluginCall   = "tailwindcss()"
)

// CSS wires the selected styling strategy. Preprocessors get a variables
// stylesheet; tailwind also patches the build-tool config, which it owns.
type CSS struct{}

func (CSS) Name() string { return "css" }

func (CSS) Enabled(cfg config.Configuration) bool {
	return cfg.CSS != "" && cfg.CSS != config.CSSNone
}

func (CSS) Files(cfg config.Configuration) []File {
	base := baseContext(cfg)
	switch cfg.CSS {
	case config.CSSSass:
		return []File{{
			Template: "css/variables",
			Target:   "src/styles/_variables.scss",
			Context:  base.Merge(render.Context{"var_prefix": "$"}),
		}}
	case config.CSSLess:
		return []File{{
			Template: "css/variables",
			Target:   "src/styles/variables.less",
			Context:  base.Merge(render.Context{"var_prefix": "@"}),
		}}
	case config.CSSTailwind:
		return []File{{Template: "css/tailwind", Target: "src/styles/tailwind.css", Context: base}}
	default:
		return nil
	}
}

func (c CSS) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(c.Files(cfg)); err != nil {
		return Result{}, err
	}
	switch cfg.CSS {
	case config.CSSSass:
		return Result{DevDependencies: []string{"sass"}}, nil
	case config.CSSLess:
		return Result{DevDependencies: []string{"less"}}, nil
	case config.CSSTailwind:
		if err := c.patchBuildConfig(ws, cfg); err != nil {
			return Result{}, err
		}
		return Result{
			DevDependencies: []string{"tailwindcss", "@tailwindcss/vite"},
			Imports:         []string{tailwindImport},
		}, nil
	default:
		return Result{}, fmt.Errorf("unsupported css strategy %q", cfg.CSS)
	}
}

func (CSS) patchBuildConfig(ws *Workspace, cfg config.Configuration) error {
	name := cfg.BuildConfigFile()
	raw, err := ws.ReadFile(name)
	if err != nil {
		return err
	}
	out, err := patch.BuildPlugin(name, string(raw), tailwindPluginImport, tailwindPluginCall)
	if err != nil {
		return err
	}
	if out == string(raw) {
		return nil
	}
	return ws.WriteFile(name, []byte(out), 0)
}
