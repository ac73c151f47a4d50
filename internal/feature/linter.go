package feature

import (
	"context"
	"fmt"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/manifest"
	"github.com/appgen-dev/appgen/internal/render"
)

// Lint-staged globs owned by the linter.
const (
	LintGlobScripts = "*.{js,ts,vue}"
	LintGlobStyles  = "*.{css,scss,less,json,md}"
)

const jsGlobals = `  {
    languageOptions: {
      globals: { ...globals.browser },
    },
  },
  js.configs.recommended,`

// Linter adds linter and formatter configuration.
type Linter struct{}

func (Linter) Name() string { return "linter" }

func (Linter) Enabled(cfg config.Configuration) bool { return cfg.Linter }

// ConfigFile is the project-relative linter config path.
func (Linter) ConfigFile(cfg config.Configuration) string { return "eslint.config." + cfg.Ext() }

func (l Linter) Files(cfg config.Configuration) []File {
	ts := cfg.TypeScript
	ctx := baseContext(cfg).Merge(render.Context{
		"config_imports":  choose(ts, "globalIgnores", "defineConfig, globalIgnores"),
		"ts_import":       render.When(ts, "import { defineConfigWithVueTs, vueTsConfigs } from '@vue/eslint-config-typescript'"),
		"js_imports":      render.When(!ts, "import globals from 'globals'\nimport js from '@eslint/js'"),
		"config_open":     choose(ts, "defineConfigWithVueTs(", "defineConfig(["),
		"config_close":    choose(ts, ")", "])"),
		"lint_extensions": choose(ts, "{ts,mts,tsx,vue}", "{js,mjs,jsx,vue}"),
		"js_globals":      render.When(!ts, jsGlobals),
		"vue_configs":     choose(ts, "pluginVue.configs['flat/essential']", "...pluginVue.configs['flat/essential']"),
		"ts_recommended":  render.When(ts, "  vueTsConfigs.recommended,"),
	})
	return []File{
		{Template: "linter/eslint.config", Target: l.ConfigFile(cfg), Context: ctx},
		{Template: "linter/prettierrc", Target: ".prettierrc.json", Context: baseContext(cfg)},
	}
}

func (l Linter) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(l.Files(cfg)); err != nil {
		return Result{}, err
	}

	dev := []string{"eslint", "prettier", "eslint-plugin-vue", "@vue/eslint-config-prettier"}
	if cfg.TypeScript {
		dev = append(dev, "@vue/eslint-config-typescript", "jiti")
		if err := l.includeInTypeCheck(ws, cfg); err != nil {
			return Result{}, err
		}
	} else {
		dev = append(dev, "@eslint/js", "globals")
	}

	return Result{
		DevDependencies: dev,
		Scripts: map[string]string{
			"lint":   "eslint . --fix",
			"format": "prettier --write src/",
		},
		LintStaged: map[string]string{
			LintGlobScripts: "eslint --fix",
			LintGlobStyles:  "prettier --write",
		},
	}, nil
}

// includeInTypeCheck adds the linter config to the include list of the
// tooling type-check manifest.
func (l Linter) includeInTypeCheck(ws *Workspace, cfg config.Configuration) error {
	name := cfg.TypeCheckManifest()
	raw, err := ws.ReadFile(name)
	if err != nil {
		return err
	}
	doc, err := manifest.Parse(name, raw)
	if err != nil {
		return err
	}
	changed, err := doc.AppendString("include", l.ConfigFile(cfg))
	if err != nil {
		return fmt.Errorf("update %q: %w", name, err)
	}
	if !changed {
		return nil
	}
	out, err := doc.Encode()
	if err != nil {
		return fmt.Errorf("encode %q: %w", name, err)
	}
	return ws.WriteFile(name, out, 0)
}
