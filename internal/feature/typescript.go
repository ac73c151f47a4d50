package feature

import (
	"context"

	"github.com/appgen-dev/appgen/internal/config"
)

// TypeScript adds the typed language mode tooling.
type TypeScript struct{}

func (TypeScript) Name() string { return "typescript" }

func (TypeScript) Enabled(cfg config.Configuration) bool { return cfg.TypeScript }

func (TypeScript) Files(cfg config.Configuration) []File {
	return []File{{Template: "typescript/env.d.ts", Target: "env.d.ts", Context: baseContext(cfg)}}
}

func (p TypeScript) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(p.Files(cfg)); err != nil {
		return Result{}, err
	}
	return Result{
		DevDependencies: []string{"typescript", "vue-tsc", "@vue/tsconfig"},
		Scripts:         map[string]string{"type-check": "vue-tsc --build"},
	}, nil
}
