package feature

import (
	"context"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

// Store wires a state store with a starter counter store.
type Store struct{}

func (Store) Name() string { return "store" }

func (Store) Enabled(cfg config.Configuration) bool { return cfg.Store }

func (Store) Files(cfg config.Configuration) []File {
	return []File{{
		Template: "store/counter",
		Target:   "src/stores/counter." + cfg.Ext(),
		Context: baseContext(cfg).Merge(render.Context{
			"count_type":  render.When(cfg.TypeScript, "<number>"),
			"return_type": render.When(cfg.TypeScript, ": void"),
		}),
	}}
}

func (p Store) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(p.Files(cfg)); err != nil {
		return Result{}, err
	}
	return Result{
		Dependencies: []string{"pinia"},
		Imports:      []string{"import { createPinia } from 'pinia'"},
		Uses:         []string{"use(createPinia())"},
	}, nil
}
