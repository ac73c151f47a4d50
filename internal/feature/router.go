package feature

import (
	"context"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

// Router wires client-side routing with two starter views.
type Router struct{}

func (Router) Name() string { return "router" }

func (Router) Enabled(cfg config.Configuration) bool { return cfg.Router }

func (Router) Files(cfg config.Configuration) []File {
	base := baseContext(cfg)
	return []File{
		{
			Template: "router/index",
			Target:   "src/router/index." + cfg.Ext(),
			Context: base.Merge(render.Context{
				"route_type_import": render.When(cfg.TypeScript, "import type { RouteRecordRaw } from 'vue-router'"),
				"routes_annotation": render.When(cfg.TypeScript, ": RouteRecordRaw[]"),
			}),
		},
		{
			Template: "router/view",
			Target:   "src/views/HomeView.vue",
			Context: base.Merge(render.Context{
				"heading":      "Home",
				"view_class":   "home",
				"message":      "Welcome to " + cfg.ProjectName + ".",
				"counter_hint": render.When(cfg.Store, "<p>Shared state lives in <code>src/stores/counter."+cfg.Ext()+"</code>.</p>"),
			}),
		},
		{
			Template: "router/view",
			Target:   "src/views/AboutView.vue",
			Context: base.Merge(render.Context{
				"heading":      "About",
				"view_class":   "about",
				"message":      "This page is loaded lazily by the router.",
				"counter_hint": false,
			}),
		},
	}
}

func (p Router) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(p.Files(cfg)); err != nil {
		return Result{}, err
	}
	return Result{
		Dependencies: []string{"vue-router"},
		Imports:      []string{"import router from './router'"},
		Uses:         []string{"use(router)"},
	}, nil
}
