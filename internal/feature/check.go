package feature

import (
	"fmt"
	"strings"

	"go.uber.org/multierr"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

// CheckPlaceholders verifies that for every enabled
// provider and configuration, each placeholder a template references is
// present in the context the provider renders it with. Own-line
// placeholders missing from a context would otherwise vanish silently.
func CheckPlaceholders(loader *render.Loader, providers []Provider, configs []config.Configuration) error {
	var errs error
	reported := make(map[string]struct{})
	for _, cfg := range configs {
		for _, p := range providers {
			if !p.Enabled(cfg) {
				continue
			}
			for _, f := range p.Files(cfg) {
				text, err := loader.Load(f.Template)
				if err != nil {
					if _, ok := reported[f.Template]; !ok {
						reported[f.Template] = struct{}{}
						errs = multierr.Append(errs, fmt.Errorf("feature %q: %w", p.Name(), err))
					}
					continue
				}
				missing := render.Missing(text, f.Context)
				if len(missing) == 0 {
					continue
				}
				key := p.Name() + "|" + f.Template + "|" + strings.Join(missing, ",")
				if _, ok := reported[key]; ok {
					continue
				}
				reported[key] = struct{}{}
				errs = multierr.Append(errs, fmt.Errorf("feature %q template %q: placeholders %s have no value (e.g. css=%s typescript=%t)",
					p.Name(), f.Template, strings.Join(missing, ", "), cfg.CSS, cfg.TypeScript))
			}
		}
	}
	return errs
}
