package engine

import (
	"errors"
	"fmt"
	"sort"

	"go.uber.org/multierr"

	"github.com/appgen-dev/appgen/internal/feature"
	"github.com/appgen-dev/appgen/internal/manifest"
)

// CollisionError reports two providers declaring the same script or
// lint-staged key with different values.
type CollisionError struct {
	// Field is the manifest field, "scripts" or "lint-staged".
	Field       string
	Key         string
	First       string
	Second      string
	FirstValue  string
	SecondValue string
}

func (e *CollisionError) Error() string {
	if e == nil {
		return "merge collision"
	}
	return fmt.Sprintf("%s key %q declared by %q (%q) and %q (%q)",
		e.Field, e.Key, e.First, e.FirstValue, e.Second, e.SecondValue)
}

// IsCollision reports whether err contains a merge collision.
func IsCollision(err error) bool {
	var target *CollisionError
	return errors.As(err, &target)
}

type owned struct {
	value string
	owner string
}

// Effects accumulates provider results for one run.
type Effects struct {
	deps       map[string]struct{}
	devDeps    map[string]struct{}
	imports    []string
	uses       []string
	scripts    map[string]owned
	lintStaged map[string]owned
	providers  []string
}

// NewEffects returns empty effects.
func NewEffects() *Effects {
	return &Effects{
		deps:       make(map[string]struct{}),
		devDeps:    make(map[string]struct{}),
		scripts:    make(map[string]owned),
		lintStaged: make(map[string]owned),
	}
}

// Merge folds the result of provider into e. Every collision of this
// result is reported together and e is left unchanged when any exists.
// Redeclaring a key with the identical value is accepted.
func (e *Effects) Merge(provider string, res feature.Result) error {
	var errs error
	errs = multierr.Append(errs, collisions(manifest.FieldScripts, e.scripts, provider, res.Scripts))
	errs = multierr.Append(errs, collisions(manifest.FieldLintStaged, e.lintStaged, provider, res.LintStaged))
	if errs != nil {
		return errs
	}

	for _, name := range res.Dependencies {
		e.deps[name] = struct{}{}
	}
	for _, name := range res.DevDependencies {
		e.devDeps[name] = struct{}{}
	}
	e.imports = append(e.imports, res.Imports...)
	e.uses = append(e.uses, res.Uses...)
	claim(e.scripts, provider, res.Scripts)
	claim(e.lintStaged, provider, res.LintStaged)
	e.providers = append(e.providers, provider)
	return nil
}

func collisions(field string, existing map[string]owned, provider string, values map[string]string) error {
	var errs error
	for _, key := range sortedKeys(values) {
		prev, ok := existing[key]
		if !ok || prev.value == values[key] {
			continue
		}
		errs = multierr.Append(errs, &CollisionError{
			Field:       field,
			Key:         key,
			First:       prev.owner,
			Second:      provider,
			FirstValue:  prev.value,
			SecondValue: values[key],
		})
	}
	return errs
}

func claim(existing map[string]owned, provider string, values map[string]string) {
	for key, value := range values {
		if _, ok := existing[key]; ok {
			continue
		}
		existing[key] = owned{value: value, owner: provider}
	}
}

// Dependencies returns the runtime dependency names, sorted.
func (e *Effects) Dependencies() []string { return sortedSet(e.deps) }

// DevDependencies returns the dev dependency names, sorted.
func (e *Effects) DevDependencies() []string { return sortedSet(e.devDeps) }

// Imports returns the import statements in arrival order.
func (e *Effects) Imports() []string { return append([]string(nil), e.imports...) }

// Uses returns the initialization calls in arrival order.
func (e *Effects) Uses() []string { return append([]string(nil), e.uses...) }

// Scripts returns the merged scripts.
func (e *Effects) Scripts() map[string]string { return values(e.scripts) }

// LintStaged returns the merged lint-staged rules.
func (e *Effects) LintStaged() map[string]string { return values(e.lintStaged) }

// Owner returns the provider that declared key in field.
func (e *Effects) Owner(field, key string) string {
	switch field {
	case manifest.FieldScripts:
		return e.scripts[key].owner
	case manifest.FieldLintStaged:
		return e.lintStaged[key].owner
	}
	return ""
}

// Providers returns the names of the providers merged so far, in order.
func (e *Effects) Providers() []string { return append([]string(nil), e.providers...) }

// DuplicateImports returns import statements declared more than once, in
// first-seen order. They are kept in Imports.
func (e *Effects) DuplicateImports() []string {
	seen := make(map[string]int, len(e.imports))
	var dups []string
	for _, imp := range e.imports {
		seen[imp]++
		if seen[imp] == 2 {
			dups = append(dups, imp)
		}
	}
	return dups
}

// Patch returns the manifest changes for e with the given version pins.
func (e *Effects) Patch(versions map[string]string) manifest.Patch {
	return manifest.Patch{
		Scripts:         e.Scripts(),
		LintStaged:      e.LintStaged(),
		Dependencies:    e.Dependencies(),
		DevDependencies: e.DevDependencies(),
		Versions:        versions,
	}
}

func values(m map[string]owned) map[string]string {
	out := make(map[string]string, len(m))
	for k, v := range m {
		out[k] = v.value
	}
	return out
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

func sortedKeys(m map[string]string) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
