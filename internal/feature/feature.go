// Package feature contains the feature providers that make up a generated
// project and the workspace they write into.
package feature

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

// Provider is one optional project capability. Setup writes the feature's
// own files and returns the effects it declares on the shared artifacts.
// A provider must not assume any other provider has run.
type Provider interface {
	// Name identifies the provider in logs and collision errors.
	Name() string
	// Enabled reports whether the provider takes part for cfg.
	Enabled(cfg config.Configuration) bool
	// Files lists the templates the provider renders for cfg.
	Files(cfg config.Configuration) []File
	// Setup writes the provider's files into ws and returns its effects.
	Setup(ctx context.Context, ws *Workspace, cfg config.Configuration) (Result, error)
}

// Result is the declared effect of one provider run.
type Result struct {
	Dependencies    []string
	DevDependencies []string
	Scripts         map[string]string
	LintStaged      map[string]string
	Imports         []string
	Uses            []string
}

// File is one template rendered to a project-relative target.
type File struct {
	Template string
	Target   string
	Context  render.Context
	// Mode defaults to 0644 when zero.
	Mode os.FileMode
}

// MissingFileError reports a project file a provider or the engine expected
// to exist.
type MissingFileError struct {
	Path string
	Err  error
}

func (e *MissingFileError) Error() string {
	if e == nil {
		return "missing file"
	}
	return fmt.Sprintf("expected file %q does not exist", e.Path)
}

func (e *MissingFileError) Unwrap() error {
	if e == nil {
		return nil
	}
	return e.Err
}

// IsMissingFile reports whether err indicates a missing project file.
func IsMissingFile(err error) bool {
	var target *MissingFileError
	return errors.As(err, &target)
}

// Default returns the built-in providers in their declared order. The order
// decides the order of imports and use calls in the entry file.
func Default() []Provider {
	return []Provider{
		TypeScript{},
		Router{},
		Store{},
		Linter{},
		CSS{},
		GitHooks{},
		Docs{},
	}
}

// Lookup returns the provider named name from providers.
func Lookup(providers []Provider, name string) (Provider, bool) {
	for _, p := range providers {
		if p.Name() == name {
			return p, true
		}
	}
	return nil, false
}

// baseContext holds the values every template may use.
func baseContext(cfg config.Configuration) render.Context {
	return render.Context{
		"project_name": cfg.ProjectName,
		"package_name": cfg.PackageName,
		"ext":          cfg.Ext(),
		"language":     cfg.Language(),
		"script_lang":  render.When(cfg.TypeScript, ` lang="ts"`),
	}
}

func choose(cond bool, yes, no string) string {
	if cond {
		return yes
	}
	return no
}
