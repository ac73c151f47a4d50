// Package config contains the resolved generation configuration and the
// loader that layers appgen.yaml, .env files, APPGEN_* variables and CLI
// overrides into it.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	envparse "github.com/caarlos0/env/v11"
	"github.com/gosimple/slug"
	"github.com/spf13/afero"
	"gopkg.in/yaml.v3"

	"github.com/appgen-dev/appgen/internal/env"
)

// PackageManager selects the package manager used in generated commands.
type PackageManager string

// Supported package managers.
const (
	PackageManagerNPM  PackageManager = "npm"
	PackageManagerPNPM PackageManager = "pnpm"
	PackageManagerYarn PackageManager = "yarn"
	PackageManagerBun  PackageManager = "bun"
)

// PackageManagers lists the supported package managers in display order.
var PackageManagers = []PackageManager{PackageManagerNPM, PackageManagerPNPM, PackageManagerYarn, PackageManagerBun}

// CSS selects the styling strategy.
type CSS string

// Supported CSS strategies.
const (
	CSSNone     CSS = "none"
	CSSSass     CSS = "sass"
	CSSLess     CSS = "less"
	CSSTailwind CSS = "tailwind"
)

// CSSStrategies lists the supported CSS strategies in display order.
var CSSStrategies = []CSS{CSSNone, CSSSass, CSSLess, CSSTailwind}

// Configuration is the resolved set of choices for one generation run.
// It is created once and passed by value afterwards.
type Configuration struct {
	// ProjectName is the human-facing project identifier.
	ProjectName string `yaml:"projectName" validate:"required,max=214"`
	// PackageName is the manifest "name"; derived from ProjectName when empty.
	PackageName string `yaml:"packageName,omitempty" validate:"required,max=214"`
	// PackageManager drives install/run/exec commands in generated files.
	PackageManager PackageManager `yaml:"packageManager,omitempty" validate:"required,oneof=npm pnpm yarn bun"`
	// TypeScript selects the typed language mode.
	TypeScript bool `yaml:"typescript"`
	// Router enables router wiring.
	Router bool `yaml:"router"`
	// Store enables state-store wiring.
	Store bool `yaml:"store"`
	// Linter enables linter and formatter configuration.
	Linter bool `yaml:"linter"`
	// GitHooks enables git-hook and commit-message convention scaffolding.
	GitHooks bool `yaml:"gitHooks"`
	// CSS selects the styling strategy.
	CSS CSS `yaml:"css,omitempty" validate:"required,oneof=none sass less tailwind"`
	// Versions pins dependency versions by package name.
	Versions map[string]string `yaml:"versions,omitempty"`
}

// Defaults returns the configuration used before any source is applied.
func Defaults() Configuration {
	return Configuration{
		PackageManager: PackageManagerNPM,
		CSS:            CSSNone,
	}
}

// Ext returns the script file extension for the language mode.
func (c Configuration) Ext() string {
	if c.TypeScript {
		return "ts"
	}
	return "js"
}

// Language returns a display name for the language mode.
func (c Configuration) Language() string {
	if c.TypeScript {
		return "TypeScript"
	}
	return "JavaScript"
}

// EntryFile is the project-relative path of the application bootstrap file.
func (c Configuration) EntryFile() string { return "src/main." + c.Ext() }

// BuildConfigFile is the project-relative path of the build-tool config.
func (c Configuration) BuildConfigFile() string { return "vite.config." + c.Ext() }

// ManifestFile is the project-relative path of the package manifest.
func (c Configuration) ManifestFile() string { return "package.json" }

// TypeCheckManifest is the secondary type-check manifest covering tooling files.
func (c Configuration) TypeCheckManifest() string { return "tsconfig.node.json" }

// InstallCommand returns the dependency install command for the package manager.
func (c Configuration) InstallCommand() string {
	switch c.PackageManager {
	case PackageManagerYarn:
		return "yarn"
	default:
		return string(c.pm()) + " install"
	}
}

// RunCommand returns the command that runs a manifest script.
func (c Configuration) RunCommand(script string) string {
	switch c.pm() {
	case PackageManagerPNPM, PackageManagerYarn:
		return string(c.pm()) + " " + script
	default:
		return string(c.pm()) + " run " + script
	}
}

// ExecCommand returns the command that runs a locally installed binary.
func (c Configuration) ExecCommand(bin string) string {
	switch c.pm() {
	case PackageManagerPNPM:
		return "pnpm exec " + bin
	case PackageManagerYarn:
		return "yarn " + bin
	case PackageManagerBun:
		return "bunx " + bin
	default:
		return "npx --no -- " + bin
	}
}

func (c Configuration) pm() PackageManager {
	if c.PackageManager == "" {
		return PackageManagerNPM
	}
	return c.PackageManager
}

// Normalize trims values, derives PackageName and fills defaults.
func (c Configuration) Normalize() Configuration {
	c.ProjectName = strings.TrimSpace(c.ProjectName)
	c.PackageName = strings.TrimSpace(c.PackageName)
	if c.PackageName == "" && c.ProjectName != "" {
		c.PackageName = PackageNameFor(c.ProjectName)
	}
	c.PackageManager = PackageManager(strings.ToLower(strings.TrimSpace(string(c.PackageManager))))
	if c.PackageManager == "" {
		c.PackageManager = PackageManagerNPM
	}
	c.CSS = CSS(strings.ToLower(strings.TrimSpace(string(c.CSS))))
	if c.CSS == "" {
		c.CSS = CSSNone
	}
	return c
}

// Resolve normalizes and validates the configuration.
func (c Configuration) Resolve() (Configuration, error) {
	c = c.Normalize()
	if err := c.Validate(); err != nil {
		return Configuration{}, err
	}
	return c, nil
}

// PackageNameFor derives an npm package name from a project name.
// Scoped names keep their scope.
func PackageNameFor(project string) string {
	project = strings.TrimSpace(project)
	if strings.HasPrefix(project, "@") {
		if scope, name, ok := strings.Cut(project[1:], "/"); ok {
			return "@" + slug.Make(scope) + "/" + slug.Make(name)
		}
	}
	return slug.Make(filepath.Base(project))
}

// File is the on-disk appgen.yaml model.
type File struct {
	Configuration `yaml:",inline"`
	// EnvFiles lists .env files (relative to the config file) loaded before
	// APPGEN_* variables are applied.
	EnvFiles []string `yaml:"envFiles,omitempty"`
}

// Overrides carries explicitly set values; nil fields leave the layer below untouched.
// The env tags bind APPGEN_* variables.
type Overrides struct {
	ProjectName    *string `env:"APPGEN_PROJECT_NAME"`
	PackageName    *string `env:"APPGEN_PACKAGE_NAME"`
	PackageManager *string `env:"APPGEN_PACKAGE_MANAGER"`
	TypeScript     *bool   `env:"APPGEN_TYPESCRIPT"`
	Router         *bool   `env:"APPGEN_ROUTER"`
	Store          *bool   `env:"APPGEN_STORE"`
	Linter         *bool   `env:"APPGEN_LINTER"`
	GitHooks       *bool   `env:"APPGEN_GIT_HOOKS"`
	CSS            *string `env:"APPGEN_CSS"`
}

// Apply returns cfg with every non-nil override applied.
func (o Overrides) Apply(cfg Configuration) Configuration {
	if o.ProjectName != nil {
		cfg.ProjectName = *o.ProjectName
	}
	if o.PackageName != nil {
		cfg.PackageName = *o.PackageName
	}
	if o.PackageManager != nil {
		cfg.PackageManager = PackageManager(*o.PackageManager)
	}
	if o.TypeScript != nil {
		cfg.TypeScript = *o.TypeScript
	}
	if o.Router != nil {
		cfg.Router = *o.Router
	}
	if o.Store != nil {
		cfg.Store = *o.Store
	}
	if o.Linter != nil {
		cfg.Linter = *o.Linter
	}
	if o.GitHooks != nil {
		cfg.GitHooks = *o.GitHooks
	}
	if o.CSS != nil {
		cfg.CSS = CSS(*o.CSS)
	}
	return cfg
}

// WithVersions returns cfg with pins merged over the existing ones.
func (c Configuration) WithVersions(pins env.Vars) Configuration {
	if len(pins) == 0 {
		return c
	}
	merged := make(map[string]string, len(c.Versions)+len(pins))
	for k, v := range c.Versions {
		merged[k] = v
	}
	for k, v := range pins {
		merged[k] = v
	}
	c.Versions = merged
	return c
}

// LoadOptions describes the sources layered by Load.
type LoadOptions struct {
	// Fs is the filesystem used for the config and env files. Defaults to the OS filesystem.
	Fs afero.Fs
	// Path is the appgen.yaml path. Empty skips the file layer.
	Path string
	// Optional tolerates a missing file at Path.
	Optional bool
	// Environment is the variable set APPGEN_* values are read from. Defaults to the OS environment.
	Environment env.Vars
	// Flags are the highest-precedence overrides.
	Flags Overrides
	// Versions are dependency pins merged over the file's versions block.
	Versions env.Vars
}

// Load layers defaults, the config file, its env files, APPGEN_* variables
// and flag overrides, then normalizes the result. It does not validate so
// callers can still complete missing values interactively; call Resolve.
func Load(opts LoadOptions) (Configuration, error) {
	fsys := opts.Fs
	if fsys == nil {
		fsys = afero.NewOsFs()
	}
	vars := opts.Environment
	if vars == nil {
		vars = env.FromOS()
	}

	cfg := Defaults()

	if strings.TrimSpace(opts.Path) != "" {
		file, found, err := readFile(fsys, opts.Path, opts.Optional)
		if err != nil {
			return Configuration{}, err
		}
		if found {
			cfg = mergeFile(cfg, file.Configuration)
			fileVars, err := env.LoadEnvFiles(fsys, filepath.Dir(opts.Path), file.EnvFiles)
			if err != nil {
				return Configuration{}, err
			}
			vars = env.Merge(fileVars, vars)
		}
	}

	var fromEnv Overrides
	if err := envparse.ParseWithOptions(&fromEnv, envparse.Options{Environment: vars}); err != nil {
		return Configuration{}, fmt.Errorf("parse APPGEN_* variables: %w", err)
	}
	cfg = fromEnv.Apply(cfg)
	cfg = opts.Flags.Apply(cfg)
	cfg = cfg.WithVersions(opts.Versions)

	return cfg.Normalize(), nil
}

func readFile(fsys afero.Fs, path string, optional bool) (File, bool, error) {
	raw, err := afero.ReadFile(fsys, path)
	if err != nil {
		if optional && errors.Is(err, fs.ErrNotExist) {
			return File{}, false, nil
		}
		return File{}, false, fmt.Errorf("read config %q: %w", path, err)
	}
	var file File
	if err := yaml.Unmarshal(raw, &file); err != nil {
		return File{}, false, fmt.Errorf("parse config %q: %w", path, err)
	}
	return file, true, nil
}

// mergeFile overlays non-zero file values onto base. Booleans in the file
// always win since false is a meaningful choice.
func mergeFile(base, file Configuration) Configuration {
	out := file
	if out.PackageManager == "" {
		out.PackageManager = base.PackageManager
	}
	if out.CSS == "" {
		out.CSS = base.CSS
	}
	if out.ProjectName == "" {
		out.ProjectName = base.ProjectName
	}
	return out
}
