package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/spf13/afero"
	"github.com/spf13/cobra"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/diffview"
	"github.com/appgen-dev/appgen/internal/engine"
	"github.com/appgen-dev/appgen/internal/env"
	"github.com/appgen-dev/appgen/internal/feature"
	"github.com/appgen-dev/appgen/internal/ghoutput"
	"github.com/appgen-dev/appgen/internal/logging"
	"github.com/appgen-dev/appgen/internal/prompt"
	"github.com/appgen-dev/appgen/internal/tracing"
)

// generateFlags holds the raw flag values of the generate command. Only
// flags the user set become overrides.
type generateFlags struct {
	name           string
	packageName    string
	packageManager string
	css            string
	versions       string
	typescript     bool
	router         bool
	store          bool
	linter         bool
	gitHooks       bool
	interactive    bool
	dryRun         bool
	trace          bool
}

// newGenerateCommand creates the "generate" command that applies features to a seed project.
func newGenerateCommand(opts *Options) *cobra.Command {
	var flags generateFlags

	cmd := &cobra.Command{
		Use:   "generate [dir]",
		Short: "Apply the selected features to a seed project",
		Long: "Renders every enabled feature into the project directory (default \".\"), then rewrites " +
			"package.json and the entry file. The seed project must already contain both.",
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			logger := LoggerFromContext(ctx)

			dir := "."
			if len(args) == 1 {
				dir = args[0]
			}
			root, err := filepath.Abs(dir)
			if err != nil {
				return fmt.Errorf("resolve project directory %q: %w", dir, err)
			}

			cfg, err := loadGenerateConfig(ctx, cmd, opts, &flags, root)
			if err != nil {
				return err
			}
			logger.Debug("configuration resolved",
				"project", cfg.ProjectName,
				"package", cfg.PackageName,
				"packageManager", cfg.PackageManager,
				"language", cfg.Language(),
				"css", cfg.CSS,
			)

			spans := logging.NewWriter(logger, "span", "json").WithLevel(logging.LevelInfo)
			tp, shutdown, err := tracing.Setup(spans, flags.trace)
			if err != nil {
				return err
			}
			defer func() {
				if err := shutdown(context.Background()); err != nil {
					logger.Warn("flush traces", "error", err)
				}
			}()

			osFs := afero.NewOsFs()
			target := osFs
			if flags.dryRun {
				target = afero.NewCopyOnWriteFs(afero.NewReadOnlyFs(osFs), afero.NewMemMapFs())
			}

			loader, err := feature.NewLoader()
			if err != nil {
				return err
			}
			ws := feature.NewWorkspace(target, root, loader, logger)

			out, err := engine.NewEngine(nil, engine.WithTracerProvider(tp)).Generate(ctx, ws, cfg)
			if err != nil {
				return err
			}

			if flags.dryRun {
				return reportDryRun(cmd.OutOrStdout(), afero.NewBasePathFs(osFs, root), ws.Fs, out.Files)
			}

			if err := ghoutput.Write(osFs, ghoutput.Path(env.FromOS()), map[string]string{
				"run_id":   out.RunID,
				"features": strings.Join(out.Effects.Providers(), ","),
				"files":    strconv.Itoa(len(out.Files)),
			}); err != nil {
				logger.Warn("write step outputs", "error", err)
			}
			return printSummary(cmd.OutOrStdout(), dir, cfg, out)
		},
	}

	f := cmd.Flags()
	f.StringVar(&flags.name, "name", "", "Project name (defaults to the directory name)")
	f.StringVar(&flags.packageName, "package-name", "", "Package name for package.json (derived from the project name)")
	f.StringVar(&flags.packageManager, "package-manager", "", "Package manager: npm, pnpm, yarn or bun")
	f.StringVar(&flags.css, "css", "", "CSS strategy: none, sass, less or tailwind")
	f.StringVar(&flags.versions, "versions", "", "Dependency version pins in name=version,name2=version2 format")
	f.BoolVar(&flags.typescript, "typescript", false, "Use TypeScript")
	f.BoolVar(&flags.router, "router", false, "Add Vue Router")
	f.BoolVar(&flags.store, "store", false, "Add Pinia")
	f.BoolVar(&flags.linter, "linter", false, "Add ESLint and Prettier")
	f.BoolVar(&flags.gitHooks, "git-hooks", false, "Add husky git hooks with commitlint")
	f.BoolVarP(&flags.interactive, "interactive", "i", false, "Ask for every choice in the terminal")
	f.BoolVar(&flags.dryRun, "dry-run", false, "Print the changes instead of writing them")
	f.BoolVar(&flags.trace, "trace", false, "Log an OpenTelemetry span per feature")

	return cmd
}

// overrides returns the flags the user set explicitly.
func (g *generateFlags) overrides(cmd *cobra.Command) config.Overrides {
	changed := cmd.Flags().Changed
	var o config.Overrides
	if changed("name") {
		o.ProjectName = &g.name
	}
	if changed("package-name") {
		o.PackageName = &g.packageName
	}
	if changed("package-manager") {
		o.PackageManager = &g.packageManager
	}
	if changed("css") {
		o.CSS = &g.css
	}
	if changed("typescript") {
		o.TypeScript = &g.typescript
	}
	if changed("router") {
		o.Router = &g.router
	}
	if changed("store") {
		o.Store = &g.store
	}
	if changed("linter") {
		o.Linter = &g.linter
	}
	if changed("git-hooks") {
		o.GitHooks = &g.gitHooks
	}
	return o
}

func loadGenerateConfig(ctx context.Context, cmd *cobra.Command, opts *Options, flags *generateFlags, root string) (config.Configuration, error) {
	pins, err := env.ParseInlineVars(flags.versions)
	if err != nil {
		return config.Configuration{}, fmt.Errorf("parse --versions: %w", err)
	}

	cfg, err := config.Load(config.LoadOptions{
		Path:     opts.ConfigPath,
		Optional: !opts.ConfigRequired,
		Flags:    flags.overrides(cmd),
		Versions: pins,
	})
	if err != nil {
		return config.Configuration{}, err
	}
	if cfg.ProjectName == "" {
		cfg.ProjectName = filepath.Base(root)
		cfg = cfg.Normalize()
	}

	if flags.interactive {
		cfg, err = prompt.Complete(ctx, prompt.NewSurveyDriver(), cfg)
		if err != nil {
			return config.Configuration{}, err
		}
	}
	return cfg.Resolve()
}

// reportDryRun prints a unified diff for every changed file and lists the
// files that would be created.
func reportDryRun(w io.Writer, base, overlay afero.Fs, files []string) error {
	var created []string
	for _, name := range files {
		after, err := afero.ReadFile(overlay, name)
		if err != nil {
			return fmt.Errorf("read %q: %w", name, err)
		}
		before, err := afero.ReadFile(base, name)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			created = append(created, name)
			continue
		case err != nil:
			return fmt.Errorf("read %q: %w", name, err)
		}
		diff, err := diffview.Unified(name, before, after)
		if err != nil {
			return err
		}
		if diff == "" {
			continue
		}
		added, removed := diffview.Stat(diff)
		if _, err := fmt.Fprintf(w, "# %s (+%d -%d)\n%s\n", name, added, removed, diff); err != nil {
			return err
		}
	}
	if len(created) == 0 {
		return nil
	}
	if _, err := fmt.Fprintln(w, "# files to create"); err != nil {
		return err
	}
	for _, name := range created {
		if _, err := fmt.Fprintf(w, "create %s\n", name); err != nil {
			return err
		}
	}
	return nil
}

func printSummary(w io.Writer, dir string, cfg config.Configuration, out *engine.Outcome) error {
	var b strings.Builder
	fmt.Fprintf(&b, "Generated %s (%s) with features: %s\n", cfg.PackageName, cfg.Language(), strings.Join(out.Effects.Providers(), ", "))
	fmt.Fprintf(&b, "Wrote %d files.\n\nNext steps:\n", len(out.Files))
	if dir != "." {
		fmt.Fprintf(&b, "  cd %s\n", dir)
	}
	fmt.Fprintf(&b, "  %s\n", cfg.InstallCommand())
	if cfg.Linter {
		fmt.Fprintf(&b, "  %s\n", cfg.RunCommand("format"))
	}
	fmt.Fprintf(&b, "  %s\n", cfg.RunCommand("dev"))
	_, err := io.WriteString(w, b.String())
	return err
}
