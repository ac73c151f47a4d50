package feature

import (
	"context"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/render"
)

const hookMode = 0o755

// GitHooks scaffolds git hooks and the conventional commit-message check.
type GitHooks struct{}

func (GitHooks) Name() string { return "githooks" }

func (GitHooks) Enabled(cfg config.Configuration) bool { return cfg.GitHooks }

func (GitHooks) Files(cfg config.Configuration) []File {
	base := baseContext(cfg)
	files := make([]File, 0, 3)
	// pre-commit is only written when it has a command to run.
	if cfg.Linter || cfg.TypeScript {
		files = append(files, File{
			Template: "githooks/pre-commit",
			Target:   ".husky/pre-commit",
			Mode:     hookMode,
			Context: base.Merge(render.Context{
				"lint_staged_command": render.When(cfg.Linter, cfg.ExecCommand("lint-staged")),
				"type_check_command":  render.When(cfg.TypeScript, cfg.RunCommand("type-check")),
			}),
		})
	}
	files = append(files,
		File{
			Template: "githooks/commit-msg",
			Target:   ".husky/commit-msg",
			Mode:     hookMode,
			Context:  base.Merge(render.Context{"commitlint_command": cfg.ExecCommand("commitlint")}),
		},
		File{Template: "githooks/commitlint.config", Target: "commitlint.config.js", Context: base},
	)
	return files
}

func (g GitHooks) Setup(_ context.Context, ws *Workspace, cfg config.Configuration) (Result, error) {
	if err := ws.RenderFiles(g.Files(cfg)); err != nil {
		return Result{}, err
	}
	dev := []string{"husky", "@commitlint/cli", "@commitlint/config-conventional"}
	if cfg.Linter {
		dev = append(dev, "lint-staged")
	}
	return Result{
		DevDependencies: dev,
		Scripts:         map[string]string{"prepare": "husky"},
	}, nil
}
