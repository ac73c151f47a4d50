package prompt

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/appgen-dev/appgen/internal/config"
)

// Complete asks for every choice, offering the values already in cfg as
// defaults, and returns the normalized result.
func Complete(ctx context.Context, d Driver, cfg config.Configuration) (config.Configuration, error) {
	name, err := d.Input(ctx, InputConfig{
		Message: "Project name:",
		Default: cfg.ProjectName,
		Validator: func(s string) error {
			if strings.TrimSpace(s) == "" {
				return errors.New("project name is required")
			}
			return nil
		},
	})
	if err != nil {
		return cfg, fmt.Errorf("project name: %w", err)
	}
	if name != cfg.ProjectName {
		// A renamed project gets a fresh package name.
		cfg.PackageName = ""
	}
	cfg.ProjectName = name

	pm, err := choose(ctx, d, "Package manager:", config.PackageManagers, cfg.PackageManager)
	if err != nil {
		return cfg, err
	}
	cfg.PackageManager = pm

	toggles := []struct {
		message string
		target  *bool
	}{
		{"Use TypeScript?", &cfg.TypeScript},
		{"Add Vue Router for single-page routing?", &cfg.Router},
		{"Add Pinia for state management?", &cfg.Store},
		{"Add ESLint and Prettier?", &cfg.Linter},
		{"Add git hooks with commitlint?", &cfg.GitHooks},
	}
	for _, toggle := range toggles {
		ok, err := d.Confirm(ctx, ConfirmConfig{Message: toggle.message, Default: *toggle.target})
		if err != nil {
			return cfg, fmt.Errorf("%s %w", toggle.message, err)
		}
		*toggle.target = ok
	}

	css, err := choose(ctx, d, "CSS strategy:", config.CSSStrategies, cfg.CSS)
	if err != nil {
		return cfg, err
	}
	cfg.CSS = css

	return cfg.Normalize(), nil
}

func choose[T ~string](ctx context.Context, d Driver, message string, options []T, current T) (T, error) {
	labels := make([]string, len(options))
	def := 0
	for i, opt := range options {
		labels[i] = string(opt)
		if opt == current {
			def = i
		}
	}
	idx, err := d.Select(ctx, SelectConfig{Message: message, Options: labels, DefaultIndex: def})
	if err != nil {
		return current, fmt.Errorf("%s %w", message, err)
	}
	if idx < 0 || idx >= len(options) {
		return current, fmt.Errorf("%s invalid choice %d", message, idx)
	}
	return options[idx], nil
}
