// Package cli defines the command-line interface for appgen.
package cli

import (
	"context"
	"log/slog"
	"os"

	"github.com/spf13/cobra"

	"github.com/appgen-dev/appgen/internal/env"
	"github.com/appgen-dev/appgen/internal/logging"
)

const (
	// defaultConfigPath is the default path to the generator configuration file.
	defaultConfigPath = "appgen.yaml"
)

// Options stores global CLI options shared between commands.
type Options struct {
	ConfigPath string
	LogLevel   logging.Level
	// ConfigRequired is set when the config path was chosen explicitly, in
	// which case a missing file is an error.
	ConfigRequired bool
}

// Execute builds the root command, runs it with the provided args and logger, and returns any error.
func Execute(args []string, logger *slog.Logger) error {
	if logger == nil {
		logger = logging.NewLogger(os.Stderr, logging.LevelInfo)
	}

	base, err := loadBaseEnv(env.FromOS())
	if err != nil {
		return err
	}
	rootOpts := base.options()

	rootCmd := newRootCommand(rootOpts, logger)
	rootCmd.SetArgs(args)

	return rootCmd.Execute()
}

// newRootCommand constructs the root cobra.Command with global flags and subcommands.
func newRootCommand(opts *Options, logger *slog.Logger) *cobra.Command {
	cmd := &cobra.Command{
		Use:           "appgen",
		Short:         "appgen scaffolds Vite + Vue applications from composable features",
		Long:          "appgen renders feature templates into an existing Vite + Vue seed project and rewrites its package.json and entry file so they reflect exactly the selected features.",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			level := logging.ParseLevel(cmd.Flag("log-level").Value.String())
			opts.LogLevel = level
			if cmd.Flags().Changed("config") {
				opts.ConfigRequired = true
			}
			logger = logging.NewLogger(cmd.ErrOrStderr(), level)
			cmd.SetContext(context.WithValue(cmd.Context(), loggerKey{}, logger))
			logger.Debug("logger initialized", "level", level)
			return nil
		},
	}

	cmd.PersistentFlags().StringVarP(&opts.ConfigPath, "config", "c", opts.ConfigPath, "Path to appgen.yaml configuration file")
	cmd.PersistentFlags().String("log-level", opts.LogLevel.String(), "Log level (debug, info, warn, error)")

	cmd.AddCommand(
		newGenerateCommand(opts),
		newGroupCommand("templates", "Inspect the built-in template pack",
			newTemplatesListCommand(),
			newTemplatesLintCommand(),
		),
		newVersionCommand(),
	)

	return cmd
}

// loggerKey is a private context key used to store a logger in command contexts.
type loggerKey struct{}

// LoggerFromContext extracts a logger from the context or falls back to a default logger.
func LoggerFromContext(ctx context.Context) *slog.Logger {
	if ctx == nil {
		return logging.NewLogger(os.Stderr, logging.LevelInfo)
	}
	if l, ok := ctx.Value(loggerKey{}).(*slog.Logger); ok && l != nil {
		return l
	}
	return logging.NewLogger(os.Stderr, logging.LevelInfo)
}
