package cli

import (
	"fmt"
	"strings"

	envparse "github.com/caarlos0/env/v11"

	"github.com/appgen-dev/appgen/internal/env"
	"github.com/appgen-dev/appgen/internal/logging"
)

// baseEnv defines root CLI defaults sourced from APPGEN_* env vars.
type baseEnv struct {
	// ConfigPath is the appgen.yaml path from APPGEN_CONFIG.
	ConfigPath string `env:"APPGEN_CONFIG"`
	// LogLevel is the logging level from APPGEN_LOG_LEVEL.
	LogLevel string `env:"APPGEN_LOG_LEVEL"`
}

func loadBaseEnv(vars env.Vars) (baseEnv, error) {
	var out baseEnv
	if err := envparse.ParseWithOptions(&out, envparse.Options{Environment: vars}); err != nil {
		return baseEnv{}, fmt.Errorf("parse APPGEN_* variables: %w", err)
	}
	return out, nil
}

// options turns the env defaults into root options. An APPGEN_CONFIG path
// must exist.
func (b baseEnv) options() *Options {
	opts := &Options{
		ConfigPath: defaultConfigPath,
		LogLevel:   logging.LevelInfo,
	}
	if path := strings.TrimSpace(b.ConfigPath); path != "" {
		opts.ConfigPath = path
		opts.ConfigRequired = true
	}
	if strings.TrimSpace(b.LogLevel) != "" {
		opts.LogLevel = logging.ParseLevel(b.LogLevel)
	}
	return opts
}
