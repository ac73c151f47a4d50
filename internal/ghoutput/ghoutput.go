// Package ghoutput publishes generation results as GitHub Actions step outputs.
package ghoutput

import (
	"fmt"
	"os"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/appgen-dev/appgen/internal/env"
)

// EnvVar names the file GitHub Actions reads step outputs from.
const EnvVar = "GITHUB_OUTPUT"

// Path returns the step output file from vars, or "" outside Actions.
func Path(vars env.Vars) string {
	return strings.TrimSpace(vars[EnvVar])
}

// Write appends values to the output file at path as sorted key=value lines.
// An empty path or value set is a no-op.
func Write(fsys afero.Fs, path string, values map[string]string) error {
	if path == "" || len(values) == 0 {
		return nil
	}

	f, err := fsys.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o600)
	if err != nil {
		return fmt.Errorf("open %s file: %w", EnvVar, err)
	}
	defer func() { _ = f.Close() }()

	keys := make([]string, 0, len(values))
	for k := range values {
		if strings.TrimSpace(k) == "" {
			continue
		}
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, key := range keys {
		if _, err := fmt.Fprintf(f, "%s=%s\n", key, sanitize(values[key])); err != nil {
			return fmt.Errorf("write %s: %w", EnvVar, err)
		}
	}
	return nil
}

func sanitize(value string) string {
	if value == "" {
		return ""
	}
	value = strings.ReplaceAll(value, "\r", "%0D")
	value = strings.ReplaceAll(value, "\n", "%0A")
	return value
}
