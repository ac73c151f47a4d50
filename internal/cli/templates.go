package cli

import (
	"fmt"
	"sort"
	"strings"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/appgen-dev/appgen/internal/config"
	"github.com/appgen-dev/appgen/internal/feature"
)

// newTemplatesListCommand prints every provider in declared order with the
// templates it can render.
func newTemplatesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List features in declared order with their templates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			tw := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 4, 2, ' ', 0)
			fmt.Fprintln(tw, "ORDER\tFEATURE\tTEMPLATES")
			for i, p := range feature.Default() {
				fmt.Fprintf(tw, "%d\t%s\t%s\n", i, p.Name(), strings.Join(templateNames(p), ", "))
			}
			return tw.Flush()
		},
	}
}

// newTemplatesLintCommand checks that every template placeholder has a value
// for every supported configuration.
func newTemplatesLintCommand() *cobra.Command {
	var only string

	cmd := &cobra.Command{
		Use:   "lint",
		Short: "Check every template placeholder is defined for every configuration",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logger := LoggerFromContext(cmd.Context())

			providers, err := selectProviders(feature.Default(), parseNameSet(only))
			if err != nil {
				return err
			}
			loader, err := feature.NewLoader()
			if err != nil {
				return err
			}
			configs := config.Matrix("lint")
			if err := feature.CheckPlaceholders(loader, providers, configs); err != nil {
				return fmt.Errorf("template lint failed: %w", err)
			}
			logger.Debug("templates linted", "features", len(providers), "configurations", len(configs))
			_, err = fmt.Fprintf(cmd.OutOrStdout(), "ok: %d features checked across %d configurations\n", len(providers), len(configs))
			return err
		},
	}
	cmd.Flags().StringVar(&only, "features", "", "Comma-separated feature names to check (default all)")
	return cmd
}

// templateNames returns the templates p renders for any configuration, sorted.
func templateNames(p feature.Provider) []string {
	seen := make(map[string]struct{})
	for _, cfg := range config.Matrix("list") {
		if !p.Enabled(cfg) {
			continue
		}
		for _, f := range p.Files(cfg) {
			seen[f.Template] = struct{}{}
		}
	}
	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// selectProviders keeps the providers named in only, in declared order. An
// empty set keeps all of them.
func selectProviders(providers []feature.Provider, only map[string]struct{}) ([]feature.Provider, error) {
	if len(only) == 0 {
		return providers, nil
	}
	var out []feature.Provider
	for _, p := range providers {
		if _, ok := only[p.Name()]; ok {
			out = append(out, p)
			delete(only, p.Name())
		}
	}
	if len(only) > 0 {
		unknown := make([]string, 0, len(only))
		for name := range only {
			unknown = append(unknown, name)
		}
		sort.Strings(unknown)
		return nil, fmt.Errorf("unknown features: %s", strings.Join(unknown, ", "))
	}
	return out, nil
}
