package internal

import (
	"fmt"
	"io"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/internal/env"
	"github.com/astarte-platform/sdkbuild/internal/profile"
	"github.com/astarte-platform/sdkbuild/recipes/endtoend"
	"github.com/spf13/cobra"
)

var inspectSettings []string

var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Show the recipe declarations",
	Long: `Inspect prints the settings, options and pinned requirements of the
end-to-end recipe, the option set resolved for the given settings and every
option combination available for them.`,
	Args: cobra.NoArgs,
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().StringArrayVarP(&inspectSettings, "settings", "s", nil, "Setting override, key=value (repeatable)")
	rootCmd.AddCommand(inspectCmd)
}

func runInspect(cmd *cobra.Command, args []string) error {
	settings, _, err := profile.Merge(env.DefaultSettings(), nil, inspectSettings, nil)
	if err != nil {
		return err
	}
	return inspect(cmd.OutOrStdout(), settings)
}

func inspect(w io.Writer, settings formula.Settings) error {
	r := endtoend.New()

	fmt.Fprintf(w, "name: %s\n", r.Name())
	fmt.Fprintf(w, "settings: %s\n", strings.Join(r.Settings(), ", "))
	fmt.Fprintln(w, "options:")
	for _, name := range r.Options() {
		values, def, _ := r.OptionValues(name)
		fmt.Fprintf(w, "    %s: [%s] (default %s)\n", name, strings.Join(values, ", "), def)
	}

	requires, err := r.Requirements()
	if err != nil {
		return err
	}
	fmt.Fprintln(w, "requires:")
	for _, mod := range requires {
		fmt.Fprintf(w, "    %s\n", mod)
	}

	cfg, err := r.Resolve(settings, nil)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "resolved for %s:\n", strings.Join(cfg.Settings.Args(), " "))
	for _, name := range cfg.Options.Keys() {
		v, _ := cfg.Options.Get(name)
		fmt.Fprintf(w, "    %s=%s\n", name, v)
	}

	m, err := r.Matrix(settings)
	if err != nil {
		return err
	}
	fmt.Fprintf(w, "configurations (%d):\n", m.CombinationCount())
	for _, combo := range m.Combinations() {
		fmt.Fprintf(w, "    %s\n", combo)
	}
	return nil
}
