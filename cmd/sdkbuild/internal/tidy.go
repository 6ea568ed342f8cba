package internal

import (
	"github.com/astarte-platform/sdkbuild/internal/tidy"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/spf13/cobra"
)

var tidyCmd = &cobra.Command{
	Use:   "tidy <lib_src_dir> <" + tidy.Usage() + ">",
	Short: "Build library as Conan project for clang-tidy",
	Long: `Tidy detects the default Conan profile, then builds the library in debug mode
with C++20, exporting compile_commands.json into the build output folder.`,
	Args:      cobra.ExactArgs(2),
	ValidArgs: tidy.TransportNames(),
	RunE:      runTidy,
}

// tidyRunner runs the conan commands; nil means os/exec.
var tidyRunner buildsys.Runner

func init() {
	rootCmd.AddCommand(tidyCmd)
}

func runTidy(cmd *cobra.Command, args []string) error {
	h := &tidy.Helper{
		Runner: tidyRunner,
		Stdout: cmd.OutOrStdout(),
		Stderr: cmd.ErrOrStderr(),
	}
	return h.Run(cmd.Context(), tidy.Options{LibSrcDir: args[0], Transport: args[1]})
}
