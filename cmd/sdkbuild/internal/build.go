package internal

import (
	"fmt"
	"path/filepath"

	"github.com/astarte-platform/sdkbuild/internal/build"
	"github.com/astarte-platform/sdkbuild/internal/env"
	"github.com/astarte-platform/sdkbuild/internal/profile"
	"github.com/astarte-platform/sdkbuild/recipes/endtoend"
	"github.com/spf13/cobra"
)

var (
	buildSettings       []string
	buildOptions        []string
	buildProfile        string
	buildOutput         string
	buildGenerator      string
	buildCompileCommand bool
)

var buildCmd = &cobra.Command{
	Use:   "build [source_dir]",
	Short: "Build the end-to-end application",
	Long: `Build resolves the recipe against the host settings, installs the pinned
requirements with Conan, generates the CMake toolchain and then configures,
builds and installs the project.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runBuild,
}

func init() {
	buildCmd.Flags().StringArrayVarP(&buildSettings, "settings", "s", nil, "Setting override, key=value (repeatable)")
	buildCmd.Flags().StringArrayVarP(&buildOptions, "options", "o", nil, "Option override, key=value (repeatable)")
	buildCmd.Flags().StringVarP(&buildProfile, "profile", "p", "", "YAML profile with settings, options and conf")
	buildCmd.Flags().StringVar(&buildOutput, "output-folder", "", "Output folder (default <source_dir>/build)")
	buildCmd.Flags().StringVarP(&buildGenerator, "generator", "G", "", "CMake generator, overrides the profile conf")
	buildCmd.Flags().BoolVar(&buildCompileCommand, "export-compile-commands", false, "Export compile_commands.json")
	rootCmd.AddCommand(buildCmd)
}

func runBuild(cmd *cobra.Command, args []string) error {
	sourceDir := "."
	if len(args) > 0 {
		sourceDir = args[0]
	}

	var prof *profile.Profile
	if buildProfile != "" {
		p, err := profile.Load(buildProfile)
		if err != nil {
			return err
		}
		prof = p
	}
	settings, options, err := profile.Merge(env.DefaultSettings(), prof, buildSettings, buildOptions)
	if err != nil {
		return err
	}

	variables, err := prof.Variables()
	if err != nil {
		return err
	}
	if buildCompileCommand {
		if variables == nil {
			variables = map[string]string{}
		}
		variables["CMAKE_EXPORT_COMPILE_COMMANDS"] = "ON"
	}
	generator, err := prof.Generator()
	if err != nil {
		return err
	}
	if buildGenerator != "" {
		generator = buildGenerator
	}

	builder, err := build.NewBuilder(build.Options{
		Recipe:    endtoend.New(),
		SourceDir: sourceDir,
		OutputDir: buildOutput,
		Settings:  settings,
		Overrides: options,
		Variables: variables,
		Generator: generator,
		Stdout:    cmd.OutOrStdout(),
		Stderr:    cmd.ErrOrStderr(),
	})
	if err != nil {
		return fmt.Errorf("failed to create builder: %w", err)
	}

	res, err := builder.Build(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to build %s: %w", endtoend.Name, err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Build folder: %s\n", res.BuildDir)
	fmt.Fprintf(out, "Package folder: %s\n", res.PackageDir)
	if buildCompileCommand {
		fmt.Fprintf(out, "Compilation database: %s\n", filepath.Join(res.BuildDir, "compile_commands.json"))
	}
	return nil
}
