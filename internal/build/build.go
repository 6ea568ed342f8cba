package build

import (
	"context"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"path/filepath"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/conan"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
)

// Options configures a Builder.
type Options struct {
	Recipe    *formula.Recipe
	SourceDir string
	// OutputDir holds one folder per configuration. Defaults to
	// <SourceDir>/build.
	OutputDir string

	Settings  formula.Settings
	Overrides map[string]string
	// Variables are extra CMake cache variables, such as
	// CMAKE_EXPORT_COMPILE_COMMANDS.
	Variables map[string]string
	// Generator is passed to cmake -G.
	Generator string

	Runner   buildsys.Runner
	Resolver conan.Resolver
	Stdout   io.Writer
	Stderr   io.Writer
}

// Result describes a finished build.
type Result struct {
	Config        *formula.Config
	Requires      []module.Version
	BuildDir      string
	GeneratorsDir string
	PackageDir    string
}

// Stage names a failing build step.
type Stage string

const (
	StageConfig   Stage = "config"
	StageRequire  Stage = "require"
	StageResolve  Stage = "resolve"
	StageGenerate Stage = "generate"
	StageBuild    Stage = "build"
	StagePackage  Stage = "package"
)

// StageError wraps the failure of a build step.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("%s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

type Builder struct {
	opts Options
}

func NewBuilder(opts Options) (*Builder, error) {
	if opts.Recipe == nil {
		return nil, errors.New("build: no recipe")
	}
	if opts.SourceDir == "" {
		opts.SourceDir = "."
	}
	src, err := filepath.Abs(opts.SourceDir)
	if err != nil {
		return nil, err
	}
	opts.SourceDir = src
	if opts.OutputDir == "" {
		opts.OutputDir = filepath.Join(src, "build")
	}
	if opts.OutputDir, err = filepath.Abs(opts.OutputDir); err != nil {
		return nil, err
	}
	if opts.Stdout == nil {
		opts.Stdout = os.Stdout
	}
	if opts.Stderr == nil {
		opts.Stderr = os.Stderr
	}
	if opts.Runner == nil {
		opts.Recipe.SetStdout(opts.Stdout)
		opts.Recipe.SetStderr(opts.Stderr)
		opts.Runner = opts.Recipe.Shell()
	}
	return &Builder{opts: opts}, nil
}

// Build resolves the configuration, makes the requirements available,
// generates toolchain files, then builds and installs the project. Steps
// run in sequence and the first failure stops the build.
func (b *Builder) Build(ctx context.Context) (*Result, error) {
	r := b.opts.Recipe

	cfg, err := r.Resolve(b.opts.Settings, b.opts.Overrides)
	if err != nil {
		return nil, &StageError{Stage: StageConfig, Err: err}
	}
	cfg.Variables = maps.Clone(b.opts.Variables)
	cfg.Generator = b.opts.Generator
	requires, err := r.Requirements()
	if err != nil {
		return nil, &StageError{Stage: StageRequire, Err: err}
	}

	root := filepath.Join(b.opts.OutputDir, cfg.Key())
	fctx := &formula.Context{
		Recipe:        r,
		Project:       &formula.Project{DirFS: os.DirFS(b.opts.SourceDir)},
		Config:        cfg,
		SourceDir:     b.opts.SourceDir,
		BuildDir:      filepath.Join(root, "build"),
		GeneratorsDir: filepath.Join(root, "generators"),
		PackageDir:    filepath.Join(root, "package"),
		Requires:      requires,
		Runner:        b.opts.Runner,
		Stdout:        b.opts.Stdout,
		Stderr:        b.opts.Stderr,
	}
	for _, dir := range []string{fctx.BuildDir, fctx.GeneratorsDir} {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, err
		}
	}

	resolver := b.opts.Resolver
	if resolver == nil {
		resolver = &conan.Installer{Runner: b.opts.Runner, Cmd: fctx.Command}
	}
	deps, err := resolver.Resolve(ctx, requires, cfg.Settings, fctx.GeneratorsDir)
	if err != nil {
		return nil, &StageError{Stage: StageResolve, Err: err}
	}
	fctx.SetBuildResults(deps)

	if err := r.Generate(fctx); err != nil {
		return nil, &StageError{Stage: StageGenerate, Err: err}
	}
	if err := r.Build(fctx); err != nil {
		return nil, &StageError{Stage: StageBuild, Err: err}
	}
	if err := r.Package(fctx); err != nil {
		return nil, &StageError{Stage: StagePackage, Err: err}
	}

	return &Result{
		Config:        cfg,
		Requires:      requires,
		BuildDir:      fctx.BuildDir,
		GeneratorsDir: fctx.GeneratorsDir,
		PackageDir:    fctx.PackageDir,
	}, nil
}
