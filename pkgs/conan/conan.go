// Package conan builds Conan command lines and resolves pinned
// requirements through the Conan client.
package conan

import (
	"context"
	"fmt"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
)

// Bin is the Conan client executable.
const Bin = "conan"

// ProfileDetect returns the arguments of "conan profile detect". The
// default profile is kept when it already exists.
func ProfileDetect() []string {
	return []string{"profile", "detect", "--exist-ok"}
}

// BuildArgs describes a "conan build" invocation.
type BuildArgs struct {
	SourceDir    string
	OutputFolder string
	// Build is the --build policy, e.g. "missing".
	Build string
	// Options apply to the consumer recipe only ("&:" pattern).
	Options map[string]string
	// Settings apply to the host context.
	Settings formula.Settings
	// BuildSettings apply to the build context.
	BuildSettings formula.Settings
	// Conf entries, passed as --conf=key=value.
	Conf []string
}

// Args renders the arguments of "conan build". Options and settings are
// emitted in sorted order.
func (b BuildArgs) Args() []string {
	args := []string{"build", b.SourceDir}
	if b.OutputFolder != "" {
		args = append(args, "--output-folder="+b.OutputFolder)
	}
	if b.Build != "" {
		args = append(args, "--build="+b.Build)
	}
	for _, kv := range formula.Settings(b.Options).Args() {
		args = append(args, "--options=&:"+kv)
	}
	for _, kv := range b.Settings.Args() {
		args = append(args, "--settings="+kv)
	}
	for _, kv := range b.BuildSettings.Args() {
		args = append(args, "--settings:build="+kv)
	}
	for _, c := range b.Conf {
		args = append(args, "--conf="+c)
	}
	return args
}

// InstallArgs renders "conan install" for a set of pinned requirements,
// generating CMake package config files into dir.
func InstallArgs(deps []module.Version, settings formula.Settings, dir string) []string {
	args := []string{"install"}
	for _, dep := range deps {
		args = append(args, "--requires="+dep.String())
	}
	args = append(args, "--output-folder="+dir, "--build=missing", "--generator=CMakeDeps")
	for _, kv := range settings.Args() {
		args = append(args, "--settings="+kv)
	}
	return args
}

// Resolver makes pinned requirements available to the build.
type Resolver interface {
	Resolve(ctx context.Context, deps []module.Version, settings formula.Settings, dir string) (map[module.Version]formula.BuildResult, error)
}

// Installer resolves requirements with "conan install". Every dependency
// is reported at dir, where CMakeDeps writes the package config files.
type Installer struct {
	Runner buildsys.Runner
	Cmd    func(name string, args ...string) buildsys.Command
}

func (i *Installer) Resolve(ctx context.Context, deps []module.Version, settings formula.Settings, dir string) (map[module.Version]formula.BuildResult, error) {
	results := make(map[module.Version]formula.BuildResult, len(deps))
	if len(deps) == 0 {
		return results, nil
	}
	runner := i.Runner
	if runner == nil {
		runner = buildsys.ExecRunner{}
	}
	args := InstallArgs(deps, settings, dir)
	cmd := buildsys.Command{Name: Bin, Args: args}
	if i.Cmd != nil {
		cmd = i.Cmd(Bin, args...)
	}
	if err := runner.Run(ctx, cmd); err != nil {
		return nil, fmt.Errorf("resolve requirements: %w", err)
	}
	for _, dep := range deps {
		results[dep] = formula.BuildResult{Dir: dir}
	}
	return results, nil
}
