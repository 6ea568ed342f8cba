package cmake

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"slices"
	"sort"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
)

type defineValue struct {
	value    string
	typeName string
}

// CMake wraps common CMake build steps with chainable configuration.
type CMake struct {
	ctx        *formula.Context
	runner     buildsys.Runner
	SourceDir  string
	buildDir   string
	installDir string
	generator  string
	buildType  string
	toolchain  string
	Defines    map[string]defineValue
	env        map[string]string
}

var _ buildsys.BuildSystem = (*CMake)(nil)

// New creates a new CMake helper. Optional context enables Use(mod) and
// supplies paths, build type and the runner.
func New(ctx *formula.Context) *CMake {
	c := &CMake{
		buildDir: "build",
		Defines:  map[string]defineValue{},
		env:      map[string]string{},
		runner:   buildsys.ExecRunner{},
	}
	if ctx != nil {
		c.ctx = ctx
		c.SourceDir = ctx.SourceDir
		if ctx.BuildDir != "" {
			c.buildDir = ctx.BuildDir
		}
		c.installDir = ctx.PackageDir
		c.runner = ctx.RunnerOrDefault()
		if ctx.Config != nil {
			c.buildType = ctx.Config.Settings.BuildType()
			c.Generator(ctx.Config.Generator)
		}
		if ctx.GeneratorsDir != "" {
			tc := filepath.Join(ctx.GeneratorsDir, ToolchainFile)
			if _, err := os.Stat(tc); err == nil {
				c.toolchain = tc
			}
		}
	}
	return c
}

func (c *CMake) Source(dir string) {
	c.SourceDir = dir
}

func (c *CMake) InstallDir(dir string) {
	c.installDir = dir
}

func (c *CMake) BuildDir(dir string) *CMake {
	c.buildDir = dir
	return c
}

func (c *CMake) Generator(name string) *CMake {
	c.generator = name
	return c
}

func (c *CMake) BuildType(name string) *CMake {
	c.buildType = name
	return c
}

func (c *CMake) Toolchain(path string) *CMake {
	c.toolchain = path
	return c
}

// Runner replaces the command runner.
func (c *CMake) Runner(r buildsys.Runner) *CMake {
	c.runner = r
	return c
}

func (c *CMake) Define(key, value string) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	c.Defines[key] = defineValue{value: value, typeName: "STRING"}
	return c
}

func (c *CMake) DefineBool(key string, value bool) *CMake {
	if c.Defines == nil {
		c.Defines = map[string]defineValue{}
	}
	if value {
		c.Defines[key] = defineValue{value: "ON", typeName: "BOOL"}
		return c
	}
	c.Defines[key] = defineValue{value: "OFF", typeName: "BOOL"}
	return c
}

// Env sets a variable for the cmake processes only.
func (c *CMake) Env(key, value string) {
	if c.env == nil {
		c.env = map[string]string{}
	}
	c.env[key] = value
}

// Use configures the build environment to use the specified dependency.
func (c *CMake) Use(mod module.Version) {
	if c.ctx == nil || c.ctx.BuildResults == nil {
		panic("cmake: context is not set")
	}
	depResult, ok := c.ctx.BuildResult(mod)
	if !ok {
		panic(fmt.Sprintf("cmake: dep not found: %s", mod))
	}
	dir := depResult.Dir

	includeDir := filepath.Join(dir, "include")
	libDir := filepath.Join(dir, "lib")
	pkgconfigDir := filepath.Join(dir, "lib", "pkgconfig")

	if _, err := os.Stat(pkgconfigDir); err == nil {
		c.prependEnv("PKG_CONFIG_PATH", pkgconfigDir)
	}
	if _, err := os.Stat(dir); err == nil {
		c.prependEnv("CMAKE_PREFIX_PATH", dir)
	}
	if _, err := os.Stat(includeDir); err == nil {
		c.prependEnv("CMAKE_INCLUDE_PATH", includeDir)
	}
	if _, err := os.Stat(libDir); err == nil {
		c.prependEnv("CMAKE_LIBRARY_PATH", libDir)
	}
}

func (c *CMake) Configure(args ...string) error {
	if err := os.MkdirAll(c.buildDir, 0755); err != nil {
		return err
	}
	cmakeArgs := []string{"-S", c.SourceDir, "-B", c.buildDir}
	if c.generator != "" {
		cmakeArgs = append(cmakeArgs, "-G", c.generator)
	}
	if c.installDir != "" {
		c.Define("CMAKE_INSTALL_PREFIX", c.installDir)
	}
	if c.toolchain != "" {
		c.Define("CMAKE_TOOLCHAIN_FILE", c.toolchain)
	}
	if c.buildType != "" {
		c.Define("CMAKE_BUILD_TYPE", c.buildType)
	}
	cmakeArgs = append(cmakeArgs, c.definesArgs()...)
	cmakeArgs = append(cmakeArgs, args...)

	return c.run(cmakeArgs)
}

func (c *CMake) Build(args ...string) error {
	cmdArgs := []string{"--build", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(cmdArgs)
}

func (c *CMake) Install(args ...string) error {
	cmdArgs := []string{"--install", c.buildDir}
	if c.buildType != "" {
		cmdArgs = append(cmdArgs, "--config", c.buildType)
	}
	if c.installDir != "" {
		cmdArgs = append(cmdArgs, "--prefix", c.installDir)
	}
	cmdArgs = append(cmdArgs, args...)
	return c.run(cmdArgs)
}

// OutputDir returns the install dir if set, otherwise the build dir.
func (c *CMake) OutputDir() string {
	if c.installDir != "" {
		return c.installDir
	}
	return c.buildDir
}

func (c *CMake) definesArgs() []string {
	if len(c.Defines) == 0 {
		return nil
	}
	keys := make([]string, 0, len(c.Defines))
	for k := range c.Defines {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		def := c.Defines[k]
		if def.typeName != "" {
			args = append(args, "-D"+k+":"+def.typeName+"="+def.value)
			continue
		}
		args = append(args, "-D"+k+"="+def.value)
	}
	return args
}

func (c *CMake) run(args []string) error {
	cmd := buildsys.Command{Name: "cmake", Args: args, Env: c.env}
	if c.ctx != nil {
		cmd = c.ctx.Command("cmake", args...)
		cmd.Env = c.env
	}
	return c.runner.Run(context.Background(), cmd)
}

// prependEnv prepends a value to a path list variable using the platform
// separator. The inherited value is used as the initial list.
func (c *CMake) prependEnv(key, value string) {
	sep := ":"
	if runtime.GOOS == "windows" {
		sep = ";"
	}
	current, ok := c.env[key]
	if !ok {
		current = os.Getenv(key)
	}
	if current == "" {
		c.Env(key, value)
		return
	}
	if slices.Contains(strings.Split(current, sep), value) {
		return
	}
	c.Env(key, value+sep+current)
}
