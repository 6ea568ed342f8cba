package formula

import (
	"io"
	"maps"
	"os"

	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
)

// BuildResult locates a resolved dependency.
type BuildResult struct {
	Dir string
}

// Context is handed to the recipe events.
type Context struct {
	Recipe  *Recipe
	Project *Project
	Config  *Config

	SourceDir     string
	BuildDir      string
	GeneratorsDir string
	PackageDir    string

	Requires     []module.Version
	BuildResults map[module.Version]BuildResult

	Runner buildsys.Runner
	Stdout io.Writer
	Stderr io.Writer
}

// BuildResult returns where a dependency was resolved.
func (c *Context) BuildResult(mod module.Version) (BuildResult, bool) {
	r, ok := c.BuildResults[mod]
	return r, ok
}

// AddBuildResult records where a dependency was resolved.
func (c *Context) AddBuildResult(mod module.Version, r BuildResult) {
	if c.BuildResults == nil {
		c.BuildResults = map[module.Version]BuildResult{}
	}
	c.BuildResults[mod] = r
}

// SetBuildResults replaces the resolved dependency set.
func (c *Context) SetBuildResults(results map[module.Version]BuildResult) {
	c.BuildResults = maps.Clone(results)
}

// RunnerOrDefault returns the configured runner. Without one, commands go
// through the recipe shell, or an ExecRunner when there is no recipe.
func (c *Context) RunnerOrDefault() buildsys.Runner {
	if c.Runner != nil {
		return c.Runner
	}
	if c.Recipe != nil {
		return c.Recipe.Shell()
	}
	return buildsys.ExecRunner{}
}

func (c *Context) stdout() io.Writer {
	if c.Stdout != nil {
		return c.Stdout
	}
	return os.Stdout
}

func (c *Context) stderr() io.Writer {
	if c.Stderr != nil {
		return c.Stderr
	}
	return os.Stderr
}

// Command builds a command whose output goes to the context streams.
func (c *Context) Command(name string, args ...string) buildsys.Command {
	return buildsys.Command{
		Name:   name,
		Args:   args,
		Dir:    c.BuildDir,
		Stdout: c.stdout(),
		Stderr: c.stderr(),
	}
}
