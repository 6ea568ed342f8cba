// Package endtoend is the recipe of the device SDK end-to-end test
// application.
package endtoend

import (
	"fmt"
	"path/filepath"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys/cmake"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/versions"
)

const Name = "end_to_end"

// Requires are the pinned requirements of the application.
var Requires = []string{
	"cpr/1.12.0",
	"nlohmann_json/3.12.0",
	"tomlplusplus/3.4.0",
	"astarte-device-sdk/0.7.0",
}

// New returns the end-to-end recipe.
func New() *formula.Recipe {
	r := formula.NewRecipe()
	r.Id(Name)

	r.Setting(formula.SettingOS, formula.SettingCompiler, formula.SettingBuildType, formula.SettingArch)
	r.BoolOption("shared", false)
	r.BoolOption("fPIC", true)

	r.ConfigOptions(func(cfg *formula.Config) {
		if cfg.Settings.IsWindows() {
			cfg.Options.Delete("fPIC")
		}
	})
	r.OnRequire(func(deps *formula.ModuleDeps) {
		for _, ref := range Requires {
			deps.Require(ref)
		}
	})
	r.OnGenerate(generate)
	r.OnBuild(build)
	r.OnPackage(install)
	return r
}

func generate(ctx *formula.Context) error {
	tc := cmake.NewToolchain(ctx.Config)
	tc.PrefixPaths = []string{ctx.GeneratorsDir}
	for k, v := range ctx.Config.Variables {
		tc.Variables[k] = v
	}
	if _, err := tc.Generate(ctx.GeneratorsDir); err != nil {
		return fmt.Errorf("write toolchain: %w", err)
	}

	desc := &versions.Versions{Recipe: ctx.Recipe.Name()}
	for _, dep := range ctx.Requires {
		d := versions.Dependency{Name: dep.Path, Version: dep.Version}
		if res, ok := ctx.BuildResult(dep); ok {
			d.Dir = res.Dir
		}
		desc.Dependencies = append(desc.Dependencies, d)
	}
	if err := versions.Write(filepath.Join(ctx.GeneratorsDir, versions.FileName), desc); err != nil {
		return fmt.Errorf("write dependency descriptor: %w", err)
	}
	return nil
}

func build(ctx *formula.Context) error {
	if err := ctx.Project.CheckCMake(); err != nil {
		return err
	}
	c := cmake.New(ctx)
	for _, dep := range ctx.Requires {
		if _, ok := ctx.BuildResult(dep); ok {
			c.Use(dep)
		}
	}
	if err := c.Configure(); err != nil {
		return err
	}
	return c.Build()
}

func install(ctx *formula.Context) error {
	return cmake.New(ctx).Install()
}
