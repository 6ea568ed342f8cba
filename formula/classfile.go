package formula

import (
	"errors"
	"fmt"
	"slices"
	"sort"

	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
	"github.com/qiniu/x/gsh"
)

var (
	ErrMissingSetting  = errors.New("missing setting")
	ErrUnknownSetting  = errors.New("unknown setting")
	ErrUnknownOption   = errors.New("unknown option")
	ErrInvalidOption   = errors.New("invalid option value")
	ErrDuplicateDepend = errors.New("duplicate requirement")
)

// -----------------------------------------------------------------------------

// Recipe describes how a package is configured, which packages it requires
// and how it is built. Configure, build and install are delegated to
// external tools through the hooks.
type Recipe struct {
	gsh.App

	fConfigOptions func(cfg *Config)
	fOnRequire     func(deps *ModuleDeps)
	fOnGenerate    func(ctx *Context) error
	fOnBuild       func(ctx *Context) error
	fOnPackage     func(ctx *Context) error

	name     string
	settings []string
	options  map[string]optionDecl
}

type optionDecl struct {
	values []string
	def    string
}

// NewRecipe creates an empty recipe with its shell streams initialized.
func NewRecipe() *Recipe {
	r := &Recipe{options: map[string]optionDecl{}}
	gsh.InitApp(&r.App)
	return r
}

// Id sets the package name this recipe serves.
func (r *Recipe) Id(name string) {
	r.name = name
}

func (r *Recipe) Name() string { return r.name }

// Setting declares the top-level settings the recipe consumes.
func (r *Recipe) Setting(names ...string) {
	for _, name := range names {
		if !slices.Contains(r.settings, name) {
			r.settings = append(r.settings, name)
		}
	}
}

// Settings returns the declared settings in declaration order.
func (r *Recipe) Settings() []string {
	return slices.Clone(r.settings)
}

// Option declares an option with its accepted values and its default.
// It panics if def is not one of values.
func (r *Recipe) Option(name string, values []string, def string) {
	if !slices.Contains(values, def) {
		panic(fmt.Sprintf("formula: option %s: default %q not in %v", name, def, values))
	}
	if r.options == nil {
		r.options = map[string]optionDecl{}
	}
	r.options[name] = optionDecl{values: slices.Clone(values), def: def}
}

// BoolOption declares an option accepting "True" and "False".
func (r *Recipe) BoolOption(name string, def bool) {
	r.Option(name, []string{"True", "False"}, formatBool(def))
}

// Options returns the declared option names, sorted.
func (r *Recipe) Options() []string {
	names := make([]string, 0, len(r.options))
	for name := range r.options {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// OptionValues returns the accepted values and the default of an option.
func (r *Recipe) OptionValues(name string) (values []string, def string, ok bool) {
	decl, ok := r.options[name]
	if !ok {
		return nil, "", false
	}
	return slices.Clone(decl.values), decl.def, true
}

// ConfigOptions event runs after defaults are applied and before user
// overrides, so the recipe can drop options that do not apply to the
// current settings.
func (r *Recipe) ConfigOptions(f func(cfg *Config)) {
	r.fConfigOptions = f
}

// Resolve checks settings against the declared ones, every one with a
// non-empty value, and computes the option set: defaults, then the ConfigOptions event, then overrides.
func (r *Recipe) Resolve(settings Settings, overrides map[string]string) (*Config, error) {
	for _, name := range r.settings {
		if _, ok := settings[name]; !ok {
			return nil, fmt.Errorf("%w: %s", ErrMissingSetting, name)
		}
	}
	for key, value := range settings {
		if !slices.Contains(r.settings, settingRoot(key)) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownSetting, key)
		}
		if value == "" {
			return nil, fmt.Errorf("%w: %s has no value", ErrMissingSetting, key)
		}
	}

	opts := &Options{decl: r.options, values: make(map[string]string, len(r.options))}
	for name, decl := range r.options {
		opts.values[name] = decl.def
	}
	cfg := &Config{Settings: settings.Clone(), Options: opts}

	if r.fConfigOptions != nil {
		r.fConfigOptions(cfg)
	}

	keys := make([]string, 0, len(overrides))
	for k := range overrides {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		if err := opts.Set(k, overrides[k]); err != nil {
			return nil, err
		}
	}
	return cfg, nil
}

// -----------------------------------------------------------------------------

// ModuleDeps represents the dependencies of a recipe.
type ModuleDeps struct {
	deps []module.Version
}

// Deps returns the collected dependencies.
func (p *ModuleDeps) Deps() []module.Version {
	return slices.Clone(p.deps)
}

// Require declares a dependency by its Conan reference, e.g. "cpr/1.12.0".
// Malformed references are kept as-is and reported by Requirements.
func (p *ModuleDeps) Require(ref string) {
	mod, err := module.ParseRef(ref)
	if err != nil {
		mod = module.Version{Path: ref}
	}
	p.deps = append(p.deps, mod)
}

// OnRequire event is used to declare all direct dependencies of the recipe.
func (r *Recipe) OnRequire(f func(deps *ModuleDeps)) {
	r.fOnRequire = f
}

// Requirements runs the OnRequire event and validates every pinned
// dependency.
func (r *Recipe) Requirements() ([]module.Version, error) {
	if r.fOnRequire == nil {
		return nil, nil
	}
	deps := &ModuleDeps{}
	r.fOnRequire(deps)

	seen := make(map[string]bool, len(deps.deps))
	for _, mod := range deps.deps {
		if err := mod.Check(); err != nil {
			return nil, err
		}
		if seen[mod.Path] {
			return nil, fmt.Errorf("%w: %s", ErrDuplicateDepend, mod.Path)
		}
		seen[mod.Path] = true
	}
	return deps.Deps(), nil
}

// -----------------------------------------------------------------------------

// OnGenerate event writes toolchain and dependency files.
func (r *Recipe) OnGenerate(f func(ctx *Context) error) {
	r.fOnGenerate = f
}

// OnBuild event configures and compiles the project.
func (r *Recipe) OnBuild(f func(ctx *Context) error) {
	r.fOnBuild = f
}

// OnPackage event installs the build artifacts.
func (r *Recipe) OnPackage(f func(ctx *Context) error) {
	r.fOnPackage = f
}

// Generate runs the OnGenerate event, if any.
func (r *Recipe) Generate(ctx *Context) error {
	if r.fOnGenerate == nil {
		return nil
	}
	return r.fOnGenerate(ctx)
}

// Build runs the OnBuild event, if any.
func (r *Recipe) Build(ctx *Context) error {
	if r.fOnBuild == nil {
		return nil
	}
	return r.fOnBuild(ctx)
}

// Package runs the OnPackage event, if any.
func (r *Recipe) Package(ctx *Context) error {
	if r.fOnPackage == nil {
		return nil
	}
	return r.fOnPackage(ctx)
}
