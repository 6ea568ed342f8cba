package formula

import (
	"fmt"
	"maps"
	"sort"
	"strings"
)

// Well-known setting names.
const (
	SettingOS        = "os"
	SettingCompiler  = "compiler"
	SettingBuildType = "build_type"
	SettingArch      = "arch"
	SettingCppStd    = "compiler.cppstd"
)

// Settings holds build settings. Sub-settings use dotted keys, such as
// "compiler.cppstd".
type Settings map[string]string

func (s Settings) OS() string        { return s[SettingOS] }
func (s Settings) Arch() string      { return s[SettingArch] }
func (s Settings) Compiler() string  { return s[SettingCompiler] }
func (s Settings) BuildType() string { return s[SettingBuildType] }

// IsWindows reports whether the os setting targets Windows.
func (s Settings) IsWindows() bool {
	return s.OS() == "Windows"
}

func (s Settings) Clone() Settings {
	return maps.Clone(s)
}

// Args renders the settings as sorted key=value pairs.
func (s Settings) Args() []string {
	keys := make([]string, 0, len(s))
	for k := range s {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	args := make([]string, 0, len(keys))
	for _, k := range keys {
		args = append(args, k+"="+s[k])
	}
	return args
}

func settingRoot(key string) string {
	root, _, _ := strings.Cut(key, ".")
	return root
}

// -----------------------------------------------------------------------------

// Options is the resolved option set of a recipe.
type Options struct {
	decl   map[string]optionDecl
	values map[string]string
}

// Get returns the value of an option.
func (o *Options) Get(name string) (string, bool) {
	v, ok := o.values[name]
	return v, ok
}

// Has reports whether the option is part of the resolved set.
func (o *Options) Has(name string) bool {
	_, ok := o.values[name]
	return ok
}

// Bool reports whether the option exists and holds a true value.
func (o *Options) Bool(name string) bool {
	v, ok := o.values[name]
	if !ok {
		return false
	}
	b, _ := parseBool(v)
	return b
}

// Set assigns an option. The value is matched case-insensitively against
// the declared values and stored with the declared spelling.
func (o *Options) Set(name, value string) error {
	decl, declared := o.decl[name]
	if _, ok := o.values[name]; !ok || !declared {
		return fmt.Errorf("%w: %s", ErrUnknownOption, name)
	}
	for _, v := range decl.values {
		if strings.EqualFold(v, value) {
			o.values[name] = v
			return nil
		}
	}
	return fmt.Errorf("%w: %s=%s (accepted: %s)", ErrInvalidOption, name, value, strings.Join(decl.values, ", "))
}

// Delete removes an option from the resolved set.
func (o *Options) Delete(name string) {
	delete(o.values, name)
}

// Keys returns the option names in the resolved set, sorted.
func (o *Options) Keys() []string {
	keys := make([]string, 0, len(o.values))
	for k := range o.values {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Values returns a copy of the resolved set.
func (o *Options) Values() map[string]string {
	return maps.Clone(o.values)
}

// -----------------------------------------------------------------------------

// Config is the outcome of resolving a recipe against settings.
type Config struct {
	Settings Settings
	Options  *Options

	// Variables are extra CMake cache variables for the toolchain.
	Variables map[string]string
	// Generator is the CMake generator, empty for the CMake default.
	Generator string
}

// Key identifies the configuration. It is safe to use as a folder name.
func (c *Config) Key() string {
	m := Matrix{Require: map[string][]string{}, Options: map[string][]string{}}
	for k, v := range c.Settings {
		m.Require[k] = []string{v}
	}
	for k, v := range c.Options.values {
		m.Options[k] = []string{k + "_" + v}
	}
	combos := m.Combinations()
	if len(combos) == 0 {
		return "default"
	}
	return strings.NewReplacer("|", "+", " ", "_", "/", "_").Replace(combos[0])
}

func parseBool(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "true", "on", "1", "yes":
		return true, nil
	case "false", "off", "0", "no":
		return false, nil
	}
	return false, fmt.Errorf("invalid boolean %q", s)
}

func formatBool(b bool) string {
	if b {
		return "True"
	}
	return "False"
}
