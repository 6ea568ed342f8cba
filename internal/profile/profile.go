// Package profile loads build profiles from YAML files and combines them
// with command-line assignments.
package profile

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"maps"
	"os"
	"slices"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
	"gopkg.in/yaml.v3"
)

// Profile is the content of a profile file:
//
//	settings:
//	  build_type: Debug
//	  compiler.cppstd: "20"
//	options:
//	  shared: "True"
//	conf:
//	  tools.cmake.cmaketoolchain:generator: Ninja
//	  tools.cmake.cmaketoolchain:extra_variables:
//	    CMAKE_EXPORT_COMPILE_COMMANDS: "ON"
//
// extra_variables may also be written as a string in Conan syntax,
// "{'CMAKE_EXPORT_COMPILE_COMMANDS': 'ON'}".
type Profile struct {
	Settings map[string]string `yaml:"settings"`
	Options  map[string]string `yaml:"options"`
	Conf     map[string]any    `yaml:"conf"`
}

// Conf keys understood by the build.
const (
	ConfGenerator      = "tools.cmake.cmaketoolchain:generator"
	ConfExtraVariables = "tools.cmake.cmaketoolchain:extra_variables"
)

var confKeys = []string{ConfGenerator, ConfExtraVariables}

var (
	ErrAssignment  = errors.New("expected key=value")
	ErrUnknownConf = errors.New("unknown conf")
	ErrConfValue   = errors.New("invalid conf value")
)

// Load reads a profile file.
func Load(path string) (*Profile, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read profile: %w", err)
	}
	p, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("failed to parse profile %s: %w", path, err)
	}
	return p, nil
}

// Parse decodes a profile. Unknown top-level keys and unknown or malformed
// conf entries are rejected.
func Parse(data []byte) (*Profile, error) {
	var p Profile
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&p); err != nil && !errors.Is(err, io.EOF) {
		return nil, err
	}
	for key := range p.Conf {
		if !slices.Contains(confKeys, key) {
			return nil, fmt.Errorf("%w: %s", ErrUnknownConf, key)
		}
	}
	if _, err := p.Generator(); err != nil {
		return nil, err
	}
	if _, err := p.Variables(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Generator returns the CMake generator set in conf, if any.
func (p *Profile) Generator() (string, error) {
	if p == nil {
		return "", nil
	}
	v, ok := p.Conf[ConfGenerator]
	if !ok {
		return "", nil
	}
	name, ok := v.(string)
	if !ok {
		return "", fmt.Errorf("%w: %s: want a string, got %v", ErrConfValue, ConfGenerator, v)
	}
	return name, nil
}

// Variables returns the extra CMake cache variables set in conf, if any.
func (p *Profile) Variables() (map[string]string, error) {
	if p == nil {
		return nil, nil
	}
	v, ok := p.Conf[ConfExtraVariables]
	if !ok {
		return nil, nil
	}
	var data []byte
	switch v := v.(type) {
	case string:
		data = []byte(v)
	case map[string]any:
		var err error
		if data, err = yaml.Marshal(v); err != nil {
			return nil, err
		}
	default:
		return nil, fmt.Errorf("%w: %s: want a mapping, got %v", ErrConfValue, ConfExtraVariables, v)
	}
	vars := map[string]string{}
	if err := yaml.Unmarshal(data, &vars); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrConfValue, ConfExtraVariables, err)
	}
	return vars, nil
}

// ParseAssignments parses "key=value" pairs. Later pairs override earlier
// ones.
func ParseAssignments(kvs []string) (map[string]string, error) {
	out := make(map[string]string, len(kvs))
	for _, kv := range kvs {
		k, v, ok := strings.Cut(kv, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return nil, fmt.Errorf("%w: %q", ErrAssignment, kv)
		}
		out[k] = strings.TrimSpace(v)
	}
	return out, nil
}

// Merge layers p over base settings, then the command-line assignments
// over p. p may be nil.
func Merge(base formula.Settings, p *Profile, settings, options []string) (formula.Settings, map[string]string, error) {
	s := base.Clone()
	if s == nil {
		s = formula.Settings{}
	}
	opts := map[string]string{}
	if p != nil {
		maps.Copy(s, p.Settings)
		maps.Copy(opts, p.Options)
	}

	cliSettings, err := ParseAssignments(settings)
	if err != nil {
		return nil, nil, fmt.Errorf("settings: %w", err)
	}
	cliOptions, err := ParseAssignments(options)
	if err != nil {
		return nil, nil, fmt.Errorf("options: %w", err)
	}
	maps.Copy(s, cliSettings)
	maps.Copy(opts, cliOptions)
	return s, opts, nil
}
