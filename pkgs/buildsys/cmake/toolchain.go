package cmake

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
)

// ToolchainFile is the name of the generated toolchain file.
const ToolchainFile = "sdkbuild_toolchain.cmake"

// Toolchain renders a CMake toolchain file from a resolved configuration.
type Toolchain struct {
	cfg *formula.Config

	// Variables are written verbatim as extra cache variables.
	Variables map[string]string
	// PrefixPaths are prepended to CMAKE_PREFIX_PATH.
	PrefixPaths []string
}

func NewToolchain(cfg *formula.Config) *Toolchain {
	return &Toolchain{cfg: cfg, Variables: map[string]string{}}
}

// Content returns the toolchain file text.
func (t *Toolchain) Content() string {
	var b strings.Builder
	b.WriteString("# Generated by sdkbuild. Do not edit.\n\n")

	s := t.cfg.Settings
	if bt := s.BuildType(); bt != "" {
		fmt.Fprintf(&b, "set(CMAKE_BUILD_TYPE %s CACHE STRING \"Build type\" FORCE)\n", quote(bt))
	}
	if std := s[formula.SettingCppStd]; std != "" {
		fmt.Fprintf(&b, "set(CMAKE_CXX_STANDARD %s)\n", strings.TrimPrefix(std, "gnu"))
		b.WriteString("set(CMAKE_CXX_STANDARD_REQUIRED ON)\n")
		if strings.HasPrefix(std, "gnu") {
			b.WriteString("set(CMAKE_CXX_EXTENSIONS ON)\n")
		} else {
			b.WriteString("set(CMAKE_CXX_EXTENSIONS OFF)\n")
		}
	}

	opts := t.cfg.Options
	if opts.Has("shared") {
		fmt.Fprintf(&b, "set(BUILD_SHARED_LIBS %s CACHE BOOL \"Build shared libraries\" FORCE)\n", onOff(opts.Bool("shared")))
	}
	if opts.Has("fPIC") {
		fmt.Fprintf(&b, "set(CMAKE_POSITION_INDEPENDENT_CODE %s CACHE BOOL \"Position independent code\" FORCE)\n", onOff(opts.Bool("fPIC")))
	}

	keys := make([]string, 0, len(t.Variables))
	for k := range t.Variables {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	for _, k := range keys {
		fmt.Fprintf(&b, "set(%s %s CACHE STRING \"\" FORCE)\n", k, quote(t.Variables[k]))
	}

	for i := len(t.PrefixPaths) - 1; i >= 0; i-- {
		fmt.Fprintf(&b, "list(PREPEND CMAKE_PREFIX_PATH %s)\n", quote(filepath.ToSlash(t.PrefixPaths[i])))
	}
	return b.String()
}

// Generate writes the toolchain file into dir and returns its path.
func (t *Toolchain) Generate(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", err
	}
	path := filepath.Join(dir, ToolchainFile)
	if err := os.WriteFile(path, []byte(t.Content()), 0644); err != nil {
		return "", err
	}
	return path, nil
}

// quote renders s as a CMake quoted argument. The characters CMake
// interprets inside quotes (\ " $) are escaped so s is taken literally.
func quote(s string) string {
	return `"` + quoteReplacer.Replace(s) + `"`
}

var quoteReplacer = strings.NewReplacer(`\`, `\\`, `"`, `\"`, `$`, `\$`)

func onOff(b bool) string {
	if b {
		return "ON"
	}
	return "OFF"
}
