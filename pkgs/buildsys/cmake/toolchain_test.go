package cmake

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/astarte-platform/sdkbuild/formula"
)

func resolve(t *testing.T, settings formula.Settings, overrides map[string]string) *formula.Config {
	t.Helper()
	r := formula.NewRecipe()
	r.Setting("os", "compiler", "build_type", "arch")
	r.BoolOption("shared", false)
	r.BoolOption("fPIC", true)
	r.ConfigOptions(func(cfg *formula.Config) {
		if cfg.Settings.IsWindows() {
			cfg.Options.Delete("fPIC")
		}
	})
	cfg, err := r.Resolve(settings, overrides)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	return cfg
}

func TestToolchainContent(t *testing.T) {
	cfg := resolve(t, formula.Settings{
		"os":              "Linux",
		"arch":            "x86_64",
		"compiler":        "gcc",
		"compiler.cppstd": "gnu20",
		"build_type":      "Debug",
	}, map[string]string{"shared": "true"})

	tc := NewToolchain(cfg)
	tc.Variables["CMAKE_EXPORT_COMPILE_COMMANDS"] = "ON"
	tc.PrefixPaths = []string{"/gen/a", "/gen/b"}
	content := tc.Content()

	for _, want := range []string{
		`set(CMAKE_BUILD_TYPE "Debug" CACHE STRING "Build type" FORCE)`,
		"set(CMAKE_CXX_STANDARD 20)",
		"set(CMAKE_CXX_EXTENSIONS ON)",
		`set(BUILD_SHARED_LIBS ON CACHE BOOL "Build shared libraries" FORCE)`,
		`set(CMAKE_POSITION_INDEPENDENT_CODE ON CACHE BOOL "Position independent code" FORCE)`,
		`set(CMAKE_EXPORT_COMPILE_COMMANDS "ON" CACHE STRING "" FORCE)`,
	} {
		if !strings.Contains(content, want) {
			t.Errorf("toolchain missing %q:\n%s", want, content)
		}
	}
	a := strings.Index(content, `"/gen/a"`)
	b := strings.Index(content, `"/gen/b"`)
	if a < 0 || b < 0 || b > a {
		t.Errorf("prefix paths must be prepended so /gen/a ends up first:\n%s", content)
	}
}

func TestToolchainWindowsHasNoPIC(t *testing.T) {
	cfg := resolve(t, formula.Settings{
		"os":         "Windows",
		"arch":       "x86_64",
		"compiler":   "msvc",
		"build_type": "Release",
	}, nil)

	content := NewToolchain(cfg).Content()
	if strings.Contains(content, "CMAKE_POSITION_INDEPENDENT_CODE") {
		t.Errorf("windows toolchain sets PIC:\n%s", content)
	}
	if !strings.Contains(content, "BUILD_SHARED_LIBS OFF") {
		t.Errorf("windows toolchain missing static default:\n%s", content)
	}
}

func TestToolchainGenerate(t *testing.T) {
	cfg := resolve(t, formula.Settings{
		"os":         "Linux",
		"arch":       "armv8",
		"compiler":   "clang",
		"build_type": "Release",
	}, nil)

	dir := filepath.Join(t.TempDir(), "generators")
	path, err := NewToolchain(cfg).Generate(dir)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if path != filepath.Join(dir, ToolchainFile) {
		t.Fatalf("Generate() path = %q", path)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !strings.Contains(string(data), `"Release"`) {
		t.Errorf("generated toolchain missing build type:\n%s", data)
	}
}

func TestToolchainQuotesValues(t *testing.T) {
	cfg := resolve(t, formula.Settings{
		"os": "Linux", "arch": "x86_64", "compiler": "gcc", "build_type": "Release",
	}, nil)
	tc := NewToolchain(cfg)
	tc.Variables["A_PATH"] = `C:\sdk\lib`
	tc.Variables["A_QUOTE"] = `say "hi"`
	tc.Variables["A_REF"] = "${HOME}/x"
	tc.Variables["A_UTF8"] = "café\tend"
	tc.PrefixPaths = []string{"/opt/$dir"}

	got := tc.Content()
	for _, want := range []string{
		`set(A_PATH "C:\\sdk\\lib" CACHE STRING "" FORCE)`,
		`set(A_QUOTE "say \"hi\"" CACHE STRING "" FORCE)`,
		`set(A_REF "\${HOME}/x" CACHE STRING "" FORCE)`,
		"set(A_UTF8 \"café\tend\" CACHE STRING \"\" FORCE)",
		`list(PREPEND CMAKE_PREFIX_PATH "/opt/\$dir")`,
		`set(CMAKE_BUILD_TYPE "Release" CACHE STRING "Build type" FORCE)`,
	} {
		if !strings.Contains(got, want) {
			t.Errorf("toolchain missing %s:\n%s", want, got)
		}
	}
}

func TestQuote(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"", `""`},
		{"ON", `"ON"`},
		{`a\b`, `"a\\b"`},
		{`"`, `"\""`},
		{"$ENV{X}", `"\$ENV{X}"`},
		{"ü", `"ü"`},
	}
	for _, tt := range tests {
		if got := quote(tt.in); got != tt.want {
			t.Errorf("quote(%q) = %s, want %s", tt.in, got, tt.want)
		}
	}
}
