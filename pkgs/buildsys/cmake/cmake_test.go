package cmake

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"slices"
	"strings"
	"testing"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/mod/module"
)

type recordRunner struct {
	cmds []buildsys.Command
}

func (r *recordRunner) Run(_ context.Context, cmd buildsys.Command) error {
	r.cmds = append(r.cmds, cmd)
	return nil
}

func TestUseSetsEnv(t *testing.T) {
	tempDir := t.TempDir()
	includeDir := filepath.Join(tempDir, "include")
	libDir := filepath.Join(tempDir, "lib")
	pkgconfigDir := filepath.Join(libDir, "pkgconfig")

	for _, dir := range []string{includeDir, libDir, pkgconfigDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			t.Fatalf("mkdir %s: %v", dir, err)
		}
	}

	for _, key := range []string{
		"PKG_CONFIG_PATH",
		"CMAKE_PREFIX_PATH",
		"CMAKE_INCLUDE_PATH",
		"CMAKE_LIBRARY_PATH",
	} {
		t.Setenv(key, "")
	}

	dep := module.Version{Path: "cpr", Version: "1.12.0"}
	ctx := &formula.Context{}
	ctx.AddBuildResult(dep, formula.BuildResult{Dir: tempDir})
	c := New(ctx)

	c.Use(dep)

	expectEq := map[string]string{
		"PKG_CONFIG_PATH":    pkgconfigDir,
		"CMAKE_PREFIX_PATH":  tempDir,
		"CMAKE_INCLUDE_PATH": includeDir,
		"CMAKE_LIBRARY_PATH": libDir,
	}
	for k, v := range expectEq {
		if got := c.env[k]; got != v {
			t.Fatalf("%s = %q, want %q", k, got, v)
		}
	}
	if got := os.Getenv("CMAKE_PREFIX_PATH"); got != "" {
		t.Fatalf("Use leaked CMAKE_PREFIX_PATH into the process env: %q", got)
	}
}

func TestUsePrependsInherited(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("path separator differs")
	}
	t.Setenv("CMAKE_PREFIX_PATH", "/opt/prefix")

	first, second := t.TempDir(), t.TempDir()
	a := module.Version{Path: "cpr", Version: "1.12.0"}
	b := module.Version{Path: "nlohmann_json", Version: "3.12.0"}
	ctx := &formula.Context{}
	ctx.AddBuildResult(a, formula.BuildResult{Dir: first})
	ctx.AddBuildResult(b, formula.BuildResult{Dir: second})

	c := New(ctx)
	c.Use(a)
	c.Use(b)

	want := second + ":" + first + ":/opt/prefix"
	if got := c.env["CMAKE_PREFIX_PATH"]; got != want {
		t.Fatalf("CMAKE_PREFIX_PATH = %q, want %q", got, want)
	}
}

func TestUseUnknownDepPanics(t *testing.T) {
	ctx := &formula.Context{BuildResults: map[module.Version]formula.BuildResult{}}
	c := New(ctx)
	defer func() {
		if recover() == nil {
			t.Fatal("Use() did not panic for unknown dep")
		}
	}()
	c.Use(module.Version{Path: "missing", Version: "1.0.0"})
}

func TestOutputDirPrefersInstall(t *testing.T) {
	c := New(nil)
	if got := c.OutputDir(); got != "build" {
		t.Fatalf("default OutputDir = %q, want %q", got, "build")
	}
	c.InstallDir("custom-install")
	if got := c.OutputDir(); got != "custom-install" {
		t.Fatalf("OutputDir after InstallDir = %q, want %q", got, "custom-install")
	}
}

func TestLifecycleArgs(t *testing.T) {
	tmp := t.TempDir()
	gen := filepath.Join(tmp, "generators")
	if err := os.MkdirAll(gen, 0o755); err != nil {
		t.Fatal(err)
	}
	tc := filepath.Join(gen, ToolchainFile)
	if err := os.WriteFile(tc, []byte("# tc\n"), 0o644); err != nil {
		t.Fatal(err)
	}

	r := &recordRunner{}
	ctx := &formula.Context{
		SourceDir:     filepath.Join(tmp, "src"),
		BuildDir:      filepath.Join(tmp, "build"),
		GeneratorsDir: gen,
		PackageDir:    filepath.Join(tmp, "package"),
		Config:        &formula.Config{Settings: formula.Settings{"build_type": "Debug"}},
		Runner:        r,
	}
	c := New(ctx)
	c.DefineBool("CMAKE_EXPORT_COMPILE_COMMANDS", true)

	if err := c.Configure(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := c.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}
	if len(r.cmds) != 3 {
		t.Fatalf("ran %d commands, want 3", len(r.cmds))
	}

	configure := r.cmds[0].Args
	for _, want := range []string{
		"-DCMAKE_BUILD_TYPE:STRING=Debug",
		"-DCMAKE_TOOLCHAIN_FILE:STRING=" + tc,
		"-DCMAKE_INSTALL_PREFIX:STRING=" + ctx.PackageDir,
		"-DCMAKE_EXPORT_COMPILE_COMMANDS:BOOL=ON",
	} {
		if !slices.Contains(configure, want) {
			t.Errorf("configure args %v missing %q", configure, want)
		}
	}
	if got := r.cmds[1].Args; !slices.Equal(got, []string{"--build", ctx.BuildDir, "--config", "Debug"}) {
		t.Errorf("build args = %v", got)
	}
	if got := r.cmds[2].Args; !slices.Equal(got, []string{"--install", ctx.BuildDir, "--config", "Debug", "--prefix", ctx.PackageDir}) {
		t.Errorf("install args = %v", got)
	}
	for _, cmd := range r.cmds {
		if cmd.Name != "cmake" || cmd.Dir != ctx.BuildDir {
			t.Errorf("command = %s in %q", cmd.Name, cmd.Dir)
		}
	}
}

func TestConfigureBuildInstallE2E(t *testing.T) {
	if _, err := exec.LookPath("cmake"); err != nil {
		t.Skip("cmake not found in PATH")
	}

	tmp := t.TempDir()
	installDir := filepath.Join(tmp, "install")
	sourceDir, err := filepath.Abs(filepath.Join("testdata", "project"))
	if err != nil {
		t.Fatal(err)
	}

	c := New(nil)
	c.BuildDir(filepath.Join(tmp, "build"))
	c.Env("CUSTOM", "VAL")
	c.Source(sourceDir)
	c.InstallDir(installDir)
	c.BuildType("Release")
	toolchain := filepath.Join(tmp, "toolchain.cmake")
	if err := os.WriteFile(toolchain, []byte("# dummy toolchain"), 0o644); err != nil {
		t.Fatalf("write toolchain: %v", err)
	}
	c.Toolchain(toolchain)
	c.Define("FOO", "BAR")
	c.DefineBool("ENABLE", true)
	c.DefineBool("DISABLE", false)

	if err := c.Configure(); err != nil {
		t.Fatalf("configure: %v", err)
	}
	if err := c.Build(); err != nil {
		t.Fatalf("build: %v", err)
	}
	if err := c.Install(); err != nil {
		t.Fatalf("install: %v", err)
	}

	wantHeader := filepath.Join(installDir, "include", "dummy.h")
	if _, err := os.Stat(wantHeader); err != nil {
		t.Fatalf("installed header missing: %v", err)
	}

	cache := filepath.Join(c.buildDir, "CMakeCache.txt")
	data, err := os.ReadFile(cache)
	if err != nil {
		t.Fatalf("read cache: %v", err)
	}
	content := string(data)
	for _, snippet := range []string{
		"FOO:STRING=BAR",
		"ENABLE:BOOL=ON",
		"DISABLE:BOOL=OFF",
		"CMAKE_BUILD_TYPE:STRING=Release",
	} {
		if !strings.Contains(content, snippet) {
			t.Fatalf("cache missing %q", snippet)
		}
	}
}

func TestConfigureGenerator(t *testing.T) {
	tests := []struct {
		generator string
		want      []string
	}{
		{"", nil},
		{"Ninja", []string{"-G", "Ninja"}},
		{"Unix Makefiles", []string{"-G", "Unix Makefiles"}},
	}
	for _, tt := range tests {
		t.Run(tt.generator, func(t *testing.T) {
			tmp := t.TempDir()
			r := &recordRunner{}
			ctx := &formula.Context{
				SourceDir: filepath.Join(tmp, "src"),
				BuildDir:  filepath.Join(tmp, "build"),
				Config:    &formula.Config{Settings: formula.Settings{"build_type": "Release"}, Generator: tt.generator},
				Runner:    r,
			}
			if err := New(ctx).Configure(); err != nil {
				t.Fatalf("configure: %v", err)
			}
			args := r.cmds[0].Args
			i := slices.Index(args, "-G")
			if tt.want == nil {
				if i >= 0 {
					t.Fatalf("configure args %v carry a generator", args)
				}
				return
			}
			if i < 0 || !slices.Equal(args[i:i+2], tt.want) {
				t.Fatalf("configure args %v, want %v", args, tt.want)
			}
		})
	}
}
