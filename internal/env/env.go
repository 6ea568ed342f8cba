package env

import (
	"os"
	"os/exec"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
)

var osNames = map[string]string{
	"linux":   "Linux",
	"windows": "Windows",
	"darwin":  "Macos",
	"freebsd": "FreeBSD",
	"android": "Android",
	"ios":     "iOS",
}

var archNames = map[string]string{
	"amd64":   "x86_64",
	"386":     "x86",
	"arm64":   "armv8",
	"arm":     "armv7",
	"riscv64": "riscv64",
	"ppc64le": "ppc64le",
	"s390x":   "s390x",
}

// OSName maps a GOOS value to its Conan os setting.
func OSName(goos string) string {
	if name, ok := osNames[goos]; ok {
		return name
	}
	return goos
}

// ArchName maps a GOARCH value to its Conan arch setting.
func ArchName(goarch string) string {
	if name, ok := archNames[goarch]; ok {
		return name
	}
	return goarch
}

var lookPath = exec.LookPath

// Compiler guesses the compiler setting. CC wins, then the platform
// default, then whichever of gcc or clang is on PATH.
func Compiler(goos string) string {
	if cc := os.Getenv("CC"); cc != "" {
		base := strings.TrimSuffix(filepath.Base(cc), ".exe")
		switch {
		case strings.Contains(base, "clang"):
			if goos == "darwin" {
				return "apple-clang"
			}
			return "clang"
		case base == "cl":
			return "msvc"
		default:
			return "gcc"
		}
	}
	switch goos {
	case "windows":
		return "msvc"
	case "darwin":
		return "apple-clang"
	}
	for _, cc := range []string{"gcc", "clang"} {
		if _, err := lookPath(cc); err == nil {
			return cc
		}
	}
	return "gcc"
}

// DefaultSettings returns host settings with a Release build type.
func DefaultSettings() formula.Settings {
	return formula.Settings{
		formula.SettingOS:        OSName(runtime.GOOS),
		formula.SettingArch:      ArchName(runtime.GOARCH),
		formula.SettingCompiler:  Compiler(runtime.GOOS),
		formula.SettingBuildType: "Release",
	}
}
