// Package tidy builds a library as a Conan project so that CMake exports
// the compilation database consumed by clang-tidy.
package tidy

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"slices"
	"strings"

	"github.com/astarte-platform/sdkbuild/formula"
	"github.com/astarte-platform/sdkbuild/pkgs/buildsys"
	"github.com/astarte-platform/sdkbuild/pkgs/conan"
)

// Transport selects the device SDK communication backend.
type Transport string

const (
	GRPC Transport = "grpc"
	MQTT Transport = "mqtt"
)

// Transports lists the accepted transports.
var Transports = []Transport{GRPC, MQTT}

// OutputFolder is where conan build places its output, relative to the
// working directory.
const OutputFolder = "build"

const exportCompileCommands = "tools.cmake.cmaketoolchain:extra_variables={'CMAKE_EXPORT_COMPILE_COMMANDS': 'ON'}"

var (
	ErrNoSourceDir      = errors.New("Library source directory not provided.")
	ErrSourceDirMissing = errors.New("Library source directory does not exist")
	ErrInvalidTransport = errors.New("Transport should be one of: 'grpc' or 'mqtt'.")
)

// ParseTransport returns the transport named s.
func ParseTransport(s string) (Transport, error) {
	t := Transport(s)
	if !slices.Contains(Transports, t) {
		return "", ErrInvalidTransport
	}
	return t, nil
}

// Options are the helper arguments.
type Options struct {
	LibSrcDir string
	Transport string
}

// ValidationError reports a bad argument. It wraps one of the Err* values.
type ValidationError struct {
	Err  error
	Path string
}

func (e *ValidationError) Error() string {
	if e.Path != "" {
		return e.Err.Error() + ": " + e.Path
	}
	return e.Err.Error()
}

func (e *ValidationError) Unwrap() error { return e.Err }

// StepError reports a failed subprocess with a fixed message.
type StepError struct {
	Msg string
	Err error
}

func (e *StepError) Error() string { return e.Msg }

func (e *StepError) Unwrap() error { return e.Err }

// Validate checks the arguments. The first violation wins: empty path,
// then missing directory, then transport.
func Validate(opts Options) error {
	if opts.LibSrcDir == "" {
		return &ValidationError{Err: ErrNoSourceDir}
	}
	if info, err := os.Stat(opts.LibSrcDir); err != nil || !info.IsDir() {
		return &ValidationError{Err: ErrSourceDirMissing, Path: opts.LibSrcDir}
	}
	if _, err := ParseTransport(opts.Transport); err != nil {
		return &ValidationError{Err: err}
	}
	return nil
}

// BuildArgs returns the conan build invocation for opts.
func BuildArgs(opts Options) conan.BuildArgs {
	return conan.BuildArgs{
		SourceDir:     opts.LibSrcDir,
		OutputFolder:  OutputFolder,
		Build:         "missing",
		Options:       map[string]string{"transport": opts.Transport},
		Settings:      formula.Settings{formula.SettingBuildType: "Debug", formula.SettingCppStd: "20"},
		BuildSettings: formula.Settings{formula.SettingCppStd: "20"},
		Conf:          []string{exportCompileCommands},
	}
}

type step struct {
	banner string
	args   []string
	errMsg string
}

func steps(opts Options) []step {
	return []step{
		{
			banner: "Detecting Conan profile...",
			args:   conan.ProfileDetect(),
			errMsg: "Conan profile detection failed.",
		},
		{
			banner: "Building library to generate compilation database...",
			args:   BuildArgs(opts).Args(),
			errMsg: "Failed to build library.",
		},
	}
}

// Commands returns the commands Run executes, in order.
func Commands(opts Options) []buildsys.Command {
	var cmds []buildsys.Command
	for _, s := range steps(opts) {
		cmds = append(cmds, buildsys.Command{Name: conan.Bin, Args: s.args})
	}
	return cmds
}

// Helper runs the tidy build.
type Helper struct {
	Runner buildsys.Runner
	// Stdout receives progress messages and, with Stderr, the output of the
	// wrapped commands.
	Stdout io.Writer
	Stderr io.Writer
}

// Run validates opts, then detects the Conan profile and builds the
// library. It stops at the first failure; nothing is retried.
func (h *Helper) Run(ctx context.Context, opts Options) error {
	if err := Validate(opts); err != nil {
		return err
	}
	runner := h.Runner
	if runner == nil {
		runner = buildsys.ExecRunner{}
	}
	stdout, stderr := h.Stdout, h.Stderr
	if stdout == nil {
		stdout = os.Stdout
	}
	if stderr == nil {
		stderr = os.Stderr
	}

	for _, s := range steps(opts) {
		fmt.Fprintln(stdout, s.banner)
		cmd := buildsys.Command{Name: conan.Bin, Args: s.args, Stdout: stdout, Stderr: stderr}
		if err := runner.Run(ctx, cmd); err != nil {
			return &StepError{Msg: s.errMsg, Err: err}
		}
	}
	fmt.Fprintln(stdout, "Conan build process complete.")
	return nil
}

// TransportNames returns the accepted transports as strings.
func TransportNames() []string {
	names := make([]string, len(Transports))
	for i, t := range Transports {
		names[i] = string(t)
	}
	return names
}

// Usage describes the transport argument.
func Usage() string {
	return strings.Join(TransportNames(), "|")
}
