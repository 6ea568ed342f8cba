package module

import (
	"errors"
	"fmt"
	"strings"

	"golang.org/x/mod/semver"
)

var (
	ErrEmptyRef   = errors.New("empty reference")
	ErrInvalidRef = errors.New("invalid reference")
)

// Version is a pinned requirement, e.g. cpr/1.12.0.
type Version struct {
	Path    string
	Version string
}

// ParseRef parses a reference in the form "name/version".
func ParseRef(ref string) (Version, error) {
	if ref == "" {
		return Version{}, ErrEmptyRef
	}
	name, ver, ok := strings.Cut(ref, "/")
	if !ok || name == "" || ver == "" || strings.Contains(ver, "/") {
		return Version{}, fmt.Errorf("%w: %q", ErrInvalidRef, ref)
	}
	return Version{Path: name, Version: ver}, nil
}

// String renders the reference as "name/version".
func (v Version) String() string {
	return v.Path + "/" + v.Version
}

// Check reports whether v is a pinned semantic version.
func (v Version) Check() error {
	if v.Path == "" {
		return fmt.Errorf("%w: missing name", ErrInvalidRef)
	}
	sv := v.Version
	if !strings.HasPrefix(sv, "v") {
		sv = "v" + sv
	}
	if !semver.IsValid(sv) {
		return fmt.Errorf("%w: %s: version %q is not a semantic version", ErrInvalidRef, v.Path, v.Version)
	}
	return nil
}
