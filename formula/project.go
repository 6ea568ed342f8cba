package formula

import (
	"errors"
	"io"
	"io/fs"
)

// -----------------------------------------------------------------------------

// Project represents the source tree being built.
type Project struct {
	DirFS fs.FS
}

// ReadFile reads the content of a file in the project.
func (p *Project) ReadFile(path string) ([]byte, error) {
	file, err := p.DirFS.Open(path)
	if err != nil {
		return nil, err
	}
	defer file.Close()

	return io.ReadAll(file)
}

// HasFile reports whether path exists in the project and is a regular file.
func (p *Project) HasFile(path string) bool {
	info, err := fs.Stat(p.DirFS, path)
	if err != nil {
		return false
	}
	return info.Mode().IsRegular()
}

// -----------------------------------------------------------------------------

// ErrNoCMakeLists is returned for projects without a top-level CMakeLists.txt.
var ErrNoCMakeLists = errors.New("CMakeLists.txt not found")

// CheckCMake verifies the project can be configured by CMake.
func (p *Project) CheckCMake() error {
	if !p.HasFile("CMakeLists.txt") {
		return ErrNoCMakeLists
	}
	return nil
}
