package versions

import (
	"bytes"
	"encoding/json"
	"io"
	"os"
	"path/filepath"
)

// FileName is the dependency descriptor written into the generators folder.
const FileName = "deps.json"

type Dependency struct {
	Name    string `json:"name"`
	Version string `json:"version"`
	Dir     string `json:"dir,omitempty"`
}

// Versions records the pinned dependencies a recipe resolved.
type Versions struct {
	Recipe       string       `json:"recipe"`
	Dependencies []Dependency `json:"deps"`
}

func Parse(file string, data []byte) (*Versions, error) {
	var reader io.Reader

	if data != nil {
		reader = bytes.NewBuffer(data)
	} else {
		f, err := os.Open(file)
		if err != nil {
			return nil, err
		}
		defer f.Close()
		reader = f
	}

	var v Versions

	if err := json.NewDecoder(reader).Decode(&v); err != nil {
		return nil, err
	}

	return &v, nil
}

// Write stores v as indented JSON, creating the parent directory if needed.
func Write(file string, v *Versions) error {
	if err := os.MkdirAll(filepath.Dir(file), 0755); err != nil {
		return err
	}
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(file, append(data, '\n'), 0644)
}
