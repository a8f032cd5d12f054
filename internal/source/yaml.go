// Package source reads and writes project collections: YAML project files,
// CSV task exports and the built-in sample data.
package source

import (
	"bytes"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"gantt2svg/pkg/plan"
)

// File is the on-disk shape of a project file.
type File struct {
	Projects []plan.Project `yaml:"projects"`
}

// LoadYAML reads a project file and validates every project in it.
// Malformed dates are reported here, before anything is laid out.
func LoadYAML(path string) ([]plan.Project, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("error reading project file: %w", err)
	}
	return DecodeYAML(data)
}

// DecodeYAML parses and validates a project file body.
func DecodeYAML(data []byte) ([]plan.Project, error) {
	var f File
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("error parsing project file: %w", err)
	}
	if err := plan.ValidateAll(f.Projects); err != nil {
		return nil, err
	}
	return f.Projects, nil
}

// SaveYAML writes projects to path atomically (temp file then rename).
func SaveYAML(path string, projects []plan.Project) error {
	data, err := yaml.Marshal(File{Projects: projects})
	if err != nil {
		return fmt.Errorf("error encoding project file: %w", err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(path), ".projects-*.yaml")
	if err != nil {
		return fmt.Errorf("error creating temp file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		return fmt.Errorf("error writing project file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("error writing project file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("error replacing project file: %w", err)
	}
	return nil
}
