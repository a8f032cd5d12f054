package store

import (
	"context"
	"errors"
	"fmt"
	"io/fs"

	"gantt2svg/internal/config"
	"gantt2svg/internal/source"
	"gantt2svg/pkg/plan"
)

// Persister loads and saves whole project collections.
type Persister interface {
	Load(ctx context.Context) ([]plan.Project, error)
	Save(ctx context.Context, projects []plan.Project) error
	Close() error
}

// NewPersister builds the persister selected by the store configuration.
// The memory driver returns nil: nothing is kept between runs.
func NewPersister(cfg config.StoreConfig) (Persister, error) {
	switch cfg.Driver {
	case "", "memory":
		return nil, nil
	case "sqlite":
		return NewSQLite(cfg.Path)
	case "yaml":
		return NewYAMLFile(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown store driver %q", cfg.Driver)
	}
}

// YAMLFile keeps projects in a YAML project file.
type YAMLFile struct {
	path string
}

// NewYAMLFile returns a persister for the project file at path.
func NewYAMLFile(path string) *YAMLFile {
	return &YAMLFile{path: path}
}

// Load reads the file; a missing file is an empty collection.
func (y *YAMLFile) Load(ctx context.Context) ([]plan.Project, error) {
	projects, err := source.LoadYAML(y.path)
	if errors.Is(err, fs.ErrNotExist) {
		return nil, nil
	}
	return projects, err
}

func (y *YAMLFile) Save(ctx context.Context, projects []plan.Project) error {
	return source.SaveYAML(y.path, projects)
}

func (y *YAMLFile) Close() error { return nil }
