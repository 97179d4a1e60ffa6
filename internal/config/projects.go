package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
)

// Project is one directory under the projects directory.
type Project struct {
	Name string `json:"name"`
	Path string `json:"path"`

	// Initialized reports whether the project holds a store file.
	Initialized bool `json:"initialized"`
}

// ListProjects returns the projects under c.ProjectsDir(), sorted by name.
// A missing projects directory yields no projects.
func (c Config) ListProjects() ([]Project, error) {
	entries, err := os.ReadDir(c.ProjectsDir())
	if errors.Is(err, os.ErrNotExist) {
		return []Project{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}

	projects := []Project{}
	for _, e := range entries {
		if !e.IsDir() || e.Name()[0] == '.' {
			continue
		}
		db := c.ProjectDB(e.Name())
		_, err := os.Stat(db)
		projects = append(projects, Project{
			Name:        e.Name(),
			Path:        db,
			Initialized: err == nil,
		})
	}
	sort.Slice(projects, func(i, j int) bool { return projects[i].Name < projects[j].Name })
	return projects, nil
}

// EnsureDir creates the directory that will hold the store at path.
func EnsureDir(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create store directory: %w", err)
	}
	return nil
}
