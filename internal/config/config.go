// Package config resolves where the tool keeps its data and how it reports.
//
// Values come from environment variables and are overridden by CLI flags.
// The layout under TRANSITIONS_HOME matches the legacy tool: one directory
// per project, each holding a states.db file and its logs/ directory.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/caarlos0/env/v11"
)

// DBFileName is the store file name inside a project directory.
const DBFileName = "states.db"

// ProjectsDirName is the directory under Home holding the projects.
const ProjectsDirName = "projects"

// DefaultProject is used when neither a store path nor a project is given.
const DefaultProject = "default"

// Output formats.
const (
	FormatText = "text"
	FormatJSON = "json"
)

// ErrInvalidConfig is returned for values that cannot be used.
var ErrInvalidConfig = errors.New("invalid configuration")

// Config holds the environment-derived settings.
type Config struct {
	// Home is the data directory. Defaults to ~/.transitions.
	Home string `env:"TRANSITIONS_HOME"`

	// DB is an explicit store path. It takes precedence over Project.
	DB string `env:"TRANSITIONS_DB"`

	// Project selects Home/projects/<Project>/states.db.
	Project string `env:"TRANSITIONS_PROJECT" envDefault:"default"`

	// Format is the output format, text or json.
	Format string `env:"TRANSITIONS_FORMAT" envDefault:"text"`

	// Verbose enables debug logging.
	Verbose bool `env:"TRANSITIONS_VERBOSE"`
}

// Load reads the configuration from the process environment.
func Load() (Config, error) {
	return parse(env.Options{})
}

// LoadFrom reads the configuration from the given variables instead of the
// process environment.
func LoadFrom(environ map[string]string) (Config, error) {
	return parse(env.Options{Environment: environ})
}

func parse(opts env.Options) (Config, error) {
	var cfg Config
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	if cfg.Home == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return Config{}, fmt.Errorf("%w: TRANSITIONS_HOME is unset and no home directory: %w", ErrInvalidConfig, err)
		}
		cfg.Home = filepath.Join(home, ".transitions")
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks the values that have a fixed vocabulary.
func (c Config) Validate() error {
	if !slices.Contains([]string{FormatText, FormatJSON}, c.Format) {
		return fmt.Errorf("%w: format must be %s or %s, got %q", ErrInvalidConfig, FormatText, FormatJSON, c.Format)
	}
	if err := ValidateProjectName(c.Project); err != nil {
		return err
	}
	return nil
}

// ProjectsDir returns the directory holding every project.
func (c Config) ProjectsDir() string {
	return filepath.Join(c.Home, ProjectsDirName)
}

// ProjectDB returns the store path of a project.
func (c Config) ProjectDB(project string) string {
	return filepath.Join(c.ProjectsDir(), project, DBFileName)
}

// DBPath returns the store to operate on: DB if set, else the store of
// Project.
func (c Config) DBPath() string {
	if c.DB != "" {
		return c.DB
	}
	return c.ProjectDB(c.Project)
}

// ValidateProjectName rejects names that would escape the projects
// directory.
func ValidateProjectName(name string) error {
	switch {
	case name == "":
		return fmt.Errorf("%w: project name is empty", ErrInvalidConfig)
	case name == "." || name == "..":
		return fmt.Errorf("%w: project name %q is reserved", ErrInvalidConfig, name)
	case filepath.Base(name) != name:
		return fmt.Errorf("%w: project name %q contains a path separator", ErrInvalidConfig, name)
	}
	return nil
}
