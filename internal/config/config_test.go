package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadFrom_Defaults(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{"TRANSITIONS_HOME": "/data"})
	require.NoError(t, err)

	assert.Equal(t, "/data", cfg.Home)
	assert.Equal(t, DefaultProject, cfg.Project)
	assert.Equal(t, FormatText, cfg.Format)
	assert.False(t, cfg.Verbose)
	assert.Equal(t, filepath.Join("/data", "projects", "default", "states.db"), cfg.DBPath())
}

func TestLoadFrom_AllVariables(t *testing.T) {
	cfg, err := LoadFrom(map[string]string{
		"TRANSITIONS_HOME":    "/data",
		"TRANSITIONS_DB":      "/tmp/other.db",
		"TRANSITIONS_PROJECT": "films",
		"TRANSITIONS_FORMAT":  "json",
		"TRANSITIONS_VERBOSE": "true",
	})
	require.NoError(t, err)

	assert.Equal(t, "/tmp/other.db", cfg.DBPath(), "explicit store wins over project")
	assert.Equal(t, "films", cfg.Project)
	assert.Equal(t, FormatJSON, cfg.Format)
	assert.True(t, cfg.Verbose)
	assert.Equal(t, filepath.Join("/data", "projects", "films", "states.db"), cfg.ProjectDB(cfg.Project))
}

func TestLoadFrom_HomeFallsBackToUserHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	cfg, err := LoadFrom(map[string]string{})
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".transitions"), cfg.Home)
}

func TestLoadFrom_Invalid(t *testing.T) {
	tests := []struct {
		name    string
		environ map[string]string
		wantErr string
	}{
		{"format", map[string]string{"TRANSITIONS_HOME": "/d", "TRANSITIONS_FORMAT": "yaml"}, "format must be"},
		{"verbose", map[string]string{"TRANSITIONS_HOME": "/d", "TRANSITIONS_VERBOSE": "loud"}, "parse env"},
		{"project separator", map[string]string{"TRANSITIONS_HOME": "/d", "TRANSITIONS_PROJECT": "a/b"}, "path separator"},
		{"project parent", map[string]string{"TRANSITIONS_HOME": "/d", "TRANSITIONS_PROJECT": ".."}, "reserved"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadFrom(tt.environ)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestListProjects(t *testing.T) {
	cfg := Config{Home: t.TempDir()}

	projects, err := cfg.ListProjects()
	require.NoError(t, err)
	assert.Empty(t, projects, "missing projects directory")

	require.NoError(t, EnsureDir(cfg.ProjectDB("films")))
	require.NoError(t, os.WriteFile(cfg.ProjectDB("films"), nil, 0o644))
	require.NoError(t, EnsureDir(cfg.ProjectDB("books")))
	require.NoError(t, os.MkdirAll(filepath.Join(cfg.ProjectsDir(), ".trash"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(cfg.ProjectsDir(), "README"), nil, 0o644))

	projects, err = cfg.ListProjects()
	require.NoError(t, err)
	assert.Equal(t, []Project{
		{Name: "books", Path: cfg.ProjectDB("books"), Initialized: false},
		{Name: "films", Path: cfg.ProjectDB("films"), Initialized: true},
	}, projects)
}
