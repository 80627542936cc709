package config

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// isolate points HOME and XDG_CONFIG_HOME at temp dirs and clears overrides.
func isolate(t *testing.T) (home, configDir string) {
	t.Helper()
	home = t.TempDir()
	xdg := t.TempDir()
	t.Setenv("HOME", home)
	t.Setenv("XDG_CONFIG_HOME", xdg)
	for _, kv := range os.Environ() {
		if name, _, ok := strings.Cut(kv, "="); ok && strings.HasPrefix(name, envPrefix) {
			t.Setenv(name, "")
			os.Unsetenv(name)
		}
	}
	return home, filepath.Join(xdg, AppDirName)
}

func TestLoadDefaultsWhenFileMissing(t *testing.T) {
	home, _ := isolate(t)

	cfg, err := Load(filepath.Join(t.TempDir(), "absent.toml"))
	require.NoError(t, err)

	assert.Equal(t, []string{
		filepath.Join(home, "Desktop"),
		filepath.Join(home, "Downloads"),
		filepath.Join(home, "Documents"),
		home,
	}, cfg.FallbackDirectories)
	assert.Equal(t, DefaultFileDepth, cfg.FileDepth)
	assert.Equal(t, DefaultFolderDepth, cfg.FolderDepth)
	assert.Equal(t, DefaultHistoryLimit, cfg.HistoryLimit)
	assert.Equal(t, DefaultFastSearchTimeout, cfg.FastSearchTimeout.Duration)
	assert.True(t, cfg.FastSearchEnabled())
}

func TestLoadFromTOML(t *testing.T) {
	home, _ := isolate(t)
	path := filepath.Join(t.TempDir(), FileName)
	content := `
fallbackDirectories = ["/srv/projects", "~/notes", ""]
agentsRoot = "/opt/agents"
agentExtension = "txt"
historyLimit = 10
fastSearch = false
fastSearchTimeout = "750ms"
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	cfg, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, []string{"/srv/projects", filepath.Join(home, "notes")}, cfg.FallbackDirectories)
	assert.Equal(t, "/opt/agents", cfg.AgentsRoot)
	assert.Equal(t, ".txt", cfg.AgentExtension)
	assert.Equal(t, 10, cfg.HistoryLimit)
	assert.False(t, cfg.FastSearchEnabled())
	assert.Equal(t, 750*time.Millisecond, cfg.FastSearchTimeout.Duration)
	// untouched keys keep their defaults
	assert.Equal(t, DefaultAgentDescriptor, cfg.AgentDescriptor)
}

func TestEnvironmentOverridesFile(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte(`agentsRoot = "/from/file"`), 0644))

	t.Setenv("TASK_AGENTS_AGENTS_ROOT", "/from/env")
	t.Setenv("TASK_AGENTS_FALLBACK_DIRS", "/a"+string(os.PathListSeparator)+"/b")

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/from/env", cfg.AgentsRoot)
	assert.Equal(t, []string{"/a", "/b"}, cfg.FallbackDirectories)
}

func TestDotEnvBesideConfigIsLoaded(t *testing.T) {
	isolate(t)
	dir := t.TempDir()
	path := filepath.Join(dir, FileName)
	require.NoError(t, os.WriteFile(filepath.Join(dir, ".env"), []byte("TASK_AGENTS_HISTORY_LIMIT=7\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("TASK_AGENTS_HISTORY_LIMIT") })

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, 7, cfg.HistoryLimit)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	tests := []struct {
		name    string
		content string
		env     map[string]string
		wantMsg string
	}{
		{name: "zero depth", content: "fileDepth = 0", wantMsg: "fileDepth"},
		{name: "relative fallback", content: `fallbackDirectories = ["relative/dir"]`, wantMsg: "not absolute"},
		{name: "descriptor with separator", content: `agentDescriptor = "a/b.md"`, wantMsg: "agentDescriptor"},
		{name: "bad env limit", env: map[string]string{"TASK_AGENTS_HISTORY_LIMIT": "many"}, wantMsg: "HISTORY_LIMIT"},
		{name: "bad env timeout", env: map[string]string{"TASK_AGENTS_FAST_SEARCH_TIMEOUT": "soon"}, wantMsg: "FAST_SEARCH_TIMEOUT"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			isolate(t)
			path := filepath.Join(t.TempDir(), FileName)
			require.NoError(t, os.WriteFile(path, []byte(tt.content), 0644))
			for k, v := range tt.env {
				t.Setenv(k, v)
			}

			_, err := Load(path)
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.wantMsg)
		})
	}
}

func TestLoadReportsMalformedTOML(t *testing.T) {
	isolate(t)
	path := filepath.Join(t.TempDir(), FileName)
	require.NoError(t, os.WriteFile(path, []byte("fallbackDirectories = ["), 0644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "failed to parse configuration file")
}

func TestMarshalRoundTripsDuration(t *testing.T) {
	isolate(t)
	cfg, err := Default()
	require.NoError(t, err)

	data, err := cfg.Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "fastSearchTimeout")
	assert.Contains(t, string(data), "5s")
}
