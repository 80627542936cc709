// Package config loads the native host configuration from a TOML file, an
// optional .env file next to it, and TASK_AGENTS_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/pelletier/go-toml/v2"
	"github.com/samber/lo"
)

const (
	// AppDirName is the directory under the user config dir holding host files.
	AppDirName = "task-agents"

	// FileName is the default config file name.
	FileName = "host.toml"

	DefaultFileDepth         = 15
	DefaultFolderDepth       = 10
	DefaultHistoryLimit      = 50
	DefaultFastSearchTimeout = 5 * time.Second
	DefaultAgentDescriptor   = "agent.md"
	DefaultAgentExtension    = ".md"

	envPrefix = "TASK_AGENTS_"
)

var (
	ErrInvalidConfig = errors.New("invalid configuration")
)

// Config holds every setting the host reads at startup.
type Config struct {
	// FallbackDirectories are searched in order when the caller's own search
	// paths miss. Earlier entries take priority.
	FallbackDirectories []string `toml:"fallbackDirectories" json:"fallbackDirectories"`
	AgentsRoot          string   `toml:"agentsRoot" json:"agentsRoot"`
	AgentDescriptor     string   `toml:"agentDescriptor" json:"agentDescriptor"`
	AgentExtension      string   `toml:"agentExtension" json:"agentExtension"`
	LogFile             string   `toml:"logFile" json:"logFile"`
	HistoryFile         string   `toml:"historyFile" json:"historyFile"`
	HistoryLimit        int      `toml:"historyLimit" json:"historyLimit"`
	FileDepth           int      `toml:"fileDepth" json:"fileDepth"`
	FolderDepth         int      `toml:"folderDepth" json:"folderDepth"`
	FastSearch          *bool    `toml:"fastSearch,omitempty" json:"fastSearch,omitempty"`
	FastSearchTimeout   Duration `toml:"fastSearchTimeout" json:"fastSearchTimeout"`
}

// Duration is a time.Duration written as a Go duration string in TOML.
type Duration struct {
	time.Duration
}

func (d *Duration) UnmarshalText(text []byte) error {
	parsed, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	d.Duration = parsed
	return nil
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.Duration.String()), nil
}

// FastSearchEnabled reports whether the fast tier should run.
func (c *Config) FastSearchEnabled() bool {
	return c.FastSearch == nil || *c.FastSearch
}

// DefaultDir returns the directory holding host.toml, .env and the history file.
func DefaultDir() (string, error) {
	base, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to locate user config directory: %w", err)
	}
	return filepath.Join(base, AppDirName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := DefaultDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, FileName), nil
}

// Default returns a configuration rooted at the user's home directory.
func Default() (*Config, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return nil, fmt.Errorf("failed to get home directory: %w", err)
	}
	dir, err := DefaultDir()
	if err != nil {
		return nil, err
	}

	return &Config{
		FallbackDirectories: []string{
			filepath.Join(home, "Desktop"),
			filepath.Join(home, "Downloads"),
			filepath.Join(home, "Documents"),
			home,
		},
		AgentsRoot:        filepath.Join(home, ".claude", "agents"),
		AgentDescriptor:   DefaultAgentDescriptor,
		AgentExtension:    DefaultAgentExtension,
		LogFile:           filepath.Join(os.TempDir(), "native-host.log"),
		HistoryFile:       filepath.Join(dir, "history.json"),
		HistoryLimit:      DefaultHistoryLimit,
		FileDepth:         DefaultFileDepth,
		FolderDepth:       DefaultFolderDepth,
		FastSearchTimeout: Duration{DefaultFastSearchTimeout},
	}, nil
}

// Load builds the configuration: defaults, then the TOML file at path (if it
// exists), then a .env file beside it, then TASK_AGENTS_* variables. An
// empty path means DefaultPath.
func Load(path string) (*Config, error) {
	cfg, err := Default()
	if err != nil {
		return nil, err
	}

	if path == "" {
		path, err = DefaultPath()
		if err != nil {
			return nil, err
		}
	}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		if err := toml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse configuration file at %s: %w", path, err)
		}
	case os.IsNotExist(err):
		// defaults only
	default:
		return nil, fmt.Errorf("failed to read configuration file at %s: %w", path, err)
	}

	// godotenv.Load never overrides variables already set in the environment.
	envFile := filepath.Join(filepath.Dir(path), ".env")
	if _, statErr := os.Stat(envFile); statErr == nil {
		if err := godotenv.Load(envFile); err != nil {
			return nil, fmt.Errorf("failed to load %s: %w", envFile, err)
		}
	}

	if err := cfg.applyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	cfg.normalize()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) applyEnv(lookup func(string) (string, bool)) error {
	if v, ok := lookup(envPrefix + "FALLBACK_DIRS"); ok {
		c.FallbackDirectories = filepath.SplitList(v)
	}
	if v, ok := lookup(envPrefix + "AGENTS_ROOT"); ok {
		c.AgentsRoot = v
	}
	if v, ok := lookup(envPrefix + "LOG_FILE"); ok {
		c.LogFile = v
	}
	if v, ok := lookup(envPrefix + "HISTORY_FILE"); ok {
		c.HistoryFile = v
	}
	if v, ok := lookup(envPrefix + "HISTORY_LIMIT"); ok {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sHISTORY_LIMIT=%q is not a number", ErrInvalidConfig, envPrefix, v)
		}
		c.HistoryLimit = n
	}
	if v, ok := lookup(envPrefix + "FAST_SEARCH"); ok {
		b, err := strconv.ParseBool(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sFAST_SEARCH=%q is not a boolean", ErrInvalidConfig, envPrefix, v)
		}
		c.FastSearch = &b
	}
	if v, ok := lookup(envPrefix + "FAST_SEARCH_TIMEOUT"); ok {
		d, err := time.ParseDuration(strings.TrimSpace(v))
		if err != nil {
			return fmt.Errorf("%w: %sFAST_SEARCH_TIMEOUT=%q: %v", ErrInvalidConfig, envPrefix, v, err)
		}
		c.FastSearchTimeout = Duration{d}
	}
	return nil
}

func (c *Config) normalize() {
	c.FallbackDirectories = lo.Compact(lo.Map(c.FallbackDirectories, func(dir string, _ int) string {
		return expandHome(strings.TrimSpace(dir))
	}))
	c.AgentsRoot = expandHome(c.AgentsRoot)
	c.LogFile = expandHome(c.LogFile)
	c.HistoryFile = expandHome(c.HistoryFile)
	if c.AgentExtension != "" && !strings.HasPrefix(c.AgentExtension, ".") {
		c.AgentExtension = "." + c.AgentExtension
	}
}

// Validate checks value ranges. It does not require any directory to exist.
func (c *Config) Validate() error {
	if c.FileDepth <= 0 {
		return fmt.Errorf("%w: fileDepth must be positive, got %d", ErrInvalidConfig, c.FileDepth)
	}
	if c.FolderDepth <= 0 {
		return fmt.Errorf("%w: folderDepth must be positive, got %d", ErrInvalidConfig, c.FolderDepth)
	}
	if c.HistoryLimit <= 0 {
		return fmt.Errorf("%w: historyLimit must be positive, got %d", ErrInvalidConfig, c.HistoryLimit)
	}
	if c.FastSearchTimeout.Duration <= 0 {
		return fmt.Errorf("%w: fastSearchTimeout must be positive", ErrInvalidConfig)
	}
	if c.AgentDescriptor == "" || strings.ContainsRune(c.AgentDescriptor, filepath.Separator) {
		return fmt.Errorf("%w: agentDescriptor must be a bare file name", ErrInvalidConfig)
	}
	if c.AgentExtension == "" {
		return fmt.Errorf("%w: agentExtension must not be empty", ErrInvalidConfig)
	}
	for _, dir := range c.FallbackDirectories {
		if !filepath.IsAbs(dir) {
			return fmt.Errorf("%w: fallback directory %q is not absolute", ErrInvalidConfig, dir)
		}
	}
	return nil
}

// Marshal renders the configuration as TOML.
func (c *Config) Marshal() ([]byte, error) {
	return toml.Marshal(c)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}
