package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"

	"filegrip/internal/eventbus"
	"filegrip/internal/ignore"
)

// ProjectFileName is looked up in the search root before the user config
const ProjectFileName = ".filegrip.toml"

// Environment overrides
const (
	EnvEditor   = "FILEGRIP_EDITOR"
	EnvLogLevel = "FILEGRIP_LOG_LEVEL"
)

// Config represents the application configuration
type Config struct {
	Root            string   `toml:"root,omitempty"`
	IncludeContent  bool     `toml:"include_content"`
	IgnorePatterns  []string `toml:"ignore_patterns"`
	HiddenPrefix    string   `toml:"hidden_prefix"`
	MaxResults      int      `toml:"max_results"`
	Watch           bool     `toml:"watch"`
	WatchDebounceMs int      `toml:"watch_debounce_ms"`
	Editor          string   `toml:"editor,omitempty"`
	LogFile         string   `toml:"log_file,omitempty"`
	LogLevel        string   `toml:"log_level,omitempty"`

	// Source is the file the config was read from, empty for defaults
	Source string `toml:"-"`
}

// ConfigService handles configuration management
type ConfigService interface {
	Load() (*Config, error)
	LoadFromPath(path string) (*Config, error)
	SaveToPath(config *Config, path string) error
}

// configService is the concrete implementation
type configService struct {
	bus  eventbus.EventBus
	root string
}

// NewConfigService creates a config service that looks for a project file under root
func NewConfigService(root string) ConfigService {
	return &configService{root: root}
}

// NewConfigServiceWithBus creates a config service with event bus support
func NewConfigServiceWithBus(root string, bus eventbus.EventBus) ConfigService {
	return &configService{root: root, bus: bus}
}

// UserPath returns $XDG_CONFIG_HOME/filegrip/config.toml (or the platform equivalent)
func UserPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		home, err := os.UserHomeDir()
		if err != nil {
			return ""
		}
		dir = filepath.Join(home, ".config")
	}
	return filepath.Join(dir, "filegrip", "config.toml")
}

// ProjectPath returns the project config path for root
func ProjectPath(root string) string {
	return filepath.Join(root, ProjectFileName)
}

// Load reads the project file, else the user file, else returns defaults.
// Environment overrides are applied in every case.
func (cs *configService) Load() (*Config, error) {
	for _, path := range cs.candidates() {
		if _, err := os.Stat(path); err != nil {
			continue
		}
		cfg, err := cs.LoadFromPath(path)
		if err != nil {
			return nil, err
		}
		cs.publishLoaded(cfg)
		return cfg, nil
	}

	cfg := Default()
	applyEnv(cfg)
	cs.publishLoaded(cfg)
	return cfg, nil
}

func (cs *configService) candidates() []string {
	var paths []string
	if cs.root != "" {
		paths = append(paths, ProjectPath(cs.root))
	}
	if p := UserPath(); p != "" {
		paths = append(paths, p)
	}
	return paths
}

func (cs *configService) publishLoaded(cfg *Config) {
	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigLoadedEvent{Path: cfg.Source, Root: cfg.Root})
	}
}

// LoadFromPath loads configuration from a specific path on top of the defaults
func (cs *configService) LoadFromPath(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("config file not found: %s", path)
		}
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := toml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse config %s: %w", path, err)
	}
	cfg.Source = path
	applyEnv(cfg)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

// SaveToPath saves configuration to a specific path
func (cs *configService) SaveToPath(config *Config, path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := toml.Marshal(config)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	if cs.bus != nil {
		cs.bus.Publish(eventbus.ConfigSavedEvent{Path: path})
	}
	return nil
}

// Default returns the default configuration
func Default() *Config {
	return &Config{
		HiddenPrefix:    ignore.DefaultHiddenPrefix,
		MaxResults:      1000,
		WatchDebounceMs: 250,
		LogLevel:        "info",
	}
}

// Validate rejects values the rest of the program cannot work with
func (c *Config) Validate() error {
	if c.MaxResults < 0 {
		return fmt.Errorf("max_results must not be negative, got %d", c.MaxResults)
	}
	if c.WatchDebounceMs < 0 {
		return fmt.Errorf("watch_debounce_ms must not be negative, got %d", c.WatchDebounceMs)
	}
	if _, err := c.Policy(); err != nil {
		return err
	}
	return nil
}

// Policy builds the ignore policy described by the config
func (c *Config) Policy() (*ignore.Policy, error) {
	return ignore.New(c.IgnorePatterns, ignore.WithHiddenPrefix(c.HiddenPrefix))
}

// Debounce returns the watcher debounce interval
func (c *Config) Debounce() time.Duration {
	return time.Duration(c.WatchDebounceMs) * time.Millisecond
}

// EditorCommand returns the editor to open matches with: the config value,
// then $VISUAL, then $EDITOR, then vi.
func (c *Config) EditorCommand() string {
	for _, e := range []string{c.Editor, os.Getenv("VISUAL"), os.Getenv("EDITOR")} {
		if e = strings.TrimSpace(e); e != "" {
			return e
		}
	}
	return "vi"
}

func applyEnv(cfg *Config) {
	if env := strings.TrimSpace(os.Getenv(EnvEditor)); env != "" {
		cfg.Editor = env
	}
	if env := strings.TrimSpace(os.Getenv(EnvLogLevel)); env != "" {
		cfg.LogLevel = env
	}
}
