// Package config handles configuration loading and defaults for tasklist.
// Configuration is loaded from XDG-compliant paths (typically
// ~/.config/tasklist/config.yaml, or config.toml when no YAML file exists).
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"gopkg.in/yaml.v3"
)

// AppName names the config and default data directories.
const AppName = "tasklist"

// Storage backends.
const (
	BackendSQLite = "sqlite"
	BackendJSON   = "json"
)

// Config represents the application configuration.
type Config struct {
	// DataDir overrides the default data directory (~/.tasklist)
	DataDir string `yaml:"data_dir,omitempty" toml:"data_dir,omitempty"`

	Storage StorageConfig `yaml:"storage,omitempty" toml:"storage,omitempty"`
	Theme   ThemeConfig   `yaml:"theme,omitempty" toml:"theme,omitempty"`
	Keys    KeysConfig    `yaml:"keys,omitempty" toml:"keys,omitempty"`
	UX      UXConfig      `yaml:"ux,omitempty" toml:"ux,omitempty"`
	Log     LogConfig     `yaml:"log,omitempty" toml:"log,omitempty"`

	// path is the file this config was read from, empty for defaults.
	path string
}

// StorageConfig selects the persistence backend.
type StorageConfig struct {
	// Backend is "sqlite" (default) or "json"
	Backend string `yaml:"backend,omitempty" toml:"backend,omitempty"`
}

// ThemeConfig defines appearance settings.
type ThemeConfig struct {
	// Mode forces "light" or "dark" at startup; empty keeps the saved preference
	Mode string `yaml:"mode,omitempty" toml:"mode,omitempty"`

	// Accent overrides the highlight color of both palettes (hex, e.g. "#FF5733")
	Accent string `yaml:"accent,omitempty" toml:"accent,omitempty"`
}

// KeysConfig defines customizable keyboard shortcuts.
// Each field accepts a comma-separated list of key bindings.
// Examples: "q,ctrl+c", "tab", "j,down"
type KeysConfig struct {
	// Global keys
	Quit           string `yaml:"quit,omitempty" toml:"quit,omitempty"`                       // default: "q,ctrl+c"
	Help           string `yaml:"help,omitempty" toml:"help,omitempty"`                       // default: "?"
	NextPane       string `yaml:"next_pane,omitempty" toml:"next_pane,omitempty"`             // default: "tab"
	ClearCompleted string `yaml:"clear_completed,omitempty" toml:"clear_completed,omitempty"` // default: "C"
	ToggleTheme    string `yaml:"toggle_theme,omitempty" toml:"toggle_theme,omitempty"`       // default: "t"
	Backup         string `yaml:"backup,omitempty" toml:"backup,omitempty"`                   // default: "b"
	Export         string `yaml:"export,omitempty" toml:"export,omitempty"`                   // default: "E"

	// Navigation keys
	Up     string `yaml:"up,omitempty" toml:"up,omitempty"`         // default: "k,up"
	Down   string `yaml:"down,omitempty" toml:"down,omitempty"`     // default: "j,down"
	Top    string `yaml:"top,omitempty" toml:"top,omitempty"`       // default: "g,home"
	Bottom string `yaml:"bottom,omitempty" toml:"bottom,omitempty"` // default: "G,end"

	// Shared by both panes
	Add    string `yaml:"add,omitempty" toml:"add,omitempty"`       // default: "a"
	Delete string `yaml:"delete,omitempty" toml:"delete,omitempty"` // default: "x"
	Select string `yaml:"select,omitempty" toml:"select,omitempty"` // default: "enter"

	// Category keys
	Rename   string `yaml:"rename,omitempty" toml:"rename,omitempty"`       // default: "r"
	MoveUp   string `yaml:"move_up,omitempty" toml:"move_up,omitempty"`     // default: "K,shift+up"
	MoveDown string `yaml:"move_down,omitempty" toml:"move_down,omitempty"` // default: "J,shift+down"

	// Task keys
	Toggle   string `yaml:"toggle,omitempty" toml:"toggle,omitempty"`       // default: "space"
	Edit     string `yaml:"edit,omitempty" toml:"edit,omitempty"`           // default: "e"
	MoveTask string `yaml:"move_task,omitempty" toml:"move_task,omitempty"` // default: "m"

	// Input keys
	Confirm string `yaml:"confirm,omitempty" toml:"confirm,omitempty"` // default: "enter"
	Cancel  string `yaml:"cancel,omitempty" toml:"cancel,omitempty"`   // default: "esc"
}

// UXConfig defines user experience settings.
type UXConfig struct {
	// ConfirmDeletions shows confirmation dialogs before deleting items
	ConfirmDeletions bool `yaml:"confirm_deletions,omitempty" toml:"confirm_deletions,omitempty"` // default: true

	// NarrowLayoutThreshold is the terminal width below which the details panel is hidden
	NarrowLayoutThreshold int `yaml:"narrow_layout_threshold,omitempty" toml:"narrow_layout_threshold,omitempty"` // default: 80
}

// LogConfig controls the log file.
type LogConfig struct {
	// Level is one of debug, info, warn, error
	Level string `yaml:"level,omitempty" toml:"level,omitempty"` // default: "info"

	// File overrides the log path; relative paths are resolved against the data dir
	File string `yaml:"file,omitempty" toml:"file,omitempty"` // default: "tasklist.log"
}

// Default returns the default configuration.
func Default() *Config {
	return &Config{
		DataDir: defaultDataDir(),
		Storage: StorageConfig{Backend: BackendSQLite},
		UX: UXConfig{
			ConfirmDeletions:      true,
			NarrowLayoutThreshold: 80,
		},
		Log: LogConfig{
			Level: "info",
			File:  AppName + ".log",
		},
	}
}

func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		return "." + AppName
	}
	return filepath.Join(home, "."+AppName)
}

// configDir returns the configuration directory path (XDG compliant).
func configDir() string {
	if xdg := os.Getenv("XDG_CONFIG_HOME"); xdg != "" {
		return filepath.Join(xdg, AppName)
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", AppName)
}

// DefaultPath returns the config file that Load reads: config.yaml when it
// exists, else config.toml when that exists, else the config.yaml location.
func DefaultPath() string {
	dir := configDir()
	if dir == "" {
		return ""
	}
	yamlPath := filepath.Join(dir, "config.yaml")
	if _, err := os.Stat(yamlPath); err == nil {
		return yamlPath
	}
	tomlPath := filepath.Join(dir, "config.toml")
	if _, err := os.Stat(tomlPath); err == nil {
		return tomlPath
	}
	return yamlPath
}

// Load reads configuration from the default location, merging with defaults.
// If no config file exists, returns default configuration.
func Load() (*Config, error) {
	return LoadFile(DefaultPath())
}

// LoadFile reads configuration from path. The format follows the extension
// (.toml for TOML, anything else YAML). A missing file yields defaults.
func LoadFile(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	var (
		userCfg Config
		present presence
	)
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		if err := toml.Unmarshal(data, &userCfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		var raw map[string]any
		if err := toml.Unmarshal(data, &raw); err == nil {
			present = tomlPresence(raw)
		}
	} else {
		if err := yaml.Unmarshal(data, &userCfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
		var doc yaml.Node
		if err := yaml.Unmarshal(data, &doc); err == nil && len(doc.Content) > 0 {
			present = yamlPresence(&doc)
		}
	}

	cfg.merge(&userCfg, present)
	cfg.path = path
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("config %s: %w", path, err)
	}
	return cfg, nil
}

// Path returns the file the configuration was read from, if any.
func (c *Config) Path() string {
	return c.path
}

// Validate rejects values the rest of the program cannot act on.
func (c *Config) Validate() error {
	switch c.Storage.Backend {
	case BackendSQLite, BackendJSON:
	default:
		return fmt.Errorf("storage.backend must be %q or %q, got %q", BackendSQLite, BackendJSON, c.Storage.Backend)
	}
	switch c.Theme.Mode {
	case "", "light", "dark":
	default:
		return fmt.Errorf("theme.mode must be light or dark, got %q", c.Theme.Mode)
	}
	switch strings.ToLower(c.Log.Level) {
	case "debug", "info", "warn", "warning", "error":
	default:
		return fmt.Errorf("unknown log.level %q", c.Log.Level)
	}
	return nil
}

// presence reports whether a dotted key path was set explicitly in the file.
// A nil presence means it could not be determined.
type presence func(path ...string) bool

// mergeNonEmpty applies non-empty values from other to c.
// It does not touch booleans (those require presence-aware merging).
func (c *Config) mergeNonEmpty(other *Config) {
	setString(&c.DataDir, other.DataDir)
	setString(&c.Storage.Backend, other.Storage.Backend)
	setString(&c.Theme.Mode, other.Theme.Mode)
	setString(&c.Theme.Accent, other.Theme.Accent)
	setString(&c.Log.Level, other.Log.Level)
	setString(&c.Log.File, other.Log.File)

	k, o := &c.Keys, other.Keys
	for dst, src := range map[*string]string{
		&k.Quit: o.Quit, &k.Help: o.Help, &k.NextPane: o.NextPane,
		&k.ClearCompleted: o.ClearCompleted, &k.ToggleTheme: o.ToggleTheme, &k.Backup: o.Backup, &k.Export: o.Export,
		&k.Up: o.Up, &k.Down: o.Down, &k.Top: o.Top, &k.Bottom: o.Bottom,
		&k.Add: o.Add, &k.Delete: o.Delete, &k.Select: o.Select,
		&k.Rename: o.Rename, &k.MoveUp: o.MoveUp, &k.MoveDown: o.MoveDown,
		&k.Toggle: o.Toggle, &k.Edit: o.Edit, &k.MoveTask: o.MoveTask,
		&k.Confirm: o.Confirm, &k.Cancel: o.Cancel,
	} {
		setString(dst, src)
	}

	if other.UX.NarrowLayoutThreshold > 0 {
		c.UX.NarrowLayoutThreshold = other.UX.NarrowLayoutThreshold
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
}

func (c *Config) merge(other *Config, has presence) {
	c.mergeNonEmpty(other)
	if has == nil {
		// Without presence information a false could be an omission.
		return
	}
	if has("ux", "confirm_deletions") {
		c.UX.ConfirmDeletions = other.UX.ConfirmDeletions
	}
}

func yamlPresence(doc *yaml.Node) presence {
	return func(path ...string) bool {
		return yamlHasPath(doc, path...)
	}
}

func yamlHasPath(doc *yaml.Node, path ...string) bool {
	if doc == nil || len(path) == 0 {
		return false
	}

	// Document -> root mapping.
	n := doc
	if n.Kind == yaml.DocumentNode && len(n.Content) > 0 {
		n = n.Content[0]
	}
	for _, key := range path {
		if n == nil || n.Kind != yaml.MappingNode {
			return false
		}
		var next *yaml.Node
		for i := 0; i+1 < len(n.Content); i += 2 {
			if k := n.Content[i]; k.Kind == yaml.ScalarNode && k.Value == key {
				next = n.Content[i+1]
				break
			}
		}
		if next == nil {
			return false
		}
		n = next
	}
	return true
}

func tomlPresence(raw map[string]any) presence {
	return func(path ...string) bool {
		var cur any = raw
		for _, key := range path {
			m, ok := cur.(map[string]any)
			if !ok {
				return false
			}
			if cur, ok = m[key]; !ok {
				return false
			}
		}
		return len(path) > 0
	}
}

// GetDataDir returns the resolved data directory path.
func (c *Config) GetDataDir() string {
	if c.DataDir == "" {
		return defaultDataDir()
	}
	return expandHome(c.DataDir)
}

// LogPath returns the resolved log file path.
func (c *Config) LogPath() string {
	file := c.Log.File
	if file == "" {
		file = AppName + ".log"
	}
	file = expandHome(file)
	if filepath.IsAbs(file) {
		return file
	}
	return filepath.Join(c.GetDataDir(), file)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") && !strings.HasPrefix(p, `~\`) {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	if p == "~" {
		return home
	}
	return filepath.Join(home, p[2:])
}
