// Package config handles loading and saving listbind configuration.
//
// Configuration follows the XDG Base Directory specification:
//   - Config:  ~/.config/listbind/config.yaml
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// Dataset is a named data file or directory registered in the config.
type Dataset struct {
	Name    string `yaml:"name"`
	Path    string `yaml:"path"`
	Columns string `yaml:"columns,omitempty"` // Overrides the top-level column list
}

// UIConfig holds UI preference settings.
type UIConfig struct {
	SortAscIcon   string `yaml:"sort_asc_icon,omitempty"`
	SortDescIcon  string `yaml:"sort_desc_icon,omitempty"`
	ExpandedIcon  string `yaml:"expanded_icon,omitempty"`
	CollapsedIcon string `yaml:"collapsed_icon,omitempty"`
	AllowSorting  *bool  `yaml:"allow_sorting,omitempty"`   // Heading clicks sort (default true)
	AllowReorder  bool   `yaml:"allow_reorder,omitempty"`   // J/K move root rows
	AutoEditAdded bool   `yaml:"auto_edit_added,omitempty"` // Start editing rows right after adding them
}

// SortingAllowed reports whether heading clicks sort the list.
func (u UIConfig) SortingAllowed() bool {
	return u.AllowSorting == nil || *u.AllowSorting
}

// SortConfig is the sort applied after loading.
type SortConfig struct {
	Column     string `yaml:"column,omitempty"`
	Descending bool   `yaml:"descending,omitempty"`
}

// DataConfig controls where data comes from and how it is refreshed.
type DataConfig struct {
	Paths    []string      `yaml:"paths,omitempty"`    // Files or directories to load
	Watch    bool          `yaml:"watch,omitempty"`    // Reload when a data file changes
	Debounce time.Duration `yaml:"debounce,omitempty"` // Quiet period before reloading
	Lazy     bool          `yaml:"lazy,omitempty"`     // Load SQLite children on expand
}

// Config is the top-level configuration for listbind.
type Config struct {
	Columns  string     `yaml:"columns,omitempty"` // e.g. ":Task, points_, done"
	Sort     SortConfig `yaml:"sort,omitempty"`
	UI       UIConfig   `yaml:"ui,omitempty"`
	Data     DataConfig `yaml:"data,omitempty"`
	Datasets []Dataset  `yaml:"datasets,omitempty"`
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		Columns: "_:Label, kind, points_, done_",
		UI: UIConfig{
			SortAscIcon:   "▲",
			SortDescIcon:  "▼",
			ExpandedIcon:  "▾",
			CollapsedIcon: "▸",
		},
		Data: DataConfig{
			Debounce: 200 * time.Millisecond,
		},
	}
}

// ConfigDir returns the XDG config directory for listbind.
func ConfigDir() string {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "listbind")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", "listbind")
}

// ConfigPath returns the full path to config.yaml.
func ConfigPath() string {
	dir := ConfigDir()
	if dir == "" {
		return ""
	}
	return filepath.Join(dir, "config.yaml")
}

// Load reads the config file from the XDG config directory.
// Returns DefaultConfig if the file doesn't exist.
func Load() (Config, error) {
	path := ConfigPath()
	if path == "" {
		return DefaultConfig(), nil
	}
	return LoadFrom(path)
}

// LoadFrom reads config from a specific path.
// Returns DefaultConfig if the file doesn't exist.
func LoadFrom(path string) (Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return cfg, fmt.Errorf("parsing config: %w", err)
	}
	if cfg.Data.Debounce < 0 {
		return cfg, fmt.Errorf("parsing config: negative debounce %s", cfg.Data.Debounce)
	}

	// Expand ~ in data paths
	for i := range cfg.Datasets {
		cfg.Datasets[i].Path = expandHome(cfg.Datasets[i].Path)
	}
	for i := range cfg.Data.Paths {
		cfg.Data.Paths[i] = expandHome(cfg.Data.Paths[i])
	}

	return cfg, nil
}

// Save writes the config to the XDG config directory.
func Save(cfg Config) error {
	path := ConfigPath()
	if path == "" {
		return fmt.Errorf("cannot determine config directory")
	}
	return SaveTo(cfg, path)
}

// SaveTo writes the config to a specific path.
func SaveTo(cfg Config, path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}

	return nil
}

// FindDataset returns the dataset with the given name, or nil.
func (c Config) FindDataset(name string) *Dataset {
	for i := range c.Datasets {
		if strings.EqualFold(c.Datasets[i].Name, name) {
			return &c.Datasets[i]
		}
	}
	return nil
}

// ColumnsFor returns the column list to use for a dataset name: the
// dataset's own list if it has one, else the top-level list.
func (c Config) ColumnsFor(name string) string {
	if d := c.FindDataset(name); d != nil && d.Columns != "" {
		return d.Columns
	}
	return c.Columns
}

// ResolvedPath returns the dataset path with ~ expanded.
func (d Dataset) ResolvedPath() string {
	return expandHome(d.Path)
}

func expandHome(path string) string {
	if !strings.HasPrefix(path, "~") {
		return path
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(home, path[1:])
}
