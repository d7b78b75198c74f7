package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/camservo/filecopier/internal/utils"
)

// Duration wraps time.Duration so YAML values like "500ms" parse.
type Duration time.Duration

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	var raw string
	if err := value.Decode(&raw); err != nil {
		return err
	}

	parsed, err := time.ParseDuration(raw)
	if err != nil {
		return fmt.Errorf("invalid duration %q: %w", raw, err)
	}

	*d = Duration(parsed)
	return nil
}

// Std returns the wrapped time.Duration.
func (d Duration) Std() time.Duration { return time.Duration(d) }

// Config holds the YAML configuration for the copier.
type Config struct {
	BaseSourceDir  string   `yaml:"base_source_dir"` // Base directory containing the XX-XX subfolders
	DestinationDir string   `yaml:"destination_dir"` // Directory files are copied into
	Subfolder      string   `yaml:"subfolder"`       // Initial XX-XX subfolder to watch (optional)
	LogLevel       string   `yaml:"log_level"`       // Logging level: debug, info, warn, error
	LogFile        string   `yaml:"log_file"`        // Append-only log file; empty disables
	Exclude        []string `yaml:"exclude"`         // Glob patterns never copied
	Recursive      bool     `yaml:"recursive"`       // Watch nested directories of the subfolder
	Delay          Duration `yaml:"delay"`           // Settle time before copying a changed file
	Debounce       Duration `yaml:"debounce"`        // Quiet period coalescing duplicate events per file
	Notifications  bool     `yaml:"notifications"`   // If true, send desktop notifications
	Daemonize      bool     `yaml:"daemonize"`       // If true, run headless as a daemon
	DryRun         bool     `yaml:"dry_run"`         // If true, don't copy files
}

// Default returns a Config with default values.
func Default() *Config {
	return &Config{
		LogLevel: "info",
		LogFile:  "filecopier.log",
		Debounce: Duration(200 * time.Millisecond),
	}
}

// LoadConfig reads and parses the YAML config file at path, applying
// defaults for fields the file does not set.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parsing config file: %w", err)
	}

	return cfg, nil
}

// Validate expands tildes and checks that the configuration is usable.
// The base source directory must exist; the destination directory is only
// checked per copy event, so a destination created later still works.
func (c *Config) Validate() error {
	if c.BaseSourceDir == "" {
		return errors.New("base_source_dir is required")
	}
	if c.DestinationDir == "" {
		return errors.New("destination_dir is required")
	}

	c.BaseSourceDir = utils.ExpandTilde(c.BaseSourceDir)
	c.DestinationDir = utils.ExpandTilde(c.DestinationDir)

	if !filepath.IsAbs(c.BaseSourceDir) {
		return fmt.Errorf("base_source_dir must be an absolute path: %s", c.BaseSourceDir)
	}
	if !filepath.IsAbs(c.DestinationDir) {
		return fmt.Errorf("destination_dir must be an absolute path: %s", c.DestinationDir)
	}

	info, err := os.Stat(c.BaseSourceDir)
	if err != nil {
		return fmt.Errorf("base_source_dir: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("base_source_dir is not a directory: %s", c.BaseSourceDir)
	}

	switch c.LogLevel {
	case "debug", "info", "warn", "error":
	default:
		return fmt.Errorf("invalid log_level %q: must be one of debug, info, warn, error", c.LogLevel)
	}

	return nil
}
