// Package config loads the optional arbor.yaml engine configuration.
package config

import (
	stderrors "errors"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"golang.org/x/mod/semver"
	"gopkg.in/yaml.v3"

	"github.com/go-drift/arbor/pkg/errors"
	"github.com/go-drift/arbor/pkg/event"
)

// FileName is the configuration file LoadOptional looks for.
const FileName = "arbor.yaml"

// EngineVersion is the version of the engine configurations are checked
// against.
const EngineVersion = "v1.0.0"

// Config represents the optional arbor.yaml configuration.
type Config struct {
	Engine  EngineConfig  `yaml:"engine"`
	Queue   QueueConfig   `yaml:"queue"`
	Render  RenderConfig  `yaml:"render"`
	Log     LogConfig     `yaml:"log"`
	Styles  []string      `yaml:"styles,omitempty"`
	Metrics MetricsConfig `yaml:"metrics"`
}

// EngineConfig contains engine settings.
type EngineConfig struct {
	// Version is the minimum engine version the project needs.
	Version string `yaml:"version,omitempty"`
}

// QueueConfig sizes the host event queue.
type QueueConfig struct {
	Capacity int    `yaml:"capacity,omitempty"`
	Overflow string `yaml:"overflow,omitempty"`
}

// RenderConfig contains render pass settings.
type RenderConfig struct {
	// Window is the default number of records an adaptor materializes;
	// zero materializes all of them.
	Window int `yaml:"window,omitempty"`
}

// LogConfig contains logging settings.
type LogConfig struct {
	Level   string `yaml:"level,omitempty"`
	Verbose bool   `yaml:"verbose,omitempty"`
}

// MetricsConfig contains the Prometheus endpoint settings.
type MetricsConfig struct {
	Addr string `yaml:"addr,omitempty"`
}

// Resolved contains validated configuration values with defaults applied.
type Resolved struct {
	Root          string
	EngineVersion string
	QueueCapacity int
	Overflow      event.Overflow
	Window        int
	LogLevel      slog.Level
	Verbose       bool
	// Styles are absolute style sheet paths.
	Styles      []string
	MetricsAddr string
}

// LoadOptional reads arbor.yaml from dir if present.
func LoadOptional(dir string) (*Config, error) {
	cfg, err := Load(filepath.Join(dir, FileName))
	if stderrors.Is(err, os.ErrNotExist) {
		return &Config{}, nil
	}
	return cfg, err
}

// Load reads and parses the configuration file at path. Unknown fields are
// rejected.
func Load(path string) (*Config, error) {
	const op = "config.Load"
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var cfg Config
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(&cfg); err != nil {
		if stderrors.Is(err, io.EOF) {
			return &cfg, nil
		}
		return nil, &errors.Error{Op: op, Kind: errors.KindConfig, Key: path, Err: err}
	}
	return &cfg, nil
}

// Validate checks every field and returns all problems found.
func (c *Config) Validate() error {
	const op = "config.Validate"
	var errs []error
	if v := strings.TrimSpace(c.Engine.Version); v != "" {
		if err := checkVersion(v); err != nil {
			errs = append(errs, err)
		}
	}
	if c.Queue.Capacity < 0 {
		errs = append(errs, errors.New(op, errors.KindConfig, "queue.capacity must not be negative, got %d", c.Queue.Capacity))
	}
	if _, err := event.ParseOverflow(c.Queue.Overflow); err != nil {
		errs = append(errs, err)
	}
	if c.Render.Window < 0 {
		errs = append(errs, errors.New(op, errors.KindConfig, "render.window must not be negative, got %d", c.Render.Window))
	}
	if _, err := parseLevel(c.Log.Level); err != nil {
		errs = append(errs, err)
	}
	for _, s := range c.Styles {
		if strings.TrimSpace(s) == "" {
			errs = append(errs, errors.New(op, errors.KindConfig, "empty style sheet path"))
		}
	}
	return errors.Join(errs...)
}

// checkVersion accepts versions with the engine's major version that are
// not newer than the engine.
func checkVersion(v string) error {
	const op = "config.Validate"
	if !strings.HasPrefix(v, "v") {
		v = "v" + v
	}
	if !semver.IsValid(v) {
		return errors.New(op, errors.KindConfig, "engine.version %q is not a semantic version", v)
	}
	if semver.Major(v) != semver.Major(EngineVersion) {
		return errors.New(op, errors.KindConfig, "engine.version %s is incompatible with engine %s", v, EngineVersion)
	}
	if semver.Compare(v, EngineVersion) > 0 {
		return errors.New(op, errors.KindConfig, "engine.version %s is newer than engine %s", v, EngineVersion)
	}
	return nil
}

func parseLevel(s string) (slog.Level, error) {
	var level slog.Level
	if strings.TrimSpace(s) == "" {
		return slog.LevelInfo, nil
	}
	if err := level.UnmarshalText([]byte(s)); err != nil {
		return level, errors.Wrap("config.Validate", errors.KindConfig, err)
	}
	return level, nil
}

// Resolve loads arbor.yaml from dir (if present), validates it and applies
// defaults.
func Resolve(dir string) (*Resolved, error) {
	cfg, err := LoadOptional(dir)
	if err != nil {
		return nil, err
	}
	return cfg.Resolve(dir)
}

// Resolve validates c and applies defaults. Relative style sheet paths are
// taken relative to root.
func (c *Config) Resolve(root string) (*Resolved, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}

	capacity := c.Queue.Capacity
	if capacity == 0 {
		capacity = event.DefaultCapacity
	}
	overflow, _ := event.ParseOverflow(c.Queue.Overflow)
	level, _ := parseLevel(c.Log.Level)

	engineVersion := strings.TrimSpace(c.Engine.Version)
	if engineVersion == "" {
		engineVersion = EngineVersion
	}

	styles := make([]string, 0, len(c.Styles))
	for _, s := range c.Styles {
		if !filepath.IsAbs(s) {
			s = filepath.Join(root, s)
		}
		styles = append(styles, filepath.Clean(s))
	}

	return &Resolved{
		Root:          root,
		EngineVersion: engineVersion,
		QueueCapacity: capacity,
		Overflow:      overflow,
		Window:        c.Render.Window,
		LogLevel:      level,
		Verbose:       c.Log.Verbose,
		Styles:        styles,
		MetricsAddr:   strings.TrimSpace(c.Metrics.Addr),
	}, nil
}

// FindProjectRoot walks up from dir to the nearest directory containing
// arbor.yaml or go.mod.
func FindProjectRoot(dir string) (string, error) {
	dir, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	for {
		for _, marker := range []string{FileName, "go.mod"} {
			if _, err := os.Stat(filepath.Join(dir, marker)); err == nil {
				return dir, nil
			}
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return "", errors.New("config.FindProjectRoot", errors.KindNotFound, "no %s or go.mod above %s", FileName, dir)
		}
		dir = parent
	}
}
