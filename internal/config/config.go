// Package config provides configuration management for the clipforge server.
// Defaults are overridden by an optional config.yaml in the data directory,
// then by environment variables.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	// Default values
	DefaultPort           = 8686
	DefaultLogLevel       = "info"
	DefaultDataDir        = ".clipforge"
	DefaultAutosaveMs     = 2000
	DefaultExportTimeoutS = 1800 // 30 minutes
	DefaultProbeTimeoutS  = 30

	// Environment variable names
	EnvPort          = "CLIPFORGE_PORT"
	EnvLogLevel      = "CLIPFORGE_LOG_LEVEL"
	EnvDataDir       = "CLIPFORGE_DATA_DIR"
	EnvFFmpeg        = "CLIPFORGE_FFMPEG"
	EnvFFprobe       = "CLIPFORGE_FFPROBE"
	EnvAutosaveMs    = "CLIPFORGE_AUTOSAVE_MS"
	EnvExportTimeout = "CLIPFORGE_EXPORT_TIMEOUT_S"

	// Database filename
	DBFilename = "clipforge.db"

	// Config filename looked up inside the data directory
	ConfigFilename = "config.yaml"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	UploadsDir() string
	FFmpegPath() string
	FFprobePath() string
	AutosaveWindow() time.Duration
	ExportTimeout() time.Duration
	ProbeTimeout() time.Duration
}

// EnvConfig reads configuration from an optional YAML file plus environment
// variable overrides.
type EnvConfig struct {
	port           int
	logLevel       string
	dataDir        string
	ffmpegPath     string
	ffprobePath    string
	autosaveMs     int
	exportTimeoutS int
}

// fileConfig mirrors the YAML layout of config.yaml.
type fileConfig struct {
	Port           int    `yaml:"port"`
	LogLevel       string `yaml:"log_level"`
	FFmpeg         string `yaml:"ffmpeg"`
	FFprobe        string `yaml:"ffprobe"`
	AutosaveMs     int    `yaml:"autosave_ms"`
	ExportTimeoutS int    `yaml:"export_timeout_s"`
}

// New creates a new EnvConfig with defaults, YAML file values, and
// environment variable overrides, in that order.
func New() (*EnvConfig, error) {
	cfg := &EnvConfig{
		port:           DefaultPort,
		logLevel:       DefaultLogLevel,
		dataDir:        defaultDataDir(),
		autosaveMs:     DefaultAutosaveMs,
		exportTimeoutS: DefaultExportTimeoutS,
	}

	// The data dir must be resolved before the YAML file can be found.
	if dd := os.Getenv(EnvDataDir); dd != "" {
		cfg.dataDir = dd
	}

	if err := cfg.loadFile(filepath.Join(cfg.dataDir, ConfigFilename)); err != nil {
		return nil, err
	}

	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		cfg.port = port
	}

	if ll := os.Getenv(EnvLogLevel); ll != "" {
		cfg.logLevel = ll
	}
	if fp := os.Getenv(EnvFFmpeg); fp != "" {
		cfg.ffmpegPath = fp
	}
	if fp := os.Getenv(EnvFFprobe); fp != "" {
		cfg.ffprobePath = fp
	}

	if ms := os.Getenv(EnvAutosaveMs); ms != "" {
		v, err := strconv.Atoi(ms)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvAutosaveMs, err)
		}
		cfg.autosaveMs = v
	}

	if s := os.Getenv(EnvExportTimeout); s != "" {
		v, err := strconv.Atoi(s)
		if err != nil {
			return nil, fmt.Errorf("invalid %s: %w", EnvExportTimeout, err)
		}
		cfg.exportTimeoutS = v
	}

	if cfg.port < 1 || cfg.port > 65535 {
		return nil, fmt.Errorf("invalid port %d: must be between 1 and 65535", cfg.port)
	}
	if cfg.autosaveMs <= 0 {
		return nil, fmt.Errorf("invalid autosave window %dms: must be positive", cfg.autosaveMs)
	}
	if cfg.exportTimeoutS <= 0 {
		return nil, fmt.Errorf("invalid export timeout %ds: must be positive", cfg.exportTimeoutS)
	}

	return cfg, nil
}

func (c *EnvConfig) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("cannot read %s: %w", path, err)
	}

	var fc fileConfig
	if err := yaml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("cannot parse %s: %w", path, err)
	}

	if fc.Port != 0 {
		c.port = fc.Port
	}
	if fc.LogLevel != "" {
		c.logLevel = fc.LogLevel
	}
	if fc.FFmpeg != "" {
		c.ffmpegPath = fc.FFmpeg
	}
	if fc.FFprobe != "" {
		c.ffprobePath = fc.FFprobe
	}
	if fc.AutosaveMs != 0 {
		c.autosaveMs = fc.AutosaveMs
	}
	if fc.ExportTimeoutS != 0 {
		c.exportTimeoutS = fc.ExportTimeoutS
	}
	return nil
}

// Port returns the HTTP server port
func (c *EnvConfig) Port() int {
	return c.port
}

// LogLevel returns the log level (debug, info, warn, error)
func (c *EnvConfig) LogLevel() string {
	return c.logLevel
}

// DataDir returns the data directory path
func (c *EnvConfig) DataDir() string {
	return c.dataDir
}

// DBPath returns the full path to the SQLite database file
func (c *EnvConfig) DBPath() string {
	return filepath.Join(c.dataDir, DBFilename)
}

// UploadsDir returns the directory holding uploaded and rendered media
func (c *EnvConfig) UploadsDir() string {
	return filepath.Join(c.dataDir, "uploads")
}

// FFmpegPath returns the configured ffmpeg binary path; empty = auto-detect
func (c *EnvConfig) FFmpegPath() string {
	return c.ffmpegPath
}

// FFprobePath returns the configured ffprobe binary path; empty = auto-detect
func (c *EnvConfig) FFprobePath() string {
	return c.ffprobePath
}

// AutosaveWindow returns the trailing-inactivity debounce window after which
// pending timeline edits are persisted.
func (c *EnvConfig) AutosaveWindow() time.Duration {
	return time.Duration(c.autosaveMs) * time.Millisecond
}

// ExportTimeout returns the maximum wall-clock duration for one export render
func (c *EnvConfig) ExportTimeout() time.Duration {
	return time.Duration(c.exportTimeoutS) * time.Second
}

// ProbeTimeout returns the timeout for a single media probe
func (c *EnvConfig) ProbeTimeout() time.Duration {
	return DefaultProbeTimeoutS * time.Second
}

// defaultDataDir returns the default data directory path
func defaultDataDir() string {
	home, err := os.UserHomeDir()
	if err != nil {
		// Fallback to current directory if home is not available
		return DefaultDataDir
	}
	return filepath.Join(home, DefaultDataDir)
}

// Version information (set at build time via ldflags)
var (
	Version   = "0.1.0"
	BuildTime = "unknown"
	GitCommit = "unknown"
)
