// Package config provides configuration management for the timeline service.
// Defaults are overlaid by an optional TOML file from the XDG config
// directory and then by environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/adrg/xdg"
	"github.com/pelletier/go-toml/v2"
)

const (
	// Default values
	DefaultPort                 = 8788
	DefaultLogLevel             = "info"
	DefaultDataDir              = ".heimdex-timeline"
	DefaultHistorySize          = 50
	DefaultPixelsPerSecond      = 100.0
	DefaultMinScale             = 0.1
	DefaultMaxScale             = 10.0
	DefaultSnapThreshold        = 10.0
	DefaultEdgeThreshold        = 50.0
	DefaultMaxScrollSpeed       = 15.0
	DefaultTrackSwitchThreshold = 40.0
	DefaultProbeTimeout         = 30 // seconds
	DefaultMetadataCacheTTL     = 300

	// ConfigFile is the path of the TOML file relative to the XDG config home.
	ConfigFile = "heimdex-timeline/config.toml"

	// Environment variable names
	EnvConfigFile           = "HEIMDEX_TIMELINE_CONFIG"
	EnvPort                 = "HEIMDEX_TIMELINE_PORT"
	EnvLogLevel             = "HEIMDEX_TIMELINE_LOG_LEVEL"
	EnvDataDir              = "HEIMDEX_TIMELINE_DATA_DIR"
	EnvHeadless             = "HEIMDEX_TIMELINE_HEADLESS"
	EnvHistorySize          = "HEIMDEX_TIMELINE_HISTORY_SIZE"
	EnvPixelsPerSecond      = "HEIMDEX_TIMELINE_PIXELS_PER_SECOND"
	EnvMinScale             = "HEIMDEX_TIMELINE_MIN_SCALE"
	EnvMaxScale             = "HEIMDEX_TIMELINE_MAX_SCALE"
	EnvSnapThreshold        = "HEIMDEX_TIMELINE_SNAP_THRESHOLD"
	EnvEdgeThreshold        = "HEIMDEX_TIMELINE_EDGE_THRESHOLD"
	EnvMaxScrollSpeed       = "HEIMDEX_TIMELINE_MAX_SCROLL_SPEED"
	EnvTrackSwitchThreshold = "HEIMDEX_TIMELINE_TRACK_SWITCH_THRESHOLD"
	EnvFFprobe              = "HEIMDEX_TIMELINE_FFPROBE"

	// Database filename
	DBFilename = "timeline.db"
)

// Config defines the application configuration interface
type Config interface {
	Port() int
	LogLevel() string
	DataDir() string
	DBPath() string
	Headless() bool
	HistorySize() int
	PixelsPerSecond() float64
	MinScale() float64
	MaxScale() float64
	SnapThreshold() float64
	EdgeThreshold() float64
	MaxScrollSpeed() float64
	TrackSwitchThreshold() float64
	FFprobePath() string
	ProbeTimeout() time.Duration
	MetadataCacheTTL() time.Duration
	Source() string
}

// fileConfig mirrors config.toml. Zero values mean "not set".
type fileConfig struct {
	Server struct {
		Port     int    `toml:"port"`
		LogLevel string `toml:"log_level"`
		DataDir  string `toml:"data_dir"`
		Headless *bool  `toml:"headless"`
	} `toml:"server"`
	Timeline struct {
		HistorySize     int     `toml:"history_size"`
		PixelsPerSecond float64 `toml:"pixels_per_second"`
		MinScale        float64 `toml:"min_scale"`
		MaxScale        float64 `toml:"max_scale"`
		SnapThreshold   float64 `toml:"snap_threshold"`
	} `toml:"timeline"`
	Drag struct {
		EdgeThreshold        float64 `toml:"edge_threshold"`
		MaxScrollSpeed       float64 `toml:"max_scroll_speed"`
		TrackSwitchThreshold float64 `toml:"track_switch_threshold"`
	} `toml:"drag"`
	Media struct {
		FFprobe          string `toml:"ffprobe"`
		ProbeTimeout     int    `toml:"probe_timeout"`
		MetadataCacheTTL int    `toml:"metadata_cache_ttl"`
	} `toml:"media"`
}

// EnvConfig is the resolved configuration.
type EnvConfig struct {
	port                 int
	logLevel             string
	dataDir              string
	headless             bool
	historySize          int
	pixelsPerSecond      float64
	minScale             float64
	maxScale             float64
	snapThreshold        float64
	edgeThreshold        float64
	maxScrollSpeed       float64
	trackSwitchThreshold float64
	ffprobe              string
	probeTimeout         int
	metadataCacheTTL     int
	source               string
}

func defaults() *EnvConfig {
	return &EnvConfig{
		port:                 DefaultPort,
		logLevel:             DefaultLogLevel,
		dataDir:              defaultDataDir(),
		historySize:          DefaultHistorySize,
		pixelsPerSecond:      DefaultPixelsPerSecond,
		minScale:             DefaultMinScale,
		maxScale:             DefaultMaxScale,
		snapThreshold:        DefaultSnapThreshold,
		edgeThreshold:        DefaultEdgeThreshold,
		maxScrollSpeed:       DefaultMaxScrollSpeed,
		trackSwitchThreshold: DefaultTrackSwitchThreshold,
		probeTimeout:         DefaultProbeTimeout,
		metadataCacheTTL:     DefaultMetadataCacheTTL,
	}
}

// New loads the configuration from the file named by
// HEIMDEX_TIMELINE_CONFIG, or else from the XDG config directory when the
// file exists, then applies environment overrides.
func New() (*EnvConfig, error) {
	path := os.Getenv(EnvConfigFile)
	if path == "" {
		if found, err := xdg.SearchConfigFile(ConfigFile); err == nil {
			path = found
		}
	}
	return Load(path)
}

// Load is New with an explicit config file. An empty path skips the file.
func Load(path string) (*EnvConfig, error) {
	cfg := defaults()
	if path != "" {
		if err := cfg.applyFile(path); err != nil {
			return nil, err
		}
		cfg.source = path
	}
	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	if err := cfg.validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// DefaultPath is where a config file would be created.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(ConfigFile)
}

func (c *EnvConfig) applyFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read config file: %w", err)
	}
	var fc fileConfig
	if err := toml.Unmarshal(data, &fc); err != nil {
		return fmt.Errorf("failed to parse config file: %w", err)
	}

	setInt(&c.port, fc.Server.Port)
	setString(&c.logLevel, fc.Server.LogLevel)
	setString(&c.dataDir, fc.Server.DataDir)
	if fc.Server.Headless != nil {
		c.headless = *fc.Server.Headless
	}
	setInt(&c.historySize, fc.Timeline.HistorySize)
	setFloat(&c.pixelsPerSecond, fc.Timeline.PixelsPerSecond)
	setFloat(&c.minScale, fc.Timeline.MinScale)
	setFloat(&c.maxScale, fc.Timeline.MaxScale)
	setFloat(&c.snapThreshold, fc.Timeline.SnapThreshold)
	setFloat(&c.edgeThreshold, fc.Drag.EdgeThreshold)
	setFloat(&c.maxScrollSpeed, fc.Drag.MaxScrollSpeed)
	setFloat(&c.trackSwitchThreshold, fc.Drag.TrackSwitchThreshold)
	setString(&c.ffprobe, fc.Media.FFprobe)
	setInt(&c.probeTimeout, fc.Media.ProbeTimeout)
	setInt(&c.metadataCacheTTL, fc.Media.MetadataCacheTTL)
	return nil
}

func (c *EnvConfig) applyEnv() error {
	if p := os.Getenv(EnvPort); p != "" {
		port, err := strconv.Atoi(p)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvPort, err)
		}
		c.port = port
	}
	if ll := os.Getenv(EnvLogLevel); ll != "" {
		c.logLevel = ll
	}
	if dd := os.Getenv(EnvDataDir); dd != "" {
		c.dataDir = dd
	}
	if h := os.Getenv(EnvHeadless); h != "" {
		v, err := strconv.ParseBool(h)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHeadless, err)
		}
		c.headless = v
	}
	if hs := os.Getenv(EnvHistorySize); hs != "" {
		n, err := strconv.Atoi(hs)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", EnvHistorySize, err)
		}
		c.historySize = n
	}
	if fp := os.Getenv(EnvFFprobe); fp != "" {
		c.ffprobe = fp
	}

	floats := []struct {
		env string
		dst *float64
	}{
		{EnvPixelsPerSecond, &c.pixelsPerSecond},
		{EnvMinScale, &c.minScale},
		{EnvMaxScale, &c.maxScale},
		{EnvSnapThreshold, &c.snapThreshold},
		{EnvEdgeThreshold, &c.edgeThreshold},
		{EnvMaxScrollSpeed, &c.maxScrollSpeed},
		{EnvTrackSwitchThreshold, &c.trackSwitchThreshold},
	}
	for _, f := range floats {
		v := os.Getenv(f.env)
		if v == "" {
			continue
		}
		parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		if err != nil {
			return fmt.Errorf("invalid %s: %w", f.env, err)
		}
		*f.dst = parsed
	}
	return nil
}

func (c *EnvConfig) validate() error {
	var errs []error
	if c.port < 1 || c.port > 65535 {
		errs = append(errs, fmt.Errorf("invalid port %d: must be between 1 and 65535", c.port))
	}
	if c.historySize < 1 {
		errs = append(errs, fmt.Errorf("invalid history size %d: must be at least 1", c.historySize))
	}
	if c.pixelsPerSecond <= 0 {
		errs = append(errs, fmt.Errorf("invalid pixels per second %g: must be positive", c.pixelsPerSecond))
	}
	if c.minScale <= 0 || c.maxScale < c.minScale {
		errs = append(errs, fmt.Errorf("invalid scale range [%g, %g]", c.minScale, c.maxScale))
	}
	for name, v := range map[string]float64{
		"snap threshold":         c.snapThreshold,
		"edge threshold":         c.edgeThreshold,
		"max scroll speed":       c.maxScrollSpeed,
		"track switch threshold": c.trackSwitchThreshold,
	} {
		if v < 0 {
			errs = append(errs, fmt.Errorf("invalid %s %g: must not be negative", name, v))
		}
	}
	return errors.Join(errs...)
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

// Headless disables the system tray.
func (c *EnvConfig) Headless() bool {
	return c.headless
}

func (c *EnvConfig) HistorySize() int                { return c.historySize }
func (c *EnvConfig) PixelsPerSecond() float64        { return c.pixelsPerSecond }
func (c *EnvConfig) MinScale() float64               { return c.minScale }
func (c *EnvConfig) MaxScale() float64               { return c.maxScale }
func (c *EnvConfig) SnapThreshold() float64          { return c.snapThreshold }
func (c *EnvConfig) EdgeThreshold() float64          { return c.edgeThreshold }
func (c *EnvConfig) MaxScrollSpeed() float64         { return c.maxScrollSpeed }
func (c *EnvConfig) TrackSwitchThreshold() float64   { return c.trackSwitchThreshold }
func (c *EnvConfig) FFprobePath() string             { return c.ffprobe }
func (c *EnvConfig) ProbeTimeout() time.Duration     { return time.Duration(c.probeTimeout) * time.Second }
func (c *EnvConfig) MetadataCacheTTL() time.Duration { return time.Duration(c.metadataCacheTTL) * time.Second }

// Source is the config file that was read, "" when none was.
func (c *EnvConfig) Source() string {
	return c.source
}

func setInt(dst *int, v int) {
	if v != 0 {
		*dst = v
	}
}

func setFloat(dst *float64, v float64) {
	if v != 0 {
		*dst = v
	}
}

func setString(dst *string, v string) {
	if v != "" {
		*dst = v
	}
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
