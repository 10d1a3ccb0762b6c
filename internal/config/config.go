// Package config provides configuration management for the collectors.
//
// Values come from Default, optionally overlaid by a YAML file, then by command-line
// flags. Validate is run once all layers are applied.
package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DateLayout is the layout of news.start_date
const DateLayout = "2006-01-02"

// Configuration validation errors.
var (
	ErrMissingDataDir      = errors.New("data_dir is required")
	ErrInvalidLogLevel     = errors.New("logging.level must be one of: debug, info, warn, error")
	ErrInvalidTimeout      = errors.New("http.timeout_sec must be at least 1")
	ErrMissingURLTemplate  = errors.New("news.url_template is required")
	ErrMissingPlaceholder  = errors.New("news.url_template must contain {date}")
	ErrInvalidStartDate    = errors.New("news.start_date must be YYYY-MM-DD")
	ErrInvalidDays         = errors.New("news.days must be non-negative")
	ErrMissingOutput       = errors.New("output file name is required")
	ErrMissingRoadsURL     = errors.New("roads.url is required")
	ErrMissingAddress      = errors.New("osm.address is required")
	ErrInvalidDist         = errors.New("osm.dist must be positive")
	ErrInvalidNetworkType  = errors.New("osm.network_type must be one of: drive, drive_service, walk, all")
	ErrMissingOSMEndpoints = errors.New("osm.nominatim_url and osm.overpass_url are required")
)

// Config represents the complete collector configuration.
type Config struct {
	DataDir string        `yaml:"data_dir"`
	Logging LoggingConfig `yaml:"logging"`
	HTTP    HTTPConfig    `yaml:"http"`
	News    NewsConfig    `yaml:"news"`
	Roads   RoadsConfig   `yaml:"roads"`
	OSM     OSMConfig     `yaml:"osm"`
}

// LoggingConfig defines logging behavior.
type LoggingConfig struct {
	Level string `yaml:"level"`
}

// HTTPConfig is shared by every outbound client.
type HTTPConfig struct {
	UserAgent  string `yaml:"user_agent"`
	TimeoutSec int    `yaml:"timeout_sec"`
}

// NewsConfig controls the traffic news crawl.
type NewsConfig struct {
	URLTemplate string `yaml:"url_template"`
	StartDate   string `yaml:"start_date"`
	Days        int    `yaml:"days"`
	Output      string `yaml:"output"`
}

// RoadsConfig controls the road names collector.
type RoadsConfig struct {
	URL    string `yaml:"url"`
	Output string `yaml:"output"`
}

// OSMConfig controls the road network collector. FigureOutput is relative to the working
// directory; an empty value disables the network figure.
type OSMConfig struct {
	Address      string  `yaml:"address"`
	Dist         float64 `yaml:"dist"`
	NetworkType  string  `yaml:"network_type"`
	NominatimURL string  `yaml:"nominatim_url"`
	OverpassURL  string  `yaml:"overpass_url"`
	NodesOutput  string  `yaml:"nodes_output"`
	EdgesOutput  string  `yaml:"edges_output"`
	FigureOutput string  `yaml:"figure_output"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		DataDir: "datasets/raw",
		Logging: LoggingConfig{
			Level: "info",
		},
		HTTP: HTTPConfig{
			UserAgent:  "hktraffic/1.0 (github.com/pfrederiksen/hktraffic)",
			TimeoutSec: 30,
		},
		News: NewsConfig{
			URLTemplate: "https://programme.rthk.hk/channel/radio/trafficnews/index.php?d={date}",
			StartDate:   "2010-01-01",
			Days:        3690,
			Output:      "traffic_news_info.csv",
		},
		Roads: RoadsConfig{
			URL:    "https://www.overview.hk/street/ssp.php",
			Output: "roads_info.csv",
		},
		OSM: OSMConfig{
			Address:      "Nam Cheong Street",
			Dist:         1000,
			NetworkType:  "drive_service",
			NominatimURL: "https://nominatim.openstreetmap.org",
			OverpassURL:  "https://overpass-api.de/api/interpreter",
			NodesOutput:  "osm_nodes_info.csv",
			EdgesOutput:  "osm_edges_info.csv",
			FigureOutput: "reports/figures/osm_network.png",
		},
	}
}

// LoadConfig loads configuration from a YAML file on top of Default.
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}

	return cfg, nil
}

// SaveConfig saves configuration to a YAML file.
func (c *Config) SaveConfig(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config file: %w", err)
	}

	return nil
}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if c.DataDir == "" {
		return ErrMissingDataDir
	}

	validLevels := map[string]bool{"debug": true, "info": true, "warn": true, "error": true}
	if !validLevels[strings.ToLower(c.Logging.Level)] {
		return ErrInvalidLogLevel
	}

	if c.HTTP.TimeoutSec < 1 {
		return ErrInvalidTimeout
	}

	if c.News.URLTemplate == "" {
		return ErrMissingURLTemplate
	}
	if !strings.Contains(c.News.URLTemplate, "{date}") {
		return ErrMissingPlaceholder
	}
	if _, err := c.News.Start(); err != nil {
		return err
	}
	if c.News.Days < 0 {
		return fmt.Errorf("%w: %d", ErrInvalidDays, c.News.Days)
	}
	if c.News.Output == "" {
		return fmt.Errorf("%w: news.output", ErrMissingOutput)
	}

	if c.Roads.URL == "" {
		return ErrMissingRoadsURL
	}
	if c.Roads.Output == "" {
		return fmt.Errorf("%w: roads.output", ErrMissingOutput)
	}

	if strings.TrimSpace(c.OSM.Address) == "" {
		return ErrMissingAddress
	}
	if c.OSM.Dist <= 0 {
		return ErrInvalidDist
	}
	switch c.OSM.NetworkType {
	case "drive", "drive_service", "walk", "all":
	default:
		return fmt.Errorf("%w: %q", ErrInvalidNetworkType, c.OSM.NetworkType)
	}
	if c.OSM.NominatimURL == "" || c.OSM.OverpassURL == "" {
		return ErrMissingOSMEndpoints
	}
	if c.OSM.NodesOutput == "" {
		return fmt.Errorf("%w: osm.nodes_output", ErrMissingOutput)
	}
	if c.OSM.EdgesOutput == "" {
		return fmt.Errorf("%w: osm.edges_output", ErrMissingOutput)
	}

	return nil
}

// Start parses StartDate as a UTC calendar date.
func (n NewsConfig) Start() (time.Time, error) {
	t, err := time.Parse(DateLayout, n.StartDate)
	if err != nil {
		return time.Time{}, fmt.Errorf("%w: %q", ErrInvalidStartDate, n.StartDate)
	}
	return t, nil
}

// Timeout returns the HTTP timeout duration.
func (h HTTPConfig) Timeout() time.Duration {
	return time.Duration(h.TimeoutSec) * time.Second
}

// String returns a string representation of the config.
func (c *Config) String() string {
	return fmt.Sprintf(
		"Config{DataDir: %s, News: %s+%dd, Roads: %s, OSM: %q}",
		c.DataDir,
		c.News.StartDate,
		c.News.Days,
		c.Roads.URL,
		c.OSM.Address,
	)
}
