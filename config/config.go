// Package config provides configuration management for the deskspin command.
// It supports loading configuration from YAML files, environment variables, and command-line flags.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/otherjamesbrown/deskspin/pkg/catalog"
	"github.com/otherjamesbrown/deskspin/pkg/db"
	"github.com/otherjamesbrown/deskspin/pkg/events"
	"github.com/otherjamesbrown/deskspin/pkg/logging"
	"github.com/otherjamesbrown/deskspin/pkg/pipeline"
	"github.com/otherjamesbrown/deskspin/pkg/server"
	"github.com/otherjamesbrown/deskspin/pkg/source"
)

// OutputFormat defines the supported output formats for command results.
type OutputFormat string

const (
	// OutputFormatText is human-readable plain text output.
	OutputFormatText OutputFormat = "text"
	// OutputFormatJSON is JSON-formatted output for machine processing.
	OutputFormatJSON OutputFormat = "json"
	// OutputFormatYAML is YAML-formatted output for machine processing.
	OutputFormatYAML OutputFormat = "yaml"
)

// Default configuration values.
const (
	DefaultOutputFormat = OutputFormatText
	DefaultConfigDir    = ".deskspin"
	DefaultConfigFile   = "config.yaml"
	DefaultServerAddr   = ":8080"
	DefaultScrapeDelay  = time.Second
	DefaultScrapeLimit  = 0
	EnvPrefix           = "DESKSPIN_"
)

// Duration is a time.Duration written as "1m30s" in YAML.
type Duration struct {
	time.Duration
}

// D wraps d.
func D(d time.Duration) Duration {
	return Duration{Duration: d}
}

// MarshalYAML implements yaml.Marshaler.
func (d Duration) MarshalYAML() (interface{}, error) {
	return d.String(), nil
}

// UnmarshalYAML implements yaml.Unmarshaler.
func (d *Duration) UnmarshalYAML(value *yaml.Node) error {
	parsed, err := time.ParseDuration(value.Value)
	if err != nil {
		return fmt.Errorf("line %d: invalid duration %q: %w", value.Line, value.Value, err)
	}
	d.Duration = parsed
	return nil
}

// DatabaseConfig holds catalog database settings. URL wins over the fields.
type DatabaseConfig struct {
	URL      string `yaml:"url,omitempty"`
	Host     string `yaml:"host"`
	Port     int    `yaml:"port"`
	Name     string `yaml:"name"`
	User     string `yaml:"user"`
	Password string `yaml:"password,omitempty"`
	SSLMode  string `yaml:"sslmode"`
	MaxConns int32  `yaml:"max_conns"`
	MinConns int32  `yaml:"min_conns"`
}

// RedisConfig holds event bus settings. An empty Addr disables events.
type RedisConfig struct {
	Addr          string `yaml:"addr,omitempty"`
	Password      string `yaml:"password,omitempty"`
	DB            int    `yaml:"db"`
	EventsChannel string `yaml:"events_channel"`
}

// Enabled reports whether a Redis address is configured.
func (r RedisConfig) Enabled() bool {
	return r.Addr != ""
}

// ServerConfig holds settings for deskspin serve.
type ServerConfig struct {
	Addr            string   `yaml:"addr"`
	CORSOrigins     []string `yaml:"cors_origins,omitempty"`
	RateLimit       int      `yaml:"rate_limit"`
	RateLimitWindow Duration `yaml:"rate_limit_window"`
	CacheTTL        Duration `yaml:"cache_ttl"`
}

// ScraperConfig holds settings for deskspin fetch.
type ScraperConfig struct {
	BaseURL         string   `yaml:"base_url,omitempty"`
	Delay           Duration `yaml:"delay"`
	Timeout         Duration `yaml:"timeout"`
	UserAgent       string   `yaml:"user_agent"`
	Limit           int      `yaml:"limit,omitempty"`
	BreakerFailures uint32   `yaml:"breaker_failures"`
}

// PipelineConfig holds settings for deskspin dedupe and import.
type PipelineConfig struct {
	RebuildCooccurrence  bool               `yaml:"rebuild_cooccurrence"`
	KeepUpstreamCategory bool               `yaml:"keep_upstream_category"`
	TopN                 int                `yaml:"top_n"`
	Categories           []catalog.Category `yaml:"categories,omitempty"`
}

// LogConfig holds logging settings.
type LogConfig struct {
	Level string `yaml:"level"`
	JSON  bool   `yaml:"json"`
	File  string `yaml:"file,omitempty"`
}

// Config holds the deskspin configuration.
type Config struct {
	Database     DatabaseConfig `yaml:"database"`
	Redis        RedisConfig    `yaml:"redis"`
	Server       ServerConfig   `yaml:"server"`
	Scraper      ScraperConfig  `yaml:"scraper"`
	Pipeline     PipelineConfig `yaml:"pipeline"`
	Log          LogConfig      `yaml:"log"`
	OutputFormat OutputFormat   `yaml:"output_format"`
}

// DefaultConfig returns a Config with default values.
func DefaultConfig() *Config {
	dbDefaults := db.DefaultConfig()
	srvDefaults := server.DefaultConfig()
	httpDefaults := source.DefaultHTTPConfig()

	return &Config{
		Database: DatabaseConfig{
			Host:     dbDefaults.Host,
			Port:     dbDefaults.Port,
			Name:     dbDefaults.Database,
			User:     dbDefaults.User,
			SSLMode:  dbDefaults.SSLMode,
			MaxConns: dbDefaults.MaxConns,
			MinConns: dbDefaults.MinConns,
		},
		Redis: RedisConfig{
			EventsChannel: events.DefaultChannel,
		},
		Server: ServerConfig{
			Addr:            DefaultServerAddr,
			RateLimit:       srvDefaults.RateLimit,
			RateLimitWindow: D(srvDefaults.RateLimitWindow),
			CacheTTL:        D(srvDefaults.CacheTTL),
		},
		Scraper: ScraperConfig{
			Delay:           D(DefaultScrapeDelay),
			Timeout:         D(httpDefaults.Timeout),
			UserAgent:       httpDefaults.UserAgent,
			Limit:           DefaultScrapeLimit,
			BreakerFailures: httpDefaults.BreakerFailures,
		},
		Pipeline: PipelineConfig{
			TopN: pipeline.DefaultTopN,
		},
		Log: LogConfig{
			Level: string(logging.LevelInfo),
		},
		OutputFormat: DefaultOutputFormat,
	}
}

// ConfigDir returns the configuration directory path.
// Uses $DESKSPIN_CONFIG_DIR if set, otherwise ~/.deskspin
func ConfigDir() (string, error) {
	if dir := os.Getenv(EnvPrefix + "CONFIG_DIR"); dir != "" {
		return dir, nil
	}

	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("getting home directory: %w", err)
	}

	return filepath.Join(home, DefaultConfigDir), nil
}

// ConfigPath returns the full path to the configuration file.
func ConfigPath() (string, error) {
	dir, err := ConfigDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, DefaultConfigFile), nil
}

// LoadConfig loads the configuration from the default file and environment.
// Configuration is loaded in this order (later sources override earlier):
// 1. Default values
// 2. Config file (~/.deskspin/config.yaml or $DESKSPIN_CONFIG_DIR/config.yaml)
// 3. Environment variables (DESKSPIN_*, plus DATABASE_URL)
func LoadConfig() (*Config, error) {
	configPath, err := ConfigPath()
	if err != nil {
		return nil, fmt.Errorf("getting config path: %w", err)
	}
	return LoadConfigFrom(configPath, false)
}

// LoadConfigFrom loads configuration from path. A missing file is an error
// only when required is set.
func LoadConfigFrom(path string, required bool) (*Config, error) {
	cfg := DefaultConfig()

	if _, err := os.Stat(path); err == nil {
		if err := loadFromFile(cfg, path); err != nil {
			return nil, fmt.Errorf("loading config file: %w", err)
		}
	} else if required {
		return nil, fmt.Errorf("config file %s: %w", path, err)
	}

	if err := loadFromEnv(cfg); err != nil {
		return nil, fmt.Errorf("reading environment: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("validating config: %w", err)
	}

	return cfg, nil
}

// loadFromFile overlays a YAML file onto cfg. Keys absent from the file keep
// their current values.
func loadFromFile(cfg *Config, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading config file: %w", err)
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return fmt.Errorf("parsing config file: %w", err)
	}
	return nil
}

// loadFromEnv overlays environment variables onto the configuration.
func loadFromEnv(cfg *Config) error {
	if v := os.Getenv("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := env("DATABASE_URL"); v != "" {
		cfg.Database.URL = v
	}
	if v := env("DB_HOST"); v != "" {
		cfg.Database.Host = v
	}
	if v := env("DB_PORT"); v != "" {
		port, err := strconv.Atoi(v)
		if err != nil {
			return fmt.Errorf("%sDB_PORT: %w", EnvPrefix, err)
		}
		cfg.Database.Port = port
	}
	if v := env("DB_NAME"); v != "" {
		cfg.Database.Name = v
	}
	if v := env("DB_USER"); v != "" {
		cfg.Database.User = v
	}
	if v := env("DB_PASSWORD"); v != "" {
		cfg.Database.Password = v
	}

	if v := env("REDIS_ADDR"); v != "" {
		cfg.Redis.Addr = v
	}
	if v := env("REDIS_PASSWORD"); v != "" {
		cfg.Redis.Password = v
	}
	if v := env("EVENTS_CHANNEL"); v != "" {
		cfg.Redis.EventsChannel = v
	}

	if v := env("SERVER_ADDR"); v != "" {
		cfg.Server.Addr = v
	}
	if v := env("CORS_ORIGINS"); v != "" {
		cfg.Server.CORSOrigins = splitList(v)
	}
	if v := env("CACHE_TTL"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sCACHE_TTL: %w", EnvPrefix, err)
		}
		cfg.Server.CacheTTL = D(d)
	}

	if v := env("SCRAPER_BASE_URL"); v != "" {
		cfg.Scraper.BaseURL = v
	}
	if v := env("SCRAPER_DELAY"); v != "" {
		d, err := time.ParseDuration(v)
		if err != nil {
			return fmt.Errorf("%sSCRAPER_DELAY: %w", EnvPrefix, err)
		}
		cfg.Scraper.Delay = D(d)
	}

	if v := env("REBUILD_COOCCURRENCE"); v != "" {
		cfg.Pipeline.RebuildCooccurrence = isTrue(v)
	}

	if v := env("LOG_LEVEL"); v != "" {
		cfg.Log.Level = v
	}
	if v := env("LOG_JSON"); v != "" {
		cfg.Log.JSON = isTrue(v)
	}
	if v := env("LOG_FILE"); v != "" {
		cfg.Log.File = v
	}

	if v := env("OUTPUT_FORMAT"); v != "" {
		cfg.OutputFormat = OutputFormat(v)
	}
	return nil
}

func env(name string) string {
	return os.Getenv(EnvPrefix + name)
}

func isTrue(v string) bool {
	return v == "true" || v == "1"
}

func splitList(v string) []string {
	var out []string
	for _, s := range strings.Split(v, ",") {
		if s = strings.TrimSpace(s); s != "" {
			out = append(out, s)
		}
	}
	return out
}

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	if !c.OutputFormat.IsValid() {
		return fmt.Errorf("invalid output_format: %q (must be text, json, or yaml)", c.OutputFormat)
	}
	if err := c.DBConfig().Validate(); err != nil {
		return fmt.Errorf("database: %w", err)
	}
	if c.Server.Addr == "" {
		return fmt.Errorf("server.addr is required")
	}
	if c.Server.RateLimit > 0 && c.Server.RateLimitWindow.Duration <= 0 {
		return fmt.Errorf("server.rate_limit_window must be positive when rate_limit is set")
	}
	if c.Server.CacheTTL.Duration < 0 {
		return fmt.Errorf("server.cache_ttl must not be negative")
	}
	if c.Scraper.Delay.Duration < 0 {
		return fmt.Errorf("scraper.delay must not be negative")
	}
	if c.Scraper.Timeout.Duration <= 0 {
		return fmt.Errorf("scraper.timeout must be positive")
	}
	if c.Scraper.Limit < 0 {
		return fmt.Errorf("scraper.limit must not be negative")
	}
	if c.Redis.Enabled() && c.Redis.EventsChannel == "" {
		return fmt.Errorf("redis.events_channel is required when redis.addr is set")
	}
	for _, cat := range c.Pipeline.Categories {
		if cat.Name == "" {
			return fmt.Errorf("pipeline.categories: every category needs a name")
		}
	}
	switch logging.Level(c.Log.Level) {
	case logging.LevelDebug, logging.LevelInfo, logging.LevelWarn, logging.LevelError:
	default:
		return fmt.Errorf("invalid log.level: %q", c.Log.Level)
	}
	return nil
}

// IsValid checks if the output format is valid.
func (f OutputFormat) IsValid() bool {
	switch f {
	case OutputFormatText, OutputFormatJSON, OutputFormatYAML:
		return true
	default:
		return false
	}
}

// String returns the string representation of the output format.
func (f OutputFormat) String() string {
	return string(f)
}

// DBConfig converts the database section for pkg/db.
func (c *Config) DBConfig() *db.Config {
	cfg := db.DefaultConfig()
	cfg.URL = c.Database.URL
	cfg.Host = c.Database.Host
	cfg.Port = c.Database.Port
	cfg.Database = c.Database.Name
	cfg.User = c.Database.User
	cfg.Password = c.Database.Password
	cfg.SSLMode = c.Database.SSLMode
	cfg.MaxConns = c.Database.MaxConns
	cfg.MinConns = c.Database.MinConns
	return cfg
}

// EventsConfig converts the redis section for pkg/events.
func (c *Config) EventsConfig() events.Config {
	return events.Config{
		Addr:     c.Redis.Addr,
		Password: c.Redis.Password,
		DB:       c.Redis.DB,
		Channel:  c.Redis.EventsChannel,
	}
}

// ServerConfig converts the server section for pkg/server.
func (c *Config) ServerConfig() server.Config {
	cfg := server.DefaultConfig()
	cfg.Addr = c.Server.Addr
	cfg.CORSOrigins = c.Server.CORSOrigins
	cfg.RateLimit = c.Server.RateLimit
	cfg.RateLimitWindow = c.Server.RateLimitWindow.Duration
	cfg.CacheTTL = c.Server.CacheTTL.Duration
	return cfg
}

// HTTPSourceConfig converts the scraper section for source.HTTPSource.
func (c *Config) HTTPSourceConfig() source.HTTPConfig {
	cfg := source.DefaultHTTPConfig()
	cfg.BaseURL = c.Scraper.BaseURL
	cfg.Timeout = c.Scraper.Timeout.Duration
	cfg.UserAgent = c.Scraper.UserAgent
	if c.Scraper.BreakerFailures > 0 {
		cfg.BreakerFailures = c.Scraper.BreakerFailures
	}
	return cfg
}

// CollectorConfig converts the scraper section for source.Collector.
func (c *Config) CollectorConfig() source.CollectorConfig {
	return source.CollectorConfig{
		Delay: c.Scraper.Delay.Duration,
		Limit: c.Scraper.Limit,
	}
}

// PipelineConfig converts the pipeline section for pkg/pipeline.
func (c *Config) PipelineConfig() pipeline.Config {
	return pipeline.Config{
		RebuildCooccurrence:  c.Pipeline.RebuildCooccurrence,
		KeepUpstreamCategory: c.Pipeline.KeepUpstreamCategory,
		Categories:           c.Pipeline.Categories,
		TopN:                 c.Pipeline.TopN,
	}
}

// Categories returns the configured spin slots, or the defaults.
func (c *Config) Categories() []catalog.Category {
	if len(c.Pipeline.Categories) > 0 {
		return c.Pipeline.Categories
	}
	return catalog.DefaultCategories()
}

// LoggingConfig converts the log section for pkg/logging.
func (c *Config) LoggingConfig() *logging.Config {
	cfg := logging.DefaultConfig()
	cfg.Level = logging.ParseLevel(c.Log.Level)
	cfg.JSONFormat = c.Log.JSON
	if c.Log.File != "" {
		path, err := ExpandPath(c.Log.File)
		if err == nil {
			cfg.FilePath = path
		}
	}
	return cfg
}

// SaveConfig writes cfg to the default config file.
func SaveConfig(cfg *Config) error {
	configDir, err := ConfigDir()
	if err != nil {
		return fmt.Errorf("getting config directory: %w", err)
	}

	// Ensure config directory exists.
	if err := os.MkdirAll(configDir, 0700); err != nil {
		return fmt.Errorf("creating config directory: %w", err)
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshaling config: %w", err)
	}

	configPath := filepath.Join(configDir, DefaultConfigFile)
	if err := os.WriteFile(configPath, data, 0600); err != nil {
		return fmt.Errorf("writing config file: %w", err)
	}

	return nil
}

// ExpandPath expands ~ to the user's home directory.
func ExpandPath(path string) (string, error) {
	if path == "" {
		return "", nil
	}
	if path[0] == '~' {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("getting home directory: %w", err)
		}
		return filepath.Join(home, path[1:]), nil
	}
	return path, nil
}
