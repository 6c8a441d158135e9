// config/config.go
//
// Runtime configuration for the roster server, read from a YAML file.
// Every key is optional; missing keys keep the defaults below. Command-line
// flags in cmd/server override the file.

package config

import (
	"fmt"
	"io"
	"log/slog"
	"os"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const DefaultYAML = `# roster server configuration
server:
  port: 8080
  cors_origins: ["*"]

store:
  driver: sqlite        # sqlite | memory
  path: ./data/roster.db

scheduler:
  enabled: false
  interval: 1h
  mode: balance         # balance | seed
  tenants: [default]

report:
  group_order: [operator, technician]

equipment:
  # keep claims across the three shifts of a week
  shared_pool: false

nats:
  url: ""               # empty disables event publishing
  subject_prefix: roster

metrics:
  enabled: true
  namespace: roster

log:
  level: info           # debug | info | warn | error
  format: text          # text | json
`

type ServerConfig struct {
	Port        int      `yaml:"port"`
	CORSOrigins []string `yaml:"cors_origins"`
}

type StoreConfig struct {
	Driver string `yaml:"driver"`
	Path   string `yaml:"path"`
}

// SchedulerConfig controls automatic generation of next week's plan.
type SchedulerConfig struct {
	Enabled  bool          `yaml:"enabled"`
	Interval time.Duration `yaml:"interval"`
	Mode     string        `yaml:"mode"`
	Tenants  []string      `yaml:"tenants"`
}

type ReportConfig struct {
	GroupOrder []string `yaml:"group_order"`
}

type EquipmentConfig struct {
	SharedPool bool `yaml:"shared_pool"`
}

type NATSConfig struct {
	URL           string `yaml:"url"`
	SubjectPrefix string `yaml:"subject_prefix"`
}

type MetricsConfig struct {
	Enabled   bool   `yaml:"enabled"`
	Namespace string `yaml:"namespace"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// Config models the YAML file.
type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Store     StoreConfig     `yaml:"store"`
	Scheduler SchedulerConfig `yaml:"scheduler"`
	Report    ReportConfig    `yaml:"report"`
	Equipment EquipmentConfig `yaml:"equipment"`
	NATS      NATSConfig      `yaml:"nats"`
	Metrics   MetricsConfig   `yaml:"metrics"`
	Log       LogConfig       `yaml:"log"`
}

// Default returns the configuration used when no file is given.
func Default() *Config {
	return &Config{
		Server:    ServerConfig{Port: 8080, CORSOrigins: []string{"*"}},
		Store:     StoreConfig{Driver: "sqlite", Path: "./data/roster.db"},
		Scheduler: SchedulerConfig{Interval: time.Hour, Mode: "balance", Tenants: []string{"default"}},
		Report:    ReportConfig{GroupOrder: []string{"operator", "technician"}},
		NATS:      NATSConfig{SubjectPrefix: "roster"},
		Metrics:   MetricsConfig{Enabled: true, Namespace: "roster"},
		Log:       LogConfig{Level: "info", Format: "text"},
	}
}

// Load reads path over the defaults. An empty path returns Default().
func Load(path string) (*Config, error) {
	cfg := Default()
	if path == "" {
		return cfg, nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("config: read %s: %w", path, err)
	}
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("config: %s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML over the defaults.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := cfg.parse(data); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return cfg, nil
}

func (c *Config) parse(data []byte) error {
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse: %w", err)
	}
	c.normalize()
	return c.Validate()
}

func (c *Config) normalize() {
	c.Store.Driver = strings.ToLower(strings.TrimSpace(c.Store.Driver))
	c.Scheduler.Mode = strings.ToLower(strings.TrimSpace(c.Scheduler.Mode))
	c.Log.Level = strings.ToLower(strings.TrimSpace(c.Log.Level))
	c.Log.Format = strings.ToLower(strings.TrimSpace(c.Log.Format))
	if c.Scheduler.Mode == "" {
		c.Scheduler.Mode = "balance"
	}
	if c.NATS.SubjectPrefix == "" {
		c.NATS.SubjectPrefix = "roster"
	}
	c.Scheduler.Tenants = slices.DeleteFunc(c.Scheduler.Tenants, func(s string) bool {
		return strings.TrimSpace(s) == ""
	})
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	if c.Server.Port <= 0 || c.Server.Port > 65535 {
		return fmt.Errorf("server.port %d out of range", c.Server.Port)
	}
	switch c.Store.Driver {
	case "sqlite":
		if c.Store.Path == "" {
			return fmt.Errorf("store.path is required for the sqlite driver")
		}
	case "memory":
	default:
		return fmt.Errorf("store.driver %q must be sqlite or memory", c.Store.Driver)
	}
	switch c.Scheduler.Mode {
	case "balance", "seed":
	default:
		return fmt.Errorf("scheduler.mode %q must be balance or seed", c.Scheduler.Mode)
	}
	if c.Scheduler.Enabled {
		if c.Scheduler.Interval <= 0 {
			return fmt.Errorf("scheduler.interval must be positive")
		}
		if len(c.Scheduler.Tenants) == 0 {
			return fmt.Errorf("scheduler.tenants must name at least one tenant")
		}
	}
	if _, err := c.Log.level(); err != nil {
		return err
	}
	switch c.Log.Format {
	case "text", "json":
	default:
		return fmt.Errorf("log.format %q must be text or json", c.Log.Format)
	}
	return nil
}

func (l LogConfig) level() (slog.Level, error) {
	var lvl slog.Level
	if err := lvl.UnmarshalText([]byte(l.Level)); err != nil {
		return 0, fmt.Errorf("log.level: %w", err)
	}
	return lvl, nil
}

// NewLogger builds the process logger writing to w.
func (l LogConfig) NewLogger(w io.Writer) *slog.Logger {
	lvl, err := l.level()
	if err != nil {
		lvl = slog.LevelInfo
	}
	opts := &slog.HandlerOptions{Level: lvl}
	if l.Format == "json" {
		return slog.New(slog.NewJSONHandler(w, opts))
	}
	return slog.New(slog.NewTextHandler(w, opts))
}
