package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/mcuadros/go-defaults"
	"github.com/sirupsen/logrus"
	"github.com/srg/senspoll/internal/central"
	"gopkg.in/yaml.v3"
)

// ErrInvalidConfig wraps every validation failure
var ErrInvalidConfig = errors.New("invalid configuration")

// Output formats
const (
	FormatText = "text"
	FormatJSON = "json"
)

// Config holds application configuration
type Config struct {
	LogLevel        string        `yaml:"log_level" default:"info"`
	PollInterval    time.Duration `yaml:"poll_interval" default:"500ms"`
	ReadTimeout     time.Duration `yaml:"read_timeout"`
	ConnectTimeout  time.Duration `yaml:"connect_timeout" default:"30s"`
	StopScanTimeout time.Duration `yaml:"stop_scan_timeout" default:"2s"`
	HistorySize     uint32        `yaml:"history_size" default:"256"`
	OutputFormat    string        `yaml:"output_format" default:"text"`
	Peers           []PeerConfig  `yaml:"peers"`
}

// PeerConfig describes one allowed peripheral
type PeerConfig struct {
	Role            string                 `yaml:"role"`
	Name            string                 `yaml:"name,omitempty"`
	Address         string                 `yaml:"address,omitempty"`
	Service         string                 `yaml:"service"`
	Characteristics []CharacteristicConfig `yaml:"characteristics"`
}

// CharacteristicConfig binds a kind to a characteristic UUID; list order is poll order
type CharacteristicConfig struct {
	Kind string `yaml:"kind"`
	UUID string `yaml:"uuid"`
}

// EnvironmentalSensor and RGBSensor are the stock peers. They match on the
// advertised name only; platform addresses differ (CoreBluetooth reports UUIDs).
var (
	EnvironmentalSensor = PeerConfig{
		Role:    "env",
		Name:    "EnvironmentalSensor",
		Service: "181A",
		Characteristics: []CharacteristicConfig{
			{Kind: "temperature", UUID: "2A6E"},
			{Kind: "humidity", UUID: "2A6F"},
			{Kind: "pressure", UUID: "2A6D"},
		},
	}
	RGBSensor = PeerConfig{
		Role:    "rgb",
		Name:    "RGBSensor",
		Service: "12345678-1234-5678-1234-56789abcdef0",
		Characteristics: []CharacteristicConfig{
			{Kind: "red", UUID: "12345678-1234-5678-1234-56789abcdef1"},
			{Kind: "green", UUID: "12345678-1234-5678-1234-56789abcdef2"},
			{Kind: "blue", UUID: "12345678-1234-5678-1234-56789abcdef3"},
		},
	}
)

// DefaultConfig returns default values with the stock peers
func DefaultConfig() *Config {
	cfg := &Config{}
	defaults.SetDefaults(cfg)
	cfg.Peers = []PeerConfig{EnvironmentalSensor, RGBSensor}
	return cfg
}

// Load reads a YAML file on top of the defaults. A file that lists no
// peers keeps the stock ones.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	cfg, err := Parse(data)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return cfg, nil
}

// Parse decodes YAML on top of the defaults and validates the result.
func Parse(data []byte) (*Config, error) {
	cfg := &Config{}
	defaults.SetDefaults(cfg)

	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidConfig, err)
	}
	if len(cfg.Peers) == 0 {
		cfg.Peers = []PeerConfig{EnvironmentalSensor, RGBSensor}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate reports every problem found, joined into one error.
func (c *Config) Validate() error {
	var errs []error
	add := func(format string, args ...any) {
		errs = append(errs, fmt.Errorf("%w: "+format, append([]any{ErrInvalidConfig}, args...)...))
	}

	if _, err := logrus.ParseLevel(c.LogLevel); err != nil {
		add("log_level %q", c.LogLevel)
	}
	if c.PollInterval <= 0 {
		add("poll_interval must be positive")
	}
	if c.ReadTimeout < 0 {
		add("read_timeout must not be negative")
	}
	if c.ConnectTimeout <= 0 {
		add("connect_timeout must be positive")
	}
	if c.HistorySize == 0 {
		add("history_size must be positive")
	}
	if c.OutputFormat != FormatText && c.OutputFormat != FormatJSON {
		add("output_format %q (want %s or %s)", c.OutputFormat, FormatText, FormatJSON)
	}
	if len(c.Peers) == 0 {
		add("no peers configured")
	}

	roles := make(map[string]struct{}, len(c.Peers))
	for i, p := range c.Peers {
		where := fmt.Sprintf("peers[%d]", i)
		if p.Role == "" {
			add("%s: role is required", where)
		} else if _, dup := roles[p.Role]; dup {
			add("%s: duplicate role %q", where, p.Role)
		}
		roles[p.Role] = struct{}{}

		if p.Name == "" && p.Address == "" {
			add("%s: name or address is required", where)
		}
		if central.NormalizeUUID(p.Service) == "" {
			add("%s: invalid service uuid %q", where, p.Service)
		}
		if len(p.Characteristics) == 0 {
			add("%s: no characteristics", where)
		}
		kinds := make(map[central.Kind]struct{}, len(p.Characteristics))
		for j, ch := range p.Characteristics {
			k, err := central.ParseKind(ch.Kind)
			if err != nil {
				add("%s.characteristics[%d]: %v", where, j, err)
				continue
			}
			if _, dup := kinds[k]; dup {
				add("%s.characteristics[%d]: duplicate kind %s", where, j, k)
			}
			kinds[k] = struct{}{}
			if central.NormalizeUUID(ch.UUID) == "" {
				add("%s.characteristics[%d]: invalid uuid %q", where, j, ch.UUID)
			}
		}
	}
	return errors.Join(errs...)
}

// PeerSpecs converts the peer list for the central. The configuration must be valid.
func (c *Config) PeerSpecs() ([]*central.PeerSpec, error) {
	if err := c.Validate(); err != nil {
		return nil, err
	}
	specs := make([]*central.PeerSpec, 0, len(c.Peers))
	for _, p := range c.Peers {
		spec := central.NewPeerSpec(central.Role(p.Role), p.Name, p.Service)
		if p.Address != "" {
			spec.WithAddress(central.Address(strings.TrimSpace(p.Address)))
		}
		for _, ch := range p.Characteristics {
			k, _ := central.ParseKind(ch.Kind)
			spec.WithCharacteristic(k, ch.UUID)
		}
		specs = append(specs, spec)
	}
	return specs, nil
}

// ConnectParams returns the link parameters used for every connect.
func (c *Config) ConnectParams() central.ConnectParams {
	return central.ConnectParams{Timeout: c.ConnectTimeout}
}

// Level returns the parsed log level, info if unparsable.
func (c *Config) Level() logrus.Level {
	level, err := logrus.ParseLevel(c.LogLevel)
	if err != nil {
		return logrus.InfoLevel
	}
	return level
}

// NewLogger creates a configured logger instance
func (c *Config) NewLogger() *logrus.Logger {
	logger := logrus.New()
	logger.SetLevel(c.Level())
	logger.SetFormatter(&logrus.TextFormatter{
		FullTimestamp:   true,
		TimestampFormat: time.RFC3339,
	})
	return logger
}
