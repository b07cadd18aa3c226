package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/srg/senspoll/internal/central"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultConfig(t *testing.T) {
	cfg := DefaultConfig()

	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, 500*time.Millisecond, cfg.PollInterval)
	assert.Equal(t, time.Duration(0), cfg.ReadTimeout, "read timeout MUST be off by default")
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout)
	assert.Equal(t, 2*time.Second, cfg.StopScanTimeout)
	assert.Equal(t, uint32(256), cfg.HistorySize)
	assert.Equal(t, FormatText, cfg.OutputFormat)
	require.Len(t, cfg.Peers, 2)
	assert.NoError(t, cfg.Validate())
}

func TestDefaultPeerSpecs(t *testing.T) {
	specs, err := DefaultConfig().PeerSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 2)

	env := specs[0]
	assert.Equal(t, central.Role("env"), env.Role)
	assert.Equal(t, "EnvironmentalSensor", env.Name)
	assert.Equal(t, central.UUID("181a"), env.Service)
	assert.Equal(t, []central.Kind{central.Temperature, central.Humidity, central.Pressure}, env.Kinds())

	rgb := specs[1]
	assert.Equal(t, central.UUID("1234567812345678123456789abcdef0"), rgb.Service)
	assert.Equal(t, []central.Kind{central.Red, central.Green, central.Blue}, rgb.Kinds())
	k, ok := rgb.KindOf("12345678-1234-5678-1234-56789abcdef2")
	assert.True(t, ok)
	assert.Equal(t, central.Green, k)
}

func TestParse(t *testing.T) {
	cfg, err := Parse([]byte(`
log_level: debug
poll_interval: 1s
read_timeout: 3s
output_format: json
peers:
  - role: thermo
    address: AA:BB:CC:DD:EE:FF
    service: "181A"
    characteristics:
      - kind: pressure
        uuid: "2A6D"
      - kind: temperature
        uuid: "2A6E"
`))
	require.NoError(t, err)

	assert.Equal(t, logrus.DebugLevel, cfg.Level())
	assert.Equal(t, time.Second, cfg.PollInterval)
	assert.Equal(t, 3*time.Second, cfg.ReadTimeout)
	assert.Equal(t, 30*time.Second, cfg.ConnectTimeout, "unset fields MUST keep defaults")
	assert.Equal(t, FormatJSON, cfg.OutputFormat)

	specs, err := cfg.PeerSpecs()
	require.NoError(t, err)
	require.Len(t, specs, 1)
	assert.Equal(t, central.Address("AA:BB:CC:DD:EE:FF"), specs[0].Address)
	assert.Equal(t, []central.Kind{central.Pressure, central.Temperature}, specs[0].Kinds(), "YAML order MUST be poll order")
	assert.Equal(t, 30*time.Second, cfg.ConnectParams().Timeout)
}

func TestParseWithoutPeersKeepsStock(t *testing.T) {
	cfg, err := Parse([]byte("poll_interval: 250ms\n"))
	require.NoError(t, err)
	assert.Len(t, cfg.Peers, 2)
	assert.Equal(t, 250*time.Millisecond, cfg.PollInterval)
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(c *Config)
		want   string
	}{
		{name: "bad log level", mutate: func(c *Config) { c.LogLevel = "loud" }, want: "log_level"},
		{name: "zero interval", mutate: func(c *Config) { c.PollInterval = 0 }, want: "poll_interval"},
		{name: "negative read timeout", mutate: func(c *Config) { c.ReadTimeout = -time.Second }, want: "read_timeout"},
		{name: "zero history", mutate: func(c *Config) { c.HistorySize = 0 }, want: "history_size"},
		{name: "unknown format", mutate: func(c *Config) { c.OutputFormat = "csv" }, want: "output_format"},
		{name: "no peers", mutate: func(c *Config) { c.Peers = nil }, want: "no peers"},
		{name: "duplicate role", mutate: func(c *Config) { c.Peers[1].Role = "env" }, want: "duplicate role"},
		{name: "no name or address", mutate: func(c *Config) { c.Peers[0].Name = "" }, want: "name or address"},
		{name: "bad service", mutate: func(c *Config) { c.Peers[0].Service = "xyz" }, want: "service uuid"},
		{name: "unknown kind", mutate: func(c *Config) { c.Peers[0].Characteristics[0].Kind = "voltage" }, want: "voltage"},
		{name: "duplicate kind", mutate: func(c *Config) { c.Peers[0].Characteristics[1].Kind = "temperature" }, want: "duplicate kind"},
		{name: "bad characteristic uuid", mutate: func(c *Config) { c.Peers[1].Characteristics[2].UUID = "123" }, want: "invalid uuid"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := DefaultConfig()
			cfg.Peers = clonePeers(cfg.Peers)
			tt.mutate(cfg)

			err := cfg.Validate()
			require.Error(t, err)
			assert.ErrorIs(t, err, ErrInvalidConfig)
			assert.Contains(t, err.Error(), tt.want)

			_, err = cfg.PeerSpecs()
			assert.Error(t, err, "invalid config MUST NOT produce peer specs")
		})
	}
}

func TestParseRejectsMalformedYAML(t *testing.T) {
	_, err := Parse([]byte("peers: [unterminated"))
	assert.ErrorIs(t, err, ErrInvalidConfig)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "senspoll.yaml")
	require.NoError(t, os.WriteFile(path, []byte("history_size: 16\n"), 0o600))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, uint32(16), cfg.HistorySize)

	_, err = Load(filepath.Join(t.TempDir(), "missing.yaml"))
	assert.Error(t, err)
}

func TestExampleConfigLoads(t *testing.T) {
	cfg, err := Load(filepath.Join("..", "..", "senspoll.example.yaml"))
	require.NoError(t, err)
	assert.Len(t, cfg.Peers, 2)
}

func TestConfig_NewLogger(t *testing.T) {
	for _, level := range []string{"debug", "info", "warn", "error"} {
		t.Run(level, func(t *testing.T) {
			cfg := &Config{LogLevel: level}
			logger := cfg.NewLogger()

			want, _ := logrus.ParseLevel(level)
			assert.Equal(t, want, logger.GetLevel())

			formatter, ok := logger.Formatter.(*logrus.TextFormatter)
			require.True(t, ok)
			assert.True(t, formatter.FullTimestamp)
			assert.Equal(t, time.RFC3339, formatter.TimestampFormat)
		})
	}
}

// clonePeers copies peers deeply enough that test mutations do not leak into the stock values
func clonePeers(in []PeerConfig) []PeerConfig {
	out := make([]PeerConfig, len(in))
	for i, p := range in {
		p.Characteristics = append([]CharacteristicConfig(nil), p.Characteristics...)
		out[i] = p
	}
	return out
}
