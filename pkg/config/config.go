package config

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/virel-protocol/virel-go/pkg/provisional"
	"github.com/virel-protocol/virel-go/pkg/transport"
)

// Defaults.
const (
	// DefaultTickInterval is the default provisional tick period.
	DefaultTickInterval = time.Second
)

// Config is the virel-gated configuration.
type Config struct {
	// Domains is the fixed set of participating domain identifiers.
	Domains []string `yaml:"domains"`

	// Listen is the TCP listen address (default ":8473").
	Listen string `yaml:"listen"`

	// EpochMax and LamportMax bound the protocol counters. Zero selects
	// the built-in defaults.
	EpochMax   uint64 `yaml:"epoch_max"`
	LamportMax uint64 `yaml:"lamport_max"`

	// Budget is the provisional countdown budget in ticks (default 10).
	Budget int `yaml:"budget"`

	// TickInterval is the wall-clock period between countdown ticks
	// (default 1s).
	TickInterval time.Duration `yaml:"tick_interval"`

	// InitialMode is the starting mode when no persisted state exists:
	// "OPERATIONAL" or "SAFE_ON" (default OPERATIONAL).
	InitialMode string `yaml:"initial_mode"`

	// StateFile persists counters and mode across restarts. Empty
	// disables persistence.
	StateFile string `yaml:"state_file"`

	// AuditLog is the CBOR audit log path. Empty disables the file log.
	AuditLog string `yaml:"audit_log"`

	// Announce enables mDNS announcement of the gate service.
	Announce bool `yaml:"announce"`

	// TLS settings. Both empty means plain TCP.
	TLSCert string `yaml:"tls_cert"`
	TLSKey  string `yaml:"tls_key"`
}

// Parse parses a configuration from YAML bytes and applies defaults.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parsing config: %w", err)
	}
	cfg.applyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// Load loads and parses a configuration file.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading %s: %w", path, err)
	}
	return Parse(data)
}

func (c *Config) applyDefaults() {
	if c.Listen == "" {
		c.Listen = fmt.Sprintf(":%d", transport.DefaultPort)
	}
	if c.Budget == 0 {
		c.Budget = provisional.DefaultBudget
	}
	if c.TickInterval == 0 {
		c.TickInterval = DefaultTickInterval
	}
	if c.InitialMode == "" {
		c.InitialMode = "OPERATIONAL"
	}
}

// Validate checks the configuration for consistency.
func (c *Config) Validate() error {
	if len(c.Domains) == 0 {
		return fmt.Errorf("config: at least one domain is required")
	}
	seen := make(map[string]struct{}, len(c.Domains))
	for _, d := range c.Domains {
		if d == "" {
			return fmt.Errorf("config: empty domain identifier")
		}
		if _, dup := seen[d]; dup {
			return fmt.Errorf("config: duplicate domain %q", d)
		}
		seen[d] = struct{}{}
	}

	if c.Budget < 0 {
		return fmt.Errorf("config: budget must be positive, got %d", c.Budget)
	}
	if c.TickInterval < 0 {
		return fmt.Errorf("config: tick_interval must be positive, got %v", c.TickInterval)
	}
	if c.InitialMode != "OPERATIONAL" && c.InitialMode != "SAFE_ON" {
		return fmt.Errorf("config: initial_mode must be OPERATIONAL or SAFE_ON, got %q", c.InitialMode)
	}
	if (c.TLSCert == "") != (c.TLSKey == "") {
		return fmt.Errorf("config: tls_cert and tls_key must be set together")
	}
	return nil
}
