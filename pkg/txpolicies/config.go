package txpolicies

import (
	"fmt"
	"os"
	"strings"

	"github.com/yourusername/txpolicies/core"
	"gopkg.in/yaml.v3"
)

// DefaultDirective is the first token of the directive that sets the default
const DefaultDirective = "DEFAULT"

// Config holds named policy definitions and the directives that place them
// in the table.
type Config struct {
	// Policies maps a reference name to its definition
	Policies map[string]PolicyConfig `yaml:"policies"`

	// Table holds two-token directives: "DEFAULT <ref>" or "<address> <ref>"
	Table []string `yaml:"table"`
}

// PolicyConfig defines one transmission policy.
type PolicyConfig struct {
	// Rates is the ordered list of rate identifiers
	Rates []int `yaml:"rates"`

	// NoAck suppresses acknowledgments
	NoAck bool `yaml:"no_ack,omitempty"`

	// RateSelection is "br" (default) or "pr"
	RateSelection string `yaml:"rate_selection,omitempty"`

	// RTSCTS is the RTS/CTS threshold in bytes (default: 2436)
	RTSCTS *int `yaml:"rts_cts,omitempty"`
}

// PolicyResolver turns a policy reference from a directive into a record.
type PolicyResolver interface {
	ResolvePolicy(name string) (core.Policy, error)
}

// Seed is the initial table content produced from directives.
type Seed struct {
	Default *core.Policy
	Entries map[core.HardwareAddress]core.Policy
}

// NewConfig creates an empty Config.
func NewConfig() *Config {
	return &Config{
		Policies: make(map[string]PolicyConfig),
	}
}

// LoadConfigFromFile loads configuration from a YAML file.
func LoadConfigFromFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to read config file: %v", ErrInvalidConfig, err)
	}
	return ParseConfig(data)
}

// ParseConfig parses and validates YAML configuration.
func ParseConfig(data []byte) (*Config, error) {
	var config Config
	if err := yaml.Unmarshal(data, &config); err != nil {
		return nil, fmt.Errorf("%w: failed to parse YAML: %v", ErrInvalidConfig, err)
	}

	if config.Policies == nil {
		config.Policies = make(map[string]PolicyConfig)
	}

	if err := config.Validate(); err != nil {
		return nil, err
	}

	return &config, nil
}

// Validate checks every policy definition and every directive.
func (c *Config) Validate() error {
	for name, policy := range c.Policies {
		if _, err := policy.ToPolicy(); err != nil {
			return fmt.Errorf("%w: invalid policy %s: %v", ErrInvalidConfig, name, err)
		}
	}

	if _, err := ParseDirectives(c.Table, c); err != nil {
		return err
	}

	return nil
}

// ResolvePolicy implements PolicyResolver from the named definitions.
func (c *Config) ResolvePolicy(name string) (core.Policy, error) {
	pc, ok := c.Policies[name]
	if !ok {
		return core.Policy{}, fmt.Errorf("%w: %q", ErrUnknownPolicy, name)
	}
	return pc.ToPolicy()
}

// Seed resolves the configured directives.
func (c *Config) Seed() (*Seed, error) {
	return ParseDirectives(c.Table, c)
}

// ToPolicy converts a definition into a policy record, filling defaults.
func (p PolicyConfig) ToPolicy() (core.Policy, error) {
	sel, err := core.ParseRateSelection(p.RateSelection)
	if err != nil {
		return core.Policy{}, err
	}

	threshold := core.DefaultRTSCTSThreshold
	if p.RTSCTS != nil {
		threshold = *p.RTSCTS
	}

	rates := make([]int, len(p.Rates))
	copy(rates, p.Rates)

	policy := core.Policy{
		Rates:           rates,
		NoAck:           p.NoAck,
		RateSelection:   sel,
		RTSCTSThreshold: threshold,
	}
	if err := policy.Validate(); err != nil {
		return core.Policy{}, fmt.Errorf("rts_cts: %w", err)
	}
	return policy, nil
}

// ParseDirectives resolves table directives. Each directive must have exactly
// two tokens. The last DEFAULT wins; station entries are seeded as given,
// without intersecting against the default.
func ParseDirectives(directives []string, resolver PolicyResolver) (*Seed, error) {
	seed := &Seed{Entries: make(map[core.HardwareAddress]core.Policy)}

	for _, d := range directives {
		args := strings.Fields(d)
		if len(args) != 2 {
			return nil, fmt.Errorf("%w: directive %q must have 2 args", ErrInvalidConfig, d)
		}

		if args[0] == DefaultDirective {
			policy, err := resolver.ResolvePolicy(args[1])
			if err != nil {
				return nil, fmt.Errorf("%w: directive %q: %w", ErrInvalidConfig, d, err)
			}
			seed.Default = &policy
			continue
		}

		addr, err := core.ParseHardwareAddress(args[0])
		if err != nil {
			return nil, fmt.Errorf("%w: directive %q: must start with a hardware address: %w", ErrInvalidConfig, d, err)
		}
		if addr.IsZero() {
			return nil, fmt.Errorf("%w: directive %q: %w", ErrInvalidConfig, d, ErrInvalidAddress)
		}

		policy, err := resolver.ResolvePolicy(args[1])
		if err != nil {
			return nil, fmt.Errorf("%w: directive %q: %w", ErrInvalidConfig, d, err)
		}
		seed.Entries[addr] = policy
	}

	return seed, nil
}
