package txpolicies

import (
	"errors"
	"os"
	"path/filepath"
	"reflect"
	"strings"
	"testing"

	"github.com/yourusername/txpolicies/core"
)

func intPtr(v int) *int { return &v }

func testConfig() *Config {
	return &Config{
		Policies: map[string]PolicyConfig{
			"legacy": {Rates: legacyRates},
			"voip": {
				Rates:         []int{1, 2, 5, 11},
				NoAck:         true,
				RateSelection: "pr",
				RTSCTS:        intPtr(500),
			},
		},
	}
}

const sampleYAML = `
policies:
  legacy:
    rates: [1, 2, 5, 11, 6, 9, 12, 18, 24, 36, 48, 54]
  voip:
    rates: [1, 2, 5, 11]
    no_ack: true
    rate_selection: pr
    rts_cts: 500

table:
  - "DEFAULT legacy"
  - "aa:bb:cc:dd:ee:ff voip"
`

func TestParseConfig(t *testing.T) {
	config, err := ParseConfig([]byte(sampleYAML))
	if err != nil {
		t.Fatalf("ParseConfig() unexpected error: %v", err)
	}

	if len(config.Policies) != 2 {
		t.Errorf("len(Policies) = %d, want 2", len(config.Policies))
	}
	if len(config.Table) != 2 {
		t.Errorf("len(Table) = %d, want 2", len(config.Table))
	}

	voip, err := config.ResolvePolicy("voip")
	if err != nil {
		t.Fatalf("ResolvePolicy(voip) unexpected error: %v", err)
	}
	want := core.Policy{Rates: []int{1, 2, 5, 11}, NoAck: true, RateSelection: core.RateSelectionPerRate, RTSCTSThreshold: 500}
	if !voip.Equal(want) {
		t.Errorf("voip = %v, want %v", voip, want)
	}

	legacy, _ := config.ResolvePolicy("legacy")
	if legacy.RTSCTSThreshold != core.DefaultRTSCTSThreshold {
		t.Errorf("legacy RTSCTSThreshold = %d, want default", legacy.RTSCTSThreshold)
	}
}

func TestParseConfig_Invalid(t *testing.T) {
	tests := []struct {
		name      string
		yaml      string
		wantToken string
	}{
		{
			name:      "bad yaml",
			yaml:      "policies: [",
			wantToken: "YAML",
		},
		{
			name: "unknown rate selection",
			yaml: `
policies:
  odd: { rates: [1], rate_selection: fastest }
`,
			wantToken: "fastest",
		},
		{
			name: "negative rts/cts",
			yaml: `
policies:
  odd: { rates: [1], rts_cts: -1 }
`,
			wantToken: "rts_cts",
		},
		{
			name: "directive with three tokens",
			yaml: `
policies:
  legacy: { rates: [1] }
table:
  - "DEFAULT legacy extra"
`,
			wantToken: "DEFAULT legacy extra",
		},
		{
			name: "unknown reference",
			yaml: `
table:
  - "aa:bb:cc:dd:ee:ff nosuch"
`,
			wantToken: "nosuch",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseConfig([]byte(tt.yaml))
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("ParseConfig() error = %v, want ErrInvalidConfig", err)
			}
			if !strings.Contains(err.Error(), tt.wantToken) {
				t.Errorf("error %q does not mention %q", err, tt.wantToken)
			}
		})
	}
}

func TestParseDirectives(t *testing.T) {
	config := testConfig()

	seed, err := ParseDirectives([]string{
		"DEFAULT voip",
		"aa:bb:cc:dd:ee:ff   legacy",
		"DEFAULT legacy", // last one wins
	}, config)
	if err != nil {
		t.Fatalf("ParseDirectives() unexpected error: %v", err)
	}

	if seed.Default == nil || !reflect.DeepEqual(seed.Default.Rates, legacyRates) {
		t.Errorf("Default = %v, want legacy", seed.Default)
	}
	if got := seed.Entries[staA].Rates; !reflect.DeepEqual(got, legacyRates) {
		t.Errorf("entry rates = %v, want legacy", got)
	}
}

func TestParseDirectives_Errors(t *testing.T) {
	tests := []struct {
		name      string
		directive string
		wantErr   error
	}{
		{"one token", "DEFAULT", ErrInvalidConfig},
		{"three tokens", "aa:bb:cc:dd:ee:ff voip extra", ErrInvalidConfig},
		{"empty", "", ErrInvalidConfig},
		{"bad address", "zz:zz voip", core.ErrInvalidAddress},
		{"zero address", "00:00:00:00:00:00 voip", ErrInvalidAddress},
		{"unknown station policy", "aa:bb:cc:dd:ee:ff nosuch", ErrUnknownPolicy},
		{"unknown default policy", "DEFAULT nosuch", ErrUnknownPolicy},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseDirectives([]string{tt.directive}, testConfig())
			if !errors.Is(err, ErrInvalidConfig) {
				t.Fatalf("error = %v, want ErrInvalidConfig", err)
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
			if !strings.Contains(err.Error(), tt.directive) {
				t.Errorf("error %q does not quote the directive", err)
			}
		})
	}
}

func TestWithConfigFile_SeedsVerbatim(t *testing.T) {
	path := filepath.Join(t.TempDir(), "policies.yaml")
	if err := os.WriteFile(path, []byte(sampleYAML), 0o600); err != nil {
		t.Fatalf("WriteFile failed: %v", err)
	}

	ps := newTestStore(t, WithConfigFile(path))

	if !reflect.DeepEqual(ps.Default().Rates, legacyRates) {
		t.Errorf("Default().Rates = %v, want legacy", ps.Default().Rates)
	}

	got, src := ps.Resolve(staA)
	if src != core.SourceStation || !got.NoAck || got.RTSCTSThreshold != 500 {
		t.Errorf("Resolve(staA) = %v from %v, want seeded voip", got, src)
	}
}

func TestWithConfigFile_MissingFile(t *testing.T) {
	_, err := NewPolicyStore(WithConfigFile(filepath.Join(t.TempDir(), "nope.yaml")))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}

func TestWithDirectives_AbortsConstruction(t *testing.T) {
	_, err := NewPolicyStore(WithDirectives([]string{"not-an-address voip"}, testConfig()))
	if !errors.Is(err, ErrInvalidConfig) {
		t.Errorf("error = %v, want ErrInvalidConfig", err)
	}
}
