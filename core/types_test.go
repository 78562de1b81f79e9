package core

import (
	"encoding/json"
	"errors"
	"testing"
)

func TestNewPolicy_Defaults(t *testing.T) {
	p := NewPolicy()

	if len(p.Rates) != 0 {
		t.Errorf("Rates = %v, want empty", p.Rates)
	}
	if p.NoAck {
		t.Error("NoAck should default to false")
	}
	if p.RateSelection != RateSelectionBroadcast {
		t.Errorf("RateSelection = %v, want br", p.RateSelection)
	}
	if p.RTSCTSThreshold != 2436 {
		t.Errorf("RTSCTSThreshold = %d, want 2436", p.RTSCTSThreshold)
	}
	if !p.IsEmpty() {
		t.Error("new policy should be empty")
	}
}

func TestPolicy_CloneDoesNotAlias(t *testing.T) {
	p := Policy{Rates: []int{1, 2, 5}}
	c := p.Clone()
	c.Rates[0] = 99

	if p.Rates[0] != 1 {
		t.Errorf("original Rates[0] = %d after mutating clone, want 1", p.Rates[0])
	}
}

func TestPolicy_Validate(t *testing.T) {
	tests := []struct {
		name    string
		policy  Policy
		wantErr error
	}{
		{"defaults", NewPolicy(), nil},
		{"zero threshold", Policy{RTSCTSThreshold: 0}, nil},
		{"per rate", Policy{RateSelection: RateSelectionPerRate, RTSCTSThreshold: 500}, nil},
		{"negative threshold", Policy{Rates: []int{1}, RTSCTSThreshold: -5}, ErrNegativeThreshold},
		{"unknown selection", Policy{RateSelection: RateSelection(7)}, ErrUnknownRateSelection},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.policy.Validate()
			if tt.wantErr == nil {
				if err != nil {
					t.Errorf("Validate() unexpected error: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("Validate() error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestPolicy_Equal(t *testing.T) {
	base := Policy{Rates: []int{1, 2}, RTSCTSThreshold: 2436}

	tests := []struct {
		name  string
		other Policy
		want  bool
	}{
		{"identical", Policy{Rates: []int{1, 2}, RTSCTSThreshold: 2436}, true},
		{"rate order differs", Policy{Rates: []int{2, 1}, RTSCTSThreshold: 2436}, false},
		{"extra rate", Policy{Rates: []int{1, 2, 5}, RTSCTSThreshold: 2436}, false},
		{"no ack differs", Policy{Rates: []int{1, 2}, NoAck: true, RTSCTSThreshold: 2436}, false},
		{"selection differs", Policy{Rates: []int{1, 2}, RateSelection: RateSelectionPerRate, RTSCTSThreshold: 2436}, false},
		{"threshold differs", Policy{Rates: []int{1, 2}, RTSCTSThreshold: 100}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := base.Equal(tt.other); got != tt.want {
				t.Errorf("Equal() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPolicy_String(t *testing.T) {
	tests := []struct {
		name   string
		policy Policy
		want   string
	}{
		{
			name:   "empty",
			policy: NewPolicy(),
			want:   "rates= no_ack=false rate_selection=br rts_cts=2436",
		},
		{
			name:   "full",
			policy: Policy{Rates: []int{1, 2, 5, 11}, NoAck: true, RateSelection: RateSelectionPerRate, RTSCTSThreshold: 500},
			want:   "rates=1,2,5,11 no_ack=true rate_selection=pr rts_cts=500",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.policy.String(); got != tt.want {
				t.Errorf("String() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestParseRateSelection(t *testing.T) {
	tests := []struct {
		in      string
		want    RateSelection
		wantErr bool
	}{
		{"", RateSelectionBroadcast, false},
		{"br", RateSelectionBroadcast, false},
		{"BR", RateSelectionBroadcast, false},
		{"pr", RateSelectionPerRate, false},
		{"per_rate", RateSelectionPerRate, false},
		{"fastest", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseRateSelection(tt.in)
			if tt.wantErr {
				if !errors.Is(err, ErrUnknownRateSelection) {
					t.Errorf("ParseRateSelection(%q) error = %v, want ErrUnknownRateSelection", tt.in, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseRateSelection(%q) unexpected error: %v", tt.in, err)
			}
			if got != tt.want {
				t.Errorf("ParseRateSelection(%q) = %v, want %v", tt.in, got, tt.want)
			}
		})
	}
}

func TestPolicy_JSONUsesSelectionNames(t *testing.T) {
	p := Policy{Rates: []int{6}, RateSelection: RateSelectionPerRate, RTSCTSThreshold: 2436}

	data, err := json.Marshal(p)
	if err != nil {
		t.Fatalf("Marshal failed: %v", err)
	}

	want := `{"rates":[6],"no_ack":false,"rate_selection":"pr","rts_cts_threshold":2436}`
	if string(data) != want {
		t.Errorf("json = %s, want %s", data, want)
	}

	var back Policy
	if err := json.Unmarshal(data, &back); err != nil {
		t.Fatalf("Unmarshal failed: %v", err)
	}
	if !back.Equal(p) {
		t.Errorf("decoded %v, want %v", back, p)
	}
}

func TestSource_String(t *testing.T) {
	names := map[Source]string{
		SourceEmpty:   "empty",
		SourceStation: "station",
		SourceDefault: "default",
		SourceInvalid: "invalid",
	}
	for src, want := range names {
		if got := src.String(); got != want {
			t.Errorf("Source(%d).String() = %q, want %q", int(src), got, want)
		}
	}
}
