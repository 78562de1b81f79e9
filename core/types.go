package core

import (
	"errors"
	"fmt"
	"strconv"
	"strings"
)

// DefaultRTSCTSThreshold is the frame size in bytes above which an RTS/CTS
// exchange precedes data when no threshold is configured.
const DefaultRTSCTSThreshold = 2436

var (
	// ErrUnknownRateSelection is returned when a rate selection name is not recognized
	ErrUnknownRateSelection = errors.New("unknown rate selection")

	// ErrNegativeThreshold is returned by Validate for a negative RTS/CTS threshold
	ErrNegativeThreshold = errors.New("rts/cts threshold must not be negative")
)

// RateSelection is the strategy used to pick among a policy's rates
type RateSelection int

const (
	RateSelectionBroadcast RateSelection = iota // use the broadcast rate
	RateSelectionPerRate                        // pick per rate from the list
)

// String returns the short name used in rendered policies and config files
func (s RateSelection) String() string {
	switch s {
	case RateSelectionBroadcast:
		return "br"
	case RateSelectionPerRate:
		return "pr"
	default:
		return "unknown(" + strconv.Itoa(int(s)) + ")"
	}
}

// ParseRateSelection parses "br" or "pr" (case-insensitive). An empty string
// selects broadcast mode.
func ParseRateSelection(s string) (RateSelection, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "br", "broadcast":
		return RateSelectionBroadcast, nil
	case "pr", "per_rate", "per-rate":
		return RateSelectionPerRate, nil
	default:
		return 0, fmt.Errorf("%w: %q", ErrUnknownRateSelection, s)
	}
}

// Policy holds the transmission parameters for one station
type Policy struct {
	Rates           []int         `json:"rates"`            // Rate identifiers, order matters downstream
	NoAck           bool          `json:"no_ack"`           // Suppress acknowledgments
	RateSelection   RateSelection `json:"rate_selection"`   // How to choose among Rates
	RTSCTSThreshold int           `json:"rts_cts_threshold"` // Bytes above which RTS/CTS is used
}

// NewPolicy returns a policy with default-valued fields and no rates
func NewPolicy() Policy {
	return Policy{
		Rates:           []int{},
		RateSelection:   RateSelectionBroadcast,
		RTSCTSThreshold: DefaultRTSCTSThreshold,
	}
}

// Clone returns a deep copy so callers can't alias table storage
func (p Policy) Clone() Policy {
	c := p
	c.Rates = make([]int, len(p.Rates))
	copy(c.Rates, p.Rates)
	return c
}

// Validate checks the fields a caller can set to out-of-range values
func (p Policy) Validate() error {
	if p.RateSelection != RateSelectionBroadcast && p.RateSelection != RateSelectionPerRate {
		return fmt.Errorf("%w: %d", ErrUnknownRateSelection, int(p.RateSelection))
	}
	if p.RTSCTSThreshold < 0 {
		return fmt.Errorf("%w: %d", ErrNegativeThreshold, p.RTSCTSThreshold)
	}
	return nil
}

// IsEmpty reports whether the policy carries no rates
func (p Policy) IsEmpty() bool {
	return len(p.Rates) == 0
}

// Equal compares every field; rates are compared by value and position
func (p Policy) Equal(o Policy) bool {
	if p.NoAck != o.NoAck || p.RateSelection != o.RateSelection || p.RTSCTSThreshold != o.RTSCTSThreshold {
		return false
	}
	if len(p.Rates) != len(o.Rates) {
		return false
	}
	for i := range p.Rates {
		if p.Rates[i] != o.Rates[i] {
			return false
		}
	}
	return true
}

// String renders the policy in the stable form used by the policies dump:
//
//	rates=1,2,5,11 no_ack=false rate_selection=br rts_cts=2436
func (p Policy) String() string {
	var sb strings.Builder
	sb.WriteString("rates=")
	for i, r := range p.Rates {
		if i > 0 {
			sb.WriteByte(',')
		}
		sb.WriteString(strconv.Itoa(r))
	}
	fmt.Fprintf(&sb, " no_ack=%t rate_selection=%s rts_cts=%d", p.NoAck, p.RateSelection, p.RTSCTSThreshold)
	return sb.String()
}

// Source tells where a resolved policy came from
type Source int

const (
	SourceEmpty   Source = iota // no entry and no usable default
	SourceStation               // explicit per-station entry
	SourceDefault               // fell back to the default policy
	SourceInvalid               // lookup key was the zero address
)

func (s Source) String() string {
	switch s {
	case SourceEmpty:
		return "empty"
	case SourceStation:
		return "station"
	case SourceDefault:
		return "default"
	case SourceInvalid:
		return "invalid"
	default:
		return "unknown"
	}
}

// MarshalText implements encoding.TextMarshaler
func (s RateSelection) MarshalText() ([]byte, error) {
	return []byte(s.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler
func (s *RateSelection) UnmarshalText(text []byte) error {
	parsed, err := ParseRateSelection(string(text))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}
